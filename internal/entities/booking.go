package entities

import "time"

// GuestInfo is the free-form contact payload. The engine treats it as
// opaque beyond requiring the fields the operator needs to reach the
// guest.
type GuestInfo struct {
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Instagram string `json:"instagram" validate:"required"`
	Whatsapp  string `json:"whatsapp"`
	Hotel     string `json:"hotel"`
	Remarks   string `json:"remarks"`
}

// DepositIntentRequest asks the backend to open a Stripe PaymentIntent
// for the deposit. The amount is always recomputed server-side from the
// party size; nothing the client sends is trusted for money.
type DepositIntentRequest struct {
	Tour      string `json:"tour" validate:"required"`
	PartySize int    `json:"party_size" validate:"required,min=1,max=11"`
}

// DepositIntentResponse carries the client secret the guest's browser
// needs to complete the card payment.
type DepositIntentResponse struct {
	ClientSecret string `json:"client_secret"`
	Amount       int    `json:"amount"`
}

// BookingRequest commits a booking after the guest completed the deposit
// payment. PaymentIntentID references the intent the guest paid.
type BookingRequest struct {
	DateKey         string    `json:"date_key" validate:"required"`
	Tour            string    `json:"tour" validate:"required"`
	PartySize       int       `json:"party_size" validate:"required,min=1,max=11"`
	Vehicle1        string    `json:"vehicle1"`
	Vehicle2        string    `json:"vehicle2"`
	Options         AddOns    `json:"options"`
	PaymentIntentID string    `json:"payment_intent_id" validate:"required"`
	Guest           GuestInfo `json:"guest" validate:"required"`
}

// BookingResponse is the persisted booking as surfaced to guests and the
// admin dashboard. The date is rendered in both encodings.
type BookingResponse struct {
	ID                  string    `json:"id"`
	DateKey             string    `json:"date_key"`
	DateDisplay         string    `json:"date_display"`
	Tour                Tour      `json:"tour"`
	PartySize           int       `json:"party_size"`
	Vehicle1            string    `json:"vehicle1"`
	Vehicle2            string    `json:"vehicle2,omitempty"`
	BasePrice           int       `json:"base_price"`
	Surcharge1          int       `json:"surcharge1"`
	Surcharge2          int       `json:"surcharge2"`
	Options             AddOns    `json:"options"`
	TotalPrice          int       `json:"total_price"`
	Deposit             int       `json:"deposit"`
	Status              string    `json:"status"`
	PaymentAcknowledged bool      `json:"payment_acknowledged"`
	Guest               GuestInfo `json:"guest"`
	CreatedAt           time.Time `json:"created_at"`
}

// BookingNotification is the assembled summary handed to the outbound
// notification dispatch. No return value is consumed.
type BookingNotification struct {
	BookingID    string
	GuestName    string
	GuestEmail   string
	Instagram    string
	Whatsapp     string
	Hotel        string
	Remarks      string
	DateDisplay  string
	Tour         Tour
	PartySize    int
	VehicleLabel string
	DriverEmail  string
	DriverPhone  string
	Options      string
	TotalPrice   int
	Deposit      int
	Balance      int
}
