package db

import (
	"database/sql"
	"time"
)

// Vehicle is a tour car in the catalog. Surcharge is the per-booking
// premium in yen for nominating this specific car.
type Vehicle struct {
	ID           string
	Slug         sql.NullString
	Name         string
	Subtitle     string
	Surcharge    int
	DisplayOrder int
	IsVisible    bool
	DriverEmail  sql.NullString
	DriverPhone  sql.NullString
}

// SlotInventory is the coarse per-date per-tour counter maintained by the
// operator, independent of per-vehicle open dates. A missing row means
// open/unlimited; Remaining <= 0 means the whole tour variant is sold out
// for that date.
type SlotInventory struct {
	DateKey   string
	Tour      string
	Remaining int
}

const (
	BookingStatusPending   = "Pending"
	BookingStatusConfirmed = "Confirmed"
)

// Booking is a reservation row. Vehicle1/Vehicle2 hold a vehicle id or
// the "none" sentinel meaning "assign randomly on the day". Vehicle2 is
// only set for parties of four or more.
type Booking struct {
	ID                  string
	DateKey             string
	Tour                string
	PartySize           int
	Vehicle1            string
	Vehicle2            sql.NullString
	BasePrice           int
	Surcharge1          int
	Surcharge2          int
	ColorRequest        bool
	ColorRequestText    string
	ModelRequest        bool
	ModelRequestText    string
	TunedCarRequest     bool
	TokyoTower          bool
	Shibuya             bool
	TotalPrice          int
	Deposit             int
	Status              string
	PaymentIntentID     sql.NullString
	PaymentAcknowledged bool
	GuestName           string
	GuestEmail          string
	GuestInstagram      string
	GuestWhatsapp       string
	GuestHotel          string
	GuestRemarks        string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
