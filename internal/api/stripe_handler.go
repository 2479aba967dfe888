package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"godzillatours/internal/db"
	"godzillatours/internal/repository"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeWebhookHandler consumes payment events. The booking flow
// verifies intents synchronously before persisting, so the webhook is a
// safety net: it confirms any booking that was left Pending and flags
// refunds for manual follow-up.
type StripeWebhookHandler struct {
	StripeSecret string
	Bookings     *repository.BookingRepository
}

func NewStripeWebhookHandler(stripeSecret string, bookings *repository.BookingRepository) *StripeWebhookHandler {
	return &StripeWebhookHandler{StripeSecret: stripeSecret, Bookings: bookings}
}

func (h *StripeWebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	const maxBodyBytes = int64(65536)
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("Error reading body: %v", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	event, err := webhook.ConstructEvent(payload, sigHeader, h.StripeSecret)
	if err != nil {
		log.Printf("Webhook signature verification failed: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "payment_intent.succeeded":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			log.Printf("Error parsing payment_intent: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if intent.ID == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if err := h.Bookings.UpdateStatusByPaymentIntent(r.Context(), intent.ID, db.BookingStatusConfirmed); err != nil {
			log.Printf("DB error: %v", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

	case "charge.refunded":
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			log.Printf("Error parsing charge: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if charge.PaymentIntent != nil {
			// Statuses are a closed Pending/Confirmed set; refunds are an
			// operator decision, so only flag them for manual follow-up.
			log.Printf("Deposit refunded for payment intent %s; booking needs manual review", charge.PaymentIntent.ID)
		}

	default:
		log.Printf("Unhandled Stripe event type: %s", event.Type)
	}

	w.WriteHeader(http.StatusOK)
}
