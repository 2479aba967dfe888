package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	apperrors "godzillatours/internal/errors"
)

// Admin request bodies.

type VehicleRequest struct {
	ID           string `json:"id" validate:"required"`
	Slug         string `json:"slug"`
	Name         string `json:"name" validate:"required"`
	Subtitle     string `json:"subtitle"`
	Surcharge    int    `json:"surcharge" validate:"min=0"`
	DisplayOrder int    `json:"display_order" validate:"min=0"`
	IsVisible    *bool  `json:"is_visible"`
	DriverEmail  string `json:"driver_email"`
	DriverPhone  string `json:"driver_phone"`
}

type OpenDateRequest struct {
	Tour    string `json:"tour" validate:"required"`
	DateKey string `json:"date_key" validate:"required"`
	Open    bool   `json:"open"`
}

type SlotInventoryRequest struct {
	Tour      string `json:"tour" validate:"required"`
	DateKey   string `json:"date_key" validate:"required"`
	Remaining *int   `json:"remaining"`
}

type PaymentAcknowledgedRequest struct {
	Acknowledged bool `json:"acknowledged"`
}

type VisibilityRequest struct {
	Visible bool `json:"visible"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// writeError maps engine errors onto their HTTP status while keeping
// internal errors opaque to the client.
func writeError(w http.ResponseWriter, err error) {
	var httpErr *apperrors.HTTPError
	if errors.As(err, &httpErr) {
		writeJSON(w, httpErr.Code, map[string]string{"error": httpErr.Message})
		return
	}

	status := apperrors.StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("Internal error: %v", err)
		msg = "internal error"
	}
	if errors.Is(err, apperrors.ErrPersistenceFailure) {
		// Money was taken; the guest must not be told to simply retry.
		msg = "your payment succeeded but the booking could not be saved; please contact support"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}
