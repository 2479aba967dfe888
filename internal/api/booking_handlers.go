package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"godzillatours/internal/entities"
	apperrors "godzillatours/internal/errors"
	"godzillatours/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// BookingHandler serves the guest-facing endpoints. It decodes and
// validates requests and defers every decision to the allocation engine.
type BookingHandler struct {
	Engine   *service.AllocationService
	validate *validator.Validate
}

func NewBookingHandler(engine *service.AllocationService) *BookingHandler {
	return &BookingHandler{Engine: engine, validate: validator.New()}
}

// Calendar renders the month grid: per-day price plus closed/sold-out
// flags for a party size and tour plan.
// GET /api/calendar?year=2025&month=2&party_size=2&tour=Daikoku%20Tour
func (h *BookingHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, err1 := strconv.Atoi(q.Get("year"))
	month, err2 := strconv.Atoi(q.Get("month"))
	partySize, err3 := strconv.Atoi(q.Get("party_size"))
	if err1 != nil || err2 != nil || err3 != nil {
		writeError(w, fmt.Errorf("%w: year, month and party_size must be integers", apperrors.ErrInvalidInput))
		return
	}
	tour, err := entities.ParseTour(q.Get("tour"))
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}

	calendar, err := h.Engine.Calendar(r.Context(), year, month, partySize, tour)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, calendar)
}

// Offer quotes a candidate selection: price, deposit and the current
// disabled-vehicle set.
// POST /api/offer
func (h *BookingHandler) Offer(w http.ResponseWriter, r *http.Request) {
	var req entities.QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", apperrors.ErrInvalidInput))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}

	offer, err := h.Engine.Quote(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, offer)
}

// CreateDepositIntent opens the Stripe payment for the server-computed
// deposit amount.
// POST /api/bookings/intent
func (h *BookingHandler) CreateDepositIntent(w http.ResponseWriter, r *http.Request) {
	var req entities.DepositIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", apperrors.ErrInvalidInput))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}

	resp, err := h.Engine.CreateDepositIntent(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateBooking commits a booking after the guest paid the deposit.
// POST /api/bookings
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req entities.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", apperrors.ErrInvalidInput))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}

	booking, err := h.Engine.CreateBooking(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	resp, err := h.Engine.ToResponse(booking)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// GetBooking is the guest lookup by booking id and contact email.
// GET /api/bookings/{id}?email=...
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, fmt.Errorf("%w: email query parameter is required", apperrors.ErrInvalidInput))
		return
	}

	booking, err := h.Engine.GetBooking(r.Context(), id, email)
	if err != nil {
		writeError(w, err)
		return
	}
	resp, err := h.Engine.ToResponse(booking)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListVehicles returns the offerable catalog in display order.
// GET /api/vehicles
func (h *BookingHandler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	// An offer with no date is not meaningful, so the plain catalog
	// listing rides on the engine's vehicle store.
	vehicles, err := h.Engine.ListOfferableVehicles(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicles)
}
