package api

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"

	"godzillatours/internal/db"
	"godzillatours/internal/entities"
	apperrors "godzillatours/internal/errors"
	"godzillatours/internal/repository"
	"godzillatours/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// AdminHandler serves the operator endpoints: vehicle catalog edits,
// open-date toggles, slot counters and the booking dashboard. It writes
// directly through the repositories; the allocation engine only renders.
type AdminHandler struct {
	Vehicles     *repository.VehicleRepository
	Availability *repository.AvailabilityRepository
	Bookings     *repository.BookingRepository
	Engine       *service.AllocationService
	validate     *validator.Validate
}

func NewAdminHandler(
	vehicles *repository.VehicleRepository,
	availability *repository.AvailabilityRepository,
	bookings *repository.BookingRepository,
	engine *service.AllocationService,
) *AdminHandler {
	return &AdminHandler{
		Vehicles:     vehicles,
		Availability: availability,
		Bookings:     bookings,
		Engine:       engine,
		validate:     validator.New(),
	}
}

// ListBookings filters by any of date, tour and status.
// GET /admin/bookings?date=2025-02-14&tour=...&status=Confirmed
func (h *AdminHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	bookings, err := h.Bookings.List(r.Context(), q.Get("date"), q.Get("tour"), q.Get("status"))
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]*entities.BookingResponse, 0, len(bookings))
	for i := range bookings {
		resp, err := h.Engine.ToResponse(&bookings[i])
		if err != nil {
			writeError(w, err)
			return
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}

// GetBooking is the dashboard detail view: unlike the guest lookup it
// needs no matching contact email.
// GET /admin/bookings/{id}
func (h *AdminHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := h.Bookings.GetByID(r.Context(), mux.Vars(r)["id"])
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

// SetPaymentAcknowledged flips the operator's manual payment check.
// PUT /admin/bookings/{id}/payment-acknowledged
func (h *AdminHandler) SetPaymentAcknowledged(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req PaymentAcknowledgedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", apperrors.ErrInvalidInput))
		return
	}
	if err := h.Bookings.SetPaymentAcknowledged(r.Context(), id, req.Acknowledged); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Payment acknowledgement updated"})
}

// ListVehicles returns every vehicle including hidden ones.
// GET /admin/vehicles
func (h *AdminHandler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.Vehicles.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(vehicles))
	for _, v := range vehicles {
		out = append(out, map[string]any{
			"id":            v.ID,
			"slug":          v.Slug.String,
			"name":          v.Name,
			"subtitle":      v.Subtitle,
			"surcharge":     v.Surcharge,
			"display_order": v.DisplayOrder,
			"is_visible":    v.IsVisible,
			"driver_email":  v.DriverEmail.String,
			"driver_phone":  v.DriverPhone.String,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateVehicle adds a car to the catalog.
// POST /admin/vehicles
func (h *AdminHandler) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	v, ok := h.decodeVehicle(w, r)
	if !ok {
		return
	}
	if err := h.Vehicles.Create(r.Context(), v); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Vehicle created"})
}

// UpdateVehicle edits a catalog entry. Vehicles are never deleted from
// the guest-facing flow; hiding them is the retirement path.
// PUT /admin/vehicles/{id}
func (h *AdminHandler) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	v, ok := h.decodeVehicle(w, r)
	if !ok {
		return
	}
	v.ID = mux.Vars(r)["id"]
	if err := h.Vehicles.Update(r.Context(), v); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Vehicle updated"})
}

// GetVehicle returns one catalog entry, hidden or not.
// GET /admin/vehicles/{id}
func (h *AdminHandler) GetVehicle(w http.ResponseWriter, r *http.Request) {
	v, err := h.Vehicles.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":            v.ID,
		"slug":          v.Slug.String,
		"name":          v.Name,
		"subtitle":      v.Subtitle,
		"surcharge":     v.Surcharge,
		"display_order": v.DisplayOrder,
		"is_visible":    v.IsVisible,
		"driver_email":  v.DriverEmail.String,
		"driver_phone":  v.DriverPhone.String,
	})
}

// SetVehicleVisibility hides or shows a car in guest offers without
// touching the rest of the record.
// PUT /admin/vehicles/{id}/visibility
func (h *AdminHandler) SetVehicleVisibility(w http.ResponseWriter, r *http.Request) {
	var req VisibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", apperrors.ErrInvalidInput))
		return
	}
	if err := h.Vehicles.SetVisibility(r.Context(), mux.Vars(r)["id"], req.Visible); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Vehicle visibility updated"})
}

func (h *AdminHandler) decodeVehicle(w http.ResponseWriter, r *http.Request) (*db.Vehicle, bool) {
	var req VehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", apperrors.ErrInvalidInput))
		return nil, false
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return nil, false
	}

	visible := true
	if req.IsVisible != nil {
		visible = *req.IsVisible
	}
	return &db.Vehicle{
		ID:           req.ID,
		Slug:         sql.NullString{String: req.Slug, Valid: req.Slug != ""},
		Name:         req.Name,
		Subtitle:     req.Subtitle,
		Surcharge:    req.Surcharge,
		DisplayOrder: req.DisplayOrder,
		IsVisible:    visible,
		DriverEmail:  sql.NullString{String: req.DriverEmail, Valid: req.DriverEmail != ""},
		DriverPhone:  sql.NullString{String: req.DriverPhone, Valid: req.DriverPhone != ""},
	}, true
}

// ListOpenDates shows a vehicle's open dates for one tour plan.
// GET /admin/vehicles/{id}/availability?tour=...
func (h *AdminHandler) ListOpenDates(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	tour, err := entities.ParseTour(r.URL.Query().Get("tour"))
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}

	keys, err := h.Availability.ListOpenDates(r.Context(), id, string(tour))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"vehicle_id": id, "tour": tour, "open_dates": keys})
}

// ToggleOpenDate opens or closes one date for a vehicle and tour plan.
// Both directions are idempotent.
// PUT /admin/vehicles/{id}/availability
func (h *AdminHandler) ToggleOpenDate(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req OpenDateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", apperrors.ErrInvalidInput))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}
	tour, err := entities.ParseTour(req.Tour)
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}

	if req.Open {
		err = h.Availability.OpenDate(r.Context(), id, string(tour), req.DateKey)
	} else {
		err = h.Availability.CloseDate(r.Context(), id, string(tour), req.DateKey)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Availability updated"})
}

// SetSlotInventory upserts or clears the coarse per-date counter.
// PUT /admin/slots
func (h *AdminHandler) SetSlotInventory(w http.ResponseWriter, r *http.Request) {
	var req SlotInventoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", apperrors.ErrInvalidInput))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}
	tour, err := entities.ParseTour(req.Tour)
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}

	if req.Remaining == nil {
		err = h.Availability.ClearSlot(r.Context(), string(tour), req.DateKey)
	} else {
		err = h.Availability.SetSlotRemaining(r.Context(), string(tour), req.DateKey, *req.Remaining)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Slot inventory updated"})
}
