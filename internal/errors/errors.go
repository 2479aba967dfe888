package errors

import (
	"errors"
	"net/http"
)

// Engine error kinds. Handlers map these onto HTTP statuses; everything
// else is treated as an internal error.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrVariantUnavailable = errors.New("tour variant not available for this date")
	ErrSlotSoldOut        = errors.New("tour sold out for this date")
	ErrVehicleConflict    = errors.New("vehicle no longer available for this date")
	ErrPaymentDeclined    = errors.New("payment declined")
	ErrBookingNotFound    = errors.New("booking not found")
	ErrVehicleNotFound    = errors.New("vehicle not found")

	// ErrPersistenceFailure means the guest's payment succeeded but the
	// booking could not be recorded. Requires manual follow-up; callers
	// must never report it as if no money was taken.
	ErrPersistenceFailure = errors.New("booking could not be saved after payment")
)

// HTTPError represents an error with an associated HTTP status code.
type HTTPError struct {
	Code    int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTPError with the given code and message.
func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{
		Code:    code,
		Message: message,
	}
}

// StatusFor maps an engine error to the HTTP status the API surfaces.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrVariantUnavailable), errors.Is(err, ErrSlotSoldOut):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrVehicleConflict):
		return http.StatusConflict
	case errors.Is(err, ErrPaymentDeclined):
		return http.StatusPaymentRequired
	case errors.Is(err, ErrBookingNotFound), errors.Is(err, ErrVehicleNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Helper for common errors
var (
	ErrUnauthorized = func(msg string) *HTTPError { return NewHTTPError(http.StatusUnauthorized, msg) }
)
