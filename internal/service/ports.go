package service

import (
	"context"

	"godzillatours/internal/db"
	"godzillatours/internal/entities"
)

// The allocation engine only needs synchronous reads at decision time,
// so it depends on narrow store interfaces rather than the concrete
// repositories. Push delivery of changes is a presentation concern.

type VehicleStore interface {
	ListOfferable(ctx context.Context) ([]db.Vehicle, error)
}

type AvailabilityStore interface {
	// OpenVehicleIDs returns the vehicles whose operator explicitly
	// opened the date for the tour plan. Absence means blocked.
	OpenVehicleIDs(ctx context.Context, tour, dateKey string) (map[string]bool, error)
	// SlotRemaining returns the coarse counter and whether one is set.
	SlotRemaining(ctx context.Context, tour, dateKey string) (int, bool, error)
}

type BookingStore interface {
	AssignedVehicleIDs(ctx context.Context, tour, dateKey string) ([]string, error)
	CreateConfirmed(ctx context.Context, b *db.Booking, closeVehicles []string) error
	GetByIDAndEmail(ctx context.Context, id, email string) (*db.Booking, error)
}

// PaymentClient is the external payment-authorization collaborator. The
// engine never derives the charge amount from client input.
type PaymentClient interface {
	CreateDepositIntent(ctx context.Context, amount int64, metadata map[string]string) (clientSecret, intentID string, err error)
	// VerifyDeposit checks that the intent exists, succeeded and charged
	// exactly the expected amount.
	VerifyDeposit(ctx context.Context, intentID string, expectedAmount int64) error
}

// Notifier dispatches the booking summary to the operator and guest.
// Fire-and-forget: the engine consumes no return value and failures
// never roll back a booking.
type Notifier interface {
	BookingConfirmed(n entities.BookingNotification)
}
