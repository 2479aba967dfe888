package entities

import (
	"fmt"
	"time"

	"godzillatours/internal/dateutil"
)

// Tour is the closed set of tour variants. The values are the
// guest-facing plan names, which is also how they are stored.
type Tour string

const (
	TourDaikoku   Tour = "Daikoku Tour"
	TourUmihotaru Tour = "Umihotaru Tour"
)

// RandomVehicle is the nomination sentinel for "assign a car on the day".
const RandomVehicle = "none"

// PartySizeOnRequest represents the "10+" guest selection. It routes to
// the price-on-request branch instead of a fixed price.
const PartySizeOnRequest = 11

// ParseTour validates a tour plan name. Any value outside the two known
// plans is a caller error.
func ParseTour(s string) (Tour, error) {
	switch Tour(s) {
	case TourDaikoku:
		return TourDaikoku, nil
	case TourUmihotaru:
		return TourUmihotaru, nil
	default:
		return "", fmt.Errorf("unknown tour %q", s)
	}
}

// OfferedOn reports whether the tour runs on the given date at all.
// Umihotaru only departs on Fridays and Saturdays.
func (t Tour) OfferedOn(date time.Time) bool {
	if t == TourUmihotaru {
		return dateutil.IsWeekend(date)
	}
	return true
}
