package pricing

import (
	"time"

	"godzillatours/internal/dateutil"
	"godzillatours/internal/entities"
)

// PriceOnRequest is returned for parties of seven or more. It means "ask
// us", never "free"; callers must not treat it as a bookable total.
const PriceOnRequest = 0

// DefaultDepositUnit is the deposit charged online per required car, in
// yen. The remainder of the tour price is collected in cash on the day.
const DefaultDepositUnit = 5000

// Add-on prices in yen. Flat fees, orthogonal to vehicle choice. The
// three customization requests are best-effort: the fee buys the
// request, not a guarantee of the exact car.
const (
	ColorRequestPrice = 10000
	ModelRequestPrice = 10000
	TunedCarPrice     = 10000
	TokyoTowerPrice   = 5000
	ShibuyaPrice      = 5000
)

// OptionsTotal sums the flat add-on fees for a selection.
func OptionsTotal(o entities.AddOns) int {
	total := 0
	if o.ColorRequest {
		total += ColorRequestPrice
	}
	if o.ModelRequest {
		total += ModelRequestPrice
	}
	if o.TunedCarRequest {
		total += TunedCarPrice
	}
	if o.TokyoTower {
		total += TokyoTowerPrice
	}
	if o.Shibuya {
		total += ShibuyaPrice
	}
	return total
}

// Price returns the base tour price in yen for a date, party size and
// tour plan. Weekend pricing applies on Fridays and Saturdays. Daikoku
// runs every day; Umihotaru pricing assumes a Friday/Saturday date (the
// allocation layer refuses other days before pricing is reached).
func Price(date time.Time, partySize int, tour entities.Tour) int {
	weekend := dateutil.IsWeekend(date)
	if tour == entities.TourUmihotaru {
		// Umihotaru only departs on weekend-tier days, so it carries a
		// single flat matrix.
		weekend = false
	}

	switch {
	case partySize <= 0:
		return PriceOnRequest
	case partySize == 1:
		return 50000
	case partySize == 2:
		if weekend {
			return 65000
		}
		return 60000
	case partySize == 3:
		if weekend {
			return 70000
		}
		return 65000
	case partySize <= 6:
		if weekend {
			return 130000
		}
		return 120000
	default:
		// 7+ guests: price on request.
		return PriceOnRequest
	}
}

// VehicleCount returns the number of cars a party needs: one car per
// three guests.
func VehicleCount(partySize int) int {
	if partySize <= 0 {
		return 0
	}
	return (partySize + 2) / 3
}

// Deposit returns the online deposit in yen: one unit per required car.
func Deposit(partySize, unit int) int {
	return VehicleCount(partySize) * unit
}
