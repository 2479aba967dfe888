package entities

// Eligibility is the engine's answer for one (date, tour) pair: which
// vehicles may not be nominated, plus the two coarse gating flags. The
// flags are distinct signals: VariantUnavailable means the tour does not
// run that day at all, SoldOut means the operator's slot counter closed
// the whole variant for display. SoldOut does not by itself disable
// individual vehicle ids.
type Eligibility struct {
	DateKey            string   `json:"date_key"`
	Tour               Tour     `json:"tour"`
	DisabledVehicles   []string `json:"disabled_vehicles"`
	VariantUnavailable bool     `json:"variant_unavailable"`
	SoldOut            bool     `json:"sold_out"`
}

// IsDisabled reports whether a specific vehicle id may not be nominated.
// The random-assignment sentinel is never disabled here; date-level
// closure is a separate calendar concern.
func (e Eligibility) IsDisabled(vehicleID string) bool {
	if vehicleID == RandomVehicle {
		return false
	}
	if e.VariantUnavailable {
		return true
	}
	for _, id := range e.DisabledVehicles {
		if id == vehicleID {
			return true
		}
	}
	return false
}

// VehicleOffer is one catalog entry in a guest-facing offer.
type VehicleOffer struct {
	ID        string `json:"id"`
	Slug      string `json:"slug,omitempty"`
	Name      string `json:"name"`
	Subtitle  string `json:"subtitle,omitempty"`
	Surcharge int    `json:"surcharge"`
	Disabled  bool   `json:"disabled"`
}

// AddOns is the fixed record of optional extras: three vehicle
// customization requests and two photo stops. The free-text detail
// fields are only meaningful while their flag is set; the engine blanks
// them otherwise.
type AddOns struct {
	ColorRequest     bool   `json:"color_request"`
	ColorRequestText string `json:"color_request_text,omitempty"`
	ModelRequest     bool   `json:"model_request"`
	ModelRequestText string `json:"model_request_text,omitempty"`
	TunedCarRequest  bool   `json:"tuned_car_request"`
	TokyoTower       bool   `json:"tokyo_tower"`
	Shibuya          bool   `json:"shibuya"`
}

// QuoteRequest asks for a priced offer for a candidate selection.
type QuoteRequest struct {
	DateKey   string `json:"date_key" validate:"required"`
	Tour      string `json:"tour" validate:"required"`
	PartySize int    `json:"party_size" validate:"required,min=1,max=11"`
	Vehicle1  string `json:"vehicle1"`
	Vehicle2  string `json:"vehicle2"`
	Options   AddOns `json:"options"`
}

// Offer is the guest-facing quote: price, deposit and the current
// nomination state for the date.
type Offer struct {
	DateKey        string         `json:"date_key"`
	DateDisplay    string         `json:"date_display"`
	Tour           Tour           `json:"tour"`
	PartySize      int            `json:"party_size"`
	BasePrice      int            `json:"base_price"`
	Surcharge1     int            `json:"surcharge1"`
	Surcharge2     int            `json:"surcharge2"`
	OptionsPrice   int            `json:"options_price"`
	TotalPrice     int            `json:"total_price"`
	Deposit        int            `json:"deposit"`
	PriceOnRequest bool           `json:"price_on_request"`
	VehiclesNeeded int            `json:"vehicles_needed"`
	Vehicles       []VehicleOffer `json:"vehicles"`
	Eligibility    Eligibility    `json:"eligibility"`
}

// CalendarDay is one cell of the booking calendar for a month view.
type CalendarDay struct {
	DateKey   string `json:"date_key"`
	Day       int    `json:"day"`
	Price     int    `json:"price"`
	OnRequest bool   `json:"on_request"`
	Closed    bool   `json:"closed"`
	SoldOut   bool   `json:"sold_out"`
}

// CalendarMonth is the month view for a party size and tour plan.
type CalendarMonth struct {
	Year  int           `json:"year"`
	Month int           `json:"month"`
	Tour  Tour          `json:"tour"`
	Days  []CalendarDay `json:"days"`
}
