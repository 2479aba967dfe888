package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"godzillatours/internal/config"
	"godzillatours/internal/dateutil"
	"godzillatours/internal/db"
	"godzillatours/internal/entities"
	apperrors "godzillatours/internal/errors"
	"godzillatours/internal/pricing"

	"github.com/google/uuid"
)

// AllocationService decides, for a (date, tour, party size) tuple, which
// vehicles may be offered, what the price and deposit are, and commits
// bookings without double-booking a car.
type AllocationService struct {
	vehicles     VehicleStore
	availability AvailabilityStore
	bookings     BookingStore
	payments     PaymentClient
	notifier     Notifier
	cfg          *config.Config
	now          func() time.Time
}

func NewAllocationService(
	vehicles VehicleStore,
	availability AvailabilityStore,
	bookings BookingStore,
	payments PaymentClient,
	notifier Notifier,
	cfg *config.Config,
) *AllocationService {
	return &AllocationService{
		vehicles:     vehicles,
		availability: availability,
		bookings:     bookings,
		payments:     payments,
		notifier:     notifier,
		cfg:          cfg,
		now:          time.Now,
	}
}

func (s *AllocationService) localNow() time.Time {
	return s.now().In(s.cfg.Location)
}

// DisabledVehicles computes, fresh on every call, which vehicles may not
// be nominated for the date and tour plan. No caching across requests:
// another booking can commit between any two calls.
func (s *AllocationService) DisabledVehicles(ctx context.Context, dateKey string, tour entities.Tour) (entities.Eligibility, error) {
	elig := entities.Eligibility{DateKey: dateKey, Tour: tour}

	date, err := dateutil.ParseKey(dateKey, s.cfg.Location)
	if err != nil {
		return elig, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}

	vehicles, err := s.vehicles.ListOfferable(ctx)
	if err != nil {
		return elig, fmt.Errorf("error listing vehicles: %w", err)
	}

	// Tour gating comes first: Umihotaru never runs outside Fri/Sat.
	// Distinct from per-vehicle disabling so the UI can say "tour not
	// available" instead of greying out every car.
	if !tour.OfferedOn(date) {
		elig.VariantUnavailable = true
		for _, v := range vehicles {
			elig.DisabledVehicles = append(elig.DisabledVehicles, v.ID)
		}
		return elig, nil
	}

	open, err := s.availability.OpenVehicleIDs(ctx, string(tour), dateKey)
	if err != nil {
		return elig, fmt.Errorf("error reading open dates: %w", err)
	}

	assignedList, err := s.bookings.AssignedVehicleIDs(ctx, string(tour), dateKey)
	if err != nil {
		return elig, fmt.Errorf("error reading booked vehicles: %w", err)
	}
	assigned := make(map[string]bool, len(assignedList))
	for _, id := range assignedList {
		assigned[id] = true
	}

	disabled := make(map[string]bool)
	for _, v := range vehicles {
		// Closed by default: the operator must have opened the date.
		if !open[v.ID] {
			disabled[v.ID] = true
			continue
		}
		// Collision with an existing Pending/Confirmed booking.
		if assigned[v.ID] {
			disabled[v.ID] = true
		}
	}

	// Same-day nomination cutoff: past the configured hour only random
	// assignment remains. The later closure cutoff that shuts the date
	// entirely belongs to the calendar, not here.
	now := s.localNow()
	if dateutil.SameDay(date, now) && now.Hour() >= s.cfg.NominationCutoffHour {
		for _, v := range vehicles {
			disabled[v.ID] = true
		}
	}

	for _, v := range vehicles {
		if disabled[v.ID] {
			elig.DisabledVehicles = append(elig.DisabledVehicles, v.ID)
		}
	}

	// The slot counter is a separate operator-maintained signal. It
	// flags the whole variant sold out for display but does not disable
	// individual vehicle ids.
	remaining, set, err := s.availability.SlotRemaining(ctx, string(tour), dateKey)
	if err != nil {
		return elig, fmt.Errorf("error reading slot inventory: %w", err)
	}
	if set && remaining <= 0 {
		elig.SoldOut = true
	}

	return elig, nil
}

// Quote assembles the guest-facing offer: eligible vehicles, price and
// deposit for a candidate selection.
func (s *AllocationService) Quote(ctx context.Context, req entities.QuoteRequest) (*entities.Offer, error) {
	tour, err := entities.ParseTour(req.Tour)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	if err := validatePartySize(req.PartySize); err != nil {
		return nil, err
	}
	date, err := dateutil.ParseKey(req.DateKey, s.cfg.Location)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}

	v1, v2, err := normalizeNominations(req.Vehicle1, req.Vehicle2, req.PartySize)
	if err != nil {
		return nil, err
	}
	opts := normalizeAddOns(req.Options)
	if opts.TokyoTower && tour == entities.TourUmihotaru {
		return nil, fmt.Errorf("%w: Tokyo Tower stop is not available on the Umihotaru plan", apperrors.ErrInvalidInput)
	}

	elig, err := s.DisabledVehicles(ctx, req.DateKey, tour)
	if err != nil {
		return nil, err
	}

	vehicles, err := s.vehicles.ListOfferable(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing vehicles: %w", err)
	}
	byID := make(map[string]db.Vehicle, len(vehicles))
	offers := make([]entities.VehicleOffer, 0, len(vehicles))
	for _, v := range vehicles {
		byID[v.ID] = v
		offers = append(offers, entities.VehicleOffer{
			ID:        v.ID,
			Slug:      v.Slug.String,
			Name:      v.Name,
			Subtitle:  v.Subtitle,
			Surcharge: v.Surcharge,
			Disabled:  elig.IsDisabled(v.ID),
		})
	}

	surcharge1, err := surchargeFor(byID, v1)
	if err != nil {
		return nil, err
	}
	surcharge2 := 0
	if req.PartySize >= 4 {
		if surcharge2, err = surchargeFor(byID, v2); err != nil {
			return nil, err
		}
	}

	base := pricing.Price(date, req.PartySize, tour)
	options := pricing.OptionsTotal(opts)

	offer := &entities.Offer{
		DateKey:        req.DateKey,
		DateDisplay:    dateutil.Display(date),
		Tour:           tour,
		PartySize:      req.PartySize,
		BasePrice:      base,
		Surcharge1:     surcharge1,
		Surcharge2:     surcharge2,
		OptionsPrice:   options,
		TotalPrice:     base + surcharge1 + surcharge2 + options,
		Deposit:        pricing.Deposit(req.PartySize, s.cfg.DepositUnit),
		PriceOnRequest: base == pricing.PriceOnRequest,
		VehiclesNeeded: pricing.VehicleCount(req.PartySize),
		Vehicles:       offers,
		Eligibility:    elig,
	}
	return offer, nil
}

// Calendar renders a month of per-day prices and closure flags for the
// booking grid. Past dates are closed; the current date closes entirely
// from the closure cutoff hour.
func (s *AllocationService) Calendar(ctx context.Context, year, month, partySize int, tour entities.Tour) (*entities.CalendarMonth, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: month out of range", apperrors.ErrInvalidInput)
	}
	if err := validatePartySize(partySize); err != nil {
		return nil, err
	}

	now := s.localNow()
	today := dateutil.Truncate(now, s.cfg.Location)

	out := &entities.CalendarMonth{Year: year, Month: month, Tour: tour}
	day := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, s.cfg.Location)
	for day.Month() == time.Month(month) {
		price := pricing.Price(day, partySize, tour)

		closed := day.Before(today) || !tour.OfferedOn(day)
		if !closed && day.Equal(today) && now.Hour() >= s.cfg.ClosureCutoffHour {
			closed = true
		}

		soldOut := false
		if !closed {
			remaining, set, err := s.availability.SlotRemaining(ctx, string(tour), dateutil.Key(day))
			if err != nil {
				return nil, fmt.Errorf("error reading slot inventory: %w", err)
			}
			soldOut = set && remaining <= 0
		}

		out.Days = append(out.Days, entities.CalendarDay{
			DateKey:   dateutil.Key(day),
			Day:       day.Day(),
			Price:     price,
			OnRequest: price == pricing.PriceOnRequest,
			Closed:    closed,
			SoldOut:   soldOut,
		})
		day = day.AddDate(0, 0, 1)
	}
	return out, nil
}

// CreateDepositIntent opens the payment authorization for a booking's
// deposit. The amount is recomputed here from the party size so a
// tampered client cannot change what is charged.
func (s *AllocationService) CreateDepositIntent(ctx context.Context, req entities.DepositIntentRequest) (*entities.DepositIntentResponse, error) {
	tour, err := entities.ParseTour(req.Tour)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	if err := validatePartySize(req.PartySize); err != nil {
		return nil, err
	}

	amount := pricing.Deposit(req.PartySize, s.cfg.DepositUnit)
	clientSecret, intentID, err := s.payments.CreateDepositIntent(ctx, int64(amount), map[string]string{
		"tour":   string(tour),
		"guests": strconv.Itoa(req.PartySize),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPaymentDeclined, err)
	}
	log.Printf("Deposit intent %s opened for %d guests (%s): %d JPY", intentID, req.PartySize, tour, amount)

	return &entities.DepositIntentResponse{ClientSecret: clientSecret, Amount: amount}, nil
}

// CreateBooking runs the commit protocol: validate, re-check vehicle
// eligibility against current state, verify the deposit payment, then
// persist the booking and consume the nominated cars' open dates in one
// transaction. Notification dispatch is fire-and-forget.
func (s *AllocationService) CreateBooking(ctx context.Context, req entities.BookingRequest) (*db.Booking, error) {
	tour, err := entities.ParseTour(req.Tour)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	if err := validatePartySize(req.PartySize); err != nil {
		return nil, err
	}
	date, err := dateutil.ParseKey(req.DateKey, s.cfg.Location)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}

	now := s.localNow()
	today := dateutil.Truncate(now, s.cfg.Location)
	if date.Before(today) {
		return nil, fmt.Errorf("%w: date is in the past", apperrors.ErrInvalidInput)
	}
	if date.Equal(today) && now.Hour() >= s.cfg.ClosureCutoffHour {
		return nil, fmt.Errorf("%w: same-day bookings are closed for today", apperrors.ErrInvalidInput)
	}
	if !tour.OfferedOn(date) {
		return nil, fmt.Errorf("%w: %s does not run on %s", apperrors.ErrVariantUnavailable, tour, date.Weekday())
	}
	opts := normalizeAddOns(req.Options)
	if opts.TokyoTower && tour == entities.TourUmihotaru {
		return nil, fmt.Errorf("%w: Tokyo Tower stop is not available on the Umihotaru plan", apperrors.ErrInvalidInput)
	}

	v1, v2, err := normalizeNominations(req.Vehicle1, req.Vehicle2, req.PartySize)
	if err != nil {
		return nil, err
	}

	// The operator's blanket sell-out also blocks commits, not just the
	// calendar display.
	remaining, set, err := s.availability.SlotRemaining(ctx, string(tour), req.DateKey)
	if err != nil {
		return nil, fmt.Errorf("error reading slot inventory: %w", err)
	}
	if set && remaining <= 0 {
		return nil, fmt.Errorf("%w: %s on %s", apperrors.ErrSlotSoldOut, tour, req.DateKey)
	}

	// Re-validate every nomination against current state. Client-side
	// eligibility can be stale the moment another guest commits.
	elig, err := s.DisabledVehicles(ctx, req.DateKey, tour)
	if err != nil {
		return nil, err
	}
	for _, id := range []string{v1, v2} {
		if id != entities.RandomVehicle && id != "" && elig.IsDisabled(id) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrVehicleConflict, id)
		}
	}

	// Recompute every amount server-side.
	vehicles, err := s.vehicles.ListOfferable(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing vehicles: %w", err)
	}
	byID := make(map[string]db.Vehicle, len(vehicles))
	for _, v := range vehicles {
		byID[v.ID] = v
	}
	surcharge1, err := surchargeFor(byID, v1)
	if err != nil {
		return nil, err
	}
	surcharge2 := 0
	if req.PartySize >= 4 {
		if surcharge2, err = surchargeFor(byID, v2); err != nil {
			return nil, err
		}
	}

	base := pricing.Price(date, req.PartySize, tour)
	options := pricing.OptionsTotal(opts)
	deposit := pricing.Deposit(req.PartySize, s.cfg.DepositUnit)

	// Payment authorization gates persistence: a declined or tampered
	// payment aborts with nothing written.
	if err := s.payments.VerifyDeposit(ctx, req.PaymentIntentID, int64(deposit)); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPaymentDeclined, err)
	}

	booking := &db.Booking{
		ID:               uuid.New().String(),
		DateKey:          req.DateKey,
		Tour:             string(tour),
		PartySize:        req.PartySize,
		Vehicle1:         v1,
		BasePrice:        base,
		Surcharge1:       surcharge1,
		Surcharge2:       surcharge2,
		ColorRequest:     opts.ColorRequest,
		ColorRequestText: opts.ColorRequestText,
		ModelRequest:     opts.ModelRequest,
		ModelRequestText: opts.ModelRequestText,
		TunedCarRequest:  opts.TunedCarRequest,
		TokyoTower:       opts.TokyoTower,
		Shibuya:          opts.Shibuya,
		TotalPrice:       base + surcharge1 + surcharge2 + options,
		Deposit:          deposit,
		Status:           db.BookingStatusConfirmed,
		PaymentIntentID:  sql.NullString{String: req.PaymentIntentID, Valid: true},
		GuestName:        req.Guest.Name,
		GuestEmail:       req.Guest.Email,
		GuestInstagram:   req.Guest.Instagram,
		GuestWhatsapp:    req.Guest.Whatsapp,
		GuestHotel:       req.Guest.Hotel,
		GuestRemarks:     req.Guest.Remarks,
	}
	if req.PartySize >= 4 {
		booking.Vehicle2 = sql.NullString{String: v2, Valid: true}
	}

	var closeVehicles []string
	for _, id := range []string{v1, v2} {
		if id != "" && id != entities.RandomVehicle {
			closeVehicles = append(closeVehicles, id)
		}
	}

	if err := s.bookings.CreateConfirmed(ctx, booking, closeVehicles); err != nil {
		if errors.Is(err, apperrors.ErrVehicleConflict) {
			return nil, err
		}
		// The deposit was taken; this must surface loudly, never as a
		// plain "try again".
		log.Printf("CRITICAL: booking %s paid via %s but not persisted: %v", booking.ID, req.PaymentIntentID, err)
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistenceFailure, err)
	}

	log.Printf("Booking %s confirmed: %s %s, %d guests, cars [%s %s], total %d, deposit %d",
		booking.ID, booking.Tour, booking.DateKey, booking.PartySize, v1, v2, booking.TotalPrice, booking.Deposit)

	if s.notifier != nil {
		go s.notifier.BookingConfirmed(s.buildNotification(booking, byID, date))
	}

	return booking, nil
}

// ListOfferableVehicles returns the guest-visible catalog in display
// order, without date-specific eligibility.
func (s *AllocationService) ListOfferableVehicles(ctx context.Context) ([]entities.VehicleOffer, error) {
	vehicles, err := s.vehicles.ListOfferable(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing vehicles: %w", err)
	}
	offers := make([]entities.VehicleOffer, 0, len(vehicles))
	for _, v := range vehicles {
		offers = append(offers, entities.VehicleOffer{
			ID:        v.ID,
			Slug:      v.Slug.String,
			Name:      v.Name,
			Subtitle:  v.Subtitle,
			Surcharge: v.Surcharge,
		})
	}
	return offers, nil
}

// GetBooking is the guest lookup: id plus matching contact email.
func (s *AllocationService) GetBooking(ctx context.Context, id, email string) (*db.Booking, error) {
	return s.bookings.GetByIDAndEmail(ctx, id, email)
}

// ToResponse renders a booking row with the date in both encodings.
func (s *AllocationService) ToResponse(b *db.Booking) (*entities.BookingResponse, error) {
	display, err := dateutil.KeyToDisplay(b.DateKey, s.cfg.Location)
	if err != nil {
		return nil, err
	}
	return &entities.BookingResponse{
		ID:                  b.ID,
		DateKey:             b.DateKey,
		DateDisplay:         display,
		Tour:                entities.Tour(b.Tour),
		PartySize:           b.PartySize,
		Vehicle1:            b.Vehicle1,
		Vehicle2:            b.Vehicle2.String,
		BasePrice:           b.BasePrice,
		Surcharge1:          b.Surcharge1,
		Surcharge2:          b.Surcharge2,
		Options:             bookingAddOns(b),
		TotalPrice:          b.TotalPrice,
		Deposit:             b.Deposit,
		Status:              b.Status,
		PaymentAcknowledged: b.PaymentAcknowledged,
		Guest: entities.GuestInfo{
			Name:      b.GuestName,
			Email:     b.GuestEmail,
			Instagram: b.GuestInstagram,
			Whatsapp:  b.GuestWhatsapp,
			Hotel:     b.GuestHotel,
			Remarks:   b.GuestRemarks,
		},
		CreatedAt: b.CreatedAt,
	}, nil
}

func (s *AllocationService) buildNotification(b *db.Booking, byID map[string]db.Vehicle, date time.Time) entities.BookingNotification {
	label1, driverEmail, driverPhone := vehicleLabel(byID, b.Vehicle1)
	label := label1
	if b.PartySize >= 4 {
		label2, _, _ := vehicleLabel(byID, b.Vehicle2.String)
		label = fmt.Sprintf("Car 1: %s, Car 2: %s", label1, label2)
	}

	var parts []string
	if b.ColorRequest {
		parts = append(parts, addOnDetail("Color Request", b.ColorRequestText))
	}
	if b.ModelRequest {
		parts = append(parts, addOnDetail("Model Request", b.ModelRequestText))
	}
	if b.TunedCarRequest {
		parts = append(parts, "High-Power / Tuned Car")
	}
	if b.TokyoTower {
		parts = append(parts, "Tokyo Tower")
	}
	if b.Shibuya {
		parts = append(parts, "Shibuya")
	}
	options := "None"
	if len(parts) > 0 {
		options = strings.Join(parts, ", ")
	}

	return entities.BookingNotification{
		BookingID:    b.ID,
		GuestName:    b.GuestName,
		GuestEmail:   b.GuestEmail,
		Instagram:    b.GuestInstagram,
		Whatsapp:     b.GuestWhatsapp,
		Hotel:        b.GuestHotel,
		Remarks:      b.GuestRemarks,
		DateDisplay:  dateutil.Display(date),
		Tour:         entities.Tour(b.Tour),
		PartySize:    b.PartySize,
		VehicleLabel: label,
		DriverEmail:  driverEmail,
		DriverPhone:  driverPhone,
		Options:      options,
		TotalPrice:   b.TotalPrice,
		Deposit:      b.Deposit,
		Balance:      b.TotalPrice - b.Deposit,
	}
}

func vehicleLabel(byID map[string]db.Vehicle, id string) (label, driverEmail, driverPhone string) {
	if id == "" || id == entities.RandomVehicle {
		return "Random R34", "", ""
	}
	v, ok := byID[id]
	if !ok {
		return id, "", ""
	}
	label = v.Name
	if v.Subtitle != "" {
		label = fmt.Sprintf("%s (%s)", v.Name, v.Subtitle)
	}
	return label, v.DriverEmail.String, v.DriverPhone.String
}

func addOnDetail(label, detail string) string {
	if detail == "" {
		return label
	}
	return fmt.Sprintf("%s (%s)", label, detail)
}

// normalizeAddOns blanks the free-text detail fields of requests that
// were not actually selected, so stray client text never reaches the
// ledger or the driver.
func normalizeAddOns(o entities.AddOns) entities.AddOns {
	if !o.ColorRequest {
		o.ColorRequestText = ""
	}
	if !o.ModelRequest {
		o.ModelRequestText = ""
	}
	return o
}

func bookingAddOns(b *db.Booking) entities.AddOns {
	return entities.AddOns{
		ColorRequest:     b.ColorRequest,
		ColorRequestText: b.ColorRequestText,
		ModelRequest:     b.ModelRequest,
		ModelRequestText: b.ModelRequestText,
		TunedCarRequest:  b.TunedCarRequest,
		TokyoTower:       b.TokyoTower,
		Shibuya:          b.Shibuya,
	}
}

func validatePartySize(n int) error {
	if n < 1 || n > entities.PartySizeOnRequest {
		return fmt.Errorf("%w: party size must be 1-10, or %d for 10+", apperrors.ErrInvalidInput, entities.PartySizeOnRequest)
	}
	return nil
}

// normalizeNominations applies the multi-vehicle rule: one nomination
// slot for parties up to three, two independent slots from four guests
// up. Two named nominations may not reference the same car; both may be
// the random sentinel.
func normalizeNominations(v1, v2 string, partySize int) (string, string, error) {
	if v1 == "" {
		v1 = entities.RandomVehicle
	}
	if partySize < 4 {
		if v2 != "" && v2 != entities.RandomVehicle {
			return "", "", fmt.Errorf("%w: a second vehicle requires a party of four or more", apperrors.ErrInvalidInput)
		}
		return v1, "", nil
	}
	if v2 == "" {
		v2 = entities.RandomVehicle
	}
	if v1 != entities.RandomVehicle && v1 == v2 {
		return "", "", fmt.Errorf("%w: both nominations reference vehicle %s", apperrors.ErrInvalidInput, v1)
	}
	return v1, v2, nil
}

func surchargeFor(byID map[string]db.Vehicle, id string) (int, error) {
	if id == "" || id == entities.RandomVehicle {
		return 0, nil
	}
	v, ok := byID[id]
	if !ok {
		return 0, fmt.Errorf("%w: unknown vehicle %q", apperrors.ErrInvalidInput, id)
	}
	return v.Surcharge, nil
}
