package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"godzillatours/internal/config"
	"godzillatours/internal/db"
	"godzillatours/internal/entities"
	apperrors "godzillatours/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVehicleStore struct {
	vehicles []db.Vehicle
	err      error
}

func (f *fakeVehicleStore) ListOfferable(_ context.Context) ([]db.Vehicle, error) {
	return f.vehicles, f.err
}

type fakeAvailabilityStore struct {
	// open is keyed by "tour|dateKey" -> set of open vehicle ids.
	open map[string]map[string]bool
	// slots is keyed by "tour|dateKey"; presence means a counter is set.
	slots map[string]int
}

func availKey(tour, dateKey string) string { return tour + "|" + dateKey }

func (f *fakeAvailabilityStore) OpenVehicleIDs(_ context.Context, tour, dateKey string) (map[string]bool, error) {
	open := f.open[availKey(tour, dateKey)]
	if open == nil {
		open = map[string]bool{}
	}
	return open, nil
}

func (f *fakeAvailabilityStore) SlotRemaining(_ context.Context, tour, dateKey string) (int, bool, error) {
	remaining, ok := f.slots[availKey(tour, dateKey)]
	return remaining, ok, nil
}

type fakeBookingStore struct {
	assigned  []string
	createErr error
	created   *db.Booking
	closed    []string
	lookup    *db.Booking
}

func (f *fakeBookingStore) AssignedVehicleIDs(_ context.Context, tour, dateKey string) ([]string, error) {
	return f.assigned, nil
}

func (f *fakeBookingStore) CreateConfirmed(_ context.Context, b *db.Booking, closeVehicles []string) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = b
	f.closed = closeVehicles
	return nil
}

func (f *fakeBookingStore) GetByIDAndEmail(_ context.Context, id, email string) (*db.Booking, error) {
	if f.lookup == nil {
		return nil, apperrors.ErrBookingNotFound
	}
	return f.lookup, nil
}

type fakePaymentClient struct {
	verifyErr    error
	verifiedID   string
	verifiedAmt  int64
	intentSecret string
}

func (f *fakePaymentClient) CreateDepositIntent(_ context.Context, amount int64, _ map[string]string) (string, string, error) {
	f.verifiedAmt = amount
	return f.intentSecret, "pi_test", nil
}

func (f *fakePaymentClient) VerifyDeposit(_ context.Context, intentID string, expectedAmount int64) error {
	f.verifiedID = intentID
	f.verifiedAmt = expectedAmount
	return f.verifyErr
}

type fakeNotifier struct {
	sent chan entities.BookingNotification
}

func (f *fakeNotifier) BookingConfirmed(n entities.BookingNotification) {
	f.sent <- n
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	return &config.Config{
		NominationCutoffHour: 1,
		ClosureCutoffHour:    15,
		DepositUnit:          5000,
		Location:             loc,
	}
}

const (
	fridayKey   = "2025-02-14"
	saturdayKey = "2025-02-15"
	sundayKey   = "2025-02-16"
	mondayKey   = "2025-02-17"
)

func testVehicles() []db.Vehicle {
	return []db.Vehicle{
		{ID: "r34-blue", Name: "Skyline R34", Subtitle: "Bayside Blue", Surcharge: 15000, DisplayOrder: 1, IsVisible: true},
		{ID: "r34-silver", Name: "Skyline R34", Subtitle: "Silver", Surcharge: 5000, DisplayOrder: 2, IsVisible: true},
		{ID: "supra", Name: "Supra RZ", Surcharge: 5000, DisplayOrder: 3, IsVisible: true},
	}
}

func newTestEngine(t *testing.T) (*AllocationService, *fakeVehicleStore, *fakeAvailabilityStore, *fakeBookingStore, *fakePaymentClient, *fakeNotifier) {
	t.Helper()
	vehicles := &fakeVehicleStore{vehicles: testVehicles()}
	availability := &fakeAvailabilityStore{
		open:  map[string]map[string]bool{},
		slots: map[string]int{},
	}
	bookings := &fakeBookingStore{}
	payments := &fakePaymentClient{intentSecret: "secret"}
	notifier := &fakeNotifier{sent: make(chan entities.BookingNotification, 1)}

	engine := NewAllocationService(vehicles, availability, bookings, payments, notifier, testConfig(t))
	// Default clock: well before the nomination cutoff matters.
	engine.now = func() time.Time {
		return time.Date(2025, 2, 1, 12, 0, 0, 0, engine.cfg.Location)
	}
	return engine, vehicles, availability, bookings, payments, notifier
}

func openAll(avail *fakeAvailabilityStore, tour entities.Tour, dateKey string, ids ...string) {
	key := availKey(string(tour), dateKey)
	if avail.open[key] == nil {
		avail.open[key] = map[string]bool{}
	}
	for _, id := range ids {
		avail.open[key][id] = true
	}
}

func TestDisabledVehiclesClosedByDefault(t *testing.T) {
	engine, _, avail, _, _, _ := newTestEngine(t)
	// Only one car has the date open; the others are blocked even with
	// no booking referencing them.
	openAll(avail, entities.TourDaikoku, fridayKey, "r34-blue")

	elig, err := engine.DisabledVehicles(context.Background(), fridayKey, entities.TourDaikoku)
	require.NoError(t, err)

	assert.False(t, elig.VariantUnavailable)
	assert.False(t, elig.IsDisabled("r34-blue"))
	assert.True(t, elig.IsDisabled("r34-silver"))
	assert.True(t, elig.IsDisabled("supra"))
}

func TestDisabledVehiclesBookingCollision(t *testing.T) {
	engine, _, avail, bookings, _, _ := newTestEngine(t)
	openAll(avail, entities.TourDaikoku, fridayKey, "r34-blue", "supra")
	bookings.assigned = []string{"r34-blue"}

	elig, err := engine.DisabledVehicles(context.Background(), fridayKey, entities.TourDaikoku)
	require.NoError(t, err)

	assert.True(t, elig.IsDisabled("r34-blue"), "booked car must be disabled")
	assert.False(t, elig.IsDisabled("supra"))
}

func TestDisabledVehiclesUmihotaruWeekdayGating(t *testing.T) {
	engine, _, avail, _, _, _ := newTestEngine(t)
	openAll(avail, entities.TourUmihotaru, sundayKey, "r34-blue", "r34-silver", "supra")

	for _, dateKey := range []string{sundayKey, mondayKey, "2025-02-18", "2025-02-19", "2025-02-20"} {
		elig, err := engine.DisabledVehicles(context.Background(), dateKey, entities.TourUmihotaru)
		require.NoError(t, err)
		assert.True(t, elig.VariantUnavailable, dateKey)
		for _, id := range []string{"r34-blue", "r34-silver", "supra"} {
			assert.True(t, elig.IsDisabled(id), "%s on %s", id, dateKey)
		}
	}

	// Friday and Saturday are fine.
	for _, dateKey := range []string{fridayKey, saturdayKey} {
		elig, err := engine.DisabledVehicles(context.Background(), dateKey, entities.TourUmihotaru)
		require.NoError(t, err)
		assert.False(t, elig.VariantUnavailable, dateKey)
	}
}

func TestDisabledVehiclesSameDayCutoff(t *testing.T) {
	engine, _, avail, _, _, _ := newTestEngine(t)
	openAll(avail, entities.TourDaikoku, fridayKey, "r34-blue", "r34-silver", "supra")

	// 01:30 on the candidate date itself: every named car is out, the
	// random sentinel stays offerable.
	engine.now = func() time.Time {
		return time.Date(2025, 2, 14, 1, 30, 0, 0, engine.cfg.Location)
	}

	elig, err := engine.DisabledVehicles(context.Background(), fridayKey, entities.TourDaikoku)
	require.NoError(t, err)

	for _, id := range []string{"r34-blue", "r34-silver", "supra"} {
		assert.True(t, elig.IsDisabled(id), id)
	}
	assert.False(t, elig.IsDisabled(entities.RandomVehicle))

	// The cutoff only applies to the current date.
	elig, err = engine.DisabledVehicles(context.Background(), saturdayKey, entities.TourDaikoku)
	require.NoError(t, err)
	assert.False(t, elig.IsDisabled("r34-blue"))
}

func TestDisabledVehiclesSlotSoldOut(t *testing.T) {
	engine, _, avail, _, _, _ := newTestEngine(t)
	openAll(avail, entities.TourDaikoku, fridayKey, "r34-blue")
	avail.slots[availKey(string(entities.TourDaikoku), fridayKey)] = 0

	elig, err := engine.DisabledVehicles(context.Background(), fridayKey, entities.TourDaikoku)
	require.NoError(t, err)

	// The counter gates the variant for display without touching the
	// per-vehicle list.
	assert.True(t, elig.SoldOut)
	assert.False(t, elig.IsDisabled("r34-blue"))
}

func TestQuotePricingScenarios(t *testing.T) {
	engine, _, avail, _, _, _ := newTestEngine(t)
	openAll(avail, entities.TourDaikoku, saturdayKey, "r34-blue", "r34-silver", "supra")
	openAll(avail, entities.TourUmihotaru, saturdayKey, "r34-blue", "r34-silver", "supra")
	openAll(avail, entities.TourDaikoku, mondayKey, "r34-blue", "r34-silver", "supra")

	// Saturday, two guests, Daikoku.
	offer, err := engine.Quote(context.Background(), entities.QuoteRequest{
		DateKey: saturdayKey, Tour: string(entities.TourDaikoku), PartySize: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 65000, offer.BasePrice)
	assert.Equal(t, 65000, offer.TotalPrice)
	assert.Equal(t, 5000, offer.Deposit)
	assert.Equal(t, "Sat Feb 15 2025", offer.DateDisplay)

	// Same Saturday on Umihotaru is flat.
	offer, err = engine.Quote(context.Background(), entities.QuoteRequest{
		DateKey: saturdayKey, Tour: string(entities.TourUmihotaru), PartySize: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 60000, offer.BasePrice)

	// Four guests on a weekday: two cars, surcharges for both, add-ons
	// on top.
	offer, err = engine.Quote(context.Background(), entities.QuoteRequest{
		DateKey: mondayKey, Tour: string(entities.TourDaikoku), PartySize: 4,
		Vehicle1: "r34-blue", Vehicle2: "supra",
		Options: entities.AddOns{TokyoTower: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 120000, offer.BasePrice)
	assert.Equal(t, 15000, offer.Surcharge1)
	assert.Equal(t, 5000, offer.Surcharge2)
	assert.Equal(t, 5000, offer.OptionsPrice)
	assert.Equal(t, 145000, offer.TotalPrice)
	assert.Equal(t, 10000, offer.Deposit)
	assert.Equal(t, 2, offer.VehiclesNeeded)
}

func TestQuoteOnRequestParty(t *testing.T) {
	engine, _, avail, _, _, _ := newTestEngine(t)
	openAll(avail, entities.TourDaikoku, mondayKey, "r34-blue")

	offer, err := engine.Quote(context.Background(), entities.QuoteRequest{
		DateKey: mondayKey, Tour: string(entities.TourDaikoku), PartySize: entities.PartySizeOnRequest,
	})
	require.NoError(t, err)
	assert.True(t, offer.PriceOnRequest)
	assert.Equal(t, 0, offer.BasePrice)
	// Deposit is still computed: four cars for 10+ guests.
	assert.Equal(t, 20000, offer.Deposit)
}

func TestQuoteRejectsTokyoTowerOnUmihotaru(t *testing.T) {
	engine, _, _, _, _, _ := newTestEngine(t)

	_, err := engine.Quote(context.Background(), entities.QuoteRequest{
		DateKey: saturdayKey, Tour: string(entities.TourUmihotaru), PartySize: 2,
		Options: entities.AddOns{TokyoTower: true},
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestQuoteCustomizationRequests(t *testing.T) {
	engine, _, avail, _, _, _ := newTestEngine(t)
	openAll(avail, entities.TourDaikoku, mondayKey, "r34-blue")

	// All three customization requests plus one photo stop.
	offer, err := engine.Quote(context.Background(), entities.QuoteRequest{
		DateKey: mondayKey, Tour: string(entities.TourDaikoku), PartySize: 2,
		Options: entities.AddOns{
			ColorRequest:     true,
			ColorRequestText: "Bayside Blue",
			ModelRequest:     true,
			ModelRequestText: "Mazda RX-7 FD3S",
			TunedCarRequest:  true,
			Shibuya:          true,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 35000, offer.OptionsPrice)
	assert.Equal(t, 60000+35000, offer.TotalPrice)
}

func TestCreateBookingPersistsCustomizationRequests(t *testing.T) {
	engine, _, avail, bookings, _, _ := newTestEngine(t)
	openAll(avail, entities.TourDaikoku, fridayKey, "r34-blue")

	req := validBookingRequest()
	req.Options = entities.AddOns{
		ColorRequest:     true,
		ColorRequestText: "Millenium Jade",
		TunedCarRequest:  true,
		// Detail text without its flag must not survive normalization.
		ModelRequestText: "Toyota Supra JZA80",
	}

	booking, err := engine.CreateBooking(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, booking.ColorRequest)
	assert.Equal(t, "Millenium Jade", booking.ColorRequestText)
	assert.True(t, booking.TunedCarRequest)
	assert.False(t, booking.ModelRequest)
	assert.Empty(t, booking.ModelRequestText)
	// Friday party 2: 65000 base + 15000 surcharge + 20000 add-ons.
	assert.Equal(t, 100000, booking.TotalPrice)
	require.NotNil(t, bookings.created)
	assert.Equal(t, booking.ColorRequestText, bookings.created.ColorRequestText)
}

func TestNominationRules(t *testing.T) {
	// Duplicate named nominations are rejected; double "none" is fine.
	_, _, err := normalizeNominations("r34-blue", "r34-blue", 4)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	v1, v2, err := normalizeNominations("", "", 5)
	require.NoError(t, err)
	assert.Equal(t, entities.RandomVehicle, v1)
	assert.Equal(t, entities.RandomVehicle, v2)

	// A second car below four guests is a caller error.
	_, _, err = normalizeNominations("r34-blue", "supra", 3)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	// Small parties use one slot.
	v1, v2, err = normalizeNominations("r34-blue", "", 2)
	require.NoError(t, err)
	assert.Equal(t, "r34-blue", v1)
	assert.Equal(t, "", v2)
}

func validBookingRequest() entities.BookingRequest {
	return entities.BookingRequest{
		DateKey:         fridayKey,
		Tour:            string(entities.TourDaikoku),
		PartySize:       2,
		Vehicle1:        "r34-blue",
		PaymentIntentID: "pi_123",
		Guest: entities.GuestInfo{
			Name:      "Ken",
			Email:     "ken@example.com",
			Instagram: "@ken",
		},
	}
}

func TestCreateBookingHappyPath(t *testing.T) {
	engine, _, avail, bookings, payments, notifier := newTestEngine(t)
	openAll(avail, entities.TourDaikoku, fridayKey, "r34-blue", "supra")

	booking, err := engine.CreateBooking(context.Background(), validBookingRequest())
	require.NoError(t, err)

	assert.Equal(t, db.BookingStatusConfirmed, booking.Status)
	assert.Equal(t, 65000, booking.BasePrice) // Friday is weekend tier
	assert.Equal(t, 15000, booking.Surcharge1)
	assert.Equal(t, 80000, booking.TotalPrice)
	assert.Equal(t, 5000, booking.Deposit)
	assert.NotEmpty(t, booking.ID)

	// Payment was verified against the server-side deposit.
	assert.Equal(t, "pi_123", payments.verifiedID)
	assert.Equal(t, int64(5000), payments.verifiedAmt)

	// The nominated car's open date is consumed with the insert.
	require.NotNil(t, bookings.created)
	assert.Equal(t, []string{"r34-blue"}, bookings.closed)

	select {
	case n := <-notifier.sent:
		assert.Equal(t, booking.ID, n.BookingID)
		assert.Equal(t, "Skyline R34 (Bayside Blue)", n.VehicleLabel)
		assert.Equal(t, 75000, n.Balance)
	case <-time.After(time.Second):
		t.Fatal("notification was not dispatched")
	}
}

func TestCreateBookingRandomAssignmentClosesNothing(t *testing.T) {
	engine, _, avail, bookings, _, _ := newTestEngine(t)
	openAll(avail, entities.TourDaikoku, fridayKey, "r34-blue")

	req := validBookingRequest()
	req.Vehicle1 = entities.RandomVehicle

	booking, err := engine.CreateBooking(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, entities.RandomVehicle, booking.Vehicle1)
	assert.Empty(t, bookings.closed)
}

func TestCreateBookingVehicleConflict(t *testing.T) {
	engine, _, avail, bookings, payments, _ := newTestEngine(t)
	openAll(avail, entities.TourDaikoku, fridayKey, "r34-blue")
	bookings.assigned = []string{"r34-blue"}

	_, err := engine.CreateBooking(context.Background(), validBookingRequest())
	assert.ErrorIs(t, err, apperrors.ErrVehicleConflict)

	// Rejected before any money moved or anything was written.
	assert.Empty(t, payments.verifiedID)
	assert.Nil(t, bookings.created)
}

func TestCreateBookingClosedDateConflict(t *testing.T) {
	engine, _, _, bookings, _, _ := newTestEngine(t)
	// The operator never opened the date for this car.

	_, err := engine.CreateBooking(context.Background(), validBookingRequest())
	assert.ErrorIs(t, err, apperrors.ErrVehicleConflict)
	assert.Nil(t, bookings.created)
}

func TestCreateBookingPaymentDeclined(t *testing.T) {
	engine, _, avail, bookings, payments, _ := newTestEngine(t)
	openAll(avail, entities.TourDaikoku, fridayKey, "r34-blue")
	payments.verifyErr = errors.New("card declined")

	_, err := engine.CreateBooking(context.Background(), validBookingRequest())
	assert.ErrorIs(t, err, apperrors.ErrPaymentDeclined)
	assert.Nil(t, bookings.created, "payment failure must abort before persistence")
}

func TestCreateBookingPersistenceFailureAfterPayment(t *testing.T) {
	engine, _, avail, bookings, _, _ := newTestEngine(t)
	openAll(avail, entities.TourDaikoku, fridayKey, "r34-blue")
	bookings.createErr = fmt.Errorf("connection reset")

	_, err := engine.CreateBooking(context.Background(), validBookingRequest())
	assert.ErrorIs(t, err, apperrors.ErrPersistenceFailure)
}

func TestCreateBookingRaceLostInStore(t *testing.T) {
	engine, _, avail, bookings, _, _ := newTestEngine(t)
	openAll(avail, entities.TourDaikoku, fridayKey, "r34-blue")
	// The store-level conditional write lost the race after our checks.
	bookings.createErr = apperrors.ErrVehicleConflict

	_, err := engine.CreateBooking(context.Background(), validBookingRequest())
	assert.ErrorIs(t, err, apperrors.ErrVehicleConflict)
	assert.NotErrorIs(t, err, apperrors.ErrPersistenceFailure)
}

func TestCreateBookingSlotSoldOut(t *testing.T) {
	engine, _, avail, _, _, _ := newTestEngine(t)
	openAll(avail, entities.TourDaikoku, fridayKey, "r34-blue")
	avail.slots[availKey(string(entities.TourDaikoku), fridayKey)] = 0

	_, err := engine.CreateBooking(context.Background(), validBookingRequest())
	assert.ErrorIs(t, err, apperrors.ErrSlotSoldOut)
}

func TestCreateBookingRejectsPastAndClosedDates(t *testing.T) {
	engine, _, avail, _, _, _ := newTestEngine(t)
	openAll(avail, entities.TourDaikoku, fridayKey, "r34-blue")

	req := validBookingRequest()
	req.DateKey = "2025-01-20"
	_, err := engine.CreateBooking(context.Background(), req)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	// 15:00 on the date itself: the day is closed entirely.
	engine.now = func() time.Time {
		return time.Date(2025, 2, 14, 15, 0, 0, 0, engine.cfg.Location)
	}
	_, err = engine.CreateBooking(context.Background(), validBookingRequest())
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCreateBookingUmihotaruOffDay(t *testing.T) {
	engine, _, avail, _, _, _ := newTestEngine(t)
	openAll(avail, entities.TourUmihotaru, sundayKey, "r34-blue")

	req := validBookingRequest()
	req.DateKey = sundayKey
	req.Tour = string(entities.TourUmihotaru)

	_, err := engine.CreateBooking(context.Background(), req)
	assert.ErrorIs(t, err, apperrors.ErrVariantUnavailable)
}

func TestCreateBookingTwoCars(t *testing.T) {
	engine, _, avail, bookings, payments, _ := newTestEngine(t)
	openAll(avail, entities.TourDaikoku, fridayKey, "r34-blue", "supra")

	req := validBookingRequest()
	req.PartySize = 5
	req.Vehicle1 = "r34-blue"
	req.Vehicle2 = "supra"

	booking, err := engine.CreateBooking(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, int64(10000), payments.verifiedAmt, "two cars, two deposit units")
	assert.Equal(t, sql.NullString{String: "supra", Valid: true}, booking.Vehicle2)
	assert.ElementsMatch(t, []string{"r34-blue", "supra"}, bookings.closed)
}

func TestCalendarClosesPastAndOffDays(t *testing.T) {
	engine, _, _, _, _, _ := newTestEngine(t)
	engine.now = func() time.Time {
		return time.Date(2025, 2, 14, 16, 0, 0, 0, engine.cfg.Location)
	}

	cal, err := engine.Calendar(context.Background(), 2025, 2, 2, entities.TourDaikoku)
	require.NoError(t, err)
	require.Len(t, cal.Days, 28)

	byKey := map[string]entities.CalendarDay{}
	for _, d := range cal.Days {
		byKey[d.DateKey] = d
	}

	assert.True(t, byKey["2025-02-13"].Closed, "past date")
	assert.True(t, byKey[fridayKey].Closed, "today past the closure cutoff")
	assert.False(t, byKey[saturdayKey].Closed)
	assert.Equal(t, 65000, byKey[saturdayKey].Price)
	assert.Equal(t, 60000, byKey[mondayKey].Price)

	// Umihotaru closes every non-Fri/Sat cell.
	cal, err = engine.Calendar(context.Background(), 2025, 2, 2, entities.TourUmihotaru)
	require.NoError(t, err)
	for _, d := range cal.Days {
		key := d.DateKey
		if key == sundayKey || key == mondayKey {
			assert.True(t, d.Closed, key)
		}
		if key == saturdayKey {
			assert.False(t, d.Closed, key)
		}
	}
}

func TestCreateDepositIntentRecomputesAmount(t *testing.T) {
	engine, _, _, _, _, _ := newTestEngine(t)

	resp, err := engine.CreateDepositIntent(context.Background(), entities.DepositIntentRequest{
		Tour: string(entities.TourDaikoku), PartySize: 6,
	})
	require.NoError(t, err)
	assert.Equal(t, 10000, resp.Amount)
	assert.Equal(t, "secret", resp.ClientSecret)

	_, err = engine.CreateDepositIntent(context.Background(), entities.DepositIntentRequest{
		Tour: "Midnight Club Tour", PartySize: 2,
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
