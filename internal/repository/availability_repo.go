package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// AvailabilityRepository holds the per-vehicle open-date sets and the
// coarse slot counters. A date that is not in a vehicle's set is blocked
// by default: operators open days explicitly.
type AvailabilityRepository struct {
	DB *sql.DB
}

func NewAvailabilityRepository(database *sql.DB) *AvailabilityRepository {
	return &AvailabilityRepository{DB: database}
}

// OpenVehicleIDs returns the set of vehicles whose operator opened the
// given date for one tour plan. Eligibility reads this in one round trip.
func (r *AvailabilityRepository) OpenVehicleIDs(ctx context.Context, tour, dateKey string) (map[string]bool, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT vehicle_id FROM vehicle_open_dates
		WHERE tour = $1 AND date_key = $2::date`, tour, dateKey)
	if err != nil {
		return nil, fmt.Errorf("error querying open dates: %w", err)
	}
	defer rows.Close()

	open := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning open date: %w", err)
		}
		open[id] = true
	}
	return open, rows.Err()
}

// ListOpenDates returns a vehicle's open dates for one tour plan as
// YYYY-MM-DD keys, ascending. The operator calendar renders this.
func (r *AvailabilityRepository) ListOpenDates(ctx context.Context, vehicleID, tour string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT to_char(date_key, 'YYYY-MM-DD') FROM vehicle_open_dates
		WHERE vehicle_id = $1 AND tour = $2
		ORDER BY date_key`, vehicleID, tour)
	if err != nil {
		return nil, fmt.Errorf("error querying open dates: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("error scanning open date: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// OpenDate marks a date workable for a vehicle and tour plan. Idempotent.
func (r *AvailabilityRepository) OpenDate(ctx context.Context, vehicleID, tour, dateKey string) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO vehicle_open_dates (vehicle_id, tour, date_key)
		VALUES ($1, $2, $3::date)
		ON CONFLICT DO NOTHING`, vehicleID, tour, dateKey)
	if err != nil {
		return fmt.Errorf("error opening date: %w", err)
	}
	return nil
}

// CloseDate removes a date from a vehicle's open set. Idempotent, safe
// to re-run; the reconciliation job relies on that.
func (r *AvailabilityRepository) CloseDate(ctx context.Context, vehicleID, tour, dateKey string) error {
	_, err := r.DB.ExecContext(ctx, `
		DELETE FROM vehicle_open_dates
		WHERE vehicle_id = $1 AND tour = $2 AND date_key = $3::date`, vehicleID, tour, dateKey)
	if err != nil {
		return fmt.Errorf("error closing date: %w", err)
	}
	return nil
}

// SlotRemaining returns the coarse counter for a (date, tour) pair, or
// (0, false) when no counter is set, meaning open/unlimited.
func (r *AvailabilityRepository) SlotRemaining(ctx context.Context, tour, dateKey string) (int, bool, error) {
	var remaining int
	err := r.DB.QueryRowContext(ctx, `
		SELECT remaining FROM slot_inventory
		WHERE tour = $1 AND date_key = $2::date`, tour, dateKey).Scan(&remaining)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("error querying slot inventory: %w", err)
	}
	return remaining, true, nil
}

// SetSlotRemaining upserts the counter. Operators use it for blanket
// sell-outs independent of per-vehicle state.
func (r *AvailabilityRepository) SetSlotRemaining(ctx context.Context, tour, dateKey string, remaining int) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO slot_inventory (tour, date_key, remaining)
		VALUES ($1, $2::date, $3)
		ON CONFLICT (date_key, tour) DO UPDATE SET remaining = EXCLUDED.remaining`,
		tour, dateKey, remaining)
	if err != nil {
		return fmt.Errorf("error setting slot inventory: %w", err)
	}
	return nil
}

// ClearSlot removes the counter, returning the (date, tour) pair to the
// open/unlimited state.
func (r *AvailabilityRepository) ClearSlot(ctx context.Context, tour, dateKey string) error {
	_, err := r.DB.ExecContext(ctx, `
		DELETE FROM slot_inventory WHERE tour = $1 AND date_key = $2::date`, tour, dateKey)
	if err != nil {
		return fmt.Errorf("error clearing slot inventory: %w", err)
	}
	return nil
}
