package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"godzillatours/internal/db"
	apperrors "godzillatours/internal/errors"
	"godzillatours/internal/utils"
)

type VehicleRepository struct {
	DB *sql.DB
}

func NewVehicleRepository(database *sql.DB) *VehicleRepository {
	return &VehicleRepository{DB: database}
}

const vehicleColumns = `id, slug, name, subtitle, surcharge, display_order, is_visible, driver_email, driver_phone`

func scanVehicle(s interface{ Scan(...any) error }) (db.Vehicle, error) {
	var v db.Vehicle
	err := s.Scan(&v.ID, &v.Slug, &v.Name, &v.Subtitle, &v.Surcharge, &v.DisplayOrder, &v.IsVisible, &v.DriverEmail, &v.DriverPhone)
	return v, err
}

// ListAll returns every vehicle, hidden ones included, in insertion
// order. Admin views use this.
func (r *VehicleRepository) ListAll(ctx context.Context) ([]db.Vehicle, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+vehicleColumns+` FROM vehicles ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("error querying vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []db.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning vehicle: %w", err)
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

// ListOfferable returns the vehicles a guest may be shown: hidden cars
// filtered out, ordered by displayOrder with 0/unset sinking to the
// bottom and ties keeping insertion order.
func (r *VehicleRepository) ListOfferable(ctx context.Context) ([]db.Vehicle, error) {
	vehicles, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	vehicles = utils.FilterOfferable(vehicles)
	utils.SortVehiclesForDisplay(vehicles)
	return vehicles, nil
}

func (r *VehicleRepository) GetByID(ctx context.Context, id string) (*db.Vehicle, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, id)
	v, err := scanVehicle(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrVehicleNotFound, id)
		}
		return nil, fmt.Errorf("error querying vehicle: %w", err)
	}
	return &v, nil
}

func (r *VehicleRepository) Create(ctx context.Context, v *db.Vehicle) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO vehicles (id, slug, name, subtitle, surcharge, display_order, is_visible, driver_email, driver_phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		v.ID, v.Slug, v.Name, v.Subtitle, v.Surcharge, v.DisplayOrder, v.IsVisible, v.DriverEmail, v.DriverPhone)
	if err != nil {
		return fmt.Errorf("error inserting vehicle: %w", err)
	}
	return nil
}

func (r *VehicleRepository) Update(ctx context.Context, v *db.Vehicle) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE vehicles
		SET slug = $2, name = $3, subtitle = $4, surcharge = $5, display_order = $6, is_visible = $7, driver_email = $8, driver_phone = $9
		WHERE id = $1`,
		v.ID, v.Slug, v.Name, v.Subtitle, v.Surcharge, v.DisplayOrder, v.IsVisible, v.DriverEmail, v.DriverPhone)
	if err != nil {
		return fmt.Errorf("error updating vehicle: %w", err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("vehicle %q not found", v.ID)
	}
	return nil
}

// SetVisibility hides or shows a vehicle in guest offers. Hidden cars
// stay referenced by existing bookings and visible in admin views.
func (r *VehicleRepository) SetVisibility(ctx context.Context, id string, visible bool) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE vehicles SET is_visible = $2 WHERE id = $1`, id, visible)
	if err != nil {
		return fmt.Errorf("error updating vehicle visibility: %w", err)
	}
	return nil
}
