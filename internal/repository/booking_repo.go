package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"godzillatours/internal/db"
	apperrors "godzillatours/internal/errors"
	"github.com/lib/pq"
)

// BookingRepository is the booking ledger. Rows are append-mostly: the
// engine never mutates a booking after creation except its status and
// the operator's payment-acknowledged flag.
type BookingRepository struct {
	DB *sql.DB
}

func NewBookingRepository(database *sql.DB) *BookingRepository {
	return &BookingRepository{DB: database}
}

const bookingColumns = `
	id, to_char(date_key, 'YYYY-MM-DD'), tour, party_size, vehicle1, vehicle2,
	base_price, surcharge1, surcharge2,
	color_request, color_request_text, model_request, model_request_text, tuned_car_request,
	tokyo_tower, shibuya, total_price, deposit,
	status, payment_intent_id, payment_acknowledged,
	guest_name, guest_email, guest_instagram, guest_whatsapp, guest_hotel, guest_remarks,
	created_at, updated_at`

func scanBooking(s interface{ Scan(...any) error }) (db.Booking, error) {
	var b db.Booking
	err := s.Scan(
		&b.ID, &b.DateKey, &b.Tour, &b.PartySize, &b.Vehicle1, &b.Vehicle2,
		&b.BasePrice, &b.Surcharge1, &b.Surcharge2,
		&b.ColorRequest, &b.ColorRequestText, &b.ModelRequest, &b.ModelRequestText, &b.TunedCarRequest,
		&b.TokyoTower, &b.Shibuya, &b.TotalPrice, &b.Deposit,
		&b.Status, &b.PaymentIntentID, &b.PaymentAcknowledged,
		&b.GuestName, &b.GuestEmail, &b.GuestInstagram, &b.GuestWhatsapp, &b.GuestHotel, &b.GuestRemarks,
		&b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

// AssignedVehicleIDs returns the ids of vehicles already held by a
// Pending or Confirmed booking for the given date and tour plan. The
// "none" sentinel is never included.
func (r *BookingRepository) AssignedVehicleIDs(ctx context.Context, tour, dateKey string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT vehicle1, vehicle2 FROM bookings
		WHERE tour = $1 AND date_key = $2::date AND status IN ($3, $4)`,
		tour, dateKey, db.BookingStatusPending, db.BookingStatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("error querying assigned vehicles: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var v1 string
		var v2 sql.NullString
		if err := rows.Scan(&v1, &v2); err != nil {
			return nil, fmt.Errorf("error scanning assigned vehicles: %w", err)
		}
		if v1 != "" && v1 != "none" {
			ids = append(ids, v1)
		}
		if v2.Valid && v2.String != "" && v2.String != "none" {
			ids = append(ids, v2.String)
		}
	}
	return ids, rows.Err()
}

// CreateConfirmed persists a booking and consumes the nominated
// vehicles' open-date rows in one transaction. The DELETE of each open
// row doubles as the conditional write that serializes two guests racing
// for the same car: whoever deletes the row first wins, the other gets
// a vehicle conflict and nothing is persisted.
func (r *BookingRepository) CreateConfirmed(ctx context.Context, b *db.Booking, closeVehicles []string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting booking transaction: %w", err)
	}
	defer tx.Rollback()

	// Any racing booking that already named one of our vehicles loses us
	// the date even if its open row survived an earlier partial commit.
	if len(closeVehicles) > 0 {
		var taken int
		err = tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM bookings
			WHERE tour = $1 AND date_key = $2::date AND status IN ($3, $4)
			AND (vehicle1 = ANY($5) OR vehicle2 = ANY($5))`,
			b.Tour, b.DateKey, db.BookingStatusPending, db.BookingStatusConfirmed,
			pq.Array(closeVehicles)).Scan(&taken)
		if err != nil {
			return fmt.Errorf("error checking vehicle collisions: %w", err)
		}
		if taken > 0 {
			return apperrors.ErrVehicleConflict
		}
	}

	for _, vehicleID := range closeVehicles {
		res, err := tx.ExecContext(ctx, `
			DELETE FROM vehicle_open_dates
			WHERE vehicle_id = $1 AND tour = $2 AND date_key = $3::date`,
			vehicleID, b.Tour, b.DateKey)
		if err != nil {
			return fmt.Errorf("error consuming open date for %s: %w", vehicleID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("error reading rows affected: %w", err)
		}
		if n == 0 {
			// The open row is gone: either never opened or another guest
			// consumed it between our eligibility check and now.
			return fmt.Errorf("open date already consumed for %s: %w", vehicleID, apperrors.ErrVehicleConflict)
		}
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO bookings
		(id, date_key, tour, party_size, vehicle1, vehicle2,
		 base_price, surcharge1, surcharge2,
		 color_request, color_request_text, model_request, model_request_text, tuned_car_request,
		 tokyo_tower, shibuya, total_price, deposit,
		 status, payment_intent_id, payment_acknowledged,
		 guest_name, guest_email, guest_instagram, guest_whatsapp, guest_hotel, guest_remarks)
		VALUES ($1, $2::date, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
		        $19, $20, $21, $22, $23, $24, $25, $26, $27)
		RETURNING created_at, updated_at`,
		b.ID, b.DateKey, b.Tour, b.PartySize, b.Vehicle1, b.Vehicle2,
		b.BasePrice, b.Surcharge1, b.Surcharge2,
		b.ColorRequest, b.ColorRequestText, b.ModelRequest, b.ModelRequestText, b.TunedCarRequest,
		b.TokyoTower, b.Shibuya, b.TotalPrice, b.Deposit,
		b.Status, b.PaymentIntentID, b.PaymentAcknowledged,
		b.GuestName, b.GuestEmail, b.GuestInstagram, b.GuestWhatsapp, b.GuestHotel, b.GuestRemarks,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error inserting booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing booking: %w", err)
	}
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*db.Booking, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT`+bookingColumns+` FROM bookings WHERE id = $1`, id)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrBookingNotFound
		}
		return nil, fmt.Errorf("error querying booking: %w", err)
	}
	return &b, nil
}

// GetByIDAndEmail is the guest-facing lookup: the booking id alone is
// not enough, the matching contact email is required too.
func (r *BookingRepository) GetByIDAndEmail(ctx context.Context, id, email string) (*db.Booking, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT`+bookingColumns+` FROM bookings WHERE id = $1 AND guest_email = $2`, id, email)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrBookingNotFound
		}
		return nil, fmt.Errorf("error querying booking: %w", err)
	}
	return &b, nil
}

// List returns bookings filtered by any combination of date key, tour
// and status, newest tour dates first.
func (r *BookingRepository) List(ctx context.Context, dateKey, tour, status string) ([]db.Booking, error) {
	query := `SELECT` + bookingColumns + ` FROM bookings WHERE 1=1`
	args := []any{}
	idx := 1

	if dateKey != "" {
		query += " AND date_key = $" + strconv.Itoa(idx) + "::date"
		args = append(args, dateKey)
		idx++
	}
	if tour != "" {
		query += " AND tour = $" + strconv.Itoa(idx)
		args = append(args, tour)
		idx++
	}
	if status != "" {
		query += " AND status = $" + strconv.Itoa(idx)
		args = append(args, status)
		idx++
	}
	query += " ORDER BY date_key DESC, created_at DESC"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying bookings: %w", err)
	}
	defer rows.Close()

	var bookings []db.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// SetPaymentAcknowledged flips the operator's manual payment check flag.
func (r *BookingRepository) SetPaymentAcknowledged(ctx context.Context, id string, acknowledged bool) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE bookings SET payment_acknowledged = $2, updated_at = NOW() WHERE id = $1`,
		id, acknowledged)
	if err != nil {
		return fmt.Errorf("error updating payment acknowledgement: %w", err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return apperrors.ErrBookingNotFound
	}
	return nil
}

// UpdateStatusByPaymentIntent moves a booking between statuses keyed by
// its Stripe PaymentIntent. Used by the webhook handler.
func (r *BookingRepository) UpdateStatusByPaymentIntent(ctx context.Context, paymentIntentID, status string) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE bookings SET status = $2, updated_at = NOW() WHERE payment_intent_id = $1`,
		paymentIntentID, status)
	if err != nil {
		return fmt.Errorf("error updating booking status: %w", err)
	}
	return nil
}
