package repository

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
)

type JobRepository struct {
	DB *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{DB: db}
}

// GetStalePendingBookingIDs finds Pending bookings created before the
// cutoff whose payment never completed.
func (r *JobRepository) GetStalePendingBookingIDs(before time.Time) ([]string, error) {
	rows, err := r.DB.Query(`
		SELECT id FROM bookings WHERE status = 'Pending' AND created_at < $1`, before)
	if err != nil {
		return nil, fmt.Errorf("error querying stale pending bookings: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning booking ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating rows: %w", err)
	}
	return ids, nil
}

// DeleteBookings removes a batch of bookings by id.
func (r *JobRepository) DeleteBookings(ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result, err := r.DB.Exec(`DELETE FROM bookings WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("error deleting bookings: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Printf("Could not get rows affected: %v", err)
		return 0, nil
	}
	return rowsAffected, nil
}

// CloseOpenDatesForConfirmedBookings deletes any open-date row still
// present for a vehicle held by a Confirmed booking on a future date.
// The booking commit already does this transactionally; this sweep
// covers rows re-opened by operator edits or left over from partial
// writes. Idempotent, safe to re-run.
func (r *JobRepository) CloseOpenDatesForConfirmedBookings() (int64, error) {
	result, err := r.DB.Exec(`
		DELETE FROM vehicle_open_dates od
		USING bookings b
		WHERE b.status = 'Confirmed'
		  AND b.date_key >= CURRENT_DATE
		  AND od.tour = b.tour
		  AND od.date_key = b.date_key
		  AND (od.vehicle_id = b.vehicle1 OR od.vehicle_id = b.vehicle2)`)
	if err != nil {
		return 0, fmt.Errorf("error reconciling open dates: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Printf("Could not get rows affected: %v", err)
		return 0, nil
	}
	return rowsAffected, nil
}
