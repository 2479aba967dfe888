package service

import (
	"fmt"
	"log"
	"time"

	"godzillatours/internal/repository"
)

type JobService struct {
	Repo *repository.JobRepository
}

func NewJobService(repo *repository.JobRepository) *JobService {
	return &JobService{Repo: repo}
}

// PurgeStalePendingBookings removes Pending bookings whose payment never
// completed within the given age. They hold no vehicle (open dates are
// only consumed on a Confirmed commit) so deletion is safe.
func (s *JobService) PurgeStalePendingBookings(maxAge time.Duration) error {
	before := time.Now().UTC().Add(-maxAge)

	ids, err := s.Repo.GetStalePendingBookingIDs(before)
	if err != nil {
		return fmt.Errorf("cron job: failed to get stale pending bookings: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	deleted, err := s.Repo.DeleteBookings(ids)
	if err != nil {
		return fmt.Errorf("cron job: failed to delete stale pending bookings: %w", err)
	}
	log.Printf("Cron Job: Deleted %d stale pending bookings.", deleted)
	return nil
}

// ReconcileOpenDates re-runs the availability cleanup of the booking
// commit. The commit is transactional, but operators can re-open a date
// by hand after a car was booked; the booking ledger stays the source of
// truth and this sweep closes such dates again.
func (s *JobService) ReconcileOpenDates() error {
	closed, err := s.Repo.CloseOpenDatesForConfirmedBookings()
	if err != nil {
		return fmt.Errorf("cron job: failed to reconcile open dates: %w", err)
	}
	if closed > 0 {
		log.Printf("Cron Job: Closed %d open dates held by confirmed bookings.", closed)
	}
	return nil
}
