package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	intconfig "busline/internal/config"
	"busline/internal/hold"
	"busline/internal/repositories"
	"busline/internal/utils"
)

// ReconcileService runs the maintenance passes that keep inventory
// consistent over time. Every pass is idempotent: a second run over the
// same data changes nothing.
type ReconcileService struct {
	DB        *sql.DB
	Holds     *hold.Manager
	Bookings  repositories.BookingRepo
	RequestID string
	Now       func() time.Time
}

func (s ReconcileService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s ReconcileService) holds() *hold.Manager {
	if s.Holds != nil {
		return s.Holds
	}
	return hold.Default()
}

func (s ReconcileService) bookings() repositories.BookingRepo {
	if s.Bookings.DB != nil {
		return s.Bookings
	}
	return repositories.BookingRepo{DB: s.db()}
}

func (s ReconcileService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// SweepHolds reclaims expired holds. An expired hold has no order attached
// (orders exist only after confirm), so there is nothing else to clean.
func (s ReconcileService) SweepHolds(ctx context.Context) (int, error) {
	n, err := s.holds().Sweep(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		utils.LogEvent(s.RequestID, "reconcile", "sweep_holds", fmt.Sprintf("reclaimed=%d", n))
	}
	return n, nil
}

// CompletePastTrips marks BOOKED rows of departed schedules COMPLETED.
func (s ReconcileService) CompletePastTrips(ctx context.Context) (int64, error) {
	n, err := s.bookings().CompletePastTrips(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		utils.LogEvent(s.RequestID, "reconcile", "complete_trips", fmt.Sprintf("completed=%d", n))
	}
	return n, nil
}

// PurgeOrphans flags bookings whose schedule was soft-deleted and closes
// orders with no remaining active bookings.
func (s ReconcileService) PurgeOrphans(ctx context.Context) (int64, error) {
	now := s.now()
	flagged, err := s.bookings().FlagScheduleOrphans(ctx, now)
	if err != nil {
		return 0, err
	}
	closed, err := s.bookings().CloseDrainedOrders(ctx, now)
	if err != nil {
		return flagged, err
	}
	if flagged+closed > 0 {
		utils.LogEvent(s.RequestID, "reconcile", "purge_orphans", fmt.Sprintf("flagged=%d closed=%d", flagged, closed))
	}
	return flagged + closed, nil
}
