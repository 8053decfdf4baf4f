// Package ledger is the authoritative per-schedule seat-state store. Every
// mutation is conditional on the current status of the whole requested set:
// TrySetStatus succeeds only when every seat is in the expected from-status,
// otherwise nothing is mutated. First committed caller wins.
package ledger

import (
	"context"
	"time"

	"busline/internal/domain/models"
)

// Ledger is implemented by the MySQL store and by an in-memory store for
// small inventories and tests. Writes are linearizable per schedule; Seats
// reads may lag and are fine for availability display.
type Ledger interface {
	// Seats returns the schedule's seat set in stable order.
	Seats(ctx context.Context, scheduleID int64) ([]models.Seat, error)

	// TrySetStatus atomically moves every listed seat from `from` to `to`.
	// holdExpiry is set when to==HELD and cleared otherwise. When from==HELD
	// the transition additionally requires the hold to be unexpired. Returns
	// domain.SeatUnavailableError when any seat is not in `from`.
	TrySetStatus(ctx context.Context, scheduleID int64, seatCodes []string, from, to models.SeatStatus, holdExpiry *time.Time) error

	// ReclaimExpired resets HELD seats whose expiry has passed back to
	// AVAILABLE. scheduleID 0 means all schedules. Returns seats reclaimed.
	ReclaimExpired(ctx context.Context, scheduleID int64, now time.Time) (int, error)
}
