package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	intconfig "busline/internal/config"
	intdb "busline/internal/db"
	"busline/internal/domain"
	"busline/internal/domain/models"
)

type BookingRepo struct {
	DB *sql.DB
}

func (r BookingRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r BookingRepo) GetByID(ctx context.Context, id int64) (models.Booking, error) {
	row := r.db().QueryRowContext(ctx, `
		SELECT id, order_id, schedule_id, seat_id, seat_code, user_id, passenger_name, passenger_phone, passenger_email, passenger_id_card, price, status, cancel_reason, deleted_at, created_at
		FROM bookings WHERE id=? LIMIT 1
	`, id)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return b, domain.NotFoundError{Resource: "booking", Err: err}
		}
		return b, domain.InternalError{Err: err}
	}
	return b, nil
}

// MarkCancelled flips a BOOKED row to CANCELLED with the soft-delete stamp.
// Conditional on current status so a concurrent cancel is a clean conflict.
func (r BookingRepo) MarkCancelled(ctx context.Context, q intdb.DBTX, id int64, reason string, now time.Time) error {
	res, err := q.ExecContext(ctx, `
		UPDATE bookings SET status='CANCELLED', cancel_reason=?, deleted_at=?
		WHERE id=? AND status='BOOKED'
	`, reason, now, id)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.InternalError{Err: err}
	}
	if affected == 0 {
		return domain.ConflictError{Resource: "booking", Msg: "not in BOOKED state"}
	}
	return nil
}

func (r BookingRepo) MarkCompleted(ctx context.Context, q intdb.DBTX, id int64) error {
	res, err := q.ExecContext(ctx, `
		UPDATE bookings SET status='COMPLETED' WHERE id=? AND status='BOOKED'
	`, id)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.InternalError{Err: err}
	}
	if affected == 0 {
		return domain.ConflictError{Resource: "booking", Msg: "not in BOOKED state"}
	}
	return nil
}

// CompletePastTrips marks every BOOKED row of a departed schedule COMPLETED.
// Only BOOKED rows match, so re-running is a no-op.
func (r BookingRepo) CompletePastTrips(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db().ExecContext(ctx, `
		UPDATE bookings b
		JOIN schedules s ON s.id = b.schedule_id
		SET b.status='COMPLETED'
		WHERE b.status='BOOKED' AND s.departure_at < ?
	`, now)
	if err != nil {
		return 0, domain.InternalError{Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, domain.InternalError{Err: err}
	}
	return n, nil
}

// FlagScheduleOrphans cancels BOOKED rows whose schedule was soft-deleted
// underneath them. Idempotent: flagged rows no longer match.
func (r BookingRepo) FlagScheduleOrphans(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db().ExecContext(ctx, `
		UPDATE bookings b
		JOIN schedules s ON s.id = b.schedule_id
		SET b.status='CANCELLED', b.cancel_reason='schedule removed', b.deleted_at=?
		WHERE b.status='BOOKED' AND s.deleted_at IS NOT NULL
	`, now)
	if err != nil {
		return 0, domain.InternalError{Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, domain.InternalError{Err: err}
	}
	return n, nil
}

// CloseDrainedOrders stamps closed_at on orders with no active bookings.
func (r BookingRepo) CloseDrainedOrders(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db().ExecContext(ctx, `
		UPDATE orders o SET o.closed_at=?
		WHERE o.closed_at IS NULL
		  AND NOT EXISTS (SELECT 1 FROM bookings b WHERE b.order_id=o.id AND b.status='BOOKED')
		  AND EXISTS (SELECT 1 FROM bookings b WHERE b.order_id=o.id)
	`, now)
	if err != nil {
		return 0, domain.InternalError{Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, domain.InternalError{Err: err}
	}
	return n, nil
}
