package ledger

import (
	"context"
	"database/sql"
	"strings"
	"time"

	intconfig "busline/internal/config"
	"busline/internal/domain"
	"busline/internal/domain/models"
)

// MySQLLedger implements Ledger on top of the seats table. The conditional
// multi-row update is one UPDATE constrained by schedule, seat set and
// current status, executed in a transaction and checked against the number
// of requested seats; a short count rolls back the whole claim.
type MySQLLedger struct {
	DB  *sql.DB
	Now func() time.Time
}

func (l MySQLLedger) db() *sql.DB {
	if l.DB != nil {
		return l.DB
	}
	return intconfig.DB
}

func (l MySQLLedger) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

func (l MySQLLedger) Seats(ctx context.Context, scheduleID int64) ([]models.Seat, error) {
	rows, err := l.db().QueryContext(ctx, `
		SELECT id, schedule_id, seat_code, seat_type, price, status, hold_expiry
		FROM seats
		WHERE schedule_id=?
		ORDER BY id ASC
	`, scheduleID)
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	defer rows.Close()

	now := l.now()
	out := []models.Seat{}
	for rows.Next() {
		var s models.Seat
		var expiry sql.NullTime
		if err := rows.Scan(&s.ID, &s.ScheduleID, &s.SeatCode, &s.SeatType, &s.Price, &s.Status, &expiry); err != nil {
			return nil, domain.InternalError{Err: err}
		}
		if expiry.Valid {
			t := expiry.Time
			s.HoldExpiry = &t
		}
		// Present expired holds as available even before a sweep runs.
		if s.Status == models.SeatHeld && (s.HoldExpiry == nil || !s.HoldExpiry.After(now)) {
			s.Status = models.SeatAvailable
			s.HoldExpiry = nil
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (l MySQLLedger) TrySetStatus(ctx context.Context, scheduleID int64, seatCodes []string, from, to models.SeatStatus, holdExpiry *time.Time) error {
	if len(seatCodes) == 0 {
		return domain.InvalidSeatSelectionError{Msg: "empty seat set"}
	}

	now := l.now()

	tx, err := l.db().BeginTx(ctx, nil)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	defer tx.Rollback()

	// Lazy reclaim so that expired holds count as AVAILABLE for this claim.
	if from == models.SeatAvailable {
		if _, err := tx.ExecContext(ctx, `
			UPDATE seats SET status='AVAILABLE', hold_expiry=NULL
			WHERE schedule_id=? AND status='HELD' AND hold_expiry IS NOT NULL AND hold_expiry<=?
		`, scheduleID, now); err != nil {
			return domain.InternalError{Err: err}
		}
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(seatCodes)), ",")
	query := `UPDATE seats SET status=?, hold_expiry=? WHERE schedule_id=? AND status=? AND seat_code IN (` + placeholders + `)`
	args := make([]any, 0, len(seatCodes)+5)
	var expiry any
	if to == models.SeatHeld && holdExpiry != nil {
		expiry = *holdExpiry
	}
	args = append(args, string(to), expiry, scheduleID, string(from))
	for _, code := range seatCodes {
		args = append(args, code)
	}
	if from == models.SeatHeld {
		query += ` AND hold_expiry IS NOT NULL AND hold_expiry>?`
		args = append(args, now)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.InternalError{Err: err}
	}
	if affected != int64(len(seatCodes)) {
		// Some seat already moved; the rollback keeps the set untouched.
		return domain.SeatUnavailableError{ScheduleID: scheduleID, Seats: seatCodes}
	}

	if err := tx.Commit(); err != nil {
		return domain.InternalError{Err: err}
	}
	return nil
}

func (l MySQLLedger) ReclaimExpired(ctx context.Context, scheduleID int64, now time.Time) (int, error) {
	query := `UPDATE seats SET status='AVAILABLE', hold_expiry=NULL
		WHERE status='HELD' AND hold_expiry IS NOT NULL AND hold_expiry<=?`
	args := []any{now}
	if scheduleID != 0 {
		query += ` AND schedule_id=?`
		args = append(args, scheduleID)
	}
	res, err := l.db().ExecContext(ctx, query, args...)
	if err != nil {
		return 0, domain.InternalError{Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, domain.InternalError{Err: err}
	}
	return int(n), nil
}
