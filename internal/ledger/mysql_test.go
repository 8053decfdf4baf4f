package ledger

import (
	"context"
	"testing"
	"time"

	"busline/internal/domain"
	"busline/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestMySQLTrySetStatusClaimsAllSeats(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	l := MySQLLedger{DB: db, Now: func() time.Time { return now }}
	expiry := now.Add(5 * time.Minute)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE seats SET status='AVAILABLE'").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE seats SET status=\\?").
		WithArgs("HELD", expiry, int64(7), "AVAILABLE", "A1", "A2").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err = l.TrySetStatus(context.Background(), 7, []string{"A1", "A2"}, models.SeatAvailable, models.SeatHeld, &expiry)
	if err != nil {
		t.Fatalf("TrySetStatus: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMySQLTrySetStatusShortCountRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	l := MySQLLedger{DB: db}
	expiry := time.Now().Add(5 * time.Minute)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE seats SET status='AVAILABLE'").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE seats SET status=\\?").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	err = l.TrySetStatus(context.Background(), 7, []string{"A1", "A2"}, models.SeatAvailable, models.SeatHeld, &expiry)
	if !domain.IsSeatUnavailable(err) {
		t.Fatalf("expected seat unavailable, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMySQLConfirmGuardsExpiry(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	l := MySQLLedger{DB: db, Now: func() time.Time { return now }}

	// HELD -> BOOKED carries the expiry guard and no lazy reclaim pass.
	mock.ExpectBegin()
	mock.ExpectExec("hold_expiry IS NOT NULL AND hold_expiry>\\?").
		WithArgs("BOOKED", nil, int64(7), "HELD", "A1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := l.TrySetStatus(context.Background(), 7, []string{"A1"}, models.SeatHeld, models.SeatBooked, nil); err != nil {
		t.Fatalf("TrySetStatus: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMySQLSeatsPresentsExpiredHoldAsAvailable(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	l := MySQLLedger{DB: db, Now: func() time.Time { return now }}

	rows := sqlmock.NewRows([]string{"id", "schedule_id", "seat_code", "seat_type", "price", "status", "hold_expiry"}).
		AddRow(1, 7, "A1", "regular", 100000, "HELD", now.Add(-time.Minute)).
		AddRow(2, 7, "A2", "regular", 100000, "HELD", now.Add(time.Minute))
	mock.ExpectQuery("SELECT id, schedule_id, seat_code").WithArgs(int64(7)).WillReturnRows(rows)

	seats, err := l.Seats(context.Background(), 7)
	if err != nil {
		t.Fatalf("Seats: %v", err)
	}
	if seats[0].Status != models.SeatAvailable {
		t.Fatalf("expired hold shown as %s, want AVAILABLE", seats[0].Status)
	}
	if seats[1].Status != models.SeatHeld {
		t.Fatalf("live hold shown as %s, want HELD", seats[1].Status)
	}
}

func TestMySQLReclaimExpiredCounts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	l := MySQLLedger{DB: db}
	now := time.Now()

	mock.ExpectExec("UPDATE seats SET status='AVAILABLE'").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := l.ReclaimExpired(context.Background(), 0, now)
	if err != nil {
		t.Fatalf("ReclaimExpired: %v", err)
	}
	if n != 3 {
		t.Fatalf("reclaimed %d, want 3", n)
	}
}
