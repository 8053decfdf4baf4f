package services

import (
	"context"
	"testing"
	"time"

	"busline/internal/domain/models"
	"busline/internal/hold"
	"busline/internal/ledger"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestSweepHoldsReclaimsExpired(t *testing.T) {
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	mem := ledger.NewMemoryLedger()
	mem.Now = func() time.Time { return now }
	mem.AddSchedule(7, []models.Seat{{ID: 1, SeatCode: "A1"}, {ID: 2, SeatCode: "A2"}})

	mgr := hold.NewManager(mem, 5*time.Minute)
	mgr.Now = func() time.Time { return now }
	if _, err := mgr.Acquire(context.Background(), 7, []string{"A1", "A2"}); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	now = now.Add(10 * time.Minute)
	svc := ReconcileService{Holds: mgr, Now: func() time.Time { return now }}

	n, err := svc.SweepHolds(context.Background())
	if err != nil {
		t.Fatalf("SweepHolds: %v", err)
	}
	if n != 2 {
		t.Fatalf("swept %d, want 2", n)
	}

	// Idempotent: nothing left on the second pass.
	if n, err := svc.SweepHolds(context.Background()); err != nil || n != 0 {
		t.Fatalf("second sweep = (%d, %v), want (0, nil)", n, err)
	}
}

func TestCompletePastTripsIdempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	svc := ReconcileService{DB: db, Now: func() time.Time { return now }}

	mock.ExpectExec("SET b.status='COMPLETED'").WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("SET b.status='COMPLETED'").WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := svc.CompletePastTrips(context.Background())
	if err != nil {
		t.Fatalf("CompletePastTrips: %v", err)
	}
	if n != 3 {
		t.Fatalf("completed %d, want 3", n)
	}

	n, err = svc.CompletePastTrips(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("second run = (%d, %v), want (0, nil)", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPurgeOrphansFlagsAndCloses(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	svc := ReconcileService{DB: db, Now: func() time.Time { return now }}

	mock.ExpectExec("SET b.status='CANCELLED'").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("UPDATE orders o SET o.closed_at").
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := svc.PurgeOrphans(context.Background())
	if err != nil {
		t.Fatalf("PurgeOrphans: %v", err)
	}
	if n != 3 {
		t.Fatalf("purged %d, want 3", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
