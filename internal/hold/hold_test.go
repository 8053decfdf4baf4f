package hold

import (
	"context"
	"sync"
	"testing"
	"time"

	"busline/internal/domain"
	"busline/internal/domain/models"
	"busline/internal/ledger"
)

func newTestSetup(now *time.Time, codes ...string) (*Manager, *ledger.MemoryLedger) {
	l := ledger.NewMemoryLedger()
	seats := make([]models.Seat, 0, len(codes))
	for i, code := range codes {
		seats = append(seats, models.Seat{ID: int64(i + 1), SeatCode: code, Price: 100000})
	}
	l.AddSchedule(1, seats)
	l.Now = func() time.Time { return *now }

	m := NewManager(l, 5*time.Minute)
	m.Now = func() time.Time { return *now }
	return m, l
}

func seatStatus(t *testing.T, l *ledger.MemoryLedger, code string) models.SeatStatus {
	t.Helper()
	seats, err := l.Seats(context.Background(), 1)
	if err != nil {
		t.Fatalf("Seats: %v", err)
	}
	for _, s := range seats {
		if s.SeatCode == code {
			return s.Status
		}
	}
	t.Fatalf("seat %s not found", code)
	return ""
}

func TestAcquireConfirm(t *testing.T) {
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	m, l := newTestSetup(&now, "A1", "A2")
	ctx := context.Background()

	h, err := m.Acquire(ctx, 1, []string{"A1", "A2"})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if h.Token == "" {
		t.Fatal("empty hold token")
	}
	if got := seatStatus(t, l, "A1"); got != models.SeatHeld {
		t.Fatalf("A1 = %s, want HELD", got)
	}

	if _, err := m.Confirm(ctx, h.Token); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if got := seatStatus(t, l, "A2"); got != models.SeatBooked {
		t.Fatalf("A2 = %s, want BOOKED", got)
	}

	// Tokens are single use.
	if _, err := m.Confirm(ctx, h.Token); !domain.IsHoldExpired(err) {
		t.Fatalf("second confirm = %v, want hold expired", err)
	}
}

func TestConfirmAfterTTL(t *testing.T) {
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	m, l := newTestSetup(&now, "A1")
	ctx := context.Background()

	h, err := m.Acquire(ctx, 1, []string{"A1"})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	now = now.Add(6 * time.Minute)

	if _, err := m.Confirm(ctx, h.Token); !domain.IsHoldExpired(err) {
		t.Fatalf("confirm after ttl = %v, want hold expired", err)
	}

	// The seat is claimable again by someone else.
	if _, err := m.Acquire(ctx, 1, []string{"A1"}); err != nil {
		t.Fatalf("re-acquire after expiry: %v", err)
	}
	if got := seatStatus(t, l, "A1"); got != models.SeatHeld {
		t.Fatalf("A1 = %s, want HELD", got)
	}
}

func TestReleaseReturnsSeats(t *testing.T) {
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	m, l := newTestSetup(&now, "A1", "A2")
	ctx := context.Background()

	h, err := m.Acquire(ctx, 1, []string{"A1", "A2"})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := m.Release(ctx, h.Token); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if got := seatStatus(t, l, "A1"); got != models.SeatAvailable {
		t.Fatalf("A1 = %s, want AVAILABLE", got)
	}
}

func TestReleaseExpiredTokenDoesNotTouchSeats(t *testing.T) {
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	m, l := newTestSetup(&now, "A1")
	ctx := context.Background()

	h, err := m.Acquire(ctx, 1, []string{"A1"})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	// The hold lapses and another actor claims the seat.
	now = now.Add(6 * time.Minute)
	if _, err := m.Acquire(ctx, 1, []string{"A1"}); err != nil {
		t.Fatalf("second acquire: %v", err)
	}

	// The stale release must not free the new actor's hold.
	if err := m.Release(ctx, h.Token); err != nil {
		t.Fatalf("stale release: %v", err)
	}
	if got := seatStatus(t, l, "A1"); got != models.SeatHeld {
		t.Fatalf("A1 = %s, want HELD", got)
	}
}

func TestReleaseUnknownTokenIsNoop(t *testing.T) {
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	m, _ := newTestSetup(&now, "A1")
	if err := m.Release(context.Background(), "no-such-token"); err != nil {
		t.Fatalf("Release unknown token: %v", err)
	}
}

func TestSweepReclaimsExpiredHolds(t *testing.T) {
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	m, l := newTestSetup(&now, "A1", "A2")
	ctx := context.Background()

	if _, err := m.Acquire(ctx, 1, []string{"A1", "A2"}); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	now = now.Add(6 * time.Minute)
	n, err := m.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if n != 2 {
		t.Fatalf("swept %d seats, want 2", n)
	}
	if got := seatStatus(t, l, "A1"); got != models.SeatAvailable {
		t.Fatalf("A1 = %s, want AVAILABLE", got)
	}

	// Second sweep finds nothing.
	if n, err := m.Sweep(ctx); err != nil || n != 0 {
		t.Fatalf("second sweep = (%d, %v), want (0, nil)", n, err)
	}
}

func TestConcurrentAcquireOverlap(t *testing.T) {
	now := time.Now()
	m, _ := newTestSetup(&now, "A1", "A2", "A3")
	ctx := context.Background()

	const actors = 10
	var wg sync.WaitGroup
	wins := 0
	var winMu sync.Mutex

	for i := 0; i < actors; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Acquire(ctx, 1, []string{"A1", "A2", "A3"}); err == nil {
				winMu.Lock()
				wins++
				winMu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one winning acquire, got %d", wins)
	}
}
