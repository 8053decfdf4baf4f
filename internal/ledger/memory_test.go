package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"busline/internal/domain"
	"busline/internal/domain/models"
)

func seedLedger(codes ...string) *MemoryLedger {
	l := NewMemoryLedger()
	seats := make([]models.Seat, 0, len(codes))
	for i, code := range codes {
		seats = append(seats, models.Seat{ID: int64(i + 1), SeatCode: code, Price: 100000})
	}
	l.AddSchedule(1, seats)
	return l
}

func statusOf(t *testing.T, l *MemoryLedger, code string) models.SeatStatus {
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

func TestTrySetStatusAllOrNothing(t *testing.T) {
	l := seedLedger("A1", "A2", "A3")
	ctx := context.Background()
	expiry := time.Now().Add(5 * time.Minute)

	if err := l.TrySetStatus(ctx, 1, []string{"A2"}, models.SeatAvailable, models.SeatHeld, &expiry); err != nil {
		t.Fatalf("hold A2: %v", err)
	}

	// A2 is held, so the whole set must fail and A1 must stay untouched.
	err := l.TrySetStatus(ctx, 1, []string{"A1", "A2"}, models.SeatAvailable, models.SeatHeld, &expiry)
	if !domain.IsSeatUnavailable(err) {
		t.Fatalf("expected seat unavailable, got %v", err)
	}
	var unavailable domain.SeatUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected SeatUnavailableError, got %T", err)
	}
	if len(unavailable.Seats) != 1 || unavailable.Seats[0] != "A2" {
		t.Fatalf("expected loser A2, got %v", unavailable.Seats)
	}
	if got := statusOf(t, l, "A1"); got != models.SeatAvailable {
		t.Fatalf("A1 mutated on failed batch: %s", got)
	}
}

func TestTrySetStatusUnknownSeat(t *testing.T) {
	l := seedLedger("A1")
	err := l.TrySetStatus(context.Background(), 1, []string{"Z9"}, models.SeatAvailable, models.SeatBooked, nil)
	if !domain.IsSeatUnavailable(err) {
		t.Fatalf("expected seat unavailable for unknown seat, got %v", err)
	}
}

func TestConcurrentAcquireExactlyOneWins(t *testing.T) {
	l := seedLedger("A1", "A2", "A3", "A4")
	ctx := context.Background()
	expiry := time.Now().Add(5 * time.Minute)

	const actors = 16
	var wg sync.WaitGroup
	wins := make(chan int, actors)

	for i := 0; i < actors; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			// Every actor contends on A2, with varying extra seats.
			seats := []string{"A2"}
			if n%2 == 0 {
				seats = append(seats, "A1")
			} else {
				seats = append(seats, "A3")
			}
			if err := l.TrySetStatus(ctx, 1, seats, models.SeatAvailable, models.SeatHeld, &expiry); err == nil {
				wins <- n
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	if count != 1 {
		t.Fatalf("expected exactly one winner, got %d", count)
	}
	if got := statusOf(t, l, "A2"); got != models.SeatHeld {
		t.Fatalf("A2 = %s, want HELD", got)
	}
	if got := statusOf(t, l, "A4"); got != models.SeatAvailable {
		t.Fatalf("A4 = %s, want AVAILABLE", got)
	}
}

func TestExpiredHoldReclaimedLazily(t *testing.T) {
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	l := seedLedger("A1")
	l.Now = func() time.Time { return now }
	ctx := context.Background()

	expiry := now.Add(5 * time.Minute)
	if err := l.TrySetStatus(ctx, 1, []string{"A1"}, models.SeatAvailable, models.SeatHeld, &expiry); err != nil {
		t.Fatalf("hold: %v", err)
	}

	// Before expiry the seat cannot be claimed by anyone else.
	if err := l.TrySetStatus(ctx, 1, []string{"A1"}, models.SeatAvailable, models.SeatHeld, &expiry); !domain.IsSeatUnavailable(err) {
		t.Fatalf("expected unavailable before expiry, got %v", err)
	}

	// After expiry a fresh claim succeeds without any sweep running.
	now = now.Add(6 * time.Minute)
	next := now.Add(5 * time.Minute)
	if err := l.TrySetStatus(ctx, 1, []string{"A1"}, models.SeatAvailable, models.SeatHeld, &next); err != nil {
		t.Fatalf("claim after expiry: %v", err)
	}
}

func TestConfirmFromExpiredHoldFails(t *testing.T) {
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	l := seedLedger("A1")
	l.Now = func() time.Time { return now }
	ctx := context.Background()

	expiry := now.Add(time.Minute)
	if err := l.TrySetStatus(ctx, 1, []string{"A1"}, models.SeatAvailable, models.SeatHeld, &expiry); err != nil {
		t.Fatalf("hold: %v", err)
	}

	now = now.Add(2 * time.Minute)
	err := l.TrySetStatus(ctx, 1, []string{"A1"}, models.SeatHeld, models.SeatBooked, nil)
	if !domain.IsSeatUnavailable(err) {
		t.Fatalf("expected unavailable confirming expired hold, got %v", err)
	}
}

func TestReclaimExpiredCountsFlips(t *testing.T) {
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	l := seedLedger("A1", "A2")
	l.Now = func() time.Time { return now }
	ctx := context.Background()

	expiry := now.Add(time.Minute)
	if err := l.TrySetStatus(ctx, 1, []string{"A1", "A2"}, models.SeatAvailable, models.SeatHeld, &expiry); err != nil {
		t.Fatalf("hold: %v", err)
	}

	n, err := l.ReclaimExpired(ctx, 0, now.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("reclaim: %v", err)
	}
	if n != 2 {
		t.Fatalf("reclaimed %d seats, want 2", n)
	}
	n, err = l.ReclaimExpired(ctx, 0, now.Add(2*time.Minute))
	if err != nil || n != 0 {
		t.Fatalf("second reclaim = (%d, %v), want (0, nil)", n, err)
	}
}

func TestSeatsPreserveSeedOrder(t *testing.T) {
	l := seedLedger("B2", "A1", "C3")
	seats, err := l.Seats(context.Background(), 1)
	if err != nil {
		t.Fatalf("Seats: %v", err)
	}
	want := []string{"B2", "A1", "C3"}
	for i, w := range want {
		if seats[i].SeatCode != w {
			t.Fatalf("seat[%d] = %s, want %s", i, seats[i].SeatCode, w)
		}
	}
}
