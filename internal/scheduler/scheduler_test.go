package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingReconciler struct {
	sweeps    atomic.Int64
	trips     atomic.Int64
	orphans   atomic.Int64
	sweepErr  error
	tripsErr  error
	orphanErr error
}

func (c *countingReconciler) SweepHolds(ctx context.Context) (int, error) {
	c.sweeps.Add(1)
	return 0, c.sweepErr
}

func (c *countingReconciler) CompletePastTrips(ctx context.Context) (int64, error) {
	c.trips.Add(1)
	return 0, c.tripsErr
}

func (c *countingReconciler) PurgeOrphans(ctx context.Context) (int64, error) {
	c.orphans.Add(1)
	return 0, c.orphanErr
}

func TestSchedulerRunsAllPasses(t *testing.T) {
	rec := &countingReconciler{}
	s := New(rec, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for rec.orphans.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("scheduler never completed two ticks")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on cancel")
	}

	if rec.sweeps.Load() < 2 || rec.trips.Load() < 2 {
		t.Fatalf("passes = (%d, %d, %d), want at least two each",
			rec.sweeps.Load(), rec.trips.Load(), rec.orphans.Load())
	}
}

func TestSchedulerKeepsGoingAfterErrors(t *testing.T) {
	rec := &countingReconciler{sweepErr: context.DeadlineExceeded}
	s := New(rec, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Start(ctx)

	deadline := time.After(2 * time.Second)
	for rec.orphans.Load() < 1 {
		select {
		case <-deadline:
			t.Fatal("later passes never ran after sweep error")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestNewDefaultsInterval(t *testing.T) {
	s := New(&countingReconciler{}, 0)
	if s.interval != time.Minute {
		t.Fatalf("interval = %s, want 1m", s.interval)
	}
}
