// Package scheduler drives the reconciliation passes on an interval so
// lazy reclamation is rarely observed by users.
package scheduler

import (
	"context"
	"log"
	"time"
)

type reconciler interface {
	SweepHolds(ctx context.Context) (int, error)
	CompletePastTrips(ctx context.Context) (int64, error)
	PurgeOrphans(ctx context.Context) (int64, error)
}

type Scheduler struct {
	reconcile reconciler
	interval  time.Duration
}

func New(reconcile reconciler, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{reconcile: reconcile, interval: interval}
}

// Start blocks until ctx is cancelled, running every pass once per tick.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("[RECONCILE] scheduler started interval=%s", s.interval)

	for {
		select {
		case <-ctx.Done():
			log.Println("[RECONCILE] scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if _, err := s.reconcile.SweepHolds(ctx); err != nil {
		log.Printf("[RECONCILE] hold sweep failed: %v", err)
	}
	if _, err := s.reconcile.CompletePastTrips(ctx); err != nil {
		log.Printf("[RECONCILE] past-trip completion failed: %v", err)
	}
	if _, err := s.reconcile.PurgeOrphans(ctx); err != nil {
		log.Printf("[RECONCILE] orphan purge failed: %v", err)
	}
}
