// Package cache serves recent seat-map snapshots for availability display.
// Reads here are allowed to lag the ledger; every booking mutation
// invalidates the affected schedule's entry.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"busline/internal/domain/models"

	"github.com/redis/go-redis/v9"
)

type Snapshots struct {
	Client *redis.Client
	TTL    time.Duration
}

var (
	defaultMu sync.RWMutex
	def       *Snapshots
)

// SetDefault installs the process-wide snapshot cache. A nil value (or a
// nil client) disables caching; every lookup is then a miss.
func SetDefault(s *Snapshots) {
	defaultMu.Lock()
	def = s
	defaultMu.Unlock()
}

func Default() *Snapshots {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return def
}

func seatmapKey(scheduleID int64) string {
	return fmt.Sprintf("seatmap:%d", scheduleID)
}

func (s *Snapshots) ttl() time.Duration {
	if s != nil && s.TTL > 0 {
		return s.TTL
	}
	return 10 * time.Second
}

func (s *Snapshots) GetSeats(ctx context.Context, scheduleID int64) ([]models.Seat, bool) {
	if s == nil || s.Client == nil {
		return nil, false
	}
	raw, err := s.Client.Get(ctx, seatmapKey(scheduleID)).Result()
	if err != nil {
		return nil, false
	}
	var seats []models.Seat
	if err := json.Unmarshal([]byte(raw), &seats); err != nil {
		return nil, false
	}
	return seats, true
}

func (s *Snapshots) SetSeats(ctx context.Context, scheduleID int64, seats []models.Seat) {
	if s == nil || s.Client == nil {
		return
	}
	data, err := json.Marshal(seats)
	if err != nil {
		return
	}
	s.Client.Set(ctx, seatmapKey(scheduleID), data, s.ttl())
}

func (s *Snapshots) Invalidate(ctx context.Context, scheduleIDs ...int64) {
	if s == nil || s.Client == nil || len(scheduleIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(scheduleIDs))
	for _, id := range scheduleIDs {
		keys = append(keys, seatmapKey(id))
	}
	s.Client.Del(ctx, keys...)
}
