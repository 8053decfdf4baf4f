// Package hold grants time-boxed exclusive claims over seat sets pending
// payment. A hold either reaches Confirm within its TTL or its seats are
// reclaimed: lazily by the ledger on the next claim, or by Sweep.
package hold

import (
	"context"
	"sync"
	"time"

	"busline/internal/domain"
	"busline/internal/domain/models"
	"busline/internal/ledger"

	"github.com/google/uuid"
)

// DefaultTTL is sized to survive a normal payment round trip without letting
// abandoned sessions starve inventory.
const DefaultTTL = 5 * time.Minute

// Hold is one active claim. The token is the only capability needed to
// confirm or release it.
type Hold struct {
	Token      string
	ScheduleID int64
	SeatCodes  []string
	ExpiresAt  time.Time
}

type Manager struct {
	Ledger ledger.Ledger
	TTL    time.Duration
	Now    func() time.Time

	mu    sync.Mutex
	holds map[string]Hold
}

func NewManager(l ledger.Ledger, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{Ledger: l, TTL: ttl, holds: make(map[string]Hold)}
}

var (
	defaultMu  sync.Mutex
	defaultMgr *Manager
)

// Default returns the process-wide manager, creating one over the MySQL
// ledger on first use. main replaces it via SetDefault with env settings.
func Default() *Manager {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultMgr == nil {
		defaultMgr = NewManager(ledger.MySQLLedger{}, DefaultTTL)
	}
	return defaultMgr
}

func SetDefault(m *Manager) {
	defaultMu.Lock()
	defaultMgr = m
	defaultMu.Unlock()
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m *Manager) ttl() time.Duration {
	if m.TTL > 0 {
		return m.TTL
	}
	return DefaultTTL
}

// Acquire claims the whole seat set AVAILABLE→HELD. Fails with
// SeatUnavailable when any seat is already held or booked.
func (m *Manager) Acquire(ctx context.Context, scheduleID int64, seatCodes []string) (Hold, error) {
	if len(seatCodes) == 0 {
		return Hold{}, domain.InvalidSeatSelectionError{Msg: "empty seat set"}
	}

	expiresAt := m.now().Add(m.ttl())
	if err := m.Ledger.TrySetStatus(ctx, scheduleID, seatCodes, models.SeatAvailable, models.SeatHeld, &expiresAt); err != nil {
		return Hold{}, err
	}

	h := Hold{
		Token:      uuid.NewString(),
		ScheduleID: scheduleID,
		SeatCodes:  append([]string(nil), seatCodes...),
		ExpiresAt:  expiresAt,
	}
	m.mu.Lock()
	if m.holds == nil {
		m.holds = make(map[string]Hold)
	}
	m.holds[h.Token] = h
	m.mu.Unlock()
	return h, nil
}

// Confirm transitions the held seats HELD→BOOKED. It re-checks expiry at
// call time; the ledger enforces it again underneath, so a hold reclaimed by
// a concurrent sweep also fails here rather than silently succeeding.
func (m *Manager) Confirm(ctx context.Context, token string) (Hold, error) {
	h, ok := m.take(token)
	if !ok {
		return Hold{}, domain.HoldExpiredError{Token: token}
	}
	if !h.ExpiresAt.After(m.now()) {
		return Hold{}, domain.HoldExpiredError{Token: token}
	}
	if err := m.Ledger.TrySetStatus(ctx, h.ScheduleID, h.SeatCodes, models.SeatHeld, models.SeatBooked, nil); err != nil {
		if domain.IsSeatUnavailable(err) {
			return Hold{}, domain.HoldExpiredError{Token: token}
		}
		return Hold{}, err
	}
	return h, nil
}

// Release returns held seats to AVAILABLE after an abandoned checkout or a
// failed payment. Releasing an expired or unknown token is a no-op: the
// seats are no longer under this token's control.
func (m *Manager) Release(ctx context.Context, token string) error {
	h, ok := m.take(token)
	if !ok {
		return nil
	}
	if !h.ExpiresAt.After(m.now()) {
		return nil
	}
	err := m.Ledger.TrySetStatus(ctx, h.ScheduleID, h.SeatCodes, models.SeatHeld, models.SeatAvailable, nil)
	if err != nil && !domain.IsSeatUnavailable(err) {
		return err
	}
	return nil
}

// Sweep drops expired tokens and reclaims expired seats ledger-wide.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	now := m.now()

	m.mu.Lock()
	for token, h := range m.holds {
		if !h.ExpiresAt.After(now) {
			delete(m.holds, token)
		}
	}
	m.mu.Unlock()

	return m.Ledger.ReclaimExpired(ctx, 0, now)
}

// take removes and returns the hold for token. Each token is single-use:
// whoever takes it (confirm or release) owns the outcome.
func (m *Manager) take(token string) (Hold, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.holds[token]
	if ok {
		delete(m.holds, token)
	}
	return h, ok
}
