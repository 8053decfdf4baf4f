package ledger

import (
	"context"
	"sync"
	"time"

	"busline/internal/domain"
	"busline/internal/domain/models"
)

// MemoryLedger keeps seat state in process behind a per-schedule mutex. The
// mutex is the serialization point the conditional update needs; expired
// holds are reclaimed lazily on every locked access.
type MemoryLedger struct {
	Now func() time.Time

	mu        sync.Mutex
	schedules map[int64]*scheduleSeats
}

type scheduleSeats struct {
	mu    sync.Mutex
	order []string
	seats map[string]*models.Seat
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{schedules: make(map[int64]*scheduleSeats)}
}

func (l *MemoryLedger) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

// AddSchedule seeds a schedule's seat set. Existing state is replaced.
func (l *MemoryLedger) AddSchedule(scheduleID int64, seats []models.Seat) {
	st := &scheduleSeats{seats: make(map[string]*models.Seat, len(seats))}
	for i := range seats {
		s := seats[i]
		s.ScheduleID = scheduleID
		if s.Status == "" {
			s.Status = models.SeatAvailable
		}
		st.order = append(st.order, s.SeatCode)
		st.seats[s.SeatCode] = &s
	}
	l.mu.Lock()
	l.schedules[scheduleID] = st
	l.mu.Unlock()
}

func (l *MemoryLedger) schedule(scheduleID int64) (*scheduleSeats, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	st, ok := l.schedules[scheduleID]
	return st, ok
}

func (l *MemoryLedger) Seats(ctx context.Context, scheduleID int64) ([]models.Seat, error) {
	st, ok := l.schedule(scheduleID)
	if !ok {
		return nil, domain.NotFoundError{Resource: "schedule"}
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	st.reclaim(l.now())

	out := make([]models.Seat, 0, len(st.order))
	for _, code := range st.order {
		out = append(out, *st.seats[code])
	}
	return out, nil
}

func (l *MemoryLedger) TrySetStatus(ctx context.Context, scheduleID int64, seatCodes []string, from, to models.SeatStatus, holdExpiry *time.Time) error {
	if len(seatCodes) == 0 {
		return domain.InvalidSeatSelectionError{Msg: "empty seat set"}
	}
	st, ok := l.schedule(scheduleID)
	if !ok {
		return domain.NotFoundError{Resource: "schedule"}
	}

	now := l.now()

	st.mu.Lock()
	defer st.mu.Unlock()
	st.reclaim(now)

	// Check the whole set before mutating anything.
	var losers []string
	for _, code := range seatCodes {
		seat, ok := st.seats[code]
		if !ok || seat.Status != from {
			losers = append(losers, code)
			continue
		}
		if from == models.SeatHeld && (seat.HoldExpiry == nil || !seat.HoldExpiry.After(now)) {
			losers = append(losers, code)
		}
	}
	if len(losers) > 0 {
		return domain.SeatUnavailableError{ScheduleID: scheduleID, Seats: losers}
	}

	for _, code := range seatCodes {
		seat := st.seats[code]
		seat.Status = to
		if to == models.SeatHeld {
			seat.HoldExpiry = holdExpiry
		} else {
			seat.HoldExpiry = nil
		}
	}
	return nil
}

func (l *MemoryLedger) ReclaimExpired(ctx context.Context, scheduleID int64, now time.Time) (int, error) {
	l.mu.Lock()
	targets := make([]*scheduleSeats, 0, len(l.schedules))
	if scheduleID == 0 {
		for _, st := range l.schedules {
			targets = append(targets, st)
		}
	} else if st, ok := l.schedules[scheduleID]; ok {
		targets = append(targets, st)
	}
	l.mu.Unlock()

	total := 0
	for _, st := range targets {
		st.mu.Lock()
		total += st.reclaim(now)
		st.mu.Unlock()
	}
	return total, nil
}

// reclaim flips expired HELD seats back to AVAILABLE. Caller holds st.mu.
func (st *scheduleSeats) reclaim(now time.Time) int {
	n := 0
	for _, seat := range st.seats {
		if seat.Status == models.SeatHeld && seat.HoldExpiry != nil && !seat.HoldExpiry.After(now) {
			seat.Status = models.SeatAvailable
			seat.HoldExpiry = nil
			n++
		}
	}
	return n
}
