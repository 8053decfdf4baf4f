package models

import "time"

// SeatStatus is the seat state in the ledger.
type SeatStatus string

const (
	SeatAvailable SeatStatus = "AVAILABLE"
	SeatHeld      SeatStatus = "HELD"
	SeatBooked    SeatStatus = "BOOKED"
)

// Seat is one seat of a schedule's inventory. HoldExpiry is set only while
// the seat is HELD; a HELD seat whose expiry has passed counts as AVAILABLE.
type Seat struct {
	ID         int64      `json:"id"`
	ScheduleID int64      `json:"schedule_id"`
	SeatCode   string     `json:"seat_code"`
	SeatType   string     `json:"seat_type"`
	Price      int64      `json:"price"`
	Status     SeatStatus `json:"status"`
	HoldExpiry *time.Time `json:"hold_expiry,omitempty"`
}
