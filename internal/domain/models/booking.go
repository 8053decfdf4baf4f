package models

import "time"

// BookingStatus is the lifecycle state of one passenger-seat pairing.
type BookingStatus string

const (
	BookingBooked    BookingStatus = "BOOKED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingCompleted BookingStatus = "COMPLETED"
)

// Booking pairs one passenger with one seat on one schedule. It belongs to
// exactly one Order and never changes its seat or schedule after creation.
type Booking struct {
	ID              int64         `json:"id"`
	OrderID         int64         `json:"order_id"`
	ScheduleID      int64         `json:"schedule_id"`
	SeatID          int64         `json:"seat_id"`
	SeatCode        string        `json:"seat_code"`
	UserID          *int64        `json:"user_id,omitempty"`
	PassengerName   string        `json:"passenger_name"`
	PassengerPhone  string        `json:"passenger_phone"`
	PassengerEmail  string        `json:"passenger_email,omitempty"`
	PassengerIDCard string        `json:"passenger_id_card,omitempty"`
	Price           int64         `json:"price"`
	Status          BookingStatus `json:"status"`
	CancelReason    string        `json:"cancel_reason,omitempty"`
	DeletedAt       *time.Time    `json:"deleted_at,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

// PassengerDetail is per-seat passenger input supplied at checkout. Empty
// fields default to the booker's contact data.
type PassengerDetail struct {
	SeatCode string `json:"seat_code"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	IDCard   string `json:"id_card"`
}
