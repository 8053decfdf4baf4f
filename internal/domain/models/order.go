package models

import "time"

// Order is the checkout transaction. It owns its bookings and one ticket and
// stays around after full cancellation for the audit trail (ClosedAt set).
type Order struct {
	ID           int64      `json:"id"`
	UserID       int64      `json:"user_id"`
	CreatedBy    *int64     `json:"created_by,omitempty"`
	ContactName  string     `json:"contact_name"`
	ContactPhone string     `json:"contact_phone"`
	ContactEmail string     `json:"contact_email,omitempty"`
	TotalAmount  int64      `json:"total_amount"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Ticket is the single customer-facing artifact of an Order: a ticket number
// plus a scannable payload covering every passenger/seat pair.
type Ticket struct {
	ID           int64     `json:"id"`
	OrderID      int64     `json:"order_id"`
	TicketNumber string    `json:"ticket_number"`
	QRPayload    string    `json:"qr_payload"`
	CreatedAt    time.Time `json:"created_at"`
}
