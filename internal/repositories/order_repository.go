package repositories

import (
	"context"
	"database/sql"
	"errors"

	intconfig "busline/internal/config"
	intdb "busline/internal/db"
	"busline/internal/domain"
	"busline/internal/domain/models"
)

type OrderRepo struct {
	DB *sql.DB
}

func (r OrderRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// CreateOrder inserts the order row inside the caller's transaction and
// fills in the generated ID.
func (r OrderRepo) CreateOrder(ctx context.Context, q intdb.DBTX, o *models.Order) error {
	res, err := q.ExecContext(ctx, `
		INSERT INTO orders (user_id, created_by, contact_name, contact_phone, contact_email, total_amount, created_at)
		VALUES (?,?,?,?,?,?,?)
	`, o.UserID, o.CreatedBy, o.ContactName, o.ContactPhone, o.ContactEmail, o.TotalAmount, o.CreatedAt)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.InternalError{Err: err}
	}
	o.ID = id
	return nil
}

func (r OrderRepo) CreateBooking(ctx context.Context, q intdb.DBTX, b *models.Booking) error {
	res, err := q.ExecContext(ctx, `
		INSERT INTO bookings
		(order_id, schedule_id, seat_id, seat_code, user_id, passenger_name, passenger_phone, passenger_email, passenger_id_card, price, status, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
	`, b.OrderID, b.ScheduleID, b.SeatID, b.SeatCode, b.UserID, b.PassengerName, b.PassengerPhone, b.PassengerEmail, b.PassengerIDCard, b.Price, string(b.Status), b.CreatedAt)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.InternalError{Err: err}
	}
	b.ID = id
	return nil
}

func (r OrderRepo) CreateTicket(ctx context.Context, q intdb.DBTX, t *models.Ticket) error {
	res, err := q.ExecContext(ctx, `
		INSERT INTO tickets (order_id, ticket_number, qr_payload, created_at)
		VALUES (?,?,?,?)
	`, t.OrderID, t.TicketNumber, t.QRPayload, t.CreatedAt)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.InternalError{Err: err}
	}
	t.ID = id
	return nil
}

func (r OrderRepo) GetByID(ctx context.Context, id int64) (models.Order, error) {
	var o models.Order
	var createdBy sql.NullInt64
	var closedAt sql.NullTime
	err := r.db().QueryRowContext(ctx, `
		SELECT id, user_id, created_by, contact_name, contact_phone, contact_email, total_amount, closed_at, created_at
		FROM orders WHERE id=? LIMIT 1
	`, id).Scan(&o.ID, &o.UserID, &createdBy, &o.ContactName, &o.ContactPhone, &o.ContactEmail, &o.TotalAmount, &closedAt, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return o, domain.NotFoundError{Resource: "order", Err: err}
		}
		return o, domain.InternalError{Err: err}
	}
	if createdBy.Valid {
		v := createdBy.Int64
		o.CreatedBy = &v
	}
	if closedAt.Valid {
		t := closedAt.Time
		o.ClosedAt = &t
	}
	return o, nil
}

func (r OrderRepo) GetTicketByOrderID(ctx context.Context, orderID int64) (models.Ticket, error) {
	var t models.Ticket
	err := r.db().QueryRowContext(ctx, `
		SELECT id, order_id, ticket_number, qr_payload, created_at
		FROM tickets WHERE order_id=? LIMIT 1
	`, orderID).Scan(&t.ID, &t.OrderID, &t.TicketNumber, &t.QRPayload, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return t, domain.NotFoundError{Resource: "ticket", Err: err}
		}
		return t, domain.InternalError{Err: err}
	}
	return t, nil
}

func (r OrderRepo) ListBookings(ctx context.Context, orderID int64) ([]models.Booking, error) {
	rows, err := r.db().QueryContext(ctx, `
		SELECT id, order_id, schedule_id, seat_id, seat_code, user_id, passenger_name, passenger_phone, passenger_email, passenger_id_card, price, status, cancel_reason, deleted_at, created_at
		FROM bookings WHERE order_id=? ORDER BY id ASC
	`, orderID)
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	defer rows.Close()

	out := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, domain.InternalError{Err: err}
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// CountActiveBookings counts BOOKED rows still attached to the order.
func (r OrderRepo) CountActiveBookings(ctx context.Context, orderID int64) (int, error) {
	var n int
	err := r.db().QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bookings WHERE order_id=? AND status='BOOKED'
	`, orderID).Scan(&n)
	if err != nil {
		return 0, domain.InternalError{Err: err}
	}
	return n, nil
}

// CloseIfDrained stamps closed_at once the order has no active bookings
// left. The order row itself stays for the audit trail.
func (r OrderRepo) CloseIfDrained(ctx context.Context, q intdb.DBTX, orderID int64) error {
	_, err := q.ExecContext(ctx, `
		UPDATE orders SET closed_at=NOW()
		WHERE id=? AND closed_at IS NULL
		  AND NOT EXISTS (SELECT 1 FROM bookings WHERE order_id=orders.id AND status='BOOKED')
	`, orderID)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanBooking reads one bookings row; scan errors come back unwrapped so
// callers can map sql.ErrNoRows themselves.
func scanBooking(rs rowScanner) (models.Booking, error) {
	var b models.Booking
	var userID sql.NullInt64
	var deletedAt sql.NullTime
	if err := rs.Scan(&b.ID, &b.OrderID, &b.ScheduleID, &b.SeatID, &b.SeatCode, &userID, &b.PassengerName, &b.PassengerPhone, &b.PassengerEmail, &b.PassengerIDCard, &b.Price, &b.Status, &b.CancelReason, &deletedAt, &b.CreatedAt); err != nil {
		return b, err
	}
	if userID.Valid {
		v := userID.Int64
		b.UserID = &v
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		b.DeletedAt = &t
	}
	return b, nil
}
