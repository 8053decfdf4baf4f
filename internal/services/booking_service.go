package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"busline/internal/cache"
	intconfig "busline/internal/config"
	"busline/internal/domain"
	"busline/internal/domain/models"
	"busline/internal/hold"
	"busline/internal/ledger"
	"busline/internal/repositories"
	"busline/internal/utils"
)

// BookingService is the booking lifecycle controller. It composes the hold
// manager and the order/ticket aggregation: a checkout claims its whole seat
// set, persists one order + one booking per seat + one ticket, and confirms
// the hold. Any failure in between releases the hold before surfacing.
type BookingService struct {
	DB        *sql.DB
	Ledger    ledger.Ledger
	Holds     *hold.Manager
	Orders    repositories.OrderRepo
	Bookings  repositories.BookingRepo
	Schedules repositories.ScheduleRepo
	Payments  repositories.PaymentRepo
	Charger   PaymentCharger
	RequestID string
	Now       func() time.Time
}

// CreateBookingInput is one checkout attempt for a set of seats.
type CreateBookingInput struct {
	ScheduleID   int64                    `json:"schedule_id"`
	SeatCodes    []string                 `json:"seats"`
	Passengers   []models.PassengerDetail `json:"passengers"`
	ContactName  string                   `json:"contact_name"`
	ContactPhone string                   `json:"contact_phone"`
	ContactEmail string                   `json:"contact_email"`
}

// AdminBookingInput is the admin-on-behalf variant; payment is recorded with
// the given method atomically with seat confirmation.
type AdminBookingInput struct {
	CreateBookingInput
	CustomerID    *int64               `json:"customer_id"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
}

// BookingResult is the full outcome of a successful checkout.
type BookingResult struct {
	Order    models.Order     `json:"order"`
	Ticket   models.Ticket    `json:"ticket"`
	Bookings []models.Booking `json:"bookings"`
	Payment  *models.Payment  `json:"payment,omitempty"`
}

func (s BookingService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s BookingService) ledger() ledger.Ledger {
	if s.Ledger != nil {
		return s.Ledger
	}
	return ledger.MySQLLedger{DB: s.db()}
}

func (s BookingService) holds() *hold.Manager {
	if s.Holds != nil {
		return s.Holds
	}
	return hold.Default()
}

func (s BookingService) schedules() repositories.ScheduleRepo {
	if s.Schedules.DB != nil {
		return s.Schedules
	}
	return repositories.ScheduleRepo{DB: s.db()}
}

func (s BookingService) orders() repositories.OrderRepo {
	if s.Orders.DB != nil {
		return s.Orders
	}
	return repositories.OrderRepo{DB: s.db()}
}

func (s BookingService) bookings() repositories.BookingRepo {
	if s.Bookings.DB != nil {
		return s.Bookings
	}
	return repositories.BookingRepo{DB: s.db()}
}

func (s BookingService) payments() repositories.PaymentRepo {
	if s.Payments.DB != nil {
		return s.Payments
	}
	return repositories.PaymentRepo{DB: s.db()}
}

func (s BookingService) charger() PaymentCharger {
	if s.Charger != nil {
		return s.Charger
	}
	return DirectCharger{Payments: s.payments(), Now: s.Now}
}

func (s BookingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// CreateBooking runs the customer checkout. Racing callers resolve
// first-committed-wins at the ledger; the loser gets SeatUnavailable and
// must retry with a fresh seat snapshot.
func (s BookingService) CreateBooking(ctx context.Context, actor domain.RequestContext, in CreateBookingInput) (*BookingResult, error) {
	return s.createOrder(ctx, actor, in, nil)
}

// CreateBookingForUser books on behalf of a customer and records the payment
// (CASH included) atomically with seat confirmation: if payment recording
// fails, the hold is released and nothing persists.
func (s BookingService) CreateBookingForUser(ctx context.Context, actor domain.RequestContext, in AdminBookingInput) (*BookingResult, error) {
	if !actor.IsStaff() {
		return nil, domain.ForbiddenError{Msg: "admin role required"}
	}
	method := in.PaymentMethod
	if method == "" {
		method = models.PaymentCash
	}
	return s.createOrder(ctx, actor, in.CreateBookingInput, &adminCheckout{customerID: in.CustomerID, method: method, adminID: actor.UserID})
}

type adminCheckout struct {
	customerID *int64
	method     models.PaymentMethod
	adminID    int64
}

func (s BookingService) createOrder(ctx context.Context, actor domain.RequestContext, in CreateBookingInput, admin *adminCheckout) (*BookingResult, error) {
	codes := utils.NormalizeSeatCodes(in.SeatCodes)
	if len(codes) == 0 {
		return nil, domain.InvalidSeatSelectionError{Msg: "at least one seat required"}
	}
	if utils.HasDuplicates(codes) {
		return nil, domain.InvalidSeatSelectionError{Msg: "duplicate seats", Seats: codes}
	}

	sched, err := s.schedules().GetByID(ctx, in.ScheduleID)
	if err != nil {
		return nil, err
	}
	if sched.DeletedAt != nil {
		return nil, domain.NotFoundError{Resource: "schedule"}
	}
	now := s.now()
	if sched.Departed(now) {
		return nil, domain.ValidationError{Field: "schedule_id", Msg: "trip already departed"}
	}

	seats, err := s.ledger().Seats(ctx, in.ScheduleID)
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]models.Seat, len(seats))
	for _, seat := range seats {
		byCode[seat.SeatCode] = seat
	}
	var missing []string
	for _, code := range codes {
		if _, ok := byCode[code]; !ok {
			missing = append(missing, code)
		}
	}
	if len(missing) > 0 {
		return nil, domain.InvalidSeatSelectionError{Msg: "unknown seats", Seats: missing}
	}

	passengers, err := indexPassengers(in.Passengers, codes)
	if err != nil {
		return nil, err
	}

	h, err := s.holds().Acquire(ctx, in.ScheduleID, codes)
	if err != nil {
		return nil, err
	}

	result, err := s.persistOrder(ctx, actor, in, admin, sched, byCode, codes, passengers, now)
	if err != nil {
		// No half-open holds: every failure path past Acquire releases.
		_ = s.holds().Release(ctx, h.Token)
		return nil, err
	}

	if _, err := s.holds().Confirm(ctx, h.Token); err != nil {
		s.rollbackPersisted(ctx, result)
		return nil, err
	}

	cache.Default().Invalidate(ctx, in.ScheduleID)
	utils.LogEvent(s.RequestID, "booking", "create",
		fmt.Sprintf("order_id=%d schedule_id=%d seats=%s", result.Order.ID, in.ScheduleID, utils.JoinSeats(codes)))
	return result, nil
}

func (s BookingService) persistOrder(ctx context.Context, actor domain.RequestContext, in CreateBookingInput, admin *adminCheckout, sched models.Schedule, byCode map[string]models.Seat, codes []string, passengers map[string]models.PassengerDetail, now time.Time) (*BookingResult, error) {
	tx, err := s.db().BeginTx(ctx, nil)
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	defer tx.Rollback()

	total := int64(0)
	for _, code := range codes {
		total += seatPrice(byCode[code], sched)
	}

	order := models.Order{
		UserID:       actor.UserID,
		ContactName:  in.ContactName,
		ContactPhone: in.ContactPhone,
		ContactEmail: in.ContactEmail,
		TotalAmount:  total,
		CreatedAt:    now,
	}
	var bookingUser *int64
	if admin != nil {
		order.CreatedBy = &admin.adminID
		if admin.customerID != nil {
			order.UserID = *admin.customerID
			bookingUser = admin.customerID
		} else {
			// Guest customer: the order carries contact data only.
			order.UserID = 0
		}
	} else {
		uid := actor.UserID
		bookingUser = &uid
	}
	if err := s.orders().CreateOrder(ctx, tx, &order); err != nil {
		return nil, err
	}

	bookings := make([]models.Booking, 0, len(codes))
	for _, code := range codes {
		seat := byCode[code]
		p := passengers[code]
		b := models.Booking{
			OrderID:         order.ID,
			ScheduleID:      sched.ID,
			SeatID:          seat.ID,
			SeatCode:        code,
			UserID:          bookingUser,
			PassengerName:   fallback(p.Name, in.ContactName),
			PassengerPhone:  fallback(p.Phone, in.ContactPhone),
			PassengerEmail:  fallback(p.Email, in.ContactEmail),
			PassengerIDCard: p.IDCard,
			Price:           seatPrice(seat, sched),
			Status:          models.BookingBooked,
			CreatedAt:       now,
		}
		if err := s.orders().CreateBooking(ctx, tx, &b); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}

	ticket := NewTicket(order, sched, bookings, now)
	if err := s.orders().CreateTicket(ctx, tx, &ticket); err != nil {
		return nil, err
	}

	result := &BookingResult{Order: order, Ticket: ticket, Bookings: bookings}

	if admin != nil {
		payment, err := s.charger().Charge(ctx, tx, order, admin.method)
		if err != nil {
			return nil, domain.PaymentFailedError{OrderID: order.ID, Reason: "charge failed", Err: err}
		}
		if payment.Status != models.PaymentCompleted {
			return nil, domain.PaymentFailedError{OrderID: order.ID, Reason: string(payment.Status)}
		}
		result.Payment = &payment
	}

	if err := tx.Commit(); err != nil {
		return nil, domain.InternalError{Err: err}
	}
	return result, nil
}

// rollbackPersisted compensates a committed order whose hold confirmation
// failed afterwards: the rows are voided and the seats were already
// reclaimed by the ledger, so inventory stays consistent.
func (s BookingService) rollbackPersisted(ctx context.Context, result *BookingResult) {
	now := s.now()
	for _, b := range result.Bookings {
		_ = s.bookings().MarkCancelled(ctx, s.db(), b.ID, "hold expired before confirmation", now)
	}
	_ = s.orders().CloseIfDrained(ctx, s.db(), result.Order.ID)
	utils.LogEvent(s.RequestID, "booking", "rollback", fmt.Sprintf("order_id=%d", result.Order.ID))
}

// CancelBooking cancels one passenger-seat row. Allowed for the booking's
// owner or staff. The seat returns to AVAILABLE, never to HELD; sibling
// bookings in the same order are untouched.
func (s BookingService) CancelBooking(ctx context.Context, actor domain.RequestContext, bookingID int64, reason string) error {
	b, err := s.bookings().GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	order, err := s.orders().GetByID(ctx, b.OrderID)
	if err != nil {
		return err
	}
	if !actor.IsStaff() && order.UserID != actor.UserID {
		return domain.ForbiddenError{Msg: "not your booking"}
	}
	return s.cancelRow(ctx, b, reason)
}

// AdminCancelBooking cancels regardless of ownership with a recorded reason.
func (s BookingService) AdminCancelBooking(ctx context.Context, actor domain.RequestContext, bookingID int64, reason string) error {
	if !actor.IsStaff() {
		return domain.ForbiddenError{Msg: "admin role required"}
	}
	if reason == "" {
		return domain.ValidationError{Field: "reason", Msg: "required"}
	}
	b, err := s.bookings().GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	return s.cancelRow(ctx, b, reason)
}

func (s BookingService) cancelRow(ctx context.Context, b models.Booking, reason string) error {
	if b.Status != models.BookingBooked {
		return domain.ConflictError{Resource: "booking", Msg: fmt.Sprintf("already %s", b.Status)}
	}

	now := s.now()
	tx, err := s.db().BeginTx(ctx, nil)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	defer tx.Rollback()

	if err := s.bookings().MarkCancelled(ctx, tx, b.ID, reason, now); err != nil {
		return err
	}
	if err := s.orders().CloseIfDrained(ctx, tx, b.OrderID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return domain.InternalError{Err: err}
	}

	// Row is cancelled; now restore inventory. BOOKED→AVAILABLE is
	// conditional, so a concurrently mutated seat surfaces instead of
	// corrupting a running hold.
	if err := s.ledger().TrySetStatus(ctx, b.ScheduleID, []string{b.SeatCode}, models.SeatBooked, models.SeatAvailable, nil); err != nil {
		utils.LogEvent(s.RequestID, "booking", "cancel", fmt.Sprintf("seat release failed booking_id=%d seat=%s err=%v", b.ID, b.SeatCode, err))
		return domain.InternalError{Msg: "booking cancelled but seat release failed", Err: err}
	}

	cache.Default().Invalidate(ctx, b.ScheduleID)
	utils.LogEvent(s.RequestID, "booking", "cancel", fmt.Sprintf("booking_id=%d seat=%s", b.ID, b.SeatCode))
	return nil
}

// RemoveSeatFromBooking shrinks a multi-seat order by exactly one seat.
// Fails when it is the last active seat; cancel the booking instead.
func (s BookingService) RemoveSeatFromBooking(ctx context.Context, actor domain.RequestContext, bookingID int64, seatCode string) error {
	seatCode = utils.NormalizeSeatCode(seatCode)
	b, err := s.bookings().GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.SeatCode != seatCode {
		return domain.ValidationError{Field: "seat", Msg: "seat does not belong to this booking"}
	}
	order, err := s.orders().GetByID(ctx, b.OrderID)
	if err != nil {
		return err
	}
	if !actor.IsStaff() && order.UserID != actor.UserID {
		return domain.ForbiddenError{Msg: "not your booking"}
	}
	active, err := s.orders().CountActiveBookings(ctx, b.OrderID)
	if err != nil {
		return err
	}
	if active <= 1 {
		return domain.ConflictError{Resource: "order", Msg: "last seat in order, cancel the booking instead"}
	}
	return s.cancelRow(ctx, b, "seat removed from order")
}

// UpdateBookingStatus is the administrative override. Transitions that would
// re-open a cancelled seat without re-running the hold protocol are rejected.
func (s BookingService) UpdateBookingStatus(ctx context.Context, actor domain.RequestContext, bookingID int64, status models.BookingStatus, reason string) error {
	if !actor.IsStaff() {
		return domain.ForbiddenError{Msg: "admin role required"}
	}
	b, err := s.bookings().GetByID(ctx, bookingID)
	if err != nil {
		return err
	}

	switch status {
	case models.BookingCancelled:
		if reason == "" {
			reason = "cancelled by administrator"
		}
		return s.cancelRow(ctx, b, reason)
	case models.BookingCompleted:
		if b.Status != models.BookingBooked {
			return domain.ConflictError{Resource: "booking", Msg: fmt.Sprintf("cannot complete a %s booking", b.Status)}
		}
		// Seat stays consumed: no ledger transition on completion.
		if err := s.bookings().MarkCompleted(ctx, s.db(), bookingID); err != nil {
			return err
		}
		utils.LogEvent(s.RequestID, "booking", "complete", fmt.Sprintf("booking_id=%d", bookingID))
		return nil
	case models.BookingBooked:
		return domain.ConflictError{Resource: "booking", Msg: "re-booking requires a new reservation"}
	default:
		return domain.ValidationError{Field: "status", Msg: "unknown status"}
	}
}

// SeatMap returns the schedule's seat snapshot for availability display,
// served from the cache when a recent copy is present.
func (s BookingService) SeatMap(ctx context.Context, scheduleID int64) ([]models.Seat, error) {
	if seats, ok := cache.Default().GetSeats(ctx, scheduleID); ok {
		return seats, nil
	}
	seats, err := s.ledger().Seats(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	cache.Default().SetSeats(ctx, scheduleID, seats)
	return seats, nil
}

// GetOrder returns an order with its bookings and ticket.
func (s BookingService) GetOrder(ctx context.Context, actor domain.RequestContext, orderID int64) (*BookingResult, error) {
	order, err := s.orders().GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() && order.UserID != actor.UserID {
		return nil, domain.ForbiddenError{Msg: "not your order"}
	}
	bookings, err := s.orders().ListBookings(ctx, orderID)
	if err != nil {
		return nil, err
	}
	ticket, err := s.orders().GetTicketByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &BookingResult{Order: order, Ticket: ticket, Bookings: bookings}, nil
}

func seatPrice(seat models.Seat, sched models.Schedule) int64 {
	if seat.Price > 0 {
		return seat.Price
	}
	return sched.Fare
}

func fallback(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

// indexPassengers maps per-seat passenger details by seat code, rejecting
// details for seats outside the selection.
func indexPassengers(passengers []models.PassengerDetail, codes []string) (map[string]models.PassengerDetail, error) {
	selected := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		selected[c] = struct{}{}
	}
	out := make(map[string]models.PassengerDetail, len(passengers))
	for i, p := range passengers {
		code := utils.NormalizeSeatCode(p.SeatCode)
		if code == "" {
			// Positional fallback: detail i applies to seat i.
			if i < len(codes) {
				code = codes[i]
			} else {
				return nil, domain.ValidationError{Field: "passengers", Msg: "more passengers than seats"}
			}
		}
		if _, ok := selected[code]; !ok {
			return nil, domain.InvalidSeatSelectionError{Msg: "passenger assigned to unselected seat", Seats: []string{code}}
		}
		p.SeatCode = code
		out[code] = p
	}
	return out, nil
}
