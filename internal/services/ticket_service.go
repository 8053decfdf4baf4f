package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	intconfig "busline/internal/config"
	"busline/internal/domain"
	"busline/internal/domain/models"
	"busline/internal/repositories"
	"busline/internal/utils"

	"github.com/google/uuid"
	"github.com/phpdave11/gofpdf"
)

// QRPayload is what the scanner decodes at boarding: enough to validate
// every seat of the order in one scan.
type QRPayload struct {
	TicketNumber string          `json:"ticket_number"`
	OrderID      int64           `json:"order_id"`
	ScheduleID   int64           `json:"schedule_id"`
	RouteFrom    string          `json:"route_from"`
	RouteTo      string          `json:"route_to"`
	DepartureAt  time.Time       `json:"departure_at"`
	Seats        []QRPayloadSeat `json:"seats"`
}

type QRPayloadSeat struct {
	SeatCode      string `json:"seat"`
	PassengerName string `json:"name"`
}

// NewTicket builds the single ticket of an order. Called once per order;
// the unique index on tickets.order_id backs up the never-duplicated rule.
func NewTicket(order models.Order, sched models.Schedule, bookings []models.Booking, now time.Time) models.Ticket {
	payload := QRPayload{
		TicketNumber: "BL-" + strings.ToUpper(uuid.NewString()[:8]),
		OrderID:      order.ID,
		ScheduleID:   sched.ID,
		RouteFrom:    sched.RouteFrom,
		RouteTo:      sched.RouteTo,
		DepartureAt:  sched.DepartureAt,
	}
	for _, b := range bookings {
		payload.Seats = append(payload.Seats, QRPayloadSeat{SeatCode: b.SeatCode, PassengerName: b.PassengerName})
	}
	raw, _ := json.Marshal(payload)
	return models.Ticket{
		OrderID:      order.ID,
		TicketNumber: payload.TicketNumber,
		QRPayload:    base64.StdEncoding.EncodeToString(raw),
		CreatedAt:    now,
	}
}

// DecodeQRPayload reverses the ticket payload encoding.
func DecodeQRPayload(encoded string) (QRPayload, error) {
	var p QRPayload
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return p, domain.ValidationError{Field: "qr_payload", Msg: "not base64", Err: err}
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, domain.ValidationError{Field: "qr_payload", Msg: "malformed payload", Err: err}
	}
	return p, nil
}

// TicketService renders the printable e-ticket for an order.
type TicketService struct {
	DB        *sql.DB
	Orders    repositories.OrderRepo
	Schedules repositories.ScheduleRepo
	RequestID string
}

func (s TicketService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s TicketService) orders() repositories.OrderRepo {
	if s.Orders.DB != nil {
		return s.Orders
	}
	return repositories.OrderRepo{DB: s.db()}
}

func (s TicketService) schedules() repositories.ScheduleRepo {
	if s.Schedules.DB != nil {
		return s.Schedules
	}
	return repositories.ScheduleRepo{DB: s.db()}
}

// GeneratePDF returns the e-ticket bytes and a download filename.
func (s TicketService) GeneratePDF(ctx context.Context, orderID int64) ([]byte, string, error) {
	order, err := s.orders().GetByID(ctx, orderID)
	if err != nil {
		return nil, "", err
	}
	ticket, err := s.orders().GetTicketByOrderID(ctx, orderID)
	if err != nil {
		return nil, "", err
	}
	bookings, err := s.orders().ListBookings(ctx, orderID)
	if err != nil {
		return nil, "", err
	}

	var sched models.Schedule
	if len(bookings) > 0 {
		sched, err = s.schedules().GetByID(ctx, bookings[0].ScheduleID)
		if err != nil {
			return nil, "", err
		}
	}

	utils.LogEvent(s.RequestID, "ticket", "generate_pdf", fmt.Sprintf("order_id=%d", orderID))
	pdf, err := buildTicketPDF(order, ticket, sched, bookings)
	if err != nil {
		return nil, "", err
	}
	return pdf, fmt.Sprintf("eticket-%s.pdf", ticket.TicketNumber), nil
}

func buildTicketPDF(order models.Order, ticket models.Ticket, sched models.Schedule, bookings []models.Booking) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 9, "E-TICKET", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, ticket.TicketNumber, "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("%s - %s", sched.RouteFrom, sched.RouteTo), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, sched.DepartureAt.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	if sched.BusCode != "" {
		pdf.CellFormat(0, 6, "Bus "+sched.BusCode, "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(20, 6, "Seat", "B", 0, "L", false, 0, "")
	pdf.CellFormat(66, 6, "Passenger", "B", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Price", "B", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	for _, b := range bookings {
		if b.Status == models.BookingCancelled {
			continue
		}
		pdf.CellFormat(20, 6, b.SeatCode, "", 0, "L", false, 0, "")
		pdf.CellFormat(66, 6, b.PassengerName, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, utils.FormatRupiah(b.Price), "", 1, "R", false, 0, "")
	}
	pdf.Ln(1)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 7, "Total "+utils.FormatRupiah(order.TotalAmount), "T", 1, "R", false, 0, "")

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 7)
	pdf.MultiCell(0, 3.5, "Scan data: "+ticket.QRPayload, "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, domain.InternalError{Msg: "pdf generation failed", Err: err}
	}
	return buf.Bytes(), nil
}
