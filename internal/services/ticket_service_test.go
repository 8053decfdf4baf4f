package services

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"busline/internal/domain/models"
)

func TestTicketQRPayloadRoundTrip(t *testing.T) {
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	order := models.Order{ID: 10, TotalAmount: 200000}
	sched := models.Schedule{ID: 7, RouteFrom: "Jakarta", RouteTo: "Bandung", DepartureAt: now.Add(24 * time.Hour)}
	bookings := []models.Booking{
		{SeatCode: "A1", PassengerName: "Alice"},
		{SeatCode: "A2", PassengerName: "Bob"},
	}

	ticket := NewTicket(order, sched, bookings, now)
	if !strings.HasPrefix(ticket.TicketNumber, "BL-") {
		t.Fatalf("ticket number %q missing prefix", ticket.TicketNumber)
	}
	if ticket.OrderID != 10 {
		t.Fatalf("ticket order id = %d, want 10", ticket.OrderID)
	}

	payload, err := DecodeQRPayload(ticket.QRPayload)
	if err != nil {
		t.Fatalf("DecodeQRPayload: %v", err)
	}
	if payload.TicketNumber != ticket.TicketNumber {
		t.Fatalf("payload ticket number = %q, want %q", payload.TicketNumber, ticket.TicketNumber)
	}
	if payload.OrderID != 10 || payload.ScheduleID != 7 {
		t.Fatalf("payload ids = (%d, %d), want (10, 7)", payload.OrderID, payload.ScheduleID)
	}
	if len(payload.Seats) != 2 || payload.Seats[1].PassengerName != "Bob" {
		t.Fatalf("payload seats = %+v", payload.Seats)
	}
}

func TestDecodeQRPayloadRejectsGarbage(t *testing.T) {
	if _, err := DecodeQRPayload("not base64!!"); err == nil {
		t.Fatal("expected error decoding garbage")
	}
}

func TestBuildTicketPDF(t *testing.T) {
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	order := models.Order{ID: 10, TotalAmount: 200000}
	sched := models.Schedule{ID: 7, RouteFrom: "Jakarta", RouteTo: "Bandung", BusCode: "BL-01", DepartureAt: now.Add(24 * time.Hour)}
	bookings := []models.Booking{
		{SeatCode: "A1", PassengerName: "Alice", Price: 100000, Status: models.BookingBooked},
		{SeatCode: "A2", PassengerName: "Bob", Price: 100000, Status: models.BookingCancelled},
	}
	ticket := NewTicket(order, sched, bookings, now)

	pdf, err := buildTicketPDF(order, ticket, sched, bookings)
	if err != nil {
		t.Fatalf("buildTicketPDF: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("output does not look like a PDF: %q", pdf[:min(len(pdf), 8)])
	}
}
