package services

import (
	"context"
	"testing"
	"time"

	"busline/internal/domain"
	"busline/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestRecordPaymentResultDefaultsAmount(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	svc := PaymentService{DB: db, Now: func() time.Time { return now }}

	mock.ExpectQuery("FROM orders WHERE id").WithArgs(int64(10)).
		WillReturnRows(orderRow(10, 42))
	mock.ExpectExec("INSERT INTO payments").
		WithArgs(int64(10), int64(200000), "TRANSFER", "COMPLETED", "gw-123", now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	p, err := svc.RecordPaymentResult(context.Background(), 10, 0, models.PaymentTransfer, models.PaymentCompleted, "gw-123")
	if err != nil {
		t.Fatalf("RecordPaymentResult: %v", err)
	}
	if p.Amount != 200000 {
		t.Fatalf("amount = %d, want order total 200000", p.Amount)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRecordPaymentResultRejectsUnknownStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	svc := PaymentService{DB: db}
	mock.ExpectQuery("FROM orders WHERE id").WithArgs(int64(10)).
		WillReturnRows(orderRow(10, 42))

	_, err = svc.RecordPaymentResult(context.Background(), 10, 100, models.PaymentGateway, models.PaymentStatus("VOIDED"), "gw-1")
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRecordPaymentResultUnknownOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	svc := PaymentService{DB: db}
	mock.ExpectQuery("FROM orders WHERE id").WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = svc.RecordPaymentResult(context.Background(), 99, 100, models.PaymentCash, models.PaymentCompleted, "")
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
