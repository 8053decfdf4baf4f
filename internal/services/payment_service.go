package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	intconfig "busline/internal/config"
	intdb "busline/internal/db"
	"busline/internal/domain"
	"busline/internal/domain/models"
	"busline/internal/repositories"
	"busline/internal/utils"

	"github.com/google/uuid"
)

// PaymentCharger is the narrow payment collaborator used by admin checkouts.
// It runs inside the checkout transaction so that payment recording and seat
// confirmation commit or fail together.
type PaymentCharger interface {
	Charge(ctx context.Context, q intdb.DBTX, order models.Order, method models.PaymentMethod) (models.Payment, error)
}

// DirectCharger records an immediately completed payment (counter sales:
// cash or card present). Gateway-backed methods arrive later through
// RecordPaymentResult instead.
type DirectCharger struct {
	Payments repositories.PaymentRepo
	Now      func() time.Time
}

func (c DirectCharger) Charge(ctx context.Context, q intdb.DBTX, order models.Order, method models.PaymentMethod) (models.Payment, error) {
	now := time.Now()
	if c.Now != nil {
		now = c.Now()
	}
	p := models.Payment{
		OrderID:     order.ID,
		Amount:      order.TotalAmount,
		Method:      method,
		Status:      models.PaymentCompleted,
		ExternalRef: "counter-" + uuid.NewString(),
		CreatedAt:   now,
	}
	if err := c.Payments.Create(ctx, q, &p); err != nil {
		return models.Payment{}, err
	}
	return p, nil
}

// PaymentService records external payment results against orders.
type PaymentService struct {
	DB        *sql.DB
	Payments  repositories.PaymentRepo
	Orders    repositories.OrderRepo
	RequestID string
	Now       func() time.Time
}

func (s PaymentService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s PaymentService) payments() repositories.PaymentRepo {
	if s.Payments.DB != nil {
		return s.Payments
	}
	return repositories.PaymentRepo{DB: s.db()}
}

func (s PaymentService) orders() repositories.OrderRepo {
	if s.Orders.DB != nil {
		return s.Orders
	}
	return repositories.OrderRepo{DB: s.db()}
}

func (s PaymentService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// RecordPaymentResult stores a gateway outcome. The engine reacts only to
// COMPLETED vs anything else; non-completed results are kept for audit.
func (s PaymentService) RecordPaymentResult(ctx context.Context, orderID int64, amount int64, method models.PaymentMethod, status models.PaymentStatus, externalRef string) (models.Payment, error) {
	order, err := s.orders().GetByID(ctx, orderID)
	if err != nil {
		return models.Payment{}, err
	}
	if amount <= 0 {
		amount = order.TotalAmount
	}
	switch status {
	case models.PaymentPending, models.PaymentCompleted, models.PaymentFailed, models.PaymentRefunded, models.PaymentCancelled:
	default:
		return models.Payment{}, domain.ValidationError{Field: "status", Msg: "unknown payment status"}
	}

	p := models.Payment{
		OrderID:     order.ID,
		Amount:      amount,
		Method:      method,
		Status:      status,
		ExternalRef: externalRef,
		CreatedAt:   s.now(),
	}
	if err := s.payments().Create(ctx, s.db(), &p); err != nil {
		return models.Payment{}, err
	}

	utils.LogEvent(s.RequestID, "payment", "record",
		fmt.Sprintf("order_id=%d status=%s method=%s", order.ID, status, method))
	return p, nil
}

// ListForOrder returns the payment history of an order.
func (s PaymentService) ListForOrder(ctx context.Context, orderID int64) ([]models.Payment, error) {
	if _, err := s.orders().GetByID(ctx, orderID); err != nil {
		return nil, err
	}
	return s.payments().ListByOrderID(ctx, orderID)
}
