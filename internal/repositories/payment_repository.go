package repositories

import (
	"context"
	"database/sql"

	intconfig "busline/internal/config"
	intdb "busline/internal/db"
	"busline/internal/domain"
	"busline/internal/domain/models"
)

type PaymentRepo struct {
	DB *sql.DB
}

func (r PaymentRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r PaymentRepo) Create(ctx context.Context, q intdb.DBTX, p *models.Payment) error {
	res, err := q.ExecContext(ctx, `
		INSERT INTO payments (order_id, amount, method, status, external_ref, created_at)
		VALUES (?,?,?,?,?,?)
	`, p.OrderID, p.Amount, string(p.Method), string(p.Status), p.ExternalRef, p.CreatedAt)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.InternalError{Err: err}
	}
	p.ID = id
	return nil
}

func (r PaymentRepo) ListByOrderID(ctx context.Context, orderID int64) ([]models.Payment, error) {
	rows, err := r.db().QueryContext(ctx, `
		SELECT id, order_id, amount, method, status, external_ref, created_at
		FROM payments WHERE order_id=? ORDER BY id ASC
	`, orderID)
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	defer rows.Close()

	out := []models.Payment{}
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Amount, &p.Method, &p.Status, &p.ExternalRef, &p.CreatedAt); err != nil {
			return nil, domain.InternalError{Err: err}
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
