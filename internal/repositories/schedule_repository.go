package repositories

import (
	"context"
	"database/sql"
	"errors"

	intconfig "busline/internal/config"
	"busline/internal/domain"
	"busline/internal/domain/models"
)

type ScheduleRepo struct {
	DB *sql.DB
}

func (r ScheduleRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r ScheduleRepo) GetByID(ctx context.Context, id int64) (models.Schedule, error) {
	var s models.Schedule
	var deleted sql.NullTime
	err := r.db().QueryRowContext(ctx, `
		SELECT id, route_from, route_to, bus_code, departure_at, fare, is_return, deleted_at
		FROM schedules
		WHERE id=? LIMIT 1
	`, id).Scan(&s.ID, &s.RouteFrom, &s.RouteTo, &s.BusCode, &s.DepartureAt, &s.Fare, &s.IsReturn, &deleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s, domain.NotFoundError{Resource: "schedule", Err: err}
		}
		return s, domain.InternalError{Err: err}
	}
	if deleted.Valid {
		t := deleted.Time
		s.DeletedAt = &t
	}
	return s, nil
}

// List returns non-deleted schedules ordered by departure, soonest first.
func (r ScheduleRepo) List(ctx context.Context) ([]models.Schedule, error) {
	rows, err := r.db().QueryContext(ctx, `
		SELECT id, route_from, route_to, bus_code, departure_at, fare, is_return
		FROM schedules
		WHERE deleted_at IS NULL
		ORDER BY departure_at ASC
	`)
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	defer rows.Close()

	out := []models.Schedule{}
	for rows.Next() {
		var s models.Schedule
		if err := rows.Scan(&s.ID, &s.RouteFrom, &s.RouteTo, &s.BusCode, &s.DepartureAt, &s.Fare, &s.IsReturn); err != nil {
			return nil, domain.InternalError{Err: err}
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
