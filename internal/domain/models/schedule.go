package models

import "time"

// Schedule is a trip instance. Seat rows are generated externally from the
// bus layout when the schedule is created; the engine only consumes them.
type Schedule struct {
	ID          int64      `json:"id"`
	RouteFrom   string     `json:"route_from"`
	RouteTo     string     `json:"route_to"`
	BusCode     string     `json:"bus_code"`
	DepartureAt time.Time  `json:"departure_at"`
	Fare        int64      `json:"fare"`
	IsReturn    bool       `json:"is_return"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// Departed reports whether the trip departure has passed at the given time.
func (s Schedule) Departed(now time.Time) bool {
	return s.DepartureAt.Before(now)
}
