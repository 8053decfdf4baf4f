package domain

import (
	"errors"
	"fmt"
	"strings"
)

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

// SeatUnavailableError is returned when any seat of a requested set is not in
// the expected state at claim time. The whole set is rejected.
type SeatUnavailableError struct {
	ScheduleID int64
	Seats      []string
}

func (e SeatUnavailableError) Error() string {
	if len(e.Seats) == 0 {
		return "seat unavailable"
	}
	return fmt.Sprintf("seats unavailable: %s", strings.Join(e.Seats, ","))
}

// HoldExpiredError is returned when a confirm arrives after the hold TTL.
type HoldExpiredError struct {
	Token string
}

func (e HoldExpiredError) Error() string { return "hold expired" }

// InvalidSeatSelectionError covers empty, duplicate or nonexistent seat sets.
type InvalidSeatSelectionError struct {
	Msg   string
	Seats []string
}

func (e InvalidSeatSelectionError) Error() string {
	if e.Msg == "" {
		return "invalid seat selection"
	}
	if len(e.Seats) > 0 {
		return fmt.Sprintf("%s: %s", e.Msg, strings.Join(e.Seats, ","))
	}
	return e.Msg
}

type ForbiddenError struct {
	Msg string
}

func (e ForbiddenError) Error() string {
	if e.Msg == "" {
		return "forbidden"
	}
	return e.Msg
}

// PaymentFailedError propagates a non-completed payment result. It always
// triggers release of the associated hold before surfacing.
type PaymentFailedError struct {
	OrderID int64
	Reason  string
	Err     error
}

func (e PaymentFailedError) Error() string {
	if e.Reason == "" {
		return "payment failed"
	}
	return fmt.Sprintf("payment failed: %s", e.Reason)
}

func (e PaymentFailedError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target InternalError
	return errors.As(err, &target)
}

func IsSeatUnavailable(err error) bool {
	var target SeatUnavailableError
	return errors.As(err, &target)
}

func IsHoldExpired(err error) bool {
	var target HoldExpiredError
	return errors.As(err, &target)
}

func IsInvalidSeatSelection(err error) bool {
	var target InvalidSeatSelectionError
	return errors.As(err, &target)
}

func IsForbidden(err error) bool {
	var target ForbiddenError
	return errors.As(err, &target)
}

func IsPaymentFailed(err error) bool {
	var target PaymentFailedError
	return errors.As(err, &target)
}
