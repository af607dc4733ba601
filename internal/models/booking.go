package models

import (
	"errors"
	"time"
)

var (
	ErrInvalidInterval = errors.New("models: check-out must be after check-in")
	ErrMissingProperty = errors.New("models: property id is required")
	ErrNegativePrice   = errors.New("models: total price must not be negative")
	ErrUnknownStatus   = errors.New("models: unknown booking status")
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
)

// Priority orders statuses for per-day resolution: when several bookings
// touch the same day, the highest priority wins.
// cancelled < anything-else < pending < confirmed.
func (s BookingStatus) Priority() int {
	switch s {
	case StatusConfirmed:
		return 3
	case StatusPending:
		return 2
	case StatusCancelled:
		return 0
	default:
		return 1
	}
}

// Known reports whether the status is one of the defined lifecycle states.
func (s BookingStatus) Known() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// Booking represents a reservation of a property for a half-open date range
// [CheckIn, CheckOut). CheckOut is the turnover day: the departing guest and
// the arriving guest may share it.
type Booking struct {
	ID         string        `json:"id"`
	PropertyID string        `json:"property_id"`
	CheckIn    time.Time     `json:"check_in"`
	CheckOut   time.Time     `json:"check_out"`
	Status     BookingStatus `json:"status"`
	GuestName  string        `json:"guest_name"`
	TotalPrice float64       `json:"total_price"`
	Currency   string        `json:"currency"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
	Version    int64         `json:"version"`
}

// Day truncates t to midnight UTC. All engine computations operate on
// day-granularity values produced by this helper.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Nights returns the number of nights of the stay.
func (b *Booking) Nights() int {
	return int(Day(b.CheckOut).Sub(Day(b.CheckIn)).Hours() / 24)
}

// Active reports whether the booking participates in occupancy, conflict
// and revenue computations. Cancelled bookings are kept as records but are
// excluded everywhere (soft delete).
func (b *Booking) Active() bool {
	return b.Status != StatusCancelled
}

// ContainsDay reports whether the booking occupies the given day.
// The check-out day itself is not occupied.
func (b *Booking) ContainsDay(day time.Time) bool {
	d := Day(day)
	return !d.Before(Day(b.CheckIn)) && d.Before(Day(b.CheckOut))
}

// OverlapsWith checks if this booking overlaps with another booking using
// half-open interval [check-in, check-out) semantics. Touching boundaries
// (one check-out equal to the other's check-in) do not overlap.
func (b *Booking) OverlapsWith(other *Booking) bool {
	return Day(b.CheckIn).Before(Day(other.CheckOut)) && Day(other.CheckIn).Before(Day(b.CheckOut))
}

// Validate rejects malformed bookings at the input boundary. The engine
// assumes validated records and does not re-check per call.
func (b *Booking) Validate() error {
	if b.PropertyID == "" {
		return ErrMissingProperty
	}
	if !Day(b.CheckOut).After(Day(b.CheckIn)) {
		return ErrInvalidInterval
	}
	if b.TotalPrice < 0 {
		return ErrNegativePrice
	}
	if !b.Status.Known() {
		return ErrUnknownStatus
	}
	return nil
}
