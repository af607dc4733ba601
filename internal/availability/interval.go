// Package availability is the pure computation core of the channel manager.
// It turns a snapshot of bookings into renderable occupancy segments,
// per-day status marks, conflict sets and daily aggregates. Every function
// is a deterministic function of its inputs: no clock, no I/O, no shared
// state, safe to call concurrently.
package availability

import (
	"time"

	"staypilot/internal/models"
)

// Span is a half-open date interval [CheckIn, CheckOut) at day granularity.
type Span struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// NewSpan normalizes both endpoints to midnight UTC.
func NewSpan(checkIn, checkOut time.Time) Span {
	return Span{CheckIn: models.Day(checkIn), CheckOut: models.Day(checkOut)}
}

// SpanOf returns the booking's stay as a normalized span.
func SpanOf(b *models.Booking) Span {
	return NewSpan(b.CheckIn, b.CheckOut)
}

// Overlaps reports whether two half-open spans share at least one night.
// Touching boundaries do not overlap: the vacating and the arriving guest
// may share the turnover day.
func Overlaps(a, b Span) bool {
	return a.CheckIn.Before(b.CheckOut) && b.CheckIn.Before(a.CheckOut)
}

// ContainsDay reports whether the span occupies the given day.
// The check-out day itself is not occupied.
func (s Span) ContainsDay(day time.Time) bool {
	d := models.Day(day)
	return !d.Before(s.CheckIn) && d.Before(s.CheckOut)
}

// Nights returns the number of nights covered by the span.
func (s Span) Nights() int {
	return int(s.CheckOut.Sub(s.CheckIn).Hours() / 24)
}

// ClampTo restricts the span to the window [axisStart, axisEnd).
// The second return value is false when the span is disjoint from the window.
func (s Span) ClampTo(axisStart, axisEnd time.Time) (Span, bool) {
	start, end := models.Day(axisStart), models.Day(axisEnd)
	if !s.CheckIn.Before(end) || !start.Before(s.CheckOut) {
		return Span{}, false
	}
	clamped := s
	if clamped.CheckIn.Before(start) {
		clamped.CheckIn = start
	}
	if clamped.CheckOut.After(end) {
		clamped.CheckOut = end
	}
	return clamped, true
}
