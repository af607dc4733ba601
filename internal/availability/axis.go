package availability

import (
	"errors"
	"time"

	"staypilot/internal/models"
)

// DayFormat is the wire format for day-granularity dates across the module.
const DayFormat = "2006-01-02"

var ErrBadAxis = errors.New("availability: date axis must be contiguous and strictly increasing")

// DateAxis is an ordered, gap-free sequence of calendar days used as the
// rendering frame for segments and day marks. The caller decides what the
// visible range is (a month, a quarter); the engine never picks one itself.
type DateAxis []time.Time

// NewDateAxis builds an axis of the given number of consecutive days
// starting at start. A non-positive count yields an empty axis.
func NewDateAxis(start time.Time, days int) DateAxis {
	if days <= 0 {
		return nil
	}
	axis := make(DateAxis, days)
	d := models.Day(start)
	for i := 0; i < days; i++ {
		axis[i] = d
		d = d.AddDate(0, 0, 1)
	}
	return axis
}

// AxisBetween builds an axis covering [start, end) day by day.
func AxisBetween(start, end time.Time) DateAxis {
	s, e := models.Day(start), models.Day(end)
	if !s.Before(e) {
		return nil
	}
	return NewDateAxis(s, int(e.Sub(s).Hours()/24))
}

// Validate is the cheap opt-in check callers can run on axes they did not
// build through NewDateAxis. The engine itself assumes a valid axis.
func (a DateAxis) Validate() error {
	for i, d := range a {
		if !d.Equal(models.Day(d)) {
			return ErrBadAxis
		}
		if i > 0 && !d.Equal(a[i-1].AddDate(0, 0, 1)) {
			return ErrBadAxis
		}
	}
	return nil
}

// Start returns the first day of the axis.
func (a DateAxis) Start() time.Time {
	if len(a) == 0 {
		return time.Time{}
	}
	return a[0]
}

// End returns the exclusive end of the axis (the day after its last day).
func (a DateAxis) End() time.Time {
	if len(a) == 0 {
		return time.Time{}
	}
	return a[len(a)-1].AddDate(0, 0, 1)
}

// index returns the axis position of the given day. The day must lie
// within [Start, End).
func (a DateAxis) index(day time.Time) int {
	return int(models.Day(day).Sub(a[0]).Hours() / 24)
}
