package availability

import (
	"staypilot/internal/models"
)

// DayStatus is the single resolved state of a calendar day, used for
// month-view overview dots.
type DayStatus string

const (
	DayBooked    DayStatus = "booked"
	DayTentative DayStatus = "tentative"
	DayAvailable DayStatus = "available"
)

// DayMarks maps YYYY-MM-DD to a resolved status. Only days touched by at
// least one non-cancelled booking appear; absence means available.
type DayMarks map[string]DayStatus

// MarkDays resolves every day touched by the given bookings to one status.
// The set may span several properties: a month view rendering one dot per
// day across a portfolio still needs a single answer. When bookings with
// different statuses touch the same day the highest priority wins, so a day
// that is pending in one property and confirmed in another reads as booked.
//
// Days are walked over [check-in, check-out): the check-out day carries no
// mark, matching the guest's last-night semantics. Cancelled bookings
// contribute nothing.
func MarkDays(bookings []models.Booking) DayMarks {
	best := make(map[string]int)
	for i := range bookings {
		b := &bookings[i]
		if !b.Active() {
			continue
		}
		prio := b.Status.Priority()
		end := models.Day(b.CheckOut)
		for d := models.Day(b.CheckIn); d.Before(end); d = d.AddDate(0, 0, 1) {
			key := d.Format(DayFormat)
			if prio > best[key] {
				best[key] = prio
			}
		}
	}

	marks := make(DayMarks, len(best))
	for key, prio := range best {
		switch prio {
		case 3:
			marks[key] = DayBooked
		case 2:
			marks[key] = DayTentative
		default:
			marks[key] = DayAvailable
		}
	}
	return marks
}
