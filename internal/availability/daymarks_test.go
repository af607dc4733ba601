package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"staypilot/internal/models"
)

func TestMarkDays(t *testing.T) {
	t.Run("HalfOpenWalk", func(t *testing.T) {
		b := stay("b1", "p1", day(2025, time.July, 10), day(2025, time.July, 13), models.StatusConfirmed)

		marks := MarkDays([]models.Booking{b})
		assert.Len(t, marks, 3)
		assert.Equal(t, DayBooked, marks["2025-07-10"])
		assert.Equal(t, DayBooked, marks["2025-07-12"])
		_, checkout := marks["2025-07-13"]
		assert.False(t, checkout, "check-out day carries no mark")
	})

	t.Run("ConfirmedBeatsPending", func(t *testing.T) {
		// Same day, different properties: month view still shows one dot
		// and the more urgent state wins.
		pending := stay("b1", "p1", day(2025, time.July, 10), day(2025, time.July, 12), models.StatusPending)
		confirmed := stay("b2", "p2", day(2025, time.July, 11), day(2025, time.July, 14), models.StatusConfirmed)

		marks := MarkDays([]models.Booking{pending, confirmed})
		assert.Equal(t, DayTentative, marks["2025-07-10"])
		assert.Equal(t, DayBooked, marks["2025-07-11"])
		assert.Equal(t, DayBooked, marks["2025-07-13"])
	})

	t.Run("OrderIndependent", func(t *testing.T) {
		pending := stay("b1", "p1", day(2025, time.July, 10), day(2025, time.July, 12), models.StatusPending)
		confirmed := stay("b2", "p2", day(2025, time.July, 10), day(2025, time.July, 12), models.StatusConfirmed)

		a := MarkDays([]models.Booking{pending, confirmed})
		b := MarkDays([]models.Booking{confirmed, pending})
		assert.Equal(t, a, b)
	})

	t.Run("CancelledContributesNothing", func(t *testing.T) {
		cancelled := stay("b1", "p1", day(2025, time.July, 10), day(2025, time.July, 12), models.StatusCancelled)

		marks := MarkDays([]models.Booking{cancelled})
		assert.Empty(t, marks)
	})

	t.Run("UnknownStatusMarksAvailable", func(t *testing.T) {
		odd := stay("b1", "p1", day(2025, time.July, 10), day(2025, time.July, 11), models.BookingStatus("blocked"))

		marks := MarkDays([]models.Booking{odd})
		assert.Equal(t, DayAvailable, marks["2025-07-10"])
	})

	t.Run("EmptySet", func(t *testing.T) {
		assert.Empty(t, MarkDays(nil))
	})

	t.Run("Idempotence", func(t *testing.T) {
		bookings := []models.Booking{
			stay("b1", "p1", day(2025, time.July, 1), day(2025, time.July, 5), models.StatusConfirmed),
			stay("b2", "p2", day(2025, time.July, 3), day(2025, time.July, 8), models.StatusPending),
		}
		assert.Equal(t, MarkDays(bookings), MarkDays(bookings))
	})
}
