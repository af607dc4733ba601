package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staypilot/internal/models"
)

func totalLength(segments []Segment) int {
	n := 0
	for _, s := range segments {
		n += s.Length
	}
	return n
}

func TestBuildSegments(t *testing.T) {
	t.Run("SingleBookingMidAxis", func(t *testing.T) {
		// Axis D1..D5, confirmed booking [D2, D4) -> empty(1) occupied(2) empty(2).
		axis := NewDateAxis(day(2025, time.June, 1), 5)
		b := stay("b1", "p1", day(2025, time.June, 2), day(2025, time.June, 4), models.StatusConfirmed)

		segments, report := BuildSegments(axis, []models.Booking{b})
		require.Len(t, segments, 3)
		assert.Equal(t, Segment{Kind: SegmentEmpty, Length: 1}, segments[0])
		assert.Equal(t, SegmentOccupied, segments[1].Kind)
		assert.Equal(t, 2, segments[1].Length)
		require.NotNil(t, segments[1].Booking)
		assert.Equal(t, "b1", segments[1].Booking.ID)
		assert.Equal(t, Segment{Kind: SegmentEmpty, Length: 2}, segments[2])
		assert.Zero(t, report.OverlapClipped)
	})

	t.Run("ZeroBookingsWholeAxisEmpty", func(t *testing.T) {
		axis := NewDateAxis(day(2025, time.June, 1), 7)
		segments, _ := BuildSegments(axis, nil)
		require.Len(t, segments, 1)
		assert.Equal(t, Segment{Kind: SegmentEmpty, Length: 7}, segments[0])
	})

	t.Run("ZeroLengthAxis", func(t *testing.T) {
		segments, _ := BuildSegments(nil, []models.Booking{
			stay("b1", "p1", day(2025, time.June, 2), day(2025, time.June, 4), models.StatusConfirmed),
		})
		assert.Empty(t, segments)
	})

	t.Run("BookingSpillingOffAxisIsClamped", func(t *testing.T) {
		// Stay longer than the window: rendered width equals days on screen.
		axis := NewDateAxis(day(2025, time.June, 10), 3)
		b := stay("b1", "p1", day(2025, time.June, 1), day(2025, time.June, 30), models.StatusConfirmed)

		segments, _ := BuildSegments(axis, []models.Booking{b})
		require.Len(t, segments, 1)
		assert.Equal(t, SegmentOccupied, segments[0].Kind)
		assert.Equal(t, 3, segments[0].Length)
	})

	t.Run("CancelledBookingNeverOccupies", func(t *testing.T) {
		axis := NewDateAxis(day(2025, time.June, 1), 5)
		b := stay("b1", "p1", day(2025, time.June, 2), day(2025, time.June, 4), models.StatusCancelled)

		segments, _ := BuildSegments(axis, []models.Booking{b})
		require.Len(t, segments, 1)
		assert.Equal(t, SegmentEmpty, segments[0].Kind)
	})

	t.Run("BackToBackBookings", func(t *testing.T) {
		axis := NewDateAxis(day(2025, time.June, 1), 6)
		first := stay("b1", "p1", day(2025, time.June, 1), day(2025, time.June, 3), models.StatusConfirmed)
		second := stay("b2", "p1", day(2025, time.June, 3), day(2025, time.June, 6), models.StatusPending)

		segments, report := BuildSegments(axis, []models.Booking{second, first})
		require.Len(t, segments, 3)
		assert.Equal(t, "b1", segments[0].Booking.ID)
		assert.Equal(t, "b2", segments[1].Booking.ID)
		assert.Equal(t, SegmentEmpty, segments[2].Kind)
		assert.Zero(t, report.OverlapClipped, "turnover day is not an overlap")
	})

	t.Run("DoubleBookingDoesNotCrash", func(t *testing.T) {
		// Two confirmed bookings over the same nights: first reached wins,
		// the clipped one is reported, coverage still holds.
		axis := NewDateAxis(day(2025, time.June, 1), 5)
		a := stay("b1", "p1", day(2025, time.June, 1), day(2025, time.June, 4), models.StatusConfirmed)
		b := stay("b2", "p1", day(2025, time.June, 2), day(2025, time.June, 5), models.StatusConfirmed)

		segments, report := BuildSegments(axis, []models.Booking{a, b})
		assert.Equal(t, len(axis), totalLength(segments))
		assert.Equal(t, 1, report.OverlapClipped)
	})

	t.Run("FullySwallowedBookingSkipped", func(t *testing.T) {
		axis := NewDateAxis(day(2025, time.June, 1), 5)
		outer := stay("b1", "p1", day(2025, time.June, 1), day(2025, time.June, 5), models.StatusConfirmed)
		inner := stay("b2", "p1", day(2025, time.June, 2), day(2025, time.June, 3), models.StatusConfirmed)

		segments, report := BuildSegments(axis, []models.Booking{outer, inner})
		assert.Equal(t, len(axis), totalLength(segments))
		for _, s := range segments {
			if s.Kind == SegmentOccupied {
				assert.Equal(t, "b1", s.Booking.ID)
			}
		}
		assert.Equal(t, 1, report.OverlapClipped)
	})

	t.Run("CoverageInvariant", func(t *testing.T) {
		// Mixed mess of statuses, spills and gaps: segments always cover
		// the axis exactly once.
		axis := NewDateAxis(day(2025, time.June, 1), 30)
		bookings := []models.Booking{
			stay("b1", "p1", day(2025, time.May, 20), day(2025, time.June, 3), models.StatusConfirmed),
			stay("b2", "p1", day(2025, time.June, 5), day(2025, time.June, 9), models.StatusPending),
			stay("b3", "p1", day(2025, time.June, 9), day(2025, time.June, 12), models.StatusConfirmed),
			stay("b4", "p1", day(2025, time.June, 11), day(2025, time.June, 15), models.StatusConfirmed),
			stay("b5", "p1", day(2025, time.June, 20), day(2025, time.June, 22), models.StatusCancelled),
			stay("b6", "p1", day(2025, time.June, 28), day(2025, time.July, 10), models.StatusConfirmed),
		}

		segments, _ := BuildSegments(axis, bookings)
		assert.Equal(t, len(axis), totalLength(segments))
		for _, s := range segments {
			assert.Positive(t, s.Length)
			if s.Kind == SegmentOccupied {
				assert.NotNil(t, s.Booking)
				assert.NotEqual(t, models.StatusCancelled, s.Booking.Status)
			} else {
				assert.Nil(t, s.Booking)
			}
		}
	})

	t.Run("Idempotence", func(t *testing.T) {
		axis := NewDateAxis(day(2025, time.June, 1), 10)
		bookings := []models.Booking{
			stay("b1", "p1", day(2025, time.June, 2), day(2025, time.June, 5), models.StatusConfirmed),
			stay("b2", "p1", day(2025, time.June, 7), day(2025, time.June, 9), models.StatusPending),
		}

		first, firstReport := BuildSegments(axis, bookings)
		second, secondReport := BuildSegments(axis, bookings)
		assert.Equal(t, first, second)
		assert.Equal(t, firstReport, secondReport)
	})

	t.Run("InputNotMutated", func(t *testing.T) {
		axis := NewDateAxis(day(2025, time.June, 1), 10)
		bookings := []models.Booking{
			stay("b2", "p1", day(2025, time.June, 7), day(2025, time.June, 9), models.StatusPending),
			stay("b1", "p1", day(2025, time.June, 2), day(2025, time.June, 5), models.StatusConfirmed),
		}

		BuildSegments(axis, bookings)
		assert.Equal(t, "b2", bookings[0].ID, "caller's booking order is preserved")
	})
}
