package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"staypilot/internal/models"
)

func priced(b models.Booking, price float64, currency string) models.Booking {
	b.TotalPrice = price
	b.Currency = currency
	return b
}

func TestAggregateDaily(t *testing.T) {
	ref := day(2025, time.January, 12)

	t.Run("MidStayBooking", func(t *testing.T) {
		// 5 nights at 500 total -> 100 attributed to the reference day.
		b := priced(stay("b1", "p1", day(2025, time.January, 10), day(2025, time.January, 15), models.StatusConfirmed), 500, "EUR")

		stats := AggregateDaily(ref, []models.Booking{b})
		assert.Equal(t, 1, stats.Occupied)
		assert.InDelta(t, 100, stats.RevenueForDay, 1e-9)
		assert.Equal(t, 0, stats.Arrivals)
		assert.Equal(t, 0, stats.Departures)
		assert.Equal(t, float64(100), stats.AverageDailyRate)
	})

	t.Run("ProrationFourNights", func(t *testing.T) {
		b := priced(stay("b1", "p1", day(2025, time.January, 11), day(2025, time.January, 15), models.StatusConfirmed), 1000, "EUR")

		stats := AggregateDaily(ref, []models.Booking{b})
		assert.InDelta(t, 250, stats.RevenueForDay, 1e-9)
	})

	t.Run("ArrivalsAndDepartures", func(t *testing.T) {
		arriving := stay("b1", "p1", ref, day(2025, time.January, 14), models.StatusConfirmed)
		departing := stay("b2", "p2", day(2025, time.January, 9), ref, models.StatusConfirmed)

		stats := AggregateDaily(ref, []models.Booking{arriving, departing})
		assert.Equal(t, 1, stats.Arrivals)
		assert.Equal(t, 1, stats.Departures)
		// The arriving guest stays the night; the departing one does not.
		assert.Equal(t, 1, stats.Occupied)
	})

	t.Run("CancelledExcluded", func(t *testing.T) {
		b := priced(stay("b1", "p1", day(2025, time.January, 10), day(2025, time.January, 15), models.StatusCancelled), 500, "EUR")

		stats := AggregateDaily(ref, []models.Booking{b})
		assert.Zero(t, stats.Occupied)
		assert.Zero(t, stats.RevenueForDay)
		assert.Zero(t, stats.Arrivals)
	})

	t.Run("ZeroNightsNoDivision", func(t *testing.T) {
		// Invalid record slipping past boundary validation must not panic
		// or poison the aggregate.
		broken := priced(stay("b1", "p1", ref, ref, models.StatusConfirmed), 500, "EUR")

		stats := AggregateDaily(ref, []models.Booking{broken})
		assert.Zero(t, stats.RevenueForDay)
	})

	t.Run("MixedCurrenciesFlagged", func(t *testing.T) {
		eur := priced(stay("b1", "p1", day(2025, time.January, 10), day(2025, time.January, 15), models.StatusConfirmed), 500, "EUR")
		usd := priced(stay("b2", "p2", day(2025, time.January, 11), day(2025, time.January, 13), models.StatusConfirmed), 200, "USD")

		stats := AggregateDaily(ref, []models.Booking{eur, usd})
		assert.Equal(t, 2, stats.Occupied)
		assert.Equal(t, []string{"EUR", "USD"}, stats.Currencies)
	})

	t.Run("AverageDailyRateRounded", func(t *testing.T) {
		// 100/3 per night, one occupied booking: ADR rounds to 33.
		b := priced(stay("b1", "p1", day(2025, time.January, 11), day(2025, time.January, 14), models.StatusConfirmed), 100, "EUR")

		stats := AggregateDaily(ref, []models.Booking{b})
		assert.Equal(t, float64(33), stats.AverageDailyRate)
	})

	t.Run("EmptySet", func(t *testing.T) {
		stats := AggregateDaily(ref, nil)
		assert.Zero(t, stats.Occupied)
		assert.Zero(t, stats.AverageDailyRate)
		assert.Equal(t, "2025-01-12", stats.Date)
	})

	t.Run("Idempotence", func(t *testing.T) {
		bookings := []models.Booking{
			priced(stay("b1", "p1", day(2025, time.January, 10), day(2025, time.January, 15), models.StatusConfirmed), 500, "EUR"),
			priced(stay("b2", "p2", day(2025, time.January, 12), day(2025, time.January, 13), models.StatusPending), 90, "EUR"),
		}
		assert.Equal(t, AggregateDaily(ref, bookings), AggregateDaily(ref, bookings))
	})
}
