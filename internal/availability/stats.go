package availability

import (
	"math"
	"time"

	"staypilot/internal/models"
)

// DailyStats aggregates one reference date across a booking set.
type DailyStats struct {
	Date             string   `json:"date"`
	Arrivals         int      `json:"arrivals"`
	Departures       int      `json:"departures"`
	Occupied         int      `json:"occupied"`
	RevenueForDay    float64  `json:"revenue_for_day"`
	AverageDailyRate float64  `json:"average_daily_rate"`
	Currencies       []string `json:"currencies,omitempty"`
}

// AggregateDaily computes arrivals, departures, concurrent stays and
// prorated revenue for the reference date. The date is always an explicit
// argument; the engine never asks the clock for "today".
//
// Revenue attribution spreads a booking's total price evenly across its
// nights, so a multi-night stay contributes a realistic nightly figure
// instead of its full total on every occupied day. Amounts are summed
// without currency conversion; Currencies lists every currency that
// contributed so callers can flag a mixed aggregate.
func AggregateDaily(ref time.Time, bookings []models.Booking) DailyStats {
	day := models.Day(ref)
	stats := DailyStats{Date: day.Format(DayFormat)}
	seen := make(map[string]bool)

	for i := range bookings {
		b := &bookings[i]
		if !b.Active() {
			continue
		}
		if models.Day(b.CheckIn).Equal(day) {
			stats.Arrivals++
		}
		if models.Day(b.CheckOut).Equal(day) {
			stats.Departures++
		}
		if !b.ContainsDay(day) {
			continue
		}
		stats.Occupied++
		nights := b.Nights()
		if nights <= 0 {
			// Guarded against upstream validation gaps; never divide by zero.
			continue
		}
		stats.RevenueForDay += b.TotalPrice / float64(nights)
		if b.Currency != "" && !seen[b.Currency] {
			seen[b.Currency] = true
			stats.Currencies = append(stats.Currencies, b.Currency)
		}
	}

	if stats.Occupied > 0 {
		stats.AverageDailyRate = math.Round(stats.RevenueForDay / float64(stats.Occupied))
	}
	return stats
}
