// Package export renders occupancy reports as xlsx workbooks: one sheet
// per property with that property's timeline, plus a daily summary sheet
// aggregated across the portfolio.
package export

import (
	"fmt"
	"strings"
	"time"

	"staypilot/internal/availability"
	"staypilot/internal/models"
)

var bookingColumns = []string{"Check-in", "Check-out", "Nights", "Guest", "Status", "Total price", "Currency"}

var summaryColumns = []string{"Date", "Arrivals", "Departures", "Occupied", "Revenue", "ADR", "Currencies"}

// OccupancyReport writes the report for [start, end) into the writer.
// Cancelled bookings are left out entirely; they have no place in an
// occupancy report.
func OccupancyReport(w ExcelWriter, snapshot *models.Snapshot, start, end time.Time) error {
	axis := availability.AxisBetween(start, end)

	for _, property := range snapshot.Properties {
		if err := w.AddSheet(property.Name); err != nil {
			return err
		}
		if err := w.WriteHeader(bookingColumns); err != nil {
			return err
		}

		segments, _ := availability.BuildSegments(axis, snapshot.BookingsFor(property.ID))
		for _, seg := range segments {
			if seg.Kind != availability.SegmentOccupied {
				continue
			}
			b := seg.Booking
			row := []interface{}{
				models.Day(b.CheckIn).Format(availability.DayFormat),
				models.Day(b.CheckOut).Format(availability.DayFormat),
				b.Nights(),
				b.GuestName,
				string(b.Status),
				b.TotalPrice,
				b.Currency,
			}
			if err := w.WriteRow(row); err != nil {
				return fmt.Errorf("write booking row for %s: %w", property.Name, err)
			}
		}
	}

	if err := w.AddSheet("Daily summary"); err != nil {
		return err
	}
	if err := w.WriteHeader(summaryColumns); err != nil {
		return err
	}
	for _, d := range axis {
		stats := availability.AggregateDaily(d, snapshot.Bookings)
		row := []interface{}{
			stats.Date,
			stats.Arrivals,
			stats.Departures,
			stats.Occupied,
			stats.RevenueForDay,
			stats.AverageDailyRate,
			strings.Join(stats.Currencies, ", "),
		}
		if err := w.WriteRow(row); err != nil {
			return fmt.Errorf("write summary row %s: %w", stats.Date, err)
		}
	}
	return nil
}
