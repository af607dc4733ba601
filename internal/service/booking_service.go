package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"staypilot/internal/availability"
	"staypilot/internal/events"
	"staypilot/internal/metrics"
	"staypilot/internal/models"
)

var (
	ErrPropertyInactive = errors.New("service: property is not active")
	ErrAlreadyCancelled = errors.New("service: booking is already cancelled")
)

// BookingService runs the booking workflows over the store and the
// availability engine. The engine itself stays pure; everything stateful
// (storage, events, metrics, logging) lives here.
type BookingService struct {
	repo   Repository
	bus    EventPublisher
	logger *zerolog.Logger
}

func NewBookingService(repo Repository, bus EventPublisher, logger *zerolog.Logger) *BookingService {
	return &BookingService{repo: repo, bus: bus, logger: logger}
}

// CreateResult is the outcome of an interactive create. With a non-empty
// Conflicts and Created false the caller is expected to show the conflicts
// and retry with confirm once a human accepted them: the conflict check is
// advisory, the policy (warn-then-continue) lives here.
type CreateResult struct {
	Booking   *models.Booking  `json:"booking,omitempty"`
	Created   bool             `json:"created"`
	Conflicts []models.Booking `json:"conflicts,omitempty"`
}

// CreateBooking validates the booking, runs the conflict detector and, when
// clean or explicitly confirmed, persists under a transactional re-check.
func (s *BookingService) CreateBooking(ctx context.Context, b *models.Booking, confirm bool) (*CreateResult, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	property, err := s.repo.GetProperty(ctx, b.PropertyID)
	if err != nil {
		return nil, err
	}
	if !property.Active {
		return nil, ErrPropertyInactive
	}

	existing, err := s.repo.GetBookingsByDateRange(ctx, b.CheckIn, b.CheckOut)
	if err != nil {
		return nil, fmt.Errorf("load overlapping bookings: %w", err)
	}
	candidate := availability.SpanOf(b)
	conflicts := availability.DetectConflicts(b.PropertyID, candidate, existing)
	if len(conflicts) > 0 {
		metrics.IncConflictsDetected("interactive")
		if !confirm {
			s.logger.Warn().
				Str("property_id", b.PropertyID).
				Int("conflicts", len(conflicts)).
				Msg("booking blocked pending confirmation")
			return &CreateResult{Conflicts: conflicts}, nil
		}
		s.logger.Warn().
			Str("property_id", b.PropertyID).
			Int("conflicts", len(conflicts)).
			Msg("creating booking over confirmed conflicts")
	}

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if conflicts == nil {
		// No known conflicts: let the store re-check inside the insert
		// transaction to close the check-then-write window.
		err = s.repo.CreateBookingWithLock(ctx, b)
	} else {
		// A human accepted the overlap; bypass the lock so the insert is
		// not rejected by the very conflict that was confirmed.
		err = s.repo.CreateBooking(ctx, b)
	}
	if err != nil {
		return nil, err
	}

	metrics.IncBookingCreated(string(b.Status))
	if err := s.bus.PublishJSON(events.TypeBookingCreated, b); err != nil {
		s.logger.Error().Err(err).Str("booking_id", b.ID).Msg("publish booking.created")
	}
	s.logger.Info().Str("booking_id", b.ID).Str("property_id", b.PropertyID).Msg("booking created")
	return &CreateResult{Booking: b, Created: true, Conflicts: conflicts}, nil
}

// CancelBooking soft-deletes: the record is kept but stops counting toward
// occupancy, conflicts and revenue.
func (s *BookingService) CancelBooking(ctx context.Context, id string) error {
	b, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return err
	}
	if b.Status == models.StatusCancelled {
		return ErrAlreadyCancelled
	}
	if err := s.repo.UpdateBookingStatusWithVersion(ctx, id, b.Version, models.StatusCancelled); err != nil {
		return err
	}
	metrics.IncBookingCancelled()
	if err := s.bus.PublishJSON(events.TypeBookingCancelled, b); err != nil {
		s.logger.Error().Err(err).Str("booking_id", id).Msg("publish booking.cancelled")
	}
	return nil
}

// CheckConflicts runs the detector against the stored booking set without
// writing anything.
func (s *BookingService) CheckConflicts(ctx context.Context, propertyID string, checkIn, checkOut time.Time) ([]models.Booking, error) {
	existing, err := s.repo.GetBookingsByDateRange(ctx, checkIn, checkOut)
	if err != nil {
		return nil, fmt.Errorf("load overlapping bookings: %w", err)
	}
	conflicts := availability.DetectConflicts(propertyID, availability.NewSpan(checkIn, checkOut), existing)
	if len(conflicts) > 0 {
		metrics.IncConflictsDetected("query")
	}
	return conflicts, nil
}

// Calendar renders one property's timeline row over [start, end).
// Double-bookings found while rendering are a data integrity problem, not a
// rendering problem: they are logged and counted here rather than silently
// drawn over each other.
func (s *BookingService) Calendar(ctx context.Context, propertyID string, start, end time.Time) ([]availability.Segment, error) {
	axis := availability.AxisBetween(start, end)
	bookings, err := s.repo.GetBookingsByDateRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}
	var mine []models.Booking
	for _, b := range bookings {
		if b.PropertyID == propertyID {
			mine = append(mine, b)
		}
	}

	segments, report := availability.BuildSegments(axis, mine)
	if report.OverlapClipped > 0 {
		metrics.AddDoubleBookings(report.OverlapClipped)
		s.logger.Error().
			Str("property_id", propertyID).
			Int("clipped", report.OverlapClipped).
			Msg("double-booked nights detected on timeline")
	}
	return segments, nil
}

// MonthMarks resolves per-day statuses across all properties over [start, end).
func (s *BookingService) MonthMarks(ctx context.Context, start, end time.Time) (availability.DayMarks, error) {
	bookings, err := s.repo.GetBookingsByDateRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}
	return availability.MarkDays(bookings), nil
}

// PortfolioSnapshot loads every property with its bookings, the input for
// report rendering and full mirror resyncs.
func (s *BookingService) PortfolioSnapshot(ctx context.Context) (*models.Snapshot, error) {
	snapshot, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return snapshot, nil
}

// Dashboard aggregates the reference date across the whole portfolio. The
// date always comes from the caller; the service never reads the clock for it.
func (s *BookingService) Dashboard(ctx context.Context, ref time.Time) (availability.DailyStats, error) {
	// Widened one day left so that stays departing on the reference date,
	// which no longer intersect [ref, ref+1), are still counted.
	bookings, err := s.repo.GetBookingsByDateRange(ctx, ref.AddDate(0, 0, -1), ref.AddDate(0, 0, 1))
	if err != nil {
		return availability.DailyStats{}, fmt.Errorf("load bookings: %w", err)
	}
	return availability.AggregateDaily(ref, bookings), nil
}
