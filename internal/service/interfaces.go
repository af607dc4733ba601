package service

import (
	"context"
	"time"

	"staypilot/internal/models"
)

// Repository is the storage surface the booking service needs.
type Repository interface {
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	CreateBooking(ctx context.Context, booking *models.Booking) error
	CreateBookingWithLock(ctx context.Context, booking *models.Booking) error
	UpdateBookingStatusWithVersion(ctx context.Context, id string, version int64, status models.BookingStatus) error
	GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]models.Booking, error)
	ListBookings(ctx context.Context) ([]models.Booking, error)
	GetProperty(ctx context.Context, id string) (*models.Property, error)
	Snapshot(ctx context.Context) (*models.Snapshot, error)
}

// EventPublisher fans booking lifecycle events out to subscribers.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}
