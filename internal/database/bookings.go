package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"staypilot/internal/models"
)

const dayFormat = "2006-01-02"

var (
	ErrBookingNotFound = errors.New("database: booking not found")
	ErrVersionConflict = errors.New("database: booking was modified concurrently")
	ErrDatesBooked     = errors.New("database: dates already booked")
)

const bookingColumns = `id, property_id, check_in, check_out, status, guest_name, total_price, currency, created_at, updated_at, version`

func scanBooking(row interface{ Scan(...any) error }) (*models.Booking, error) {
	var b models.Booking
	var checkIn, checkOut string
	var status string
	err := row.Scan(&b.ID, &b.PropertyID, &checkIn, &checkOut, &status,
		&b.GuestName, &b.TotalPrice, &b.Currency, &b.CreatedAt, &b.UpdatedAt, &b.Version)
	if err != nil {
		return nil, err
	}
	if b.CheckIn, err = time.ParseInLocation(dayFormat, checkIn, time.UTC); err != nil {
		return nil, fmt.Errorf("parse check_in %q: %w", checkIn, err)
	}
	if b.CheckOut, err = time.ParseInLocation(dayFormat, checkOut, time.UTC); err != nil {
		return nil, fmt.Errorf("parse check_out %q: %w", checkOut, err)
	}
	b.Status = models.BookingStatus(status)
	return &b, nil
}

// GetBooking returns a booking by id.
func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	row := db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// ListBookings returns every booking, cancelled ones included, ordered by
// creation. Soft-deleted records stay queryable; the engine filters them.
func (db *DB) ListBookings(ctx context.Context) ([]models.Booking, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()
	return collectBookings(rows)
}

// GetBookingsByDateRange returns bookings whose stay intersects [start, end).
func (db *DB) GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]models.Booking, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE check_in < ? AND check_out > ? ORDER BY created_at, id`,
		models.Day(end).Format(dayFormat), models.Day(start).Format(dayFormat))
	if err != nil {
		return nil, fmt.Errorf("bookings by range: %w", err)
	}
	defer rows.Close()
	return collectBookings(rows)
}

func collectBookings(rows *sql.Rows) ([]models.Booking, error) {
	var out []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// CreateBooking inserts a booking without any conflict check. Import and
// interactive flows that already ran the detector use this.
func (db *DB) CreateBooking(ctx context.Context, b *models.Booking) error {
	return db.insertBooking(ctx, db.DB, b)
}

// CreateBookingWithLock inserts a booking inside a transaction that
// re-checks for overlapping non-cancelled bookings, closing the window
// between an advisory conflict check and the write.
func (db *DB) CreateBookingWithLock(ctx context.Context, b *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var count int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings
		 WHERE property_id = ? AND status != 'cancelled' AND check_in < ? AND check_out > ?`,
		b.PropertyID,
		models.Day(b.CheckOut).Format(dayFormat),
		models.Day(b.CheckIn).Format(dayFormat),
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("conflict recheck: %w", err)
	}
	if count > 0 {
		return ErrDatesBooked
	}
	if err := db.insertBooking(ctx, tx, b); err != nil {
		return err
	}
	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (db *DB) insertBooking(ctx context.Context, ex execer, b *models.Booking) error {
	now := time.Now().UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
	if b.Version == 0 {
		b.Version = 1
	}
	_, err := ex.ExecContext(ctx,
		`INSERT INTO bookings (`+bookingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.PropertyID,
		models.Day(b.CheckIn).Format(dayFormat), models.Day(b.CheckOut).Format(dayFormat),
		string(b.Status), b.GuestName, b.TotalPrice, b.Currency, b.CreatedAt, b.UpdatedAt, b.Version)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

// UpdateBookingStatus updates status unconditionally.
func (db *DB) UpdateBookingStatus(ctx context.Context, id string, status models.BookingStatus) error {
	res, err := db.ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_at = ?, version = version + 1 WHERE id = ?`,
		string(status), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return requireRow(res)
}

// UpdateBookingStatusWithVersion updates status only when the stored
// version matches, guarding against concurrent edits.
func (db *DB) UpdateBookingStatusWithVersion(ctx context.Context, id string, version int64, status models.BookingStatus) error {
	res, err := db.ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_at = ?, version = version + 1 WHERE id = ? AND version = ?`,
		string(status), time.Now().UTC(), id, version)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if err := requireRow(res); errors.Is(err, ErrBookingNotFound) {
		// Row exists but the version moved, or the id is gone.
		if _, getErr := db.GetBooking(ctx, id); getErr == nil {
			return ErrVersionConflict
		}
		return err
	}
	return nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// Snapshot loads the full data set the availability engine computes over.
func (db *DB) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	properties, err := db.ListProperties(ctx)
	if err != nil {
		return nil, err
	}
	bookings, err := db.ListBookings(ctx)
	if err != nil {
		return nil, err
	}
	return &models.Snapshot{Properties: properties, Bookings: bookings}, nil
}
