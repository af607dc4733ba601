// Package importer loads bookings in bulk from xlsx workbooks. Unlike the
// interactive flow, import is hard-blocking: any row whose dates conflict
// with a stored booking, or with an earlier accepted row of the same file,
// is rejected. Good rows are still created; the report lists the rest.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"staypilot/internal/availability"
	"staypilot/internal/events"
	"staypilot/internal/metrics"
	"staypilot/internal/models"
)

var (
	ErrNoSheet     = errors.New("importer: workbook has no sheets")
	ErrTooManyRows = errors.New("importer: workbook exceeds the row limit")
)

// Column order expected in the first sheet, header row included:
// property, guest, check-in, check-out, status, price, currency.
const expectedColumns = 7

var dateLayouts = []string{"2006-01-02", "02.01.2006", "01-02-06", "1/2/06 15:04"}

// Repository is the storage surface the importer needs.
type Repository interface {
	GetPropertyByName(ctx context.Context, name string) (*models.Property, error)
	GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]models.Booking, error)
	CreateBooking(ctx context.Context, booking *models.Booking) error
}

// EventPublisher announces the completed import.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type Importer struct {
	repo    Repository
	bus     EventPublisher
	maxRows int
	logger  *zerolog.Logger
}

func New(repo Repository, bus EventPublisher, maxRows int, logger *zerolog.Logger) *Importer {
	if maxRows <= 0 {
		maxRows = 1000
	}
	return &Importer{repo: repo, bus: bus, maxRows: maxRows, logger: logger}
}

// RowError describes why one spreadsheet row was rejected.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Result is the per-file import report.
type Result struct {
	Total    int        `json:"total"`
	Created  int        `json:"created"`
	Rejected []RowError `json:"rejected,omitempty"`
}

// ImportWorkbook reads the first sheet of the xlsx stream and creates a
// booking per valid row.
func (im *Importer) ImportWorkbook(ctx context.Context, r io.Reader) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) > im.maxRows+1 {
		return nil, ErrTooManyRows
	}

	result := &Result{}
	// Rows accepted earlier in this file also count as existing bookings:
	// a file double-booking itself must be caught before anything hits
	// the store.
	var accepted []models.Booking

	for i, cells := range rows {
		if i == 0 {
			continue // header
		}
		rowNum := i + 1
		if blankRow(cells) {
			continue
		}
		result.Total++

		b, err := im.parseRow(ctx, cells)
		if err != nil {
			im.reject(result, rowNum, err.Error())
			continue
		}

		stored, err := im.repo.GetBookingsByDateRange(ctx, b.CheckIn, b.CheckOut)
		if err != nil {
			im.reject(result, rowNum, fmt.Sprintf("load existing bookings: %v", err))
			continue
		}
		pool := append(append([]models.Booking(nil), stored...), accepted...)
		conflicts := availability.DetectConflicts(b.PropertyID, availability.SpanOf(b), pool)
		if len(conflicts) > 0 {
			metrics.IncConflictsDetected("import")
			im.reject(result, rowNum, fmt.Sprintf("dates conflict with %d existing booking(s)", len(conflicts)))
			continue
		}

		if err := im.repo.CreateBooking(ctx, b); err != nil {
			im.reject(result, rowNum, fmt.Sprintf("store booking: %v", err))
			continue
		}
		accepted = append(accepted, *b)
		result.Created++
		metrics.IncImportRow("created")
	}

	im.logger.Info().
		Int("total", result.Total).
		Int("created", result.Created).
		Int("rejected", len(result.Rejected)).
		Msg("bulk import finished")
	if err := im.bus.PublishJSON(events.TypeImportCompleted, result); err != nil {
		im.logger.Error().Err(err).Msg("publish import.completed")
	}
	return result, nil
}

func (im *Importer) reject(result *Result, row int, reason string) {
	result.Rejected = append(result.Rejected, RowError{Row: row, Reason: reason})
	metrics.IncImportRow("rejected")
}

func (im *Importer) parseRow(ctx context.Context, cells []string) (*models.Booking, error) {
	get := func(i int) string {
		if i < len(cells) {
			return strings.TrimSpace(cells[i])
		}
		return ""
	}

	propertyName := get(0)
	if propertyName == "" {
		return nil, errors.New("property name is empty")
	}
	property, err := im.repo.GetPropertyByName(ctx, propertyName)
	if err != nil {
		return nil, fmt.Errorf("unknown property %q", propertyName)
	}
	if !property.Active {
		return nil, fmt.Errorf("property %q is not active", propertyName)
	}

	checkIn, err := parseDay(get(2))
	if err != nil {
		return nil, fmt.Errorf("check-in: %v", err)
	}
	checkOut, err := parseDay(get(3))
	if err != nil {
		return nil, fmt.Errorf("check-out: %v", err)
	}

	status := models.BookingStatus(strings.ToLower(get(4)))
	if status == "" {
		status = models.StatusConfirmed
	}

	price := 0.0
	if raw := get(5); raw != "" {
		price, err = strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
		if err != nil {
			return nil, fmt.Errorf("price %q is not a number", raw)
		}
	}

	currency := strings.ToUpper(get(6))
	if currency == "" {
		currency = "EUR"
	}

	b := &models.Booking{
		ID:         uuid.NewString(),
		PropertyID: property.ID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Status:     status,
		GuestName:  get(1),
		TotalPrice: price,
		Currency:   currency,
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func parseDay(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errors.New("date is empty")
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return models.Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
