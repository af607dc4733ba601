// Package sheets mirrors bookings into a Google spreadsheet so owners
// who live in Sheets see the same picture the service does. The mirror
// is best-effort: sync failures are logged, never surfaced to guests.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"staypilot/internal/availability"
	"staypilot/internal/models"
)

const (
	defaultBookingsSheet = "Bookings"
	scheduleSheet        = "Schedule"
)

var bookingHeaders = []interface{}{
	"ID", "Property", "Guest", "Check-in", "Check-out", "Nights",
	"Status", "Total price", "Currency", "Created", "Updated",
}

// SheetsService pushes booking rows and the availability schedule grid
// to one spreadsheet.
type SheetsService struct {
	srv           *sheets.Service
	spreadsheetID string
	bookingsSheet string
	logger        *zerolog.Logger

	// rowCache maps booking ID to its 1-based sheet row so updates
	// rewrite in place instead of re-scanning the sheet.
	cacheMu  sync.RWMutex
	rowCache map[string]int
}

func NewSheetsService(ctx context.Context, credentialsFile, spreadsheetID, sheetName string, logger *zerolog.Logger) (*SheetsService, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	jwtConfig, err := google.JWTConfigFromJSON(data, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}
	return &SheetsService{
		srv:           srv,
		spreadsheetID: spreadsheetID,
		bookingsSheet: sheetNameOrDefault(sheetName),
		logger:        logger,
		rowCache:      make(map[string]int),
	}, nil
}

func sheetNameOrDefault(name string) string {
	if name == "" {
		return defaultBookingsSheet
	}
	return name
}

// SyncBooking writes one booking row, updating in place when the row is
// already known.
func (s *SheetsService) SyncBooking(ctx context.Context, booking *models.Booking, propertyName string) error {
	values := bookingRowValues(booking, propertyName)

	if row, ok := s.getCachedRow(booking.ID); ok {
		rangeRef := fmt.Sprintf("%s!A%d", s.bookingsSheet, row)
		_, err := s.srv.Spreadsheets.Values.Update(s.spreadsheetID, rangeRef, &sheets.ValueRange{
			Values: [][]interface{}{values},
		}).ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("update booking row %d: %w", row, err)
		}
		return nil
	}

	resp, err := s.srv.Spreadsheets.Values.Append(s.spreadsheetID, s.bookingsSheet+"!A1", &sheets.ValueRange{
		Values: [][]interface{}{values},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append booking row: %w", err)
	}
	if row, ok := appendedRow(resp); ok {
		s.setCachedRow(booking.ID, row)
	}
	return nil
}

// ErrRowUnknown reports that a booking has no cached row position; the
// caller falls back to a full resync.
var ErrRowUnknown = errors.New("sheets: booking row position unknown")

// RemoveBooking blanks a cancelled booking's row and forgets its
// position. Blanking instead of deleting keeps every other cached row
// position valid.
func (s *SheetsService) RemoveBooking(ctx context.Context, bookingID string) error {
	row, ok := s.getCachedRow(bookingID)
	if !ok {
		return ErrRowUnknown
	}

	blank := make([]interface{}, len(bookingHeaders))
	for i := range blank {
		blank[i] = ""
	}
	rangeRef := fmt.Sprintf("%s!A%d", s.bookingsSheet, row)
	_, err := s.srv.Spreadsheets.Values.Update(s.spreadsheetID, rangeRef, &sheets.ValueRange{
		Values: [][]interface{}{blank},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("blank booking row %d: %w", row, err)
	}
	s.deleteCachedRow(bookingID)
	return nil
}

// FullResync rewrites the bookings sheet from a snapshot and rebuilds
// the row cache. Cancelled bookings are dropped from the mirror.
func (s *SheetsService) FullResync(ctx context.Context, snapshot *models.Snapshot) error {
	active := filterActiveBookings(snapshot.Bookings)
	names := propertyNames(snapshot.Properties)

	rows := [][]interface{}{bookingHeaders}
	s.cacheMu.Lock()
	s.rowCache = make(map[string]int, len(active))
	for i, b := range active {
		rows = append(rows, bookingRowValues(&b, names[b.PropertyID]))
		s.rowCache[b.ID] = i + 2 // row 1 is the header
	}
	s.cacheMu.Unlock()

	if _, err := s.srv.Spreadsheets.Values.Clear(s.spreadsheetID, s.bookingsSheet, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear bookings sheet: %w", err)
	}
	_, err := s.srv.Spreadsheets.Values.Update(s.spreadsheetID, s.bookingsSheet+"!A1", &sheets.ValueRange{
		Values: rows,
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write bookings sheet: %w", err)
	}
	s.logger.Info().Int("bookings", len(active)).Msg("sheets mirror resynced")
	return nil
}

// WriteSchedule renders the availability grid for [start, end): one row
// per property, one column per day, cells carrying the day status.
func (s *SheetsService) WriteSchedule(ctx context.Context, snapshot *models.Snapshot, start, end time.Time) error {
	headers, _ := prepareDateHeaders(start, end)
	rows := [][]interface{}{headers}

	for _, property := range snapshot.Properties {
		if !property.Active {
			continue
		}
		marks := availability.MarkDays(snapshot.BookingsFor(property.ID))
		row := []interface{}{property.Name}
		for d := models.Day(start); d.Before(models.Day(end)); d = d.AddDate(0, 0, 1) {
			row = append(row, scheduleCell(marks[d.Format(availability.DayFormat)]))
		}
		rows = append(rows, row)
	}

	if _, err := s.srv.Spreadsheets.Values.Clear(s.spreadsheetID, scheduleSheet, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear schedule sheet: %w", err)
	}
	_, err := s.srv.Spreadsheets.Values.Update(s.spreadsheetID, scheduleSheet+"!A1", &sheets.ValueRange{
		Values: rows,
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write schedule sheet: %w", err)
	}
	return nil
}

func (s *SheetsService) getCachedRow(bookingID string) (int, bool) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	row, ok := s.rowCache[bookingID]
	return row, ok
}

func (s *SheetsService) setCachedRow(bookingID string, row int) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache[bookingID] = row
}

func (s *SheetsService) deleteCachedRow(bookingID string) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	delete(s.rowCache, bookingID)
}

// ClearCache drops all cached row positions, forcing appends until the
// next full resync.
func (s *SheetsService) ClearCache() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache = make(map[string]int)
}

func bookingRowValues(b *models.Booking, propertyName string) []interface{} {
	return []interface{}{
		b.ID,
		propertyName,
		b.GuestName,
		models.Day(b.CheckIn).Format(availability.DayFormat),
		models.Day(b.CheckOut).Format(availability.DayFormat),
		b.Nights(),
		string(b.Status),
		b.TotalPrice,
		b.Currency,
		b.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		b.UpdatedAt.UTC().Format("2006-01-02 15:04:05"),
	}
}

func filterActiveBookings(bookings []models.Booking) []models.Booking {
	active := make([]models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.Active() {
			active = append(active, b)
		}
	}
	return active
}

func propertyNames(properties []models.Property) map[string]string {
	names := make(map[string]string, len(properties))
	for _, p := range properties {
		names[p.ID] = p.Name
	}
	return names
}

// prepareDateHeaders builds the schedule header row ("Property" then
// one "DD.MM" column per day) and reports the day-column count.
func prepareDateHeaders(start, end time.Time) ([]interface{}, int) {
	headers := []interface{}{"Property"}
	cols := 0
	for d := models.Day(start); d.Before(models.Day(end)); d = d.AddDate(0, 0, 1) {
		headers = append(headers, d.Format("02.01"))
		cols++
	}
	return headers, cols
}

func scheduleCell(status availability.DayStatus) string {
	switch status {
	case availability.DayBooked:
		return "X"
	case availability.DayTentative:
		return "?"
	default:
		return ""
	}
}

// appendedRow extracts the 1-based row index the append landed on, e.g.
// "Bookings!A42:K42" -> 42.
func appendedRow(resp *sheets.AppendValuesResponse) (int, bool) {
	if resp == nil || resp.Updates == nil || resp.Updates.UpdatedRange == "" {
		return 0, false
	}
	ref := resp.Updates.UpdatedRange
	if i := strings.Index(ref, "!"); i >= 0 {
		ref = ref[i+1:]
	}
	if i := strings.Index(ref, ":"); i >= 0 {
		ref = ref[:i]
	}
	row := 0
	for _, r := range ref {
		if r >= '0' && r <= '9' {
			row = row*10 + int(r-'0')
		}
	}
	if row == 0 {
		return 0, false
	}
	return row, true
}
