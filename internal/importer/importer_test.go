package importer

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"staypilot/internal/database"
	"staypilot/internal/models"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) GetPropertyByName(ctx context.Context, name string) (*models.Property, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *mockRepo) GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]models.Booking, error) {
	args := m.Called(ctx, start, end)
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *mockRepo) CreateBooking(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}

type mockBus struct {
	mock.Mock
}

func (m *mockBus) PublishJSON(eventType string, payload interface{}) error {
	return m.Called(eventType, payload).Error(0)
}

func workbook(t *testing.T, rows [][]interface{}) io.Reader {
	t.Helper()
	f := excelize.NewFile()
	header := []interface{}{"Property", "Guest", "Check-in", "Check-out", "Status", "Price", "Currency"}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &header))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return bytes.NewReader(buf.Bytes())
}

func TestImportWorkbook(t *testing.T) {
	logger := zerolog.New(io.Discard)
	ctx := context.Background()
	seaside := &models.Property{ID: "p1", Name: "Seaside Flat", Active: true}

	t.Run("CleanFile", func(t *testing.T) {
		repo := new(mockRepo)
		bus := new(mockBus)
		im := New(repo, bus, 100, &logger)

		repo.On("GetPropertyByName", ctx, "Seaside Flat").Return(seaside, nil)
		repo.On("GetBookingsByDateRange", ctx, mock.Anything, mock.Anything).Return([]models.Booking{}, nil)
		repo.On("CreateBooking", ctx, mock.Anything).Return(nil)
		bus.On("PublishJSON", "import.completed", mock.Anything).Return(nil).Once()

		res, err := im.ImportWorkbook(ctx, workbook(t, [][]interface{}{
			{"Seaside Flat", "Ada", "2025-09-01", "2025-09-05", "confirmed", "400", "EUR"},
			{"Seaside Flat", "Ben", "2025-09-05", "2025-09-08", "pending", "210.50", "EUR"},
		}))
		require.NoError(t, err)
		assert.Equal(t, 2, res.Total)
		assert.Equal(t, 2, res.Created)
		assert.Empty(t, res.Rejected, "back-to-back rows do not conflict")
		bus.AssertExpectations(t)
	})

	t.Run("RowConflictsWithStoredBooking", func(t *testing.T) {
		repo := new(mockRepo)
		bus := new(mockBus)
		im := New(repo, bus, 100, &logger)
		stored := models.Booking{
			ID: "old", PropertyID: "p1",
			CheckIn:  time.Date(2025, time.September, 3, 0, 0, 0, 0, time.UTC),
			CheckOut: time.Date(2025, time.September, 6, 0, 0, 0, 0, time.UTC),
			Status:   models.StatusConfirmed,
		}

		repo.On("GetPropertyByName", ctx, "Seaside Flat").Return(seaside, nil)
		repo.On("GetBookingsByDateRange", ctx, mock.Anything, mock.Anything).Return([]models.Booking{stored}, nil)
		bus.On("PublishJSON", "import.completed", mock.Anything).Return(nil).Once()

		res, err := im.ImportWorkbook(ctx, workbook(t, [][]interface{}{
			{"Seaside Flat", "Ada", "2025-09-01", "2025-09-05", "confirmed", "400", "EUR"},
		}))
		require.NoError(t, err)
		assert.Equal(t, 0, res.Created)
		require.Len(t, res.Rejected, 1)
		assert.Equal(t, 2, res.Rejected[0].Row)
		assert.Contains(t, res.Rejected[0].Reason, "conflict")
		repo.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
	})

	t.Run("FileConflictsWithItself", func(t *testing.T) {
		repo := new(mockRepo)
		bus := new(mockBus)
		im := New(repo, bus, 100, &logger)

		repo.On("GetPropertyByName", ctx, "Seaside Flat").Return(seaside, nil)
		repo.On("GetBookingsByDateRange", ctx, mock.Anything, mock.Anything).Return([]models.Booking{}, nil)
		repo.On("CreateBooking", ctx, mock.Anything).Return(nil)
		bus.On("PublishJSON", "import.completed", mock.Anything).Return(nil).Once()

		res, err := im.ImportWorkbook(ctx, workbook(t, [][]interface{}{
			{"Seaside Flat", "Ada", "2025-09-01", "2025-09-05", "confirmed", "400", "EUR"},
			{"Seaside Flat", "Ben", "2025-09-04", "2025-09-07", "confirmed", "300", "EUR"},
		}))
		require.NoError(t, err)
		assert.Equal(t, 1, res.Created)
		require.Len(t, res.Rejected, 1)
		assert.Equal(t, 3, res.Rejected[0].Row)
	})

	t.Run("BadRowsReported", func(t *testing.T) {
		repo := new(mockRepo)
		bus := new(mockBus)
		im := New(repo, bus, 100, &logger)

		repo.On("GetPropertyByName", ctx, "Seaside Flat").Return(seaside, nil)
		repo.On("GetPropertyByName", ctx, "Nowhere").Return(nil, database.ErrPropertyNotFound)
		bus.On("PublishJSON", "import.completed", mock.Anything).Return(nil).Once()

		res, err := im.ImportWorkbook(ctx, workbook(t, [][]interface{}{
			{"Nowhere", "Ada", "2025-09-01", "2025-09-05", "confirmed", "400", "EUR"},
			{"Seaside Flat", "Ben", "2025-09-05", "2025-09-05", "confirmed", "300", "EUR"},
			{"Seaside Flat", "Cid", "not-a-date", "2025-09-07", "confirmed", "300", "EUR"},
		}))
		require.NoError(t, err)
		assert.Equal(t, 3, res.Total)
		assert.Equal(t, 0, res.Created)
		assert.Len(t, res.Rejected, 3)
		repo.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
	})

	t.Run("RowLimit", func(t *testing.T) {
		repo := new(mockRepo)
		im := New(repo, new(mockBus), 1, &logger)

		_, err := im.ImportWorkbook(ctx, workbook(t, [][]interface{}{
			{"Seaside Flat", "Ada", "2025-09-01", "2025-09-05", "confirmed", "400", "EUR"},
			{"Seaside Flat", "Ben", "2025-09-10", "2025-09-12", "confirmed", "200", "EUR"},
		}))
		assert.ErrorIs(t, err, ErrTooManyRows)
	})
}
