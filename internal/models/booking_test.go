package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func d(y int, m time.Month, dd int) time.Time {
	return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
}

func TestBookingValidate(t *testing.T) {
	valid := Booking{
		ID:         "b1",
		PropertyID: "p1",
		CheckIn:    d(2025, time.May, 1),
		CheckOut:   d(2025, time.May, 4),
		Status:     StatusConfirmed,
		TotalPrice: 300,
		Currency:   "EUR",
	}

	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, valid.Validate())
	})

	t.Run("ZeroNights", func(t *testing.T) {
		b := valid
		b.CheckOut = b.CheckIn
		assert.ErrorIs(t, b.Validate(), ErrInvalidInterval)
	})

	t.Run("NegativeNights", func(t *testing.T) {
		b := valid
		b.CheckOut = d(2025, time.April, 28)
		assert.ErrorIs(t, b.Validate(), ErrInvalidInterval)
	})

	t.Run("TimeOfDayIgnored", func(t *testing.T) {
		// A 15:00 check-in on the same calendar day as a 11:00 check-out
		// is still zero nights.
		b := valid
		b.CheckIn = time.Date(2025, time.May, 1, 15, 0, 0, 0, time.UTC)
		b.CheckOut = time.Date(2025, time.May, 1, 11, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
		assert.NoError(t, b.Validate())
		assert.Equal(t, 1, b.Nights())
	})

	t.Run("MissingProperty", func(t *testing.T) {
		b := valid
		b.PropertyID = ""
		assert.ErrorIs(t, b.Validate(), ErrMissingProperty)
	})

	t.Run("NegativePrice", func(t *testing.T) {
		b := valid
		b.TotalPrice = -1
		assert.ErrorIs(t, b.Validate(), ErrNegativePrice)
	})

	t.Run("UnknownStatus", func(t *testing.T) {
		b := valid
		b.Status = "tentative"
		assert.ErrorIs(t, b.Validate(), ErrUnknownStatus)
	})
}

func TestStatusPriority(t *testing.T) {
	assert.Greater(t, StatusConfirmed.Priority(), StatusPending.Priority())
	assert.Greater(t, StatusPending.Priority(), BookingStatus("maintenance").Priority())
	assert.Greater(t, BookingStatus("maintenance").Priority(), StatusCancelled.Priority())
}

func TestBookingOverlapsWith(t *testing.T) {
	a := Booking{CheckIn: d(2025, time.May, 1), CheckOut: d(2025, time.May, 5)}
	touching := Booking{CheckIn: d(2025, time.May, 5), CheckOut: d(2025, time.May, 8)}
	overlapping := Booking{CheckIn: d(2025, time.May, 4), CheckOut: d(2025, time.May, 8)}

	assert.False(t, a.OverlapsWith(&touching))
	assert.True(t, a.OverlapsWith(&overlapping))
	assert.True(t, overlapping.OverlapsWith(&a))
}

func TestSnapshotBookingsFor(t *testing.T) {
	snap := Snapshot{Bookings: []Booking{
		{ID: "b1", PropertyID: "p1"},
		{ID: "b2", PropertyID: "p2"},
		{ID: "b3", PropertyID: "p1"},
	}}

	got := snap.BookingsFor("p1")
	assert.Len(t, got, 2)
	assert.Equal(t, "b1", got[0].ID)
	assert.Equal(t, "b3", got[1].ID)
	assert.Empty(t, snap.BookingsFor("p9"))
}
