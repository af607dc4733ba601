package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staypilot/internal/models"
)

func TestDetectConflicts(t *testing.T) {
	existing := []models.Booking{
		stay("b1", "p1", day(2025, time.January, 10), day(2025, time.January, 15), models.StatusConfirmed),
		stay("b2", "p1", day(2025, time.January, 20), day(2025, time.January, 25), models.StatusPending),
		stay("b3", "p2", day(2025, time.January, 10), day(2025, time.January, 15), models.StatusConfirmed),
		stay("b4", "p1", day(2025, time.January, 12), day(2025, time.January, 14), models.StatusCancelled),
	}

	t.Run("OverlappingCandidate", func(t *testing.T) {
		candidate := NewSpan(day(2025, time.January, 14), day(2025, time.January, 20))

		conflicts := DetectConflicts("p1", candidate, existing)
		require.Len(t, conflicts, 1, "overlap on Jan 14 only")
		assert.Equal(t, "b1", conflicts[0].ID)
	})

	t.Run("TouchingCandidateIsClean", func(t *testing.T) {
		candidate := NewSpan(day(2025, time.January, 15), day(2025, time.January, 20))
		assert.Empty(t, DetectConflicts("p1", candidate, existing))
	})

	t.Run("OtherPropertyIgnored", func(t *testing.T) {
		candidate := NewSpan(day(2025, time.January, 10), day(2025, time.January, 15))

		conflicts := DetectConflicts("p2", candidate, existing)
		require.Len(t, conflicts, 1)
		assert.Equal(t, "b3", conflicts[0].ID)
	})

	t.Run("CancelledNeverConflicts", func(t *testing.T) {
		candidate := NewSpan(day(2025, time.January, 12), day(2025, time.January, 14))

		conflicts := DetectConflicts("p1", candidate, existing)
		for _, c := range conflicts {
			assert.NotEqual(t, "b4", c.ID)
		}
	})

	t.Run("OriginalOrderPreserved", func(t *testing.T) {
		candidate := NewSpan(day(2025, time.January, 1), day(2025, time.February, 1))

		conflicts := DetectConflicts("p1", candidate, existing)
		require.Len(t, conflicts, 2)
		assert.Equal(t, "b1", conflicts[0].ID)
		assert.Equal(t, "b2", conflicts[1].ID)
	})

	t.Run("EmptySet", func(t *testing.T) {
		candidate := NewSpan(day(2025, time.January, 1), day(2025, time.January, 5))
		assert.Empty(t, DetectConflicts("p1", candidate, nil))
	})
}
