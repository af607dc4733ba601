package availability

import (
	"staypilot/internal/models"
)

// DetectConflicts returns every existing non-cancelled booking of the given
// property whose stay overlaps the candidate span, preserving the original
// order of the booking set. An empty result means the candidate fits.
//
// The detector is advisory: it never blocks anything itself. Interactive
// creation warns and lets a human confirm; bulk import rejects any row with
// a non-empty conflict set. Those are caller policies layered on the same
// check, not different detector behavior.
func DetectConflicts(propertyID string, candidate Span, bookings []models.Booking) []models.Booking {
	var conflicts []models.Booking
	for i := range bookings {
		b := &bookings[i]
		if b.PropertyID != propertyID || !b.Active() {
			continue
		}
		if Overlaps(candidate, SpanOf(b)) {
			conflicts = append(conflicts, *b)
		}
	}
	return conflicts
}
