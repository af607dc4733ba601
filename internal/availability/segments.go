package availability

import (
	"sort"

	"staypilot/internal/models"
)

// SegmentKind tags a run of days on the axis as empty or occupied.
type SegmentKind string

const (
	SegmentEmpty    SegmentKind = "empty"
	SegmentOccupied SegmentKind = "occupied"
)

// Segment is a contiguous run of days on the rendering axis. Occupied
// segments carry the booking they render; Length counts axis days, so a
// booking reaching past the visible range is as wide as its on-screen days,
// not its true duration.
type Segment struct {
	Kind    SegmentKind     `json:"kind"`
	Length  int             `json:"length"`
	Booking *models.Booking `json:"booking,omitempty"`
}

// SegmentReport carries anomalies the builder worked around. A non-zero
// OverlapClipped means two non-cancelled bookings genuinely overlap on the
// axis — a double-booking that slipped past the conflict check and should
// be surfaced by the caller, not silently drawn over.
type SegmentReport struct {
	OverlapClipped int
}

// BuildSegments converts one property's bookings into an ordered list of
// segments covering the axis exactly once: summed lengths always equal the
// axis length, with no gaps and no double-covered days.
//
// Bookings are taken in check-in order (stable for equal check-ins),
// clamped to the axis, and laid down left to right; gaps become empty
// segments and the remainder after the last booking becomes a trailing
// empty segment. Cancelled bookings never occupy a segment. With zero
// renderable bookings the result is a single empty segment spanning the
// whole axis, never an empty list.
func BuildSegments(axis DateAxis, bookings []models.Booking) ([]Segment, SegmentReport) {
	var report SegmentReport
	if len(axis) == 0 {
		return nil, report
	}

	ordered := make([]*models.Booking, 0, len(bookings))
	for i := range bookings {
		if bookings[i].Active() {
			ordered = append(ordered, &bookings[i])
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return models.Day(ordered[i].CheckIn).Before(models.Day(ordered[j].CheckIn))
	})

	segments := make([]Segment, 0, 2*len(ordered)+1)
	cursor := 0
	for _, b := range ordered {
		clamped, ok := SpanOf(b).ClampTo(axis.Start(), axis.End())
		if !ok {
			continue
		}
		start, end := axis.index(clamped.CheckIn), axis.index(clamped.CheckOut)
		if start < cursor {
			// Overlapping non-cancelled bookings are a data anomaly the
			// builder must survive: clip to the first free day and report.
			report.OverlapClipped++
			start = cursor
		}
		if end <= start {
			continue
		}
		if start > cursor {
			segments = append(segments, Segment{Kind: SegmentEmpty, Length: start - cursor})
		}
		segments = append(segments, Segment{Kind: SegmentOccupied, Length: end - start, Booking: b})
		cursor = end
	}
	if cursor < len(axis) {
		segments = append(segments, Segment{Kind: SegmentEmpty, Length: len(axis) - cursor})
	}
	return segments, report
}
