package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "staypilot",
			Name:      "booking_created_total",
			Help:      "Count of bookings created by status.",
		},
		[]string{"status"},
	)

	bookingCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "staypilot",
			Name:      "booking_cancelled_total",
			Help:      "Count of bookings cancelled.",
		},
	)

	conflictsDetected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "staypilot",
			Name:      "conflicts_detected_total",
			Help:      "Count of candidate bookings that hit at least one conflict, by flow.",
		},
		[]string{"flow"},
	)

	doubleBookings = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "staypilot",
			Name:      "double_bookings_total",
			Help:      "Overlapping non-cancelled bookings clipped while rendering a timeline.",
		},
	)

	importRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "staypilot",
			Name:      "import_rows_total",
			Help:      "Bulk import rows by outcome.",
		},
		[]string{"result"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "staypilot",
			Name:      "http_requests_total",
			Help:      "API requests by endpoint.",
		},
		[]string{"endpoint"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingCreated, bookingCancelled, conflictsDetected,
			doubleBookings, importRows, httpRequests)
	})
}

func IncBookingCreated(status string) {
	bookingCreated.WithLabelValues(status).Inc()
}

func IncBookingCancelled() {
	bookingCancelled.Inc()
}

func IncConflictsDetected(flow string) {
	conflictsDetected.WithLabelValues(flow).Inc()
}

func AddDoubleBookings(n int) {
	doubleBookings.Add(float64(n))
}

func IncImportRow(result string) {
	importRows.WithLabelValues(result).Inc()
}

func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}
