// Package api is the JSON-over-HTTP surface for the availability engine:
// calendar timelines, day marks, conflict checks, daily stats, booking
// writes and bulk import.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"staypilot/internal/cache"
	"staypilot/internal/importer"
	"staypilot/internal/service"
)

// MaxRangeDaysDefault caps calendar and day-mark queries when the config
// does not say otherwise.
const MaxRangeDaysDefault = 90

// HTTPServer serves the availability API.
type HTTPServer struct {
	server       *http.Server
	svc          *service.BookingService
	importer     *importer.Importer
	cache        cache.ViewCache
	log          *zerolog.Logger
	maxRangeDays int

	// Per-client token buckets, keyed by remote host.
	limMu    sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func NewHTTPServer(port int, svc *service.BookingService, imp *importer.Importer, viewCache cache.ViewCache, rps float64, burst, maxRangeDays int, logger *zerolog.Logger) *HTTPServer {
	if maxRangeDays <= 0 {
		maxRangeDays = MaxRangeDaysDefault
	}
	s := &HTTPServer{
		svc:          svc,
		importer:     imp,
		cache:        viewCache,
		log:          logger,
		maxRangeDays: maxRangeDays,
		limiters:     make(map[string]*rate.Limiter),
		rps:          rate.Limit(rps),
		burst:        burst,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/calendar", s.handleCalendar)
	mux.HandleFunc("/api/daymarks", s.handleDayMarks)
	mux.HandleFunc("/api/conflicts", s.handleConflicts)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/bookings", s.handleCreateBooking)
	mux.HandleFunc("/api/bookings/", s.handleCancelBooking)
	mux.HandleFunc("/api/import", s.handleImport)
	mux.HandleFunc("/api/export", s.handleExport)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.withRateLimit(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	return s
}

// Start blocks until the listener fails or Shutdown is called.
func (s *HTTPServer) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("http api listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the wired routes for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.rps > 0 {
			if !s.limiterFor(clientHost(r)).Allow() {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *HTTPServer) limiterFor(host string) *rate.Limiter {
	s.limMu.Lock()
	defer s.limMu.Unlock()
	lim, ok := s.limiters[host]
	if !ok {
		lim = rate.NewLimiter(s.rps, s.burst)
		s.limiters[host] = lim
	}
	return lim
}

func clientHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// parseRange validates a YYYY-MM-DD pair against the configured maximum
// window. The end date is exclusive.
func (s *HTTPServer) parseRange(startStr, endStr string) (start, end time.Time, err error) {
	if startStr == "" || endStr == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("start_date and end_date are required")
	}
	start, err = time.Parse("2006-01-02", startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start_date format; expected YYYY-MM-DD")
	}
	end, err = time.Parse("2006-01-02", endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end_date format; expected YYYY-MM-DD")
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("start_date must be before end_date")
	}
	days := int(end.Sub(start).Hours() / 24)
	if days > s.maxRangeDays {
		return time.Time{}, time.Time{}, fmt.Errorf("date range exceeds maximum of %d days", s.maxRangeDays)
	}
	return start, end, nil
}
