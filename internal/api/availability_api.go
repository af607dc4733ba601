package api

import (
	"encoding/json"
	"net/http"
	"time"

	"staypilot/internal/availability"
	"staypilot/internal/cache"
	"staypilot/internal/metrics"
	"staypilot/internal/models"
)

// CalendarRequest is the request body for POST /api/calendar.
type CalendarRequest struct {
	PropertyID string `json:"property_id"`
	StartDate  string `json:"start_date"` // Format: YYYY-MM-DD
	EndDate    string `json:"end_date"`   // Format: YYYY-MM-DD, exclusive
}

// CalendarResponse is the response for POST /api/calendar.
type CalendarResponse struct {
	PropertyID string                 `json:"property_id"`
	Segments   []availability.Segment `json:"segments"`
	Period     struct {
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"period"`
}

// handleCalendar renders one property's timeline row.
// POST /api/calendar
func (s *HTTPServer) handleCalendar(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("calendar")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req CalendarRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.PropertyID == "" {
		writeError(w, http.StatusBadRequest, "property_id is required")
		return
	}
	start, end, err := s.parseRange(req.StartDate, req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	segments, err := s.svc.Calendar(r.Context(), req.PropertyID, start, end)
	if err != nil {
		s.log.Error().Err(err).Str("property_id", req.PropertyID).Msg("calendar query failed")
		writeError(w, http.StatusInternalServerError, "failed to build calendar")
		return
	}

	resp := CalendarResponse{PropertyID: req.PropertyID, Segments: segments}
	resp.Period.Start = req.StartDate
	resp.Period.End = req.EndDate
	writeJSON(w, http.StatusOK, resp)
}

// DayMarksRequest is the request body for POST /api/daymarks.
type DayMarksRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// DayMarksResponse is the response for POST /api/daymarks.
type DayMarksResponse struct {
	Days availability.DayMarks `json:"days"`
}

// handleDayMarks resolves the month-view dots across the portfolio.
// Responses are cached; staleness is bounded by the cache TTL.
// POST /api/daymarks
func (s *HTTPServer) handleDayMarks(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("daymarks")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req DayMarksRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	start, end, err := s.parseRange(req.StartDate, req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := cache.DayMarksKey(req.StartDate, req.EndDate)
	var resp DayMarksResponse
	if s.cache != nil && s.cache.Get(r.Context(), key, &resp) {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	marks, err := s.svc.MonthMarks(r.Context(), start, end)
	if err != nil {
		s.log.Error().Err(err).Msg("day marks query failed")
		writeError(w, http.StatusInternalServerError, "failed to resolve day marks")
		return
	}
	resp = DayMarksResponse{Days: marks}
	if s.cache != nil {
		s.cache.Set(r.Context(), key, resp)
	}
	writeJSON(w, http.StatusOK, resp)
}

// ConflictsRequest is the request body for POST /api/conflicts.
type ConflictsRequest struct {
	PropertyID string `json:"property_id"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
}

// ConflictsResponse is the response for POST /api/conflicts.
type ConflictsResponse struct {
	Conflicts []models.Booking `json:"conflicts"`
}

// handleConflicts runs the advisory conflict check without writing.
// POST /api/conflicts
func (s *HTTPServer) handleConflicts(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("conflicts")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req ConflictsRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.PropertyID == "" {
		writeError(w, http.StatusBadRequest, "property_id is required")
		return
	}
	checkIn, checkOut, err := s.parseRange(req.CheckIn, req.CheckOut)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conflicts, err := s.svc.CheckConflicts(r.Context(), req.PropertyID, checkIn, checkOut)
	if err != nil {
		s.log.Error().Err(err).Msg("conflict query failed")
		writeError(w, http.StatusInternalServerError, "failed to check conflicts")
		return
	}
	if conflicts == nil {
		conflicts = []models.Booking{}
	}
	writeJSON(w, http.StatusOK, ConflictsResponse{Conflicts: conflicts})
}

// handleStats returns the portfolio dashboard for one date.
// GET /api/stats?date=YYYY-MM-DD
func (s *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("stats")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	key := cache.StatsKey(dateStr)
	var stats availability.DailyStats
	if s.cache != nil && s.cache.Get(r.Context(), key, &stats) {
		writeJSON(w, http.StatusOK, stats)
		return
	}

	stats, err = s.svc.Dashboard(r.Context(), date)
	if err != nil {
		s.log.Error().Err(err).Str("date", dateStr).Msg("stats query failed")
		writeError(w, http.StatusInternalServerError, "failed to aggregate stats")
		return
	}
	if s.cache != nil {
		s.cache.Set(r.Context(), key, stats)
	}
	writeJSON(w, http.StatusOK, stats)
}
