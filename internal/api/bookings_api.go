package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"staypilot/internal/database"
	"staypilot/internal/metrics"
	"staypilot/internal/models"
	"staypilot/internal/service"
)

// CreateBookingRequest is the request body for POST /api/bookings.
type CreateBookingRequest struct {
	PropertyID string  `json:"property_id"`
	GuestName  string  `json:"guest_name,omitempty"`
	CheckIn    string  `json:"check_in"`  // Format: YYYY-MM-DD
	CheckOut   string  `json:"check_out"` // Format: YYYY-MM-DD
	Status     string  `json:"status,omitempty"`
	TotalPrice float64 `json:"total_price,omitempty"`
	Currency   string  `json:"currency,omitempty"`
	// Confirm accepts previously reported conflicts and books anyway.
	Confirm bool `json:"confirm,omitempty"`
}

// handleCreateBooking creates one booking interactively. A clean request
// returns 201; a conflicting one returns 409 with the conflict list and
// created=false, and succeeds on retry with confirm=true.
// POST /api/bookings
func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("create_booking")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req CreateBookingRequest
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

	status := models.BookingStatus(req.Status)
	if status == "" {
		status = models.StatusConfirmed
	}
	booking := &models.Booking{
		PropertyID: req.PropertyID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Status:     status,
		GuestName:  req.GuestName,
		TotalPrice: req.TotalPrice,
		Currency:   req.Currency,
	}

	result, err := s.svc.CreateBooking(r.Context(), booking, req.Confirm)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidInterval),
			errors.Is(err, models.ErrNegativePrice),
			errors.Is(err, models.ErrUnknownStatus):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, database.ErrPropertyNotFound):
			writeError(w, http.StatusNotFound, "property not found")
		case errors.Is(err, service.ErrPropertyInactive):
			writeError(w, http.StatusConflict, "property is not active")
		case errors.Is(err, database.ErrDatesBooked):
			writeError(w, http.StatusConflict, "dates were booked concurrently")
		default:
			s.log.Error().Err(err).Str("property_id", req.PropertyID).Msg("create booking failed")
			writeError(w, http.StatusInternalServerError, "failed to create booking")
		}
		return
	}

	if !result.Created {
		writeJSON(w, http.StatusConflict, result)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// handleCancelBooking soft-deletes a booking.
// DELETE /api/bookings/{id}
func (s *HTTPServer) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("cancel_booking")
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use DELETE")
		return
	}

	const prefix = "/api/bookings/"
	id := r.URL.Path[len(prefix):]
	if id == "" {
		writeError(w, http.StatusBadRequest, "booking id is required")
		return
	}

	err := s.svc.CancelBooking(r.Context(), id)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	case errors.Is(err, database.ErrBookingNotFound):
		writeError(w, http.StatusNotFound, "booking not found")
	case errors.Is(err, service.ErrAlreadyCancelled):
		writeError(w, http.StatusConflict, "booking is already cancelled")
	case errors.Is(err, database.ErrVersionConflict):
		writeError(w, http.StatusConflict, "booking changed concurrently; retry")
	default:
		s.log.Error().Err(err).Str("booking_id", id).Msg("cancel booking failed")
		writeError(w, http.StatusInternalServerError, "failed to cancel booking")
	}
}

// maxImportBody caps the uploaded workbook size.
const maxImportBody = 10 << 20

// handleImport runs the hard-blocking bulk import on an uploaded xlsx.
// POST /api/import
func (s *HTTPServer) handleImport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("import")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	started := time.Now()
	result, err := s.importer.ImportWorkbook(r.Context(), http.MaxBytesReader(w, r.Body, maxImportBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.log.Info().
		Int("total", result.Total).
		Int("created", result.Created).
		Dur("took", time.Since(started)).
		Msg("import handled")
	writeJSON(w, http.StatusOK, result)
}
