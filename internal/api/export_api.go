package api

import (
	"fmt"
	"net/http"

	"staypilot/internal/export"
	"staypilot/internal/metrics"
)

// handleExport streams the occupancy report workbook for [start, end).
// GET /api/export?start_date=YYYY-MM-DD&end_date=YYYY-MM-DD
func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("export")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	start, end, err := s.parseRange(q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snapshot, err := s.svc.PortfolioSnapshot(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("load snapshot for export")
		writeError(w, http.StatusInternalServerError, "failed to load bookings")
		return
	}

	writer := export.NewExcelizeWriter()
	defer writer.Close()
	if err := export.OccupancyReport(writer, snapshot, start, end); err != nil {
		s.log.Error().Err(err).Msg("build occupancy report")
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}

	filename := fmt.Sprintf("occupancy_%s_%s.xlsx", q.Get("start_date"), q.Get("end_date"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := writer.Save(w); err != nil {
		// Headers are gone already; all that is left is to log.
		s.log.Error().Err(err).Msg("stream report workbook")
	}
}
