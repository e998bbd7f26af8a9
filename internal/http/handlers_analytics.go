package http

import (
	"net/http"
	"strconv"
	"time"
)

// handleAnalytics serves the trailing-window report. months defaults
// to 1 and is bounded to [1,12].
func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	months := 1
	if v := r.URL.Query().Get("months"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "months must be an integer")
			return
		}
		months = parsed
	}
	if months < 1 || months > 12 {
		writeError(w, http.StatusBadRequest, "months must be between 1 and 12")
		return
	}

	report, err := s.analytics.Report(r.Context(), months)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleAnalyticsPeriod serves a report for an explicit date range, or
// for the current salary-day period when no range is given.
func (s *Server) handleAnalyticsPeriod(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	startStr, endStr := q.Get("start"), q.Get("end")

	if startStr == "" && endStr == "" {
		report, err := s.analytics.CurrentPeriodReport(r.Context())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
		return
	}

	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse("2006-01-02", endStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "end must be YYYY-MM-DD")
		return
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "end must not be before start")
		return
	}

	report, err := s.analytics.PeriodReport(r.Context(), start, end)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
