package api

import (
	"net/http"
	"strconv"

	"github.com/splitfair/splitfair/internal/middleware"
	"github.com/splitfair/splitfair/internal/service"
)

const defaultActivityLimit = 50

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	limit := defaultActivityLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := s.reports.Activity(r.Context(), middleware.GetUserID(r.Context()), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []service.ActivityEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleReportSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.reports.BuildSummary(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
