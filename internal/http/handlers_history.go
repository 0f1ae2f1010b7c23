package http

import (
	"net/http"
	"strconv"

	"github.com/Josehuhu/financeiro/internal/auth"
)

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	months, err := s.hist.ListAllMonths(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, months)
}

func (s *Server) handleQueryHistory(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil || year < 1 {
		writeError(w, http.StatusBadRequest, "invalid year", nil)
		return
	}
	month, err := strconv.Atoi(r.PathValue("month"))
	if err != nil || month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "invalid month", nil)
		return
	}

	events, err := s.hist.QueryByMonth(r.Context(), year, month)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, events)
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if auth.FromRequest(r).IsZero() {
		writeError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	if err := s.hist.ClearAll(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"status": "cleared"})
}
