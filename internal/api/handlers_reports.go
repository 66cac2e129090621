package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		jsonError(w, "run history is disabled", http.StatusNotFound)
		return
	}
	q := r.URL.Query()

	if hash := q.Get("hash"); hash != "" {
		runs, err := s.reports.FindByHash(r.Context(), hash)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"reports": runs})
		return
	}

	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			jsonError(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}
	runs, err := s.reports.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": runs})
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	format, ok := reportFormat(w, r)
	if !ok {
		return
	}
	if s.reports == nil {
		jsonError(w, "run history is disabled", http.StatusNotFound)
		return
	}
	rep, err := s.reports.Get(r.Context(), chi.URLParam(r, "reportID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeReport(w, rep, format)
}
