package api

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/dgallion1/docstyle/internal/report"
)

// handleValidate checks an uploaded file synchronously and returns the
// report in the requested format.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	format, ok := reportFormat(w, r)
	if !ok {
		return
	}
	if !s.parseForm(w, r) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	fh, err := formFile(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	filename, data, err := s.readFile(fh)
	if err != nil {
		s.writeError(w, err)
		return
	}

	rep, err := s.orchestrator.Validate(r.Context(), filename, data)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeReport(w, rep, format)
}

// reportFormat reads ?format=, defaulting to json.
func reportFormat(w http.ResponseWriter, r *http.Request) (string, bool) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		return "json", true
	}
	if !report.IsFormat(format) {
		jsonError(w, "unknown report format: "+format, http.StatusBadRequest)
		return "", false
	}
	return format, true
}

func (s *Server) writeReport(w http.ResponseWriter, rep *report.Report, format string) {
	var buf bytes.Buffer
	wr, err := report.NewWriter(format, &buf)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := wr.Write(rep); err != nil {
		s.log.Error("render report", "report_id", rep.ID, "format", format, "error", err)
		jsonError(w, "failed to render report", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", report.ContentType(format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
