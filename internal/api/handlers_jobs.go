package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docstyle/internal/pipeline"
)

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
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

	job := pipeline.NewJob(filename, data)
	if err := s.orchestrator.Submit(job); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, submitted(job))
}

func submitted(job *pipeline.Job) map[string]any {
	snap := job.Snapshot()
	return map[string]any{
		"job_id":       snap.ID,
		"filename":     snap.Filename,
		"content_hash": snap.ContentHash,
		"status":       snap.Status,
		"poll_url":     fmt.Sprintf("/api/jobs/%s", snap.ID),
	}
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	body := map[string]any{
		"job_id":   snap.ID,
		"filename": snap.Filename,
		"status":   snap.Status,
		"phase":    snap.Phase,
		"progress": snap.Progress,
	}
	if snap.ReportID != "" {
		body["report_id"] = snap.ReportID
		body["report_url"] = fmt.Sprintf("/api/jobs/%s/report", snap.ID)
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleJobReport(w http.ResponseWriter, r *http.Request) {
	format, ok := reportFormat(w, r)
	if !ok {
		return
	}
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	switch snap := job.Snapshot(); snap.Status {
	case pipeline.StatusCompleted:
		s.writeReport(w, job.Report(), format)
	case pipeline.StatusFailed:
		err := job.Err()
		if err == nil {
			err = fmt.Errorf("job failed in %s", snap.Phase)
		}
		s.writeError(w, err)
	default:
		jsonError(w, fmt.Sprintf("job is %s", snap.Status), http.StatusConflict)
	}
}
