package api

import (
	"net/http"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"standard":    s.checker.Standard().Name,
		"rules":       s.checker.Rules(),
		"queue_depth": s.orchestrator.QueueDepth(),
		"validation":  s.orchestrator.Stats().Snapshot(),
	})
}

// handleStandard returns the effective style standard as YAML.
func (s *Server) handleStandard(w http.ResponseWriter, r *http.Request) {
	data, err := s.checker.Standard().YAML()
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(data)
}
