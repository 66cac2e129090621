package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/docstyle/internal/checker"
	"github.com/dgallion1/docstyle/internal/config"
	"github.com/dgallion1/docstyle/internal/pipeline"
	"github.com/dgallion1/docstyle/internal/report"
	"github.com/dgallion1/docstyle/internal/store"
)

// Reports is the read side of the run history.
type Reports interface {
	Get(ctx context.Context, id string) (*report.Report, error)
	List(ctx context.Context, limit int) ([]store.Summary, error)
	FindByHash(ctx context.Context, hash string) ([]store.Summary, error)
}

// Server is the HTTP API server for docstyle.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	checker      *checker.Checker
	reports      Reports
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. reports may be nil when
// history is disabled.
func NewServer(orch *pipeline.Orchestrator, chk *checker.Checker, reports Reports, log *slog.Logger, cfg config.Config) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		orchestrator: orch,
		checker:      chk,
		reports:      reports,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Post("/api/validate", s.handleValidate)

		r.Post("/api/jobs", s.handleSubmit)
		r.Get("/api/jobs/{jobID}", s.handleJobStatus)
		r.Get("/api/jobs/{jobID}/report", s.handleJobReport)

		r.Get("/api/stats", s.handleStats)
		r.Get("/api/standard", s.handleStandard)

		r.Get("/api/reports", s.handleListReports)
		r.Get("/api/reports/{reportID}", s.handleGetReport)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
