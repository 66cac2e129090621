package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/docstyle/internal/api"
	"github.com/dgallion1/docstyle/internal/checker"
	"github.com/dgallion1/docstyle/internal/config"
	"github.com/dgallion1/docstyle/internal/pipeline"
	"github.com/dgallion1/docstyle/internal/store"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if cfg.History && cfg.DBPath == "" {
		path, err := config.DefaultDBPath()
		if err != nil {
			log.Error("resolve history database path", "error", err)
			os.Exit(1)
		}
		cfg.DBPath = path
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	std, stdPath, err := config.ResolveStandard(cfg.StandardPath)
	if err != nil {
		log.Error("load standard", "error", err)
		os.Exit(1)
	}
	chk, err := checker.New(std, log)
	if err != nil {
		log.Error("invalid standard", "path", stdPath, "error", err)
		os.Exit(1)
	}
	log.Info("loaded standard", "name", std.Name, "path", stdPath, "rules", chk.Rules())

	// Run history is optional; a nil History skips recording.
	var (
		history pipeline.History
		reports api.Reports
		st      *store.Store
	)
	if cfg.History {
		st, err = store.Open(cfg.DBPath)
		if err != nil {
			log.Error("open history", "path", cfg.DBPath, "error", err)
			os.Exit(1)
		}
		history, reports = st, st
		log.Info("run history enabled", "path", st.Path())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orch := pipeline.NewOrchestrator(cfg, chk, history, log)
	orch.Start(ctx)

	srv := api.NewServer(orch, chk, reports, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("http shutdown", "error", err)
		}

		orch.Stop()
		if st != nil {
			if err := st.Close(); err != nil {
				log.Warn("close history", "error", err)
			}
		}
	}()

	log.Info("starting docstyle", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
}
