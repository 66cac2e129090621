package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/docstyle/internal/checker"
	"github.com/dgallion1/docstyle/internal/parser"
	"github.com/dgallion1/docstyle/internal/report"
)

// ErrUnreadable wraps backend errors for files that could not be parsed.
var ErrUnreadable = errors.New("document could not be read")

// History records finished reports.
type History interface {
	Save(ctx context.Context, r *report.Report) error
}

// Worker validates documents. A single Worker may serve several goroutines.
type Worker struct {
	checker *checker.Checker
	history History
	stats   *LatencyStats
	log     *slog.Logger
}

// NewWorker creates a worker. history may be nil to skip recording runs.
func NewWorker(chk *checker.Checker, history History, stats *LatencyStats, log *slog.Logger) *Worker {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if stats == nil {
		stats = NewLatencyStats(0)
	}
	return &Worker{checker: chk, history: history, stats: stats, log: log}
}

// Process runs the validation pipeline for a job. The outcome is recorded
// on the job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	_, _ = w.Run(ctx, job)
}

// Run validates the job's file and returns the report. On failure the job
// is marked failed in the phase that broke and the error is returned.
func (w *Worker) Run(ctx context.Context, job *Job) (*report.Report, error) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)
	start := time.Now()

	if err := ctx.Err(); err != nil {
		job.Fail("queued", err)
		return nil, err
	}

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	data := job.FileData()
	p, err := parser.ForFile(job.Filename)
	if err != nil {
		log.Warn("unsupported format", "error", err)
		return nil, w.fail(job, "parsing", start, err)
	}
	doc, err := p.Parse(bytes.NewReader(data), job.Filename)
	if err != nil {
		log.Warn("parse failed", "error", err)
		return nil, w.fail(job, "parsing", start, fmt.Errorf("%w: %s: %w", ErrUnreadable, job.Filename, err))
	}

	// Phase 2: Reconstruct and run the rules
	job.SetStatus(StatusValidating, "validating")
	res, err := w.checker.Check(doc)
	if err != nil {
		log.Warn("validation failed", "error", err)
		return nil, w.fail(job, "validating", start, err)
	}
	job.SetPages(res.Pages)

	r := report.New(job.Filename, data, res.Pages, res.Violations)
	r.Standard = w.checker.Standard().Name

	// Phase 3: Record history. A failed write does not fail the job.
	if w.history != nil {
		if err := w.save(ctx, log, r); err != nil {
			log.Error("history write failed", "report_id", r.ID, "error", err)
			job.AddError(fmt.Sprintf("history: %s", err))
		}
	}

	elapsed := time.Since(start)
	w.stats.Record(elapsed, res.Pages)
	job.SetReport(r)
	log.Info("validation complete",
		"pages", res.Pages,
		"violations", len(r.Violations),
		"duration_ms", elapsed.Milliseconds(),
	)
	return r, nil
}

func (w *Worker) fail(job *Job, phase string, start time.Time, err error) error {
	w.stats.RecordFailure(time.Since(start))
	job.Fail(phase, err)
	return err
}

// save writes r to the history, retrying while the database is locked.
func (w *Worker) save(ctx context.Context, log *slog.Logger, r *report.Report) error {
	var lastErr error
	for attempt := range MaxRetries {
		lastErr = w.history.Save(ctx, r)
		if lastErr == nil || !IsRetryable(lastErr) {
			return lastErr
		}
		log.Warn("retryable history error", "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}
