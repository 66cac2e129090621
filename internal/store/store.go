// Package store keeps a SQLite history of validation runs.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/dgallion1/docstyle/internal/report"
)

var ErrNotFound = errors.New("run not found")

// IsBusy reports whether err is a transient SQLite lock error.
func IsBusy(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}

// timeLayout is fixed-width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Summary is one row of the run history.
type Summary struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Hash       string    `json:"hash"`
	Pages      int       `json:"pages"`
	Violations int       `json:"violations"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store is the run history database. It is safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the history database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite has a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, path: path}
	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		hash TEXT NOT NULL,
		pages INTEGER NOT NULL,
		violations INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	CREATE INDEX IF NOT EXISTS idx_runs_hash ON runs(hash);
	`
	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// Save records a report. Saving the same report ID twice replaces the row.
func (s *Store) Save(ctx context.Context, r *report.Report) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("serialize report: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
	INSERT INTO runs (id, filename, hash, pages, violations, created_at, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		filename = excluded.filename,
		hash = excluded.hash,
		pages = excluded.pages,
		violations = excluded.violations,
		created_at = excluded.created_at,
		report_json = excluded.report_json`,
		r.ID, r.Filename, r.Hash, r.Pages, len(r.Violations),
		r.CreatedAt.UTC().Format(timeLayout), string(data))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Get loads the full report of run id.
func (s *Store) Get(ctx context.Context, id string) (*report.Report, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT report_json FROM runs WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	var r report.Report
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", id, err)
	}
	return &r, nil
}

// List returns up to limit runs, newest first. A non-positive limit means 50.
func (s *Store) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, filename, hash, pages, violations, created_at
	FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()
	return scanSummaries(rows)
}

// FindByHash returns the runs of documents with the given content hash,
// newest first.
func (s *Store) FindByHash(ctx context.Context, hash string) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, filename, hash, pages, violations, created_at
	FROM runs WHERE hash = ? ORDER BY created_at DESC`, hash)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()
	return scanSummaries(rows)
}

func scanSummaries(rows *sql.Rows) ([]Summary, error) {
	out := []Summary{}
	for rows.Next() {
		var (
			sum     Summary
			created string
		)
		if err := rows.Scan(&sum.ID, &sum.Filename, &sum.Hash, &sum.Pages, &sum.Violations, &created); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		t, err := time.Parse(timeLayout, created)
		if err != nil {
			return nil, fmt.Errorf("parse created_at of %s: %w", sum.ID, err)
		}
		sum.CreatedAt = t
		out = append(out, sum)
	}
	return out, rows.Err()
}
