// File path: internal/catalog/store.go

// Package catalog records analysis runs in a local SQLite database. The
// pipeline itself stays stateless; the catalog observes runs from the outside
// for operational history.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/mjharlow/reglens/internal/pipeline"
)

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCanceled  = "canceled"
)

// Run is one recorded analysis request.
type Run struct {
	ID          string     `db:"id" json:"id"`
	TextLength  int        `db:"text_length" json:"text_length"`
	Status      string     `db:"status" json:"status"`
	Events      int        `db:"events" json:"events"`
	Regulations int        `db:"regulations" json:"regulations"`
	Articles    int        `db:"articles" json:"articles"`
	Documents   int        `db:"documents" json:"documents"`
	Citations   int        `db:"citations" json:"citations"`
	Errors      int        `db:"errors" json:"errors"`
	StartedAt   time.Time  `db:"started_at" json:"started_at"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// Store wraps a pooled sqlx.DB connection to the SQLite catalog.
type Store struct {
	db *sqlx.DB
}

// Open constructs a Store backed by the SQLite database at the provided path.
// The schema is migrated on first use.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("catalog path required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve catalog path: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", abs)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	db.SetMaxOpenConns(1)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping catalog: %w", err)
	}
	store := &Store{db: db}
	if err := store.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the underlying database resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS analysis_runs (
    id           TEXT PRIMARY KEY,
    text_length  INTEGER NOT NULL,
    status       TEXT NOT NULL,
    events       INTEGER NOT NULL DEFAULT 0,
    regulations  INTEGER NOT NULL DEFAULT 0,
    articles     INTEGER NOT NULL DEFAULT 0,
    documents    INTEGER NOT NULL DEFAULT 0,
    citations    INTEGER NOT NULL DEFAULT 0,
    errors       INTEGER NOT NULL DEFAULT 0,
    started_at   TIMESTAMP NOT NULL,
    completed_at TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_analysis_runs_started_at ON analysis_runs(started_at);`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate catalog: %w", err)
	}
	return nil
}

// StartRun records the beginning of an analysis run.
func (s *Store) StartRun(ctx context.Context, id string, textLength int) error {
	if s == nil || s.db == nil {
		return nil
	}
	const query = `INSERT INTO analysis_runs (id, text_length, status, started_at) VALUES (?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, id, textLength, StatusRunning, time.Now().UTC()); err != nil {
		return fmt.Errorf("record run start: %w", err)
	}
	return nil
}

// FinishRun records the outcome of an analysis run.
func (s *Store) FinishRun(ctx context.Context, id, status string, stats pipeline.Stats) error {
	if s == nil || s.db == nil {
		return nil
	}
	const query = `UPDATE analysis_runs
SET status = ?, events = ?, regulations = ?, articles = ?, documents = ?, citations = ?, errors = ?, completed_at = ?
WHERE id = ?`
	_, err := s.db.ExecContext(ctx, query,
		status, stats.Events, stats.Regulations, stats.Articles, stats.Documents, stats.Citations, stats.Errors,
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("record run finish: %w", err)
	}
	return nil
}

// RecentRuns returns the most recent runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	const query = `SELECT id, text_length, status, events, regulations, articles, documents, citations, errors, started_at, completed_at
FROM analysis_runs ORDER BY started_at DESC, id DESC LIMIT ?`
	var runs []Run
	if err := s.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	return runs, nil
}
