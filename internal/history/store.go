// Package history persists bulk-run outcomes in a local SQLite database so
// past runs can be listed after the process restarts. It is an optional
// sidecar: the pipeline never depends on it.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/imsansingh/llm-structured-data-extractor/internal/bulk"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	source      TEXT NOT NULL,
	started_at  TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	scanned     INTEGER NOT NULL,
	matched     INTEGER NOT NULL,
	succeeded   INTEGER NOT NULL,
	failed      INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS run_files (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	source_path TEXT NOT NULL,
	output_path TEXT,
	error       TEXT,
	reason      TEXT
);
CREATE INDEX IF NOT EXISTS idx_run_files_run_id ON run_files(run_id);
`

// Run is one persisted bulk run.
type Run struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Source     string    `json:"source"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Scanned    uint32    `json:"scanned"`
	Matched    uint32    `json:"matched"`
	Succeeded  uint32    `json:"succeeded"`
	Failed     uint32    `json:"failed"`
}

// FileOutcome is one persisted per-file result.
type FileOutcome struct {
	SourcePath string `json:"source_path"`
	OutputPath string `json:"output_path,omitempty"`
	Error      string `json:"error,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the history database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	logger.Info("history.open", "path", path)
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun implements bulk.Recorder.
func (s *Store) RecordRun(ctx context.Context, run bulk.RunRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, kind, source, started_at, finished_at, scanned, matched, succeeded, failed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, string(run.Kind), run.Source,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.Summary.Scanned, run.Summary.Matched, run.Summary.Succeeded, run.Summary.Failed,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, fr := range run.Summary.Results {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_files (run_id, source_path, output_path, error, reason)
			 VALUES (?, ?, ?, ?, ?)`,
			run.ID, fr.Source, fr.OutputPath, fr.Err, fr.Reason,
		)
		if err != nil {
			return fmt.Errorf("insert run file: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug("history.run_recorded", "run_id", run.ID, "files", len(run.Summary.Results))
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, source, started_at, finished_at, scanned, matched, succeeded, failed
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &r.Kind, &r.Source, &started, &finished,
			&r.Scanned, &r.Matched, &r.Succeeded, &r.Failed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListRunFiles returns the per-file outcomes of one run.
func (s *Store) ListRunFiles(ctx context.Context, runID string) ([]FileOutcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_path, output_path, error, reason FROM run_files WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run files: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []FileOutcome
	for rows.Next() {
		var f FileOutcome
		if err := rows.Scan(&f.SourcePath, &f.OutputPath, &f.Error, &f.Reason); err != nil {
			return nil, fmt.Errorf("scan run file: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
