// Package runlog keeps a history of pipeline runs in SQLite for the status
// command. It is reporting infrastructure only: the resumability source of
// truth is the per-stage state snapshot, never this database.
package runlog

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped when the schema changes; an old database is
// reported, not migrated, since the history is disposable.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by a different
// version.
var ErrSchemaMismatch = errors.New("run history schema version mismatch")

// Store manages run history persistence.
type Store struct {
	db   *sql.DB
	path string
}

// Run is one recorded pipeline run.
type Run struct {
	ID         string
	Stage      string
	StartedAt  time.Time
	FinishedAt *time.Time
	Completed  int
	Failed     int
	Synced     int
	Outcome    string
}

// Open initializes or connects to the run history database.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return nil
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

// Begin records the start of a run.
func (s *Store) Begin(ctx context.Context, id, stage string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (id, stage, started_at) VALUES (?, ?, ?)",
		id, stage, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Finish records the final tallies and outcome of a run.
func (s *Store) Finish(ctx context.Context, id string, completed, failed, synced int, outcome string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE runs SET finished_at = ?, completed = ?, failed = ?, synced = ?, outcome = ? WHERE id = ?",
		time.Now().UTC().Format(time.RFC3339Nano), completed, failed, synced, outcome, id)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

// Recent returns the most recently started runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, stage, started_at, finished_at, completed, failed, synced, outcome
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run        Run
			startedAt  string
			finishedAt sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.Stage, &startedAt, &finishedAt,
			&run.Completed, &run.Failed, &run.Synced, &run.Outcome); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		if finishedAt.Valid {
			if parsed, err := time.Parse(time.RFC3339Nano, finishedAt.String); err == nil {
				run.FinishedAt = &parsed
			}
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
