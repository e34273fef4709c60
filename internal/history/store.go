// Package history records batch runs and their per-item outcomes in SQLite.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"menucast/internal/backoff"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes incompatibly.
const schemaVersion = 1

// FileName is the database file name under the state directory.
const FileName = "history.db"

// ErrSchemaMismatch indicates the database was created by an incompatible version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

const (
	sqliteBusyCode    = 5
	busyRetryAttempts = 5
)

var busyBackoff = &backoff.Config{Initial: 10 * time.Millisecond, Max: 200 * time.Millisecond}

// Run is one recorded batch.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	BatchSize  int
	Attempted  int
	Succeeded  int
	Failed     int
	ReportPath string
	Items      []ItemOutcome
}

// ItemOutcome is the result of one slug within a run.
type ItemOutcome struct {
	Slug        string
	OK          bool
	DurationSec float64
	Detail      string
}

// Store wraps the history database.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or connects to the history database in stateDir.
func Open(stateDir string) (*Store, error) {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure state dir: %w", err)
	}
	dbPath := filepath.Join(stateDir, FileName)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset history)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// RecordRun stores a run and its item outcomes in one transaction.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("run id is required")
	}
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin run tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO batch_runs (run_id, started_at, finished_at, batch_size, attempted, succeeded, failed, report_path)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID,
			run.StartedAt.UTC().Format(time.RFC3339Nano),
			run.FinishedAt.UTC().Format(time.RFC3339Nano),
			run.BatchSize,
			run.Attempted,
			run.Succeeded,
			run.Failed,
			nullableString(run.ReportPath),
		); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		for _, item := range run.Items {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO run_items (run_id, slug, ok, duration_sec, detail) VALUES (?, ?, ?, ?, ?)`,
				run.ID, item.Slug, boolToInt(item.OK), item.DurationSec, nullableString(item.Detail),
			); err != nil {
				return fmt.Errorf("insert run item %s: %w", item.Slug, err)
			}
		}
		return tx.Commit()
	})
}

// RecentRuns returns up to limit runs, newest first, with their items.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, started_at, finished_at, batch_size, attempted, succeeded, failed, report_path
         FROM batch_runs ORDER BY started_at DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run        Run
			started    string
			finished   string
			reportPath sql.NullString
		)
		if err := rows.Scan(&run.ID, &started, &finished, &run.BatchSize, &run.Attempted, &run.Succeeded, &run.Failed, &reportPath); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if run.StartedAt, err = parseTimeString(started); err != nil {
			return nil, err
		}
		if run.FinishedAt, err = parseTimeString(finished); err != nil {
			return nil, err
		}
		run.ReportPath = reportPath.String
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range runs {
		items, err := s.runItems(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Items = items
	}
	return runs, nil
}

// SlugHistory returns the most recent outcomes recorded for slug, newest first.
func (s *Store) SlugHistory(ctx context.Context, slug string, limit int) ([]ItemOutcome, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT i.slug, i.ok, i.duration_sec, i.detail
         FROM run_items i JOIN batch_runs r ON r.run_id = i.run_id
         WHERE i.slug = ? ORDER BY r.started_at DESC LIMIT ?`, slug, limit)
	if err != nil {
		return nil, fmt.Errorf("query slug history: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

func (s *Store) runItems(ctx context.Context, runID string) ([]ItemOutcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT slug, ok, duration_sec, detail FROM run_items WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run items: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

func scanItems(rows *sql.Rows) ([]ItemOutcome, error) {
	var items []ItemOutcome
	for rows.Next() {
		var (
			item   ItemOutcome
			ok     int
			detail sql.NullString
		)
		if err := rows.Scan(&item.Slug, &ok, &item.DurationSec, &detail); err != nil {
			return nil, fmt.Errorf("scan run item: %w", err)
		}
		item.OK = ok != 0
		item.Detail = detail.String
		items = append(items, item)
	}
	return items, rows.Err()
}
