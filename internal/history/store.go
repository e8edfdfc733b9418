// Package history keeps a SQLite ledger of finished scan runs.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harrison/filescan/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a run ID has no record.
var ErrNotFound = errors.New("run not found")

// Store manages the run history database
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens the database at dbPath, creating it and its parent
// directory if needed, and applies pending migrations.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == ":memory:" {
		return openAndInitStore(dbPath)
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	return openAndInitStore(dbPath)
}

func openAndInitStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// An in-memory database exists per connection
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// busy_timeout first so the rest wait on locks held by a concurrent scan
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	store := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if err := store.ApplyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return store, nil
}

// execWithRetry executes a SQL statement with exponential backoff retry on lock errors.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}

		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}

		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Path returns the database path the store was opened with.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordRun inserts a finished run and sets rec.ID.
func (s *Store) RecordRun(ctx context.Context, rec *models.RunRecord) error {
	if rec.RunID == "" {
		return fmt.Errorf("run id is required")
	}

	prefixMode := rec.PrefixMode
	if prefixMode == "" {
		prefixMode = "anchored"
	}

	fileTypesJSON := "[]"
	if len(rec.FileTypes) > 0 {
		data, err := json.Marshal(rec.FileTypes)
		if err != nil {
			return fmt.Errorf("marshal file types: %w", err)
		}
		fileTypesJSON = string(data)
	}

	query := `INSERT INTO scan_runs
		(run_id, root, prefix, prefix_mode, file_types, output, files, directories, list_errors, encode_errors, workers, duration_ms, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := s.db.ExecContext(ctx, query,
		rec.RunID,
		rec.Root,
		rec.Prefix,
		prefixMode,
		fileTypesJSON,
		rec.Output,
		rec.Files,
		rec.Directories,
		rec.ListErrors,
		rec.EncodeErrors,
		rec.Workers,
		rec.DurationMs,
		rec.StartedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert scan run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	rec.ID = id

	return nil
}

const selectRunColumns = `SELECT id, run_id, root, prefix, prefix_mode, file_types, output, files, directories, list_errors, encode_errors, workers, duration_ms, started_at
	FROM scan_runs`

// ListRuns returns the most recent runs first. A limit <= 0 returns every run.
// A non-empty root restricts the list to scans of that directory.
func (s *Store) ListRuns(ctx context.Context, root string, limit int) ([]*models.RunRecord, error) {
	query := selectRunColumns
	var args []any
	if root != "" {
		query += ` WHERE root = ?`
		args = append(args, root)
	}
	query += ` ORDER BY started_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query scan runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scan runs: %w", err)
	}

	return runs, nil
}

// GetRun returns the run with the given run ID, or ErrNotFound.
func (s *Store) GetRun(ctx context.Context, runID string) (*models.RunRecord, error) {
	row := s.db.QueryRowContext(ctx, selectRunColumns+` WHERE run_id = ?`, runID)
	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	return rec, err
}

// CountRuns returns the number of recorded runs.
func (s *Store) CountRuns(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scan_runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count scan runs: %w", err)
	}
	return n, nil
}

// PruneBefore deletes runs that started before cutoff and returns how many were removed.
func (s *Store) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM scan_runs WHERE started_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete old scan runs: %w", err)
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*models.RunRecord, error) {
	rec := &models.RunRecord{}
	var fileTypesJSON string
	err := row.Scan(
		&rec.ID,
		&rec.RunID,
		&rec.Root,
		&rec.Prefix,
		&rec.PrefixMode,
		&fileTypesJSON,
		&rec.Output,
		&rec.Files,
		&rec.Directories,
		&rec.ListErrors,
		&rec.EncodeErrors,
		&rec.Workers,
		&rec.DurationMs,
		&rec.StartedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run row: %w", err)
	}

	if fileTypesJSON != "" && fileTypesJSON != "[]" {
		if err := json.Unmarshal([]byte(fileTypesJSON), &rec.FileTypes); err != nil {
			return nil, fmt.Errorf("unmarshal file types: %w", err)
		}
	}
	return rec, nil
}
