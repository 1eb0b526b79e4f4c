// Package ledger persists organize-run bookkeeping in SQLite: one row per
// run plus the moved-file records that feed the tempo/key pass and the undo
// command. The pipeline itself never reads the ledger; it is written from run
// completion signals by the CLI layer.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrRunNotFound is returned when a run id has no ledger row.
var ErrRunNotFound = errors.New("run not found")

// Run describes one recorded organize run.
type Run struct {
	ID              string
	StartedAt       time.Time
	FinishedAt      time.Time
	SourceRoot      string
	DestinationRoot string
	Mode            string
	DryRun          bool
	Moved           int
	Skipped         int
	Duplicates      int
	Errors          int
}

// Move is one recorded relocation.
type Move struct {
	Src  string
	Dest string
}

// Store manages ledger persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id               TEXT PRIMARY KEY,
    started_at       TEXT NOT NULL,
    finished_at      TEXT,
    source_root      TEXT NOT NULL,
    destination_root TEXT NOT NULL,
    mode             TEXT NOT NULL,
    dry_run          INTEGER NOT NULL DEFAULT 0,
    moved_count      INTEGER NOT NULL DEFAULT 0,
    skipped_count    INTEGER NOT NULL DEFAULT 0,
    duplicate_count  INTEGER NOT NULL DEFAULT 0,
    error_count      INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS moves (
    id     INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    src    TEXT NOT NULL,
    dest   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_moves_run ON moves(run_id);
`

// Open initializes or connects to the ledger database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure ledger dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
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

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordRun inserts a completed run and its moves in one transaction.
func (s *Store) RecordRun(ctx context.Context, run Run, moves []Move) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (
            id, started_at, finished_at, source_root, destination_root,
            mode, dry_run, moved_count, skipped_count, duplicate_count, error_count
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.SourceRoot,
		run.DestinationRoot,
		run.Mode,
		boolToInt(run.DryRun),
		run.Moved,
		run.Skipped,
		run.Duplicates,
		run.Errors,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, move := range moves {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO moves (run_id, src, dest) VALUES (?, ?, ?)`,
			run.ID, move.Src, move.Dest,
		); err != nil {
			return fmt.Errorf("insert move: %w", err)
		}
	}

	return tx.Commit()
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, source_root, destination_root,
                mode, dry_run, moved_count, skipped_count, duplicate_count, error_count
         FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns a single run by id.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, finished_at, source_root, destination_root,
                mode, dry_run, moved_count, skipped_count, duplicate_count, error_count
         FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// LatestRun returns the most recent non-dry run, or ErrRunNotFound.
func (s *Store) LatestRun(ctx context.Context) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, finished_at, source_root, destination_root,
                mode, dry_run, moved_count, skipped_count, duplicate_count, error_count
         FROM runs WHERE dry_run = 0 ORDER BY started_at DESC LIMIT 1`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// Moves returns the relocation records for a run in insertion order.
func (s *Store) Moves(ctx context.Context, runID string) ([]Move, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT src, dest FROM moves WHERE run_id = ? ORDER BY id ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("query moves: %w", err)
	}
	defer rows.Close()

	var moves []Move
	for rows.Next() {
		var move Move
		if err := rows.Scan(&move.Src, &move.Dest); err != nil {
			return nil, fmt.Errorf("scan move: %w", err)
		}
		moves = append(moves, move)
	}
	return moves, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var started, finished string
	var dryRun int
	err := row.Scan(&run.ID, &started, &finished, &run.SourceRoot, &run.DestinationRoot,
		&run.Mode, &dryRun, &run.Moved, &run.Skipped, &run.Duplicates, &run.Errors)
	if err != nil {
		return Run{}, err
	}
	run.DryRun = dryRun != 0
	if run.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return Run{}, fmt.Errorf("parse started_at: %w", err)
	}
	if finished != "" {
		if run.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return Run{}, fmt.Errorf("parse finished_at: %w", err)
		}
	}
	return run, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
