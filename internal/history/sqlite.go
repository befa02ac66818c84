// Package history stores completed search runs and their ranked solutions in
// a local SQLite database so results can be compared across catalogs and
// parameter changes.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/papapumpkin/acreage/internal/allocation"
)

// ErrRunNotFound is returned by GetRun when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// schema contains the DDL executed on first open. Using IF NOT EXISTS makes
// it safe to run on every startup.
const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id              TEXT PRIMARY KEY,
    started_at      TEXT NOT NULL,
    catalog         TEXT NOT NULL,
    total_acres     REAL NOT NULL,
    max_growth_time INTEGER NOT NULL,
    horizon_days    INTEGER NOT NULL,
    min_allocation  REAL NOT NULL,
    pairs           INTEGER NOT NULL,
    skipped         INTEGER NOT NULL,
    discarded       INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS solutions (
    run_id         TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    rank           INTEGER NOT NULL,
    crop1          TEXT NOT NULL,
    crop2          TEXT NOT NULL,
    acres_crop1    REAL NOT NULL,
    acres_crop2    REAL NOT NULL,
    harvests_crop1 INTEGER NOT NULL,
    harvests_crop2 INTEGER NOT NULL,
    total_profit   REAL NOT NULL,
    PRIMARY KEY (run_id, rank)
);
`

// Run is one recorded search: its inputs, pair counts, and ranked solutions.
type Run struct {
	ID        string
	StartedAt time.Time
	Catalog   string
	Params    allocation.Params
	Pairs     int
	Skipped   int
	Discarded int
	Ranked    []allocation.Solution
}

// Store persists runs in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path, enables WAL mode and busy
// timeout, and creates the schema tables if they do not exist.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}

	// One connection: PRAGMAs are per connection and SQLite has a single writer.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("history: %s: %w", p, err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun records run and its ranked solutions in a single transaction. A
// missing ID is filled with a new UUID and a zero StartedAt with the current
// time. It returns the stored run ID.
func (s *Store) SaveRun(ctx context.Context, run Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("history: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	const insertRun = `
		INSERT INTO runs (id, started_at, catalog, total_acres, max_growth_time,
		                  horizon_days, min_allocation, pairs, skipped, discarded)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, insertRun,
		run.ID, run.StartedAt.UTC().Format(time.RFC3339Nano), run.Catalog,
		run.Params.TotalAcres, run.Params.MaxGrowthTime, run.Params.HorizonDays, run.Params.MinAllocation,
		run.Pairs, run.Skipped, run.Discarded)
	if err != nil {
		return "", fmt.Errorf("history: insert run %s: %w", run.ID, err)
	}

	const insertSolution = `
		INSERT INTO solutions (run_id, rank, crop1, crop2, acres_crop1, acres_crop2,
		                       harvests_crop1, harvests_crop2, total_profit)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := tx.PrepareContext(ctx, insertSolution)
	if err != nil {
		return "", fmt.Errorf("history: prepare solution insert: %w", err)
	}
	defer stmt.Close()

	for i, sol := range run.Ranked {
		_, err := stmt.ExecContext(ctx, run.ID, i+1, sol.Crop1, sol.Crop2,
			sol.Acres1, sol.Acres2, sol.Harvests1, sol.Harvests2, sol.TotalProfit)
		if err != nil {
			return "", fmt.Errorf("history: insert solution %d of run %s: %w", i+1, run.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("history: commit run %s: %w", run.ID, err)
	}
	return run.ID, nil
}

// ListRuns returns up to limit runs, newest first, without their solutions.
// A non-positive limit returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	q := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("history: list runs: %w", err)
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: list runs: %w", err)
	}
	return runs, nil
}

// GetRun returns the run with the given ID including its ranked solutions.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("history: %w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, err
	}

	const q = `
		SELECT crop1, crop2, acres_crop1, acres_crop2, harvests_crop1, harvests_crop2, total_profit
		FROM solutions WHERE run_id = ? ORDER BY rank`
	rows, err := s.db.QueryContext(ctx, q, id)
	if err != nil {
		return Run{}, fmt.Errorf("history: query solutions for %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var sol allocation.Solution
		if err := rows.Scan(&sol.Crop1, &sol.Crop2, &sol.Acres1, &sol.Acres2,
			&sol.Harvests1, &sol.Harvests2, &sol.TotalProfit); err != nil {
			return Run{}, fmt.Errorf("history: scan solution for %s: %w", id, err)
		}
		run.Ranked = append(run.Ranked, sol)
	}
	if err := rows.Err(); err != nil {
		return Run{}, fmt.Errorf("history: query solutions for %s: %w", id, err)
	}
	return run, nil
}

const runColumns = `id, started_at, catalog, total_acres, max_growth_time, horizon_days,
	min_allocation, pairs, skipped, discarded`

// scanner is the shared Scan method of *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run     Run
		started string
	)
	err := sc.Scan(&run.ID, &started, &run.Catalog,
		&run.Params.TotalAcres, &run.Params.MaxGrowthTime, &run.Params.HorizonDays, &run.Params.MinAllocation,
		&run.Pairs, &run.Skipped, &run.Discarded)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("history: scan run: %w", err)
	}
	run.StartedAt, err = time.Parse(time.RFC3339Nano, started)
	if err != nil {
		return Run{}, fmt.Errorf("history: parse started_at of run %s: %w", run.ID, err)
	}
	return run, nil
}
