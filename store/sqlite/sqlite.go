/*
Package sqlite provides a SQLite-backed implementation of generic.RunLedger.

PURPOSE:
  Keeps the history of export runs across restarts of the server, the CLI
  and the queue worker. All three open the same file.

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on export_runs
  - No DELETE statements on export_runs
  - A repeated run ID is ignored, the first write wins

KEY TABLES:
  export_runs:  One row per run (period, trigger, totals, digest, file name)
  run_warnings: Warnings of a run, in the order they were raised

INDEXES:
  - idx_export_runs_period: LatestForPeriod (scheduler hot path)
  - idx_export_runs_generated: ListRuns

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite's own locking.

WAL MODE:
  Opened with WAL so the worker and the server can share the file.

USAGE:
  ledger, err := sqlite.New("./data/payroll.db")
  if err != nil {
      log.Fatal(err)
  }
  defer ledger.Close()

SEE ALSO:
  - generic/ledger.go: Interface definition
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-export/generic"
)

// Store implements generic.RunLedger using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (and migrates) the database at dbPath.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Export runs (append-only ledger)
	CREATE TABLE IF NOT EXISTS export_runs (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		generated_at TEXT NOT NULL,
		trigger_source TEXT NOT NULL,
		employee_count INTEGER NOT NULL,
		total_pay TEXT NOT NULL,
		total_hours TEXT NOT NULL,
		overtime_rate TEXT NOT NULL,
		digest TEXT NOT NULL,
		filename TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_export_runs_period
		ON export_runs(period_start, generated_at);
	CREATE INDEX IF NOT EXISTS idx_export_runs_generated
		ON export_runs(generated_at);

	CREATE TABLE IF NOT EXISTS run_warnings (
		run_id TEXT NOT NULL REFERENCES export_runs(id),
		position INTEGER NOT NULL,
		message TEXT NOT NULL,
		PRIMARY KEY (run_id, position)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// WRITE
// =============================================================================

// AppendRun records a run and its warnings atomically.
func (s *Store) AppendRun(ctx context.Context, run generic.ExportRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO export_runs
		(id, period_start, period_end, generated_at, trigger_source, employee_count,
		 total_pay, total_hours, overtime_rate, digest, filename)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		string(run.ID),
		run.Period.Start.String(),
		run.Period.End.String(),
		run.GeneratedAt.UTC().Format(time.RFC3339),
		string(run.Trigger),
		run.EmployeeCount,
		run.TotalPay.Value.StringFixed(2),
		run.TotalHours.Value.StringFixed(2),
		run.OvertimeRate.Value.StringFixed(2),
		run.Digest,
		nullString(run.Filename),
	)
	if err != nil {
		return fmt.Errorf("failed to append run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}

	for i, w := range run.Warnings {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO run_warnings (run_id, position, message) VALUES (?, ?, ?)",
			string(run.ID), i, w,
		); err != nil {
			return fmt.Errorf("failed to append warning: %w", err)
		}
	}

	return tx.Commit()
}

// =============================================================================
// READ
// =============================================================================

const runColumns = `
	id, period_start, period_end, generated_at, trigger_source, employee_count,
	total_pay, total_hours, overtime_rate, digest, filename`

func (s *Store) GetRun(ctx context.Context, id generic.RunID) (generic.ExportRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs, err := s.queryRuns(ctx, "SELECT"+runColumns+" FROM export_runs WHERE id = ?", string(id))
	if err != nil {
		return generic.ExportRun{}, err
	}
	if len(runs) == 0 {
		return generic.ExportRun{}, generic.ErrRunNotFound
	}
	return runs[0], nil
}

// ListRuns returns newest first, at most limit (0 = all).
func (s *Store) ListRuns(ctx context.Context, limit int) ([]generic.ExportRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT" + runColumns + " FROM export_runs ORDER BY generated_at DESC, seq DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return s.queryRuns(ctx, query, args...)
}

// LatestForPeriod returns the newest run for the period starting on start.
func (s *Store) LatestForPeriod(ctx context.Context, start generic.TimePoint) (generic.ExportRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs, err := s.queryRuns(ctx, "SELECT"+runColumns+`
		FROM export_runs
		WHERE period_start = ?
		ORDER BY generated_at DESC, seq DESC
		LIMIT 1`, start.String())
	if err != nil {
		return generic.ExportRun{}, err
	}
	if len(runs) == 0 {
		return generic.ExportRun{}, generic.ErrRunNotFound
	}
	return runs[0], nil
}

func (s *Store) queryRuns(ctx context.Context, query string, args ...any) ([]generic.ExportRun, error) {
	runs, err := s.scanRuns(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	// Rows are closed by now: an in-memory database has a single connection.
	for i := range runs {
		if runs[i].Warnings, err = s.warnings(ctx, runs[i].ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (s *Store) scanRuns(ctx context.Context, query string, args ...any) ([]generic.ExportRun, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []generic.ExportRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *Store) warnings(ctx context.Context, id generic.RunID) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT message FROM run_warnings WHERE run_id = ? ORDER BY position ASC", string(id))
	if err != nil {
		return nil, fmt.Errorf("failed to query warnings: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var msg string
		if err := rows.Scan(&msg); err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

func scanRun(rows *sql.Rows) (generic.ExportRun, error) {
	var (
		run                      generic.ExportRun
		id, trigger              string
		periodStart, periodEnd   string
		generatedAt              string
		totalPay, totalHours, ot string
		filename                 sql.NullString
	)

	err := rows.Scan(
		&id, &periodStart, &periodEnd, &generatedAt, &trigger, &run.EmployeeCount,
		&totalPay, &totalHours, &ot, &run.Digest, &filename,
	)
	if err != nil {
		return run, fmt.Errorf("failed to scan run: %w", err)
	}

	run.ID = generic.RunID(id)
	run.Trigger = generic.RunTrigger(trigger)
	if run.Period.Start, err = generic.ParseDate(periodStart); err != nil {
		return run, err
	}
	if run.Period.End, err = generic.ParseDate(periodEnd); err != nil {
		return run, err
	}
	run.GeneratedAt, _ = time.Parse(time.RFC3339, generatedAt)
	if run.TotalPay, err = parseAmount(totalPay, generic.UnitGBP); err != nil {
		return run, err
	}
	if run.TotalHours, err = parseAmount(totalHours, generic.UnitHours); err != nil {
		return run, err
	}
	if run.OvertimeRate, err = parseAmount(ot, generic.UnitGBP); err != nil {
		return run, err
	}
	run.Filename = filename.String

	return run, nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func parseAmount(value string, unit generic.Unit) (generic.Amount, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return generic.Amount{}, fmt.Errorf("failed to parse stored amount %q: %w", value, err)
	}
	return generic.Amount{Value: d, Unit: unit}, nil
}

var _ generic.RunLedger = (*Store)(nil)
