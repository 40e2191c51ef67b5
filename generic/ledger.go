/*
ledger.go - Append-only history of export runs

PURPOSE:
  Every export that leaves the system is recorded: which period, when, by
  which trigger, how many employees, the payroll total and the digest of the
  computed records. The history answers "what did we send to payroll for
  January?" and lets a re-run be compared with an earlier one.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete.
  2. IMMUTABLE: a run is written once, after its artifacts were rendered.
  3. COMPARABLE: two runs with the same Digest computed identical records.

SEE ALSO:
  - generic/store/memory.go: In-memory implementation
  - store/sqlite/sqlite.go: SQLite implementation
  - payroll/digest.go: How Digest is derived
*/
package generic

import (
	"context"
	"time"
)

// RunID identifies one export run.
type RunID string

// RunTrigger records what started a run.
type RunTrigger string

const (
	TriggerAPI      RunTrigger = "api"
	TriggerCLI      RunTrigger = "cli"
	TriggerSchedule RunTrigger = "schedule"
	TriggerQueue    RunTrigger = "queue"
)

// ExportRun is one ledger entry.
type ExportRun struct {
	ID            RunID
	Period        Period
	GeneratedAt   time.Time
	Trigger       RunTrigger
	EmployeeCount int
	TotalPay      Amount
	TotalHours    Amount
	OvertimeRate  Amount
	Digest        string
	Filename      string
	Warnings      []string
}

// RunLedger persists export runs.
type RunLedger interface {
	// AppendRun records a run. This is the ONLY write operation.
	AppendRun(ctx context.Context, run ExportRun) error

	// GetRun returns one run or ErrRunNotFound.
	GetRun(ctx context.Context, id RunID) (ExportRun, error)

	// ListRuns returns the newest runs first, at most limit (0 = all).
	ListRuns(ctx context.Context, limit int) ([]ExportRun, error)

	// LatestForPeriod returns the newest run whose period starts on start,
	// or ErrRunNotFound.
	LatestForPeriod(ctx context.Context, start TimePoint) (ExportRun, error)
}
