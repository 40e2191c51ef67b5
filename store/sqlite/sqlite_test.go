package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-export/generic"
	"github.com/warp/payroll-export/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func january() generic.Period {
	return generic.Period{
		Start: generic.NewTimePoint(2025, time.January, 11),
		End:   generic.NewTimePoint(2025, time.February, 10),
	}
}

func run(id string, p generic.Period, at time.Time) generic.ExportRun {
	return generic.ExportRun{
		ID:            generic.RunID(id),
		Period:        p,
		GeneratedAt:   at,
		Trigger:       generic.TriggerAPI,
		EmployeeCount: 3,
		TotalPay:      generic.GBP(decimal.RequireFromString("3423.39")),
		TotalHours:    generic.Hours(decimal.RequireFromString("44")),
		OvertimeRate:  generic.GBP(decimal.RequireFromString("12.21")),
		Digest:        "abc123",
		Filename:      "payroll_export_20250111_20250210.xlsx",
	}
}

func TestAppendAndGet(t *testing.T) {
	// GIVEN: a run with two warnings
	s := newStore(t)
	ctx := context.Background()
	at := time.Date(2025, 2, 11, 6, 0, 0, 0, time.UTC)
	r := run("r1", january(), at)
	r.Warnings = []string{"second", "first"}

	// WHEN: it is appended and read back
	require.NoError(t, s.AppendRun(ctx, r))
	got, err := s.GetRun(ctx, "r1")

	// THEN: every field survives, warnings keep their order
	require.NoError(t, err)
	assert.Equal(t, generic.RunID("r1"), got.ID)
	assert.True(t, got.Period.Start.Equal(january().Start))
	assert.True(t, got.Period.End.Equal(january().End))
	assert.True(t, got.GeneratedAt.Equal(at))
	assert.Equal(t, generic.TriggerAPI, got.Trigger)
	assert.Equal(t, 3, got.EmployeeCount)
	assert.Equal(t, "3423.39", got.TotalPay.Value.StringFixed(2))
	assert.Equal(t, generic.UnitGBP, got.TotalPay.Unit)
	assert.Equal(t, "44.00", got.TotalHours.Value.StringFixed(2))
	assert.Equal(t, "12.21", got.OvertimeRate.Value.StringFixed(2))
	assert.Equal(t, "abc123", got.Digest)
	assert.Equal(t, "payroll_export_20250111_20250210.xlsx", got.Filename)
	assert.Equal(t, []string{"second", "first"}, got.Warnings)
}

func TestGetRun_NotFound(t *testing.T) {
	s := newStore(t)

	_, err := s.GetRun(context.Background(), "missing")

	assert.ErrorIs(t, err, generic.ErrRunNotFound)
}

func TestAppendRun_RepeatedIDKeepsFirst(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	first := run("r1", january(), time.Date(2025, 2, 11, 6, 0, 0, 0, time.UTC))
	second := first
	second.Digest = "other"
	second.Warnings = []string{"late"}

	require.NoError(t, s.AppendRun(ctx, first))
	require.NoError(t, s.AppendRun(ctx, second))

	got, err := s.GetRun(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "abc123", got.Digest)
	assert.Empty(t, got.Warnings)

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestListRuns_NewestFirstWithLimit(t *testing.T) {
	// GIVEN: three runs appended out of time order
	s := newStore(t)
	ctx := context.Background()
	base := time.Date(2025, 2, 11, 6, 0, 0, 0, time.UTC)
	require.NoError(t, s.AppendRun(ctx, run("b", january(), base.Add(time.Hour))))
	require.NoError(t, s.AppendRun(ctx, run("a", january(), base)))
	require.NoError(t, s.AppendRun(ctx, run("c", january(), base.Add(2*time.Hour))))

	// WHEN / THEN
	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []generic.RunID{"c", "b", "a"}, []generic.RunID{runs[0].ID, runs[1].ID, runs[2].ID})

	limited, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
	assert.Equal(t, generic.RunID("c"), limited[0].ID)
}

func TestLatestForPeriod(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	feb := generic.Period{
		Start: generic.NewTimePoint(2025, time.February, 11),
		End:   generic.NewTimePoint(2025, time.March, 10),
	}
	base := time.Date(2025, 2, 11, 6, 0, 0, 0, time.UTC)
	require.NoError(t, s.AppendRun(ctx, run("jan-1", january(), base)))
	require.NoError(t, s.AppendRun(ctx, run("jan-2", january(), base.Add(time.Hour))))
	require.NoError(t, s.AppendRun(ctx, run("feb-1", feb, base.Add(2*time.Hour))))

	got, err := s.LatestForPeriod(ctx, january().Start)
	require.NoError(t, err)
	assert.Equal(t, generic.RunID("jan-2"), got.ID)

	_, err = s.LatestForPeriod(ctx, generic.NewTimePoint(2025, time.March, 11))
	assert.ErrorIs(t, err, generic.ErrRunNotFound)
}

func TestNew_FileSurvivesReopen(t *testing.T) {
	// GIVEN: a run written to a file database
	path := filepath.Join(t.TempDir(), "ledger.db")
	s, err := sqlite.New(path)
	require.NoError(t, err)
	require.NoError(t, s.AppendRun(context.Background(), run("r1", january(), time.Now().UTC())))
	require.NoError(t, s.Close())

	// WHEN: the file is opened again
	reopened, err := sqlite.New(path)
	require.NoError(t, err)
	defer reopened.Close()

	// THEN: the run is still there
	got, err := reopened.GetRun(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "abc123", got.Digest)
}

func TestGetRun_MalformedAmountIsAnError(t *testing.T) {
	// GIVEN: a ledger file whose stored total was altered outside the store
	path := filepath.Join(t.TempDir(), "ledger.db")
	s, err := sqlite.New(path)
	require.NoError(t, err)
	require.NoError(t, s.AppendRun(context.Background(), run("r1", january(), time.Now().UTC())))
	require.NoError(t, s.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE export_runs SET total_pay = 'n/a' WHERE id = 'r1'`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// WHEN: the run is read back
	reopened, err := sqlite.New(path)
	require.NoError(t, err)
	defer reopened.Close()
	_, err = reopened.GetRun(context.Background(), "r1")

	// THEN: the read fails instead of reporting a zero total
	require.Error(t, err)
	assert.Contains(t, err.Error(), "n/a")
}
