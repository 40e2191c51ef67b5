package api_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-export/api"
	"github.com/warp/payroll-export/export"
	"github.com/warp/payroll-export/generic"
)

func newScheduler(ts *testServer, now time.Time) *api.PeriodCloseScheduler {
	s := api.NewPeriodCloseScheduler(ts.handler.Runner, ts.ledger, "good", nil)
	s.Now = func() time.Time { return now }
	return s
}

func TestPeriodCloseScheduler_ExportsClosedPeriodOnce(t *testing.T) {
	ts := newTestServer(t)
	dir := t.TempDir()

	// GIVEN: the January period closed on 10 Feb
	s := newScheduler(ts, time.Date(2025, 2, 15, 6, 0, 0, 0, time.UTC))
	s.OutputDir = dir
	assert.True(t, s.Enabled)

	// WHEN: the scheduler checks
	run, err := s.RunOnce(context.Background())

	// THEN: the period is exported and recorded
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, generic.TriggerSchedule, run.Trigger)
	assert.Equal(t, "2025-01-11", run.Period.Start.String())
	assert.Equal(t, "3306.81", run.TotalPay.Value.StringFixed(2))
	_, err = os.Stat(filepath.Join(dir, "payroll_export_20250111_20250210.xlsx"))
	assert.NoError(t, err)

	// AND: a second check finds the ledger entry
	again, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Nil(t, again)

	runs, err := ts.ledger.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestPeriodCloseScheduler_SkipsOpenPeriod(t *testing.T) {
	ts := newTestServer(t)

	// GIVEN: 5 Feb, the January period runs until 10 Feb
	s := newScheduler(ts, time.Date(2025, 2, 5, 6, 0, 0, 0, time.UTC))
	s.Formats = []export.Format{export.FormatCSV}

	run, err := s.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Nil(t, run)
	assert.Empty(t, ts.keys)
}

func TestPeriodCloseScheduler_DisabledWithoutKey(t *testing.T) {
	ts := newTestServer(t)
	s := api.NewPeriodCloseScheduler(ts.handler.Runner, ts.ledger, "", nil)

	assert.False(t, s.Enabled)
	s.Start()
	s.Stop()
}
