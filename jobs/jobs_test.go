package jobs_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-export/export"
	"github.com/warp/payroll-export/generic"
	"github.com/warp/payroll-export/jobs"
	"github.com/warp/payroll-export/payroll"
	"github.com/warp/payroll-export/runner"
)

type stubExecutor struct {
	jobs []runner.Job
	err  error
}

func (s *stubExecutor) Execute(_ context.Context, job runner.Job) (*runner.Outcome, error) {
	s.jobs = append(s.jobs, job)
	if s.err != nil {
		return nil, s.err
	}
	return &runner.Outcome{Artifacts: []runner.Artifact{{
		Format:   export.FormatXLSX,
		Filename: export.Filename(job.Request.Period, export.FormatXLSX),
		Data:     []byte("xlsx"),
	}}}, nil
}

func defaults(p generic.Period) payroll.RunRequest {
	req := payroll.NewRunRequest(p)
	req.ExcludedEmployees = []payroll.EmployeeID{99}
	return req
}

func newJob(exec jobs.Executor) *jobs.ExportJob {
	j := jobs.NewExportJob(exec, "key-1", defaults, time.UTC, nil)
	j.WithClock(func() time.Time { return time.Date(2025, 2, 15, 6, 0, 0, 0, time.UTC) })
	return j
}

func task(t *testing.T, p jobs.ExportPayload) *asynq.Task {
	t.Helper()
	tk, err := jobs.NewExportTask(p)
	require.NoError(t, err)
	return tk
}

func TestNewExportTask(t *testing.T) {
	tk := task(t, jobs.ExportPayload{Year: 2025, Month: 1, Excluded: []int64{3}, OvertimeRate: "14.00"})

	assert.Equal(t, jobs.TaskExport, tk.Type())
	var back jobs.ExportPayload
	require.NoError(t, json.Unmarshal(tk.Payload(), &back))
	assert.Equal(t, 2025, back.Year)
	assert.Equal(t, []int64{3}, back.Excluded)
	assert.Equal(t, "14.00", back.OvertimeRate)
}

func TestHandle_DefaultPeriod(t *testing.T) {
	// GIVEN: an empty payload handled on 15 Feb 2025
	exec := &stubExecutor{}

	// WHEN
	err := newJob(exec).Handle(context.Background(), task(t, jobs.ExportPayload{}))

	// THEN: the January period (11 Jan - 10 Feb) is exported with configured defaults
	require.NoError(t, err)
	require.Len(t, exec.jobs, 1)
	job := exec.jobs[0]
	assert.Equal(t, "2025-01-11", job.Request.Period.Start.String())
	assert.Equal(t, "2025-02-10", job.Request.Period.End.String())
	assert.Equal(t, "key-1", job.APIKey)
	assert.Equal(t, generic.TriggerQueue, job.Trigger)
	assert.True(t, job.Record)
	assert.True(t, job.Request.Excludes(99))
}

func TestHandle_ExplicitPayloadOverridesDefaults(t *testing.T) {
	exec := &stubExecutor{}

	err := newJob(exec).Handle(context.Background(), task(t, jobs.ExportPayload{
		Year: 2024, Month: 12, Excluded: []int64{4}, OvertimeRate: "18.5", Trigger: "schedule",
	}))

	require.NoError(t, err)
	job := exec.jobs[0]
	assert.Equal(t, "2024-12-11", job.Request.Period.Start.String())
	assert.Equal(t, "2025-01-10", job.Request.Period.End.String())
	assert.True(t, job.Request.Excludes(4))
	assert.False(t, job.Request.Excludes(99))
	assert.Equal(t, "18.50", job.Request.OvertimeRate.StringFixed(2))
	assert.Equal(t, generic.TriggerSchedule, job.Trigger)
}

func TestHandle_BadInputSkipsRetry(t *testing.T) {
	cases := map[string]*asynq.Task{
		"malformed json": asynq.NewTask(jobs.TaskExport, []byte("{")),
		"invalid month":  task(t, jobs.ExportPayload{Year: 2025, Month: 13}),
		"bad rate":       task(t, jobs.ExportPayload{OvertimeRate: "lots"}),
		"negative rate":  task(t, jobs.ExportPayload{OvertimeRate: "-1"}),
	}
	for name, tk := range cases {
		t.Run(name, func(t *testing.T) {
			exec := &stubExecutor{}

			err := newJob(exec).Handle(context.Background(), tk)

			assert.True(t, errors.Is(err, asynq.SkipRetry))
			assert.Empty(t, exec.jobs)
		})
	}
}

func TestHandle_ExecutorErrors(t *testing.T) {
	// Missing credential cannot succeed on retry.
	exec := &stubExecutor{err: generic.ErrMissingCredential}
	err := newJob(exec).Handle(context.Background(), task(t, jobs.ExportPayload{}))
	assert.True(t, errors.Is(err, asynq.SkipRetry))

	// An unreachable platform may recover.
	exec = &stubExecutor{err: generic.ErrUpstreamUnavailable}
	err = newJob(exec).Handle(context.Background(), task(t, jobs.ExportPayload{}))
	assert.True(t, errors.Is(err, generic.ErrUpstreamUnavailable))
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestHandle_WritesArtifacts(t *testing.T) {
	dir := t.TempDir()
	j := newJob(&stubExecutor{})
	j.OutputDir = dir

	require.NoError(t, j.Handle(context.Background(), task(t, jobs.ExportPayload{Year: 2025, Month: 1})))

	data, err := os.ReadFile(filepath.Join(dir, "payroll_export_20250111_20250210.xlsx"))
	require.NoError(t, err)
	assert.Equal(t, "xlsx", string(data))
}

func TestHandle_NotConfigured(t *testing.T) {
	var j *jobs.ExportJob

	err := j.Handle(context.Background(), task(t, jobs.ExportPayload{}))

	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestNewWorker(t *testing.T) {
	mr := miniredis.RunT(t)
	opts := asynq.RedisClientOpt{Addr: mr.Addr()}
	monthly, err := jobs.MonthlyExport()
	require.NoError(t, err)
	assert.Equal(t, jobs.MonthlyCron, monthly.Spec)

	w, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: opts,
		Export:    newJob(&stubExecutor{}),
		Cron:      []jobs.CronRegistration{monthly},
		Location:  time.UTC,
	})
	require.NoError(t, err)
	assert.NotNil(t, w)

	_, err = jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: opts,
		Export:    newJob(&stubExecutor{}),
		Cron:      []jobs.CronRegistration{{Spec: "not a cron", Task: monthly.Task}},
	})
	assert.Error(t, err)

	_, err = jobs.NewWorker(jobs.WorkerConfig{RedisOpts: opts})
	assert.Error(t, err)
}
