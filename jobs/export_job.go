package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-export/export"
	"github.com/warp/payroll-export/generic"
	"github.com/warp/payroll-export/payroll"
	"github.com/warp/payroll-export/runner"
)

// Executor runs one export job. *runner.Pipeline satisfies it.
type Executor interface {
	Execute(ctx context.Context, job runner.Job) (*runner.Outcome, error)
}

// ExportJob handles TaskExport.
type ExportJob struct {
	Runner    Executor
	APIKey    string
	Request   func(generic.Period) payroll.RunRequest // configured defaults for a period
	Location  *time.Location
	Formats   []export.Format
	OutputDir string // artifacts are written here when set
	Logger    *slog.Logger
	clock     func() time.Time
}

// NewExportJob constructs the job handler.
func NewExportJob(exec Executor, apiKey string, request func(generic.Period) payroll.RunRequest, loc *time.Location, logger *slog.Logger) *ExportJob {
	if loc == nil {
		loc = time.UTC
	}
	return &ExportJob{
		Runner:   exec,
		APIKey:   apiKey,
		Request:  request,
		Location: loc,
		Formats:  []export.Format{export.FormatXLSX},
		Logger:   logger,
		clock:    time.Now,
	}
}

// WithClock overrides the internal clock for deterministic tests.
func (j *ExportJob) WithClock(clock func() time.Time) {
	if j != nil && clock != nil {
		j.clock = clock
	}
}

// Handle executes the export task. Payload and configuration problems skip
// retries; upstream failures are retried by the queue.
func (j *ExportJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Runner == nil {
		return fmt.Errorf("payroll export: dependencies not configured: %w", asynq.SkipRetry)
	}
	var payload ExportPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	job, err := j.BuildJob(payload)
	if err != nil {
		j.log().Error("invalid export task", slog.Any("error", err))
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	out, err := j.Runner.Execute(ctx, job)
	if err != nil {
		j.log().Error("export failed", slog.String("period", job.Request.Period.Label()), slog.Any("error", err))
		if generic.IsConfigError(err) {
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		return err
	}

	if j.OutputDir != "" {
		paths, err := runner.WriteArtifacts(j.OutputDir, out.Artifacts)
		if err != nil {
			return err
		}
		j.log().Info("artifacts written", slog.Any("paths", paths))
	}
	return nil
}

// BuildJob turns a payload into a runner job.
func (j *ExportJob) BuildJob(payload ExportPayload) (runner.Job, error) {
	period, err := j.period(payload)
	if err != nil {
		return runner.Job{}, err
	}

	req := payroll.NewRunRequest(period)
	if j.Request != nil {
		req = j.Request(period)
	}
	if len(payload.Excluded) > 0 {
		req.ExcludedEmployees = make([]payroll.EmployeeID, len(payload.Excluded))
		for i, id := range payload.Excluded {
			req.ExcludedEmployees[i] = payroll.EmployeeID(id)
		}
	}
	if payload.OvertimeRate != "" {
		rate, err := decimal.NewFromString(payload.OvertimeRate)
		if err != nil {
			return runner.Job{}, fmt.Errorf("overtime rate %q: %w", payload.OvertimeRate, generic.ErrInvalidRequest)
		}
		req.OvertimeRate = rate
	}
	if err := req.Validate(); err != nil {
		return runner.Job{}, err
	}

	trigger := generic.RunTrigger(payload.Trigger)
	if trigger == "" {
		trigger = generic.TriggerQueue
	}
	return runner.Job{
		Request: req,
		APIKey:  j.APIKey,
		Trigger: trigger,
		Formats: j.Formats,
		Record:  true,
	}, nil
}

func (j *ExportJob) period(payload ExportPayload) (generic.Period, error) {
	if payload.Year == 0 && payload.Month == 0 {
		return payroll.DefaultPeriod(generic.DateOf(j.now().In(j.Location))), nil
	}
	return payroll.PeriodFor(payload.Year, time.Month(payload.Month))
}

func (j *ExportJob) log() *slog.Logger {
	if j != nil && j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskExport))
	}
	return slog.Default().With(slog.String("job", TaskExport))
}

func (j *ExportJob) now() time.Time {
	if j != nil && j.clock != nil {
		return j.clock()
	}
	return time.Now()
}
