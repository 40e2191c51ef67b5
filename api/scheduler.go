/*
scheduler.go - Automated period-close export

PURPOSE:
  Periodically checks whether the default pay period has closed and, if the
  run ledger holds no export for it yet, runs and records one. The queue
  worker offers the same through an Asynq cron entry; this scheduler serves
  deployments without Redis.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Only closed periods are exported: today must be after the period end
  - Skips periods that already have a ledger entry, whatever the trigger
  - Disabled without a configured RotaCloud key

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active

USAGE:
  scheduler := NewPeriodCloseScheduler(pipeline, ledger, apiKey, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - jobs/worker.go: Queue-based equivalent
  - generic/ledger.go: LatestForPeriod
*/
package api

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/warp/payroll-export/export"
	"github.com/warp/payroll-export/generic"
	"github.com/warp/payroll-export/jobs"
	"github.com/warp/payroll-export/payroll"
	"github.com/warp/payroll-export/runner"
)

// PeriodCloseScheduler exports each pay period once after it closes.
type PeriodCloseScheduler struct {
	Runner        jobs.Executor
	Ledger        generic.RunLedger
	APIKey        string
	Defaults      func(generic.Period) payroll.RunRequest
	Location      *time.Location
	Formats       []export.Format
	OutputDir     string
	CheckInterval time.Duration
	Enabled       bool
	Logger        *slog.Logger
	Now           func() time.Time

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewPeriodCloseScheduler creates a scheduler, enabled when apiKey is set.
func NewPeriodCloseScheduler(exec jobs.Executor, ledger generic.RunLedger, apiKey string, logger *slog.Logger) *PeriodCloseScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PeriodCloseScheduler{
		Runner:        exec,
		Ledger:        ledger,
		APIKey:        apiKey,
		Defaults:      payroll.NewRunRequest,
		Location:      time.UTC,
		Formats:       []export.Format{export.FormatXLSX},
		CheckInterval: 1 * time.Hour,
		Enabled:       apiKey != "",
		Logger:        logger.With(slog.String("component", "scheduler")),
		Now:           time.Now,
		stop:          make(chan struct{}),
	}
}

// Start begins the scheduler.
func (s *PeriodCloseScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled || s.APIKey == "" {
		s.Logger.Info("period-close scheduler disabled")
		return
	}

	s.ticker = time.NewTicker(s.CheckInterval)
	s.wg.Add(1)

	go s.run()

	s.Logger.Info("period-close scheduler started", slog.Duration("interval", s.CheckInterval))
}

// Stop stops the scheduler.
func (s *PeriodCloseScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Stop()
		close(s.stop)
		s.wg.Wait()
		s.ticker = nil
		s.Logger.Info("period-close scheduler stopped")
	}
}

func (s *PeriodCloseScheduler) run() {
	defer s.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-s.stop
		cancel()
	}()

	// Run immediately on start
	s.check(ctx)

	for {
		select {
		case <-s.ticker.C:
			s.check(ctx)
		case <-s.stop:
			return
		}
	}
}

func (s *PeriodCloseScheduler) check(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil {
		s.Logger.Error("period-close export failed", slog.Any("error", err))
	}
}

// RunOnce performs one check. It returns the recorded run, or nil when
// nothing was due.
func (s *PeriodCloseScheduler) RunOnce(ctx context.Context) (*generic.ExportRun, error) {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	today := generic.DateOf(s.Now().In(loc))
	period := payroll.DefaultPeriod(today)

	if !today.After(period.End) {
		s.Logger.Debug("period still open", slog.String("period", period.Label()))
		return nil, nil
	}

	latest, err := s.Ledger.LatestForPeriod(ctx, period.Start)
	switch {
	case err == nil:
		s.Logger.Debug("period already exported",
			slog.String("period", period.Label()), slog.String("run_id", string(latest.ID)))
		return nil, nil
	case !errors.Is(err, generic.ErrRunNotFound):
		return nil, err
	}

	req := payroll.NewRunRequest(period)
	if s.Defaults != nil {
		req = s.Defaults(period)
	}
	out, err := s.Runner.Execute(ctx, runner.Job{
		Request: req,
		APIKey:  s.APIKey,
		Trigger: generic.TriggerSchedule,
		Formats: s.Formats,
		Record:  true,
	})
	if err != nil {
		return nil, err
	}

	if s.OutputDir != "" {
		if _, err := runner.WriteArtifacts(s.OutputDir, out.Artifacts); err != nil {
			return &out.Run, err
		}
	}
	s.Logger.Info("period exported",
		slog.String("period", period.Label()),
		slog.String("run_id", string(out.Run.ID)),
		slog.Int("warnings", len(out.Run.Warnings)))
	return &out.Run, nil
}
