/*
Package runner wires one export run end to end. Every entry point (HTTP
server, CLI, queue worker, period-close scheduler) goes through it.

PURPOSE:
  1. Build a payroll.Source for the run (a fresh RotaCloud client, so the
     per-run memo starts empty, or a fixed demo source)
  2. Run the engine
  3. Render the requested formats
  4. Append the run to the ledger
  5. Record metrics

SEE ALSO:
  - payroll/engine.go: The computation
  - export/: Renditions
  - generic/ledger.go: Run history
*/
package runner

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/warp/payroll-export/export"
	"github.com/warp/payroll-export/generic"
	"github.com/warp/payroll-export/metrics"
	"github.com/warp/payroll-export/payroll"
	"github.com/warp/payroll-export/rotacloud"
)

// SourceFactory builds the source for one run from the caller's API key.
type SourceFactory func(apiKey string) (payroll.Source, error)

// RotaCloudSources returns a factory creating one client per run. Every
// client shares cfg, including the optional shared cache.
func RotaCloudSources(cfg rotacloud.Config) SourceFactory {
	return func(apiKey string) (payroll.Source, error) {
		c := cfg
		c.APIKey = apiKey
		return rotacloud.NewClient(c)
	}
}

// Pipeline holds the collaborators of a run. Safe for concurrent use as
// long as its collaborators are.
type Pipeline struct {
	Sources  SourceFactory
	Location *time.Location
	Ledger   generic.RunLedger
	Metrics  *metrics.Metrics
	Logger   *slog.Logger

	Now   func() time.Time
	NewID func() generic.RunID
}

func New(sources SourceFactory, loc *time.Location, ledger generic.RunLedger, m *metrics.Metrics, logger *slog.Logger) *Pipeline {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		Sources:  sources,
		Location: loc,
		Ledger:   ledger,
		Metrics:  m,
		Logger:   logger,
		Now:      time.Now,
		NewID:    func() generic.RunID { return generic.RunID(uuid.NewString()) },
	}
}

// Job is one export request.
type Job struct {
	Request payroll.RunRequest
	APIKey  string
	Trigger generic.RunTrigger
	Formats []export.Format
	Record  bool // append to the ledger
}

type Artifact struct {
	Format   export.Format
	Filename string
	Data     []byte
}

// Outcome is a completed job.
type Outcome struct {
	Run       generic.ExportRun
	Result    *payroll.Result
	Artifacts []Artifact
}

// Artifact returns the rendition in format f, if rendered.
func (o *Outcome) Artifact(f export.Format) (Artifact, bool) {
	for _, a := range o.Artifacts {
		if a.Format == f {
			return a, true
		}
	}
	return Artifact{}, false
}

// Preview runs the engine only. Nothing is rendered or recorded.
func (p *Pipeline) Preview(ctx context.Context, req payroll.RunRequest, apiKey string) (*payroll.Result, error) {
	src, err := p.source(apiKey)
	if err != nil {
		return nil, err
	}
	return p.engine(src).Run(ctx, req)
}

// PreviewWith runs the engine against a given source (demo data sets).
func (p *Pipeline) PreviewWith(ctx context.Context, src payroll.Source, req payroll.RunRequest) (*payroll.Result, error) {
	return p.engine(src).Run(ctx, req)
}

// Execute runs a job against the platform.
func (p *Pipeline) Execute(ctx context.Context, job Job) (*Outcome, error) {
	src, err := p.source(job.APIKey)
	if err != nil {
		return nil, err
	}
	return p.ExecuteWith(ctx, src, job)
}

// ExecuteWith runs a job against a given source (demo data sets).
func (p *Pipeline) ExecuteWith(ctx context.Context, src payroll.Source, job Job) (out *Outcome, err error) {
	tracker := p.Metrics.TrackRun(string(job.Trigger))
	defer func() {
		var warnings int
		var pay float64
		if out != nil {
			warnings = len(out.Result.Warnings)
			pay = out.Result.Summary.TotalPay.Float()
		}
		tracker.End(err, warnings, pay)
	}()

	res, err := p.engine(src).Run(ctx, job.Request)
	if err != nil {
		return nil, err
	}

	out = &Outcome{Result: res}
	for _, f := range job.Formats {
		var buf bytes.Buffer
		if err := export.Render(&buf, f, res); err != nil {
			return nil, fmt.Errorf("render %s: %w", f, err)
		}
		out.Artifacts = append(out.Artifacts, Artifact{
			Format:   f,
			Filename: export.Filename(res.Period, f),
			Data:     buf.Bytes(),
		})
	}

	out.Run = p.ledgerEntry(res, job, out.Artifacts)
	if job.Record && p.Ledger != nil {
		if err := p.Ledger.AppendRun(ctx, out.Run); err != nil {
			return nil, fmt.Errorf("record run: %w", err)
		}
	}

	p.Logger.Info("export run finished",
		slog.String("run_id", string(out.Run.ID)),
		slog.String("trigger", string(job.Trigger)),
		slog.String("period", res.Period.Label()),
		slog.Int("employees", res.Summary.Employees),
		slog.String("total_pay", res.Summary.TotalPay.Value.StringFixed(2)),
		slog.Int("artifacts", len(out.Artifacts)),
		slog.Bool("recorded", job.Record),
	)
	return out, nil
}

func (p *Pipeline) ledgerEntry(res *payroll.Result, job Job, artifacts []Artifact) generic.ExportRun {
	run := generic.ExportRun{
		ID:            p.NewID(),
		Period:        res.Period,
		GeneratedAt:   p.Now().UTC(),
		Trigger:       job.Trigger,
		EmployeeCount: res.Summary.Employees,
		TotalPay:      res.Summary.TotalPay,
		TotalHours:    res.Summary.TotalHours,
		OvertimeRate:  res.OvertimeRate,
		Digest:        res.Digest,
		Warnings:      res.WarningStrings(),
	}
	if len(artifacts) > 0 {
		run.Filename = artifacts[0].Filename
	}
	return run
}

func (p *Pipeline) source(apiKey string) (payroll.Source, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("no scheduling API key: %w", generic.ErrMissingCredential)
	}
	if p.Sources == nil {
		return nil, fmt.Errorf("no source configured: %w", generic.ErrMissingCredential)
	}
	return p.Sources(apiKey)
}

func (p *Pipeline) engine(src payroll.Source) *payroll.Engine {
	return payroll.NewEngine(src, p.Location, p.Logger)
}

// WriteArtifacts saves every artifact into dir and returns the paths.
func WriteArtifacts(dir string, artifacts []Artifact) ([]string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	paths := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		path := filepath.Join(dir, a.Filename)
		if err := os.WriteFile(path, a.Data, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", a.Filename, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
