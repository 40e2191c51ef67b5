/*
main.go - One-shot payroll export

PURPOSE:
  Computes the payroll for one pay period, writes the spreadsheet (and any
  other requested renditions) and records the run in the ledger.

COMMAND-LINE FLAGS:
  -year, -month    Period starting on the 11th (default: default period)
  -prev, -next     Step the selection back or forward N months
  -exclude         Comma list of employee IDs, replaces PAYROLL_IGNORED_USERS
  -overtime-rate   Rate 2 in GBP, replaces PAYROLL_OVERTIME_RATE
  -format          Comma list of xlsx, csv, pdf (default: xlsx)
  -out             Output directory (default: PAYROLL_OUTPUT_DIR)
  -db              Ledger path (default: DB_PATH)
  -dry-run         Keep the run out of the ledger
  -scenario        Use a built-in data set instead of RotaCloud
  -debug           Log every employee decision

EXAMPLES:
  ROTACLOUD_API_KEY=... ./export
  ./export -year 2025 -month 1 -format xlsx,pdf -out ./exports
  ./export -scenario care-home -format csv -dry-run

EXIT CODES:
  0 success, 1 configuration or export failure, 2 bad flags
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-export/api"
	"github.com/warp/payroll-export/config"
	"github.com/warp/payroll-export/export"
	"github.com/warp/payroll-export/generic"
	"github.com/warp/payroll-export/generic/store"
	"github.com/warp/payroll-export/metrics"
	"github.com/warp/payroll-export/payroll"
	"github.com/warp/payroll-export/runner"
	"github.com/warp/payroll-export/store/sqlite"
)

type options struct {
	envFile      string
	year, month  int
	prev, next   int
	exclude      string
	overtimeRate string
	formats      string
	out          string
	db           string
	dryRun       bool
	scenario     string
	debug        bool
}

func main() {
	var o options
	flag.StringVar(&o.envFile, "env", ".env", "dotenv file to load")
	flag.IntVar(&o.year, "year", 0, "period start year")
	flag.IntVar(&o.month, "month", 0, "period start month (1-12)")
	flag.IntVar(&o.prev, "prev", 0, "step the period back N months")
	flag.IntVar(&o.next, "next", 0, "step the period forward N months")
	flag.StringVar(&o.exclude, "exclude", "", "comma-separated employee IDs to exclude")
	flag.StringVar(&o.overtimeRate, "overtime-rate", "", "overtime rate in GBP")
	flag.StringVar(&o.formats, "format", "xlsx", "comma-separated formats: xlsx, csv, pdf")
	flag.StringVar(&o.out, "out", "", "output directory")
	flag.StringVar(&o.db, "db", "", "ledger database path")
	flag.BoolVar(&o.dryRun, "dry-run", false, "do not record the run")
	flag.StringVar(&o.scenario, "scenario", "", "built-in data set to export")
	flag.BoolVar(&o.debug, "debug", false, "verbose per-employee logging")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, o, os.Stdout))
}

func run(ctx context.Context, o options, stdout io.Writer) int {
	cfg, err := config.Load(o.envFile)
	if err != nil {
		slog.Error("load config", slog.Any("error", err))
		return 1
	}
	level := cfg.LogLevel
	if o.debug {
		level = "debug"
	}
	logger := config.NewLogger(os.Stderr, cfg.LogFormat, level)
	loc, _ := cfg.Location()

	formats, err := export.ParseFormats(o.formats)
	if err != nil {
		logger.Error("invalid -format", slog.Any("error", err))
		return 2
	}
	if o.out == "" {
		o.out = cfg.OutputDir
	}

	var ledger generic.RunLedger = store.NewMemory()
	if !o.dryRun {
		dbPath := cfg.DBPath
		if o.db != "" {
			dbPath = o.db
		}
		db, err := sqlite.New(dbPath)
		if err != nil {
			logger.Error("open ledger", slog.Any("error", err))
			return 1
		}
		defer db.Close()
		ledger = db
	}

	m := metrics.New()
	pipeline := runner.New(runner.RotaCloudSources(cfg.RotaCloud(nil, m, logger)), loc, ledger, m, logger)

	period, src, err := selectPeriod(o, loc)
	if err != nil {
		logger.Error("invalid period", slog.Any("error", err))
		return 2
	}

	req := cfg.RunRequest(period)
	req.Debug = o.debug
	if o.exclude != "" {
		req.ExcludedEmployees = payroll.ParseEmployeeIDs(o.exclude)
	}
	if o.overtimeRate != "" {
		rate, err := decimal.NewFromString(o.overtimeRate)
		if err != nil {
			logger.Error("invalid -overtime-rate", slog.String("value", o.overtimeRate))
			return 2
		}
		req.OvertimeRate = rate
	}

	job := runner.Job{
		Request: req,
		APIKey:  cfg.RotaCloudAPIKey,
		Trigger: generic.TriggerCLI,
		Formats: formats,
		Record:  !o.dryRun,
	}
	var out *runner.Outcome
	if src != nil {
		out, err = pipeline.ExecuteWith(ctx, src, job)
	} else {
		out, err = pipeline.Execute(ctx, job)
	}
	if err != nil {
		logger.Error("export failed", slog.Any("error", err))
		return 1
	}

	paths, err := runner.WriteArtifacts(o.out, out.Artifacts)
	if err != nil {
		logger.Error("write files", slog.Any("error", err))
		return 1
	}

	printSummary(stdout, out, paths)
	return 0
}

// selectPeriod resolves the period flags. A scenario brings its own period
// and source; -prev/-next still step from it.
func selectPeriod(o options, loc *time.Location) (generic.Period, payroll.Source, error) {
	var (
		period generic.Period
		src    payroll.Source
		err    error
	)
	switch {
	case o.scenario != "":
		catalog, err := api.LoadScenarios()
		if err != nil {
			return period, nil, err
		}
		ds, ok := catalog.Get(o.scenario)
		if !ok {
			return period, nil, fmt.Errorf("unknown scenario %q: %w", o.scenario, generic.ErrInvalidRequest)
		}
		period, src = ds.Period, ds.Source
	case o.year != 0 || o.month != 0:
		if period, err = payroll.PeriodFor(o.year, time.Month(o.month)); err != nil {
			return period, nil, err
		}
	default:
		period = payroll.DefaultPeriod(generic.DateOf(time.Now().In(loc)))
	}

	for i := 0; i < o.prev; i++ {
		period = payroll.PreviousPeriod(period)
	}
	for i := 0; i < o.next; i++ {
		period = payroll.NextPeriod(period)
	}
	return period, src, nil
}

func printSummary(w io.Writer, out *runner.Outcome, paths []string) {
	res := out.Result
	fmt.Fprintf(w, "Payroll export %s\n", res.Period.Label())
	fmt.Fprintf(w, "  Employees:      %d\n", res.Summary.Employees)
	fmt.Fprintf(w, "  Total hours:    %s\n", res.Summary.TotalHours.Value.StringFixed(2))
	fmt.Fprintf(w, "  On-call hours:  %s (%d shifts)\n", res.Summary.OnCallHours.Value.StringFixed(2), res.Summary.OnCallShifts)
	fmt.Fprintf(w, "  Overtime hours: %s at %s\n", res.Summary.OvertimeHours.Value.StringFixed(2), export.Money(res.OvertimeRate))
	fmt.Fprintf(w, "  Total pay:      %s\n", export.Money(res.Summary.TotalPay))
	if out.Run.ID != "" {
		fmt.Fprintf(w, "  Run:            %s (%s)\n", out.Run.ID, out.Run.Digest[:12])
	}
	for _, p := range paths {
		fmt.Fprintf(w, "  Wrote %s\n", p)
	}
	if len(res.Warnings) > 0 {
		fmt.Fprintf(w, "\n%d warning(s):\n", len(res.Warnings))
		for _, warn := range res.Warnings {
			fmt.Fprintf(w, "  - %s\n", warn.String())
		}
	}
}
