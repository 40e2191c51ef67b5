/*
engine.go - Two-pass payroll run

PURPOSE:
  Drives the per-employee pipeline over every user of the scheduling
  platform and assembles the run result.

PASS ONE (bounded fan-out):
  Employees are processed in parallel, at most RunRequest.Workers() at a
  time. Each worker writes only its own slot of a pre-sized slice, so the
  outcome does not depend on completion order. Per-source fetch failures
  degrade that employee's figures to zero and raise a warning.

PASS TWO (after every employee finished):
  The custom-role set is frozen and sorted by name, records are filtered
  and ordered (salaried first, then by name), the summary and digest are
  computed.

FATAL ERRORS:
  Invalid request, unreachable platform, failed user list, cancelled context.

SEE ALSO:
  - source.go: What the engine reads
  - pay.go: What it computes per employee
  - digest.go: Idempotence fingerprint
*/
package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/warp/payroll-export/generic"
	"github.com/warp/payroll-export/timeoff"
)

// Engine computes payroll runs. It holds collaborators, never run state.
type Engine struct {
	Source   Source
	Location *time.Location
	Logger   *slog.Logger
}

func NewEngine(src Source, loc *time.Location, logger *slog.Logger) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{Source: src, Location: loc, Logger: logger}
}

// Summary holds the run-level totals shown next to the preview.
type Summary struct {
	Employees     int
	TotalHours    generic.Amount
	OnCallHours   generic.Amount
	OnCallShifts  int
	OvertimeHours generic.Amount
	TotalPay      generic.Amount
}

// Result is one completed run.
type Result struct {
	Period       generic.Period
	OvertimeRate generic.Amount
	Records      []PayrollRecord
	Roles        []Role // custom-role columns, sorted by name
	Summary      Summary
	Warnings     []Warning
	Digest       string
	Considered   int // employees processed after exclusions
}

// WarningStrings renders the warnings for storage and display.
func (r *Result) WarningStrings() []string {
	out := make([]string, len(r.Warnings))
	for i, w := range r.Warnings {
		out[i] = w.String()
	}
	return out
}

type employeeOutcome struct {
	record PayrollRecord
	roles  []Role
}

// Run executes one payroll run.
func (e *Engine) Run(ctx context.Context, req RunRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if e.Source == nil {
		return nil, fmt.Errorf("payroll engine: no source: %w", generic.ErrMissingCredential)
	}

	level := slog.LevelDebug
	if req.Debug {
		level = slog.LevelInfo
	}
	logger := e.Logger.With(slog.String("period", req.Period.String()))

	if err := e.Source.Ping(ctx); err != nil {
		return nil, fmt.Errorf("connectivity check: %w: %w", generic.ErrUpstreamUnavailable, err)
	}
	users, err := e.Source.Employees(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch users: %w: %w", generic.ErrUpstreamUnavailable, err)
	}

	employees := make([]Employee, 0, len(users))
	for _, u := range users {
		if req.Excludes(u.ID) {
			logger.Log(ctx, level, "employee excluded", slog.Int64("employee_id", int64(u.ID)))
			continue
		}
		employees = append(employees, u)
	}

	warnings := NewWarnings(logger)
	catalog := NewRoleCatalog(e.Source, warnings.Add)
	window := WindowFor(req.Period, e.Location)
	overtime := generic.GBP(req.OvertimeRate)

	// Pass one.
	outcomes := make([]employeeOutcome, len(employees))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(req.Workers())
	for i, emp := range employees {
		g.Go(func() error {
			out, err := e.processEmployee(gctx, emp, req.Period, window, overtime, catalog, warnings.For(emp), level, logger)
			if err != nil {
				return err
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Pass two.
	roleSet := make(map[RoleID]Role)
	var records []PayrollRecord
	for _, out := range outcomes {
		for _, r := range out.roles {
			roleSet[r.ID] = r
		}
		if out.record.Included() {
			records = append(records, out.record)
		}
	}
	roles := make([]Role, 0, len(roleSet))
	for _, r := range roleSet {
		roles = append(roles, r)
	}
	SortRoles(roles)
	SortRecords(records)

	res := &Result{
		Period:       req.Period,
		OvertimeRate: overtime,
		Records:      records,
		Roles:        roles,
		Summary:      Summarize(records),
		Warnings:     warnings.List(),
		Considered:   len(employees),
	}
	res.Digest = Digest(res)

	logger.Info("payroll run complete",
		slog.Int("employees", len(employees)),
		slog.Int("included", len(records)),
		slog.Int("custom_roles", len(roles)),
		slog.Int("warnings", len(res.Warnings)),
		slog.String("total_pay", res.Summary.TotalPay.String()),
	)
	return res, nil
}

// processEmployee runs the pipeline for one employee. The only error it
// returns is context cancellation; everything else degrades with a warning.
func (e *Engine) processEmployee(
	ctx context.Context,
	emp Employee,
	period generic.Period,
	window Window,
	overtime generic.Amount,
	catalog *RoleCatalog,
	warn WarnFunc,
	level slog.Level,
	logger *slog.Logger,
) (employeeOutcome, error) {
	if err := ctx.Err(); err != nil {
		return employeeOutcome{}, err
	}
	log := logger.With(slog.Int64("employee_id", int64(emp.ID)), slog.String("employee", emp.Name()))
	fixed := FixedHours(emp.Profile.WeeklyHours, period.DayCount())

	shifts, err := e.Source.Shifts(ctx, emp.ID, window)
	if err != nil {
		if cerr := cancelled(ctx, err); cerr != nil {
			return employeeOutcome{}, cerr
		}
		warn.emit(WarnUpstream, fmt.Sprintf("shifts unavailable, counting no worked hours: %v", err))
		shifts = nil
	}

	catalog.Load(ctx, RoleIDs(shifts)...)
	classified := ClassifyShifts(shifts, emp.Profile.RoleRates, catalog.Lookup)
	if len(classified.Dropped) > 0 {
		log.Log(ctx, level, "shifts without start or end ignored", slog.Int("count", len(classified.Dropped)))
	}

	onCall := OnCallResult{WorkedHours: generic.ZeroOf(generic.UnitHours)}
	if len(classified.OnCallStubs) > 0 {
		attendance, err := e.Source.Attendance(ctx, emp.ID, window)
		if err != nil {
			if cerr := cancelled(ctx, err); cerr != nil {
				return employeeOutcome{}, cerr
			}
			warn.emit(WarnUpstream, fmt.Sprintf("attendance unavailable, on-call hours counted as zero: %v", err))
			attendance = nil
		}
		onCall = ReconcileOnCall(classified.OnCallStubs, attendance, warn)
	}

	leave := timeoff.ZeroTotals()
	leaveRecords, err := e.Source.Leave(ctx, emp.ID, period)
	if err != nil {
		if cerr := cancelled(ctx, err); cerr != nil {
			return employeeOutcome{}, cerr
		}
		warn.emit(WarnUpstream, fmt.Sprintf("leave unavailable, holiday and sickness counted as zero: %v", err))
	} else {
		leave = timeoff.Aggregate(leaveRecords, period, func(msg string) { warn.emit(WarnLeave, msg) })
	}

	rec := Compute(Inputs{
		Employee:     emp,
		Classified:   classified,
		OnCall:       onCall,
		Leave:        leave,
		FixedHours:   fixed,
		OvertimeRate: overtime,
	})

	roles := make([]Role, 0, len(classified.CustomRoles))
	for _, rh := range classified.CustomRoles {
		roles = append(roles, rh.Role)
	}

	log.Log(ctx, level, "employee processed",
		slog.String("total_hours", rec.TotalHoursDisplay.Value.StringFixed(2)),
		slog.String("fixed_hours", rec.FixedHours.Value.StringFixed(2)),
		slog.String("on_call_hours", rec.OnCall.WorkedHours.Value.StringFixed(2)),
		slog.Int("on_call_shifts", rec.OnCall.AssignedShifts),
		slog.String("total_pay", rec.TotalPay.Value.StringFixed(2)),
		slog.Bool("included", rec.Included()),
	)
	return employeeOutcome{record: rec, roles: roles}, nil
}

func cancelled(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

// =============================================================================
// ORDERING
// =============================================================================

// SortRecords orders salaried before hourly, then by case-folded name, then id.
func SortRecords(records []PayrollRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if (a.PayType == PaySalaried) != (b.PayType == PaySalaried) {
			return a.PayType == PaySalaried
		}
		an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
		if an != bn {
			return an < bn
		}
		return a.EmployeeID < b.EmployeeID
	})
}

// SortRoles orders roles by name, then id.
func SortRoles(roles []Role) {
	sort.SliceStable(roles, func(i, j int) bool {
		if roles[i].Name != roles[j].Name {
			return roles[i].Name < roles[j].Name
		}
		return roles[i].ID < roles[j].ID
	})
}

// Summarize totals the included records.
func Summarize(records []PayrollRecord) Summary {
	s := Summary{
		Employees:     len(records),
		TotalHours:    generic.ZeroOf(generic.UnitHours),
		OnCallHours:   generic.ZeroOf(generic.UnitHours),
		OvertimeHours: generic.ZeroOf(generic.UnitHours),
		TotalPay:      generic.ZeroOf(generic.UnitGBP),
	}
	for _, r := range records {
		s.TotalHours = s.TotalHours.Add(r.TotalHoursDisplay)
		s.OnCallHours = s.OnCallHours.Add(r.OnCall.WorkedHours)
		s.OnCallShifts += r.OnCall.AssignedShifts
		s.OvertimeHours = s.OvertimeHours.Add(r.OvertimeHours)
		s.TotalPay = s.TotalPay.Add(r.TotalPay)
	}
	return s
}
