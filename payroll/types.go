/*
Package payroll turns one pay period of scheduling data into payroll records.

PURPOSE:
  For every employee the engine partitions shift time into mutually
  exclusive buckets (base, custom-role, on-call, overtime, holiday,
  sickness) and converts those buckets into one auditable total pay figure.

PIPELINE (per employee):
  1. FixedHours       - contracted weekly hours prorated to the period
  2. ClassifyShifts   - shifts -> base seconds, custom-role seconds, on-call stubs
  3. ReconcileOnCall  - on-call stubs + attendance -> worked hours, assigned count
  4. timeoff.Aggregate - approved holiday/sickness inside the period
  5. Compute          - rate_1, hours at base, overtime, total pay

  The Engine runs the pipeline for every employee, then freezes the set of
  custom roles and orders the records (two passes).

KEY CONCEPTS IN THIS FILE (types.go):
  - PayProfile: how an employee is paid
  - RawShift / AttendanceRecord: upstream records, already decoded
  - ClassifiedHours / OnCallResult: intermediate buckets
  - PayrollRecord: the immutable per-employee output

SEE ALSO:
  - engine.go: Orchestration and ordering
  - pay.go: The pay formulas
  - timeoff/leave.go: Leave aggregation
*/
package payroll

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-export/generic"
	"github.com/warp/payroll-export/timeoff"
)

// =============================================================================
// POLICY CONSTANTS
// =============================================================================

const (
	// OnCallRoleName is the scheduling role that marks a shift as on-call.
	OnCallRoleName = "On-Call"

	// SuspiciousOnCallSeconds is the on-call duration above which a warning
	// is raised. The hours still count.
	SuspiciousOnCallSeconds = 12 * 3600

	// DefaultConcurrency bounds parallel per-employee fetches.
	DefaultConcurrency = 4
)

var (
	// MinimumWage is the default overtime rate (Rate 2) and the reference
	// rate for highlighting non-standard hourly rates.
	MinimumWage = decimal.RequireFromString("12.21")

	// OnCallFlatRate is paid for every assigned on-call shift.
	OnCallFlatRate = decimal.RequireFromString("15.00")
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID int64
type RoleID int64
type ShiftID int64

// =============================================================================
// PAY PROFILE
// =============================================================================

type PayType int

const (
	PayHourly PayType = iota
	PaySalaried
)

func (p PayType) String() string {
	if p == PaySalaried {
		return "Salaried"
	}
	return "Hourly"
}

// PayProfile describes how an employee is paid. HourlyRate is meaningful for
// PayHourly, AnnualSalary for PaySalaried.
type PayProfile struct {
	PayType      PayType
	HourlyRate   generic.Amount
	AnnualSalary generic.Amount
	WeeklyHours  generic.Amount
	RoleRates    map[RoleID]generic.Amount
}

type Employee struct {
	ID        EmployeeID
	FirstName string
	LastName  string
	Profile   PayProfile
}

// Name is "First Last" with surrounding blanks removed.
func (e Employee) Name() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// =============================================================================
// UPSTREAM RECORDS
// =============================================================================

// RawShift is one published shift. Start and End are Unix seconds; nil
// means the upstream record did not carry the timestamp.
type RawShift struct {
	ID           ShiftID
	Start        *int64
	End          *int64
	BreakMinutes int64
	Role         RoleID // 0 when the shift has no role
}

// AttendanceRecord is one clock-in/clock-out pair.
type AttendanceRecord struct {
	ShiftID ShiftID
	In      *int64
	Out     *int64
	Deleted bool
}

// Window is the Unix-second query window of a period.
type Window struct {
	Start int64
	End   int64
}

// =============================================================================
// INTERMEDIATE BUCKETS
// =============================================================================

// RoleHours is one custom-role bucket.
type RoleHours struct {
	Role  Role
	Hours generic.Amount
	Rate  generic.Amount
}

// OnCallStub is an on-call shift set aside for reconciliation.
type OnCallStub struct {
	ShiftID      ShiftID
	Start        int64
	End          int64
	BreakMinutes int64
}

// ClassifiedHours is the classifier output. TotalHours covers base and
// custom-role time (never on-call) and is converted from the summed seconds.
type ClassifiedHours struct {
	TotalHours  generic.Amount
	BaseHours   generic.Amount
	CustomRoles map[RoleID]RoleHours
	OnCallStubs []OnCallStub
	Dropped     []ShiftID
}

type OnCallResult struct {
	WorkedHours    generic.Amount
	AssignedShifts int
}

// =============================================================================
// PAYROLL RECORD
// =============================================================================

// PayrollRecord is the computed row for one employee. Built once by Compute.
type PayrollRecord struct {
	EmployeeID   EmployeeID
	Name         string
	PayType      PayType
	WeeklyHours  generic.Amount
	AnnualSalary generic.Amount
	Rate1        generic.Amount

	FixedHours        generic.Amount
	TotalHours        generic.Amount // worked, excluding on-call
	TotalHoursDisplay generic.Amount // TotalHours + on-call worked
	HoursAtBase       generic.Amount
	OvertimeHours     generic.Amount
	OvertimeRate      generic.Amount

	CustomRoles map[RoleID]RoleHours
	OnCall      OnCallResult
	Leave       timeoff.LeaveTotals

	TotalPay generic.Amount
}

// RoleHoursFor returns the bucket for a role, zero hours and rate when the
// employee never worked it.
func (r PayrollRecord) RoleHoursFor(id RoleID) RoleHours {
	if rh, ok := r.CustomRoles[id]; ok {
		return rh
	}
	return RoleHours{Hours: generic.ZeroOf(generic.UnitHours), Rate: generic.ZeroOf(generic.UnitGBP)}
}

// Included reports whether the record belongs in the export.
func (r PayrollRecord) Included() bool {
	return r.TotalHours.IsPositive() ||
		r.Leave.HolidayHours.IsPositive() ||
		r.Leave.HolidayDays.IsPositive() ||
		r.Leave.SicknessDays.IsPositive() ||
		r.OnCall.WorkedHours.IsPositive()
}
