package payroll

import (
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-export/generic"
	"github.com/warp/payroll-export/timeoff"
)

var (
	weeksPerYear  = decimal.NewFromInt(52)
	monthsPerYear = decimal.NewFromInt(12)
)

// =============================================================================
// RATES
// =============================================================================

// Rate1 is the base hourly rate, rounded to 2 dp.
//
//	hourly                     -> hourly rate
//	salaried, weekly hours > 0 -> (annual / 52) / weekly hours
//	otherwise                  -> 0
func Rate1(p PayProfile) generic.Amount {
	switch {
	case p.PayType == PayHourly:
		return generic.GBP(p.HourlyRate.Value).Round2()
	case p.PayType == PaySalaried && p.WeeklyHours.IsPositive():
		return generic.GBP(p.AnnualSalary.Value.Div(weeksPerYear).Div(p.WeeklyHours.Value)).Round2()
	default:
		return generic.ZeroOf(generic.UnitGBP)
	}
}

// MonthlySalary is annual / 12, rounded to 2 dp.
func MonthlySalary(p PayProfile) generic.Amount {
	return generic.GBP(p.AnnualSalary.Value.Div(monthsPerYear)).Round2()
}

// =============================================================================
// DERIVED HOURS
// =============================================================================

// HoursAtBase is min(total_display - on_call, fixed - on_call). It is not
// clamped: on-call hours above the fixed hours make it negative and reduce pay.
func HoursAtBase(totalDisplay, fixed, onCall generic.Amount) generic.Amount {
	return totalDisplay.Sub(onCall).Min(fixed.Sub(onCall))
}

// OvertimeHours is max(0, total_display - fixed).
func OvertimeHours(totalDisplay, fixed generic.Amount) generic.Amount {
	return totalDisplay.Sub(fixed).Max(generic.ZeroOf(generic.UnitHours))
}

// =============================================================================
// COMPUTE
// =============================================================================

// Inputs are the per-employee outputs of the earlier pipeline stages.
type Inputs struct {
	Employee     Employee
	Classified   ClassifiedHours
	OnCall       OnCallResult
	Leave        timeoff.LeaveTotals
	FixedHours   generic.Amount
	OvertimeRate generic.Amount
}

// Compute builds the payroll record.
//
// Salaried: total = annual / 12, hour buckets are informational.
// Hourly:
//
//	hours_at_base*rate_1
//	+ sum(custom hours * custom rate)
//	+ on_call_worked*rate_1
//	+ on_call_assigned*15.00
//	+ overtime*overtime_rate
//	+ holiday_hours*rate_1
//
// Sickness never enters pay. The total is rounded to 2 dp once.
func Compute(in Inputs) PayrollRecord {
	profile := in.Employee.Profile
	rate1 := Rate1(profile)
	onCallHours := in.OnCall.WorkedHours
	if onCallHours.Unit == "" {
		onCallHours = generic.ZeroOf(generic.UnitHours)
	}
	totalDisplay := in.Classified.TotalHours.Add(onCallHours)

	rec := PayrollRecord{
		EmployeeID:        in.Employee.ID,
		Name:              in.Employee.Name(),
		PayType:           profile.PayType,
		WeeklyHours:       profile.WeeklyHours,
		AnnualSalary:      profile.AnnualSalary,
		Rate1:             rate1,
		FixedHours:        in.FixedHours,
		TotalHours:        in.Classified.TotalHours,
		TotalHoursDisplay: totalDisplay,
		HoursAtBase:       HoursAtBase(totalDisplay, in.FixedHours, onCallHours),
		OvertimeHours:     OvertimeHours(totalDisplay, in.FixedHours),
		OvertimeRate:      in.OvertimeRate,
		CustomRoles:       in.Classified.CustomRoles,
		OnCall:            OnCallResult{WorkedHours: onCallHours, AssignedShifts: in.OnCall.AssignedShifts},
		Leave:             in.Leave,
	}
	if rec.CustomRoles == nil {
		rec.CustomRoles = map[RoleID]RoleHours{}
	}

	if profile.PayType == PaySalaried {
		rec.TotalPay = MonthlySalary(profile)
		return rec
	}

	pay := rec.HoursAtBase.Value.Mul(rate1.Value)
	for _, rh := range rec.CustomRoles {
		pay = pay.Add(rh.Hours.Value.Mul(rh.Rate.Value))
	}
	pay = pay.Add(onCallHours.Value.Mul(rate1.Value))
	pay = pay.Add(decimal.NewFromInt(int64(in.OnCall.AssignedShifts)).Mul(OnCallFlatRate))
	pay = pay.Add(rec.OvertimeHours.Value.Mul(in.OvertimeRate.Value))
	pay = pay.Add(in.Leave.HolidayHours.Value.Mul(rate1.Value))

	rec.TotalPay = generic.GBP(pay).Round2()
	return rec
}
