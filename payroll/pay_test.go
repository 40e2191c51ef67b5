package payroll_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warp/payroll-export/generic"
	"github.com/warp/payroll-export/payroll"
	"github.com/warp/payroll-export/timeoff"
)

// =============================================================================
// FIXED HOURS
// =============================================================================

func TestFixedHours_ProratesPartialWeek(t *testing.T) {
	// 31 days = 4 weeks + 3 days: 4*37.5 + (3/7)*37.5 = 166.0714...
	assert.Equal(t, "166.07", payroll.FixedHours(hrs("37.5"), 31).Value.StringFixed(2))
	// 11 days = 1 week + 4/7
	assert.Equal(t, "62.86", payroll.FixedHours(hrs("40"), 11).Value.StringFixed(2))
	// exact weeks
	assert.Equal(t, "160.00", payroll.FixedHours(hrs("40"), 28).Value.StringFixed(2))
}

func TestFixedHours_NonPositiveInputsGiveZero(t *testing.T) {
	assert.True(t, payroll.FixedHours(hrs("0"), 31).IsZero())
	assert.True(t, payroll.FixedHours(hrs("-5"), 31).IsZero())
	assert.True(t, payroll.FixedHours(hrs("37.5"), 0).IsZero())
	assert.True(t, payroll.FixedHours(hrs("37.5"), -1).IsZero())
}

// =============================================================================
// RATE 1
// =============================================================================

func TestRate1(t *testing.T) {
	assert.Equal(t, "14.00", payroll.Rate1(hourly(1, "A", "B", "14", "40").Profile).Value.StringFixed(2))

	// 26000 / 52 / 37.5 = 13.333...
	assert.Equal(t, "13.33", payroll.Rate1(salaried(1, "A", "B", "26000", "37.5").Profile).Value.StringFixed(2))

	// salaried without weekly hours has no hourly equivalent
	assert.True(t, payroll.Rate1(salaried(1, "A", "B", "26000", "0").Profile).IsZero())
}

// =============================================================================
// COMPUTE
// =============================================================================

func workedExample() payroll.Inputs {
	return payroll.Inputs{
		Employee:     hourly(7, "Sam", "Carter", "14", "40"),
		Classified:   payroll.ClassifiedHours{TotalHours: hrs("180"), BaseHours: hrs("180")},
		OnCall:       payroll.OnCallResult{WorkedHours: hrs("20"), AssignedShifts: 10},
		Leave:        timeoff.ZeroTotals(),
		FixedHours:   payroll.FixedHours(hrs("40"), 28),
		OvertimeRate: generic.GBP(payroll.MinimumWage),
	}
}

func TestCompute_WorkedExample(t *testing.T) {
	// GIVEN: £14/hr, 40 weekly hours over 4 weeks (160 fixed), 200 total
	// hours of which 20 on-call worked, 10 on-call shifts assigned
	in := workedExample()

	// WHEN: computed
	rec := payroll.Compute(in)

	// THEN: 140*14 + 20*14 + 10*15 + 40*12.21 = 2878.40
	assert.Equal(t, "200.00", rec.TotalHoursDisplay.Value.StringFixed(2))
	assert.Equal(t, "140.00", rec.HoursAtBase.Value.StringFixed(2))
	assert.Equal(t, "40.00", rec.OvertimeHours.Value.StringFixed(2))
	assert.Equal(t, "2878.40", rec.TotalPay.Value.StringFixed(2))
	assert.Equal(t, "Sam Carter", rec.Name)
}

func TestCompute_AddsCustomRolesAndHolidayPay(t *testing.T) {
	in := workedExample()
	in.Classified.CustomRoles = map[payroll.RoleID]payroll.RoleHours{
		roleHome: {Role: roleLookup(roleHome), Hours: hrs("10"), Rate: gbp("13.50")},
	}
	in.Leave.HolidayHours = hrs("7.5")

	rec := payroll.Compute(in)

	// 2878.40 + 10*13.50 + 7.5*14
	assert.Equal(t, "3118.40", rec.TotalPay.Value.StringFixed(2))
}

func TestCompute_SicknessNeverPaid(t *testing.T) {
	in := workedExample()
	in.Leave.SicknessDays = generic.Days(payroll.MinimumWage)

	assert.Equal(t, "2878.40", payroll.Compute(in).TotalPay.Value.StringFixed(2))
}

func TestCompute_SalariedIgnoresHourBuckets(t *testing.T) {
	// GIVEN: a salaried employee with lots of hours and on-call
	in := workedExample()
	in.Employee = salaried(8, "Alex", "Reid", "31200", "37.5")
	rec := payroll.Compute(in)

	// THEN: a twelfth of the salary
	assert.Equal(t, "2600.00", rec.TotalPay.Value.StringFixed(2))

	// AND: the same with no hours at all
	in.Classified = payroll.ClassifiedHours{TotalHours: hrs("0")}
	in.OnCall = payroll.OnCallResult{WorkedHours: hrs("0")}
	assert.Equal(t, "2600.00", payroll.Compute(in).TotalPay.Value.StringFixed(2))
}

// On-call worked hours above the fixed hours make hours-at-base negative.
// The value is not clamped, so it reduces pay.
func TestCompute_HoursAtBaseIsNotClamped(t *testing.T) {
	// GIVEN: 10 fixed hours, 5 ordinary hours and 30 on-call hours
	in := payroll.Inputs{
		Employee:     hourly(1, "Jo", "Bloggs", "10", "17.5"),
		Classified:   payroll.ClassifiedHours{TotalHours: hrs("5")},
		OnCall:       payroll.OnCallResult{WorkedHours: hrs("30"), AssignedShifts: 2},
		Leave:        timeoff.ZeroTotals(),
		FixedHours:   hrs("10"),
		OvertimeRate: gbp("12.21"),
	}

	rec := payroll.Compute(in)

	// THEN: min(35-30, 10-30) = -20; overtime 25
	assert.Equal(t, "-20.00", rec.HoursAtBase.Value.StringFixed(2))
	assert.Equal(t, "25.00", rec.OvertimeHours.Value.StringFixed(2))
	// -20*10 + 30*10 + 2*15 + 25*12.21 = 435.25
	assert.Equal(t, "435.25", rec.TotalPay.Value.StringFixed(2))
}

func TestCompute_NoOvertimeBelowFixed(t *testing.T) {
	in := workedExample()
	in.Classified.TotalHours = hrs("100")
	in.OnCall = payroll.OnCallResult{WorkedHours: hrs("0")}

	rec := payroll.Compute(in)

	assert.True(t, rec.OvertimeHours.IsZero())
	assert.Equal(t, "100.00", rec.HoursAtBase.Value.StringFixed(2))
	assert.Equal(t, "1400.00", rec.TotalPay.Value.StringFixed(2))
}

// =============================================================================
// INCLUSION
// =============================================================================

func TestIncluded(t *testing.T) {
	zero := payroll.Inputs{
		Employee:     hourly(1, "Zero", "Hours", "12.21", "0"),
		Classified:   payroll.ClassifiedHours{TotalHours: hrs("0")},
		OnCall:       payroll.OnCallResult{WorkedHours: hrs("0")},
		Leave:        timeoff.ZeroTotals(),
		FixedHours:   hrs("0"),
		OvertimeRate: gbp("12.21"),
	}
	assert.False(t, payroll.Compute(zero).Included(), "all-zero employee is excluded")

	withSickness := zero
	withSickness.Leave.SicknessDays = generic.Days(payroll.MinimumWage)
	assert.True(t, payroll.Compute(withSickness).Included())

	withOnCall := zero
	withOnCall.OnCall = payroll.OnCallResult{WorkedHours: hrs("1"), AssignedShifts: 1}
	assert.True(t, payroll.Compute(withOnCall).Included())

	withHoliday := zero
	withHoliday.Leave.HolidayDays = generic.Days(payroll.MinimumWage)
	assert.True(t, payroll.Compute(withHoliday).Included())
}
