package timeoff_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/warp/payroll-export/generic"
	"github.com/warp/payroll-export/timeoff"
)

func janPeriod() generic.Period {
	return generic.Period{
		Start: generic.NewTimePoint(2025, time.January, 11),
		End:   generic.NewTimePoint(2025, time.February, 10),
	}
}

func day(date string, days, hours string) timeoff.LeaveDate {
	return timeoff.LeaveDate{Date: date, Days: decimal.RequireFromString(days), Hours: decimal.RequireFromString(hours)}
}

func TestAggregate_HolidayDaysAndHoursInsidePeriod(t *testing.T) {
	// GIVEN: approved holiday straddling the period start
	records := []timeoff.LeaveRecord{{
		ID: 1, Status: timeoff.StatusApproved, Type: timeoff.LeaveHoliday,
		Dates: []timeoff.LeaveDate{
			day("2025-01-10", "1", "7.5"), // before the period
			day("2025-01-11", "1", "7.5"),
			day("2025-02-10", "0.5", "3.75"),
		},
	}}

	// WHEN: aggregated
	got := timeoff.Aggregate(records, janPeriod(), nil)

	// THEN: only the two in-period dates count
	assert.Equal(t, "1.50", got.HolidayDays.Value.StringFixed(2))
	assert.Equal(t, "11.25", got.HolidayHours.Value.StringFixed(2))
	assert.True(t, got.SicknessDays.IsZero())
}

func TestAggregate_SicknessCountsDaysOnly(t *testing.T) {
	records := []timeoff.LeaveRecord{{
		ID: 2, Status: timeoff.StatusApproved, Type: timeoff.LeaveSickness,
		Dates: []timeoff.LeaveDate{day("2025-01-20", "1", "8"), day("2025-01-21", "1", "8")},
	}}

	got := timeoff.Aggregate(records, janPeriod(), nil)

	assert.Equal(t, "2.00", got.SicknessDays.Value.StringFixed(2))
	assert.True(t, got.HolidayHours.IsZero(), "sickness hours are not a pay input")
	assert.True(t, got.HolidayDays.IsZero())
}

func TestAggregate_IgnoresUnapprovedDeletedAndOtherTypes(t *testing.T) {
	in := []timeoff.LeaveDate{day("2025-01-20", "1", "8")}
	records := []timeoff.LeaveRecord{
		{ID: 1, Status: timeoff.StatusRequested, Type: timeoff.LeaveHoliday, Dates: in},
		{ID: 2, Status: timeoff.StatusDenied, Type: timeoff.LeaveHoliday, Dates: in},
		{ID: 3, Status: timeoff.StatusApproved, Type: timeoff.LeaveHoliday, Deleted: true, Dates: in},
		{ID: 4, Status: timeoff.StatusApproved, Type: timeoff.LeaveType(2), Dates: in},
	}

	got := timeoff.Aggregate(records, janPeriod(), nil)

	assert.True(t, got.HolidayDays.IsZero())
	assert.True(t, got.HolidayHours.IsZero())
	assert.True(t, got.SicknessDays.IsZero())
}

func TestAggregate_UnparseableDateWarnsAndSkips(t *testing.T) {
	records := []timeoff.LeaveRecord{{
		ID: 9, Status: timeoff.StatusApproved, Type: timeoff.LeaveHoliday,
		Dates: []timeoff.LeaveDate{day("20/01/2025", "1", "8"), day("2025-01-21", "1", "8")},
	}}
	var warnings []string

	got := timeoff.Aggregate(records, janPeriod(), func(msg string) { warnings = append(warnings, msg) })

	assert.Equal(t, "1.00", got.HolidayDays.Value.StringFixed(2))
	assert.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "20/01/2025")
}

func TestAggregate_RoundsEachTotalIndependently(t *testing.T) {
	records := []timeoff.LeaveRecord{{
		ID: 1, Status: timeoff.StatusApproved, Type: timeoff.LeaveHoliday,
		Dates: []timeoff.LeaveDate{day("2025-01-20", "0.333", "2.505"), day("2025-01-21", "0.333", "0")},
	}}

	got := timeoff.Aggregate(records, janPeriod(), nil)

	assert.Equal(t, "0.67", got.HolidayDays.Value.StringFixed(2))
	assert.Equal(t, "2.51", got.HolidayHours.Value.StringFixed(2))
}
