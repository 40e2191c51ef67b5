package timeoff

import (
	"fmt"

	"github.com/warp/payroll-export/generic"
)

// Aggregate sums approved leave whose dates fall inside period (inclusive).
//
// Records that are not approved, or are soft-deleted, contribute nothing.
// A date that does not parse is reported through warn and skipped. Types
// other than holiday and sickness are ignored.
func Aggregate(records []LeaveRecord, period generic.Period, warn func(string)) LeaveTotals {
	totals := ZeroTotals()

	for _, rec := range records {
		if rec.Status != StatusApproved || rec.Deleted {
			continue
		}
		for _, entry := range rec.Dates {
			day, err := generic.ParseDate(entry.Date)
			if err != nil {
				if warn != nil {
					warn(fmt.Sprintf("leave %d: skipping unparseable date %q", rec.ID, entry.Date))
				}
				continue
			}
			if !period.Contains(day) {
				continue
			}

			switch rec.Type {
			case LeaveHoliday:
				totals.HolidayDays = totals.HolidayDays.Add(generic.Days(entry.Days))
				totals.HolidayHours = totals.HolidayHours.Add(generic.Hours(entry.Hours))
			case LeaveSickness:
				totals.SicknessDays = totals.SicknessDays.Add(generic.Days(entry.Days))
			}
		}
	}

	totals.HolidayDays = totals.HolidayDays.Round2()
	totals.HolidayHours = totals.HolidayHours.Round2()
	totals.SicknessDays = totals.SicknessDays.Round2()
	return totals
}
