package generic

import "time"

// =============================================================================
// PERIOD - The window every payroll figure is computed for
// =============================================================================

// Period is an inclusive range of calendar days.
//
// Examples:
//   - Pay period January 2025: 11 Jan 2025 - 10 Feb 2025
//   - Pay period December 2025: 11 Dec 2025 - 10 Jan 2026
type Period struct {
	Start TimePoint
	End   TimePoint
}

// Contains returns true if the day is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// DayCount returns the inclusive number of days, 0 for an inverted period.
func (p Period) DayCount() int {
	n := DaysBetween(p.Start, p.End) + 1
	if n < 0 {
		return 0
	}
	return n
}

// Days returns all days in the period as a slice of TimePoints.
func (p Period) Days() []TimePoint {
	var days []TimePoint
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// Label renders the period for people: "11 Jan 2025 - 10 Feb 2025".
func (p Period) Label() string {
	return p.Start.Format("02 Jan 2006") + " - " + p.End.Format("02 Jan 2006")
}

// UnixBounds returns [00:00:00 of Start, 23:59:59 of End] in loc.
func (p Period) UnixBounds(loc *time.Location) (int64, int64) {
	return p.Start.StartUnix(loc), p.End.EndUnix(loc)
}

// =============================================================================
// MONTHLY PERIOD CALCULATOR - Anchored on a day of the month
// =============================================================================

// MonthlyPeriodConfig describes periods that start on AnchorDay of a month and
// end the day before AnchorDay of the following month.
type MonthlyPeriodConfig struct {
	AnchorDay int
}

// PeriodFor returns the period that starts in (year, month).
func (pc MonthlyPeriodConfig) PeriodFor(year int, month time.Month) (Period, error) {
	if pc.AnchorDay < 2 || pc.AnchorDay > 28 {
		return Period{}, &InvalidPeriodError{Year: year, Month: int(month), Day: pc.AnchorDay}
	}
	if !IsValidDate(year, month, pc.AnchorDay) {
		return Period{}, &InvalidPeriodError{Year: year, Month: int(month), Day: pc.AnchorDay}
	}

	endYear, endMonth := year, month+1
	if month == time.December {
		endYear, endMonth = year+1, time.January
	}
	endDay := pc.AnchorDay - 1
	if !IsValidDate(endYear, endMonth, endDay) {
		return Period{}, &InvalidPeriodError{Year: endYear, Month: int(endMonth), Day: endDay}
	}

	return Period{
		Start: NewTimePoint(year, month, pc.AnchorDay),
		End:   NewTimePoint(endYear, endMonth, endDay),
	}, nil
}

// Shift moves a (year, month) period selection by n months with year rollover.
func Shift(year int, month time.Month, n int) (int, time.Month) {
	idx := year*12 + int(month-1) + n
	y := idx / 12
	m := idx % 12
	if m < 0 {
		m += 12
		y--
	}
	return y, time.Month(m + 1)
}
