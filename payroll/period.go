package payroll

import (
	"time"

	"github.com/warp/payroll-export/generic"
)

// PayPeriods runs from the 11th of one month to the 10th of the next.
var PayPeriods = generic.MonthlyPeriodConfig{AnchorDay: 11}

// PeriodFor returns the pay period starting on the 11th of (year, month).
func PeriodFor(year int, month time.Month) (generic.Period, error) {
	return PayPeriods.PeriodFor(year, month)
}

// MustPeriodFor is PeriodFor for callers holding a known-good selection.
func MustPeriodFor(year int, month time.Month) generic.Period {
	p, err := PeriodFor(year, month)
	if err != nil {
		panic(err)
	}
	return p
}

// DefaultPeriod returns the period selected when no explicit choice is made.
//
// Both branches select the period that started on the 11th of the previous
// month. On or before the 10th that period has not closed yet; the branch
// is kept as the established behaviour of the export.
func DefaultPeriod(today generic.TimePoint) generic.Period {
	var year int
	var month time.Month
	if today.Day() <= 10 {
		year, month = generic.Shift(today.Year(), today.Month(), -1)
	} else {
		year, month = generic.Shift(today.Year(), today.Month(), -1)
	}
	return MustPeriodFor(year, month)
}

// NextPeriod steps the selection forward one month.
func NextPeriod(p generic.Period) generic.Period {
	year, month := generic.Shift(p.Start.Year(), p.Start.Month(), 1)
	return MustPeriodFor(year, month)
}

// PreviousPeriod steps the selection back one month.
func PreviousPeriod(p generic.Period) generic.Period {
	year, month := generic.Shift(p.Start.Year(), p.Start.Month(), -1)
	return MustPeriodFor(year, month)
}

// IsPayPeriod reports whether p is exactly the pay period for its start month.
func IsPayPeriod(p generic.Period) bool {
	want, err := PeriodFor(p.Start.Year(), p.Start.Month())
	if err != nil {
		return false
	}
	return want.Start.Equal(p.Start) && want.End.Equal(p.End)
}

// WindowFor returns the Unix query window [start 00:00:00, end 23:59:59] in loc.
func WindowFor(p generic.Period, loc *time.Location) Window {
	start, end := p.UnixBounds(loc)
	return Window{Start: start, End: end}
}
