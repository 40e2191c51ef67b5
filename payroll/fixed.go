package payroll

import (
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-export/generic"
)

var seven = decimal.NewFromInt(7)

// FixedHours prorates weekly contracted hours over a period of periodDays:
//
//	full_weeks*weekly + (remainder/7)*weekly, rounded to 2 dp
//
// An 11-day period is 1 week plus 4/7 of a week. Non-positive inputs give 0.
func FixedHours(weekly generic.Amount, periodDays int) generic.Amount {
	if !weekly.IsPositive() || periodDays <= 0 {
		return generic.ZeroOf(generic.UnitHours)
	}
	fullWeeks := decimal.NewFromInt(int64(periodDays / 7))
	remainder := decimal.NewFromInt(int64(periodDays % 7))

	full := weekly.Value.Mul(fullWeeks)
	partial := weekly.Value.Mul(remainder).Div(seven)
	return generic.Hours(full.Add(partial)).Round2()
}
