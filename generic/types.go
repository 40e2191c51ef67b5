/*
Package generic provides the domain-agnostic primitives of the payroll engine.

PURPOSE:
  Payroll arithmetic is a long chain of small additions over hours, days and
  pounds. This package holds the building blocks that every other package
  shares: decimal quantities with units, calendar dates, anchored pay
  periods, the error taxonomy and the export run ledger contract.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A quantity with a unit (e.g., 37.5 hours, 2 days, £1,960.00)
  - Round2: The single rounding rule used at every conversion boundary
  - SecondsToHours: Raw upstream seconds to rounded hours

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal so 12.21 and 15.00 stay exact
  2. Rounding at boundaries: values are rounded when converted or presented,
     never while accumulating
  3. Type Safety: units travel with values so hours never leak into money

USAGE:
  worked := generic.SecondsToHours(28800)           // 8.00 hours
  pay := worked.Mul(generic.MustParseDecimal("14")) // 112 (hours x rate)
  pay = generic.GBP(pay.Value).Round2()

SEE ALSO:
  - time.go: Calendar dates and local day bounds
  - period.go: Anchored monthly pay periods
  - ledger.go: Export run history contract
*/
package generic

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity with unit
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const (
	UnitHours Unit = "hours"
	UnitDays  Unit = "days"
	UnitGBP   Unit = "gbp"
)

var (
	secondsPerHour = decimal.NewFromInt(3600)
	hundred        = decimal.NewFromInt(100)
)

func NewAmount(value float64, unit Unit) Amount {
	return Amount{Value: decimal.NewFromFloat(value), Unit: unit}
}

func NewAmountFromInt(value int, unit Unit) Amount {
	return Amount{Value: decimal.NewFromInt(int64(value)), Unit: unit}
}

func Hours(v decimal.Decimal) Amount { return Amount{Value: v, Unit: UnitHours} }
func Days(v decimal.Decimal) Amount  { return Amount{Value: v, Unit: UnitDays} }
func GBP(v decimal.Decimal) Amount   { return Amount{Value: v, Unit: UnitGBP} }

// ZeroOf returns a zero amount in the given unit.
func ZeroOf(unit Unit) Amount { return Amount{Value: decimal.Zero, Unit: unit} }

// MustParseDecimal parses a decimal literal and panics if it is malformed.
// Use it for constants only; parse external input with decimal.NewFromString.
func MustParseDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// SecondsToHours converts a second count to hours rounded to 2 dp.
// This is the conversion boundary: callers accumulate seconds as integers
// and convert exactly once.
func SecondsToHours(seconds int64) Amount {
	return Hours(decimal.NewFromInt(seconds).Div(secondsPerHour)).Round2()
}

func (a Amount) Zero() Amount                 { return Amount{Value: decimal.Zero, Unit: a.Unit} }
func (a Amount) Add(b Amount) Amount          { return Amount{Value: a.Value.Add(b.Value), Unit: a.Unit} }
func (a Amount) Sub(b Amount) Amount          { return Amount{Value: a.Value.Sub(b.Value), Unit: a.Unit} }
func (a Amount) Mul(s decimal.Decimal) Amount { return Amount{Value: a.Value.Mul(s), Unit: a.Unit} }
func (a Amount) Div(s decimal.Decimal) Amount { return Amount{Value: a.Value.Div(s), Unit: a.Unit} }
func (a Amount) Neg() Amount                  { return Amount{Value: a.Value.Neg(), Unit: a.Unit} }
func (a Amount) IsNegative() bool             { return a.Value.IsNegative() }
func (a Amount) IsZero() bool                 { return a.Value.IsZero() }
func (a Amount) IsPositive() bool             { return a.Value.IsPositive() }
func (a Amount) GreaterThan(b Amount) bool    { return a.Value.GreaterThan(b.Value) }
func (a Amount) LessThan(b Amount) bool       { return a.Value.LessThan(b.Value) }
func (a Amount) Equal(b Amount) bool          { return a.Unit == b.Unit && a.Value.Equal(b.Value) }

func (a Amount) Min(b Amount) Amount {
	if a.LessThan(b) {
		return a
	}
	return b
}

func (a Amount) Max(b Amount) Amount {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// Round2 rounds half away from zero to 2 decimal places.
func (a Amount) Round2() Amount { return Amount{Value: a.Value.Round(2), Unit: a.Unit} }

// Float returns the value as float64 for presentation layers that need it
// (spreadsheet cells, charts). Never feed the result back into arithmetic.
func (a Amount) Float() float64 {
	f, _ := a.Value.Float64()
	return f
}

// Pence returns the amount scaled to whole hundredths, used for stable
// text renderings such as digests.
func (a Amount) Pence() int64 {
	return a.Value.Mul(hundred).Round(0).IntPart()
}

// String renders the value with exactly two decimals and its unit.
func (a Amount) String() string {
	switch a.Unit {
	case UnitGBP:
		return "£" + a.Value.StringFixed(2)
	case "":
		return a.Value.StringFixed(2)
	default:
		return fmt.Sprintf("%s %s", a.Value.StringFixed(2), a.Unit)
	}
}

// SumAmounts adds every amount onto a zero of the given unit.
func SumAmounts(unit Unit, amounts ...Amount) Amount {
	total := ZeroOf(unit)
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
