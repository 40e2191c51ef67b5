/*
Package export renders a payroll run as an XLSX workbook, a CSV summary or
a PDF report.

PURPOSE:
  BuildSheet turns a payroll.Result into a format-neutral Sheet: the period
  banner, the column headers, one row per record and a totals row. The
  renderers only style and serialize it.

COLUMN LAYOUT:
  A Employee Name    B Pay Type    C Weekly Hrs    D Total Hrs
  E Fixed Hrs        F Hours       G Rate 1 (£)
  H.. one "{Role} Hrs" / "{Role} Rate (£)" pair per custom role, by name
  then On-Call Hrs, On-Call Shifts, On-Call Flat Rate (£), Overtime Hrs,
  Rate 2 (£), Holiday (Days), Holiday (Hrs), Sickness (Days), TOTAL PAY (£)

FORMULAS (row r, hourly and salaried alike unless noted):
  Hours        =MIN(D{r}-{oncall}{r},E{r}-{oncall}{r})
  Overtime Hrs =MAX(0,D{r}-E{r})
  TOTAL PAY    hourly: =(F*G)+(role hrs*rate)...+(oncall*G)+(shifts*flat)+(OT*rate2)+(holhrs*G)
               salaried: annual / 12 as a literal
  Totals       =SUM(X{first}:X{last}) for every hour, count and pay column

  Every formula cell also carries the engine's value, so readers that do
  not evaluate formulas (CSV, PDF, tests) see the same figures.

SEE ALSO:
  - xlsx.go, csv.go, pdf.go: Renderers
  - payroll/pay.go: The formulas these cells restate
*/
package export

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/warp/payroll-export/generic"
	"github.com/warp/payroll-export/payroll"
)

const (
	SheetName    = "Payroll Export"
	TotalsLabel  = "TOTALS"
	BannerRow    = 1
	HeaderRow    = 2
	FirstDataRow = 3

	// Row highlight fills.
	FillOnCall      = "FFF2CC"
	FillSalaried    = "E2EFDA"
	FillNonStandard = "FCE4D6"
	FillHeader      = "4472C4"
	FillTotalPay    = "FFFF00"
)

// =============================================================================
// SHEET MODEL
// =============================================================================

type ColumnKind int

const (
	KindText ColumnKind = iota
	KindNumber
	KindCurrency
)

type Column struct {
	Header string
	Kind   ColumnKind
	Width  float64
	Bold   bool // computed columns
}

// Cell holds a literal value and, optionally, the formula that recomputes
// it. Formula has no leading "=".
type Cell struct {
	Value   any
	Formula string
}

type Row struct {
	Cells []Cell
	Fill  string
}

// Sheet is a rendered run, independent of file format.
type Sheet struct {
	Banner  string
	Columns []Column
	Rows    []Row
	Totals  Row
	Layout  Layout
}

// LastDataRow is the spreadsheet row of the last record.
func (s *Sheet) LastDataRow() int {
	return FirstDataRow + len(s.Rows) - 1
}

// TotalsRow is the spreadsheet row of the totals.
func (s *Sheet) TotalsRow() int {
	return FirstDataRow + len(s.Rows)
}

// =============================================================================
// LAYOUT - Column positions for a given role set
// =============================================================================

// Layout holds 1-based column numbers.
type Layout struct {
	Roles []payroll.Role

	Name, PayType, Weekly, Total, Fixed, Hours, Rate1 int
	RoleStart                                         int
	OnCallHours, OnCallShifts, FlatRate               int
	Overtime, Rate2                                   int
	HolidayDays, HolidayHours, SicknessDays, TotalPay int
}

func NewLayout(roles []payroll.Role) Layout {
	l := Layout{
		Roles: roles,
		Name:  1, PayType: 2, Weekly: 3, Total: 4, Fixed: 5, Hours: 6, Rate1: 7,
		RoleStart: 8,
	}
	next := l.RoleStart + 2*len(roles)
	l.OnCallHours, l.OnCallShifts, l.FlatRate = next, next+1, next+2
	l.Overtime, l.Rate2 = next+3, next+4
	l.HolidayDays, l.HolidayHours, l.SicknessDays, l.TotalPay = next+5, next+6, next+7, next+8
	return l
}

// RoleHoursCol and RoleRateCol locate the pair for the i-th role.
func (l Layout) RoleHoursCol(i int) int { return l.RoleStart + 2*i }
func (l Layout) RoleRateCol(i int) int  { return l.RoleStart + 2*i + 1 }

// Width is the number of columns.
func (l Layout) Width() int { return l.TotalPay }

// Columns lists headers and kinds in order.
func (l Layout) Columns() []Column {
	cols := []Column{
		{Header: "Employee Name", Kind: KindText, Width: 25},
		{Header: "Pay Type", Kind: KindText, Width: 10},
		{Header: "Weekly Hrs", Kind: KindNumber},
		{Header: "Total Hrs", Kind: KindNumber},
		{Header: "Fixed Hrs", Kind: KindNumber, Bold: true},
		{Header: "Hours", Kind: KindNumber, Bold: true},
		{Header: "Rate 1 (£)", Kind: KindCurrency},
	}
	for _, r := range l.Roles {
		cols = append(cols,
			Column{Header: r.Name + " Hrs", Kind: KindNumber},
			Column{Header: r.Name + " Rate (£)", Kind: KindCurrency},
		)
	}
	cols = append(cols,
		Column{Header: "On-Call Hrs", Kind: KindNumber, Bold: true},
		Column{Header: "On-Call Shifts", Kind: KindNumber},
		Column{Header: "On-Call Flat Rate (£)", Kind: KindCurrency},
		Column{Header: "Overtime Hrs", Kind: KindNumber, Bold: true},
		Column{Header: "Rate 2 (£)", Kind: KindCurrency},
		Column{Header: "Holiday (Days)", Kind: KindNumber},
		Column{Header: "Holiday (Hrs)", Kind: KindNumber},
		Column{Header: "Sickness (Days)", Kind: KindNumber},
		Column{Header: "TOTAL PAY (£)", Kind: KindCurrency, Bold: true},
	)
	for i := range cols {
		if cols[i].Width == 0 {
			cols[i].Width = 14
		}
	}
	return cols
}

// SumColumns are the columns totalled in the totals row.
func (l Layout) SumColumns() []int {
	cols := []int{l.Weekly, l.Total, l.Fixed, l.Hours}
	for i := range l.Roles {
		cols = append(cols, l.RoleHoursCol(i))
	}
	return append(cols, l.OnCallHours, l.OnCallShifts, l.Overtime, l.HolidayDays, l.HolidayHours, l.SicknessDays, l.TotalPay)
}

// =============================================================================
// FORMULAS
// =============================================================================

// ColumnName converts a 1-based column number to its letters.
func ColumnName(col int) string {
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		panic(err)
	}
	return name
}

func ref(col, row int) string {
	return fmt.Sprintf("%s%d", ColumnName(col), row)
}

func (l Layout) HoursFormula(row int) string {
	return fmt.Sprintf("MIN(%s-%s,%s-%s)",
		ref(l.Total, row), ref(l.OnCallHours, row), ref(l.Fixed, row), ref(l.OnCallHours, row))
}

func (l Layout) OvertimeFormula(row int) string {
	return fmt.Sprintf("MAX(0,%s-%s)", ref(l.Total, row), ref(l.Fixed, row))
}

func (l Layout) TotalPayFormula(row int) string {
	term := func(a, b int) string { return "(" + ref(a, row) + "*" + ref(b, row) + ")" }
	parts := []string{term(l.Hours, l.Rate1)}
	for i := range l.Roles {
		parts = append(parts, term(l.RoleHoursCol(i), l.RoleRateCol(i)))
	}
	parts = append(parts,
		term(l.OnCallHours, l.Rate1),
		term(l.OnCallShifts, l.FlatRate),
		term(l.Overtime, l.Rate2),
		term(l.HolidayHours, l.Rate1),
	)
	return strings.Join(parts, "+")
}

func SumFormula(col, first, last int) string {
	return fmt.Sprintf("SUM(%s:%s)", ref(col, first), ref(col, last))
}

// =============================================================================
// BUILD
// =============================================================================

// BuildSheet lays out a run.
func BuildSheet(res *payroll.Result) *Sheet {
	layout := NewLayout(res.Roles)
	s := &Sheet{
		Banner:  Banner(res.Period),
		Columns: layout.Columns(),
		Layout:  layout,
	}
	for i, rec := range res.Records {
		s.Rows = append(s.Rows, buildRow(layout, rec, res.OvertimeRate, FirstDataRow+i))
	}
	s.Totals = buildTotals(layout, s, res.Records)
	return s
}

// Banner is the merged title of row 1.
func Banner(p generic.Period) string {
	return fmt.Sprintf("Payroll Period: %s - %s", p.Start.Format("02/01/2006"), p.End.Format("02/01/2006"))
}

// RowFill picks the highlight: on-call first, then salaried, then an hourly
// rate away from the minimum wage.
func RowFill(rec payroll.PayrollRecord) string {
	switch {
	case rec.OnCall.WorkedHours.IsPositive():
		return FillOnCall
	case rec.PayType == payroll.PaySalaried:
		return FillSalaried
	case rec.Rate1.Value.Sub(payroll.MinimumWage).Abs().GreaterThan(tolerance):
		return FillNonStandard
	default:
		return ""
	}
}

var tolerance = generic.MustParseDecimal("0.01")

func buildRow(l Layout, rec payroll.PayrollRecord, overtimeRate generic.Amount, row int) Row {
	cells := make([]Cell, l.Width())
	set := func(col int, v any) { cells[col-1] = Cell{Value: v} }

	set(l.Name, rec.Name)
	set(l.PayType, rec.PayType.String())
	set(l.Weekly, rec.WeeklyHours.Float())
	set(l.Total, rec.TotalHoursDisplay.Float())
	set(l.Fixed, rec.FixedHours.Float())
	cells[l.Hours-1] = Cell{Value: rec.HoursAtBase.Float(), Formula: l.HoursFormula(row)}
	set(l.Rate1, rec.Rate1.Float())
	for i, role := range l.Roles {
		rh := rec.RoleHoursFor(role.ID)
		set(l.RoleHoursCol(i), rh.Hours.Float())
		set(l.RoleRateCol(i), rh.Rate.Float())
	}
	set(l.OnCallHours, rec.OnCall.WorkedHours.Float())
	set(l.OnCallShifts, rec.OnCall.AssignedShifts)
	set(l.FlatRate, generic.GBP(payroll.OnCallFlatRate).Float())
	cells[l.Overtime-1] = Cell{Value: rec.OvertimeHours.Float(), Formula: l.OvertimeFormula(row)}
	set(l.Rate2, overtimeRate.Float())
	set(l.HolidayDays, rec.Leave.HolidayDays.Float())
	set(l.HolidayHours, rec.Leave.HolidayHours.Float())
	set(l.SicknessDays, rec.Leave.SicknessDays.Float())

	total := Cell{Value: rec.TotalPay.Float()}
	if rec.PayType != payroll.PaySalaried {
		total.Formula = l.TotalPayFormula(row)
	}
	cells[l.TotalPay-1] = total

	return Row{Cells: cells, Fill: RowFill(rec)}
}

// buildTotals sums each summed column in decimal. The pay column adds the
// records' own TotalPay so the literal matches Summarize to the penny. With
// no records there is no range to sum and the totals are literal zeros.
func buildTotals(l Layout, s *Sheet, records []payroll.PayrollRecord) Row {
	cells := make([]Cell, l.Width())
	cells[l.Name-1] = Cell{Value: TotalsLabel}
	for _, col := range l.SumColumns() {
		sum := decimal.Zero
		if col == l.TotalPay {
			for _, rec := range records {
				sum = sum.Add(rec.TotalPay.Value)
			}
		} else {
			for _, r := range s.Rows {
				sum = sum.Add(toDecimal(r.Cells[col-1].Value))
			}
		}
		c := Cell{Value: sum.Round(2).InexactFloat64()}
		if len(s.Rows) > 0 {
			c.Formula = SumFormula(col, FirstDataRow, s.LastDataRow())
		}
		cells[col-1] = c
	}
	return Row{Cells: cells}
}

// toDecimal reads a cell literal back. Cell floats come from 2 dp decimals,
// whose shortest representation NewFromFloat recovers exactly.
func toDecimal(v any) decimal.Decimal {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n)
	case int:
		return decimal.NewFromInt(int64(n))
	default:
		return decimal.Zero
	}
}
