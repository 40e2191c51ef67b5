package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"github.com/warp/payroll-export/payroll"
)

type pdfColumn struct {
	header string
	width  float64
	align  string
	value  func(payroll.PayrollRecord) string
}

var pdfColumns = []pdfColumn{
	{"Employee", 60, "L", func(r payroll.PayrollRecord) string { return r.Name }},
	{"Type", 22, "L", func(r payroll.PayrollRecord) string { return r.PayType.String() }},
	{"Total Hrs", 24, "R", func(r payroll.PayrollRecord) string { return Number(r.TotalHoursDisplay) }},
	{"Fixed Hrs", 24, "R", func(r payroll.PayrollRecord) string { return Number(r.FixedHours) }},
	{"On-Call Hrs", 24, "R", func(r payroll.PayrollRecord) string { return Number(r.OnCall.WorkedHours) }},
	{"On-Call Shifts", 26, "R", func(r payroll.PayrollRecord) string { return strconv.Itoa(r.OnCall.AssignedShifts) }},
	{"Overtime Hrs", 24, "R", func(r payroll.PayrollRecord) string { return Number(r.OvertimeHours) }},
	{"Holiday Hrs", 24, "R", func(r payroll.PayrollRecord) string { return Number(r.Leave.HolidayHours) }},
	{"Total Pay", 30, "R", func(r payroll.PayrollRecord) string { return Money(r.TotalPay) }},
}

// WritePDF renders a one-document run summary: period, totals, one line per
// employee and the warnings raised.
func WritePDF(w io.Writer, res *payroll.Result) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Payroll Export", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Payroll Export")
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, tr(Banner(res.Period)))
	pdf.Ln(9)

	s := res.Summary
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range []string{
		fmt.Sprintf("Employees: %d", s.Employees),
		"Total hours: " + Number(s.TotalHours),
		"On-call hours: " + Number(s.OnCallHours),
		fmt.Sprintf("On-call shifts: %d", s.OnCallShifts),
		"Overtime hours: " + Number(s.OvertimeHours),
		"Total payroll: " + Money(s.TotalPay),
	} {
		pdf.Cell(0, 6, tr(line))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(0x44, 0x72, 0xC4)
	pdf.SetTextColor(255, 255, 255)
	for _, c := range pdfColumns {
		pdf.CellFormat(c.width, 8, c.header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(0, 0, 0)
	for _, rec := range res.Records {
		for _, c := range pdfColumns {
			pdf.CellFormat(c.width, 7, tr(c.value(rec)), "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(res.Warnings) > 0 {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.Cell(0, 7, fmt.Sprintf("Warnings (%d)", len(res.Warnings)))
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 9)
		for _, warning := range res.Warnings {
			pdf.MultiCell(0, 5, tr(warning.String()), "", "L", false)
		}
	}

	pdf.SetFont("Helvetica", "", 7)
	pdf.Ln(4)
	pdf.Cell(0, 5, "Digest "+res.Digest)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
