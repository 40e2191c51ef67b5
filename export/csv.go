package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/warp/payroll-export/payroll"
)

// CSVRow is one employee in the CSV summary. Custom-role hours are packed
// into a single column as "Role=hours" pairs in column order so the header
// stays fixed across runs.
type CSVRow struct {
	EmployeeID    int64  `csv:"employee_id"`
	Name          string `csv:"employee_name"`
	PayType       string `csv:"pay_type"`
	WeeklyHours   string `csv:"weekly_hours"`
	TotalHours    string `csv:"total_hours"`
	FixedHours    string `csv:"fixed_hours"`
	HoursAtBase   string `csv:"hours"`
	Rate1         string `csv:"rate_1"`
	CustomRoles   string `csv:"custom_role_hours"`
	OnCallHours   string `csv:"on_call_hours"`
	OnCallShifts  int    `csv:"on_call_shifts"`
	OvertimeHours string `csv:"overtime_hours"`
	Rate2         string `csv:"rate_2"`
	HolidayDays   string `csv:"holiday_days"`
	HolidayHours  string `csv:"holiday_hours"`
	SicknessDays  string `csv:"sickness_days"`
	TotalPay      string `csv:"total_pay"`
}

// CSVRows converts a run to summary rows, in output order.
func CSVRows(res *payroll.Result) []CSVRow {
	rows := make([]CSVRow, 0, len(res.Records))
	for _, rec := range res.Records {
		var roles []string
		for _, role := range res.Roles {
			rh := rec.RoleHoursFor(role.ID)
			roles = append(roles, fmt.Sprintf("%s=%s", role.Name, rh.Hours.Value.StringFixed(2)))
		}
		rows = append(rows, CSVRow{
			EmployeeID:    int64(rec.EmployeeID),
			Name:          rec.Name,
			PayType:       rec.PayType.String(),
			WeeklyHours:   rec.WeeklyHours.Value.StringFixed(2),
			TotalHours:    rec.TotalHoursDisplay.Value.StringFixed(2),
			FixedHours:    rec.FixedHours.Value.StringFixed(2),
			HoursAtBase:   rec.HoursAtBase.Value.StringFixed(2),
			Rate1:         rec.Rate1.Value.StringFixed(2),
			CustomRoles:   strings.Join(roles, ";"),
			OnCallHours:   rec.OnCall.WorkedHours.Value.StringFixed(2),
			OnCallShifts:  rec.OnCall.AssignedShifts,
			OvertimeHours: rec.OvertimeHours.Value.StringFixed(2),
			Rate2:         res.OvertimeRate.Value.StringFixed(2),
			HolidayDays:   rec.Leave.HolidayDays.Value.StringFixed(2),
			HolidayHours:  rec.Leave.HolidayHours.Value.StringFixed(2),
			SicknessDays:  rec.Leave.SicknessDays.Value.StringFixed(2),
			TotalPay:      rec.TotalPay.Value.StringFixed(2),
		})
	}
	return rows
}

// WriteCSV writes the summary with a header line.
func WriteCSV(w io.Writer, res *payroll.Result) error {
	rows := CSVRows(res)
	if len(rows) == 0 {
		// An empty run still gets its header line.
		header, err := gocsv.MarshalString([]CSVRow{{}})
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, strings.SplitN(header, "\n", 2)[0]+"\n")
		return err
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
