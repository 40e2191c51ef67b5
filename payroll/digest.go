package payroll

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// Digest fingerprints the computed content of a run: period, overtime rate,
// role columns and every record field in output order. Two runs over the
// same upstream data produce the same digest. Warnings and timestamps are
// not part of it.
func Digest(r *Result) string {
	h := sha256.New()
	fmt.Fprintf(h, "period|%s|%s\n", r.Period.Start, r.Period.End)
	fmt.Fprintf(h, "overtime|%s\n", r.OvertimeRate.Value.StringFixed(2))
	for _, role := range r.Roles {
		fmt.Fprintf(h, "role|%d|%s\n", role.ID, role.Name)
	}
	for _, rec := range r.Records {
		writeRecord(h, rec, r.Roles)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeRecord(w io.Writer, rec PayrollRecord, roles []Role) {
	fmt.Fprintf(w, "emp|%d|%s|%s|%s|%s|%s|%s|%s|%s|%s|%s|%d|%s|%s|%s|%s\n",
		rec.EmployeeID,
		rec.Name,
		rec.PayType,
		rec.WeeklyHours.Value.StringFixed(2),
		rec.Rate1.Value.StringFixed(2),
		rec.FixedHours.Value.StringFixed(2),
		rec.TotalHoursDisplay.Value.StringFixed(2),
		rec.HoursAtBase.Value.StringFixed(2),
		rec.OvertimeHours.Value.StringFixed(2),
		rec.OnCall.WorkedHours.Value.StringFixed(2),
		rec.Leave.HolidayDays.Value.StringFixed(2),
		rec.OnCall.AssignedShifts,
		rec.Leave.HolidayHours.Value.StringFixed(2),
		rec.Leave.SicknessDays.Value.StringFixed(2),
		rec.AnnualSalary.Value.StringFixed(2),
		rec.TotalPay.Value.StringFixed(2),
	)
	for _, role := range roles {
		rh := rec.RoleHoursFor(role.ID)
		fmt.Fprintf(w, "role-hours|%d|%s|%s\n", role.ID, rh.Hours.Value.StringFixed(2), rh.Rate.Value.StringFixed(2))
	}
}
