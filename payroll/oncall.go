package payroll

import (
	"fmt"

	"github.com/warp/payroll-export/generic"
)

// ReconcileOnCall matches attendance to on-call stubs by shift id.
//
// AssignedShifts is len(stubs) whether or not anyone clocked in: the flat
// rate is owed for every assigned on-call shift. WorkedHours sums out-in for
// matched, non-deleted records with both timestamps. Non-positive durations
// are skipped with a warning; durations over 12h are kept with a warning.
// Attendance for other shifts is ignored.
func ReconcileOnCall(stubs []OnCallStub, attendance []AttendanceRecord, warn WarnFunc) OnCallResult {
	result := OnCallResult{
		WorkedHours:    generic.ZeroOf(generic.UnitHours),
		AssignedShifts: len(stubs),
	}
	if len(stubs) == 0 || len(attendance) == 0 {
		return result
	}

	lookup := make(map[ShiftID]OnCallStub, len(stubs))
	for _, s := range stubs {
		if s.ShiftID == 0 {
			continue
		}
		lookup[s.ShiftID] = s
	}

	var seconds int64
	for _, a := range attendance {
		if a.Deleted {
			continue
		}
		if _, ok := lookup[a.ShiftID]; !ok {
			continue
		}
		if a.In == nil || a.Out == nil {
			warn.emit(WarnOnCall, fmt.Sprintf("on-call shift %d has incomplete attendance (missing clock in or out)", a.ShiftID))
			continue
		}

		d := *a.Out - *a.In
		if d <= 0 {
			warn.emit(WarnOnCall, fmt.Sprintf("invalid on-call hours for shift %d: %s hours", a.ShiftID, generic.SecondsToHours(d).Value.StringFixed(2)))
			continue
		}
		if d > SuspiciousOnCallSeconds {
			warn.emit(WarnOnCall, fmt.Sprintf("suspiciously long on-call shift %d: %s hours", a.ShiftID, generic.SecondsToHours(d).Value.StringFixed(2)))
		}
		seconds += d
	}

	result.WorkedHours = generic.SecondsToHours(seconds)
	return result
}
