package payroll

import (
	"github.com/warp/payroll-export/generic"
)

// ClassifyShifts routes every shift to exactly one bucket:
//
//	on-call role           -> OnCallStubs (never counted as worked time here)
//	role with override     -> CustomRoles[role]
//	anything else          -> base
//
// Net time is (end - start) - break. Seconds are summed as integers and
// converted to hours once per bucket. Shifts missing a timestamp are listed
// in Dropped and contribute nothing.
func ClassifyShifts(shifts []RawShift, overrides map[RoleID]generic.Amount, lookup RoleLookup) ClassifiedHours {
	var totalSeconds, baseSeconds int64
	roleSeconds := make(map[RoleID]int64)
	out := ClassifiedHours{CustomRoles: make(map[RoleID]RoleHours)}

	for _, s := range shifts {
		if s.Start == nil || s.End == nil {
			out.Dropped = append(out.Dropped, s.ID)
			continue
		}

		role := lookup(s.Role)
		if role.IsOnCall() {
			out.OnCallStubs = append(out.OnCallStubs, OnCallStub{
				ShiftID:      s.ID,
				Start:        *s.Start,
				End:          *s.End,
				BreakMinutes: s.BreakMinutes,
			})
			continue
		}

		net := (*s.End - *s.Start) - s.BreakMinutes*60
		totalSeconds += net

		rate, ok := overrides[s.Role]
		if s.Role != 0 && ok {
			if _, seen := out.CustomRoles[s.Role]; !seen {
				out.CustomRoles[s.Role] = RoleHours{Role: role, Rate: rate}
			}
			roleSeconds[s.Role] += net
			continue
		}
		baseSeconds += net
	}

	out.TotalHours = generic.SecondsToHours(totalSeconds)
	out.BaseHours = generic.SecondsToHours(baseSeconds)
	for id, secs := range roleSeconds {
		rh := out.CustomRoles[id]
		rh.Hours = generic.SecondsToHours(secs)
		out.CustomRoles[id] = rh
	}
	return out
}

// RoleIDs returns the distinct role ids referenced by shifts, in first-seen order.
func RoleIDs(shifts []RawShift) []RoleID {
	seen := make(map[RoleID]bool)
	var ids []RoleID
	for _, s := range shifts {
		if !seen[s.Role] {
			seen[s.Role] = true
			ids = append(ids, s.Role)
		}
	}
	return ids
}
