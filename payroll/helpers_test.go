package payroll_test

import (
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-export/generic"
	"github.com/warp/payroll-export/payroll"
)

// =============================================================================
// TEST INFRASTRUCTURE
// =============================================================================

const hour = int64(3600)

// base is 2025-01-13 09:00 UTC, inside the January 2025 pay period.
const base = int64(1736758800)

func ts(v int64) *int64 { return &v }

func hrs(s string) generic.Amount { return generic.Hours(decimal.RequireFromString(s)) }
func gbp(s string) generic.Amount { return generic.GBP(decimal.RequireFromString(s)) }

// shift builds a shift starting offsetHours after base lasting lengthHours.
func shift(id payroll.ShiftID, role payroll.RoleID, offsetHours, lengthHours, breakMinutes int64) payroll.RawShift {
	start := base + offsetHours*hour
	return payroll.RawShift{ID: id, Start: ts(start), End: ts(start + lengthHours*hour), BreakMinutes: breakMinutes, Role: role}
}

func hourly(id payroll.EmployeeID, first, last, rate, weekly string) payroll.Employee {
	return payroll.Employee{
		ID: id, FirstName: first, LastName: last,
		Profile: payroll.PayProfile{
			PayType:      payroll.PayHourly,
			HourlyRate:   gbp(rate),
			AnnualSalary: gbp("0"),
			WeeklyHours:  hrs(weekly),
		},
	}
}

func salaried(id payroll.EmployeeID, first, last, annual, weekly string) payroll.Employee {
	return payroll.Employee{
		ID: id, FirstName: first, LastName: last,
		Profile: payroll.PayProfile{
			PayType:      payroll.PaySalaried,
			HourlyRate:   gbp("0"),
			AnnualSalary: gbp(annual),
			WeeklyHours:  hrs(weekly),
		},
	}
}

const (
	roleCare   payroll.RoleID = 10
	roleOnCall payroll.RoleID = 20
	roleHome   payroll.RoleID = 30
	roleNight  payroll.RoleID = 40
)

func roleLookup(id payroll.RoleID) payroll.Role {
	names := map[payroll.RoleID]string{
		roleCare:   "Care Assistant",
		roleOnCall: "On-Call",
		roleHome:   "Homecare",
		roleNight:  "Night",
	}
	return payroll.NewRole(id, names[id])
}

