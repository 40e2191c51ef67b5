// Package timeoff aggregates approved leave into the totals payroll needs.
// Holiday contributes days and hours; sickness contributes days only.
package timeoff

import (
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-export/generic"
)

// =============================================================================
// LEAVE TYPE - Integer codes used by the scheduling platform
// =============================================================================

type LeaveType int

const (
	LeaveHoliday  LeaveType = 1
	LeaveSickness LeaveType = 3
)

func (t LeaveType) String() string {
	switch t {
	case LeaveHoliday:
		return "holiday"
	case LeaveSickness:
		return "sickness"
	default:
		return "other"
	}
}

type RequestStatus string

const (
	StatusApproved  RequestStatus = "approved"
	StatusRequested RequestStatus = "requested"
	StatusDenied    RequestStatus = "denied"
)

// LeaveDate is one day of a leave request. Date is kept as received so an
// unparseable value can be reported rather than lost while decoding.
type LeaveDate struct {
	Date  string
	Days  decimal.Decimal
	Hours decimal.Decimal
}

// LeaveRecord is one leave request with its per-day breakdown.
type LeaveRecord struct {
	ID      int64
	Status  RequestStatus
	Type    LeaveType
	Deleted bool
	Dates   []LeaveDate
}

// LeaveTotals are the three leave figures on a payroll row, each rounded to 2 dp.
type LeaveTotals struct {
	HolidayDays  generic.Amount
	HolidayHours generic.Amount
	SicknessDays generic.Amount
}

// ZeroTotals is the value used when leave could not be fetched.
func ZeroTotals() LeaveTotals {
	return LeaveTotals{
		HolidayDays:  generic.ZeroOf(generic.UnitDays),
		HolidayHours: generic.ZeroOf(generic.UnitHours),
		SicknessDays: generic.ZeroOf(generic.UnitDays),
	}
}
