/*
Package factory provides JSON to Go conversion for scheduling platform records.

PURPOSE:
  Converts the JSON documents returned by the RotaCloud REST API (and the
  demo data sets, which use the same shapes) into payroll and timeoff
  domain types. Decoding is lenient the same way the platform is: numbers
  may arrive quoted, optional fields may be null or missing.

JSON SCHEMA (users):
  {
    "id": 7,
    "first_name": "Zoe",
    "last_name": "Adams",
    "salary_type": "hourly",          // hourly | annual, anything else: hourly at 0
    "salary": "14.00",                // hourly rate or annual salary
    "weekly_hours": 40,
    "role_rates": {"30": {"per_hour": 13.5}}
  }

JSON SCHEMA (shifts):
  {"id": 11, "start_time": 1736758800, "end_time": 1736787600,
   "minutes_break": 30, "role": 10, "user": 7}

JSON SCHEMA (attendance):
  {"id": 5, "shift": 11, "in_time": 1736758800, "out_time": 1736787600,
   "deleted": false}

JSON SCHEMA (leave):
  {"id": 3, "status": "approved", "type": 1, "deleted": false,
   "dates": [{"date": "2025-01-20", "days": 1, "hours": 7.5}]}

KEY FEATURES:
  - Role-rate keys are parsed as integers; bad keys and entries without
    per_hour are skipped
  - Missing timestamps stay nil so the classifier can drop the shift
  - Round trip back to JSON for the demo data sets

USAGE:
  f := factory.NewFactory()
  users, err := f.ParseUsers(body)
  shifts, err := f.ParseShifts(body)

SEE ALSO:
  - payroll/types.go: Domain types produced here
  - dataset.go: Whole data sets (demo scenarios)
  - rotacloud/client.go: Where the HTTP bodies come from
*/
package factory

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-export/generic"
	"github.com/warp/payroll-export/payroll"
	"github.com/warp/payroll-export/timeoff"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// UserJSON is the JSON representation of a platform user.
type UserJSON struct {
	ID          int64                      `json:"id"`
	FirstName   string                     `json:"first_name"`
	LastName    string                     `json:"last_name"`
	SalaryType  string                     `json:"salary_type"`
	Salary      *decimal.Decimal           `json:"salary"`
	WeeklyHours *decimal.Decimal           `json:"weekly_hours"`
	RoleRates   map[string]json.RawMessage `json:"role_rates,omitempty"`
}

// RoleRateJSON is one entry of a user's role_rates object.
type RoleRateJSON struct {
	PerHour *decimal.Decimal `json:"per_hour"`
}

// ShiftJSON represents a published shift.
type ShiftJSON struct {
	ID           int64  `json:"id"`
	StartTime    *int64 `json:"start_time"`
	EndTime      *int64 `json:"end_time"`
	MinutesBreak *int64 `json:"minutes_break"`
	Role         *int64 `json:"role"`
	User         int64  `json:"user,omitempty"`
}

// AttendanceJSON represents a clock in/out record.
type AttendanceJSON struct {
	ID      int64  `json:"id"`
	Shift   *int64 `json:"shift"`
	InTime  *int64 `json:"in_time"`
	OutTime *int64 `json:"out_time"`
	Deleted bool   `json:"deleted"`
	User    int64  `json:"user,omitempty"`
}

// LeaveJSON represents a leave request.
type LeaveJSON struct {
	ID      int64           `json:"id"`
	Status  string          `json:"status"`
	Type    int             `json:"type"`
	Deleted bool            `json:"deleted"`
	Dates   []LeaveDateJSON `json:"dates"`
	User    int64           `json:"user,omitempty"`
}

// LeaveDateJSON is one day of a leave request.
type LeaveDateJSON struct {
	Date  string           `json:"date"`
	Days  *decimal.Decimal `json:"days"`
	Hours *decimal.Decimal `json:"hours"`
}

// RoleJSON represents a scheduling role.
type RoleJSON struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// =============================================================================
// FACTORY
// =============================================================================

// Factory converts platform JSON to domain types.
type Factory struct{}

// NewFactory creates a new factory.
func NewFactory() *Factory {
	return &Factory{}
}

// ParseUsers parses a users array.
func (f *Factory) ParseUsers(body []byte) ([]payroll.Employee, error) {
	var raw []UserJSON
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse users JSON: %w: %w", generic.ErrDataShape, err)
	}
	out := make([]payroll.Employee, 0, len(raw))
	for _, u := range raw {
		out = append(out, f.FromUserJSON(u))
	}
	return out, nil
}

// FromUserJSON builds the employee and its pay profile.
func (f *Factory) FromUserJSON(u UserJSON) payroll.Employee {
	profile := payroll.PayProfile{
		PayType:      payroll.PayHourly,
		HourlyRate:   generic.ZeroOf(generic.UnitGBP),
		AnnualSalary: generic.ZeroOf(generic.UnitGBP),
		WeeklyHours:  generic.Hours(deref(u.WeeklyHours)),
		RoleRates:    parseRoleRates(u.RoleRates),
	}

	switch strings.ToLower(strings.TrimSpace(u.SalaryType)) {
	case "hourly":
		profile.HourlyRate = generic.GBP(deref(u.Salary))
	case "annual":
		profile.PayType = payroll.PaySalaried
		profile.AnnualSalary = generic.GBP(deref(u.Salary))
	}

	return payroll.Employee{
		ID:        payroll.EmployeeID(u.ID),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Profile:   profile,
	}
}

// ToUserJSON converts an employee back to the platform shape.
func (f *Factory) ToUserJSON(e payroll.Employee) UserJSON {
	u := UserJSON{
		ID:          int64(e.ID),
		FirstName:   e.FirstName,
		LastName:    e.LastName,
		WeeklyHours: ptr(e.Profile.WeeklyHours.Value),
	}
	if e.Profile.PayType == payroll.PaySalaried {
		u.SalaryType = "annual"
		u.Salary = ptr(e.Profile.AnnualSalary.Value)
	} else {
		u.SalaryType = "hourly"
		u.Salary = ptr(e.Profile.HourlyRate.Value)
	}
	if len(e.Profile.RoleRates) > 0 {
		u.RoleRates = make(map[string]json.RawMessage, len(e.Profile.RoleRates))
		for id, rate := range e.Profile.RoleRates {
			b, _ := json.Marshal(RoleRateJSON{PerHour: ptr(rate.Value)})
			u.RoleRates[strconv.FormatInt(int64(id), 10)] = b
		}
	}
	return u
}

// parseRoleRates keeps entries with an integer key and a per_hour value.
func parseRoleRates(raw map[string]json.RawMessage) map[payroll.RoleID]generic.Amount {
	rates := make(map[payroll.RoleID]generic.Amount)
	for key, msg := range raw {
		id, err := strconv.ParseInt(strings.TrimSpace(key), 10, 64)
		if err != nil {
			continue
		}
		var rr RoleRateJSON
		if err := json.Unmarshal(msg, &rr); err != nil || rr.PerHour == nil {
			continue
		}
		rates[payroll.RoleID(id)] = generic.GBP(*rr.PerHour)
	}
	return rates
}

// ParseShifts parses a shifts array.
func (f *Factory) ParseShifts(body []byte) ([]payroll.RawShift, error) {
	var raw []ShiftJSON
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse shifts JSON: %w: %w", generic.ErrDataShape, err)
	}
	out := make([]payroll.RawShift, 0, len(raw))
	for _, s := range raw {
		out = append(out, f.FromShiftJSON(s))
	}
	return out, nil
}

func (f *Factory) FromShiftJSON(s ShiftJSON) payroll.RawShift {
	shift := payroll.RawShift{
		ID:    payroll.ShiftID(s.ID),
		Start: s.StartTime,
		End:   s.EndTime,
	}
	if s.MinutesBreak != nil {
		shift.BreakMinutes = *s.MinutesBreak
	}
	if s.Role != nil {
		shift.Role = payroll.RoleID(*s.Role)
	}
	return shift
}

func (f *Factory) ToShiftJSON(s payroll.RawShift) ShiftJSON {
	role := int64(s.Role)
	brk := s.BreakMinutes
	return ShiftJSON{
		ID:           int64(s.ID),
		StartTime:    s.Start,
		EndTime:      s.End,
		MinutesBreak: &brk,
		Role:         &role,
	}
}

// ParseAttendance parses an attendance array.
func (f *Factory) ParseAttendance(body []byte) ([]payroll.AttendanceRecord, error) {
	var raw []AttendanceJSON
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse attendance JSON: %w: %w", generic.ErrDataShape, err)
	}
	out := make([]payroll.AttendanceRecord, 0, len(raw))
	for _, a := range raw {
		out = append(out, f.FromAttendanceJSON(a))
	}
	return out, nil
}

func (f *Factory) FromAttendanceJSON(a AttendanceJSON) payroll.AttendanceRecord {
	rec := payroll.AttendanceRecord{In: a.InTime, Out: a.OutTime, Deleted: a.Deleted}
	if a.Shift != nil {
		rec.ShiftID = payroll.ShiftID(*a.Shift)
	}
	return rec
}

func (f *Factory) ToAttendanceJSON(a payroll.AttendanceRecord) AttendanceJSON {
	shift := int64(a.ShiftID)
	return AttendanceJSON{Shift: &shift, InTime: a.In, OutTime: a.Out, Deleted: a.Deleted}
}

// ParseLeave parses a leave array.
func (f *Factory) ParseLeave(body []byte) ([]timeoff.LeaveRecord, error) {
	var raw []LeaveJSON
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse leave JSON: %w: %w", generic.ErrDataShape, err)
	}
	out := make([]timeoff.LeaveRecord, 0, len(raw))
	for _, l := range raw {
		out = append(out, f.FromLeaveJSON(l))
	}
	return out, nil
}

func (f *Factory) FromLeaveJSON(l LeaveJSON) timeoff.LeaveRecord {
	rec := timeoff.LeaveRecord{
		ID:      l.ID,
		Status:  timeoff.RequestStatus(strings.ToLower(l.Status)),
		Type:    timeoff.LeaveType(l.Type),
		Deleted: l.Deleted,
		Dates:   make([]timeoff.LeaveDate, 0, len(l.Dates)),
	}
	for _, d := range l.Dates {
		rec.Dates = append(rec.Dates, timeoff.LeaveDate{
			Date:  d.Date,
			Days:  deref(d.Days),
			Hours: deref(d.Hours),
		})
	}
	return rec
}

func (f *Factory) ToLeaveJSON(l timeoff.LeaveRecord) LeaveJSON {
	lj := LeaveJSON{ID: l.ID, Status: string(l.Status), Type: int(l.Type), Deleted: l.Deleted}
	for _, d := range l.Dates {
		lj.Dates = append(lj.Dates, LeaveDateJSON{Date: d.Date, Days: ptr(d.Days), Hours: ptr(d.Hours)})
	}
	return lj
}

// ParseRole parses a single role object and returns its name.
func (f *Factory) ParseRole(body []byte) (RoleJSON, error) {
	var r RoleJSON
	if err := json.Unmarshal(body, &r); err != nil {
		return RoleJSON{}, fmt.Errorf("failed to parse role JSON: %w: %w", generic.ErrDataShape, err)
	}
	return r, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func deref(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

func ptr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
