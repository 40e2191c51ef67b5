package factory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/warp/payroll-export/generic"
	"github.com/warp/payroll-export/payroll"
	"github.com/warp/payroll-export/timeoff"
)

// DatasetJSON is a self-contained snapshot of a workforce: the users, the
// roles they work and their records for one pay period. Shift, attendance
// and leave entries carry the owning user id.
type DatasetJSON struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Year        int              `json:"year"`
	Month       int              `json:"month"`
	Roles       []RoleJSON       `json:"roles"`
	Users       []UserJSON       `json:"users"`
	Shifts      []ShiftJSON      `json:"shifts"`
	Attendance  []AttendanceJSON `json:"attendance"`
	Leave       []LeaveJSON      `json:"leave"`
}

// Dataset is a decoded DatasetJSON ready to be run.
type Dataset struct {
	ID          string
	Name        string
	Description string
	Period      generic.Period
	Source      *payroll.MemorySource
}

// ParseDataset parses and converts a data set document.
func (f *Factory) ParseDataset(body []byte) (*Dataset, error) {
	var dj DatasetJSON
	if err := json.Unmarshal(body, &dj); err != nil {
		return nil, fmt.Errorf("failed to parse dataset JSON: %w: %w", generic.ErrDataShape, err)
	}
	return f.FromDatasetJSON(dj)
}

// FromDatasetJSON builds a MemorySource holding every record of the set.
func (f *Factory) FromDatasetJSON(dj DatasetJSON) (*Dataset, error) {
	if dj.ID == "" {
		return nil, fmt.Errorf("dataset: missing id: %w", generic.ErrDataShape)
	}
	period, err := payroll.PeriodFor(dj.Year, time.Month(dj.Month))
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", dj.ID, err)
	}

	src := &payroll.MemorySource{
		RoleNames: make(map[payroll.RoleID]string, len(dj.Roles)),
		ShiftsBy:  make(map[payroll.EmployeeID][]payroll.RawShift),
		AttendBy:  make(map[payroll.EmployeeID][]payroll.AttendanceRecord),
		LeaveBy:   make(map[payroll.EmployeeID][]timeoff.LeaveRecord),
	}
	for _, r := range dj.Roles {
		src.RoleNames[payroll.RoleID(r.ID)] = r.Name
	}
	for _, u := range dj.Users {
		src.Users = append(src.Users, f.FromUserJSON(u))
	}
	for _, s := range dj.Shifts {
		id := payroll.EmployeeID(s.User)
		src.ShiftsBy[id] = append(src.ShiftsBy[id], f.FromShiftJSON(s))
	}
	for _, a := range dj.Attendance {
		id := payroll.EmployeeID(a.User)
		src.AttendBy[id] = append(src.AttendBy[id], f.FromAttendanceJSON(a))
	}
	for _, l := range dj.Leave {
		id := payroll.EmployeeID(l.User)
		src.LeaveBy[id] = append(src.LeaveBy[id], f.FromLeaveJSON(l))
	}

	return &Dataset{
		ID:          dj.ID,
		Name:        dj.Name,
		Description: dj.Description,
		Period:      period,
		Source:      src,
	}, nil
}
