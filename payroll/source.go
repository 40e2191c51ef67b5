package payroll

import (
	"context"
	"fmt"
	"sync"

	"github.com/warp/payroll-export/generic"
	"github.com/warp/payroll-export/timeoff"
)

// Source is the read-only view of the scheduling platform the engine needs.
// Implementations: rotacloud.Client (HTTP) and MemorySource (demo data, tests).
type Source interface {
	RoleNamer

	// Ping verifies the platform is reachable with the configured credential.
	Ping(ctx context.Context) error

	// Employees returns every user with their pay profile.
	Employees(ctx context.Context) ([]Employee, error)

	// Shifts returns published shifts for one employee inside w.
	Shifts(ctx context.Context, id EmployeeID, w Window) ([]RawShift, error)

	// Attendance returns clock records for one employee inside w.
	Attendance(ctx context.Context, id EmployeeID, w Window) ([]AttendanceRecord, error)

	// Leave returns leave requests for one employee overlapping p.
	Leave(ctx context.Context, id EmployeeID, p generic.Period) ([]timeoff.LeaveRecord, error)
}

// =============================================================================
// MEMORY SOURCE - Fixed data sets (demo scenarios, tests)
// =============================================================================

// MemorySource serves fixed records. Fail* maps inject per-employee errors.
// Window and period arguments are ignored: every record is returned.
type MemorySource struct {
	Users      []Employee
	RoleNames  map[RoleID]string
	ShiftsBy   map[EmployeeID][]RawShift
	AttendBy   map[EmployeeID][]AttendanceRecord
	LeaveBy    map[EmployeeID][]timeoff.LeaveRecord
	PingErr    error
	UsersErr   error
	FailShifts map[EmployeeID]error
	FailAttend map[EmployeeID]error
	FailLeave  map[EmployeeID]error
	FailRoles  map[RoleID]error

	mu    sync.Mutex
	calls map[string]int
}

func (m *MemorySource) count(endpoint string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[endpoint]++
}

// Calls returns how many times an endpoint was hit.
func (m *MemorySource) Calls(endpoint string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[endpoint]
}

func (m *MemorySource) Ping(_ context.Context) error {
	m.count("ping")
	return m.PingErr
}

func (m *MemorySource) Employees(_ context.Context) ([]Employee, error) {
	m.count("users")
	if m.UsersErr != nil {
		return nil, m.UsersErr
	}
	return m.Users, nil
}

func (m *MemorySource) Shifts(_ context.Context, id EmployeeID, _ Window) ([]RawShift, error) {
	m.count("shifts")
	if err := m.FailShifts[id]; err != nil {
		return nil, err
	}
	return m.ShiftsBy[id], nil
}

func (m *MemorySource) Attendance(_ context.Context, id EmployeeID, _ Window) ([]AttendanceRecord, error) {
	m.count("attendance")
	if err := m.FailAttend[id]; err != nil {
		return nil, err
	}
	return m.AttendBy[id], nil
}

func (m *MemorySource) Leave(_ context.Context, id EmployeeID, _ generic.Period) ([]timeoff.LeaveRecord, error) {
	m.count("leave")
	if err := m.FailLeave[id]; err != nil {
		return nil, err
	}
	return m.LeaveBy[id], nil
}

func (m *MemorySource) RoleName(_ context.Context, id RoleID) (string, error) {
	m.count("roles")
	if err := m.FailRoles[id]; err != nil {
		return "", err
	}
	name, ok := m.RoleNames[id]
	if !ok {
		return "", fmt.Errorf("role %d: %w", id, generic.ErrUpstream)
	}
	return name, nil
}

var _ Source = (*MemorySource)(nil)
