/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures of the HTTP contract, decoupled from the payroll types.
  Hours and money travel as fixed two-decimal strings so clients never see
  binary float noise.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Wrappers

SEE ALSO:
  - handlers.go: Uses these types
  - payroll/types.go: Domain model
*/
package api

import (
	"time"

	"github.com/warp/payroll-export/export"
	"github.com/warp/payroll-export/generic"
	"github.com/warp/payroll-export/payroll"
)

// =============================================================================
// PERIODS
// =============================================================================

type PeriodRefDTO struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// PeriodDTO describes one pay period and its neighbours.
type PeriodDTO struct {
	Year     int          `json:"year"`
	Month    int          `json:"month"`
	Start    string       `json:"start"`
	End      string       `json:"end"`
	Label    string       `json:"label"`
	Days     int          `json:"days"`
	Filename string       `json:"filename"`
	Previous PeriodRefDTO `json:"previous"`
	Next     PeriodRefDTO `json:"next"`
}

func toPeriodDTO(p generic.Period) PeriodDTO {
	prev, next := payroll.PreviousPeriod(p), payroll.NextPeriod(p)
	return PeriodDTO{
		Year:     p.Start.Year(),
		Month:    int(p.Start.Month()),
		Start:    p.Start.String(),
		End:      p.End.String(),
		Label:    p.Label(),
		Days:     p.DayCount(),
		Filename: export.Filename(p, export.FormatXLSX),
		Previous: PeriodRefDTO{Year: prev.Start.Year(), Month: int(prev.Start.Month())},
		Next:     PeriodRefDTO{Year: next.Start.Year(), Month: int(next.Start.Month())},
	}
}

// =============================================================================
// EXPORT REQUESTS
// =============================================================================

// ExportRequest is the body of the export endpoints. Every field is
// optional: a zero year/month selects the default period, nil fields fall
// back to the server configuration.
type ExportRequest struct {
	Year         int      `json:"year" validate:"omitempty,gte=2000,lte=2100"`
	Month        int      `json:"month" validate:"omitempty,min=1,max=12"`
	Excluded     *[]int64 `json:"excluded_employees" validate:"omitempty,dive,gt=0"`
	OvertimeRate *string  `json:"overtime_rate" validate:"omitempty,numeric"`
	Debug        bool     `json:"debug"`
}

// EnqueueResponse acknowledges a queued export.
type EnqueueResponse struct {
	TaskID string    `json:"task_id"`
	Period PeriodDTO `json:"period"`
}

// =============================================================================
// PREVIEW
// =============================================================================

type RoleDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type RoleHoursDTO struct {
	RoleID int64  `json:"role_id"`
	Role   string `json:"role"`
	Hours  string `json:"hours"`
	Rate   string `json:"rate"`
}

// RecordDTO is one employee row.
type RecordDTO struct {
	EmployeeID    int64          `json:"employee_id"`
	Name          string         `json:"name"`
	PayType       string         `json:"pay_type"`
	WeeklyHours   string         `json:"weekly_hours"`
	Rate1         string         `json:"rate_1"`
	FixedHours    string         `json:"fixed_hours"`
	TotalHours    string         `json:"total_hours"`
	HoursAtBase   string         `json:"hours_at_base"`
	OvertimeHours string         `json:"overtime_hours"`
	Rate2         string         `json:"rate_2"`
	CustomRoles   []RoleHoursDTO `json:"custom_roles"`
	OnCallHours   string         `json:"on_call_hours"`
	OnCallShifts  int            `json:"on_call_shifts"`
	HolidayDays   string         `json:"holiday_days"`
	HolidayHours  string         `json:"holiday_hours"`
	SicknessDays  string         `json:"sickness_days"`
	TotalPay      string         `json:"total_pay"`
}

type SummaryDTO struct {
	Employees       int    `json:"employees"`
	TotalHours      string `json:"total_hours"`
	OnCallHours     string `json:"on_call_hours"`
	OnCallShifts    int    `json:"on_call_shifts"`
	OvertimeHours   string `json:"overtime_hours"`
	TotalPay        string `json:"total_pay"`
	TotalPayDisplay string `json:"total_pay_display"`
}

// PreviewDTO is a computed run.
type PreviewDTO struct {
	Period   PeriodDTO   `json:"period"`
	Roles    []RoleDTO   `json:"roles"`
	Records  []RecordDTO `json:"records"`
	Summary  SummaryDTO  `json:"summary"`
	Warnings []string    `json:"warnings"`
	Digest   string      `json:"digest"`
}

func fixed(a generic.Amount) string { return a.Value.StringFixed(2) }

func toPreviewDTO(res *payroll.Result) PreviewDTO {
	dto := PreviewDTO{
		Period:   toPeriodDTO(res.Period),
		Roles:    make([]RoleDTO, len(res.Roles)),
		Records:  make([]RecordDTO, len(res.Records)),
		Warnings: res.WarningStrings(),
		Digest:   res.Digest,
		Summary: SummaryDTO{
			Employees:       res.Summary.Employees,
			TotalHours:      fixed(res.Summary.TotalHours),
			OnCallHours:     fixed(res.Summary.OnCallHours),
			OnCallShifts:    res.Summary.OnCallShifts,
			OvertimeHours:   fixed(res.Summary.OvertimeHours),
			TotalPay:        fixed(res.Summary.TotalPay),
			TotalPayDisplay: export.Money(res.Summary.TotalPay),
		},
	}
	for i, r := range res.Roles {
		dto.Roles[i] = RoleDTO{ID: int64(r.ID), Name: r.Name}
	}
	for i, rec := range res.Records {
		dto.Records[i] = toRecordDTO(rec, res.Roles)
	}
	return dto
}

func toRecordDTO(rec payroll.PayrollRecord, roles []payroll.Role) RecordDTO {
	out := RecordDTO{
		EmployeeID:    int64(rec.EmployeeID),
		Name:          rec.Name,
		PayType:       rec.PayType.String(),
		WeeklyHours:   fixed(rec.WeeklyHours),
		Rate1:         fixed(rec.Rate1),
		FixedHours:    fixed(rec.FixedHours),
		TotalHours:    fixed(rec.TotalHoursDisplay),
		HoursAtBase:   fixed(rec.HoursAtBase),
		OvertimeHours: fixed(rec.OvertimeHours),
		Rate2:         fixed(rec.OvertimeRate),
		CustomRoles:   []RoleHoursDTO{},
		OnCallHours:   fixed(rec.OnCall.WorkedHours),
		OnCallShifts:  rec.OnCall.AssignedShifts,
		HolidayDays:   fixed(rec.Leave.HolidayDays),
		HolidayHours:  fixed(rec.Leave.HolidayHours),
		SicknessDays:  fixed(rec.Leave.SicknessDays),
		TotalPay:      fixed(rec.TotalPay),
	}
	for _, role := range roles {
		rh, ok := rec.CustomRoles[role.ID]
		if !ok {
			continue
		}
		out.CustomRoles = append(out.CustomRoles, RoleHoursDTO{
			RoleID: int64(role.ID),
			Role:   role.Name,
			Hours:  fixed(rh.Hours),
			Rate:   fixed(rh.Rate),
		})
	}
	return out
}

// =============================================================================
// RUN HISTORY
// =============================================================================

type RunDTO struct {
	ID            string   `json:"id"`
	PeriodStart   string   `json:"period_start"`
	PeriodEnd     string   `json:"period_end"`
	GeneratedAt   string   `json:"generated_at"`
	Trigger       string   `json:"trigger"`
	EmployeeCount int      `json:"employee_count"`
	TotalPay      string   `json:"total_pay"`
	TotalHours    string   `json:"total_hours"`
	OvertimeRate  string   `json:"overtime_rate"`
	Digest        string   `json:"digest"`
	Filename      string   `json:"filename,omitempty"`
	Warnings      []string `json:"warnings"`
}

func toRunDTO(r generic.ExportRun) RunDTO {
	warnings := r.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return RunDTO{
		ID:            string(r.ID),
		PeriodStart:   r.Period.Start.String(),
		PeriodEnd:     r.Period.End.String(),
		GeneratedAt:   r.GeneratedAt.UTC().Format(time.RFC3339),
		Trigger:       string(r.Trigger),
		EmployeeCount: r.EmployeeCount,
		TotalPay:      fixed(r.TotalPay),
		TotalHours:    fixed(r.TotalHours),
		OvertimeRate:  fixed(r.OvertimeRate),
		Digest:        r.Digest,
		Filename:      r.Filename,
		Warnings:      warnings,
	}
}

// =============================================================================
// SCENARIOS
// =============================================================================

type ScenarioDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Period      PeriodDTO `json:"period"`
}

// =============================================================================
// MISC
// =============================================================================

type HealthDTO struct {
	Status     string `json:"status"`
	Time       string `json:"time"`
	Credential bool   `json:"credential_configured"`
	Queue      bool   `json:"queue_configured"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
