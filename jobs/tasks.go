package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the queue export tasks are placed on.
	QueueDefault = "payroll"
	// TaskExport runs one payroll export.
	TaskExport = "payroll:export"

	// MonthlyCron fires at 06:00 on the 11th, the first day after a pay
	// period closes.
	MonthlyCron = "0 6 11 * *"
)

// ExportPayload describes one queued export. A zero Year selects the
// default period at the time the task runs. Empty Excluded and
// OvertimeRate fall back to the worker's configuration.
type ExportPayload struct {
	Year         int     `json:"year,omitempty"`
	Month        int     `json:"month,omitempty"`
	Excluded     []int64 `json:"excluded,omitempty"`
	OvertimeRate string  `json:"overtime_rate,omitempty"`
	Trigger      string  `json:"trigger,omitempty"`
}

// NewExportTask constructs an Asynq task.
func NewExportTask(payload ExportPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskExport, body, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}
