package payroll

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// WarningKind groups recovered problems by where they came from.
type WarningKind string

const (
	WarnUpstream WarningKind = "upstream"
	WarnOnCall   WarningKind = "on_call"
	WarnLeave    WarningKind = "leave"
	WarnRole     WarningKind = "role"
)

// Warning is a recovered problem. The run continued; the operator should look.
type Warning struct {
	EmployeeID   EmployeeID // 0 when not employee scoped
	EmployeeName string
	Kind         WarningKind
	Message      string
}

func (w Warning) String() string {
	if w.EmployeeID == 0 {
		return fmt.Sprintf("[%s] %s", w.Kind, w.Message)
	}
	return fmt.Sprintf("[%s] %s (%d): %s", w.Kind, w.EmployeeName, w.EmployeeID, w.Message)
}

// WarnFunc reports one problem for the employee it was built for.
// A nil WarnFunc discards.
type WarnFunc func(kind WarningKind, message string)

func (f WarnFunc) emit(kind WarningKind, message string) {
	if f != nil {
		f(kind, message)
	}
}

// =============================================================================
// WARNINGS COLLECTOR
// =============================================================================

// Warnings collects and logs warnings for one run. Safe for concurrent use.
type Warnings struct {
	logger *slog.Logger

	mu   sync.Mutex
	list []Warning
}

func NewWarnings(logger *slog.Logger) *Warnings {
	if logger == nil {
		logger = slog.Default()
	}
	return &Warnings{logger: logger}
}

func (w *Warnings) Add(warning Warning) {
	w.logger.LogAttrs(context.Background(), slog.LevelWarn, warning.Message,
		slog.String("kind", string(warning.Kind)),
		slog.Int64("employee_id", int64(warning.EmployeeID)),
		slog.String("employee", warning.EmployeeName),
	)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.list = append(w.list, warning)
}

// For returns a WarnFunc bound to one employee.
func (w *Warnings) For(e Employee) WarnFunc {
	return func(kind WarningKind, message string) {
		w.Add(Warning{EmployeeID: e.ID, EmployeeName: e.Name(), Kind: kind, Message: message})
	}
}

// List returns the warnings ordered by employee id. Order within one
// employee is the order they were raised; run-wide warnings sort by text.
func (w *Warnings) List() []Warning {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Warning, len(w.list))
	copy(out, w.list)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].EmployeeID != out[j].EmployeeID {
			return out[i].EmployeeID < out[j].EmployeeID
		}
		if out[i].EmployeeID == 0 {
			return out[i].Message < out[j].Message
		}
		return false
	})
	return out
}

// Strings renders every warning for storage and display.
func (w *Warnings) Strings() []string {
	list := w.List()
	out := make([]string, len(list))
	for i, warning := range list {
		out[i] = warning.String()
	}
	return out
}
