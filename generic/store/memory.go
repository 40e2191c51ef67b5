// Package store provides RunLedger implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/payroll-export/generic"
)

// =============================================================================
// MEMORY LEDGER - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu   sync.RWMutex
	runs []generic.ExportRun
	byID map[generic.RunID]int
}

func NewMemory() *Memory {
	return &Memory{byID: make(map[generic.RunID]int)}
}

// AppendRun adds a run. Append-only; a repeated ID is ignored.
func (m *Memory) AppendRun(_ context.Context, run generic.ExportRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[run.ID]; ok {
		return nil
	}
	run.Warnings = append([]string(nil), run.Warnings...)
	m.byID[run.ID] = len(m.runs)
	m.runs = append(m.runs, run)
	return nil
}

func (m *Memory) GetRun(_ context.Context, id generic.RunID) (generic.ExportRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.byID[id]
	if !ok {
		return generic.ExportRun{}, generic.ErrRunNotFound
	}
	return m.runs[i], nil
}

// ListRuns returns newest first.
func (m *Memory) ListRuns(_ context.Context, limit int) ([]generic.ExportRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := m.sortedLocked()
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) LatestForPeriod(_ context.Context, start generic.TimePoint) (generic.ExportRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, run := range m.sortedLocked() {
		if run.Period.Start.Equal(start) {
			return run, nil
		}
	}
	return generic.ExportRun{}, generic.ErrRunNotFound
}

func (m *Memory) sortedLocked() []generic.ExportRun {
	out := make([]generic.ExportRun, len(m.runs))
	copy(out, m.runs)
	// Stable on insertion order so equal timestamps list the later append first.
	sort.SliceStable(out, func(i, j int) bool { return m.byID[out[i].ID] > m.byID[out[j].ID] })
	sort.SliceStable(out, func(i, j int) bool { return out[i].GeneratedAt.After(out[j].GeneratedAt) })
	return out
}

var _ generic.RunLedger = (*Memory)(nil)
