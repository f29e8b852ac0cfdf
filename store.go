package saga

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Store archives terminal run reports. It is an audit trail, not a
// recovery mechanism: reports are written once per run, after the run has
// reached a terminal status.
// It is generic over T, the saga state type, to provide type safety
// without reflection for the archived state.
type Store[T any] interface {
	// Save persists the report for a finished run
	Save(ctx context.Context, runID string, report Report[T]) error

	// Load retrieves a run report by ID
	Load(ctx context.Context, runID string) (*Report[T], error)

	// Delete removes a run report
	Delete(ctx context.Context, runID string) error
}

// MemoryStore provides an in-memory implementation of Store for testing
// or scenarios where reports do not need to outlive the process.
type MemoryStore[T any] struct {
	reports map[string]*Report[T]
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore[T any]() *MemoryStore[T] {
	return &MemoryStore[T]{
		reports: make(map[string]*Report[T]),
	}
}

// Save stores the run report in memory.
func (m *MemoryStore[T]) Save(ctx context.Context, runID string, report Report[T]) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Create a copy to avoid external modifications
	reportCopy := report
	reportCopy.UpdatedAt = time.Now()

	m.reports[runID] = &reportCopy
	return nil
}

// Load retrieves the run report from memory.
func (m *MemoryStore[T]) Load(ctx context.Context, runID string) (*Report[T], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	report, exists := m.reports[runID]
	if !exists {
		return nil, fmt.Errorf("run %s not found", runID)
	}

	// Return a copy to avoid external modifications
	reportCopy := *report
	return &reportCopy, nil
}

// Delete removes the run report from memory.
func (m *MemoryStore[T]) Delete(ctx context.Context, runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.reports, runID)
	return nil
}

// Reports returns the archived reports keyed by run ID.
func (m *MemoryStore[T]) Reports() map[string]*Report[T] {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]*Report[T], len(m.reports))
	for id, report := range m.reports {
		reportCopy := *report
		out[id] = &reportCopy
	}
	return out
}
