// Package store provides an in-memory workforce.Store for tests and dev.
package store

import (
	"context"
	"sync"

	"github.com/warp/workforce-sim/workforce"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	events    map[int][]workforce.Event
	eventKeys map[string]bool
	snapshots map[int]*workforce.Snapshot
}

func NewMemory() *Memory {
	return &Memory{
		events:    make(map[int][]workforce.Event),
		eventKeys: make(map[string]bool),
		snapshots: make(map[int]*workforce.Snapshot),
	}
}

// AppendEvents adds a year's events atomically. Append-only.
func (m *Memory) AppendEvents(_ context.Context, events []workforce.Event) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Check all keys before writing any (atomic batch).
	for _, ev := range events {
		if m.eventKeys[ev.Key()] {
			return 0, &workforce.DataIntegrityError{
				Year:       ev.SimulationYear,
				EmployeeID: ev.EmployeeID,
				Reason:     "duplicate event key " + ev.Key(),
			}
		}
	}
	for _, ev := range events {
		m.events[ev.SimulationYear] = append(m.events[ev.SimulationYear], ev)
		m.eventKeys[ev.Key()] = true
	}
	return len(events), nil
}

func (m *Memory) EventsForYear(_ context.Context, year int) ([]workforce.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]workforce.Event(nil), m.events[year]...), nil
}

func (m *Memory) CountEvents(_ context.Context, year int) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events[year]), nil
}

// SaveSnapshot replaces the year's snapshot.
func (m *Memory) SaveSnapshot(_ context.Context, snapshot *workforce.Snapshot) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := &workforce.Snapshot{Year: snapshot.Year, Rows: append([]workforce.SnapshotRow(nil), snapshot.Rows...)}
	m.snapshots[snapshot.Year] = cp
	return len(cp.Rows), nil
}

// PurgeYear drops the year's events and snapshot. Rollback support.
func (m *Memory) PurgeYear(_ context.Context, year int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := len(m.events[year])
	for _, ev := range m.events[year] {
		delete(m.eventKeys, ev.Key())
	}
	delete(m.events, year)
	if s, ok := m.snapshots[year]; ok {
		removed += len(s.Rows)
		delete(m.snapshots, year)
	}
	return removed, nil
}

func (m *Memory) SnapshotForYear(_ context.Context, year int) (*workforce.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.snapshots[year]
	if !ok {
		return nil, nil
	}
	return &workforce.Snapshot{Year: s.Year, Rows: append([]workforce.SnapshotRow(nil), s.Rows...)}, nil
}
