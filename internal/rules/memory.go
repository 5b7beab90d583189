package rules

import (
	"context"
	"sync"
)

// MemoryPersistence keeps snapshots in memory. It backs tests and sessions
// that should not touch disk.
type MemoryPersistence struct {
	snapshot *Snapshot
	saves    int
	mu       sync.Mutex
}

// NewMemoryPersistence returns an empty in-memory persistence, optionally seeded.
func NewMemoryPersistence(seed *Snapshot) *MemoryPersistence {
	m := &MemoryPersistence{}
	if seed != nil {
		m.snapshot = seed.Clone()
	}
	return m
}

// Load returns a copy of the last saved snapshot.
func (m *MemoryPersistence) Load(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapshot == nil {
		return &Snapshot{}, nil
	}
	return m.snapshot.Clone(), nil
}

// Save stores a copy of snapshot.
func (m *MemoryPersistence) Save(ctx context.Context, snapshot *Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = snapshot.Clone()
	m.saves++
	return nil
}

// Saves reports how many snapshots have been saved.
func (m *MemoryPersistence) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
