package store

import (
	"sync"

	"github.com/desklinehq/deskline/internal/types"
)

// Memory is an in-memory store for tests and ephemeral sessions.
type Memory struct {
	mu   sync.Mutex
	snap *types.Snapshot
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) SaveSnapshot(snap *types.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := snap.Clone()
	m.snap = &clone
	return nil
}

func (m *Memory) LoadSnapshot() (*types.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap == nil {
		return nil, nil
	}
	clone := m.snap.Clone()
	return &clone, nil
}

func (m *Memory) ClearSnapshot() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = nil
	return nil
}
