package service

import (
	"context"
	"sync"

	"powerlog/backend/services/collector-service/internal/models"
)

// MemoryLatestStore keeps snapshots in process memory.
type MemoryLatestStore struct {
	mu    sync.RWMutex
	snaps map[string]models.Snapshot
}

// NewMemoryLatestStore returns an empty store.
func NewMemoryLatestStore() *MemoryLatestStore {
	return &MemoryLatestStore{snaps: make(map[string]models.Snapshot)}
}

func (m *MemoryLatestStore) Save(_ context.Context, snap models.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps[snap.Topic] = snap
	return nil
}

func (m *MemoryLatestStore) Latest(_ context.Context, topic string) (*models.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.snaps[topic]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &snap, nil
}
