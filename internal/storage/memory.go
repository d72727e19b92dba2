package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jwebster45206/memory-gate/pkg/unlock"
)

// MemoryStore keeps unlock state in process memory. Everything is lost on
// restart.
type MemoryStore struct {
	mu        sync.RWMutex
	states    map[uuid.UUID]*unlock.State
	pingError error
}

// Ensure MemoryStore implements UnlockStore interface
var _ UnlockStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states: make(map[uuid.UUID]*unlock.State),
	}
}

// SetPingError makes Ping fail with err; nil restores success. Used by
// health tests.
func (m *MemoryStore) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MemoryStore) Close() error {
	return nil
}

func (m *MemoryStore) Load(ctx context.Context, visitorID uuid.UUID) (*unlock.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[visitorID]
	if !ok {
		return nil, nil
	}
	return cloneState(st), nil
}

func (m *MemoryStore) Update(ctx context.Context, visitorID uuid.UUID, fn UpdateFunc) (*unlock.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := cloneState(m.states[visitorID])
	if st == nil {
		st = unlock.NewState(visitorID)
	}

	changed, err := fn(st)
	if err != nil {
		return nil, err
	}
	if changed {
		m.states[visitorID] = cloneState(st)
	}
	return st, nil
}
