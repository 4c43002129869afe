package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/logger"
)

type entry struct {
	value        []byte
	lastActivity time.Time
}

// MemoryStore keeps artifacts in process memory. Entries vanish on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*entry
	closed  bool
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Get returns a copy of the value and refreshes its activity time.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	e, ok := m.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	e.lastActivity = m.now()

	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

func (m *MemoryStore) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	v := make([]byte, len(value))
	copy(v, value)
	m.entries[key] = &entry{value: v, lastActivity: m.now()}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	delete(m.entries, key)
	return nil
}

// Cleanup removes entries that have been inactive for longer than idle.
func (m *MemoryStore) Cleanup(_ context.Context, idle time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrClosed
	}
	removed := 0
	now := m.now()
	for key, e := range m.entries {
		if now.Sub(e.lastActivity) > idle {
			delete(m.entries, key)
			removed++
		}
	}
	if removed > 0 {
		logger.Infof("store: removed %d inactive session artifacts", removed)
	}
	return removed, nil
}

// Len reports the number of stored entries.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.entries = nil
	return nil
}
