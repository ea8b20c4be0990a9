package repository

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryKV is a process-local KV.
type MemoryKV struct {
	mu      sync.RWMutex
	data    map[string][]byte
	updated map[string]time.Time
	now     func() time.Time
}

// NewMemoryKV returns an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{
		data:    make(map[string][]byte),
		updated: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Get implements KV.
func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Put implements KV.
func (m *MemoryKV) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = append([]byte(nil), value...)
	m.updated[key] = m.now().UTC().Truncate(time.Second)
	return nil
}

// Delete implements KV.
func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	delete(m.updated, key)
	return nil
}

// Keys implements KV.
func (m *MemoryKV) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// UpdatedAt implements KV.
func (m *MemoryKV) UpdatedAt(_ context.Context, key string) (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	at, ok := m.updated[key]
	if !ok {
		return time.Time{}, ErrNotFound
	}
	return at, nil
}
