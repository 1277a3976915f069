package store

import (
	"context"
	"slices"
	"sync"
)

// Compile-time interface check.
var _ Backend = (*MemoryBackend)(nil)

// MemoryBackend is an in-memory Backend. Safe for concurrent access.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string][]byte)}
}

// GetAll returns a copy of every entry.
func (m *MemoryBackend) GetAll(ctx context.Context) (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string][]byte, len(m.entries))
	for k, v := range m.entries {
		out[k] = slices.Clone(v)
	}
	return out, nil
}

// Get returns a copy of a single entry.
func (m *MemoryBackend) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(v), nil
}

// PutMany stores copies of all entries under one lock.
func (m *MemoryBackend) PutMany(ctx context.Context, entries map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, v := range entries {
		m.entries[k] = slices.Clone(v)
	}
	return nil
}
