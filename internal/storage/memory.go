package storage

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
)

// MemoryKV is an in-memory KV implementation. It backs the default data
// backend and every test that does not need a real database.
type MemoryKV struct {
	mu    sync.RWMutex
	items map[string]json.RawMessage
}

// NewMemoryKV creates an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{items: make(map[string]json.RawMessage)}
}

// Get returns the value stored at key, or ErrNotFound.
func (m *MemoryKV) Get(_ context.Context, key string) (json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, found := m.items[key]
	if !found {
		return nil, ErrNotFound
	}
	out := make(json.RawMessage, len(value))
	copy(out, value)
	return out, nil
}

// Set stores value at key, overwriting any previous value.
func (m *MemoryKV) Set(_ context.Context, key string, value json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make(json.RawMessage, len(value))
	copy(stored, value)
	m.items[key] = stored
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
	return nil
}

// ListByPrefix returns every value whose key starts with prefix, in key
// order so results are deterministic.
func (m *MemoryKV) ListByPrefix(_ context.Context, prefix string) ([]json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0)
	for key := range m.items {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	values := make([]json.RawMessage, 0, len(keys))
	for _, key := range keys {
		value := m.items[key]
		out := make(json.RawMessage, len(value))
		copy(out, value)
		values = append(values, out)
	}
	return values, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryKV) Close() error { return nil }
