package storage

import (
	"context"
	"sync"
)

// Memory keeps entries in process memory. Values are copied in and out so
// callers cannot alias stored bytes.
type Memory struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string][]byte)}
}

func (m *Memory) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Save(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
