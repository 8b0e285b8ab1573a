package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Memory is an in-process Backend. Values are stored JSON-encoded so callers
// observe the same copy semantics as the SQLite backend.
type Memory struct {
	mu     sync.Mutex
	values map[string][]byte
}

var _ Backend = (*Memory)(nil)

// NewMemory returns an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{values: map[string][]byte{}}
}

// Get implements Backend.
func (m *Memory) Get(ctx context.Context, key string, dest any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	data, ok := m.values[key]
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Set implements Backend.
func (m *Memory) Set(ctx context.Context, key string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	m.mu.Lock()
	m.values[key] = data
	m.mu.Unlock()
	return nil
}

// SetRaw stores pre-encoded JSON under key.
func (m *Memory) SetRaw(key string, data []byte) {
	m.mu.Lock()
	m.values[key] = append([]byte(nil), data...)
	m.mu.Unlock()
}

// Has reports whether key is present.
func (m *Memory) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.values[key]
	return ok
}
