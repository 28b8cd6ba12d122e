// Package storage provides StorageBackend implementations for session
// (ephemeral) and persistent (durable) key/value state.
package storage

import (
	"context"
	"strings"
	"sync"

	"github.com/coderift/toolmind/core"
)

// Memory is an in-process StorageBackend backed by a mutex-guarded map.
// It never returns an error from any operation — there is no I/O to fail.
type Memory struct {
	mu   sync.RWMutex
	data map[string]interface{}
}

// NewMemory builds an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]interface{})}
}

var _ core.StorageBackend = (*Memory)(nil)

func (m *Memory) Get(_ context.Context, key string) (interface{}, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key string, value interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	delete(m.data, key)
	return ok, nil
}

func (m *Memory) Has(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[key]
	return ok, nil
}

func (m *Memory) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out, nil
}

func (m *Memory) Clear(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prefix == "" {
		m.data = make(map[string]interface{})
		return nil
	}
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
		}
	}
	return nil
}

func (m *Memory) Size(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data), nil
}
