package storage

import (
	"sync"
)

// Storage is the persistence capability: a flat string key/value store.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
}

var (
	_ Storage = (*Memory)(nil)
	_ Storage = Noop{}
)

// Memory keeps values in process memory only.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Noop is the storage of a headless platform: nothing is kept and nothing fails.
type Noop struct{}

func (Noop) Get(string) (string, bool) { return "", false }
func (Noop) Set(string, string) error  { return nil }
func (Noop) Remove(string) error       { return nil }
