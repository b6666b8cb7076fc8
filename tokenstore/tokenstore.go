// Package tokenstore holds the small key/value capability used to persist the latest XSRF token.
//
// Memory keeps values for the life of the process. File keeps them in a YAML document on disk so
// a token survives restarts, the way browser local storage does.
package tokenstore

import "sync"

// XSRFKey is the key under which the latest XSRF token is stored.
const XSRFKey = "X-XSRF-TOKEN"

// Store is a string key/value store. Implementations must be safe for concurrent use.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// Memory is an in-process Store. The zero value is ready to use.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{}
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
	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.values[key] = value
	return nil
}
