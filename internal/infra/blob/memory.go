package blob

import (
	"context"
	"sync"
)

// Memory keeps uploads in a map. Test double for the Cloudinary backend.
type Memory struct {
	mu      sync.Mutex
	objects map[string][]byte
	fail    error
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string][]byte)}
}

// FailWith makes every subsequent Upload return err.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	m.fail = err
	m.mu.Unlock()
}

func (m *Memory) Upload(_ context.Context, data []byte, path string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return "", m.fail
	}
	m.objects[path] = append([]byte(nil), data...)
	return "mem://" + path, nil
}

func (m *Memory) Object(path string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[path]
	return data, ok
}
