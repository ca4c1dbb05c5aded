package notify

import (
	"context"
	"sync"
)

// MemoryRegistry is a test double tracking registrations and serving a
// settable unread count.
type MemoryRegistry struct {
	mu          sync.Mutex
	registered  map[string]bool
	unread      map[string]int
	invalidated map[string]int
	fail        error
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		registered:  make(map[string]bool),
		unread:      make(map[string]int),
		invalidated: make(map[string]int),
	}
}

func (m *MemoryRegistry) FailWith(err error) {
	m.mu.Lock()
	m.fail = err
	m.mu.Unlock()
}

func (m *MemoryRegistry) SetUnread(email string, n int) {
	m.mu.Lock()
	m.unread[email] = n
	m.mu.Unlock()
}

func (m *MemoryRegistry) Registered(email string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registered[email]
}

func (m *MemoryRegistry) Register(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.registered[email] = true
	return nil
}

func (m *MemoryRegistry) Unregister(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	delete(m.registered, email)
	return nil
}

func (m *MemoryRegistry) UnreadCount(_ context.Context, email string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return 0, m.fail
	}
	return m.unread[email], nil
}

func (m *MemoryRegistry) Invalidate(_ context.Context, email string) {
	m.mu.Lock()
	m.invalidated[email]++
	m.mu.Unlock()
}

// Invalidations returns how many times the email's count was dropped.
func (m *MemoryRegistry) Invalidations(email string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.invalidated[email]
}
