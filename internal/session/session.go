package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager owns the process-wide session identity. The server runs one
// active session at a time; New swaps in a fresh identity and leaves
// the old records to the store's retention sweep.
type Manager struct {
	mu        sync.Mutex
	id        string
	startedAt time.Time
}

func NewManager() *Manager {
	return &Manager{
		id:        uuid.NewString(),
		startedAt: time.Now().UTC(),
	}
}

// ID returns the active session id.
func (m *Manager) ID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id
}

// New replaces the active session with a fresh id and returns it.
func (m *Manager) New() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.id = uuid.NewString()
	m.startedAt = time.Now().UTC()
	return m.id
}

// StartedAt reports when the active session began.
func (m *Manager) StartedAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startedAt
}
