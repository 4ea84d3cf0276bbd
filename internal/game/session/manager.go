package session

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cory-johannsen/dungeon/internal/game/world"
)

// Manager tracks active sessions by id.
// All methods are safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty session Manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Start creates a session on d, runs Begin, and registers it.
//
// Precondition: d must be non-nil.
// Postcondition: Returns the registered session with its start room explored.
func (m *Manager) Start(d *world.Dungeon) (*Session, error) {
	s := New(d)
	if _, err := s.Begin(); err != nil {
		return nil, err
	}
	return s, m.Add(s)
}

// Add registers an existing session, such as one returned by Restore.
//
// Postcondition: Returns an error if the id is already registered.
func (m *Manager) Add(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[s.id]; exists {
		return fmt.Errorf("session %q already active", s.id)
	}
	m.sessions[s.id] = s
	return nil
}

// Remove drops the session with the given id.
//
// Postcondition: Returns an error if not found.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[id]; !exists {
		return fmt.Errorf("session %q not found", id)
	}
	delete(m.sessions, id)
	return nil
}

// Get returns the session for id.
//
// Postcondition: Returns (session, true) if found, or (nil, false) otherwise.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// IDs returns the active session ids in sorted order.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count returns the number of active sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
