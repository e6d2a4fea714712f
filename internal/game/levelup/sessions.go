package levelup

import (
	"fmt"
	"sync"
)

// Sessions tracks the in-flight Manager per actor. The clone protocol
// requires exclusive ownership, so at most one manager may be open for an
// actor at a time. All methods are safe for concurrent use.
type Sessions struct {
	mu       sync.Mutex
	managers map[string]*Manager
}

// NewSessions creates an empty Sessions registry.
func NewSessions() *Sessions {
	return &Sessions{managers: make(map[string]*Manager)}
}

// Open registers m as the in-flight manager for actorID.
//
// Precondition: m must be non-nil.
// Postcondition: Returns an error when another manager is already open for
// the actor; the existing manager stays registered.
func (s *Sessions) Open(actorID string, m *Manager) error {
	if m == nil {
		panic("levelup: Sessions.Open precondition violated: manager must be non-nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.managers[actorID]; exists {
		return fmt.Errorf("levelup: actor %q already has an advancement session open", actorID)
	}
	s.managers[actorID] = m
	return nil
}

// Get returns the open manager for actorID, if any.
func (s *Sessions) Get(actorID string) (*Manager, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.managers[actorID]
	return m, ok
}

// Close removes the actor's session. An uncommitted manager is cancelled,
// matching the owning sheet closing mid-wizard.
//
// Postcondition: no session is registered for actorID.
func (s *Sessions) Close(actorID string) {
	s.mu.Lock()
	m, ok := s.managers[actorID]
	delete(s.managers, actorID)
	s.mu.Unlock()
	if ok {
		m.Cancel()
	}
}

// Count returns the number of open sessions.
func (s *Sessions) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.managers)
}
