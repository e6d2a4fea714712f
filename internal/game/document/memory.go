package document

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-memory Store keeping one authoritative copy per
// actor. All methods are safe for concurrent use.
//
// ApplyDeltas is atomic: it works on a scratch copy and swaps it in only
// when every delta applied cleanly, so a failed batch leaves the stored
// actor untouched.
type MemoryStore struct {
	mu     sync.RWMutex
	actors map[string]*Actor
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{actors: make(map[string]*Actor)}
}

// Put stores a deep copy of the actor, replacing any existing entry.
//
// Precondition: actor must be non-nil with a non-empty ID.
func (s *MemoryStore) Put(actor *Actor) {
	if actor == nil || actor.ID == "" {
		panic("document: MemoryStore.Put precondition violated: actor must be non-nil with an ID")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actors[actor.ID] = actor.DeepCopy()
}

// Get returns a deep copy of the actor with the given id.
//
// Postcondition: Returns ErrActorNotFound when the id is unknown.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	actor, ok := s.actors[id]
	if !ok {
		return nil, fmt.Errorf("actor %q: %w", id, ErrActorNotFound)
	}
	return actor.DeepCopy(), nil
}

// ApplyDeltas applies the ordered batch to the stored actor atomically.
//
// Postcondition: on error the stored actor is byte-for-byte unchanged.
func (s *MemoryStore) ApplyDeltas(ctx context.Context, actorID string, deltas []Delta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	actor, ok := s.actors[actorID]
	if !ok {
		return fmt.Errorf("actor %q: %w", actorID, ErrActorNotFound)
	}
	scratch := actor.DeepCopy()
	for i, d := range deltas {
		if err := d.applyTo(scratch); err != nil {
			return fmt.Errorf("applying delta %d (%s) to actor %q: %w", i, d.Op, actorID, err)
		}
	}
	s.actors[actorID] = scratch
	return nil
}
