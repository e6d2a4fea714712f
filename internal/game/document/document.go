// Package document defines the actor/item document model and the staged
// editing transaction used by advancement workflows: a detached clone
// accumulates an ordered delta buffer that reaches the real actor only on
// commit.
package document

import (
	"context"
	"errors"

	"github.com/hearthvtt/levelforge/internal/game/advancement"
)

// ErrActorNotFound is returned when an actor lookup yields no results.
var ErrActorNotFound = errors.New("actor not found")

// ErrItemNotFound is returned when an embedded item lookup yields no results.
var ErrItemNotFound = errors.New("embedded item not found")

// HitPointState holds an actor's current and maximum hit points.
type HitPointState struct {
	Value int `json:"value"`
	Max   int `json:"max"`
}

// Item is one embedded item on an actor: the compendium payload plus the
// actor-local instance identity.
type Item struct {
	// ID is the instance id, unique within the owning actor.
	ID string `json:"id"`
	// Origin is "itemID.advancementID" when this item was granted by an
	// advancement; empty otherwise.
	Origin string `json:"origin,omitempty"`

	advancement.ItemData
}

// Clone returns a deep copy of the item.
func (i *Item) Clone() *Item {
	out := *i
	out.ItemData = *i.ItemData.Clone()
	return &out
}

// Actor is a character document owning embedded items. The persistence
// layer sets ID; advancement workflows never mutate an Actor directly, only
// through a Clone's staged deltas.
type Actor struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	HP    HitPointState `json:"hp"`
	Items []*Item       `json:"items"`
}

// Item returns the embedded item with the given instance id, or nil.
func (a *Actor) Item(id string) *Item {
	for _, item := range a.Items {
		if item.ID == id {
			return item
		}
	}
	return nil
}

// ItemsOfType returns all embedded items with the given type.
func (a *Actor) ItemsOfType(itemType string) []*Item {
	var out []*Item
	for _, item := range a.Items {
		if item.Type == itemType {
			out = append(out, item)
		}
	}
	return out
}

// DeepCopy returns a detached copy sharing no mutable state with a.
func (a *Actor) DeepCopy() *Actor {
	out := *a
	out.Items = make([]*Item, len(a.Items))
	for i, item := range a.Items {
		out.Items[i] = item.Clone()
	}
	return &out
}

// Store is the persistence collaborator: it reads actors and applies a
// clone's delta batch atomically. A failed ApplyDeltas must leave the
// stored actor in its pre-batch state.
type Store interface {
	// Get returns the actor with the given id, or ErrActorNotFound.
	Get(ctx context.Context, id string) (*Actor, error)

	// ApplyDeltas applies the ordered batch to the stored actor as one
	// atomic operation.
	ApplyDeltas(ctx context.Context, actorID string, deltas []Delta) error
}
