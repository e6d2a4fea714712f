package document

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hearthvtt/levelforge/internal/game/advancement"
)

// Clone is a detached, speculative copy of an actor. Every mutation goes
// through a Clone method, which updates the working copy and appends a
// delta to the ordered buffer. Commit hands the whole buffer to a Store in
// one atomic batch; Discard drops it. The base actor is never mutated.
//
// A Clone is exclusively owned by one in-flight workflow and is not safe
// for concurrent use.
type Clone struct {
	base      *Actor
	work      *Actor
	deltas    []Delta
	committed bool
}

// NewClone creates a staged editing session over actor.
//
// Precondition: actor must be non-nil.
// Postcondition: the returned clone's working copy shares no mutable state
// with actor.
func NewClone(actor *Actor) *Clone {
	if actor == nil {
		panic("document: NewClone precondition violated: actor must be non-nil")
	}
	return &Clone{base: actor, work: actor.DeepCopy()}
}

// Actor returns the working copy. Callers must not mutate it directly;
// reads are fine.
func (c *Clone) Actor() *Actor {
	return c.work
}

// Deltas returns the staged changes accumulated so far, in order.
func (c *Clone) Deltas() []Delta {
	return c.deltas
}

// stage applies the delta to the working copy and records it.
func (c *Clone) stage(d Delta) error {
	if err := d.applyTo(c.work); err != nil {
		return err
	}
	c.deltas = append(c.deltas, d)
	return nil
}

// CreateEmbedded stages new embedded items and returns their instance ids
// in input order. A non-empty ids[i] recreates the item under that id
// (restore path); empty entries receive fresh UUIDs.
//
// Precondition: len(ids) == len(items).
func (c *Clone) CreateEmbedded(ctx context.Context, items []*advancement.ItemData, ids []string) ([]string, error) {
	if len(ids) != len(items) {
		panic("document: CreateEmbedded precondition violated: len(ids) must equal len(items)")
	}
	docs := make([]*Item, len(items))
	out := make([]string, len(items))
	for i, data := range items {
		id := ids[i]
		if id == "" {
			id = uuid.NewString()
		}
		if c.work.Item(id) != nil {
			return nil, fmt.Errorf("document: embedded item id %q already exists", id)
		}
		docs[i] = &Item{ID: id, ItemData: *data.Clone()}
		out[i] = id
	}
	if err := c.stage(Delta{Op: OpCreateItems, Items: docs}); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteEmbedded stages removal of the embedded items with the given
// instance ids.
//
// Postcondition: on success none of the ids resolve on the working copy.
func (c *Clone) DeleteEmbedded(ctx context.Context, itemIDs []string) error {
	return c.stage(Delta{Op: OpDeleteItems, ItemIDs: itemIDs})
}

// GetEmbedded returns a copy of the embedded item payload for the instance id.
func (c *Clone) GetEmbedded(id string) (*advancement.ItemData, bool) {
	item := c.work.Item(id)
	if item == nil {
		return nil, false
	}
	return item.ItemData.Clone(), true
}

// ItemOrigin marks the embedded item as granted by the given advancement.
// Origin changes ride along on the item create delta, so this only adjusts
// the working copy's most recent creation of id.
//
// Precondition: id was created through this clone and not yet committed.
func (c *Clone) ItemOrigin(id, origin string) error {
	item := c.work.Item(id)
	if item == nil {
		return ErrItemNotFound
	}
	item.Origin = origin
	for i := len(c.deltas) - 1; i >= 0; i-- {
		if c.deltas[i].Op != OpCreateItems {
			continue
		}
		for _, staged := range c.deltas[i].Items {
			if staged.ID == id {
				staged.Origin = origin
				return nil
			}
		}
	}
	return fmt.Errorf("document: item %q was not created in this session", id)
}

// AdjustHP stages a permanent hit-point maximum change of delta.
func (c *Clone) AdjustHP(delta int) {
	// applyTo cannot fail for HP adjustments.
	_ = c.stage(Delta{Op: OpAdjustHP, HPDelta: delta})
}

// SetAdvancementValue stages a replacement of one advancement's value
// storage on the owning item.
func (c *Clone) SetAdvancementValue(itemID, advancementID string, value advancement.Value) error {
	return c.stage(Delta{
		Op:            OpSetAdvancementValue,
		ItemID:        itemID,
		AdvancementID: advancementID,
		Value:         value.Clone(),
	})
}

// SetItemLevel stages a level change on the embedded item (the class item
// whose level drives the advancement workflow).
func (c *Clone) SetItemLevel(itemID string, level int) error {
	return c.stage(Delta{Op: OpSetItemLevel, ItemID: itemID, Level: level})
}

// Commit applies the accumulated batch to the real actor through store in
// one atomic operation. On failure the stored actor remains in its
// pre-commit state and the clone stays usable for a retry.
//
// Precondition: the clone has not already committed.
func (c *Clone) Commit(ctx context.Context, store Store) error {
	if c.committed {
		return fmt.Errorf("document: clone for actor %q already committed", c.base.ID)
	}
	if err := store.ApplyDeltas(ctx, c.base.ID, c.deltas); err != nil {
		return fmt.Errorf("committing staged changes for actor %q: %w", c.base.ID, err)
	}
	c.committed = true
	return nil
}

// Discard drops all staged changes. The clone must not be used afterwards.
func (c *Clone) Discard() {
	c.deltas = nil
	c.work = nil
}
