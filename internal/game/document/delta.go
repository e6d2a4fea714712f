package document

import (
	"fmt"

	"github.com/hearthvtt/levelforge/internal/game/advancement"
)

// DeltaOp discriminates the staged change kinds a clone accumulates.
type DeltaOp string

// Staged change kinds, applied in buffer order at commit.
const (
	OpCreateItems         DeltaOp = "createItems"
	OpDeleteItems         DeltaOp = "deleteItems"
	OpSetAdvancementValue DeltaOp = "setAdvancementValue"
	OpAdjustHP            DeltaOp = "adjustHP"
	OpSetItemLevel        DeltaOp = "setItemLevel"
)

// Delta is one staged change. Exactly the fields relevant to Op are set.
type Delta struct {
	Op DeltaOp `json:"op"`

	// Items are the full embedded items to create (OpCreateItems).
	Items []*Item `json:"items,omitempty"`
	// ItemIDs are the instance ids to delete (OpDeleteItems).
	ItemIDs []string `json:"itemIds,omitempty"`

	// ItemID targets the owning item (OpSetAdvancementValue, OpSetItemLevel).
	ItemID string `json:"itemId,omitempty"`
	// AdvancementID targets the advancement whose value is replaced.
	AdvancementID string `json:"advancementId,omitempty"`
	// Value is the replacement value storage (OpSetAdvancementValue).
	Value advancement.Value `json:"value,omitempty"`

	// HPDelta is the permanent hit-point maximum change (OpAdjustHP).
	HPDelta int `json:"hpDelta,omitempty"`
	// Level is the new item level (OpSetItemLevel).
	Level int `json:"level,omitempty"`
}

// Apply mutates a in place with the ordered batch, stopping at the first
// failing delta. Callers that need atomicity must apply to a scratch copy.
//
// Precondition: a must not be nil.
// Postcondition: On success every delta has been applied to a in order.
func Apply(a *Actor, deltas []Delta) error {
	for i, d := range deltas {
		if err := d.applyTo(a); err != nil {
			return fmt.Errorf("applying delta %d (%s): %w", i, d.Op, err)
		}
	}
	return nil
}

// applyTo mutates a in place according to the delta. Shared by the clone's
// working copy and the in-memory store's commit path so both stay in step.
func (d Delta) applyTo(a *Actor) error {
	switch d.Op {
	case OpCreateItems:
		for _, item := range d.Items {
			a.Items = append(a.Items, item.Clone())
		}
	case OpDeleteItems:
		for _, id := range d.ItemIDs {
			if a.Item(id) == nil {
				return ErrItemNotFound
			}
		}
		keep := a.Items[:0]
		remove := make(map[string]bool, len(d.ItemIDs))
		for _, id := range d.ItemIDs {
			remove[id] = true
		}
		for _, item := range a.Items {
			if !remove[item.ID] {
				keep = append(keep, item)
			}
		}
		a.Items = keep
	case OpSetAdvancementValue:
		item := a.Item(d.ItemID)
		if item == nil {
			return ErrItemNotFound
		}
		for _, adv := range item.Advancements {
			if adv.ID == d.AdvancementID {
				adv.Value = d.Value.Clone()
				return nil
			}
		}
		return ErrItemNotFound
	case OpAdjustHP:
		a.HP.Max += d.HPDelta
		a.HP.Value += d.HPDelta
		if a.HP.Value < 0 {
			a.HP.Value = 0
		}
	case OpSetItemLevel:
		item := a.Item(d.ItemID)
		if item == nil {
			return ErrItemNotFound
		}
		item.Level = d.Level
	}
	return nil
}
