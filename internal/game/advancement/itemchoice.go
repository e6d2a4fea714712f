package advancement

import (
	"context"
	"fmt"
)

// ItemChoice grants a player-constrained pick of items from a candidate
// pool: per level, the configuration allows a fixed number of choices. The
// pool is filtered non-strictly when presenting candidates and validated
// strictly when a late-bound selection is finally granted.
type ItemChoice struct {
	ItemGrant
	cfg *ItemChoiceConfig
}

// Levels returns the ascending levels with a configured choice count.
func (c *ItemChoice) Levels() []int {
	return sortedLevelKeys(c.cfg.Choices)
}

// ChoicesForLevel returns the number of picks allowed at level.
func (c *ItemChoice) ChoicesForLevel(level int) int {
	return c.cfg.Choices[level]
}

// Candidates resolves the configured pool and filters it non-strictly
// against the restriction, returning the selectable items.
func (c *ItemChoice) Candidates() []*ItemData {
	var out []*ItemData
	for _, uuid := range c.cfg.Pool {
		item, ok := c.host.Resolve(uuid)
		if !ok {
			continue
		}
		if passed, _ := ValidateItemType(item, c.cfg.Restriction, false); passed {
			out = append(out, item)
		}
	}
	return out
}

// Apply grants the UUIDs selected in the form.
//
// The selection must come from the configured pool and must not exceed the
// level's allowed count; each selected item is validated strictly, so an
// invalid late-bound selection fails the apply without mutating value
// storage.
func (c *ItemChoice) Apply(ctx context.Context, level int, form FormData) error {
	allowed := c.ChoicesForLevel(level)
	if allowed == 0 {
		return fmt.Errorf("advancement %q: no choices configured for level %d", c.ID(), level)
	}
	selected := form.All(FormKeySelected)
	if len(selected) > allowed {
		return fmt.Errorf("advancement %q: %d selections exceed the %d allowed at level %d",
			c.ID(), len(selected), allowed, level)
	}
	pool := make(map[string]bool, len(c.cfg.Pool))
	for _, uuid := range c.cfg.Pool {
		pool[uuid] = true
	}
	for _, uuid := range selected {
		if !pool[uuid] {
			return fmt.Errorf("advancement %q: selection %q is not in the candidate pool", c.ID(), uuid)
		}
		item, ok := c.host.Resolve(uuid)
		if !ok {
			return fmt.Errorf("advancement %q: selection %q cannot be resolved", c.ID(), uuid)
		}
		if _, err := ValidateItemType(item, c.cfg.Restriction, true); err != nil {
			return err
		}
	}
	return c.grant(ctx, level, selected, true)
}
