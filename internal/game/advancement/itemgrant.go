package advancement

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// FormKeySelected is the multi-select form field carrying chosen item UUIDs.
const FormKeySelected = "selected"

// ItemGrant grants a fixed list of items when its trigger level is applied.
// Granted embedded-item ids are recorded per level so Reverse removes
// exactly the items this advancement created.
type ItemGrant struct {
	base
	cfg *ItemGrantConfig
}

// Levels returns the single trigger level.
func (g *ItemGrant) Levels() []int {
	return []int{g.data.Level}
}

// ConfiguredForLevel reports whether items have been granted for level.
func (g *ItemGrant) ConfiguredForLevel(level int) bool {
	return len(g.data.Value.Added[level]) > 0
}

// TitleForLevel returns the display title.
func (g *ItemGrant) TitleForLevel(level int, configMode bool) string {
	return g.title()
}

// SummaryForLevel lists the names of the items granted at level.
func (g *ItemGrant) SummaryForLevel(level int, configMode bool) string {
	if configMode {
		return ""
	}
	added := g.data.Value.Added[level]
	if len(added) == 0 {
		return ""
	}
	names := make([]string, 0, len(added))
	for _, uuid := range added {
		if item, ok := g.host.Resolve(uuid); ok {
			names = append(names, item.Name)
		} else {
			names = append(names, uuid)
		}
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// selectedUUIDs returns the UUIDs to grant for this step. The full
// configured list is granted unless the grant is optional and the form
// narrows the selection.
func (g *ItemGrant) selectedUUIDs(form FormData) []string {
	if !g.cfg.Optional {
		return g.cfg.Items
	}
	selected := form.All(FormKeySelected)
	if selected == nil {
		return g.cfg.Items
	}
	allowed := make(map[string]bool, len(g.cfg.Items))
	for _, uuid := range g.cfg.Items {
		allowed[uuid] = true
	}
	var out []string
	for _, uuid := range selected {
		if allowed[uuid] {
			out = append(out, uuid)
		}
	}
	return out
}

// Apply resolves the configured item UUIDs, validates each against the
// restriction, and stages embedded copies on the actor. The created
// instance ids are recorded under level so Reverse can remove exactly them.
//
// An unresolvable UUID is skipped (non-fatal configuration gap); a strict
// validation failure aborts the apply with the value storage unchanged.
func (g *ItemGrant) Apply(ctx context.Context, level int, form FormData) error {
	return g.grant(ctx, level, g.selectedUUIDs(form), true)
}

// grant performs the shared grant path for ItemGrant and ItemChoice.
// When strict is true a restriction mismatch fails loud; callers pass the
// candidate set appropriate to their variant.
func (g *ItemGrant) grant(ctx context.Context, level int, uuids []string, strict bool) error {
	if g.ConfiguredForLevel(level) {
		return fmt.Errorf("advancement %q: level %d already applied", g.ID(), level)
	}
	var items []*ItemData
	for _, uuid := range uuids {
		item, ok := g.host.Resolve(uuid)
		if !ok {
			continue
		}
		passed, err := ValidateItemType(item, g.cfg.Restriction, strict)
		if err != nil {
			return err
		}
		if !passed {
			continue
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil
	}
	ids, err := g.host.CreateEmbedded(ctx, items, make([]string, len(items)))
	if err != nil {
		return fmt.Errorf("advancement %q: granting items: %w", g.ID(), err)
	}
	added := g.data.Value.addedForLevel(level)
	for i, id := range ids {
		added[id] = items[i].UUID
	}
	return nil
}

// Reverse deletes the embedded items granted at level and clears the
// level's entry, retaining the removed payloads for Restore.
func (g *ItemGrant) Reverse(ctx context.Context, level int) (*Retained, error) {
	added := g.data.Value.Added[level]
	if len(added) == 0 {
		return nil, fmt.Errorf("advancement %q: nothing applied at level %d", g.ID(), level)
	}
	ids := make([]string, 0, len(added))
	for id := range added {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	retained := &Retained{}
	for _, id := range ids {
		item, ok := g.host.GetEmbedded(id)
		if !ok {
			return nil, fmt.Errorf("advancement %q: embedded item %q missing", g.ID(), id)
		}
		retained.Items = append(retained.Items, &RetainedItem{ID: id, Item: item})
	}
	if err := g.host.DeleteEmbedded(ctx, ids); err != nil {
		return nil, fmt.Errorf("advancement %q: removing granted items: %w", g.ID(), err)
	}
	g.data.Value.clearLevel(level)
	return retained, nil
}

// Restore recreates the retained items under their original instance ids
// and re-records them for level, bypassing user prompts.
//
// Precondition: retained must come from a prior Reverse of this advancement.
func (g *ItemGrant) Restore(ctx context.Context, level int, retained *Retained) error {
	if retained == nil || len(retained.Items) == 0 {
		return fmt.Errorf("advancement %q: restore requires retained items", g.ID())
	}
	if g.ConfiguredForLevel(level) {
		return fmt.Errorf("advancement %q: level %d already applied", g.ID(), level)
	}
	items := make([]*ItemData, len(retained.Items))
	ids := make([]string, len(retained.Items))
	for i, ri := range retained.Items {
		items[i] = ri.Item
		ids[i] = ri.ID
	}
	created, err := g.host.CreateEmbedded(ctx, items, ids)
	if err != nil {
		return fmt.Errorf("advancement %q: restoring granted items: %w", g.ID(), err)
	}
	added := g.data.Value.addedForLevel(level)
	for i, id := range created {
		added[id] = items[i].UUID
	}
	return nil
}
