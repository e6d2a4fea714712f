// Package compendium loads the content library — classes, features,
// powers, equipment — from YAML files and indexes it by UUID for
// advancement resolution.
package compendium

import (
	"errors"
	"fmt"

	"github.com/hearthvtt/levelforge/internal/game/advancement"
)

// Item type constants for compendium entries.
const (
	TypeClass     = "class"
	TypeFeature   = "feature"
	TypePower     = "power"
	TypeEquipment = "equipment"
)

// validTypes is the set of valid compendium entry types.
var validTypes = map[string]bool{
	TypeClass:     true,
	TypeFeature:   true,
	TypePower:     true,
	TypeEquipment: true,
}

// ValidateEntry checks that the entry satisfies its invariants, including
// every advancement it carries.
//
// Precondition: entry is non-nil.
// Postcondition: returns nil iff all fields are valid.
func ValidateEntry(entry *advancement.ItemData) error {
	var errs []error
	if entry.UUID == "" {
		errs = append(errs, errors.New("uuid must not be empty"))
	}
	if entry.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if !validTypes[entry.Type] {
		errs = append(errs, fmt.Errorf("type must be one of class, feature, power, equipment; got %q", entry.Type))
	}
	if entry.Type == TypeClass && entry.HitDie < 2 {
		errs = append(errs, fmt.Errorf("class hit die must be >= 2, got %d", entry.HitDie))
	}
	if entry.Type == TypePower && entry.Level < 0 {
		errs = append(errs, fmt.Errorf("power level must be >= 0, got %d", entry.Level))
	}
	seen := make(map[string]bool, len(entry.Advancements))
	for _, adv := range entry.Advancements {
		if err := adv.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[adv.ID] {
			errs = append(errs, fmt.Errorf("duplicate advancement id %q", adv.ID))
		}
		seen[adv.ID] = true
	}
	if len(errs) > 0 {
		return fmt.Errorf("compendium entry validation failed: %v", errs)
	}
	return nil
}

// Registry indexes compendium entries by UUID. Registration happens at
// startup; lookups are read-only afterwards and safe for concurrent use.
type Registry struct {
	entries map[string]*advancement.ItemData
}

// NewRegistry returns an empty Registry.
//
// Postcondition: Returns a non-nil *Registry ready to accept registrations.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*advancement.ItemData)}
}

// Register adds entry to the registry.
//
// Precondition: entry must be non-nil with a non-empty UUID.
// Postcondition: Resolve(entry.UUID) succeeds; returns an error if the
// UUID is already registered.
func (r *Registry) Register(entry *advancement.ItemData) error {
	if entry == nil {
		panic("compendium: Registry.Register precondition violated: entry must be non-nil")
	}
	if entry.UUID == "" {
		panic("compendium: Registry.Register precondition violated: entry UUID must be non-empty")
	}
	if _, exists := r.entries[entry.UUID]; exists {
		return fmt.Errorf("compendium: UUID %q already registered", entry.UUID)
	}
	r.entries[entry.UUID] = entry
	return nil
}

// Resolve returns a deep copy of the entry for uuid, implementing
// advancement.Resolver.
//
// Postcondition: ok is true iff the uuid is registered; the returned copy
// is safe to embed and mutate.
func (r *Registry) Resolve(uuid string) (*advancement.ItemData, bool) {
	entry, ok := r.entries[uuid]
	if !ok {
		return nil, false
	}
	return entry.Clone(), true
}

// All returns every registered entry in unspecified order.
//
// Postcondition: len(result) == number of registered entries.
func (r *Registry) All() []*advancement.ItemData {
	out := make([]*advancement.ItemData, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, entry)
	}
	return out
}

// Len returns the number of registered entries.
func (r *Registry) Len() int {
	return len(r.entries)
}
