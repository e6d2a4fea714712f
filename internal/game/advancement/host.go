package advancement

import "context"

// Resolver materializes compendium item payloads from their UUIDs.
type Resolver interface {
	// Resolve returns the item payload for uuid, or false when unknown.
	// Implementations must return a copy the caller may embed and mutate.
	Resolve(uuid string) (*ItemData, bool)
}

// ItemStore is the staged embedded-item collection an advancement mutates.
// Implementations stage changes against a working copy; nothing reaches the
// real actor until the owning manager commits.
type ItemStore interface {
	// CreateEmbedded stages new embedded items and returns their instance
	// ids in input order. When ids[i] is non-empty the item is recreated
	// under that id (restore path).
	CreateEmbedded(ctx context.Context, items []*ItemData, ids []string) ([]string, error)

	// DeleteEmbedded stages removal of the embedded items with the given
	// instance ids. Unknown ids are an error.
	DeleteEmbedded(ctx context.Context, ids []string) error

	// GetEmbedded returns the embedded item payload for the instance id.
	GetEmbedded(id string) (*ItemData, bool)

	// AdjustHP stages a permanent hit-point maximum change of delta.
	AdjustHP(delta int)
}

// HitDieRoller evaluates hit-die rolls for HitPoints advancements.
type HitDieRoller interface {
	// RollHitDie returns a result in [1, denomination].
	//
	// Precondition: denomination >= 2.
	RollHitDie(denomination int) int
}

// Localizer renders human-facing text. Lookup failures must degrade to a
// usable string (typically the key); they are never part of core semantics.
type Localizer interface {
	Localize(key string, subs map[string]string) string
}

// Evaluator computes numeric results for arithmetic scale-value formulas.
type Evaluator interface {
	// Evaluate resolves formula with the given variables bound.
	Evaluate(formula string, vars map[string]int) (int, error)
}

// Host bundles the collaborator contracts an advancement needs while
// applying, reversing, or restoring a level.
type Host interface {
	Resolver
	ItemStore
	Dice() HitDieRoller
	Lang() Localizer
	Formulas() Evaluator
}
