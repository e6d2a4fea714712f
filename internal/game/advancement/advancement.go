// Package advancement defines the advancement data model and the effect
// contract each variant implements: configuration plus per-level value
// storage for one level-gain consequence on a character.
package advancement

import (
	"context"
	"fmt"
	"sort"
)

// MaxLevel is the highest character level any advancement can trigger at.
const MaxLevel = 20

// Type discriminates the advancement variants.
type Type string

// Advancement variant discriminants.
const (
	TypeHitPoints  Type = "hitPoints"
	TypeItemGrant  Type = "itemGrant"
	TypeItemChoice Type = "itemChoice"
	TypeScaleValue Type = "scaleValue"
)

// defaultOrder maps each variant to its default step priority within a level.
// Lower order sorts earlier.
var defaultOrder = map[Type]int{
	TypeHitPoints:  10,
	TypeItemGrant:  40,
	TypeItemChoice: 50,
	TypeScaleValue: 60,
}

// FormData is the raw form payload a Flow collects for one step.
// Keys are field names; repeated values model multi-selects.
type FormData map[string][]string

// Get returns the first value for key, or "" if absent.
func (f FormData) Get(key string) string {
	if vs, ok := f[key]; ok && len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// All returns every value for key (may be nil).
func (f FormData) All(key string) []string {
	return f[key]
}

// Advancement is the behavior contract every variant satisfies. The host
// collaborators are bound at construction; one Advancement instance belongs
// to exactly one staged editing session.
//
// Apply, Reverse, and Restore mutate only the advancement's own value
// storage and the host's staged state; the real actor is never touched
// until the owning manager commits.
type Advancement interface {
	// ID returns the advancement's stable identifier within its owning item.
	ID() string

	// Type returns the variant discriminant.
	Type() Type

	// Order returns the step priority within a level; lower sorts earlier.
	Order() int

	// Levels returns the ascending, duplicate-free list of levels at which
	// this advancement has a configured effect.
	Levels() []int

	// ConfiguredForLevel reports whether the advancement has an applied
	// value entry for level (for ScaleValue: a configured entry at or
	// below level).
	ConfiguredForLevel(level int) bool

	// TitleForLevel returns the display title for level. Outside config
	// mode variants may append a suffix describing the applied effect.
	TitleForLevel(level int, configMode bool) string

	// SummaryForLevel returns a human-readable description of the effect
	// applied at level, or "" when not yet applied or in config mode.
	SummaryForLevel(level int, configMode bool) string

	// Apply commits the effect at level using player-supplied form data.
	//
	// Precondition: ConfiguredForLevel(level) is false (reverse first to
	// re-apply). Postcondition: on success ConfiguredForLevel(level) is
	// true; on error the value storage is unchanged.
	Apply(ctx context.Context, level int, form FormData) error

	// Reverse undoes the effect applied at level and returns retained
	// state sufficient for Restore to replay it without re-prompting.
	//
	// Postcondition: on success ConfiguredForLevel(level) is false.
	Reverse(ctx context.Context, level int) (*Retained, error)

	// Restore reapplies a previously reversed level using retained data,
	// bypassing user prompts.
	Restore(ctx context.Context, level int, retained *Retained) error

	// Data returns the advancement's serialized form, including the
	// current value storage.
	Data() *Data
}

// Retained captures the state removed by Reverse so Restore can replay it.
// Fields are variant-specific; unused fields stay nil.
type Retained struct {
	// Roll is the hit-point roll entry removed for the level (HitPoints).
	Roll *HitPointsRoll `json:"roll,omitempty"`
	// Items holds the embedded item payloads removed for the level, with
	// their instance IDs, so Restore recreates them under the same IDs
	// (ItemGrant, ItemChoice).
	Items []*RetainedItem `json:"items,omitempty"`
}

// RetainedItem is one removed embedded item: its instance id plus payload.
type RetainedItem struct {
	ID   string    `json:"id"`
	Item *ItemData `json:"item"`
}

// New builds the typed Advancement for data's discriminant, bound to host.
//
// Precondition: data and host must be non-nil; data.ID must be non-empty.
// Postcondition: Returns the variant implementation, or an error when the
// discriminant is unknown or the matching configuration block is missing.
func New(data *Data, host Host) (Advancement, error) {
	if data == nil {
		panic("advancement: New precondition violated: data must be non-nil")
	}
	if host == nil {
		panic("advancement: New precondition violated: host must be non-nil")
	}
	if data.ID == "" {
		return nil, fmt.Errorf("advancement: missing id")
	}
	if err := data.validateConfig(); err != nil {
		return nil, err
	}
	if data.Order == 0 {
		data.Order = defaultOrder[data.Type]
	}
	b := base{data: data, host: host}
	switch data.Type {
	case TypeHitPoints:
		return &HitPoints{base: b, cfg: data.HitPoints}, nil
	case TypeItemGrant:
		return &ItemGrant{base: b, cfg: data.ItemGrant}, nil
	case TypeItemChoice:
		return &ItemChoice{
			ItemGrant: ItemGrant{base: b, cfg: grantConfigForChoice(data.ItemChoice)},
			cfg:       data.ItemChoice,
		}, nil
	case TypeScaleValue:
		return &ScaleValue{base: b, cfg: data.ScaleValue}, nil
	default:
		return nil, fmt.Errorf("advancement: unknown type %q", data.Type)
	}
}

// sortedLevelKeys returns the keys of m in ascending order.
func sortedLevelKeys[V any](m map[int]V) []int {
	levels := make([]int, 0, len(m))
	for lvl := range m {
		levels = append(levels, lvl)
	}
	sort.Ints(levels)
	return levels
}
