package advancement

import "fmt"

// Data is the serialized form of one advancement on an item. Exactly one
// configuration pointer is non-nil and must match Type; New enforces this.
//
// Invariant: Value entries exist only for levels present in the
// configuration's level set.
type Data struct {
	ID    string `yaml:"id" json:"id"`
	Type  Type   `yaml:"type" json:"type"`
	Title string `yaml:"title" json:"title"`
	Icon  string `yaml:"icon,omitempty" json:"icon,omitempty"`
	// Order overrides the per-type default step priority when non-zero.
	Order int `yaml:"order,omitempty" json:"order,omitempty"`
	// Level is the single trigger level for variants that apply once
	// (ItemGrant). Multi-level variants carry levels in their config.
	Level int `yaml:"level,omitempty" json:"level,omitempty"`

	HitPoints  *HitPointsConfig  `yaml:"hit_points,omitempty" json:"hitPoints,omitempty"`
	ItemGrant  *ItemGrantConfig  `yaml:"item_grant,omitempty" json:"itemGrant,omitempty"`
	ItemChoice *ItemChoiceConfig `yaml:"item_choice,omitempty" json:"itemChoice,omitempty"`
	ScaleValue *ScaleValueConfig `yaml:"scale_value,omitempty" json:"scaleValue,omitempty"`

	Value Value `yaml:"value,omitempty" json:"value"`
}

// HitPointsConfig configures a hit-die roll gained at every class level.
type HitPointsConfig struct {
	// Denomination is the hit-die face count, e.g. 10 for a d10.
	Denomination int `yaml:"denomination" json:"denomination"`
}

// Restriction constrains the item types an advancement may grant.
// Level is parsed as an integer; a non-numeric value means "no restriction".
type Restriction struct {
	Type    string `yaml:"type,omitempty" json:"type,omitempty"`
	Subtype string `yaml:"subtype,omitempty" json:"subtype,omitempty"`
	Level   string `yaml:"level,omitempty" json:"level,omitempty"`
}

// ItemGrantConfig configures an unconditional grant of items at one level.
type ItemGrantConfig struct {
	// Items lists the compendium UUIDs granted when the level is applied.
	Items []string `yaml:"items" json:"items"`
	// Optional permits the player to deselect individual grants.
	Optional    bool        `yaml:"optional,omitempty" json:"optional,omitempty"`
	Restriction Restriction `yaml:"restriction,omitempty" json:"restriction,omitempty"`
}

// ItemChoiceConfig configures a constrained pick from a candidate pool.
type ItemChoiceConfig struct {
	// Pool lists the selectable compendium UUIDs.
	Pool []string `yaml:"pool" json:"pool"`
	// Choices maps level to the number of picks allowed at that level.
	Choices     map[int]int `yaml:"choices" json:"choices"`
	Restriction Restriction `yaml:"restriction,omitempty" json:"restriction,omitempty"`
}

// ScaleValueConfig configures a level-keyed table of scalars or formulas.
// The value is computed on demand from this table, never stored redundantly.
type ScaleValueConfig struct {
	// Identifier is the lowercase key under which the scale is exposed to
	// formulas and sheet display, e.g. "sneak-attack".
	Identifier string `yaml:"identifier" json:"identifier"`
	// Scale maps level to a scalar, dice formula, or arithmetic formula.
	Scale map[int]string `yaml:"scale" json:"scale"`
}

// HitPointsRoll records one hit-point gain in application order.
type HitPointsRoll struct {
	Level int `yaml:"level" json:"level"`
	// Roll is the die result, or the average fallback when Average is true.
	Roll    int  `yaml:"roll" json:"roll"`
	Average bool `yaml:"average,omitempty" json:"average,omitempty"`
}

// Value is the variant-specific runtime state keyed by level.
type Value struct {
	// Rolls is the ordered hit-point roll history (HitPoints).
	Rolls []HitPointsRoll `yaml:"rolls,omitempty" json:"rolls,omitempty"`
	// Added maps level to (embedded item id -> source UUID) for items
	// granted at that level (ItemGrant, ItemChoice).
	Added map[int]map[string]string `yaml:"added,omitempty" json:"added,omitempty"`
}

// ItemData is the item payload exchanged with the host collaborators:
// resolved from the compendium, embedded on actors, and validated against
// restrictions.
type ItemData struct {
	UUID    string `yaml:"uuid" json:"uuid"`
	Name    string `yaml:"name" json:"name"`
	Type    string `yaml:"type" json:"type"`
	Subtype string `yaml:"subtype,omitempty" json:"subtype,omitempty"`
	// Level is the power level for "power" items; 0 otherwise.
	Level int `yaml:"level,omitempty" json:"level,omitempty"`
	// HitDie is the hit-die denomination for "class" items; 0 otherwise.
	HitDie int `yaml:"hit_die,omitempty" json:"hitDie,omitempty"`
	// Advancements carried by the item itself; granted items may bring
	// their own advancement effects into a level change.
	Advancements []*Data `yaml:"advancements,omitempty" json:"advancements,omitempty"`
}

// Clone returns a deep copy of the item payload.
func (i *ItemData) Clone() *ItemData {
	out := *i
	out.Advancements = make([]*Data, len(i.Advancements))
	for n, d := range i.Advancements {
		out.Advancements[n] = d.Clone()
	}
	return &out
}

// Clone returns a deep copy of the advancement data, value storage included.
func (d *Data) Clone() *Data {
	out := *d
	if d.HitPoints != nil {
		cfg := *d.HitPoints
		out.HitPoints = &cfg
	}
	if d.ItemGrant != nil {
		cfg := *d.ItemGrant
		cfg.Items = append([]string(nil), d.ItemGrant.Items...)
		out.ItemGrant = &cfg
	}
	if d.ItemChoice != nil {
		cfg := *d.ItemChoice
		cfg.Pool = append([]string(nil), d.ItemChoice.Pool...)
		cfg.Choices = make(map[int]int, len(d.ItemChoice.Choices))
		for lvl, n := range d.ItemChoice.Choices {
			cfg.Choices[lvl] = n
		}
		out.ItemChoice = &cfg
	}
	if d.ScaleValue != nil {
		cfg := *d.ScaleValue
		cfg.Scale = make(map[int]string, len(d.ScaleValue.Scale))
		for lvl, v := range d.ScaleValue.Scale {
			cfg.Scale[lvl] = v
		}
		out.ScaleValue = &cfg
	}
	out.Value = d.Value.Clone()
	return &out
}

// Clone returns a deep copy of the value storage.
func (v Value) Clone() Value {
	out := Value{}
	out.Rolls = append([]HitPointsRoll(nil), v.Rolls...)
	if v.Added != nil {
		out.Added = make(map[int]map[string]string, len(v.Added))
		for lvl, m := range v.Added {
			inner := make(map[string]string, len(m))
			for id, uuid := range m {
				inner[id] = uuid
			}
			out.Added[lvl] = inner
		}
	}
	return out
}

// Validate checks the invariants content loading relies on: a matching
// configuration block, a sane trigger level, a well-formed restriction,
// and variant-specific configuration shapes.
//
// Postcondition: returns nil iff New would accept d and strict validation
// only ever sees well-formed restriction data.
func (d *Data) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("advancement: missing id")
	}
	if err := d.validateConfig(); err != nil {
		return err
	}
	if err := validateRestrictionShape(d); err != nil {
		return err
	}
	switch d.Type {
	case TypeHitPoints:
		if d.HitPoints.Denomination < 2 {
			return fmt.Errorf("advancement %q: hit-die denomination must be >= 2, got %d", d.ID, d.HitPoints.Denomination)
		}
	case TypeItemGrant:
		if d.Level < 1 || d.Level > MaxLevel {
			return fmt.Errorf("advancement %q: trigger level must be 1-%d, got %d", d.ID, MaxLevel, d.Level)
		}
		if len(d.ItemGrant.Items) == 0 {
			return fmt.Errorf("advancement %q: item grant requires at least one item", d.ID)
		}
	case TypeItemChoice:
		if len(d.ItemChoice.Pool) == 0 {
			return fmt.Errorf("advancement %q: item choice requires a candidate pool", d.ID)
		}
		if len(d.ItemChoice.Choices) == 0 {
			return fmt.Errorf("advancement %q: item choice requires per-level choice counts", d.ID)
		}
		for lvl, n := range d.ItemChoice.Choices {
			if lvl < 1 || lvl > MaxLevel {
				return fmt.Errorf("advancement %q: choice level must be 1-%d, got %d", d.ID, MaxLevel, lvl)
			}
			if n < 1 {
				return fmt.Errorf("advancement %q: choice count at level %d must be >= 1, got %d", d.ID, lvl, n)
			}
		}
	case TypeScaleValue:
		if !ValidScaleIdentifier(d.ScaleValue.Identifier) {
			return fmt.Errorf("advancement %q: invalid scale identifier %q", d.ID, d.ScaleValue.Identifier)
		}
		if len(d.ScaleValue.Scale) == 0 {
			return fmt.Errorf("advancement %q: scale value requires at least one entry", d.ID)
		}
		for lvl := range d.ScaleValue.Scale {
			if lvl < 1 || lvl > MaxLevel {
				return fmt.Errorf("advancement %q: scale level must be 1-%d, got %d", d.ID, MaxLevel, lvl)
			}
		}
	}
	return nil
}

// validRestrictionTypes are the item categories a restriction may name.
var validRestrictionTypes = map[string]bool{
	"":              true,
	ItemTypeFeature: true,
	ItemTypePower:   true,
	"equipment":     true,
	"class":         true,
}

// validateRestrictionShape rejects malformed restriction data at load time
// so strict validation never sees an unknown restriction type.
func validateRestrictionShape(d *Data) error {
	var r Restriction
	switch {
	case d.ItemGrant != nil:
		r = d.ItemGrant.Restriction
	case d.ItemChoice != nil:
		r = d.ItemChoice.Restriction
	default:
		return nil
	}
	if !validRestrictionTypes[r.Type] {
		return fmt.Errorf("advancement %q: unknown restriction type %q", d.ID, r.Type)
	}
	return nil
}

// validateConfig checks that exactly the configuration block matching
// d.Type is present.
func (d *Data) validateConfig() error {
	var want, got int
	for _, present := range []bool{
		d.HitPoints != nil, d.ItemGrant != nil, d.ItemChoice != nil, d.ScaleValue != nil,
	} {
		if present {
			got++
		}
	}
	want = 1
	if got != want {
		return fmt.Errorf("advancement %q: exactly one configuration block required, found %d", d.ID, got)
	}
	ok := false
	switch d.Type {
	case TypeHitPoints:
		ok = d.HitPoints != nil
	case TypeItemGrant:
		ok = d.ItemGrant != nil
	case TypeItemChoice:
		ok = d.ItemChoice != nil
	case TypeScaleValue:
		ok = d.ScaleValue != nil
	}
	if !ok {
		return fmt.Errorf("advancement %q: configuration block does not match type %q", d.ID, d.Type)
	}
	return nil
}

// addedForLevel returns the granted-item map for level, creating it on demand.
func (v *Value) addedForLevel(level int) map[string]string {
	if v.Added == nil {
		v.Added = make(map[int]map[string]string)
	}
	if v.Added[level] == nil {
		v.Added[level] = make(map[string]string)
	}
	return v.Added[level]
}

// clearLevel removes the granted-item entry for level entirely.
func (v *Value) clearLevel(level int) {
	delete(v.Added, level)
	if len(v.Added) == 0 {
		v.Added = nil
	}
}

// grantConfigForChoice adapts an ItemChoice configuration to the grant
// fields shared with ItemGrant (pool as items, same restriction).
func grantConfigForChoice(cfg *ItemChoiceConfig) *ItemGrantConfig {
	if cfg == nil {
		return nil
	}
	return &ItemGrantConfig{Items: cfg.Pool, Restriction: cfg.Restriction}
}
