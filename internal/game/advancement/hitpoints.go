package advancement

import (
	"context"
	"fmt"
	"strconv"
)

// FormKeyAverage is the form field selecting the average fallback instead
// of rolling the hit die.
const FormKeyAverage = "useAverage"

// HitPoints grants a hit-die roll (or the average fallback) at every class
// level. Rolls accumulate in an ordered history; reversing a level removes
// the last roll recorded for that level.
type HitPoints struct {
	base
	cfg *HitPointsConfig
}

// Die returns the hit-die label, e.g. "d10".
func (h *HitPoints) Die() string {
	return "d" + strconv.Itoa(h.cfg.Denomination)
}

// Average returns the average fallback for one hit die: denomination/2 + 1.
func (h *HitPoints) Average() int {
	return h.cfg.Denomination/2 + 1
}

// Levels returns every class level, since hit points apply at each one.
func (h *HitPoints) Levels() []int {
	levels := make([]int, MaxLevel)
	for i := range levels {
		levels[i] = i + 1
	}
	return levels
}

// ConfiguredForLevel reports whether a roll has been recorded for level.
func (h *HitPoints) ConfiguredForLevel(level int) bool {
	return h.rollIndexForLevel(level) >= 0
}

// rollIndexForLevel returns the index of the last roll recorded for level,
// or -1 when none exists.
func (h *HitPoints) rollIndexForLevel(level int) int {
	for i := len(h.data.Value.Rolls) - 1; i >= 0; i-- {
		if h.data.Value.Rolls[i].Level == level {
			return i
		}
	}
	return -1
}

// TitleForLevel returns the display title, with the gained amount appended
// outside config mode once the level is applied.
func (h *HitPoints) TitleForLevel(level int, configMode bool) string {
	title := h.title()
	if configMode {
		return title
	}
	if i := h.rollIndexForLevel(level); i >= 0 {
		return fmt.Sprintf("%s: +%d", title, h.data.Value.Rolls[i].Roll)
	}
	return title
}

// SummaryForLevel describes the hit points gained at level.
func (h *HitPoints) SummaryForLevel(level int, configMode bool) string {
	if configMode {
		return ""
	}
	i := h.rollIndexForLevel(level)
	if i < 0 {
		return ""
	}
	roll := h.data.Value.Rolls[i]
	key := "advancement.hitPoints.summary.rolled"
	if roll.Average {
		key = "advancement.hitPoints.summary.average"
	}
	return h.host.Lang().Localize(key, map[string]string{
		"points": strconv.Itoa(roll.Roll),
		"die":    h.Die(),
	})
}

// Apply rolls the hit die for level (or takes the average when the form
// requests it), appends the result to the roll history, and stages the
// hit-point maximum increase.
//
// Precondition: ConfiguredForLevel(level) is false.
func (h *HitPoints) Apply(ctx context.Context, level int, form FormData) error {
	if h.ConfiguredForLevel(level) {
		return fmt.Errorf("advancement %q: level %d already applied", h.ID(), level)
	}
	roll := HitPointsRoll{Level: level}
	if form.Get(FormKeyAverage) == "true" {
		roll.Roll = h.Average()
		roll.Average = true
	} else {
		roll.Roll = h.host.Dice().RollHitDie(h.cfg.Denomination)
	}
	h.data.Value.Rolls = append(h.data.Value.Rolls, roll)
	h.host.AdjustHP(roll.Roll)
	return nil
}

// Reverse removes the last roll recorded for level and stages the matching
// hit-point decrease. The removed roll is retained for Restore.
func (h *HitPoints) Reverse(ctx context.Context, level int) (*Retained, error) {
	i := h.rollIndexForLevel(level)
	if i < 0 {
		return nil, fmt.Errorf("advancement %q: no roll recorded for level %d", h.ID(), level)
	}
	roll := h.data.Value.Rolls[i]
	h.data.Value.Rolls = append(h.data.Value.Rolls[:i], h.data.Value.Rolls[i+1:]...)
	h.host.AdjustHP(-roll.Roll)
	return &Retained{Roll: &roll}, nil
}

// Restore reappends the retained roll for level without re-rolling.
//
// Precondition: retained must come from a prior Reverse of this advancement.
func (h *HitPoints) Restore(ctx context.Context, level int, retained *Retained) error {
	if retained == nil || retained.Roll == nil {
		return fmt.Errorf("advancement %q: restore requires retained roll data", h.ID())
	}
	if h.ConfiguredForLevel(level) {
		return fmt.Errorf("advancement %q: level %d already applied", h.ID(), level)
	}
	roll := *retained.Roll
	roll.Level = level
	h.data.Value.Rolls = append(h.data.Value.Rolls, roll)
	h.host.AdjustHP(roll.Roll)
	return nil
}
