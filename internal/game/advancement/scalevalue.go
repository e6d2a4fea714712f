package advancement

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/hearthvtt/levelforge/internal/game/dice"
)

var identifierPattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// ValidScaleIdentifier reports whether id is a well-formed scale-value
// identifier: lowercase, starting with a letter, using only letters,
// digits, and hyphens.
func ValidScaleIdentifier(id string) bool {
	return identifierPattern.MatchString(id)
}

// ScaleValue exposes a level-keyed table of scalars or formulas. The value
// for a level is computed on demand from configuration; applying a level
// records nothing beyond the fact that the table is consulted, so Apply,
// Reverse, and Restore are no-ops on actor state.
type ScaleValue struct {
	base
	cfg *ScaleValueConfig
}

// Identifier returns the key under which the scale is exposed to formulas.
func (s *ScaleValue) Identifier() string {
	return s.cfg.Identifier
}

// Levels returns the ascending levels with a configured table entry.
func (s *ScaleValue) Levels() []int {
	return sortedLevelKeys(s.cfg.Scale)
}

// ConfiguredForLevel reports whether the table defines an entry at or
// below level.
func (s *ScaleValue) ConfiguredForLevel(level int) bool {
	for lvl := range s.cfg.Scale {
		if lvl <= level {
			return true
		}
	}
	return false
}

// EntryForLevel returns the raw table entry in effect at level: the entry
// configured at the highest level not exceeding it.
//
// Postcondition: ok is false iff no entry is configured at or below level.
func (s *ScaleValue) EntryForLevel(level int) (string, bool) {
	best := 0
	found := false
	for lvl := range s.cfg.Scale {
		if lvl <= level && lvl >= best {
			best = lvl
			found = true
		}
	}
	if !found {
		return "", false
	}
	return s.cfg.Scale[best], true
}

// NumericForLevel computes the numeric value in effect at level. Plain
// integers pass through; dice formulas resolve to their average; anything
// else is evaluated as an arithmetic formula with "level" bound.
func (s *ScaleValue) NumericForLevel(level int) (int, error) {
	entry, ok := s.EntryForLevel(level)
	if !ok {
		return 0, fmt.Errorf("advancement %q: no scale entry at or below level %d", s.ID(), level)
	}
	if n, err := strconv.Atoi(entry); err == nil {
		return n, nil
	}
	if expr, err := dice.Parse(entry); err == nil {
		return expr.Average(), nil
	}
	n, err := s.host.Formulas().Evaluate(entry, map[string]int{"level": level})
	if err != nil {
		return 0, fmt.Errorf("advancement %q: evaluating scale entry %q: %w", s.ID(), entry, err)
	}
	return n, nil
}

// TitleForLevel appends the in-effect entry outside config mode.
func (s *ScaleValue) TitleForLevel(level int, configMode bool) string {
	title := s.title()
	if configMode {
		return title
	}
	if entry, ok := s.EntryForLevel(level); ok {
		return fmt.Sprintf("%s: %s", title, entry)
	}
	return title
}

// SummaryForLevel describes the value in effect at level.
func (s *ScaleValue) SummaryForLevel(level int, configMode bool) string {
	if configMode {
		return ""
	}
	entry, ok := s.EntryForLevel(level)
	if !ok {
		return ""
	}
	return s.host.Lang().Localize("advancement.scaleValue.summary", map[string]string{
		"identifier": s.cfg.Identifier,
		"value":      entry,
	})
}

// Apply records nothing: the value is computed on demand from
// configuration.
//
// Precondition: the table must define an entry at or below level.
func (s *ScaleValue) Apply(ctx context.Context, level int, form FormData) error {
	if !s.ConfiguredForLevel(level) {
		return fmt.Errorf("advancement %q: no scale entry at or below level %d", s.ID(), level)
	}
	return nil
}

// Reverse has no stored state to undo.
func (s *ScaleValue) Reverse(ctx context.Context, level int) (*Retained, error) {
	return &Retained{}, nil
}

// Restore has no stored state to replay.
func (s *ScaleValue) Restore(ctx context.Context, level int, retained *Retained) error {
	return nil
}
