package levelup

import (
	"context"
	"fmt"

	"github.com/hearthvtt/levelforge/internal/game/advancement"
)

// Flow is the per-step interaction adapter: it seeds a form from the
// advancement's configuration and forwards the raw payload to the
// advancement's apply contract. A Flow never mutates actor state directly.
//
// When the manager re-enters a previously undone step, the Flow replays
// the step's retained data through Restore instead of prompting again.
type Flow struct {
	step *Step
}

// newFlow creates the Flow for step.
func newFlow(step *Step) *Flow {
	return &Flow{step: step}
}

// Title returns the step's display title.
func (f *Flow) Title() string {
	return f.step.Advancement.TitleForLevel(f.step.Level, false)
}

// Summary returns the human-readable description of the applied effect, or
// "" before the step completes.
func (f *Flow) Summary() string {
	return f.step.Advancement.SummaryForLevel(f.step.Level, false)
}

// Option is one selectable candidate presented by a choice step.
type Option struct {
	UUID string
	Name string
}

// Options returns the selectable candidates for choice steps, and nil for
// steps without a selection. The pool is filtered non-strictly; strict
// validation runs when the selection is finally granted.
func (f *Flow) Options() []Option {
	choice, ok := f.step.Advancement.(*advancement.ItemChoice)
	if !ok {
		return nil
	}
	candidates := choice.Candidates()
	out := make([]Option, len(candidates))
	for i, item := range candidates {
		out[i] = Option{UUID: item.UUID, Name: item.Name}
	}
	return out
}

// Retained reports whether the step carries replay state from a prior undo.
func (f *Flow) Retained() bool {
	return f.step.retained != nil
}

// Complete runs the step's effect with the submitted form payload: Apply
// for fresh forward steps, Restore when retained data is present, Reverse
// for reverse steps.
//
// Postcondition: on success the step is marked applied (or unapplied for
// reverse steps); on error the advancement's value storage is unchanged
// and Complete may be retried.
func (f *Flow) Complete(ctx context.Context, form advancement.FormData) error {
	step := f.step
	switch {
	case step.Direction == Reverse:
		retained, err := step.Advancement.Reverse(ctx, step.Level)
		if err != nil {
			return fmt.Errorf("reversing %q at level %d: %w", step.Advancement.ID(), step.Level, err)
		}
		step.retained = retained
		step.applied = true
	case step.retained != nil:
		if err := step.Advancement.Restore(ctx, step.Level, step.retained); err != nil {
			return fmt.Errorf("restoring %q at level %d: %w", step.Advancement.ID(), step.Level, err)
		}
		step.applied = true
	default:
		if err := step.Advancement.Apply(ctx, step.Level, form); err != nil {
			return fmt.Errorf("applying %q at level %d: %w", step.Advancement.ID(), step.Level, err)
		}
		step.applied = true
	}
	return nil
}

// undo rolls back a completed step when the manager retreats onto it:
// forward steps reverse (capturing retained data for replay), reverse
// steps restore from their retained data.
func (f *Flow) undo(ctx context.Context) error {
	step := f.step
	if !step.applied {
		return fmt.Errorf("step %q at level %d has not completed", step.Advancement.ID(), step.Level)
	}
	if step.Direction == Forward {
		// A completed step may have recorded nothing: an empty choice
		// selection, or a grant whose UUIDs all failed to resolve. With
		// no value entry there is nothing to reverse; the step re-prompts
		// fresh when advanced onto again.
		if !step.Advancement.ConfiguredForLevel(step.Level) {
			step.retained = nil
			step.applied = false
			return nil
		}
		retained, err := step.Advancement.Reverse(ctx, step.Level)
		if err != nil {
			return fmt.Errorf("undoing %q at level %d: %w", step.Advancement.ID(), step.Level, err)
		}
		step.retained = retained
		step.applied = false
		return nil
	}
	if err := step.Advancement.Restore(ctx, step.Level, step.retained); err != nil {
		return fmt.Errorf("redoing %q at level %d: %w", step.Advancement.ID(), step.Level, err)
	}
	step.applied = false
	return nil
}
