// Package levelup orchestrates the multi-step advancement workflow
// triggered by a class level change: it enumerates the affected
// advancements per crossed level, sequences their flows, and stages every
// effect on an actor clone that reaches the real actor only on commit.
package levelup

import (
	"context"
	"errors"

	"github.com/hearthvtt/levelforge/internal/game/advancement"
	"github.com/hearthvtt/levelforge/internal/game/document"
)

// ErrConfirmationDeclined signals that the user declined the destructive
// reverse confirmation. It is a control-flow signal, not a failure: the
// actor is untouched and callers must treat it as a no-op.
var ErrConfirmationDeclined = errors.New("level decrease declined")

// ErrNoCurrentStep is returned when Advance or Retreat is called outside
// the step range.
var ErrNoCurrentStep = errors.New("no current step")

// State is the manager lifecycle phase.
type State string

// Manager lifecycle phases.
const (
	// StateBuilt means steps are enumerated and no flow has completed yet.
	StateBuilt State = "built"
	// StateStepping means at least one step has completed and more remain.
	StateStepping State = "stepping"
	// StateCommitting means every step completed; Commit may run.
	StateCommitting State = "committing"
	// StateCommitted means the actor received the staged batch.
	StateCommitted State = "committed"
	// StateCancelled means the clone was discarded without touching the actor.
	StateCancelled State = "cancelled"
)

// Direction discriminates forward apply steps from reverse/undo steps.
type Direction string

// Step directions.
const (
	Forward Direction = "forward"
	Reverse Direction = "reverse"
)

// Confirmer gates destructive reversals. Implementations prompt the user
// before any reverse step is built.
type Confirmer interface {
	// ConfirmReverse reports whether the user accepted undoing the level
	// range fromLevel (exclusive) down to toLevel (inclusive).
	ConfirmReverse(ctx context.Context, actorName string, fromLevel, toLevel int) (bool, error)
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(ctx context.Context, actorName string, fromLevel, toLevel int) (bool, error)

// ConfirmReverse calls f.
func (f ConfirmFunc) ConfirmReverse(ctx context.Context, actorName string, fromLevel, toLevel int) (bool, error) {
	return f(ctx, actorName, fromLevel, toLevel)
}

// AlwaysConfirm accepts every reversal without prompting.
var AlwaysConfirm = ConfirmFunc(func(context.Context, string, int, int) (bool, error) {
	return true, nil
})

// Step is one (advancement, level, direction) tuple in the wizard order.
type Step struct {
	Direction   Direction
	Item        *document.Item
	Advancement advancement.Advancement
	Level       int
	Flow        *Flow

	// applied is true once the step's effect ran (Apply/Restore for
	// forward, Reverse for reverse).
	applied bool
	// retained holds replay state captured when this step was undone.
	retained *advancement.Retained
}

// managerHost adapts the clone and the manager's collaborators to the
// advancement.Host contract.
type managerHost struct {
	clone    *document.Clone
	resolver advancement.Resolver
	roller   advancement.HitDieRoller
	lang     advancement.Localizer
	formulas advancement.Evaluator
}

func (h *managerHost) Resolve(uuid string) (*advancement.ItemData, bool) {
	return h.resolver.Resolve(uuid)
}

func (h *managerHost) CreateEmbedded(ctx context.Context, items []*advancement.ItemData, ids []string) ([]string, error) {
	return h.clone.CreateEmbedded(ctx, items, ids)
}

func (h *managerHost) DeleteEmbedded(ctx context.Context, ids []string) error {
	return h.clone.DeleteEmbedded(ctx, ids)
}

func (h *managerHost) GetEmbedded(id string) (*advancement.ItemData, bool) {
	return h.clone.GetEmbedded(id)
}

func (h *managerHost) AdjustHP(delta int) {
	h.clone.AdjustHP(delta)
}

func (h *managerHost) Dice() advancement.HitDieRoller   { return h.roller }
func (h *managerHost) Lang() advancement.Localizer      { return h.lang }
func (h *managerHost) Formulas() advancement.Evaluator  { return h.formulas }
