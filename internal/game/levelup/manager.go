package levelup

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/hearthvtt/levelforge/internal/game/advancement"
	"github.com/hearthvtt/levelforge/internal/game/document"
)

// Deps bundles the collaborators a Manager needs.
type Deps struct {
	Store     document.Store
	Resolver  advancement.Resolver
	Roller    advancement.HitDieRoller
	Localizer advancement.Localizer
	Evaluator advancement.Evaluator
	Confirmer Confirmer
	Logger    *zap.Logger
}

// validate checks that every collaborator is present.
func (d Deps) validate() error {
	var missing []string
	if d.Store == nil {
		missing = append(missing, "Store")
	}
	if d.Resolver == nil {
		missing = append(missing, "Resolver")
	}
	if d.Roller == nil {
		missing = append(missing, "Roller")
	}
	if d.Localizer == nil {
		missing = append(missing, "Localizer")
	}
	if d.Evaluator == nil {
		missing = append(missing, "Evaluator")
	}
	if d.Confirmer == nil {
		missing = append(missing, "Confirmer")
	}
	if d.Logger == nil {
		missing = append(missing, "Logger")
	}
	if len(missing) > 0 {
		return fmt.Errorf("levelup: missing dependencies: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Manager walks an actor through every advancement consequence of one
// class level change. Steps execute strictly sequentially; all effects are
// staged on a clone and reach the real actor only through Commit.
//
// A Manager is ephemeral and not safe for concurrent use.
type Manager struct {
	actor       *document.Actor
	clone       *document.Clone
	host        *managerHost
	deps        Deps
	classItemID string
	fromLevel   int
	toLevel     int

	steps     []*Step
	stepIndex int
	state     State

	// instances caches one bound Advancement per (item, advancement id)
	// so every step at every level mutates the same value storage.
	instances map[string]map[string]advancement.Advancement
}

// ForLevelChange builds a Manager for the given class item and signed
// level delta. For decreases the Confirmer runs before any reverse step is
// built; declining returns ErrConfirmationDeclined with the actor
// untouched.
//
// Precondition: actor must own an embedded item with id classItemID;
// delta must be non-zero and keep the class level within [0, MaxLevel].
// Postcondition: Returns a Manager in StateBuilt, or in StateCommitting
// when the change crosses no advancement steps, or an error.
func ForLevelChange(ctx context.Context, actor *document.Actor, classItemID string, delta int, deps Deps) (*Manager, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if delta == 0 {
		return nil, fmt.Errorf("levelup: level delta must be non-zero")
	}
	classItem := actor.Item(classItemID)
	if classItem == nil {
		return nil, fmt.Errorf("levelup: actor %q has no embedded item %q: %w",
			actor.ID, classItemID, document.ErrItemNotFound)
	}
	from := classItem.Level
	to := from + delta
	if to < 0 || to > advancement.MaxLevel {
		return nil, fmt.Errorf("levelup: target level %d out of range [0, %d]", to, advancement.MaxLevel)
	}

	if delta < 0 {
		ok, err := deps.Confirmer.ConfirmReverse(ctx, actor.Name, from, to)
		if err != nil {
			return nil, fmt.Errorf("levelup: reverse confirmation: %w", err)
		}
		if !ok {
			return nil, ErrConfirmationDeclined
		}
	}

	m := &Manager{
		actor:       actor,
		clone:       document.NewClone(actor),
		deps:        deps,
		classItemID: classItemID,
		fromLevel:   from,
		toLevel:     to,
		state:       StateBuilt,
		instances:   make(map[string]map[string]advancement.Advancement),
	}
	m.host = &managerHost{
		clone:    m.clone,
		resolver: deps.Resolver,
		roller:   deps.Roller,
		lang:     deps.Localizer,
		formulas: deps.Evaluator,
	}

	if err := m.clone.SetItemLevel(classItemID, to); err != nil {
		return nil, fmt.Errorf("levelup: staging class level change: %w", err)
	}
	if err := m.buildSteps(); err != nil {
		return nil, err
	}
	// A change crossing no advancements still carries the staged level
	// delta; with nothing to step through it is ready to commit.
	if len(m.steps) == 0 {
		m.state = StateCommitting
	}

	deps.Logger.Info("advancement manager built",
		zap.String("actor", actor.ID),
		zap.String("class_item", classItemID),
		zap.Int("from_level", from),
		zap.Int("to_level", to),
		zap.Int("steps", len(m.steps)),
	)
	return m, nil
}

// relevantItems returns the class item plus every embedded item granted by
// an advancement rooted at it, reading the clone's working copy.
func (m *Manager) relevantItems() []*document.Item {
	work := m.clone.Actor()
	classItem := work.Item(m.classItemID)
	items := []*document.Item{classItem}
	for _, item := range work.Items {
		if item.Origin != "" && strings.HasPrefix(item.Origin, m.classItemID+".") {
			items = append(items, item)
		}
	}
	return items
}

// advancementsFor returns the bound Advancement instances for item,
// building and caching them on first use.
func (m *Manager) advancementsFor(item *document.Item) ([]advancement.Advancement, error) {
	cache, ok := m.instances[item.ID]
	if !ok {
		cache = make(map[string]advancement.Advancement, len(item.Advancements))
		m.instances[item.ID] = cache
	}
	out := make([]advancement.Advancement, 0, len(item.Advancements))
	for _, data := range item.Advancements {
		adv, ok := cache[data.ID]
		if !ok {
			var err error
			adv, err = advancement.New(data, m.host)
			if err != nil {
				return nil, fmt.Errorf("levelup: item %q: %w", item.ID, err)
			}
			cache[data.ID] = adv
		}
		out = append(out, adv)
	}
	return out, nil
}

// buildSteps enumerates the (advancement, level, direction) tuples crossed
// by the level change: ascending levels for increases, descending for
// decreases, each level's steps ordered per sortSteps for the direction.
func (m *Manager) buildSteps() error {
	if m.toLevel > m.fromLevel {
		for lvl := m.fromLevel + 1; lvl <= m.toLevel; lvl++ {
			steps, err := m.stepsForLevel(lvl, Forward)
			if err != nil {
				return err
			}
			m.steps = append(m.steps, steps...)
		}
		return nil
	}
	for lvl := m.fromLevel; lvl > m.toLevel; lvl-- {
		steps, err := m.stepsForLevel(lvl, Reverse)
		if err != nil {
			return err
		}
		m.steps = append(m.steps, steps...)
	}
	return nil
}

// stepsForLevel collects the steps every relevant item contributes at lvl.
func (m *Manager) stepsForLevel(lvl int, dir Direction) ([]*Step, error) {
	var steps []*Step
	for _, item := range m.relevantItems() {
		advs, err := m.advancementsFor(item)
		if err != nil {
			return nil, err
		}
		for _, adv := range advs {
			if !m.advancementAppliesAt(adv, lvl, dir) {
				continue
			}
			step := &Step{Direction: dir, Item: item, Advancement: adv, Level: lvl}
			step.Flow = newFlow(step)
			steps = append(steps, step)
		}
	}
	sortSteps(steps, dir)
	return steps, nil
}

// advancementAppliesAt reports whether adv contributes a step for lvl in
// the given direction.
//
// Forward steps cover configured levels not yet applied. ScaleValue stores
// no per-level state, so its configured-at-or-below semantics never skip a
// forward step. Reverse steps cover only levels with applied state (again
// excepting ScaleValue, which reverses as a no-op at its configured levels).
func (m *Manager) advancementAppliesAt(adv advancement.Advancement, lvl int, dir Direction) bool {
	configured := false
	for _, l := range adv.Levels() {
		if l == lvl {
			configured = true
			break
		}
	}
	if !configured {
		return false
	}
	if adv.Type() == advancement.TypeScaleValue {
		return true
	}
	if dir == Forward {
		return !adv.ConfiguredForLevel(lvl)
	}
	return adv.ConfiguredForLevel(lvl)
}

// sortSteps orders steps of one level by advancement order, ties broken by
// advancement id. Reverse steps run in the mirror of the forward order, so
// an item granted and extended within one level is undone before the grant
// that created it.
func sortSteps(steps []*Step, dir Direction) {
	sort.SliceStable(steps, func(i, j int) bool {
		oi, oj := steps[i].Advancement.Order(), steps[j].Advancement.Order()
		if dir == Reverse {
			if oi != oj {
				return oi > oj
			}
			return steps[i].Advancement.ID() > steps[j].Advancement.ID()
		}
		if oi != oj {
			return oi < oj
		}
		return steps[i].Advancement.ID() < steps[j].Advancement.ID()
	})
}

// State returns the manager lifecycle phase.
func (m *Manager) State() State { return m.state }

// Steps returns the current step sequence.
func (m *Manager) Steps() []*Step { return m.steps }

// StepIndex returns the cursor into Steps.
//
// Invariant: 0 <= StepIndex() <= len(Steps()).
func (m *Manager) StepIndex() int { return m.stepIndex }

// Clone returns the staged working copy of the actor.
func (m *Manager) Clone() *document.Clone { return m.clone }

// CurrentStep returns the step awaiting completion, or nil when every step
// has run.
func (m *Manager) CurrentStep() *Step {
	if m.stepIndex >= len(m.steps) {
		return nil
	}
	return m.steps[m.stepIndex]
}

// Advance completes the current step with the given form data and moves
// the cursor forward. Past the last step the manager enters StateCommitting.
//
// Precondition: the manager is in StateBuilt or StateStepping.
// Postcondition: on error the cursor does not move and the step may be
// retried with corrected form data.
func (m *Manager) Advance(ctx context.Context, form advancement.FormData) error {
	if m.state != StateBuilt && m.state != StateStepping {
		return fmt.Errorf("levelup: cannot advance in state %q", m.state)
	}
	step := m.CurrentStep()
	if step == nil {
		return ErrNoCurrentStep
	}
	if err := step.Flow.Complete(ctx, form); err != nil {
		return err
	}
	if err := m.writeValue(step); err != nil {
		return err
	}
	if step.Direction == Forward {
		if err := m.adoptGrantedItems(step); err != nil {
			return err
		}
	}

	m.deps.Logger.Debug("advancement step completed",
		zap.String("actor", m.actor.ID),
		zap.String("advancement", step.Advancement.ID()),
		zap.Int("level", step.Level),
		zap.String("direction", string(step.Direction)),
	)

	m.stepIndex++
	if m.stepIndex >= len(m.steps) {
		m.state = StateCommitting
	} else {
		m.state = StateStepping
	}
	return nil
}

// Retreat re-enters the previous step, undoing its effect. The undone
// state is retained on the step so advancing again replays it without
// re-prompting.
//
// Precondition: at least one step has completed; not yet committed.
func (m *Manager) Retreat(ctx context.Context) error {
	if m.state != StateStepping && m.state != StateCommitting {
		return fmt.Errorf("levelup: cannot retreat in state %q", m.state)
	}
	if m.stepIndex == 0 {
		return ErrNoCurrentStep
	}
	step := m.steps[m.stepIndex-1]
	if err := step.Flow.undo(ctx); err != nil {
		return err
	}
	if err := m.writeValue(step); err != nil {
		return err
	}
	m.stepIndex--
	m.state = StateStepping
	return nil
}

// writeValue stages the step's advancement value storage onto the clone so
// the commit batch carries it to the real actor.
func (m *Manager) writeValue(step *Step) error {
	return m.clone.SetAdvancementValue(step.Item.ID, step.Advancement.ID(), step.Advancement.Data().Value)
}

// adoptGrantedItems marks items created by a grant step with their origin
// and inserts steps for any advancements the granted items bring to the
// remaining levels of this change.
func (m *Manager) adoptGrantedItems(step *Step) error {
	added := step.Advancement.Data().Value.Added[step.Level]
	if len(added) == 0 {
		return nil
	}
	origin := step.Item.ID + "." + step.Advancement.ID()
	work := m.clone.Actor()

	ids := make([]string, 0, len(added))
	for id := range added {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var inserted []*Step
	for _, id := range ids {
		item := work.Item(id)
		if item == nil || item.Origin != "" {
			continue
		}
		if err := m.clone.ItemOrigin(id, origin); err != nil {
			return err
		}
		if len(item.Advancements) == 0 {
			continue
		}
		advs, err := m.advancementsFor(item)
		if err != nil {
			return err
		}
		for lvl := step.Level; lvl <= m.toLevel; lvl++ {
			for _, adv := range advs {
				if !m.advancementAppliesAt(adv, lvl, Forward) {
					continue
				}
				s := &Step{Direction: Forward, Item: item, Advancement: adv, Level: lvl}
				s.Flow = newFlow(s)
				inserted = append(inserted, s)
			}
		}
	}
	if len(inserted) == 0 {
		return nil
	}

	// Merge into the unexecuted tail, keeping (level, order, id) order.
	tail := append(inserted, m.steps[m.stepIndex+1:]...)
	sort.SliceStable(tail, func(i, j int) bool {
		if tail[i].Level != tail[j].Level {
			return tail[i].Level < tail[j].Level
		}
		if tail[i].Advancement.Order() != tail[j].Advancement.Order() {
			return tail[i].Advancement.Order() < tail[j].Advancement.Order()
		}
		return tail[i].Advancement.ID() < tail[j].Advancement.ID()
	})
	m.steps = append(m.steps[:m.stepIndex+1], tail...)
	return nil
}

// Commit applies the staged batch to the real actor in one atomic update.
//
// Precondition: every step completed (StateCommitting).
// Postcondition: on success the manager is StateCommitted; on failure the
// real actor is unchanged and Commit may be retried or the manager
// cancelled.
func (m *Manager) Commit(ctx context.Context) error {
	if m.state != StateCommitting {
		return fmt.Errorf("levelup: cannot commit in state %q", m.state)
	}
	if err := m.clone.Commit(ctx, m.deps.Store); err != nil {
		return err
	}
	m.state = StateCommitted
	m.deps.Logger.Info("advancement committed",
		zap.String("actor", m.actor.ID),
		zap.Int("from_level", m.fromLevel),
		zap.Int("to_level", m.toLevel),
		zap.Int("steps", len(m.steps)),
	)
	return nil
}

// Cancel discards the clone without touching the real actor. Safe to call
// in any pre-commit state; cancelling twice is a no-op.
func (m *Manager) Cancel() {
	if m.state == StateCommitted || m.state == StateCancelled {
		return
	}
	m.clone.Discard()
	m.state = StateCancelled
	m.deps.Logger.Info("advancement cancelled",
		zap.String("actor", m.actor.ID),
		zap.Int("from_level", m.fromLevel),
		zap.Int("to_level", m.toLevel),
	)
}
