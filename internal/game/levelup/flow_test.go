package levelup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthvtt/levelforge/internal/game/advancement"
	"github.com/hearthvtt/levelforge/internal/game/document"
	"github.com/hearthvtt/levelforge/internal/game/lang"
)

func TestFlowOptionsOnlyForChoiceSteps(t *testing.T) {
	store := document.NewMemoryStore()
	actor := testActor()
	store.Put(actor)

	mgr, err := ForLevelChange(context.Background(), actor, "class-vanguard-1", 3, testDeps(t, store))
	require.NoError(t, err)

	byID := map[string]*Step{}
	for _, step := range mgr.Steps() {
		byID[step.Advancement.ID()] = step
	}

	assert.Nil(t, byID["hp"].Flow.Options(), "hit-point steps carry no selection")
	assert.Nil(t, byID["core"].Flow.Options(), "non-optional grants carry no selection")
	assert.Nil(t, byID["fury"].Flow.Options(), "scale steps carry no selection")

	opts := byID["talents"].Flow.Options()
	require.Len(t, opts, 2)
	assert.Equal(t, Option{UUID: "feat-riposte", Name: "Riposte"}, opts[0])
	assert.Equal(t, Option{UUID: "feat-bulwark", Name: "Bulwark"}, opts[1])
}

func TestFlowTitleAndSummary(t *testing.T) {
	ctx := context.Background()
	store := document.NewMemoryStore()
	actor := testActor()
	store.Put(actor)

	deps := testDeps(t, store, 5)
	deps.Localizer = lang.New(map[string]string{
		"advancement.hitPoints.title":          "Hit Points",
		"advancement.hitPoints.summary.rolled": "Rolled {points} ({die})",
	})

	mgr, err := ForLevelChange(ctx, actor, "class-vanguard-1", 1, deps)
	require.NoError(t, err)

	step := mgr.CurrentStep()
	require.Equal(t, "hp", step.Advancement.ID())
	assert.Equal(t, "Hit Points", step.Flow.Title())
	assert.Equal(t, "", step.Flow.Summary(), "summary is empty before the step completes")
	assert.False(t, step.Flow.Retained())

	require.NoError(t, mgr.Advance(ctx, nil))
	assert.Equal(t, "Hit Points: +6", step.Flow.Title(), "title gains the rolled amount")
	assert.Equal(t, "Rolled 6 (d10)", step.Flow.Summary())
}

func TestFlowCompleteErrorLeavesStepIncomplete(t *testing.T) {
	ctx := context.Background()
	store := document.NewMemoryStore()
	actor := testActor()
	store.Put(actor)

	mgr, err := ForLevelChange(ctx, actor, "class-vanguard-1", 3, testDeps(t, store, 5, 7))
	require.NoError(t, err)

	for mgr.CurrentStep().Advancement.ID() != "talents" {
		require.NoError(t, mgr.Advance(ctx, nil))
	}
	step := mgr.CurrentStep()

	err = step.Flow.Complete(ctx, advancement.FormData{
		advancement.FormKeySelected: {"feat-shield-wall"},
	})
	require.ErrorContains(t, err, "not in the candidate pool")

	err = step.Flow.undo(ctx)
	assert.ErrorContains(t, err, "has not completed", "a failed step must not be undoable")
}
