package document

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthvtt/levelforge/internal/game/advancement"
)

func TestNewClonePanicsOnNilActor(t *testing.T) {
	assert.Panics(t, func() { NewClone(nil) })
}

func TestCloneBaseIsNeverMutated(t *testing.T) {
	base := testActor()
	clone := NewClone(base)
	ctx := context.Background()

	clone.AdjustHP(5)
	_, err := clone.CreateEmbedded(ctx, []*advancement.ItemData{
		{UUID: "feature-riposte", Name: "Riposte", Type: "feature"},
	}, []string{""})
	require.NoError(t, err)
	require.NoError(t, clone.SetItemLevel("class-item", 4))

	assert.Equal(t, 12, base.HP.Max)
	assert.Len(t, base.Items, 2)
	assert.Equal(t, 3, base.Items[0].Level)

	assert.Equal(t, 17, clone.Actor().HP.Max)
	assert.Len(t, clone.Actor().Items, 3)
	assert.Equal(t, 4, clone.Actor().Item("class-item").Level)
}

func TestCloneCreateEmbeddedGeneratesAndHonorsIDs(t *testing.T) {
	clone := NewClone(testActor())
	ctx := context.Background()

	ids, err := clone.CreateEmbedded(ctx, []*advancement.ItemData{
		{UUID: "a", Name: "A", Type: "feature"},
		{UUID: "b", Name: "B", Type: "feature"},
	}, []string{"", "fixed-id"})
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.NotEmpty(t, ids[0])
	assert.Equal(t, "fixed-id", ids[1])
	assert.NotNil(t, clone.Actor().Item(ids[0]))
	assert.NotNil(t, clone.Actor().Item("fixed-id"))
}

func TestCloneCreateEmbeddedRejectsDuplicateID(t *testing.T) {
	clone := NewClone(testActor())
	_, err := clone.CreateEmbedded(context.Background(), []*advancement.ItemData{
		{UUID: "a", Name: "A", Type: "feature"},
	}, []string{"class-item"})
	assert.Error(t, err)
	assert.Empty(t, clone.Deltas(), "a rejected create stages nothing")
}

func TestCloneDeleteEmbedded(t *testing.T) {
	clone := NewClone(testActor())
	ctx := context.Background()

	require.NoError(t, clone.DeleteEmbedded(ctx, []string{"feat-item"}))
	assert.Nil(t, clone.Actor().Item("feat-item"))

	assert.Error(t, clone.DeleteEmbedded(ctx, []string{"feat-item"}))
}

func TestCloneGetEmbeddedReturnsCopy(t *testing.T) {
	clone := NewClone(testActor())
	payload, ok := clone.GetEmbedded("class-item")
	require.True(t, ok)
	payload.Name = "mutated"
	assert.Equal(t, "Vanguard", clone.Actor().Item("class-item").Name)

	_, ok = clone.GetEmbedded("missing")
	assert.False(t, ok)
}

func TestCloneItemOriginPatchesStagedDelta(t *testing.T) {
	clone := NewClone(testActor())
	ctx := context.Background()

	ids, err := clone.CreateEmbedded(ctx, []*advancement.ItemData{
		{UUID: "a", Name: "A", Type: "feature"},
	}, []string{""})
	require.NoError(t, err)

	require.NoError(t, clone.ItemOrigin(ids[0], "class-item.grant"))
	assert.Equal(t, "class-item.grant", clone.Actor().Item(ids[0]).Origin)

	var created *Item
	for _, d := range clone.Deltas() {
		if d.Op == OpCreateItems {
			created = d.Items[0]
		}
	}
	require.NotNil(t, created)
	assert.Equal(t, "class-item.grant", created.Origin, "origin must ride on the staged create")
}

func TestCloneItemOriginRejectsPreexistingItem(t *testing.T) {
	clone := NewClone(testActor())
	err := clone.ItemOrigin("feat-item", "elsewhere")
	assert.Error(t, err, "feat-item was not created in this session")
}

func TestCloneCommitAppliesBatchToStore(t *testing.T) {
	store := NewMemoryStore()
	base := testActor()
	store.Put(base)

	clone := NewClone(base)
	ctx := context.Background()
	clone.AdjustHP(6)
	ids, err := clone.CreateEmbedded(ctx, []*advancement.ItemData{
		{UUID: "feature-riposte", Name: "Riposte", Type: "feature"},
	}, []string{""})
	require.NoError(t, err)
	require.NoError(t, clone.SetItemLevel("class-item", 4))

	require.NoError(t, clone.Commit(ctx, store))

	stored, err := store.Get(ctx, "actor-1")
	require.NoError(t, err)
	assert.Equal(t, 18, stored.HP.Max)
	assert.NotNil(t, stored.Item(ids[0]))
	assert.Equal(t, 4, stored.Item("class-item").Level)
}

func TestCloneCommitTwiceFails(t *testing.T) {
	store := NewMemoryStore()
	base := testActor()
	store.Put(base)

	clone := NewClone(base)
	ctx := context.Background()
	clone.AdjustHP(1)

	require.NoError(t, clone.Commit(ctx, store))
	assert.Error(t, clone.Commit(ctx, store))

	stored, err := store.Get(ctx, "actor-1")
	require.NoError(t, err)
	assert.Equal(t, 13, stored.HP.Max, "the batch must not apply twice")
}

func TestCloneSetAdvancementValueDoesNotAliasLiveValue(t *testing.T) {
	clone := NewClone(testActor())
	live := advancement.Value{Rolls: []advancement.HitPointsRoll{{Level: 4, Roll: 8}}}
	require.NoError(t, clone.SetAdvancementValue("class-item", "hp", live))

	// Mutating the live value after staging must not change the delta.
	live.Rolls[0].Roll = 1
	deltas := clone.Deltas()
	require.Len(t, deltas, 1)
	assert.Equal(t, 8, deltas[0].Value.Rolls[0].Roll)
}
