package advancement

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func newHitPoints(t *testing.T, host Host, denomination int) *HitPoints {
	t.Helper()
	adv, err := New(&Data{
		ID:        "hp",
		Type:      TypeHitPoints,
		HitPoints: &HitPointsConfig{Denomination: denomination},
	}, host)
	require.NoError(t, err)
	return adv.(*HitPoints)
}

func TestHitPointsApplyRolls(t *testing.T) {
	host := newTestHost()
	host.dieRolls = []int{7}
	hp := newHitPoints(t, host, 10)
	ctx := context.Background()

	require.False(t, hp.ConfiguredForLevel(2))
	require.NoError(t, hp.Apply(ctx, 2, nil))

	assert.True(t, hp.ConfiguredForLevel(2))
	assert.Equal(t, 7, host.hp)
	require.Len(t, hp.Data().Value.Rolls, 1)
	assert.Equal(t, HitPointsRoll{Level: 2, Roll: 7}, hp.Data().Value.Rolls[0])
}

func TestHitPointsApplyAverage(t *testing.T) {
	host := newTestHost()
	hp := newHitPoints(t, host, 10)
	ctx := context.Background()

	form := FormData{FormKeyAverage: {"true"}}
	require.NoError(t, hp.Apply(ctx, 3, form))

	require.Len(t, hp.Data().Value.Rolls, 1)
	roll := hp.Data().Value.Rolls[0]
	assert.Equal(t, 6, roll.Roll, "d10 average is 10/2 + 1")
	assert.True(t, roll.Average)
	assert.Equal(t, 6, host.hp)
}

func TestHitPointsApplyTwiceSameLevelFails(t *testing.T) {
	host := newTestHost()
	host.dieRolls = []int{4}
	hp := newHitPoints(t, host, 8)
	ctx := context.Background()

	require.NoError(t, hp.Apply(ctx, 1, nil))
	assert.Error(t, hp.Apply(ctx, 1, nil))
	assert.Len(t, hp.Data().Value.Rolls, 1, "failed apply must not mutate value storage")
}

func TestHitPointsReverseRemovesLastRollForLevel(t *testing.T) {
	host := newTestHost()
	host.dieRolls = []int{3, 5, 8}
	hp := newHitPoints(t, host, 10)
	ctx := context.Background()

	require.NoError(t, hp.Apply(ctx, 1, nil))
	require.NoError(t, hp.Apply(ctx, 2, nil))
	require.NoError(t, hp.Apply(ctx, 3, nil))
	require.Equal(t, 16, host.hp)

	retained, err := hp.Reverse(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, retained.Roll)
	assert.Equal(t, 5, retained.Roll.Roll)
	assert.False(t, hp.ConfiguredForLevel(2))
	assert.Equal(t, 11, host.hp)

	levels := make([]int, 0, len(hp.Data().Value.Rolls))
	for _, r := range hp.Data().Value.Rolls {
		levels = append(levels, r.Level)
	}
	assert.Equal(t, []int{1, 3}, levels)
}

func TestHitPointsReverseUnappliedLevelFails(t *testing.T) {
	host := newTestHost()
	hp := newHitPoints(t, host, 10)
	_, err := hp.Reverse(context.Background(), 4)
	assert.Error(t, err)
}

func TestHitPointsRestoreReplaysWithoutRerolling(t *testing.T) {
	host := newTestHost()
	host.dieRolls = []int{9}
	hp := newHitPoints(t, host, 10)
	ctx := context.Background()

	require.NoError(t, hp.Apply(ctx, 5, nil))
	retained, err := hp.Reverse(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, 0, host.hp)

	// A different scripted roll proves Restore does not consult the dice.
	host.dieRolls = []int{1}
	require.NoError(t, hp.Restore(ctx, 5, retained))
	assert.Equal(t, 9, host.hp)
	require.Len(t, hp.Data().Value.Rolls, 1)
	assert.Equal(t, 9, hp.Data().Value.Rolls[0].Roll)
}

func TestHitPointsRestorePreservesAverageFlag(t *testing.T) {
	host := newTestHost()
	hp := newHitPoints(t, host, 6)
	ctx := context.Background()

	require.NoError(t, hp.Apply(ctx, 1, FormData{FormKeyAverage: {"true"}}))
	retained, err := hp.Reverse(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, hp.Restore(ctx, 1, retained))
	require.Len(t, hp.Data().Value.Rolls, 1)
	assert.True(t, hp.Data().Value.Rolls[0].Average)
}

func TestHitPointsRestoreRequiresRetainedData(t *testing.T) {
	host := newTestHost()
	hp := newHitPoints(t, host, 10)
	ctx := context.Background()
	assert.Error(t, hp.Restore(ctx, 1, nil))
	assert.Error(t, hp.Restore(ctx, 1, &Retained{}))
}

func TestHitPointsSummary(t *testing.T) {
	host := newTestHost()
	host.dieRolls = []int{7}
	hp := newHitPoints(t, host, 10)
	ctx := context.Background()

	assert.Equal(t, "", hp.SummaryForLevel(1, false), "no summary before apply")
	assert.Equal(t, "", hp.SummaryForLevel(1, true), "no summary in config mode")

	require.NoError(t, hp.Apply(ctx, 1, nil))
	summary := hp.SummaryForLevel(1, false)
	assert.Contains(t, summary, "advancement.hitPoints.summary.rolled")
	assert.Contains(t, summary, "points=7")
	assert.Contains(t, summary, "die=d10")

	require.NoError(t, hp.Apply(ctx, 2, FormData{FormKeyAverage: {"true"}}))
	assert.Contains(t, hp.SummaryForLevel(2, false), "advancement.hitPoints.summary.average")
}

func TestHitPointsLevels(t *testing.T) {
	hp := newHitPoints(t, newTestHost(), 10)
	levels := hp.Levels()
	require.Len(t, levels, MaxLevel)
	assert.Equal(t, 1, levels[0])
	assert.Equal(t, MaxLevel, levels[len(levels)-1])
}

func TestHitPointsApplyReverseRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		host := newTestHost()
		host.dieRolls = rapid.SliceOfN(rapid.IntRange(1, 10), 1, 20).Draw(t, "rolls")
		adv, err := New(&Data{
			ID:        "hp",
			Type:      TypeHitPoints,
			HitPoints: &HitPointsConfig{Denomination: 10},
		}, host)
		if err != nil {
			t.Fatalf("building advancement: %v", err)
		}
		hp := adv.(*HitPoints)
		ctx := context.Background()

		levels := rapid.SliceOfNDistinct(rapid.IntRange(1, MaxLevel), 1, 10,
			func(v int) int { return v }).Draw(t, "levels")

		for _, lvl := range levels {
			if err := hp.Apply(ctx, lvl, nil); err != nil {
				t.Fatalf("apply level %d: %v", lvl, err)
			}
		}
		applied := host.hp

		// Reverse every level in arbitrary order and the HP total returns
		// to zero with an empty roll history.
		for _, lvl := range levels {
			if _, err := hp.Reverse(ctx, lvl); err != nil {
				t.Fatalf("reverse level %d: %v", lvl, err)
			}
		}
		if host.hp != 0 {
			t.Fatalf("hp after full reverse = %d (was %d applied)", host.hp, applied)
		}
		if len(hp.Data().Value.Rolls) != 0 {
			t.Fatalf("roll history not empty after full reverse")
		}
	})
}
