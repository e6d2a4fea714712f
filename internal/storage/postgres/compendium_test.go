package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthvtt/levelforge/internal/game/advancement"
	"github.com/hearthvtt/levelforge/internal/storage/postgres"
	"github.com/hearthvtt/levelforge/internal/testutil"
)

func setupCompendiumRepo(t *testing.T) *postgres.CompendiumRepository {
	t.Helper()
	pc := testutil.NewPostgresContainer(t)
	pc.ApplyMigrations(t)
	return postgres.NewCompendiumRepository(pc.RawPool)
}

func classEntry() *advancement.ItemData {
	return &advancement.ItemData{
		UUID:   "class-vanguard",
		Name:   "Vanguard",
		Type:   "class",
		HitDie: 10,
		Advancements: []*advancement.Data{{
			ID:        "hp",
			Type:      advancement.TypeHitPoints,
			HitPoints: &advancement.HitPointsConfig{Denomination: 10},
		}},
	}
}

func featureEntry(uuid, name string) *advancement.ItemData {
	return &advancement.ItemData{UUID: uuid, Name: name, Type: "feature", Subtype: "classFeature"}
}

func TestCompendiumRepository_UpsertAndGet(t *testing.T) {
	repo := setupCompendiumRepo(t)
	ctx := context.Background()

	entry := classEntry()
	require.NoError(t, repo.Upsert(ctx, entry))

	got, err := repo.GetByUUID(ctx, "class-vanguard")
	require.NoError(t, err)
	assert.Equal(t, entry, got, "the payload must survive the JSONB round trip")
}

func TestCompendiumRepository_UpsertReplaces(t *testing.T) {
	repo := setupCompendiumRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, classEntry()))

	updated := classEntry()
	updated.Name = "Vanguard (revised)"
	updated.HitDie = 12
	require.NoError(t, repo.Upsert(ctx, updated))

	got, err := repo.GetByUUID(ctx, "class-vanguard")
	require.NoError(t, err)
	assert.Equal(t, "Vanguard (revised)", got.Name)
	assert.Equal(t, 12, got.HitDie)

	all, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1, "upserting the same UUID must not create a second row")
}

func TestCompendiumRepository_UpsertRejectsInvalid(t *testing.T) {
	repo := setupCompendiumRepo(t)

	bad := classEntry()
	bad.HitDie = 0
	err := repo.Upsert(context.Background(), bad)
	assert.ErrorContains(t, err, "class hit die must be >= 2")
}

func TestCompendiumRepository_GetUnknown(t *testing.T) {
	repo := setupCompendiumRepo(t)
	_, err := repo.GetByUUID(context.Background(), "no-such-uuid")
	assert.ErrorIs(t, err, postgres.ErrEntryNotFound)
}

func TestCompendiumRepository_ListByType(t *testing.T) {
	repo := setupCompendiumRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, classEntry()))
	require.NoError(t, repo.Upsert(ctx, featureEntry("feat-riposte", "Riposte")))
	require.NoError(t, repo.Upsert(ctx, featureEntry("feat-bulwark", "Bulwark")))

	features, err := repo.ListByType(ctx, "feature")
	require.NoError(t, err)
	require.Len(t, features, 2)
	assert.Equal(t, "Bulwark", features[0].Name, "listings are ordered by name")
	assert.Equal(t, "Riposte", features[1].Name)

	powers, err := repo.ListByType(ctx, "power")
	require.NoError(t, err)
	assert.Empty(t, powers)
}

func TestCompendiumRepository_LoadRegistry(t *testing.T) {
	repo := setupCompendiumRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, classEntry()))
	require.NoError(t, repo.Upsert(ctx, featureEntry("feat-riposte", "Riposte")))

	registry, err := repo.LoadRegistry(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, registry.Len())

	entry, ok := registry.Resolve("class-vanguard")
	require.True(t, ok)
	assert.Equal(t, "Vanguard", entry.Name)
	require.Len(t, entry.Advancements, 1)
	assert.Equal(t, advancement.TypeHitPoints, entry.Advancements[0].Type)
}
