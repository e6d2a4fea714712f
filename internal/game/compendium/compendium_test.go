package compendium

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthvtt/levelforge/internal/game/advancement"
)

func validClass() *advancement.ItemData {
	return &advancement.ItemData{
		UUID:   "class-vanguard",
		Name:   "Vanguard",
		Type:   TypeClass,
		HitDie: 10,
		Advancements: []*advancement.Data{{
			ID:        "hp",
			Type:      advancement.TypeHitPoints,
			HitPoints: &advancement.HitPointsConfig{Denomination: 10},
		}},
	}
}

func TestValidateEntry(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*advancement.ItemData)
		wantErr string
	}{
		{
			name:   "valid class",
			mutate: func(*advancement.ItemData) {},
		},
		{
			name: "valid power with level",
			mutate: func(e *advancement.ItemData) {
				e.Type = TypePower
				e.Level = 2
				e.HitDie = 0
				e.Advancements = nil
			},
		},
		{
			name:    "missing uuid",
			mutate:  func(e *advancement.ItemData) { e.UUID = "" },
			wantErr: "uuid must not be empty",
		},
		{
			name:    "missing name",
			mutate:  func(e *advancement.ItemData) { e.Name = "" },
			wantErr: "name must not be empty",
		},
		{
			name:    "unknown type",
			mutate:  func(e *advancement.ItemData) { e.Type = "artifact" },
			wantErr: "type must be one of",
		},
		{
			name:    "class without hit die",
			mutate:  func(e *advancement.ItemData) { e.HitDie = 0 },
			wantErr: "class hit die must be >= 2",
		},
		{
			name: "negative power level",
			mutate: func(e *advancement.ItemData) {
				e.Type = TypePower
				e.HitDie = 0
				e.Level = -1
				e.Advancements = nil
			},
			wantErr: "power level must be >= 0",
		},
		{
			name: "invalid carried advancement",
			mutate: func(e *advancement.ItemData) {
				e.Advancements[0].HitPoints.Denomination = 1
			},
			wantErr: "denomination",
		},
		{
			name: "duplicate advancement ids",
			mutate: func(e *advancement.ItemData) {
				e.Advancements = append(e.Advancements, &advancement.Data{
					ID:        "hp",
					Type:      advancement.TypeHitPoints,
					HitPoints: &advancement.HitPointsConfig{Denomination: 6},
				})
			},
			wantErr: `duplicate advancement id "hp"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := validClass()
			tt.mutate(entry)
			err := ValidateEntry(entry)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestRegistryRegisterAndResolve(t *testing.T) {
	r := NewRegistry()
	require.Equal(t, 0, r.Len())

	entry := validClass()
	require.NoError(t, r.Register(entry))
	require.Equal(t, 1, r.Len())

	got, ok := r.Resolve("class-vanguard")
	require.True(t, ok)
	assert.Equal(t, entry, got)

	// Resolve hands out copies; mutating one must not leak back.
	got.Advancements[0].HitPoints.Denomination = 4
	again, ok := r.Resolve("class-vanguard")
	require.True(t, ok)
	assert.Equal(t, 10, again.Advancements[0].HitPoints.Denomination,
		"registry entries must be isolated from resolved copies")

	_, ok = r.Resolve("no-such-uuid")
	assert.False(t, ok)
}

func TestRegistryRejectsDuplicateUUID(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(validClass()))
	err := r.Register(validClass())
	assert.ErrorContains(t, err, `UUID "class-vanguard" already registered`)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryAll(t *testing.T) {
	r := NewRegistry()
	first := validClass()
	second := &advancement.ItemData{UUID: "feat-riposte", Name: "Riposte", Type: TypeFeature}
	require.NoError(t, r.Register(first))
	require.NoError(t, r.Register(second))

	all := r.All()
	assert.ElementsMatch(t, []*advancement.ItemData{first, second}, all)
}

func TestRegistryRegisterPreconditions(t *testing.T) {
	r := NewRegistry()
	assert.PanicsWithValue(t,
		"compendium: Registry.Register precondition violated: entry must be non-nil",
		func() { _ = r.Register(nil) })
	assert.PanicsWithValue(t,
		"compendium: Registry.Register precondition violated: entry UUID must be non-empty",
		func() { _ = r.Register(&advancement.ItemData{Name: "Nameless"}) })
}
