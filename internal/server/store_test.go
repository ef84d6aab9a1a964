package server

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokemontodo/pkg/domain"
)

var storeStart = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

func TestLevelUpCarriesOverflowAndEvolves(t *testing.T) {
	cases := []struct {
		name                 string
		level, stage         int
		exp, add             float64
		wantLevel, wantStage int
		wantExp              float64
	}{
		{"below ceiling", 1, 1, 40, 50, 1, 1, 90},
		{"exact level", 1, 1, 95, 5, 2, 1, 0},
		{"multi level keeps remainder", 3, 1, 50, 260, 6, 1, 10},
		{"passes 16 mid loop", 15, 1, 90, 120, 17, 2, 10},
		{"stage 3 at 36", 35, 2, 0, 100, 36, 3, 0},
		{"no skip to 3 from 1", 35, 1, 0, 100, 36, 1, 0},
		{"one award crosses 16 and 36", 15, 1, 0, 2500, 40, 3, 0},
		{"large award in one step", 1, 1, 0, 1e18, maxLevel, 3, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := domain.Pokemon{Level: tc.level, EvolutionStage: tc.stage, Experience: tc.exp}
			got := levelUp(p, tc.add)
			assert.Equal(t, tc.wantLevel, got.Level)
			assert.Equal(t, tc.wantStage, got.EvolutionStage)
			assert.InDelta(t, tc.wantExp, got.Experience, 1e-9)
		})
	}
}

func TestStoreAddExperienceRejectsBadAmounts(t *testing.T) {
	s := NewStore(func() time.Time { return storeStart })
	p := s.CreatePokemon("Eevee", domain.TypeNormal)
	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), -1} {
		_, err := s.AddExperience(p.ID, bad)
		var issues FieldIssues
		require.ErrorAs(t, err, &issues, "amount %v", bad)
		assert.Contains(t, issues, "experience")
	}
	got, err := s.GetPokemon(p.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Experience)
}

func TestStoreCascadeDelete(t *testing.T) {
	s := NewStore(func() time.Time { return storeStart })
	ash := s.CreatePokemon("Pikachu", domain.TypeElectric)
	misty := s.CreatePokemon("Staryu", domain.TypeWater)
	_, err := s.CreateMove(domain.NewMove{PokemonID: ash.ID, Name: "Thunder", Power: 90})
	require.NoError(t, err)
	kept, err := s.CreateMove(domain.NewMove{PokemonID: misty.ID, Name: "Swim", Power: 40})
	require.NoError(t, err)

	require.NoError(t, s.DeletePokemon(ash.ID))
	_, err = s.ListMoves(ash.ID, AllMoves)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Pokemon with id "+ash.ID+" not found", nf.Error())

	left, err := s.ListMoves(misty.ID, AllMoves)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, kept.ID, left[0].ID)
	assert.Len(t, s.ListPokemon(), 1)
}

func TestStoreCompleteIsIdempotent(t *testing.T) {
	now := storeStart
	s := NewStore(func() time.Time { return now })
	p := s.CreatePokemon("Eevee", domain.TypeNormal)
	m, err := s.CreateMove(domain.NewMove{PokemonID: p.ID, Name: "Read", Power: 30})
	require.NoError(t, err)

	first, err := s.CompleteMove(m.ID)
	require.NoError(t, err)
	require.NotNil(t, first.CompletedAt)

	now = now.Add(time.Hour)
	second, err := s.CompleteMove(m.ID)
	require.NoError(t, err)
	assert.Equal(t, *first.CompletedAt, *second.CompletedAt)

	pending, err := s.ListMoves(p.ID, PendingMoves)
	require.NoError(t, err)
	assert.Empty(t, pending)
	done, err := s.ListMoves(p.ID, CompletedMoves)
	require.NoError(t, err)
	assert.Len(t, done, 1)
}

func TestStoreUpdateMoveCompletionTimestamps(t *testing.T) {
	s := NewStore(func() time.Time { return storeStart })
	p := s.CreatePokemon("Eevee", domain.TypeNormal)
	m, err := s.CreateMove(domain.NewMove{PokemonID: p.ID, Name: "Read", Power: 30})
	require.NoError(t, err)

	yes, no := true, false
	done, err := s.UpdateMove(m.ID, domain.MovePatch{IsCompleted: &yes})
	require.NoError(t, err)
	require.NotNil(t, done.CompletedAt)

	undone, err := s.UpdateMove(m.ID, domain.MovePatch{IsCompleted: &no})
	require.NoError(t, err)
	assert.Nil(t, undone.CompletedAt)

	_, err = s.UpdateMove("missing", domain.MovePatch{})
	assert.EqualError(t, err, "Move with id missing not found")
}

func TestStoreReturnsCopies(t *testing.T) {
	s := NewStore(nil)
	p := s.CreatePokemon("Eevee", domain.TypeNormal)
	desc := "chapter one"
	m, err := s.CreateMove(domain.NewMove{PokemonID: p.ID, Name: "Read", Description: &desc, Power: 30})
	require.NoError(t, err)
	*m.Description = "mutated"
	desc = "mutated too"

	got, err := s.GetMove(m.ID)
	require.NoError(t, err)
	assert.Equal(t, "chapter one", *got.Description)
}
