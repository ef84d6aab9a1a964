package core

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokemontodo/internal/infra/persistence/memory"
	"pokemontodo/pkg/domain"
)

func TestMoveStateRoundTrip(t *testing.T) {
	desc := "ten minutes"
	done := fixedStart.Add(time.Hour)
	st := MoveState{
		ByPokemon: map[string][]domain.Move{
			"pk-2": {{Base: domain.Base{ID: "mv-2", CreatedAt: fixedStart, UpdatedAt: fixedStart}, PokemonID: "pk-2", Name: "Swim", Power: 30}},
			"pk-1": {{Base: domain.Base{ID: "mv-1", CreatedAt: fixedStart, UpdatedAt: done}, PokemonID: "pk-1", Name: "Stretch", Description: &desc, Power: 20, IsCompleted: true, CompletedAt: &done}},
			"pk-3": {},
		},
		FetchedAt: map[string]time.Time{"pk-1": fixedStart},
	}

	raw, err := EncodeMoveState(st)
	require.NoError(t, err)

	var shape struct {
		State struct {
			MovesByPokemon []json.RawMessage `json:"movesByPokemon"`
		} `json:"state"`
		Version int `json:"version"`
	}
	require.NoError(t, json.Unmarshal(raw, &shape))
	assert.Equal(t, 1, shape.Version)
	require.Len(t, shape.State.MovesByPokemon, 3)
	var first []json.RawMessage
	require.NoError(t, json.Unmarshal(shape.State.MovesByPokemon[0], &first))
	require.Len(t, first, 2)
	assert.JSONEq(t, `"pk-1"`, string(first[0]))

	back, err := DecodeMoveState(raw)
	require.NoError(t, err)
	assert.Equal(t, st.ByPokemon["pk-1"][0].Name, back.ByPokemon["pk-1"][0].Name)
	assert.True(t, back.ByPokemon["pk-1"][0].CompletedAt.Equal(done))
	assert.Equal(t, desc, *back.ByPokemon["pk-1"][0].Description)
	assert.Empty(t, back.ByPokemon["pk-3"])
	assert.Contains(t, back.ByPokemon, "pk-3")
	assert.True(t, back.FetchedAt["pk-1"].Equal(fixedStart))
}

func TestDecodeMoveStateRejectsOtherVersions(t *testing.T) {
	_, err := DecodeMoveState([]byte(`{"state":{"movesByPokemon":[],"lastFetch":[]},"version":2}`))
	require.ErrorIs(t, err, errStaleState)
	_, err = DecodeMoveState([]byte(`{"state":{"movesByPokemon":[["pk-1"]]},"version":1}`))
	require.Error(t, err)
}

func TestPersisterSaveLoad(t *testing.T) {
	ctx := context.Background()
	storage := memory.NewStore()
	backend := newFakeBackend()
	p := backend.seedPokemon(domain.Pokemon{Name: "Snorlax", Type: domain.TypeNormal})
	backend.seedMove(domain.Move{PokemonID: p.ID, Name: "Nap", Power: 10})

	pokemon := NewPokemonStore(backend, nil, 0)
	moves := NewMoveStore(backend.movesAPI(), nil, nil, 0)
	require.NoError(t, pokemon.FetchAll(ctx, false))
	require.NoError(t, moves.FetchByPokemon(ctx, p.ID, false))
	pokemon.Select(&p)
	require.NoError(t, NewPersister(storage, pokemon, moves, nil).Save(ctx))

	pokemon2 := NewPokemonStore(backend, nil, 0)
	moves2 := NewMoveStore(backend.movesAPI(), nil, nil, 0)
	persister := NewPersister(storage, pokemon2, moves2, nil)
	require.NoError(t, persister.Load(ctx))
	assert.Equal(t, pokemon.List(), pokemon2.List())
	require.NotNil(t, pokemon2.Selected())
	assert.Equal(t, p.ID, pokemon2.Selected().ID)
	assert.Equal(t, moves.Moves(p.ID), moves2.Moves(p.ID))

	require.NoError(t, persister.Reset(ctx))
	_, ok, _ := storage.GetItem(ctx, domain.StoragePokemon)
	assert.False(t, ok)
}

func TestPersisterSkipsCorruptPayloads(t *testing.T) {
	ctx := context.Background()
	storage := memory.NewStore()
	require.NoError(t, storage.SetItem(ctx, domain.StoragePokemon, []byte(`{not json`)))
	require.NoError(t, storage.SetItem(ctx, domain.StorageMoves, []byte(`{"state":{},"version":0}`)))

	pokemon := NewPokemonStore(newFakeBackend(), nil, 0)
	moves := NewMoveStore(newFakeBackend().movesAPI(), nil, nil, 0)
	require.NoError(t, NewPersister(storage, pokemon, moves, nil).Load(ctx))
	assert.Empty(t, pokemon.List())
	assert.Empty(t, moves.Snapshot().ByPokemon)
}
