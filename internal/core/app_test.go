package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokemontodo/internal/api"
	"pokemontodo/internal/infra/persistence/memory"
	"pokemontodo/pkg/domain"
)

func newTestApp(t *testing.T, backend *fakeBackend, ai PowerAdvisor) (*App, *FakeClock) {
	t.Helper()
	clock := NewFakeClock(fixedStart)
	backends := Backends{Pokemon: backend, Moves: backend.movesAPI(), AI: ai}
	return NewApp(backends, memory.NewStore(), AppConfig{}, nil, WithClock(clock)), clock
}

func TestPikachuCompletesStretch(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	app, clock := newTestApp(t, backend, nil)

	pikachu, err := app.Pokemon.Create(ctx, "Pikachu", domain.TypeElectric)
	require.NoError(t, err)
	assert.Equal(t, 1, pikachu.Level)

	desc := "Morning stretch"
	stretch, err := app.Moves.Create(ctx, domain.NewMove{PokemonID: pikachu.ID, Name: "Stretch", Description: &desc, Power: 20})
	require.NoError(t, err)
	assert.False(t, stretch.IsCompleted)

	clock.Advance(time.Minute)
	done, err := app.Moves.Complete(ctx, stretch.ID)
	require.NoError(t, err)
	assert.True(t, done.IsCompleted)
	require.NotNil(t, done.CompletedAt)

	got, ok := app.Pokemon.Get(pikachu.ID)
	require.True(t, ok)
	assert.Equal(t, 5.0, got.Experience)
	assert.Equal(t, 1, got.Level)

	local, ok := app.Moves.Get(stretch.ID)
	require.True(t, ok)
	assert.True(t, local.IsCompleted)

	var kinds []ToastKind
	for _, toast := range app.UI.Toasts() {
		kinds = append(kinds, toast.Kind)
	}
	assert.NotContains(t, kinds, ToastError)
}

func TestDeletingPokemonDropsItsMoves(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	app, _ := newTestApp(t, backend, nil)
	p, err := app.Pokemon.Create(ctx, "Geodude", domain.TypeRock)
	require.NoError(t, err)
	m, err := app.Moves.Create(ctx, domain.NewMove{PokemonID: p.ID, Name: "Roll", Power: 30})
	require.NoError(t, err)

	require.NoError(t, app.Pokemon.Delete(ctx, p.ID))
	assert.Empty(t, app.Moves.Moves(p.ID))
	_, ok := app.Moves.OwnerOf(m.ID)
	assert.False(t, ok)
}

func TestFailedActionRaisesErrorToast(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	app, clock := newTestApp(t, backend, nil)
	backend.failOn("pokemon.list", &api.TransportError{Method: "GET", URL: "http://x/pokemon"})

	require.Error(t, app.Pokemon.FetchAll(ctx, false))
	require.NotNil(t, app.UI.Banner())
	assert.Equal(t, "Network error. Please check your connection.", app.UI.Banner().Message)

	backend.failOn("pokemon.create", errServerDown)
	_, err := app.Pokemon.Create(ctx, "Zubat", domain.TypePoison)
	require.Error(t, err)
	toasts := app.UI.Toasts()
	require.NotEmpty(t, toasts)
	assert.Equal(t, ToastError, toasts[len(toasts)-1].Kind)

	clock.Advance(ToastError.DefaultDuration())
	assert.Empty(t, app.UI.Toasts())
}

func TestSuggestPowerFallsBack(t *testing.T) {
	ctx := context.Background()
	req := api.PowerRequest{MoveName: "Write report", DifficultyLevel: api.DifficultyHard}

	app, _ := newTestApp(t, newFakeBackend(), nil)
	s, ok := app.SuggestPower(ctx, req)
	assert.False(t, ok)
	assert.Equal(t, domain.DefaultMovePower, s.Power)

	advisor := &fakeAdvisor{suggestion: api.PowerSuggestion{Power: 80, Reasoning: "long task", AIGenerated: true}}
	app, _ = newTestApp(t, newFakeBackend(), advisor)
	s, ok = app.SuggestPower(ctx, req)
	assert.True(t, ok)
	assert.Equal(t, 80, s.Power)

	advisor.err = &api.Error{Message: "AI unavailable", StatusCode: 503}
	s, ok = app.SuggestPower(ctx, req)
	assert.False(t, ok)
	assert.Equal(t, domain.DefaultMovePower, s.Power)
	assert.Equal(t, ToastWarning, app.UI.Toasts()[0].Kind)

	advisor.err = nil
	advisor.suggestion.Power = 500
	_, ok = app.SuggestPower(ctx, req)
	assert.False(t, ok, "out of range suggestions are rejected")
	assert.Equal(t, 3, advisor.calls)
}

func TestAppSaveLoadAndReset(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	storage := memory.NewStore()
	backends := Backends{Pokemon: backend, Moves: backend.movesAPI()}

	first := NewApp(backends, storage, AppConfig{}, nil)
	p, err := first.Pokemon.Create(ctx, "Lapras", domain.TypeWater)
	require.NoError(t, err)
	_, err = first.Moves.Create(ctx, domain.NewMove{PokemonID: p.ID, Name: "Surf", Power: 60})
	require.NoError(t, err)
	require.NoError(t, first.UI.SetDarkMode(ctx, true))
	require.NoError(t, first.Save(ctx))

	second := NewApp(backends, storage, AppConfig{SystemPrefersDark: false}, nil)
	require.NoError(t, second.Load(ctx))
	assert.Len(t, second.Pokemon.List(), 1)
	assert.Len(t, second.Moves.Moves(p.ID), 1)
	assert.True(t, second.UI.DarkMode())
	assert.Same(t, storage, second.Storage())

	require.NoError(t, second.Reset(ctx))
	assert.Empty(t, second.Pokemon.List())
	assert.Empty(t, second.Moves.Moves(p.ID))
	_, ok, err := storage.GetItem(ctx, domain.StoragePokemon)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, second.Close(ctx))
	_, _, err = storage.GetItem(ctx, domain.StorageTheme)
	assert.ErrorIs(t, err, domain.ErrStorageClosed)
}
