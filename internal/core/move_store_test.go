package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokemontodo/pkg/domain"
)

type moveFixture struct {
	store   *MoveStore
	backend *fakeBackend
	sink    *failingSink
	notes   *recordingNotifier
	clock   *FakeClock
}

func newMoveFixture(t *testing.T) moveFixture {
	t.Helper()
	f := moveFixture{
		backend: newFakeBackend(),
		sink:    &failingSink{},
		notes:   &recordingNotifier{},
		clock:   NewFakeClock(fixedStart),
	}
	f.store = NewMoveStore(f.backend.movesAPI(), f.sink, f.notes, 0, WithClock(f.clock))
	return f
}

func TestMoveCreateInsertsProvisionalThenServerRecord(t *testing.T) {
	f := newMoveFixture(t)
	release := f.backend.block("moves.create")
	done := make(chan domain.Move, 1)
	go func() {
		m, err := f.store.Create(context.Background(), domain.NewMove{PokemonID: "pk-1", Name: "Stretch"})
		assert.NoError(t, err)
		done <- m
	}()

	require.Eventually(t, f.store.Loading, time.Second, time.Millisecond)
	bucket := f.store.Moves("pk-1")
	require.Len(t, bucket, 1)
	assert.True(t, domain.IsProvisional(bucket[0].ID))
	assert.Equal(t, domain.DefaultMovePower, bucket[0].Power)

	close(release)
	created := <-done
	bucket = f.store.Moves("pk-1")
	require.Len(t, bucket, 1)
	assert.Equal(t, created.ID, bucket[0].ID)
	owner, ok := f.store.OwnerOf(created.ID)
	assert.True(t, ok)
	assert.Equal(t, "pk-1", owner)
	_, ok = f.store.OwnerOf(bucket[0].ID + "-missing")
	assert.False(t, ok)
}

func TestMoveCreateFailureLeavesNoBucket(t *testing.T) {
	f := newMoveFixture(t)
	f.backend.failOn("moves.create", errServerDown)
	_, err := f.store.Create(context.Background(), domain.NewMove{PokemonID: "pk-1", Name: "Stretch", Power: 20})
	require.Error(t, err)
	assert.Empty(t, f.store.Snapshot().ByPokemon)
	assert.Equal(t, ToastError, f.notes.last().Kind)
	assert.False(t, f.store.Loading())
}

func TestMoveInvalidInputIsLeftToBackend(t *testing.T) {
	f := newMoveFixture(t)
	f.backend.failOn("moves.create", errUnprocessable)
	_, err := f.store.Create(context.Background(), domain.NewMove{PokemonID: "pk-1", Name: "Stretch", Power: 101})
	require.Error(t, err)
	assert.Equal(t, 1, f.backend.count("moves.create"))
	assert.Empty(t, f.store.Moves("pk-1"))
	assert.Equal(t, ToastError, f.notes.last().Kind)

	moves := seedMoves(t, f, "pk-2", "Run")
	before := f.store.Moves("pk-2")
	f.backend.failOn("moves.update", errUnprocessable)
	power := 0
	_, err = f.store.Update(context.Background(), moves[0].ID, domain.MovePatch{Power: &power})
	require.Error(t, err)
	assert.Equal(t, 1, f.backend.count("moves.update"))
	assert.Equal(t, before, f.store.Moves("pk-2"))
}

func seedMoves(t *testing.T, f moveFixture, pid string, names ...string) []domain.Move {
	t.Helper()
	var out []domain.Move
	for _, n := range names {
		out = append(out, f.backend.seedMove(domain.Move{PokemonID: pid, Name: n, Power: 40}))
	}
	require.NoError(t, f.store.FetchByPokemon(context.Background(), pid, true))
	return out
}

func TestMoveUpdateFailureRestores(t *testing.T) {
	f := newMoveFixture(t)
	moves := seedMoves(t, f, "pk-1", "Run", "Swim")
	before := f.store.Moves("pk-1")

	f.backend.failOn("moves.update", errServerDown)
	power := 90
	_, err := f.store.Update(context.Background(), moves[1].ID, domain.MovePatch{Power: &power})
	require.Error(t, err)
	assert.Equal(t, before, f.store.Moves("pk-1"))
}

func TestMoveUpdateCompletingSetsTimestamp(t *testing.T) {
	f := newMoveFixture(t)
	moves := seedMoves(t, f, "pk-1", "Run")
	done := true
	updated, err := f.store.Update(context.Background(), moves[0].ID, domain.MovePatch{IsCompleted: &done})
	require.NoError(t, err)
	assert.True(t, updated.IsCompleted)

	_, err = f.store.Update(context.Background(), "nope", domain.MovePatch{IsCompleted: &done})
	require.ErrorIs(t, err, ErrMoveNotFound)
}

func TestMoveDeleteFailureReinsertsAtIndex(t *testing.T) {
	f := newMoveFixture(t)
	moves := seedMoves(t, f, "pk-1", "A", "B", "C")
	before := f.store.Moves("pk-1")

	f.backend.failOn("moves.delete", errServerDown)
	require.Error(t, f.store.Delete(context.Background(), moves[1].ID))
	assert.Equal(t, before, f.store.Moves("pk-1"))

	f.backend.failOn("moves.delete", nil)
	require.NoError(t, f.store.Delete(context.Background(), moves[1].ID))
	assert.Len(t, f.store.Moves("pk-1"), 2)
	_, ok := f.store.OwnerOf(moves[1].ID)
	assert.False(t, ok)
}

func TestMoveCompleteAwardsExperienceOnce(t *testing.T) {
	ctx := context.Background()
	f := newMoveFixture(t)
	m := f.backend.seedMove(domain.Move{PokemonID: "pk-1", Name: "Hyper Beam", Power: 90})
	require.NoError(t, f.store.FetchByPokemon(ctx, "pk-1", false))

	done, err := f.store.Complete(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, done.IsCompleted)
	require.NotNil(t, done.CompletedAt)
	assert.Equal(t, 9.0, f.sink.awards["pk-1"])

	again, err := f.store.Complete(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, again.IsCompleted)
	assert.Equal(t, 1, f.backend.count("moves.complete"), "second complete makes no network call")
	assert.Equal(t, 9.0, f.sink.awards["pk-1"])
}

func TestMoveCompleteFailureRestoresAndSkipsAward(t *testing.T) {
	ctx := context.Background()
	f := newMoveFixture(t)
	moves := seedMoves(t, f, "pk-1", "Run")
	before := f.store.Moves("pk-1")

	f.backend.failOn("moves.complete", errServerDown)
	_, err := f.store.Complete(ctx, moves[0].ID)
	require.Error(t, err)
	assert.Equal(t, before, f.store.Moves("pk-1"))
	assert.Empty(t, f.sink.awards)
}

func TestMoveCompleteKeepsCompletionWhenAwardFails(t *testing.T) {
	ctx := context.Background()
	f := newMoveFixture(t)
	f.sink.err = errSinkDown
	moves := seedMoves(t, f, "pk-1", "Run")

	done, err := f.store.Complete(ctx, moves[0].ID)
	require.NoError(t, err)
	assert.True(t, done.IsCompleted)
	got, _ := f.store.Get(moves[0].ID)
	assert.True(t, got.IsCompleted)
	assert.Equal(t, float64(domain.MinExperienceReward), f.sink.awards["pk-1"])
}

func TestMoveFetchCachePerBucket(t *testing.T) {
	ctx := context.Background()
	f := newMoveFixture(t)
	f.backend.seedMove(domain.Move{PokemonID: "pk-1", Name: "Run", Power: 10})

	require.NoError(t, f.store.FetchByPokemon(ctx, "pk-1", false))
	f.clock.Advance(2 * time.Minute)
	require.NoError(t, f.store.FetchByPokemon(ctx, "pk-1", false))
	assert.Equal(t, 1, f.backend.count("moves.list"))

	require.NoError(t, f.store.FetchByPokemon(ctx, "pk-2", false))
	assert.Equal(t, 2, f.backend.count("moves.list"), "buckets are cached independently")

	f.clock.Advance(time.Minute)
	require.NoError(t, f.store.FetchByPokemon(ctx, "pk-1", false))
	assert.Equal(t, 3, f.backend.count("moves.list"))
	at, ok := f.store.LastFetch("pk-1")
	assert.True(t, ok)
	assert.Equal(t, fixedStart.Add(3*time.Minute), at)
}

func TestMoveFilteredFetchesLeaveCacheAlone(t *testing.T) {
	ctx := context.Background()
	f := newMoveFixture(t)
	moves := seedMoves(t, f, "pk-1", "Run", "Swim")
	_, err := f.store.Complete(ctx, moves[0].ID)
	require.NoError(t, err)

	completed, err := f.store.FetchCompleted(ctx, "pk-1")
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, moves[0].ID, completed[0].ID)

	pending, err := f.store.FetchPending(ctx, "pk-1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, moves[1].ID, pending[0].ID)
	assert.Len(t, f.store.Moves("pk-1"), 2)

	f.backend.failOn("moves.list_pending", errServerDown)
	_, err = f.store.FetchPending(ctx, "pk-1")
	require.Error(t, err)
	assert.Equal(t, ToastError, f.notes.last().Kind)
}

func TestMoveClearPokemonDropsIndex(t *testing.T) {
	f := newMoveFixture(t)
	moves := seedMoves(t, f, "pk-1", "Run")
	seedMoves(t, f, "pk-2", "Fly")

	f.store.ClearPokemon("pk-1")
	assert.Empty(t, f.store.Moves("pk-1"))
	_, ok := f.store.OwnerOf(moves[0].ID)
	assert.False(t, ok)
	_, ok = f.store.LastFetch("pk-1")
	assert.False(t, ok)
	assert.Len(t, f.store.Moves("pk-2"), 1)

	f.store.Clear()
	assert.Empty(t, f.store.Snapshot().ByPokemon)
}

func TestMoveRestoreRebuildsIndex(t *testing.T) {
	f := newMoveFixture(t)
	m := domain.Move{Base: domain.Base{ID: "mv-9"}, PokemonID: "pk-3", Name: "Dig", Power: 30}
	f.store.Restore(MoveState{
		ByPokemon: map[string][]domain.Move{"pk-3": {m}},
		FetchedAt: map[string]time.Time{"pk-3": fixedStart},
	})
	owner, ok := f.store.OwnerOf("mv-9")
	require.True(t, ok)
	assert.Equal(t, "pk-3", owner)
	got, ok := f.store.Get("mv-9")
	require.True(t, ok)
	assert.Equal(t, "Dig", got.Name)
}
