package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"pokemontodo/pkg/domain"
)

// stateVersion is written with every persisted payload; payloads with a
// different version are ignored on load.
const stateVersion = 1

type envelope[T any] struct {
	State   T   `json:"state"`
	Version int `json:"version"`
}

// movePair is one [pokemonId, moves] entry of the persisted Move mapping.
type movePair struct {
	PokemonID string
	Moves     []domain.Move
}

func (p movePair) MarshalJSON() ([]byte, error) {
	moves := p.Moves
	if moves == nil {
		moves = []domain.Move{}
	}
	return json.Marshal([]any{p.PokemonID, moves})
}

func (p *movePair) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("move pair: want 2 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &p.PokemonID); err != nil {
		return fmt.Errorf("move pair id: %w", err)
	}
	if err := json.Unmarshal(raw[1], &p.Moves); err != nil {
		return fmt.Errorf("move pair moves: %w", err)
	}
	return nil
}

type fetchPair struct {
	PokemonID string
	At        time.Time
}

func (p fetchPair) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{p.PokemonID, p.At})
}

func (p *fetchPair) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("fetch pair: want 2 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &p.PokemonID); err != nil {
		return err
	}
	return json.Unmarshal(raw[1], &p.At)
}

type persistedMoves struct {
	MovesByPokemon []movePair  `json:"movesByPokemon"`
	LastFetch      []fetchPair `json:"lastFetch"`
}

// EncodeMoveState serialises the Move mapping as a list of
// [pokemonId, [moves...]] pairs ordered by Pokemon id.
func EncodeMoveState(st MoveState) ([]byte, error) {
	out := persistedMoves{
		MovesByPokemon: make([]movePair, 0, len(st.ByPokemon)),
		LastFetch:      make([]fetchPair, 0, len(st.FetchedAt)),
	}
	for pid, moves := range st.ByPokemon {
		out.MovesByPokemon = append(out.MovesByPokemon, movePair{PokemonID: pid, Moves: moves})
	}
	sort.Slice(out.MovesByPokemon, func(i, j int) bool {
		return out.MovesByPokemon[i].PokemonID < out.MovesByPokemon[j].PokemonID
	})
	for pid, at := range st.FetchedAt {
		out.LastFetch = append(out.LastFetch, fetchPair{PokemonID: pid, At: at})
	}
	sort.Slice(out.LastFetch, func(i, j int) bool { return out.LastFetch[i].PokemonID < out.LastFetch[j].PokemonID })
	return json.Marshal(envelope[persistedMoves]{State: out, Version: stateVersion})
}

// DecodeMoveState reverses EncodeMoveState.
func DecodeMoveState(b []byte) (MoveState, error) {
	var env envelope[persistedMoves]
	if err := json.Unmarshal(b, &env); err != nil {
		return MoveState{}, fmt.Errorf("decode move state: %w", err)
	}
	if env.Version != stateVersion {
		return MoveState{}, fmt.Errorf("%w: move state version %d", errStaleState, env.Version)
	}
	st := MoveState{
		ByPokemon: make(map[string][]domain.Move, len(env.State.MovesByPokemon)),
		FetchedAt: make(map[string]time.Time, len(env.State.LastFetch)),
	}
	for _, p := range env.State.MovesByPokemon {
		st.ByPokemon[p.PokemonID] = p.Moves
	}
	for _, p := range env.State.LastFetch {
		st.FetchedAt[p.PokemonID] = p.At
	}
	return st, nil
}

var errStaleState = errors.New("stale persisted state")

// Persister saves and restores the entity stores through a StateStorage.
type Persister struct {
	storage domain.StateStorage
	pokemon *PokemonStore
	moves   *MoveStore
	log     Logger
}

// NewPersister binds the stores to storage.
func NewPersister(storage domain.StateStorage, pokemon *PokemonStore, moves *MoveStore, log Logger) *Persister {
	if log == nil {
		log = noopLogger{}
	}
	return &Persister{storage: storage, pokemon: pokemon, moves: moves, log: log}
}

// Save writes both stores under their fixed storage names.
func (p *Persister) Save(ctx context.Context) error {
	pb, err := json.Marshal(envelope[PokemonState]{State: p.pokemon.Snapshot(), Version: stateVersion})
	if err != nil {
		return fmt.Errorf("encode pokemon state: %w", err)
	}
	if err := p.storage.SetItem(ctx, domain.StoragePokemon, pb); err != nil {
		return fmt.Errorf("save %s: %w", domain.StoragePokemon, err)
	}
	mb, err := EncodeMoveState(p.moves.Snapshot())
	if err != nil {
		return fmt.Errorf("encode move state: %w", err)
	}
	if err := p.storage.SetItem(ctx, domain.StorageMoves, mb); err != nil {
		return fmt.Errorf("save %s: %w", domain.StorageMoves, err)
	}
	return nil
}

// Load restores both stores. Missing, stale or corrupt payloads are skipped
// with a warning so a bad cache never blocks startup.
func (p *Persister) Load(ctx context.Context) error {
	raw, ok, err := p.storage.GetItem(ctx, domain.StoragePokemon)
	if err != nil {
		return fmt.Errorf("load %s: %w", domain.StoragePokemon, err)
	}
	if ok {
		var env envelope[PokemonState]
		switch uerr := json.Unmarshal(raw, &env); {
		case uerr != nil:
			p.log.Warn("discarding unreadable state", "name", domain.StoragePokemon, "error", uerr)
		case env.Version != stateVersion:
			p.log.Warn("discarding stale state", "name", domain.StoragePokemon, "version", env.Version)
		default:
			p.pokemon.Restore(env.State)
		}
	}

	raw, ok, err = p.storage.GetItem(ctx, domain.StorageMoves)
	if err != nil {
		return fmt.Errorf("load %s: %w", domain.StorageMoves, err)
	}
	if ok {
		st, derr := DecodeMoveState(raw)
		if derr != nil {
			p.log.Warn("discarding move state", "name", domain.StorageMoves, "error", derr)
			return nil
		}
		p.moves.Restore(st)
	}
	return nil
}

// Reset removes both persisted payloads.
func (p *Persister) Reset(ctx context.Context) error {
	return errors.Join(
		p.storage.RemoveItem(ctx, domain.StoragePokemon),
		p.storage.RemoveItem(ctx, domain.StorageMoves),
	)
}
