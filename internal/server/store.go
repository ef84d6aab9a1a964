package server

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"pokemontodo/pkg/domain"
)

// NotFoundError reports an unknown Pokemon or Move id.
type NotFoundError struct {
	Entity domain.EntityType
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.Entity == domain.EntityMove {
		return fmt.Sprintf("Move with id %s not found", e.ID)
	}
	return fmt.Sprintf("Pokemon with id %s not found", e.ID)
}

// MoveFilter selects which Moves of a Pokemon ListMoves returns.
type MoveFilter int

const (
	AllMoves MoveFilter = iota
	CompletedMoves
	PendingMoves
)

func (f MoveFilter) keep(m domain.Move) bool {
	switch f {
	case CompletedMoves:
		return m.IsCompleted
	case PendingMoves:
		return !m.IsCompleted
	default:
		return true
	}
}

// Store is the in-memory backend state. Records are listed in creation order.
type Store struct {
	mu        sync.RWMutex
	pokemon   map[string]domain.Pokemon
	order     []string
	moves     map[string]domain.Move
	moveOrder []string
	now       func() time.Time
}

// NewStore returns an empty store. A nil now uses the wall clock.
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		pokemon: make(map[string]domain.Pokemon),
		moves:   make(map[string]domain.Move),
		now:     func() time.Time { return now().UTC() },
	}
}

func (s *Store) ListPokemon() []domain.Pokemon {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Pokemon, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.pokemon[id])
	}
	return out
}

func (s *Store) GetPokemon(id string) (domain.Pokemon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pokemon[id]
	if !ok {
		return domain.Pokemon{}, &NotFoundError{Entity: domain.EntityPokemon, ID: id}
	}
	return p, nil
}

func (s *Store) CreatePokemon(name string, typ domain.PokemonType) domain.Pokemon {
	now := s.now()
	p := domain.Pokemon{
		Base:           domain.Base{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now},
		Name:           name,
		Type:           typ,
		Level:          domain.InitialLevel,
		EvolutionStage: domain.InitialEvolutionStage,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pokemon[p.ID] = p
	s.order = append(s.order, p.ID)
	return p
}

func (s *Store) UpdatePokemon(id string, patch domain.PokemonPatch) (domain.Pokemon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pokemon[id]
	if !ok {
		return domain.Pokemon{}, &NotFoundError{Entity: domain.EntityPokemon, ID: id}
	}
	p = patch.Apply(p)
	p.UpdatedAt = s.now()
	s.pokemon[id] = p
	return p, nil
}

// DeletePokemon removes the Pokemon together with all of its Moves.
func (s *Store) DeletePokemon(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pokemon[id]; !ok {
		return &NotFoundError{Entity: domain.EntityPokemon, ID: id}
	}
	delete(s.pokemon, id)
	s.order = without(s.order, id)
	kept := s.moveOrder[:0]
	for _, mid := range s.moveOrder {
		if s.moves[mid].PokemonID == id {
			delete(s.moves, mid)
			continue
		}
		kept = append(kept, mid)
	}
	s.moveOrder = kept
	return nil
}

// AddExperience applies the authoritative progression: every full 100
// experience is a level, and the stage advances on reaching level 16 and 36.
func (s *Store) AddExperience(id string, amount float64) (domain.Pokemon, error) {
	issues := FieldIssues{}
	switch {
	case math.IsNaN(amount), math.IsInf(amount, 0):
		issues.add("experience", "finite_number", "Input should be a finite number")
	case amount < 0:
		issues.add("experience", "greater_than_equal", "Input should be greater than or equal to 0")
	}
	if err := issues.orNil(); err != nil {
		return domain.Pokemon{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pokemon[id]
	if !ok {
		return domain.Pokemon{}, &NotFoundError{Entity: domain.EntityPokemon, ID: id}
	}
	p = levelUp(p, amount)
	p.UpdatedAt = s.now()
	s.pokemon[id] = p
	return p, nil
}

// maxLevel caps the level so huge awards cannot overflow int.
const maxLevel = math.MaxInt32

// levelUp adds amount and converts every full 100 experience into a level in
// one step, carrying the remainder. Evolution happens when the level crosses
// 16 at stage 1 and 36 at stage 2. amount must be finite and non-negative.
func levelUp(p domain.Pokemon, amount float64) domain.Pokemon {
	total := p.Experience + amount
	if total < domain.MaxExperience {
		p.Experience = total
		return p
	}
	from := p.Level
	gained := math.Floor(total / domain.MaxExperience)
	if gained > float64(maxLevel-from) {
		p.Level = maxLevel
	} else {
		p.Level = from + int(gained)
	}
	p.Experience = math.Mod(total, domain.MaxExperience)
	if p.EvolutionStage == 1 && from < 16 && p.Level >= 16 {
		p.EvolutionStage = 2
	}
	if p.EvolutionStage == 2 && from < 36 && p.Level >= 36 {
		p.EvolutionStage = 3
	}
	return p
}

// ListMoves returns the Pokemon's Moves; the Pokemon must exist.
func (s *Store) ListMoves(pokemonID string, filter MoveFilter) ([]domain.Move, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.pokemon[pokemonID]; !ok {
		return nil, &NotFoundError{Entity: domain.EntityPokemon, ID: pokemonID}
	}
	out := []domain.Move{}
	for _, id := range s.moveOrder {
		m := s.moves[id]
		if m.PokemonID == pokemonID && filter.keep(m) {
			out = append(out, domain.CloneMove(m))
		}
	}
	return out, nil
}

func (s *Store) GetMove(id string) (domain.Move, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.moves[id]
	if !ok {
		return domain.Move{}, &NotFoundError{Entity: domain.EntityMove, ID: id}
	}
	return domain.CloneMove(m), nil
}

func (s *Store) CreateMove(in domain.NewMove) (domain.Move, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pokemon[in.PokemonID]; !ok {
		return domain.Move{}, &NotFoundError{Entity: domain.EntityPokemon, ID: in.PokemonID}
	}
	now := s.now()
	m := domain.Move{
		Base:      domain.Base{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now},
		PokemonID: in.PokemonID,
		Name:      in.Name,
		Power:     in.Power,
	}
	if in.Description != nil {
		d := *in.Description
		m.Description = &d
	}
	s.moves[m.ID] = m
	s.moveOrder = append(s.moveOrder, m.ID)
	return domain.CloneMove(m), nil
}

func (s *Store) UpdateMove(id string, patch domain.MovePatch) (domain.Move, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.moves[id]
	if !ok {
		return domain.Move{}, &NotFoundError{Entity: domain.EntityMove, ID: id}
	}
	wasCompleted := m.IsCompleted
	m = patch.Apply(m)
	now := s.now()
	if m.IsCompleted && !wasCompleted {
		m.CompletedAt = &now
	}
	m.UpdatedAt = now
	s.moves[id] = m
	return domain.CloneMove(m), nil
}

func (s *Store) DeleteMove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.moves[id]; !ok {
		return &NotFoundError{Entity: domain.EntityMove, ID: id}
	}
	delete(s.moves, id)
	s.moveOrder = without(s.moveOrder, id)
	return nil
}

// CompleteMove marks the Move completed. Completing twice is a no-op that
// keeps the first completion time. No experience is granted here; the client
// awards it separately.
func (s *Store) CompleteMove(id string) (domain.Move, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.moves[id]
	if !ok {
		return domain.Move{}, &NotFoundError{Entity: domain.EntityMove, ID: id}
	}
	if !m.IsCompleted {
		now := s.now()
		m.IsCompleted = true
		m.CompletedAt = &now
		m.UpdatedAt = now
		s.moves[id] = m
	}
	return domain.CloneMove(m), nil
}

func without(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}
