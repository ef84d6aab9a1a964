package core

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"pokemontodo/pkg/domain"
)

// DefaultPokemonTTL is how long a successful FetchAll satisfies later calls.
const DefaultPokemonTTL = 5 * time.Minute

// PokemonStore owns the Pokemon collection. Every mutating action applies
// its change locally first, then calls the backend, then either reconciles
// with the server record or restores the captured snapshot.
//
// The lock is held only while state changes, never across a network call, so
// two overlapping actions on the same Pokemon may reconcile out of order.
type PokemonStore struct {
	listeners

	mu        sync.RWMutex
	items     []domain.Pokemon
	selected  *domain.Pokemon
	pending   int
	errMsg    string
	lastFetch time.Time

	backend  PokemonBackend
	notify   Notifier
	ttl      time.Duration
	obs      observer
	onDelete []func(id string)
}

// NewPokemonStore constructs an empty store. A nil notifier discards
// notifications and a non-positive ttl uses DefaultPokemonTTL.
func NewPokemonStore(backend PokemonBackend, notify Notifier, ttl time.Duration, opts ...StoreOption) *PokemonStore {
	if notify == nil {
		notify = NopNotifier
	}
	if ttl <= 0 {
		ttl = DefaultPokemonTTL
	}
	return &PokemonStore{
		backend: backend,
		notify:  notify,
		ttl:     ttl,
		obs:     buildObserver(opts),
	}
}

// OnDelete registers fn to run after the backend confirms a delete.
func (s *PokemonStore) OnDelete(fn func(id string)) {
	s.mu.Lock()
	s.onDelete = append(s.onDelete, fn)
	s.mu.Unlock()
}

// update runs fn under the write lock and notifies subscribers afterwards.
func (s *PokemonStore) update(fn func()) {
	s.mu.Lock()
	fn()
	s.mu.Unlock()
	s.emit()
}

func (s *PokemonStore) indexLocked(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *PokemonStore) replaceLocked(id string, p domain.Pokemon) {
	if i := s.indexLocked(id); i >= 0 {
		s.items[i] = p
	}
	if s.selected != nil && s.selected.ID == id {
		cp := p
		s.selected = &cp
	}
}

// failLocked records err and ends one pending action.
func (s *PokemonStore) failLocked(err error) string {
	s.pending--
	s.errMsg = userMessage(err)
	return s.errMsg
}

// FetchAll loads the collection. Within the cache window and without force
// it returns immediately without a network call. A failure leaves the
// collection untouched.
func (s *PokemonStore) FetchAll(ctx context.Context, force bool) error {
	now := s.obs.clock.Now()
	s.mu.Lock()
	if !force && !s.lastFetch.IsZero() && now.Sub(s.lastFetch) < s.ttl {
		s.mu.Unlock()
		return nil
	}
	s.pending++
	s.errMsg = ""
	s.mu.Unlock()
	s.emit()

	return s.obs.run(ctx, "pokemon.fetch", func(ctx context.Context) error {
		list, err := s.backend.List(ctx)
		if err != nil {
			var msg string
			s.update(func() { msg = s.failLocked(err) })
			s.notify.FetchStatus(string(domain.EntityPokemon), msg)
			return fmt.Errorf("fetch pokemon: %w", err)
		}
		s.update(func() {
			s.pending--
			s.items = append(make([]domain.Pokemon, 0, len(list)), list...)
			s.lastFetch = s.obs.clock.Now()
			if s.selected != nil {
				if i := s.indexLocked(s.selected.ID); i >= 0 {
					cp := s.items[i]
					s.selected = &cp
				} else {
					s.selected = nil
				}
			}
		})
		s.notify.FetchStatus(string(domain.EntityPokemon), "")
		return nil
	})
}

// Create appends a provisional Pokemon immediately and replaces it with the
// server record on success. On failure the provisional record is removed.
// name and typ are not validated here; the backend is the authority.
func (s *PokemonStore) Create(ctx context.Context, name string, typ domain.PokemonType) (domain.Pokemon, error) {
	in := domain.NewPokemon{Name: name, Type: typ}
	var created domain.Pokemon
	err := s.obs.run(ctx, "pokemon.create", func(ctx context.Context) error {
		prov := domain.NewProvisionalPokemon(name, typ, s.obs.clock.Now())
		s.update(func() {
			s.items = append(s.items, prov)
			s.pending++
			s.errMsg = ""
		})

		server, err := s.backend.Create(ctx, in)
		if err != nil {
			var msg string
			s.update(func() {
				if i := s.indexLocked(prov.ID); i >= 0 {
					s.items = append(s.items[:i], s.items[i+1:]...)
				}
				msg = s.failLocked(err)
			})
			s.notify.Notify(ToastError, msg)
			return fmt.Errorf("create pokemon: %w", err)
		}
		s.update(func() {
			s.pending--
			s.replaceLocked(prov.ID, server)
		})
		created = server
		s.notify.Notify(ToastSuccess, fmt.Sprintf("%s joined your team!", server.Name))
		return nil
	})
	return created, err
}

// Update merges patch into the Pokemon (and the selection when it is the
// same Pokemon) and restores both on failure.
func (s *PokemonStore) Update(ctx context.Context, id string, patch domain.PokemonPatch) (domain.Pokemon, error) {
	var updated domain.Pokemon
	err := s.obs.run(ctx, "pokemon.update", func(ctx context.Context) error {
		var (
			before   domain.Pokemon
			prevSel  *domain.Pokemon
			found    bool
			selected bool
		)
		now := s.obs.clock.Now()
		s.update(func() {
			i := s.indexLocked(id)
			if i < 0 {
				return
			}
			found = true
			before = s.items[i]
			selected = s.selected != nil && s.selected.ID == id
			if selected {
				cp := *s.selected
				prevSel = &cp
			}
			after := patch.Apply(before)
			after.UpdatedAt = now
			s.items[i] = after
			if selected {
				cp := after
				s.selected = &cp
			}
			s.pending++
			s.errMsg = ""
		})
		if !found {
			return ErrNotFound{Entity: domain.EntityPokemon, ID: id}
		}

		server, err := s.backend.Update(ctx, id, patch)
		if err != nil {
			var msg string
			s.update(func() {
				if i := s.indexLocked(id); i >= 0 {
					s.items[i] = before
				}
				if selected && s.selected != nil && s.selected.ID == id {
					s.selected = prevSel
				}
				msg = s.failLocked(err)
			})
			s.notify.Notify(ToastError, msg)
			return fmt.Errorf("update pokemon %s: %w", id, err)
		}
		s.update(func() {
			s.pending--
			s.replaceLocked(id, server)
		})
		updated = server
		s.notify.Notify(ToastSuccess, fmt.Sprintf("%s updated", server.Name))
		return nil
	})
	return updated, err
}

// Delete removes the Pokemon optimistically and re-inserts it at its
// original position when the backend rejects the delete.
func (s *PokemonStore) Delete(ctx context.Context, id string) error {
	return s.obs.run(ctx, "pokemon.delete", func(ctx context.Context) error {
		var (
			removed     domain.Pokemon
			index       = -1
			wasSelected bool
			hooks       []func(string)
		)
		s.update(func() {
			index = s.indexLocked(id)
			if index < 0 {
				return
			}
			removed = s.items[index]
			s.items = append(s.items[:index:index], s.items[index+1:]...)
			if s.selected != nil && s.selected.ID == id {
				wasSelected = true
				s.selected = nil
			}
			hooks = append(hooks, s.onDelete...)
			s.pending++
			s.errMsg = ""
		})
		if index < 0 {
			return ErrNotFound{Entity: domain.EntityPokemon, ID: id}
		}

		if err := s.backend.Delete(ctx, id); err != nil {
			var msg string
			s.update(func() {
				at := index
				if at > len(s.items) {
					at = len(s.items)
				}
				s.items = append(s.items[:at], append([]domain.Pokemon{removed}, s.items[at:]...)...)
				if wasSelected && s.selected == nil {
					cp := removed
					s.selected = &cp
				}
				msg = s.failLocked(err)
			})
			s.notify.Notify(ToastError, msg)
			return fmt.Errorf("delete pokemon %s: %w", id, err)
		}
		s.update(func() { s.pending-- })
		for _, fn := range hooks {
			fn(id)
		}
		s.notify.Notify(ToastSuccess, fmt.Sprintf("%s was released", removed.Name))
		return nil
	})
}

// AddExperience previews the progression locally and then adopts the
// server's result, which may differ from the preview.
func (s *PokemonStore) AddExperience(ctx context.Context, id string, amount float64) (domain.Pokemon, error) {
	var result domain.Pokemon
	err := s.obs.run(ctx, "pokemon.add_experience", func(ctx context.Context) error {
		if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
			s.update(func() { s.errMsg = userMessage(ErrInvalidExperience) })
			return ErrInvalidExperience
		}
		var (
			before   domain.Pokemon
			prevSel  *domain.Pokemon
			found    bool
			selected bool
		)
		now := s.obs.clock.Now()
		s.update(func() {
			i := s.indexLocked(id)
			if i < 0 {
				return
			}
			found = true
			before = s.items[i]
			selected = s.selected != nil && s.selected.ID == id
			if selected {
				cp := *s.selected
				prevSel = &cp
			}
			after := domain.ApplyExperience(before, amount, now)
			s.items[i] = after
			if selected {
				cp := after
				s.selected = &cp
			}
			s.pending++
			s.errMsg = ""
		})
		if !found {
			return ErrNotFound{Entity: domain.EntityPokemon, ID: id}
		}

		server, err := s.backend.AddExperience(ctx, id, amount)
		if err != nil {
			var msg string
			s.update(func() {
				if i := s.indexLocked(id); i >= 0 {
					s.items[i] = before
				}
				if selected && s.selected != nil && s.selected.ID == id {
					s.selected = prevSel
				}
				msg = s.failLocked(err)
			})
			s.notify.Notify(ToastError, msg)
			return fmt.Errorf("add experience to %s: %w", id, err)
		}
		s.update(func() {
			s.pending--
			s.replaceLocked(id, server)
		})
		result = server
		s.announceProgress(before, server)
		return nil
	})
	return result, err
}

func (s *PokemonStore) announceProgress(before, after domain.Pokemon) {
	switch {
	case after.EvolutionStage > before.EvolutionStage:
		s.notify.Notify(ToastSuccess, fmt.Sprintf("%s evolved to stage %d!", after.Name, after.EvolutionStage))
	case after.Level > before.Level:
		s.notify.Notify(ToastSuccess, fmt.Sprintf("%s grew to level %d!", after.Name, after.Level))
	}
}

// AwardExperience implements ExperienceSink. Pokemon that are not loaded
// locally are credited on the backend only.
func (s *PokemonStore) AwardExperience(ctx context.Context, pokemonID string, amount float64) error {
	if _, ok := s.Get(pokemonID); ok {
		_, err := s.AddExperience(ctx, pokemonID, amount)
		return err
	}
	return s.obs.run(ctx, "pokemon.award_remote", func(ctx context.Context) error {
		if _, err := s.backend.AddExperience(ctx, pokemonID, amount); err != nil {
			msg := userMessage(err)
			s.update(func() { s.errMsg = msg })
			s.notify.Notify(ToastError, msg)
			return fmt.Errorf("award experience to %s: %w", pokemonID, err)
		}
		return nil
	})
}

// Select sets or clears (nil) the selected Pokemon.
func (s *PokemonStore) Select(p *domain.Pokemon) {
	s.update(func() {
		if p == nil {
			s.selected = nil
			return
		}
		cp := *p
		s.selected = &cp
	})
}

// Get returns a copy of the Pokemon with id.
func (s *PokemonStore) Get(id string) (domain.Pokemon, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.items[i], true
	}
	return domain.Pokemon{}, false
}

// List returns a copy of the collection in insertion order.
func (s *PokemonStore) List() []domain.Pokemon {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Pokemon(nil), s.items...)
}

// Selected returns a copy of the selection, or nil.
func (s *PokemonStore) Selected() *domain.Pokemon {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == nil {
		return nil
	}
	cp := *s.selected
	return &cp
}

// Loading reports whether any network action is in flight.
func (s *PokemonStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending > 0
}

// Err returns the last recorded user-facing error, or "".
func (s *PokemonStore) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

func (s *PokemonStore) ClearError() { s.update(func() { s.errMsg = "" }) }

// LastFetch returns the time of the last successful FetchAll.
func (s *PokemonStore) LastFetch() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastFetch
}

// Invalidate forces the next FetchAll to hit the network.
func (s *PokemonStore) Invalidate() { s.update(func() { s.lastFetch = time.Time{} }) }

// PokemonState is the persisted portion of PokemonStore.
type PokemonState struct {
	Pokemon   []domain.Pokemon `json:"pokemon"`
	Selected  *domain.Pokemon  `json:"selectedPokemon,omitempty"`
	LastFetch time.Time        `json:"lastFetch"`
}

// Snapshot captures the persisted state.
func (s *PokemonStore) Snapshot() PokemonState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := PokemonState{Pokemon: append([]domain.Pokemon{}, s.items...), LastFetch: s.lastFetch}
	if s.selected != nil {
		cp := *s.selected
		st.Selected = &cp
	}
	return st
}

// Restore replaces the store's state with st. Provisional records left by an
// interrupted action are dropped.
func (s *PokemonStore) Restore(st PokemonState) {
	s.update(func() {
		s.items = make([]domain.Pokemon, 0, len(st.Pokemon))
		for _, p := range st.Pokemon {
			if !domain.IsProvisional(p.ID) {
				s.items = append(s.items, p)
			}
		}
		s.selected = nil
		if st.Selected != nil && !domain.IsProvisional(st.Selected.ID) {
			cp := *st.Selected
			s.selected = &cp
		}
		s.lastFetch = st.LastFetch
	})
}
