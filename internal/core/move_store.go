package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pokemontodo/pkg/domain"
)

// DefaultMovesTTL is the cache window of each per-Pokemon Move bucket.
const DefaultMovesTTL = 3 * time.Minute

// MoveStore owns the Move collections, one ordered bucket per Pokemon. A
// reverse index from Move id to owning Pokemon id lets Update, Delete and
// Complete find the bucket in constant time.
type MoveStore struct {
	listeners

	mu        sync.RWMutex
	buckets   map[string][]domain.Move
	fetchedAt map[string]time.Time
	owner     map[string]string
	pending   int
	errMsg    string

	backend MoveBackend
	sink    ExperienceSink
	notify  Notifier
	ttl     time.Duration
	obs     observer
}

// NewMoveStore constructs an empty store. sink receives the reward of every
// confirmed completion and may be nil.
func NewMoveStore(backend MoveBackend, sink ExperienceSink, notify Notifier, ttl time.Duration, opts ...StoreOption) *MoveStore {
	if notify == nil {
		notify = NopNotifier
	}
	if ttl <= 0 {
		ttl = DefaultMovesTTL
	}
	return &MoveStore{
		buckets:   make(map[string][]domain.Move),
		fetchedAt: make(map[string]time.Time),
		owner:     make(map[string]string),
		backend:   backend,
		sink:      sink,
		notify:    notify,
		ttl:       ttl,
		obs:       buildObserver(opts),
	}
}

func (s *MoveStore) update(fn func()) {
	s.mu.Lock()
	fn()
	s.mu.Unlock()
	s.emit()
}

func (s *MoveStore) failLocked(err error) string {
	s.pending--
	s.errMsg = userMessage(err)
	return s.errMsg
}

// locateLocked returns the owner and bucket position of a Move.
func (s *MoveStore) locateLocked(id string) (string, int) {
	pid, ok := s.owner[id]
	if !ok {
		return "", -1
	}
	for i, m := range s.buckets[pid] {
		if m.ID == id {
			return pid, i
		}
	}
	return pid, -1
}

func (s *MoveStore) replaceBucketLocked(pid string, moves []domain.Move) {
	for _, m := range s.buckets[pid] {
		delete(s.owner, m.ID)
	}
	s.buckets[pid] = domain.CloneMoves(moves)
	if s.buckets[pid] == nil {
		s.buckets[pid] = []domain.Move{}
	}
	for _, m := range moves {
		s.owner[m.ID] = pid
	}
}

func (s *MoveStore) insertLocked(pid string, at int, m domain.Move) {
	bucket := s.buckets[pid]
	if at > len(bucket) {
		at = len(bucket)
	}
	s.buckets[pid] = append(bucket[:at:at], append([]domain.Move{m}, bucket[at:]...)...)
	s.owner[m.ID] = pid
}

func (s *MoveStore) removeLocked(pid string, at int) {
	bucket := s.buckets[pid]
	delete(s.owner, bucket[at].ID)
	s.buckets[pid] = append(bucket[:at:at], bucket[at+1:]...)
}

// FetchByPokemon loads one Pokemon's Moves, honouring that bucket's cache
// window unless force is set.
func (s *MoveStore) FetchByPokemon(ctx context.Context, pokemonID string, force bool) error {
	now := s.obs.clock.Now()
	s.mu.Lock()
	if last, ok := s.fetchedAt[pokemonID]; ok && !force && now.Sub(last) < s.ttl {
		s.mu.Unlock()
		return nil
	}
	s.pending++
	s.errMsg = ""
	s.mu.Unlock()
	s.emit()

	return s.obs.run(ctx, "moves.fetch", func(ctx context.Context) error {
		moves, err := s.backend.ListByPokemon(ctx, pokemonID)
		if err != nil {
			var msg string
			s.update(func() { msg = s.failLocked(err) })
			s.notify.FetchStatus(string(domain.EntityMove), msg)
			return fmt.Errorf("fetch moves for %s: %w", pokemonID, err)
		}
		s.update(func() {
			s.pending--
			s.replaceBucketLocked(pokemonID, moves)
			s.fetchedAt[pokemonID] = s.obs.clock.Now()
		})
		s.notify.FetchStatus(string(domain.EntityMove), "")
		return nil
	})
}

// FetchCompleted returns the completed Moves of a Pokemon straight from the
// backend. The cached bucket is not replaced.
func (s *MoveStore) FetchCompleted(ctx context.Context, pokemonID string) ([]domain.Move, error) {
	return s.fetchFiltered(ctx, "moves.fetch_completed", pokemonID, s.backend.ListCompleted)
}

// FetchPending returns the open Moves of a Pokemon straight from the backend.
func (s *MoveStore) FetchPending(ctx context.Context, pokemonID string) ([]domain.Move, error) {
	return s.fetchFiltered(ctx, "moves.fetch_pending", pokemonID, s.backend.ListPending)
}

func (s *MoveStore) fetchFiltered(ctx context.Context, op, pokemonID string, list func(context.Context, string) ([]domain.Move, error)) ([]domain.Move, error) {
	var out []domain.Move
	err := s.obs.run(ctx, op, func(ctx context.Context) error {
		s.update(func() {
			s.pending++
			s.errMsg = ""
		})
		moves, err := list(ctx, pokemonID)
		if err != nil {
			var msg string
			s.update(func() { msg = s.failLocked(err) })
			s.notify.Notify(ToastError, msg)
			return fmt.Errorf("list moves for %s: %w", pokemonID, err)
		}
		s.update(func() { s.pending-- })
		out = moves
		return nil
	})
	return out, err
}

// Create inserts a provisional Move into its Pokemon's bucket and swaps in
// the server record on success. A zero Power uses domain.DefaultMovePower.
func (s *MoveStore) Create(ctx context.Context, in domain.NewMove) (domain.Move, error) {
	if in.Power == 0 {
		in.Power = domain.DefaultMovePower
	}
	var created domain.Move
	err := s.obs.run(ctx, "moves.create", func(ctx context.Context) error {
		prov := domain.NewProvisionalMove(in, s.obs.clock.Now())
		var hadBucket bool
		s.update(func() {
			_, hadBucket = s.buckets[in.PokemonID]
			s.insertLocked(in.PokemonID, len(s.buckets[in.PokemonID]), prov)
			s.pending++
			s.errMsg = ""
		})

		server, err := s.backend.Create(ctx, in)
		if err != nil {
			var msg string
			s.update(func() {
				if pid, i := s.locateLocked(prov.ID); i >= 0 {
					s.removeLocked(pid, i)
				}
				if !hadBucket && len(s.buckets[in.PokemonID]) == 0 {
					delete(s.buckets, in.PokemonID)
				}
				msg = s.failLocked(err)
			})
			s.notify.Notify(ToastError, msg)
			return fmt.Errorf("create move: %w", err)
		}
		s.update(func() {
			s.pending--
			if pid, i := s.locateLocked(prov.ID); i >= 0 {
				delete(s.owner, prov.ID)
				s.buckets[pid][i] = domain.CloneMove(server)
				s.owner[server.ID] = pid
			}
		})
		created = server
		s.notify.Notify(ToastSuccess, fmt.Sprintf("Move %q learned", server.Name))
		return nil
	})
	return created, err
}

// mutate applies change to the Move with id, calls remote, and either
// adopts the server record or restores the snapshot. When change reports
// false nothing is modified and remote is not called.
func (s *MoveStore) mutate(
	ctx context.Context,
	id, verb string,
	change func(domain.Move) (domain.Move, bool),
	remote func(context.Context) (domain.Move, error),
) (before, after domain.Move, applied bool, err error) {
	var found bool
	s.update(func() {
		pid, i := s.locateLocked(id)
		if i < 0 {
			return
		}
		found = true
		before = domain.CloneMove(s.buckets[pid][i])
		next, ok := change(domain.CloneMove(before))
		if !ok {
			return
		}
		applied = true
		s.buckets[pid][i] = next
		s.pending++
		s.errMsg = ""
	})
	if !found {
		return before, after, false, ErrNotFound{Entity: domain.EntityMove, ID: id}
	}
	if !applied {
		return before, before, false, nil
	}

	server, err := remote(ctx)
	if err != nil {
		var msg string
		s.update(func() {
			if pid, i := s.locateLocked(id); i >= 0 {
				s.buckets[pid][i] = before
			}
			msg = s.failLocked(err)
		})
		s.notify.Notify(ToastError, msg)
		return before, after, true, fmt.Errorf("%s move %s: %w", verb, id, err)
	}
	s.update(func() {
		s.pending--
		if pid, i := s.locateLocked(id); i >= 0 {
			s.buckets[pid][i] = domain.CloneMove(server)
		}
	})
	return before, server, true, nil
}

// Update merges patch into the Move and restores it on failure.
func (s *MoveStore) Update(ctx context.Context, id string, patch domain.MovePatch) (domain.Move, error) {
	var updated domain.Move
	err := s.obs.run(ctx, "moves.update", func(ctx context.Context) error {
		now := s.obs.clock.Now()
		_, server, _, err := s.mutate(ctx, id, "update",
			func(m domain.Move) (domain.Move, bool) {
				wasDone := m.IsCompleted
				m = patch.Apply(m)
				if m.IsCompleted && !wasDone {
					m.CompletedAt = &now
				}
				m.UpdatedAt = now
				return m, true
			},
			func(ctx context.Context) (domain.Move, error) { return s.backend.Update(ctx, id, patch) },
		)
		if err != nil {
			return err
		}
		updated = server
		s.notify.Notify(ToastSuccess, fmt.Sprintf("Move %q updated", server.Name))
		return nil
	})
	return updated, err
}

// Delete removes the Move optimistically and re-inserts it at its original
// position on failure.
func (s *MoveStore) Delete(ctx context.Context, id string) error {
	return s.obs.run(ctx, "moves.delete", func(ctx context.Context) error {
		var (
			removed domain.Move
			pid     string
			index   = -1
		)
		s.update(func() {
			pid, index = s.locateLocked(id)
			if index < 0 {
				return
			}
			removed = s.buckets[pid][index]
			s.removeLocked(pid, index)
			s.pending++
			s.errMsg = ""
		})
		if index < 0 {
			return ErrNotFound{Entity: domain.EntityMove, ID: id}
		}

		if err := s.backend.Delete(ctx, id); err != nil {
			var msg string
			s.update(func() {
				s.insertLocked(pid, index, removed)
				msg = s.failLocked(err)
			})
			s.notify.Notify(ToastError, msg)
			return fmt.Errorf("delete move %s: %w", id, err)
		}
		s.update(func() { s.pending-- })
		s.notify.Notify(ToastSuccess, fmt.Sprintf("Move %q forgotten", removed.Name))
		return nil
	})
}

// Complete marks the Move completed. Completing an already completed Move is
// a no-op without a network call. Experience is awarded to the owning
// Pokemon only after the backend confirms; a failed award is reported by
// the sink and does not undo the completion.
func (s *MoveStore) Complete(ctx context.Context, id string) (domain.Move, error) {
	if m, ok := s.Get(id); ok && m.IsCompleted {
		return m, nil
	}
	var completed domain.Move
	err := s.obs.run(ctx, "moves.complete", func(ctx context.Context) error {
		now := s.obs.clock.Now()
		before, server, applied, err := s.mutate(ctx, id, "complete",
			func(m domain.Move) (domain.Move, bool) {
				if m.IsCompleted {
					return m, false
				}
				m.IsCompleted = true
				m.CompletedAt = &now
				m.UpdatedAt = now
				return m, true
			},
			func(ctx context.Context) (domain.Move, error) { return s.backend.Complete(ctx, id) },
		)
		if err != nil {
			return err
		}
		if !applied {
			// A concurrent Complete got there first.
			completed = before
			return nil
		}
		completed = server
		reward := domain.ExperienceReward(server.Power)
		s.notify.Notify(ToastSuccess, fmt.Sprintf("Move %q completed! +%g XP", server.Name, reward))
		if s.sink != nil {
			if err := s.sink.AwardExperience(ctx, server.PokemonID, reward); err != nil {
				s.obs.log.Warn("experience award failed", "move", id, "pokemon", server.PokemonID, "error", err)
			}
		}
		return nil
	})
	return completed, err
}

// Moves returns a copy of one Pokemon's bucket.
func (s *MoveStore) Moves(pokemonID string) []domain.Move {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CloneMoves(append([]domain.Move{}, s.buckets[pokemonID]...))
}

// Get returns a copy of the Move with id.
func (s *MoveStore) Get(id string) (domain.Move, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pid, i := s.locateLocked(id)
	if i < 0 {
		return domain.Move{}, false
	}
	return domain.CloneMove(s.buckets[pid][i]), true
}

// OwnerOf returns the Pokemon id owning the Move.
func (s *MoveStore) OwnerOf(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pid, ok := s.owner[id]
	return pid, ok
}

// Clear drops every bucket, fetch time and index entry.
func (s *MoveStore) Clear() {
	s.update(func() {
		s.buckets = make(map[string][]domain.Move)
		s.fetchedAt = make(map[string]time.Time)
		s.owner = make(map[string]string)
	})
}

// ClearPokemon drops one Pokemon's bucket, typically after it was deleted.
func (s *MoveStore) ClearPokemon(pokemonID string) {
	s.update(func() {
		for _, m := range s.buckets[pokemonID] {
			delete(s.owner, m.ID)
		}
		delete(s.buckets, pokemonID)
		delete(s.fetchedAt, pokemonID)
	})
}

// LastFetch returns when the bucket of pokemonID was last fetched.
func (s *MoveStore) LastFetch(pokemonID string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.fetchedAt[pokemonID]
	return t, ok
}

func (s *MoveStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending > 0
}

func (s *MoveStore) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

func (s *MoveStore) ClearError() { s.update(func() { s.errMsg = "" }) }

// MoveState is the persisted portion of MoveStore.
type MoveState struct {
	ByPokemon map[string][]domain.Move
	FetchedAt map[string]time.Time
}

// Snapshot captures the persisted state, skipping provisional Moves.
func (s *MoveStore) Snapshot() MoveState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := MoveState{
		ByPokemon: make(map[string][]domain.Move, len(s.buckets)),
		FetchedAt: make(map[string]time.Time, len(s.fetchedAt)),
	}
	for pid, bucket := range s.buckets {
		kept := make([]domain.Move, 0, len(bucket))
		for _, m := range bucket {
			if !domain.IsProvisional(m.ID) {
				kept = append(kept, domain.CloneMove(m))
			}
		}
		st.ByPokemon[pid] = kept
	}
	for pid, t := range s.fetchedAt {
		st.FetchedAt[pid] = t
	}
	return st
}

// Restore replaces the store's state and rebuilds the reverse index.
func (s *MoveStore) Restore(st MoveState) {
	s.update(func() {
		s.buckets = make(map[string][]domain.Move, len(st.ByPokemon))
		s.fetchedAt = make(map[string]time.Time, len(st.FetchedAt))
		s.owner = make(map[string]string)
		for pid, bucket := range st.ByPokemon {
			s.replaceBucketLocked(pid, bucket)
		}
		for pid, t := range st.FetchedAt {
			s.fetchedAt[pid] = t
		}
	})
}
