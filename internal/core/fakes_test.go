package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pokemontodo/internal/api"
	"pokemontodo/pkg/domain"
)

var (
	errServerDown    = &api.Error{Message: "boom", StatusCode: 500}
	errUnprocessable = &api.Error{Message: "Validation failed", StatusCode: 422, Code: "VALIDATION_ERROR"}
	fixedStart       = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
)

// fakeBackend is an in-memory stand-in for the REST service. It follows the
// server's progression rule so tests can tell the preview and the
// authoritative result apart.
type fakeBackend struct {
	mu      sync.Mutex
	seq     int
	pokemon []domain.Pokemon
	moves   []domain.Move
	calls   map[string]int
	fail    map[string]error
	// gate, when set for an op, blocks the call until the channel is closed.
	gate map[string]chan struct{}
	now  func() time.Time
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		calls: make(map[string]int),
		fail:  make(map[string]error),
		gate:  make(map[string]chan struct{}),
		now:   func() time.Time { return fixedStart },
	}
}

func (f *fakeBackend) enter(ctx context.Context, op string) error {
	f.mu.Lock()
	f.calls[op]++
	err := f.fail[op]
	g := f.gate[op]
	f.mu.Unlock()
	if g != nil {
		select {
		case <-g:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *fakeBackend) failOn(op string, err error) {
	f.mu.Lock()
	f.fail[op] = err
	f.mu.Unlock()
}

func (f *fakeBackend) block(op string) chan struct{} {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gate[op] = ch
	f.mu.Unlock()
	return ch
}

func (f *fakeBackend) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeBackend) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakeBackend) seedPokemon(p domain.Pokemon) domain.Pokemon {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == "" {
		p.ID = f.nextID("pk")
	}
	if p.Level == 0 {
		p.Level = 1
	}
	if p.EvolutionStage == 0 {
		p.EvolutionStage = 1
	}
	f.pokemon = append(f.pokemon, p)
	return p
}

func (f *fakeBackend) seedMove(m domain.Move) domain.Move {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m.ID == "" {
		m.ID = f.nextID("mv")
	}
	f.moves = append(f.moves, m)
	return m
}

func (f *fakeBackend) List(ctx context.Context) ([]domain.Pokemon, error) {
	if err := f.enter(ctx, "pokemon.list"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Pokemon(nil), f.pokemon...), nil
}

func (f *fakeBackend) Create(ctx context.Context, in domain.NewPokemon) (domain.Pokemon, error) {
	if err := f.enter(ctx, "pokemon.create"); err != nil {
		return domain.Pokemon{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.now()
	p := domain.Pokemon{
		Base:           domain.Base{ID: f.nextID("pk"), CreatedAt: now, UpdatedAt: now},
		Name:           in.Name,
		Type:           in.Type,
		Level:          1,
		EvolutionStage: 1,
	}
	f.pokemon = append(f.pokemon, p)
	return p, nil
}

func (f *fakeBackend) findPokemon(id string) int {
	for i, p := range f.pokemon {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (f *fakeBackend) Update(ctx context.Context, id string, patch domain.PokemonPatch) (domain.Pokemon, error) {
	if err := f.enter(ctx, "pokemon.update"); err != nil {
		return domain.Pokemon{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.findPokemon(id)
	if i < 0 {
		return domain.Pokemon{}, &api.Error{Message: "Pokemon not found", StatusCode: 404}
	}
	f.pokemon[i] = patch.Apply(f.pokemon[i])
	return f.pokemon[i], nil
}

func (f *fakeBackend) Delete(ctx context.Context, id string) error {
	if err := f.enter(ctx, "pokemon.delete"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.findPokemon(id)
	if i < 0 {
		return &api.Error{Message: "Pokemon not found", StatusCode: 404}
	}
	f.pokemon = append(f.pokemon[:i], f.pokemon[i+1:]...)
	return nil
}

func (f *fakeBackend) AddExperience(ctx context.Context, id string, amount float64) (domain.Pokemon, error) {
	if err := f.enter(ctx, "pokemon.add_experience"); err != nil {
		return domain.Pokemon{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.findPokemon(id)
	if i < 0 {
		return domain.Pokemon{}, &api.Error{Message: "Pokemon not found", StatusCode: 404}
	}
	p := f.pokemon[i]
	p.Experience += amount
	for p.Experience >= 100 {
		p.Level++
		p.Experience -= 100
	}
	switch {
	case p.Level >= 36:
		p.EvolutionStage = 3
	case p.Level >= 16:
		p.EvolutionStage = 2
	}
	f.pokemon[i] = p
	return p, nil
}

// moves returns a MoveBackend view of the same fake.
func (f *fakeBackend) movesAPI() *fakeMoves { return &fakeMoves{f} }

type fakeMoves struct{ f *fakeBackend }

func (m *fakeMoves) list(ctx context.Context, op, pid string, keep func(domain.Move) bool) ([]domain.Move, error) {
	if err := m.f.enter(ctx, op); err != nil {
		return nil, err
	}
	m.f.mu.Lock()
	defer m.f.mu.Unlock()
	var out []domain.Move
	for _, mv := range m.f.moves {
		if mv.PokemonID == pid && keep(mv) {
			out = append(out, domain.CloneMove(mv))
		}
	}
	return out, nil
}

func (m *fakeMoves) ListByPokemon(ctx context.Context, pid string) ([]domain.Move, error) {
	return m.list(ctx, "moves.list", pid, func(domain.Move) bool { return true })
}

func (m *fakeMoves) ListCompleted(ctx context.Context, pid string) ([]domain.Move, error) {
	return m.list(ctx, "moves.list_completed", pid, func(mv domain.Move) bool { return mv.IsCompleted })
}

func (m *fakeMoves) ListPending(ctx context.Context, pid string) ([]domain.Move, error) {
	return m.list(ctx, "moves.list_pending", pid, func(mv domain.Move) bool { return !mv.IsCompleted })
}

func (m *fakeMoves) Create(ctx context.Context, in domain.NewMove) (domain.Move, error) {
	if err := m.f.enter(ctx, "moves.create"); err != nil {
		return domain.Move{}, err
	}
	m.f.mu.Lock()
	defer m.f.mu.Unlock()
	now := m.f.now()
	mv := domain.Move{
		Base:        domain.Base{ID: m.f.nextID("mv"), CreatedAt: now, UpdatedAt: now},
		PokemonID:   in.PokemonID,
		Name:        in.Name,
		Description: in.Description,
		Power:       in.Power,
	}
	m.f.moves = append(m.f.moves, mv)
	return domain.CloneMove(mv), nil
}

func (m *fakeMoves) find(id string) int {
	for i, mv := range m.f.moves {
		if mv.ID == id {
			return i
		}
	}
	return -1
}

func (m *fakeMoves) Update(ctx context.Context, id string, patch domain.MovePatch) (domain.Move, error) {
	if err := m.f.enter(ctx, "moves.update"); err != nil {
		return domain.Move{}, err
	}
	m.f.mu.Lock()
	defer m.f.mu.Unlock()
	i := m.find(id)
	if i < 0 {
		return domain.Move{}, &api.Error{Message: "Move not found", StatusCode: 404}
	}
	m.f.moves[i] = patch.Apply(m.f.moves[i])
	return domain.CloneMove(m.f.moves[i]), nil
}

func (m *fakeMoves) Delete(ctx context.Context, id string) error {
	if err := m.f.enter(ctx, "moves.delete"); err != nil {
		return err
	}
	m.f.mu.Lock()
	defer m.f.mu.Unlock()
	i := m.find(id)
	if i < 0 {
		return &api.Error{Message: "Move not found", StatusCode: 404}
	}
	m.f.moves = append(m.f.moves[:i], m.f.moves[i+1:]...)
	return nil
}

func (m *fakeMoves) Complete(ctx context.Context, id string) (domain.Move, error) {
	if err := m.f.enter(ctx, "moves.complete"); err != nil {
		return domain.Move{}, err
	}
	m.f.mu.Lock()
	defer m.f.mu.Unlock()
	i := m.find(id)
	if i < 0 {
		return domain.Move{}, &api.Error{Message: "Move not found", StatusCode: 404}
	}
	now := m.f.now()
	m.f.moves[i].IsCompleted = true
	m.f.moves[i].CompletedAt = &now
	return domain.CloneMove(m.f.moves[i]), nil
}

type fakeAdvisor struct {
	suggestion api.PowerSuggestion
	err        error
	calls      int
}

func (a *fakeAdvisor) SuggestPower(_ context.Context, _ api.PowerRequest) (api.PowerSuggestion, error) {
	a.calls++
	return a.suggestion, a.err
}

type notice struct {
	Kind    ToastKind
	Message string
}

// recordingNotifier captures notifications for assertions.
type recordingNotifier struct {
	mu      sync.Mutex
	notices []notice
	fetches map[string]string
}

func (r *recordingNotifier) Notify(kind ToastKind, msg string) {
	r.mu.Lock()
	r.notices = append(r.notices, notice{kind, msg})
	r.mu.Unlock()
}

func (r *recordingNotifier) FetchStatus(source, errMsg string) {
	r.mu.Lock()
	if r.fetches == nil {
		r.fetches = make(map[string]string)
	}
	r.fetches[source] = errMsg
	r.mu.Unlock()
}

func (r *recordingNotifier) kinds() []ToastKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ToastKind, 0, len(r.notices))
	for _, n := range r.notices {
		out = append(out, n.Kind)
	}
	return out
}

func (r *recordingNotifier) last() notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return notice{}
	}
	return r.notices[len(r.notices)-1]
}

// failingSink records awards and optionally fails them.
type failingSink struct {
	mu     sync.Mutex
	awards map[string]float64
	err    error
}

func (s *failingSink) AwardExperience(_ context.Context, pid string, amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.awards == nil {
		s.awards = make(map[string]float64)
	}
	s.awards[pid] += amount
	return s.err
}

var errSinkDown = errors.New("sink down")
