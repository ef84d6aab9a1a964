package core

import (
	"context"
	"errors"
	"fmt"

	"pokemontodo/internal/api"
	"pokemontodo/pkg/domain"
)

// PokemonBackend is the remote side of PokemonStore. *api.PokemonAPI
// satisfies it.
type PokemonBackend interface {
	List(ctx context.Context) ([]domain.Pokemon, error)
	Create(ctx context.Context, in domain.NewPokemon) (domain.Pokemon, error)
	Update(ctx context.Context, id string, patch domain.PokemonPatch) (domain.Pokemon, error)
	Delete(ctx context.Context, id string) error
	AddExperience(ctx context.Context, id string, amount float64) (domain.Pokemon, error)
}

// MoveBackend is the remote side of MoveStore. *api.MovesAPI satisfies it.
type MoveBackend interface {
	ListByPokemon(ctx context.Context, pokemonID string) ([]domain.Move, error)
	ListCompleted(ctx context.Context, pokemonID string) ([]domain.Move, error)
	ListPending(ctx context.Context, pokemonID string) ([]domain.Move, error)
	Create(ctx context.Context, in domain.NewMove) (domain.Move, error)
	Update(ctx context.Context, id string, patch domain.MovePatch) (domain.Move, error)
	Delete(ctx context.Context, id string) error
	Complete(ctx context.Context, id string) (domain.Move, error)
}

// PowerAdvisor suggests a power for a Move. *api.AIAPI satisfies it.
type PowerAdvisor interface {
	SuggestPower(ctx context.Context, req api.PowerRequest) (api.PowerSuggestion, error)
}

// ExperienceSink receives the reward for a confirmed Move completion.
// PokemonStore implements it; MoveStore only knows this interface.
type ExperienceSink interface {
	AwardExperience(ctx context.Context, pokemonID string, amount float64) error
}

// Notifier receives user-facing notifications from the stores. UIStore
// implements it.
type Notifier interface {
	Notify(kind ToastKind, message string)
	// FetchStatus reports the outcome of a collection fetch; an empty errMsg
	// means the source recovered.
	FetchStatus(source, errMsg string)
}

type nopNotifier struct{}

func (nopNotifier) Notify(ToastKind, string)   {}
func (nopNotifier) FetchStatus(string, string) {}

// NopNotifier discards every notification.
var NopNotifier Notifier = nopNotifier{}

// Backends groups the remote collaborators of an App.
type Backends struct {
	Pokemon PokemonBackend
	Moves   MoveBackend
	AI      PowerAdvisor
}

// BackendsFromClient wires every backend to the REST client.
func BackendsFromClient(c *api.Client) Backends {
	return Backends{Pokemon: c.Pokemon(), Moves: c.Moves(), AI: c.AI()}
}

var (
	// ErrPokemonNotFound matches ErrNotFound for Pokemon ids.
	ErrPokemonNotFound = errors.New("pokemon not found")
	// ErrMoveNotFound matches ErrNotFound for Move ids.
	ErrMoveNotFound = errors.New("move not found")
	// ErrInvalidExperience rejects awards that are negative, NaN or infinite.
	ErrInvalidExperience = fmt.Errorf("%w: experience must be a finite number of at least 0", domain.ErrValidation)
)

// ErrNotFound is returned when an action names an id absent from the store.
type ErrNotFound struct {
	Entity domain.EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e ErrNotFound) Is(target error) bool {
	switch target {
	case ErrPokemonNotFound:
		return e.Entity == domain.EntityPokemon
	case ErrMoveNotFound:
		return e.Entity == domain.EntityMove
	}
	return false
}

// userMessage is the text recorded in a store's error slot and shown in toasts.
func userMessage(err error) string {
	var nf ErrNotFound
	if errors.As(err, &nf) {
		return nf.Error()
	}
	return api.UserMessage(err)
}
