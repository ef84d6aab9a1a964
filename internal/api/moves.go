package api

import (
	"context"
	"net/http"

	"pokemontodo/pkg/domain"
)

// MovesAPI wraps the /moves endpoints.
type MovesAPI struct{ c *Client }

// ListByPokemon returns every Move owned by pokemonID.
func (m *MovesAPI) ListByPokemon(ctx context.Context, pokemonID string) ([]domain.Move, error) {
	return m.list(ctx, "/moves/pokemon/"+pathID(pokemonID))
}

// ListCompleted returns the completed Moves owned by pokemonID.
func (m *MovesAPI) ListCompleted(ctx context.Context, pokemonID string) ([]domain.Move, error) {
	return m.list(ctx, "/moves/pokemon/"+pathID(pokemonID)+"/completed")
}

// ListPending returns the open Moves owned by pokemonID.
func (m *MovesAPI) ListPending(ctx context.Context, pokemonID string) ([]domain.Move, error) {
	return m.list(ctx, "/moves/pokemon/"+pathID(pokemonID)+"/pending")
}

func (m *MovesAPI) list(ctx context.Context, path string) ([]domain.Move, error) {
	var out []domain.Move
	if err := m.c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one Move by id.
func (m *MovesAPI) Get(ctx context.Context, id string) (domain.Move, error) {
	var out domain.Move
	err := m.c.do(ctx, http.MethodGet, "/moves/"+pathID(id), nil, nil, &out)
	return out, err
}

// Create posts a new Move.
func (m *MovesAPI) Create(ctx context.Context, in domain.NewMove) (domain.Move, error) {
	var out domain.Move
	err := m.c.do(ctx, http.MethodPost, "/moves", nil, in, &out)
	return out, err
}

// Update sends a partial update.
func (m *MovesAPI) Update(ctx context.Context, id string, patch domain.MovePatch) (domain.Move, error) {
	var out domain.Move
	err := m.c.do(ctx, http.MethodPut, "/moves/"+pathID(id), nil, patch, &out)
	return out, err
}

// Delete removes a Move.
func (m *MovesAPI) Delete(ctx context.Context, id string) error {
	return m.c.do(ctx, http.MethodDelete, "/moves/"+pathID(id), nil, nil, nil)
}

// Complete marks a Move completed; the server stamps CompletedAt.
func (m *MovesAPI) Complete(ctx context.Context, id string) (domain.Move, error) {
	var out domain.Move
	err := m.c.do(ctx, http.MethodPost, "/moves/"+pathID(id)+"/complete", nil, nil, &out)
	return out, err
}
