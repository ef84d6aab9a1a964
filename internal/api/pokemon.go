package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"pokemontodo/pkg/domain"
)

// PokemonAPI wraps the /pokemon endpoints.
type PokemonAPI struct{ c *Client }

// List returns every Pokemon.
func (p *PokemonAPI) List(ctx context.Context) ([]domain.Pokemon, error) {
	var out []domain.Pokemon
	if err := p.c.do(ctx, http.MethodGet, "/pokemon", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one Pokemon by id.
func (p *PokemonAPI) Get(ctx context.Context, id string) (domain.Pokemon, error) {
	var out domain.Pokemon
	err := p.c.do(ctx, http.MethodGet, "/pokemon/"+pathID(id), nil, nil, &out)
	return out, err
}

// Create posts a new Pokemon and returns the server record.
func (p *PokemonAPI) Create(ctx context.Context, in domain.NewPokemon) (domain.Pokemon, error) {
	var out domain.Pokemon
	err := p.c.do(ctx, http.MethodPost, "/pokemon", nil, in, &out)
	return out, err
}

// Update sends a partial update.
func (p *PokemonAPI) Update(ctx context.Context, id string, patch domain.PokemonPatch) (domain.Pokemon, error) {
	var out domain.Pokemon
	err := p.c.do(ctx, http.MethodPut, "/pokemon/"+pathID(id), nil, patch, &out)
	return out, err
}

// Delete removes a Pokemon. The backend cascades to its Moves.
func (p *PokemonAPI) Delete(ctx context.Context, id string) error {
	return p.c.do(ctx, http.MethodDelete, "/pokemon/"+pathID(id), nil, nil, nil)
}

// AddExperience grants experience and returns the server-computed Pokemon.
func (p *PokemonAPI) AddExperience(ctx context.Context, id string, amount float64) (domain.Pokemon, error) {
	var out domain.Pokemon
	q := url.Values{"experience": []string{strconv.FormatFloat(amount, 'f', -1, 64)}}
	err := p.c.do(ctx, http.MethodPost, "/pokemon/"+pathID(id)+"/add-experience", q, nil, &out)
	return out, err
}
