package commands

import (
	"context"
	"errors"

	"pokemontodo/internal/core"
	"pokemontodo/pkg/domain"
)

// pokemonByID returns the Pokemon with id, refreshing the collection when
// the cached copy does not know it.
func pokemonByID(ctx context.Context, app *core.App, id string) (domain.Pokemon, error) {
	if p, ok := app.Pokemon.Get(id); ok {
		return p, nil
	}
	if err := app.Pokemon.FetchAll(ctx, true); err != nil {
		return domain.Pokemon{}, err
	}
	if p, ok := app.Pokemon.Get(id); ok {
		return p, nil
	}
	return domain.Pokemon{}, core.ErrNotFound{Entity: domain.EntityPokemon, ID: id}
}

// ownerID picks the --pokemon flag or falls back to the selected Pokemon.
func ownerID(app *core.App, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if sel := app.Pokemon.Selected(); sel != nil {
		return sel.ID, nil
	}
	return "", errors.New("no Pokemon given: pass --pokemon or run `pokemontodo pokemon select <id>`")
}

// moveByID locates a Move in the cached buckets, loading the bucket of
// pokemonID when it is not there yet.
func moveByID(ctx context.Context, app *core.App, id, pokemonID string) (domain.Move, error) {
	if m, ok := app.Moves.Get(id); ok {
		return m, nil
	}
	if pokemonID == "" {
		if sel := app.Pokemon.Selected(); sel != nil {
			pokemonID = sel.ID
		}
	}
	if pokemonID != "" {
		if _, err := pokemonByID(ctx, app, pokemonID); err != nil {
			return domain.Move{}, err
		}
		if err := app.Moves.FetchByPokemon(ctx, pokemonID, true); err != nil {
			return domain.Move{}, err
		}
		if m, ok := app.Moves.Get(id); ok {
			return m, nil
		}
	}
	return domain.Move{}, core.ErrNotFound{Entity: domain.EntityMove, ID: id}
}
