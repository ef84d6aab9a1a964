package core

import (
	"context"
	"errors"
	"time"

	"pokemontodo/internal/api"
	"pokemontodo/internal/infra/persistence/memory"
	"pokemontodo/pkg/domain"
)

// AppConfig tunes the stores built by NewApp. Zero values select defaults.
type AppConfig struct {
	PokemonTTL time.Duration
	MovesTTL   time.Duration
	// SystemPrefersDark seeds the theme when nothing is persisted.
	SystemPrefersDark bool
}

// App is the application context: it owns one instance of every store and
// wires their cross-store effects. Front ends build one App per session;
// nothing here is global.
type App struct {
	Pokemon *PokemonStore
	Moves   *MoveStore
	UI      *UIStore

	ai        PowerAdvisor
	storage   domain.StateStorage
	persister *Persister
	cfg       AppConfig
	obs       observer
}

// NewApp builds the stores on top of backends. storage holds persisted client
// state; nil keeps it in memory for the lifetime of the App.
func NewApp(backends Backends, storage domain.StateStorage, cfg AppConfig, theme ThemeTarget, opts ...StoreOption) *App {
	if storage == nil {
		storage = memory.NewStore()
	}
	obs := buildObserver(opts)
	ui := NewUIStore(storage, theme, opts...)
	pokemon := NewPokemonStore(backends.Pokemon, ui, cfg.PokemonTTL, opts...)
	moves := NewMoveStore(backends.Moves, pokemon, ui, cfg.MovesTTL, opts...)
	pokemon.OnDelete(moves.ClearPokemon)
	return &App{
		Pokemon:   pokemon,
		Moves:     moves,
		UI:        ui,
		ai:        backends.AI,
		storage:   storage,
		persister: NewPersister(storage, pokemon, moves, obs.log),
		cfg:       cfg,
		obs:       obs,
	}
}

// Load restores persisted entity state and the theme.
func (a *App) Load(ctx context.Context) error {
	if err := a.persister.Load(ctx); err != nil {
		return err
	}
	_, err := a.UI.InitTheme(ctx, a.cfg.SystemPrefersDark)
	return err
}

// Save persists the entity stores.
func (a *App) Save(ctx context.Context) error { return a.persister.Save(ctx) }

// Reset forgets persisted entity state and empties the stores.
func (a *App) Reset(ctx context.Context) error {
	a.Pokemon.Restore(PokemonState{})
	a.Moves.Clear()
	return a.persister.Reset(ctx)
}

// Close saves state and releases the storage backend.
func (a *App) Close(ctx context.Context) error {
	a.UI.ClearToasts()
	return errors.Join(a.Save(ctx), a.storage.Close())
}

// Storage exposes the backing StateStorage.
func (a *App) Storage() domain.StateStorage { return a.storage }

// SuggestPower asks the AI advisor for a Move power. When the advisor is
// missing or fails, it returns DefaultMovePower with ok=false so the caller
// can fall back to manual entry.
func (a *App) SuggestPower(ctx context.Context, req api.PowerRequest) (api.PowerSuggestion, bool) {
	fallback := api.PowerSuggestion{Power: domain.DefaultMovePower}
	if a.ai == nil {
		return fallback, false
	}
	var out api.PowerSuggestion
	err := a.obs.run(ctx, "ai.suggest_power", func(ctx context.Context) error {
		s, err := a.ai.SuggestPower(ctx, req)
		if err != nil {
			return err
		}
		if res := domain.ValidateMovePower(s.Power); !res.Valid {
			return domain.ValidationErrors{"power": res.Error}
		}
		out = s
		return nil
	})
	if err != nil {
		a.UI.Notify(ToastWarning, "AI power suggestion unavailable. Please enter a power manually.")
		return fallback, false
	}
	return out, true
}
