package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"pokemontodo/internal/api"
	"pokemontodo/internal/core"
	"pokemontodo/pkg/domain"
)

// Tools holds the application context shared by every tool handler.
type Tools struct {
	App *core.App
	Log *slog.Logger
}

// --- Input types ---

type ListPokemonInput struct {
	Force bool `json:"force,omitempty" jsonschema:"Bypass the fetch cache and reload from the backend"`
}

type CreatePokemonInput struct {
	Name string `json:"name" jsonschema:"Pokemon name, 1 to 100 characters"`
	Type string `json:"type,omitempty" jsonschema:"Pokemon type such as fire or water; defaults to normal"`
}

type AddExperienceInput struct {
	PokemonID string  `json:"pokemon_id" jsonschema:"Id of the Pokemon to reward"`
	Amount    float64 `json:"amount" jsonschema:"Experience to add, zero or more"`
}

type PokemonIDInput struct {
	PokemonID string `json:"pokemon_id" jsonschema:"Id of the Pokemon"`
}

type ListMovesInput struct {
	PokemonID string `json:"pokemon_id" jsonschema:"Id of the Pokemon whose Moves to list"`
	Filter    string `json:"filter,omitempty" jsonschema:"all, completed or pending; defaults to all"`
	Force     bool   `json:"force,omitempty" jsonschema:"Bypass the fetch cache and reload from the backend"`
}

type CreateMoveInput struct {
	PokemonID   string `json:"pokemon_id" jsonschema:"Id of the owning Pokemon"`
	Name        string `json:"name" jsonschema:"Task name, 1 to 100 characters"`
	Description string `json:"description,omitempty" jsonschema:"Optional details, at most 500 characters"`
	Power       int    `json:"power,omitempty" jsonschema:"Power 1 to 100; omit to ask the AI assistant"`
}

type MoveRefInput struct {
	PokemonID string `json:"pokemon_id,omitempty" jsonschema:"Id of the owning Pokemon; needed when the Move was not listed yet"`
	MoveID    string `json:"move_id" jsonschema:"Id of the Move"`
}

type SuggestPowerInput struct {
	MoveName        string `json:"move_name" jsonschema:"Task name to estimate"`
	MoveDescription string `json:"move_description,omitempty" jsonschema:"Optional task details"`
	DifficultyLevel string `json:"difficulty_level,omitempty" jsonschema:"easy, medium or hard; defaults to medium"`
}

// --- Handlers ---

func (t *Tools) ListPokemon(ctx context.Context, _ *mcp.CallToolRequest, input ListPokemonInput) (*mcp.CallToolResult, any, error) {
	if err := t.App.Pokemon.FetchAll(ctx, input.Force); err != nil {
		return toolError("Failed to list Pokemon: %s", describe(err)), nil, nil
	}
	return toolJSON(t.App.Pokemon.List())
}

func (t *Tools) CreatePokemon(ctx context.Context, _ *mcp.CallToolRequest, input CreatePokemonInput) (*mcp.CallToolResult, any, error) {
	name := domain.FormatPokemonName(domain.SanitizeInput(input.Name))
	typ := domain.TypeNormal
	if strings.TrimSpace(input.Type) != "" {
		parsed, err := domain.ParsePokemonType(input.Type)
		if err != nil {
			return toolError("Invalid Pokemon: %s", describe(err)), nil, nil
		}
		typ = parsed
	}
	if err := domain.ValidateNewPokemon(domain.NewPokemon{Name: name, Type: typ}); err != nil {
		return toolError("Invalid Pokemon: %s", describe(err)), nil, nil
	}
	p, err := t.App.Pokemon.Create(ctx, name, typ)
	if err != nil {
		return toolError("Failed to create Pokemon: %s", describe(err)), nil, nil
	}
	t.save(ctx)
	return toolJSON(p)
}

func (t *Tools) AddExperience(ctx context.Context, _ *mcp.CallToolRequest, input AddExperienceInput) (*mcp.CallToolResult, any, error) {
	if input.PokemonID == "" {
		return toolError("pokemon_id is required"), nil, nil
	}
	if err := t.ensurePokemon(ctx, input.PokemonID); err != nil {
		return toolError("%s", describe(err)), nil, nil
	}
	p, err := t.App.Pokemon.AddExperience(ctx, input.PokemonID, input.Amount)
	if err != nil {
		return toolError("Failed to add experience: %s", describe(err)), nil, nil
	}
	t.save(ctx)
	return toolJSON(p)
}

func (t *Tools) DeletePokemon(ctx context.Context, _ *mcp.CallToolRequest, input PokemonIDInput) (*mcp.CallToolResult, any, error) {
	if input.PokemonID == "" {
		return toolError("pokemon_id is required"), nil, nil
	}
	if err := t.ensurePokemon(ctx, input.PokemonID); err != nil {
		return toolError("%s", describe(err)), nil, nil
	}
	if err := t.App.Pokemon.Delete(ctx, input.PokemonID); err != nil {
		return toolError("Failed to delete Pokemon: %s", describe(err)), nil, nil
	}
	t.save(ctx)
	return toolText(fmt.Sprintf("Deleted Pokemon %s and its Moves", input.PokemonID)), nil, nil
}

func (t *Tools) ListMoves(ctx context.Context, _ *mcp.CallToolRequest, input ListMovesInput) (*mcp.CallToolResult, any, error) {
	if input.PokemonID == "" {
		return toolError("pokemon_id is required"), nil, nil
	}
	var (
		moves []domain.Move
		err   error
	)
	switch input.Filter {
	case "", "all":
		if err = t.App.Moves.FetchByPokemon(ctx, input.PokemonID, input.Force); err == nil {
			moves = t.App.Moves.Moves(input.PokemonID)
		}
	case "completed":
		moves, err = t.App.Moves.FetchCompleted(ctx, input.PokemonID)
	case "pending":
		moves, err = t.App.Moves.FetchPending(ctx, input.PokemonID)
	default:
		return toolError("Unknown filter %q (use all, completed or pending)", input.Filter), nil, nil
	}
	if err != nil {
		return toolError("Failed to list Moves: %s", describe(err)), nil, nil
	}
	if moves == nil {
		moves = []domain.Move{}
	}
	return toolJSON(moves)
}

func (t *Tools) CreateMove(ctx context.Context, _ *mcp.CallToolRequest, input CreateMoveInput) (*mcp.CallToolResult, any, error) {
	in := domain.NewMove{
		PokemonID: input.PokemonID,
		Name:      domain.SanitizeInput(input.Name),
		Power:     input.Power,
	}
	if d := domain.SanitizeInput(input.Description); d != "" {
		in.Description = &d
	}
	if in.Power == 0 && in.Name != "" {
		s, _ := t.App.SuggestPower(ctx, api.PowerRequest{MoveName: in.Name, MoveDescription: input.Description})
		in.Power = s.Power
	}
	if err := domain.ValidateNewMove(in); err != nil {
		return toolError("Invalid Move: %s", describe(err)), nil, nil
	}
	m, err := t.App.Moves.Create(ctx, in)
	if err != nil {
		return toolError("Failed to create Move: %s", describe(err)), nil, nil
	}
	t.save(ctx)
	return toolJSON(m)
}

func (t *Tools) CompleteMove(ctx context.Context, _ *mcp.CallToolRequest, input MoveRefInput) (*mcp.CallToolResult, any, error) {
	if err := t.ensureMove(ctx, input); err != nil {
		return toolError("%s", describe(err)), nil, nil
	}
	m, err := t.App.Moves.Complete(ctx, input.MoveID)
	if err != nil {
		return toolError("Failed to complete Move: %s", describe(err)), nil, nil
	}
	t.save(ctx)
	out := struct {
		Move    domain.Move    `json:"move"`
		Pokemon domain.Pokemon `json:"pokemon"`
		Reward  float64        `json:"experience_reward"`
	}{Move: m, Reward: domain.ExperienceReward(m.Power)}
	out.Pokemon, _ = t.App.Pokemon.Get(m.PokemonID)
	return toolJSON(out)
}

func (t *Tools) DeleteMove(ctx context.Context, _ *mcp.CallToolRequest, input MoveRefInput) (*mcp.CallToolResult, any, error) {
	if err := t.ensureMove(ctx, input); err != nil {
		return toolError("%s", describe(err)), nil, nil
	}
	if err := t.App.Moves.Delete(ctx, input.MoveID); err != nil {
		return toolError("Failed to delete Move: %s", describe(err)), nil, nil
	}
	t.save(ctx)
	return toolText(fmt.Sprintf("Deleted Move %s", input.MoveID)), nil, nil
}

func (t *Tools) SuggestPower(ctx context.Context, _ *mcp.CallToolRequest, input SuggestPowerInput) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(input.MoveName) == "" {
		return toolError("move_name is required"), nil, nil
	}
	s, ok := t.App.SuggestPower(ctx, api.PowerRequest{
		MoveName:        input.MoveName,
		MoveDescription: input.MoveDescription,
		DifficultyLevel: input.DifficultyLevel,
	})
	return toolJSON(struct {
		api.PowerSuggestion
		Available bool `json:"available"`
	}{s, ok})
}

// ensurePokemon loads the collection (honouring the cache) so store actions
// can find id.
func (t *Tools) ensurePokemon(ctx context.Context, id string) error {
	if _, ok := t.App.Pokemon.Get(id); ok {
		return nil
	}
	if err := t.App.Pokemon.FetchAll(ctx, true); err != nil {
		return err
	}
	if _, ok := t.App.Pokemon.Get(id); !ok {
		return core.ErrNotFound{Entity: domain.EntityPokemon, ID: id}
	}
	return nil
}

func (t *Tools) ensureMove(ctx context.Context, ref MoveRefInput) error {
	if ref.MoveID == "" {
		return errors.New("move_id is required")
	}
	if _, ok := t.App.Moves.Get(ref.MoveID); ok {
		return nil
	}
	if ref.PokemonID == "" {
		return core.ErrNotFound{Entity: domain.EntityMove, ID: ref.MoveID}
	}
	if err := t.ensurePokemon(ctx, ref.PokemonID); err != nil {
		return err
	}
	if err := t.App.Moves.FetchByPokemon(ctx, ref.PokemonID, true); err != nil {
		return err
	}
	if _, ok := t.App.Moves.Get(ref.MoveID); !ok {
		return core.ErrNotFound{Entity: domain.EntityMove, ID: ref.MoveID}
	}
	return nil
}

func (t *Tools) save(ctx context.Context) {
	if err := t.App.Save(ctx); err != nil && t.Log != nil {
		t.Log.Warn("save client state failed", "error", err)
	}
}

func describe(err error) string {
	var verrs domain.ValidationErrors
	if errors.As(err, &verrs) {
		return verrs.Error()
	}
	var nf core.ErrNotFound
	if errors.As(err, &nf) {
		return nf.Error()
	}
	return api.UserMessage(err)
}

// --- Result helpers ---

func toolText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func toolError(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError("Failed to marshal result: %v", err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}
