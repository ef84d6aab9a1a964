package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pokemontodo/internal/api"
	"pokemontodo/pkg/domain"
)

const (
	defaultListLimit = 100
	missingField     = "Field required"
)

type createPokemonRequest struct {
	Name *string `json:"name"`
	Type *string `json:"type"`
}

type updatePokemonRequest struct {
	Name *string `json:"name"`
	Type *string `json:"type"`
}

type createMoveRequest struct {
	PokemonID   *string `json:"pokemon_id"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Power       *int    `json:"power"`
}

type updateMoveRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Power       *int    `json:"power"`
	IsCompleted *bool   `json:"is_completed"`
}

type powerRequest struct {
	MoveName        *string `json:"move_name"`
	MoveDescription *string `json:"move_description"`
	DifficultyLevel *string `json:"difficulty_level"`
}

// pokemonWithMoves is the detail view returned by GET /pokemon/:id.
type pokemonWithMoves struct {
	domain.Pokemon
	Moves []domain.Move `json:"moves"`
}

// bindJSON decodes the body, answering 422 when it is not valid JSON.
func (s *Server) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		issues := FieldIssues{}
		issues.add("body", "json_invalid", err.Error())
		s.fail(c, issues)
		return false
	}
	return true
}

// pathUUID reads a path parameter that must be a UUID.
func (s *Server) pathUUID(c *gin.Context, name string) (string, bool) {
	raw := c.Param(name)
	if _, err := uuid.Parse(raw); err != nil {
		issues := FieldIssues{}
		issues.add(name, "uuid_parsing", "Input should be a valid UUID")
		s.fail(c, issues)
		return "", false
	}
	return raw, true
}

func check(issues FieldIssues, field string, res domain.ValidationResult) {
	if !res.Valid {
		issues.add(field, "value_error", res.Error)
	}
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Welcome to Pokemon TODO API", "version": Version})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) handleListPokemon(c *gin.Context) {
	issues := FieldIssues{}
	skip := queryInt(c, "skip", 0, issues)
	limit := queryInt(c, "limit", defaultListLimit, issues)
	if err := issues.orNil(); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, paginate(s.store.ListPokemon(), skip, limit))
}

func (s *Server) handleGetPokemon(c *gin.Context) {
	id, ok := s.pathUUID(c, "pokemon_id")
	if !ok {
		return
	}
	p, err := s.store.GetPokemon(id)
	if err != nil {
		s.fail(c, err)
		return
	}
	moves, err := s.store.ListMoves(id, AllMoves)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pokemonWithMoves{Pokemon: p, Moves: moves})
}

func (s *Server) handleCreatePokemon(c *gin.Context) {
	var req createPokemonRequest
	if !s.bindJSON(c, &req) {
		return
	}
	issues := FieldIssues{}
	typ := string(domain.TypeNormal)
	if req.Type != nil {
		typ = *req.Type
	}
	if req.Name == nil {
		issues.add("name", "missing", missingField)
	} else {
		check(issues, "name", domain.ValidatePokemonName(*req.Name))
	}
	check(issues, "type", domain.ValidatePokemonType(typ))
	if err := issues.orNil(); err != nil {
		s.fail(c, err)
		return
	}
	p := s.store.CreatePokemon(*req.Name, domain.PokemonType(typ))
	s.log.Info("pokemon created", "id", p.ID, "name", p.Name)
	c.JSON(http.StatusCreated, p)
}

func (s *Server) handleUpdatePokemon(c *gin.Context) {
	id, ok := s.pathUUID(c, "pokemon_id")
	if !ok {
		return
	}
	var req updatePokemonRequest
	if !s.bindJSON(c, &req) {
		return
	}
	patch := domain.PokemonPatch{Name: req.Name}
	if req.Type != nil {
		t := domain.PokemonType(*req.Type)
		patch.Type = &t
	}
	if err := domain.ValidatePokemonPatch(patch); err != nil {
		s.fail(c, issuesFrom(err))
		return
	}
	p, err := s.store.UpdatePokemon(id, patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleDeletePokemon(c *gin.Context) {
	id, ok := s.pathUUID(c, "pokemon_id")
	if !ok {
		return
	}
	if err := s.store.DeletePokemon(id); err != nil {
		s.fail(c, err)
		return
	}
	s.log.Info("pokemon deleted", "id", id)
	c.Status(http.StatusNoContent)
}

func (s *Server) handleAddExperience(c *gin.Context) {
	id, ok := s.pathUUID(c, "pokemon_id")
	if !ok {
		return
	}
	issues := FieldIssues{}
	raw, present := c.GetQuery("experience")
	amount, err := strconv.ParseFloat(raw, 64)
	switch {
	case !present:
		issues.add("experience", "missing", missingField)
	case err != nil:
		issues.add("experience", "float_parsing", "Input should be a valid number")
	}
	if err := issues.orNil(); err != nil {
		s.fail(c, err)
		return
	}
	p, err := s.store.AddExperience(id, amount)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) listMoves(filter MoveFilter) gin.HandlerFunc {
	return func(c *gin.Context) {
		pid, ok := s.pathUUID(c, "pokemon_id")
		if !ok {
			return
		}
		issues := FieldIssues{}
		skip, limit := 0, -1
		if filter == AllMoves {
			skip = queryInt(c, "skip", 0, issues)
			limit = queryInt(c, "limit", defaultListLimit, issues)
		}
		if err := issues.orNil(); err != nil {
			s.fail(c, err)
			return
		}
		moves, err := s.store.ListMoves(pid, filter)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, paginate(moves, skip, limit))
	}
}

func (s *Server) handleGetMove(c *gin.Context) {
	id, ok := s.pathUUID(c, "move_id")
	if !ok {
		return
	}
	m, err := s.store.GetMove(id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) handleCreateMove(c *gin.Context) {
	var req createMoveRequest
	if !s.bindJSON(c, &req) {
		return
	}
	issues := FieldIssues{}
	in := domain.NewMove{Description: req.Description, Power: domain.DefaultMovePower}
	switch {
	case req.PokemonID == nil:
		issues.add("pokemon_id", "missing", missingField)
	default:
		if _, err := uuid.Parse(*req.PokemonID); err != nil {
			issues.add("pokemon_id", "uuid_parsing", "Input should be a valid UUID")
		}
		in.PokemonID = *req.PokemonID
	}
	if req.Name == nil {
		issues.add("name", "missing", missingField)
	} else {
		in.Name = *req.Name
		check(issues, "name", domain.ValidateMoveName(in.Name))
	}
	if req.Power != nil {
		in.Power = *req.Power
	}
	check(issues, "description", domain.ValidateMoveDescription(in.Description))
	check(issues, "power", domain.ValidateMovePower(in.Power))
	if err := issues.orNil(); err != nil {
		s.fail(c, err)
		return
	}
	m, err := s.store.CreateMove(in)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.log.Info("move created", "id", m.ID, "pokemon_id", m.PokemonID, "power", m.Power)
	c.JSON(http.StatusCreated, m)
}

func (s *Server) handleUpdateMove(c *gin.Context) {
	id, ok := s.pathUUID(c, "move_id")
	if !ok {
		return
	}
	var req updateMoveRequest
	if !s.bindJSON(c, &req) {
		return
	}
	patch := domain.MovePatch{
		Name:        req.Name,
		Description: req.Description,
		Power:       req.Power,
		IsCompleted: req.IsCompleted,
	}
	if err := domain.ValidateMovePatch(patch); err != nil {
		s.fail(c, issuesFrom(err))
		return
	}
	m, err := s.store.UpdateMove(id, patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) handleDeleteMove(c *gin.Context) {
	id, ok := s.pathUUID(c, "move_id")
	if !ok {
		return
	}
	if err := s.store.DeleteMove(id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleCompleteMove(c *gin.Context) {
	id, ok := s.pathUUID(c, "move_id")
	if !ok {
		return
	}
	m, err := s.store.CompleteMove(id)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.log.Info("move completed", "id", m.ID, "pokemon_id", m.PokemonID)
	c.JSON(http.StatusOK, m)
}

// handlePower serves both calculate-power and suggest-power. A failing model
// never fails the request; the rule-based estimate answers instead.
func (s *Server) handlePower(c *gin.Context) {
	var body powerRequest
	if !s.bindJSON(c, &body) {
		return
	}
	issues := FieldIssues{}
	req := api.PowerRequest{DifficultyLevel: api.DifficultyMedium}
	if body.MoveName == nil {
		issues.add("move_name", "missing", missingField)
	} else {
		req.MoveName = *body.MoveName
		check(issues, "move_name", domain.ValidateMoveName(req.MoveName))
	}
	if body.MoveDescription != nil {
		req.MoveDescription = *body.MoveDescription
		check(issues, "move_description", domain.ValidateMoveDescription(body.MoveDescription))
	}
	if body.DifficultyLevel != nil {
		req.DifficultyLevel = *body.DifficultyLevel
	}
	switch req.DifficultyLevel {
	case api.DifficultyEasy, api.DifficultyMedium, api.DifficultyHard:
	default:
		issues.add("difficulty_level", "string_pattern_mismatch", "String should match pattern '^(easy|medium|hard)$'")
	}
	if err := issues.orNil(); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.estimatePower(c.Request.Context(), req))
}

func (s *Server) estimatePower(ctx context.Context, req api.PowerRequest) api.PowerSuggestion {
	if s.model == nil {
		return FallbackPower(req.MoveName, req.MoveDescription)
	}
	out, err := s.model.CalculatePower(ctx, req)
	if err == nil {
		if res := domain.ValidateMovePower(out.Power); !res.Valid {
			err = domain.ValidationErrors{"power": res.Error}
		}
	}
	if err != nil {
		s.log.Warn("power model failed, using fallback", "move", req.MoveName, "error", err)
		return FallbackPower(req.MoveName, req.MoveDescription)
	}
	out.DifficultyScore = clamp(out.DifficultyScore, 1, 10)
	if out.EstimatedTime == "" {
		out.EstimatedTime = EstimatedTime(out.Power)
	}
	out.AIGenerated = true
	return out
}

func (s *Server) handleAIHealth(c *gin.Context) {
	if s.model == nil {
		c.JSON(http.StatusOK, api.AIHealth{Status: "unavailable", Error: "no AI model configured"})
		return
	}
	h, err := s.model.Health(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusOK, api.AIHealth{Status: "error", Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, h)
}

func (s *Server) handleNoRoute(c *gin.Context) {
	s.abort(c, http.StatusNotFound, "Not Found", nil, codeNotFound)
}

// issuesFrom converts client-side validation errors into FieldIssues.
func issuesFrom(err error) error {
	verrs, ok := err.(domain.ValidationErrors)
	if !ok {
		return err
	}
	issues := FieldIssues{}
	for field, msg := range verrs {
		issues.add(field, "value_error", msg)
	}
	return issues
}

func queryInt(c *gin.Context, name string, def int, issues FieldIssues) int {
	raw, ok := c.GetQuery(name)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		issues.add(name, "int_parsing", "Input should be a valid non-negative integer")
		return def
	}
	return n
}

// paginate applies skip and limit; a negative limit means no limit.
func paginate[T any](items []T, skip, limit int) []T {
	if skip >= len(items) {
		return []T{}
	}
	items = items[skip:]
	if limit >= 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
