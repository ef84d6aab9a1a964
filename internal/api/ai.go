package api

import (
	"context"
	"net/http"
)

// Difficulty hints accepted by the power endpoints.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// PowerRequest is the body of the calculate/suggest power endpoints.
type PowerRequest struct {
	MoveName        string `json:"move_name"`
	MoveDescription string `json:"move_description,omitempty"`
	DifficultyLevel string `json:"difficulty_level,omitempty"`
}

// PowerSuggestion is the power estimate returned by the backend. AIGenerated
// is false when the backend used its rule-based fallback.
type PowerSuggestion struct {
	Power           int    `json:"power"`
	DifficultyScore int    `json:"difficulty_score"`
	Reasoning       string `json:"reasoning"`
	EstimatedTime   string `json:"estimated_time"`
	AIGenerated     bool   `json:"ai_generated"`
}

// AIHealth reports the availability of the model behind the AI endpoints.
type AIHealth struct {
	Status                  string   `json:"status"`
	AvailableModels         []string `json:"available_models,omitempty"`
	PreferredModelAvailable *bool    `json:"preferred_model_available,omitempty"`
	Error                   string   `json:"error,omitempty"`
}

// AIAPI wraps the /ai endpoints.
type AIAPI struct{ c *Client }

// CalculatePower asks the backend for a full power analysis.
func (a *AIAPI) CalculatePower(ctx context.Context, req PowerRequest) (PowerSuggestion, error) {
	return a.power(ctx, "/ai/calculate-power", req)
}

// SuggestPower is the lightweight variant used by move forms.
func (a *AIAPI) SuggestPower(ctx context.Context, req PowerRequest) (PowerSuggestion, error) {
	return a.power(ctx, "/ai/suggest-power", req)
}

func (a *AIAPI) power(ctx context.Context, path string, req PowerRequest) (PowerSuggestion, error) {
	if req.DifficultyLevel == "" {
		req.DifficultyLevel = DifficultyMedium
	}
	var out PowerSuggestion
	err := a.c.do(ctx, http.MethodPost, path, nil, req, &out)
	return out, err
}

// Health returns the AI service status.
func (a *AIAPI) Health(ctx context.Context) (AIHealth, error) {
	var out AIHealth
	err := a.c.do(ctx, http.MethodGet, "/ai/health", nil, nil, &out)
	return out, err
}
