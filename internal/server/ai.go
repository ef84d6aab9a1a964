package server

import (
	"context"
	"strings"
	"unicode/utf8"

	"pokemontodo/internal/api"
)

// FallbackReasoning explains a rule-based power estimate.
const FallbackReasoning = "Calculated using fallback rule-based system due to AI service unavailability"

// PowerModel is an optional model behind the /ai endpoints. When it is absent
// or fails, the server answers with FallbackPower.
type PowerModel interface {
	CalculatePower(ctx context.Context, req api.PowerRequest) (api.PowerSuggestion, error)
	Health(ctx context.Context) (api.AIHealth, error)
}

var (
	complexKeywords = []string{
		"develop", "build", "create", "design", "implement",
		"research", "analyze", "optimize", "refactor", "project",
	}
	simpleKeywords = []string{"fix", "update", "check", "review", "call", "email", "buy", "clean"}
)

// FallbackPower estimates a Move's power from its name length and the first
// matching complex or simple keyword.
func FallbackPower(name, description string) api.PowerSuggestion {
	power := 50
	switch n := utf8.RuneCountInString(name); {
	case n > 30:
		power += 10
	case n < 10:
		power -= 10
	}
	text := strings.ToLower(name + " " + description)
	if containsAny(text, complexKeywords) {
		power += 15
	}
	if containsAny(text, simpleKeywords) {
		power -= 15
	}
	power = clamp(power, 1, 100)
	return api.PowerSuggestion{
		Power:           power,
		DifficultyScore: clamp(power/10, 1, 10),
		Reasoning:       FallbackReasoning,
		EstimatedTime:   EstimatedTime(power),
		AIGenerated:     false,
	}
}

// EstimatedTime buckets a power into a human time range.
func EstimatedTime(power int) string {
	switch {
	case power <= 20:
		return "< 30 minutes"
	case power <= 40:
		return "30 minutes - 2 hours"
	case power <= 60:
		return "2-6 hours"
	case power <= 80:
		return "6+ hours"
	default:
		return "Multiple days"
	}
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
