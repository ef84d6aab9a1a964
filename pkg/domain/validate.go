package domain

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Field limits enforced by both the client validators and the backend.
const (
	MaxNameLength        = 100
	MaxDescriptionLength = 500
	MinMovePower         = 1
	MaxMovePower         = 100
)

// ErrValidation is matched by errors.Is for every ValidationErrors value.
var ErrValidation = errors.New("validation failed")

// ValidationResult is the outcome of a single field check.
type ValidationResult struct {
	Valid bool
	Error string
}

var passed = ValidationResult{Valid: true}

func invalid(format string, args ...any) ValidationResult {
	return ValidationResult{Error: fmt.Sprintf(format, args...)}
}

// ValidationErrors maps field names to their first failing message.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is lets errors.Is(err, ErrValidation) match.
func (v ValidationErrors) Is(target error) bool { return target == ErrValidation }

// ValidatePokemonName requires 1..100 characters after trimming.
func ValidatePokemonName(name string) ValidationResult {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return invalid("Pokemon name is required")
	}
	if utf8.RuneCountInString(trimmed) > MaxNameLength {
		return invalid("Pokemon name cannot exceed %d characters", MaxNameLength)
	}
	return passed
}

// ValidatePokemonType requires one of the canonical types.
func ValidatePokemonType(t string) ValidationResult {
	if t == "" {
		return invalid("Pokemon type is required")
	}
	if !PokemonType(t).Valid() {
		names := make([]string, len(PokemonTypes))
		for i, pt := range PokemonTypes {
			names[i] = string(pt)
		}
		return invalid("Invalid Pokemon type. Must be one of: %s", strings.Join(names, ", "))
	}
	return passed
}

// ValidateMoveName requires 1..100 characters after trimming.
func ValidateMoveName(name string) ValidationResult {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return invalid("Move name is required")
	}
	if utf8.RuneCountInString(trimmed) > MaxNameLength {
		return invalid("Move name cannot exceed %d characters", MaxNameLength)
	}
	return passed
}

// ValidateMoveDescription accepts nil or up to 500 characters.
func ValidateMoveDescription(description *string) ValidationResult {
	if description == nil {
		return passed
	}
	if utf8.RuneCountInString(strings.TrimSpace(*description)) > MaxDescriptionLength {
		return invalid("Description cannot exceed %d characters", MaxDescriptionLength)
	}
	return passed
}

// ValidateMovePower requires an integer in [1, 100].
func ValidateMovePower(power int) ValidationResult {
	if power < MinMovePower {
		return invalid("Power must be at least %d", MinMovePower)
	}
	if power > MaxMovePower {
		return invalid("Power cannot exceed %d", MaxMovePower)
	}
	return passed
}

// ParseMovePower converts raw text input and validates the result.
func ParseMovePower(raw string) (int, ValidationResult) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, invalid("Power must be a valid number")
	}
	return n, ValidateMovePower(n)
}

// ValidateRange checks value lies within [min, max].
func ValidateRange(value, min, max float64, field string) ValidationResult {
	if value < min || value > max {
		return invalid("%s must be between %g and %g", field, min, max)
	}
	return passed
}

// ValidateForm runs one validator per field and collects the failures.
// It returns nil when every field is valid.
func ValidateForm(checks map[string]func() ValidationResult) ValidationErrors {
	var errs ValidationErrors
	for field, check := range checks {
		if res := check(); !res.Valid {
			if errs == nil {
				errs = ValidationErrors{}
			}
			msg := res.Error
			if msg == "" {
				msg = "Invalid value"
			}
			errs[field] = msg
		}
	}
	return errs
}

// ValidateNewPokemon checks a create request.
func ValidateNewPokemon(in NewPokemon) error {
	if errs := ValidateForm(map[string]func() ValidationResult{
		"name": func() ValidationResult { return ValidatePokemonName(in.Name) },
		"type": func() ValidationResult { return ValidatePokemonType(string(in.Type)) },
	}); errs != nil {
		return errs
	}
	return nil
}

// ValidateNewMove checks a create request.
func ValidateNewMove(in NewMove) error {
	checks := map[string]func() ValidationResult{
		"name":        func() ValidationResult { return ValidateMoveName(in.Name) },
		"description": func() ValidationResult { return ValidateMoveDescription(in.Description) },
		"power":       func() ValidationResult { return ValidateMovePower(in.Power) },
	}
	if strings.TrimSpace(in.PokemonID) == "" {
		checks["pokemon_id"] = func() ValidationResult { return invalid("Pokemon is required") }
	}
	if errs := ValidateForm(checks); errs != nil {
		return errs
	}
	return nil
}

// ValidatePokemonPatch checks only the fields present in the patch.
func ValidatePokemonPatch(p PokemonPatch) error {
	checks := map[string]func() ValidationResult{}
	if p.Name != nil {
		checks["name"] = func() ValidationResult { return ValidatePokemonName(*p.Name) }
	}
	if p.Type != nil {
		checks["type"] = func() ValidationResult { return ValidatePokemonType(string(*p.Type)) }
	}
	if errs := ValidateForm(checks); errs != nil {
		return errs
	}
	return nil
}

// ValidateMovePatch checks only the fields present in the patch.
func ValidateMovePatch(p MovePatch) error {
	checks := map[string]func() ValidationResult{}
	if p.Name != nil {
		checks["name"] = func() ValidationResult { return ValidateMoveName(*p.Name) }
	}
	if p.Description != nil {
		checks["description"] = func() ValidationResult { return ValidateMoveDescription(p.Description) }
	}
	if p.Power != nil {
		checks["power"] = func() ValidationResult { return ValidateMovePower(*p.Power) }
	}
	if errs := ValidateForm(checks); errs != nil {
		return errs
	}
	return nil
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	htmlTag       = regexp.MustCompile(`<[^>]*>`)
)

// SanitizeInput trims, collapses whitespace runs and strips HTML tags.
func SanitizeInput(input string) string {
	s := whitespaceRun.ReplaceAllString(strings.TrimSpace(input), " ")
	return htmlTag.ReplaceAllString(s, "")
}

// FormatPokemonName trims and collapses whitespace without changing case,
// so non-Latin names survive untouched.
func FormatPokemonName(name string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(name), " ")
}
