// Package domain defines the Pokemon and Move entities, their progression
// rules, and the input validators shared by every pokemontodo front end.
package domain

import (
	"strings"
	"time"
)

// EntityType identifies the kind of record held by a store.
type EntityType string

// Supported entity type identifiers used in errors, metrics and logs.
const (
	// EntityPokemon identifies a Pokemon record.
	EntityPokemon EntityType = "pokemon"
	// EntityMove identifies a Move record.
	EntityMove EntityType = "move"
)

// PokemonType is one of the eighteen fixed Pokemon categories.
type PokemonType string

// Canonical Pokemon types accepted by the backend.
const (
	TypeNormal   PokemonType = "normal"
	TypeFire     PokemonType = "fire"
	TypeWater    PokemonType = "water"
	TypeElectric PokemonType = "electric"
	TypeGrass    PokemonType = "grass"
	TypeIce      PokemonType = "ice"
	TypeFighting PokemonType = "fighting"
	TypePoison   PokemonType = "poison"
	TypeGround   PokemonType = "ground"
	TypeFlying   PokemonType = "flying"
	TypePsychic  PokemonType = "psychic"
	TypeBug      PokemonType = "bug"
	TypeRock     PokemonType = "rock"
	TypeGhost    PokemonType = "ghost"
	TypeDragon   PokemonType = "dragon"
	TypeDark     PokemonType = "dark"
	TypeSteel    PokemonType = "steel"
	TypeFairy    PokemonType = "fairy"
)

// PokemonTypes lists every valid type in display order.
var PokemonTypes = []PokemonType{
	TypeNormal, TypeFire, TypeWater, TypeElectric, TypeGrass, TypeIce,
	TypeFighting, TypePoison, TypeGround, TypeFlying, TypePsychic, TypeBug,
	TypeRock, TypeGhost, TypeDragon, TypeDark, TypeSteel, TypeFairy,
}

// Valid reports whether t is one of the canonical types.
func (t PokemonType) Valid() bool {
	for _, known := range PokemonTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParsePokemonType normalises raw input and validates it.
func ParsePokemonType(raw string) (PokemonType, error) {
	t := PokemonType(strings.ToLower(strings.TrimSpace(raw)))
	if res := ValidatePokemonType(string(t)); !res.Valid {
		return "", ValidationErrors{"type": res.Error}
	}
	return t, nil
}

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Pokemon is a user-created task group that levels up as its Moves complete.
type Pokemon struct {
	Base
	Name           string      `json:"name"`
	Type           PokemonType `json:"type"`
	Level          int         `json:"level"`
	Experience     float64     `json:"experience"`
	EvolutionStage int         `json:"evolution_stage"`
}

// Move is an individual task owned by a Pokemon.
type Move struct {
	Base
	PokemonID   string     `json:"pokemon_id"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	Power       int        `json:"power"`
	IsCompleted bool       `json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewPokemon carries the fields accepted by POST /pokemon.
type NewPokemon struct {
	Name string      `json:"name"`
	Type PokemonType `json:"type"`
}

// NewMove carries the fields accepted by POST /moves.
type NewMove struct {
	PokemonID   string  `json:"pokemon_id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Power       int     `json:"power"`
}

// PokemonPatch is a partial update. A nil field means "no change".
type PokemonPatch struct {
	Name *string      `json:"name,omitempty"`
	Type *PokemonType `json:"type,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p PokemonPatch) Empty() bool { return p.Name == nil && p.Type == nil }

// Apply merges the patch into a copy of pk.
func (p PokemonPatch) Apply(pk Pokemon) Pokemon {
	if p.Name != nil {
		pk.Name = *p.Name
	}
	if p.Type != nil {
		pk.Type = *p.Type
	}
	return pk
}

// MovePatch is a partial update. A nil field means "no change".
type MovePatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Power       *int    `json:"power,omitempty"`
	IsCompleted *bool   `json:"is_completed,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p MovePatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Power == nil && p.IsCompleted == nil
}

// Apply merges the patch into a copy of m.
func (p MovePatch) Apply(m Move) Move {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Description != nil {
		d := *p.Description
		m.Description = &d
	}
	if p.Power != nil {
		m.Power = *p.Power
	}
	if p.IsCompleted != nil {
		m.IsCompleted = *p.IsCompleted
		if !m.IsCompleted {
			m.CompletedAt = nil
		}
	}
	return m
}

// CloneMove returns a deep copy of m so snapshots never alias pointer fields.
func CloneMove(m Move) Move {
	if m.Description != nil {
		d := *m.Description
		m.Description = &d
	}
	if m.CompletedAt != nil {
		t := *m.CompletedAt
		m.CompletedAt = &t
	}
	return m
}

// CloneMoves deep-copies a slice of moves. A nil input yields a nil output.
func CloneMoves(ms []Move) []Move {
	if ms == nil {
		return nil
	}
	out := make([]Move, len(ms))
	for i, m := range ms {
		out[i] = CloneMove(m)
	}
	return out
}
