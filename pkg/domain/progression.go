package domain

import (
	"math"
	"time"
)

// Progression constants shared by the local preview and the reward formula.
const (
	// MaxExperience is the experience ceiling of a single level.
	MaxExperience = 100.0
	// EvolutionInterval is the level cadence at which the evolution stage advances.
	EvolutionInterval = 10
	// MaxEvolutionStage caps the evolution stage.
	MaxEvolutionStage = 3
	// InitialLevel is the level of a freshly created Pokemon.
	InitialLevel = 1
	// InitialEvolutionStage is the stage of a freshly created Pokemon.
	InitialEvolutionStage = 1
	// MinExperienceReward is the floor of the reward granted for completing a Move.
	MinExperienceReward = 5
	// DefaultMovePower is used when the caller does not supply a power.
	DefaultMovePower = 50
)

// ApplyExperience returns p after gaining amount experience, following the
// client-side preview rule: reaching the ceiling levels up once and resets
// experience to zero (any overflow is discarded); every EvolutionInterval-th
// level advances the evolution stage up to MaxEvolutionStage. The server's
// own computation remains authoritative.
func ApplyExperience(p Pokemon, amount float64, now time.Time) Pokemon {
	total := p.Experience + amount
	if total >= MaxExperience {
		p.Level++
		p.Experience = 0
		if p.Level%EvolutionInterval == 0 && p.EvolutionStage < MaxEvolutionStage {
			p.EvolutionStage++
		}
	} else {
		p.Experience = math.Min(MaxExperience, total)
	}
	p.UpdatedAt = now
	return p
}

// ExperienceReward is the experience granted for completing a Move of the
// given power: max(5, floor(power/10)).
func ExperienceReward(power int) float64 {
	reward := power / 10
	if reward < MinExperienceReward {
		reward = MinExperienceReward
	}
	return float64(reward)
}

// NewProvisionalPokemon builds the optimistic placeholder shown before the
// backend confirms a create.
func NewProvisionalPokemon(name string, typ PokemonType, now time.Time) Pokemon {
	return Pokemon{
		Base:           Base{ID: NewProvisionalID(), CreatedAt: now, UpdatedAt: now},
		Name:           name,
		Type:           typ,
		Level:          InitialLevel,
		Experience:     0,
		EvolutionStage: InitialEvolutionStage,
	}
}

// NewProvisionalMove builds the optimistic placeholder for a Move create.
func NewProvisionalMove(in NewMove, now time.Time) Move {
	m := Move{
		Base:      Base{ID: NewProvisionalID(), CreatedAt: now, UpdatedAt: now},
		PokemonID: in.PokemonID,
		Name:      in.Name,
		Power:     in.Power,
	}
	if in.Description != nil {
		d := *in.Description
		m.Description = &d
	}
	return m
}
