package domain

import (
	"testing"
	"time"
)

func TestApplyExperience(t *testing.T) {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	cases := []struct {
		name      string
		level     int
		exp       float64
		stage     int
		gain      float64
		wantLevel int
		wantExp   float64
		wantStage int
	}{
		{name: "accumulates", level: 1, exp: 0, stage: 1, gain: 5, wantLevel: 1, wantExp: 5, wantStage: 1},
		{name: "just below ceiling", level: 3, exp: 90, stage: 1, gain: 9, wantLevel: 3, wantExp: 99, wantStage: 1},
		{name: "exact ceiling levels up", level: 3, exp: 90, stage: 1, gain: 10, wantLevel: 4, wantExp: 0, wantStage: 1},
		{name: "overflow discarded", level: 2, exp: 80, stage: 1, gain: 50, wantLevel: 3, wantExp: 0, wantStage: 1},
		{name: "level nine to ten evolves", level: 9, exp: 95, stage: 1, gain: 5, wantLevel: 10, wantExp: 0, wantStage: 2},
		{name: "level nineteen to twenty evolves", level: 19, exp: 99, stage: 2, gain: 5, wantLevel: 20, wantExp: 0, wantStage: 3},
		{name: "stage capped", level: 29, exp: 99, stage: 3, gain: 5, wantLevel: 30, wantExp: 0, wantStage: 3},
		{name: "non multiple of ten keeps stage", level: 10, exp: 99, stage: 2, gain: 5, wantLevel: 11, wantExp: 0, wantStage: 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := Pokemon{Base: Base{ID: "p1"}, Level: tc.level, Experience: tc.exp, EvolutionStage: tc.stage}
			got := ApplyExperience(in, tc.gain, now)
			if got.Level != tc.wantLevel || got.Experience != tc.wantExp || got.EvolutionStage != tc.wantStage {
				t.Fatalf("got level=%d exp=%v stage=%d, want level=%d exp=%v stage=%d",
					got.Level, got.Experience, got.EvolutionStage, tc.wantLevel, tc.wantExp, tc.wantStage)
			}
			if !got.UpdatedAt.Equal(now) {
				t.Fatalf("expected UpdatedAt to be stamped")
			}
			if in.Level != tc.level {
				t.Fatalf("input mutated")
			}
		})
	}
}

func TestExperienceReward(t *testing.T) {
	cases := map[int]float64{1: 5, 20: 5, 49: 5, 50: 5, 59: 5, 60: 6, 99: 9, 100: 10}
	for power, want := range cases {
		if got := ExperienceReward(power); got != want {
			t.Fatalf("ExperienceReward(%d) = %v, want %v", power, got, want)
		}
	}
}

func TestProvisionalRecords(t *testing.T) {
	now := time.Now().UTC()
	p := NewProvisionalPokemon("Pikachu", TypeElectric, now)
	if !IsProvisional(p.ID) {
		t.Fatalf("expected provisional id, got %q", p.ID)
	}
	if p.Level != 1 || p.Experience != 0 || p.EvolutionStage != 1 {
		t.Fatalf("unexpected defaults: %+v", p)
	}
	other := NewProvisionalPokemon("Pikachu", TypeElectric, now)
	if other.ID == p.ID {
		t.Fatalf("provisional ids must be unique")
	}

	desc := "morning"
	m := NewProvisionalMove(NewMove{PokemonID: "p1", Name: "Stretch", Description: &desc, Power: 20}, now)
	desc = "changed"
	if m.Description == nil || *m.Description != "morning" {
		t.Fatalf("description should be copied, got %v", m.Description)
	}
	if IsProvisional("3f1c") {
		t.Fatalf("server ids are not provisional")
	}
}

func TestMovePatchApply(t *testing.T) {
	done := time.Now().UTC()
	m := Move{Base: Base{ID: "m1"}, Name: "Stretch", Power: 20, IsCompleted: true, CompletedAt: &done}
	name := "Run"
	power := 40
	reopen := false
	got := MovePatch{Name: &name, Power: &power, IsCompleted: &reopen}.Apply(m)
	if got.Name != "Run" || got.Power != 40 || got.IsCompleted || got.CompletedAt != nil {
		t.Fatalf("unexpected patch result: %+v", got)
	}
	if m.Name != "Stretch" || !m.IsCompleted {
		t.Fatalf("original mutated: %+v", m)
	}
	if !(MovePatch{}).Empty() || (MovePatch{Name: &name}).Empty() {
		t.Fatalf("Empty mismatch")
	}
}

func TestCloneMoveDoesNotAlias(t *testing.T) {
	d := "desc"
	at := time.Now()
	m := Move{Description: &d, CompletedAt: &at}
	c := CloneMove(m)
	*c.Description = "other"
	if *m.Description != "desc" {
		t.Fatalf("clone aliases description")
	}
	if CloneMoves(nil) != nil {
		t.Fatalf("nil slice should stay nil")
	}
}
