package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestValidatePokemonName(t *testing.T) {
	if res := ValidatePokemonName("   "); res.Valid || res.Error != "Pokemon name is required" {
		t.Fatalf("blank name: %+v", res)
	}
	if res := ValidatePokemonName(strings.Repeat("a", 101)); res.Valid {
		t.Fatalf("expected too-long name to fail")
	}
	if res := ValidatePokemonName(strings.Repeat("ピ", 100)); !res.Valid {
		t.Fatalf("100 runes should pass: %+v", res)
	}
}

func TestValidatePokemonType(t *testing.T) {
	for _, pt := range PokemonTypes {
		if res := ValidatePokemonType(string(pt)); !res.Valid {
			t.Fatalf("%s should be valid", pt)
		}
	}
	if res := ValidatePokemonType("cosmic"); res.Valid || !strings.Contains(res.Error, "Must be one of") {
		t.Fatalf("unexpected result: %+v", res)
	}
	if _, err := ParsePokemonType(" Electric "); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := ParsePokemonType("cosmic"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestValidateMoveFields(t *testing.T) {
	long := strings.Repeat("x", 501)
	if res := ValidateMoveDescription(&long); res.Valid {
		t.Fatalf("expected long description to fail")
	}
	if res := ValidateMoveDescription(nil); !res.Valid {
		t.Fatalf("nil description is optional")
	}
	for _, p := range []int{0, 101, -3} {
		if res := ValidateMovePower(p); res.Valid {
			t.Fatalf("power %d should fail", p)
		}
	}
	if _, res := ParseMovePower("abc"); res.Valid || res.Error != "Power must be a valid number" {
		t.Fatalf("unexpected parse result: %+v", res)
	}
	if n, res := ParseMovePower(" 42 "); !res.Valid || n != 42 {
		t.Fatalf("got %d %+v", n, res)
	}
}

func TestValidateNewMoveCollectsAllFields(t *testing.T) {
	err := ValidateNewMove(NewMove{Name: "", Power: 0})
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	for _, field := range []string{"name", "power", "pokemon_id"} {
		if _, ok := verrs[field]; !ok {
			t.Fatalf("missing %s in %v", field, verrs)
		}
	}
	if err := ValidateNewMove(NewMove{PokemonID: "p1", Name: "Stretch", Power: 20}); err != nil {
		t.Fatalf("valid move rejected: %v", err)
	}
	if got := verrs.Error(); !strings.HasPrefix(got, "validation failed: name:") {
		t.Fatalf("fields should be sorted, got %q", got)
	}
}

func TestValidatePatches(t *testing.T) {
	if err := ValidatePokemonPatch(PokemonPatch{}); err != nil {
		t.Fatalf("empty patch: %v", err)
	}
	bad := PokemonType("cosmic")
	if err := ValidatePokemonPatch(PokemonPatch{Type: &bad}); err == nil {
		t.Fatalf("expected type failure")
	}
	power := 150
	if err := ValidateMovePatch(MovePatch{Power: &power}); err == nil {
		t.Fatalf("expected power failure")
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := SanitizeInput("  hello   <b>world</b>  "); got != "hello world" {
		t.Fatalf("got %q", got)
	}
	if got := FormatPokemonName("  ピカ   チュウ "); got != "ピカ チュウ" {
		t.Fatalf("got %q", got)
	}
}
