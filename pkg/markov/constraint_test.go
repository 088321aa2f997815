package markov

import (
	"errors"
	"testing"
)

func TestConstraintValidation(t *testing.T) {
	m, err := Train([][]string{seq("AABAB")}, 1)
	if err != nil {
		t.Fatalf("Train() failed: %v", err)
	}

	testCases := []struct {
		name       string
		cs         ConstraintSet
		length     int
		wantPos    int
		wantSymbol string
	}{
		{name: "negative position", cs: ConstraintSet{-1: {"A"}}, length: 5, wantPos: -1},
		{name: "position past end", cs: ConstraintSet{5: {"A"}}, length: 5, wantPos: 5},
		{name: "empty allowed set", cs: ConstraintSet{2: {}}, length: 5, wantPos: 2},
		{name: "unknown symbol", cs: ConstraintSet{1: {"A", "Q"}}, length: 5, wantPos: 1, wantSymbol: "Q"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.cs.validate(m, tc.length)
			var invalid *InvalidConstraintError
			if !errors.As(err, &invalid) {
				t.Fatalf("validate() error = %v, want *InvalidConstraintError", err)
			}
			if invalid.Position != tc.wantPos {
				t.Errorf("Position = %d, want %d", invalid.Position, tc.wantPos)
			}
			if invalid.Symbol != tc.wantSymbol {
				t.Errorf("Symbol = %q, want %q", invalid.Symbol, tc.wantSymbol)
			}
		})
	}
}

func TestConstraintPermits(t *testing.T) {
	m, err := Train([][]string{seq("AABAB")}, 1)
	if err != nil {
		t.Fatalf("Train() failed: %v", err)
	}
	a, _ := m.alphabet.Lookup("A")
	b, _ := m.alphabet.Lookup("B")

	ci, err := ConstraintSet{1: {"B"}}.validate(m, 4)
	if err != nil {
		t.Fatalf("validate() failed: %v", err)
	}

	if !ci.permits(0, a) || !ci.permits(0, b) {
		t.Errorf("unconstrained position 0 should permit the full alphabet")
	}
	if ci.permits(1, a) {
		t.Errorf("position 1 permits A, want only B")
	}
	if !ci.permits(1, b) {
		t.Errorf("position 1 rejects B, want permitted")
	}

	// A nil set is valid and constrains nothing.
	ci, err = ConstraintSet(nil).validate(m, 4)
	if err != nil {
		t.Fatalf("validate(nil) failed: %v", err)
	}
	if !ci.permits(3, a) {
		t.Errorf("nil constraint set should permit everything")
	}
}
