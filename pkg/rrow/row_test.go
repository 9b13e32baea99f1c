package rrow

import (
	"testing"

	"github.com/exparrot/ringsearch/pkg/bell"
	"github.com/exparrot/ringsearch/pkg/change"
)

func TestRow_MultiplyByInverseIsRounds(t *testing.T) {
	r, err := Parse(bell.Default(), "13572468")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	inv := r.Inverse()
	id, err := r.Multiply(inv)
	if err != nil {
		t.Fatalf("Multiply error: %v", err)
	}
	if !id.IsRounds() {
		t.Errorf("r * r^-1 = %s, want rounds", id)
	}
}

func TestRow_ParseStringRoundTrip(t *testing.T) {
	const s = "24681357"
	r, err := Parse(bell.Default(), s)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if r.String() != s {
		t.Errorf("round trip mismatch: got %q want %q", r.String(), s)
	}
}

func TestRow_TransformByCross(t *testing.T) {
	rounds := Rounds(6)
	cross := change.Cross(6)
	r, err := rounds.Transform(cross)
	if err != nil {
		t.Fatalf("Transform error: %v", err)
	}
	want, _ := Parse(bell.Default(), "214365")
	if !r.Equal(want) {
		t.Errorf("rounds transformed by cross = %s, want %s", r, want)
	}
}

func TestRow_OrderAndSign(t *testing.T) {
	// The 3-cycle (0 1 2) on 4 bells: 2,0,1,3 in 0-indexed bells.
	r, err := New([]int{2, 0, 1, 3})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if r.Order() != 3 {
		t.Errorf("order = %d, want 3", r.Order())
	}
	if r.Sign() != 1 {
		t.Errorf("a 3-cycle should be even, sign = %d", r.Sign())
	}
}

func TestRow_PowerMatchesRepeatedMultiply(t *testing.T) {
	r, err := New([]int{1, 2, 0})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	cubed, err := r.Power(3)
	if err != nil {
		t.Fatalf("Power error: %v", err)
	}
	if !cubed.IsRounds() {
		t.Errorf("3-cycle to the 3rd power should be rounds, got %s", cubed)
	}
}

func TestNew_RejectsNonPermutation(t *testing.T) {
	_, err := New([]int{0, 0, 2})
	if err == nil {
		t.Fatalf("expected an error for a repeated bell, got nil")
	}
}
