package falseness

import (
	"testing"

	"github.com/exparrot/ringsearch/pkg/change"
	"github.com/exparrot/ringsearch/pkg/method"
)

func plainBobMinor(t *testing.T) *method.Method {
	t.Helper()
	changes, err := change.ParsePlaceNotation(6, "&-16-16-16,12")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	m, err := method.New("Plain Bob Minor", 6, changes)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return m
}

func TestSelfFalseness_ExcludesRounds(t *testing.T) {
	m := plainBobMinor(t)
	table, err := SelfFalseness(m, Options{})
	if err != nil {
		t.Fatalf("SelfFalseness error: %v", err)
	}
	for _, r := range table.Rows() {
		if r.IsRounds() {
			t.Errorf("falseness table must not contain rounds")
		}
	}
}

func TestSelfFalseness_InCourseFilterDropsOddParity(t *testing.T) {
	m := plainBobMinor(t)
	table, err := SelfFalseness(m, Options{InCourse: true})
	if err != nil {
		t.Fatalf("SelfFalseness error: %v", err)
	}
	for _, r := range table.Rows() {
		if !r.InCourse() {
			t.Errorf("row %s should have been dropped by the in-course filter", r)
		}
	}
}

func TestClassify_SameTableSameSymbol(t *testing.T) {
	m := plainBobMinor(t)
	table, err := SelfFalseness(m, Options{})
	if err != nil {
		t.Fatalf("SelfFalseness error: %v", err)
	}
	if len(table.Rows()) == 0 {
		t.Skip("no falseness found for this fixture; classification needs a non-trivial table")
	}
	sym1, _, err := Classify(table)
	if err != nil {
		t.Fatalf("Classify error: %v", err)
	}
	sym2, _, err := Classify(table)
	if err != nil {
		t.Fatalf("Classify error: %v", err)
	}
	if sym1 != sym2 {
		t.Errorf("classifying the same table twice gave different symbols: %q vs %q", sym1, sym2)
	}
}
