package search

import (
	"testing"

	"github.com/exparrot/ringsearch/pkg/bell"
	"github.com/exparrot/ringsearch/pkg/change"
	"github.com/exparrot/ringsearch/pkg/rrow"
)

func mustRow(t *testing.T, s string) rrow.Row {
	t.Helper()
	r, err := rrow.Parse(bell.Default(), s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	return r
}

func mustChange(t *testing.T, nbells int, places []int) change.Change {
	t.Helper()
	c, err := change.New(nbells, places)
	if err != nil {
		t.Fatalf("change.New(%d, %v): %v", nbells, places, err)
	}
	return c
}

func TestTrebleCrossSections_FindsExtremePlaces(t *testing.T) {
	rows := []rrow.Row{
		mustRow(t, "12345"),
		mustRow(t, "21345"),
		mustRow(t, "23145"),
		mustRow(t, "23415"),
		mustRow(t, "23451"),
	}
	got := trebleCrossSections(rows)
	want := []int{0, 4}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("trebleCrossSections = %v, want %v", got, want)
	}
}

func TestClassify_CountsInternalPlacesAtCrossSections(t *testing.T) {
	rows := []rrow.Row{
		mustRow(t, "12345"),
		mustRow(t, "21345"),
		mustRow(t, "23145"),
		mustRow(t, "23415"),
		mustRow(t, "23451"),
	}
	changes := []change.Change{
		mustChange(t, 5, []int{2}), // internal place at the first cross-section
		change.Cross(5),
		change.Cross(5),
		change.Cross(5),
		change.Cross(5), // no internal place at the second cross-section
	}
	e, total := classify(changes, rows)
	if total != 2 {
		t.Fatalf("total cross-sections = %d, want 2", total)
	}
	if e != 1 {
		t.Fatalf("e = %d, want 1", e)
	}
	if !matchesClass(StrictDelight, e, total) {
		t.Errorf("e=1,total=2 should satisfy StrictDelight")
	}
	if matchesClass(TrebleBob, e, total) {
		t.Errorf("e=1,total=2 should not satisfy TrebleBob (requires e == total)")
	}
	if matchesClass(Surprise, e, total) {
		t.Errorf("e=1,total=2 should not satisfy Surprise (requires e == 0)")
	}
}

func TestDivisions_SplitsAtCrossSectionsWithWraparound(t *testing.T) {
	rows := []rrow.Row{
		mustRow(t, "12345"),
		mustRow(t, "21345"),
		mustRow(t, "23145"),
		mustRow(t, "23415"),
		mustRow(t, "23451"),
	}
	divs := divisions(rows)
	want := [][2]int{{0, 4}, {4, 5}}
	if len(divs) != len(want) || divs[0] != want[0] || divs[1] != want[1] {
		t.Errorf("divisions = %v, want %v", divs, want)
	}
}

func TestDivisionFalse_DetectsRepeatedRowWithinADivision(t *testing.T) {
	rows := []rrow.Row{
		mustRow(t, "12345"),
		mustRow(t, "21345"),
		mustRow(t, "12345"), // repeats row 0 within the same division
		mustRow(t, "23451"),
	}
	divs := [][2]int{{0, 3}, {3, 4}}
	dfalse, err := divisionFalse(rows, divs, nil)
	if err != nil {
		t.Fatalf("divisionFalse: %v", err)
	}
	if !dfalse {
		t.Errorf("expected a repeated row within a division to be reported false")
	}
}

func TestSymSectsOK_RequiresMirroredHalves(t *testing.T) {
	c1 := mustChange(t, 5, []int{2})
	c2 := change.Cross(5)
	changes := []change.Change{c1, c2, c2, c1}
	divs := [][2]int{{0, 4}}
	if !symSectsOK(changes, divs) {
		t.Errorf("expected a palindromic division to satisfy symSectsOK")
	}
	changes2 := []change.Change{c1, c2, c1, c2}
	if symSectsOK(changes2, divs) {
		t.Errorf("expected a non-palindromic division to fail symSectsOK")
	}
}

func TestStartAtOK_ComparesLexicographically(t *testing.T) {
	lo := []change.Change{mustChange(t, 5, []int{2})}
	hi := []change.Change{change.Cross(5)}
	if startAtOK(lo, hi) {
		t.Errorf("expected a lexicographically smaller sequence to fail startAtOK against a larger start point")
	}
	if !startAtOK(hi, lo) {
		t.Errorf("expected a lexicographically larger sequence to pass startAtOK")
	}
	if !startAtOK(lo, nil) {
		t.Errorf("expected an empty start point to always pass")
	}
}

func TestLeadHeadKind_DetectsCyclicAndRegular(t *testing.T) {
	cyclicLH := mustRow(t, "2345671") // single 7-cycle: every bell moves
	if got := leadHeadKind(cyclicLH, 0); got != CyclicLeadHead {
		t.Errorf("leadHeadKind(cyclic) = %v, want CyclicLeadHead", got)
	}

	regularLH := mustRow(t, "1345672") // bell 0 fixed (hunt), rest in one cycle
	if got := leadHeadKind(regularLH, 1); got != RegularLeadHead {
		t.Errorf("leadHeadKind(regular) = %v, want RegularLeadHead", got)
	}
}

func TestExpandFalsenessRanges_SplitsAndTrims(t *testing.T) {
	got := ExpandFalsenessRanges("A-F, x , CPS")
	want := []string{"A-F", "CPS", "x"}
	if len(got) != len(want) {
		t.Fatalf("ExpandFalsenessRanges = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ExpandFalsenessRanges[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
