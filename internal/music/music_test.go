package music

import (
	"testing"

	"github.com/exparrot/ringsearch/pkg/bell"
	"github.com/exparrot/ringsearch/pkg/rrow"
)

func row(t *testing.T, s string) rrow.Row {
	t.Helper()
	r, err := rrow.Parse(bell.Default(), s)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", s, err)
	}
	return r
}

func TestAnalyse_Queens(t *testing.T) {
	res := Analyse([]rrow.Row{row(t, "135246")})
	if !res.Queens {
		t.Errorf("135246 should be recognised as queens")
	}
}

func TestAnalyse_RollupOnBack(t *testing.T) {
	// Bells 4,5,6,7 ("5678") sit fixed in their own positions at the back
	// of an 8-bell row, with position 3 broken so the run stops at 4.
	res := Analyse([]rrow.Row{row(t, "42315678")})
	if res.Rollup4 != 1 {
		t.Errorf("42315678 should register one 4-bell rollup, got %d", res.Rollup4)
	}
}

func TestAnalyse_ReverseRounds(t *testing.T) {
	res := Analyse([]rrow.Row{row(t, "654321")})
	if !res.ReverseRounds {
		t.Errorf("654321 should be recognised as reverse rounds")
	}
}

func TestPattern_AnchoredAtBack(t *testing.T) {
	p := &Pattern{Raw: "678", Score: 1, Anchor: Back}
	if err := p.Compile(); err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	if !p.Matches(row(t, "12345678")) {
		t.Errorf("pattern %q should match a row ending in 678", p.Raw)
	}
	if p.Matches(row(t, "67812345")) {
		t.Errorf("pattern %q anchored at back should not match a row not ending in 678", p.Raw)
	}
}

func TestPattern_BellSet(t *testing.T) {
	p := &Pattern{Raw: "*[78]", Score: 1, Anchor: Both}
	if err := p.Compile(); err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	if !p.Matches(row(t, "1234567")) {
		t.Errorf("expected %q to match a row ending in 7", p.Raw)
	}
}

func TestCountCRU_RecognisesFrontReverseBackRounds(t *testing.T) {
	n := countCRU([]rrow.Row{row(t, "43215678"), row(t, "12345678")})
	if n != 1 {
		t.Errorf("expected exactly one CRU among the two rows, got %d", n)
	}
}

func TestCountRunsOfK_FrontAndBack(t *testing.T) {
	rows := []rrow.Row{row(t, "12345678"), row(t, "56781234")}
	if n := CountRunsOfK(rows, 4); n != 2 {
		t.Errorf("expected both rows to contain a 4-bell run, got %d", n)
	}
}

func TestNamedPatternScore_UnknownNameErrors(t *testing.T) {
	if _, err := NamedPatternScore("NotAPattern", []rrow.Row{row(t, "12345678")}); err == nil {
		t.Errorf("expected an error for an unrecognised named pattern")
	}
}

func TestPattern_NamedFormScoresViaNamedPatternScore(t *testing.T) {
	p := &Pattern{Raw: "<CRUs>", Score: 3}
	if err := p.Compile(); err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	total, err := ScorePatterns([]*Pattern{p}, []rrow.Row{row(t, "43215678"), row(t, "12345678")})
	if err != nil {
		t.Fatalf("ScorePatterns error: %v", err)
	}
	if total != 3 {
		t.Errorf("expected one CRU at score 3, got %d", total)
	}
}

func TestScorePatterns_SumsMatches(t *testing.T) {
	patterns := []*Pattern{
		{Raw: "678", Score: 10, Anchor: Back},
		{Raw: "87", Score: -5, Anchor: Back},
	}
	total, err := ScorePatterns(patterns, []rrow.Row{row(t, "12345678"), row(t, "12345687")})
	if err != nil {
		t.Fatalf("ScorePatterns error: %v", err)
	}
	if total != 5 {
		t.Errorf("expected total score 5 (10 - 5), got %d", total)
	}
}
