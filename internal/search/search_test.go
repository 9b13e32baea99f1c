package search

import (
	"testing"

	"github.com/exparrot/ringsearch/pkg/change"
	"github.com/exparrot/ringsearch/pkg/method"
)

func altList(t *testing.T, nbells int) []change.Change {
	t.Helper()
	cross := change.Cross(nbells)
	idle, err := change.New(nbells, []int{0, 3})
	if err != nil {
		t.Fatalf("change.New: %v", err)
	}
	return []change.Change{cross, idle}
}

func TestEngine_ExhaustsFullSpaceUnfolded(t *testing.T) {
	alts := altList(t, 4)
	cfg := Config{
		Bells:      4,
		LeadLength: 3,
		AltLists:   [][]change.Change{alts, alts, alts},
		Symmetry:   method.NoSymmetry,
	}
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	count := 0
	e.cfg.Sink = func(m *method.Method) bool {
		count++
		return true
	}
	if err := e.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if count != 8 {
		t.Errorf("expected 2^3=8 methods, got %d", count)
	}
	if e.Found() != count {
		t.Errorf("Found() = %d, want %d", e.Found(), count)
	}
}

func TestEngine_PalindromicFoldReducesSpace(t *testing.T) {
	alts := altList(t, 4)
	cfg := Config{
		Bells:      4,
		LeadLength: 3,
		AltLists:   [][]change.Change{alts, alts, alts},
		Symmetry:   method.Palindromic,
	}
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var seen [][]change.Change
	e.cfg.Sink = func(m *method.Method) bool {
		cs := make([]change.Change, len(m.Changes()))
		copy(cs, m.Changes())
		seen = append(seen, cs)
		return true
	}
	if err := e.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(seen) != 4 {
		t.Fatalf("expected 2*2=4 folded methods, got %d", len(seen))
	}
	for _, cs := range seen {
		if !cs[0].Equal(cs[1]) {
			t.Errorf("folded method not mirrored: %v", cs)
		}
	}
}

func TestEngine_SinkStopsSearchEarly(t *testing.T) {
	alts := altList(t, 4)
	cfg := Config{
		Bells:      4,
		LeadLength: 3,
		AltLists:   [][]change.Change{alts, alts, alts},
	}
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	e.cfg.Sink = func(m *method.Method) bool {
		return false
	}
	if err := e.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if e.Found() != 1 {
		t.Errorf("expected search to stop after the first accepted method, found %d", e.Found())
	}
}

func TestConsecutiveBlowsOK_RejectsOverrun(t *testing.T) {
	alts := altList(t, 4)
	cfg := Config{
		Bells:          4,
		LeadLength:     3,
		AltLists:       [][]change.Change{alts, alts, alts},
		MaxConsecBlows: 1,
	}
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	idle, err := change.New(4, []int{0, 3})
	if err != nil {
		t.Fatalf("change.New: %v", err)
	}
	partial := []change.Change{idle, idle, idle}
	if e.consecutiveBlowsOK(partial, 1) {
		t.Errorf("expected two consecutive place-made blows at bell 0 to be rejected with MaxConsecBlows=1")
	}
}

func TestNew_RejectsMismatchedAltListLength(t *testing.T) {
	alts := altList(t, 4)
	cfg := Config{
		Bells:      4,
		LeadLength: 3,
		AltLists:   [][]change.Change{alts, alts},
	}
	if _, err := New(cfg); err == nil {
		t.Errorf("expected an error for mismatched alt-list length")
	}
}
