package method

import (
	"testing"

	"github.com/exparrot/ringsearch/pkg/change"
)

func plainBobMinor(t *testing.T) *Method {
	t.Helper()
	changes, err := change.ParsePlaceNotation(6, "&-16-16-16,12")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	m, err := New("Plain Bob Minor", 6, changes)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return m
}

func TestMethod_LeadHeadIsAPermutation(t *testing.T) {
	m := plainBobMinor(t)
	lh, err := m.LeadHead()
	if err != nil {
		t.Fatalf("LeadHead error: %v", err)
	}
	if lh.Bells() != 6 {
		t.Errorf("lead head stage = %d, want 6", lh.Bells())
	}
}

func TestMethod_SymmetrySignaturePalindromic(t *testing.T) {
	m := plainBobMinor(t)
	if !m.IsPalindromic() {
		t.Errorf("Plain Bob Minor should be palindromic")
	}
	if sig := m.SymmetrySignature(); sig != Palindromic {
		t.Errorf("symmetry signature = %q, want Palindromic", sig)
	}
}

func TestMethod_HuntBells(t *testing.T) {
	m := plainBobMinor(t)
	hunts, err := m.HuntBells()
	if err != nil {
		t.Fatalf("HuntBells error: %v", err)
	}
	found := false
	for _, h := range hunts {
		if h == 0 {
			found = true
		}
	}
	if !found {
		t.Errorf("expected bell 0 (the treble) to be a hunt bell, got %v", hunts)
	}
}

func TestMethod_PlaceBellsLengthMatchesLead(t *testing.T) {
	m := plainBobMinor(t)
	pb, err := m.PlaceBells(0)
	if err != nil {
		t.Fatalf("PlaceBells error: %v", err)
	}
	if len(pb) != m.LeadLength() {
		t.Errorf("place-bell trace length = %d, want %d", len(pb), m.LeadLength())
	}
}
