// Package method implements the Method type: a sequence of changes making
// up one lead, together with its lead-head, half-lead head, symmetry
// signature and classification helpers (spec.md §3, §4.6's "Method" and
// the `$P`/`$D`/`$L` predicate variables of §4.9).
package method

import (
	"fmt"
	"strings"

	"github.com/exparrot/ringsearch/pkg/change"
	"github.com/exparrot/ringsearch/pkg/rrow"
)

// Symmetry names the kind of structural symmetry a method's change
// sequence exhibits.
type Symmetry rune

const (
	// NoSymmetry means the lead has no detected structural symmetry.
	NoSymmetry Symmetry = 0
	// Palindromic: the change sequence reads the same forwards and
	// backwards around its centre.
	Palindromic Symmetry = 'P'
	// Mirror: the sequence is palindromic about an off-centre axis (a
	// rotation of it is palindromic).
	Mirror Symmetry = 'M'
	// Glide: reflecting the whole sequence about the half-lead point
	// reproduces it (changes[i] == changes[L-1-i]).
	Glide Symmetry = 'G'
	// Rotational: the sequence has period L/2 (pure rotation by half a
	// lead reproduces it).
	Rotational Symmetry = 'R'
)

func (s Symmetry) String() string {
	if s == NoSymmetry {
		return ""
	}
	return string(rune(s))
}

// Method is an ordered sequence of changes making up one lead.
type Method struct {
	Name    string
	nbells  int
	changes []change.Change
}

// New validates and wraps a change sequence as a Method.
func New(name string, nbells int, changes []change.Change) (*Method, error) {
	if len(changes) == 0 {
		return nil, fmt.Errorf("method: empty change sequence")
	}
	for i, c := range changes {
		if c.Bells() != nbells {
			return nil, fmt.Errorf("method: change %d has stage %d, want %d", i, c.Bells(), nbells)
		}
	}
	cp := make([]change.Change, len(changes))
	copy(cp, changes)
	return &Method{Name: name, nbells: nbells, changes: cp}, nil
}

// Bells returns the stage this method is defined on.
func (m *Method) Bells() int { return m.nbells }

// Changes returns the method's change sequence.
func (m *Method) Changes() []change.Change {
	cp := make([]change.Change, len(m.changes))
	copy(cp, m.changes)
	return cp
}

// LeadLength returns L, the number of changes in one lead.
func (m *Method) LeadLength() int { return len(m.changes) }

// Rows returns the L rows rung during one lead, starting from rounds:
// Rows()[0] is rounds, Rows()[i] is the row after i changes have been
// rung, for i in [0, L).
func (m *Method) Rows() ([]rrow.Row, error) {
	rows := make([]rrow.Row, len(m.changes))
	cur := rrow.Rounds(m.nbells)
	rows[0] = cur
	for i := 0; i < len(m.changes)-1; i++ {
		next, err := cur.Transform(m.changes[i])
		if err != nil {
			return nil, fmt.Errorf("method: rows: %w", err)
		}
		rows[i+1] = next
		cur = next
	}
	return rows, nil
}

// LeadHead returns the product of all L changes: the row reached after one
// full lead, starting from rounds.
func (m *Method) LeadHead() (rrow.Row, error) {
	cur := rrow.Rounds(m.nbells)
	for _, c := range m.changes {
		next, err := cur.Transform(c)
		if err != nil {
			return rrow.Row{}, fmt.Errorf("method: lead head: %w", err)
		}
		cur = next
	}
	return cur, nil
}

// HalfLeadHead returns the product of the first L/2 changes.
func (m *Method) HalfLeadHead() (rrow.Row, error) {
	half := len(m.changes) / 2
	cur := rrow.Rounds(m.nbells)
	for i := 0; i < half; i++ {
		next, err := cur.Transform(m.changes[i])
		if err != nil {
			return rrow.Row{}, fmt.Errorf("method: half lead head: %w", err)
		}
		cur = next
	}
	return cur, nil
}

// IsPalindromic reports whether the change sequence is fixed under
// reversal around its midpoint. The final change (the lead-end, which
// carries the method into its next lead rather than mirroring the body of
// the lead) is excluded from the comparison, matching the conventional
// definition of a palindromic method: changes[i] == changes[L-2-i] for all
// i in [0, L-1).
func (m *Method) IsPalindromic() bool {
	return isPalindromic(m.changes)
}

func isPalindromic(cs []change.Change) bool {
	n := len(cs)
	if n < 2 {
		return true
	}
	body := cs[:n-1]
	bn := len(body)
	for i := 0; i < bn/2; i++ {
		if !body[i].Equal(body[bn-1-i]) {
			return false
		}
	}
	return true
}

func rotate(cs []change.Change, k int) []change.Change {
	n := len(cs)
	if n == 0 {
		return nil
	}
	k = ((k % n) + n) % n
	out := make([]change.Change, n)
	for i := range cs {
		out[i] = cs[(i+k)%n]
	}
	return out
}

// SymmetrySignature classifies the method's structural symmetry, checking
// palindromic, mirror, glide, then rotational in that order and returning
// the first that matches, or NoSymmetry if none do.
func (m *Method) SymmetrySignature() Symmetry {
	n := len(m.changes)
	if isPalindromic(m.changes) {
		return Palindromic
	}
	for k := 1; k < n; k++ {
		if isPalindromic(rotate(m.changes, k)) {
			return Mirror
		}
	}
	if n%2 == 0 {
		half := n / 2
		glide := true
		for i := 0; i < n; i++ {
			if !m.changes[i].Equal(m.changes[(2*half-1-i+n)%n]) {
				glide = false
				break
			}
		}
		if glide {
			return Glide
		}
		rotational := true
		for i := 0; i < n; i++ {
			if !m.changes[i].Equal(m.changes[(i+half)%n]) {
				rotational = false
				break
			}
		}
		if rotational {
			return Rotational
		}
	}
	return NoSymmetry
}

// HuntBells returns the bells whose orbit under the lead-head permutation
// is trivial (i.e. the lead-head fixes them).
func (m *Method) HuntBells() ([]int, error) {
	lh, err := m.LeadHead()
	if err != nil {
		return nil, err
	}
	var hunts []int
	for b := 0; b < m.nbells; b++ {
		if lh.At(b) == b {
			hunts = append(hunts, b)
		}
	}
	return hunts, nil
}

// PlaceBells returns the sequence of positions occupied by bell b across
// the lead (the `$P_k` predicate variable), derived from Rows(). Position
// is 0-indexed.
func (m *Method) PlaceBells(b int) ([]int, error) {
	rows, err := m.Rows()
	if err != nil {
		return nil, err
	}
	out := make([]int, len(rows))
	for i, r := range rows {
		pos := -1
		for p := 0; p < m.nbells; p++ {
			if r.At(p) == b {
				pos = p
				break
			}
		}
		out[i] = pos
	}
	return out, nil
}

// LeadEndChange returns the final change of the lead (the one that carries
// the method from its last row back to the next lead-head).
func (m *Method) LeadEndChange() change.Change {
	return m.changes[len(m.changes)-1]
}

// PlaceNotation formats the method's full change sequence.
func (m *Method) PlaceNotation() string {
	return change.FormatPlaceNotation(m.changes)
}

// String renders "Name: place-notation".
func (m *Method) String() string {
	if m.Name == "" {
		return m.PlaceNotation()
	}
	return strings.TrimSpace(m.Name) + ": " + m.PlaceNotation()
}
