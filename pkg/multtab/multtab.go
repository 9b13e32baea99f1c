// Package multtab implements the multiplication table (MT): a dense,
// integer-indexed representation of a row set closed under right
// multiplication by a fixed post-column, reduced to cosets of an optional
// part-end group (spec.md §4.5).
package multtab

import (
	"fmt"

	"github.com/exparrot/ringsearch/pkg/change"
	"github.com/exparrot/ringsearch/pkg/group"
	"github.com/exparrot/ringsearch/pkg/rrow"
)

// RowSource enumerates a finite set of rows; *extent.Iterator satisfies
// this interface.
type RowSource interface {
	Each(func(rrow.Row) bool)
}

// Table is a dense index [0, N) over the cosets of G (and, if H was
// supplied, of the combined action of G and H) within a row source R.
type Table struct {
	nbells int
	g      *group.Group
	h      *group.Group // optional post-group; nil if absent

	reps  []rrow.Row     // dense index -> representative row
	index map[string]int // representative.String() -> dense index
	rSize int            // |R| as enumerated
}

// Build constructs a Table from a finite row source R, reducing by the
// cosets of part-end group g and, if h is non-nil, additionally folding
// together whole right-H-orbits (used when collapsing whole courses).
func Build(src RowSource, g *group.Group, h *group.Group) (*Table, error) {
	t := &Table{
		nbells: g.Bells(),
		g:      g,
		h:      h,
		index:  make(map[string]int),
	}
	seen := make(map[string]bool)

	var buildErr error
	src.Each(func(r rrow.Row) bool {
		t.rSize++
		if seen[r.String()] {
			return true
		}
		rep, err := g.CosetLabel(r)
		if err != nil {
			buildErr = fmt.Errorf("multtab: %w", err)
			return false
		}
		idx, isNew := t.internIndex(rep)
		if isNew {
			t.markSeen(seen, rep, idx)
		} else {
			t.markSeen(seen, r, idx)
		}
		return true
	})
	if buildErr != nil {
		return nil, buildErr
	}

	gOrder := g.Order()
	hOrder := 1
	if h != nil {
		hOrder = h.Order()
	}
	expected := gOrder * hOrder
	if expected == 0 || t.rSize%expected != 0 || len(t.reps) != t.rSize/expected {
		return nil, fmt.Errorf("partend-conflicts-extent: |R|=%d, |G|*|H|=%d, |MT|=%d",
			t.rSize, expected, len(t.reps))
	}
	return t, nil
}

func (t *Table) internIndex(rep rrow.Row) (int, bool) {
	if idx, ok := t.index[rep.String()]; ok {
		return idx, false
	}
	idx := len(t.reps)
	t.reps = append(t.reps, rep)
	t.index[rep.String()] = idx
	return idx, true
}

// markSeen records every row in G·r (and G·r·h for h in H, when present)
// as belonging to dense index idx.
func (t *Table) markSeen(seen map[string]bool, r rrow.Row, idx int) {
	mark := func(row rrow.Row) {
		key := row.String()
		if !seen[key] {
			seen[key] = true
			t.index[key] = idx
		}
	}
	for _, ge := range t.g.Elements() {
		gr, err := ge.Multiply(r)
		if err != nil {
			continue
		}
		mark(gr)
		if t.h != nil {
			for _, he := range t.h.Elements() {
				grh, err := gr.Multiply(he)
				if err != nil {
					continue
				}
				mark(grh)
			}
		}
	}
}

// Size returns |MT|, the number of distinct cosets.
func (t *Table) Size() int { return len(t.reps) }

// Bells returns the stage this table is built over.
func (t *Table) Bells() int { return t.nbells }

// RowAt returns the representative row for dense index i.
func (t *Table) RowAt(i int) (rrow.Row, error) {
	if i < 0 || i >= len(t.reps) {
		return rrow.Row{}, fmt.Errorf("multtab: index %d out of range [0,%d)", i, len(t.reps))
	}
	return t.reps[i], nil
}

// IndexOf returns the dense index of the coset containing r, or an error
// if r was never seen while building the table.
func (t *Table) IndexOf(r rrow.Row) (int, error) {
	idx, ok := t.index[r.String()]
	if !ok {
		// r may not have been literally enumerated but could still reduce
		// to a known representative via G; try that before giving up.
		rep, err := t.g.CosetLabel(r)
		if err == nil {
			if idx2, ok2 := t.index[rep.String()]; ok2 {
				return idx2, nil
			}
		}
		return 0, fmt.Errorf("multtab: row %s not present in table", r)
	}
	return idx, nil
}

// ComputePostColumn returns an array A of length |MT| with A[i] =
// index(MT[i] · c) for the change c, or fails with a post-column-conflict
// if the action of c does not descend consistently to cosets.
func (t *Table) ComputePostColumn(c change.Change) ([]int, error) {
	out := make([]int, len(t.reps))
	for i, rep := range t.reps {
		next, err := rep.Transform(c)
		if err != nil {
			return nil, fmt.Errorf("multtab: post-column: %w", err)
		}
		idx, err := t.IndexOf(next)
		if err != nil {
			return nil, fmt.Errorf("post-column-conflict: change %s at index %d: %w", c, i, err)
		}
		out[i] = idx
	}
	if !isInjective(out) {
		return nil, fmt.Errorf("post-column-conflict: change %s is not injective on the table", c)
	}
	return out, nil
}

// ComputePostColumnRow is ComputePostColumn generalized to right
// multiplication by an arbitrary row rather than a single change — used by
// the falseness/linkage layer, where the acting row is a product of changes
// (a falseness difference or a Q-set generator) rather than one change.
func (t *Table) ComputePostColumnRow(f rrow.Row) ([]int, error) {
	out := make([]int, len(t.reps))
	for i, rep := range t.reps {
		next, err := rep.Multiply(f)
		if err != nil {
			return nil, fmt.Errorf("multtab: post-column: %w", err)
		}
		idx, err := t.IndexOf(next)
		if err != nil {
			return nil, fmt.Errorf("post-column-conflict: row %s at index %d: %w", f, i, err)
		}
		out[i] = idx
	}
	if !isInjective(out) {
		return nil, fmt.Errorf("post-column-conflict: row %s is not injective on the table", f)
	}
	return out, nil
}

func isInjective(a []int) bool {
	seen := make(map[int]bool, len(a))
	for _, v := range a {
		if seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}
