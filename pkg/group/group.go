// Package group implements finite permutation subgroups of S_N: closure
// under composition and inverse, membership testing, and right-coset
// labelling, as used for part-end groups (spec.md §4.4).
package group

import (
	"fmt"
	"sort"

	"github.com/exparrot/ringsearch/pkg/rrow"
)

// Group is a finite set of rows closed under composition, stored as a
// dense element list plus a lookup set for membership testing.
type Group struct {
	nbells   int
	elements []rrow.Row
	index    map[string]int // row.String() -> index into elements
}

// Generate closes the given generator rows under composition and inverse,
// returning the finite group they generate. All generators must share the
// same stage.
func Generate(generators []rrow.Row) (*Group, error) {
	if len(generators) == 0 {
		return nil, fmt.Errorf("group: no generators supplied")
	}
	nbells := generators[0].Bells()
	for _, g := range generators {
		if g.Bells() != nbells {
			return nil, fmt.Errorf("group: generator stage mismatch %d != %d", g.Bells(), nbells)
		}
	}

	g := &Group{nbells: nbells, index: make(map[string]int)}
	g.add(rrow.Rounds(nbells))

	// Closure via worklist: repeatedly multiply every known element by
	// every generator (and its inverse) until nothing new appears.
	queue := []rrow.Row{rrow.Rounds(nbells)}
	for _, gen := range generators {
		if g.add(gen) {
			queue = append(queue, gen)
		}
		inv := gen.Inverse()
		if g.add(inv) {
			queue = append(queue, inv)
		}
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, gen := range generators {
			next, err := cur.Multiply(gen)
			if err != nil {
				return nil, fmt.Errorf("group: %w", err)
			}
			if g.add(next) {
				queue = append(queue, next)
			}
		}
	}
	return g, nil
}

// add inserts r if not already present, returning whether it was new.
func (g *Group) add(r rrow.Row) bool {
	key := r.String()
	if _, ok := g.index[key]; ok {
		return false
	}
	g.index[key] = len(g.elements)
	g.elements = append(g.elements, r)
	return true
}

// Order returns |G|.
func (g *Group) Order() int { return len(g.elements) }

// Bells returns the stage this group acts on.
func (g *Group) Bells() int { return g.nbells }

// Contains reports whether r is an element of G.
func (g *Group) Contains(r rrow.Row) bool {
	_, ok := g.index[r.String()]
	return ok
}

// Elements returns the group's elements in the order they were discovered
// (identity first).
func (g *Group) Elements() []rrow.Row {
	cp := make([]rrow.Row, len(g.elements))
	copy(cp, g.elements)
	return cp
}

// SortedElements returns the group's elements sorted by display string,
// used for deterministic coset labelling.
func (g *Group) SortedElements() []rrow.Row {
	cp := g.Elements()
	sort.Slice(cp, func(i, j int) bool { return cp[i].String() < cp[j].String() })
	return cp
}

// CosetLabel returns the lexicographically least element of the right
// coset Gr, the conventional label for r's coset (spec.md §3: "the right
// coset label is the lexicographically least element of Gr").
func (g *Group) CosetLabel(r rrow.Row) (rrow.Row, error) {
	best := rrow.Row{}
	haveBest := false
	for _, e := range g.elements {
		cand, err := e.Multiply(r)
		if err != nil {
			return rrow.Row{}, fmt.Errorf("group: coset label: %w", err)
		}
		if !haveBest || cand.String() < best.String() {
			best = cand
			haveBest = true
		}
	}
	if !haveBest {
		return rrow.Row{}, fmt.Errorf("group: empty group")
	}
	return best, nil
}

// Trivial reports whether G is just {rounds}.
func (g *Group) Trivial() bool { return len(g.elements) == 1 }

// IsSubgroupOf reports whether every element of g also belongs to other.
func (g *Group) IsSubgroupOf(other *Group) bool {
	for _, e := range g.elements {
		if !other.Contains(e) {
			return false
		}
	}
	return true
}
