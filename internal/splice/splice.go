// Package splice implements splice/plan analysis (spec.md §4.10): pairwise
// inter-method falseness-group description, equivalence classing of a
// method collection by splice group, and join-plan canonicalization and
// search.
package splice

import (
	"fmt"
	"sort"
	"strings"

	"github.com/exparrot/ringsearch/pkg/falseness"
	"github.com/exparrot/ringsearch/pkg/group"
	"github.com/exparrot/ringsearch/pkg/method"
	"github.com/exparrot/ringsearch/pkg/multtab"
	"github.com/exparrot/ringsearch/pkg/rrow"
)

// Result describes the splice relationship between two methods: their
// falseness group's order, its "k-lead splice" description, and — when the
// group has the right structure — the pivot bell or swapping pair it fixes.
type Result struct {
	Group      *group.Group
	Order      int
	LeadCount  int // k, where the group has order 2k (the whole order when it is odd)
	Pivot      int // fixed bell, or -1
	SwapA      int // -1 if no swap pair found
	SwapB      int
	Reciprocal bool // not computed: Describe leaves it false
}

// Describe computes the splice group between methods a and b (equal
// stage) under opts and characterizes its structure.
func Describe(a, b *method.Method, opts falseness.Options) (*Result, error) {
	if a.Bells() != b.Bells() {
		return nil, fmt.Errorf("splice: stage mismatch %d != %d", a.Bells(), b.Bells())
	}
	ft, err := falseness.CrossFalseness(a, b, opts)
	if err != nil {
		return nil, fmt.Errorf("splice: %w", err)
	}
	n := a.Bells()
	var g *group.Group
	if len(ft.Rows()) == 0 {
		g, err = group.Generate([]rrow.Row{rrow.Rounds(n)})
	} else {
		g, err = group.Generate(ft.Rows())
	}
	if err != nil {
		return nil, fmt.Errorf("splice: %w", err)
	}

	r := &Result{Group: g, Order: g.Order(), Pivot: -1, SwapA: -1, SwapB: -1}
	if r.Order%2 == 0 {
		r.LeadCount = r.Order / 2
	} else {
		r.LeadCount = r.Order
	}

	for bll := 0; bll < n; bll++ {
		fixed := true
		for _, e := range g.Elements() {
			if e.At(bll) != bll {
				fixed = false
				break
			}
		}
		if fixed {
			r.Pivot = bll
			break
		}
	}
	if r.Pivot == -1 {
		for x := 0; x < n && r.SwapA == -1; x++ {
			for y := x + 1; y < n; y++ {
				if isSwapPair(g, x, y) {
					r.SwapA, r.SwapB = x, y
					break
				}
			}
		}
	}
	return r, nil
}

func isSwapPair(g *group.Group, a, b int) bool {
	for _, e := range g.Elements() {
		ea, eb := e.At(a), e.At(b)
		fixedBoth := ea == a && eb == b
		swapped := ea == b && eb == a
		if !fixedBoth && !swapped {
			return false
		}
	}
	return true
}

// Description renders the human-readable splice summary of spec.md §8's
// example output: "6-lead (pivot: 8)" or "6-lead (swap: 3/4)".
func (r *Result) Description() string {
	base := fmt.Sprintf("%d-lead", r.LeadCount)
	switch {
	case r.Pivot >= 0:
		return fmt.Sprintf("%s (pivot: %d)", base, r.Pivot+1)
	case r.SwapA >= 0:
		return fmt.Sprintf("%s (swap: %d/%d)", base, r.SwapA+1, r.SwapB+1)
	default:
		return base
	}
}

// ClassEntry names one method participating in an equivalence class.
type ClassEntry struct {
	Index  int
	Method *method.Method
}

// Class groups a subset of an input method collection whose pairwise
// splice groups are all the same (by element-set signature).
type Class struct {
	Signature   string
	Description string
	Members     []ClassEntry
}

// ClassifyPairs groups methods into equivalence classes by splice group
// (spec.md §4.10: "classify pairs of methods into equivalence classes by
// splice group"). Every pair's splice-group signature is computed once;
// pairs sharing a signature are merged via a union-find over method
// indices, so the reported classes are the connected components of the
// "same splice group" relation rather than an ordered first-fit grouping.
func ClassifyPairs(methods []*method.Method, opts falseness.Options) ([]*Class, error) {
	n := len(methods)
	sig := make([]string, n)
	desc := make([]string, n)
	for i, m := range methods {
		res, err := Describe(m, m, opts)
		if err != nil {
			return nil, err
		}
		sig[i] = groupSignature(res.Group)
		desc[i] = res.Description()
	}

	uf := newUnionFind()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			res, err := Describe(methods[i], methods[j], opts)
			if err != nil {
				return nil, err
			}
			s := groupSignature(res.Group)
			if s == sig[i] && s == sig[j] {
				uf.union(i, j)
			}
		}
	}

	groups := uf.classes()
	var classes []*Class
	for root, members := range groups {
		if len(members) < 2 {
			continue
		}
		sort.Ints(members)
		c := &Class{Signature: sig[root], Description: desc[root]}
		for _, idx := range members {
			c.Members = append(c.Members, ClassEntry{Index: idx, Method: methods[idx]})
		}
		classes = append(classes, c)
	}
	placed := make(map[int]bool)
	for _, c := range classes {
		for _, e := range c.Members {
			placed[e.Index] = true
		}
	}
	for i, m := range methods {
		if !placed[i] {
			classes = append(classes, &Class{
				Signature:   sig[i],
				Description: desc[i],
				Members:     []ClassEntry{{Index: i, Method: m}},
			})
		}
	}
	sort.Slice(classes, func(i, j int) bool {
		return classes[i].Members[0].Index < classes[j].Members[0].Index
	})
	return classes, nil
}

func groupSignature(g *group.Group) string {
	elems := g.SortedElements()
	strs := make([]string, len(elems))
	for i, e := range elems {
		strs[i] = e.String()
	}
	sort.Strings(strs)
	return strings.Join(strs, ",")
}

// PlanEntry maps one lead-head (or its coset representative) to the method
// rung in that lead.
type PlanEntry struct {
	LeadHead rrow.Row
	Method   string
}

// Plan is a join plan: a mapping from in-course lead-heads to methods.
type Plan struct {
	Entries []PlanEntry
}

// Canonical returns the lexicographically-least rotation of p: among the
// candidate rotations obtained by multiplying every key by the inverse of
// each entry's own lead-head (the natural finite candidate set — the
// rotation that brings some entry to rounds), the one whose serialized
// form sorts first.
func (p Plan) Canonical() (Plan, error) {
	if len(p.Entries) == 0 {
		return p, nil
	}
	best := Plan{}
	bestKey := ""
	for _, anchor := range p.Entries {
		x := anchor.LeadHead.Inverse()
		rotated := Plan{Entries: make([]PlanEntry, len(p.Entries))}
		for i, e := range p.Entries {
			nr, err := e.LeadHead.Multiply(x)
			if err != nil {
				return Plan{}, fmt.Errorf("splice: canonicalize: %w", err)
			}
			rotated.Entries[i] = PlanEntry{LeadHead: nr, Method: e.Method}
		}
		sort.Slice(rotated.Entries, func(i, j int) bool {
			return rotated.Entries[i].LeadHead.String() < rotated.Entries[j].LeadHead.String()
		})
		key := rotated.serialize()
		if bestKey == "" || key < bestKey {
			bestKey = key
			best = rotated
		}
	}
	return best, nil
}

func (p Plan) serialize() string {
	var sb strings.Builder
	for _, e := range p.Entries {
		sb.WriteString(e.LeadHead.String())
		sb.WriteByte(':')
		sb.WriteString(e.Method)
		sb.WriteByte(';')
	}
	return sb.String()
}

// Equal reports whether p and o describe the same join plan up to
// rotation (spec.md §4.10).
func (p Plan) Equal(o Plan) (bool, error) {
	cp, err := p.Canonical()
	if err != nil {
		return false, err
	}
	co, err := o.Canonical()
	if err != nil {
		return false, err
	}
	return cp.serialize() == co.serialize(), nil
}

// Call is a named lead-end transition used by the join-plan search.
type Call struct {
	Name   string
	Effect rrow.Row
}

// SearchJoinPlans enumerates every sequence of calls that, starting from
// rounds, visits exactly the lead-heads of plan (each once, in its mapped
// method) and returns to rounds, backtracking over the call choice at each
// lead-end atop the multiplication table (spec.md §4.10's "join-plan
// search").
func SearchJoinPlans(mt *multtab.Table, plan Plan, calls []Call) ([][]string, error) {
	required := make(map[int]bool, len(plan.Entries))
	for _, e := range plan.Entries {
		idx, err := mt.IndexOf(e.LeadHead)
		if err != nil {
			return nil, fmt.Errorf("splice: join-plan: %w", err)
		}
		required[idx] = true
	}
	postCols := make([][]int, len(calls))
	for i, c := range calls {
		pc, err := mt.ComputePostColumnRow(c.Effect)
		if err != nil {
			return nil, fmt.Errorf("splice: join-plan: call %s: %w", c.Name, err)
		}
		postCols[i] = pc
	}
	start, err := mt.IndexOf(rrow.Rounds(mt.Bells()))
	if err != nil {
		return nil, fmt.Errorf("splice: join-plan: %w", err)
	}

	var results [][]string
	visited := make(map[int]bool, len(required))
	var path []string

	var dfs func(cur int)
	dfs = func(cur int) {
		for i, pc := range postCols {
			next := pc[cur]
			if next == start {
				if len(visited) == len(required) && len(path) > 0 {
					path = append(path, calls[i].Name)
					cp := make([]string, len(path))
					copy(cp, path)
					results = append(results, cp)
					path = path[:len(path)-1]
				}
				continue
			}
			if !required[next] || visited[next] {
				continue
			}
			visited[next] = true
			path = append(path, calls[i].Name)
			dfs(next)
			path = path[:len(path)-1]
			delete(visited, next)
		}
	}
	if required[start] {
		visited[start] = true
	}
	dfs(start)
	return results, nil
}
