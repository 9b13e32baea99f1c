// Package maxtrue implements the simulated-annealing maximal-true-leads
// searcher (spec.md §4.9): given a multiplication table and a falseness
// set, find a large subset of lead-heads that is mutually true and,
// optionally, linked by a set of call-derived Q-sets.
package maxtrue

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/exparrot/ringsearch/pkg/falseness"
	"github.com/exparrot/ringsearch/pkg/multtab"
	"github.com/exparrot/ringsearch/pkg/rrow"
)

// Weights carries the precomputed-once per-coset weighting fields carried
// forward verbatim in semantics from fextent.cpp: base plus bonuses keyed
// off a row's course sign and tenor placement.
type Weights struct {
	Base           float64
	InCourse       float64
	OutOfCourse    float64
	TenorsTogether float64
	TenorsOver     float64
	LinkedCourse   float64 // link_weight: added to Δ per Δlinks on commit
}

// DefaultWeights mirrors fextent.cpp's defaults: every coset counts once
// (base=1), with no bonuses and no linkage incentive, unless the caller
// asks for them via -W. Only Base's value (1) is pinned down by the
// original; the bonus values are the caller's -W options and have no
// meaningful "default" of their own, so they default to zero here.
func DefaultWeights() Weights { return Weights{Base: 1} }

// qset is a Q-set anchored at a lead-head index: the conjugate lead-heads
// that must be added/removed together with the anchor to preserve truth
// under the generating call.
type qset struct {
	generator int
	anchor    int
	members   []int // excludes the anchor, per spec.md's "minus the identity"
}

// Engine holds the immutable problem data (table, falseness post-columns,
// weights, Q-sets) plus the single mutable State being annealed.
type Engine struct {
	mt      *multtab.Table
	falseP  [][]int // one post-column array per falseness-table row
	weights Weights

	qsetsByIndex map[int][]int // index -> indices into qsets
	qsets        []qset

	rng *rand.Rand

	State *State
}

// State is the SA state of §4.9 "State": per-coset present/disallowed/
// required flags and linkage tags, plus the running aggregates.
type State struct {
	size       int
	present    []bool
	disallowed []bool
	required   []bool
	linkTag    []int // index into Engine.qsets, or -1
	weight     []float64

	Score float64
	Len   int
	Links int
	Beta  float64
}

// Build constructs an Engine: computes falseness post-columns, the
// disallowed/required sets, weights, and (if generators are given) the
// Q-set linkage structure.
func Build(mt *multtab.Table, ft *falseness.Table, w Weights, required []rrow.Row, qsetGenerators []rrow.Row, seed int64) (*Engine, error) {
	size := mt.Size()
	e := &Engine{
		mt:           mt,
		weights:      w,
		qsetsByIndex: make(map[int][]int),
		rng:          rand.New(rand.NewSource(seed)),
	}

	if ft != nil {
		for _, f := range ft.Rows() {
			pc, err := mt.ComputePostColumnRow(f)
			if err != nil {
				// A falseness row that does not descend consistently to the
				// table is a structural mismatch between the falseness
				// flags used to build ft and those used to build mt; skip it
				// rather than fail the whole run, since other rows may still
				// be usable.
				continue
			}
			e.falseP = append(e.falseP, pc)
		}
	}

	st := &State{
		size:       size,
		present:    make([]bool, size),
		disallowed: make([]bool, size),
		required:   make([]bool, size),
		linkTag:    make([]int, size),
		weight:     make([]float64, size),
		Beta:       3, // beta_init
	}
	for i := range st.linkTag {
		st.linkTag[i] = -1
	}
	e.State = st

	for i := 0; i < size; i++ {
		for _, pc := range e.falseP {
			if pc[i] == i {
				st.disallowed[i] = true
				break
			}
		}
	}

	for i := 0; i < size; i++ {
		row, err := mt.RowAt(i)
		if err != nil {
			return nil, fmt.Errorf("maxtrue: %w", err)
		}
		st.weight[i] = e.weightFor(row)
	}

	for _, r := range required {
		idx, err := mt.IndexOf(r)
		if err != nil {
			return nil, fmt.Errorf("maxtrue: required lead-head: %w", err)
		}
		st.required[idx] = true
		st.disallowed[idx] = false
		st.present[idx] = true
		st.Score += st.weight[idx]
		st.Len++
		for _, pc := range e.falseP {
			j := pc[idx]
			if j != idx {
				st.disallowed[j] = true
				st.present[j] = false
			}
		}
	}

	for gi, g := range qsetGenerators {
		pc, err := mt.ComputePostColumnRow(g)
		if err != nil {
			continue // generator does not act consistently on this table; drop it
		}
		for anchor := 0; anchor < size; anchor++ {
			var members []int
			cur := pc[anchor]
			for cur != anchor && len(members) < size {
				members = append(members, cur)
				cur = pc[cur]
			}
			if len(members) == 0 {
				continue
			}
			if st.disallowed[anchor] {
				continue
			}
			intersectsF := false
			for _, m := range members {
				if st.disallowed[m] {
					intersectsF = true
					break
				}
			}
			if intersectsF {
				continue
			}
			qi := len(e.qsets)
			e.qsets = append(e.qsets, qset{generator: gi, anchor: anchor, members: members})
			e.qsetsByIndex[anchor] = append(e.qsetsByIndex[anchor], qi)
			for _, m := range members {
				e.qsetsByIndex[m] = append(e.qsetsByIndex[m], qi)
			}
		}
	}

	return e, nil
}

// weightFor computes a coset's precomputed weight from its representative
// row's course sign and tenor placement (spec.md §4.9 "Weighting").
func (e *Engine) weightFor(r rrow.Row) float64 {
	w := e.weights.Base
	n := r.Bells()
	if r.Sign() == 1 {
		w += e.weights.InCourse
	} else {
		w += e.weights.OutOfCourse
	}
	if n >= 3 && r.At(n-1) == n-1 && r.At(n-3) == n-2 {
		w += e.weights.TenorsTogether
		w += e.weights.TenorsOver
	}
	return w
}

// Run executes iterations perturbation attempts, advancing beta
// geometrically from beta_init=3 to beta_final=25, then (if qsets were
// supplied) runs the fixed-point unlinked-prune pass.
func (e *Engine) Run(iterations int) {
	if iterations <= 0 {
		return
	}
	const betaInit, betaFinal = 3.0, 25.0
	ratio := math.Pow(betaFinal/betaInit, 1.0/float64(iterations))
	e.State.Beta = betaInit
	for step := 0; step < iterations; step++ {
		e.step()
		e.State.Beta *= ratio
	}
	if len(e.qsets) > 0 {
		e.prune()
	}
}

// step performs one random perturbation attempt: pick a random index, try
// to add it if absent or remove it if present, and apply the Metropolis
// acceptance rule.
func (e *Engine) step() {
	i := e.rng.Intn(e.State.size)
	st := e.State
	if st.present[i] {
		e.tryRemove(i)
	} else if !st.disallowed[i] {
		e.tryAdd(i)
	}
}

type perturbation struct {
	toRemove  []int // indices to clear
	toAdd     []int // indices to set present (includes the anchor on add)
	delta     float64
	deltaLink int
	relink    map[int]int // index -> new linkTag, applied on commit
	unlink    []int       // indices whose linkTag clears to -1 on commit
}

func (e *Engine) tryAdd(i int) {
	st := e.State
	p := &perturbation{relink: make(map[int]int)}
	conflictSet := make(map[int]bool)
	for _, pc := range e.falseP {
		j := pc[i]
		if j == i {
			continue // already excluded via disallowed, defensive only
		}
		if st.present[j] {
			if st.required[j] {
				return // spec.md: reject the whole perturbation outright
			}
			conflictSet[j] = true
		}
	}
	for j := range conflictSet {
		p.toRemove = append(p.toRemove, j)
		p.delta -= st.weight[j]
		if st.linkTag[j] != -1 {
			p.unlink = append(p.unlink, j)
			p.deltaLink--
		}
	}
	p.toAdd = append(p.toAdd, i)
	p.delta += st.weight[i]

	willBePresent := func(idx int) bool {
		if conflictSet[idx] {
			return false
		}
		return st.present[idx] || idx == i
	}
	for _, qi := range e.qsetsByIndex[i] {
		qs := e.qsets[qi]
		complete := true
		for _, m := range qs.members {
			if !willBePresent(m) {
				complete = false
				break
			}
		}
		if qs.anchor != i && !willBePresent(qs.anchor) {
			complete = false
		}
		if complete {
			p.relink[qs.anchor] = qi
			for _, m := range qs.members {
				p.relink[m] = qi
			}
			p.deltaLink++
		}
	}
	p.delta += e.weights.LinkedCourse * float64(p.deltaLink)

	if e.accept(p.delta) {
		e.commit(p)
	}
}

func (e *Engine) tryRemove(i int) {
	st := e.State
	if st.required[i] {
		return
	}
	p := &perturbation{relink: make(map[int]int)}
	p.toRemove = append(p.toRemove, i)
	p.delta -= st.weight[i]

	affected := map[int]bool{}
	if st.linkTag[i] != -1 {
		qs := e.qsets[st.linkTag[i]]
		p.unlink = append(p.unlink, i)
		p.deltaLink--
		for _, m := range qs.members {
			if m != i && st.linkTag[m] == st.linkTag[i] {
				p.unlink = append(p.unlink, m)
				affected[m] = true
			}
		}
		if qs.anchor != i && st.linkTag[qs.anchor] == st.linkTag[i] {
			p.unlink = append(p.unlink, qs.anchor)
			affected[qs.anchor] = true
		}
	}

	stillPresent := func(idx int) bool {
		if idx == i {
			return false
		}
		return st.present[idx]
	}
	for j := range affected {
		for _, qi := range e.qsetsByIndex[j] {
			qs := e.qsets[qi]
			complete := stillPresent(qs.anchor)
			for _, m := range qs.members {
				if !stillPresent(m) {
					complete = false
					break
				}
			}
			if complete {
				p.relink[qs.anchor] = qi
				for _, m := range qs.members {
					p.relink[m] = qi
				}
				p.deltaLink++
				break
			}
		}
	}
	p.delta += e.weights.LinkedCourse * float64(p.deltaLink)

	if e.accept(p.delta) {
		e.commit(p)
	}
}

func (e *Engine) accept(delta float64) bool {
	if delta > 0 {
		return true
	}
	return e.rng.Float64() < math.Exp(delta*e.State.Beta)
}

func (e *Engine) commit(p *perturbation) {
	st := e.State
	for _, j := range p.toRemove {
		st.present[j] = false
		st.Len--
	}
	for _, j := range p.toAdd {
		st.present[j] = true
		st.Len++
	}
	for _, j := range p.unlink {
		if _, relinked := p.relink[j]; !relinked {
			st.linkTag[j] = -1
		}
	}
	for j, tag := range p.relink {
		st.linkTag[j] = tag
	}
	st.Score += p.delta
	st.Links += p.deltaLink
}

// prune repeatedly removes any present-but-unlinked coset until none
// remains, run once at the end when linkage was requested.
func (e *Engine) prune() {
	st := e.State
	for {
		changed := false
		for i := 0; i < st.size; i++ {
			if st.present[i] && !st.required[i] && st.linkTag[i] == -1 {
				st.present[i] = false
				st.Len--
				st.Score -= st.weight[i]
				changed = true
			}
		}
		if !changed {
			return
		}
	}
}

// PresentRows returns the representative rows of every present coset.
func (e *Engine) PresentRows() ([]rrow.Row, error) {
	var out []rrow.Row
	for i := 0; i < e.State.size; i++ {
		if e.State.present[i] {
			r, err := e.mt.RowAt(i)
			if err != nil {
				return nil, fmt.Errorf("maxtrue: %w", err)
			}
			out = append(out, r)
		}
	}
	return out, nil
}

// CheckInvariants re-derives score/len and verifies no two present cosets
// are mutually false; used under the ENABLE_CHECKS debugging mode of
// spec.md §4.9.
func (e *Engine) CheckInvariants() error {
	st := e.State
	var score float64
	var length int
	for i := 0; i < st.size; i++ {
		if !st.present[i] {
			continue
		}
		length++
		score += st.weight[i]
		if st.disallowed[i] {
			return fmt.Errorf("maxtrue: invariant violated: disallowed coset %d is present", i)
		}
		for _, pc := range e.falseP {
			j := pc[i]
			if j != i && st.present[j] {
				return fmt.Errorf("maxtrue: invariant violated: cosets %d and %d are mutually false but both present", i, j)
			}
		}
	}
	for i := 0; i < st.size; i++ {
		if st.required[i] && !st.present[i] {
			return fmt.Errorf("maxtrue: invariant violated: required coset %d is absent", i)
		}
	}
	score += e.weights.LinkedCourse * float64(st.Links)
	if length != st.Len {
		return fmt.Errorf("maxtrue: invariant violated: Len=%d, recomputed=%d", st.Len, length)
	}
	if math.Abs(score-st.Score) > 1e-6 {
		return fmt.Errorf("maxtrue: invariant violated: Score=%f, recomputed=%f", st.Score, score)
	}
	return nil
}
