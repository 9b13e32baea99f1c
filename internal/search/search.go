// Package search implements the backtracking method-search engine: a
// depth-first search over per-position change alternatives with symmetry
// folding, falseness pruning, and a streaming output sink (spec.md §4.7).
package search

import (
	"fmt"
	"log"
	"strings"

	"github.com/exparrot/ringsearch/internal/music"
	"github.com/exparrot/ringsearch/internal/predicate"
	"github.com/exparrot/ringsearch/pkg/bell"
	"github.com/exparrot/ringsearch/pkg/change"
	"github.com/exparrot/ringsearch/pkg/falseness"
	"github.com/exparrot/ringsearch/pkg/group"
	"github.com/exparrot/ringsearch/pkg/method"
)

// Config parameterizes one search run.
type Config struct {
	Bells          int
	LeadLength     int
	AltLists       [][]change.Change // per-position candidate changes, len == LeadLength
	PartEndGroup   *group.Group      // optional; nil means the trivial group
	Symmetry       method.Symmetry   // required symmetry fold, or method.NoSymmetry
	MaxConsecBlows int               // 0 = unlimited
	TrueLead       bool              // require the lead to be internally true
	Predicates     []*predicate.Expr
	NamePrefix     string

	Hunts int // number of fixed hunt bells (bell 0 is the treble whose path drives the checks below)

	DivisionFalseness bool // reject if any division (between treble cross-sections) is internally false
	SymSects          bool // reject unless each division is itself palindromic
	ParityHack        bool // reject unless each treble-path place sees equal even/odd-parity rows

	Class PlaceClass // required place-notation classification, or AnyClass

	StartAt []change.Change // reject methods sorting lexicographically before this one

	LeadHeadKind LeadHeadKind // required lead-head shape, or AnyLeadHead

	FalsenessAllowed []string // allowed falseness-group symbols/ranges; nil = unrestricted

	TrueExtent bool // require the mutually-false lead-head graph to be 2-colourable

	// Sink receives every method that passes all filters. Returning false
	// stops the search early (but is not an error).
	Sink func(*method.Method) bool

	// Status, if non-nil, receives progress lines out of band from method
	// output (spec.md §5: status lines must never interleave with
	// emitted methods).
	Status func(string)
}

// Engine runs one method-search session.
type Engine struct {
	cfg       Config
	foldedLen int
	found     int
	stopped   bool
}

// New validates cfg and builds an Engine ready to Run.
func New(cfg Config) (*Engine, error) {
	if cfg.LeadLength <= 0 {
		return nil, fmt.Errorf("search: non-positive lead length")
	}
	if len(cfg.AltLists) != cfg.LeadLength {
		return nil, fmt.Errorf("search: alt-lists length %d != lead length %d", len(cfg.AltLists), cfg.LeadLength)
	}
	for p, alts := range cfg.AltLists {
		if len(alts) == 0 {
			return nil, fmt.Errorf("mask-inconsistent-with-symmetry: position %d has no candidate changes", p)
		}
	}
	e := &Engine{cfg: cfg}
	e.foldedLen = foldedLength(cfg.LeadLength, cfg.Symmetry)
	return e, nil
}

// foldedLength returns how many independent positions must actually be
// searched when sym is enforced (spec.md §4.7, "Symmetry folding"):
//   - Palindromic: the body (all changes but the last) folds to its first
//     half, plus the independently-chosen lead-end change.
//   - Rotational: the sequence repeats with period L/2, so only the first
//     half is independent.
//   - Mirror and Glide are both folded as a reversal across the whole
//     sequence (changes[i] == changes[L-1-i]), so only the first half
//     (rounded up, to cover an odd centre) is independent. For Mirror this
//     covers only that one axis, not the other rotations that
//     method.SymmetrySignature also counts as Mirror.
func foldedLength(leadLength int, sym method.Symmetry) int {
	switch sym {
	case method.Palindromic:
		body := leadLength - 1
		half := (body + 1) / 2
		return half + 1
	case method.Rotational:
		return (leadLength + 1) / 2
	case method.Mirror, method.Glide:
		return (leadLength + 1) / 2
	default:
		return leadLength
	}
}

// reconstruct expands a folded partial choice back into a full
// LeadLength-long change sequence, inverting the fold foldedLength chose.
func reconstruct(partial []change.Change, leadLength int, sym method.Symmetry) []change.Change {
	full := make([]change.Change, leadLength)
	switch sym {
	case method.Palindromic:
		body := leadLength - 1
		half := (body + 1) / 2
		for i := 0; i < half; i++ {
			full[i] = partial[i]
			full[body-1-i] = partial[i]
		}
		full[leadLength-1] = partial[half]
	case method.Rotational:
		half := leadLength / 2
		for i := 0; i < half; i++ {
			full[i] = partial[i]
			full[i+half] = partial[i]
		}
		if leadLength%2 == 1 {
			full[leadLength-1] = partial[half]
		}
	case method.Mirror, method.Glide:
		half := (leadLength + 1) / 2
		for i := 0; i < half; i++ {
			full[i] = partial[i]
			full[leadLength-1-i] = partial[i]
		}
	default:
		copy(full, partial)
	}
	return full
}

// Run performs the depth-first search, invoking cfg.Sink for every method
// that survives all filters. It returns only on a fatal error (an
// AbortError from the predicate layer, or a malformed configuration);
// Sink returning false, or exhausting the search space, are not errors.
func (e *Engine) Run() error {
	partial := make([]change.Change, e.foldedLen)
	return e.recurse(0, partial)
}

func (e *Engine) recurse(p int, partial []change.Change) error {
	if e.stopped {
		return nil
	}
	if p == e.foldedLen {
		return e.accept(partial)
	}
	altIdx := p
	if e.cfg.Symmetry == method.Palindromic && p == e.foldedLen-1 {
		// The last folded slot is always the independent lead-end change.
		altIdx = e.cfg.LeadLength - 1
	}
	for _, c := range e.cfg.AltLists[altIdx] {
		partial[p] = c
		if !e.consecutiveBlowsOK(partial, p) {
			continue
		}
		if err := e.recurse(p+1, partial); err != nil {
			return err
		}
		if e.stopped {
			return nil
		}
	}
	return nil
}

// consecutiveBlowsOK checks the max-consecutive-blows-in-a-place
// constraint against the partial prefix ending at position p.
func (e *Engine) consecutiveBlowsOK(partial []change.Change, p int) bool {
	if e.cfg.MaxConsecBlows <= 0 {
		return true
	}
	for b := 0; b < e.cfg.Bells; b++ {
		run := 0
		for i := 0; i <= p; i++ {
			if partial[i].IsFixed(b) {
				run++
				if run > e.cfg.MaxConsecBlows {
					return false
				}
			} else {
				run = 0
			}
		}
	}
	return true
}

func (e *Engine) accept(partial []change.Change) error {
	full := reconstruct(partial, e.cfg.LeadLength, e.cfg.Symmetry)

	if e.cfg.TrueLead {
		ok, err := e.trueLead(full)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	m, err := method.New(e.cfg.NamePrefix, e.cfg.Bells, full)
	if err != nil {
		// Every individual change was already validated at alt-list
		// construction time; a failure here is a logic error, not a
		// search-time rejection.
		log.Printf("[Search] internal error constructing method: %v", err)
		return nil
	}

	if len(e.cfg.StartAt) > 0 && !startAtOK(full, e.cfg.StartAt) {
		return nil
	}

	if e.cfg.Class != AnyClass || e.cfg.DivisionFalseness || e.cfg.SymSects {
		rows, err := m.Rows()
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}
		if e.cfg.Class != AnyClass {
			ec, total := classify(full, rows)
			if !matchesClass(e.cfg.Class, ec, total) {
				return nil
			}
		}
		if e.cfg.DivisionFalseness || e.cfg.SymSects {
			divs := divisions(rows)
			if e.cfg.SymSects && !symSectsOK(full, divs) {
				return nil
			}
			if e.cfg.DivisionFalseness {
				dfalse, err := divisionFalse(rows, divs, e.cfg.PartEndGroup)
				if err != nil {
					return fmt.Errorf("search: %w", err)
				}
				if dfalse {
					return nil
				}
			}
		}
	}

	if e.cfg.ParityHack {
		rows, err := m.Rows()
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}
		if !parityHackOK(rows) {
			return nil
		}
	}

	if e.cfg.LeadHeadKind != AnyLeadHead {
		lh, err := m.LeadHead()
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}
		if !leadHeadKindOK(e.cfg.LeadHeadKind, leadHeadKind(lh, e.cfg.Hunts)) {
			return nil
		}
	}

	if len(e.cfg.FalsenessAllowed) > 0 {
		ok, _, err := falsenessClassOK(m, e.cfg.FalsenessAllowed)
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}
		if !ok {
			return nil
		}
	}

	if e.cfg.TrueExtent {
		ok, err := extentFeasible(m, e.cfg.Hunts)
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}
		if !ok {
			return nil
		}
	}

	if len(e.cfg.Predicates) > 0 {
		env := buildEnv(m)
		for _, pr := range e.cfg.Predicates {
			ok, err := pr.Eval(env)
			if err != nil {
				if _, isAbort := err.(*predicate.AbortError); isAbort {
					e.stopped = true
					return err
				}
				// Suppress / runtime errors reject only this method.
				return nil
			}
			if !ok {
				return nil
			}
		}
	}

	e.found++
	if e.cfg.Status != nil && e.found%1000 == 0 {
		e.cfg.Status(fmt.Sprintf("search: %d methods accepted so far", e.found))
	}
	if e.cfg.Sink != nil && !e.cfg.Sink(m) {
		e.stopped = true
	}
	return nil
}

// trueLead checks that no two rows within the lead reduce to the same
// part-end coset (falseness pruning applied at acceptance time rather than
// incrementally during the fold, trading some search-time pruning
// efficiency for a simpler, structurally-verifiable implementation).
func (e *Engine) trueLead(changes []change.Change) (bool, error) {
	m, err := method.New("", e.cfg.Bells, changes)
	if err != nil {
		return false, fmt.Errorf("search: true-lead check: %w", err)
	}
	rows, err := m.Rows()
	if err != nil {
		return false, fmt.Errorf("search: true-lead check: %w", err)
	}
	seen := make(map[string]bool, len(rows))
	for _, r := range rows {
		label := r
		if e.cfg.PartEndGroup != nil {
			label, err = e.cfg.PartEndGroup.CosetLabel(r)
			if err != nil {
				return false, fmt.Errorf("search: true-lead check: %w", err)
			}
		}
		key := label.String()
		if seen[key] {
			return false, nil
		}
		seen[key] = true
	}
	return true, nil
}

// Found returns the number of methods accepted so far.
func (e *Engine) Found() int { return e.found }

// buildEnv computes the `$X`-style predicate variables of spec.md §4.9 for
// an accepted method: length, lead head, CRU count, falseness group,
// per-bell place-bells, and the lead-end change.
func buildEnv(m *method.Method) predicate.Env {
	env := predicate.Env{
		"L": {Kind: predicate.KindInt, Int: int64(m.LeadLength())},
	}
	if lh, err := m.LeadHead(); err == nil {
		env["l"] = predicate.Value{Kind: predicate.KindString, Str: lh.String()}
	}

	env["F"] = predicate.Value{Kind: predicate.KindString, Str: ""}
	if ft, err := falseness.SelfFalseness(m, falseness.Options{}); err == nil {
		if symbol, _, err := falseness.Classify(ft); err == nil {
			env["F"] = predicate.Value{Kind: predicate.KindString, Str: symbol}
		}
	}

	env["M"] = predicate.Value{Kind: predicate.KindInt, Int: 0}
	if rows, err := m.Rows(); err == nil {
		if n, err := music.NamedPatternScore("CRUs", rows); err == nil {
			env["M"] = predicate.Value{Kind: predicate.KindInt, Int: int64(n)}
		}
	}

	env["D"] = predicate.Value{Kind: predicate.KindString, Str: m.LeadEndChange().String()}

	alpha := bell.Default()
	for b := 0; b < m.Bells(); b++ {
		places, err := m.PlaceBells(b)
		if err != nil {
			continue
		}
		var sb strings.Builder
		for _, p := range places {
			r, err := alpha.Symbol(bell.Bell(p))
			if err != nil {
				continue
			}
			sb.WriteRune(r)
		}
		env[fmt.Sprintf("P_%d", b+1)] = predicate.Value{Kind: predicate.KindString, Str: sb.String()}
	}

	return env
}
