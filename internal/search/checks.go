package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/exparrot/ringsearch/pkg/change"
	"github.com/exparrot/ringsearch/pkg/extent"
	"github.com/exparrot/ringsearch/pkg/falseness"
	"github.com/exparrot/ringsearch/pkg/group"
	"github.com/exparrot/ringsearch/pkg/method"
	"github.com/exparrot/ringsearch/pkg/multtab"
	"github.com/exparrot/ringsearch/pkg/rrow"
)

// PlaceClass names one row of the place-notation classification table of
// spec.md §4.7 ("Classification at the final cross-section").
type PlaceClass int

const (
	// AnyClass means no classification constraint is active.
	AnyClass PlaceClass = iota
	TrebleBob
	Surprise
	Delight
	StrictDelight
	Exercise
	StrictExercise
	PasAllaTria
	PasAllaTessera
)

// LeadHeadKind names the lead-head shape filter of spec.md §4.7.
type LeadHeadKind int

const (
	AnyLeadHead LeadHeadKind = iota
	RegularLeadHead
	CyclicLeadHead
	OffsetCyclicLeadHead
)

// trebleCrossSections locates the rows at which the treble (bell 0) sits at
// an extreme place (the front or the back), which are exactly the points a
// hunt bell's path reverses direction — the "cross-sections" the method
// classification table and division-falseness rules are defined against.
// Returns the row indices, in lead order.
func trebleCrossSections(rows []rrow.Row) []int {
	if len(rows) == 0 {
		return nil
	}
	n := rows[0].Bells()
	var out []int
	for i, r := range rows {
		pos := -1
		for p := 0; p < n; p++ {
			if r.At(p) == 0 {
				pos = p
				break
			}
		}
		if pos == 0 || pos == n-1 {
			out = append(out, i)
		}
	}
	return out
}

// classify returns the count e of cross-sections (of the total) at which
// the change straddling that cross-section carries an internal place, and
// the total cross-section count, per spec.md §4.7's classification table.
func classify(changes []change.Change, rows []rrow.Row) (e, total int) {
	sections := trebleCrossSections(rows)
	total = len(sections)
	for _, i := range sections {
		if changes[i].InternalPlace() {
			e++
		}
	}
	return e, total
}

// matchesClass reports whether (e, total) satisfies the requested class.
func matchesClass(pc PlaceClass, e, total int) bool {
	switch pc {
	case AnyClass:
		return true
	case TrebleBob:
		return e == total
	case Surprise:
		return e == 0
	case Delight:
		return e > 0 && e < total
	case StrictDelight:
		return e == 1
	case Exercise:
		return e >= 2
	case StrictExercise:
		return e == 2
	case PasAllaTria:
		return e == 3
	case PasAllaTessera:
		return e == 4
	}
	return true
}

// divisions splits the lead's row range into the segments between
// consecutive treble cross-sections (including the wrap-around segment from
// the last cross-section back to the first, via the lead-head). Each
// division is returned as the half-open row-index range [start, end) within
// [0, L).
func divisions(rows []rrow.Row) [][2]int {
	sections := trebleCrossSections(rows)
	if len(sections) < 2 {
		return nil
	}
	var out [][2]int
	for i := 0; i < len(sections)-1; i++ {
		out = append(out, [2]int{sections[i], sections[i+1]})
	}
	out = append(out, [2]int{sections[len(sections)-1], len(rows)})
	return out
}

// divisionFalse reports whether any division (as split by divisions) is
// internally false: two rows within the same division coincide modulo the
// optional part-end group. The search applies it to every division
// whenever Config.DivisionFalseness is set; the number of treble dodges
// per division is not checked.
func divisionFalse(rows []rrow.Row, divs [][2]int, peGroup *group.Group) (bool, error) {
	for _, d := range divs {
		seen := make(map[string]bool, d[1]-d[0])
		for i := d[0]; i < d[1]; i++ {
			label := rows[i]
			if peGroup != nil {
				var err error
				label, err = peGroup.CosetLabel(label)
				if err != nil {
					return false, fmt.Errorf("search: division-falseness: %w", err)
				}
			}
			key := label.String()
			if seen[key] {
				return true, nil
			}
			seen[key] = true
		}
	}
	return false, nil
}

// symSectsOK checks divisional symmetry: within each division, the second
// half of the change block mirrors the first (changes[start+i] ==
// changes[end-1-i]).
func symSectsOK(changes []change.Change, divs [][2]int) bool {
	for _, d := range divs {
		start, end := d[0], d[1]
		n := end - start
		for i := 0; i < n/2; i++ {
			if !changes[start+i].Equal(changes[end-1-i]) {
				return false
			}
		}
	}
	return true
}

// parityHackOK requires, for each distinct treble place visited during the
// lead, an equal count of even- and odd-parity rows occupying that place.
func parityHackOK(rows []rrow.Row) bool {
	n := rows[0].Bells()
	even := make(map[int]int)
	odd := make(map[int]int)
	for _, r := range rows {
		pos := -1
		for p := 0; p < n; p++ {
			if r.At(p) == 0 {
				pos = p
				break
			}
		}
		if r.Sign() == 1 {
			even[pos]++
		} else {
			odd[pos]++
		}
	}
	for p, ec := range even {
		if ec != odd[p] {
			return false
		}
	}
	for p, oc := range odd {
		if oc != even[p] {
			return false
		}
	}
	return true
}

// leadHeadKind classifies lh's structural shape against the non-hunt
// bells. This is a pragmatic approximation of the Central Council's
// regular/cyclic/offset-cyclic taxonomy (see DESIGN.md): regular methods
// permute every non-hunt bell in a single cycle; cyclic methods permute
// every bell (hunts included) in one cycle of the full stage; offset-cyclic
// methods fix exactly one bell and cycle the rest.
func leadHeadKind(lh rrow.Row, hunts int) LeadHeadKind {
	n := lh.Bells()
	cycles := lh.Cycles()
	fixed := n
	for _, c := range cycles {
		fixed -= len(c)
	}
	if len(cycles) == 1 && len(cycles[0]) == n {
		return CyclicLeadHead
	}
	if fixed == hunts {
		workingLen := n - hunts
		for _, c := range cycles {
			if len(c) == workingLen {
				return RegularLeadHead
			}
		}
	}
	if fixed == 1 && len(cycles) == 1 && len(cycles[0]) == n-1 {
		return OffsetCyclicLeadHead
	}
	return AnyLeadHead
}

func leadHeadKindOK(want, got LeadHeadKind) bool {
	if want == AnyLeadHead {
		return true
	}
	return want == got
}

// startAtOK reports whether changes sorts at or after start in the engine's
// per-position place ordering (comparing fixed-place sets position by
// position), approximating the CLI's --start-at resume point.
func startAtOK(changes, start []change.Change) bool {
	if len(start) == 0 {
		return true
	}
	n := len(changes)
	if len(start) < n {
		n = len(start)
	}
	for i := 0; i < n; i++ {
		a, b := changes[i].Places(), start[i].Places()
		cmp := comparePlaces(a, b)
		if cmp != 0 {
			return cmp > 0
		}
	}
	return len(changes) >= len(start)
}

func comparePlaces(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// falsenessClassOK computes the method's self-falseness group symbol via
// pkg/falseness and reports whether it lies in allowed (each entry either an
// exact symbol or an "A-F"-style single-letter range).
func falsenessClassOK(m *method.Method, allowed []string) (bool, string, error) {
	ft, err := falseness.SelfFalseness(m, falseness.Options{})
	if err != nil {
		return false, "", fmt.Errorf("search: falseness-class filter: %w", err)
	}
	symbol, _, err := falseness.Classify(ft)
	if err != nil {
		return false, "", fmt.Errorf("search: falseness-class filter: %w", err)
	}
	if len(allowed) == 0 {
		return true, symbol, nil
	}
	for _, a := range allowed {
		if matchesFalsenessSpec(a, symbol) {
			return true, symbol, nil
		}
	}
	return false, symbol, nil
}

func matchesFalsenessSpec(spec, symbol string) bool {
	if lo, hi, ok := strings.Cut(spec, "-"); ok && len(lo) == 1 && len(hi) == 1 {
		return len(symbol) == 1 && symbol[0] >= lo[0] && symbol[0] <= hi[0]
	}
	return spec == symbol
}

// extentFeasible builds the coset domain of whole leads under the
// lead-head's cyclic group and checks whether the self-falseness relation
// can 2-colour it (spec.md §4.7, "true-extent"): present/absent alternation
// with no two mutually-false cosets both present is only achievable when
// the mutual-falseness graph is bipartite.
func extentFeasible(m *method.Method, hunts int) (bool, error) {
	lh, err := m.LeadHead()
	if err != nil {
		return false, fmt.Errorf("search: extent-feasibility: %w", err)
	}
	if lh.IsRounds() {
		return true, nil
	}
	g, err := group.Generate([]rrow.Row{lh})
	if err != nil {
		return false, fmt.Errorf("search: extent-feasibility: %w", err)
	}
	it, err := extent.New(m.Bells(), hunts, 0, false)
	if err != nil {
		return false, fmt.Errorf("search: extent-feasibility: %w", err)
	}
	mt, err := multtab.Build(it, g, nil)
	if err != nil {
		// A part-end/extent mismatch here means the table cannot be built
		// for this lead-head at all; treat as infeasible rather than abort
		// the whole search.
		return false, nil
	}
	ft, err := falseness.SelfFalseness(m, falseness.Options{})
	if err != nil {
		return false, fmt.Errorf("search: extent-feasibility: %w", err)
	}
	var cols [][]int
	for _, f := range ft.Rows() {
		pc, err := mt.ComputePostColumnRow(f)
		if err != nil {
			continue
		}
		cols = append(cols, pc)
	}
	color := make([]int, mt.Size())
	for i := range color {
		color[i] = -1
	}
	for start := 0; start < mt.Size(); start++ {
		if color[start] != -1 {
			continue
		}
		color[start] = 0
		queue := []int{start}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, pc := range cols {
				next := pc[cur]
				if next == cur {
					return false, nil // self-false coset: no 2-colouring possible
				}
				if color[next] == -1 {
					color[next] = 1 - color[cur]
					queue = append(queue, next)
				} else if color[next] == color[cur] {
					return false, nil
				}
			}
		}
	}
	return true, nil
}

// ExpandFalsenessRanges splits a comma-separated falseness-flag spec (the
// -F option's "A-F" and single-symbol forms) into discrete allowed entries.
func ExpandFalsenessRanges(raw string) []string {
	var out []string
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if tok != "" {
			out = append(out, tok)
		}
	}
	sort.Strings(out)
	return out
}
