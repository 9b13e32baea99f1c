// Command fextent is the simulated-annealing maximal-true-leads searcher
// of spec.md §4.9: it builds the multiplication table and falseness set
// for a method, anneals a present/absent coset assignment, and reports
// the resulting lead-head set.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/exparrot/ringsearch/internal/accel"
	"github.com/exparrot/ringsearch/internal/engine"
	"github.com/exparrot/ringsearch/internal/maxtrue"
	"github.com/exparrot/ringsearch/internal/status"
	"github.com/exparrot/ringsearch/pkg/bell"
	"github.com/exparrot/ringsearch/pkg/change"
	"github.com/exparrot/ringsearch/pkg/falseness"
	"github.com/exparrot/ringsearch/pkg/group"
	"github.com/exparrot/ringsearch/pkg/method"
	"github.com/exparrot/ringsearch/pkg/rrow"
)

// rowSet is the trivial multtab.RowSource adapter over an explicit slice
// of rows, used to build the table over the group generated by the
// method's lead-head and the call effects rather than the full extent.
type rowSet []rrow.Row

func (rs rowSet) Each(fn func(rrow.Row) bool) {
	for _, r := range rs {
		if !fn(r) {
			return
		}
	}
}

func main() {
	bells := flag.Int("b", 6, "number of bells")
	placeNotation := flag.String("pn", "", "method place notation to anneal over (required)")
	tenorsTogether := flag.Bool("t", false, "restrict falseness to transpositions fixing the tenors")
	inCourse := flag.Bool("i", false, "restrict falseness to in-course transpositions")
	iterations := flag.Int("n", 100000, "annealing iterations")
	requiredFlag := flag.String("r", "", "comma-separated required lead-heads")
	callsFlag := flag.String("C", "", "comma-separated calls, each NAME=PLACE_NOTATION_EFFECT")
	weightBase := flag.Float64("W-base", 1, "base coset weight")
	weightInCourse := flag.Float64("W-in-course", 0, "in-course bonus weight")
	weightOutOfCourse := flag.Float64("W-out-of-course", 0, "out-of-course bonus weight")
	weightTenorsTogether := flag.Float64("W-tenors-together", 0, "tenors-together bonus weight")
	weightTenorsOver := flag.Float64("W-tenors-over", 0, "tenors-over bonus weight")
	weightLinked := flag.Float64("W-linked-course", 0, "linked-course bonus weight")
	seedFlag := flag.String("seed", "", "RNG seed (decimal); empty = derived from current time")
	quiet := flag.Bool("q", false, "suppress progress status lines")
	statusAddr := flag.String("u", "", "if set, serve a status/progress endpoint on this address")
	flag.Parse()

	if *placeNotation == "" {
		log.Fatalf("fextent: argument error: -pn is required")
	}

	ctx, err := engine.FromEnvironment(time.Now().UnixNano())
	if err != nil {
		log.Fatalf("fextent: %v", err)
	}
	seed, err := engine.ParseSeed(*seedFlag, ctx.Seed)
	if err != nil {
		log.Fatalf("fextent: %v", err)
	}

	runID := uuid.NewString()

	changes, err := change.ParsePlaceNotation(*bells, *placeNotation)
	if err != nil {
		log.Fatalf("fextent: argument error: invalid -pn: %v", err)
	}
	m, err := method.New("fextent", *bells, changes)
	if err != nil {
		log.Fatalf("fextent: argument error: %v", err)
	}
	leadHead, err := m.LeadHead()
	if err != nil {
		log.Fatalf("fextent: %v", err)
	}

	opts := falseness.Options{InCourse: *inCourse, TenorsTogether: *tenorsTogether}
	ft, err := falseness.SelfFalseness(m, opts)
	if err != nil {
		log.Fatalf("fextent: %v", err)
	}

	calls, err := parseCalls(*bells, *callsFlag)
	if err != nil {
		log.Fatalf("fextent: argument error: %v", err)
	}

	// The searchable lead-head domain is the group generated by the plain
	// lead-head and every call's lead-end effect — the set of lead-heads
	// reachable by ringing some sequence of leads and calls from rounds.
	// The part-end (reduction) group is left trivial, so every reachable
	// lead-head gets its own coset index (per-lead domain, spec.md §4.9).
	generators := []rrow.Row{leadHead}
	var qsetGenerators []rrow.Row
	for _, c := range calls {
		generators = append(generators, c.Effect)
		qsetGenerators = append(qsetGenerators, c.Effect)
	}
	domain, err := group.Generate(generators)
	if err != nil {
		log.Fatalf("fextent: %v", err)
	}
	trivial, err := group.Generate([]rrow.Row{rrow.Rounds(*bells)})
	if err != nil {
		log.Fatalf("fextent: %v", err)
	}

	required, err := parseRows(ctx.Alphabet, *bells, *requiredFlag)
	if err != nil {
		log.Fatalf("fextent: argument error: %v", err)
	}

	mt, err := accel.BuildTable(rowSet(domain.Elements()), trivial, nil)
	if err != nil {
		log.Fatalf("fextent: %v", err)
	}

	weights := maxtrue.Weights{
		Base:           *weightBase,
		InCourse:       *weightInCourse,
		OutOfCourse:    *weightOutOfCourse,
		TenorsTogether: *weightTenorsTogether,
		TenorsOver:     *weightTenorsOver,
		LinkedCourse:   *weightLinked,
	}

	sa, err := maxtrue.Build(mt, ft, weights, required, qsetGenerators, seed)
	if err != nil {
		log.Fatalf("fextent: %v", err)
	}

	var hub *status.Hub
	if *statusAddr != "" {
		hub = status.NewHub(0)
		go hub.Run()
		srv := status.NewServer(hub)
		srv.SetProgress(status.Progress{RunID: runID, Phase: "annealing", StartedAt: time.Now()})
		go func() {
			if err := srv.Router().Run(*statusAddr); err != nil {
				log.Printf("fextent: status server stopped: %v", err)
			}
		}()
	}
	statusLine := func(format string, args ...any) {
		if *quiet {
			return
		}
		line := fmt.Sprintf(format, args...)
		log.Println(line)
		if hub != nil {
			hub.Push(line)
		}
	}

	statusLine("run %s: annealing %d iterations over %d cosets", runID, *iterations, mt.Size())
	sa.Run(*iterations)
	statusLine("run %s: done, score=%.2f len=%d links=%d", runID, sa.State.Score, sa.State.Len, sa.State.Links)

	rows, err := sa.PresentRows()
	if err != nil {
		log.Fatalf("fextent: %v", err)
	}
	for _, r := range rows {
		fmt.Println(r.String())
	}
	os.Exit(0)
}

type call struct {
	Name   string
	Effect rrow.Row
}

func parseCalls(bells int, raw string) ([]call, error) {
	if raw == "" {
		return nil, nil
	}
	var out []call
	for _, tok := range strings.Split(raw, ",") {
		parts := strings.SplitN(tok, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("call %q missing =PLACE_NOTATION", tok)
		}
		cs, err := change.ParsePlaceNotation(bells, parts[1])
		if err != nil {
			return nil, fmt.Errorf("call %q: %w", tok, err)
		}
		m, err := method.New(parts[0], bells, cs)
		if err != nil {
			return nil, fmt.Errorf("call %q: %w", tok, err)
		}
		lh, err := m.LeadHead()
		if err != nil {
			return nil, fmt.Errorf("call %q: %w", tok, err)
		}
		out = append(out, call{Name: parts[0], Effect: lh})
	}
	return out, nil
}

func parseRows(a bell.Alphabet, bells int, raw string) ([]rrow.Row, error) {
	if raw == "" {
		return nil, nil
	}
	var out []rrow.Row
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		r, err := rrow.Parse(a, tok)
		if err != nil {
			return nil, fmt.Errorf("row %q: %w", tok, err)
		}
		out = append(out, r)
	}
	return out, nil
}
