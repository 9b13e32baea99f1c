// Command methsearch is the backtracking method-search engine of spec.md
// §4.7: it builds the per-position change alternatives from the command
// line, runs internal/search, and writes every accepted method as a
// tab-separated record (or to the status stream out of band).
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/exparrot/ringsearch/internal/engine"
	"github.com/exparrot/ringsearch/internal/music"
	"github.com/exparrot/ringsearch/internal/predicate"
	"github.com/exparrot/ringsearch/internal/search"
	"github.com/exparrot/ringsearch/internal/status"
	"github.com/exparrot/ringsearch/pkg/change"
	"github.com/exparrot/ringsearch/pkg/method"
)

func main() {
	bells := flag.Int("b", 6, "number of bells")
	leadLen := flag.Int("n", 0, "lead length (0 = derive from -G/-Z as (dodges+1)*treble-range*2, i.e. 2*bells with their defaults)")
	hunts := flag.Int("U", 1, "number of hunt bells")
	dodges := flag.Int("G", 0, "treble dodges per treble-path section")
	trebleRange := flag.String("Z", "", "treble-path range F-B (front/back place, 1-indexed); empty = full range")
	changesFlag := flag.String("changes", "", "comma-separated place notations allowed at every position")
	maskFlag := flag.String("m", "", "comma-separated per-position place notations (overrides --changes positionally)")
	maxConsec := flag.Int("p", 0, "max consecutive blows in one place (0 = unlimited)")
	maxPlaces := flag.Int("l", 0, "max places per change (0 = unlimited)")
	maxAdjPlaces := flag.Int("j", 0, "max adjacent places in one change (0 = unlimited)")
	rightPlace := flag.Bool("w", false, "right-place rule: only changes whose place count matches the working-bell count")
	no78 := flag.Bool("f", false, "no 78s: exclude changes with both of the top two places fixed")
	mirrorOnly := flag.Bool("mirror-only", false, "only allow changes that are mirror-symmetric about the centre place")
	symP := flag.Bool("s", false, "require palindromic symmetry")
	symR := flag.Bool("k", false, "require rotational symmetry")
	symG := flag.Bool("d", false, "require glide symmetry")
	cyclicHL := flag.Bool("c", false, "require a cyclic lead-head")
	regularHL := flag.Bool("r", false, "require a regular (power-of-plain-bob) lead-head")
	anyRegularHL := flag.Bool("any-regular-hl", false, "require a regular lead-head (same filter as -r)")
	classSurprise := flag.Bool("S", false, "require surprise classification")
	classTreble := flag.Bool("T", false, "require treble-bob classification")
	classDelight := flag.Bool("delight", false, "require delight classification")
	classStrictSurprise := flag.Bool("surprise", false, "alias of -S")
	trueLead := flag.Bool("true", true, "require the lead to be internally true")
	divisionFalse := flag.Bool("division-false", false, "reject methods with an internally false division")
	symSects := flag.Bool("sym-sects", false, "require each division to be internally palindromic")
	parityHack := flag.Bool("parity-hack", false, "require equal even/odd-parity rows at each treble-path place")
	trueExtent := flag.Bool("I", false, "require the mutually-false lead-head graph to be 2-colourable (true-extent)")
	falsenessFlags := flag.String("F", "", "allowed falseness-group symbols/ranges, comma-separated (e.g. A-F)")
	startAt := flag.String("start-at", "", "reject methods sorting before this place notation")
	musicPattern := flag.String("M", "", "comma-separated music patterns, each PATTERN:SCORE or <Name>[:SCORE]")
	requireExpr := flag.String("Q", "", "require-expression predicate")
	limit := flag.Int("limit", 0, "stop after this many matches (0 = unlimited)")
	seedFlag := flag.String("seed", "", "RNG seed (decimal); empty = derived from current time")
	randomOrder := flag.Bool("random", false, "shuffle each position's alternative list before searching")
	outPath := flag.String("o", "", "output path (default stdout)")
	statusAddr := flag.String("u", "", "if set, serve a status/progress endpoint on this address, e.g. :8765")
	namePrefix := flag.String("name", "", "name prefix applied to every accepted method")
	flag.Parse()

	ctx, err := engine.FromEnvironment(time.Now().UnixNano())
	if err != nil {
		log.Fatalf("methsearch: %v", err)
	}
	seed, err := engine.ParseSeed(*seedFlag, ctx.Seed)
	if err != nil {
		log.Fatalf("methsearch: %v", err)
	}
	ctx.Seed = seed

	runID := uuid.NewString()

	front, back, err := parseTrebleRange(*trebleRange, *bells)
	if err != nil {
		log.Fatalf("methsearch: argument error: %v", err)
	}
	if *leadLen <= 0 {
		*leadLen = (*dodges + 1) * (back - front + 1) * 2
	}

	altOpts := altFilterOpts{
		rightPlace:      *rightPlace,
		hunts:           *hunts,
		no78:            *no78,
		maxPlaces:       *maxPlaces,
		maxAdjPlaces:    *maxAdjPlaces,
		mirrorInvariant: *mirrorOnly,
	}
	altLists, err := buildAltLists(*bells, *leadLen, *changesFlag, *maskFlag, altOpts)
	if err != nil {
		log.Fatalf("methsearch: argument error: %v", err)
	}

	sym, err := parseSymmetryFlags(*symP, *symR, *symG)
	if err != nil {
		log.Fatalf("methsearch: argument error: %v", err)
	}
	if err := checkMaskSymmetryConsistency(altLists, sym); err != nil {
		log.Fatalf("methsearch: argument error: mask-inconsistent-with-symmetry: %v", err)
	}

	lhKind, err := parseLeadHeadKindFlags(*cyclicHL, *regularHL, *anyRegularHL)
	if err != nil {
		log.Fatalf("methsearch: argument error: %v", err)
	}
	class, err := parseClassFlags(*classSurprise || *classStrictSurprise, *classTreble, *classDelight)
	if err != nil {
		log.Fatalf("methsearch: argument error: %v", err)
	}

	var startAtChanges []change.Change
	if *startAt != "" {
		startAtChanges, err = change.ParsePlaceNotation(*bells, *startAt)
		if err != nil {
			log.Fatalf("methsearch: argument error: --start-at: %v", err)
		}
	}

	var patterns []*music.Pattern
	if *musicPattern != "" {
		patterns, err = parsePatterns(*musicPattern)
		if err != nil {
			log.Fatalf("methsearch: argument error: %v", err)
		}
	}

	var predicates []*predicate.Expr
	if *requireExpr != "" {
		p, err := predicate.Parse(*requireExpr)
		if err != nil {
			log.Fatalf("methsearch: argument error: invalid -Q expression: %v", err)
		}
		predicates = append(predicates, p)
	}

	if *randomOrder {
		shuffleAltLists(altLists, seed)
	}

	out := os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			log.Fatalf("methsearch: cannot open output file: %v", err)
		}
		defer f.Close()
		out = f
	}
	w := bufio.NewWriter(out)
	defer w.Flush()

	var hub *status.Hub
	if *statusAddr != "" {
		hub = status.NewHub(0)
		go hub.Run()
		srv := status.NewServer(hub)
		srv.SetProgress(status.Progress{RunID: runID, Phase: "searching", StartedAt: time.Now()})
		go func() {
			if err := srv.Router().Run(*statusAddr); err != nil {
				log.Printf("methsearch: status server stopped: %v", err)
			}
		}()
	}
	statusLine := func(line string) {
		if hub != nil {
			hub.Push(line)
		}
	}

	emitted := 0
	cfg := search.Config{
		Bells:             *bells,
		LeadLength:        *leadLen,
		AltLists:          altLists,
		Symmetry:          sym,
		MaxConsecBlows:    *maxConsec,
		TrueLead:          *trueLead,
		Predicates:        predicates,
		NamePrefix:        *namePrefix,
		Hunts:             *hunts,
		DivisionFalseness: *divisionFalse,
		SymSects:          *symSects,
		ParityHack:        *parityHack,
		Class:             class,
		StartAt:           startAtChanges,
		LeadHeadKind:      lhKind,
		FalsenessAllowed:  search.ExpandFalsenessRanges(*falsenessFlags),
		TrueExtent:        *trueExtent,
		Status:            statusLine,
		Sink: func(m *method.Method) bool {
			writeMethod(w, m, patterns)
			emitted++
			return *limit <= 0 || emitted < *limit
		},
	}

	eng, err := search.New(cfg)
	if err != nil {
		log.Fatalf("methsearch: argument error: %v", err)
	}
	statusLine(fmt.Sprintf("run %s: searching %d bells, lead length %d", runID, *bells, *leadLen))
	if err := eng.Run(); err != nil {
		if _, ok := err.(*predicate.AbortError); ok {
			statusLine(fmt.Sprintf("run %s: aborted by predicate: %v", runID, err))
		} else {
			log.Fatalf("methsearch: search error: %v", err)
		}
	}
	statusLine(fmt.Sprintf("run %s: done, %d methods found", runID, eng.Found()))

	if eng.Found() == 0 {
		os.Exit(1)
	}
}

// parseTrebleRange parses the -Z "F-B" 1-indexed place range into 0-indexed
// front/back bounds, defaulting to the full stage when empty.
func parseTrebleRange(raw string, bells int) (front, back int, err error) {
	if raw == "" {
		return 0, bells - 1, nil
	}
	parts := strings.SplitN(raw, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("-Z %q: want F-B", raw)
	}
	var f, b int
	if _, err := fmt.Sscanf(parts[0], "%d", &f); err != nil {
		return 0, 0, fmt.Errorf("-Z %q: invalid front place: %w", raw, err)
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &b); err != nil {
		return 0, 0, fmt.Errorf("-Z %q: invalid back place: %w", raw, err)
	}
	if f < 1 || b > bells || f > b {
		return 0, 0, fmt.Errorf("-Z %q: out of range for %d bells", raw, bells)
	}
	return f - 1, b - 1, nil
}

// parseSymmetryFlags maps the mutually-exclusive -s/-k/-d flags to a
// method.Symmetry value.
func parseSymmetryFlags(p, r, g bool) (method.Symmetry, error) {
	n := 0
	for _, b := range []bool{p, r, g} {
		if b {
			n++
		}
	}
	if n > 1 {
		return method.NoSymmetry, fmt.Errorf("-s, -k and -d are mutually exclusive")
	}
	switch {
	case p:
		return method.Palindromic, nil
	case r:
		return method.Rotational, nil
	case g:
		return method.Glide, nil
	}
	return method.NoSymmetry, nil
}

func parseLeadHeadKindFlags(cyclic, regular, anyRegular bool) (search.LeadHeadKind, error) {
	n := 0
	for _, b := range []bool{cyclic, regular, anyRegular} {
		if b {
			n++
		}
	}
	if n > 1 {
		return search.AnyLeadHead, fmt.Errorf("-c, -r and --any-regular-hl are mutually exclusive")
	}
	switch {
	case cyclic:
		return search.CyclicLeadHead, nil
	case regular, anyRegular:
		return search.RegularLeadHead, nil
	}
	return search.AnyLeadHead, nil
}

func parseClassFlags(surprise, trebleBob, delight bool) (search.PlaceClass, error) {
	n := 0
	for _, b := range []bool{surprise, trebleBob, delight} {
		if b {
			n++
		}
	}
	if n > 1 {
		return search.AnyClass, fmt.Errorf("-S, -T and --delight are mutually exclusive")
	}
	switch {
	case surprise:
		return search.Surprise, nil
	case trebleBob:
		return search.TrebleBob, nil
	case delight:
		return search.Delight, nil
	}
	return search.AnyClass, nil
}

// checkMaskSymmetryConsistency verifies spec.md §4.7's "Consistency of mask
// with symmetries": for each position p and its image q under the required
// involution, alt[p] must equal alt[q] (rotational) or its reverse
// (palindromic/glide), where "reverse" compares fixed-place sets mirrored
// about the stage's centre.
func checkMaskSymmetryConsistency(altLists [][]change.Change, sym method.Symmetry) error {
	if sym == method.NoSymmetry {
		return nil
	}
	n := len(altLists)
	for p := range altLists {
		var q int
		switch sym {
		case method.Palindromic, method.Glide:
			q = n - 1 - p
		case method.Rotational:
			q = (p + n/2) % n
		default:
			return nil
		}
		if !altSetsConsistent(altLists[p], altLists[q], sym) {
			return fmt.Errorf("position %d and its image %d disagree", p, q)
		}
	}
	return nil
}

func altSetsConsistent(a, b []change.Change, sym method.Symmetry) bool {
	if len(a) != len(b) {
		return false
	}
	for _, ca := range a {
		found := false
		for _, cb := range b {
			target := cb
			if sym == method.Palindromic || sym == method.Glide {
				target = mirrorChange(cb)
			}
			if ca.Equal(target) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// mirrorChange reflects c's fixed-place set about the stage's centre.
func mirrorChange(c change.Change) change.Change {
	n := c.Bells()
	places := c.Places()
	mirrored := make([]int, len(places))
	for i, p := range places {
		mirrored[i] = n - 1 - p
	}
	out, err := change.New(n, mirrored)
	if err != nil {
		// Every place set derived from a valid Change mirrors to another
		// valid Change; a failure here would be a logic error.
		return c
	}
	return out
}

func shuffleAltLists(altLists [][]change.Change, seed int64) {
	rng := newShuffleRNG(seed)
	for _, alts := range altLists {
		for i := len(alts) - 1; i > 0; i-- {
			j := int(rng.next() % uint64(i+1))
			alts[i], alts[j] = alts[j], alts[i]
		}
	}
}

// shuffleRNG is a small deterministic splitmix64 generator, used so
// --random reshuffling depends only on -seed, not on the standard library's
// global RNG state.
type shuffleRNG struct{ state uint64 }

func newShuffleRNG(seed int64) *shuffleRNG { return &shuffleRNG{state: uint64(seed)} }

func (r *shuffleRNG) next() uint64 {
	r.state += 0x9E3779B97F4A7C15
	z := r.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// altFilterOpts carries the per-position alternative-list construction
// rules of spec.md §4.7's "Per-position alternative lists".
type altFilterOpts struct {
	rightPlace      bool
	hunts           int
	no78            bool
	maxPlaces       int
	maxAdjPlaces    int
	mirrorInvariant bool
}

func buildAltLists(bells, leadLen int, changesFlag, maskFlag string, opts altFilterOpts) ([][]change.Change, error) {
	if maskFlag != "" {
		tokens := strings.Split(maskFlag, ",")
		if len(tokens) != leadLen {
			return nil, fmt.Errorf("mask has %d positions, want lead length %d", len(tokens), leadLen)
		}
		out := make([][]change.Change, leadLen)
		for i, tok := range tokens {
			cs, err := buildAltsForToken(bells, strings.TrimSpace(tok), opts)
			if err != nil {
				return nil, fmt.Errorf("position %d: %w", i, err)
			}
			out[i] = cs
		}
		return out, nil
	}

	raw := changesFlag
	if raw == "" {
		raw = "-," // cross only: the empty token after the comma is skipped
	}
	alts, err := buildAltsForToken(bells, raw, opts)
	if err != nil {
		return nil, fmt.Errorf("--changes %q: %w", raw, err)
	}
	out := make([][]change.Change, leadLen)
	for i := range out {
		out[i] = alts
	}
	return out, nil
}

// buildAltsForToken parses one mask position's candidate changes and
// applies the right-place/no-78s/max-places/max-adjacent-places/mirror
// filters. A token containing '/' specifies an above/below-the-treble split
// ("below/above"): each half is parsed and deduplicated independently, then
// merged by place range, and the whole-change filters are applied once to
// the merged set, per spec.md §4.7's "above/below split" rule.
func buildAltsForToken(bells int, tok string, opts altFilterOpts) ([]change.Change, error) {
	if strings.Contains(tok, "/") {
		parts := strings.SplitN(tok, "/", 2)
		below, err := parseAndDedupe(bells, parts[0])
		if err != nil {
			return nil, err
		}
		above, err := parseAndDedupe(bells, parts[1])
		if err != nil {
			return nil, err
		}
		mid := bells / 2
		merged := mergeAboveBelow(below, above, mid)
		return filterAlts(merged, bells, opts), nil
	}

	var alts []change.Change
	for _, sub := range strings.Split(tok, ",") {
		sub = strings.TrimSpace(sub)
		if sub == "" {
			continue
		}
		cs, err := change.ParsePlaceNotation(bells, sub)
		if err != nil {
			return nil, err
		}
		alts = append(alts, cs...)
	}
	alts = dedupeChanges(alts)
	return filterAlts(alts, bells, opts), nil
}

func parseAndDedupe(bells int, raw string) ([]change.Change, error) {
	cs, err := change.ParsePlaceNotation(bells, strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	return dedupeChanges(cs), nil
}

// mergeAboveBelow takes swaps (non-fixed pairs) below mid from the below
// list and swaps at or above mid from the above list, producing one merged
// candidate set per change shape.
func mergeAboveBelow(below, above []change.Change, mid int) []change.Change {
	var out []change.Change
	for _, c := range below {
		if touchesOnlyBelow(c, mid) {
			out = append(out, c)
		}
	}
	for _, c := range above {
		if touchesOnlyAtOrAbove(c, mid) {
			out = append(out, c)
		}
	}
	return dedupeChanges(out)
}

func touchesOnlyBelow(c change.Change, mid int) bool {
	for b := mid; b < c.Bells(); b++ {
		if !c.IsFixed(b) {
			return false
		}
	}
	return true
}

func touchesOnlyAtOrAbove(c change.Change, mid int) bool {
	for b := 0; b < mid; b++ {
		if !c.IsFixed(b) {
			return false
		}
	}
	return true
}

func dedupeChanges(cs []change.Change) []change.Change {
	var out []change.Change
	for _, c := range cs {
		dup := false
		for _, o := range out {
			if c.Equal(o) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, c)
		}
	}
	return out
}

// filterAlts applies the right-place/no-78s/max-places/max-adjacent-places/
// mirror-invariance rules, in that order.
func filterAlts(cs []change.Change, bells int, opts altFilterOpts) []change.Change {
	var out []change.Change
	for _, c := range cs {
		if opts.rightPlace && c.NumPlaces() != bells-opts.hunts {
			continue
		}
		if opts.no78 && bells >= 2 && c.IsFixed(bells-1) && c.IsFixed(bells-2) {
			continue
		}
		if opts.maxPlaces > 0 && c.NumPlaces() > opts.maxPlaces {
			continue
		}
		if opts.maxAdjPlaces > 0 && maxAdjacentPlaces(c) > opts.maxAdjPlaces {
			continue
		}
		if opts.mirrorInvariant && !isMirrorInvariant(c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func maxAdjacentPlaces(c change.Change) int {
	best, run := 0, 0
	for b := 0; b < c.Bells(); b++ {
		if c.IsFixed(b) {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 0
		}
	}
	return best
}

func isMirrorInvariant(c change.Change) bool {
	return c.Equal(mirrorChange(c))
}

func parsePatterns(raw string) ([]*music.Pattern, error) {
	var out []*music.Pattern
	for _, tok := range strings.Split(raw, ",") {
		pattern, score, err := splitPatternScore(tok)
		if err != nil {
			return nil, err
		}
		p := &music.Pattern{Raw: pattern, Score: score}
		if err := p.Compile(); err != nil {
			return nil, fmt.Errorf("pattern %q: %w", tok, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// splitPatternScore splits a "PATTERN:SCORE" token; a token with no ':'
// (the common shorthand for a named pattern like "<CRUs>") defaults to a
// score of 1.
func splitPatternScore(tok string) (pattern string, score int, err error) {
	parts := strings.SplitN(tok, ":", 2)
	if len(parts) == 1 {
		return strings.TrimSpace(parts[0]), 1, nil
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &score); err != nil {
		return "", 0, fmt.Errorf("pattern %q: invalid score: %w", tok, err)
	}
	return strings.TrimSpace(parts[0]), score, nil
}

func writeMethod(w *bufio.Writer, m *method.Method, patterns []*music.Pattern) {
	leadHead := ""
	if lh, err := m.LeadHead(); err == nil {
		leadHead = lh.String()
	}
	musicScore := 0
	if len(patterns) > 0 {
		if rows, err := m.Rows(); err == nil {
			if s, err := music.ScorePatterns(patterns, rows); err == nil {
				musicScore = s
			}
		}
	}
	fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", m.Name, m.PlaceNotation(), leadHead, musicScore)
}
