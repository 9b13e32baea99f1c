package music

import (
	"fmt"

	"github.com/exparrot/ringsearch/pkg/rrow"
)

// NamedResult tallies the classic fixed-pattern recognizers over a
// sequence of rows, ported from the original implementation's
// `ringing/music.h` (queens/kings/tittums/reverse-rounds and the
// handstroke/backstroke rollup counters), generalized to any stage.
//
// The first row passed to Analyse is treated as a handstroke row, exactly
// as the original `music::change_rows` documents.
type NamedResult struct {
	Queens        bool
	Kings         bool
	Tittums       bool
	ReverseRounds bool

	Rollup3         int // 3-bell rollups on the back, e.g. 678
	Rollup4         int // 4-bell rollups on the back, e.g. 5678
	ReverseRollup3  int // 3-bell reverse rollups off the front, e.g. 654
	ReverseRollup4  int // 4-bell reverse rollups off the front, e.g. 6543
	TTminus1AtBack  int // 65s, 87s etc at backstroke
	Tminus2AtBackHS int // 46s, 68s etc at handstroke
	Tminus2AtBackBS int // 46s, 68s etc at backstroke
	Tminus4AtBackHS int // 246s, 468s etc at handstroke
	Tminus4AtBackBS int // 246s, 468s etc at backstroke

	CRU int // combination rollups: low half descending at the front paired with high half rounds at the back, e.g. 43215678
}

// CountRunsOfK tallies rows containing a consecutive ascending or
// descending run of at least k bells anchored at the front or the back (the
// generalized "runs-of-k" family spec.md §4.8 names alongside CRUs). k must
// be at least 2.
func CountRunsOfK(rows []rrow.Row, k int) int {
	count := 0
	for _, r := range rows {
		n := r.Bells()
		if k > n {
			continue
		}
		if isAscendingRun(r, 0, k) || isAscendingRun(r, n-k, k) ||
			isDescendingRun(r, 0, k) || isDescendingRun(r, n-k, k) {
			count++
		}
	}
	return count
}

func isAscendingRun(r rrow.Row, start, k int) bool {
	base := r.At(start)
	for i := 1; i < k; i++ {
		if r.At(start+i) != base+i {
			return false
		}
	}
	return true
}

func isDescendingRun(r rrow.Row, start, k int) bool {
	base := r.At(start)
	for i := 1; i < k; i++ {
		if r.At(start+i) != base-i {
			return false
		}
	}
	return true
}

// countCRU counts rows of the form "low half descending, high half rounds":
// positions [0, half) hold bells (half-1 .. 0) and positions [half, n) hold
// bells (half .. n-1), e.g. "43215678" on eight bells.
func countCRU(rows []rrow.Row) int {
	count := 0
	for _, r := range rows {
		n := r.Bells()
		half := n / 2
		ok := true
		for i := 0; i < half && ok; i++ {
			if r.At(i) != half-1-i {
				ok = false
			}
		}
		for i := half; i < n && ok; i++ {
			if r.At(i) != i {
				ok = false
			}
		}
		if ok {
			count++
		}
	}
	return count
}

// NamedPatternScore resolves one of spec.md §4.8's named music patterns
// (referenced from a `-M` expression as `<Name>`) against rows and returns
// its count. Queens/Kings/Tittums/ReverseRounds count as 0 or 1 (at most
// one occurrence per course by construction); the rest are per-row tallies.
func NamedPatternScore(name string, rows []rrow.Row) (int, error) {
	res := Analyse(rows)
	switch name {
	case "Queens":
		return boolCount(res.Queens), nil
	case "Kings":
		return boolCount(res.Kings), nil
	case "Tittums":
		return boolCount(res.Tittums), nil
	case "ReverseRounds":
		return boolCount(res.ReverseRounds), nil
	case "Rollup3":
		return res.Rollup3, nil
	case "Rollup4":
		return res.Rollup4, nil
	case "ReverseRollup3":
		return res.ReverseRollup3, nil
	case "ReverseRollup4":
		return res.ReverseRollup4, nil
	case "CRUs", "CRU":
		return countCRU(rows), nil
	case "Runs4":
		return CountRunsOfK(rows, 4), nil
	case "Runs3":
		return CountRunsOfK(rows, 3), nil
	}
	return 0, fmt.Errorf("music: unknown named pattern %q", name)
}

func boolCount(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Analyse processes rows in order, alternating handstroke/backstroke
// starting at handstroke, and accumulates the named-pattern tallies.
func Analyse(rows []rrow.Row) NamedResult {
	var res NamedResult
	back := false
	for _, r := range rows {
		processRow(&res, r, back)
		back = !back
	}
	res.CRU = countCRU(rows)
	return res
}

func processRow(res *NamedResult, r rrow.Row, back bool) {
	nobells := r.Bells()
	half := nobells / 2
	if nobells%2 != 0 {
		half++
	}

	rr, fr, q, k, tt := 0, 0, 0, 0, 0

	for i := 0; i < nobells; i++ {
		if r.At(i) == nobells-i-1 && rr == i {
			rr++
		}
		if i%2 == 0 {
			if r.At(i) == i/2 {
				tt++
			}
		} else {
			if r.At(i) == i/2+half {
				tt++
			}
		}
		if i < half {
			if r.At(i) == i*2 {
				q++
			}
			if r.At(i) == (half-i-1)*2 {
				k++
			}
		} else {
			if r.At(i) == (i-half+1)*2-1 {
				q++
				k++
			}
		}
	}

	for i := nobells - 1; i >= 0; i-- {
		if r.At(i) == i && fr == nobells-i-1 {
			fr++
		}
	}

	if nobells%2 == 0 && back {
		if r.At(nobells-1) == nobells-2 && r.At(nobells-2) == nobells-1 {
			res.TTminus1AtBack++
		}
	}

	if nobells%2 == 0 && nobells >= 4 {
		if r.At(nobells-1) == nobells-1 && r.At(nobells-2) == nobells-3 {
			if back {
				res.Tminus2AtBackBS++
			} else {
				res.Tminus2AtBackHS++
			}
			if nobells >= 6 && r.At(nobells-3) == nobells-5 {
				if back {
					res.Tminus4AtBackBS++
				} else {
					res.Tminus4AtBackHS++
				}
			}
		}
	}

	switch fr {
	case 4:
		res.Rollup4++
	case 3:
		res.Rollup3++
	}
	switch rr {
	case nobells:
		res.ReverseRounds = true
	case 4:
		res.ReverseRollup4++
	case 3:
		res.ReverseRollup3++
	}
	if q == nobells {
		res.Queens = true
	}
	if k == nobells {
		res.Kings = true
	}
	if tt == nobells {
		res.Tittums = true
	}
}
