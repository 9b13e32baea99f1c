// Package extent provides lazy, lexicographically-ordered enumeration of
// all rows on N bells, optionally restricted to the in-course extent and
// optionally with fixed hunt bells at the front and fixed tenors at the
// back (spec.md §4.3).
package extent

import (
	"fmt"

	"github.com/exparrot/ringsearch/pkg/rrow"
)

// Iterator enumerates rows on Bells bells with Hunts bells fixed at the
// front positions (bell i at position i, for i < Hunts) and Tenors bells
// fixed at the back (bell Bells-1-j at position Bells-1-j, for j < Tenors).
// The remaining "moving" bells are permuted lexicographically among the
// remaining positions. The zero value is not usable; construct with New.
type Iterator struct {
	nbells   int
	hunts    int
	tenors   int
	inCourse bool

	moving  []int // current permutation of the moving bell values
	started bool
	done    bool
}

// New constructs an Iterator. It fails if hunts+tenors exceeds nbells.
func New(nbells, hunts, tenors int, inCourse bool) (*Iterator, error) {
	if hunts < 0 || tenors < 0 || hunts+tenors > nbells {
		return nil, fmt.Errorf("extent: hunts=%d + tenors=%d exceeds %d bells", hunts, tenors, nbells)
	}
	m := nbells - hunts - tenors
	moving := make([]int, m)
	for i := range moving {
		moving[i] = hunts + i
	}
	return &Iterator{
		nbells:   nbells,
		hunts:    hunts,
		tenors:   tenors,
		inCourse: inCourse,
		moving:   moving,
	}, nil
}

// MovingBells returns the number of bells being permuted by this iterator.
func (it *Iterator) MovingBells() int { return len(it.moving) }

// Count returns the total number of rows this iterator will yield.
func (it *Iterator) Count() int {
	n := factorial(len(it.moving))
	if it.inCourse {
		if len(it.moving) <= 1 {
			return n
		}
		return n / 2
	}
	return n
}

// Next returns the next row in lexicographic order, or ok=false once the
// extent is exhausted.
func (it *Iterator) Next() (row rrow.Row, ok bool) {
	for {
		if it.done {
			return rrow.Row{}, false
		}
		if !it.started {
			it.started = true
		} else if !nextPermutation(it.moving) {
			it.done = true
			return rrow.Row{}, false
		}

		bells := it.assemble()
		r, err := rrow.New(bells)
		if err != nil {
			// assemble() only ever produces a valid permutation; a failure
			// here indicates a logic error in this package.
			panic(err)
		}
		if it.inCourse && !r.InCourse() {
			continue
		}
		return r, true
	}
}

// Reset rewinds the iterator to the start of the extent.
func (it *Iterator) Reset() {
	for i := range it.moving {
		it.moving[i] = it.hunts + i
	}
	it.started = false
	it.done = false
}

// Each calls fn for every row in the extent, stopping early if fn returns
// false.
func (it *Iterator) Each(fn func(rrow.Row) bool) {
	for {
		r, ok := it.Next()
		if !ok {
			return
		}
		if !fn(r) {
			return
		}
	}
}

func (it *Iterator) assemble() []int {
	out := make([]int, it.nbells)
	for i := 0; i < it.hunts; i++ {
		out[i] = i
	}
	for i, b := range it.moving {
		out[it.hunts+i] = b
	}
	for j := 0; j < it.tenors; j++ {
		pos := it.nbells - it.tenors + j
		out[pos] = pos
	}
	return out
}

// nextPermutation advances s in place to the next lexicographic
// permutation, returning false if s was already the last (descending)
// permutation.
func nextPermutation(s []int) bool {
	n := len(s)
	if n < 2 {
		return false
	}
	i := n - 2
	for i >= 0 && s[i] >= s[i+1] {
		i--
	}
	if i < 0 {
		return false
	}
	j := n - 1
	for s[j] <= s[i] {
		j--
	}
	s[i], s[j] = s[j], s[i]
	for l, r := i+1, n-1; l < r; l, r = l+1, r-1 {
		s[l], s[r] = s[r], s[l]
	}
	return true
}

func factorial(n int) int {
	f := 1
	for i := 2; i <= n; i++ {
		f *= i
	}
	return f
}
