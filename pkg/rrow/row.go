// Package rrow implements row algebra: rounds, composition, inverse,
// parity, cycle structure and order, over the bell alphabet in pkg/bell.
package rrow

import (
	"fmt"
	"strings"

	"github.com/exparrot/ringsearch/pkg/bell"
	"github.com/exparrot/ringsearch/pkg/change"
)

// Row is a full permutation of N bells: Row[pos] names the bell ringing in
// position pos. The zero value is not a valid row; use Rounds or Parse.
type Row struct {
	bells []int
}

// ValidationError reports a row that is not a permutation of 0..n-1.
type ValidationError struct {
	Row []int
	Msg string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("row: %v: %s", e.Row, e.Msg)
}

// Rounds returns the identity row on nbells bells: 1234...
func Rounds(nbells int) Row {
	b := make([]int, nbells)
	for i := range b {
		b[i] = i
	}
	return Row{bells: b}
}

// New validates and wraps an explicit bell sequence as a Row.
func New(bells []int) (Row, error) {
	n := len(bells)
	seen := make([]bool, n)
	for _, b := range bells {
		if b < 0 || b >= n || seen[b] {
			return Row{}, &ValidationError{Row: bells, Msg: "not a permutation of 0..n-1"}
		}
		seen[b] = true
	}
	cp := make([]int, n)
	copy(cp, bells)
	return Row{bells: cp}, nil
}

// Parse reads a row from its display form using the given alphabet.
func Parse(a bell.Alphabet, s string) (Row, error) {
	bells := make([]int, 0, len(s))
	for _, r := range s {
		b, err := a.Parse(r)
		if err != nil {
			return Row{}, fmt.Errorf("row: %w", err)
		}
		bells = append(bells, int(b))
	}
	return New(bells)
}

// Bells returns the stage (number of bells) of this row.
func (r Row) Bells() int { return len(r.bells) }

// At returns the bell ringing in position pos (0-indexed).
func (r Row) At(pos int) int { return r.bells[pos] }

// Slice returns a defensive copy of the underlying bell sequence.
func (r Row) Slice() []int {
	cp := make([]int, len(r.bells))
	copy(cp, r.bells)
	return cp
}

// String formats the row using the default bell alphabet.
func (r Row) String() string {
	a := bell.Default()
	var sb strings.Builder
	for _, b := range r.bells {
		sb.WriteRune(a.MustSymbol(bell.Bell(b)))
	}
	return sb.String()
}

// IsRounds reports whether this row is the identity permutation.
func (r Row) IsRounds() bool {
	for i, b := range r.bells {
		if b != i {
			return false
		}
	}
	return true
}

// Equal reports whether two rows are identical.
func (r Row) Equal(o Row) bool {
	if len(r.bells) != len(o.bells) {
		return false
	}
	for i := range r.bells {
		if r.bells[i] != o.bells[i] {
			return false
		}
	}
	return true
}

// Multiply composes two rows as permutations: the result relabels o
// according to r, i.e. result[i] = r[o[i]]. This is the convention used
// throughout the falseness and group machinery for combining lead-heads.
func (r Row) Multiply(o Row) (Row, error) {
	if len(r.bells) != len(o.bells) {
		return Row{}, fmt.Errorf("row: multiply: stage mismatch %d != %d", len(r.bells), len(o.bells))
	}
	out := make([]int, len(r.bells))
	for i, b := range o.bells {
		out[i] = r.bells[b]
	}
	return Row{bells: out}, nil
}

// Inverse returns the row r^-1 such that r.Multiply(r.Inverse()) is rounds.
func (r Row) Inverse() Row {
	out := make([]int, len(r.bells))
	for i, b := range r.bells {
		out[b] = i
	}
	return Row{bells: out}
}

// Transform applies a single Change to this row, producing the next row in
// a touch: new[i] = r[c.Map(i)].
func (r Row) Transform(c change.Change) (Row, error) {
	if c.Bells() != len(r.bells) {
		return Row{}, fmt.Errorf("row: transform: stage mismatch %d != %d", len(r.bells), c.Bells())
	}
	out := make([]int, len(r.bells))
	for i := range r.bells {
		out[i] = r.bells[c.Map(i)]
	}
	return Row{bells: out}, nil
}

// Cycles returns the cycle decomposition of r viewed as a permutation of
// positions (i.e. of the map pos -> r[pos]), omitting fixed points.
func (r Row) Cycles() [][]int {
	n := len(r.bells)
	visited := make([]bool, n)
	var cycles [][]int
	for start := 0; start < n; start++ {
		if visited[start] {
			continue
		}
		visited[start] = true
		if r.bells[start] == start {
			continue
		}
		cycle := []int{start}
		for next := r.bells[start]; next != start; next = r.bells[next] {
			visited[next] = true
			cycle = append(cycle, next)
		}
		cycles = append(cycles, cycle)
	}
	return cycles
}

// Order returns the multiplicative order of r: the smallest k>0 such that
// r^k is rounds, i.e. the LCM of its cycle lengths.
func (r Row) Order() int {
	order := 1
	for _, c := range r.Cycles() {
		order = lcm(order, len(c))
	}
	return order
}

// Sign returns +1 for an even permutation, -1 for an odd one: the product
// of (-1)^(len(cycle)-1) over all non-trivial cycles.
func (r Row) Sign() int {
	sign := 1
	for _, c := range r.Cycles() {
		if (len(c)-1)%2 != 0 {
			sign = -sign
		}
	}
	return sign
}

// InCourse reports whether r has even parity — the conventional
// "in-course" test for a change-ringing row.
func (r Row) InCourse() bool { return r.Sign() == 1 }

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	return a / gcd(a, b) * b
}

// Power returns r composed with itself n times (n >= 0); Power(0) is rounds.
func (r Row) Power(n int) (Row, error) {
	result := Rounds(len(r.bells))
	if n < 0 {
		return Row{}, fmt.Errorf("row: power: negative exponent %d", n)
	}
	base := r
	for n > 0 {
		if n%2 == 1 {
			var err error
			result, err = result.Multiply(base)
			if err != nil {
				return Row{}, err
			}
		}
		var err error
		base, err = base.Multiply(base)
		if err != nil {
			return Row{}, err
		}
		n /= 2
	}
	return result, nil
}
