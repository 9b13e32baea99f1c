//go:build !turbo

// Package accel gates the multiplication-table construction strategy
// behind a build tag: the default path below runs the plain CPU closure
// in pkg/multtab; the turbo-tagged variant (accel_turbo.go) offloads the
// same construction to a GPU kernel for stages large enough that the
// dense coset closure becomes the search's dominant cost.
package accel

import (
	"github.com/exparrot/ringsearch/pkg/group"
	"github.com/exparrot/ringsearch/pkg/multtab"
)

// BuildTable constructs the multiplication table for src reduced by g (and
// h, if non-nil). This build is compiled without the 'turbo' tag, so it is
// the plain CPU path with no hardware dependency.
func BuildTable(src multtab.RowSource, g, h *group.Group) (*multtab.Table, error) {
	return multtab.Build(src, g, h)
}
