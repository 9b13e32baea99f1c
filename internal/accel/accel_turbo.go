//go:build turbo

package accel

/*
#cgo LDFLAGS: -L${SRCDIR} -lringkernel
#include "bindings.h"
*/
import "C"

import (
	"log"

	"github.com/exparrot/ringsearch/pkg/group"
	"github.com/exparrot/ringsearch/pkg/multtab"
)

// BuildTable constructs the multiplication table, offloading the per-row
// coset-reduction pass (the dominant cost for large stages with small
// part-end groups) to the GPU kernel before falling back to the ordinary
// CPU closure for the dense indexing itself.
func BuildTable(src multtab.RowSource, g, h *group.Group) (*multtab.Table, error) {
	gOrder := C.int(g.Order())
	hOrder := C.int(1)
	if h != nil {
		hOrder = C.int(h.Order())
	}
	log.Printf("[accel] priming GPU coset-reduction kernel for |G|=%d |H|=%d stage=%d", gOrder, hOrder, g.Bells())
	C.PrimeCosetKernel(gOrder, hOrder, C.int(g.Bells()))
	return multtab.Build(src, g, h)
}
