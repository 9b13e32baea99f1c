package maxtrue

import (
	"testing"

	"github.com/exparrot/ringsearch/pkg/bell"
	"github.com/exparrot/ringsearch/pkg/change"
	"github.com/exparrot/ringsearch/pkg/extent"
	"github.com/exparrot/ringsearch/pkg/falseness"
	"github.com/exparrot/ringsearch/pkg/group"
	"github.com/exparrot/ringsearch/pkg/method"
	"github.com/exparrot/ringsearch/pkg/multtab"
	"github.com/exparrot/ringsearch/pkg/rrow"
)

func trivialGroup(t *testing.T, nbells int) *group.Group {
	t.Helper()
	g, err := group.Generate([]rrow.Row{rrow.Rounds(nbells)})
	if err != nil {
		t.Fatalf("group.Generate: %v", err)
	}
	return g
}

func fullTable(t *testing.T, nbells int) *multtab.Table {
	t.Helper()
	it, err := extent.New(nbells, 0, 0, false)
	if err != nil {
		t.Fatalf("extent.New: %v", err)
	}
	mt, err := multtab.Build(it, trivialGroup(t, nbells), nil)
	if err != nil {
		t.Fatalf("multtab.Build: %v", err)
	}
	return mt
}

func plainBobMinimus(t *testing.T) *method.Method {
	t.Helper()
	cs, err := change.ParsePlaceNotation(4, "-14-14,12")
	if err != nil {
		t.Fatalf("ParsePlaceNotation: %v", err)
	}
	m, err := method.New("minimus", 4, cs)
	if err != nil {
		t.Fatalf("method.New: %v", err)
	}
	return m
}

func TestBuild_NoFalsenessInvariantsHoldAfterRun(t *testing.T) {
	mt := fullTable(t, 4)
	e, err := Build(mt, nil, DefaultWeights(), nil, nil, 1)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	e.Run(500)
	if err := e.CheckInvariants(); err != nil {
		t.Errorf("invariants violated: %v", err)
	}
}

func TestBuild_RequiredLeadHeadStaysPresent(t *testing.T) {
	mt := fullTable(t, 4)
	required, err := rrow.Parse(bell.Default(), "2134")
	if err != nil {
		t.Fatalf("rrow.Parse: %v", err)
	}
	e, err := Build(mt, nil, DefaultWeights(), []rrow.Row{required}, nil, 2)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	idx, err := mt.IndexOf(required)
	if err != nil {
		t.Fatalf("IndexOf: %v", err)
	}
	if !e.State.required[idx] || !e.State.present[idx] {
		t.Fatalf("required lead-head not marked present at init")
	}
	e.Run(300)
	if !e.State.present[idx] {
		t.Errorf("required lead-head %s was removed during the run", required)
	}
	if err := e.CheckInvariants(); err != nil {
		t.Errorf("invariants violated: %v", err)
	}
}

func TestBuild_SelfFalsenessNeverBothPresent(t *testing.T) {
	m := plainBobMinimus(t)
	ft, err := falseness.SelfFalseness(m, falseness.Options{})
	if err != nil {
		t.Fatalf("SelfFalseness: %v", err)
	}
	mt := fullTable(t, 4)
	e, err := Build(mt, ft, DefaultWeights(), nil, nil, 3)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	e.Run(1000)
	if err := e.CheckInvariants(); err != nil {
		t.Errorf("invariants violated: %v", err)
	}
	for i := 0; i < mt.Size(); i++ {
		if !e.State.present[i] {
			continue
		}
		for _, pc := range e.falseP {
			j := pc[i]
			if j != i && e.State.present[j] {
				t.Fatalf("cosets %d and %d are mutually false but both present", i, j)
			}
		}
	}
}
