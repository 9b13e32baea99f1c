package splice

import (
	"testing"

	"github.com/exparrot/ringsearch/pkg/change"
	"github.com/exparrot/ringsearch/pkg/extent"
	"github.com/exparrot/ringsearch/pkg/falseness"
	"github.com/exparrot/ringsearch/pkg/group"
	"github.com/exparrot/ringsearch/pkg/method"
	"github.com/exparrot/ringsearch/pkg/multtab"
	"github.com/exparrot/ringsearch/pkg/rrow"
)

func minimusMethod(t *testing.T, pn string) *method.Method {
	t.Helper()
	cs, err := change.ParsePlaceNotation(4, pn)
	if err != nil {
		t.Fatalf("ParsePlaceNotation(%q): %v", pn, err)
	}
	m, err := method.New(pn, 4, cs)
	if err != nil {
		t.Fatalf("method.New: %v", err)
	}
	return m
}

func TestDescribe_SameMethodProducesDescription(t *testing.T) {
	m := minimusMethod(t, "-14-14,12")
	res, err := Describe(m, m, falseness.Options{})
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if res.Order < 1 {
		t.Fatalf("expected a non-trivial group order, got %d", res.Order)
	}
	desc := res.Description()
	if desc == "" {
		t.Errorf("expected a non-empty description")
	}
}

func TestClassifyPairs_IdenticalMethodsShareClass(t *testing.T) {
	a := minimusMethod(t, "-14-14,12")
	b := minimusMethod(t, "-14-14,12")
	c := minimusMethod(t, "-12-12,14")
	classes, err := ClassifyPairs([]*method.Method{a, b, c}, falseness.Options{})
	if err != nil {
		t.Fatalf("ClassifyPairs: %v", err)
	}
	if len(classes) == 0 {
		t.Fatalf("expected at least one class")
	}
	found := false
	for _, cl := range classes {
		if len(cl.Members) == 2 {
			found = true
		}
	}
	if !found {
		t.Errorf("expected the two identical methods to land in the same class")
	}
}

func TestPlan_CanonicalIsRotationInvariant(t *testing.T) {
	r1, _ := rrow.New([]int{0, 1, 2, 3})
	r2, _ := rrow.New([]int{1, 0, 3, 2})
	p1 := Plan{Entries: []PlanEntry{{LeadHead: r1, Method: "A"}, {LeadHead: r2, Method: "B"}}}

	x, _ := rrow.New([]int{1, 0, 3, 2}) // rotate by r2
	rr1, err := r1.Multiply(x)
	if err != nil {
		t.Fatalf("Multiply: %v", err)
	}
	rr2, err := r2.Multiply(x)
	if err != nil {
		t.Fatalf("Multiply: %v", err)
	}
	p2 := Plan{Entries: []PlanEntry{{LeadHead: rr1, Method: "A"}, {LeadHead: rr2, Method: "B"}}}

	eq, err := p1.Equal(p2)
	if err != nil {
		t.Fatalf("Equal: %v", err)
	}
	if !eq {
		t.Errorf("expected p1 and its rotation p2 to be equal up to rotation")
	}
}

func TestSearchJoinPlans_FindsCallSequence(t *testing.T) {
	it, err := extent.New(4, 0, 0, false)
	if err != nil {
		t.Fatalf("extent.New: %v", err)
	}
	trivial, err := group.Generate([]rrow.Row{rrow.Rounds(4)})
	if err != nil {
		t.Fatalf("group.Generate: %v", err)
	}
	mt, err := multtab.Build(it, trivial, nil)
	if err != nil {
		t.Fatalf("multtab.Build: %v", err)
	}

	call, err := rrow.New([]int{1, 0, 2, 3})
	if err != nil {
		t.Fatalf("rrow.New: %v", err)
	}
	calls := []Call{{Name: "swap01", Effect: call}}

	leadHead, err := mt.RowAt(mustIndex(t, mt, call))
	if err != nil {
		t.Fatalf("RowAt: %v", err)
	}
	plan := Plan{Entries: []PlanEntry{{LeadHead: leadHead, Method: "M"}}}

	results, err := SearchJoinPlans(mt, plan, calls)
	if err != nil {
		t.Fatalf("SearchJoinPlans: %v", err)
	}
	if len(results) == 0 {
		t.Fatalf("expected at least one call sequence returning to rounds")
	}
	for _, seq := range results {
		if len(seq) != 2 {
			t.Errorf("expected a 2-call sequence (there and back), got %v", seq)
		}
	}
}

func mustIndex(t *testing.T, mt *multtab.Table, r rrow.Row) int {
	t.Helper()
	idx, err := mt.IndexOf(r)
	if err != nil {
		t.Fatalf("IndexOf: %v", err)
	}
	return idx
}
