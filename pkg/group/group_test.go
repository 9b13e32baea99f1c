package group

import (
	"testing"

	"github.com/exparrot/ringsearch/pkg/bell"
	"github.com/exparrot/ringsearch/pkg/rrow"
)

func TestGenerate_CyclicGroupOrder(t *testing.T) {
	// The 3-cycle on bells 0,1,2 (fixing bell 3) generates a cyclic group
	// of order 3.
	gen, err := rrow.New([]int{1, 2, 0, 3})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	g, err := Generate([]rrow.Row{gen})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if g.Order() != 3 {
		t.Errorf("expected cyclic group of order 3, got %d", g.Order())
	}
	if !g.Contains(rrow.Rounds(4)) {
		t.Errorf("group must contain the identity")
	}
}

func TestGroup_CosetLabelIsMinimal(t *testing.T) {
	gen, err := rrow.New([]int{1, 0, 2, 3})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	g, err := Generate([]rrow.Row{gen})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	r, err := rrow.Parse(bell.Default(), "2134")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	label, err := g.CosetLabel(r)
	if err != nil {
		t.Fatalf("CosetLabel error: %v", err)
	}
	// Gr = {2134, 1234}; the lexicographically least is 1234.
	if label.String() != "1234" {
		t.Errorf("coset label = %s, want 1234", label)
	}
}

func TestGroup_IsSubgroupOf(t *testing.T) {
	small, err := Generate([]rrow.Row{mustRow(t, []int{1, 0, 2, 3})})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	big, err := Generate([]rrow.Row{
		mustRow(t, []int{1, 0, 2, 3}),
		mustRow(t, []int{0, 1, 3, 2}),
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if !small.IsSubgroupOf(big) {
		t.Errorf("expected small group to be a subgroup of big")
	}
}

func mustRow(t *testing.T, bells []int) rrow.Row {
	t.Helper()
	r, err := rrow.New(bells)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return r
}
