package multtab

import (
	"testing"

	"github.com/exparrot/ringsearch/pkg/change"
	"github.com/exparrot/ringsearch/pkg/extent"
	"github.com/exparrot/ringsearch/pkg/group"
	"github.com/exparrot/ringsearch/pkg/rrow"
)

func TestBuild_TrivialGroupSizeMatchesExtent(t *testing.T) {
	it, err := extent.New(5, 0, 0, false)
	if err != nil {
		t.Fatalf("extent.New error: %v", err)
	}
	trivial, err := group.Generate([]rrow.Row{rrow.Rounds(5)})
	if err != nil {
		t.Fatalf("group.Generate error: %v", err)
	}
	table, err := Build(it, trivial, nil)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if table.Size() != 120 {
		t.Errorf("expected |MT|=120 for the full extent on 5 bells, got %d", table.Size())
	}
}

func TestBuild_PartEndGroupReducesSize(t *testing.T) {
	it, err := extent.New(4, 0, 0, false)
	if err != nil {
		t.Fatalf("extent.New error: %v", err)
	}
	swap01, err := rrow.New([]int{1, 0, 2, 3})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	g, err := group.Generate([]rrow.Row{swap01})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	table, err := Build(it, g, nil)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if table.Size() != 12 {
		t.Errorf("expected |MT| = 24/2 = 12, got %d", table.Size())
	}
}

func TestComputePostColumn_InjectiveOnCross(t *testing.T) {
	it, err := extent.New(4, 0, 0, false)
	if err != nil {
		t.Fatalf("extent.New error: %v", err)
	}
	trivial, err := group.Generate([]rrow.Row{rrow.Rounds(4)})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	table, err := Build(it, trivial, nil)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	cross := change.Cross(4)
	col, err := table.ComputePostColumn(cross)
	if err != nil {
		t.Fatalf("ComputePostColumn error: %v", err)
	}
	if len(col) != table.Size() {
		t.Errorf("post-column length = %d, want %d", len(col), table.Size())
	}
}
