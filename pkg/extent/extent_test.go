package extent

import (
	"testing"

	"github.com/exparrot/ringsearch/pkg/rrow"
)

func TestIterator_InCourseMinorOnFour(t *testing.T) {
	it, err := New(4, 0, 0, true)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	var rows []string
	it.Each(func(r rrow.Row) bool {
		rows = append(rows, r.String())
		return true
	})
	if len(rows) != 12 {
		t.Fatalf("expected 12 in-course rows on 4 bells, got %d", len(rows))
	}
	if rows[0] != "1234" {
		t.Errorf("first row = %q, want 1234", rows[0])
	}
	if rows[1] != "1342" {
		t.Errorf("second row = %q, want 1342", rows[1])
	}
	if rows[len(rows)-1] != "1432" {
		t.Errorf("last row = %q, want 1432", rows[len(rows)-1])
	}
}

func TestIterator_FullExtentCount(t *testing.T) {
	it, err := New(4, 0, 0, false)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	count := 0
	for {
		_, ok := it.Next()
		if !ok {
			break
		}
		count++
	}
	if count != 24 {
		t.Errorf("full extent on 4 bells should have 24 rows, got %d", count)
	}
}

func TestIterator_HuntsAndTenorsFixed(t *testing.T) {
	it, err := New(6, 1, 1, false)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	r, ok := it.Next()
	if !ok {
		t.Fatalf("expected at least one row")
	}
	if r.At(0) != 0 {
		t.Errorf("hunt bell should be fixed at position 0, got bell %d", r.At(0))
	}
	if r.At(5) != 5 {
		t.Errorf("tenor should be fixed at position 5, got bell %d", r.At(5))
	}
	if it.Count() != 24 {
		t.Errorf("4 moving bells should give 24 rows, got %d", it.Count())
	}
}

func TestNew_RejectsOversizedHuntsAndTenors(t *testing.T) {
	_, err := New(4, 3, 3, false)
	if err == nil {
		t.Fatalf("expected an error when hunts+tenors exceeds bells")
	}
}
