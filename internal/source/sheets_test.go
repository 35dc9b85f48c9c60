package source

import (
	"errors"
	"testing"

	"github.com/Liyanipatel27/attendance-new/pkg/types"
)

func TestAssembleGrid(t *testing.T) {
	values := [][]interface{}{
		{"CE Sem 5 Schedule"},
		{"Effective from July"},
		{"Day / Time", "9:00 AM - 10:00 AM", "10:00 AM - 11:00 AM"},
		{"Monday", "Math\nA\nR1", "No Teaching Load"},
		{"tuesday", "OS\nCE-B2\n301"},
		{"Holiday list"},
		{"Wednesday", "", "AI\nB"},
	}

	grid, err := AssembleGrid("CE-5", values)
	if err != nil {
		t.Fatalf("AssembleGrid: %v", err)
	}

	if len(grid.Header) != 2 {
		t.Fatalf("header columns = %d, want 2", len(grid.Header))
	}
	if grid.Header[0] != "9:00 AM - 10:00 AM" {
		t.Errorf("header[0] = %q", grid.Header[0])
	}

	if len(grid.Days) != 3 {
		t.Fatalf("day rows = %d, want 3 (non-day rows discarded)", len(grid.Days))
	}

	// Day names are canonicalized.
	tue, ok := grid.Days["Tuesday"]
	if !ok {
		t.Fatal("missing Tuesday row for lowercase day name")
	}
	// Short rows are right-padded to the header width.
	if len(tue) != 2 || tue[1] != "" {
		t.Errorf("tuesday row = %v, want padded to 2 cells", tue)
	}
	if tue[0] != "OS\nCE-B2\n301" {
		t.Errorf("tuesday cell = %q", tue[0])
	}
}

func TestAssembleGridNoHeaderRow(t *testing.T) {
	values := [][]interface{}{
		{"Monday", "Math"},
	}
	_, err := AssembleGrid("CE-5", values)
	if !errors.Is(err, types.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestAssembleGridHeaderWithoutColumns(t *testing.T) {
	values := [][]interface{}{
		{"Time"},
		{"Monday", "Math"},
	}
	_, err := AssembleGrid("CE-5", values)
	if !errors.Is(err, types.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestAssembleGridRowWiderThanHeader(t *testing.T) {
	values := [][]interface{}{
		{"Day / Time", "9:00 AM - 10:00 AM"},
		{"Monday", "Math", "extra"},
	}
	if _, err := AssembleGrid("CE-5", values); err == nil {
		t.Error("expected error for a row wider than the header")
	}
}

func TestAssembleGridNumericCells(t *testing.T) {
	values := [][]interface{}{
		{"Day / Time", "9:00 AM - 10:00 AM"},
		{"Monday", 101.0},
	}
	grid, err := AssembleGrid("CE-5", values)
	if err != nil {
		t.Fatalf("AssembleGrid: %v", err)
	}
	if grid.Days["Monday"][0] != "101" {
		t.Errorf("numeric cell = %q, want 101", grid.Days["Monday"][0])
	}
}
