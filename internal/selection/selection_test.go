package selection

import (
	"reflect"
	"testing"

	"dashgrid/internal/grid"
)

func TestRect_IsDeterministic(t *testing.T) {
	cfg := grid.DefaultConfig()
	a := grid.Coord{Day: 1, Slot: 7}
	f := grid.Coord{Day: 3, Slot: 2}

	first := Rect(cfg, a, f)
	second := Rect(cfg, a, f)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical members:\n%v\n%v", first, second)
	}
	if len(first) != 3*6 {
		t.Fatalf("expected 18 members; got %d", len(first))
	}
}

func TestRect_IsSymmetric(t *testing.T) {
	cfg := grid.DefaultConfig()
	pairs := [][2]grid.Coord{
		{{Day: 0, Slot: 0}, {Day: 6, Slot: 35}},
		{{Day: 4, Slot: 9}, {Day: 2, Slot: 3}},
		{{Day: 5, Slot: 1}, {Day: 5, Slot: 1}},
		{{Day: 0, Slot: 20}, {Day: 3, Slot: 4}},
	}
	for _, p := range pairs {
		ab := Rect(cfg, p[0], p[1])
		ba := Rect(cfg, p[1], p[0])
		if !reflect.DeepEqual(ab, ba) {
			t.Fatalf("Rect(%v,%v) != Rect(%v,%v)", p[0], p[1], p[1], p[0])
		}
	}
}

func TestRect_RowMajorFirstMemberIsTopLeft(t *testing.T) {
	cfg := grid.DefaultConfig()
	got := Rect(cfg, grid.Coord{Day: 2, Slot: 5}, grid.Coord{Day: 1, Slot: 4})
	want := []grid.Coord{
		{Day: 1, Slot: 4}, {Day: 1, Slot: 5},
		{Day: 2, Slot: 4}, {Day: 2, Slot: 5},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestRect_OvershootAndReturnLandsOnFinalSpan(t *testing.T) {
	cfg := grid.DefaultConfig()
	anchor := grid.Coord{Day: 0, Slot: 2}

	// Simulate a drag that overshoots to slot 10 and comes back to slot 5.
	var last []grid.Coord
	for _, s := range []int{3, 6, 10, 8, 5} {
		last = Rect(cfg, anchor, grid.Coord{Day: 0, Slot: s})
	}
	if len(last) != 4 || last[0].Slot != 2 || last[3].Slot != 5 {
		t.Fatalf("expected slots 2..5; got %v", last)
	}
}

func TestRect_DropsCellsOutsideWindow(t *testing.T) {
	cfg := grid.DefaultConfig()
	got := Rect(cfg, grid.Coord{Day: 6, Slot: 34}, grid.Coord{Day: 8, Slot: 40})
	want := []grid.Coord{{Day: 6, Slot: 34}, {Day: 6, Slot: 35}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestReorder_ClampsFocus(t *testing.T) {
	cases := []struct {
		anchor, focus, n int
		want             ListMove
	}{
		{2, 0, 3, ListMove{From: 2, To: 0}},
		{0, 2, 3, ListMove{From: 0, To: 2}},
		{0, 9, 3, ListMove{From: 0, To: 2}},
		{1, -4, 3, ListMove{From: 1, To: 0}},
		{1, 1, 3, ListMove{From: 1, To: 1}},
	}
	for _, tc := range cases {
		if got := Reorder(tc.anchor, tc.focus, tc.n); got != tc.want {
			t.Fatalf("Reorder(%d,%d,%d) = %v; want %v", tc.anchor, tc.focus, tc.n, got, tc.want)
		}
	}
}

func TestMove_ClampsPerColumn(t *testing.T) {
	counts := []int{3, 1, 0}

	// Same column: the last position is counts-1.
	m := Move(grid.BoardPos{Col: 0, Index: 0}, grid.BoardPos{Col: 0, Index: 3}, counts)
	if m.To != (grid.BoardPos{Col: 0, Index: 2}) {
		t.Fatalf("same column: got %v", m.To)
	}
	// Another column: may append after the last card.
	m = Move(grid.BoardPos{Col: 0, Index: 0}, grid.BoardPos{Col: 1, Index: 5}, counts)
	if m.To != (grid.BoardPos{Col: 1, Index: 1}) {
		t.Fatalf("other column: got %v", m.To)
	}
	m = Move(grid.BoardPos{Col: 1, Index: 0}, grid.BoardPos{Col: 2, Index: 0}, counts)
	if m.To != (grid.BoardPos{Col: 2, Index: 0}) || m.NoOp() {
		t.Fatalf("empty column: got %v", m.To)
	}
	m = Move(grid.BoardPos{Col: 1, Index: 0}, grid.BoardPos{Col: 1, Index: 1}, counts)
	if !m.NoOp() {
		t.Fatalf("expected drop on own slot to be a no-op; got %v", m)
	}
}
