// Package selection computes the members of an in-progress gesture from its
// anchor and focus. Every function recomputes from scratch; nothing here keeps
// state between calls.
package selection

import "dashgrid/internal/grid"

// Rect returns every cell in the rectangle spanned by a and f, inclusive, in
// row-major order (day, then slot). The result does not depend on which of
// the two corners is the anchor. Cells outside cfg's window are dropped.
func Rect(cfg grid.Config, a, f grid.Coord) []grid.Coord {
	d0, d1 := minMax(a.Day, f.Day)
	s0, s1 := minMax(a.Slot, f.Slot)
	out := make([]grid.Coord, 0, (d1-d0+1)*(s1-s0+1))
	for d := d0; d <= d1; d++ {
		for s := s0; s <= s1; s++ {
			co := grid.Coord{Day: d, Slot: s}
			if !cfg.Valid(co) {
				continue
			}
			out = append(out, co)
		}
	}
	return out
}

// Keys returns the canonical keys of cells, preserving order.
func Keys(cfg grid.Config, cells []grid.Coord) []string {
	out := make([]string, 0, len(cells))
	for _, c := range cells {
		out = append(out, cfg.KeyOf(c))
	}
	return out
}

// ListMove relocates the item at From so that it ends up at index To.
type ListMove struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func (m ListMove) NoOp() bool { return m.From == m.To }

// Reorder computes the move for dragging the item at anchor onto the item at
// focus in a list of n items. To is focus clamped to the valid range, so
// dropping past either end pins the item there.
func Reorder(anchor, focus, n int) ListMove {
	to := focus
	if to < 0 {
		to = 0
	}
	// After removing the anchor there are n-1 other items; the item can land
	// at any of n positions.
	if to > n-1 {
		to = n - 1
	}
	if to < 0 {
		to = 0
	}
	return ListMove{From: anchor, To: to}
}

// BoardMove relocates a card between (or within) columns.
type BoardMove struct {
	From grid.BoardPos `json:"from"`
	To   grid.BoardPos `json:"to"`
}

func (m BoardMove) NoOp() bool { return m.From == m.To }

// Move computes the card move for dragging the card at anchor onto focus.
// counts holds the number of cards per column before the move. Within one
// column the target index is clamped to the last position; across columns it
// may be one past the end.
func Move(anchor, focus grid.BoardPos, counts []int) BoardMove {
	to := focus
	limit := 0
	if to.Col >= 0 && to.Col < len(counts) {
		limit = counts[to.Col]
	}
	if to.Col == anchor.Col {
		limit--
	}
	if to.Index > limit {
		to.Index = limit
	}
	if to.Index < 0 {
		to.Index = 0
	}
	return BoardMove{From: anchor, To: to}
}

func minMax(a, b int) (int, int) {
	if a <= b {
		return a, b
	}
	return b, a
}
