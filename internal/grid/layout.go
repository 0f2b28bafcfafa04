package grid

// Layout maps pointer positions onto cells of a week grid. Days are laid out
// as columns, slots as rows. The zero-value sizes behave as a unit grid
// (one point per cell), which is what remote clients send.
type Layout struct {
	Config Config

	OriginX    int
	OriginY    int
	CellWidth  int
	CellHeight int
	// GapX is the number of blank columns between two days.
	GapX int
	// FirstSlot is the slot drawn at OriginY (vertical scroll).
	FirstSlot int

	// Disabled marks cells that never accept a gesture.
	Disabled func(Coord) bool
}

func (l Layout) cellWidth() int {
	if l.CellWidth <= 0 {
		return 1
	}
	return l.CellWidth
}

func (l Layout) cellHeight() int {
	if l.CellHeight <= 0 {
		return 1
	}
	return l.CellHeight
}

// Resolve returns the cell under p. ok is false for gaps, headers, disabled
// cells and anything outside the window.
func (l Layout) Resolve(p Point) (co Coord, ok bool) {
	dx := p.X - l.OriginX
	dy := p.Y - l.OriginY
	if dx < 0 || dy < 0 {
		return Coord{}, false
	}
	stride := l.cellWidth() + l.GapX
	if dx%stride >= l.cellWidth() {
		return Coord{}, false
	}
	co = Coord{Day: dx / stride, Slot: l.FirstSlot + dy/l.cellHeight()}
	if !l.Config.Valid(co) {
		return Coord{}, false
	}
	if l.Disabled != nil && l.Disabled(co) {
		return Coord{}, false
	}
	return co, true
}

// PointOf returns the top-left point of a cell. It is the inverse of Resolve
// for enabled, visible cells.
func (l Layout) PointOf(co Coord) Point {
	return Point{
		X: l.OriginX + co.Day*(l.cellWidth()+l.GapX),
		Y: l.OriginY + (co.Slot-l.FirstSlot)*l.cellHeight(),
	}
}

// ListLayout maps pointer rows onto list positions.
type ListLayout struct {
	OriginX   int
	OriginY   int
	Width     int // 0 means unbounded
	RowHeight int
	Len       int
}

func (l ListLayout) rowHeight() int {
	if l.RowHeight <= 0 {
		return 1
	}
	return l.RowHeight
}

func (l ListLayout) Resolve(p Point) (int, bool) {
	dx := p.X - l.OriginX
	dy := p.Y - l.OriginY
	if dx < 0 || dy < 0 {
		return 0, false
	}
	if l.Width > 0 && dx >= l.Width {
		return 0, false
	}
	idx := dy / l.rowHeight()
	if idx >= l.Len {
		return 0, false
	}
	return idx, true
}

func (l ListLayout) PointOf(idx int) Point {
	return Point{X: l.OriginX, Y: l.OriginY + idx*l.rowHeight()}
}

// BoardPos addresses a card slot on a column board. Index may equal the
// column length, meaning "after the last card".
type BoardPos struct {
	Col   int `json:"col"`
	Index int `json:"index"`
}

// BoardLayout maps pointer positions onto column board slots.
type BoardLayout struct {
	OriginX     int
	OriginY     int
	ColumnWidth int
	GapX        int
	RowHeight   int
	// Counts holds the number of cards per column.
	Counts []int
}

func (l BoardLayout) columnWidth() int {
	if l.ColumnWidth <= 0 {
		return 1
	}
	return l.ColumnWidth
}

func (l BoardLayout) rowHeight() int {
	if l.RowHeight <= 0 {
		return 1
	}
	return l.RowHeight
}

// Resolve returns the drop slot under p. Rows below the last card resolve to
// the end of the column.
func (l BoardLayout) Resolve(p Point) (BoardPos, bool) {
	dx := p.X - l.OriginX
	dy := p.Y - l.OriginY
	if dx < 0 || dy < 0 {
		return BoardPos{}, false
	}
	stride := l.columnWidth() + l.GapX
	if dx%stride >= l.columnWidth() {
		return BoardPos{}, false
	}
	col := dx / stride
	if col >= len(l.Counts) {
		return BoardPos{}, false
	}
	idx := dy / l.rowHeight()
	if idx > l.Counts[col] {
		idx = l.Counts[col]
	}
	return BoardPos{Col: col, Index: idx}, true
}

func (l BoardLayout) PointOf(pos BoardPos) Point {
	return Point{
		X: l.OriginX + pos.Col*(l.columnWidth()+l.GapX),
		Y: l.OriginY + pos.Index*l.rowHeight(),
	}
}

// HasCard reports whether pos addresses an existing card rather than an
// end-of-column drop slot.
func (l BoardLayout) HasCard(pos BoardPos) bool {
	return pos.Col >= 0 && pos.Col < len(l.Counts) && pos.Index >= 0 && pos.Index < l.Counts[pos.Col]
}
