package commit

import (
	"sort"
	"time"

	"dashgrid/internal/model"
	"dashgrid/internal/selection"
)

// BoardCommitter moves cards between the columns of a kanban board. Columns
// are identified by status ID in display order.
type BoardCommitter struct {
	Columns []string
	Now     func() time.Time
}

func (b BoardCommitter) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now().UTC()
}

func (b BoardCommitter) columnIndex(status string) int {
	for i, c := range b.Columns {
		if c == status {
			return i
		}
	}
	return 0
}

// Columnize groups cards by column and sorts each column by Order. Cards
// with an unknown status land in the first column.
func (b BoardCommitter) Columnize(cards []model.Card) [][]model.Card {
	cols := make([][]model.Card, len(b.Columns))
	for _, c := range cards {
		i := b.columnIndex(c.Status)
		if len(cols) == 0 {
			break
		}
		cols[i] = append(cols[i], c)
	}
	for i := range cols {
		col := cols[i]
		sort.SliceStable(col, func(x, y int) bool {
			if col[x].Order != col[y].Order {
				return col[x].Order < col[y].Order
			}
			return col[x].ID < col[y].ID
		})
	}
	return cols
}

// Counts returns the number of cards per column.
func (b BoardCommitter) Counts(cards []model.Card) []int {
	cols := b.Columnize(cards)
	out := make([]int, len(cols))
	for i, c := range cols {
		out[i] = len(c)
	}
	return out
}

// Commit applies m and returns the new card list (column by column, each
// densely ordered). The input slice is not modified.
func (b BoardCommitter) Commit(cards []model.Card, m selection.BoardMove) ([]model.Card, ChangeSet, error) {
	cols := b.Columnize(cards)
	if m.From.Col < 0 || m.From.Col >= len(cols) {
		return nil, ChangeSet{}, OutOfRangeError{What: "column", Value: m.From.Col, Len: len(cols)}
	}
	if m.To.Col < 0 || m.To.Col >= len(cols) {
		return nil, ChangeSet{}, OutOfRangeError{What: "column", Value: m.To.Col, Len: len(cols)}
	}
	src := cols[m.From.Col]
	if m.From.Index < 0 || m.From.Index >= len(src) {
		return nil, ChangeSet{}, OutOfRangeError{What: "card", Value: m.From.Index, Len: len(src)}
	}
	if m.NoOp() {
		return Flatten(cols), ChangeSet{}, nil
	}

	before := map[string]model.Card{}
	for _, c := range cards {
		before[c.ID] = c
	}

	moved := src[m.From.Index]
	next := make([]model.Card, 0, len(src)-1)
	next = append(next, src[:m.From.Index]...)
	next = append(next, src[m.From.Index+1:]...)
	cols[m.From.Col] = next

	dst := cols[m.To.Col]
	to := m.To.Index
	if to < 0 {
		to = 0
	}
	if to > len(dst) {
		to = len(dst)
	}
	moved.Status = b.Columns[m.To.Col]
	ins := make([]model.Card, 0, len(dst)+1)
	ins = append(ins, dst[:to]...)
	ins = append(ins, moved)
	ins = append(ins, dst[to:]...)
	cols[m.To.Col] = ins

	now := b.now()
	changed := map[string]bool{}
	for ci := range cols {
		for i := range cols[ci] {
			c := &cols[ci][i]
			c.Order = i
			prev := before[c.ID]
			if prev.Order != c.Order || prev.Status != c.Status {
				c.UpdatedAt = now
				changed[c.ID] = true
			}
		}
	}
	return Flatten(cols), newChangeSet(changed, ""), nil
}

// Flatten concatenates columns in display order.
func Flatten(cols [][]model.Card) []model.Card {
	n := 0
	for _, c := range cols {
		n += len(c)
	}
	out := make([]model.Card, 0, n)
	for _, c := range cols {
		out = append(out, c...)
	}
	return out
}
