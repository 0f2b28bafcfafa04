// Package kanban is the todo board: cards in status columns, moved by drag.
package kanban

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"dashgrid/internal/commit"
	"dashgrid/internal/drag"
	"dashgrid/internal/grid"
	"dashgrid/internal/model"
	"dashgrid/internal/persist"
	"dashgrid/internal/selection"
	"dashgrid/internal/surface"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const snapshotVersion = 1

type Options struct {
	Bridge  *persist.Bridge[model.KanbanSnapshot]
	Key     string
	Columns []model.KanbanColumn
	Logger  *zap.Logger
	OnError func(error)

	Now   func() time.Time
	NewID func() string
}

type Board struct {
	bridge  *persist.Bridge[model.KanbanSnapshot]
	key     string
	columns []model.KanbanColumn
	log     *zap.Logger
	ctx     context.Context
	newID   func() string

	committer commit.BoardCommitter
	session   *drag.Session[grid.BoardPos]
	feed      *surface.Feed

	mu     sync.Mutex
	snap   model.KanbanSnapshot
	layout grid.BoardLayout
}

func DefaultSnapshot() model.KanbanSnapshot {
	return model.KanbanSnapshot{Version: snapshotVersion, Cards: []model.Card{}}
}

func Open(ctx context.Context, opts Options) (*Board, error) {
	if opts.Bridge == nil {
		return nil, errors.New("kanban: missing bridge")
	}
	cols := opts.Columns
	if len(cols) == 0 {
		cols = model.DefaultKanbanColumns()
	}
	ids := make([]string, 0, len(cols))
	for _, c := range cols {
		ids = append(ids, c.ID)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	newID := opts.NewID
	if newID == nil {
		newID = func() string { return "todo-" + uuid.NewString()[:8] }
	}

	snap, err := opts.Bridge.LoadOr(ctx, opts.Key, DefaultSnapshot)
	if err != nil {
		return nil, err
	}

	b := &Board{
		bridge:    opts.Bridge,
		key:       opts.Key,
		columns:   cols,
		log:       log.With(zap.String("surface", surface.Kanban)),
		ctx:       context.WithoutCancel(ctx),
		newID:     newID,
		committer: commit.BoardCommitter{Columns: ids, Now: opts.Now},
		feed:      surface.NewFeed(surface.Kanban),
	}
	b.snap = b.normalize(snap)
	b.layout = grid.BoardLayout{Counts: b.committer.Counts(b.snap.Cards)}
	b.session = drag.NewSession(drag.Options[grid.BoardPos]{
		Resolve:   b.resolve,
		CanAnchor: b.hasCard,
		Commit:    b.commitGesture,
		OnChange:  b.publishPreview,
		OnError: func(err error) {
			b.log.Warn("commit failed", zap.Error(err))
			if opts.OnError != nil {
				opts.OnError(err)
			}
		},
	})
	b.mu.Lock()
	b.publishLocked(commit.ChangeSet{})
	b.mu.Unlock()
	return b, nil
}

// normalize puts every card into a known column with dense per-column order.
func (b *Board) normalize(s model.KanbanSnapshot) model.KanbanSnapshot {
	if s.Version == 0 {
		s.Version = snapshotVersion
	}
	cols := b.committer.Columnize(s.Cards)
	for ci := range cols {
		for i := range cols[ci] {
			cols[ci][i].Status = b.committer.Columns[ci]
			cols[ci][i].Order = i
		}
	}
	s.Cards = commit.Flatten(cols)
	return s
}

func (b *Board) Name() string                                 { return surface.Kanban }
func (b *Board) Key() string                                  { return b.key }
func (b *Board) Frame() surface.Frame                         { return b.feed.Last() }
func (b *Board) Subscribe() (<-chan surface.Frame, func())    { return b.feed.Subscribe() }
func (b *Board) PointerDown(pt grid.Point) error              { return b.session.PointerDown(pt) }
func (b *Board) PointerMove(pt grid.Point) error              { return b.session.PointerMove(pt) }
func (b *Board) PointerUp() (commit.ChangeSet, error)         { return b.session.PointerUp() }
func (b *Board) Cancel() bool                                 { return b.session.Cancel() }
func (b *Board) Dragging() bool                               { return b.session.State() != drag.Idle }
func (b *Board) Gesture() (drag.Gesture[grid.BoardPos], bool) { return b.session.Gesture() }

func (b *Board) Columns() []model.KanbanColumn {
	return append([]model.KanbanColumn(nil), b.columns...)
}

// SetLayout replaces the pointer layout. Counts always come from the board.
func (b *Board) SetLayout(l grid.BoardLayout) {
	b.mu.Lock()
	l.Counts = b.committer.Counts(b.snap.Cards)
	b.layout = l
	b.mu.Unlock()
}

func (b *Board) Layout() grid.BoardLayout {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.layout
}

func (b *Board) resolve(pt grid.Point) (grid.BoardPos, bool) {
	b.mu.Lock()
	l := b.layout
	b.mu.Unlock()
	return l.Resolve(pt)
}

func (b *Board) hasCard(pos grid.BoardPos) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.layout.HasCard(pos)
}

func (b *Board) Snapshot() model.KanbanSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snap.Clone()
}

// Cards returns the board column by column, each column in order.
func (b *Board) Cards() [][]model.Card {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.committer.Columnize(b.snap.Cards)
}

func (b *Board) columnIndex(status string) (int, bool) {
	for i, c := range b.columns {
		if c.ID == status {
			return i, true
		}
	}
	return 0, false
}

func (b *Board) positionLocked(id string) (grid.BoardPos, bool) {
	cols := b.committer.Columnize(b.snap.Cards)
	for ci, col := range cols {
		for i, c := range col {
			if c.ID == id {
				return grid.BoardPos{Col: ci, Index: i}, true
			}
		}
	}
	return grid.BoardPos{}, false
}

func (b *Board) commitGesture(g drag.Gesture[grid.BoardPos]) (commit.ChangeSet, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m := selection.Move(g.Anchor, g.Focus, b.committer.Counts(b.snap.Cards))
	if m.NoOp() {
		return commit.ChangeSet{}, drag.ErrEmptyCommit
	}
	cards, cs, err := b.committer.Commit(b.snap.Cards, m)
	if err != nil {
		return commit.ChangeSet{}, err
	}
	if cs.Empty() {
		return cs, drag.ErrEmptyCommit
	}
	b.snap.Cards = cards
	b.persistLocked(cs)
	return cs, nil
}

// Add appends a new card to the end of a column.
func (b *Board) Add(title, content, status string) (model.Card, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Card{}, errors.New("title is required")
	}
	if status == "" {
		status = b.columns[0].ID
	}
	ci, ok := b.columnIndex(status)
	if !ok {
		return model.Card{}, commit.NotFoundError{Kind: "column", ID: status}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	c := model.Card{
		ID:        b.newID(),
		Title:     title,
		Content:   strings.TrimSpace(content),
		Status:    b.columns[ci].ID,
		Order:     b.committer.Counts(b.snap.Cards)[ci],
		CreatedAt: now,
		UpdatedAt: now,
	}
	b.snap.Cards = append(b.snap.Cards, c)
	b.persistLocked(commit.ChangeSet{Keys: []string{c.ID}})
	return c, nil
}

// Remove deletes a card and closes the gap in its column.
func (b *Board) Remove(id string) (commit.ChangeSet, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	pos, ok := b.positionLocked(id)
	if !ok {
		return commit.ChangeSet{}, commit.NotFoundError{Kind: "card", ID: id}
	}
	cols := b.committer.Columnize(b.snap.Cards)
	col := cols[pos.Col]
	keys := []string{id}
	next := make([]model.Card, 0, len(col)-1)
	for _, c := range col {
		if c.ID == id {
			continue
		}
		if c.Order != len(next) {
			c.Order = len(next)
			c.UpdatedAt = b.now()
			keys = append(keys, c.ID)
		}
		next = append(next, c)
	}
	cols[pos.Col] = next
	b.snap.Cards = commit.Flatten(cols)
	cs := commit.ChangeSet{Keys: keys}
	sortKeys(cs.Keys)
	b.persistLocked(cs)
	return cs, nil
}

// Move drags card id to position index of column status through the drag
// session, exactly as a pointer would.
func (b *Board) Move(id, status string, index int) (commit.ChangeSet, error) {
	ci, ok := b.columnIndex(status)
	if !ok {
		return commit.ChangeSet{}, commit.NotFoundError{Kind: "column", ID: status}
	}
	b.mu.Lock()
	from, found := b.positionLocked(id)
	l := b.layout
	b.mu.Unlock()
	if !found {
		return commit.ChangeSet{}, commit.NotFoundError{Kind: "card", ID: id}
	}
	if index < 0 {
		index = 0
	}
	if err := b.session.PointerDown(l.PointOf(from)); err != nil {
		return commit.ChangeSet{}, fmt.Errorf("move %s: %w", id, err)
	}
	if err := b.session.PointerMove(l.PointOf(grid.BoardPos{Col: ci, Index: index})); err != nil {
		b.session.Cancel()
		return commit.ChangeSet{}, fmt.Errorf("move %s: %w", id, err)
	}
	return b.session.PointerUp()
}

func (b *Board) Replace(s model.KanbanSnapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s = b.normalize(s)
	seen := map[string]bool{}
	for _, c := range b.snap.Cards {
		seen[c.ID] = true
	}
	for _, c := range s.Cards {
		seen[c.ID] = true
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sortKeys(keys)
	b.snap = s
	b.persistLocked(commit.ChangeSet{Keys: keys})
}

func (b *Board) now() time.Time {
	if b.committer.Now != nil {
		return b.committer.Now()
	}
	return time.Now().UTC()
}

func (b *Board) persistLocked(cs commit.ChangeSet) {
	b.snap.LastUpdated = b.now()
	b.layout.Counts = b.committer.Counts(b.snap.Cards)
	if _, err := b.bridge.Save(b.ctx, b.key, b.snap); err != nil {
		b.log.Error("encode snapshot", zap.Error(err))
	}
	b.publishLocked(cs)
}

func (b *Board) publishLocked(cs commit.ChangeSet) {
	b.feed.Publish(drag.Idle.String(), b.snap.Clone(), cs, nil)
}

// publishPreview emits the dragged card's ID followed by the drop target as
// "<status>:<index>".
func (b *Board) publishPreview(st drag.State, g drag.Gesture[grid.BoardPos]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch st {
	case drag.Active:
		m := selection.Move(g.Anchor, g.Focus, b.committer.Counts(b.snap.Cards))
		cols := b.committer.Columnize(b.snap.Cards)
		if m.From.Col >= len(cols) || m.From.Index >= len(cols[m.From.Col]) || m.To.Col >= len(b.columns) {
			return
		}
		preview := []string{
			cols[m.From.Col][m.From.Index].ID,
			fmt.Sprintf("%s:%d", b.columns[m.To.Col].ID, m.To.Index),
		}
		b.feed.Publish(st.String(), b.snap.Clone(), commit.ChangeSet{}, preview)
	case drag.Idle:
		if b.feed.Last().State == drag.Active.String() {
			b.publishLocked(commit.ChangeSet{})
		}
	}
}

func sortKeys(keys []string) {
	sort.Strings(keys)
}
