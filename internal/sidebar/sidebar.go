// Package sidebar is the reorderable module list of the dashboard sidebar.
package sidebar

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"dashgrid/internal/commit"
	"dashgrid/internal/drag"
	"dashgrid/internal/grid"
	"dashgrid/internal/model"
	"dashgrid/internal/persist"
	"dashgrid/internal/selection"
	"dashgrid/internal/surface"

	"go.uber.org/zap"
)

const snapshotVersion = 1

type Options struct {
	Bridge  *persist.Bridge[model.SettingsSnapshot]
	Key     string
	Logger  *zap.Logger
	OnError func(error)
	Now     func() time.Time
}

type Sidebar struct {
	bridge *persist.Bridge[model.SettingsSnapshot]
	key    string
	log    *zap.Logger
	ctx    context.Context
	now    func() time.Time

	session *drag.Session[int]
	feed    *surface.Feed

	mu     sync.Mutex
	snap   model.SettingsSnapshot
	layout grid.ListLayout
}

func DefaultSnapshot() model.SettingsSnapshot {
	return model.SettingsSnapshot{Version: snapshotVersion, ModuleOrder: model.DefaultModuleOrder()}
}

func Open(ctx context.Context, opts Options) (*Sidebar, error) {
	if opts.Bridge == nil {
		return nil, errors.New("sidebar: missing bridge")
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	snap, err := opts.Bridge.LoadOr(ctx, opts.Key, DefaultSnapshot)
	if err != nil {
		return nil, err
	}
	snap.ModuleOrder = NormalizeOrder(snap.ModuleOrder)
	if snap.Version == 0 {
		snap.Version = snapshotVersion
	}

	s := &Sidebar{
		bridge: opts.Bridge,
		key:    opts.Key,
		log:    log.With(zap.String("surface", surface.Sidebar)),
		ctx:    context.WithoutCancel(ctx),
		now:    now,
		feed:   surface.NewFeed(surface.Sidebar),
		snap:   snap,
		layout: grid.ListLayout{Len: len(snap.ModuleOrder)},
	}
	s.session = drag.NewSession(drag.Options[int]{
		Resolve:  s.resolve,
		Commit:   s.commitGesture,
		OnChange: s.publishPreview,
		OnError: func(err error) {
			s.log.Warn("commit failed", zap.Error(err))
			if opts.OnError != nil {
				opts.OnError(err)
			}
		},
	})
	s.mu.Lock()
	s.publishLocked(commit.ChangeSet{})
	s.mu.Unlock()
	return s, nil
}

// NormalizeOrder drops unknown and duplicate module IDs and appends known
// modules the order is missing, in their default position order.
func NormalizeOrder(order []string) []string {
	out := make([]string, 0, len(model.KnownModules()))
	seen := map[string]bool{}
	for _, id := range order {
		if _, ok := model.ModuleByID(id); !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	for _, id := range model.DefaultModuleOrder() {
		if !seen[id] {
			out = append(out, id)
		}
	}
	return out
}

func (s *Sidebar) Name() string                              { return surface.Sidebar }
func (s *Sidebar) Key() string                               { return s.key }
func (s *Sidebar) Frame() surface.Frame                      { return s.feed.Last() }
func (s *Sidebar) Subscribe() (<-chan surface.Frame, func()) { return s.feed.Subscribe() }
func (s *Sidebar) PointerDown(pt grid.Point) error           { return s.session.PointerDown(pt) }
func (s *Sidebar) PointerMove(pt grid.Point) error           { return s.session.PointerMove(pt) }
func (s *Sidebar) PointerUp() (commit.ChangeSet, error)      { return s.session.PointerUp() }
func (s *Sidebar) Cancel() bool                              { return s.session.Cancel() }
func (s *Sidebar) Dragging() bool                            { return s.session.State() != drag.Idle }
func (s *Sidebar) Gesture() (drag.Gesture[int], bool)        { return s.session.Gesture() }

// SetLayout replaces the pointer layout. Len always comes from the list.
func (s *Sidebar) SetLayout(l grid.ListLayout) {
	s.mu.Lock()
	l.Len = len(s.snap.ModuleOrder)
	s.layout = l
	s.mu.Unlock()
}

func (s *Sidebar) Layout() grid.ListLayout {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layout
}

func (s *Sidebar) resolve(pt grid.Point) (int, bool) {
	s.mu.Lock()
	l := s.layout
	s.mu.Unlock()
	return l.Resolve(pt)
}

func (s *Sidebar) Snapshot() model.SettingsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone()
}

// Order returns the module IDs in display order.
func (s *Sidebar) Order() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.snap.ModuleOrder...)
}

// Modules returns the module descriptions in display order.
func (s *Sidebar) Modules() []model.ModuleInfo {
	order := s.Order()
	out := make([]model.ModuleInfo, 0, len(order))
	for _, id := range order {
		m, _ := model.ModuleByID(id)
		out = append(out, m)
	}
	return out
}

func (s *Sidebar) Items() []model.OrderedItem {
	return commit.OrderedFromIDs(s.Order())
}

func (s *Sidebar) commitGesture(g drag.Gesture[int]) (commit.ChangeSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := commit.OrderedFromIDs(s.snap.ModuleOrder)
	m := selection.Reorder(g.Anchor, g.Focus, len(items))
	if m.NoOp() {
		return commit.ChangeSet{}, drag.ErrEmptyCommit
	}
	next, cs, err := commit.ListCommitter{}.Commit(items, m)
	if err != nil {
		return commit.ChangeSet{}, err
	}
	s.snap.ModuleOrder = commit.IDs(next)
	s.persistLocked(cs)
	return cs, nil
}

// Move drags module id to index through the drag session.
func (s *Sidebar) Move(id string, index int) (commit.ChangeSet, error) {
	s.mu.Lock()
	from := -1
	for i, m := range s.snap.ModuleOrder {
		if m == id {
			from = i
			break
		}
	}
	l := s.layout
	n := len(s.snap.ModuleOrder)
	s.mu.Unlock()
	if from < 0 {
		return commit.ChangeSet{}, commit.NotFoundError{Kind: "module", ID: id}
	}
	if index < 0 {
		index = 0
	}
	if index > n-1 {
		index = n - 1
	}
	if err := s.session.PointerDown(l.PointOf(from)); err != nil {
		return commit.ChangeSet{}, fmt.Errorf("move %s: %w", id, err)
	}
	if err := s.session.PointerMove(l.PointOf(index)); err != nil {
		s.session.Cancel()
		return commit.ChangeSet{}, fmt.Errorf("move %s: %w", id, err)
	}
	return s.session.PointerUp()
}

// Reset restores the default module order.
func (s *Sidebar) Reset() commit.ChangeSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	def := model.DefaultModuleOrder()
	var keys []string
	for i, id := range def {
		if i >= len(s.snap.ModuleOrder) || s.snap.ModuleOrder[i] != id {
			keys = append(keys, id)
		}
	}
	if len(keys) == 0 {
		return commit.ChangeSet{}
	}
	s.snap.ModuleOrder = def
	cs := commit.ChangeSet{Keys: keys}
	sort.Strings(cs.Keys)
	s.persistLocked(cs)
	return cs
}

func (s *Sidebar) SetDark(dark bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.DarkSidebar == dark {
		return
	}
	s.snap.DarkSidebar = dark
	s.persistLocked(commit.ChangeSet{})
}

func (s *Sidebar) Replace(snap model.SettingsSnapshot) {
	snap.ModuleOrder = NormalizeOrder(snap.ModuleOrder)
	if snap.Version == 0 {
		snap.Version = snapshotVersion
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
	keys := append([]string(nil), snap.ModuleOrder...)
	sort.Strings(keys)
	s.persistLocked(commit.ChangeSet{Keys: keys})
}

func (s *Sidebar) persistLocked(cs commit.ChangeSet) {
	s.snap.UpdatedAt = s.now()
	s.layout.Len = len(s.snap.ModuleOrder)
	if _, err := s.bridge.Save(s.ctx, s.key, s.snap); err != nil {
		s.log.Error("encode snapshot", zap.Error(err))
	}
	s.publishLocked(cs)
}

func (s *Sidebar) publishLocked(cs commit.ChangeSet) {
	s.feed.Publish(drag.Idle.String(), s.snap.Clone(), cs, nil)
}

// publishPreview emits the dragged module followed by its would-be index.
func (s *Sidebar) publishPreview(st drag.State, g drag.Gesture[int]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch st {
	case drag.Active:
		if g.Anchor < 0 || g.Anchor >= len(s.snap.ModuleOrder) {
			return
		}
		m := selection.Reorder(g.Anchor, g.Focus, len(s.snap.ModuleOrder))
		preview := []string{s.snap.ModuleOrder[g.Anchor], grid.IndexKey(m.To)}
		s.feed.Publish(st.String(), s.snap.Clone(), commit.ChangeSet{}, preview)
	case drag.Idle:
		if s.feed.Last().State == drag.Active.String() {
			s.publishLocked(commit.ChangeSet{})
		}
	}
}
