// Package timebox is the week planner: a days × slots grid where a drag
// paints the current activity over a rectangle of cells.
package timebox

import (
	"context"
	"errors"
	"fmt"
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

	"go.uber.org/zap"
)

const snapshotVersion = 1

type Options struct {
	Config grid.Config
	Bridge *persist.Bridge[model.TimeboxSnapshot]
	// Key is the bridge key of this week.
	Key       string
	WeekStart time.Time
	Logger    *zap.Logger
	// OnError receives commit failures. Persistence failures are reported by
	// the bridge.
	OnError func(error)

	Now        func() time.Time
	NewGroupID func() string
}

// Planner owns one week of time-box slots.
type Planner struct {
	cfg    grid.Config
	bridge *persist.Bridge[model.TimeboxSnapshot]
	key    string
	log    *zap.Logger
	ctx    context.Context

	committer commit.GridCommitter
	session   *drag.Session[grid.Coord]
	feed      *surface.Feed

	mu       sync.Mutex
	snap     model.TimeboxSnapshot
	layout   grid.Layout
	activity string
}

// DefaultSnapshot is the state of a week nobody has touched.
func DefaultSnapshot(cfg grid.Config, weekStart time.Time) model.TimeboxSnapshot {
	s := model.TimeboxSnapshot{
		Version:       snapshotVersion,
		SlotMinutes:   cfg.SlotMinutes,
		Slots:         map[string]model.Slot{},
		ActivityTypes: model.DefaultActivityTypes(),
	}
	if !weekStart.IsZero() {
		s.WeekStart = weekStart.Format("2006-01-02")
	}
	return s
}

// Open loads the week from the bridge, falling back to the default snapshot
// when nothing was stored yet. A load failure is returned rather than
// masked, so a later save cannot overwrite remote data with defaults.
func Open(ctx context.Context, opts Options) (*Planner, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	if opts.Bridge == nil {
		return nil, errors.New("timebox: missing bridge")
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	snap, err := opts.Bridge.LoadOr(ctx, opts.Key, func() model.TimeboxSnapshot {
		return DefaultSnapshot(opts.Config, opts.WeekStart)
	})
	if err != nil {
		return nil, err
	}
	normalize(&snap, opts.Config, opts.WeekStart)

	p := &Planner{
		cfg:    opts.Config,
		bridge: opts.Bridge,
		key:    opts.Key,
		log:    log.With(zap.String("surface", surface.Timebox)),
		ctx:    context.WithoutCancel(ctx),
		committer: commit.GridCommitter{
			Config:     opts.Config,
			NewGroupID: opts.NewGroupID,
			Now:        opts.Now,
		},
		feed:     surface.NewFeed(surface.Timebox),
		snap:     snap,
		layout:   grid.Layout{Config: opts.Config},
		activity: snap.ActivityTypes[0].ID,
	}
	p.session = drag.NewSession(drag.Options[grid.Coord]{
		Resolve: p.resolve,
		Commit:  p.commitGesture,
		OnChange: func(st drag.State, g drag.Gesture[grid.Coord]) {
			p.publishPreview(st, g)
		},
		OnError: func(err error) {
			p.log.Warn("commit failed", zap.Error(err))
			if opts.OnError != nil {
				opts.OnError(err)
			}
		},
	})
	p.mu.Lock()
	p.publishLocked(commit.ChangeSet{})
	p.mu.Unlock()
	return p, nil
}

// normalize repairs snapshots from older versions. Cells outside the
// configured window are kept so that narrowing the window or changing the
// slot size hides them instead of erasing them; only keys that are not
// cell keys at all are dropped.
func normalize(s *model.TimeboxSnapshot, cfg grid.Config, weekStart time.Time) {
	if s.Version == 0 {
		s.Version = snapshotVersion
	}
	if s.Slots == nil {
		s.Slots = map[string]model.Slot{}
	}
	if len(s.ActivityTypes) == 0 {
		s.ActivityTypes = model.DefaultActivityTypes()
	}
	s.ActivityTypes, _ = model.EnsureWorkoutActivity(s.ActivityTypes)
	for k := range s.Slots {
		if _, _, _, ok := grid.SplitKey(k); !ok {
			delete(s.Slots, k)
		}
	}
	s.SlotMinutes = cfg.SlotMinutes
	if s.WeekStart == "" && !weekStart.IsZero() {
		s.WeekStart = weekStart.Format("2006-01-02")
	}
}

func (p *Planner) Name() string        { return surface.Timebox }
func (p *Planner) Config() grid.Config { return p.cfg }
func (p *Planner) Key() string         { return p.key }

func (p *Planner) Frame() surface.Frame                      { return p.feed.Last() }
func (p *Planner) Subscribe() (<-chan surface.Frame, func()) { return p.feed.Subscribe() }

func (p *Planner) PointerDown(pt grid.Point) error           { return p.session.PointerDown(pt) }
func (p *Planner) PointerMove(pt grid.Point) error           { return p.session.PointerMove(pt) }
func (p *Planner) PointerUp() (commit.ChangeSet, error)      { return p.session.PointerUp() }
func (p *Planner) Cancel() bool                              { return p.session.Cancel() }
func (p *Planner) Gesture() (drag.Gesture[grid.Coord], bool) { return p.session.Gesture() }
func (p *Planner) DragState() drag.State                     { return p.session.State() }
func (p *Planner) Dragging() bool                            { return p.session.State() != drag.Idle }

// SetLayout replaces the pointer layout. The grid config is always the
// planner's own.
func (p *Planner) SetLayout(l grid.Layout) {
	l.Config = p.cfg
	p.mu.Lock()
	p.layout = l
	p.mu.Unlock()
}

func (p *Planner) Layout() grid.Layout {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.layout
}

func (p *Planner) resolve(pt grid.Point) (grid.Coord, bool) {
	p.mu.Lock()
	l := p.layout
	p.mu.Unlock()
	return l.Resolve(pt)
}

// Snapshot returns a copy of the current week.
func (p *Planner) Snapshot() model.TimeboxSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap.Clone()
}

func (p *Planner) Activity() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.activity
}

func (p *Planner) ActivityTypes() []model.ActivityType {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.ActivityType(nil), p.snap.ActivityTypes...)
}

// SetActivity picks the activity the next drag assigns.
func (p *Planner) SetActivity(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.activityLocked(id); !ok {
		return commit.NotFoundError{Kind: "activity", ID: id}
	}
	p.activity = id
	return nil
}

// CycleActivity moves the current activity by delta positions.
func (p *Planner) CycleActivity(delta int) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := p.snap.ActivityTypes
	idx := 0
	for i, t := range types {
		if t.ID == p.activity {
			idx = i
			break
		}
	}
	n := len(types)
	idx = ((idx+delta)%n + n) % n
	p.activity = types[idx].ID
	return p.activity
}

func (p *Planner) activityLocked(id string) (model.ActivityType, bool) {
	for _, t := range p.snap.ActivityTypes {
		if t.ID == id {
			return t, true
		}
	}
	return model.ActivityType{}, false
}

// AddActivity registers a custom activity type.
func (p *Planner) AddActivity(t model.ActivityType) error {
	t.ID = strings.TrimSpace(t.ID)
	if t.ID == "" {
		return errors.New("activity id is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		t.Name = t.ID
	}
	if t.CountType == "" {
		t.CountType = model.CountTime
	}
	if t.CountType != model.CountTime && t.CountType != model.CountWorkout {
		return fmt.Errorf("invalid count type %q (expected time|workout)", t.CountType)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.activityLocked(t.ID); ok {
		return fmt.Errorf("activity already exists: %s", t.ID)
	}
	p.snap.ActivityTypes = append(p.snap.ActivityTypes, t)
	p.persistLocked(commit.ChangeSet{})
	return nil
}

func (p *Planner) commitGesture(g drag.Gesture[grid.Coord]) (commit.ChangeSet, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	members := selection.Rect(p.cfg, g.Anchor, g.Focus)
	cs, err := p.committer.Commit(p.snap.Slots, members, commit.Payload{ActivityID: p.activity})
	if err != nil {
		return commit.ChangeSet{}, err
	}
	if cs.Empty() {
		return cs, drag.ErrEmptyCommit
	}
	p.log.Debug("assigned", zap.String("activity", p.activity), zap.Int("cells", len(cs.Keys)), zap.String("group", cs.GroupID))
	p.persistLocked(cs)
	return cs, nil
}

// Assign runs a complete drag from one cell to another with the given
// activity. It goes through the same session as pointer input, so it is
// refused while a pointer gesture is active.
func (p *Planner) Assign(from, to grid.Coord, activityID string) (commit.ChangeSet, error) {
	if activityID != "" {
		if err := p.SetActivity(activityID); err != nil {
			return commit.ChangeSet{}, err
		}
	}
	l := p.Layout()
	if err := p.session.PointerDown(l.PointOf(from)); err != nil {
		return commit.ChangeSet{}, fmt.Errorf("assign %s: %w", p.cfg.KeyOf(from), err)
	}
	if err := p.session.PointerMove(l.PointOf(to)); err != nil {
		p.session.Cancel()
		return commit.ChangeSet{}, fmt.Errorf("assign %s: %w", p.cfg.KeyOf(to), err)
	}
	return p.session.PointerUp()
}

// ClearAt deletes the whole group containing the cell at co.
func (p *Planner) ClearAt(co grid.Coord) (commit.ChangeSet, error) {
	if !p.cfg.Valid(co) {
		return commit.ChangeSet{}, commit.OutOfRangeError{What: "slot", Value: co.Slot, Len: p.cfg.SlotsPerDay()}
	}
	return p.DeleteSelection([]string{p.cfg.KeyOf(co)}), nil
}

// DeleteSelection removes every selected slot together with the rest of
// each selected slot's group.
func (p *Planner) DeleteSelection(keys []string) commit.ChangeSet {
	p.mu.Lock()
	defer p.mu.Unlock()
	cs := commit.ClearGroups(p.snap.Slots, keys)
	if !cs.Empty() {
		p.persistLocked(cs)
	}
	return cs
}

// SetCompleted marks the group containing co as done or not done.
func (p *Planner) SetCompleted(co grid.Coord, completed bool) (commit.ChangeSet, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := p.cfg.KeyOf(co)
	s, ok := p.snap.Slots[key]
	if !ok {
		return commit.ChangeSet{}, commit.NotFoundError{Kind: "slot", ID: key}
	}
	cs, err := commit.SetGroupCompleted(p.snap.Slots, s.GroupID, completed, p.now())
	if err != nil {
		return commit.ChangeSet{}, err
	}
	if !cs.Empty() {
		p.persistLocked(cs)
	}
	return cs, nil
}

// ToggleCompleted flips the completed flag of the group at co.
func (p *Planner) ToggleCompleted(co grid.Coord) (commit.ChangeSet, error) {
	p.mu.Lock()
	s, ok := p.snap.Slots[p.cfg.KeyOf(co)]
	p.mu.Unlock()
	if !ok {
		return commit.ChangeSet{}, commit.NotFoundError{Kind: "slot", ID: p.cfg.KeyOf(co)}
	}
	return p.SetCompleted(co, !s.Completed)
}

// Replace swaps in an imported snapshot wholesale. The snapshot keeps this
// planner's week.
func (p *Planner) Replace(s model.TimeboxSnapshot) {
	normalize(&s, p.cfg, time.Time{})
	p.mu.Lock()
	defer p.mu.Unlock()
	s.WeekStart = p.snap.WeekStart
	changed := map[string]bool{}
	for k := range p.snap.Slots {
		changed[k] = true
	}
	for k := range s.Slots {
		changed[k] = true
	}
	keys := make([]string, 0, len(changed))
	for k := range changed {
		keys = append(keys, k)
	}
	p.snap = s
	if _, ok := p.activityLocked(p.activity); !ok {
		p.activity = s.ActivityTypes[0].ID
	}
	p.persistLocked(commit.ChangeSet{Keys: sortedKeys(keys)})
}

func (p *Planner) now() time.Time {
	if p.committer.Now != nil {
		return p.committer.Now()
	}
	return time.Now().UTC()
}

// persistLocked stamps the snapshot, hands it to the bridge and publishes a
// frame. The bridge captures the bytes before returning, so the order of
// saves matches the order of commits.
func (p *Planner) persistLocked(cs commit.ChangeSet) {
	p.snap.LastUpdated = p.now()
	if _, err := p.bridge.Save(p.ctx, p.key, p.snap); err != nil {
		p.log.Error("encode snapshot", zap.Error(err))
	}
	p.publishLocked(cs)
}

func (p *Planner) publishLocked(cs commit.ChangeSet) {
	p.feed.Publish(drag.Idle.String(), p.snap.Clone(), cs, nil)
}

func (p *Planner) publishPreview(st drag.State, g drag.Gesture[grid.Coord]) {
	switch st {
	case drag.Active:
	case drag.Idle:
		// Cancelled or empty gesture: clear the preview. A real commit has
		// already published its own idle frame.
		if p.feed.Last().State == drag.Active.String() {
			p.mu.Lock()
			p.publishLocked(commit.ChangeSet{})
			p.mu.Unlock()
		}
		return
	default:
		return
	}
	preview := selection.Keys(p.cfg, selection.Rect(p.cfg, g.Anchor, g.Focus))
	p.mu.Lock()
	snap := p.snap.Clone()
	p.mu.Unlock()
	p.feed.Publish(st.String(), snap, commit.ChangeSet{}, preview)
}
