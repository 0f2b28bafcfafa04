// Package workspace opens one user's dashboard: the backend, a persistence
// bridge per snapshot type and the three interactive surfaces on top.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"dashgrid/internal/clock"
	"dashgrid/internal/config"
	"dashgrid/internal/kanban"
	"dashgrid/internal/model"
	"dashgrid/internal/notify"
	"dashgrid/internal/persist"
	"dashgrid/internal/sidebar"
	"dashgrid/internal/store"
	"dashgrid/internal/surface"
	"dashgrid/internal/timebox"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	Config config.Config
	Logger *zap.Logger
	// Backend overrides the one named by Config.
	Backend store.Backend
	Now     func() time.Time
}

type Workspace struct {
	cfg     config.Config
	log     *zap.Logger
	now     func() time.Time
	backend store.Backend

	Notices *notify.Queue
	Clock   *clock.Service

	timeboxes *persist.Bridge[model.TimeboxSnapshot]
	boards    *persist.Bridge[model.KanbanSnapshot]
	settings  *persist.Bridge[model.SettingsSnapshot]

	Kanban  *kanban.Board
	Sidebar *sidebar.Sidebar

	mu         sync.Mutex
	planner    *timebox.Planner
	weekOffset int
	weeks      map[string]*timebox.Planner
}

// TimeboxKey is the store key of the week starting on the Monday of t.
func TimeboxKey(user string, t time.Time) string {
	return store.Key(user, model.ModuleTimebox+"-"+clock.WeekStart(t).Format("2006-01-02"))
}

// Open loads all three surfaces. If any load fails nothing is opened.
func Open(ctx context.Context, opts Options) (*Workspace, error) {
	cfg := opts.Config
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	be := opts.Backend
	if be == nil {
		dataDir, err := cfg.ResolvedDataDir()
		if err != nil {
			return nil, err
		}
		be, err = store.Open(ctx, store.Options{Kind: cfg.Backend, DataDir: dataDir, PostgresDSN: cfg.PostgresDSN})
		if err != nil {
			return nil, err
		}
	}

	w := &Workspace{
		cfg:     cfg,
		log:     log,
		now:     now,
		backend: be,
		Notices: &notify.Queue{Now: now},
		Clock:   clock.New(time.Minute),
		weeks:   map[string]*timebox.Planner{},
	}
	w.Clock.Now = now
	popts := persist.Options{
		Logger:     log.Named("persist"),
		OnError:    w.persistFailed,
		Timeout:    30 * time.Second,
		RetryAfter: cfg.RetryAfter,
		Debounce:   cfg.Debounce,
	}
	w.timeboxes = persist.New[model.TimeboxSnapshot](be, popts)
	w.boards = persist.New[model.KanbanSnapshot](be, popts)
	w.settings = persist.New[model.SettingsSnapshot](be, popts)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := w.openWeek(gctx, 0)
		if err != nil {
			return fmt.Errorf("timebox: %w", err)
		}
		w.planner = p
		return nil
	})
	g.Go(func() error {
		b, err := kanban.Open(gctx, kanban.Options{
			Bridge:  w.boards,
			Key:     store.Key(cfg.User, model.ModuleTodos),
			Logger:  log,
			OnError: w.commitFailed,
		})
		if err != nil {
			return fmt.Errorf("kanban: %w", err)
		}
		w.Kanban = b
		return nil
	})
	g.Go(func() error {
		s, err := sidebar.Open(gctx, sidebar.Options{
			Bridge:  w.settings,
			Key:     store.Key(cfg.User, model.ModuleSettings),
			Logger:  log,
			OnError: w.commitFailed,
		})
		if err != nil {
			return fmt.Errorf("sidebar: %w", err)
		}
		w.Sidebar = s
		return nil
	})
	if err := g.Wait(); err != nil {
		if opts.Backend == nil {
			_ = be.Close()
		}
		return nil, err
	}
	log.Info("workspace opened",
		zap.String("user", cfg.User),
		zap.String("backend", cfg.Backend),
		zap.String("week", w.planner.Snapshot().WeekStart))
	return w, nil
}

func (w *Workspace) persistFailed(err *persist.PersistenceError) {
	if err.Op == "save" {
		w.Notices.Push(notify.Error, notify.SyncFailed)
		return
	}
	w.Notices.Push(notify.Error, "could not load "+err.Key)
}

func (w *Workspace) commitFailed(err error) {
	w.Notices.Push(notify.Error, err.Error())
}

func (w *Workspace) openWeek(ctx context.Context, offset int) (*timebox.Planner, error) {
	start := clock.WeekStart(w.now()).AddDate(0, 0, 7*offset)
	key := TimeboxKey(w.cfg.User, start)
	w.mu.Lock()
	p := w.weeks[key]
	w.mu.Unlock()
	if p != nil {
		return p, nil
	}
	p, err := timebox.Open(ctx, timebox.Options{
		Config:    w.cfg.Timebox,
		Bridge:    w.timeboxes,
		Key:       key,
		WeekStart: start,
		Logger:    w.log,
		OnError:   w.commitFailed,
	})
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if existing := w.weeks[key]; existing != nil {
		return existing, nil
	}
	w.weeks[key] = p
	return p, nil
}

func (w *Workspace) Config() config.Config { return w.cfg }
func (w *Workspace) User() string          { return w.cfg.User }
func (w *Workspace) Logger() *zap.Logger   { return w.log }

// Timebox returns the planner of the week currently shown.
func (w *Workspace) Timebox() *timebox.Planner {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.planner
}

func (w *Workspace) WeekOffset() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.weekOffset
}

// SetWeek switches the timebox surface to the week offset weeks from the
// current one. Any gesture on the previous week is cancelled.
func (w *Workspace) SetWeek(ctx context.Context, offset int) (*timebox.Planner, error) {
	p, err := w.openWeek(ctx, offset)
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	prev := w.planner
	w.planner = p
	w.weekOffset = offset
	w.mu.Unlock()
	if prev != nil && prev != p {
		prev.Cancel()
	}
	return p, nil
}

// Surfaces returns the surfaces in tab order.
func (w *Workspace) Surfaces() []surface.Surface {
	return []surface.Surface{w.Timebox(), w.Kanban, w.Sidebar}
}

func (w *Workspace) Surface(name string) (surface.Surface, bool) {
	switch name {
	case surface.Timebox:
		return w.Timebox(), true
	case surface.Kanban:
		return w.Kanban, true
	case surface.Sidebar:
		return w.Sidebar, true
	}
	return nil, false
}

// CancelAll ends every in-progress gesture, e.g. when the window loses focus.
func (w *Workspace) CancelAll() {
	for _, s := range w.Surfaces() {
		s.Cancel()
	}
}

// Status reports the persistence state of each surface's key.
func (w *Workspace) Status() map[string]persist.Status {
	tb := w.Timebox()
	return map[string]persist.Status{
		tb.Key():        w.timeboxes.Status(tb.Key()),
		w.Kanban.Key():  w.boards.Status(w.Kanban.Key()),
		w.Sidebar.Key(): w.settings.Status(w.Sidebar.Key()),
	}
}

// Flush waits for every pending write.
func (w *Workspace) Flush(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.timeboxes.Flush(gctx) })
	g.Go(func() error { return w.boards.Flush(gctx) })
	g.Go(func() error { return w.settings.Flush(gctx) })
	return g.Wait()
}

// Close flushes, stops pending retries and releases the backend.
func (w *Workspace) Close(ctx context.Context) error {
	w.CancelAll()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.timeboxes.Close(gctx) })
	g.Go(func() error { return w.boards.Close(gctx) })
	g.Go(func() error { return w.settings.Close(gctx) })
	ferr := g.Wait()
	return errors.Join(ferr, w.backend.Close())
}

// Entries lists what the backend holds for this user.
func (w *Workspace) Entries(ctx context.Context) ([]store.Entry, error) {
	return w.backend.List(ctx, w.cfg.User)
}
