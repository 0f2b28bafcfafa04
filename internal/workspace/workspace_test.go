package workspace

import (
	"context"
	"errors"
	"testing"
	"time"

	"dashgrid/internal/config"
	"dashgrid/internal/grid"
	"dashgrid/internal/notify"
	"dashgrid/internal/store"
	"dashgrid/internal/surface"
)

// Friday 2026-10-16; the week starts Monday 2026-10-12.
var fixedNow = func() time.Time { return time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC) }

func testConfig() config.Config {
	c := config.Default()
	c.User = "user-42"
	c.Backend = store.KindMemory
	c.Debounce = time.Millisecond
	return c
}

func open(t *testing.T, be store.Backend) *Workspace {
	t.Helper()
	w, err := Open(context.Background(), Options{Config: testConfig(), Backend: be, Now: fixedNow})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return w
}

func flush(t *testing.T, w *Workspace) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

func TestOpen_FreshUserGetsDefaults(t *testing.T) {
	be := store.NewMemory()
	w := open(t, be)

	if got := w.Timebox().Key(); got != "user-42/timebox-2026-10-12" {
		t.Fatalf("timebox key: %s", got)
	}
	if w.Kanban.Key() != "user-42/todos" || w.Sidebar.Key() != "user-42/settings" {
		t.Fatalf("keys: %s %s", w.Kanban.Key(), w.Sidebar.Key())
	}
	if len(w.Surfaces()) != 3 {
		t.Fatalf("surfaces: %d", len(w.Surfaces()))
	}
	for _, name := range surface.Names() {
		s, ok := w.Surface(name)
		if !ok || s.Name() != name {
			t.Fatalf("Surface(%s): %v %v", name, s, ok)
		}
	}

	if _, err := w.Sidebar.Move("finance", 0); err != nil {
		t.Fatalf("Move: %v", err)
	}
	flush(t, w)
	entries, err := w.Entries(context.Background())
	if err != nil || len(entries) != 1 || entries[0].Module != "settings" {
		t.Fatalf("entries: %+v %v", entries, err)
	}

	w2 := open(t, be)
	if w2.Sidebar.Order()[0] != "finance" {
		t.Fatalf("reopened order: %v", w2.Sidebar.Order())
	}
}

func TestOpen_LoadFailureAbortsAndNotifies(t *testing.T) {
	be := &brokenBackend{Memory: store.NewMemory()}
	_, err := Open(context.Background(), Options{Config: testConfig(), Backend: be, Now: fixedNow})
	if err == nil {
		t.Fatalf("expected open to fail")
	}
}

type brokenBackend struct {
	*store.Memory
	saveErr error
}

func (b *brokenBackend) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if b.saveErr == nil {
		return nil, false, errors.New("connection refused")
	}
	return b.Memory.Load(ctx, key)
}

func (b *brokenBackend) Save(ctx context.Context, key string, data []byte) error {
	if b.saveErr != nil {
		return b.saveErr
	}
	return b.Memory.Save(ctx, key, data)
}

func TestSaveFailurePushesSyncNotice(t *testing.T) {
	be := &brokenBackend{Memory: store.NewMemory(), saveErr: errors.New("offline")}
	w := open(t, be)
	if _, err := w.Kanban.Add("call bank", "", ""); err != nil {
		t.Fatalf("Add: %v", err)
	}
	flush(t, w)
	n, ok := w.Notices.Latest()
	if !ok || n.Level != notify.Error || n.Message != notify.SyncFailed {
		t.Fatalf("notice: %+v ok=%v", n, ok)
	}
	if len(w.Kanban.Snapshot().Cards) != 1 {
		t.Fatalf("optimistic state must survive a failed save")
	}
	st := w.Status()[w.Kanban.Key()]
	if st.LastErr == "" || st.Saved != 0 {
		t.Fatalf("status: %+v", st)
	}
}

func TestSetWeek(t *testing.T) {
	w := open(t, store.NewMemory())
	this := w.Timebox()
	if _, err := this.Assign(grid.Coord{}, grid.Coord{Slot: 1}, "work"); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	next, err := w.SetWeek(context.Background(), 1)
	if err != nil {
		t.Fatalf("SetWeek: %v", err)
	}
	if next.Key() != "user-42/timebox-2026-10-19" || len(next.Snapshot().Slots) != 0 {
		t.Fatalf("next week: %s %d", next.Key(), len(next.Snapshot().Slots))
	}
	back, _ := w.SetWeek(context.Background(), 0)
	if back != this || w.WeekOffset() != 0 {
		t.Fatalf("expected the cached planner back")
	}
}

func TestExportImport(t *testing.T) {
	src := open(t, store.NewMemory())
	if _, err := src.Timebox().Assign(grid.Coord{Day: 1, Slot: 2}, grid.Coord{Day: 1, Slot: 3}, "study"); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if _, err := src.Kanban.Add("fix bike", "", "waiting"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	b := src.Export()
	if b.User != "user-42" || b.Timebox == nil || len(b.Todos.Cards) != 1 {
		t.Fatalf("bundle: %+v", b)
	}

	dst := open(t, store.NewMemory())
	if err := dst.Import(b); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(dst.Timebox().Snapshot().Slots) != 2 || len(dst.Kanban.Snapshot().Cards) != 1 {
		t.Fatalf("imported state missing")
	}
	if err := dst.Import(Bundle{Version: 1}); err == nil {
		t.Fatalf("expected empty bundle error")
	}
	if err := dst.Import(Bundle{Version: 99, Todos: b.Todos}); err == nil {
		t.Fatalf("expected version error")
	}
	flush(t, dst)
}
