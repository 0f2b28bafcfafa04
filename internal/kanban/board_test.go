package kanban

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"dashgrid/internal/drag"
	"dashgrid/internal/grid"
	"dashgrid/internal/model"
	"dashgrid/internal/persist"
	"dashgrid/internal/store"
)

func newBoard(t *testing.T, be persist.Backend) (*Board, *persist.Bridge[model.KanbanSnapshot]) {
	t.Helper()
	br := persist.New[model.KanbanSnapshot](be, persist.Options{})
	n := 0
	b, err := Open(context.Background(), Options{
		Bridge: br,
		Key:    store.Key("local", model.ModuleTodos),
		NewID: func() string {
			n++
			return fmt.Sprintf("t%d", n)
		},
		Now: func() time.Time { return time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return b, br
}

func ids(col []model.Card) []string {
	out := make([]string, 0, len(col))
	for _, c := range col {
		out = append(out, c.ID)
	}
	return out
}

func seed(t *testing.T, b *Board) {
	t.Helper()
	for _, title := range []string{"write report", "call bank", "fix bike"} {
		if _, err := b.Add(title, "", "unorganized"); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if _, err := b.Add("tax return", "", "waiting"); err != nil {
		t.Fatalf("Add: %v", err)
	}
}

func TestBoard_DragCardAcrossColumns(t *testing.T) {
	b, br := newBoard(t, store.NewMemory())
	seed(t, b)

	// Unit layout: x = column, y = index.
	if err := b.PointerDown(grid.Point{X: 0, Y: 1}); err != nil {
		t.Fatalf("PointerDown: %v", err)
	}
	_ = b.PointerMove(grid.Point{X: 2, Y: 0})
	if f := b.Frame(); f.State != "active" || len(f.Preview) != 2 || f.Preview[0] != "t2" || f.Preview[1] != "waiting:0" {
		t.Fatalf("preview: %+v", f)
	}
	cs, err := b.PointerUp()
	if err != nil {
		t.Fatalf("PointerUp: %v", err)
	}
	cols := b.Cards()
	if got := ids(cols[0]); fmt.Sprint(got) != "[t1 t3]" {
		t.Fatalf("unorganized: %v", got)
	}
	if got := ids(cols[2]); fmt.Sprint(got) != "[t2 t4]" {
		t.Fatalf("waiting: %v", got)
	}
	if cols[2][0].Status != "waiting" {
		t.Fatalf("status not updated: %+v", cols[2][0])
	}
	if fmt.Sprint(cs.Keys) != "[t2 t3 t4]" {
		t.Fatalf("change set: %v", cs.Keys)
	}
	for ci, col := range cols {
		for i, c := range col {
			if c.Order != i {
				t.Fatalf("column %d not dense: %+v", ci, col)
			}
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := br.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

func TestBoard_PressOnEmptySlotIsIgnored(t *testing.T) {
	b, _ := newBoard(t, store.NewMemory())
	seed(t, b)
	// Column 1 (in-progress) is empty; its only slot is the drop slot.
	if err := b.PointerDown(grid.Point{X: 1, Y: 0}); !errors.Is(err, drag.ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget; got %v", err)
	}
}

func TestBoard_DropInPlaceIsNoOp(t *testing.T) {
	b, br := newBoard(t, store.NewMemory())
	seed(t, b)
	before := br.Status(b.Key()).Seq

	_ = b.PointerDown(grid.Point{X: 0, Y: 2})
	_ = b.PointerMove(grid.Point{X: 0, Y: 9}) // clamps to its own slot
	cs, err := b.PointerUp()
	if err != nil || !cs.Empty() {
		t.Fatalf("expected no-op; cs=%v err=%v", cs, err)
	}
	if after := br.Status(b.Key()).Seq; after != before {
		t.Fatalf("no-op must not save; seq %d -> %d", before, after)
	}
	if f := b.Frame(); f.State != "idle" {
		t.Fatalf("frame should return to idle: %+v", f)
	}
}

func TestBoard_MoveAndRemove(t *testing.T) {
	b, _ := newBoard(t, store.NewMemory())
	seed(t, b)

	if _, err := b.Move("t1", "completed", 0); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if _, err := b.Move("t3", "unorganized", 0); err != nil {
		t.Fatalf("Move within column: %v", err)
	}
	cols := b.Cards()
	if fmt.Sprint(ids(cols[0])) != "[t3 t2]" || fmt.Sprint(ids(cols[4])) != "[t1]" {
		t.Fatalf("board: %v / %v", ids(cols[0]), ids(cols[4]))
	}
	if _, err := b.Move("missing", "completed", 0); err == nil {
		t.Fatalf("expected not found")
	}
	if _, err := b.Move("t1", "archived", 0); err == nil {
		t.Fatalf("expected unknown column")
	}

	cs, err := b.Remove("t3")
	if err != nil || fmt.Sprint(cs.Keys) != "[t2 t3]" {
		t.Fatalf("Remove: %v %v", cs, err)
	}
	if col := b.Cards()[0]; len(col) != 1 || col[0].Order != 0 {
		t.Fatalf("after remove: %+v", col)
	}
}

func TestBoard_NormalizesLoadedSnapshot(t *testing.T) {
	be := store.NewMemory()
	raw := `{"version":1,"cards":[
		{"id":"a","title":"A","status":"in-progress","order":7},
		{"id":"b","title":"B","status":"bogus","order":0},
		{"id":"c","title":"C","status":"in-progress","order":2}
	]}`
	if err := be.Save(context.Background(), store.Key("local", model.ModuleTodos), []byte(raw)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	b, _ := newBoard(t, be)
	cols := b.Cards()
	if fmt.Sprint(ids(cols[1])) != "[c a]" || cols[1][1].Order != 1 {
		t.Fatalf("in-progress: %+v", cols[1])
	}
	if len(cols[0]) != 1 || cols[0][0].Status != "unorganized" {
		t.Fatalf("unknown status should land in the first column: %+v", cols[0])
	}
}

func TestBoard_AddValidates(t *testing.T) {
	b, _ := newBoard(t, store.NewMemory())
	if _, err := b.Add("  ", "", ""); err == nil {
		t.Fatalf("expected title error")
	}
	if _, err := b.Add("x", "", "nope"); err == nil {
		t.Fatalf("expected column error")
	}
	c, err := b.Add("x", "", "")
	if err != nil || c.Status != "unorganized" {
		t.Fatalf("default column: %+v %v", c, err)
	}
}
