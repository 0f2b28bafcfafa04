package publish

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dashgrid/internal/grid"
	"dashgrid/internal/model"
)

func testWeek() model.TimeboxSnapshot {
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	slot := func(gid string, main bool, done bool) model.Slot {
		return model.Slot{ActivityID: "work", GroupID: gid, IsMain: main, TotalSlots: 2, Completed: done, UpdatedAt: now}
	}
	return model.TimeboxSnapshot{
		Version:       1,
		WeekStart:     "2026-10-12",
		SlotMinutes:   30,
		ActivityTypes: model.DefaultActivityTypes(),
		Slots: map[string]model.Slot{
			"d0-07-00": slot("g1", true, true),
			"d0-07-30": slot("g1", false, true),
			"d2-10-00": {ActivityID: "workout", GroupID: "g2", IsMain: true, TotalSlots: 1, UpdatedAt: now},
		},
	}
}

func TestRenderWeekMarkdown_ListsBlocksPerDay(t *testing.T) {
	t.Parallel()

	md, err := RenderWeekMarkdown(grid.DefaultConfig(), testWeek(), RenderOptions{})
	if err != nil {
		t.Fatalf("RenderWeekMarkdown: %v", err)
	}
	for _, want := range []string{
		"# Week of Mon 12 Oct 2026",
		"- Planned: 1.0h",
		"- Done: 1",
		"- Workouts: 1",
		"## Monday 12 Oct",
		"- [x] 07:00–08:00 Work",
		"## Wednesday 14 Oct",
		"- [ ] 10:00–10:30 Workout",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("missing %q in:\n%s", want, md)
		}
	}
	if strings.Contains(md, "Tuesday") {
		t.Fatalf("empty day should be skipped:\n%s", md)
	}

	md, err = RenderWeekMarkdown(grid.DefaultConfig(), testWeek(), RenderOptions{IncludeEmptyDays: true})
	if err != nil {
		t.Fatalf("RenderWeekMarkdown: %v", err)
	}
	if !strings.Contains(md, "## Tuesday 13 Oct\n\nNothing planned.") {
		t.Fatalf("expected empty day:\n%s", md)
	}
}

func TestRenderWeekMarkdown_RejectsMissingWeek(t *testing.T) {
	t.Parallel()
	w := testWeek()
	w.WeekStart = ""
	if _, err := RenderWeekMarkdown(grid.DefaultConfig(), w, RenderOptions{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRenderBoardMarkdown(t *testing.T) {
	t.Parallel()

	cols := model.DefaultKanbanColumns()
	cards := make([][]model.Card, len(cols))
	cards[0] = []model.Card{{ID: "c1", Title: "Plan", Content: "first line\nsecond line"}}
	cards[len(cols)-1] = []model.Card{{ID: "c2", Title: "Ship"}}

	md, err := RenderBoardMarkdown(cols, cards)
	if err != nil {
		t.Fatalf("RenderBoardMarkdown: %v", err)
	}
	for _, want := range []string{"## 📋 Unorganized (1)", "- [ ] Plan\n  first line\n  second line", "- [x] Ship", "## ⚡ In progress (0)"} {
		if !strings.Contains(md, want) {
			t.Fatalf("missing %q in:\n%s", want, md)
		}
	}

	if _, err := RenderBoardMarkdown(cols, cards[:1]); err == nil {
		t.Fatalf("expected mismatch error")
	}
}

func TestWrite_RefusesToOverwrite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cols := model.DefaultKanbanColumns()
	in := Input{Grid: grid.DefaultConfig(), Week: testWeek(), Columns: cols, Cards: make([][]model.Card, len(cols))}

	res, err := Write(in, dir, WriteOptions{})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := []string{filepath.Join(dir, "week-2026-10-12.md"), filepath.Join(dir, "todos.md")}
	if len(res.Written) != 2 || res.Written[0] != want[0] || res.Written[1] != want[1] {
		t.Fatalf("written: %v", res.Written)
	}
	if b, err := os.ReadFile(want[0]); err != nil || !strings.Contains(string(b), "# Week of") {
		t.Fatalf("week file: %v %q", err, string(b))
	}

	if _, err := Write(in, dir, WriteOptions{}); err == nil || !strings.Contains(err.Error(), "--overwrite") {
		t.Fatalf("expected overwrite error, got %v", err)
	}
	if _, err := Write(in, dir, WriteOptions{Overwrite: true}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
}
