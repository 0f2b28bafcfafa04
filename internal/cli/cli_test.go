package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dashgrid/internal/config"
)

func runCLI(t *testing.T, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

// testEnv isolates the config dir and returns the flags for a file backend
// in a fresh data dir.
func testEnv(t *testing.T) []string {
	t.Helper()
	t.Setenv(config.EnvConfigDir, t.TempDir())
	t.Setenv("DASHGRID_USER", "")
	t.Setenv("DASHGRID_BACKEND", "")
	t.Setenv("DASHGRID_DATA_DIR", "")
	t.Setenv("DASHGRID_FORMAT", "")
	return []string{"--backend", "file", "--data-dir", t.TempDir(), "--user", "user-42"}
}

func mustRun(t *testing.T, base []string, args ...string) map[string]any {
	t.Helper()
	out, errOut, err := runCLI(t, append(append([]string{}, base...), args...))
	if err != nil {
		t.Fatalf("%v: %v\nstderr: %s", args, err, string(errOut))
	}
	var env map[string]any
	if err := json.Unmarshal(out, &env); err != nil {
		t.Fatalf("%v: invalid json: %v\n%s", args, err, string(out))
	}
	return env
}

func TestSidebarMove_PersistsAcrossInvocations(t *testing.T) {
	base := testEnv(t)

	env := mustRun(t, base, "sidebar", "move", "finance", "0")
	order := env["data"].(map[string]any)["order"].([]any)
	if order[0] != "finance" || order[1] != "overview" || order[2] != "todos" || order[3] != "calendar" {
		t.Fatalf("order after move: %v", order)
	}

	env = mustRun(t, base, "sidebar", "show")
	meta := env["meta"].(map[string]any)
	if got := meta["order"].([]any); got[0] != "finance" || len(got) != len(order) {
		t.Fatalf("order after reload: %v", got)
	}
	mods := env["data"].([]any)
	if mods[0].(map[string]any)["id"] != "finance" {
		t.Fatalf("modules: %v", mods)
	}

	env = mustRun(t, base, "sidebar", "reset")
	if got := env["data"].(map[string]any)["order"].([]any); got[0] != "overview" {
		t.Fatalf("order after reset: %v", got)
	}
}

func TestSidebarMove_UnknownModuleFails(t *testing.T) {
	base := testEnv(t)
	_, errOut, err := runCLI(t, append(base, "sidebar", "move", "nope", "0"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(string(errOut), "nope") {
		t.Fatalf("stderr: %s", string(errOut))
	}
}

func TestTimebox_AssignShowCompleteStats(t *testing.T) {
	base := testEnv(t)

	env := mustRun(t, base, "timebox", "assign", "d0-07-00", "d0-08-30", "work")
	cs := env["data"].(map[string]any)
	if keys := cs["keys"].([]any); len(keys) != 4 {
		t.Fatalf("keys: %v", keys)
	}
	if cs["groupId"] == "" {
		t.Fatalf("expected group id")
	}

	env = mustRun(t, base, "timebox", "show")
	data := env["data"].(map[string]any)
	slots := data["slots"].(map[string]any)
	if len(slots) != 4 {
		t.Fatalf("slots: %v", slots)
	}
	if blocks := data["blocks"].([]any); len(blocks) != 1 {
		t.Fatalf("blocks: %v", blocks)
	}
	group := slots["d0-07-00"].(map[string]any)["groupId"]
	for k, v := range slots {
		if v.(map[string]any)["groupId"] != group {
			t.Fatalf("slot %s has a different group", k)
		}
	}

	mustRun(t, base, "timebox", "complete", "d0-07-30")
	env = mustRun(t, base, "timebox", "stats")
	stats := env["data"].(map[string]any)
	if stats["totalHours"].(float64) != 2 || stats["completedTasks"].(float64) != 1 {
		t.Fatalf("stats: %v", stats)
	}

	env = mustRun(t, base, "timebox", "clear", "d0-08-00")
	if keys := env["data"].(map[string]any)["keys"].([]any); len(keys) != 4 {
		t.Fatalf("cleared: %v", keys)
	}
}

func TestTimebox_InvalidCell(t *testing.T) {
	base := testEnv(t)
	_, errOut, err := runCLI(t, append(base, "timebox", "assign", "d0-03-00", "d0-04-00", "work"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(string(errOut), "invalid cell") {
		t.Fatalf("stderr: %s", string(errOut))
	}
}

func TestTimebox_NextWeekIsSeparate(t *testing.T) {
	base := testEnv(t)
	mustRun(t, base, "timebox", "--week", "1", "assign", "d2-10-00", "d2-10-00", "study")

	env := mustRun(t, base, "timebox", "show")
	if slots := env["data"].(map[string]any)["slots"].(map[string]any); len(slots) != 0 {
		t.Fatalf("this week should be empty: %v", slots)
	}
	env = mustRun(t, base, "timebox", "--week", "1", "show")
	if slots := env["data"].(map[string]any)["slots"].(map[string]any); len(slots) != 1 {
		t.Fatalf("next week: %v", slots)
	}
}

func TestKanban_AddMoveRemove(t *testing.T) {
	base := testEnv(t)

	a := mustRun(t, base, "kanban", "add", "Write", "report")["data"].(map[string]any)
	b := mustRun(t, base, "todos", "add", "Ship", "--status", "in-progress")["data"].(map[string]any)
	if a["title"] != "Write report" || a["status"] != "unorganized" {
		t.Fatalf("card a: %v", a)
	}

	mustRun(t, base, "kanban", "move", a["id"].(string), "in-progress", "0")
	env := mustRun(t, base, "kanban", "show")
	cols := env["data"].([]any)
	inProgress := cols[1].(map[string]any)
	cards := inProgress["cards"].([]any)
	if inProgress["id"] != "in-progress" || len(cards) != 2 {
		t.Fatalf("in-progress: %v", inProgress)
	}
	if cards[0].(map[string]any)["id"] != a["id"] || cards[1].(map[string]any)["id"] != b["id"] {
		t.Fatalf("order: %v", cards)
	}
	for i, c := range cards {
		if int(c.(map[string]any)["order"].(float64)) != i {
			t.Fatalf("order not dense: %v", cards)
		}
	}

	mustRun(t, base, "kanban", "rm", a["id"].(string))
	env = mustRun(t, base, "kanban", "show")
	cards = env["data"].([]any)[1].(map[string]any)["cards"].([]any)
	if len(cards) != 1 || cards[0].(map[string]any)["order"].(float64) != 0 {
		t.Fatalf("after rm: %v", cards)
	}
}

func TestConfig_SetAndShow(t *testing.T) {
	base := testEnv(t)

	mustRun(t, nil, "config", "set", "timebox.slotMinutes", "15")
	env := mustRun(t, base, "config", "show")
	cfg := env["data"].(map[string]any)
	if tb := cfg["timebox"].(map[string]any); tb["slotMinutes"].(float64) != 15 {
		t.Fatalf("timebox: %v", tb)
	}
	// Flags override the file without being written back.
	if cfg["backend"] != "file" || cfg["user"] != "user-42" {
		t.Fatalf("config: %v", cfg)
	}
	path := env["meta"].(map[string]any)["path"].(string)
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if strings.Contains(string(b), "user-42") || !strings.Contains(string(b), "slotMinutes: 15") {
		t.Fatalf("config file:\n%s", string(b))
	}

	_, _, err = runCLI(t, []string{"config", "set", "timebox.slotMinutes", "7"})
	if err == nil {
		t.Fatalf("expected invalid slot size to fail")
	}
}

func TestSnapshot_ExportImportYAML(t *testing.T) {
	base := testEnv(t)
	mustRun(t, base, "timebox", "assign", "d1-09-00", "d1-09-30", "work")
	mustRun(t, base, "kanban", "add", "Exported")
	mustRun(t, base, "sidebar", "move", "timebox", "0")

	file := filepath.Join(t.TempDir(), "snap.yaml")
	out, errOut, err := runCLI(t, append(base, "--format", "yaml", "snapshot", "export", "-o", file))
	if err != nil {
		t.Fatalf("export: %v\n%s", err, string(errOut))
	}
	if !strings.Contains(string(out), "path: ") {
		t.Fatalf("export output:\n%s", string(out))
	}
	b, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(b), "user: user-42") {
		t.Fatalf("export:\n%s", string(b))
	}

	// Import into an empty data dir.
	other := []string{"--backend", "file", "--data-dir", t.TempDir(), "--user", "user-42"}
	env := mustRun(t, other, "snapshot", "import", file)
	data := env["data"].(map[string]any)
	if data["timebox"] != true || data["todos"] != true || data["settings"] != true {
		t.Fatalf("import: %v", data)
	}
	env = mustRun(t, other, "timebox", "show")
	if slots := env["data"].(map[string]any)["slots"].(map[string]any); len(slots) != 2 {
		t.Fatalf("slots: %v", slots)
	}
	env = mustRun(t, other, "sidebar", "show")
	if got := env["meta"].(map[string]any)["order"].([]any); got[0] != "timebox" {
		t.Fatalf("order: %v", got)
	}
}

func TestSnapshot_ImportRejectsGarbage(t *testing.T) {
	base := testEnv(t)
	file := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(file, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, errOut, err := runCLI(t, append(base, "snapshot", "import", file))
	if err == nil || !strings.Contains(string(errOut), "invalid snapshot") {
		t.Fatalf("err=%v stderr=%s", err, string(errOut))
	}
}

func TestFormatYAML(t *testing.T) {
	base := testEnv(t)
	out, errOut, err := runCLI(t, append(base, "--format", "yaml", "sidebar", "show"))
	if err != nil {
		t.Fatalf("err: %v\n%s", err, string(errOut))
	}
	s := string(out)
	if !strings.HasPrefix(s, "data:") || !strings.Contains(s, "id: overview") {
		t.Fatalf("yaml:\n%s", s)
	}
}

func TestStatus_ListsWrittenModules(t *testing.T) {
	base := testEnv(t)
	mustRun(t, base, "kanban", "add", "One")

	env := mustRun(t, base, "status")
	data := env["data"].(map[string]any)
	if data["user"] != "user-42" || data["backend"] != "file" {
		t.Fatalf("status: %v", data)
	}
	found := false
	for _, e := range data["entries"].([]any) {
		if e.(map[string]any)["module"] == "todos" {
			found = true
		}
	}
	if !found {
		t.Fatalf("entries: %v", data["entries"])
	}
}

func TestPublish_WritesMarkdown(t *testing.T) {
	base := testEnv(t)
	mustRun(t, base, "timebox", "assign", "d0-07-00", "d0-07-30", "work")
	mustRun(t, base, "kanban", "add", "Ship it")

	dir := t.TempDir()
	env := mustRun(t, base, "publish", "--to", dir)
	written := env["data"].(map[string]any)["written"].([]any)
	if len(written) != 2 {
		t.Fatalf("written: %v", written)
	}
	b, err := os.ReadFile(filepath.Join(dir, "todos.md"))
	if err != nil || !strings.Contains(string(b), "- [ ] Ship it") {
		t.Fatalf("todos.md: %v\n%s", err, string(b))
	}

	if _, _, err := runCLI(t, append(base, "publish", "--to", dir)); err == nil {
		t.Fatalf("expected refusal to overwrite")
	}

	out, _, err := runCLI(t, append(base, "publish", "--raw"))
	if err != nil {
		t.Fatalf("raw: %v", err)
	}
	if !strings.Contains(string(out), "07:00–08:00 Work") || !strings.Contains(string(out), "# Todos") {
		t.Fatalf("raw:\n%s", string(out))
	}
}

func TestDocs(t *testing.T) {
	env := mustRun(t, nil, "docs")
	topics := env["data"].(map[string]any)["topics"].([]any)
	if len(topics) == 0 {
		t.Fatalf("no topics")
	}
	out, _, err := runCLI(t, []string{"docs", "sidebar", "--raw"})
	if err != nil || !strings.HasPrefix(string(out), "# Sidebar") {
		t.Fatalf("err=%v out=%q", err, string(out))
	}
	if _, _, err := runCLI(t, []string{"docs", "nope"}); err == nil {
		t.Fatalf("expected unknown topic error")
	}
}
