package store

import (
	"context"
	"encoding/json"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"
)

// EnvTestPostgresDSN enables the Postgres backend tests against a real
// server, e.g. postgres://localhost/dashgrid_test?sslmode=disable.
const EnvTestPostgresDSN = "DASHGRID_TEST_PG_DSN"

func openTestPostgres(t *testing.T) *Postgres {
	t.Helper()
	dsn := strings.TrimSpace(os.Getenv(EnvTestPostgresDSN))
	if dsn == "" {
		t.Skipf("%s not set", EnvTestPostgresDSN)
	}
	p, err := OpenPostgres(context.Background(), dsn)
	if err != nil {
		t.Fatalf("OpenPostgres: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

// sameJSON compares documents semantically; JSONB does not keep the input
// bytes.
func sameJSON(t *testing.T, got []byte, want string) bool {
	t.Helper()
	var a, b any
	if err := json.Unmarshal(got, &a); err != nil {
		t.Fatalf("stored data is not JSON: %s", got)
	}
	if err := json.Unmarshal([]byte(want), &b); err != nil {
		t.Fatalf("bad want: %s", want)
	}
	return reflect.DeepEqual(a, b)
}

func TestPostgresBackend_KeysAndUpsert(t *testing.T) {
	p := openTestPostgres(t)
	ctx := context.Background()
	user := "test-" + uuid.NewString()
	other := "test-" + uuid.NewString()
	t.Cleanup(func() {
		_, _ = p.db.ExecContext(context.Background(), `DELETE FROM user_data WHERE user_id = $1 OR user_id = $2`, user, other)
	})

	if _, ok, err := p.Load(ctx, Key(user, "todos")); err != nil || ok {
		t.Fatalf("Load missing: ok=%v err=%v", ok, err)
	}
	if err := p.Save(ctx, user, []byte(`{"v":1}`)); err != nil {
		t.Fatalf("Save default module: %v", err)
	}
	if err := p.Save(ctx, Key(user, "todos"), []byte(`{"v":2}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := p.Save(ctx, Key(user, "todos"), []byte(`{"v":3,"cards":["a"]}`)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := p.Save(ctx, Key(other, "todos"), []byte(`{"v":9}`)); err != nil {
		t.Fatalf("Save other user: %v", err)
	}

	got, ok, err := p.Load(ctx, Key(user, "todos"))
	if err != nil || !ok || !sameJSON(t, got, `{"v":3,"cards":["a"]}`) {
		t.Fatalf("Load: %s ok=%v err=%v", got, ok, err)
	}
	got, ok, err = p.Load(ctx, Key(user, DefaultModule))
	if err != nil || !ok || !sameJSON(t, got, `{"v":1}`) {
		t.Fatalf("Load default module: %s ok=%v err=%v", got, ok, err)
	}

	var rows int
	if err := p.db.QueryRowContext(ctx,
		`SELECT count(*) FROM user_data WHERE user_id = $1 AND module = 'todos'`, user).Scan(&rows); err != nil {
		t.Fatalf("count: %v", err)
	}
	if rows != 1 {
		t.Fatalf("upsert left %d rows", rows)
	}

	entries, err := p.List(ctx, user)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 || entries[0].Module != DefaultModule || entries[1].Module != "todos" {
		t.Fatalf("List: %+v", entries)
	}
	for _, e := range entries {
		if e.User != user || e.Size == 0 || e.UpdatedAt.IsZero() {
			t.Fatalf("entry: %+v", e)
		}
	}
}

func TestPostgresBackend_RejectsBadKeys(t *testing.T) {
	p := openTestPostgres(t)
	ctx := context.Background()
	for _, key := range []string{"", "/todos", "u/a/b"} {
		if err := p.Save(ctx, key, []byte(`{}`)); err == nil {
			t.Fatalf("Save(%q): expected error", key)
		}
		if _, _, err := p.Load(ctx, key); err == nil {
			t.Fatalf("Load(%q): expected error", key)
		}
	}
}
