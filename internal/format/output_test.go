package format

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

type sample struct {
	ID        string    `json:"id"`
	Order     int       `json:"order"`
	Note      string    `json:"note,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func TestWrite_JSONAndYAML(t *testing.T) {
	v := map[string]any{"data": sample{ID: "finance", Order: 0, UpdatedAt: time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)}}

	var js bytes.Buffer
	if err := Write(&js, v, "json", false); err != nil {
		t.Fatalf("json: %v", err)
	}
	if got := js.String(); got != `{"data":{"id":"finance","order":0,"updatedAt":"2026-10-16T00:00:00Z"}}`+"\n" {
		t.Fatalf("json: %q", got)
	}

	var ys bytes.Buffer
	if err := Write(&ys, v, "yaml", false); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	out := ys.String()
	for _, want := range []string{"data:\n", "  id: finance\n", "  order: 0\n"} {
		if !strings.Contains(out, want) {
			t.Fatalf("yaml missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "note") {
		t.Fatalf("omitempty should carry over to yaml:\n%s", out)
	}

	if err := Write(&ys, v, "edn", false); err == nil {
		t.Fatalf("expected unknown format error")
	}
}

func TestDecode_YAML(t *testing.T) {
	in := "id: todos\norder: 2\nupdatedAt: \"2026-10-16T00:00:00Z\"\n"
	var got sample
	if err := Decode(strings.NewReader(in), &got, "yaml"); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.ID != "todos" || got.Order != 2 || got.UpdatedAt.Year() != 2026 {
		t.Fatalf("decoded: %+v", got)
	}
}
