package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dashgrid/internal/config"
	"dashgrid/internal/store"
	"dashgrid/internal/surface"
	"dashgrid/internal/workspace"

	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T, readOnly bool) (*httptest.Server, *workspace.Workspace) {
	t.Helper()
	cfg := config.Default()
	cfg.Backend = store.KindMemory
	ws, err := workspace.Open(context.Background(), workspace.Options{Config: cfg, Backend: store.NewMemory()})
	if err != nil {
		t.Fatalf("workspace: %v", err)
	}
	srv, err := New(Config{Addr: "127.0.0.1:0", ReadOnly: readOnly}, ws, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, ws
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
	return resp.StatusCode
}

func postPointer(t *testing.T, url string, ev surface.PointerEvent) int {
	t.Helper()
	code, _ := postGesture(t, url, ev)
	return code
}

// postGesture posts ev and returns the status and the gesture token, if the
// response carries one.
func postGesture(t *testing.T, url string, ev surface.PointerEvent) (int, string) {
	t.Helper()
	b, _ := json.Marshal(ev)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	var out struct {
		Gesture string `json:"gesture"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out.Gesture
}

func dialWS(t *testing.T, ts *httptest.Server, name string, h http.Header) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/" + name
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, h)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestHealthAndUnknownSurface(t *testing.T) {
	ts, _ := newTestServer(t, false)
	var health map[string]any
	if code := getJSON(t, ts.URL+"/health", &health); code != http.StatusOK || health["ok"] != true {
		t.Fatalf("health: %d %v", code, health)
	}
	var e map[string]any
	if code := getJSON(t, ts.URL+"/surfaces/calendar", &e); code != http.StatusNotFound {
		t.Fatalf("unknown surface: %d %v", code, e)
	}
}

func TestPointerDragOverHTTP(t *testing.T) {
	ts, ws := newTestServer(t, false)
	url := ts.URL + "/surfaces/sidebar/pointer"
	// finance (row 3) to the top.
	code, token := postGesture(t, url, surface.PointerEvent{Type: "down", Y: 3})
	if code != http.StatusOK || token == "" {
		t.Fatalf("down: status %d token %q", code, token)
	}
	for _, ev := range []surface.PointerEvent{
		{Type: "move", Y: 0, Gesture: token},
		{Type: "up", Gesture: token},
	} {
		if code := postPointer(t, url, ev); code != http.StatusOK {
			t.Fatalf("%s: status %d", ev.Type, code)
		}
	}
	if got := ws.Sidebar.Order()[0]; got != "finance" {
		t.Fatalf("order: %v", ws.Sidebar.Order())
	}
	// A duplicate release is ignored, not an error.
	if code := postPointer(t, url, surface.PointerEvent{Type: "up", Gesture: token}); code != http.StatusOK {
		t.Fatalf("duplicate up: %d", code)
	}
	if code := postPointer(t, url, surface.PointerEvent{Type: "wiggle"}); code != http.StatusUnprocessableEntity {
		t.Fatalf("unknown type: %d", code)
	}

	var out struct {
		Data surface.Frame `json:"data"`
	}
	getJSON(t, ts.URL+"/surfaces/sidebar", &out)
	if out.Data.Surface != "sidebar" || out.Data.State != "idle" {
		t.Fatalf("frame: %+v", out.Data)
	}
}

func TestReadOnlyRejectsPointer(t *testing.T) {
	ts, _ := newTestServer(t, true)
	if code := postPointer(t, ts.URL+"/surfaces/kanban/pointer", surface.PointerEvent{Type: "down"}); code != http.StatusForbidden {
		t.Fatalf("status %d", code)
	}
}

func TestWebSocketCarriesEventsAndFrames(t *testing.T) {
	ts, ws := newTestServer(t, false)
	conn := dialWS(t, ts, "timebox", nil)
	defer conn.Close()

	var first wsOut
	if err := conn.ReadJSON(&first); err != nil || first.Type != "frame" || first.Frame.State != "idle" {
		t.Fatalf("first message: %+v %v", first, err)
	}

	for _, ev := range []surface.PointerEvent{{Type: "down", X: 0, Y: 2}, {Type: "move", X: 0, Y: 5}, {Type: "up"}} {
		if err := conn.WriteJSON(ev); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	// Frames may be coalesced; wait for the committed one.
	for {
		var m wsOut
		if err := conn.ReadJSON(&m); err != nil {
			t.Fatalf("read: %v", err)
		}
		if m.Type == "frame" && m.Frame.State == "idle" && len(m.Frame.Changes.Keys) == 4 {
			break
		}
	}
	if got := len(ws.Timebox().Snapshot().Slots); got != 4 {
		t.Fatalf("slots: %d", got)
	}
}

func TestWebSocketRejectsForeignOrigin(t *testing.T) {
	ts, _ := newTestServer(t, false)
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/kanban"
	host := strings.TrimPrefix(ts.URL, "http://")
	for _, origin := range []string{
		"https://evil.example",
		"http://" + host + ".evil.example",
		"http://evil.example/" + host,
		"not a url",
	} {
		h := http.Header{"Origin": []string{origin}}
		if conn, _, err := websocket.DefaultDialer.Dial(wsURL, h); err == nil {
			conn.Close()
			t.Fatalf("origin %q: expected handshake to fail", origin)
		}
	}
	conn := dialWS(t, ts, "kanban", http.Header{"Origin": []string{ts.URL}})
	conn.Close()
}

func TestAbandonedGestureIsOwnedByItsClient(t *testing.T) {
	ts, ws := newTestServer(t, false)
	url := ts.URL + "/surfaces/sidebar/pointer"

	code, token := postGesture(t, url, surface.PointerEvent{Type: "down", Y: 2})
	if code != http.StatusOK || token == "" {
		t.Fatalf("down: status %d token %q", code, token)
	}

	// A second client can neither steer nor replace the gesture.
	if code := postPointer(t, url, surface.PointerEvent{Type: "down", Y: 3}); code != http.StatusConflict {
		t.Fatalf("second down: %d", code)
	}
	if code := postPointer(t, url, surface.PointerEvent{Type: "move", Y: 0}); code != http.StatusConflict {
		t.Fatalf("foreign move: %d", code)
	}
	if code := postPointer(t, url, surface.PointerEvent{Type: "up", Gesture: "someone-else"}); code != http.StatusConflict {
		t.Fatalf("foreign up: %d", code)
	}
	if got := ws.Sidebar.Order()[0]; got != "overview" {
		t.Fatalf("order changed by a foreign client: %v", ws.Sidebar.Order())
	}

	// A viewer that connects and leaves does not cancel it.
	viewer := dialWS(t, ts, "sidebar", nil)
	var first wsOut
	if err := viewer.ReadJSON(&first); err != nil {
		t.Fatalf("read: %v", err)
	}
	viewer.Close()
	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		if !ws.Sidebar.Dragging() {
			t.Fatalf("viewer disconnect cancelled another client's gesture")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if code := postPointer(t, url, surface.PointerEvent{Type: "cancel", Gesture: token}); code != http.StatusOK {
		t.Fatalf("owner cancel: %d", code)
	}
	if ws.Sidebar.Dragging() {
		t.Fatalf("expected gesture cancelled by its owner")
	}
}

func TestWebSocketDisconnectCancelsOwnGesture(t *testing.T) {
	ts, ws := newTestServer(t, false)
	conn := dialWS(t, ts, "sidebar", nil)
	var first wsOut
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := conn.WriteJSON(surface.PointerEvent{Type: "down", Y: 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	for {
		var m wsOut
		if err := conn.ReadJSON(&m); err != nil {
			t.Fatalf("read: %v", err)
		}
		if m.Type == "frame" && m.Frame.State == "active" {
			break
		}
	}
	conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for ws.Sidebar.Dragging() {
		if time.Now().After(deadline) {
			t.Fatalf("gesture survived its client")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := ws.Sidebar.Order()[0]; got != "overview" {
		t.Fatalf("order: %v", ws.Sidebar.Order())
	}
}

func TestEventsStreamSendsCurrentFrame(t *testing.T) {
	ts, _ := newTestServer(t, false)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/surfaces/kanban/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("content type: %s", ct)
	}
	sc := bufio.NewScanner(resp.Body)
	var sawEvent, sawFrame bool
	for sc.Scan() {
		line := sc.Text()
		if strings.Contains(line, "datastar-patch-signals") {
			sawEvent = true
		}
		if strings.Contains(line, `"kanban"`) && strings.Contains(line, `"surface":"kanban"`) {
			sawFrame = true
			break
		}
	}
	if !sawEvent || !sawFrame {
		t.Fatalf("event=%v frame=%v", sawEvent, sawFrame)
	}
}
