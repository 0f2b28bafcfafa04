// Package server exposes the surfaces over HTTP: JSON snapshots, a Datastar
// SSE stream of frames, and a WebSocket that carries pointer events in and
// frames out.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"dashgrid/internal/surface"
	"dashgrid/internal/workspace"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Config struct {
	Addr     string
	ReadOnly bool
}

type Server struct {
	cfg      Config
	ws       *workspace.Workspace
	log      *zap.Logger
	gestures *gestures
}

func New(cfg Config, ws *workspace.Workspace, log *zap.Logger) (*Server, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, errors.New("server: missing addr")
	}
	if ws == nil {
		return nil, errors.New("server: missing workspace")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{cfg: cfg, ws: ws, log: log.Named("http"), gestures: newGestures()}, nil
}

func (s *Server) Addr() string { return s.cfg.Addr }

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /notices", s.handleNotices)
	mux.HandleFunc("GET /surfaces", s.handleSurfaces)
	mux.HandleFunc("GET /surfaces/{surface}", s.handleFrame)
	mux.HandleFunc("POST /surfaces/{surface}/pointer", s.handlePointer)
	mux.HandleFunc("GET /surfaces/{surface}/events", s.handleEvents)
	mux.HandleFunc("GET /ws/{surface}", s.handleWS)
	return mux
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	hs := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- hs.Serve(ln) }()
	s.log.Info("listening", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := hs.Shutdown(shutdownCtx)
	if serr := <-errCh; serr != nil && !errors.Is(serr, http.ErrServerClosed) {
		return serr
	}
	return err
}

func (s *Server) surfaceFor(w http.ResponseWriter, r *http.Request) (surface.Surface, bool) {
	name := strings.TrimSpace(r.PathValue("surface"))
	sf, ok := s.ws.Surface(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown surface: "+name)
		return nil, false
	}
	return sf, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "user": s.ws.User()})
}

func (s *Server) handleNotices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"data": s.ws.Notices.Active()})
}

func (s *Server) handleSurfaces(w http.ResponseWriter, r *http.Request) {
	type row struct {
		Name  string `json:"name"`
		Key   string `json:"key"`
		State string `json:"state"`
		Seq   uint64 `json:"seq"`
	}
	keyed := map[string]string{
		surface.Timebox: s.ws.Timebox().Key(),
		surface.Kanban:  s.ws.Kanban.Key(),
		surface.Sidebar: s.ws.Sidebar.Key(),
	}
	out := make([]row, 0, 3)
	for _, sf := range s.ws.Surfaces() {
		f := sf.Frame()
		out = append(out, row{Name: sf.Name(), Key: keyed[sf.Name()], State: f.State, Seq: f.Seq})
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": out, "status": s.ws.Status()})
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	sf, ok := s.surfaceFor(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": sf.Frame()})
}

func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	if s.cfg.ReadOnly {
		writeError(w, http.StatusForbidden, "read-only")
		return
	}
	sf, ok := s.surfaceFor(w, r)
	if !ok {
		return
	}
	var ev surface.PointerEvent
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid pointer event: "+err.Error())
		return
	}
	client := strings.TrimSpace(ev.Gesture)
	if client == "" && strings.EqualFold(strings.TrimSpace(ev.Type), "down") {
		client = uuid.NewString()
	}
	owned, err := s.gestures.dispatch(sf, client, ev)
	switch {
	case errors.Is(err, errGestureBusy), errors.Is(err, errGestureOwner):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	out := map[string]any{"data": sf.Frame()}
	if owned {
		out["gesture"] = client
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}
