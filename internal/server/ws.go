package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dashgrid/internal/surface"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

// wsOut is every message the server sends on the socket.
type wsOut struct {
	Type  string         `json:"type"` // frame|error
	Frame *surface.Frame `json:"frame,omitempty"`
	Error string         `json:"error,omitempty"`
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 32 * 1024,
	CheckOrigin:     sameOrigin,
}

// sameOrigin accepts clients without an Origin header and browsers whose
// page was served from this host.
func sameOrigin(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	return strings.EqualFold(u.Host, strings.TrimSpace(r.Host))
}

// handleWS reads pointer events and writes frames. A client that goes away
// mid-drag is treated as the pointer leaving: the gesture it started is
// cancelled. Gestures of other clients are left alone.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sf, ok := s.surfaceFor(w, r)
	if !ok {
		return
	}
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	frames, unsubscribe := sf.Subscribe()
	defer unsubscribe()
	errs := make(chan string, 8)
	client := uuid.NewString()

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error { return s.wsRead(ctx, conn, sf, client, errs) })
	g.Go(func() error { return wsWrite(ctx, conn, sf.Frame(), frames, errs) })
	err = g.Wait()
	if s.gestures.release(sf, client) {
		s.log.Debug("gesture cancelled on disconnect", zap.String("surface", sf.Name()))
	}
	if err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		s.log.Debug("websocket closed", zap.String("surface", sf.Name()), zap.Error(err))
	}
}

func (s *Server) wsRead(ctx context.Context, conn *websocket.Conn, sf surface.Surface, client string, errs chan<- string) error {
	conn.SetReadLimit(4 << 10)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var ev surface.PointerEvent
		if jerr := json.Unmarshal(data, &ev); jerr != nil {
			report(errs, "invalid pointer event: "+jerr.Error())
			continue
		}
		if s.cfg.ReadOnly {
			report(errs, "read-only")
			continue
		}
		if _, derr := s.gestures.dispatch(sf, client, ev); derr != nil {
			report(errs, derr.Error())
		}
	}
}

func report(errs chan<- string, msg string) {
	select {
	case errs <- msg:
	default:
	}
}

// wsWrite owns all writes. Closing the connection on return unblocks the
// reader.
func wsWrite(ctx context.Context, conn *websocket.Conn, first surface.Frame, frames <-chan surface.Frame, errs <-chan string) error {
	defer conn.Close()
	send := func(m wsOut) error {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteJSON(m)
	}
	if err := send(wsOut{Type: "frame", Frame: &first}); err != nil {
		return err
	}
	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(wsWriteWait))
			return nil
		case f, ok := <-frames:
			if !ok {
				return nil
			}
			if err := send(wsOut{Type: "frame", Frame: &f}); err != nil {
				return err
			}
		case msg := <-errs:
			if err := send(wsOut{Type: "error", Error: msg}); err != nil {
				return err
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}
