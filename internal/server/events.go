package server

import (
	"net/http"
	"time"

	"github.com/starfederation/datastar-go/datastar"
	"go.uber.org/zap"
)

const keepAliveInterval = 25 * time.Second

// handleEvents streams every frame of a surface as a Datastar signals patch
// under the surface's name. The current frame is sent first.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sf, ok := s.surfaceFor(w, r)
	if !ok {
		return
	}
	ch, cancel := sf.Subscribe()
	defer cancel()

	sse := datastar.NewSSE(w, r)
	name := sf.Name()
	if err := sse.MarshalAndPatchSignals(map[string]any{name: sf.Frame()}); err != nil {
		s.log.Debug("sse write failed", zap.String("surface", name), zap.Error(err))
		return
	}

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()
	for {
		select {
		case <-sse.Context().Done():
			return
		case <-keepAlive.C:
			_ = sse.PatchSignals([]byte(`{}`))
		case f, ok := <-ch:
			if !ok {
				return
			}
			if err := sse.MarshalAndPatchSignals(map[string]any{name: f}); err != nil {
				s.log.Debug("sse write failed", zap.String("surface", name), zap.Error(err))
				return
			}
		}
	}
}
