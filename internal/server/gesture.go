package server

import (
	"errors"
	"strings"
	"sync"
	"time"

	"dashgrid/internal/surface"
)

// A remote gesture nobody has touched for this long may be taken over by
// another client's press.
const gestureLease = 30 * time.Second

var (
	errGestureBusy  = errors.New("another client is dragging on this surface")
	errGestureOwner = errors.New("gesture belongs to another client")
)

type gestureOwner struct {
	client string
	seen   time.Time
}

// gestures tracks which remote client started the active gesture of each
// surface. Only that client may move, release or cancel it.
type gestures struct {
	mu     sync.Mutex
	owners map[string]gestureOwner
	now    func() time.Time
}

func newGestures() *gestures {
	return &gestures{owners: map[string]gestureOwner{}, now: time.Now}
}

// dispatch feeds ev from client into sf. It reports whether client owns the
// surface's gesture afterwards.
func (g *gestures) dispatch(sf surface.Surface, client string, ev surface.PointerEvent) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	name := sf.Name()
	cur, held := g.owners[name]
	if held && !sf.Dragging() {
		delete(g.owners, name)
		held = false
	}

	switch strings.ToLower(strings.TrimSpace(ev.Type)) {
	case "down":
		if held && cur.client != client {
			if g.now().Sub(cur.seen) < gestureLease {
				return false, errGestureBusy
			}
			sf.Cancel()
			delete(g.owners, name)
		}
		if err := surface.Dispatch(sf, ev); err != nil {
			return false, err
		}
		if sf.Dragging() {
			g.owners[name] = gestureOwner{client: client, seen: g.now()}
			return true, nil
		}
		return false, nil

	case "move", "up", "cancel", "leave", "blur":
		if !held {
			// Nothing to steer; the session would ignore it too.
			return false, nil
		}
		if cur.client != client {
			return false, errGestureOwner
		}
		err := surface.Dispatch(sf, ev)
		if sf.Dragging() {
			g.owners[name] = gestureOwner{client: client, seen: g.now()}
			return true, err
		}
		delete(g.owners, name)
		return false, err
	}
	return false, surface.Dispatch(sf, ev)
}

// release cancels the gesture of sf if client owns it.
func (g *gestures) release(sf surface.Surface, client string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	cur, held := g.owners[sf.Name()]
	if !held || cur.client != client {
		return false
	}
	delete(g.owners, sf.Name())
	return sf.Cancel()
}
