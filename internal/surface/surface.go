// Package surface is the rendering contract between an interactive grid and
// whatever draws it. Every commit produces a Frame holding the full model
// and the change set; views subscribe and redraw from frames alone.
package surface

import (
	"errors"
	"fmt"
	"strings"

	"dashgrid/internal/commit"
	"dashgrid/internal/drag"
	"dashgrid/internal/grid"
)

const (
	Timebox = "timebox"
	Kanban  = "kanban"
	Sidebar = "sidebar"
)

// Names lists the surfaces in tab order.
func Names() []string {
	return []string{Timebox, Kanban, Sidebar}
}

// Frame is one immutable render of a surface.
type Frame struct {
	Surface string `json:"surface"`
	Seq     uint64 `json:"seq"`
	// State is the drag session state ("idle", "active", "committing").
	State    string           `json:"state"`
	Snapshot any              `json:"snapshot"`
	Changes  commit.ChangeSet `json:"changes"`
	// Preview lists the keys the in-progress gesture would touch.
	Preview []string `json:"preview,omitempty"`
}

// Surface is an interactive grid driven by pointer events.
type Surface interface {
	Name() string
	Frame() Frame
	Subscribe() (<-chan Frame, func())

	PointerDown(p grid.Point) error
	PointerMove(p grid.Point) error
	PointerUp() (commit.ChangeSet, error)
	Cancel() bool
	// Dragging reports whether a gesture is in progress.
	Dragging() bool
}

// PointerEvent is the wire form of one pointer event from a remote client.
type PointerEvent struct {
	Type string `json:"type"` // down|move|up|cancel|leave
	X    int    `json:"x"`
	Y    int    `json:"y"`
	// Gesture is the token returned for a remote "down"; later events of the
	// same gesture carry it back.
	Gesture string `json:"gesture,omitempty"`
}

// Dispatch feeds ev into s. Events that the drag session ignores by design
// (invalid targets, duplicate releases, concurrent presses) return nil.
func Dispatch(s Surface, ev PointerEvent) error {
	p := grid.Point{X: ev.X, Y: ev.Y}
	var err error
	switch strings.ToLower(strings.TrimSpace(ev.Type)) {
	case "down":
		err = s.PointerDown(p)
	case "move":
		err = s.PointerMove(p)
	case "up":
		_, err = s.PointerUp()
	case "cancel", "leave", "blur":
		s.Cancel()
	default:
		return fmt.Errorf("unknown pointer event %q", ev.Type)
	}
	if Ignorable(err) {
		return nil
	}
	return err
}

// Ignorable reports whether err is one of the drag errors a view drops
// silently.
func Ignorable(err error) bool {
	return err == nil ||
		errors.Is(err, drag.ErrInvalidTarget) ||
		errors.Is(err, drag.ErrNotActive) ||
		errors.Is(err, drag.ErrConcurrentGesture)
}
