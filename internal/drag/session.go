// Package drag implements the gesture lifecycle shared by every surface.
//
// A Session moves between three states:
//
//	Idle --PointerDown--> Active --PointerUp--> Committing --> Idle
//	                      Active --Cancel-----> Idle
//
// PointerUp while Active is the only transition that reaches the committer.
// Duplicate releases, releases without a press and presses during an active
// gesture are dropped, so overlapping input handlers cannot double-commit.
package drag

import (
	"errors"
	"fmt"
	"sync"

	"dashgrid/internal/commit"
	"dashgrid/internal/grid"
)

type State int

const (
	Idle State = iota
	Active
	Committing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Committing:
		return "committing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrInvalidTarget means the pointer resolved to no cell. Callers ignore it.
	ErrInvalidTarget = errors.New("drag: pointer is not over a valid target")
	// ErrConcurrentGesture is returned for a press while another gesture is active.
	ErrConcurrentGesture = errors.New("drag: gesture already in progress")
	// ErrNotActive is returned for move/release events with no gesture.
	ErrNotActive = errors.New("drag: no active gesture")
	// ErrEmptyCommit may be returned by a commit func to signal that the
	// gesture had nothing to apply. The session treats it as a no-op.
	ErrEmptyCommit = errors.New("drag: nothing to commit")
)

// Gesture is the anchor and current focus of one press-to-release interaction.
type Gesture[C comparable] struct {
	Anchor C
	Focus  C
	// Moved is set once the focus has left the anchor at least once.
	Moved bool
}

type Options[C comparable] struct {
	// Resolve maps a pointer position to a target. Required.
	Resolve func(grid.Point) (C, bool)
	// CanAnchor rejects targets a gesture may not start on (an empty list
	// position, for example). Nil accepts every resolved target.
	CanAnchor func(C) bool
	// Commit applies a finished gesture to the model. Required.
	Commit func(Gesture[C]) (commit.ChangeSet, error)

	OnCommit func(Gesture[C], commit.ChangeSet)
	OnError  func(error)
	// OnChange fires after every state or focus change, for previews.
	OnChange func(State, Gesture[C])
}

// Session is the gesture state machine for one surface. It is safe for
// concurrent use; callbacks run without the session lock held.
type Session[C comparable] struct {
	opts Options[C]

	mu      sync.Mutex
	state   State
	gesture Gesture[C]
}

func NewSession[C comparable](opts Options[C]) *Session[C] {
	return &Session[C]{opts: opts}
}

func (s *Session[C]) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Gesture returns the in-progress gesture, if any.
func (s *Session[C]) Gesture() (Gesture[C], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Active {
		return Gesture[C]{}, false
	}
	return s.gesture, true
}

// PointerDown starts a gesture at p.
func (s *Session[C]) PointerDown(p grid.Point) error {
	target, ok := s.resolve(p)
	if ok && s.opts.CanAnchor != nil && !s.opts.CanAnchor(target) {
		ok = false
	}

	s.mu.Lock()
	if s.state != Idle {
		s.mu.Unlock()
		return ErrConcurrentGesture
	}
	if !ok {
		s.mu.Unlock()
		return ErrInvalidTarget
	}
	s.state = Active
	s.gesture = Gesture[C]{Anchor: target, Focus: target}
	g := s.gesture
	s.mu.Unlock()

	s.changed(Active, g)
	return nil
}

// PointerMove updates the focus. Positions that resolve to nothing leave the
// focus where it was.
func (s *Session[C]) PointerMove(p grid.Point) error {
	target, ok := s.resolve(p)

	s.mu.Lock()
	if s.state != Active {
		s.mu.Unlock()
		return ErrNotActive
	}
	if !ok {
		s.mu.Unlock()
		return ErrInvalidTarget
	}
	if target == s.gesture.Focus {
		s.mu.Unlock()
		return nil
	}
	s.gesture.Focus = target
	if target != s.gesture.Anchor {
		s.gesture.Moved = true
	}
	g := s.gesture
	s.mu.Unlock()

	s.changed(Active, g)
	return nil
}

// PointerUp ends the gesture and commits it. It returns ErrNotActive, and
// touches nothing, unless a gesture is active. A failing or panicking
// committer is reported through OnError and the returned error; the session
// is back in Idle either way.
func (s *Session[C]) PointerUp() (commit.ChangeSet, error) {
	s.mu.Lock()
	if s.state != Active {
		s.mu.Unlock()
		return commit.ChangeSet{}, ErrNotActive
	}
	s.state = Committing
	g := s.gesture
	s.mu.Unlock()

	s.changed(Committing, g)
	cs, err := s.runCommit(g)

	s.mu.Lock()
	s.state = Idle
	s.gesture = Gesture[C]{}
	s.mu.Unlock()

	switch {
	case errors.Is(err, ErrEmptyCommit):
		cs, err = commit.ChangeSet{}, nil
	case err != nil:
		if s.opts.OnError != nil {
			s.opts.OnError(err)
		}
	case !cs.Empty() && s.opts.OnCommit != nil:
		s.opts.OnCommit(g, cs)
	}
	s.changed(Idle, Gesture[C]{})
	return cs, err
}

// Cancel abandons an active gesture without committing. It reports whether
// there was anything to cancel.
func (s *Session[C]) Cancel() bool {
	s.mu.Lock()
	if s.state != Active {
		s.mu.Unlock()
		return false
	}
	s.state = Idle
	s.gesture = Gesture[C]{}
	s.mu.Unlock()

	s.changed(Idle, Gesture[C]{})
	return true
}

// PointerLeave is called when the pointer leaves the tracked surface with the
// button still held.
func (s *Session[C]) PointerLeave() bool {
	return s.Cancel()
}

func (s *Session[C]) resolve(p grid.Point) (C, bool) {
	if s.opts.Resolve == nil {
		var zero C
		return zero, false
	}
	return s.opts.Resolve(p)
}

func (s *Session[C]) runCommit(g Gesture[C]) (cs commit.ChangeSet, err error) {
	if s.opts.Commit == nil {
		return commit.ChangeSet{}, ErrEmptyCommit
	}
	defer func() {
		if r := recover(); r != nil {
			cs = commit.ChangeSet{}
			err = fmt.Errorf("drag: commit panicked: %v", r)
		}
	}()
	return s.opts.Commit(g)
}

func (s *Session[C]) changed(st State, g Gesture[C]) {
	if s.opts.OnChange != nil {
		s.opts.OnChange(st, g)
	}
}
