package surface

import (
	"sync"

	"dashgrid/internal/commit"
)

// Hub fans frames out to subscribers. Each subscriber holds at most one
// undelivered frame; a newer frame replaces it, so slow readers skip to the
// latest state instead of blocking the publisher.
type Hub struct {
	mu   sync.Mutex
	subs map[chan Frame]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: map[chan Frame]struct{}{}}
}

func (h *Hub) Subscribe() (<-chan Frame, func()) {
	ch := make(chan Frame, 1)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *Hub) Publish(f Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- f:
			continue
		default:
		}
		// Drop the stale frame, then deliver.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- f:
		default:
		}
	}
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Feed stamps a surface's frames with increasing sequence numbers and keeps
// the latest one for late subscribers.
type Feed struct {
	name string
	hub  *Hub

	mu   sync.Mutex
	seq  uint64
	last Frame
}

func NewFeed(name string) *Feed {
	return &Feed{name: name, hub: NewHub(), last: Frame{Surface: name, State: "idle"}}
}

func (f *Feed) Publish(state string, snapshot any, changes commit.ChangeSet, preview []string) Frame {
	f.mu.Lock()
	f.seq++
	fr := Frame{
		Surface:  f.name,
		Seq:      f.seq,
		State:    state,
		Snapshot: snapshot,
		Changes:  changes,
		Preview:  preview,
	}
	f.last = fr
	// Publish under the feed lock so subscribers see frames in seq order.
	f.hub.Publish(fr)
	f.mu.Unlock()
	return fr
}

func (f *Feed) Last() Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

func (f *Feed) Subscribe() (<-chan Frame, func()) {
	return f.hub.Subscribe()
}
