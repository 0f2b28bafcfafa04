// Package persist pushes committed snapshots to a Backend and pulls them back.
//
// Saves are fire-and-continue. Each key has at most one write in flight; a
// Save that arrives while one is running replaces whatever was waiting
// behind it, so only the newest snapshot is written next. Failures are
// logged and reported but never roll back the caller's in-memory state; the
// next Save for the key carries the full current snapshot.
package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Backend stores opaque snapshot bytes under a key.
type Backend interface {
	// Load returns ok=false when the key has never been saved.
	Load(ctx context.Context, key string) (data []byte, ok bool, err error)
	Save(ctx context.Context, key string, data []byte) error
}

// PersistenceError describes a failed load or save.
type PersistenceError struct {
	Op  string // "load" or "save"
	Key string
	Seq uint64
	Err error
}

func (e *PersistenceError) Error() string {
	if e.Seq > 0 {
		return fmt.Sprintf("persist: %s %s (seq %d): %v", e.Op, e.Key, e.Seq, e.Err)
	}
	return fmt.Sprintf("persist: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

type Options struct {
	Logger *zap.Logger
	// OnError is called from the writer goroutine (or from Load) for every
	// failure.
	OnError func(*PersistenceError)
	// Timeout bounds a single backend write. Zero means no limit.
	Timeout time.Duration
	// RetryAfter re-sends the last failed snapshot after this delay unless a
	// newer Save has already replaced it. Zero disables retries.
	RetryAfter time.Duration
	// Debounce holds each write back so a burst of Saves lands as one.
	Debounce time.Duration
}

// Status is a point-in-time view of one key.
type Status struct {
	// Seq is the sequence number of the newest captured snapshot.
	Seq uint64 `json:"seq"`
	// Saved is the sequence number of the newest durable snapshot.
	Saved   uint64 `json:"saved"`
	Pending bool   `json:"pending"`
	LastErr string `json:"lastError,omitempty"`
}

type keyState struct {
	seq   uint64
	saved uint64

	running    bool
	pending    []byte
	pendingSeq uint64
	writing    []byte

	failed    []byte
	failedSeq uint64
	lastErr   error
	retry     *time.Timer
}

// Bridge persists snapshots of type T as JSON.
type Bridge[T any] struct {
	backend Backend
	opts    Options
	log     *zap.Logger

	mu       sync.Mutex
	keys     map[string]*keyState
	inflight int
	waiters  []chan struct{}
	closed   bool
}

func New[T any](backend Backend, opts Options) *Bridge[T] {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Bridge[T]{
		backend: backend,
		opts:    opts,
		log:     log,
		keys:    map[string]*keyState{},
	}
}

func (b *Bridge[T]) state(key string) *keyState {
	st := b.keys[key]
	if st == nil {
		st = &keyState{}
		b.keys[key] = st
	}
	return st
}

// Save captures snap and schedules a write. It returns the snapshot's
// sequence number. Only encoding errors are returned; backend failures are
// reported through Options.OnError.
//
// ctx is used for its values only; the write outlives the caller.
func (b *Bridge[T]) Save(ctx context.Context, key string, snap T) (uint64, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return 0, &PersistenceError{Op: "save", Key: key, Err: err}
	}
	return b.enqueue(context.WithoutCancel(ctx), key, data, 0), nil
}

// enqueue stores data as the next write for key. retrySeq, when non-zero,
// re-sends a failed snapshot only if nothing newer was captured since.
func (b *Bridge[T]) enqueue(ctx context.Context, key string, data []byte, retrySeq uint64) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	st := b.state(key)
	var seq uint64
	if retrySeq > 0 {
		st.retry = nil
		if b.closed || retrySeq != st.seq || st.saved >= retrySeq || st.pending != nil || st.running {
			return 0
		}
		seq = retrySeq
	} else {
		st.seq++
		seq = st.seq
	}
	if st.pending != nil {
		b.log.Debug("save superseded", zap.String("key", key), zap.Uint64("seq", st.pendingSeq), zap.Uint64("by", seq))
	}
	st.pending = data
	st.pendingSeq = seq
	if !st.running {
		st.running = true
		b.inflight++
		go b.run(ctx, key, st)
	}
	return seq
}

func (b *Bridge[T]) run(ctx context.Context, key string, st *keyState) {
	waited := false
	for {
		b.mu.Lock()
		if st.pending == nil {
			st.running = false
			b.inflight--
			if b.inflight == 0 {
				for _, w := range b.waiters {
					close(w)
				}
				b.waiters = nil
			}
			b.mu.Unlock()
			return
		}
		if d := b.opts.Debounce; d > 0 && !waited {
			b.mu.Unlock()
			time.Sleep(d)
			waited = true
			continue
		}
		waited = false
		data, seq := st.pending, st.pendingSeq
		st.pending = nil
		st.writing = data
		b.mu.Unlock()

		err := b.write(ctx, key, data)

		b.mu.Lock()
		st.writing = nil
		if err == nil {
			st.saved = seq
			st.lastErr = nil
			st.failed = nil
		} else {
			st.lastErr = err
			st.failed = data
			st.failedSeq = seq
		}
		b.mu.Unlock()

		if err != nil {
			perr := &PersistenceError{Op: "save", Key: key, Seq: seq, Err: err}
			b.log.Warn("save failed", zap.String("key", key), zap.Uint64("seq", seq), zap.Error(err))
			if b.opts.OnError != nil {
				b.opts.OnError(perr)
			}
			b.scheduleRetry(ctx, key, st, data, seq)
			continue
		}
		b.log.Debug("saved", zap.String("key", key), zap.Uint64("seq", seq), zap.Int("bytes", len(data)))
	}
}

// scheduleRetry arms one retry timer per key. A closed bridge schedules
// nothing.
func (b *Bridge[T]) scheduleRetry(ctx context.Context, key string, st *keyState, data []byte, seq uint64) {
	if b.opts.RetryAfter <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	if st.retry != nil {
		st.retry.Stop()
	}
	st.retry = time.AfterFunc(b.opts.RetryAfter, func() {
		b.enqueue(ctx, key, data, seq)
	})
}

func (b *Bridge[T]) write(ctx context.Context, key string, data []byte) (err error) {
	if b.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.opts.Timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("backend panicked: %v", r)
		}
	}()
	return b.backend.Save(ctx, key, data)
}

// Load returns the snapshot stored under key. ok is false when nothing was
// ever saved, which callers treat as "start from the default". A snapshot
// captured by Save but not yet written is returned in preference to the
// backend's copy.
func (b *Bridge[T]) Load(ctx context.Context, key string) (snap T, ok bool, err error) {
	b.mu.Lock()
	var local []byte
	if st := b.keys[key]; st != nil {
		switch {
		case st.pending != nil:
			local = st.pending
		case st.writing != nil:
			local = st.writing
		case st.failed != nil && st.failedSeq == st.seq:
			local = st.failed
		}
	}
	b.mu.Unlock()

	data := local
	if data == nil {
		var found bool
		data, found, err = b.backend.Load(ctx, key)
		if err != nil {
			return snap, false, b.loadFailed(key, err)
		}
		if !found {
			return snap, false, nil
		}
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		var zero T
		return zero, false, b.loadFailed(key, err)
	}
	return snap, true, nil
}

// LoadOr is Load with a fallback for the not-found case.
func (b *Bridge[T]) LoadOr(ctx context.Context, key string, def func() T) (T, error) {
	snap, ok, err := b.Load(ctx, key)
	if err != nil {
		return def(), err
	}
	if !ok {
		return def(), nil
	}
	return snap, nil
}

func (b *Bridge[T]) loadFailed(key string, err error) error {
	perr := &PersistenceError{Op: "load", Key: key, Err: err}
	b.log.Warn("load failed", zap.String("key", key), zap.Error(err))
	if b.opts.OnError != nil {
		b.opts.OnError(perr)
	}
	return perr
}

// Flush blocks until no write is in flight on any key, or ctx is done.
func (b *Bridge[T]) Flush(ctx context.Context) error {
	b.mu.Lock()
	if b.inflight == 0 {
		b.mu.Unlock()
		return nil
	}
	w := make(chan struct{})
	b.waiters = append(b.waiters, w)
	b.mu.Unlock()

	select {
	case <-w:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops pending retries and waits for in-flight writes, so the backend
// can be released afterwards. Saves after Close are still written; retries
// are not.
func (b *Bridge[T]) Close(ctx context.Context) error {
	b.mu.Lock()
	b.closed = true
	for _, st := range b.keys {
		if st.retry != nil {
			st.retry.Stop()
			st.retry = nil
		}
	}
	b.mu.Unlock()
	return b.Flush(ctx)
}

func (b *Bridge[T]) Status(key string) Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	st := b.keys[key]
	if st == nil {
		return Status{}
	}
	out := Status{Seq: st.seq, Saved: st.saved, Pending: st.running}
	if st.lastErr != nil {
		out.LastErr = st.lastErr.Error()
	}
	return out
}
