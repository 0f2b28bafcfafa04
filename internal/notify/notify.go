// Package notify keeps the short-lived, dismissible notices shown in a
// status line. Nothing here blocks: pushing never waits on a reader.
package notify

import (
	"sync"
	"time"
)

type Level string

const (
	Info    Level = "info"
	Success Level = "success"
	Error   Level = "error"
)

const DefaultTTL = 3 * time.Second

// SyncFailed is shown when a snapshot could not be persisted.
const SyncFailed = "could not sync, will retry"

type Notice struct {
	ID        int       `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Queue struct {
	TTL time.Duration
	Now func() time.Time
	// OnPush is called after every push, outside the lock.
	OnPush func(Notice)

	mu      sync.Mutex
	nextID  int
	notices []Notice
}

func (q *Queue) now() time.Time {
	if q.Now != nil {
		return q.Now()
	}
	return time.Now()
}

func (q *Queue) ttl() time.Duration {
	if q.TTL <= 0 {
		return DefaultTTL
	}
	return q.TTL
}

// Push adds a notice. A live notice with the same level and message is
// refreshed instead of duplicated.
func (q *Queue) Push(level Level, msg string) Notice {
	now := q.now()
	q.mu.Lock()
	q.pruneLocked(now)
	var n Notice
	found := false
	for i := range q.notices {
		if q.notices[i].Level == level && q.notices[i].Message == msg {
			q.notices[i].ExpiresAt = now.Add(q.ttl())
			n = q.notices[i]
			found = true
			break
		}
	}
	if !found {
		q.nextID++
		n = Notice{ID: q.nextID, Level: level, Message: msg, CreatedAt: now, ExpiresAt: now.Add(q.ttl())}
		q.notices = append(q.notices, n)
	}
	q.mu.Unlock()

	if q.OnPush != nil {
		q.OnPush(n)
	}
	return n
}

// Active returns the unexpired notices, oldest first.
func (q *Queue) Active() []Notice {
	now := q.now()
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pruneLocked(now)
	return append([]Notice(nil), q.notices...)
}

// Latest returns the newest unexpired notice.
func (q *Queue) Latest() (Notice, bool) {
	active := q.Active()
	if len(active) == 0 {
		return Notice{}, false
	}
	return active[len(active)-1], true
}

func (q *Queue) Dismiss(id int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, n := range q.notices {
		if n.ID == id {
			q.notices = append(q.notices[:i], q.notices[i+1:]...)
			return true
		}
	}
	return false
}

func (q *Queue) pruneLocked(now time.Time) {
	kept := q.notices[:0]
	for _, n := range q.notices {
		if now.Before(n.ExpiresAt) {
			kept = append(kept, n)
		}
	}
	q.notices = kept
}
