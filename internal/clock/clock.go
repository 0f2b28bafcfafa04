// Package clock drives "now" indicators. Views subscribe instead of polling.
package clock

import (
	"context"
	"sync"
	"time"
)

type Service struct {
	Interval time.Duration
	Now      func() time.Time

	mu   sync.Mutex
	subs map[chan time.Time]struct{}
}

func New(interval time.Duration) *Service {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Service{Interval: interval}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Subscribe returns a channel receiving the current time on every tick.
// Ticks are dropped for subscribers that have not read the previous one.
func (s *Service) Subscribe() (<-chan time.Time, func()) {
	ch := make(chan time.Time, 1)
	s.mu.Lock()
	if s.subs == nil {
		s.subs = map[chan time.Time]struct{}{}
	}
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, ch)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// Run ticks until ctx is done. The first tick is sent immediately.
func (s *Service) Run(ctx context.Context) {
	t := time.NewTicker(s.Interval)
	defer t.Stop()
	s.publish(s.now())
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.publish(s.now())
		}
	}
}

func (s *Service) publish(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- now:
		default:
		}
	}
}

// WeekStart returns local midnight of the Monday of t's week.
func WeekStart(t time.Time) time.Time {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
