package clock

import (
	"context"
	"testing"
	"time"
)

func TestService_RunPublishesToSubscribers(t *testing.T) {
	fixed := time.Date(2026, 5, 6, 7, 8, 0, 0, time.UTC)
	s := New(time.Hour)
	s.Now = func() time.Time { return fixed }
	ch, cancel := s.Subscribe()
	defer cancel()

	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case got := <-ch:
		if !got.Equal(fixed) {
			t.Fatalf("got %v want %v", got, fixed)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no tick")
	}
	stop()
	<-done
}

func TestService_SlowSubscriberDoesNotBlock(t *testing.T) {
	s := New(time.Hour)
	_, cancel := s.Subscribe()
	defer cancel()
	for i := 0; i < 10; i++ {
		s.publish(time.Now())
	}
}

func TestWeekStart(t *testing.T) {
	cases := map[string]string{
		"2026-10-16": "2026-10-12", // Friday
		"2026-10-12": "2026-10-12", // Monday
		"2026-10-18": "2026-10-12", // Sunday
	}
	for in, want := range cases {
		d, _ := time.Parse("2006-01-02", in)
		if got := WeekStart(d.Add(15 * time.Hour)).Format("2006-01-02"); got != want {
			t.Fatalf("WeekStart(%s) = %s, want %s", in, got, want)
		}
	}
}
