package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/jonwraymond/gatewayobs/event"
)

func TestReaper_SweepClosesStaleContexts(t *testing.T) {
	now := time.Now()
	clock := &now
	h := newHarness(t, WithClock(func() time.Time { return *clock }))
	ctx := context.Background()

	h.manager.HandleMessageReceived(ctx, event.MessageReceived{SessionKey: "stale"})

	r := NewReaper(h.manager,
		WithReapInterval(10*time.Millisecond),
		WithStaleThreshold(time.Minute),
	)

	if got := r.Sweep(ctx); got != 0 {
		t.Errorf("fresh context should survive, reaped %d", got)
	}

	later := now.Add(2 * time.Minute)
	clock = &later

	if got := r.Sweep(ctx); got != 1 {
		t.Errorf("expected 1 reaped context, got %d", got)
	}
	if h.registry.Len() != 0 {
		t.Error("stale context should be evicted")
	}
	h.endedSpan(t, "gateway.request")
}

func TestReaper_StartStop(t *testing.T) {
	h := newHarness(t)

	r := NewReaper(h.manager, WithReapInterval(5*time.Millisecond))
	r.Start()
	r.Start() // second Start is a no-op

	time.Sleep(20 * time.Millisecond)

	r.Stop()
	r.Stop() // second Stop is a no-op
}

func TestReaper_StopWithoutStart(t *testing.T) {
	h := newHarness(t)

	r := NewReaper(h.manager)
	// Stop on a never-started reaper must not hang.
	done := make(chan struct{})
	go func() {
		r.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop hung on a never-started reaper")
	}
}

func TestReaper_BackgroundSweep(t *testing.T) {
	now := time.Now().Add(-10 * time.Minute)
	h := newHarness(t, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	h.manager.HandleMessageReceived(ctx, event.MessageReceived{SessionKey: "old"})

	// Switch the clock back to real time so the stored context looks stale.
	h.manager.now = time.Now

	r := NewReaper(h.manager,
		WithReapInterval(5*time.Millisecond),
		WithStaleThreshold(time.Minute),
	)
	r.Start()
	defer r.Stop()

	deadline := time.Now().Add(time.Second)
	for h.registry.Len() > 0 {
		if time.Now().After(deadline) {
			t.Fatal("background sweep did not evict stale context")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
