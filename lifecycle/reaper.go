package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/jonwraymond/gatewayobs/observe"
)

// Reaper defaults.
const (
	// DefaultReapInterval is the sweep tick.
	DefaultReapInterval = 60 * time.Second
	// DefaultStaleThreshold is the context age that triggers a force-close.
	DefaultStaleThreshold = 5 * time.Minute
)

// Reaper periodically force-closes abandoned trace contexts. It is the
// safety net for the invariant that every opened span is eventually closed
// when the turn-end event is lost.
type Reaper struct {
	manager   *Manager
	interval  time.Duration
	threshold time.Duration
	logger    observe.Logger

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// ReaperOption configures a Reaper.
type ReaperOption func(*Reaper)

// WithReapInterval overrides the sweep tick.
func WithReapInterval(d time.Duration) ReaperOption {
	return func(r *Reaper) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithStaleThreshold overrides the age at which contexts are force-closed.
func WithStaleThreshold(d time.Duration) ReaperOption {
	return func(r *Reaper) {
		if d > 0 {
			r.threshold = d
		}
	}
}

// WithReaperLogger sets the logger. Defaults to a no-op logger.
func WithReaperLogger(l observe.Logger) ReaperOption {
	return func(r *Reaper) {
		if l != nil {
			r.logger = l.WithComponent("reaper")
		}
	}
}

// NewReaper creates a Reaper sweeping m's registry. Call Start to begin.
func NewReaper(m *Manager, opts ...ReaperOption) *Reaper {
	r := &Reaper{
		manager:   m,
		interval:  DefaultReapInterval,
		threshold: DefaultStaleThreshold,
		logger:    observe.NopLogger(),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start launches the sweep loop. Safe to call once; later calls are no-ops.
func (r *Reaper) Start() {
	r.startOnce.Do(func() {
		go r.run()
	})
}

// Stop terminates the sweep loop and waits for it to exit. Idempotent.
func (r *Reaper) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
	})
	r.startOnce.Do(func() {
		// Never started: nothing is running the loop, release waiters.
		close(r.done)
	})
	<-r.done
}

func (r *Reaper) run() {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.Sweep(context.Background())
		}
	}
}

// Sweep runs one reap pass and returns the number of contexts closed.
func (r *Reaper) Sweep(ctx context.Context) int {
	reaped := r.manager.ReapStale(ctx, r.threshold)
	if reaped > 0 {
		r.logger.Info(ctx, "reaped stale sessions",
			observe.Field{Key: "count", Value: reaped},
			observe.Field{Key: "threshold", Value: r.threshold.String()},
		)
	}
	return reaped
}
