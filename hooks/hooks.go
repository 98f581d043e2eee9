package hooks

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/jonwraymond/gatewayobs/event"
	"github.com/jonwraymond/gatewayobs/lifecycle"
	"github.com/jonwraymond/gatewayobs/observe"
)

// Hook names registered with the host.
const (
	HookMessageReceived = "message_received"
	HookAgentTurnStart  = "agent_turn_start"
	HookToolExecuted    = "tool_executed"
	HookAgentTurnEnd    = "agent_turn_end"
	HookCommand         = "command"
	HookStartup         = "startup"
)

// Hook priorities. Root-creating handlers run before child-creating
// handlers within the same event turn; the registry's correctness depends
// on this ordering, not on locks.
const (
	PriorityMessageReceived = 10
	PriorityAgentTurnStart  = 20
	PriorityToolExecuted    = 30
	PriorityAgentTurnEnd    = 40
)

// DefaultBroadcastLimit bounds concurrently running broadcast handlers.
const DefaultBroadcastLimit = 8

// SyncHook handles an ordered gateway event. The returned payload is what
// the host commits; observers return it untouched.
type SyncHook func(ctx context.Context, payload map[string]any) map[string]any

// BroadcastHook receives a fire-and-forget gateway event.
type BroadcastHook func(ctx context.Context, payload map[string]any)

// Host is the registration surface the gateway exposes to plugins.
type Host interface {
	// RegisterSyncHook registers an ordered hook. Lower priorities run first.
	RegisterSyncHook(name string, priority int, hook SyncHook)

	// RegisterBroadcastHook registers a best-effort asynchronous hook.
	RegisterBroadcastHook(name string, hook BroadcastHook)
}

// Dispatcher adapts host hook invocations into lifecycle manager calls.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: hook bodies never panic outward and never return errors; the
//   gateway's request path must be unaffected by telemetry failures.
type Dispatcher struct {
	manager *lifecycle.Manager
	logger  observe.Logger

	// sem bounds in-flight broadcast goroutines. Broadcast events beyond
	// the bound are handled inline rather than dropped.
	sem   *semaphore.Weighted
	limit int64
	wg    sync.WaitGroup
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatcherLogger sets the logger. Defaults to a no-op logger.
func WithDispatcherLogger(l observe.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l.WithComponent("hooks")
		}
	}
}

// WithBroadcastLimit overrides the broadcast concurrency bound.
func WithBroadcastLimit(n int64) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.limit = n
		}
	}
}

// NewDispatcher creates a Dispatcher driving m.
func NewDispatcher(m *lifecycle.Manager, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		manager: m,
		logger:  observe.NopLogger(),
		limit:   DefaultBroadcastLimit,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.sem = semaphore.NewWeighted(d.limit)
	return d
}

// Attach registers every hook with the host.
func (d *Dispatcher) Attach(host Host) {
	host.RegisterSyncHook(HookMessageReceived, PriorityMessageReceived, d.OnMessageReceived)
	host.RegisterSyncHook(HookAgentTurnStart, PriorityAgentTurnStart, d.OnAgentTurnStart)
	host.RegisterSyncHook(HookToolExecuted, PriorityToolExecuted, d.OnToolExecuted)
	host.RegisterSyncHook(HookAgentTurnEnd, PriorityAgentTurnEnd, d.OnAgentTurnEnd)
	host.RegisterBroadcastHook(HookCommand, d.OnCommand)
	host.RegisterBroadcastHook(HookStartup, d.OnStartup)
}

// OnMessageReceived handles the inbound-message hook.
func (d *Dispatcher) OnMessageReceived(ctx context.Context, payload map[string]any) map[string]any {
	defer d.recoverHook(ctx, HookMessageReceived)
	d.manager.HandleMessageReceived(ctx, event.MessageReceivedFromMap(payload))
	return payload
}

// OnAgentTurnStart handles the agent-turn-start hook.
func (d *Dispatcher) OnAgentTurnStart(ctx context.Context, payload map[string]any) map[string]any {
	defer d.recoverHook(ctx, HookAgentTurnStart)
	d.manager.HandleAgentTurnStart(ctx, event.AgentTurnStartFromMap(payload))
	return payload
}

// OnToolExecuted handles the tool-executed hook. It is strictly synchronous:
// the host commits the tool result with the returned payload, so all work
// completes before return and the payload passes through untouched.
func (d *Dispatcher) OnToolExecuted(ctx context.Context, payload map[string]any) map[string]any {
	defer d.recoverHook(ctx, HookToolExecuted)
	d.manager.HandleToolExecuted(ctx, event.ToolExecutedFromMap(payload))
	return payload
}

// OnAgentTurnEnd handles the agent-turn-end hook.
func (d *Dispatcher) OnAgentTurnEnd(ctx context.Context, payload map[string]any) map[string]any {
	defer d.recoverHook(ctx, HookAgentTurnEnd)
	d.manager.HandleAgentTurnEnd(ctx, event.AgentTurnEndFromMap(payload))
	return payload
}

// OnCommand handles the session-command broadcast hook.
func (d *Dispatcher) OnCommand(ctx context.Context, payload map[string]any) {
	d.broadcast(ctx, HookCommand, func(ctx context.Context) {
		d.manager.HandleCommand(ctx, event.CommandFromMap(payload))
	})
}

// OnStartup handles the gateway-startup broadcast hook.
func (d *Dispatcher) OnStartup(ctx context.Context, payload map[string]any) {
	d.broadcast(ctx, HookStartup, func(ctx context.Context) {
		d.manager.HandleStartup(ctx)
	})
}

// broadcast runs fn asynchronously when a slot is free, inline otherwise.
// Either way fn has completed or been scheduled by return, and the caller
// is never blocked on telemetry backpressure.
func (d *Dispatcher) broadcast(ctx context.Context, name string, fn func(ctx context.Context)) {
	defer d.recoverHook(ctx, name)

	if !d.sem.TryAcquire(1) {
		fn(ctx)
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.sem.Release(1)
		defer d.recoverHook(context.Background(), name)
		fn(context.WithoutCancel(ctx))
	}()
}

// Drain waits for in-flight broadcast handlers to finish.
func (d *Dispatcher) Drain() {
	d.wg.Wait()
}

func (d *Dispatcher) recoverHook(ctx context.Context, name string) {
	if r := recover(); r != nil {
		d.logger.Debug(ctx, "hook panic swallowed",
			observe.Field{Key: "hook", Value: name},
			observe.Field{Key: "panic", Value: r},
		)
	}
}
