package registry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// TraceContext is the open span hierarchy of one session.
//
// RootCtx and AgentCtx are the propagation scopes derived from the spans:
// a context.Context carrying the span, so child spans parent under it
// without explicit parent passing. AgentSpan and AgentCtx are set only
// while an agent turn is in flight.
type TraceContext struct {
	SessionKey string
	RootSpan   trace.Span
	RootCtx    context.Context
	AgentSpan  trace.Span
	AgentCtx   context.Context
	CreatedAt  time.Time
}

// AgentOpen reports whether an agent turn span is currently open.
func (tc *TraceContext) AgentOpen() bool {
	return tc != nil && tc.AgentSpan != nil
}

// SelfRooted reports whether the agent span doubles as the root span
// (a turn that started without a preceding request event).
func (tc *TraceContext) SelfRooted() bool {
	return tc != nil && tc.AgentSpan != nil && tc.AgentSpan == tc.RootSpan
}

// Registry stores one TraceContext per active session key.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Complexity: Get/Put/Delete are O(1); ForEach is O(n).
// - Ownership: stored contexts are mutated only by the lifecycle manager,
//   which serializes its handlers.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*TraceContext
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{entries: make(map[string]*TraceContext)}
}

// Get returns the context for the session key, if present.
func (r *Registry) Get(key string) (*TraceContext, bool) {
	r.mu.RLock()
	tc, ok := r.entries[key]
	r.mu.RUnlock()
	return tc, ok
}

// Put stores the context under the session key, replacing any prior entry.
func (r *Registry) Put(key string, tc *TraceContext) {
	r.mu.Lock()
	r.entries[key] = tc
	r.mu.Unlock()
}

// Delete removes the session key. Idempotent - no effect on miss.
func (r *Registry) Delete(key string) {
	r.mu.Lock()
	delete(r.entries, key)
	r.mu.Unlock()
}

// ForEach calls fn for each stored context until fn returns false.
// fn must not call back into the Registry.
func (r *Registry) ForEach(fn func(key string, tc *TraceContext) bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for key, tc := range r.entries {
		if !fn(key, tc) {
			return
		}
	}
}

// Keys returns a snapshot of the stored session keys.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.entries))
	for key := range r.entries {
		keys = append(keys, key)
	}
	return keys
}

// Len returns the number of open contexts.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
