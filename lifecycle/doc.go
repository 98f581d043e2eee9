// Package lifecycle turns gateway session events into trace trees.
//
// The Manager is a per-session state machine: a message-received event opens
// a request span and stores its trace context in the registry, an agent-turn
// start opens a child agent span, tool executions emit transient child spans,
// and the turn-end event enriches, closes, and evicts the whole tree. Events
// may arrive out of order, be duplicated, or never complete; every handler
// defines a fallback so telemetry is always emitted and never crashes the
// host. The Reaper force-closes contexts whose end event was lost.
package lifecycle
