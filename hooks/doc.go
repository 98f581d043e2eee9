// Package hooks bridges the host gateway's hook system onto the lifecycle
// manager.
//
// The gateway delivers events over two mechanisms: ordered synchronous hooks
// (message received, agent turn start, tool executed, agent turn end) and
// best-effort asynchronous broadcast hooks (session commands, startup). The
// Dispatcher registers under both, converts the untyped payloads to typed
// events at the boundary, and never lets a telemetry failure reach the
// gateway's dispatch path.
package hooks
