// Package observe provides the telemetry sink for the gateway observability
// plugin: tracer and meter provider construction, exporter wiring, and a
// structured logger.
//
// It is pure plumbing: no span lifecycle logic, no event handling, no I/O
// beyond exporter setup. The lifecycle manager consumes the Observer's
// tracer and meter; buffering and export are handled by the OpenTelemetry
// SDK underneath.
package observe
