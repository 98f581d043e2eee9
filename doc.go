// Package gatewayobs is an observability plugin for an AI-agent gateway.
//
// It converts gateway lifecycle events (inbound messages, agent turns, tool
// calls, session commands) into a connected OpenTelemetry trace plus a fixed
// set of metrics, and layers a pattern-matching security classifier onto the
// same event stream. Telemetry failures never reach the gateway's request
// path: every handler degrades silently.
//
// Typical wiring:
//
//	plugin, err := gatewayobs.New(ctx, gatewayobs.Config{
//		Telemetry: observe.Config{
//			ServiceName: "gateway",
//			Tracing:     observe.TracingConfig{Enabled: true, Exporter: "otlp", SamplePct: 1.0},
//			Metrics:     observe.MetricsConfig{Enabled: true, Exporter: "otlp"},
//		},
//	})
//	if err != nil {
//		return err
//	}
//	plugin.Attach(host)
//	defer plugin.Shutdown(ctx)
package gatewayobs
