// Package semconv defines the stable attribute keys, span names, and metric
// names emitted by the gateway observability plugin.
//
// Gateway-specific attributes live under the "gateway." namespace; token and
// model attributes follow the OpenTelemetry GenAI conventions under
// "gen_ai.". Values are primitive strings, numbers, and booleans only.
package semconv
