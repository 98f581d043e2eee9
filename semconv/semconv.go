package semconv

import "go.opentelemetry.io/otel/attribute"

// InstrumentationName is the tracer/meter scope name for all telemetry
// produced by this module.
const InstrumentationName = "github.com/jonwraymond/gatewayobs"

// Span names. Request, agent-turn, and startup spans have fixed names; tool
// and command spans are composed with ToolSpanName and CommandSpanName.
const (
	SpanRequest   = "gateway.request"
	SpanAgentTurn = "agent.turn"
	SpanStartup   = "gateway.startup"

	toolSpanPrefix    = "tool."
	commandSpanPrefix = "command."
)

// ToolSpanName returns the span name for a tool execution.
// Tool names become part of the span-name space: cardinality is unbounded
// by design, and callers should size backends accordingly.
func ToolSpanName(toolName string) string {
	return toolSpanPrefix + toolName
}

// CommandSpanName returns the span name for a session command.
func CommandSpanName(action string) string {
	return commandSpanPrefix + action
}

// Gateway attribute keys.
var (
	KeyChannel         = attribute.Key("gateway.channel")
	KeySessionKey      = attribute.Key("gateway.session.key")
	KeySenderID        = attribute.Key("gateway.sender.id")
	KeyMessageText     = attribute.Key("gateway.message.text")
	KeyAgentID         = attribute.Key("gateway.agent.id")
	KeyToolName        = attribute.Key("gateway.tool.name")
	KeyToolCallID      = attribute.Key("gateway.tool.call_id")
	KeyToolSynthetic   = attribute.Key("gateway.tool.synthetic")
	KeyToolInput       = attribute.Key("gateway.tool.input")
	KeyToolResultParts = attribute.Key("gateway.tool.result.parts")
	KeyToolResultBytes = attribute.Key("gateway.tool.result.bytes")
	KeyToolError       = attribute.Key("gateway.tool.error")
	KeyCommandAction   = attribute.Key("gateway.command.action")
	KeyCommandSource   = attribute.Key("gateway.command.source")
	KeyTurnDurationMS  = attribute.Key("gateway.turn.duration_ms")
	KeyTurnSuccess     = attribute.Key("gateway.turn.success")
	KeyTurnError       = attribute.Key("gateway.turn.error")
	KeyRequestDuration = attribute.Key("gateway.request.duration_ms")
	KeyPerCallCapture  = attribute.Key("gateway.capture.per_call")
)

// GenAI attribute keys (OpenTelemetry GenAI semantic conventions).
var (
	KeyModel            = attribute.Key("gen_ai.request.model")
	KeyResponseModel    = attribute.Key("gen_ai.response.model")
	KeyInputTokens      = attribute.Key("gen_ai.usage.input_tokens")
	KeyOutputTokens     = attribute.Key("gen_ai.usage.output_tokens")
	KeyCacheReadTokens  = attribute.Key("gen_ai.usage.cache_read_tokens")
	KeyCacheWriteTokens = attribute.Key("gen_ai.usage.cache_write_tokens")
	KeyTotalTokens      = attribute.Key("gen_ai.usage.total_tokens")
	KeyCostUSD          = attribute.Key("gen_ai.usage.cost_usd")
	KeyContextWindow    = attribute.Key("gen_ai.usage.context_window")
)

// Security attribute keys.
var (
	KeySecurityCategory    = attribute.Key("gateway.security.category")
	KeySecuritySeverity    = attribute.Key("gateway.security.severity")
	KeySecurityDescription = attribute.Key("gateway.security.description")
)

// EventSecurityFinding is the span event name added when the classifier
// reports a finding.
const EventSecurityFinding = "security.finding"

// Metric names.
const (
	MetricMessagesReceived = "gateway.messages.received"
	MetricToolCalls        = "gateway.tool.calls"
	MetricToolErrors       = "gateway.tool.errors"
	MetricSessionResets    = "gateway.session.resets"
	MetricSecurityEvents   = "gateway.security.events"
	MetricTurnDuration     = "gateway.agent.turn.duration_ms"
)

// SecurityEventMetricName returns the per-category security counter name.
func SecurityEventMetricName(category string) string {
	return MetricSecurityEvents + "." + category
}
