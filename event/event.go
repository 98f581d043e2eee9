package event

// UnknownValue is the fallback for missing or mistyped string fields.
const UnknownValue = "unknown"

// Command actions recognized by the gateway.
const (
	ActionNew   = "new"
	ActionReset = "reset"
	ActionStop  = "stop"
)

// RoleAssistant marks a message produced by the agent. Only assistant
// messages contribute to token aggregation.
const RoleAssistant = "assistant"

// MessageReceived is an inbound message from a channel.
type MessageReceived struct {
	Channel    string
	SessionKey string
	SenderID   string
	Text       string
}

// AgentTurnStart marks the beginning of an agent processing turn.
type AgentTurnStart struct {
	SessionKey string
	AgentID    string
	Model      string
}

// ContentPart is one block of a tool result message.
type ContentPart struct {
	Type string
	Text string
}

// ToolResult is the result message of a tool execution.
type ToolResult struct {
	Content []ContentPart
	IsError bool
}

// ToolExecuted reports a completed tool call within an agent turn.
type ToolExecuted struct {
	ToolName   string
	ToolCallID string
	Synthetic  bool
	SessionKey string
	AgentID    string
	Input      map[string]any
	Result     ToolResult
}

// Message is one conversation message carried on an AgentTurnEnd event.
type Message struct {
	Role  string
	Model string
	Usage Usage
}

// AgentTurnEnd marks the completion (successful or not) of an agent turn.
type AgentTurnEnd struct {
	SessionKey string
	AgentID    string
	DurationMS int64
	Success    bool
	Error      string
	Messages   []Message
}

// Command is a session lifecycle command (new, reset, stop).
type Command struct {
	Action     string
	SessionKey string
	Source     string
}

// MessageReceivedFromMap converts an untyped payload.
func MessageReceivedFromMap(p map[string]any) MessageReceived {
	return MessageReceived{
		Channel:    stringField(p, "channel", UnknownValue),
		SessionKey: stringField(p, "sessionKey", ""),
		SenderID:   firstStringField(p, []string{"from", "senderId"}, UnknownValue),
		Text:       stringField(p, "text", ""),
	}
}

// AgentTurnStartFromMap converts an untyped payload.
func AgentTurnStartFromMap(p map[string]any) AgentTurnStart {
	return AgentTurnStart{
		SessionKey: stringField(p, "sessionKey", ""),
		AgentID:    stringField(p, "agentId", UnknownValue),
		Model:      stringField(p, "model", UnknownValue),
	}
}

// ToolExecutedFromMap converts an untyped payload.
func ToolExecutedFromMap(p map[string]any) ToolExecuted {
	ev := ToolExecuted{
		ToolName:   stringField(p, "toolName", UnknownValue),
		ToolCallID: stringField(p, "toolCallId", ""),
		Synthetic:  boolField(p, "isSynthetic"),
		SessionKey: stringField(p, "sessionKey", ""),
		AgentID:    stringField(p, "agentId", UnknownValue),
		Input:      mapField(p, "toolInput"),
	}
	result := mapField(p, "resultMessage")
	ev.Result.IsError = boolField(result, "isError")
	for _, raw := range sliceField(result, "content") {
		part, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		ev.Result.Content = append(ev.Result.Content, ContentPart{
			Type: stringField(part, "type", "text"),
			Text: stringField(part, "text", ""),
		})
	}
	return ev
}

// AgentTurnEndFromMap converts an untyped payload, normalizing per-message
// usage fields.
func AgentTurnEndFromMap(p map[string]any) AgentTurnEnd {
	ev := AgentTurnEnd{
		SessionKey: stringField(p, "sessionKey", ""),
		AgentID:    stringField(p, "agentId", UnknownValue),
		DurationMS: int64Field(p, "durationMs"),
		Success:    boolField(p, "success"),
		Error:      stringField(p, "error", ""),
	}
	for _, raw := range sliceField(p, "messages") {
		msg, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		ev.Messages = append(ev.Messages, Message{
			Role:  stringField(msg, "role", UnknownValue),
			Model: stringField(msg, "model", ""),
			Usage: UsageFromMap(mapField(msg, "usage")),
		})
	}
	return ev
}

// CommandFromMap converts an untyped payload.
func CommandFromMap(p map[string]any) Command {
	return Command{
		Action:     stringField(p, "action", UnknownValue),
		SessionKey: stringField(p, "sessionKey", ""),
		Source:     stringField(p, "commandSource", UnknownValue),
	}
}

func stringField(p map[string]any, key, fallback string) string {
	if p == nil {
		return fallback
	}
	if s, ok := p[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

func firstStringField(p map[string]any, keys []string, fallback string) string {
	for _, key := range keys {
		if s := stringField(p, key, ""); s != "" {
			return s
		}
	}
	return fallback
}

func boolField(p map[string]any, key string) bool {
	if p == nil {
		return false
	}
	b, _ := p[key].(bool)
	return b
}

func mapField(p map[string]any, key string) map[string]any {
	if p == nil {
		return nil
	}
	m, _ := p[key].(map[string]any)
	return m
}

func sliceField(p map[string]any, key string) []any {
	if p == nil {
		return nil
	}
	s, _ := p[key].([]any)
	return s
}

// int64Field reads a numeric field regardless of how the payload decoder
// typed it. JSON decoding yields float64; native hosts may pass ints.
func int64Field(p map[string]any, key string) int64 {
	if p == nil {
		return 0
	}
	switch v := p[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case int32:
		return int64(v)
	default:
		return 0
	}
}
