package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

// TestLogger_IncludesComponentField verifies the component name is present
// in log output.
func TestLogger_IncludesComponentField(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	lifecycleLogger := logger.WithComponent("lifecycle")
	lifecycleLogger.Info(context.Background(), "test message")

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("failed to parse log output as JSON: %v\nOutput: %s", err, buf.String())
	}

	if v, ok := logEntry["component"].(string); !ok || v != "lifecycle" {
		t.Errorf("expected component='lifecycle', got %v", logEntry["component"])
	}
}

// TestLogger_IncludesFields verifies structured fields are present.
func TestLogger_IncludesFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Info(context.Background(), "test message",
		Field{Key: "session_key", Value: "s1"},
		Field{Key: "duration_ms", Value: 50.5},
	)

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("failed to parse log output as JSON: %v", err)
	}

	if v, ok := logEntry["session_key"].(string); !ok || v != "s1" {
		t.Errorf("expected session_key='s1', got %v", logEntry["session_key"])
	}
	if v, ok := logEntry["duration_ms"].(float64); !ok || v != 50.5 {
		t.Errorf("expected duration_ms=50.5, got %v", logEntry["duration_ms"])
	}
}

// TestLogger_ErrorLevel verifies error log level and error field.
func TestLogger_ErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Error(context.Background(), "handler failed",
		Field{Key: "error", Value: "connection timeout"},
	)

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("failed to parse log output as JSON: %v", err)
	}

	if v, ok := logEntry["level"].(string); !ok || v != "error" {
		t.Errorf("expected level='error', got %v", logEntry["level"])
	}
	if v, ok := logEntry["error"].(string); !ok || v != "connection timeout" {
		t.Errorf("expected error='connection timeout', got %v", logEntry["error"])
	}
}

// TestLogger_LevelFiltering verifies entries below the configured level are
// dropped.
func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("warn", &buf)

	logger.Debug(context.Background(), "debug message")
	logger.Info(context.Background(), "info message")

	if buf.Len() != 0 {
		t.Errorf("expected no output below warn level, got: %s", buf.String())
	}

	logger.Warn(context.Background(), "warn message")
	if buf.Len() == 0 {
		t.Error("expected warn message to be written")
	}
}

// TestLogger_ContentRedacted verifies message content fields are not logged
// in the clear.
func TestLogger_ContentRedacted(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Info(context.Background(), "message received",
		Field{Key: "text", Value: "my password is hunter2"},
		Field{Key: "tool_input", Value: "{\"path\":\"/etc/shadow\"}"},
	)

	output := buf.String()
	if strings.Contains(output, "hunter2") {
		t.Error("message text should be redacted")
	}
	if strings.Contains(output, "/etc/shadow") {
		t.Error("tool input should be redacted")
	}
	if !strings.Contains(output, "[REDACTED]") {
		t.Error("expected redaction marker in output")
	}
}

// TestLogger_CredentialsRedacted verifies credential fields are redacted.
func TestLogger_CredentialsRedacted(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Info(context.Background(), "configured",
		Field{Key: "api_key", Value: "sk-123456"},
	)

	if strings.Contains(buf.String(), "sk-123456") {
		t.Error("api_key should be redacted")
	}
}

// TestLogger_DerivedLoggersShareWriter verifies component loggers write to
// the parent's writer and inherit its base attributes.
func TestLogger_DerivedLoggersShareWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	reaper := logger.WithComponent("reaper")
	reaper.Info(context.Background(), "sweep complete")

	if !strings.Contains(buf.String(), "reaper") {
		t.Errorf("expected derived logger output in parent writer, got: %s", buf.String())
	}
}

// TestParseLogLevel verifies level parsing including the unknown fallback.
func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}

	for _, tc := range tests {
		if got := ParseLogLevel(tc.input); got != tc.expected {
			t.Errorf("ParseLogLevel(%q): expected %v, got %v", tc.input, tc.expected, got)
		}
	}
}
