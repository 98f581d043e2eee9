package lifecycle

import (
	"context"
	"fmt"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/jonwraymond/gatewayobs/classify"
	"github.com/jonwraymond/gatewayobs/event"
	"github.com/jonwraymond/gatewayobs/registry"
)

func newBenchManager(b *testing.B, opts ...Option) *Manager {
	b.Helper()

	// Sampled-out provider: spans are created but never recorded, so the
	// benchmark measures the manager, not the span processor.
	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.NeverSample()))
	mp := sdkmetric.NewMeterProvider()

	m, err := NewManager(tp.Tracer("bench"), mp.Meter("bench"), registry.New(), opts...)
	if err != nil {
		b.Fatalf("NewManager failed: %v", err)
	}
	return m
}

// BenchmarkManager_FullTurn measures a complete session lifecycle.
func BenchmarkManager_FullTurn(b *testing.B) {
	m := newBenchManager(b)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := fmt.Sprintf("s%d", i)
		m.HandleMessageReceived(ctx, event.MessageReceived{SessionKey: key, Channel: "bench"})
		m.HandleAgentTurnStart(ctx, event.AgentTurnStart{SessionKey: key, AgentID: "a"})
		m.HandleToolExecuted(ctx, event.ToolExecuted{SessionKey: key, ToolName: "exec"})
		m.HandleAgentTurnEnd(ctx, event.AgentTurnEnd{SessionKey: key, Success: true})
	}
}

// BenchmarkManager_ToolExecuted measures the synchronous tool hook path,
// which sits on the host's tool-commit critical path.
func BenchmarkManager_ToolExecuted(b *testing.B) {
	m := newBenchManager(b, WithClassifier(classify.NewRuleClassifier()))
	ctx := context.Background()
	ev := event.ToolExecuted{
		ToolName: "exec",
		Input:    map[string]any{"command": "ls -la /tmp"},
		Result: event.ToolResult{
			Content: []event.ContentPart{{Type: "text", Text: "output"}},
		},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.HandleToolExecuted(ctx, ev)
	}
}

// BenchmarkManager_NoopTracer measures handler overhead with a noop tracer.
func BenchmarkManager_NoopTracer(b *testing.B) {
	mp := sdkmetric.NewMeterProvider()
	m, err := NewManager(noop.NewTracerProvider().Tracer("bench"), mp.Meter("bench"), registry.New())
	if err != nil {
		b.Fatalf("NewManager failed: %v", err)
	}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.HandleToolExecuted(ctx, event.ToolExecuted{ToolName: "exec"})
	}
}
