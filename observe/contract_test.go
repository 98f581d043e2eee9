package observe

import (
	"context"
	"testing"
)

func TestObserverContract_Noops(t *testing.T) {
	cfg := Config{
		ServiceName: "observe-test",
		Tracing: TracingConfig{
			Enabled:  false,
			Exporter: "none",
		},
		Metrics: MetricsConfig{
			Enabled:  false,
			Exporter: "none",
		},
		Logging: LoggingConfig{
			Enabled: false,
			Level:   "info",
		},
	}

	obs, err := NewObserver(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewObserver failed: %v", err)
	}

	if obs.Tracer() == nil {
		t.Fatalf("expected non-nil tracer")
	}
	if obs.Meter() == nil {
		t.Fatalf("expected non-nil meter")
	}
	if obs.Logger() == nil {
		t.Fatalf("expected non-nil logger")
	}

	if err := obs.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
}

func TestLoggerContract_WithComponent(t *testing.T) {
	logger := &noopLogger{}
	if logger.WithComponent("lifecycle") == nil {
		t.Fatalf("WithComponent should return non-nil logger")
	}
}

func TestLoggerContract_NoPanic(t *testing.T) {
	ctx := context.Background()
	logger := NopLogger()
	logger.Debug(ctx, "debug")
	logger.Info(ctx, "info", Field{Key: "k", Value: "v"})
	logger.Warn(ctx, "warn")
	logger.Error(ctx, "error", Field{Key: "error", Value: "boom"})
}

func TestObserverContract_ShutdownIdempotent(t *testing.T) {
	cfg := Config{
		ServiceName: "observe-test",
		Tracing:     TracingConfig{Enabled: true, Exporter: "none", SamplePct: 1.0},
		Metrics:     MetricsConfig{Enabled: true, Exporter: "none"},
	}

	obs, err := NewObserver(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewObserver failed: %v", err)
	}

	if err := obs.Shutdown(context.Background()); err != nil {
		t.Fatalf("first Shutdown failed: %v", err)
	}
	if err := obs.Shutdown(context.Background()); err != nil {
		t.Fatalf("second Shutdown failed: %v", err)
	}
}
