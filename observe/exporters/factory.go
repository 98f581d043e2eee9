// Package exporters provides factory functions for creating OpenTelemetry exporters.
package exporters

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Options carries exporter connection settings shared by both signals.
type Options struct {
	// Endpoint is the collector endpoint (host:port). Empty means the
	// exporter falls back to the OTEL_EXPORTER_OTLP_* environment variables.
	Endpoint string

	// Headers are added to every OTLP export request (e.g. authorization).
	Headers map[string]string
}

// NewTracingExporter creates a trace span exporter based on the exporter name.
// Supported exporters: stdout, otlp, jaeger, none
func NewTracingExporter(ctx context.Context, name string, opts Options) (sdktrace.SpanExporter, error) {
	switch name {
	case "stdout":
		return stdouttrace.New(stdouttrace.WithWriter(os.Stdout))

	case "otlp":
		if opts.Endpoint == "" && !tracesEndpointConfigured() {
			return nil, fmt.Errorf("OTLP endpoint not configured: set Config.Endpoint, OTEL_EXPORTER_OTLP_ENDPOINT, or OTEL_EXPORTER_OTLP_TRACES_ENDPOINT")
		}
		return otlptracegrpc.New(ctx, otlpTraceOptions(opts)...)

	case "jaeger":
		// Jaeger ingests OTLP natively; only the endpoint source differs.
		if opts.Endpoint == "" && os.Getenv("OTEL_EXPORTER_JAEGER_ENDPOINT") == "" {
			return nil, fmt.Errorf("Jaeger endpoint not configured: set Config.Endpoint or OTEL_EXPORTER_JAEGER_ENDPOINT")
		}
		return otlptracegrpc.New(ctx, otlpTraceOptions(opts)...)

	case "none", "":
		// Return a no-op exporter that discards everything
		return stdouttrace.New(stdouttrace.WithWriter(io.Discard))

	default:
		return nil, fmt.Errorf("unknown exporter: %q", name)
	}
}

// NewMetricsReader creates a metrics reader based on the exporter name.
// Supported exporters: stdout, otlp, prometheus, none
func NewMetricsReader(ctx context.Context, name string, opts Options) (sdkmetric.Reader, error) {
	switch name {
	case "stdout":
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(os.Stdout))
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout metrics exporter: %w", err)
		}
		return sdkmetric.NewPeriodicReader(exp), nil

	case "otlp":
		if opts.Endpoint == "" && !metricsEndpointConfigured() {
			return nil, fmt.Errorf("OTLP metrics endpoint not configured: set Config.Endpoint, OTEL_EXPORTER_OTLP_ENDPOINT, or OTEL_EXPORTER_OTLP_METRICS_ENDPOINT")
		}
		exp, err := otlpmetricgrpc.New(ctx, otlpMetricOptions(opts)...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
		}
		return sdkmetric.NewPeriodicReader(exp), nil

	case "prometheus":
		exp, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		return exp, nil

	case "none", "":
		// Return a no-op reader
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(io.Discard))
		if err != nil {
			return nil, err
		}
		return sdkmetric.NewPeriodicReader(exp), nil

	default:
		return nil, fmt.Errorf("unknown metrics exporter: %q", name)
	}
}

func otlpTraceOptions(opts Options) []otlptracegrpc.Option {
	var out []otlptracegrpc.Option
	if opts.Endpoint != "" {
		out = append(out, otlptracegrpc.WithEndpoint(opts.Endpoint))
	}
	if len(opts.Headers) > 0 {
		out = append(out, otlptracegrpc.WithHeaders(opts.Headers))
	}
	return out
}

func otlpMetricOptions(opts Options) []otlpmetricgrpc.Option {
	var out []otlpmetricgrpc.Option
	if opts.Endpoint != "" {
		out = append(out, otlpmetricgrpc.WithEndpoint(opts.Endpoint))
	}
	if len(opts.Headers) > 0 {
		out = append(out, otlpmetricgrpc.WithHeaders(opts.Headers))
	}
	return out
}

func tracesEndpointConfigured() bool {
	return os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" ||
		os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT") != ""
}

func metricsEndpointConfigured() bool {
	return os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" ||
		os.Getenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT") != ""
}
