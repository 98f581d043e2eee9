package lifecycle

import (
	"sync"

	"go.opentelemetry.io/otel/metric"

	"github.com/jonwraymond/gatewayobs/semconv"
)

// instruments holds the fixed metric set emitted by the Manager.
//
// Per-category security counters are created lazily because detection
// categories come from the pluggable classifier and are not known up front.
type instruments struct {
	meter metric.Meter

	messagesReceived metric.Int64Counter
	toolCalls        metric.Int64Counter
	toolErrors       metric.Int64Counter
	sessionResets    metric.Int64Counter
	securityEvents   metric.Int64Counter
	turnDuration     metric.Float64Histogram

	mu               sync.Mutex
	categoryCounters map[string]metric.Int64Counter
}

func newInstruments(meter metric.Meter) (*instruments, error) {
	messagesReceived, err := meter.Int64Counter(
		semconv.MetricMessagesReceived,
		metric.WithDescription("Inbound messages observed across all channels"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, err
	}

	toolCalls, err := meter.Int64Counter(
		semconv.MetricToolCalls,
		metric.WithDescription("Tool executions observed"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	toolErrors, err := meter.Int64Counter(
		semconv.MetricToolErrors,
		metric.WithDescription("Tool executions whose result reported an error"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	sessionResets, err := meter.Int64Counter(
		semconv.MetricSessionResets,
		metric.WithDescription("Session new/reset commands observed"),
		metric.WithUnit("{command}"),
	)
	if err != nil {
		return nil, err
	}

	securityEvents, err := meter.Int64Counter(
		semconv.MetricSecurityEvents,
		metric.WithDescription("Security findings across all categories"),
		metric.WithUnit("{finding}"),
	)
	if err != nil {
		return nil, err
	}

	turnDuration, err := meter.Float64Histogram(
		semconv.MetricTurnDuration,
		metric.WithDescription("Agent turn duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &instruments{
		meter:            meter,
		messagesReceived: messagesReceived,
		toolCalls:        toolCalls,
		toolErrors:       toolErrors,
		sessionResets:    sessionResets,
		securityEvents:   securityEvents,
		turnDuration:     turnDuration,
		categoryCounters: make(map[string]metric.Int64Counter),
	}, nil
}

// categoryCounter returns the per-category security counter, creating it on
// first use.
func (in *instruments) categoryCounter(category string) (metric.Int64Counter, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if counter, ok := in.categoryCounters[category]; ok {
		return counter, nil
	}

	counter, err := in.meter.Int64Counter(
		semconv.SecurityEventMetricName(category),
		metric.WithDescription("Security findings in category "+category),
		metric.WithUnit("{finding}"),
	)
	if err != nil {
		return nil, err
	}
	in.categoryCounters[category] = counter
	return counter, nil
}
