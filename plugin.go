package gatewayobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonwraymond/gatewayobs/classify"
	"github.com/jonwraymond/gatewayobs/hooks"
	"github.com/jonwraymond/gatewayobs/lifecycle"
	"github.com/jonwraymond/gatewayobs/observe"
	"github.com/jonwraymond/gatewayobs/registry"
	"github.com/jonwraymond/gatewayobs/semconv"
)

// Config configures the plugin.
type Config struct {
	// Telemetry configures exporters, sampling, and logging.
	Telemetry observe.Config

	// CaptureContent enables recording message text and tool inputs as
	// span attributes. Off by default.
	CaptureContent bool

	// ReapInterval is the stale-session sweep tick. Zero means the default.
	ReapInterval time.Duration

	// StaleThreshold is the context age that triggers a force-close.
	// Zero means the default.
	StaleThreshold time.Duration

	// Classifier inspects tool calls and messages for security findings.
	// Nil means the built-in rule table.
	Classifier classify.Classifier

	// UsageSource optionally supplies enriched per-turn token usage.
	UsageSource lifecycle.UsageSource

	// Diagnostics optionally receives open-agent-span notifications.
	Diagnostics lifecycle.Diagnostics

	// PerCallCapture optionally advertises per-model-call span capture.
	PerCallCapture lifecycle.PerCallCapture
}

// Plugin owns the full event-to-telemetry pipeline: observer, registry,
// lifecycle manager, hook dispatcher, and reaper.
type Plugin struct {
	observer   observe.Observer
	registry   *registry.Registry
	manager    *lifecycle.Manager
	dispatcher *hooks.Dispatcher
	reaper     *lifecycle.Reaper
	logger     observe.Logger

	shutdownOnce sync.Once
	shutdownErr  error
}

// New builds the plugin and starts its reaper. Call Attach to register with
// the host gateway and Shutdown to release everything.
func New(ctx context.Context, cfg Config) (*Plugin, error) {
	observer, err := observe.NewObserver(ctx, cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("telemetry setup: %w", err)
	}
	logger := observer.Logger()

	classifier := cfg.Classifier
	if classifier == nil {
		classifier = classify.NewRuleClassifier()
	}

	reg := registry.New()
	manager, err := lifecycle.NewManager(
		observer.Tracer(),
		observer.Meter(),
		reg,
		lifecycle.WithClassifier(classifier),
		lifecycle.WithUsageSource(cfg.UsageSource),
		lifecycle.WithDiagnostics(cfg.Diagnostics),
		lifecycle.WithPerCallCapture(cfg.PerCallCapture),
		lifecycle.WithLogger(logger),
		lifecycle.WithCaptureContent(cfg.CaptureContent),
	)
	if err != nil {
		_ = observer.Shutdown(ctx)
		return nil, fmt.Errorf("lifecycle setup: %w", err)
	}

	dispatcher := hooks.NewDispatcher(manager, hooks.WithDispatcherLogger(logger))

	reaper := lifecycle.NewReaper(manager,
		lifecycle.WithReapInterval(cfg.ReapInterval),
		lifecycle.WithStaleThreshold(cfg.StaleThreshold),
		lifecycle.WithReaperLogger(logger),
	)
	reaper.Start()

	return &Plugin{
		observer:   observer,
		registry:   reg,
		manager:    manager,
		dispatcher: dispatcher,
		reaper:     reaper,
		logger:     logger,
	}, nil
}

// Attach registers all hooks with the host gateway.
func (p *Plugin) Attach(host hooks.Host) {
	p.dispatcher.Attach(host)
	p.logger.Info(context.Background(), "plugin attached",
		observe.Field{Key: "instrumentation", Value: semconv.InstrumentationName},
	)
}

// Dispatcher returns the hook dispatcher for hosts that invoke hooks
// directly rather than through Attach.
func (p *Plugin) Dispatcher() *hooks.Dispatcher {
	return p.dispatcher
}

// Manager returns the span lifecycle manager.
func (p *Plugin) Manager() *lifecycle.Manager {
	return p.manager
}

// Shutdown stops the reaper, drains in-flight broadcast hooks, force-closes
// every open trace context, and shuts the telemetry providers down.
// Idempotent; later calls return the first result.
func (p *Plugin) Shutdown(ctx context.Context) error {
	p.shutdownOnce.Do(func() {
		p.reaper.Stop()
		p.dispatcher.Drain()

		for _, key := range p.registry.Keys() {
			p.manager.ForceClose(ctx, key)
		}

		p.shutdownErr = p.observer.Shutdown(ctx)
	})
	return p.shutdownErr
}
