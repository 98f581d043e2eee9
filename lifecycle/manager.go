package lifecycle

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonwraymond/gatewayobs/classify"
	"github.com/jonwraymond/gatewayobs/event"
	"github.com/jonwraymond/gatewayobs/observe"
	"github.com/jonwraymond/gatewayobs/registry"
	"github.com/jonwraymond/gatewayobs/semconv"
)

// TurnUsage is an enriched usage record from an out-of-band source, used
// verbatim instead of local per-message aggregation when available.
type TurnUsage struct {
	Usage         event.Usage
	Model         string
	CostUSD       float64
	ContextWindow int64
}

// UsageSource supplies enriched token usage per session.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: lookup is best-effort and must not panic; ok=false means the
//   Manager falls back to aggregating the turn's own messages.
type UsageSource interface {
	TurnUsage(sessionKey string) (TurnUsage, bool)
}

// Diagnostics receives cross-reference notifications about open agent spans.
type Diagnostics interface {
	AgentSpanStarted(sessionKey string, span trace.Span)
}

// PerCallCapture is an optional, best-effort capability for per-model-call
// child spans. The Manager only records whether the capability is present;
// aggregate per-turn reporting is the guaranteed baseline either way.
type PerCallCapture interface {
	SupportsPerCallSpans() bool
}

// Manager is the span lifecycle state machine.
//
// Contract:
// - Concurrency: safe for concurrent use; handlers are serialized by an
//   internal mutex so registry mutations are single-writer.
// - Errors: handlers never return errors and never panic outward. Failures
//   inside a handler degrade telemetry silently (debug log only) because
//   the caller is the gateway's request path.
type Manager struct {
	tracer     trace.Tracer
	metrics    *instruments
	registry   *registry.Registry
	classifier classify.Classifier
	usage      UsageSource
	diag       Diagnostics
	perCall    PerCallCapture
	logger     observe.Logger

	captureContent bool

	// now is swappable for tests.
	now func() time.Time

	// mu serializes handlers so the registry has a single writer per event.
	mu sync.Mutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithClassifier sets the security classifier. Nil disables classification.
func WithClassifier(c classify.Classifier) Option {
	return func(m *Manager) { m.classifier = c }
}

// WithUsageSource sets the enriched usage source.
func WithUsageSource(s UsageSource) Option {
	return func(m *Manager) { m.usage = s }
}

// WithDiagnostics sets the diagnostics cross-reference sink.
func WithDiagnostics(d Diagnostics) Option {
	return func(m *Manager) { m.diag = d }
}

// WithPerCallCapture sets the optional per-call span capability.
func WithPerCallCapture(p PerCallCapture) Option {
	return func(m *Manager) { m.perCall = p }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l observe.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l.WithComponent("lifecycle")
		}
	}
}

// WithCaptureContent enables recording message text and tool inputs as span
// attributes. Off by default.
func WithCaptureContent(enabled bool) Option {
	return func(m *Manager) { m.captureContent = enabled }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager creates a Manager writing spans through tracer and metrics
// through meter, tracking open contexts in reg.
func NewManager(tracer trace.Tracer, meter metric.Meter, reg *registry.Registry, opts ...Option) (*Manager, error) {
	metrics, err := newInstruments(meter)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		tracer:   tracer,
		metrics:  metrics,
		registry: reg,
		logger:   observe.NopLogger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// recoverHandler swallows a panic from a handler body. Telemetry failures
// must never reach the gateway's event-dispatch path.
func (m *Manager) recoverHandler(ctx context.Context, handler string) {
	if r := recover(); r != nil {
		m.logger.Debug(ctx, "handler panic swallowed",
			observe.Field{Key: "handler", Value: handler},
			observe.Field{Key: "panic", Value: r},
		)
	}
}

// sessionKeyOrSynthetic returns the event's session key, or a synthetic one
// so anonymous requests do not collide in the registry.
func sessionKeyOrSynthetic(key string) string {
	if key != "" {
		return key
	}
	return "anon-" + uuid.NewString()
}

// HandleMessageReceived opens the request span for a session and stores its
// trace context. An existing context for the same key is force-closed first
// so a lost end event cannot leak the prior tree.
func (m *Manager) HandleMessageReceived(ctx context.Context, ev event.MessageReceived) {
	defer m.recoverHandler(ctx, "message_received")
	m.mu.Lock()
	defer m.mu.Unlock()

	key := sessionKeyOrSynthetic(ev.SessionKey)
	if prior, ok := m.registry.Get(key); ok {
		m.closeContext(ctx, prior)
		m.registry.Delete(key)
	}

	rootCtx, rootSpan := m.tracer.Start(ctx, semconv.SpanRequest,
		trace.WithSpanKind(trace.SpanKindServer),
	)
	rootSpan.SetAttributes(
		semconv.KeyChannel.String(ev.Channel),
		semconv.KeySessionKey.String(key),
		semconv.KeySenderID.String(ev.SenderID),
	)
	if m.captureContent && ev.Text != "" {
		rootSpan.SetAttributes(semconv.KeyMessageText.String(ev.Text))
	}

	if finding := m.classifyMessage(ev.Text); finding != nil {
		m.applyFinding(ctx, rootSpan, finding)
	}

	m.metrics.messagesReceived.Add(ctx, 1, metric.WithAttributes(
		semconv.KeyChannel.String(ev.Channel),
	))

	m.registry.Put(key, &registry.TraceContext{
		SessionKey: key,
		RootSpan:   rootSpan,
		RootCtx:    rootCtx,
		CreatedAt:  m.now(),
	})
}

// HandleAgentTurnStart opens the agent span under the session's request
// span. Without a stored context the agent span self-roots into a new one.
func (m *Manager) HandleAgentTurnStart(ctx context.Context, ev event.AgentTurnStart) {
	defer m.recoverHandler(ctx, "agent_turn_start")
	m.mu.Lock()
	defer m.mu.Unlock()

	tc, ok := m.registry.Get(ev.SessionKey)
	if ok && tc.AgentOpen() {
		// A second start before the first end. Close the stale span so it
		// cannot leak, then open the new one in its place.
		tc.AgentSpan.End()
		tc.AgentSpan = nil
		tc.AgentCtx = nil
	}

	var agentCtx context.Context
	var agentSpan trace.Span
	if ok {
		agentCtx, agentSpan = m.tracer.Start(tc.RootCtx, semconv.SpanAgentTurn)
		tc.AgentSpan = agentSpan
		tc.AgentCtx = agentCtx
	} else {
		key := sessionKeyOrSynthetic(ev.SessionKey)
		agentCtx, agentSpan = m.tracer.Start(ctx, semconv.SpanAgentTurn)
		agentSpan.SetAttributes(semconv.KeySessionKey.String(key))
		tc = &registry.TraceContext{
			SessionKey: key,
			RootSpan:   agentSpan,
			RootCtx:    agentCtx,
			AgentSpan:  agentSpan,
			AgentCtx:   agentCtx,
			CreatedAt:  m.now(),
		}
		m.registry.Put(key, tc)
	}

	agentSpan.SetAttributes(
		semconv.KeyAgentID.String(ev.AgentID),
		semconv.KeyModel.String(ev.Model),
	)
	if m.perCall != nil {
		agentSpan.SetAttributes(semconv.KeyPerCallCapture.Bool(m.perCall.SupportsPerCallSpans()))
	}

	if m.diag != nil {
		m.notifyDiagnostics(ctx, tc.SessionKey, agentSpan)
	}
}

// HandleToolExecuted emits a transient tool span, parented to the agent span
// if one is open, else the request span, else the ambient context. Strictly
// synchronous: the host commits the tool result on return.
func (m *Manager) HandleToolExecuted(ctx context.Context, ev event.ToolExecuted) {
	defer m.recoverHandler(ctx, "tool_executed")
	m.mu.Lock()
	defer m.mu.Unlock()

	parent := ctx
	if tc, ok := m.registry.Get(ev.SessionKey); ok {
		if tc.AgentOpen() {
			parent = tc.AgentCtx
		} else {
			parent = tc.RootCtx
		}
	}

	_, span := m.tracer.Start(parent, semconv.ToolSpanName(ev.ToolName))
	defer span.End()

	span.SetAttributes(
		semconv.KeyToolName.String(ev.ToolName),
		semconv.KeyAgentID.String(ev.AgentID),
		semconv.KeyToolSynthetic.Bool(ev.Synthetic),
	)
	if ev.ToolCallID != "" {
		span.SetAttributes(semconv.KeyToolCallID.String(ev.ToolCallID))
	}
	if m.captureContent && len(ev.Input) > 0 {
		if raw, err := json.Marshal(ev.Input); err == nil {
			span.SetAttributes(semconv.KeyToolInput.String(string(raw)))
		}
	}

	parts := len(ev.Result.Content)
	bytes := 0
	for _, part := range ev.Result.Content {
		bytes += len(part.Text)
	}
	span.SetAttributes(
		semconv.KeyToolResultParts.Int(parts),
		semconv.KeyToolResultBytes.Int(bytes),
	)

	toolAttrs := metric.WithAttributes(semconv.KeyToolName.String(ev.ToolName))
	m.metrics.toolCalls.Add(ctx, 1, toolAttrs)

	if ev.Result.IsError {
		span.SetAttributes(semconv.KeyToolError.Bool(true))
		span.SetStatus(codes.Error, "tool reported error")
		m.metrics.toolErrors.Add(ctx, 1, toolAttrs)
	} else {
		span.SetStatus(codes.Ok, "")
	}

	if finding := m.classifyToolCall(ev.ToolName, ev.Input); finding != nil {
		m.applyFinding(ctx, span, finding)
	}
}

// HandleAgentTurnEnd enriches and closes the agent span, closes the request
// span, and evicts the session context. A repeat end for an already-closed
// session is a no-op.
func (m *Manager) HandleAgentTurnEnd(ctx context.Context, ev event.AgentTurnEnd) {
	defer m.recoverHandler(ctx, "agent_turn_end")
	m.mu.Lock()
	defer m.mu.Unlock()

	tc, ok := m.registry.Get(ev.SessionKey)
	if !ok {
		m.logger.Debug(ctx, "turn end for unknown session",
			observe.Field{Key: "session_key", Value: ev.SessionKey},
		)
		return
	}

	if tc.AgentSpan != nil {
		m.enrichAgentSpan(ctx, tc.AgentSpan, ev)
		tc.AgentSpan.End()
	}

	m.metrics.turnDuration.Record(ctx, float64(ev.DurationMS), metric.WithAttributes(
		semconv.KeyAgentID.String(ev.AgentID),
		semconv.KeyTurnSuccess.Bool(ev.Success),
	))

	if tc.RootSpan != nil && !tc.SelfRooted() {
		elapsed := m.now().Sub(tc.CreatedAt)
		tc.RootSpan.SetAttributes(semconv.KeyRequestDuration.Int64(elapsed.Milliseconds()))
		if ev.Success {
			tc.RootSpan.SetStatus(codes.Ok, "")
		} else {
			tc.RootSpan.SetStatus(codes.Error, ev.Error)
		}
		tc.RootSpan.End()
	}

	m.registry.Delete(ev.SessionKey)
}

// enrichAgentSpan sets usage, model, duration, and outcome attributes.
func (m *Manager) enrichAgentSpan(ctx context.Context, span trace.Span, ev event.AgentTurnEnd) {
	usage, model := m.turnUsage(ctx, ev)

	span.SetAttributes(
		semconv.KeyInputTokens.Int64(usage.Usage.Input),
		semconv.KeyOutputTokens.Int64(usage.Usage.Output),
		semconv.KeyCacheReadTokens.Int64(usage.Usage.CacheRead),
		semconv.KeyCacheWriteTokens.Int64(usage.Usage.CacheWrite),
		semconv.KeyTotalTokens.Int64(usage.Usage.Total()),
		semconv.KeyResponseModel.String(model),
		semconv.KeyTurnDurationMS.Int64(ev.DurationMS),
		semconv.KeyTurnSuccess.Bool(ev.Success),
	)
	if usage.CostUSD > 0 {
		span.SetAttributes(semconv.KeyCostUSD.Float64(usage.CostUSD))
	}
	if usage.ContextWindow > 0 {
		span.SetAttributes(semconv.KeyContextWindow.Int64(usage.ContextWindow))
	}

	if ev.Success {
		span.SetStatus(codes.Ok, "")
	} else {
		span.SetAttributes(semconv.KeyTurnError.String(ev.Error))
		span.SetStatus(codes.Error, ev.Error)
	}
}

// turnUsage resolves the turn's token usage: the enriched source verbatim
// when it answers, otherwise the sum over the event's assistant messages.
func (m *Manager) turnUsage(ctx context.Context, ev event.AgentTurnEnd) (TurnUsage, string) {
	if m.usage != nil {
		if enriched, ok := m.lookupUsage(ctx, ev.SessionKey); ok {
			model := enriched.Model
			if model == "" {
				model = event.UnknownValue
			}
			return enriched, model
		}
	}

	var agg event.Usage
	model := event.UnknownValue
	for _, msg := range ev.Messages {
		if msg.Role != event.RoleAssistant {
			continue
		}
		agg = agg.Add(msg.Usage)
		if msg.Model != "" {
			model = msg.Model
		}
	}
	return TurnUsage{Usage: agg}, model
}

// lookupUsage queries the usage source behind a recover guard.
func (m *Manager) lookupUsage(ctx context.Context, sessionKey string) (tu TurnUsage, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Debug(ctx, "usage source panic swallowed",
				observe.Field{Key: "panic", Value: r},
			)
			tu, ok = TurnUsage{}, false
		}
	}()
	return m.usage.TurnUsage(sessionKey)
}

// HandleCommand emits a transient command span and counts session resets.
func (m *Manager) HandleCommand(ctx context.Context, ev event.Command) {
	defer m.recoverHandler(ctx, "command")
	m.mu.Lock()
	defer m.mu.Unlock()

	parent := ctx
	if tc, ok := m.registry.Get(ev.SessionKey); ok {
		parent = tc.RootCtx
	}

	_, span := m.tracer.Start(parent, semconv.CommandSpanName(ev.Action))
	span.SetAttributes(
		semconv.KeyCommandAction.String(ev.Action),
		semconv.KeyCommandSource.String(ev.Source),
		semconv.KeySessionKey.String(ev.SessionKey),
	)
	span.SetStatus(codes.Ok, "")
	span.End()

	if ev.Action == event.ActionNew || ev.Action == event.ActionReset {
		m.metrics.sessionResets.Add(ctx, 1, metric.WithAttributes(
			semconv.KeyCommandAction.String(ev.Action),
		))
	}
}

// HandleStartup emits a standalone informational span marking gateway start.
func (m *Manager) HandleStartup(ctx context.Context) {
	defer m.recoverHandler(ctx, "startup")

	_, span := m.tracer.Start(ctx, semconv.SpanStartup)
	span.SetStatus(codes.Ok, "")
	span.End()
}

// ForceClose closes any still-open spans of the session and evicts it.
// Returns false if the session had no open context.
func (m *Manager) ForceClose(ctx context.Context, sessionKey string) bool {
	defer m.recoverHandler(ctx, "force_close")
	m.mu.Lock()
	defer m.mu.Unlock()

	tc, ok := m.registry.Get(sessionKey)
	if !ok {
		return false
	}
	m.closeContext(ctx, tc)
	m.registry.Delete(sessionKey)
	return true
}

// ReapStale force-closes every context older than threshold. Returns the
// number of contexts reaped.
func (m *Manager) ReapStale(ctx context.Context, threshold time.Duration) int {
	defer m.recoverHandler(ctx, "reap_stale")
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-threshold)
	var stale []string
	m.registry.ForEach(func(key string, tc *registry.TraceContext) bool {
		if tc.CreatedAt.Before(cutoff) {
			stale = append(stale, key)
		}
		return true
	})

	for _, key := range stale {
		tc, ok := m.registry.Get(key)
		if !ok {
			continue
		}
		m.closeContext(ctx, tc)
		m.registry.Delete(key)
		m.logger.Debug(ctx, "reaped stale session",
			observe.Field{Key: "session_key", Value: key},
		)
	}
	return len(stale)
}

// OpenSessions returns the number of sessions with open contexts.
func (m *Manager) OpenSessions() int {
	return m.registry.Len()
}

// closeContext ends the agent span then the root span, skipping the second
// End when the context is self-rooted.
func (m *Manager) closeContext(ctx context.Context, tc *registry.TraceContext) {
	if tc.AgentSpan != nil {
		tc.AgentSpan.End()
	}
	if tc.RootSpan != nil && !tc.SelfRooted() {
		tc.RootSpan.End()
	}
}

// applyFinding attaches a security finding to the span: attributes, a
// timeline event, an error status when actionable, and the aggregate plus
// per-category counters.
func (m *Manager) applyFinding(ctx context.Context, span trace.Span, f *classify.Finding) {
	span.SetAttributes(
		semconv.KeySecurityCategory.String(f.Category),
		semconv.KeySecuritySeverity.String(f.Severity.String()),
		semconv.KeySecurityDescription.String(f.Description),
	)

	eventAttrs := []attribute.KeyValue{
		semconv.KeySecurityCategory.String(f.Category),
		semconv.KeySecuritySeverity.String(f.Severity.String()),
	}
	for k, v := range f.Details {
		eventAttrs = append(eventAttrs, attribute.String("gateway.security.detail."+k, v))
	}
	span.AddEvent(semconv.EventSecurityFinding, trace.WithAttributes(eventAttrs...))

	if f.Severity.Actionable() {
		span.SetStatus(codes.Error, f.Description)
	}

	countAttrs := metric.WithAttributes(
		semconv.KeySecurityCategory.String(f.Category),
		semconv.KeySecuritySeverity.String(f.Severity.String()),
	)
	m.metrics.securityEvents.Add(ctx, 1, countAttrs)
	if counter, err := m.metrics.categoryCounter(f.Category); err == nil {
		counter.Add(ctx, 1, countAttrs)
	}
}

// classifyMessage queries the classifier behind a recover guard.
func (m *Manager) classifyMessage(text string) (f *classify.Finding) {
	if m.classifier == nil || text == "" {
		return nil
	}
	defer func() {
		if recover() != nil {
			f = nil
		}
	}()
	return m.classifier.ClassifyMessage(text)
}

// classifyToolCall queries the classifier behind a recover guard.
func (m *Manager) classifyToolCall(toolName string, input map[string]any) (f *classify.Finding) {
	if m.classifier == nil {
		return nil
	}
	defer func() {
		if recover() != nil {
			f = nil
		}
	}()
	return m.classifier.ClassifyToolCall(toolName, input)
}

// notifyDiagnostics forwards the new agent span behind a recover guard.
func (m *Manager) notifyDiagnostics(ctx context.Context, sessionKey string, span trace.Span) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Debug(ctx, "diagnostics panic swallowed",
				observe.Field{Key: "panic", Value: r},
			)
		}
	}()
	m.diag.AgentSpanStarted(sessionKey, span)
}
