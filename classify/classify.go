package classify

// Severity is the ordered severity tier of a finding.
type Severity int

const (
	// SeverityInfo is an informational observation.
	SeverityInfo Severity = iota
	// SeverityWarning is suspicious but not clearly harmful.
	SeverityWarning
	// SeverityHigh is likely harmful.
	SeverityHigh
	// SeverityCritical is clearly harmful.
	SeverityCritical
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "info"
	}
}

// Actionable reports whether the severity forces an error span status
// (high and critical tiers).
func (s Severity) Actionable() bool {
	return s >= SeverityHigh
}

// Finding is the output of a classification: a detection category, a
// severity tier, a human-readable description, and free-form details.
type Finding struct {
	Category    string
	Severity    Severity
	Description string
	Details     map[string]string
}

// Classifier inspects tool calls and message text for security findings.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: classification is best-effort and must not panic; a nil return
//   means no finding.
// - At most one finding is returned per call (the highest-severity match).
type Classifier interface {
	// ClassifyToolCall inspects a tool name and its input.
	ClassifyToolCall(toolName string, input map[string]any) *Finding

	// ClassifyMessage inspects inbound message text.
	ClassifyMessage(text string) *Finding
}
