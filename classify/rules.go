package classify

import (
	"fmt"
	"regexp"
)

// Scope selects what a rule applies to.
type Scope int

const (
	// ScopeToolInput applies the rule to tool call inputs.
	ScopeToolInput Scope = iota
	// ScopeMessage applies the rule to inbound message text.
	ScopeMessage
)

// Rule is one pattern-matching detection.
type Rule struct {
	// Category identifies the detection (snake_case, becomes part of the
	// per-category metric name).
	Category string

	// Severity is the tier assigned to matches.
	Severity Severity

	// Description is the human-readable explanation attached to findings.
	Description string

	// Pattern matches against tool input values or message text depending
	// on Scope.
	Pattern *regexp.Regexp

	// Scope selects tool inputs or message text.
	Scope Scope
}

// DefaultRules returns the built-in rule table.
func DefaultRules() []Rule {
	return []Rule{
		{
			Category:    "sensitive_file_access",
			Severity:    SeverityCritical,
			Description: "tool call touches a credential or secret file",
			Pattern: regexp.MustCompile(
				`(?i)(\.env\b|id_rsa|id_ed25519|id_ecdsa|\.aws/credentials|\.ssh/|\.pem\b|/etc/shadow|\.netrc\b|\.npmrc\b|secrets?\.(json|ya?ml))`),
			Scope: ScopeToolInput,
		},
		{
			Category:    "destructive_command",
			Severity:    SeverityCritical,
			Description: "tool call runs a destructive filesystem command",
			Pattern: regexp.MustCompile(
				`(?i)(\brm\s+-[a-z]*r[a-z]*f\b|\brm\s+-[a-z]*f[a-z]*r\b|\bmkfs(\.[a-z0-9]+)?\s|\bdd\s+[^|;]*\bof=/dev/)`),
			Scope: ScopeToolInput,
		},
		{
			Category:    "remote_code_execution",
			Severity:    SeverityHigh,
			Description: "tool call pipes a remote download into a shell",
			Pattern: regexp.MustCompile(
				`(?i)\b(curl|wget)\b[^|;]*\|\s*(ba|z|da)?sh\b`),
			Scope: ScopeToolInput,
		},
		{
			Category:    "prompt_injection",
			Severity:    SeverityWarning,
			Description: "message attempts to override agent instructions",
			Pattern: regexp.MustCompile(
				`(?i)(ignore\s+(all\s+)?(previous|prior|above)\s+instructions|disregard\s+(the\s+)?(system\s+prompt|previous\s+instructions))`),
			Scope: ScopeMessage,
		},
	}
}

// RuleClassifier matches tool calls and messages against a rule table.
type RuleClassifier struct {
	rules []Rule
}

// NewRuleClassifier creates a classifier with the given rules.
// With no rules, the default table is used.
func NewRuleClassifier(rules ...Rule) *RuleClassifier {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &RuleClassifier{rules: rules}
}

// ClassifyToolCall matches every string value in the tool input against the
// tool-input rules and returns the highest-severity finding, if any.
func (c *RuleClassifier) ClassifyToolCall(toolName string, input map[string]any) *Finding {
	var best *Finding
	for field, value := range flattenStrings(input) {
		for i := range c.rules {
			rule := &c.rules[i]
			if rule.Scope != ScopeToolInput || !rule.Pattern.MatchString(value) {
				continue
			}
			if best != nil && best.Severity >= rule.Severity {
				continue
			}
			best = &Finding{
				Category:    rule.Category,
				Severity:    rule.Severity,
				Description: rule.Description,
				Details: map[string]string{
					"tool":  toolName,
					"field": field,
				},
			}
		}
	}
	return best
}

// ClassifyMessage matches message text against the message-scoped rules.
func (c *RuleClassifier) ClassifyMessage(text string) *Finding {
	if text == "" {
		return nil
	}
	var best *Finding
	for i := range c.rules {
		rule := &c.rules[i]
		if rule.Scope != ScopeMessage || !rule.Pattern.MatchString(text) {
			continue
		}
		if best != nil && best.Severity >= rule.Severity {
			continue
		}
		best = &Finding{
			Category:    rule.Category,
			Severity:    rule.Severity,
			Description: rule.Description,
			Details:     map[string]string{"source": "message"},
		}
	}
	return best
}

// flattenStrings walks a tool input map and collects its string values,
// keyed by a dotted field path. Nested maps and slices are descended;
// non-string leaves are rendered with fmt only when scalar.
func flattenStrings(input map[string]any) map[string]string {
	out := make(map[string]string)
	var walk func(prefix string, v any)
	walk = func(prefix string, v any) {
		switch val := v.(type) {
		case string:
			out[prefix] = val
		case map[string]any:
			for k, child := range val {
				key := k
				if prefix != "" {
					key = prefix + "." + k
				}
				walk(key, child)
			}
		case []any:
			for i, child := range val {
				walk(fmt.Sprintf("%s[%d]", prefix, i), child)
			}
		}
	}
	walk("", input)
	return out
}

var _ Classifier = (*RuleClassifier)(nil)
