// Package classify detects suspicious tool calls and message content via
// pattern-matching rules.
//
// The lifecycle manager consumes the Classifier interface; the RuleClassifier
// in this package is the default implementation. Rule tables are pluggable:
// callers may pass their own rules or implement Classifier outright.
// Classification is advisory only - it enriches spans and counters, it never
// blocks the underlying operation.
package classify
