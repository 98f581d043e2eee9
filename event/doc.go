// Package event defines the typed lifecycle events consumed by the span
// lifecycle manager, plus the adapters that convert the gateway's untyped
// payloads into them.
//
// The gateway delivers loosely-typed map payloads. All fallback and
// defaulting logic lives in the FromMap adapter for each event kind: a
// missing or mistyped field degrades to "unknown", zero, or empty rather
// than failing, so downstream handlers always receive a well-formed record.
package event
