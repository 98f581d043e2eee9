// Package registry is the process-wide store mapping a session key to its
// currently-open span hierarchy.
//
// It is pure bookkeeping: no I/O, no span creation or closure. The lifecycle
// manager owns all mutation of stored contexts; the reaper reads via ForEach.
package registry
