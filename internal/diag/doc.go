// Package diag defines the diagnostic model shared by the loading and
// elaboration phases.
//
// Diagnostic is the central record: a Severity, a compact numeric Code
// with a stable string form, a human-oriented Message, the primary
// source.Span, and optional Notes pointing at related locations
// ("declared here", "previous usage here").
//
// Producers emit through a Reporter so that emission stays decoupled
// from storage; BagReporter aggregates into a Bag, which supports
// sorting and deduplication for deterministic output. Rendering lives
// in internal/diagfmt.
//
// Diagnostics here are never fatal: phases keep going after reporting,
// and callers decide what to do with the accumulated Bag.
package diag
