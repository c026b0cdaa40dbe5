// Package diag defines the diagnostic model of one external type-checker run.
//
// # Purpose
//
//   - Parse the checker's line-oriented report into ordered Diagnostic records
//     (ParseReport), tolerating unknown codes and a bounded share of noise.
//   - Classify every diagnostic into a fix class the synthesizer understands.
//   - Offer a Bag with the deterministic ordering and deduplication the rest of
//     the pipeline relies on.
//
// # Scope
//
// Package diag performs no IO and no rendering. Running the checker lives in
// internal/checker, rendering in internal/diagfmt.
//
// # Data model
//
// Diagnostic is immutable once parsed. It carries the reported path, 1-based
// line and column (0 when the checker omitted it), severity, the code (with the
// raw code string kept for Unrecognized codes) and the message verbatim.
// Only SevError diagnostics count toward a session's diagnostic total.
package diag
