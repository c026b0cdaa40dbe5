// Package fix turns inference results into source edits and applies them.
//
// Synthesize maps classified diagnostics to EditProposals, Select keeps a
// non-overlapping subset per file (losers are deferred, never dropped),
// Support adds the typing imports and TypeVar declarations the kept edits need,
// and ApplyFile writes one file's batch atomically after verifying every
// proposal's guard window against the text on disk.
package fix
