// Package trace records what a typeguard session does: checker runs, loop
// iterations, per-file synthesis and the reason behind every abstention.
//
// Every event carries Attrs naming its session, iteration, file and
// diagnostic. Spans started from a context inherit those of the span already
// on it, so a note emitted deep inside synthesis still knows its iteration:
//
//	span, ctx := trace.Start(ctx, trace.ScopeSession, "iteration", trace.Attrs{Iteration: n})
//	defer span.End("")
//	trace.Note(ctx, trace.ScopeDiag, "abstain", trace.Attrs{Diag: d.Key()}, reason)
//
// Levels are cumulative scopes: session, phase, file, diag. The ring tracer is
// a flight recorder; Select pulls one iteration or one diagnostic back out of it.
//
//	typeguard fix --trace=- --trace-level=file src/
package trace
