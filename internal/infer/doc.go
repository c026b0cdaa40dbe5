// Package infer proposes types for unannotated symbols from usage evidence.
//
// For a parameter, a return value or a variable the Engine collects an
// EvidenceSet (literal assignments, call-site arguments, returned values,
// comparisons against None, method and container usage, types quoted by the
// checker) and Resolve turns it into one type with a confidence, or abstains
// with a Reason. A read-only Table carries call sites and declared signatures
// across files.
//
// The engine never guarantees correctness; the external checker decides.
package infer
