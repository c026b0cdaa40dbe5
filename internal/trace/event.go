package trace

import (
	"strconv"
	"time"
)

// Kind is what an event marks.
type Kind uint8

const (
	KindBegin Kind = iota + 1
	KindEnd
	KindNote
	KindHeartbeat
)

var kindNames = [...]string{"?", "begin", "end", "note", "heartbeat"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return kindNames[0]
}

// Scope is the granularity of an event. A Level lets through every scope
// whose value does not exceed its own.
type Scope uint8

const (
	ScopeSession Scope = iota + 1 // a command, a fix session, one iteration
	ScopePhase                    // check, synthesize, apply, verify
	ScopeFile                     // one file inside a phase
	ScopeDiag                     // one diagnostic or proposal
)

var scopeNames = [...]string{"?", "session", "phase", "file", "diag"}

func (s Scope) String() string {
	if int(s) < len(scopeNames) {
		return scopeNames[s]
	}
	return scopeNames[0]
}

// Count is an optional number; the zero Count is unset.
type Count struct {
	N  int
	OK bool
}

// Some wraps n as a set Count.
func Some(n int) Count { return Count{N: n, OK: true} }

// Attrs say which part of a session an event belongs to. Zero fields are
// unset. A span inherits Session, Iteration and File from its parent.
type Attrs struct {
	Session   string // journal session id
	Iteration int
	File      string
	Diag      string // diagnostic key
	Errors    Count  // in-scope error count
	Exit      Count  // checker exit status
	Outcome   string
}

// under fills the inheritable fields of a from parent.
func (a Attrs) under(parent Attrs) Attrs {
	if a.Session == "" {
		a.Session = parent.Session
	}
	if a.Iteration == 0 {
		a.Iteration = parent.Iteration
	}
	if a.File == "" {
		a.File = parent.File
	}
	return a
}

// merge overwrites a with the set fields of b.
func (a Attrs) merge(b Attrs) Attrs {
	if b.Session != "" {
		a.Session = b.Session
	}
	if b.Iteration != 0 {
		a.Iteration = b.Iteration
	}
	if b.File != "" {
		a.File = b.File
	}
	if b.Diag != "" {
		a.Diag = b.Diag
	}
	if b.Errors.OK {
		a.Errors = b.Errors
	}
	if b.Exit.OK {
		a.Exit = b.Exit
	}
	if b.Outcome != "" {
		a.Outcome = b.Outcome
	}
	return a
}

// pairs lists the set fields in a fixed order for text output.
func (a Attrs) pairs() [][2]string {
	var out [][2]string
	add := func(k, v string) {
		if v != "" {
			out = append(out, [2]string{k, v})
		}
	}
	add("session", shortID(a.Session))
	if a.Iteration > 0 {
		add("iter", strconv.Itoa(a.Iteration))
	}
	add("file", a.File)
	add("diag", a.Diag)
	if a.Errors.OK {
		add("errors", strconv.Itoa(a.Errors.N))
	}
	if a.Exit.OK {
		add("exit", strconv.Itoa(a.Exit.N))
	}
	add("outcome", a.Outcome)
	return out
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// RuntimeStats ride on heartbeats.
type RuntimeStats struct {
	Goroutines int
	HeapBytes  uint64
}

// Event is one trace record.
type Event struct {
	Time     time.Time
	Seq      uint64
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64
	Name     string // "session", "iteration", "checker", "synthesize", ...
	Detail   string
	Attrs    Attrs
	Runtime  *RuntimeStats // heartbeats only
}
