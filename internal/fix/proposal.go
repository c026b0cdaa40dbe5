package fix

import (
	"crypto/sha256"
	"fmt"

	"typeguard/internal/diag"
	"typeguard/internal/infer"
	"typeguard/internal/source"
)

// Proposal is one candidate text edit. Span and Window are byte offsets into
// the normalized text the proposal was synthesized against; Checksum is the
// sha256 of the Window text at that time.
type Proposal struct {
	Path        string
	Span        source.Span
	Replacement string
	Rationale   diag.Code
	Class       diag.Class
	Diagnostic  diag.Diagnostic
	Confidence  float64
	Window      source.Span
	Checksum    [32]byte
	Broad       bool
	Typing      []string // typing names the replacement uses
	TypeVars    []string // type variables the replacement needs declared
	Key         string
	Title       string
	Support     bool
}

func (p *Proposal) String() string {
	return fmt.Sprintf("%s:%d-%d %q (%.2f)", p.Path, p.Span.Start, p.Span.End, p.Replacement, p.Confidence)
}

// Unresolved is a diagnostic the synthesizer could not act on.
type Unresolved struct {
	Diagnostic diag.Diagnostic
	Reason     infer.Reason
	Detail     string
}

func newProposal(file *source.File, span, window source.Span, replacement string) Proposal {
	window = window.Cover(span)
	return Proposal{
		Path:        file.Path,
		Span:        span,
		Replacement: replacement,
		Window:      window,
		Checksum:    sha256.Sum256(file.Content[window.Start:window.End]),
	}
}

// Verify reports whether the proposal's window still holds the text it was built against.
func (p *Proposal) Verify(content []byte) bool {
	if int(p.Window.End) > len(content) || p.Window.Start > p.Window.End {
		return false
	}
	return sha256.Sum256(content[p.Window.Start:p.Window.End]) == p.Checksum
}
