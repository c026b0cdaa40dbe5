package diag

import (
	"fmt"
)

// Diagnostic is one reported type problem.
type Diagnostic struct {
	Path     string
	Line     uint32 // 1-based
	Column   uint32 // 1-based; 0 when the checker did not report it
	Severity Severity
	Code     Code
	RawCode  string
	Message  string
	Class    Class
}

// IsError reports whether the diagnostic counts toward the session total.
func (d Diagnostic) IsError() bool {
	return d.Severity == SevError
}

// Key identifies a diagnostic across runs.
func (d Diagnostic) Key() string {
	return fmt.Sprintf("%s:%d:%d:%s:%s", d.Path, d.Line, d.Column, d.RawCode, d.Message)
}

// String renders the diagnostic in the checker's own line format.
func (d Diagnostic) String() string {
	pos := fmt.Sprintf("%s:%d", d.Path, d.Line)
	if d.Column > 0 {
		pos = fmt.Sprintf("%s:%d", pos, d.Column)
	}
	line := fmt.Sprintf("%s: %s: %s", pos, d.Severity, d.Message)
	if d.RawCode != "" {
		line += "  [" + d.RawCode + "]"
	}
	return line
}
