package diag

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	// SevNote is attached context, never counted.
	SevNote Severity = iota
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevNote:
		return "note"
	case SevWarning:
		return "warning"
	case SevError:
		return "error"
	}
	return "unknown"
}

// ParseSeverity maps the checker's severity word.
func ParseSeverity(s string) (Severity, bool) {
	switch s {
	case "note":
		return SevNote, true
	case "warning":
		return SevWarning, true
	case "error":
		return SevError, true
	}
	return SevNote, false
}
