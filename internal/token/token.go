package token

import (
	"strings"

	"typeguard/internal/source"
)

// Token represents a single source token with its location and trivia.
type Token struct {
	Kind    Kind
	Span    source.Span
	Text    string
	Leading []Trivia
}

// IsLiteral reports whether the token is a numeric, string, or constant literal.
func (t Token) IsLiteral() bool {
	switch t.Kind {
	case IntLit, FloatLit, ImagLit, StringLit, KwTrue, KwFalse, KwNone:
		return true
	default:
		return false
	}
}

// IsKeyword reports whether the token is a reserved word.
func (t Token) IsKeyword() bool {
	return t.Kind >= KwFalse && t.Kind <= KwYield
}

// IsIdent reports whether the token is an identifier.
func (t Token) IsIdent() bool { return t.Kind == Ident }

// IsLayout reports whether the token only carries block structure.
func (t Token) IsLayout() bool {
	return t.Kind == Newline || t.Kind == Indent || t.Kind == Dedent
}

// StringPrefix returns the lowercase prefix of a string literal (r, b, f, rb, ...).
func (t Token) StringPrefix() string {
	if t.Kind != StringLit {
		return ""
	}
	i := strings.IndexAny(t.Text, `'"`)
	if i <= 0 {
		return ""
	}
	return strings.ToLower(t.Text[:i])
}
