package lexer

import (
	"typeguard/internal/token"
)

// scanString сканирует строковый литерал начиная с кавычки под курсором;
// start указывает на начало префикса (если он есть).
// Escapes are skipped but not decoded, raw strings included: `r"\""` is one literal.
func (lx *Lexer) scanString(start Mark) token.Token {
	q := lx.cursor.Bump()
	triple := false
	if lx.cursor.Peek() == q && lx.cursor.PeekAt(1) == q {
		lx.cursor.Bump()
		lx.cursor.Bump()
		triple = true
	}

	for {
		if lx.cursor.EOF() {
			sp := lx.cursor.SpanFrom(start)
			lx.report(sp, "unterminated string literal")
			return token.Token{Kind: token.Invalid, Span: sp, Text: lx.file.Text(sp)}
		}
		b := lx.cursor.Bump()
		switch {
		case b == '\\':
			lx.cursor.Bump()
		case b == '\n' && !triple:
			lx.cursor.Off--
			sp := lx.cursor.SpanFrom(start)
			lx.report(sp, "unterminated string literal")
			return token.Token{Kind: token.Invalid, Span: sp, Text: lx.file.Text(sp)}
		case b == q && !triple:
			sp := lx.cursor.SpanFrom(start)
			return token.Token{Kind: token.StringLit, Span: sp, Text: lx.file.Text(sp)}
		case b == q && lx.cursor.Peek() == q && lx.cursor.PeekAt(1) == q:
			lx.cursor.Bump()
			lx.cursor.Bump()
			sp := lx.cursor.SpanFrom(start)
			return token.Token{Kind: token.StringLit, Span: sp, Text: lx.file.Text(sp)}
		}
	}
}
