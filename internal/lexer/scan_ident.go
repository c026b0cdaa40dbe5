package lexer

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"typeguard/internal/token"
)

const utf8RuneSelf = 0x80

// scanIdentOrString сканирует идентификатор или ключевое слово. Если идентификатор
// оказался строковым префиксом (r, b, f, u, rb, fr, ...) и за ним идёт кавычка,
// продолжает как строковый литерал.
func (lx *Lexer) scanIdentOrString() token.Token {
	start := lx.cursor.Mark()
	r, sz := lx.peekRune()
	if sz == 0 || (r >= utf8RuneSelf && !isIdentStartRune(r)) {
		lx.bumpRune()
		sp := lx.cursor.SpanFrom(start)
		lx.report(sp, "invalid character in identifier")
		return token.Token{Kind: token.Invalid, Span: sp, Text: lx.file.Text(sp)}
	}
	lx.bumpRune()
	for {
		b := lx.cursor.Peek()
		if b < utf8RuneSelf {
			if !isIdentContinueByte(b) {
				break
			}
			lx.cursor.Bump()
			continue
		}
		r2, sz2 := lx.peekRune()
		if sz2 == 0 || !isIdentContinueRune(r2) {
			break
		}
		lx.bumpRune()
	}

	sp := lx.cursor.SpanFrom(start)
	text := lx.file.Text(sp)

	if q := lx.cursor.Peek(); (q == '"' || q == '\'') && isStringPrefix(text) {
		return lx.scanString(start)
	}
	if k, ok := token.LookupKeyword(text); ok {
		return token.Token{Kind: k, Span: sp, Text: text}
	}
	return token.Token{Kind: token.Ident, Span: sp, Text: text}
}

func isStringPrefix(s string) bool {
	switch strings.ToLower(s) {
	case "r", "u", "b", "f", "br", "rb", "fr", "rf":
		return true
	}
	return false
}

// NormalizeIdent returns the NFKC form of an identifier, which is how Python
// compares names. ASCII names are returned unchanged.
func NormalizeIdent(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8RuneSelf {
			return norm.NFKC.String(s)
		}
	}
	return s
}
