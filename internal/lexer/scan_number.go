package lexer

import (
	"typeguard/internal/token"
)

// scanNumber сканирует int/float/imag литералы: 0x1F, 0o17, 0b1010, 1_000, 1.5e-3, .5, 3j.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()
	kind := token.IntLit

	if lx.cursor.Peek() == '0' {
		switch lx.cursor.PeekAt(1) {
		case 'x', 'X':
			lx.cursor.Bump()
			lx.cursor.Bump()
			lx.eatDigits(isHex)
			return lx.numberToken(start, token.IntLit)
		case 'o', 'O':
			lx.cursor.Bump()
			lx.cursor.Bump()
			lx.eatDigits(isOct)
			return lx.numberToken(start, token.IntLit)
		case 'b', 'B':
			lx.cursor.Bump()
			lx.cursor.Bump()
			lx.eatDigits(isBin)
			return lx.numberToken(start, token.IntLit)
		}
	}

	lx.eatDigits(isDec)
	if lx.cursor.Peek() == '.' && lx.cursor.PeekAt(1) != '.' {
		lx.cursor.Bump()
		lx.eatDigits(isDec)
		kind = token.FloatLit
	}
	if b := lx.cursor.Peek(); b == 'e' || b == 'E' {
		next := lx.cursor.PeekAt(1)
		if isDec(next) || ((next == '+' || next == '-') && isDec(lx.cursor.PeekAt(2))) {
			lx.cursor.Bump()
			if next == '+' || next == '-' {
				lx.cursor.Bump()
			}
			lx.eatDigits(isDec)
			kind = token.FloatLit
		}
	}
	if b := lx.cursor.Peek(); b == 'j' || b == 'J' {
		lx.cursor.Bump()
		kind = token.ImagLit
	}
	return lx.numberToken(start, kind)
}

func (lx *Lexer) eatDigits(ok func(byte) bool) {
	for {
		b := lx.cursor.Peek()
		if !ok(b) && b != '_' {
			return
		}
		lx.cursor.Bump()
	}
}

func (lx *Lexer) numberToken(start Mark, kind token.Kind) token.Token {
	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: kind, Span: sp, Text: lx.file.Text(sp)}
}
