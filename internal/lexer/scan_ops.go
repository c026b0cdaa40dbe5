package lexer

import (
	"typeguard/internal/token"
)

type opEntry struct {
	text string
	kind token.Kind
}

// longest first
var operators = []opEntry{
	{"**=", token.AugAssign}, {"//=", token.AugAssign}, {">>=", token.AugAssign},
	{"<<=", token.AugAssign}, {"...", token.Ellipsis},
	{"**", token.StarStar}, {"//", token.SlashSlash}, {"<<", token.Shl}, {">>", token.Shr},
	{"<=", token.LtEq}, {">=", token.GtEq}, {"==", token.EqEq}, {"!=", token.BangEq},
	{"->", token.Arrow}, {":=", token.ColonAssign},
	{"+=", token.AugAssign}, {"-=", token.AugAssign}, {"*=", token.AugAssign},
	{"/=", token.AugAssign}, {"%=", token.AugAssign}, {"@=", token.AugAssign},
	{"&=", token.AugAssign}, {"|=", token.AugAssign}, {"^=", token.AugAssign},
	{"+", token.Plus}, {"-", token.Minus}, {"*", token.Star}, {"/", token.Slash},
	{"%", token.Percent}, {"@", token.At}, {"&", token.Amp}, {"|", token.Pipe},
	{"^", token.Caret}, {"~", token.Tilde}, {"<", token.Lt}, {">", token.Gt},
	{"(", token.LParen}, {")", token.RParen}, {"[", token.LBracket}, {"]", token.RBracket},
	{"{", token.LBrace}, {"}", token.RBrace}, {",", token.Comma}, {":", token.Colon},
	{".", token.Dot}, {";", token.Semicolon}, {"=", token.Assign},
}

func (lx *Lexer) scanOperatorOrPunct() token.Token {
	start := lx.cursor.Mark()
	rest := lx.file.Content[lx.cursor.Off:lx.cursor.Limit]
	for _, op := range operators {
		if len(rest) < len(op.text) || string(rest[:len(op.text)]) != op.text {
			continue
		}
		lx.cursor.Off += uint32(len(op.text)) // #nosec G115 -- operators are at most 3 bytes
		switch op.kind {
		case token.LParen, token.LBracket, token.LBrace:
			lx.depth++
		case token.RParen, token.RBracket, token.RBrace:
			if lx.depth > 0 {
				lx.depth--
			}
		}
		sp := lx.cursor.SpanFrom(start)
		return token.Token{Kind: op.kind, Span: sp, Text: op.text}
	}
	lx.bumpRune()
	sp := lx.cursor.SpanFrom(start)
	lx.report(sp, "invalid character")
	return token.Token{Kind: token.Invalid, Span: sp, Text: lx.file.Text(sp)}
}
