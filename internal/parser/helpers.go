package parser

import (
	"fmt"
	"slices"

	"typeguard/internal/ast"
	"typeguard/internal/lexer"
	"typeguard/internal/source"
	"typeguard/internal/token"
)

func (p *Parser) peek() token.Token {
	return p.toks[p.pos]
}

func (p *Parser) peekN(n int) token.Token {
	if i := p.pos + n; i < len(p.toks) {
		return p.toks[i]
	}
	return p.toks[len(p.toks)-1]
}

func (p *Parser) at(kinds ...token.Kind) bool {
	return slices.Contains(kinds, p.toks[p.pos].Kind)
}

// advance: съедает следующий токен и обновляет last
func (p *Parser) advance() token.Token {
	tok := p.toks[p.pos]
	if tok.Kind != token.EOF {
		p.pos++
	}
	if !tok.IsLayout() && tok.Kind != token.EOF {
		p.last = tok.Span
	}
	return tok
}

func (p *Parser) eat(k token.Kind) bool {
	if p.at(k) {
		p.advance()
		return true
	}
	return false
}

// expect: ожидаем конкретный токен, иначе синтаксическая ошибка.
func (p *Parser) expect(k token.Kind, what string) token.Token {
	if p.at(k) {
		return p.advance()
	}
	p.fail(p.peek().Span, "expected %s, found %s", what, describe(p.peek()))
	return token.Token{}
}

func (p *Parser) fail(sp source.Span, format string, args ...any) {
	p.errs = append(p.errs, Error{
		Span: sp,
		Pos:  p.tree.File.Position(sp.Start),
		Msg:  fmt.Sprintf(format, args...),
	})
	panic(bailout{})
}

func describe(tok token.Token) string {
	switch tok.Kind {
	case token.Ident:
		return fmt.Sprintf("identifier %q", tok.Text)
	case token.EOF, token.Newline, token.Indent, token.Dedent:
		return tok.Kind.String()
	default:
		return fmt.Sprintf("%q", tok.Text)
	}
}

func (p *Parser) ident() (string, source.Span) {
	tok := p.expect(token.Ident, "identifier")
	return lexer.NormalizeIdent(tok.Text), tok.Span
}

// from returns a span running from start to the end of the last consumed token.
func (p *Parser) from(start source.Span) source.Span {
	return source.Span{File: start.File, Start: start.Start, End: p.last.End}
}

func (p *Parser) span(id ast.ExprID) source.Span {
	return p.tree.Expr(id).Span
}

func (p *Parser) indentOf(off uint32) uint32 {
	return p.tree.File.Position(off).Col - 1
}

// canStartExpr reports whether k may begin an expression.
func canStartExpr(k token.Kind) bool {
	switch k {
	case token.Ident, token.IntLit, token.FloatLit, token.ImagLit, token.StringLit,
		token.KwNone, token.KwTrue, token.KwFalse, token.KwLambda, token.KwNot, token.KwAwait,
		token.LParen, token.LBracket, token.LBrace, token.Minus, token.Plus, token.Tilde,
		token.Star, token.Ellipsis:
		return true
	}
	return false
}
