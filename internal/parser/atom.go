package parser

import (
	"strings"

	"typeguard/internal/ast"
	"typeguard/internal/lexer"
	"typeguard/internal/token"
)

func (p *Parser) parseAtom() ast.ExprID {
	tok := p.peek()
	switch tok.Kind {
	case token.Ident:
		p.advance()
		return p.tree.NewExpr(ast.Expr{Kind: ast.ExprName, Span: tok.Span, Text: lexer.NormalizeIdent(tok.Text)})
	case token.IntLit:
		p.advance()
		return p.tree.NewExpr(ast.Expr{Kind: ast.ExprInt, Span: tok.Span, Text: tok.Text})
	case token.FloatLit:
		p.advance()
		return p.tree.NewExpr(ast.Expr{Kind: ast.ExprFloat, Span: tok.Span, Text: tok.Text})
	case token.ImagLit:
		p.advance()
		return p.tree.NewExpr(ast.Expr{Kind: ast.ExprImag, Span: tok.Span, Text: tok.Text})
	case token.KwNone, token.KwTrue, token.KwFalse, token.Ellipsis:
		p.advance()
		return p.tree.NewExpr(ast.Expr{Kind: ast.ExprConst, Span: tok.Span, Text: tok.Text})
	case token.StringLit:
		return p.parseStrings()
	case token.LParen:
		return p.parseParen()
	case token.LBracket:
		return p.parseListDisplay()
	case token.LBrace:
		return p.parseBraceDisplay()
	}
	p.fail(tok.Span, "expected expression, found %s", describe(tok))
	return ast.NoExprID
}

// parseStrings joins adjacent literals: "a" "b" is one expression.
func (p *Parser) parseStrings() ast.ExprID {
	first := p.peek()
	kind := ast.ExprString
	var parts []string
	for p.at(token.StringLit) {
		tok := p.advance()
		prefix := tok.StringPrefix()
		switch {
		case strings.Contains(prefix, "f"):
			kind = ast.ExprFString
		case strings.Contains(prefix, "b"):
			if kind == ast.ExprString {
				kind = ast.ExprBytes
			}
		}
		parts = append(parts, tok.Text)
	}
	return p.tree.NewExpr(ast.Expr{Kind: kind, Span: p.from(first.Span), Text: parts[0], Parts: parts})
}

func (p *Parser) parseParen() ast.ExprID {
	lp := p.advance()
	if p.eat(token.RParen) {
		return p.tree.NewExpr(ast.Expr{Kind: ast.ExprTuple, Span: p.from(lp.Span)})
	}
	if p.at(token.KwYield) {
		inner := p.parseYield()
		p.expect(token.RParen, "')'")
		p.tree.Expr(inner).Span = p.from(lp.Span)
		return inner
	}
	first := p.parseStarOrTest()
	switch {
	case p.at(token.KwFor, token.KwAsync):
		gen := p.parseComprehension(ast.ExprGenerator, lp.Span, first, ast.NoExprID)
		p.expect(token.RParen, "')'")
		p.tree.Expr(gen).Span = p.from(lp.Span)
		return gen
	case p.at(token.Comma):
		elts := []ast.ExprID{first}
		for p.eat(token.Comma) {
			if p.at(token.RParen) {
				break
			}
			elts = append(elts, p.parseStarOrTest())
		}
		p.expect(token.RParen, "')'")
		return p.tree.NewExpr(ast.Expr{Kind: ast.ExprTuple, Span: p.from(lp.Span), Elts: elts})
	}
	p.expect(token.RParen, "')'")
	// parenthesized nodes span their parentheses
	p.tree.Expr(first).Span = p.from(lp.Span)
	return first
}

func (p *Parser) parseListDisplay() ast.ExprID {
	lb := p.advance()
	if p.eat(token.RBracket) {
		return p.tree.NewExpr(ast.Expr{Kind: ast.ExprList, Span: p.from(lb.Span)})
	}
	first := p.parseStarOrTest()
	if p.at(token.KwFor, token.KwAsync) {
		comp := p.parseComprehension(ast.ExprListComp, lb.Span, first, ast.NoExprID)
		p.expect(token.RBracket, "']'")
		p.tree.Expr(comp).Span = p.from(lb.Span)
		return comp
	}
	elts := []ast.ExprID{first}
	for p.eat(token.Comma) {
		if p.at(token.RBracket) {
			break
		}
		elts = append(elts, p.parseStarOrTest())
	}
	p.expect(token.RBracket, "']'")
	return p.tree.NewExpr(ast.Expr{Kind: ast.ExprList, Span: p.from(lb.Span), Elts: elts})
}

func (p *Parser) parseBraceDisplay() ast.ExprID {
	lb := p.advance()
	if p.eat(token.RBrace) {
		return p.tree.NewExpr(ast.Expr{Kind: ast.ExprDict, Span: p.from(lb.Span)})
	}

	var key, value ast.ExprID
	isDict := false
	if p.eat(token.StarStar) {
		value = p.parseBitOr()
		isDict = true
	} else {
		key = p.parseStarOrTest()
		if p.eat(token.Colon) {
			value = p.parseTest()
			isDict = true
		}
	}

	if p.at(token.KwFor, token.KwAsync) {
		kind := ast.ExprSetComp
		if isDict {
			kind = ast.ExprDictComp
		}
		comp := p.parseComprehension(kind, lb.Span, key, value)
		p.expect(token.RBrace, "'}'")
		p.tree.Expr(comp).Span = p.from(lb.Span)
		return comp
	}

	if !isDict {
		elts := []ast.ExprID{key}
		for p.eat(token.Comma) {
			if p.at(token.RBrace) {
				break
			}
			elts = append(elts, p.parseStarOrTest())
		}
		p.expect(token.RBrace, "'}'")
		return p.tree.NewExpr(ast.Expr{Kind: ast.ExprSet, Span: p.from(lb.Span), Elts: elts})
	}

	keys := []ast.ExprID{key}
	values := []ast.ExprID{value}
	for p.eat(token.Comma) {
		if p.at(token.RBrace) {
			break
		}
		if p.eat(token.StarStar) {
			keys = append(keys, ast.NoExprID)
			values = append(values, p.parseBitOr())
			continue
		}
		keys = append(keys, p.parseTest())
		p.expect(token.Colon, "':'")
		values = append(values, p.parseTest())
	}
	p.expect(token.RBrace, "'}'")
	return p.tree.NewExpr(ast.Expr{Kind: ast.ExprDict, Span: p.from(lb.Span), Keys: keys, Elts: values})
}
