package parser

import (
	"typeguard/internal/ast"
	"typeguard/internal/lexer"
	"typeguard/internal/source"
	"typeguard/internal/token"
)

// binaryLevels lists binary operators from loosest to tightest binding.
var binaryLevels = [][]token.Kind{
	{token.Pipe},
	{token.Caret},
	{token.Amp},
	{token.Shl, token.Shr},
	{token.Plus, token.Minus},
	{token.Star, token.Slash, token.SlashSlash, token.Percent, token.At},
}

// parseTestListStarExpr parses `a, *b, c` into a tuple when a comma follows.
func (p *Parser) parseTestListStarExpr() ast.ExprID {
	first := p.parseStarOrTest()
	if !p.at(token.Comma) {
		return first
	}
	elts := []ast.ExprID{first}
	for p.eat(token.Comma) {
		if !canStartExpr(p.peek().Kind) {
			break
		}
		elts = append(elts, p.parseStarOrTest())
	}
	sp := p.span(first)
	return p.tree.NewExpr(ast.Expr{Kind: ast.ExprTuple, Span: p.from(sp), Elts: elts})
}

// parseExprList parses assignment-target lists (for targets, comprehension targets).
func (p *Parser) parseExprList() ast.ExprID {
	first := p.parseStarOrBitOr()
	if !p.at(token.Comma) {
		return first
	}
	elts := []ast.ExprID{first}
	for p.eat(token.Comma) {
		if !canStartExpr(p.peek().Kind) {
			break
		}
		elts = append(elts, p.parseStarOrBitOr())
	}
	return p.tree.NewExpr(ast.Expr{Kind: ast.ExprTuple, Span: p.from(p.span(first)), Elts: elts})
}

func (p *Parser) parseStarOrBitOr() ast.ExprID {
	if p.at(token.Star) {
		star := p.advance()
		operand := p.parseBitOr()
		return p.tree.NewExpr(ast.Expr{Kind: ast.ExprStarred, Span: p.from(star.Span), Left: operand})
	}
	return p.parseBitOr()
}

func (p *Parser) parseStarOrTest() ast.ExprID {
	if p.at(token.Star) {
		star := p.advance()
		operand := p.parseBitOr()
		return p.tree.NewExpr(ast.Expr{Kind: ast.ExprStarred, Span: p.from(star.Span), Left: operand})
	}
	return p.parseNamedOrTest()
}

// parseNamedOrTest handles `name := value` in addition to a plain test.
func (p *Parser) parseNamedOrTest() ast.ExprID {
	if p.at(token.Ident) && p.peekN(1).Kind == token.ColonAssign {
		tok := p.advance()
		target := p.tree.NewExpr(ast.Expr{Kind: ast.ExprName, Span: tok.Span, Text: lexer.NormalizeIdent(tok.Text)})
		p.advance()
		value := p.parseTest()
		return p.tree.NewExpr(ast.Expr{Kind: ast.ExprNamed, Span: p.from(tok.Span), Left: target, Right: value})
	}
	return p.parseTest()
}

// parseTest: lambda | or_test ['if' or_test 'else' test]
func (p *Parser) parseTest() ast.ExprID {
	if p.at(token.KwLambda) {
		return p.parseLambda()
	}
	body := p.parseOrTest()
	if !p.at(token.KwIf) {
		return body
	}
	p.advance()
	cond := p.parseOrTest()
	p.expect(token.KwElse, "else")
	orelse := p.parseTest()
	return p.tree.NewExpr(ast.Expr{
		Kind:  ast.ExprIfExp,
		Span:  p.from(p.span(body)),
		Left:  body,
		Cond:  cond,
		Right: orelse,
	})
}

func (p *Parser) parseLambda() ast.ExprID {
	kw := p.advance()
	params := p.parseParams(token.Colon, false)
	p.expect(token.Colon, "':'")
	body := p.parseTest()
	return p.tree.NewExpr(ast.Expr{Kind: ast.ExprLambda, Span: p.from(kw.Span), Params: params, Left: body})
}

func (p *Parser) parseOrTest() ast.ExprID {
	return p.parseBoolOp("or", token.KwOr, p.parseAndTest)
}

func (p *Parser) parseAndTest() ast.ExprID {
	return p.parseBoolOp("and", token.KwAnd, p.parseNotTest)
}

func (p *Parser) parseBoolOp(op string, kind token.Kind, next func() ast.ExprID) ast.ExprID {
	first := next()
	if !p.at(kind) {
		return first
	}
	values := []ast.ExprID{first}
	for p.eat(kind) {
		values = append(values, next())
	}
	return p.tree.NewExpr(ast.Expr{Kind: ast.ExprBoolOp, Span: p.from(p.span(first)), Op: op, Elts: values})
}

func (p *Parser) parseNotTest() ast.ExprID {
	if p.at(token.KwNot) {
		kw := p.advance()
		operand := p.parseNotTest()
		return p.tree.NewExpr(ast.Expr{Kind: ast.ExprUnary, Span: p.from(kw.Span), Op: "not", Right: operand})
	}
	return p.parseComparison()
}

func (p *Parser) compareOp() (string, bool) {
	switch p.peek().Kind {
	case token.Lt, token.Gt, token.EqEq, token.GtEq, token.LtEq, token.BangEq:
		return p.advance().Text, true
	case token.KwIn:
		p.advance()
		return "in", true
	case token.KwNot:
		if p.peekN(1).Kind == token.KwIn {
			p.advance()
			p.advance()
			return "not in", true
		}
	case token.KwIs:
		p.advance()
		if p.eat(token.KwNot) {
			return "is not", true
		}
		return "is", true
	}
	return "", false
}

func (p *Parser) parseComparison() ast.ExprID {
	left := p.parseBitOr()
	var ops []string
	var comparators []ast.ExprID
	for {
		op, ok := p.compareOp()
		if !ok {
			break
		}
		ops = append(ops, op)
		comparators = append(comparators, p.parseBitOr())
	}
	if len(ops) == 0 {
		return left
	}
	return p.tree.NewExpr(ast.Expr{Kind: ast.ExprCompare, Span: p.from(p.span(left)), Left: left, Ops: ops, Elts: comparators})
}

func (p *Parser) parseBitOr() ast.ExprID {
	return p.parseBinaryLevel(0)
}

func (p *Parser) parseBinaryLevel(level int) ast.ExprID {
	if level == len(binaryLevels) {
		return p.parseFactor()
	}
	left := p.parseBinaryLevel(level + 1)
	for p.at(binaryLevels[level]...) {
		op := p.advance().Text
		right := p.parseBinaryLevel(level + 1)
		left = p.tree.NewExpr(ast.Expr{Kind: ast.ExprBinary, Span: p.from(p.span(left)), Op: op, Left: left, Right: right})
	}
	return left
}

func (p *Parser) parseFactor() ast.ExprID {
	if p.at(token.Plus, token.Minus, token.Tilde) {
		op := p.advance()
		operand := p.parseFactor()
		return p.tree.NewExpr(ast.Expr{Kind: ast.ExprUnary, Span: p.from(op.Span), Op: op.Text, Right: operand})
	}
	return p.parsePower()
}

func (p *Parser) parsePower() ast.ExprID {
	base := p.parseAwaitPrimary()
	if p.eat(token.StarStar) {
		exp := p.parseFactor()
		return p.tree.NewExpr(ast.Expr{Kind: ast.ExprBinary, Span: p.from(p.span(base)), Op: "**", Left: base, Right: exp})
	}
	return base
}

func (p *Parser) parseAwaitPrimary() ast.ExprID {
	if p.at(token.KwAwait) {
		kw := p.advance()
		operand := p.parsePrimary()
		return p.tree.NewExpr(ast.Expr{Kind: ast.ExprAwait, Span: p.from(kw.Span), Left: operand})
	}
	return p.parsePrimary()
}

// parsePrimary parses an atom followed by calls, subscripts and attribute accesses.
func (p *Parser) parsePrimary() ast.ExprID {
	expr := p.parseAtom()
	for {
		start := p.span(expr)
		switch p.peek().Kind {
		case token.LParen:
			p.advance()
			args, keywords := p.parseArgs()
			p.expect(token.RParen, "')'")
			expr = p.tree.NewExpr(ast.Expr{Kind: ast.ExprCall, Span: p.from(start), Left: expr, Elts: args, Keywords: keywords})
		case token.LBracket:
			p.advance()
			index := p.parseSubscriptList()
			p.expect(token.RBracket, "']'")
			expr = p.tree.NewExpr(ast.Expr{Kind: ast.ExprSubscript, Span: p.from(start), Left: expr, Right: index})
		case token.Dot:
			p.advance()
			name, nameSpan := p.ident()
			expr = p.tree.NewExpr(ast.Expr{Kind: ast.ExprAttribute, Span: p.from(start), Left: expr, Text: name, NameSpan: nameSpan})
		default:
			return expr
		}
	}
}

// parseArgs parses call arguments up to (not including) ')'.
func (p *Parser) parseArgs() ([]ast.ExprID, []ast.Keyword) {
	var args []ast.ExprID
	var keywords []ast.Keyword
	for !p.at(token.RParen) {
		switch {
		case p.at(token.StarStar):
			tok := p.advance()
			value := p.parseTest()
			keywords = append(keywords, ast.Keyword{Span: p.from(tok.Span), Value: value})
		case p.at(token.Ident) && p.peekN(1).Kind == token.Assign:
			name, nameSpan := p.ident()
			p.advance()
			value := p.parseTest()
			keywords = append(keywords, ast.Keyword{Name: name, Span: p.from(nameSpan), Value: value})
		default:
			arg := p.parseStarOrTest()
			if p.at(token.KwFor, token.KwAsync) {
				arg = p.parseComprehension(ast.ExprGenerator, p.span(arg), arg, ast.NoExprID)
			}
			args = append(args, arg)
		}
		if !p.eat(token.Comma) {
			break
		}
	}
	return args, keywords
}

func (p *Parser) parseSubscriptList() ast.ExprID {
	first := p.parseSliceItem()
	if !p.at(token.Comma) {
		return first
	}
	elts := []ast.ExprID{first}
	for p.eat(token.Comma) {
		if p.at(token.RBracket) {
			break
		}
		elts = append(elts, p.parseSliceItem())
	}
	return p.tree.NewExpr(ast.Expr{Kind: ast.ExprTuple, Span: p.from(p.span(first)), Elts: elts})
}

func (p *Parser) parseSliceItem() ast.ExprID {
	start := p.peek().Span
	var lower ast.ExprID
	if !p.at(token.Colon) {
		lower = p.parseStarOrTest()
		if !p.at(token.Colon) {
			return lower
		}
	}
	p.advance()
	slice := ast.Expr{Kind: ast.ExprSlice, Left: lower}
	if !p.at(token.Colon, token.Comma, token.RBracket) {
		slice.Right = p.parseTest()
	}
	if p.eat(token.Colon) && !p.at(token.Comma, token.RBracket) {
		slice.Cond = p.parseTest()
	}
	slice.Span = p.from(start)
	return p.tree.NewExpr(slice)
}

func (p *Parser) parseYield() ast.ExprID {
	kw := p.advance()
	if p.eat(token.KwFrom) {
		value := p.parseTest()
		return p.tree.NewExpr(ast.Expr{Kind: ast.ExprYieldFrom, Span: p.from(kw.Span), Left: value})
	}
	e := ast.Expr{Kind: ast.ExprYield}
	if canStartExpr(p.peek().Kind) {
		e.Left = p.parseTestListStarExpr()
	}
	e.Span = p.from(kw.Span)
	return p.tree.NewExpr(e)
}

// parseComprehension parses the `for ... in ... if ...` clauses after elt (and value for dict comps).
func (p *Parser) parseComprehension(kind ast.ExprKind, start source.Span, elt, value ast.ExprID) ast.ExprID {
	var comps []ast.Comprehension
	for p.at(token.KwFor, token.KwAsync) {
		c := ast.Comprehension{Async: p.eat(token.KwAsync)}
		p.expect(token.KwFor, "for")
		c.Target = p.parseExprList()
		p.expect(token.KwIn, "in")
		c.Iter = p.parseOrTest()
		for p.eat(token.KwIf) {
			c.Ifs = append(c.Ifs, p.parseOrTest())
		}
		comps = append(comps, c)
	}
	return p.tree.NewExpr(ast.Expr{Kind: kind, Span: p.from(start), Left: elt, Right: value, Comps: comps})
}
