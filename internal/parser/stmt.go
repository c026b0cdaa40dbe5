package parser

import (
	"typeguard/internal/ast"
	"typeguard/internal/token"
)

// parseStatement parses one logical statement; a simple-statement line may yield several.
func (p *Parser) parseStatement() []ast.StmtID {
	switch p.peek().Kind {
	case token.KwIf:
		return []ast.StmtID{p.parseIf(p.advance())}
	case token.KwWhile:
		return []ast.StmtID{p.parseWhile()}
	case token.KwFor:
		return []ast.StmtID{p.parseFor(p.peek(), false)}
	case token.KwTry:
		return []ast.StmtID{p.parseTry()}
	case token.KwWith:
		return []ast.StmtID{p.parseWith(p.peek(), false)}
	case token.KwDef:
		return []ast.StmtID{p.parseFuncDef(p.peek(), nil, false)}
	case token.KwClass:
		return []ast.StmtID{p.parseClassDef(p.peek(), nil)}
	case token.At:
		return []ast.StmtID{p.parseDecorated()}
	case token.KwAsync:
		start := p.advance()
		switch p.peek().Kind {
		case token.KwDef:
			return []ast.StmtID{p.parseFuncDef(start, nil, true)}
		case token.KwFor:
			return []ast.StmtID{p.parseFor(start, true)}
		case token.KwWith:
			return []ast.StmtID{p.parseWith(start, true)}
		}
		p.fail(p.peek().Span, "expected def, for or with after async")
	case token.Indent:
		p.fail(p.peek().Span, "unexpected indent")
	}
	return p.parseSimpleStatements()
}

func (p *Parser) parseSimpleStatements() []ast.StmtID {
	ids := []ast.StmtID{p.parseSmallStatement()}
	for p.eat(token.Semicolon) {
		if p.at(token.Newline, token.EOF) {
			break
		}
		ids = append(ids, p.parseSmallStatement())
	}
	if !p.at(token.EOF) {
		p.expect(token.Newline, "end of statement")
	}
	return ids
}

// parseBlock parses the suite after a ':'.
func (p *Parser) parseBlock() []ast.StmtID {
	if !p.eat(token.Newline) {
		return p.parseSimpleStatements()
	}
	p.expect(token.Indent, "indented block")
	var body []ast.StmtID
	for !p.at(token.Dedent, token.EOF) {
		if p.eat(token.Newline) {
			continue
		}
		body = append(body, p.parseStatement()...)
	}
	p.expect(token.Dedent, "dedent")
	return body
}

func (p *Parser) newStmt(start token.Token, st ast.Stmt) ast.StmtID {
	st.Span = p.from(start.Span)
	st.Indent = p.indentOf(start.Span.Start)
	return p.tree.NewStmt(st)
}

func (p *Parser) parseSmallStatement() ast.StmtID {
	start := p.peek()
	switch start.Kind {
	case token.KwPass:
		p.advance()
		return p.newStmt(start, ast.Stmt{Kind: ast.StmtPass})
	case token.KwBreak:
		p.advance()
		return p.newStmt(start, ast.Stmt{Kind: ast.StmtBreak})
	case token.KwContinue:
		p.advance()
		return p.newStmt(start, ast.Stmt{Kind: ast.StmtContinue})
	case token.KwReturn:
		p.advance()
		st := ast.Stmt{Kind: ast.StmtReturn}
		if canStartExpr(p.peek().Kind) {
			st.Value = p.parseTestListStarExpr()
		}
		return p.newStmt(start, st)
	case token.KwRaise:
		p.advance()
		st := ast.Stmt{Kind: ast.StmtRaise}
		if canStartExpr(p.peek().Kind) {
			st.Value = p.parseTest()
			if p.eat(token.KwFrom) {
				st.Cause = p.parseTest()
			}
		}
		return p.newStmt(start, st)
	case token.KwGlobal, token.KwNonlocal:
		p.advance()
		kind := ast.StmtGlobal
		if start.Kind == token.KwNonlocal {
			kind = ast.StmtNonlocal
		}
		st := ast.Stmt{Kind: kind}
		for {
			name, _ := p.ident()
			st.Idents = append(st.Idents, name)
			if !p.eat(token.Comma) {
				break
			}
		}
		return p.newStmt(start, st)
	case token.KwDel:
		p.advance()
		st := ast.Stmt{Kind: ast.StmtDel}
		for {
			st.Targets = append(st.Targets, p.parseBitOr())
			if !p.eat(token.Comma) || !canStartExpr(p.peek().Kind) {
				break
			}
		}
		return p.newStmt(start, st)
	case token.KwAssert:
		p.advance()
		st := ast.Stmt{Kind: ast.StmtAssert, Value: p.parseTest()}
		if p.eat(token.Comma) {
			st.Cause = p.parseTest()
		}
		return p.newStmt(start, st)
	case token.KwImport:
		return p.parseImport()
	case token.KwFrom:
		return p.parseImportFrom()
	}
	return p.parseExprStatement()
}

func (p *Parser) parseExprStatement() ast.StmtID {
	start := p.peek()
	first := p.parseYieldOrTestList()
	switch p.peek().Kind {
	case token.Colon:
		p.advance()
		st := ast.Stmt{Kind: ast.StmtAnnAssign, Targets: []ast.ExprID{first}, Annotation: p.parseTest()}
		if p.eat(token.Assign) {
			st.Value = p.parseYieldOrTestList()
		}
		return p.newStmt(start, st)
	case token.AugAssign:
		op := p.advance().Text
		return p.newStmt(start, ast.Stmt{
			Kind:    ast.StmtAugAssign,
			Targets: []ast.ExprID{first},
			Op:      op,
			Value:   p.parseYieldOrTestList(),
		})
	case token.Assign:
		exprs := []ast.ExprID{first}
		for p.eat(token.Assign) {
			exprs = append(exprs, p.parseYieldOrTestList())
		}
		return p.newStmt(start, ast.Stmt{
			Kind:    ast.StmtAssign,
			Targets: exprs[:len(exprs)-1],
			Value:   exprs[len(exprs)-1],
		})
	}
	return p.newStmt(start, ast.Stmt{Kind: ast.StmtExpr, Value: first})
}

func (p *Parser) parseYieldOrTestList() ast.ExprID {
	if p.at(token.KwYield) {
		return p.parseYield()
	}
	return p.parseTestListStarExpr()
}

func (p *Parser) parseIf(kw token.Token) ast.StmtID {
	st := ast.Stmt{Kind: ast.StmtIf, Test: p.parseNamedOrTest()}
	p.expect(token.Colon, "':'")
	st.Body = p.parseBlock()
	switch {
	case p.at(token.KwElif):
		st.Orelse = []ast.StmtID{p.parseIf(p.advance())}
	case p.at(token.KwElse):
		p.advance()
		p.expect(token.Colon, "':'")
		st.Orelse = p.parseBlock()
	}
	return p.newStmt(kw, st)
}

func (p *Parser) parseWhile() ast.StmtID {
	kw := p.advance()
	st := ast.Stmt{Kind: ast.StmtWhile, Test: p.parseNamedOrTest()}
	p.expect(token.Colon, "':'")
	st.Body = p.parseBlock()
	st.Orelse = p.parseElse()
	return p.newStmt(kw, st)
}

func (p *Parser) parseElse() []ast.StmtID {
	if !p.eat(token.KwElse) {
		return nil
	}
	p.expect(token.Colon, "':'")
	return p.parseBlock()
}

func (p *Parser) parseFor(start token.Token, async bool) ast.StmtID {
	p.expect(token.KwFor, "for")
	st := ast.Stmt{Kind: ast.StmtFor, Async: async, Targets: []ast.ExprID{p.parseExprList()}}
	p.expect(token.KwIn, "in")
	st.Iter = p.parseTestListStarExpr()
	p.expect(token.Colon, "':'")
	st.Body = p.parseBlock()
	st.Orelse = p.parseElse()
	return p.newStmt(start, st)
}

func (p *Parser) parseWith(start token.Token, async bool) ast.StmtID {
	p.expect(token.KwWith, "with")
	st := ast.Stmt{Kind: ast.StmtWith, Async: async}
	grouped := p.at(token.LParen) && p.closesBeforeColon()
	if grouped {
		p.advance()
	}
	for {
		item := ast.WithItem{Context: p.parseTest()}
		if p.eat(token.KwAs) {
			item.Target = p.parseBitOr()
		}
		st.Items = append(st.Items, item)
		if !p.eat(token.Comma) || (grouped && p.at(token.RParen)) {
			break
		}
	}
	if grouped {
		p.expect(token.RParen, "')'")
	}
	p.expect(token.Colon, "':'")
	st.Body = p.parseBlock()
	return p.newStmt(start, st)
}

func (p *Parser) parseTry() ast.StmtID {
	kw := p.advance()
	p.expect(token.Colon, "':'")
	st := ast.Stmt{Kind: ast.StmtTry, Body: p.parseBlock()}
	for p.at(token.KwExcept) {
		hkw := p.advance()
		p.eat(token.Star)
		h := ast.Handler{}
		if !p.at(token.Colon) {
			h.Type = p.parseTest()
			if p.eat(token.KwAs) {
				h.Name, _ = p.ident()
			}
		}
		p.expect(token.Colon, "':'")
		h.Body = p.parseBlock()
		h.Span = p.from(hkw.Span)
		st.Handlers = append(st.Handlers, h)
	}
	st.Orelse = p.parseElse()
	if p.eat(token.KwFinally) {
		p.expect(token.Colon, "':'")
		st.Finally = p.parseBlock()
	}
	if len(st.Handlers) == 0 && st.Finally == nil {
		p.fail(p.peek().Span, "expected except or finally block")
	}
	return p.newStmt(kw, st)
}

// closesBeforeColon reports whether the bracket at the current token is
// closed right before a ':', as in `with (a as b, c):`.
func (p *Parser) closesBeforeColon() bool {
	depth := 0
	for i := p.pos; i < len(p.toks); i++ {
		switch p.toks[i].Kind {
		case token.LParen, token.LBracket, token.LBrace:
			depth++
		case token.RParen, token.RBracket, token.RBrace:
			depth--
			if depth == 0 {
				return i+1 < len(p.toks) && p.toks[i+1].Kind == token.Colon
			}
		case token.Newline, token.EOF:
			return false
		}
	}
	return false
}
