package parser

import (
	"typeguard/internal/ast"
	"typeguard/internal/token"
)

func (p *Parser) parseDecorated() ast.StmtID {
	start := p.peek()
	var decorators []ast.ExprID
	for p.eat(token.At) {
		decorators = append(decorators, p.parseNamedOrTest())
		p.expect(token.Newline, "newline after decorator")
	}
	switch p.peek().Kind {
	case token.KwDef:
		return p.parseFuncDef(start, decorators, false)
	case token.KwClass:
		return p.parseClassDef(start, decorators)
	case token.KwAsync:
		p.advance()
		return p.parseFuncDef(start, decorators, true)
	}
	p.fail(p.peek().Span, "expected def or class after decorator")
	return ast.NoStmtID
}

func (p *Parser) parseFuncDef(start token.Token, decorators []ast.ExprID, async bool) ast.StmtID {
	p.expect(token.KwDef, "def")
	name, nameSpan := p.ident()
	p.expect(token.LParen, "'('")
	params := p.parseParams(token.RParen, true)
	rp := p.expect(token.RParen, "')'")
	fn := ast.FuncDef{
		Name:       name,
		NameSpan:   nameSpan,
		Params:     params,
		Decorators: decorators,
		Async:      async,
		SigEnd:     rp.Span.End,
		Class:      p.class,
	}
	if p.eat(token.Arrow) {
		fn.Returns = p.parseTest()
	}
	fn.BodyColon = p.expect(token.Colon, "':'").Span.Start

	saved := p.class
	p.class = ast.NoClassID
	fn.Body = p.parseBlock()
	p.class = saved

	fn.Span = p.from(start.Span)
	fid := p.tree.NewFunc(fn)
	return p.newStmt(start, ast.Stmt{Kind: ast.StmtFunctionDef, Func: fid})
}

func (p *Parser) parseClassDef(start token.Token, decorators []ast.ExprID) ast.StmtID {
	p.expect(token.KwClass, "class")
	name, nameSpan := p.ident()
	cl := ast.ClassDef{Name: name, NameSpan: nameSpan, Decorators: decorators}
	if p.eat(token.LParen) {
		cl.Bases, cl.Keywords = p.parseArgs()
		p.expect(token.RParen, "')'")
	}
	p.expect(token.Colon, "':'")
	cid := p.tree.NewClass(cl)

	saved := p.class
	p.class = cid
	body := p.parseBlock()
	p.class = saved

	stored := p.tree.Class(cid)
	stored.Body = body
	stored.Span = p.from(start.Span)
	return p.newStmt(start, ast.Stmt{Kind: ast.StmtClassDef, Class: cid})
}

// parseParams parses a parameter list up to end. Annotations are only accepted
// when typed is set (def, not lambda).
func (p *Parser) parseParams(end token.Kind, typed bool) []ast.ParamID {
	var params []ast.ParamID
	kind := ast.ParamPositional
	for !p.at(end) {
		switch {
		case p.eat(token.Slash):
			for _, pid := range params {
				p.tree.Param(pid).Kind = ast.ParamPositionalOnly
			}
		case p.eat(token.Star):
			if p.at(token.Comma) || p.at(end) {
				kind = ast.ParamKeywordOnly
				break
			}
			params = append(params, p.parseParam(ast.ParamVarArgs, typed))
			kind = ast.ParamKeywordOnly
		case p.eat(token.StarStar):
			params = append(params, p.parseParam(ast.ParamVarKwargs, typed))
		default:
			params = append(params, p.parseParam(kind, typed))
		}
		if !p.eat(token.Comma) {
			break
		}
	}
	return params
}

func (p *Parser) parseParam(kind ast.ParamKind, typed bool) ast.ParamID {
	name, nameSpan := p.ident()
	param := ast.Param{Name: name, NameSpan: nameSpan, Kind: kind}
	if typed && p.eat(token.Colon) {
		param.Annotation = p.parseTest()
	}
	if kind != ast.ParamVarArgs && kind != ast.ParamVarKwargs && p.eat(token.Assign) {
		param.Default = p.parseTest()
	}
	return p.tree.NewParam(param)
}
