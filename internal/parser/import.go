package parser

import (
	"strings"

	"typeguard/internal/ast"
	"typeguard/internal/token"
)

func (p *Parser) dottedName() string {
	name, _ := p.ident()
	parts := []string{name}
	for p.at(token.Dot) && p.peekN(1).Kind == token.Ident {
		p.advance()
		next, _ := p.ident()
		parts = append(parts, next)
	}
	return strings.Join(parts, ".")
}

// import a.b as c, d
func (p *Parser) parseImport() ast.StmtID {
	kw := p.advance()
	st := ast.Stmt{Kind: ast.StmtImport}
	for {
		start := p.peek().Span
		name := p.dottedName()
		alias := ast.Alias{Name: name}
		if p.eat(token.KwAs) {
			alias.AsName, _ = p.ident()
		}
		alias.Span = p.from(start)
		st.Names = append(st.Names, alias)
		if !p.eat(token.Comma) {
			break
		}
	}
	return p.newStmt(kw, st)
}

// from ..pkg.mod import (a as b, c) | *
func (p *Parser) parseImportFrom() ast.StmtID {
	kw := p.advance()
	st := ast.Stmt{Kind: ast.StmtImportFrom}
	for {
		switch {
		case p.eat(token.Dot):
			st.Level++
			continue
		case p.eat(token.Ellipsis):
			st.Level += 3
			continue
		}
		break
	}
	if p.at(token.Ident) {
		st.Module = p.dottedName()
	}
	p.expect(token.KwImport, "import")
	if p.at(token.Star) {
		tok := p.advance()
		st.Names = []ast.Alias{{Name: "*", Span: tok.Span}}
		return p.newStmt(kw, st)
	}
	paren := p.eat(token.LParen)
	for {
		start := p.peek().Span
		name, _ := p.ident()
		alias := ast.Alias{Name: name}
		if p.eat(token.KwAs) {
			alias.AsName, _ = p.ident()
		}
		alias.Span = p.from(start)
		st.Names = append(st.Names, alias)
		if !p.eat(token.Comma) || (paren && p.at(token.RParen)) {
			break
		}
	}
	if paren {
		p.expect(token.RParen, "')'")
	}
	return p.newStmt(kw, st)
}
