package parser

import (
	"fmt"

	"typeguard/internal/ast"
	"typeguard/internal/lexer"
	"typeguard/internal/source"
	"typeguard/internal/token"
)

type Options struct {
	TabSize uint32
}

// Error is a syntax error. Parsing stops at the first one: a file that does not
// parse is excluded from the session as a whole, so recovery buys nothing.
type Error struct {
	Span source.Span
	Pos  source.LineCol
	Msg  string
}

func (e Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Col, e.Msg)
}

type Result struct {
	Tree   *ast.Tree
	Errors []Error
}

// Err returns the first syntax error, or nil.
func (r Result) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return r.Errors[0]
}

// Parser: состояние парсера на один файл
type Parser struct {
	tree  *ast.Tree
	toks  []token.Token
	pos   int
	last  source.Span // span последнего съеденного значимого токена
	class ast.ClassID // enclosing class for defs directly in its body
	errs  []Error
}

type bailout struct{}

type errorCollector struct {
	file *source.File
	errs []Error
}

func (c *errorCollector) Report(sp source.Span, msg string) {
	c.errs = append(c.errs, Error{Span: sp, Pos: c.file.Position(sp.Start), Msg: msg})
}

// ParseFile lexes and parses one file.
func ParseFile(file *source.File, opts Options) (res Result) {
	collector := &errorCollector{file: file}
	toks := lexer.New(file, lexer.Options{Reporter: collector, TabSize: opts.TabSize}).All()
	res.Tree = ast.NewTree(file)
	if len(collector.errs) > 0 {
		res.Errors = collector.errs
		return res
	}

	p := &Parser{tree: res.Tree, toks: toks}
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			res.Errors = p.errs
		}
	}()
	p.parseModule()
	return res
}

func (p *Parser) parseModule() {
	for !p.at(token.EOF) {
		if p.eat(token.Newline) {
			continue
		}
		p.tree.Body = append(p.tree.Body, p.parseStatement()...)
	}
}
