package ast

import (
	"typeguard/internal/source"
)

// Tree is the parsed form of one source file version.
type Tree struct {
	File    *source.File
	Body    []StmtID
	Exprs   *Arena[Expr]
	Stmts   *Arena[Stmt]
	Funcs   *Arena[FuncDef]
	Classes *Arena[ClassDef]
	Params  *Arena[Param]
}

// NewTree allocates arenas sized after the file.
func NewTree(file *source.File) *Tree {
	hint := uint(len(file.Content)/8 + 16)
	return &Tree{
		File:    file,
		Exprs:   NewArena[Expr](hint),
		Stmts:   NewArena[Stmt](hint / 4),
		Funcs:   NewArena[FuncDef](8),
		Classes: NewArena[ClassDef](4),
		Params:  NewArena[Param](16),
	}
}

func (t *Tree) NewExpr(e Expr) ExprID      { return ExprID(t.Exprs.Allocate(e)) }
func (t *Tree) NewStmt(s Stmt) StmtID      { return StmtID(t.Stmts.Allocate(s)) }
func (t *Tree) NewFunc(f FuncDef) FuncID   { return FuncID(t.Funcs.Allocate(f)) }
func (t *Tree) NewClass(c ClassDef) ClassID { return ClassID(t.Classes.Allocate(c)) }
func (t *Tree) NewParam(p Param) ParamID   { return ParamID(t.Params.Allocate(p)) }

func (t *Tree) Expr(id ExprID) *Expr       { return t.Exprs.Get(uint32(id)) }
func (t *Tree) Stmt(id StmtID) *Stmt       { return t.Stmts.Get(uint32(id)) }
func (t *Tree) Func(id FuncID) *FuncDef    { return t.Funcs.Get(uint32(id)) }
func (t *Tree) Class(id ClassID) *ClassDef { return t.Classes.Get(uint32(id)) }
func (t *Tree) Param(id ParamID) *Param    { return t.Params.Get(uint32(id)) }

// Text returns the source text of an expression.
func (t *Tree) Text(id ExprID) string {
	e := t.Expr(id)
	if e == nil {
		return ""
	}
	return t.File.Text(e.Span)
}

// Docstring returns the string statement opening body, if any.
func (t *Tree) Docstring(body []StmtID) (StmtID, bool) {
	if len(body) == 0 {
		return NoStmtID, false
	}
	st := t.Stmt(body[0])
	if st.Kind != StmtExpr {
		return NoStmtID, false
	}
	if e := t.Expr(st.Value); e != nil && e.Kind == ExprString {
		return body[0], true
	}
	return NoStmtID, false
}
