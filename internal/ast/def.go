package ast

import (
	"typeguard/internal/source"
)

type ParamKind uint8

const (
	ParamPositional ParamKind = iota
	ParamPositionalOnly
	ParamVarArgs  // *args
	ParamKeywordOnly
	ParamVarKwargs // **kwargs
)

type Param struct {
	Name       string
	NameSpan   source.Span
	Kind       ParamKind
	Annotation ExprID
	Default    ExprID
}

// FuncDef describes a def or async def. SigEnd is the offset right after the
// closing parenthesis of the parameter list; a return annotation is inserted there.
type FuncDef struct {
	Name       string
	NameSpan   source.Span
	Span       source.Span
	Params     []ParamID
	Returns    ExprID
	Body       []StmtID
	Decorators []ExprID
	Async      bool
	SigEnd     uint32
	BodyColon  uint32
	Class      ClassID // enclosing class when this is a method
}

type ClassDef struct {
	Name       string
	NameSpan   source.Span
	Span       source.Span
	Bases      []ExprID
	Keywords   []Keyword
	Body       []StmtID
	Decorators []ExprID
}
