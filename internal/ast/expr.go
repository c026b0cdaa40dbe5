package ast

import (
	"typeguard/internal/source"
)

type ExprKind uint8

const (
	ExprInvalid ExprKind = iota
	ExprName
	ExprConst // None, True, False, ...
	ExprInt
	ExprFloat
	ExprImag
	ExprString
	ExprBytes
	ExprFString
	ExprList
	ExprTuple
	ExprSet
	ExprDict
	ExprListComp
	ExprSetComp
	ExprDictComp
	ExprGenerator
	ExprAttribute
	ExprSubscript
	ExprSlice
	ExprCall
	ExprBinary
	ExprUnary
	ExprBoolOp
	ExprCompare
	ExprIfExp
	ExprLambda
	ExprStarred
	ExprNamed // walrus
	ExprAwait
	ExprYield
	ExprYieldFrom
)

var exprKindNames = [...]string{
	ExprInvalid:   "Invalid",
	ExprName:      "Name",
	ExprConst:     "Const",
	ExprInt:       "Int",
	ExprFloat:     "Float",
	ExprImag:      "Imag",
	ExprString:    "String",
	ExprBytes:     "Bytes",
	ExprFString:   "FString",
	ExprList:      "List",
	ExprTuple:     "Tuple",
	ExprSet:       "Set",
	ExprDict:      "Dict",
	ExprListComp:  "ListComp",
	ExprSetComp:   "SetComp",
	ExprDictComp:  "DictComp",
	ExprGenerator: "Generator",
	ExprAttribute: "Attribute",
	ExprSubscript: "Subscript",
	ExprSlice:     "Slice",
	ExprCall:      "Call",
	ExprBinary:    "Binary",
	ExprUnary:     "Unary",
	ExprBoolOp:    "BoolOp",
	ExprCompare:   "Compare",
	ExprIfExp:     "IfExp",
	ExprLambda:    "Lambda",
	ExprStarred:   "Starred",
	ExprNamed:     "Named",
	ExprAwait:     "Await",
	ExprYield:     "Yield",
	ExprYieldFrom: "YieldFrom",
}

func (k ExprKind) String() string {
	if int(k) < len(exprKindNames) {
		return exprKindNames[k]
	}
	return "ExprKind(?)"
}

// Expr is a single expression node. Field use depends on Kind:
//
//	Name       Text = identifier
//	Const      Text = "None" | "True" | "False" | "..."
//	literals   Text = source text (strings keep prefix and quotes; adjacent strings are joined by Parts)
//	Attribute  Left = value, Text = attribute, NameSpan = attribute span
//	Subscript  Left = value, Right = index
//	Slice      Left = lower, Right = upper, Cond = step (each may be absent)
//	Call       Left = callee, Elts = positional args, Keywords
//	Binary     Left Op Right; BoolOp: Op over Elts; Unary: Op Right
//	Compare    Left, Ops[i] applied to Elts[i]
//	IfExp      Left if Cond else Right
//	containers Elts (Dict: Keys/Elts, absent key = **spread)
//	comps      Left = element (DictComp: Left key, Right value), Comps
//	Lambda     Params, Left = body
//	Starred, Await, Yield, YieldFrom: Left = operand; Named: Left = target, Right = value
type Expr struct {
	Kind     ExprKind
	Span     source.Span
	Text     string
	NameSpan source.Span
	Op       string
	Ops      []string
	Left     ExprID
	Right    ExprID
	Cond     ExprID
	Elts     []ExprID
	Keys     []ExprID
	Keywords []Keyword
	Comps    []Comprehension
	Params   []ParamID
	Parts    []string
}

// Keyword is a call keyword argument. Name is empty for **kwargs spreading.
type Keyword struct {
	Name  string
	Span  source.Span
	Value ExprID
}

type Comprehension struct {
	Target ExprID
	Iter   ExprID
	Ifs    []ExprID
	Async  bool
}

// IsLiteral reports whether the expression is a constant or literal.
func (e *Expr) IsLiteral() bool {
	switch e.Kind {
	case ExprConst, ExprInt, ExprFloat, ExprImag, ExprString, ExprBytes, ExprFString:
		return true
	}
	return false
}

// IsNone reports whether the expression is the None constant.
func (e *Expr) IsNone() bool {
	return e != nil && e.Kind == ExprConst && e.Text == "None"
}
