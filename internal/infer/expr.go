package infer

import (
	"typeguard/internal/ast"
	"typeguard/internal/symbols"
	"typeguard/internal/types"
)

// TypeOf computes the static type of an expression, Unknown when it cannot tell.
func (e *Engine) TypeOf(id ast.ExprID) types.Expr {
	x := e.tree.Expr(id)
	if x == nil {
		return types.Unknown()
	}
	switch x.Kind {
	case ast.ExprInt:
		return types.Named(types.NameInt)
	case ast.ExprFloat:
		return types.Named(types.NameFloat)
	case ast.ExprImag:
		return types.Named(types.NameComplex)
	case ast.ExprString, ast.ExprFString:
		return types.Named(types.NameStr)
	case ast.ExprBytes:
		return types.Named(types.NameBytes)
	case ast.ExprConst:
		switch x.Text {
		case "None":
			return types.None()
		case "True", "False":
			return types.Named(types.NameBool)
		}
	case ast.ExprName:
		return e.nameType(x)
	case ast.ExprList:
		return types.Named(types.NameList, e.elements(x.Elts))
	case ast.ExprSet:
		return types.Named(types.NameSet, e.elements(x.Elts))
	case ast.ExprTuple:
		args := make([]types.Expr, 0, len(x.Elts))
		for _, el := range x.Elts {
			if e.tree.Expr(el).Kind == ast.ExprStarred {
				return types.Unknown()
			}
			args = append(args, e.TypeOf(el))
		}
		return types.Named(types.NameTuple, args...)
	case ast.ExprDict:
		keys := make([]types.Expr, 0, len(x.Keys))
		vals := make([]types.Expr, 0, len(x.Elts))
		for i, v := range x.Elts {
			if i >= len(x.Keys) || !x.Keys[i].IsValid() {
				return types.Named(types.NameDict, types.Unknown(), types.Unknown())
			}
			keys = append(keys, e.TypeOf(x.Keys[i]))
			vals = append(vals, e.TypeOf(v))
		}
		return types.Named(types.NameDict, Elements(keys), Elements(vals))
	case ast.ExprListComp:
		return types.Named(types.NameList, e.TypeOf(x.Left))
	case ast.ExprSetComp:
		return types.Named(types.NameSet, e.TypeOf(x.Left))
	case ast.ExprDictComp:
		return types.Named(types.NameDict, e.TypeOf(x.Left), e.TypeOf(x.Right))
	case ast.ExprGenerator:
		return types.Named(types.NameIter, e.TypeOf(x.Left))
	case ast.ExprCall:
		return e.callType(id, x)
	case ast.ExprBinary:
		return binaryType(x.Op, e.TypeOf(x.Left), e.TypeOf(x.Right))
	case ast.ExprUnary:
		operand := e.TypeOf(x.Right)
		if x.Op == "not" {
			return types.Named(types.NameBool)
		}
		if operand.Numeric() {
			if operand.Name == types.NameBool {
				return types.Named(types.NameInt)
			}
			return operand
		}
	case ast.ExprCompare:
		return types.Named(types.NameBool)
	case ast.ExprBoolOp:
		parts := make([]types.Expr, 0, len(x.Elts))
		for _, el := range x.Elts {
			t := e.TypeOf(el)
			if t.IsUnknown() {
				return types.Unknown()
			}
			parts = append(parts, t)
		}
		return Elements(parts)
	case ast.ExprIfExp:
		l, r := e.TypeOf(x.Left), e.TypeOf(x.Right)
		if l.IsUnknown() || r.IsUnknown() {
			return types.Unknown()
		}
		return Elements([]types.Expr{l, r})
	case ast.ExprSubscript:
		return e.subscriptType(x)
	case ast.ExprNamed:
		return e.TypeOf(x.Right)
	case ast.ExprLambda:
		return types.Named(types.NameCall)
	}
	return types.Unknown()
}

func (e *Engine) elements(ids []ast.ExprID) types.Expr {
	ts := make([]types.Expr, 0, len(ids))
	for _, id := range ids {
		if e.tree.Expr(id).Kind == ast.ExprStarred {
			return types.Unknown()
		}
		ts = append(ts, e.TypeOf(id))
	}
	return Elements(ts)
}

func (e *Engine) nameType(x *ast.Expr) types.Expr {
	b, ok := e.sf.Lookup(e.sf.ScopeAt(x.Span.Start), x.Text)
	if !ok {
		return types.Unknown()
	}
	if b.Declared != nil {
		return *b.Declared
	}
	switch b.Kind {
	case symbols.BindingParameter:
		if !b.Func.IsValid() {
			return types.Unknown()
		}
		fn := e.tree.Func(b.Func)
		if IsImplicitParam(e.tree, fn, b.Param) {
			if hasDecorator(e.tree, fn, "classmethod") {
				return types.Named(types.NameType, e.classType(fn.Class))
			}
			return e.classType(fn.Class)
		}
		if r := e.Param(b.Func, b.Param); r.OK() {
			return r.Type
		}
	case symbols.BindingVariable:
		if r := e.Variable(b); r.OK() {
			return r.Type
		}
	case symbols.BindingFunction:
		return types.Named(types.NameCall)
	case symbols.BindingClass:
		return types.Named(types.NameType, e.classType(b.Class))
	case symbols.BindingImport:
		if e.table != nil {
			if c, ok := e.table.Classes[b.Import]; ok {
				return types.Named(types.NameType, c)
			}
		}
	}
	return types.Unknown()
}

func (e *Engine) classType(cid ast.ClassID) types.Expr {
	return types.Class(e.tree.Class(cid).Name, e.sf.Module)
}

var builtinReturns = map[string]string{
	"int": types.NameInt, "float": types.NameFloat, "complex": types.NameComplex,
	"str": types.NameStr, "bool": types.NameBool, "bytes": types.NameBytes,
	"len": types.NameInt, "ord": types.NameInt, "hash": types.NameInt, "id": types.NameInt,
	"repr": types.NameStr, "chr": types.NameStr, "input": types.NameStr, "format": types.NameStr,
	"isinstance": types.NameBool, "issubclass": types.NameBool, "callable": types.NameBool,
	"any": types.NameBool, "all": types.NameBool, "hasattr": types.NameBool,
}

func (e *Engine) callType(id ast.ExprID, call *ast.Expr) types.Expr {
	fn := e.tree.Expr(call.Left)
	if fn.Kind == ast.ExprName {
		if _, bound := e.sf.Lookup(e.sf.ScopeAt(fn.Span.Start), fn.Text); !bound {
			return e.builtinCall(fn.Text, call)
		}
	}
	if fn.Kind == ast.ExprAttribute {
		if _, isSelf := e.selfClass(fn.Left); !isSelf {
			if t := e.methodType(e.TypeOf(fn.Left), fn.Text, call); !t.IsUnknown() {
				return t
			}
		}
	}
	tgt, ok := e.resolveCallee(id)
	if !ok {
		return types.Unknown()
	}
	if tgt.class.IsValid() {
		return e.classType(tgt.class)
	}
	if tgt.fn.IsValid() {
		f := e.tree.Func(tgt.fn)
		if f.Returns.IsValid() {
			return types.FromAnnotation(e.tree, f.Returns, e.sf)
		}
		if r := e.Return(tgt.fn); r.OK() && len(r.Type.TypeVars()) == 0 {
			return r.Type
		}
		return types.Unknown()
	}
	if e.table != nil && tgt.qual != "" {
		return e.table.ReturnOf(tgt.qual)
	}
	return types.Unknown()
}

func (e *Engine) builtinCall(name string, call *ast.Expr) types.Expr {
	if r, ok := builtinReturns[name]; ok {
		return types.Named(r)
	}
	var first types.Expr
	if len(call.Elts) > 0 {
		first = e.TypeOf(call.Elts[0])
	} else {
		first = types.Unknown()
	}
	switch name {
	case "list", "sorted":
		return types.Named(types.NameList, elementOf(first))
	case "set":
		return types.Named(types.NameSet, elementOf(first))
	case "frozenset":
		return types.Named(types.NameFrozen, elementOf(first))
	case "dict":
		if first.Kind == types.KindNamed && first.Name == types.NameDict {
			return first
		}
		return types.Named(types.NameDict, types.Unknown(), types.Unknown())
	case "abs":
		if first.Numeric() {
			return first
		}
	case "round":
		if len(call.Elts) == 1 {
			return types.Named(types.NameInt)
		}
		return types.Named(types.NameFloat)
	case "min", "max":
		if len(call.Elts) == 1 {
			return elementOf(first)
		}
		return e.elements(call.Elts)
	case "sum":
		if el := elementOf(first); el.Numeric() {
			return el
		}
		return types.Named(types.NameInt)
	}
	return types.Unknown()
}

var strMethods = map[string]types.Expr{
	"lower": types.Named(types.NameStr), "upper": types.Named(types.NameStr),
	"strip": types.Named(types.NameStr), "lstrip": types.Named(types.NameStr),
	"rstrip": types.Named(types.NameStr), "title": types.Named(types.NameStr),
	"capitalize": types.Named(types.NameStr), "casefold": types.Named(types.NameStr),
	"replace": types.Named(types.NameStr), "format": types.Named(types.NameStr),
	"join": types.Named(types.NameStr), "zfill": types.Named(types.NameStr),
	"center": types.Named(types.NameStr), "ljust": types.Named(types.NameStr),
	"rjust": types.Named(types.NameStr),
	"split": types.Named(types.NameList, types.Named(types.NameStr)),
	"rsplit": types.Named(types.NameList, types.Named(types.NameStr)),
	"splitlines": types.Named(types.NameList, types.Named(types.NameStr)),
	"startswith": types.Named(types.NameBool), "endswith": types.Named(types.NameBool),
	"isdigit": types.Named(types.NameBool), "isalpha": types.Named(types.NameBool),
	"isspace": types.Named(types.NameBool), "isupper": types.Named(types.NameBool),
	"islower": types.Named(types.NameBool),
	"find": types.Named(types.NameInt), "rfind": types.Named(types.NameInt),
	"index": types.Named(types.NameInt), "count": types.Named(types.NameInt),
	"encode": types.Named(types.NameBytes),
}

// methodType types a method call on a receiver of known type.
func (e *Engine) methodType(recv types.Expr, name string, call *ast.Expr) types.Expr {
	if recv.Kind != types.KindNamed || recv.Module != "" {
		return types.Unknown()
	}
	switch recv.Name {
	case types.NameStr:
		if t, ok := strMethods[name]; ok {
			return t
		}
	case types.NameBytes:
		if name == "decode" {
			return types.Named(types.NameStr)
		}
	case types.NameList:
		switch name {
		case "pop":
			return elementOf(recv)
		case "copy":
			return recv
		case "index", "count":
			return types.Named(types.NameInt)
		}
	case types.NameDict:
		if len(recv.Args) != 2 {
			return types.Unknown()
		}
		switch name {
		case "get":
			if len(call.Elts) >= 2 {
				return Elements([]types.Expr{recv.Args[1], e.TypeOf(call.Elts[1])})
			}
			return types.Optional(recv.Args[1])
		case "pop", "setdefault":
			return recv.Args[1]
		case "copy":
			return recv
		}
	case types.NameSet:
		if name == "copy" || name == "union" || name == "difference" || name == "intersection" {
			return recv
		}
	}
	return types.Unknown()
}

func (e *Engine) subscriptType(x *ast.Expr) types.Expr {
	base := e.TypeOf(x.Left)
	idx := e.tree.Expr(x.Right)
	if base.Kind != types.KindNamed || base.Module != "" || idx == nil {
		return types.Unknown()
	}
	if idx.Kind == ast.ExprSlice {
		switch base.Name {
		case types.NameList, types.NameStr, types.NameBytes:
			return base
		}
		return types.Unknown()
	}
	switch base.Name {
	case types.NameList:
		return elementOf(base)
	case types.NameDict:
		if len(base.Args) == 2 {
			return base.Args[1]
		}
	case types.NameStr:
		return base
	case types.NameBytes:
		return types.Named(types.NameInt)
	case types.NameTuple:
		if idx.Kind == ast.ExprInt {
			if n, ok := smallInt(idx.Text); ok && n < len(base.Args) {
				return base.Args[n]
			}
		}
	}
	return types.Unknown()
}

func smallInt(text string) (int, bool) {
	n := 0
	if text == "" || len(text) > 6 {
		return 0, false
	}
	for _, c := range text {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

// binaryType applies Python's arithmetic result rules to known operand types.
func binaryType(op string, l, r types.Expr) types.Expr {
	if l.IsUnknown() || r.IsUnknown() {
		return types.Unknown()
	}
	if l.Numeric() && r.Numeric() {
		j, _ := types.Join(l, r)
		if j.Name == types.NameBool && op != "&" && op != "|" && op != "^" {
			j = types.Named(types.NameInt)
		}
		switch op {
		case "/":
			if j.Name == types.NameComplex {
				return j
			}
			return types.Named(types.NameFloat)
		case "+", "-", "*", "**", "%", "//", "&", "|", "^", "<<", ">>":
			return j
		}
		return types.Unknown()
	}
	isStr := func(t types.Expr) bool { return t.Kind == types.KindNamed && (t.Name == types.NameStr || t.Name == types.NameBytes) && t.Module == "" }
	switch op {
	case "+":
		if isStr(l) && l.Equal(r) {
			return l
		}
		if l.Kind == types.KindNamed && r.Kind == types.KindNamed && l.Name == types.NameList && r.Name == types.NameList {
			if j, ok := types.Join(l, r); ok {
				return j
			}
		}
	case "*":
		if (isStr(l) || (l.Kind == types.KindNamed && l.Name == types.NameList)) && r.Name == types.NameInt {
			return l
		}
		if (isStr(r) || (r.Kind == types.KindNamed && r.Name == types.NameList)) && l.Name == types.NameInt {
			return r
		}
	case "%":
		if isStr(l) {
			return l
		}
	case "|", "&", "-", "^":
		if l.Kind == types.KindNamed && l.Name == types.NameSet && r.Kind == types.KindNamed && r.Name == types.NameSet {
			if j, ok := types.Join(l, r); ok {
				return j
			}
		}
	}
	return types.Unknown()
}
