package infer

import (
	"typeguard/internal/ast"
	"typeguard/internal/symbols"
	"typeguard/internal/types"
)

// callee is what a call expression invokes.
type callee struct {
	fn     ast.FuncID // local target, if any
	class  ast.ClassID
	qual   string // qualified name for imported targets
	offset int    // leading parameters bound implicitly (self, cls)
}

func (e *Engine) callSites() []ast.ExprID {
	e.index()
	return e.calls
}

// resolveCallee finds the function a call invokes: a local function, a local
// class constructor (its __init__), a method called through self, or an
// imported name.
func (e *Engine) resolveCallee(cid ast.ExprID) (callee, bool) {
	call := e.tree.Expr(cid)
	fn := e.tree.Expr(call.Left)
	if fn == nil {
		return callee{}, false
	}
	switch fn.Kind {
	case ast.ExprName:
		b, ok := e.sf.Lookup(e.sf.ScopeAt(fn.Span.Start), fn.Text)
		if !ok {
			return callee{}, false
		}
		switch b.Kind {
		case symbols.BindingFunction:
			return callee{fn: b.Func}, true
		case symbols.BindingClass:
			init := findMethod(e.tree, b.Class, "__init__")
			return callee{fn: init, class: b.Class, offset: 1}, true
		case symbols.BindingImport:
			return e.importedCallee(b.Import), true
		}
	case ast.ExprAttribute:
		recv := e.tree.Expr(fn.Left)
		if recv.Kind != ast.ExprName {
			return callee{}, false
		}
		if cls, ok := e.selfClass(fn.Left); ok {
			m := findMethod(e.tree, cls, fn.Text)
			if !m.IsValid() {
				return callee{}, false
			}
			return callee{fn: m, offset: methodOffset(e.tree, e.tree.Func(m))}, true
		}
		b, ok := e.sf.Lookup(e.sf.ScopeAt(recv.Span.Start), recv.Text)
		if ok && b.Kind == symbols.BindingImport {
			return e.importedCallee(b.Import + "." + fn.Text), true
		}
	}
	return callee{}, false
}

func (e *Engine) importedCallee(qual string) callee {
	if e.table != nil {
		if _, ok := e.table.Classes[qual]; ok {
			return callee{qual: qual + ".__init__", offset: 1}
		}
	}
	return callee{qual: qual}
}

// selfClass reports the enclosing class when id is the first parameter of a
// method (self or cls).
func (e *Engine) selfClass(id ast.ExprID) (ast.ClassID, bool) {
	x := e.tree.Expr(id)
	if x == nil || x.Kind != ast.ExprName {
		return ast.NoClassID, false
	}
	b, ok := e.sf.Lookup(e.sf.ScopeAt(x.Span.Start), x.Text)
	if !ok || b.Kind != symbols.BindingParameter || !b.Func.IsValid() {
		return ast.NoClassID, false
	}
	fn := e.tree.Func(b.Func)
	if !fn.Class.IsValid() || len(fn.Params) == 0 || fn.Params[0] != b.Param || isStatic(e.tree, fn) {
		return ast.NoClassID, false
	}
	return fn.Class, true
}

func findMethod(tree *ast.Tree, cid ast.ClassID, name string) ast.FuncID {
	cl := tree.Class(cid)
	if cl == nil {
		return ast.NoFuncID
	}
	for _, sid := range cl.Body {
		st := tree.Stmt(sid)
		if st.Kind == ast.StmtFunctionDef && tree.Func(st.Func).Name == name {
			return st.Func
		}
	}
	return ast.NoFuncID
}

func hasDecorator(tree *ast.Tree, fn *ast.FuncDef, name string) bool {
	for _, d := range fn.Decorators {
		if x := tree.Expr(d); x.Kind == ast.ExprName && x.Text == name {
			return true
		}
	}
	return false
}

func isStatic(tree *ast.Tree, fn *ast.FuncDef) bool {
	return hasDecorator(tree, fn, "staticmethod")
}

// methodOffset is the number of leading parameters a caller never passes.
func methodOffset(tree *ast.Tree, fn *ast.FuncDef) int {
	if fn.Class.IsValid() && !isStatic(tree, fn) && len(fn.Params) > 0 {
		return 1
	}
	return 0
}

// IsImplicitParam reports whether pid is the self or cls parameter of a method.
func IsImplicitParam(tree *ast.Tree, fn *ast.FuncDef, pid ast.ParamID) bool {
	return methodOffset(tree, fn) == 1 && fn.Params[0] == pid
}

// paramPosition returns the positional index of pid and its name.
func paramPosition(tree *ast.Tree, fn *ast.FuncDef, pid ast.ParamID) (int, string) {
	for i, id := range fn.Params {
		if id == pid {
			return i, tree.Param(id).Name
		}
	}
	return -1, ""
}

// matchArgument finds the argument a call passes for parameter pid.
func matchArgument(tree *ast.Tree, fn *ast.FuncDef, offset int, call *ast.Expr, pid ast.ParamID) (ast.ExprID, bool) {
	idx, name := paramPosition(tree, fn, pid)
	if idx < 0 {
		return ast.NoExprID, false
	}
	p := tree.Param(pid)
	if p.Kind != ast.ParamPositionalOnly && p.Kind != ast.ParamVarArgs && p.Kind != ast.ParamVarKwargs {
		for _, kw := range call.Keywords {
			if kw.Name == name {
				return kw.Value, true
			}
		}
	}
	if p.Kind != ast.ParamPositional && p.Kind != ast.ParamPositionalOnly {
		return ast.NoExprID, false
	}
	pos := idx - offset
	if pos < 0 || pos >= len(call.Elts) {
		return ast.NoExprID, false
	}
	for _, a := range call.Elts[:pos+1] {
		if tree.Expr(a).Kind == ast.ExprStarred {
			return ast.NoExprID, false
		}
	}
	return call.Elts[pos], true
}

// canFallOff reports whether control can reach the end of body.
func canFallOff(tree *ast.Tree, body []ast.StmtID) bool {
	if len(body) == 0 {
		return true
	}
	st := tree.Stmt(body[len(body)-1])
	switch st.Kind {
	case ast.StmtReturn, ast.StmtRaise:
		return false
	case ast.StmtIf:
		return len(st.Orelse) == 0 || canFallOff(tree, st.Body) || canFallOff(tree, st.Orelse)
	case ast.StmtWith:
		return canFallOff(tree, st.Body)
	case ast.StmtWhile:
		if t := tree.Expr(st.Test); t != nil && t.Kind == ast.ExprConst && t.Text == "True" {
			return hasBreak(tree, st.Body)
		}
		return true
	case ast.StmtTry:
		if len(st.Finally) > 0 && !canFallOff(tree, st.Finally) {
			return false
		}
		main := st.Body
		if len(st.Orelse) > 0 {
			main = st.Orelse
		}
		if canFallOff(tree, main) {
			return true
		}
		for _, h := range st.Handlers {
			if canFallOff(tree, h.Body) {
				return true
			}
		}
		return false
	}
	return true
}

// hasBreak looks for a break that leaves the enclosing loop.
func hasBreak(tree *ast.Tree, body []ast.StmtID) bool {
	for _, sid := range body {
		st := tree.Stmt(sid)
		switch st.Kind {
		case ast.StmtBreak:
			return true
		case ast.StmtFor, ast.StmtWhile:
			if hasBreak(tree, st.Orelse) {
				return true
			}
			continue
		case ast.StmtFunctionDef, ast.StmtClassDef:
			continue
		}
		for _, blk := range tree.Blocks(sid) {
			if hasBreak(tree, blk) {
				return true
			}
		}
	}
	return false
}

// elementOf returns the element type produced by iterating t.
func elementOf(t types.Expr) types.Expr {
	if t.Kind != types.KindNamed {
		return types.Unknown()
	}
	switch t.Name {
	case types.NameList, types.NameSet, types.NameFrozen, types.NameIter, types.NameDict:
		if len(t.Args) > 0 {
			return t.Args[0]
		}
	case types.NameTuple:
		return Elements(t.Args)
	case types.NameStr:
		return types.Named(types.NameStr)
	case types.NameBytes:
		return types.Named(types.NameInt)
	}
	return types.Unknown()
}
