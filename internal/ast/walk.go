package ast

// ExprChildren returns the direct sub-expressions of id in source order.
// Lambda bodies and comprehension parts are included.
func (t *Tree) ExprChildren(id ExprID) []ExprID {
	e := t.Expr(id)
	if e == nil {
		return nil
	}
	out := make([]ExprID, 0, 4)
	add := func(ids ...ExprID) {
		for _, c := range ids {
			if c.IsValid() {
				out = append(out, c)
			}
		}
	}
	switch e.Kind {
	case ExprCompare:
		add(e.Left)
		add(e.Elts...)
	case ExprDict:
		for i, v := range e.Elts {
			if i < len(e.Keys) {
				add(e.Keys[i])
			}
			add(v)
		}
	case ExprIfExp:
		add(e.Left, e.Cond, e.Right)
	case ExprLambda:
		for _, pid := range e.Params {
			add(t.Param(pid).Default)
		}
		add(e.Left)
	default:
		add(e.Left, e.Right, e.Cond)
		add(e.Keys...)
		add(e.Elts...)
	}
	for _, kw := range e.Keywords {
		add(kw.Value)
	}
	for _, c := range e.Comps {
		add(c.Iter, c.Target)
		add(c.Ifs...)
	}
	return out
}

// InspectExpr walks the expression tree rooted at id in depth-first order.
// If fn returns false the children of that node are skipped.
func (t *Tree) InspectExpr(id ExprID, fn func(ExprID, *Expr) bool) {
	e := t.Expr(id)
	if e == nil || !fn(id, e) {
		return
	}
	for _, c := range t.ExprChildren(id) {
		t.InspectExpr(c, fn)
	}
}

// StmtExprs returns the expressions owned directly by a statement (not by nested blocks).
func (t *Tree) StmtExprs(id StmtID) []ExprID {
	st := t.Stmt(id)
	out := make([]ExprID, 0, 4)
	add := func(ids ...ExprID) {
		for _, c := range ids {
			if c.IsValid() {
				out = append(out, c)
			}
		}
	}
	add(st.Targets...)
	add(st.Annotation, st.Value, st.Cause, st.Test, st.Iter)
	for _, it := range st.Items {
		add(it.Context, it.Target)
	}
	for _, h := range st.Handlers {
		add(h.Type)
	}
	if st.Kind == StmtFunctionDef {
		fn := t.Func(st.Func)
		add(fn.Decorators...)
		for _, pid := range fn.Params {
			p := t.Param(pid)
			add(p.Annotation, p.Default)
		}
		add(fn.Returns)
	}
	if st.Kind == StmtClassDef {
		cl := t.Class(st.Class)
		add(cl.Decorators...)
		add(cl.Bases...)
		for _, kw := range cl.Keywords {
			add(kw.Value)
		}
	}
	return out
}

// Blocks returns the nested statement lists of a statement, function and class bodies included.
func (t *Tree) Blocks(id StmtID) [][]StmtID {
	st := t.Stmt(id)
	blocks := [][]StmtID{st.Body, st.Orelse, st.Finally}
	for _, h := range st.Handlers {
		blocks = append(blocks, h.Body)
	}
	switch st.Kind {
	case StmtFunctionDef:
		blocks = append(blocks, t.Func(st.Func).Body)
	case StmtClassDef:
		blocks = append(blocks, t.Class(st.Class).Body)
	}
	return blocks
}

// InspectStmts walks statements depth-first. descend controls whether nested
// function and class bodies are entered.
func (t *Tree) InspectStmts(body []StmtID, descend bool, fn func(StmtID, *Stmt)) {
	for _, id := range body {
		st := t.Stmt(id)
		fn(id, st)
		if !descend && (st.Kind == StmtFunctionDef || st.Kind == StmtClassDef) {
			continue
		}
		for _, b := range t.Blocks(id) {
			t.InspectStmts(b, descend, fn)
		}
	}
}
