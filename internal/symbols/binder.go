package symbols

import (
	"strings"

	"typeguard/internal/ast"
	"typeguard/internal/source"
	"typeguard/internal/types"
)

type binder struct {
	sf   *SourceFile
	tree *ast.Tree
}

func newBinder(sf *SourceFile) *binder {
	return &binder{sf: sf, tree: sf.Tree}
}

func (b *binder) bindModule() {
	file := b.sf.File
	b.sf.Scopes = append(b.sf.Scopes, Scope{
		Kind:  ScopeModule,
		Span:  source.Span{File: file.ID, Start: 0, End: file.Size() + 1},
		Names: make(map[string]*Binding),
	})
	b.prepass()
	b.bindBlock(0, b.tree.Body)
}

// prepass records module-level classes and TypeVars before any annotation is read,
// so forward references resolve.
func (b *binder) prepass() {
	for _, id := range b.tree.Body {
		st := b.tree.Stmt(id)
		switch st.Kind {
		case ast.StmtClassDef:
			cl := b.tree.Class(st.Class)
			b.sf.Classes[cl.Name] = st.Class
		case ast.StmtFunctionDef:
			fn := b.tree.Func(st.Func)
			b.sf.Functions[fn.Name] = st.Func
		case ast.StmtAssign:
			if len(st.Targets) != 1 || !isTypeVarCall(b.tree, st.Value) {
				continue
			}
			if target := b.tree.Expr(st.Targets[0]); target.Kind == ast.ExprName {
				b.sf.TypeVars[target.Text] = true
			}
		}
	}
}

func isTypeVarCall(tree *ast.Tree, id ast.ExprID) bool {
	e := tree.Expr(id)
	if e == nil || e.Kind != ast.ExprCall {
		return false
	}
	callee := tree.Expr(e.Left)
	return (callee.Kind == ast.ExprName || callee.Kind == ast.ExprAttribute) && callee.Text == "TypeVar"
}

func (b *binder) newScope(kind ScopeKind, parent ScopeID, span source.Span) ScopeID {
	id := ScopeID(len(b.sf.Scopes)) // #nosec G115
	b.sf.Scopes = append(b.sf.Scopes, Scope{
		Kind:   kind,
		Parent: parent,
		Span:   span,
		Names:  make(map[string]*Binding),
	})
	b.sf.Scopes[parent].Children = append(b.sf.Scopes[parent].Children, id)
	return id
}

// owner returns the scope a name assigned in scope actually lives in.
func (b *binder) owner(scope ScopeID, name string) ScopeID {
	isGlobal, ok := b.sf.Scopes[scope].Globals[name]
	if !ok {
		return scope
	}
	if isGlobal {
		return 0
	}
	for id := b.sf.Scopes[scope].Parent; id != 0; id = b.sf.Scopes[id].Parent {
		if sc := &b.sf.Scopes[id]; sc.Kind == ScopeFunction {
			if _, found := sc.Names[name]; found {
				return id
			}
		}
	}
	return scope
}

func (b *binder) declare(scope ScopeID, name string, kind BindingKind, span source.Span) *Binding {
	target := b.owner(scope, name)
	sc := &b.sf.Scopes[target]
	if existing, ok := sc.Names[name]; ok {
		return existing
	}
	bd := &Binding{Name: name, Kind: kind, Scope: target, Span: span}
	sc.Names[name] = bd
	sc.Order = append(sc.Order, name)
	return bd
}

func (b *binder) annotation(id ast.ExprID) *types.Expr {
	if !id.IsValid() {
		return nil
	}
	t := types.FromAnnotation(b.tree, id, b.sf)
	return &t
}

func (b *binder) bindBlock(scope ScopeID, body []ast.StmtID) {
	for _, sid := range body {
		b.bindStmt(scope, sid)
	}
}

func (b *binder) bindStmt(scope ScopeID, sid ast.StmtID) {
	st := b.tree.Stmt(sid)
	switch st.Kind {
	case ast.StmtFunctionDef:
		b.bindFunc(scope, st.Func)
		return
	case ast.StmtClassDef:
		b.bindClass(scope, st.Class)
		return
	case ast.StmtGlobal, ast.StmtNonlocal:
		sc := &b.sf.Scopes[scope]
		if sc.Globals == nil {
			sc.Globals = make(map[string]bool)
		}
		for _, name := range st.Idents {
			sc.Globals[name] = st.Kind == ast.StmtGlobal
		}
	case ast.StmtAssign:
		for _, target := range st.Targets {
			b.bindTarget(scope, sid, target, st.Value)
		}
	case ast.StmtAnnAssign:
		b.bindTarget(scope, sid, st.Targets[0], st.Value)
		if target := b.tree.Expr(st.Targets[0]); target.Kind == ast.ExprName {
			if bd, ok := b.sf.Scopes[b.owner(scope, target.Text)].Names[target.Text]; ok && bd.Declared == nil {
				bd.Declared = b.annotation(st.Annotation)
			}
		}
	case ast.StmtAugAssign, ast.StmtFor:
		b.bindTarget(scope, sid, st.Targets[0], ast.NoExprID)
	case ast.StmtWith:
		for _, item := range st.Items {
			if item.Target.IsValid() {
				b.bindTarget(scope, sid, item.Target, ast.NoExprID)
			}
		}
	case ast.StmtImport:
		for _, alias := range st.Names {
			local, target := alias.AsName, alias.Name
			if local == "" {
				local = strings.SplitN(alias.Name, ".", 2)[0]
				target = local
			}
			bd := b.declare(scope, local, BindingImport, alias.Span)
			bd.Import = target
			if scope == 0 {
				b.sf.Imports[local] = target
			}
		}
	case ast.StmtImportFrom:
		base := ResolveRelative(b.sf.Module, b.sf.IsPackage, st.Level, st.Module)
		for _, alias := range st.Names {
			if alias.Name == "*" {
				continue
			}
			bd := b.declare(scope, alias.Bound(), BindingImport, alias.Span)
			bd.Import = joinModule(base, alias.Name)
			if scope == 0 {
				b.sf.Imports[alias.Bound()] = bd.Import
			}
		}
	}

	for _, h := range st.Handlers {
		if h.Name != "" {
			bd := b.declare(scope, h.Name, BindingVariable, h.Span)
			bd.Sites = append(bd.Sites, Site{Stmt: sid})
		}
	}
	b.bindExprs(scope, b.tree.StmtExprs(sid))
	for _, block := range b.tree.Blocks(sid) {
		b.bindBlock(scope, block)
	}
}

func (b *binder) bindFunc(scope ScopeID, fid ast.FuncID) {
	fn := b.tree.Func(fid)
	bd := b.declare(scope, fn.Name, BindingFunction, fn.NameSpan)
	bd.Func = fid

	for _, d := range fn.Decorators {
		b.bindExprs(scope, []ast.ExprID{d})
	}
	fs := b.newScope(ScopeFunction, scope, fn.Span)
	b.sf.Scopes[fs].Func = fid
	b.sf.funcScopes[fid] = fs

	for _, pid := range fn.Params {
		p := b.tree.Param(pid)
		if p.Default.IsValid() {
			b.bindExprs(scope, []ast.ExprID{p.Default})
		}
		pb := b.declare(fs, p.Name, BindingParameter, p.NameSpan)
		pb.Param = pid
		pb.Func = fid
		pb.Declared = b.annotation(p.Annotation)
	}
	rb := b.declare(fs, ReturnName, BindingReturn, fn.NameSpan)
	rb.Func = fid
	rb.Declared = b.annotation(fn.Returns)

	b.bindBlock(fs, fn.Body)
}

func (b *binder) bindClass(scope ScopeID, cid ast.ClassID) {
	cl := b.tree.Class(cid)
	bd := b.declare(scope, cl.Name, BindingClass, cl.NameSpan)
	bd.Class = cid
	b.bindExprs(scope, cl.Decorators)
	b.bindExprs(scope, cl.Bases)

	cs := b.newScope(ScopeClass, scope, cl.Span)
	b.sf.Scopes[cs].Class = cid
	b.sf.classScopes[cid] = cs
	b.bindBlock(cs, cl.Body)
}

// bindTarget binds every name in an assignment target. When value is a tuple or
// list literal of the same length as a tuple target, elements are paired.
func (b *binder) bindTarget(scope ScopeID, sid ast.StmtID, target, value ast.ExprID) {
	e := b.tree.Expr(target)
	switch e.Kind {
	case ast.ExprName:
		bd := b.declare(scope, e.Text, BindingVariable, e.Span)
		bd.Sites = append(bd.Sites, Site{Stmt: sid, Target: target, Value: value})
	case ast.ExprTuple, ast.ExprList:
		var values []ast.ExprID
		if v := b.tree.Expr(value); v != nil && (v.Kind == ast.ExprTuple || v.Kind == ast.ExprList) && len(v.Elts) == len(e.Elts) {
			values = v.Elts
		}
		for i, el := range e.Elts {
			var paired ast.ExprID
			if values != nil && b.tree.Expr(values[i]).Kind != ast.ExprStarred {
				paired = values[i]
			}
			b.bindTarget(scope, sid, el, paired)
		}
	case ast.ExprStarred:
		b.bindTarget(scope, sid, e.Left, ast.NoExprID)
	}
}

// bindExprs handles scopes and bindings created inside expressions:
// lambdas, comprehensions and walrus targets.
func (b *binder) bindExprs(scope ScopeID, ids []ast.ExprID) {
	for _, id := range ids {
		b.bindExpr(scope, id)
	}
}

func (b *binder) bindExpr(scope ScopeID, id ast.ExprID) {
	e := b.tree.Expr(id)
	if e == nil {
		return
	}
	switch e.Kind {
	case ast.ExprLambda:
		ls := b.newScope(ScopeLambda, scope, e.Span)
		for _, pid := range e.Params {
			p := b.tree.Param(pid)
			b.bindExprs(scope, []ast.ExprID{p.Default})
			pb := b.declare(ls, p.Name, BindingParameter, p.NameSpan)
			pb.Param = pid
		}
		b.bindExpr(ls, e.Left)
		return
	case ast.ExprListComp, ast.ExprSetComp, ast.ExprDictComp, ast.ExprGenerator:
		cs := b.newScope(ScopeComprehension, scope, e.Span)
		for i, c := range e.Comps {
			// the first iterable is evaluated in the enclosing scope
			if i == 0 {
				b.bindExpr(scope, c.Iter)
			} else {
				b.bindExpr(cs, c.Iter)
			}
			b.bindTarget(cs, ast.NoStmtID, c.Target, ast.NoExprID)
			b.bindExprs(cs, c.Ifs)
		}
		b.bindExpr(cs, e.Left)
		b.bindExpr(cs, e.Right)
		return
	case ast.ExprNamed:
		target := scope
		for b.sf.Scopes[target].Kind == ScopeComprehension {
			target = b.sf.Scopes[target].Parent
		}
		name := b.tree.Expr(e.Left)
		bd := b.declare(target, name.Text, BindingVariable, name.Span)
		bd.Sites = append(bd.Sites, Site{Target: e.Left, Value: e.Right})
	}
	for _, c := range b.tree.ExprChildren(id) {
		b.bindExpr(scope, c)
	}
}
