package infer

import (
	"fmt"

	"typeguard/internal/ast"
	"typeguard/internal/symbols"
	"typeguard/internal/types"
)

// Options configure an Engine.
type Options struct {
	MinConfidence float64
	Strict        bool
}

// Engine answers type questions about one SourceFile version. It is not safe for
// concurrent use; the driver creates one engine per file and iteration.
type Engine struct {
	sf    *symbols.SourceFile
	tree  *ast.Tree
	table *Table
	opts  Options

	indexed bool
	parents map[ast.ExprID]ast.ExprID
	stmtOf  map[ast.ExprID]ast.StmtID
	stores  map[ast.ExprID]ast.ExprID // assignment target -> value
	calls   []ast.ExprID
	names   map[string][]ast.ExprID

	params  map[ast.ParamID]Result
	returns map[ast.FuncID]Result
	vars    map[*symbols.Binding]Result
	busy    map[any]bool
	fresh   map[ast.FuncID][]string
}

// New creates an engine. table may be nil.
func New(sf *symbols.SourceFile, table *Table, opts Options) *Engine {
	if opts.MinConfidence <= 0 {
		opts.MinConfidence = DefaultMinConfidence
	}
	return &Engine{
		sf:      sf,
		tree:    sf.Tree,
		table:   table,
		opts:    opts,
		params:  make(map[ast.ParamID]Result),
		returns: make(map[ast.FuncID]Result),
		vars:    make(map[*symbols.Binding]Result),
		busy:    make(map[any]bool),
		fresh:   make(map[ast.FuncID][]string),
	}
}

// File returns the analyzed file.
func (e *Engine) File() *symbols.SourceFile {
	return e.sf
}

func (e *Engine) index() {
	if e.indexed {
		return
	}
	e.indexed = true
	e.parents = make(map[ast.ExprID]ast.ExprID)
	e.stmtOf = make(map[ast.ExprID]ast.StmtID)
	e.stores = make(map[ast.ExprID]ast.ExprID)
	e.names = make(map[string][]ast.ExprID)

	exprs := e.tree.Exprs.Slice()
	for i := range exprs {
		id := ast.ExprID(i + 1) // #nosec G115
		switch exprs[i].Kind {
		case ast.ExprCall:
			e.calls = append(e.calls, id)
		case ast.ExprName:
			e.names[exprs[i].Text] = append(e.names[exprs[i].Text], id)
		}
		for _, c := range e.tree.ExprChildren(id) {
			e.parents[c] = id
		}
	}
	e.tree.InspectStmts(e.tree.Body, true, func(sid ast.StmtID, st *ast.Stmt) {
		for _, root := range e.tree.StmtExprs(sid) {
			e.tree.InspectExpr(root, func(id ast.ExprID, _ *ast.Expr) bool {
				e.stmtOf[id] = sid
				return true
			})
		}
		if st.Kind == ast.StmtAssign || st.Kind == ast.StmtAnnAssign {
			for _, t := range st.Targets {
				e.stores[t] = st.Value
			}
		}
	})
}

// Parent returns the expression directly containing id.
func (e *Engine) Parent(id ast.ExprID) ast.ExprID {
	e.index()
	return e.parents[id]
}

// Statement returns the statement that owns expression id.
func (e *Engine) Statement(id ast.ExprID) ast.StmtID {
	e.index()
	return e.stmtOf[id]
}

// StoredValue returns the value assigned when id is an assignment target.
func (e *Engine) StoredValue(id ast.ExprID) (ast.ExprID, bool) {
	e.index()
	v, ok := e.stores[id]
	return v, ok
}

// References returns the Name expressions that resolve to b, in source order.
func (e *Engine) References(b *symbols.Binding) []ast.ExprID {
	e.index()
	var out []ast.ExprID
	for _, id := range e.names[b.Name] {
		ex := e.tree.Expr(id)
		if got, ok := e.sf.Lookup(e.sf.ScopeAt(ex.Span.Start), b.Name); ok && got == b {
			out = append(out, id)
		}
	}
	return out
}

// enter guards recursive queries; the returned func must be called when done.
func (e *Engine) enter(key any) (func(), bool) {
	if e.busy[key] {
		return nil, false
	}
	e.busy[key] = true
	return func() { delete(e.busy, key) }, true
}

func (e *Engine) resolveOptions(generic bool, fid ast.FuncID) ResolveOptions {
	opts := ResolveOptions{MinConfidence: e.opts.MinConfidence, Strict: e.opts.Strict}
	if generic {
		opts.Generic = true
		opts.Fresh = func(i int) string { return e.freshName(fid, i) }
	}
	return opts
}

var typeVarCandidates = []string{"T", "U", "V", "W"}

// freshName hands out type variable names per function, never reusing a
// module-level name that is not itself a TypeVar.
func (e *Engine) freshName(fid ast.FuncID, _ int) string {
	used := e.fresh[fid]
	taken := func(name string) bool {
		for _, u := range used {
			if u == name {
				return true
			}
		}
		if _, ok := e.sf.Scopes[0].Names[name]; ok && !e.sf.TypeVars[name] {
			return true
		}
		return false
	}
	name := ""
	for _, c := range typeVarCandidates {
		if !taken(c) {
			name = c
			break
		}
	}
	for n := 1; name == ""; n++ {
		if c := fmt.Sprintf("T%d", n); !taken(c) {
			name = c
		}
	}
	e.fresh[fid] = append(used, name)
	return name
}

// Param infers the type of an unannotated parameter.
func (e *Engine) Param(fid ast.FuncID, pid ast.ParamID) Result {
	if r, ok := e.params[pid]; ok {
		return r
	}
	leave, ok := e.enter(pid)
	if !ok {
		return Result{Type: types.Unknown(), Reason: ReasonNoEvidence}
	}
	defer leave()

	p := e.tree.Param(pid)
	fn := e.tree.Func(fid)
	var set EvidenceSet
	if p.Default.IsValid() {
		set.Add(SourceLiteral, e.TypeOf(p.Default), e.tree.Expr(p.Default).Span)
	}
	for _, cid := range e.callSites() {
		call := e.tree.Expr(cid)
		tgt, ok := e.resolveCallee(cid)
		if !ok || tgt.fn != fid {
			continue
		}
		if arg, ok := matchArgument(e.tree, fn, tgt.offset, call, pid); ok {
			set.Add(SourceCallArgument, e.TypeOf(arg), e.tree.Expr(arg).Span)
		}
	}
	if e.table != nil {
		idx, name := paramPosition(e.tree, fn, pid)
		offset := methodOffset(e.tree, fn)
		for _, rec := range e.table.CallsTo(e.sf.QualifiedName(fid), e.sf.Path) {
			if t, ok := rec.Argument(idx-offset, name, p.Kind); ok {
				set.Add(SourceCallArgument, t, p.NameSpan)
			}
		}
	}
	if b, ok := e.sf.ParamBinding(fid, p.Name); ok {
		e.usageEvidence(b, &set, true)
	}
	r := Resolve(&set, e.resolveOptions(true, fid))
	e.params[pid] = r
	return r
}

// Return infers the return type of a function from its exit points.
func (e *Engine) Return(fid ast.FuncID) Result {
	if r, ok := e.returns[fid]; ok {
		return r
	}
	leave, ok := e.enter(fid)
	if !ok {
		return Result{Type: types.Unknown(), Reason: ReasonNoEvidence}
	}
	defer leave()

	fn := e.tree.Func(fid)
	var (
		set    EvidenceSet
		yields []types.Expr
	)
	e.tree.InspectStmts(fn.Body, false, func(sid ast.StmtID, st *ast.Stmt) {
		if st.Kind == ast.StmtReturn {
			if st.Value.IsValid() {
				set.Add(SourceReturnValue, e.TypeOf(st.Value), e.tree.Expr(st.Value).Span)
			} else {
				set.Add(SourceReturnValue, types.None(), st.Span)
			}
		}
		if st.Kind == ast.StmtFunctionDef || st.Kind == ast.StmtClassDef {
			return
		}
		for _, root := range e.tree.StmtExprs(sid) {
			e.tree.InspectExpr(root, func(_ ast.ExprID, x *ast.Expr) bool {
				switch x.Kind {
				case ast.ExprLambda:
					return false
				case ast.ExprYield:
					if x.Left.IsValid() {
						yields = append(yields, e.TypeOf(x.Left))
					} else {
						yields = append(yields, types.None())
					}
				case ast.ExprYieldFrom:
					yields = append(yields, elementOf(e.TypeOf(x.Left)))
				}
				return true
			})
		}
	})

	var r Result
	if yields != nil {
		var gen EvidenceSet
		gen.Add(SourceReturnValue, types.Named(types.NameIter, Elements(yields)), fn.NameSpan)
		r = Resolve(&gen, e.resolveOptions(false, fid))
	} else {
		if canFallOff(e.tree, fn.Body) {
			set.Add(SourceReturnValue, types.None(), fn.Span)
		}
		r = Resolve(&set, e.resolveOptions(false, fid))
	}
	if r.OK() {
		bound := e.boundTypeVars(fid)
		for _, tv := range r.Type.TypeVars() {
			if !bound[tv] {
				r.Reason = ReasonUnsupported
				break
			}
		}
	}
	e.returns[fid] = r
	return r
}

// boundTypeVars are the type variables a function's parameters introduce.
func (e *Engine) boundTypeVars(fid ast.FuncID) map[string]bool {
	out := map[string]bool{}
	fn := e.tree.Func(fid)
	for _, pid := range fn.Params {
		p := e.tree.Param(pid)
		var t types.Expr
		if p.Annotation.IsValid() {
			t = types.FromAnnotation(e.tree, p.Annotation, e.sf)
		} else if r := e.Param(fid, pid); r.OK() {
			t = r.Type
		}
		for _, tv := range t.TypeVars() {
			out[tv] = true
		}
	}
	return out
}

// Variable infers the type of an assigned name. hints are types the checker
// itself suggested.
func (e *Engine) Variable(b *symbols.Binding, hints ...types.Expr) Result {
	if len(hints) == 0 {
		if r, ok := e.vars[b]; ok {
			return r
		}
	}
	leave, ok := e.enter(b)
	if !ok {
		return Result{Type: types.Unknown(), Reason: ReasonNoEvidence}
	}
	defer leave()

	var set EvidenceSet
	for _, site := range b.Sites {
		if site.Value.IsValid() {
			set.Add(SourceLiteral, e.TypeOf(site.Value), e.tree.Expr(site.Value).Span)
			continue
		}
		if !site.Stmt.IsValid() {
			continue
		}
		if st := e.tree.Stmt(site.Stmt); st.Kind == ast.StmtFor && len(st.Targets) == 1 && st.Targets[0] == site.Target {
			set.Add(SourceLiteral, elementOf(e.TypeOf(st.Iter)), e.tree.Expr(site.Target).Span)
		}
	}
	e.usageEvidence(b, &set, false)
	for _, h := range hints {
		set.Add(SourceReported, h, b.Span)
	}
	r := Resolve(&set, e.resolveOptions(false, ast.NoFuncID))
	if len(hints) == 0 {
		e.vars[b] = r
	}
	return r
}

// ResolveEvidence resolves a caller-built evidence set with this engine's options.
func (e *Engine) ResolveEvidence(set *EvidenceSet) Result {
	return Resolve(set, e.resolveOptions(false, ast.NoFuncID))
}
