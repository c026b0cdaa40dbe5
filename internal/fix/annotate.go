package fix

import (
	"fmt"
	"strings"

	"typeguard/internal/ast"
	"typeguard/internal/diag"
	"typeguard/internal/infer"
	"typeguard/internal/source"
	"typeguard/internal/types"
)

// container annotates `x = []` style assignments the checker could not type.
func (s *synthesizer) container(d diag.Diagnostic) ([]Proposal, infer.Reason, string) {
	quoted := diag.Quoted(d.Message)
	if len(quoted) == 0 {
		return nil, infer.ReasonUnlocated, "no variable name in message"
	}
	name := quoted[0]
	var hints []types.Expr
	if len(quoted) > 1 {
		if h, ok := hintType(quoted[1], s.sf); ok {
			hints = append(hints, h)
		}
	}

	sid, target, ok := s.assignOnLine(d.Line, name)
	if !ok {
		return nil, infer.ReasonUnlocated, fmt.Sprintf("no assignment to %s on line %d", name, d.Line)
	}
	st := s.tree.Stmt(sid)
	tx := s.tree.Expr(target)

	var r infer.Result
	switch tx.Kind {
	case ast.ExprName:
		b, found := s.sf.Lookup(s.sf.ScopeAt(tx.Span.Start), tx.Text)
		if !found {
			return nil, infer.ReasonUnlocated, "unbound name " + tx.Text
		}
		r = s.eng.Variable(b, hints...)
	default:
		var set infer.EvidenceSet
		set.Add(infer.SourceLiteral, s.eng.TypeOf(st.Value), s.tree.Expr(st.Value).Span)
		for _, h := range hints {
			set.Add(infer.SourceReported, h, tx.Span)
		}
		r = s.eng.ResolveEvidence(&set)
	}
	if !r.OK() {
		return nil, r.Reason, name + ": " + r.Type.String()
	}
	text, ok := s.render(r.Type, st.Span.Start)
	if !ok {
		return nil, infer.ReasonUnsupported, name + ": " + r.Type.String()
	}
	at := source.Span{File: s.file.ID, Start: tx.Span.End, End: tx.Span.End}
	prop := newProposal(s.file, at, st.Span, ": "+text)
	s.fill(&prop, r, fmt.Sprintf("%s|var|%d|%s|%s", s.file.Path, d.Line, s.tree.Text(target), text))
	prop.Title = fmt.Sprintf("annotate %s: %s", s.tree.Text(target), text)
	return []Proposal{prop}, infer.ReasonNone, ""
}

// hintType extracts the type from a checker hint like `items: List[<type>] = ...`.
func hintType(hint string, res types.Resolver) (types.Expr, bool) {
	_, rest, ok := strings.Cut(hint, ": ")
	if !ok {
		return types.Expr{}, false
	}
	text, _, _ := strings.Cut(rest, " = ")
	t, ok := types.ParseString(text, res)
	if !ok || t.IsUnknown() {
		return types.Expr{}, false
	}
	return t, true
}

// assignOnLine finds a single-target plain assignment to name (or to
// `obj.name`) starting on line.
func (s *synthesizer) assignOnLine(line uint32, name string) (ast.StmtID, ast.ExprID, bool) {
	stmts := s.tree.Stmts.Slice()
	for i := range stmts {
		st := &stmts[i]
		if st.Kind != ast.StmtAssign || len(st.Targets) != 1 || s.sf.Line(st.Span.Start) != line {
			continue
		}
		tx := s.tree.Expr(st.Targets[0])
		switch {
		case tx.Kind == ast.ExprName && tx.Text == name:
		case tx.Kind == ast.ExprAttribute && (tx.Text == name || s.tree.Text(st.Targets[0]) == name):
		default:
			continue
		}
		return ast.StmtID(i + 1), st.Targets[0], true // #nosec G115
	}
	return ast.NoStmtID, ast.NoExprID, false
}

// generic fills in the type arguments of a bare `List`/`Dict`/... annotation.
func (s *synthesizer) generic(d diag.Diagnostic) ([]Proposal, infer.Reason, string) {
	quoted := diag.Quoted(d.Message)
	if len(quoted) == 0 {
		return nil, infer.ReasonUnlocated, "no type name in message"
	}
	want := quoted[0]
	off, ok := s.offset(d)
	if !ok {
		return nil, infer.ReasonUnlocated, fmt.Sprintf("line %d out of range", d.Line)
	}
	site, ok := s.bareAnnotation(want, d.Line, off)
	if !ok {
		return nil, infer.ReasonUnlocated, fmt.Sprintf("no bare %s annotation on line %d", want, d.Line)
	}

	var (
		r     infer.Result
		label string
	)
	switch {
	case site.param.IsValid():
		r = s.eng.Param(site.fn, site.param)
		label = "param|" + s.sf.QualifiedName(site.fn) + "." + s.tree.Param(site.param).Name
	case site.fn.IsValid():
		r = s.eng.Return(site.fn)
		label = "return|" + s.sf.QualifiedName(site.fn)
	default:
		b, found := s.sf.Lookup(s.sf.ScopeAt(site.target.Start), s.file.Text(site.target))
		if !found {
			return nil, infer.ReasonUnlocated, "unbound name " + s.file.Text(site.target)
		}
		r = s.eng.Variable(b)
		label = fmt.Sprintf("var|%d|%s", d.Line, b.Name)
	}
	if !r.OK() {
		return nil, r.Reason, label + ": " + r.Type.String()
	}
	bare := types.FromAnnotation(s.tree, site.annotation, s.sf)
	if r.Type.Kind != types.KindNamed || r.Type.Name != bare.Name || len(r.Type.Args) == 0 {
		return nil, infer.ReasonUnsupported, fmt.Sprintf("%s: inferred %s does not refine %s", label, r.Type, bare)
	}
	span := s.tree.Expr(site.annotation).Span
	text, ok := s.render(r.Type, span.Start)
	if !ok {
		return nil, infer.ReasonUnsupported, label + ": " + r.Type.String()
	}
	prop := newProposal(s.file, span, span, text)
	s.fill(&prop, r, fmt.Sprintf("%s|generic|%s|%s", s.file.Path, label, text))
	prop.Title = fmt.Sprintf("parameterize %s as %s", s.file.Text(span), text)
	return []Proposal{prop}, infer.ReasonNone, ""
}

type annotationSite struct {
	annotation ast.ExprID
	fn         ast.FuncID
	param      ast.ParamID
	target     source.Span // variable annotations
}

// bareAnnotation finds an annotation spelled name on line, preferring one
// that starts at off.
func (s *synthesizer) bareAnnotation(name string, line, off uint32) (annotationSite, bool) {
	var found annotationSite
	consider := func(site annotationSite) bool {
		if !site.annotation.IsValid() {
			return false
		}
		x := s.tree.Expr(site.annotation)
		if s.sf.Line(x.Span.Start) != line || !spelled(s.tree.Text(site.annotation), name) {
			return false
		}
		if x.Span.Start == off {
			found = site
			return true
		}
		if !found.annotation.IsValid() {
			found = site
		}
		return false
	}

	funcs := s.tree.Funcs.Slice()
	for i := range funcs {
		fid := ast.FuncID(i + 1) // #nosec G115
		for _, pid := range funcs[i].Params {
			if consider(annotationSite{annotation: s.tree.Param(pid).Annotation, fn: fid, param: pid}) {
				return found, true
			}
		}
		if consider(annotationSite{annotation: funcs[i].Returns, fn: fid}) {
			return found, true
		}
	}
	stmts := s.tree.Stmts.Slice()
	for i := range stmts {
		st := &stmts[i]
		if st.Kind != ast.StmtAnnAssign || len(st.Targets) != 1 || s.tree.Expr(st.Targets[0]).Kind != ast.ExprName {
			continue
		}
		if consider(annotationSite{annotation: st.Annotation, target: s.tree.Expr(st.Targets[0]).Span}) {
			return found, true
		}
	}
	return found, found.annotation.IsValid()
}

// spelled matches `List`, `typing.List` and `list` against the name in a message.
func spelled(text, name string) bool {
	if i := strings.LastIndexByte(text, '.'); i >= 0 {
		text = text[i+1:]
	}
	return strings.EqualFold(text, name)
}
