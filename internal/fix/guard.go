package fix

import (
	"fmt"
	"strings"

	"typeguard/internal/ast"
	"typeguard/internal/diag"
	"typeguard/internal/infer"
	"typeguard/internal/source"
)

// optionalAccess guards an attribute access, call or subscript on a value that
// may be None. A whole simple statement is wrapped in `if x is not None:`;
// anything else becomes a conditional expression.
func (s *synthesizer) optionalAccess(d diag.Diagnostic) ([]Proposal, infer.Reason, string) {
	quoted := diag.Quoted(d.Message)
	kind, attr := ast.ExprAttribute, ""
	if d.Code == diag.CodeIndex {
		kind = ast.ExprSubscript
	} else if len(quoted) > 0 {
		attr = quoted[len(quoted)-1]
	}
	off, ok := s.offset(d)
	if !ok {
		return nil, infer.ReasonUnlocated, fmt.Sprintf("line %d out of range", d.Line)
	}
	access, ok := s.findAccess(kind, attr, d.Line, off)
	if !ok {
		return nil, infer.ReasonUnlocated, fmt.Sprintf("no access to %q on line %d", attr, d.Line)
	}
	x := s.tree.Expr(access)
	if !s.isRef(x.Left) {
		return nil, infer.ReasonUnsupported, "receiver is not a plain reference: " + s.tree.Text(x.Left)
	}
	recv := s.tree.Text(x.Left)
	cond := recv + " is not None"

	target := access
	if p := s.eng.Parent(access); p.IsValid() {
		if pe := s.tree.Expr(p); pe.Kind == ast.ExprCall && pe.Left == access {
			target = p
		}
	}
	for p := s.eng.Parent(target); p.IsValid(); p = s.eng.Parent(p) {
		if pe := s.tree.Expr(p); pe.Kind == ast.ExprIfExp && strings.TrimSpace(s.tree.Text(pe.Cond)) == cond {
			return nil, infer.ReasonUnsupported, "already guarded: " + s.tree.Text(p)
		}
	}

	key := fmt.Sprintf("%s|guard|%d|%s", s.file.Path, d.Line, recv)
	if prop, ok := s.statementGuard(target, cond); ok {
		prop.Confidence = stmtGuardConfidence
		prop.Key = key + "|stmt"
		prop.Title = "guard statement with " + cond
		return []Proposal{prop}, infer.ReasonNone, ""
	}

	span := s.tree.Expr(target).Span
	text := s.file.Text(span)
	prop := newProposal(s.file, span, span, fmt.Sprintf("(%s if %s else None)", text, cond))
	prop.Confidence = exprGuardConfidence
	prop.Key = fmt.Sprintf("%s|%d", key, span.Start)
	prop.Title = fmt.Sprintf("guard %s with %s", text, cond)
	return []Proposal{prop}, infer.ReasonNone, ""
}

// findAccess picks the access node on line, preferring one that starts at off.
func (s *synthesizer) findAccess(kind ast.ExprKind, attr string, line, off uint32) (ast.ExprID, bool) {
	found := ast.NoExprID
	exprs := s.tree.Exprs.Slice()
	for i := range exprs {
		x := &exprs[i]
		if x.Kind != kind || (kind == ast.ExprAttribute && x.Text != attr) {
			continue
		}
		if s.sf.Line(x.Span.Start) != line && s.sf.Line(x.NameSpan.Start) != line {
			continue
		}
		id := ast.ExprID(i + 1) // #nosec G115
		if x.Span.Start == off {
			return id, true
		}
		if !found.IsValid() {
			found = id
		}
	}
	return found, found.IsValid()
}

// isRef accepts `name` and `name.attr.attr`.
func (s *synthesizer) isRef(id ast.ExprID) bool {
	for id.IsValid() {
		x := s.tree.Expr(id)
		switch x.Kind {
		case ast.ExprName:
			return true
		case ast.ExprAttribute:
			id = x.Left
		default:
			return false
		}
	}
	return false
}

func (s *synthesizer) statementGuard(target ast.ExprID, cond string) (Proposal, bool) {
	sid := s.eng.Statement(target)
	if !sid.IsValid() {
		return Proposal{}, false
	}
	st := s.tree.Stmt(sid)
	switch st.Kind {
	case ast.StmtExpr:
	case ast.StmtAssign, ast.StmtAugAssign:
		// only when the None value is written to, not read into a new name
		if !within(s.tree, st.Targets, target) {
			return Proposal{}, false
		}
	default:
		return Proposal{}, false
	}
	if s.sf.Line(st.Span.Start) != s.sf.Line(st.Span.End) {
		return Proposal{}, false
	}
	lineStart, _ := s.file.LineStart(s.sf.Line(st.Span.Start))
	prefix := s.file.Text(source.Span{File: s.file.ID, Start: lineStart, End: st.Span.Start})
	rest := strings.TrimSpace(s.file.Text(source.Span{File: s.file.ID, Start: st.Span.End, End: s.file.LineEnd(s.sf.Line(st.Span.Start))}))
	if strings.TrimSpace(prefix) != "" || (rest != "" && !strings.HasPrefix(rest, "#")) {
		return Proposal{}, false
	}
	unit := "    "
	if strings.Contains(prefix, "\t") {
		unit = "\t"
	}
	at := source.Span{File: s.file.ID, Start: st.Span.Start, End: st.Span.Start}
	return newProposal(s.file, at, st.Span, "if "+cond+":\n"+prefix+unit), true
}

// within reports whether id lies inside one of roots.
func within(tree *ast.Tree, roots []ast.ExprID, id ast.ExprID) bool {
	sp := tree.Expr(id).Span
	for _, r := range roots {
		if tree.Expr(r).Span.Encloses(sp) {
			return true
		}
	}
	return false
}
