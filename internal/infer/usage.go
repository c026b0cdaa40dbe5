package infer

import (
	"typeguard/internal/ast"
	"typeguard/internal/symbols"
	"typeguard/internal/types"
)

// methods whose use on a value tells its type
var usageHints = map[string]types.Expr{
	"lower": types.Named(types.NameStr), "upper": types.Named(types.NameStr),
	"strip": types.Named(types.NameStr), "startswith": types.Named(types.NameStr),
	"endswith": types.Named(types.NameStr), "splitlines": types.Named(types.NameStr),
	"encode": types.Named(types.NameStr), "casefold": types.Named(types.NameStr),
	"decode": types.Named(types.NameBytes),
	"items":  types.Named(types.NameDict, types.Unknown(), types.Unknown()),
	"keys":   types.Named(types.NameDict, types.Unknown(), types.Unknown()),
	"values": types.Named(types.NameDict, types.Unknown(), types.Unknown()),
	"sort":   types.Named(types.NameList, types.Unknown()),
}

// usageEvidence adds what the uses of b reveal: comparisons against None,
// container mutation (append, add, d[k] = v) and type-revealing method calls.
// Method hints count only for parameters, where nothing else is known locally.
func (e *Engine) usageEvidence(b *symbols.Binding, set *EvidenceSet, methodHints bool) {
	for _, ref := range e.References(b) {
		refExpr := e.tree.Expr(ref)
		pid := e.Parent(ref)
		parent := e.tree.Expr(pid)
		if parent == nil {
			continue
		}
		switch parent.Kind {
		case ast.ExprCompare:
			if comparesWithNone(e.tree, parent, ref) {
				set.Add(SourceComparison, types.None(), parent.Span)
			}
		case ast.ExprSubscript:
			if parent.Left != ref {
				continue
			}
			if v, ok := e.StoredValue(pid); ok && v.IsValid() {
				key := e.tree.Expr(parent.Right)
				if key != nil && key.Kind != ast.ExprSlice {
					set.Add(SourceUsage, types.Named(types.NameDict, e.TypeOf(parent.Right), e.TypeOf(v)), parent.Span)
				}
			}
		case ast.ExprAttribute:
			if parent.Left != ref {
				continue
			}
			call := e.tree.Expr(e.Parent(pid))
			if call == nil || call.Kind != ast.ExprCall || call.Left != pid {
				continue
			}
			if t, ok := e.containerUsage(parent.Text, call); ok {
				set.Add(SourceUsage, t, call.Span)
				continue
			}
			if methodHints {
				if t, ok := usageHints[parent.Text]; ok {
					set.Add(SourceUsage, t, refExpr.Span)
				}
			}
		case ast.ExprBinary:
			if !methodHints {
				continue
			}
			other := parent.Right
			if parent.Right == ref {
				other = parent.Left
			}
			if o := e.tree.Expr(other); o != nil && o.IsLiteral() && !o.IsNone() {
				if t := e.TypeOf(other); t.Numeric() || (t.Name == types.NameStr && parent.Op == "+") {
					set.Add(SourceUsage, t, parent.Span)
				}
			}
		}
	}
}

// containerUsage maps a mutating method call to the container type it implies.
func (e *Engine) containerUsage(method string, call *ast.Expr) (types.Expr, bool) {
	arg := func(i int) types.Expr {
		if i < len(call.Elts) && e.tree.Expr(call.Elts[i]).Kind != ast.ExprStarred {
			return e.TypeOf(call.Elts[i])
		}
		return types.Unknown()
	}
	switch method {
	case "append":
		return types.Named(types.NameList, arg(0)), len(call.Elts) == 1
	case "insert":
		return types.Named(types.NameList, arg(1)), len(call.Elts) == 2
	case "extend":
		return types.Named(types.NameList, elementOf(arg(0))), len(call.Elts) == 1
	case "add":
		return types.Named(types.NameSet, arg(0)), len(call.Elts) == 1
	case "update":
		t := arg(0)
		if t.Kind == types.KindNamed && (t.Name == types.NameDict || t.Name == types.NameSet) {
			return t, true
		}
	}
	return types.Expr{}, false
}

func comparesWithNone(tree *ast.Tree, cmp *ast.Expr, ref ast.ExprID) bool {
	operands := append([]ast.ExprID{cmp.Left}, cmp.Elts...)
	for i, op := range cmp.Ops {
		if op != "is" && op != "is not" && op != "==" && op != "!=" {
			continue
		}
		l, r := operands[i], operands[i+1]
		if (l == ref && tree.Expr(r).IsNone()) || (r == ref && tree.Expr(l).IsNone()) {
			return true
		}
	}
	return false
}
