// Package stub renders declaration-only .pyi views of Python modules.
package stub

import (
	"strings"

	"typeguard/internal/ast"
	"typeguard/internal/symbols"
)

const indentUnit = "    "

type renderer struct {
	tree    *ast.Tree
	b       strings.Builder
	usesAny bool
	hasAny  bool // Any is already bound by an import
}

// Render returns the stub text of sf. It depends on the tree only.
func Render(sf *symbols.SourceFile) string {
	r := &renderer{tree: sf.Tree}
	var body strings.Builder
	r.block(&body, sf.Tree.Body, "", true)

	var out strings.Builder
	if r.usesAny && !r.hasAny {
		out.WriteString("from typing import Any\n")
		if body.Len() > 0 && !strings.HasPrefix(body.String(), "from ") && !strings.HasPrefix(body.String(), "import ") {
			out.WriteByte('\n')
		}
	}
	out.WriteString(body.String())
	return out.String()
}

// block renders the declarations of body. Only module and class bodies are
// rendered; function bodies are elided.
func (r *renderer) block(w *strings.Builder, body []ast.StmtID, indent string, module bool) int {
	n := 0
	for _, sid := range body {
		st := r.tree.Stmt(sid)
		switch st.Kind {
		case ast.StmtImport, ast.StmtImportFrom:
			if !module {
				continue
			}
			r.imports(w, st, indent)
			n++
		case ast.StmtAssign, ast.StmtAnnAssign:
			if r.binding(w, st, indent) {
				n++
			}
		case ast.StmtFunctionDef:
			if n > 0 && module {
				w.WriteByte('\n')
			}
			r.function(w, st.Func, indent)
			n++
		case ast.StmtClassDef:
			if n > 0 {
				w.WriteByte('\n')
			}
			r.class(w, st.Class, indent)
			n++
		}
	}
	return n
}

func (r *renderer) imports(w *strings.Builder, st *ast.Stmt, indent string) {
	names := make([]string, len(st.Names))
	for i, a := range st.Names {
		names[i] = a.Name
		if a.AsName != "" {
			names[i] += " as " + a.AsName
		}
		if st.Kind == ast.StmtImportFrom && st.Module == "typing" && a.Bound() == "Any" {
			r.hasAny = true
		}
		if st.Kind == ast.StmtImportFrom && a.Name == "*" && st.Module == "typing" {
			r.hasAny = true
		}
	}
	if st.Kind == ast.StmtImport {
		w.WriteString(indent + "import " + strings.Join(names, ", ") + "\n")
		return
	}
	w.WriteString(indent + "from " + strings.Repeat(".", st.Level) + st.Module + " import " + strings.Join(names, ", ") + "\n")
}

// binding renders NAME: T for simple name targets and keeps TypeVar
// declarations as written.
func (r *renderer) binding(w *strings.Builder, st *ast.Stmt, indent string) bool {
	if st.Kind == ast.StmtAnnAssign {
		target := r.tree.Expr(st.Targets[0])
		if target.Kind != ast.ExprName {
			return false
		}
		w.WriteString(indent + target.Text + ": " + r.text(st.Annotation) + "\n")
		return true
	}
	if r.isTypeVar(st.Value) && len(st.Targets) == 1 {
		w.WriteString(indent + r.text(st.Targets[0]) + " = " + r.text(st.Value) + "\n")
		return true
	}
	wrote := false
	for _, t := range st.Targets {
		target := r.tree.Expr(t)
		if target.Kind != ast.ExprName {
			continue
		}
		if target.Text == "__all__" {
			w.WriteString(indent + "__all__ = " + r.text(st.Value) + "\n")
		} else {
			w.WriteString(indent + target.Text + ": " + r.any() + "\n")
		}
		wrote = true
	}
	return wrote
}

func (r *renderer) isTypeVar(id ast.ExprID) bool {
	call := r.tree.Expr(id)
	if call == nil || call.Kind != ast.ExprCall {
		return false
	}
	switch r.tree.Text(call.Left) {
	case "TypeVar", "typing.TypeVar", "ParamSpec", "typing.ParamSpec":
		return true
	}
	return false
}

func (r *renderer) class(w *strings.Builder, cid ast.ClassID, indent string) {
	cl := r.tree.Class(cid)
	r.decorators(w, cl.Decorators, indent)
	var args []string
	for _, b := range cl.Bases {
		args = append(args, r.text(b))
	}
	for _, kw := range cl.Keywords {
		if kw.Name == "" {
			args = append(args, "**"+r.text(kw.Value))
			continue
		}
		args = append(args, kw.Name+"="+r.text(kw.Value))
	}
	w.WriteString(indent + "class " + cl.Name)
	if len(args) > 0 {
		w.WriteString("(" + strings.Join(args, ", ") + ")")
	}
	w.WriteString(":")
	var inner strings.Builder
	if r.block(&inner, cl.Body, indent+indentUnit, false) == 0 {
		w.WriteString(" ...\n")
		return
	}
	w.WriteString("\n" + inner.String())
}

func (r *renderer) function(w *strings.Builder, fid ast.FuncID, indent string) {
	fn := r.tree.Func(fid)
	r.decorators(w, fn.Decorators, indent)
	if fn.Async {
		w.WriteString(indent + "async def ")
	} else {
		w.WriteString(indent + "def ")
	}
	w.WriteString(fn.Name + "(" + r.params(fn) + ") -> ")
	switch {
	case fn.Returns.IsValid():
		w.WriteString(r.text(fn.Returns))
	case fn.Name == "__init__" && fn.Class.IsValid():
		w.WriteString("None")
	default:
		w.WriteString(r.any())
	}
	w.WriteString(": ...\n")
}

func (r *renderer) params(fn *ast.FuncDef) string {
	var (
		out      []string
		star     bool
		sawPosOn bool
	)
	for i, pid := range fn.Params {
		p := r.tree.Param(pid)
		if sawPosOn && p.Kind != ast.ParamPositionalOnly {
			out = append(out, "/")
			sawPosOn = false
		}
		var s string
		switch p.Kind {
		case ast.ParamPositionalOnly:
			sawPosOn = true
			s = p.Name
		case ast.ParamVarArgs:
			star = true
			s = "*" + p.Name
		case ast.ParamVarKwargs:
			s = "**" + p.Name
		case ast.ParamKeywordOnly:
			if !star {
				out = append(out, "*")
				star = true
			}
			s = p.Name
		default:
			s = p.Name
		}
		implicit := i == 0 && fn.Class.IsValid() && (p.Name == "self" || p.Name == "cls") && !p.Annotation.IsValid()
		switch {
		case p.Annotation.IsValid():
			s += ": " + r.text(p.Annotation)
		case !implicit:
			s += ": " + r.any()
		}
		if p.Default.IsValid() {
			if implicit || !strings.Contains(s, ":") {
				s += "=..."
			} else {
				s += " = ..."
			}
		}
		out = append(out, s)
	}
	if sawPosOn {
		out = append(out, "/")
	}
	return strings.Join(out, ", ")
}

func (r *renderer) decorators(w *strings.Builder, decs []ast.ExprID, indent string) {
	for _, d := range decs {
		w.WriteString(indent + "@" + r.text(d) + "\n")
	}
}

func (r *renderer) any() string {
	r.usesAny = true
	return "Any"
}

// text is the source of id with line breaks and runs of spaces collapsed.
func (r *renderer) text(id ast.ExprID) string {
	return strings.Join(strings.Fields(r.tree.Text(id)), " ")
}
