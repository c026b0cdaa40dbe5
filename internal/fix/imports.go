package fix

import (
	"fmt"
	"sort"
	"strings"

	"typeguard/internal/ast"
	"typeguard/internal/source"
	"typeguard/internal/symbols"
)

// WithSupport adds the edits that make selected proposals resolvable: missing
// `from typing import` names and TypeVar declarations. Proposals that collide
// with those edits are moved to deferred. The returned batch is sorted by start.
func WithSupport(sf *symbols.SourceFile, selected []Proposal) (batch, deferred []Proposal) {
	support := Support(sf, selected)
	if len(support) == 0 {
		return selected, nil
	}
	for _, p := range selected {
		if conflictsAny(p, support) {
			deferred = append(deferred, p)
			continue
		}
		batch = append(batch, p)
	}
	if len(batch) == 0 {
		return nil, deferred
	}
	batch = append(batch, support...)
	sortByStart(batch)
	return batch, deferred
}

// Support returns the import and TypeVar edits needed by props, or nil.
func Support(sf *symbols.SourceFile, props []Proposal) []Proposal {
	names := map[string]bool{}
	vars := map[string]bool{}
	for _, p := range props {
		for _, n := range p.Typing {
			if sf.Imports[n] != "typing."+n {
				names[n] = true
			}
		}
		for _, v := range p.TypeVars {
			if !sf.TypeVars[v] {
				vars[v] = true
			}
		}
	}
	if len(vars) > 0 && sf.Imports["TypeVar"] != "typing.TypeVar" {
		names["TypeVar"] = true
	}
	if len(names) == 0 && len(vars) == 0 {
		return nil
	}

	decls := typeVarDecls(vars)
	file, tree := sf.File, sf.Tree
	var out []Proposal

	if sid, ok := typingImport(tree); ok && len(names) > 0 {
		st := tree.Stmt(sid)
		for _, a := range st.Names {
			names[a.Name] = true
		}
		stmt := newProposal(file, st.Span, st.Span, "from typing import "+strings.Join(sortedKeys(names), ", "))
		out = append(out, supportEdit(stmt, sf, "import"))
		if decls != "" {
			out = append(out, supportEdit(insertAfter(file, st.Span), sf, "typevar", decls))
		}
		return out
	}

	text := ""
	if len(names) > 0 {
		text = "from typing import " + strings.Join(sortedKeys(names), ", ") + "\n"
	}
	text += decls
	var anchor source.Span
	if sid, ok := lastHeaderStmt(tree); ok {
		anchor = tree.Stmt(sid).Span
		if sid, ok := typingImport(tree); ok && tree.Stmt(sid).Span.Start > anchor.Start {
			anchor = tree.Stmt(sid).Span
		}
		out = append(out, supportEdit(insertAfter(file, anchor), sf, "header", text))
		return out
	}
	at := source.Span{File: file.ID}
	window := source.Span{File: file.ID, End: file.LineEnd(1)}
	out = append(out, supportEdit(newProposal(file, at, window, text), sf, "header"))
	return out
}

// insertAfter builds an insertion at the start of the line following span.
func insertAfter(file *source.File, span source.Span) Proposal {
	line := file.Position(span.End).Line
	end := file.LineEnd(line)
	if end >= file.Size() {
		at := source.Span{File: file.ID, Start: file.Size(), End: file.Size()}
		p := newProposal(file, at, span, "")
		p.Replacement = "\n"
		return p
	}
	at := source.Span{File: file.ID, Start: end + 1, End: end + 1}
	return newProposal(file, at, span, "")
}

func supportEdit(p Proposal, sf *symbols.SourceFile, kind string, text ...string) Proposal {
	for _, t := range text {
		p.Replacement += t
	}
	p.Confidence = 1
	p.Support = true
	p.Key = fmt.Sprintf("%s|support|%s", sf.Path, kind)
	p.Title = "update typing imports"
	return p
}

func typeVarDecls(vars map[string]bool) string {
	var sb strings.Builder
	for _, v := range sortedKeys(vars) {
		fmt.Fprintf(&sb, "%s = TypeVar(%q)\n", v, v)
	}
	return sb.String()
}

// typingImport finds a module-level single-line `from typing import a, b`
// without aliases that can be rewritten in place.
func typingImport(tree *ast.Tree) (ast.StmtID, bool) {
	for _, sid := range tree.Body {
		st := tree.Stmt(sid)
		if st.Kind != ast.StmtImportFrom || st.Module != "typing" || st.Level != 0 {
			continue
		}
		text := tree.File.Text(st.Span)
		if strings.ContainsAny(text, "(\\\n") {
			continue
		}
		plain := true
		for _, a := range st.Names {
			if a.AsName != "" || a.Name == "*" {
				plain = false
			}
		}
		if plain {
			return sid, true
		}
	}
	return ast.NoStmtID, false
}

// lastHeaderStmt is the last statement of the leading docstring and import block.
func lastHeaderStmt(tree *ast.Tree) (ast.StmtID, bool) {
	last, found := ast.NoStmtID, false
	for i, sid := range tree.Body {
		st := tree.Stmt(sid)
		if i == 0 {
			if _, ok := tree.Docstring(tree.Body); ok {
				last, found = sid, true
				continue
			}
		}
		if st.Kind != ast.StmtImport && st.Kind != ast.StmtImportFrom {
			break
		}
		last, found = sid, true
	}
	return last, found
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
