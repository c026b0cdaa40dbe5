package infer

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"typeguard/internal/ast"
	"typeguard/internal/symbols"
	"typeguard/internal/types"
)

// CallRecord is one call site observed in another file.
type CallRecord struct {
	Path     string
	Line     uint32
	Args     []types.Expr // positional arguments up to the first starred one
	Keywords map[string]types.Expr
}

// Argument returns the type passed at positional index pos or by keyword name.
func (r CallRecord) Argument(pos int, name string, kind ast.ParamKind) (types.Expr, bool) {
	if kind != ast.ParamPositionalOnly && kind != ast.ParamVarArgs && kind != ast.ParamVarKwargs {
		if t, ok := r.Keywords[name]; ok {
			return t, true
		}
	}
	if kind != ast.ParamPositional && kind != ast.ParamPositionalOnly {
		return types.Unknown(), false
	}
	if pos < 0 || pos >= len(r.Args) {
		return types.Unknown(), false
	}
	return r.Args[pos], true
}

// Table is the cross-file signature table: declared return types, classes and
// call sites keyed by qualified name. It is read-only once built.
type Table struct {
	Returns map[string]types.Expr
	Classes map[string]types.Expr
	Calls   map[string][]CallRecord
}

func NewTable() *Table {
	return &Table{
		Returns: make(map[string]types.Expr),
		Classes: make(map[string]types.Expr),
		Calls:   make(map[string][]CallRecord),
	}
}

// Declare records the classes and annotated signatures of sf.
func (t *Table) Declare(sf *symbols.SourceFile) {
	for name := range sf.Classes {
		t.Classes[sf.Module+"."+name] = types.Class(name, sf.Module)
	}
	funcs := sf.Tree.Funcs.Slice()
	for i := range funcs {
		fid := ast.FuncID(i + 1) // #nosec G115
		if funcs[i].Returns.IsValid() {
			t.Returns[sf.QualifiedName(fid)] = types.FromAnnotation(sf.Tree, funcs[i].Returns, sf)
		}
	}
}

// ReturnOf returns the declared return type of a qualified function, or the
// class for a constructor call.
func (t *Table) ReturnOf(qual string) types.Expr {
	if r, ok := t.Returns[qual]; ok {
		return r
	}
	if class, ok := strings.CutSuffix(qual, ".__init__"); ok {
		if c, ok := t.Classes[class]; ok {
			return c
		}
	}
	return types.Unknown()
}

// CallsTo returns the recorded calls of qual made outside path.
func (t *Table) CallsTo(qual, path string) []CallRecord {
	var out []CallRecord
	for _, rec := range t.Calls[qual] {
		if rec.Path != path {
			out = append(out, rec)
		}
	}
	return out
}

// BuildTable declares every file, then records each file's calls into imported
// functions on a worker pool. jobs <= 0 means no limit.
func BuildTable(ctx context.Context, files []*symbols.SourceFile, jobs int) (*Table, error) {
	decl := NewTable()
	for _, sf := range files {
		decl.Declare(sf)
	}

	perFile := make([]map[string][]CallRecord, len(files))
	g, gctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, sf := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perFile[i] = New(sf, decl, Options{}).recordCalls()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Table{Returns: decl.Returns, Classes: decl.Classes, Calls: make(map[string][]CallRecord)}
	for _, calls := range perFile {
		keys := make([]string, 0, len(calls))
		for k := range calls {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out.Calls[k] = append(out.Calls[k], calls[k]...)
		}
	}
	return out, nil
}

// recordCalls collects calls whose target lives in another module.
func (e *Engine) recordCalls() map[string][]CallRecord {
	out := make(map[string][]CallRecord)
	for _, cid := range e.callSites() {
		tgt, ok := e.resolveCallee(cid)
		if !ok || tgt.qual == "" {
			continue
		}
		call := e.tree.Expr(cid)
		rec := CallRecord{Path: e.sf.Path, Line: e.sf.Line(call.Span.Start), Keywords: map[string]types.Expr{}}
		for _, a := range call.Elts {
			if e.tree.Expr(a).Kind == ast.ExprStarred {
				break
			}
			rec.Args = append(rec.Args, e.TypeOf(a))
		}
		for _, kw := range call.Keywords {
			if kw.Name != "" {
				rec.Keywords[kw.Name] = e.TypeOf(kw.Value)
			}
		}
		out[tgt.qual] = append(out[tgt.qual], rec)
	}
	return out
}
