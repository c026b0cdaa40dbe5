package symbols

import (
	"errors"
	"fmt"

	"typeguard/internal/ast"
	"typeguard/internal/parser"
	"typeguard/internal/source"
)

// ErrSourceUnreadable marks a file that cannot be read or parsed.
var ErrSourceUnreadable = errors.New("source unreadable")

// SourceFile is the analyzable model of one file version: text, tree and scopes.
// It is rebuilt from scratch after every text change.
type SourceFile struct {
	Path      string
	Module    string
	IsPackage bool
	File      *source.File
	Tree      *ast.Tree
	Scopes    []Scope
	TypeVars  map[string]bool
	Classes   map[string]ast.ClassID // module-level classes
	Functions map[string]ast.FuncID  // module-level functions
	Imports   map[string]string      // local name -> qualified target

	funcScopes  map[ast.FuncID]ScopeID
	classScopes map[ast.ClassID]ScopeID
}

// Load reads path into fs and builds its model.
func Load(fs *source.FileSet, path, module string) (*SourceFile, error) {
	id, err := fs.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceUnreadable, path, err)
	}
	return Build(fs.Get(id), module)
}

// Build parses file and binds its names.
func Build(file *source.File, module string) (*SourceFile, error) {
	res := parser.ParseFile(file, parser.Options{})
	if err := res.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s:%w", ErrSourceUnreadable, file.Path, err)
	}
	sf := &SourceFile{
		Path:        file.Path,
		Module:      module,
		IsPackage:   isPackageFile(file.Path),
		File:        file,
		Tree:        res.Tree,
		TypeVars:    make(map[string]bool),
		Classes:     make(map[string]ast.ClassID),
		Functions:   make(map[string]ast.FuncID),
		Imports:     make(map[string]string),
		funcScopes:  make(map[ast.FuncID]ScopeID),
		classScopes: make(map[ast.ClassID]ScopeID),
	}
	newBinder(sf).bindModule()
	return sf, nil
}

// IsTypeVar implements types.Resolver.
func (sf *SourceFile) IsTypeVar(name string) bool {
	return sf.TypeVars[name]
}

// ClassModule implements types.Resolver for classes declared in this file.
func (sf *SourceFile) ClassModule(name string) (string, bool) {
	if _, ok := sf.Classes[name]; ok {
		return sf.Module, true
	}
	return "", false
}

// Scope returns the scope with the given id.
func (sf *SourceFile) Scope(id ScopeID) *Scope {
	return &sf.Scopes[id]
}

// FuncScope returns the scope of a function body.
func (sf *SourceFile) FuncScope(fid ast.FuncID) (ScopeID, bool) {
	id, ok := sf.funcScopes[fid]
	return id, ok
}

// ClassScope returns the scope of a class body.
func (sf *SourceFile) ClassScope(cid ast.ClassID) (ScopeID, bool) {
	id, ok := sf.classScopes[cid]
	return id, ok
}

// ScopeAt returns the innermost scope containing off.
func (sf *SourceFile) ScopeAt(off uint32) ScopeID {
	cur := ScopeID(0)
	for {
		next, found := cur, false
		for _, child := range sf.Scopes[cur].Children {
			if sf.Scopes[child].Span.Contains(off) {
				next, found = child, true
				break
			}
		}
		if !found {
			return cur
		}
		cur = next
	}
}

// FunctionAt returns the innermost function whose definition contains off.
func (sf *SourceFile) FunctionAt(off uint32) (ast.FuncID, bool) {
	for id := sf.ScopeAt(off); ; id = sf.Scopes[id].Parent {
		if sc := &sf.Scopes[id]; sc.Kind == ScopeFunction {
			return sc.Func, true
		}
		if id == 0 {
			return ast.NoFuncID, false
		}
	}
}

// FunctionOnLine returns the function whose `def` keyword line is line (1-based),
// falling back to the innermost function spanning the line.
func (sf *SourceFile) FunctionOnLine(line uint32) (ast.FuncID, bool) {
	funcs := sf.Tree.Funcs.Slice()
	for i := range funcs {
		if sf.File.Position(funcs[i].NameSpan.Start).Line == line {
			return ast.FuncID(i + 1), true // #nosec G115
		}
	}
	start, ok := sf.File.LineStart(line)
	if !ok {
		return ast.NoFuncID, false
	}
	end := sf.File.LineEnd(line)
	off := start
	for off < end && (sf.File.Content[off] == ' ' || sf.File.Content[off] == '\t') {
		off++
	}
	return sf.FunctionAt(off)
}

// Lookup resolves name from scope outwards (LEGB); class scopes are only consulted
// when the lookup starts in them.
func (sf *SourceFile) Lookup(scope ScopeID, name string) (*Binding, bool) {
	first := true
	for id := scope; ; id = sf.Scopes[id].Parent {
		sc := &sf.Scopes[id]
		if first || sc.Kind != ScopeClass {
			if b, ok := sc.binding(name); ok {
				return b, true
			}
		}
		first = false
		if id == 0 {
			return nil, false
		}
	}
}

// ParamBinding returns the binding of a named parameter of fid.
func (sf *SourceFile) ParamBinding(fid ast.FuncID, name string) (*Binding, bool) {
	id, ok := sf.funcScopes[fid]
	if !ok {
		return nil, false
	}
	b, ok := sf.Scopes[id].binding(name)
	if !ok || b.Kind != BindingParameter {
		return nil, false
	}
	return b, true
}

// ReturnBinding returns the return binding of fid.
func (sf *SourceFile) ReturnBinding(fid ast.FuncID) (*Binding, bool) {
	id, ok := sf.funcScopes[fid]
	if !ok {
		return nil, false
	}
	return sf.Scopes[id].binding(ReturnName)
}

// Offset converts a 1-based line and column into a byte offset.
func (sf *SourceFile) Offset(line, col uint32) (uint32, bool) {
	return sf.File.Offset(source.LineCol{Line: line, Col: col})
}

// Line returns the 1-based line of off.
func (sf *SourceFile) Line(off uint32) uint32 {
	return sf.File.Position(off).Line
}

// QualifiedName returns module.name, or module.Class.name for methods.
func (sf *SourceFile) QualifiedName(fid ast.FuncID) string {
	fn := sf.Tree.Func(fid)
	if fn.Class.IsValid() {
		return sf.Module + "." + sf.Tree.Class(fn.Class).Name + "." + fn.Name
	}
	return sf.Module + "." + fn.Name
}
