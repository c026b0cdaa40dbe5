package symbols

import (
	"typeguard/internal/ast"
	"typeguard/internal/source"
)

// ScopeID indexes SourceFile.Scopes; 0 is the module scope.
type ScopeID uint32

// ScopeKind enumerates supported scope categories.
type ScopeKind uint8

const (
	ScopeModule ScopeKind = iota
	ScopeClass
	ScopeFunction
	ScopeLambda
	ScopeComprehension
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeModule:
		return "module"
	case ScopeClass:
		return "class"
	case ScopeFunction:
		return "function"
	case ScopeLambda:
		return "lambda"
	case ScopeComprehension:
		return "comprehension"
	default:
		return "invalid"
	}
}

// Scope models a lexical scope. Class scopes are skipped by name lookup from nested
// functions, the way Python resolves names.
type Scope struct {
	Kind     ScopeKind
	Parent   ScopeID
	Span     source.Span
	Func     ast.FuncID  // ScopeFunction
	Class    ast.ClassID // ScopeClass
	Names    map[string]*Binding
	Order    []string // binding names in declaration order
	Globals  map[string]bool
	Children []ScopeID
}

func (s *Scope) binding(name string) (*Binding, bool) {
	b, ok := s.Names[name]
	return b, ok
}
