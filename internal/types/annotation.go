package types

import (
	"strings"

	"typeguard/internal/ast"
)

var builtinAliases = map[string]string{
	"list":      NameList,
	"dict":      NameDict,
	"set":       NameSet,
	"frozenset": NameFrozen,
	"tuple":     NameTuple,
	"type":      NameType,
}

// Resolver answers questions about names used inside annotations.
type Resolver interface {
	// IsTypeVar reports whether name is a module-level TypeVar.
	IsTypeVar(name string) bool
	// ClassModule returns the defining module of a user class name.
	ClassModule(name string) (string, bool)
}

// FromAnnotation converts an annotation expression into a type expression.
// Unsupported forms become Unknown.
func FromAnnotation(tree *ast.Tree, id ast.ExprID, res Resolver) Expr {
	e := tree.Expr(id)
	if e == nil {
		return Unknown()
	}
	switch e.Kind {
	case ast.ExprConst:
		if e.IsNone() {
			return None()
		}
	case ast.ExprString:
		return fromName(strings.TrimSpace(ast.StringValue(e.Text)), res)
	case ast.ExprName:
		return fromName(e.Text, res)
	case ast.ExprAttribute:
		// typing.List, t.Optional
		return fromName(e.Text, res)
	case ast.ExprBinary:
		if e.Op == "|" {
			return Union(FromAnnotation(tree, e.Left, res), FromAnnotation(tree, e.Right, res))
		}
	case ast.ExprSubscript:
		base := FromAnnotation(tree, e.Left, res)
		args := subscriptArgs(tree, e.Right, res)
		switch base.Name {
		case "Optional":
			if len(args) == 1 {
				return Optional(args[0])
			}
		case "Union":
			return Union(args...)
		default:
			if base.Kind == KindNamed {
				base.Args = args
				return base
			}
		}
	}
	return Unknown()
}

func subscriptArgs(tree *ast.Tree, id ast.ExprID, res Resolver) []Expr {
	e := tree.Expr(id)
	if e != nil && e.Kind == ast.ExprTuple {
		out := make([]Expr, 0, len(e.Elts))
		for _, el := range e.Elts {
			out = append(out, FromAnnotation(tree, el, res))
		}
		return out
	}
	return []Expr{FromAnnotation(tree, id, res)}
}

func fromName(name string, res Resolver) Expr {
	if alias, ok := builtinAliases[name]; ok {
		return Named(alias)
	}
	switch name {
	case "Optional", "Union":
		return Expr{Kind: KindNamed, Name: name}
	case "NoneType":
		return None()
	}
	if res != nil {
		if res.IsTypeVar(name) {
			return TypeVar(name)
		}
		if mod, ok := res.ClassModule(name); ok {
			return Class(name, mod)
		}
	}
	if name == "" {
		return Unknown()
	}
	return Named(name)
}

// Bare reports whether t is a generic container written without type arguments,
// like a plain `List` annotation.
func (t Expr) Bare() bool {
	return t.Kind == KindNamed && len(t.Args) == 0 && (ContainerArity(t.Name) > 0 || t.Name == NameTuple)
}
