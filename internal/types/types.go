package types

import (
	"fmt"
	"strings"
)

// Kind enumerates the shapes of a type expression.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindNamed
	KindOptional
	KindUnion
	KindTypeVar
)

func (k Kind) String() string {
	switch k {
	case KindUnknown:
		return "unknown"
	case KindNamed:
		return "named"
	case KindOptional:
		return "optional"
	case KindUnion:
		return "union"
	case KindTypeVar:
		return "typevar"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Expr is an immutable type expression.
//
//	Named     Name + Args (List[int], Dict[str, float], int, None)
//	Optional  Args[0]
//	Union     Args (first-seen order, no duplicates)
//	TypeVar   Name
//
// Module is set for user classes and names the module that defines them.
type Expr struct {
	Kind   Kind
	Name   string
	Args   []Expr
	Module string
}

// Well-known names.
const (
	NameNone    = "None"
	NameAny     = "Any"
	NameInt     = "int"
	NameFloat   = "float"
	NameComplex = "complex"
	NameBool    = "bool"
	NameStr     = "str"
	NameBytes   = "bytes"
	NameList    = "List"
	NameDict    = "Dict"
	NameSet     = "Set"
	NameTuple   = "Tuple"
	NameFrozen  = "FrozenSet"
	NameCall    = "Callable"
	NameIter    = "Iterator"
	NameType    = "Type"
	NameObject  = "object"
)

func Unknown() Expr { return Expr{Kind: KindUnknown} }

func Named(name string, args ...Expr) Expr {
	return Expr{Kind: KindNamed, Name: name, Args: args}
}

// Class is a user-defined class declared in module.
func Class(name, module string) Expr {
	return Expr{Kind: KindNamed, Name: name, Module: module}
}

func None() Expr { return Named(NameNone) }
func Any() Expr  { return Named(NameAny) }

func TypeVar(name string) Expr {
	return Expr{Kind: KindTypeVar, Name: name}
}

// Optional wraps t; Optional of None, Any or an Optional is t itself.
func Optional(t Expr) Expr {
	switch {
	case t.Kind == KindOptional, t.IsNone(), t.IsAny():
		return t
	case t.Kind == KindUnion:
		for _, m := range t.Args {
			if m.IsNone() {
				return t
			}
		}
	}
	return Expr{Kind: KindOptional, Args: []Expr{t}}
}

// Union builds a union of members in first-seen order. Nested unions are flattened,
// duplicates dropped, a single member collapses to itself and a None member turns
// the result into Optional.
func Union(members ...Expr) Expr {
	flat := make([]Expr, 0, len(members))
	seen := make(map[string]struct{}, len(members))
	hasNone := false
	var add func(Expr)
	add = func(m Expr) {
		switch {
		case m.Kind == KindUnion:
			for _, inner := range m.Args {
				add(inner)
			}
			return
		case m.Kind == KindOptional:
			hasNone = true
			add(m.Args[0])
			return
		case m.IsNone():
			hasNone = true
			return
		}
		key := m.Key()
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		flat = append(flat, m)
	}
	for _, m := range members {
		add(m)
	}

	var out Expr
	switch len(flat) {
	case 0:
		if hasNone {
			return None()
		}
		return Unknown()
	case 1:
		out = flat[0]
	default:
		out = Expr{Kind: KindUnion, Args: flat}
	}
	if hasNone {
		return Optional(out)
	}
	return out
}

func (t Expr) IsUnknown() bool { return t.Kind == KindUnknown }
func (t Expr) IsNone() bool    { return t.Kind == KindNamed && t.Name == NameNone }
func (t Expr) IsAny() bool     { return t.Kind == KindNamed && t.Name == NameAny }

// String renders t in typing-module notation.
func (t Expr) String() string {
	var sb strings.Builder
	t.write(&sb)
	return sb.String()
}

func (t Expr) write(sb *strings.Builder) {
	switch t.Kind {
	case KindUnknown:
		sb.WriteString("?")
	case KindTypeVar:
		sb.WriteString(t.Name)
	case KindOptional:
		sb.WriteString("Optional[")
		t.Args[0].write(sb)
		sb.WriteByte(']')
	case KindUnion:
		sb.WriteString("Union[")
		writeList(sb, t.Args)
		sb.WriteByte(']')
	case KindNamed:
		sb.WriteString(t.Name)
		switch {
		case t.Name == NameCall && len(t.Args) == 0:
			sb.WriteString("[..., Any]")
		case t.Name == NameTuple && len(t.Args) == 0:
			sb.WriteString("[()]")
		case len(t.Args) > 0:
			sb.WriteByte('[')
			writeList(sb, t.Args)
			sb.WriteByte(']')
		}
	}
}

func writeList(sb *strings.Builder, args []Expr) {
	for i, a := range args {
		if i > 0 {
			sb.WriteString(", ")
		}
		a.write(sb)
	}
}

// Key is a canonical identity string; equal keys mean structurally equal types.
func (t Expr) Key() string {
	if t.Kind == KindNamed && t.Module != "" {
		return t.Module + "." + t.String()
	}
	return t.Kind.String() + ":" + t.String()
}

func (t Expr) Equal(other Expr) bool {
	return t.Key() == other.Key()
}
