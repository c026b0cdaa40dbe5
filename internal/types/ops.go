package types

import (
	"slices"
	"sort"
)

var typingNames = map[string]bool{
	NameAny: true, NameList: true, NameDict: true, NameSet: true, NameTuple: true,
	NameFrozen: true, NameCall: true, NameIter: true, NameType: true,
	"Optional": true, "Union": true, "TypeVar": true,
}

// IsTypingName reports whether name must be imported from typing.
func IsTypingName(name string) bool {
	return typingNames[name]
}

var containerArity = map[string]int{
	NameList: 1, NameSet: 1, NameFrozen: 1, NameDict: 2, NameIter: 1, NameType: 1,
}

// ContainerArity returns the number of type parameters of a generic container, or 0.
func ContainerArity(name string) int {
	return containerArity[name]
}

// Shape is the grouping key used when merging evidence: the outer constructor only.
func (t Expr) Shape() string {
	switch t.Kind {
	case KindNamed:
		if t.Name == NameTuple {
			return t.Name
		}
		return t.Module + "." + t.Name
	default:
		return t.Kind.String()
	}
}

// Walk visits t and every nested argument.
func (t Expr) Walk(fn func(Expr)) {
	fn(t)
	for _, a := range t.Args {
		a.Walk(fn)
	}
}

// HasUnknown reports whether any part of t is Unknown.
func (t Expr) HasUnknown() bool {
	found := false
	t.Walk(func(e Expr) {
		if e.IsUnknown() {
			found = true
		}
	})
	return found
}

// HasAny reports whether any part of t is Any.
func (t Expr) HasAny() bool {
	found := false
	t.Walk(func(e Expr) {
		if e.IsAny() {
			found = true
		}
	})
	return found
}

// TypeVars returns the type variable names used by t, in first-seen order.
func (t Expr) TypeVars() []string {
	var out []string
	t.Walk(func(e Expr) {
		if e.Kind == KindTypeVar && !slices.Contains(out, e.Name) {
			out = append(out, e.Name)
		}
	})
	return out
}

// TypingImports returns the sorted typing names needed to render t.
func (t Expr) TypingImports() []string {
	set := map[string]struct{}{}
	t.Walk(func(e Expr) {
		switch e.Kind {
		case KindOptional:
			set["Optional"] = struct{}{}
		case KindUnion:
			set["Union"] = struct{}{}
		case KindNamed:
			if e.Module == "" && IsTypingName(e.Name) {
				set[e.Name] = struct{}{}
			}
			if e.Name == NameCall && len(e.Args) == 0 {
				set[NameAny] = struct{}{}
			}
		}
	})
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Classes returns user classes referenced by t.
func (t Expr) Classes() []Expr {
	var out []Expr
	t.Walk(func(e Expr) {
		if e.Kind == KindNamed && e.Module != "" {
			out = append(out, Expr{Kind: KindNamed, Name: e.Name, Module: e.Module})
		}
	})
	return out
}

// Broaden replaces every Unknown part with Any. The second result reports
// whether anything was replaced.
func (t Expr) Broaden() (Expr, bool) {
	if t.IsUnknown() {
		return Any(), true
	}
	if len(t.Args) == 0 {
		return t, false
	}
	changed := false
	args := make([]Expr, len(t.Args))
	for i, a := range t.Args {
		var c bool
		args[i], c = a.Broaden()
		changed = changed || c
	}
	out := t
	out.Args = args
	return out, changed
}

// Join merges two observations of the same shape. Unknown arguments are absorbed by
// known ones and int widens to float (bool to int). It reports false when the two
// types are not compatible and must become separate union branches.
func Join(a, b Expr) (Expr, bool) {
	if a.Equal(b) {
		return a, true
	}
	if a.IsUnknown() {
		return b, true
	}
	if b.IsUnknown() {
		return a, true
	}
	if w, ok := widen(a, b); ok {
		return w, true
	}
	if a.Kind != KindNamed || b.Kind != KindNamed || a.Shape() != b.Shape() || len(a.Args) != len(b.Args) {
		return Expr{}, false
	}
	args := make([]Expr, len(a.Args))
	for i := range a.Args {
		j, ok := Join(a.Args[i], b.Args[i])
		if !ok {
			return Expr{}, false
		}
		args[i] = j
	}
	out := a
	out.Args = args
	return out, true
}

var numericRank = map[string]int{NameBool: 1, NameInt: 2, NameFloat: 3, NameComplex: 4}

func widen(a, b Expr) (Expr, bool) {
	if a.Kind != KindNamed || b.Kind != KindNamed || a.Module != "" || b.Module != "" {
		return Expr{}, false
	}
	ra, okA := numericRank[a.Name]
	rb, okB := numericRank[b.Name]
	if !okA || !okB {
		return Expr{}, false
	}
	if ra >= rb {
		return a, true
	}
	return b, true
}

// Numeric reports whether t is int, float, complex or bool.
func (t Expr) Numeric() bool {
	_, ok := numericRank[t.Name]
	return ok && t.Kind == KindNamed && t.Module == ""
}
