package symbols

import (
	"typeguard/internal/ast"
	"typeguard/internal/source"
	"typeguard/internal/types"
)

// BindingKind classifies what a name is bound to.
type BindingKind uint8

const (
	BindingVariable BindingKind = iota
	BindingParameter
	BindingReturn
	BindingFunction
	BindingClass
	BindingImport
)

func (k BindingKind) String() string {
	switch k {
	case BindingVariable:
		return "variable"
	case BindingParameter:
		return "parameter"
	case BindingReturn:
		return "return"
	case BindingFunction:
		return "function"
	case BindingClass:
		return "class"
	case BindingImport:
		return "import"
	default:
		return "invalid"
	}
}

// ReturnName is the pseudo-name under which a function's return binding is stored.
const ReturnName = "return"

// Binding is a named declaration. Declared is nil when the source carries no annotation.
type Binding struct {
	Name     string
	Kind     BindingKind
	Declared *types.Expr
	Scope    ScopeID
	Span     source.Span // first binding site
	Param    ast.ParamID
	Func     ast.FuncID
	Class    ast.ClassID
	Import   string // qualified target for imports
	Sites    []Site
}

// Site is one place that binds the name: an assignment, loop target, with-as, ...
type Site struct {
	Stmt   ast.StmtID
	Target ast.ExprID
	// Value is the assigned expression when the target is the whole left-hand side.
	Value ast.ExprID
}

// Annotated reports whether the binding carries a declared type.
func (b *Binding) Annotated() bool {
	return b.Declared != nil
}
