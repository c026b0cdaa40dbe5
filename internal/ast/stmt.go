package ast

import (
	"typeguard/internal/source"
)

type StmtKind uint8

const (
	StmtInvalid StmtKind = iota
	StmtExpr
	StmtAssign
	StmtAnnAssign
	StmtAugAssign
	StmtReturn
	StmtIf
	StmtFor
	StmtWhile
	StmtWith
	StmtTry
	StmtFunctionDef
	StmtClassDef
	StmtImport
	StmtImportFrom
	StmtPass
	StmtBreak
	StmtContinue
	StmtRaise
	StmtGlobal
	StmtNonlocal
	StmtDel
	StmtAssert
)

var stmtKindNames = [...]string{
	StmtInvalid:     "Invalid",
	StmtExpr:        "Expr",
	StmtAssign:      "Assign",
	StmtAnnAssign:   "AnnAssign",
	StmtAugAssign:   "AugAssign",
	StmtReturn:      "Return",
	StmtIf:          "If",
	StmtFor:         "For",
	StmtWhile:       "While",
	StmtWith:        "With",
	StmtTry:         "Try",
	StmtFunctionDef: "FunctionDef",
	StmtClassDef:    "ClassDef",
	StmtImport:      "Import",
	StmtImportFrom:  "ImportFrom",
	StmtPass:        "Pass",
	StmtBreak:       "Break",
	StmtContinue:    "Continue",
	StmtRaise:       "Raise",
	StmtGlobal:      "Global",
	StmtNonlocal:    "Nonlocal",
	StmtDel:         "Del",
	StmtAssert:      "Assert",
}

func (k StmtKind) String() string {
	if int(k) < len(stmtKindNames) {
		return stmtKindNames[k]
	}
	return "StmtKind(?)"
}

// Stmt is a single statement node. Field use depends on Kind:
//
//	Expr       Value
//	Assign     Targets (chained a = b = v), Value
//	AnnAssign  Targets[0], Annotation, Value (optional)
//	AugAssign  Targets[0], Op, Value
//	Return     Value (optional)
//	If/While   Test, Body, Orelse
//	For        Targets[0], Iter, Body, Orelse, Async
//	With       Items, Body, Async
//	Try        Body, Handlers, Orelse, Finally
//	Raise      Value, Cause
//	Assert     Value (test), Cause (message)
//	Del        Targets
//	Import/ImportFrom  Module, Level, Names
//	Global/Nonlocal    Idents
type Stmt struct {
	Kind       StmtKind
	Span       source.Span
	Targets    []ExprID
	Value      ExprID
	Annotation ExprID
	Cause      ExprID
	Op         string
	Test       ExprID
	Iter       ExprID
	Body       []StmtID
	Orelse     []StmtID
	Finally    []StmtID
	Handlers   []Handler
	Items      []WithItem
	Async      bool
	Func       FuncID
	Class      ClassID
	Module     string
	Level      int
	Names      []Alias
	Idents     []string
	// Indent is the column (0-based, bytes) where the statement starts.
	Indent uint32
}

type Handler struct {
	Span source.Span
	Type ExprID
	Name string
	Body []StmtID
}

type WithItem struct {
	Context ExprID
	Target  ExprID
}

// Alias is one name of an import statement; AsName may be empty.
type Alias struct {
	Name   string
	AsName string
	Span   source.Span
}

// Bound returns the name this alias binds in the importing scope.
func (a Alias) Bound() string {
	if a.AsName != "" {
		return a.AsName
	}
	return a.Name
}
