package parser

import (
	"strings"
	"testing"

	"typeguard/internal/ast"
	"typeguard/internal/source"
	"typeguard/internal/testkit"
)

func parse(t *testing.T, src string) *ast.Tree {
	t.Helper()
	fs := source.NewFileSet()
	res := ParseFile(fs.Get(fs.AddVirtual("test.py", []byte(src))), Options{})
	if err := res.Err(); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if err := testkit.CheckSpanInvariants(res.Tree); err != nil {
		t.Fatalf("span invariants: %v", err)
	}
	return res.Tree
}

func firstFunc(t *testing.T, tree *ast.Tree) *ast.FuncDef {
	t.Helper()
	for _, id := range tree.Body {
		if st := tree.Stmt(id); st.Kind == ast.StmtFunctionDef {
			return tree.Func(st.Func)
		}
	}
	t.Fatalf("no function in tree")
	return nil
}

func TestParse_FunctionSignature(t *testing.T) {
	src := "@decorator\nasync def fetch(self, a, b: int = 3, *args, key=None, **kw) -> str:\n    return a\n"
	tree := parse(t, src)
	fn := firstFunc(t, tree)
	if fn.Name != "fetch" || !fn.Async || len(fn.Decorators) != 1 {
		t.Fatalf("unexpected def header: %+v", fn)
	}
	if got := src[fn.SigEnd-1 : fn.SigEnd]; got != ")" {
		t.Fatalf("SigEnd must follow ')', got %q", got)
	}
	if src[fn.BodyColon] != ':' {
		t.Fatalf("BodyColon points at %q", src[fn.BodyColon])
	}
	wantKinds := []ast.ParamKind{
		ast.ParamPositional, ast.ParamPositional, ast.ParamPositional,
		ast.ParamVarArgs, ast.ParamKeywordOnly, ast.ParamVarKwargs,
	}
	if len(fn.Params) != len(wantKinds) {
		t.Fatalf("got %d params", len(fn.Params))
	}
	for i, pid := range fn.Params {
		if got := tree.Param(pid).Kind; got != wantKinds[i] {
			t.Errorf("param %d kind = %d, want %d", i, got, wantKinds[i])
		}
	}
	b := tree.Param(fn.Params[2])
	if tree.Text(b.Annotation) != "int" || tree.Text(b.Default) != "3" {
		t.Fatalf("param b: annotation %q default %q", tree.Text(b.Annotation), tree.Text(b.Default))
	}
	if tree.Text(fn.Returns) != "str" {
		t.Fatalf("returns = %q", tree.Text(fn.Returns))
	}
}

func TestParse_MethodsKnowTheirClass(t *testing.T) {
	tree := parse(t, "class A(Base, metaclass=M):\n    x: int = 0\n    def m(self):\n        def inner():\n            pass\n        return inner\n")
	var methods, nested int
	tree.InspectStmts(tree.Body, true, func(_ ast.StmtID, st *ast.Stmt) {
		if st.Kind != ast.StmtFunctionDef {
			return
		}
		if tree.Func(st.Func).Class.IsValid() {
			methods++
		} else {
			nested++
		}
	})
	if methods != 1 || nested != 1 {
		t.Fatalf("methods=%d nested=%d", methods, nested)
	}
	cl := tree.Class(tree.Stmt(tree.Body[0]).Class)
	if len(cl.Bases) != 1 || len(cl.Keywords) != 1 || cl.Keywords[0].Name != "metaclass" {
		t.Fatalf("class header: %+v", cl)
	}
}

func TestParse_StatementKinds(t *testing.T) {
	src := strings.Join([]string{
		"import os.path as p, sys",
		"from ..pkg import (a as b, c,)",
		"x = y = [1, 2]",
		"z: Dict[str, int] = {}",
		"n += 1",
		"if a is not None:\n    pass\nelif b:\n    pass\nelse:\n    pass",
		"for i, v in enumerate(xs):\n    continue",
		"while True:\n    break",
		"with open(f) as fh, lock:\n    pass",
		"try:\n    pass\nexcept (A, B) as e:\n    raise X from e\nfinally:\n    pass",
		"del d[k], e",
		"assert x, 'msg'",
		"global g",
		"a; b",
		"",
	}, "\n")
	tree := parse(t, src)
	want := []ast.StmtKind{
		ast.StmtImport, ast.StmtImportFrom, ast.StmtAssign, ast.StmtAnnAssign, ast.StmtAugAssign,
		ast.StmtIf, ast.StmtFor, ast.StmtWhile, ast.StmtWith, ast.StmtTry, ast.StmtDel,
		ast.StmtAssert, ast.StmtGlobal, ast.StmtExpr, ast.StmtExpr,
	}
	if len(tree.Body) != len(want) {
		t.Fatalf("got %d statements, want %d", len(tree.Body), len(want))
	}
	for i, id := range tree.Body {
		if got := tree.Stmt(id).Kind; got != want[i] {
			t.Errorf("stmt %d = %s, want %s", i, got, want[i])
		}
	}
	from := tree.Stmt(tree.Body[1])
	if from.Level != 2 || from.Module != "pkg" || len(from.Names) != 2 || from.Names[0].Bound() != "b" {
		t.Fatalf("from-import: %+v", from)
	}
	assign := tree.Stmt(tree.Body[2])
	if len(assign.Targets) != 2 {
		t.Fatalf("chained assignment targets = %d", len(assign.Targets))
	}
}

func TestParse_YieldStatements(t *testing.T) {
	tests := []struct {
		src  string
		kind ast.ExprKind
	}{
		{"yield", ast.ExprYield},
		{"yield 1", ast.ExprYield},
		{"yield a, b", ast.ExprYield},
		{"yield from g()", ast.ExprYieldFrom},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			tree := parse(t, "def gen():\n    "+tt.src+"\n")
			fn := firstFunc(t, tree)
			if len(fn.Body) != 1 {
				t.Fatalf("body has %d statements", len(fn.Body))
			}
			st := tree.Stmt(fn.Body[0])
			if st.Kind != ast.StmtExpr {
				t.Fatalf("stmt kind = %s", st.Kind)
			}
			if got := tree.Expr(st.Value).Kind; got != tt.kind {
				t.Fatalf("expr kind = %d, want %d", got, tt.kind)
			}
		})
	}
}

func TestParse_GroupedWithItems(t *testing.T) {
	tests := []struct {
		src     string
		items   int
		targets int
	}{
		{"with (open(a) as b, open(c) as d):\n    pass\n", 2, 2},
		{"with (open(a) as b,\n      lock,):\n    pass\n", 2, 1},
		{"with (a, b):\n    pass\n", 2, 0},
		{"with (a) as b:\n    pass\n", 1, 1},
		{"with (a, b) as c:\n    pass\n", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			tree := parse(t, tt.src)
			st := tree.Stmt(tree.Body[0])
			if st.Kind != ast.StmtWith || len(st.Items) != tt.items {
				t.Fatalf("kind = %s, items = %d, want %d", st.Kind, len(st.Items), tt.items)
			}
			targets := 0
			for _, it := range st.Items {
				if it.Target.IsValid() {
					targets++
				}
			}
			if targets != tt.targets {
				t.Fatalf("targets = %d, want %d", targets, tt.targets)
			}
		})
	}
}

func TestParse_ExpressionShapes(t *testing.T) {
	tests := []struct {
		src  string
		kind ast.ExprKind
	}{
		{"a if b else c", ast.ExprIfExp},
		{"lambda x, y=1: x + y", ast.ExprLambda},
		{"not a and b or c", ast.ExprBoolOp},
		{"a < b <= c", ast.ExprCompare},
		{"x not in ys", ast.ExprCompare},
		{"-a ** 2", ast.ExprUnary},
		{"a.b(c)[d:e:f]", ast.ExprSubscript},
		{"[x * 2 for x in xs if x]", ast.ExprListComp},
		{"{k: v for k, v in items}", ast.ExprDictComp},
		{"{1, 2}", ast.ExprSet},
		{"{**base, 'k': 1}", ast.ExprDict},
		{"(x for x in xs)", ast.ExprGenerator},
		{"f'{x}' 'tail'", ast.ExprFString},
		{"b'x'", ast.ExprBytes},
		{"(n := 10)", ast.ExprNamed},
		{"await fut", ast.ExprAwait},
		{"1, 2", ast.ExprTuple},
		{"...", ast.ExprConst},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			tree := parse(t, tt.src+"\n")
			st := tree.Stmt(tree.Body[0])
			if got := tree.Expr(st.Value).Kind; got != tt.kind {
				t.Fatalf("kind = %s, want %s", got, tt.kind)
			}
		})
	}
}

func TestParse_ParenthesizedSpanIncludesParens(t *testing.T) {
	src := "(a + b).c\n"
	tree := parse(t, src)
	attr := tree.Expr(tree.Stmt(tree.Body[0]).Value)
	if got := tree.Text(attr.Left); got != "(a + b)" {
		t.Fatalf("inner text = %q", got)
	}
	if got := tree.File.Text(attr.Span); got != "(a + b).c" {
		t.Fatalf("attribute text = %q", got)
	}
}

func TestParse_StatementIndent(t *testing.T) {
	tree := parse(t, "def f(x):\n    if x:\n        return x.y\n")
	fn := firstFunc(t, tree)
	ifStmt := tree.Stmt(fn.Body[0])
	ret := tree.Stmt(ifStmt.Body[0])
	if ifStmt.Indent != 4 || ret.Indent != 8 {
		t.Fatalf("indents = %d, %d", ifStmt.Indent, ret.Indent)
	}
}

func TestParse_SyntaxErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"missing colon", "def f(x)\n    pass\n", "expected ':'"},
		{"unexpected indent", "x = 1\n    y = 2\n", "unexpected indent"},
		{"dangling operator", "x = 1 +\n", "expected expression"},
		{"lexer error surfaces", "s = 'open\n", "unterminated string literal"},
		{"try without handler", "try:\n    pass\nx = 1\n", "expected except or finally block"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := source.NewFileSet()
			res := ParseFile(fs.Get(fs.AddVirtual("bad.py", []byte(tt.src))), Options{})
			err := res.Err()
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}
