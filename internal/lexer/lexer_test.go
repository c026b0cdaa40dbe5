package lexer_test

import (
	"strings"
	"testing"

	"typeguard/internal/lexer"
	"typeguard/internal/source"
	"typeguard/internal/token"
)

type testReporter struct {
	msgs []string
}

func (r *testReporter) Report(_ source.Span, msg string) {
	r.msgs = append(r.msgs, msg)
}

func lex(t *testing.T, src string) ([]token.Token, *testReporter) {
	t.Helper()
	fs := source.NewFileSet()
	f := fs.Get(fs.AddVirtual("test.py", []byte(src)))
	rep := &testReporter{}
	return lexer.New(f, lexer.Options{Reporter: rep}).All(), rep
}

func kinds(toks []token.Token) string {
	parts := make([]string, 0, len(toks))
	for _, tok := range toks {
		parts = append(parts, tok.Kind.String())
	}
	return strings.Join(parts, " ")
}

func TestLexer_Layout(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "simple def",
			src:  "def f(x):\n    return x + 1\n",
			want: "def Ident ( Ident ) : NEWLINE INDENT return Ident + IntLit NEWLINE DEDENT EOF",
		},
		{
			name: "blank and comment lines do not affect layout",
			src:  "if a:\n\n    # note\n    b\nc\n",
			want: "if Ident : NEWLINE INDENT Ident NEWLINE DEDENT Ident NEWLINE EOF",
		},
		{
			name: "brackets join lines",
			src:  "x = [1,\n  2]\n",
			want: "Ident = [ IntLit , IntLit ] NEWLINE EOF",
		},
		{
			name: "explicit continuation",
			src:  "x = 1 + \\\n    2\n",
			want: "Ident = IntLit + IntLit NEWLINE EOF",
		},
		{
			name: "missing final newline and nested dedent",
			src:  "class A:\n    def m(self):\n        pass",
			want: "class Ident : NEWLINE INDENT def Ident ( Ident ) : NEWLINE INDENT pass NEWLINE DEDENT DEDENT EOF",
		},
		{
			name: "operators",
			src:  "a **= b // c -> d := e ...\n",
			want: "Ident AugAssign Ident // Ident -> Ident := Ident ... NEWLINE EOF",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, rep := lex(t, tt.src)
			if got := kinds(toks); got != tt.want {
				t.Fatalf("kinds:\n got %s\nwant %s", got, tt.want)
			}
			if len(rep.msgs) != 0 {
				t.Fatalf("unexpected errors: %v", rep.msgs)
			}
		})
	}
}

func TestLexer_Literals(t *testing.T) {
	toks, rep := lex(t, `a = rb'\'' f"{x}" """doc
line""" 0x_1F 1_000 1.5e-3 .5 3j`+"\n")
	if len(rep.msgs) != 0 {
		t.Fatalf("unexpected errors: %v", rep.msgs)
	}
	want := []struct {
		kind token.Kind
		text string
	}{
		{token.Ident, "a"},
		{token.Assign, "="},
		{token.StringLit, `rb'\''`},
		{token.StringLit, `f"{x}"`},
		{token.StringLit, "\"\"\"doc\nline\"\"\""},
		{token.IntLit, "0x_1F"},
		{token.IntLit, "1_000"},
		{token.FloatLit, "1.5e-3"},
		{token.FloatLit, ".5"},
		{token.ImagLit, "3j"},
		{token.Newline, "\n"},
	}
	for i, w := range want {
		if toks[i].Kind != w.kind || toks[i].Text != w.text {
			t.Fatalf("token %d = %v %q, want %v %q", i, toks[i].Kind, toks[i].Text, w.kind, w.text)
		}
	}
}

func TestLexer_SpansMatchText(t *testing.T) {
	src := "def g(a, b=None):\n    return a.b  # trailing\n"
	toks, _ := lex(t, src)
	for _, tok := range toks {
		if tok.IsLayout() || tok.Kind == token.EOF {
			continue
		}
		if got := src[tok.Span.Start:tok.Span.End]; got != tok.Text {
			t.Fatalf("span text %q != token text %q", got, tok.Text)
		}
	}
}

func TestLexer_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unterminated", "x = 'abc\n", "unterminated string literal"},
		{"bad dedent", "if a:\n        b\n    c\n", "unindent does not match any outer indentation level"},
		{"open bracket", "f(1,\n", "unexpected EOF inside brackets"},
		{"invalid char", "a = $\n", "invalid character"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, rep := lex(t, tt.src)
			if len(rep.msgs) == 0 || rep.msgs[0] != tt.want {
				t.Fatalf("errors = %v, want %q", rep.msgs, tt.want)
			}
		})
	}
}

func TestLexer_TypeCommentTrivia(t *testing.T) {
	toks, _ := lex(t, "# type: ignore\nx = 1\n")
	if len(toks[0].Leading) != 1 || toks[0].Leading[0].Kind != token.TriviaTypeComment {
		t.Fatalf("expected type comment trivia on first token, got %+v", toks[0].Leading)
	}
}

func TestNormalizeIdent(t *testing.T) {
	if got := lexer.NormalizeIdent("ﬁle"); got != "file" {
		t.Fatalf("NormalizeIdent = %q", got)
	}
	if got := lexer.NormalizeIdent("plain"); got != "plain" {
		t.Fatalf("ASCII must be unchanged, got %q", got)
	}
}
