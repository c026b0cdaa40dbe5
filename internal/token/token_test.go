package token_test

import (
	"testing"

	"typeguard/internal/token"
)

func TestKeywordLookup(t *testing.T) {
	tests := []struct {
		ident string
		want  token.Kind
		ok    bool
	}{
		{"def", token.KwDef, true},
		{"None", token.KwNone, true},
		{"none", token.Invalid, false},
		{"match", token.Invalid, false},
		{"lambda", token.KwLambda, true},
	}
	for _, tt := range tests {
		got, ok := token.LookupKeyword(tt.ident)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("LookupKeyword(%q) = %v,%v want %v,%v", tt.ident, got, ok, tt.want, tt.ok)
		}
	}
}

func TestKindClassification(t *testing.T) {
	if !(token.Token{Kind: token.KwNone}).IsLiteral() {
		t.Fatalf("None is a literal constant")
	}
	if !(token.Token{Kind: token.KwYield}).IsKeyword() || (token.Token{Kind: token.Plus}).IsKeyword() {
		t.Fatalf("keyword range is wrong")
	}
	if !(token.Token{Kind: token.Dedent}).IsLayout() {
		t.Fatalf("Dedent is layout")
	}
	if token.StarStar.String() != "**" || token.Newline.String() != "NEWLINE" {
		t.Fatalf("unexpected names: %s %s", token.StarStar, token.Newline)
	}
}

func TestStringPrefix(t *testing.T) {
	tests := map[string]string{
		`"x"`:      "",
		`f"{a}"`:   "f",
		`Rb'\d'`:   "rb",
		`"""doc"""`: "",
	}
	for text, want := range tests {
		tok := token.Token{Kind: token.StringLit, Text: text}
		if got := tok.StringPrefix(); got != want {
			t.Errorf("StringPrefix(%s) = %q want %q", text, got, want)
		}
	}
}
