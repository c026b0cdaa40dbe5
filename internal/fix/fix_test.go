package fix

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"typeguard/internal/diag"
	"typeguard/internal/infer"
	"typeguard/internal/source"
	"typeguard/internal/symbols"
)

func build(t *testing.T, src string) *symbols.SourceFile {
	t.Helper()
	fs := source.NewFileSet()
	sf, err := symbols.Build(fs.Get(fs.AddVirtual("m.py", []byte(src))), "m")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return sf
}

func parse(t *testing.T, line string) diag.Diagnostic {
	t.Helper()
	d, ok := diag.ParseLine(line)
	if !ok {
		t.Fatalf("ParseLine(%q) failed", line)
	}
	return d
}

// fixText runs synthesis, selection and support edits, and returns the patched text.
func fixText(t *testing.T, src string, lines ...string) (string, []Unresolved) {
	t.Helper()
	sf := build(t, src)
	var diags []diag.Diagnostic
	for _, l := range lines {
		diags = append(diags, parse(t, l))
	}
	props, unresolved := Synthesize(context.Background(), infer.New(sf, nil, infer.Options{}), diags, Options{})
	selected, _ := Select(props)
	batch, _ := WithSupport(sf, selected)
	out, err := Apply(sf.File.Content, batch)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	return string(out), unresolved
}

func TestSynthesizeEdits(t *testing.T) {
	tests := []struct {
		name string
		src  string
		diag string
		want string
	}{
		{
			name: "signature from call site",
			src:  "def f(x):\n    return x + 1\n\nf(3)\n",
			diag: "m.py:1: error: Function is missing a type annotation  [no-untyped-def]",
			want: "def f(x: int) -> int:\n    return x + 1\n\nf(3)\n",
		},
		{
			name: "parameter with default",
			src:  "def g(n=1):\n    return None\n",
			diag: "m.py:1: error: Function is missing a type annotation for one or more arguments  [no-untyped-def]",
			want: "def g(n: int = 1):\n    return None\n",
		},
		{
			name: "return only",
			src:  "def h():\n    return 'x'\n",
			diag: "m.py:1: error: Function is missing a return type annotation  [no-untyped-def]",
			want: "def h() -> str:\n    return 'x'\n",
		},
		{
			name: "statement guard",
			src:  "def find(k):\n    return None\n\nclass User:\n    pass\n\nu = find(1)\nprint(u.name)\n",
			diag: `m.py:8:7: error: Item "None" of "Optional[User]" has no attribute "name"  [union-attr]`,
			want: "def find(k):\n    return None\n\nclass User:\n    pass\n\nu = find(1)\nif u is not None:\n    print(u.name)\n",
		},
		{
			name: "expression guard",
			src:  "u = None\nx = u.name\n",
			diag: `m.py:2:5: error: Item "None" of "Optional[User]" has no attribute "name"  [union-attr]`,
			want: "u = None\nx = (u.name if u is not None else None)\n",
		},
		{
			name: "guarded method call",
			src:  "u = None\nn = u.strip()\n",
			diag: `m.py:2:5: error: Item "None" of "Optional[str]" has no attribute "strip"  [union-attr]`,
			want: "u = None\nn = (u.strip() if u is not None else None)\n",
		},
		{
			name: "empty container",
			src:  "items = []\nitems.append(1)\n",
			diag: `m.py:1: error: Need type annotation for "items" (hint: "items: List[<type>] = ...")  [var-annotated]`,
			want: "from typing import List\nitems: List[int] = []\nitems.append(1)\n",
		},
		{
			name: "merges existing typing import",
			src:  "\"\"\"Doc.\"\"\"\nfrom typing import Optional\n\nitems = []\nitems.append('a')\n",
			diag: `m.py:4: error: Need type annotation for "items" (hint: "items: List[<type>] = ...")  [var-annotated]`,
			want: "\"\"\"Doc.\"\"\"\nfrom typing import List, Optional\n\nitems: List[str] = []\nitems.append('a')\n",
		},
		{
			name: "import after header",
			src:  "import os\n\nseen = set()\nseen.add('a')\n",
			diag: `m.py:3: error: Need type annotation for "seen" (hint: "seen: Set[<type>] = ...")  [var-annotated]`,
			want: "import os\nfrom typing import Set\n\nseen: Set[str] = set()\nseen.add('a')\n",
		},
		{
			name: "bare generic",
			src:  "from typing import List\n\ndef total(xs: List):\n    return None\n\ntotal([1, 2])\n",
			diag: `m.py:3:15: error: Missing type parameters for generic type "List"  [type-arg]`,
			want: "from typing import List\n\ndef total(xs: List[int]):\n    return None\n\ntotal([1, 2])\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, unresolved := fixText(t, tt.src, tt.diag)
			if got != tt.want {
				t.Errorf("got:\n%s\nwant:\n%s\nunresolved: %+v", got, tt.want, unresolved)
			}
		})
	}
}

func TestSynthesizeAbstains(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		diag   string
		reason infer.Reason
	}{
		{
			name:   "no evidence",
			src:    "def f(x):\n    pass\n",
			diag:   "m.py:1: error: Function is missing a type annotation for one or more arguments  [no-untyped-def]",
			reason: infer.ReasonNoEvidence,
		},
		{
			name:   "no function on line",
			src:    "x = 1\n",
			diag:   "m.py:1: error: Function is missing a type annotation  [no-untyped-def]",
			reason: infer.ReasonUnlocated,
		},
		{
			name:   "unsupported class",
			src:    "x = 1\n",
			diag:   "m.py:1: error: Unsupported operand types  [operator]",
			reason: infer.ReasonUnsupported,
		},
		{
			name:   "already guarded",
			src:    "u = None\nx = u.name if u is not None else None\n",
			diag:   `m.py:2:5: error: Item "None" of "Optional[User]" has no attribute "name"  [union-attr]`,
			reason: infer.ReasonUnsupported,
		},
		{
			name:   "receiver is a call",
			src:    "def get(k):\n    return None\n\nx = get(1).name\n",
			diag:   `m.py:4:5: error: Item "None" of "Optional[User]" has no attribute "name"  [union-attr]`,
			reason: infer.ReasonUnsupported,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sf := build(t, tt.src)
			props, unresolved := Synthesize(context.Background(), infer.New(sf, nil, infer.Options{}), []diag.Diagnostic{parse(t, tt.diag)}, Options{})
			if len(props) != 0 {
				t.Fatalf("expected no proposals, got %v", props)
			}
			if len(unresolved) != 1 || unresolved[0].Reason != tt.reason {
				t.Fatalf("unresolved = %+v, want reason %s", unresolved, tt.reason)
			}
		})
	}
}

func TestSynthesizeSkipsRejected(t *testing.T) {
	sf := build(t, "def f(x):\n    return x + 1\n\nf(3)\n")
	d := parse(t, "m.py:1: error: Function is missing a type annotation  [no-untyped-def]")
	opts := Options{Rejected: func(key string) (infer.Reason, bool) {
		if strings.Contains(key, "|param|") {
			return infer.ReasonVerificationRejected, true
		}
		return infer.ReasonNone, false
	}}
	props, unresolved := Synthesize(context.Background(), infer.New(sf, nil, infer.Options{}), []diag.Diagnostic{d}, opts)
	if len(props) != 1 || props[0].Replacement != " -> int" {
		t.Fatalf("props = %v", props)
	}
	if len(unresolved) != 0 {
		t.Fatalf("unresolved = %+v", unresolved)
	}
}

func TestSynthesizeIsIdempotent(t *testing.T) {
	d := "m.py:1: error: Function is missing a type annotation  [no-untyped-def]"
	once, _ := fixText(t, "def f(x):\n    return x + 1\n\nf(3)\n", d)
	sf := build(t, once)
	props, _ := Synthesize(context.Background(), infer.New(sf, nil, infer.Options{}), []diag.Diagnostic{parse(t, d)}, Options{})
	if len(props) != 0 {
		t.Fatalf("second pass proposed %v", props)
	}
}

func proposal(file *source.File, start, end uint32, conf float64, key string) Proposal {
	sp := source.Span{File: file.ID, Start: start, End: end}
	p := newProposal(file, sp, sp, "x")
	p.Confidence = conf
	p.Key = key
	p.Title = key
	return p
}

func TestSelectPrefersConfidence(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("m.py", []byte("abcdefghijklmnop\n")))
	high := proposal(file, 4, 10, 0.9, "high")
	low := proposal(file, 6, 8, 0.6, "low")

	selected, deferred := Select([]Proposal{low, high})
	if len(selected) != 1 || selected[0].Key != "high" {
		t.Fatalf("selected = %v", selected)
	}
	if len(deferred) != 1 || deferred[0].Key != "low" {
		t.Fatalf("deferred = %v", deferred)
	}
}

func TestSelectNeverOverlaps(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("m.py", []byte("0123456789abcdefghij\n")))
	props := []Proposal{
		proposal(file, 0, 5, 0.5, "a"),
		proposal(file, 3, 3, 0.7, "b"),
		proposal(file, 5, 5, 0.7, "c"),
		proposal(file, 5, 5, 0.6, "d"),
		proposal(file, 5, 9, 0.8, "e"),
		proposal(file, 9, 12, 0.4, "f"),
		proposal(file, 10, 11, 0.9, "g"),
		proposal(file, 12, 12, 0.3, "h"),
	}
	selected, deferred := Select(props)
	if len(selected)+len(deferred) != len(props) {
		t.Fatalf("lost proposals: %d + %d", len(selected), len(deferred))
	}
	for i := range selected {
		for j := i + 1; j < len(selected); j++ {
			if Conflict(selected[i], selected[j]) {
				t.Errorf("%s conflicts with %s", selected[i].Key, selected[j].Key)
			}
		}
		if i > 0 && selected[i-1].Span.Start > selected[i].Span.Start {
			t.Errorf("selected not sorted by start")
		}
	}
	if _, err := Apply(file.Content, selected); err != nil {
		t.Fatalf("Apply: %v", err)
	}
}

func TestSpansConflict(t *testing.T) {
	sp := func(s, e uint32) source.Span { return source.Span{Start: s, End: e} }
	tests := []struct {
		a, b source.Span
		want bool
	}{
		{sp(1, 1), sp(1, 1), false},
		{sp(1, 1), sp(1, 3), true},
		{sp(3, 3), sp(1, 3), false},
		{sp(1, 3), sp(3, 5), false},
		{sp(1, 4), sp(3, 5), true},
	}
	for _, tt := range tests {
		if got := spansConflict(tt.a, tt.b); got != tt.want {
			t.Errorf("spansConflict(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestApplyRejectsStaleEdit(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("m.py", []byte("def f(x):\n    pass\n")))
	p := proposal(file, 7, 7, 0.9, "p")
	p.Window = source.Span{File: file.ID, Start: 0, End: 9}
	p.Checksum = [32]byte{}
	if _, err := Apply(file.Content, []Proposal{p}); !errors.Is(err, ErrStaleEdit) {
		t.Fatalf("err = %v, want ErrStaleEdit", err)
	}
}

func TestApplyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "m.py")
	src := "def h():\r\n    return 'x'\r\n"
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}
	fs := source.NewFileSet()
	sf, err := symbols.Load(fs, path, "m")
	if err != nil {
		t.Fatal(err)
	}
	d := parse(t, path+":1: error: Function is missing a return type annotation  [no-untyped-def]")
	props, _ := Synthesize(context.Background(), infer.New(sf, nil, infer.Options{}), []diag.Diagnostic{d}, Options{})
	if len(props) != 1 {
		t.Fatalf("props = %v", props)
	}

	res, err := ApplyFile(path, props, ApplyOptions{DryRun: true})
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if on, _ := os.ReadFile(path); string(on) != src {
		t.Fatalf("dry run wrote the file")
	}
	if string(res.Updated) != "def h() -> str:\r\n    return 'x'\r\n" {
		t.Fatalf("updated = %q", res.Updated)
	}

	if _, err := ApplyFile(path, props, ApplyOptions{}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	on, _ := os.ReadFile(path)
	if string(on) != string(res.Updated) {
		t.Fatalf("on disk = %q", on)
	}
	info, _ := os.Stat(path)
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v", info.Mode().Perm())
	}

	// the file changed, so the same proposals are now stale
	if _, err := ApplyFile(path, props, ApplyOptions{}); !errors.Is(err, ErrStaleEdit) {
		t.Fatalf("err = %v, want ErrStaleEdit", err)
	}
}

func TestApplyFileKeepsSourceOnParseError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "m.py")
	src := "x = 1\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual(path, []byte(src)))
	p := proposal(file, 4, 5, 1, "broken")
	p.Replacement = "(("
	if _, err := ApplyFile(path, []Proposal{p}, ApplyOptions{}); !errors.Is(err, ErrUnparsable) {
		t.Fatalf("err = %v, want ErrUnparsable", err)
	}
	if on, _ := os.ReadFile(path); string(on) != src {
		t.Fatalf("file modified: %q", on)
	}
}
