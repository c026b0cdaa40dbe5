package stub

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"typeguard/internal/source"
	"typeguard/internal/symbols"
)

func render(t *testing.T, src string) string {
	t.Helper()
	fs := source.NewFileSet()
	sf, err := symbols.Build(fs.Get(fs.AddVirtual("m.py", []byte(src))), "m")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return Render(sf)
}

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "annotated function",
			src:  "def f(a: int, b: str = 'x') -> int:\n    return a\n",
			want: "def f(a: int, b: str = ...) -> int: ...\n",
		},
		{
			name: "unannotated items use Any",
			src:  "import os\n\nLIMIT = 10\n\ndef g(x, *args, y=1, **kw):\n    pass\n",
			want: "from typing import Any\nimport os\nLIMIT: Any\n\ndef g(x: Any, *args: Any, y: Any = ..., **kw: Any) -> Any: ...\n",
		},
		{
			name: "class with methods",
			src: "from typing import TypeVar, Generic\n\nT = TypeVar('T')\n\n@dataclass\nclass Box(Generic[T]):\n" +
				"    \"\"\"Doc.\"\"\"\n    item: T\n    count = 0\n\n    def __init__(self, item: T):\n        self.item = item\n\n" +
				"    @property\n    def value(self) -> T:\n        return self.item\n",
			want: "from typing import Any\nfrom typing import TypeVar, Generic\nT = TypeVar('T')\n\n@dataclass\nclass Box(Generic[T]):\n" +
				"    item: T\n    count: Any\n    def __init__(self, item: T) -> None: ...\n    @property\n    def value(self) -> T: ...\n",
		},
		{
			name: "empty class and keyword-only marker",
			src:  "from typing import Any\n\nclass E(Exception):\n    pass\n\nasync def h(a, /, b, *, c: int) -> None:\n    pass\n",
			want: "from typing import Any\n\nclass E(Exception): ...\n\nasync def h(a: Any, /, b: Any, *, c: int) -> None: ...\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := render(t, tt.src); got != tt.want {
				t.Errorf("got:\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestStubPath(t *testing.T) {
	root := filepath.FromSlash("/proj")
	tests := []struct {
		path, out, want string
		wantErr         bool
	}{
		{"/proj/pkg/m.py", "", "/proj/pkg/m.pyi", false},
		{"/proj/pkg/m.py", "/stubs", "/stubs/pkg/m.pyi", false},
		{"/elsewhere/m.py", "/stubs", "", true},
	}
	for _, tt := range tests {
		got, err := StubPath(filepath.FromSlash(tt.path), root, filepath.FromSlash(tt.out))
		if (err != nil) != tt.wantErr || got != filepath.FromSlash(tt.want) {
			t.Errorf("StubPath(%s, %s) = %q, %v", tt.path, tt.out, got, err)
		}
	}
}

func TestEmitWritesMirroredTree(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "pkg", "m.py")
	if err := os.MkdirAll(filepath.Dir(src), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(src, []byte("def f(x: int) -> int:\n    return x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	broken := filepath.Join(root, "bad.py")
	if err := os.WriteFile(broken, []byte("def (:\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(root, "stubs")

	results, err := Emit(context.Background(), []string{src, broken}, Options{Out: out, Root: root, Jobs: 2})
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Err != nil || results[1].Err == nil {
		t.Fatalf("results = %+v", results)
	}
	data, err := os.ReadFile(filepath.Join(out, "pkg", "m.pyi"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "def f(x: int) -> int: ...\n" {
		t.Fatalf("stub:\n%s", data)
	}
}
