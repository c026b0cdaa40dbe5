package diagfmt

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"typeguard/internal/diag"
	"typeguard/internal/driver"
	"typeguard/internal/fix"
	"typeguard/internal/infer"
	"typeguard/internal/journal"
	"typeguard/internal/source"
	"typeguard/internal/stub"
)

func TestFormatPath(t *testing.T) {
	base := t.TempDir()
	inside := filepath.Join(base, "pkg", "m.py")
	outside := filepath.Join(filepath.Dir(base), "other.py")

	tests := []struct {
		name string
		path string
		mode PathMode
		want string
	}{
		{"auto inside", inside, PathModeAuto, filepath.Join("pkg", "m.py")},
		{"auto outside", outside, PathModeAuto, outside},
		{"relative outside", outside, PathModeRelative, filepath.Join("..", "other.py")},
		{"absolute", inside, PathModeAbsolute, inside},
		{"basename", inside, PathModeBasename, "m.py"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatPath(tt.path, base, tt.mode); got != tt.want {
				t.Errorf("FormatPath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestParseFlags(t *testing.T) {
	if f, err := ParseFormat("YML"); err != nil || f != FormatYAML {
		t.Errorf("ParseFormat(YML) = %q, %v", f, err)
	}
	if f, err := ParseFormat(""); err != nil || f != FormatPretty {
		t.Errorf("ParseFormat(\"\") = %q, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) should fail")
	}
	if m, err := ParsePathMode("rel"); err != nil || m != PathModeRelative {
		t.Errorf("ParsePathMode(rel) = %v, %v", m, err)
	}
	if _, err := ParsePathMode("weird"); err == nil {
		t.Error("ParsePathMode(weird) should fail")
	}
}

func virtualFile(path, content string) *source.File {
	fs := source.NewFileSet()
	return fs.Get(fs.AddVirtual(path, []byte(content)))
}

func TestBuildEditPreview(t *testing.T) {
	f := virtualFile("m.py", "import os\ndef f(x):\n    return x\n")
	at := uint32(strings.Index("import os\ndef f(x):\n", "x)") + 1)

	pv, err := buildEditPreview(f, source.Span{File: f.ID, Start: at, End: at}, ": int")
	if err != nil {
		t.Fatal(err)
	}
	if len(pv.before) != 1 || pv.before[0] != "def f(x):" {
		t.Errorf("before = %q", pv.before)
	}
	if len(pv.after) != 1 || pv.after[0] != "def f(x: int):" {
		t.Errorf("after = %q", pv.after)
	}

	if _, err := buildEditPreview(f, source.Span{File: f.ID, Start: 5, End: 500}, "x"); err == nil {
		t.Error("out of range span should fail")
	}
	if _, err := buildEditPreview(nil, source.Span{}, "x"); err == nil {
		t.Error("nil file should fail")
	}
}

func sampleReport(t *testing.T) *diag.Report {
	t.Helper()
	raw := strings.Join([]string{
		"a.py:1:1: error: Function is missing a type annotation for one or more arguments  [no-untyped-def]",
		"a.py:4:5: error: Item \"None\" of \"Optional[User]\" has no attribute \"name\"  [union-attr]",
		"b.py:2:1: error: Function is missing a return type annotation  [no-untyped-def]",
		"b.py:7:1: error: Unsupported operand types  [operator]",
		"b.py:7:1: note: See docs",
		"Found 4 errors in 2 files (checked 2 source files)",
	}, "\n")
	report, err := diag.ParseReport([]byte(raw), diag.ReportOptions{})
	if err != nil {
		t.Fatal(err)
	}
	return report
}

func TestBuildCheckReport(t *testing.T) {
	rep := BuildCheckReport(sampleReport(t), PrettyOpts{PathMode: PathModeBasename})
	if rep.Errors != 4 || rep.Notes != 1 || rep.Fixable != 3 {
		t.Fatalf("errors=%d notes=%d fixable=%d", rep.Errors, rep.Notes, rep.Fixable)
	}
	if len(rep.ByFile) != 2 || rep.ByFile[0].Path != "a.py" || rep.ByFile[0].Errors != 2 {
		t.Errorf("by file = %+v", rep.ByFile)
	}
	if len(rep.ByClass) != 4 {
		t.Fatalf("by class = %+v", rep.ByClass)
	}
	// equal counts fall back to name order
	if rep.ByClass[0].Class != "missing-param" {
		t.Errorf("first class = %q", rep.ByClass[0].Class)
	}
}

func TestSarif(t *testing.T) {
	var buf bytes.Buffer
	meta := SarifRunMeta{ToolName: "typeguard", ToolVersion: "0.1.0", InvocationArgs: []string{"check"}}
	if err := Sarif(&buf, sampleReport(t), PrettyOpts{PathMode: PathModeBasename}, meta); err != nil {
		t.Fatal(err)
	}
	var log sarifLog
	if err := json.Unmarshal(buf.Bytes(), &log); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if log.Version != "2.1.0" || len(log.Runs) != 1 {
		t.Fatalf("log = %+v", log)
	}
	run := log.Runs[0]
	if len(run.Results) != 5 {
		t.Errorf("results = %d, want 5", len(run.Results))
	}
	if len(run.Tool.Driver.Rules) != 3 {
		t.Errorf("rules = %+v", run.Tool.Driver.Rules)
	}
	if run.Results[4].Level != "note" || run.Results[0].Locations[0].PhysicalLocation.Region.StartLine != 1 {
		t.Errorf("unexpected results %+v", run.Results)
	}
}

func TestEncode(t *testing.T) {
	rep := CheckReport{Errors: 2, ByClass: []ClassCount{{Class: "missing-param", Count: 2}}}
	var js, ym bytes.Buffer
	if err := Encode(&js, FormatJSON, rep); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(js.String(), `"errors": 2`) {
		t.Errorf("json = %s", js.String())
	}
	if err := Encode(&ym, FormatYAML, rep); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(ym.String(), "class: missing-param") {
		t.Errorf("yaml = %s", ym.String())
	}
	if err := Encode(&js, FormatPretty, rep); err == nil {
		t.Error("pretty is not an encoding")
	}
}

func TestBuildSessionReport(t *testing.T) {
	original := "def f(x):\n    return x\n"
	at := uint32(strings.Index(original, "x)") + 1)
	d := diag.Diagnostic{Path: "m.py", Line: 1, Column: 1, Severity: diag.SevError, RawCode: "no-untyped-def",
		Message: "Function is missing a type annotation", Class: diag.ClassMissingSignature}
	res := &driver.Result{
		State:        driver.StateConverged,
		Iterations:   1,
		InitialCount: 2,
		FinalCount:   1,
		Proposed: []fix.Proposal{{
			Path: "m.py", Span: source.Span{Start: at, End: at}, Replacement: ": int",
			Class: diag.ClassMissingParam, Diagnostic: d, Confidence: 0.75, Title: "annotate parameter x: int",
		}},
		Previews:   []*fix.FileResult{{Path: "m.py", Original: []byte(original)}},
		Unresolved: []fix.Unresolved{{Diagnostic: d, Reason: infer.ReasonNoEvidence, Detail: "f return"}},
		Excluded:   map[string]string{"broken.py": "syntax error"},
		Err:        errors.New("boom"),
	}
	rep := BuildSessionReport(res, driver.ModeDryRun, PrettyOpts{PathMode: PathModeBasename, ShowPreview: true})
	if rep.State != "converged" || rep.Mode != "dry-run" || rep.Error != "boom" || rep.Fixed != 1 {
		t.Errorf("header = %+v", rep)
	}
	if len(rep.Proposed) != 1 || len(rep.Proposed[0].After) != 1 || rep.Proposed[0].After[0] != "def f(x: int):" {
		t.Fatalf("proposed = %+v", rep.Proposed)
	}
	if len(rep.Unresolved) != 1 || rep.Unresolved[0].Reason != "no-evidence" || rep.Unresolved[0].Code != "no-untyped-def" {
		t.Errorf("unresolved = %+v", rep.Unresolved)
	}
	if rep.Excluded["broken.py"] != "syntax error" {
		t.Errorf("excluded = %v", rep.Excluded)
	}

	var buf bytes.Buffer
	PrettySession(&buf, rep, PrettyOpts{})
	out := buf.String()
	for _, want := range []string{"converged after 1 iteration", "errors 2 → 1", "+ def f(x: int):", "no-evidence: f return", "broken.py"} {
		if !strings.Contains(out, want) {
			t.Errorf("pretty output lacks %q:\n%s", want, out)
		}
	}
}

func TestPrettyCheck(t *testing.T) {
	var buf bytes.Buffer
	PrettyCheck(&buf, BuildCheckReport(sampleReport(t), PrettyOpts{PathMode: PathModeBasename}), PrettyOpts{})
	out := buf.String()
	for _, want := range []string{"a.py:4:5: error:", "[union-attr]", "4 errors, 3 fixable", "by file:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}

	buf.Reset()
	PrettyCheck(&buf, CheckReport{}, PrettyOpts{})
	if !strings.Contains(buf.String(), "no type errors") {
		t.Errorf("clean output = %q", buf.String())
	}
}

func TestPrettyHistoryAndStubs(t *testing.T) {
	var buf bytes.Buffer
	PrettyHistory(&buf, &journal.Stats{}, nil, 10, PrettyOpts{})
	if !strings.Contains(buf.String(), "no sessions recorded") {
		t.Errorf("empty history = %q", buf.String())
	}

	buf.Reset()
	results := []stub.Result{
		{Source: "a.py", Stub: "out/a.pyi", Text: "def f(x: Any) -> Any: ...\n"},
		{Source: "b.py", Err: errors.New("syntax error")},
	}
	PrettyStubs(&buf, results, false, PrettyOpts{PathMode: PathModeBasename})
	out := buf.String()
	for _, want := range []string{"a.py → a.pyi", "failed b.py: syntax error", "1 stub", "1 failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("stub output lacks %q:\n%s", want, out)
		}
	}
}
