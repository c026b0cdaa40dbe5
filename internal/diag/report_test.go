package diag

import (
	"errors"
	"testing"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		ok   bool
		want Diagnostic
	}{
		{
			name: "full",
			line: `app/m.py:3:5: error: Function is missing a type annotation  [no-untyped-def]`,
			ok:   true,
			want: Diagnostic{Path: "app/m.py", Line: 3, Column: 5, Severity: SevError, Code: CodeNoUntypedDef, RawCode: "no-untyped-def",
				Message: "Function is missing a type annotation", Class: ClassMissingSignature},
		},
		{
			name: "no column",
			line: `m.py:10: error: Function is missing a return type annotation  [no-untyped-def]`,
			ok:   true,
			want: Diagnostic{Path: "m.py", Line: 10, Severity: SevError, Code: CodeNoUntypedDef, RawCode: "no-untyped-def",
				Message: "Function is missing a return type annotation", Class: ClassMissingReturn},
		},
		{
			name: "note without code",
			line: `m.py:10:1: note: Use "-> None" if function does not return a value`,
			ok:   true,
			want: Diagnostic{Path: "m.py", Line: 10, Column: 1, Severity: SevNote, Code: CodeNone,
				Message: `Use "-> None" if function does not return a value`, Class: ClassOther},
		},
		{
			name: "unknown code kept raw",
			line: `m.py:2:1: error: Something new  [brand-new-code]`,
			ok:   true,
			want: Diagnostic{Path: "m.py", Line: 2, Column: 1, Severity: SevError, Code: CodeUnrecognized, RawCode: "brand-new-code",
				Message: "Something new", Class: ClassOther},
		},
		{
			name: "brackets inside message",
			line: `m.py:4:9: error: Item "None" of "Optional[List[int]]" has no attribute "append"  [union-attr]`,
			ok:   true,
			want: Diagnostic{Path: "m.py", Line: 4, Column: 9, Severity: SevError, Code: CodeUnionAttr, RawCode: "union-attr",
				Message: `Item "None" of "Optional[List[int]]" has no attribute "append"`, Class: ClassOptionalAccess},
		},
		{
			name: "windows path",
			line: `C:\src\m.py:1:1: warning: unused  [misc]`,
			ok:   true,
			want: Diagnostic{Path: `C:\src\m.py`, Line: 1, Column: 1, Severity: SevWarning, Code: CodeMisc, RawCode: "misc",
				Message: "unused", Class: ClassOther},
		},
		{name: "garbage", line: "Traceback (most recent call last):"},
		{name: "zero line", line: "m.py:0:1: error: x"},
		{name: "bad severity", line: "m.py:1:1: fatal: x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLine(tt.line)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Fatalf("got %+v\nwant %+v", got, tt.want)
			}
		})
	}
}

func TestParseReportToleratesNoise(t *testing.T) {
	raw := "a.py:1:1: error: Function is missing a type annotation  [no-untyped-def]\n" +
		"a.py:2:5: error: Need type annotation for \"items\"  [var-annotated]\n" +
		"\n" +
		"this line is garbage\n" +
		"b.py:7:3: error: Missing type parameters for generic type \"List\"  [type-arg]\n" +
		"Found 3 errors in 2 files (checked 2 source files)\n"
	rep, err := ParseReport([]byte(raw), ReportOptions{MaxMalformedFraction: 0.3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rep.Diagnostics) != 3 {
		t.Fatalf("got %d diagnostics, want 3", len(rep.Diagnostics))
	}
	if rep.Counted != 4 || rep.Malformed != 1 {
		t.Fatalf("counted=%d malformed=%d", rep.Counted, rep.Malformed)
	}
	wantClasses := []Class{ClassMissingSignature, ClassUntypedContainer, ClassUnresolvedGeneric}
	for i, c := range wantClasses {
		if rep.Diagnostics[i].Class != c {
			t.Errorf("diag %d class = %s, want %s", i, rep.Diagnostics[i].Class, c)
		}
	}
}

func TestParseReportTooMuchNoise(t *testing.T) {
	raw := "a.py:1:1: error: x  [misc]\nnoise one\nnoise two\n"
	rep, err := ParseReport([]byte(raw), ReportOptions{})
	if !errors.Is(err, ErrMalformedReport) {
		t.Fatalf("expected ErrMalformedReport, got %v", err)
	}
	if rep == nil || rep.Malformed != 2 {
		t.Fatalf("unexpected report %+v", rep)
	}
}

func TestParseReportShortChatter(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		floor   int
		wantErr bool
	}{
		{name: "lone stray line", raw: "mypy: cache is stale\n"},
		{name: "two stray lines", raw: "warming cache\nmypy: cache is stale\n"},
		{name: "floor reached", raw: "one\ntwo\nthree\n", wantErr: true},
		{name: "floor lowered", raw: "mypy: cache is stale\n", floor: 1, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep, err := ParseReport([]byte(tt.raw), ReportOptions{MinCountedLines: tt.floor})
			if got := errors.Is(err, ErrMalformedReport); got != tt.wantErr {
				t.Fatalf("err = %v, want malformed = %v", err, tt.wantErr)
			}
			if len(rep.Diagnostics) != 0 || rep.Malformed != rep.Counted {
				t.Fatalf("unexpected report %+v", rep)
			}
		})
	}
}

func TestParseReportEmptyAndSuccess(t *testing.T) {
	for _, raw := range []string{"", "\n\n", "Success: no issues found in 4 source files\n"} {
		rep, err := ParseReport([]byte(raw), ReportOptions{})
		if err != nil {
			t.Fatalf("%q: %v", raw, err)
		}
		if rep.ErrorCount() != 0 || rep.Counted != 0 {
			t.Fatalf("%q: unexpected %+v", raw, rep)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		code Code
		msg  string
		want Class
	}{
		{CodeNoUntypedDef, "Function is missing a type annotation for one or more arguments", ClassMissingParam},
		{CodeNoUntypedDef, "Function is missing a return type annotation", ClassMissingReturn},
		{CodeNoUntypedDef, "Function is missing a type annotation", ClassMissingSignature},
		{CodeIndex, `Value of type "Optional[List[int]]" is not indexable`, ClassOptionalAccess},
		{CodeIndex, `Value of type "int" is not indexable`, ClassOther},
		{CodeVarAnnotated, `Need type annotation for "d" (hint: "d: Dict[<type>, <type>] = ...")`, ClassUntypedContainer},
		{CodeTypeArg, `Missing type parameters for generic type "Dict"`, ClassUnresolvedGeneric},
		{CodeAssignment, "Incompatible types in assignment", ClassOther},
	}
	for _, tt := range tests {
		if got := Classify(tt.code, tt.msg); got != tt.want {
			t.Errorf("Classify(%s, %q) = %s, want %s", tt.code, tt.msg, got, tt.want)
		}
	}
}

func TestQuoted(t *testing.T) {
	got := Quoted(`Item "None" of "Optional[User]" has no attribute "name"`)
	want := []string{"None", "Optional[User]", "name"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestBagSortDedup(t *testing.T) {
	b := NewBag(
		Diagnostic{Path: "b.py", Line: 1, Severity: SevError, Message: "x"},
		Diagnostic{Path: "a.py", Line: 5, Severity: SevNote, Message: "n"},
		Diagnostic{Path: "a.py", Line: 5, Severity: SevError, Message: "e"},
		Diagnostic{Path: "b.py", Line: 1, Severity: SevError, Message: "x"},
	)
	b.Dedup()
	if b.Len() != 3 {
		t.Fatalf("len after dedup = %d", b.Len())
	}
	b.Sort()
	items := b.Items()
	if items[0].Path != "a.py" || items[0].Severity != SevError || items[2].Path != "b.py" {
		t.Fatalf("unexpected order: %+v", items)
	}
	if b.ErrorCount() != 2 {
		t.Fatalf("errors = %d", b.ErrorCount())
	}
	if got := len(b.ByPath()["a.py"]); got != 1 {
		t.Fatalf("ByPath a.py = %d", got)
	}
}

func TestDiagnosticString(t *testing.T) {
	line := `m.py:4:9: error: Item "None" of "Optional[X]" has no attribute "a"  [union-attr]`
	d, ok := ParseLine(line)
	if !ok {
		t.Fatal("parse failed")
	}
	if d.String() != line {
		t.Fatalf("round trip = %q", d.String())
	}
}
