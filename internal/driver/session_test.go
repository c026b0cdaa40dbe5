package driver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"typeguard/internal/checker"
	"typeguard/internal/diag"
	"typeguard/internal/fix"
	"typeguard/internal/infer"
	"typeguard/internal/symbols"
	"typeguard/internal/testkit"
	"typeguard/internal/trace"
)

const untypedSrc = "def f(x):\n    return x + 1\n\nf(3)\n"

var untypedRule = testkit.Rule{
	Match:   regexp.MustCompile(`^def (\w+)\([^:)]*\):`),
	Message: "Function is missing a type annotation",
	Code:    "no-untyped-def",
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

type recordingSink struct {
	events []Event
}

func (r *recordingSink) OnEvent(ev Event) {
	r.events = append(r.events, ev)
}

func (r *recordingSink) saw(stage Stage, status Status) bool {
	for _, ev := range r.events {
		if ev.Stage == stage && ev.Status == status {
			return true
		}
	}
	return false
}

func TestSessionFixesMissingSignature(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "m.py", untypedSrc)
	sink := &recordingSink{}
	chk := &testkit.FakeChecker{Rules: []testkit.Rule{untypedRule}}

	res := NewSession(chk, []string{path}, Options{Root: dir, Progress: sink}).Run(context.Background())
	if res.State != StateConverged || res.Err != nil {
		t.Fatalf("state = %s, err = %v", res.State, res.Err)
	}
	if got, want := readFile(t, path), "def f(x: int) -> int:\n    return x + 1\n\nf(3)\n"; got != want {
		t.Fatalf("file:\n%s\nwant:\n%s", got, want)
	}
	if res.InitialCount != 1 || res.FinalCount != 0 || res.Fixed() != 1 {
		t.Fatalf("counts: %d -> %d", res.InitialCount, res.FinalCount)
	}
	if len(res.FilesTouched) != 1 || res.FilesTouched[0] != path {
		t.Fatalf("touched = %v", res.FilesTouched)
	}
	if len(res.EditsApplied) == 0 || res.EditsApplied[0].Code != "no-untyped-def" {
		t.Fatalf("edits = %+v", res.EditsApplied)
	}
	if res.Iterations != 1 || len(res.Unresolved) != 0 {
		t.Fatalf("iterations = %d, unresolved = %+v", res.Iterations, res.Unresolved)
	}
	if !sink.saw(StageVerify, StatusDone) {
		t.Fatalf("no verify event in %+v", sink.events)
	}
}

func TestSessionTraceCarriesSessionAttrs(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "m.py", untypedSrc)
	ring := trace.NewRingTracer(256, trace.LevelFile)
	ctx := trace.WithTracer(context.Background(), ring)
	chk := &testkit.FakeChecker{Rules: []testkit.Rule{untypedRule}}

	res := NewSession(chk, []string{path}, Options{Root: dir, ID: "20261019-abc"}).Run(ctx)
	if res.State != StateConverged {
		t.Fatalf("state = %s, err = %v", res.State, res.Err)
	}

	var fileBegin, iterEnd, sessionEnd *trace.Event
	events := ring.Select(trace.Match{Iteration: 1})
	for i := range events {
		ev := &events[i]
		switch {
		case ev.Kind == trace.KindBegin && ev.Name == "synthesize file":
			fileBegin = ev
		case ev.Kind == trace.KindEnd && ev.Name == "iteration":
			iterEnd = ev
		case ev.Kind == trace.KindEnd && ev.Name == "session":
			sessionEnd = ev
		}
	}
	if fileBegin == nil || iterEnd == nil || sessionEnd == nil {
		t.Fatalf("missing events in %+v", events)
	}
	want := trace.Attrs{Session: "20261019-abc", Iteration: 1, File: path}
	if fileBegin.Attrs != want {
		t.Errorf("file span attrs = %+v, want %+v", fileBegin.Attrs, want)
	}
	if iterEnd.Attrs.Outcome != "improved" || iterEnd.Attrs.Errors != trace.Some(0) {
		t.Errorf("iteration end = %+v", iterEnd.Attrs)
	}
	if sessionEnd.Attrs.Outcome != "converged" || sessionEnd.Attrs.Iteration != 0 {
		t.Errorf("session end = %+v", sessionEnd.Attrs)
	}
	if got := ring.Select(trace.Match{File: path}); len(got) != 2 {
		t.Errorf("file events = %+v", got)
	}
}

func TestSessionGuardsOptionalAccess(t *testing.T) {
	dir := t.TempDir()
	src := "def find(k):\n    return None\n\nclass User:\n    pass\n\nu = find(1)\nprint(u.name)\n"
	path := writeFile(t, dir, "users.py", src)
	chk := &testkit.FakeChecker{Rules: []testkit.Rule{{
		Match:   regexp.MustCompile(`^print\((u)\.name\)`),
		Message: `Item "None" of "Optional[User]" has no attribute "name"`,
		Code:    "union-attr",
	}}}

	res := NewSession(chk, []string{path}, Options{Root: dir}).Run(context.Background())
	if res.State != StateConverged {
		t.Fatalf("state = %s, err = %v", res.State, res.Err)
	}
	if got := readFile(t, path); !strings.HasSuffix(got, "u = find(1)\nif u is not None:\n    print(u.name)\n") {
		t.Fatalf("file:\n%s", got)
	}
}

func TestSessionToleratesReportNoise(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "m.py", untypedSrc)
	chk := &testkit.FakeChecker{
		Rules: []testkit.Rule{untypedRule},
		Noise: []string{"mypy: cache is stale", "Found 1 error in 1 file (checked 1 source file)"},
	}
	res := NewSession(chk, []string{path}, Options{Root: dir}).Run(context.Background())
	if res.State != StateConverged || res.FinalCount != 0 {
		t.Fatalf("state = %s, final = %d, err = %v", res.State, res.FinalCount, res.Err)
	}
	// the verify report is only chatter; the fix must survive it
	if got := readFile(t, path); !strings.HasPrefix(got, "def f(x: int) -> int:") {
		t.Fatalf("file:\n%s", got)
	}
}

func TestSessionExcludesUnreadableFile(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.py", "def broken(:\n")
	good := writeFile(t, dir, "m.py", untypedSrc)
	chk := &testkit.FakeChecker{Rules: []testkit.Rule{untypedRule, {
		Match:   regexp.MustCompile(`^def broken`),
		Message: "Function is missing a type annotation",
		Code:    "no-untyped-def",
	}}}

	res := NewSession(chk, []string{bad, good}, Options{Root: dir}).Run(context.Background())
	if res.State != StateConverged || res.Err != nil {
		t.Fatalf("state = %s, err = %v", res.State, res.Err)
	}
	if res.InitialCount != 2 || res.FinalCount != 1 {
		t.Fatalf("counts: %d -> %d", res.InitialCount, res.FinalCount)
	}
	if why, ok := res.Excluded[bad]; !ok || !strings.Contains(why, "source unreadable") {
		t.Fatalf("excluded = %v", res.Excluded)
	}
	if len(res.Unresolved) != 1 || res.Unresolved[0].Reason != infer.ReasonExcludedFile {
		t.Fatalf("unresolved = %+v", res.Unresolved)
	}
	if len(res.FilesTouched) != 1 || res.FilesTouched[0] != good {
		t.Fatalf("touched = %v", res.FilesTouched)
	}
	if !strings.HasPrefix(readFile(t, good), "def f(x: int) -> int:") || readFile(t, bad) != "def broken(:\n" {
		t.Fatal("only the readable file may change")
	}
}

func TestSessionAppliesDeferredProposalLater(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "m.py", "u = None\nw = None\nprint(u.name, w.name)\n")
	chk := &testkit.FakeChecker{Rules: []testkit.Rule{
		{
			Match:   regexp.MustCompile(`^print\((u)\.name`),
			Message: `Item "None" of "Optional[User]" has no attribute "name"`,
			Code:    "union-attr",
		},
		{
			// still reported once u is guarded, gone when w is
			Match:   regexp.MustCompile(`^ {0,4}print\(u\.name, (w)\.name`),
			Message: `Item "None" of "Optional[User]" has no attribute "name"`,
			Code:    "union-attr",
		},
	}}

	res := NewSession(chk, []string{path}, Options{Root: dir}).Run(context.Background())
	if res.State != StateConverged || res.FinalCount != 0 {
		t.Fatalf("state = %s, final = %d, err = %v", res.State, res.FinalCount, res.Err)
	}
	if len(res.EditsApplied) != 2 {
		t.Fatalf("edits = %+v", res.EditsApplied)
	}
	first, second := res.EditsApplied[0], res.EditsApplied[1]
	if first.Iteration != 1 || !strings.Contains(first.Title, "u is not None") {
		t.Fatalf("first edit = %+v", first)
	}
	if second.Iteration != 2 || !strings.Contains(second.Title, "w is not None") {
		t.Fatalf("deferred edit = %+v", second)
	}
	want := "u = None\nw = None\nif u is not None:\n    if w is not None:\n        print(u.name, w.name)\n"
	if got := readFile(t, path); got != want {
		t.Fatalf("file:\n%s\nwant:\n%s", got, want)
	}
}

func TestSessionRejectsMalformedReport(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "m.py", untypedSrc)
	chk := &testkit.FakeChecker{
		Rules: []testkit.Rule{untypedRule},
		Noise: []string{"garbage one", "garbage two", "garbage three"},
	}
	res := NewSession(chk, []string{path}, Options{Root: dir}).Run(context.Background())
	if res.State != StateAborted || !errors.Is(res.Err, diag.ErrMalformedReport) {
		t.Fatalf("state = %s, err = %v", res.State, res.Err)
	}
	if readFile(t, path) != untypedSrc {
		t.Fatal("file must not change")
	}
}

func TestSessionCheckerMissing(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "m.py", untypedSrc)
	chk := &testkit.FakeChecker{Rules: []testkit.Rule{untypedRule}, FailOn: 1, Err: checker.ErrCheckerNotFound}

	res := NewSession(chk, []string{path}, Options{Root: dir}).Run(context.Background())
	if res.State != StateAborted || !errors.Is(res.Err, checker.ErrCheckerNotFound) {
		t.Fatalf("state = %s, err = %v", res.State, res.Err)
	}
	if len(res.FilesTouched) != 0 || readFile(t, path) != untypedSrc {
		t.Fatalf("touched = %v", res.FilesTouched)
	}
}

func TestSessionRollsBackOnRegression(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "m.py", untypedSrc)
	chk := &testkit.FakeChecker{Rules: []testkit.Rule{
		untypedRule,
		{Match: regexp.MustCompile(`(-> int):`), Message: "Return type is wrong", Code: "misc"},
		{Match: regexp.MustCompile(`(x: int)`), Message: "Argument type is wrong", Code: "misc"},
	}}

	res := NewSession(chk, []string{path}, Options{Root: dir}).Run(context.Background())
	if res.State != StateConverged {
		t.Fatalf("state = %s, err = %v", res.State, res.Err)
	}
	if readFile(t, path) != untypedSrc {
		t.Fatalf("regressing batch must be rolled back:\n%s", readFile(t, path))
	}
	if len(res.FilesTouched) != 0 || len(res.EditsApplied) != 0 || res.FinalCount != 1 {
		t.Fatalf("touched = %v, edits = %d, final = %d", res.FilesTouched, len(res.EditsApplied), res.FinalCount)
	}
	if len(res.Unresolved) != 1 || res.Unresolved[0].Reason != infer.ReasonVerificationRejected {
		t.Fatalf("unresolved = %+v", res.Unresolved)
	}
}

func TestSessionCheckerFailsDuringVerify(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "m.py", untypedSrc)
	boom := fmt.Errorf("%w: exit status 2", checker.ErrCheckerFailed)
	chk := &testkit.FakeChecker{Rules: []testkit.Rule{untypedRule}, FailOn: 2, Err: boom}

	res := NewSession(chk, []string{path}, Options{Root: dir}).Run(context.Background())
	if res.State != StateAborted || !errors.Is(res.Err, checker.ErrCheckerFailed) {
		t.Fatalf("state = %s, err = %v", res.State, res.Err)
	}
	if readFile(t, path) != untypedSrc {
		t.Fatal("unverified batch must be rolled back")
	}
}

func TestSessionCancelled(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "m.py", untypedSrc)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := NewSession(&testkit.FakeChecker{Rules: []testkit.Rule{untypedRule}}, []string{path}, Options{Root: dir}).Run(ctx)
	if res.State != StateAborted || !errors.Is(res.Err, ErrCancelled) {
		t.Fatalf("state = %s, err = %v", res.State, res.Err)
	}
	if readFile(t, path) != untypedSrc {
		t.Fatal("file must not change")
	}
}

const twoFuncSrc = "def f(x):\n    return x + 1\n\ndef g(y):\n    return y * 2\n\nf(3)\ng(4)\n"

func twoFuncReport(path string, lines ...int) []byte {
	var b strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&b, "%s:%d:1: error: Function is missing a type annotation  [no-untyped-def]\n", path, l)
	}
	return []byte(b.String())
}

func TestSessionIterationLimits(t *testing.T) {
	tests := []struct {
		name    string
		script  func(path string) [][]byte
		state   State
		err     error
		changed bool
	}{
		{
			name: "improving run is exhausted",
			script: func(path string) [][]byte {
				return [][]byte{twoFuncReport(path, 1, 4), twoFuncReport(path, 4)}
			},
			state:   StateExhausted,
			changed: true,
		},
		{
			name: "never improving run hits the cap",
			script: func(path string) [][]byte {
				return [][]byte{twoFuncReport(path, 1, 4)}
			},
			state: StateAborted,
			err:   ErrIterationCap,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeFile(t, dir, "m.py", twoFuncSrc)
			chk := &testkit.FakeChecker{Script: tt.script(path)}

			res := NewSession(chk, []string{path}, Options{Root: dir, MaxIterations: 1}).Run(context.Background())
			if res.State != tt.state {
				t.Fatalf("state = %s, err = %v", res.State, res.Err)
			}
			if tt.err != nil && !errors.Is(res.Err, tt.err) {
				t.Fatalf("err = %v, want %v", res.Err, tt.err)
			}
			if changed := readFile(t, path) != twoFuncSrc; changed != tt.changed {
				t.Fatalf("changed = %v, want %v", changed, tt.changed)
			}
		})
	}
}

func TestSessionDryRunTouchesNothing(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "m.py", untypedSrc)
	chk := &testkit.FakeChecker{Rules: []testkit.Rule{untypedRule}}

	res := NewSession(chk, []string{path}, Options{Root: dir, Mode: ModeDryRun}).Run(context.Background())
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if readFile(t, path) != untypedSrc || len(res.FilesTouched) != 0 {
		t.Fatal("dry run must not write")
	}
	if len(res.Proposed) == 0 || len(res.Previews) != 1 {
		t.Fatalf("proposed = %d, previews = %d", len(res.Proposed), len(res.Previews))
	}
	if got := string(res.Previews[0].Updated); !strings.HasPrefix(got, "def f(x: int) -> int:") {
		t.Fatalf("preview:\n%s", got)
	}
	if chk.Calls() != 1 {
		t.Fatalf("dry run ran the checker %d times", chk.Calls())
	}
}

func TestSessionReviewRejectsAll(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "m.py", untypedSrc)
	asked := 0
	reviewer := ReviewerFunc(func(context.Context, fix.Proposal) (bool, error) {
		asked++
		return false, nil
	})
	chk := &testkit.FakeChecker{Rules: []testkit.Rule{untypedRule}}

	res := NewSession(chk, []string{path}, Options{Root: dir, Mode: ModeReview, Reviewer: reviewer}).Run(context.Background())
	if res.State != StateConverged || asked == 0 {
		t.Fatalf("state = %s, asked = %d, err = %v", res.State, asked, res.Err)
	}
	if readFile(t, path) != untypedSrc {
		t.Fatal("rejected proposals must not be applied")
	}
	if len(res.Unresolved) != 1 || res.Unresolved[0].Reason != infer.ReasonReviewRejected {
		t.Fatalf("unresolved = %+v", res.Unresolved)
	}
}

func TestSessionReviewWithoutReviewer(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "m.py", untypedSrc)
	res := NewSession(&testkit.FakeChecker{Rules: []testkit.Rule{untypedRule}}, []string{path}, Options{Root: dir, Mode: ModeReview}).Run(context.Background())
	if res.State != StateAborted || res.Err == nil {
		t.Fatalf("state = %s, err = %v", res.State, res.Err)
	}
}

func TestSessionNoFiles(t *testing.T) {
	res := NewSession(&testkit.FakeChecker{}, nil, Options{}).Run(context.Background())
	if res.State != StateAborted || !errors.Is(res.Err, ErrNoFiles) {
		t.Fatalf("state = %s, err = %v", res.State, res.Err)
	}
}

func TestSessionAbortsWhenNothingParses(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bad.py", "def broken(:\n")
	chk := &testkit.FakeChecker{Rules: []testkit.Rule{{
		Match:   regexp.MustCompile(`^def broken`),
		Message: "Function is missing a type annotation",
		Code:    "no-untyped-def",
	}}}

	res := NewSession(chk, []string{path}, Options{Root: dir}).Run(context.Background())
	if res.State != StateAborted || !errors.Is(res.Err, symbols.ErrSourceUnreadable) {
		t.Fatalf("state = %s, err = %v", res.State, res.Err)
	}
	if readFile(t, path) != "def broken(:\n" {
		t.Fatal("file must not change")
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeAuto, false},
		{"auto", ModeAuto, false},
		{"Review", ModeReview, false},
		{"dry-run", ModeDryRun, false},
		{"yolo", ModeAuto, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseMode(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.py", "")
	b := writeFile(t, dir, "pkg/b.py", "")
	writeFile(t, dir, ".venv/c.py", "")
	writeFile(t, dir, "__pycache__/d.py", "")
	writeFile(t, dir, "notes.txt", "")

	got, err := Discover([]string{dir, a})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Fatalf("Discover = %v", got)
	}
	if _, err := Discover([]string{filepath.Join(dir, "notes.txt")}); !errors.Is(err, ErrNoFiles) {
		t.Fatalf("err = %v", err)
	}
}
