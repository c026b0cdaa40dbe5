package trace

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestLevelShouldEmit(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeSession, false},
		{LevelSession, ScopeSession, true},
		{LevelSession, ScopePhase, false},
		{LevelPhase, ScopePhase, true},
		{LevelPhase, ScopeFile, false},
		{LevelFile, ScopeFile, true},
		{LevelFile, ScopeDiag, false},
		{LevelDiag, ScopeDiag, true},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Errorf("%s.ShouldEmit(%s) = %v, want %v", tt.level, tt.scope, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	for _, name := range []string{"off", "session", "PHASE", "file", "diag"} {
		l, err := ParseLevel(name)
		if err != nil || !strings.EqualFold(l.String(), name) {
			t.Errorf("ParseLevel(%q) = %s, %v", name, l, err)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("unknown level accepted")
	}
}

func ringCtx(size int, level Level) (*RingTracer, context.Context) {
	ring := NewRingTracer(size, level)
	return ring, WithTracer(context.Background(), ring)
}

func TestRingKeepsTail(t *testing.T) {
	ring, ctx := ringCtx(2, LevelDiag)
	for _, name := range []string{"a", "b", "c"} {
		Note(ctx, ScopeDiag, name, Attrs{}, "")
	}
	events := ring.Snapshot()
	if len(events) != 2 || events[0].Name != "b" || events[1].Name != "c" {
		t.Fatalf("snapshot = %+v", events)
	}
}

func TestChildrenInheritAttrs(t *testing.T) {
	ring, ctx := ringCtx(64, LevelDiag)
	session, ctx := Start(ctx, ScopeSession, "session", Attrs{Session: "0123456789ab"})
	iter, ctx := Start(ctx, ScopeSession, "iteration", Attrs{Iteration: 2})
	file, fctx := Start(ctx, ScopeFile, "synthesize file", Attrs{File: "m.py"})
	Note(fctx, ScopeDiag, "abstain", Attrs{Diag: "m.py:3:1:misc:x"}, "no-evidence")
	file.End("")
	iter.Set(Attrs{Errors: Some(0), Outcome: "improved"}).End("")
	session.End("")

	events := ring.Snapshot()
	if len(events) != 7 {
		t.Fatalf("got %d events: %+v", len(events), events)
	}
	note := events[3]
	if note.Kind != KindNote || note.ParentID != file.ID() {
		t.Fatalf("note = %+v", note)
	}
	want := Attrs{Session: "0123456789ab", Iteration: 2, File: "m.py", Diag: "m.py:3:1:misc:x"}
	if note.Attrs != want {
		t.Fatalf("note attrs = %+v, want %+v", note.Attrs, want)
	}
	end := events[5]
	if end.Kind != KindEnd || end.Name != "iteration" || !end.Attrs.Errors.OK || end.Attrs.Errors.N != 0 || end.Attrs.Outcome != "improved" {
		t.Fatalf("iteration end = %+v", end)
	}
}

func TestFilteredSpanStillCarriesAttrs(t *testing.T) {
	ring, ctx := ringCtx(16, LevelSession)
	root, ctx := Start(ctx, ScopeSession, "iteration", Attrs{Iteration: 3})
	phase, ctx := Start(ctx, ScopePhase, "apply", Attrs{})
	if phase.ID() != 0 {
		t.Fatal("phase span must be filtered at session level")
	}
	inner, _ := Start(ctx, ScopeSession, "nested", Attrs{})
	inner.End("")
	phase.End("")
	root.End("")

	events := ring.Snapshot()
	if len(events) != 4 {
		t.Fatalf("got %d events", len(events))
	}
	if events[1].ParentID != root.ID() || events[1].Attrs.Iteration != 3 {
		t.Fatalf("nested begin = %+v", events[1])
	}
}

func TestRingSelect(t *testing.T) {
	ring, ctx := ringCtx(64, LevelDiag)
	Note(ctx, ScopePhase, "check", Attrs{Errors: Some(2)}, "")
	for i := 1; i <= 2; i++ {
		it, ictx := Start(ctx, ScopeSession, "iteration", Attrs{Iteration: i})
		Note(ictx, ScopeDiag, "abstain", Attrs{File: "a.py", Diag: "a.py:1:1:misc:x"}, "")
		Note(ictx, ScopeDiag, "abstain", Attrs{File: "b.py", Diag: "b.py:4:1:misc:y"}, "")
		it.End("")
	}

	second := ring.Select(Match{Iteration: 2})
	if len(second) != 5 || second[0].Name != "check" {
		t.Fatalf("iteration 2 = %+v", second)
	}
	if got := ring.Select(Match{Diag: "b.py:4:1:misc:y"}); len(got) != 2 || got[0].Attrs.File != "b.py" {
		t.Fatalf("by diag = %+v", got)
	}
	if got := ring.Select(Match{Iteration: 1, File: "a.py"}); len(got) != 1 {
		t.Fatalf("iteration 1, a.py = %+v", got)
	}

	var dump bytes.Buffer
	if err := ring.Dump(&dump, FormatText, Match{Iteration: 1}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(dump.String(), "iter=1 file=a.py") || strings.Contains(dump.String(), "iter=2") {
		t.Errorf("dump = %s", dump.String())
	}
}

func TestStreamJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelFile, FormatNDJSON)
	ctx := WithTracer(context.Background(), tr)
	span, ctx := Start(ctx, ScopePhase, "checker", Attrs{Iteration: 1})
	Note(ctx, ScopeFile, "apply failed", Attrs{File: "a.py"}, "stale")
	Note(ctx, ScopeDiag, "abstain", Attrs{}, "filtered")
	span.Set(Attrs{Exit: Some(0)}).End("")
	if err := tr.Close(); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], `"kind":"begin"`) || strings.Contains(lines[0], `"exit"`) {
		t.Errorf("begin line: %s", lines[0])
	}
	if !strings.Contains(lines[1], `"file":"a.py"`) || !strings.Contains(lines[2], `"exit":0`) {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestContextDefaults(t *testing.T) {
	ctx := context.Background()
	if FromContext(ctx) != Nop || CurrentSpan(ctx) != nil {
		t.Fatal("empty context must yield Nop and no span")
	}
	span, _ := Start(ctx, ScopeSession, "session", Attrs{})
	if span.ID() != 0 || span.End("") < 0 {
		t.Fatal("spans on Nop must be inert")
	}
	var nilSpan *Span
	nilSpan.Set(Attrs{Outcome: "x"}).End("")
}

func TestFormatFor(t *testing.T) {
	if FormatFor(FormatAuto, "run.ndjson") != FormatNDJSON {
		t.Error("ndjson extension")
	}
	if FormatFor(FormatAuto, "-") != FormatText {
		t.Error("stderr defaults to text")
	}
	if FormatFor(FormatText, "x.json") != FormatText {
		t.Error("explicit format wins")
	}
}

func TestNewPicksSinks(t *testing.T) {
	var buf bytes.Buffer
	tests := []struct {
		mode     StorageMode
		wantRing bool
	}{
		{ModeStream, false},
		{ModeRing, true},
		{ModeBoth, true},
	}
	for _, tt := range tests {
		tr, err := New(Config{Level: LevelPhase, Mode: tt.mode, Output: &buf})
		if err != nil {
			t.Fatalf("%s: %v", tt.mode, err)
		}
		if _, ok := Ring(tr); ok != tt.wantRing {
			t.Errorf("%s: ring = %v", tt.mode, ok)
		}
	}
	if tr, err := New(Config{Level: LevelOff}); err != nil || tr != Nop {
		t.Errorf("off = %v, %v", tr, err)
	}
}

func TestHeartbeatNamesOpenSpans(t *testing.T) {
	ring, ctx := ringCtx(64, LevelPhase)
	span, _ := Start(ctx, ScopePhase, "checker", Attrs{Iteration: 4})
	hb := StartHeartbeat(ring, 5*time.Millisecond)
	time.Sleep(40 * time.Millisecond)
	hb.Stop()
	hb.Stop()
	span.End("")

	var beats []Event
	for _, ev := range ring.Snapshot() {
		if ev.Kind == KindHeartbeat {
			beats = append(beats, ev)
		}
	}
	if len(beats) == 0 {
		t.Fatal("no heartbeat emitted")
	}
	b := beats[0]
	if !strings.Contains(b.Detail, "checker") || b.Runtime == nil || b.Runtime.Goroutines == 0 || b.Attrs.Iteration != 4 {
		t.Errorf("heartbeat = %+v", b)
	}
	if StartHeartbeat(Nop, time.Millisecond) != nil {
		t.Error("heartbeat on Nop tracer")
	}
}
