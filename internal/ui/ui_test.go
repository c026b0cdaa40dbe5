package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"typeguard/internal/diag"
	"typeguard/internal/driver"
	"typeguard/internal/fix"
)

func proposal(title string) fix.Proposal {
	return fix.Proposal{
		Title:       title,
		Replacement: ": int",
		Confidence:  0.75,
		Diagnostic:  diag.Diagnostic{Path: "m.py", Line: 1, Message: "Function is missing a type annotation"},
	}
}

func TestPromptAnswers(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []bool
		wantErr error
	}{
		{name: "yes then no", input: "y\nn\n", want: []bool{true, false}},
		{name: "empty rejects", input: "\n", want: []bool{false}},
		{name: "retry on junk", input: "maybe\nyes\n", want: []bool{true}},
		{name: "all accepts the rest", input: "a\n", want: []bool{true, true, true}},
		{name: "quit", input: "q\n", want: []bool{false}, wantErr: ErrReviewAborted},
		{name: "eof aborts", input: "", want: []bool{false}, wantErr: ErrReviewAborted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := &Prompt{In: strings.NewReader(tt.input), Out: &out}
			for i, want := range tt.want {
				got, err := p.Review(context.Background(), proposal("annotate x"))
				if tt.wantErr != nil && i == len(tt.want)-1 {
					if !errors.Is(err, tt.wantErr) {
						t.Fatalf("err = %v, want %v", err, tt.wantErr)
					}
					return
				}
				if err != nil || got != want {
					t.Fatalf("answer %d = %v, %v; want %v", i, got, err, want)
				}
			}
			if !strings.Contains(out.String(), "annotate x") {
				t.Fatalf("prompt output:\n%s", out.String())
			}
		})
	}
}

func TestProgressModelTracksErrors(t *testing.T) {
	events := make(chan driver.Event)
	m := NewProgressModel("typeguard fix", []string{"a.py", "b.py"}, events).(*progressModel)

	m.applyEvent(driver.Event{Stage: driver.StageCheck, Status: driver.StatusDone, Errors: 4})
	m.applyEvent(driver.Event{File: "a.py", Stage: driver.StageApply, Status: driver.StatusDone, Iteration: 1})
	m.applyEvent(driver.Event{Stage: driver.StageCheck, Status: driver.StatusDone, Errors: 9, Iteration: 1})
	m.applyEvent(driver.Event{Stage: driver.StageVerify, Status: driver.StatusDone, Errors: 1, Iteration: 1})

	if m.initial != 4 || m.current != 1 || m.iteration != 1 {
		t.Fatalf("initial=%d current=%d iteration=%d", m.initial, m.current, m.iteration)
	}
	if got := m.fraction(); got != 0.75 {
		t.Fatalf("fraction = %v", got)
	}
	if m.items[0].status != "patched" || m.items[0].fixes != 1 || m.items[1].status != "queued" {
		t.Fatalf("items = %+v", m.items)
	}
	if view := m.View(); !strings.Contains(view, "errors 4 → 1") || !strings.Contains(view, "a.py") {
		t.Fatalf("view:\n%s", view)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("internal/very/long/path.py", 10); len(got) > 10 || !strings.HasPrefix(got, "int") || !strings.HasSuffix(got, "...") {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("short.py", 20); got != "short.py" {
		t.Fatalf("truncate = %q", got)
	}
}
