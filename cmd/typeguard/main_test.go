package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"typeguard/internal/diag"
	"typeguard/internal/driver"
	"typeguard/internal/project"
)

func TestReadUIMode(t *testing.T) {
	cases := []struct {
		input string
		want  uiMode
		ok    bool
	}{
		{"", uiModeAuto, true},
		{" ON ", uiModeOn, true},
		{"off", uiModeOff, true},
		{"sometimes", "", false},
	}
	for _, tc := range cases {
		got, err := readUIMode(tc.input)
		if (err == nil) != tc.ok || got != tc.want {
			t.Fatalf("readUIMode(%q) = %q, %v", tc.input, got, err)
		}
	}
	if shouldUseTUI(uiModeOn, false, false) || shouldUseTUI(uiModeOn, true, true) {
		t.Fatal("json output and review mode must not start the live view")
	}
	if !shouldUseTUI(uiModeOn, true, false) {
		t.Fatal("--ui on should force the live view")
	}
}

func fixFlagsCommand() *cobra.Command {
	c := &cobra.Command{Use: "fix"}
	addFixFlags(c)
	return c
}

func TestApplyFixFlags(t *testing.T) {
	c := fixFlagsCommand()
	if err := c.Flags().Parse([]string{"--mode", "strict", "--jobs", "3", "--min-confidence", "0.6"}); err != nil {
		t.Fatal(err)
	}
	opts := driver.Options{Mode: driver.ModeReview, MaxIterations: 7}
	if err := applyFixFlags(c, &opts); err != nil {
		t.Fatal(err)
	}
	if opts.Mode != driver.ModeAuto || !opts.Strict || opts.Jobs != 3 || opts.MinConfidence != 0.6 || opts.MaxIterations != 7 {
		t.Fatalf("options = %+v", opts)
	}

	bad := fixFlagsCommand()
	if err := bad.Flags().Parse([]string{"--max-iterations", "0"}); err != nil {
		t.Fatal(err)
	}
	if err := applyFixFlags(bad, &opts); err == nil {
		t.Fatal("--max-iterations 0 should be rejected")
	}
}

func TestOnlyFiles(t *testing.T) {
	dir := t.TempDir()
	mine := filepath.Join(dir, "a.py")
	diags := []diag.Diagnostic{
		{Path: mine, Line: 1},
		{Path: filepath.Join(dir, "lib", "b.py"), Line: 2},
		{Path: mine, Line: 3},
	}
	kept := onlyFiles(diags, []string{mine})
	if len(kept) != 2 || kept[0].Line != 1 || kept[1].Line != 3 {
		t.Fatalf("kept = %+v", kept)
	}
}

func TestExitError(t *testing.T) {
	inner := errors.New("boom")
	err := usageError(inner)
	var ee *exitError
	if !errors.As(err, &ee) || ee.code != 2 {
		t.Fatalf("usageError = %#v", err)
	}
	if !errors.Is(err, inner) || err.Error() != "boom" {
		t.Fatalf("wrapped error lost: %v", err)
	}
	if (&exitError{code: 1}).Error() != "exit status 1" {
		t.Fatal("bare exit error text")
	}
}

func TestInitCommand(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "proj")
	var out bytes.Buffer
	initCmd.SetOut(&out)
	defer initCmd.SetOut(nil)

	if err := initCmd.RunE(initCmd, []string{dir}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), project.ConfigName) {
		t.Fatalf("output = %q", out.String())
	}
	if _, err := os.Stat(filepath.Join(dir, project.ConfigName)); err != nil {
		t.Fatal(err)
	}
	err := initCmd.RunE(initCmd, []string{dir})
	if !errors.Is(err, project.ErrConfigExists) {
		t.Fatalf("second init = %v", err)
	}
}
