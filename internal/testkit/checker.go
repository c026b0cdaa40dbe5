package testkit

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"regexp"
	"sync"
)

// Rule makes FakeChecker report Message on every source line matching Match.
// The column is the start of the first capture group, or of the match.
type Rule struct {
	Match    *regexp.Regexp
	Severity string // defaults to "error"
	Message  string // may reference capture groups as $1
	Code     string
}

// FakeChecker stands in for an external type checker. With Script set it
// returns the scripted reports in order (repeating the last one); otherwise it
// reads each file and applies Rules line by line.
type FakeChecker struct {
	Rules  []Rule
	Script [][]byte
	Noise  []string // extra unparsable lines appended to each report
	// FailOn makes the n-th call (1-based) return Err.
	FailOn int
	Err    error

	mu    sync.Mutex
	calls int
}

// Calls returns how many times Check ran.
func (f *FakeChecker) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Check implements checker.Checker.
func (f *FakeChecker) Check(_ context.Context, paths []string) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()

	if f.FailOn > 0 && n == f.FailOn {
		return nil, f.Err
	}
	if len(f.Script) > 0 {
		return f.Script[min(n, len(f.Script))-1], nil
	}

	var out bytes.Buffer
	for _, path := range paths {
		// #nosec G304 -- test helper
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		sc := bufio.NewScanner(bytes.NewReader(data))
		for line := 1; sc.Scan(); line++ {
			text := sc.Text()
			for _, r := range f.Rules {
				loc := r.Match.FindStringSubmatchIndex(text)
				if loc == nil {
					continue
				}
				col := loc[0]
				if len(loc) > 2 && loc[2] >= 0 {
					col = loc[2]
				}
				msg := string(r.Match.ExpandString(nil, r.Message, text, loc))
				sev := r.Severity
				if sev == "" {
					sev = "error"
				}
				fmt.Fprintf(&out, "%s:%d:%d: %s: %s  [%s]\n", path, line, col+1, sev, msg, r.Code)
			}
		}
	}
	for _, noise := range f.Noise {
		out.WriteString(noise)
		out.WriteByte('\n')
	}
	return out.Bytes(), nil
}
