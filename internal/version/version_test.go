package version

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestColoredKeepsDigits(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	tests := []struct{ in, want string }{
		{"0.1.0-dev", "0.1.0-dev"},
		{"1.2.3", "1.2.3"},
		{"1.2.3+meta", "1.2.3+meta"},
		{"weird", "weird"},
	}
	for _, tt := range tests {
		if got := Colored(tt.in); got != tt.want {
			t.Errorf("Colored(%q) = %q", tt.in, got)
		}
	}
}

func TestInfoIncludesOverrides(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	defer func() {
		color.NoColor = prev
		Version, GitCommit, BuildDate = origVersion, origCommit, origDate
	}()

	Version, GitCommit, BuildDate = "1.2.3", "abc123", "2024-01-15T10:30:00Z"
	info := Info()
	for _, want := range []string{"typeguard 1.2.3", "commit:  abc123", "built:   2024-01-15T10:30:00Z", "go:"} {
		if !strings.Contains(info, want) {
			t.Errorf("Info() missing %q:\n%s", want, info)
		}
	}

	GitCommit, BuildDate = "", ""
	if strings.Contains(Info(), "commit:") {
		t.Error("empty commit must be omitted")
	}
}
