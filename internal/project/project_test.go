package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"typeguard/internal/driver"
)

func TestFindConfigWalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := FindConfig(nested); err != nil || ok {
		t.Fatalf("unexpected config: ok=%v err=%v", ok, err)
	}
	cfgPath := filepath.Join(root, ConfigName)
	if err := os.WriteFile(cfgPath, []byte("[fix]\nstrict = true\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	file := filepath.Join(nested, "m.py")
	if err := os.WriteFile(file, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	for _, start := range []string{nested, file} {
		got, ok, err := FindConfig(start)
		if err != nil || !ok || got != cfgPath {
			t.Fatalf("FindConfig(%s) = %q, %v, %v", start, got, ok, err)
		}
	}
	if dir, ok, _ := FindProjectRoot(nested); !ok || dir != root {
		t.Fatalf("root = %q", dir)
	}
}

func TestLoadFile(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
		check   func(t *testing.T, c Config)
	}{
		{
			name: "overrides keep defaults",
			body: "[checker]\ntimeout = \"30s\"\n\n[fix]\nmode = \"review\"\nstrict = true\nmax_iterations = 3\n",
			check: func(t *testing.T, c Config) {
				if c.Checker.Command != "mypy" || c.Checker.Timeout.Duration != 30*time.Second {
					t.Fatalf("checker = %+v", c.Checker)
				}
				opts, err := c.SessionOptions()
				if err != nil || opts.Mode != driver.ModeReview || !opts.Strict || opts.MaxIterations != 3 {
					t.Fatalf("session options = %+v, %v", opts, err)
				}
				if opts.MinConfidence != 0.4 || opts.MinReportLines != 3 {
					t.Fatalf("defaults lost: %v, %d", opts.MinConfidence, opts.MinReportLines)
				}
			},
		},
		{name: "bad mode", body: "[fix]\nmode = \"yolo\"\n", wantErr: true},
		{name: "unknown key", body: "[fix]\nturbo = true\n", wantErr: true},
		{name: "bad duration", body: "[checker]\ntimeout = \"soon\"\n", wantErr: true},
		{name: "empty command", body: "[checker]\ncommand = \"\"\n", wantErr: true},
		{name: "confidence out of range", body: "[fix]\nmin_confidence = 2.0\n", wantErr: true},
		{name: "negative report floor", body: "[fix]\nmin_report_lines = -1\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ConfigName)
			if err := os.WriteFile(path, []byte(tt.body), 0o600); err != nil {
				t.Fatal(err)
			}
			cfg, err := LoadFile(path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestWriteDefaultRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteDefault(dir)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile(default): %v", err)
	}
	def := Default()
	if cfg.Checker.Timeout != def.Checker.Timeout || cfg.Fix.Mode != def.Fix.Mode || len(cfg.Checker.Args) != len(def.Checker.Args) {
		t.Fatalf("round trip = %+v", cfg)
	}
	if cfg.JournalDir("") != filepath.Join(dir, ".typeguard") {
		t.Fatalf("journal dir = %s", cfg.JournalDir(""))
	}
	if _, err := WriteDefault(dir); !errors.Is(err, ErrConfigExists) {
		t.Fatalf("second write err = %v", err)
	}
}
