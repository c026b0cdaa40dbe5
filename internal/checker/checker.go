// Package checker runs the external type checker that a fix session uses as
// its oracle.
package checker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"slices"
	"strings"
	"time"

	"typeguard/internal/trace"
)

var (
	ErrCheckerNotFound = errors.New("checker not found")
	ErrCheckerTimeout  = errors.New("checker timed out")
	ErrCheckerFailed   = errors.New("checker failed")
)

// DefaultTimeout bounds one checker run.
const DefaultTimeout = 300 * time.Second

// DefaultArgs make mypy print one parseable line per diagnostic.
var DefaultArgs = []string{
	"--show-column-numbers",
	"--show-error-codes",
	"--no-error-summary",
	"--no-color-output",
	"--disallow-untyped-defs",
}

// Checker produces a raw diagnostic report for paths.
type Checker interface {
	Check(ctx context.Context, paths []string) ([]byte, error)
}

// Config describes how to invoke the checker.
type Config struct {
	Command   string
	Args      []string
	Timeout   time.Duration
	ExitCodes []int // accepted exit statuses; checkers exit 1 when they report errors
	Dir       string
}

// Runner runs a checker command as a subprocess.
type Runner struct {
	cfg  Config
	path string
}

// NewRunner resolves the checker command on PATH.
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Command == "" {
		cfg.Command = "mypy"
	}
	if cfg.Args == nil {
		cfg.Args = DefaultArgs
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if len(cfg.ExitCodes) == 0 {
		cfg.ExitCodes = []int{0, 1}
	}
	path, err := exec.LookPath(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCheckerNotFound, cfg.Command, err)
	}
	return &Runner{cfg: cfg, path: path}, nil
}

// Path is the resolved executable.
func (r *Runner) Path() string {
	return r.path
}

// Check runs the checker over paths and returns stdout followed by stderr.
func (r *Runner) Check(ctx context.Context, paths []string) ([]byte, error) {
	span, ctx := trace.Start(ctx, trace.ScopePhase, "checker", trace.Attrs{})
	defer span.End("")

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	args := append(slices.Clone(r.cfg.Args), paths...)
	// #nosec G204 -- the command comes from the user's config
	cmd := exec.CommandContext(ctx, r.path, args...)
	cmd.Dir = r.cfg.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := append(stdout.Bytes(), stderr.Bytes()...)
	if ctx.Err() == context.DeadlineExceeded {
		return out, fmt.Errorf("%w after %s", ErrCheckerTimeout, r.cfg.Timeout)
	}
	if err == nil {
		span.Set(trace.Attrs{Exit: trace.Some(0)})
		return out, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		span.Set(trace.Attrs{Exit: trace.Some(code)})
		if slices.Contains(r.cfg.ExitCodes, code) {
			return out, nil
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = firstLine(stdout.String())
		}
		return out, fmt.Errorf("%w: %s exited with %d: %s", ErrCheckerFailed, r.cfg.Command, code, msg)
	}
	if ctx.Err() != nil {
		return out, ctx.Err()
	}
	return out, fmt.Errorf("%w: %w", ErrCheckerFailed, err)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
