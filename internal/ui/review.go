package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"

	"typeguard/internal/fix"
)

// ErrReviewAborted is returned when the user quits a review.
var ErrReviewAborted = errors.New("review aborted")

// Prompt asks on Out and reads answers from In, one line per proposal:
// y accepts, n (or empty) rejects, a accepts this and every later proposal,
// q aborts the session.
type Prompt struct {
	In  io.Reader
	Out io.Writer

	sc     *bufio.Scanner
	accept bool
}

// NewPrompt returns a Prompt on the process's terminal.
func NewPrompt() *Prompt {
	return &Prompt{In: os.Stdin, Out: os.Stdout}
}

// Interactive reports whether stdin is a terminal a user can answer on.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) // #nosec G115 -- fd fits in int
}

var (
	pathColor  = color.New(color.FgCyan)
	addColor   = color.New(color.FgGreen)
	titleColor = color.New(color.Bold)
	dimColor   = color.New(color.Faint)
)

// Review implements driver.Reviewer.
func (p *Prompt) Review(ctx context.Context, prop fix.Proposal) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if p.accept {
		return true, nil
	}
	if p.sc == nil {
		p.sc = bufio.NewScanner(p.In)
	}

	fmt.Fprintf(p.Out, "\n%s %s\n", pathColor.Sprintf("%s:%d", prop.Diagnostic.Path, prop.Diagnostic.Line), titleColor.Sprint(prop.Title))
	fmt.Fprintf(p.Out, "  %s\n", dimColor.Sprint(prop.Diagnostic.Message))
	for _, line := range strings.Split(strings.TrimRight(prop.Replacement, "\n"), "\n") {
		fmt.Fprintf(p.Out, "  %s\n", addColor.Sprint("+ "+line))
	}
	for {
		fmt.Fprintf(p.Out, "  confidence %.2f  apply? [y/N/a/q] ", prop.Confidence)
		if !p.sc.Scan() {
			if err := p.sc.Err(); err != nil {
				return false, err
			}
			return false, ErrReviewAborted
		}
		switch strings.ToLower(strings.TrimSpace(p.sc.Text())) {
		case "y", "yes":
			return true, nil
		case "", "n", "no":
			return false, nil
		case "a", "all":
			p.accept = true
			return true, nil
		case "q", "quit":
			return false, ErrReviewAborted
		}
	}
}
