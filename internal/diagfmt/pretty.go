package diagfmt

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"typeguard/internal/journal"
	"typeguard/internal/stub"
)

type palette struct {
	bad, warn, good, dim, bold, path func(a ...any) string
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) func(a ...any) string {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.SprintFunc()
	}
	return palette{
		bad:  mk(color.FgRed, color.Bold),
		warn: mk(color.FgYellow),
		good: mk(color.FgGreen, color.Bold),
		dim:  mk(color.Faint),
		bold: mk(color.Bold),
		path: mk(color.FgCyan),
	}
}

func (p palette) state(state string) string {
	switch state {
	case "converged":
		return p.good(state)
	case "exhausted":
		return p.warn(state)
	default:
		return p.bad(state)
	}
}

// column pads s to width display cells.
func column(s string, width int) string {
	return runewidth.FillRight(s, width)
}

func widest(items []string) int {
	w := 0
	for _, s := range items {
		if n := runewidth.StringWidth(s); n > w {
			w = n
		}
	}
	return w
}

// PrettySession prints a fix session summary:
//
//	converged after 2 iterations · errors 5 → 0 (5 fixed)
//	  app/m.py:3  annotate parameter x: int  (0.75)
//	unresolved:
//	  app/m.py:9  [union-attr] no-evidence: ...
func PrettySession(w io.Writer, rep SessionReport, opts PrettyOpts) {
	p := newPalette(opts.Color)
	head := fmt.Sprintf("%s after %d %s · errors %d → %d", p.state(rep.State), rep.Iterations,
		plural(rep.Iterations, "iteration"), rep.InitialCount, rep.FinalCount)
	if rep.Fixed > 0 {
		head += p.good(fmt.Sprintf(" (%d fixed)", rep.Fixed))
	}
	fmt.Fprintf(w, "%s  %s\n", p.dim("["+rep.Mode+"]"), head)
	if rep.Error != "" {
		fmt.Fprintf(w, "%s %s\n", p.bad("error:"), rep.Error)
	}

	if opts.ShowEdits && len(rep.Edits) > 0 {
		locs := make([]string, len(rep.Edits))
		for i, e := range rep.Edits {
			locs[i] = fmt.Sprintf("%s:%d", e.Path, e.Line)
		}
		width := widest(locs)
		fmt.Fprintln(w, p.bold("applied:"))
		for i, e := range rep.Edits {
			fmt.Fprintf(w, "  %s  %s  %s\n", p.path(column(locs[i], width)), e.Title, p.dim(fmt.Sprintf("(%.2f)", e.Confidence)))
		}
	} else if len(rep.FilesTouched) > 0 {
		fmt.Fprintf(w, "%d %s in %d %s\n", len(rep.Edits), plural(len(rep.Edits), "edit"),
			len(rep.FilesTouched), plural(len(rep.FilesTouched), "file"))
	}

	if len(rep.Proposed) > 0 {
		fmt.Fprintln(w, p.bold("proposed:"))
		for _, pr := range rep.Proposed {
			tag := ""
			if pr.Broad {
				tag = p.warn(" broad")
			}
			fmt.Fprintf(w, "  %s  %s  %s%s\n", p.path(fmt.Sprintf("%s:%d", pr.Path, pr.Line)), pr.Title,
				p.dim(fmt.Sprintf("(%.2f)", pr.Confidence)), tag)
			for _, l := range pr.Before {
				fmt.Fprintf(w, "    %s\n", p.bad("- "+l))
			}
			for _, l := range pr.After {
				fmt.Fprintf(w, "    %s\n", p.good("+ "+l))
			}
		}
	}

	if len(rep.Unresolved) > 0 {
		fmt.Fprintln(w, p.bold("unresolved:"))
		for _, u := range rep.Unresolved {
			code := ""
			if u.Code != "" {
				code = "[" + u.Code + "] "
			}
			line := fmt.Sprintf("  %s  %s%s", p.path(fmt.Sprintf("%s:%d", u.Path, u.Line)), p.dim(code), p.warn(u.Reason))
			if u.Detail != "" {
				line += ": " + u.Detail
			}
			fmt.Fprintln(w, line)
		}
	}

	if len(rep.Excluded) > 0 {
		paths := make([]string, 0, len(rep.Excluded))
		for path := range rep.Excluded {
			paths = append(paths, path)
		}
		sort.Strings(paths)
		fmt.Fprintln(w, p.bold("excluded:"))
		for _, path := range paths {
			fmt.Fprintf(w, "  %s  %s\n", p.path(path), p.dim(rep.Excluded[path]))
		}
	}

	if rep.Session != "" {
		fmt.Fprintf(w, "%s %s\n", p.dim("session"), rep.Session)
	}
	if rep.Timings != nil {
		fmt.Fprintf(w, "%s %.1fms\n", p.dim("total"), rep.Timings.TotalMS)
		for _, k := range rep.Timings.Kinds {
			fmt.Fprintf(w, "  %s %4d × %.1fms\n", column(k.Name, 12), k.Count, k.DurationMS)
		}
	}
}

// PrettyCheck prints the checker's diagnostics followed by a breakdown by
// fix class and by file.
func PrettyCheck(w io.Writer, rep CheckReport, opts PrettyOpts) {
	p := newPalette(opts.Color)
	for _, d := range rep.Diagnostics {
		pos := fmt.Sprintf("%s:%d", d.Path, d.Line)
		if d.Column > 0 {
			pos += fmt.Sprintf(":%d", d.Column)
		}
		sev := d.Severity
		switch sev {
		case "error":
			sev = p.bad(sev)
		case "warning":
			sev = p.warn(sev)
		default:
			sev = p.dim(sev)
		}
		line := fmt.Sprintf("%s: %s: %s", p.path(pos), sev, d.Message)
		if d.Code != "" {
			line += "  " + p.dim("["+d.Code+"]")
		}
		fmt.Fprintln(w, line)
	}
	if rep.Errors == 0 {
		fmt.Fprintln(w, p.good("no type errors"))
		return
	}
	fmt.Fprintf(w, "%s, %s fixable\n", p.bad(fmt.Sprintf("%d %s", rep.Errors, plural(rep.Errors, "error"))), p.bold(rep.Fixable))

	names := make([]string, len(rep.ByClass))
	for i, c := range rep.ByClass {
		names[i] = c.Class
	}
	width := widest(names)
	for _, c := range rep.ByClass {
		fmt.Fprintf(w, "  %s %5d\n", column(c.Class, width), c.Count)
	}
	if len(rep.ByFile) > 1 {
		fmt.Fprintln(w, p.bold("by file:"))
		for _, f := range rep.ByFile {
			fmt.Fprintf(w, "  %5d  %s\n", f.Errors, p.path(f.Path))
		}
	}
	if rep.Malformed > 0 {
		fmt.Fprintf(w, "%s %d unparsed report %s\n", p.warn("warning:"), rep.Malformed, plural(rep.Malformed, "line"))
	}
}

// PrettyHistory prints journal statistics and the most recent sessions.
func PrettyHistory(w io.Writer, stats *journal.Stats, recs []*journal.Record, limit int, opts PrettyOpts) {
	p := newPalette(opts.Color)
	if stats.Sessions == 0 {
		fmt.Fprintln(w, p.dim("no sessions recorded"))
		return
	}
	fmt.Fprintf(w, "%s %s since %s, %s fixed\n", p.bold(humanize.Comma(int64(stats.Sessions))), plural(stats.Sessions, "session"),
		humanize.Time(stats.Since), p.good(humanize.Comma(int64(stats.Fixed))))

	if len(stats.Classes) > 0 {
		names := make([]string, len(stats.Classes))
		for i, c := range stats.Classes {
			names[i] = c.Class
		}
		width := max(widest(names), len("class"))
		fmt.Fprintf(w, "  %s %6s %9s %6s\n", p.dim(column("class", width)), p.dim("edits"), p.dim("reverted"), p.dim("conf"))
		for _, c := range stats.Classes {
			fmt.Fprintf(w, "  %s %6d %9d %6.2f\n", column(c.Class, width), c.Edits, c.Reverted, c.MeanConfidence)
		}
	}

	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	for _, r := range recs {
		id := r.ID
		if len(id) > 8 {
			id = id[:8]
		}
		line := fmt.Sprintf("%s  %s  %-7s %s  %d → %d  %d %s", p.path(id), column(humanize.Time(r.Started), 16), r.Mode,
			p.state(r.State), r.Initial, r.Final, len(r.Edits), plural(len(r.Edits), "edit"))
		if !r.Reverted.IsZero() {
			line += p.dim(" (reverted)")
		}
		fmt.Fprintln(w, line)
	}
}

// PrettyRevert prints what a revert restored and what it left alone.
func PrettyRevert(w io.Writer, id string, res *journal.RevertResult, opts PrettyOpts) {
	p := newPalette(opts.Color)
	for _, path := range res.Restored {
		fmt.Fprintf(w, "%s %s\n", p.good("restored"), p.path(FormatPath(path, opts.BaseDir, opts.PathMode)))
	}
	skipped := make([]string, 0, len(res.Skipped))
	for path := range res.Skipped {
		skipped = append(skipped, path)
	}
	sort.Strings(skipped)
	for _, path := range skipped {
		fmt.Fprintf(w, "%s %s: %s\n", p.warn("skipped"), p.path(FormatPath(path, opts.BaseDir, opts.PathMode)), res.Skipped[path])
	}
	fmt.Fprintf(w, "session %s: %d %s restored\n", id, len(res.Restored), plural(len(res.Restored), "file"))
}

// PrettyStubs prints one line per emitted stub.
func PrettyStubs(w io.Writer, results []stub.Result, dryRun bool, opts PrettyOpts) {
	p := newPalette(opts.Color)
	var failed, total int
	var size uint64
	for _, r := range results {
		src := FormatPath(r.Source, opts.BaseDir, opts.PathMode)
		if r.Err != nil {
			failed++
			fmt.Fprintf(w, "%s %s: %v\n", p.bad("failed"), p.path(src), r.Err)
			continue
		}
		total++
		size += uint64(len(r.Text))
		if dryRun {
			fmt.Fprintf(w, "%s %s\n%s", p.dim("#"), p.path(FormatPath(r.Stub, opts.BaseDir, opts.PathMode)), r.Text)
			if !strings.HasSuffix(r.Text, "\n") {
				fmt.Fprintln(w)
			}
			continue
		}
		fmt.Fprintf(w, "%s → %s %s\n", p.path(src), FormatPath(r.Stub, opts.BaseDir, opts.PathMode), p.dim(humanize.Bytes(uint64(len(r.Text)))))
	}
	summary := fmt.Sprintf("%d %s, %s", total, plural(total, "stub"), humanize.Bytes(size))
	if failed > 0 {
		summary += p.bad(fmt.Sprintf(", %d failed", failed))
	}
	fmt.Fprintln(w, summary)
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
