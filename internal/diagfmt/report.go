package diagfmt

import (
	"sort"

	"typeguard/internal/diag"
	"typeguard/internal/driver"
	"typeguard/internal/fix"
	"typeguard/internal/observ"
	"typeguard/internal/source"
)

// EditJSON is one committed edit.
type EditJSON struct {
	Path        string  `json:"path" yaml:"path"`
	Line        uint32  `json:"line" yaml:"line"`
	Title       string  `json:"title" yaml:"title"`
	Replacement string  `json:"replacement" yaml:"replacement"`
	Class       string  `json:"class" yaml:"class"`
	Code        string  `json:"code,omitempty" yaml:"code,omitempty"`
	Confidence  float64 `json:"confidence" yaml:"confidence"`
	Iteration   int     `json:"iteration" yaml:"iteration"`
}

// ProposalJSON is a dry-run proposal with an optional before/after preview.
type ProposalJSON struct {
	Path        string   `json:"path" yaml:"path"`
	Line        uint32   `json:"line" yaml:"line"`
	Title       string   `json:"title" yaml:"title"`
	Replacement string   `json:"replacement" yaml:"replacement"`
	Class       string   `json:"class" yaml:"class"`
	Confidence  float64  `json:"confidence" yaml:"confidence"`
	Broad       bool     `json:"broad,omitempty" yaml:"broad,omitempty"`
	Support     bool     `json:"support,omitempty" yaml:"support,omitempty"`
	Before      []string `json:"before,omitempty" yaml:"before,omitempty"`
	After       []string `json:"after,omitempty" yaml:"after,omitempty"`
}

// UnresolvedJSON is a diagnostic left in place and why.
type UnresolvedJSON struct {
	Path    string `json:"path" yaml:"path"`
	Line    uint32 `json:"line" yaml:"line"`
	Column  uint32 `json:"column,omitempty" yaml:"column,omitempty"`
	Code    string `json:"code,omitempty" yaml:"code,omitempty"`
	Message string `json:"message" yaml:"message"`
	Reason  string `json:"reason" yaml:"reason"`
	Detail  string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// SessionReport is the serializable view of a driver.Result.
type SessionReport struct {
	State        string            `json:"state" yaml:"state"`
	Mode         string            `json:"mode" yaml:"mode"`
	Error        string            `json:"error,omitempty" yaml:"error,omitempty"`
	Iterations   int               `json:"iterations" yaml:"iterations"`
	InitialCount int               `json:"initial_errors" yaml:"initial_errors"`
	FinalCount   int               `json:"final_errors" yaml:"final_errors"`
	Fixed        int               `json:"fixed" yaml:"fixed"`
	FilesTouched []string          `json:"files_touched" yaml:"files_touched"`
	Edits        []EditJSON        `json:"edits" yaml:"edits"`
	Proposed     []ProposalJSON    `json:"proposed,omitempty" yaml:"proposed,omitempty"`
	Unresolved   []UnresolvedJSON  `json:"unresolved" yaml:"unresolved"`
	Excluded     map[string]string `json:"excluded,omitempty" yaml:"excluded,omitempty"`
	Session      string            `json:"session,omitempty" yaml:"session,omitempty"`
	Timings      *observ.Report    `json:"timings,omitempty" yaml:"timings,omitempty"`
}

// BuildSessionReport converts res. Paths are rendered per opts; previews are
// attached to dry-run proposals when opts.ShowPreview is set.
func BuildSessionReport(res *driver.Result, mode driver.Mode, opts PrettyOpts) SessionReport {
	path := func(p string) string { return FormatPath(p, opts.BaseDir, opts.PathMode) }
	rep := SessionReport{
		State:        res.State.String(),
		Mode:         mode.String(),
		Iterations:   res.Iterations,
		InitialCount: res.InitialCount,
		FinalCount:   res.FinalCount,
		Fixed:        res.Fixed(),
		FilesTouched: make([]string, 0, len(res.FilesTouched)),
		Edits:        make([]EditJSON, 0, len(res.EditsApplied)),
		Unresolved:   make([]UnresolvedJSON, 0, len(res.Unresolved)),
	}
	if res.Err != nil {
		rep.Error = res.Err.Error()
	}
	for _, f := range res.FilesTouched {
		rep.FilesTouched = append(rep.FilesTouched, path(f))
	}
	for _, e := range res.EditsApplied {
		rep.Edits = append(rep.Edits, EditJSON{
			Path:        path(e.Path),
			Line:        e.Line,
			Title:       e.Title,
			Replacement: e.Replacement,
			Class:       e.Class,
			Code:        e.Code,
			Confidence:  e.Confidence,
			Iteration:   e.Iteration,
		})
	}

	files := previewFiles(res.Previews)
	for i := range res.Proposed {
		p := &res.Proposed[i]
		pj := ProposalJSON{
			Path:        path(p.Path),
			Line:        p.Diagnostic.Line,
			Title:       p.Title,
			Replacement: p.Replacement,
			Class:       p.Class.String(),
			Confidence:  p.Confidence,
			Broad:       p.Broad,
			Support:     p.Support,
		}
		if opts.ShowPreview {
			if f := files[p.Path]; f != nil {
				if pv, err := buildEditPreview(f, p.Span, p.Replacement); err == nil {
					pj.Before, pj.After = pv.before, pv.after
				}
			}
		}
		rep.Proposed = append(rep.Proposed, pj)
	}

	for _, u := range res.Unresolved {
		rep.Unresolved = append(rep.Unresolved, UnresolvedJSON{
			Path:    path(u.Diagnostic.Path),
			Line:    u.Diagnostic.Line,
			Column:  u.Diagnostic.Column,
			Code:    u.Diagnostic.RawCode,
			Message: u.Diagnostic.Message,
			Reason:  u.Reason.String(),
			Detail:  u.Detail,
		})
	}
	if len(res.Excluded) > 0 {
		rep.Excluded = make(map[string]string, len(res.Excluded))
		for p, why := range res.Excluded {
			rep.Excluded[path(p)] = why
		}
	}
	if opts.ShowTimings {
		t := res.Timings
		rep.Timings = &t
	}
	return rep
}

// previewFiles rebuilds the pre-edit text of each previewed file; proposal
// offsets refer to its normalized form.
func previewFiles(previews []*fix.FileResult) map[string]*source.File {
	out := make(map[string]*source.File, len(previews))
	fs := source.NewFileSet()
	for _, p := range previews {
		content, _ := source.Normalize(p.Original)
		out[p.Path] = fs.Get(fs.AddVirtual(p.Path, content))
	}
	return out
}

// ClassCount counts diagnostics of one fix class.
type ClassCount struct {
	Class string `json:"class" yaml:"class"`
	Count int    `json:"count" yaml:"count"`
}

// FileCount counts error diagnostics in one file.
type FileCount struct {
	Path   string `json:"path" yaml:"path"`
	Errors int    `json:"errors" yaml:"errors"`
}

// DiagnosticJSON is one parsed checker diagnostic.
type DiagnosticJSON struct {
	Path     string `json:"path" yaml:"path"`
	Line     uint32 `json:"line" yaml:"line"`
	Column   uint32 `json:"column,omitempty" yaml:"column,omitempty"`
	Severity string `json:"severity" yaml:"severity"`
	Code     string `json:"code,omitempty" yaml:"code,omitempty"`
	Class    string `json:"class" yaml:"class"`
	Message  string `json:"message" yaml:"message"`
}

// CheckReport is what `typeguard check` prints: the checker's findings
// grouped by the fix class that would handle them.
type CheckReport struct {
	Errors      int              `json:"errors" yaml:"errors"`
	Warnings    int              `json:"warnings" yaml:"warnings"`
	Notes       int              `json:"notes" yaml:"notes"`
	Fixable     int              `json:"fixable" yaml:"fixable"`
	Malformed   int              `json:"malformed_lines,omitempty" yaml:"malformed_lines,omitempty"`
	ByClass     []ClassCount     `json:"by_class" yaml:"by_class"`
	ByFile      []FileCount      `json:"by_file" yaml:"by_file"`
	Diagnostics []DiagnosticJSON `json:"diagnostics" yaml:"diagnostics"`
}

// BuildCheckReport groups report's diagnostics.
func BuildCheckReport(report *diag.Report, opts PrettyOpts) CheckReport {
	bag := diag.NewBag(report.Diagnostics...)
	rep := CheckReport{Malformed: report.Malformed, Errors: bag.ErrorCount(), Diagnostics: make([]DiagnosticJSON, 0, bag.Len())}
	for _, d := range bag.Items() {
		switch {
		case d.IsError():
			if d.Class.Fixable() {
				rep.Fixable++
			}
		case d.Severity == diag.SevWarning:
			rep.Warnings++
		default:
			rep.Notes++
		}
		rep.Diagnostics = append(rep.Diagnostics, DiagnosticJSON{
			Path:     FormatPath(d.Path, opts.BaseDir, opts.PathMode),
			Line:     d.Line,
			Column:   d.Column,
			Severity: d.Severity.String(),
			Code:     d.RawCode,
			Class:    d.Class.String(),
			Message:  d.Message,
		})
	}
	byClass := make(map[string]int)
	for c, n := range bag.CountByClass() {
		byClass[c.String()] = n
	}
	byFile := make(map[string]int)
	for path, diags := range bag.ByPath() {
		byFile[FormatPath(path, opts.BaseDir, opts.PathMode)] += len(diags)
	}
	for c, n := range byClass {
		rep.ByClass = append(rep.ByClass, ClassCount{Class: c, Count: n})
	}
	sort.Slice(rep.ByClass, func(i, j int) bool {
		if rep.ByClass[i].Count != rep.ByClass[j].Count {
			return rep.ByClass[i].Count > rep.ByClass[j].Count
		}
		return rep.ByClass[i].Class < rep.ByClass[j].Class
	})
	for p, n := range byFile {
		rep.ByFile = append(rep.ByFile, FileCount{Path: p, Errors: n})
	}
	sort.Slice(rep.ByFile, func(i, j int) bool {
		if rep.ByFile[i].Errors != rep.ByFile[j].Errors {
			return rep.ByFile[i].Errors > rep.ByFile[j].Errors
		}
		return rep.ByFile[i].Path < rep.ByFile[j].Path
	})
	return rep
}
