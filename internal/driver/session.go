package driver

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"

	"typeguard/internal/checker"
	"typeguard/internal/diag"
	"typeguard/internal/fix"
	"typeguard/internal/infer"
	"typeguard/internal/observ"
	"typeguard/internal/trace"
)

var (
	ErrCancelled    = errors.New("session cancelled")
	ErrIterationCap = errors.New("iteration cap reached without improvement")
)

// DefaultMaxIterations bounds the verification loop.
const DefaultMaxIterations = 10

// Mode selects how proposals reach the files.
type Mode uint8

const (
	ModeAuto   Mode = iota // apply every selected proposal
	ModeReview             // ask a Reviewer first
	ModeDryRun             // synthesize once, touch nothing
)

func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModeReview:
		return "review"
	case ModeDryRun:
		return "dry-run"
	default:
		return "unknown"
	}
}

// ParseMode converts a flag or config value to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return ModeAuto, nil
	case "review":
		return ModeReview, nil
	case "dry-run", "dryrun":
		return ModeDryRun, nil
	default:
		return ModeAuto, fmt.Errorf("invalid mode: %q (expected: auto|review|dry-run)", s)
	}
}

// State is the session's lifecycle position.
type State uint8

const (
	StateInitialized State = iota
	StateIterating
	StateConverged
	StateExhausted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateIterating:
		return "iterating"
	case StateConverged:
		return "converged"
	case StateExhausted:
		return "exhausted"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Reviewer decides on proposals in review mode. A non-nil error aborts the session.
type Reviewer interface {
	Review(ctx context.Context, p fix.Proposal) (bool, error)
}

// ReviewerFunc adapts a function to Reviewer.
type ReviewerFunc func(ctx context.Context, p fix.Proposal) (bool, error)

func (f ReviewerFunc) Review(ctx context.Context, p fix.Proposal) (bool, error) {
	return f(ctx, p)
}

// Options configure a Session.
type Options struct {
	ID                   string // journal session id, carried on trace events
	Mode                 Mode
	Strict               bool
	MaxIterations        int
	MinConfidence        float64
	MaxMalformedFraction float64
	MinReportLines       int
	Jobs                 int
	Root                 string // module names are computed relative to Root
	Reviewer             Reviewer
	Progress             ProgressSink
}

// AppliedEdit is one committed proposal.
type AppliedEdit struct {
	Path        string       `json:"path" yaml:"path"`
	Line        uint32       `json:"line" yaml:"line"`
	Title       string       `json:"title" yaml:"title"`
	Replacement string       `json:"replacement" yaml:"replacement"`
	Class       string       `json:"class" yaml:"class"`
	Code        string       `json:"code,omitempty" yaml:"code,omitempty"`
	Confidence  float64      `json:"confidence" yaml:"confidence"`
	Iteration   int          `json:"iteration" yaml:"iteration"`
	Proposal    fix.Proposal `json:"-" yaml:"-"`
}

// Result is what a session reports back to its caller.
type Result struct {
	State        State
	Err          error
	FilesTouched []string
	EditsApplied []AppliedEdit
	Proposed     []fix.Proposal    // dry-run only
	Previews     []*fix.FileResult // dry-run only: patched text per file
	Remaining    []diag.Diagnostic
	Unresolved   []fix.Unresolved
	Iterations   int
	InitialCount int
	FinalCount   int
	Excluded     map[string]string // path -> reason
	Timings      observ.Report
}

// Fixed is the number of error diagnostics that disappeared.
func (r *Result) Fixed() int {
	if r.InitialCount < r.FinalCount {
		return 0
	}
	return r.InitialCount - r.FinalCount
}

// Session drives the check → synthesize → apply → verify loop over a fixed set
// of files. A Session runs once.
type Session struct {
	checker checker.Checker
	opts    Options
	files   []string
	inScope map[string]string // pathKey -> path as given

	state     State
	iteration int
	count     int
	initial   int
	improved  bool
	diags     []diag.Diagnostic

	rejected map[string]infer.Reason
	reasons  map[string]fix.Unresolved // diagnostic key -> last reason
	excluded map[string]error
	applied  []AppliedEdit
	touched  map[string]bool
	timer    *observ.Timer

	proposed []fix.Proposal
	previews []*fix.FileResult
}

// NewSession prepares a session over files.
func NewSession(chk checker.Checker, files []string, opts Options) *Session {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.GOMAXPROCS(0)
	}
	if opts.MaxMalformedFraction <= 0 {
		opts.MaxMalformedFraction = diag.DefaultMaxMalformedFraction
	}
	inScope := make(map[string]string, len(files))
	for _, f := range files {
		inScope[pathKey(f)] = f
	}
	return &Session{
		checker:  chk,
		opts:     opts,
		files:    files,
		inScope:  inScope,
		rejected: make(map[string]infer.Reason),
		reasons:  make(map[string]fix.Unresolved),
		excluded: make(map[string]error),
		touched:  make(map[string]bool),
		timer:    observ.NewTimer(),
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Files returns the in-scope files.
func (s *Session) Files() []string {
	return s.files
}

// Run executes the session to a terminal state.
func (s *Session) Run(ctx context.Context) *Result {
	span, ctx := trace.Start(ctx, trace.ScopeSession, "session", trace.Attrs{Session: s.opts.ID})

	err := s.run(ctx)
	res := s.result(err)
	if trace.FromContext(ctx).Level().ShouldEmit(trace.ScopePhase) {
		trace.Note(ctx, trace.ScopePhase, "timings", trace.Attrs{}, s.timer.Summary())
	}
	span.Set(trace.Attrs{Errors: trace.Some(res.FinalCount), Outcome: res.State.String()}).
		End(fmt.Sprintf("%s, %d files, %d -> %d errors", s.opts.Mode, len(s.files), res.InitialCount, res.FinalCount))
	return res
}

func (s *Session) run(ctx context.Context) error {
	s.state = StateInitialized
	if len(s.files) == 0 {
		return s.abort(ErrNoFiles)
	}
	report, err := s.check(ctx)
	if err != nil {
		return s.abort(err)
	}
	s.accept(report)
	s.initial = s.count

	stalls := 0
	for {
		if err := ctx.Err(); err != nil {
			return s.abort(fmt.Errorf("%w: %w", ErrCancelled, err))
		}
		if s.count == 0 {
			s.state = StateConverged
			return nil
		}
		if s.iteration >= s.opts.MaxIterations {
			if !s.improved && s.opts.Mode != ModeDryRun {
				return s.abort(fmt.Errorf("%w (%d iterations)", ErrIterationCap, s.iteration))
			}
			s.state = StateExhausted
			return nil
		}
		s.iteration++
		s.state = StateIterating

		itSpan, itCtx := trace.Start(ctx, trace.ScopeSession, "iteration", trace.Attrs{Iteration: s.iteration})
		outcome, err := s.step(itCtx)
		itSpan.Set(trace.Attrs{Errors: trace.Some(s.count), Outcome: outcome.String()}).End("")
		if err != nil {
			return s.abort(err)
		}
		switch outcome {
		case outcomeDone:
			s.state = StateConverged
			return nil
		case outcomeImproved:
			stalls = 0
		case outcomeStalled:
			stalls++
			if stalls >= 2 {
				s.state = StateConverged
				return nil
			}
		}
	}
}

func (s *Session) abort(err error) error {
	s.state = StateAborted
	s.emit(Event{Status: StatusError, Err: err})
	return err
}

// check runs the checker over every in-scope file and parses its report.
func (s *Session) check(ctx context.Context) (*diag.Report, error) {
	idx := s.timer.Begin(fmt.Sprintf("check#%d", s.iteration))
	s.emit(Event{Stage: StageCheck, Status: StatusWorking})
	raw, err := s.checker.Check(ctx, s.files)
	if err != nil {
		s.timer.End(idx, "failed")
		return nil, err
	}
	report, err := diag.ParseReport(raw, diag.ReportOptions{
		MaxMalformedFraction: s.opts.MaxMalformedFraction,
		MinCountedLines:      s.opts.MinReportLines,
	})
	if err != nil {
		s.timer.End(idx, "unparsable report")
		return nil, err
	}
	errs := s.countErrors(report.Diagnostics)
	s.timer.End(idx, fmt.Sprintf("%d errors", errs))
	s.emit(Event{Stage: StageCheck, Status: StatusDone, Errors: errs})
	if report.Malformed > 0 {
		trace.Note(ctx, trace.ScopePhase, "report", trace.Attrs{Errors: trace.Some(errs)},
			fmt.Sprintf("%d of %d lines unparsable", report.Malformed, report.Counted))
	}
	return report, nil
}

// accept makes report the session's current view of the code.
func (s *Session) accept(report *diag.Report) {
	s.diags = s.inScopeErrors(report.Diagnostics)
	s.count = len(s.diags)
}

func (s *Session) countErrors(diags []diag.Diagnostic) int {
	return len(s.inScopeErrors(diags))
}

// inScopeErrors returns the distinct error diagnostics of in-scope files,
// ordered by position.
func (s *Session) inScopeErrors(diags []diag.Diagnostic) []diag.Diagnostic {
	bag := diag.NewBag(diags...)
	bag.Dedup()
	bag.Sort()
	return bag.Filter(func(d diag.Diagnostic) bool {
		return d.IsError() && s.owns(d.Path)
	})
}

func (s *Session) owns(path string) bool {
	_, ok := s.inScope[pathKey(path)]
	return ok
}

func (s *Session) result(err error) *Result {
	res := &Result{
		State:        s.state,
		Err:          err,
		EditsApplied: s.applied,
		Iterations:   s.iteration,
		InitialCount: s.initial,
		FinalCount:   s.count,
		Remaining:    append([]diag.Diagnostic(nil), s.diags...),
		Timings:      s.timer.Report(),
	}
	if s.opts.Mode == ModeDryRun {
		res.Proposed = s.proposed
		res.Previews = s.previews
	}
	for path := range s.touched {
		res.FilesTouched = append(res.FilesTouched, path)
	}
	sort.Strings(res.FilesTouched)
	if len(s.excluded) > 0 {
		res.Excluded = make(map[string]string, len(s.excluded))
		for path, e := range s.excluded {
			res.Excluded[path] = e.Error()
		}
	}
	for _, d := range s.diags {
		if u, ok := s.reasons[d.Key()]; ok {
			res.Unresolved = append(res.Unresolved, u)
			continue
		}
		res.Unresolved = append(res.Unresolved, fix.Unresolved{Diagnostic: d, Reason: infer.ReasonDeferred})
	}
	return res
}
