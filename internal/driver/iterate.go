package driver

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"typeguard/internal/diag"
	"typeguard/internal/fix"
	"typeguard/internal/infer"
	"typeguard/internal/source"
	"typeguard/internal/symbols"
	"typeguard/internal/trace"
)

type outcome uint8

const (
	outcomeImproved outcome = iota
	outcomeStalled
	outcomeDone // nothing left to try
)

func (o outcome) String() string {
	switch o {
	case outcomeImproved:
		return "improved"
	case outcomeStalled:
		return "stalled"
	default:
		return "done"
	}
}

// fileWork is one file's share of an iteration. Workers only write their own slot.
type fileWork struct {
	path       string
	sf         *symbols.SourceFile
	diags      []diag.Diagnostic
	props      []fix.Proposal
	unresolved []fix.Unresolved
	batch      []fix.Proposal
	applied    *fix.FileResult
	err        error
}

func (s *Session) step(ctx context.Context) (outcome, error) {
	if s.opts.Mode == ModeReview && s.opts.Reviewer == nil {
		return outcomeDone, errors.New("review mode needs a reviewer")
	}
	work, err := s.synthesize(ctx)
	if err != nil {
		return outcomeDone, err
	}
	if err := s.plan(ctx, work); err != nil {
		return outcomeDone, err
	}
	var pending []*fileWork
	for _, w := range work {
		if len(w.batch) > 0 {
			pending = append(pending, w)
		}
	}
	if len(pending) == 0 {
		return outcomeDone, nil
	}

	if s.opts.Mode == ModeDryRun {
		if err := s.apply(ctx, pending, true); err != nil {
			return outcomeDone, err
		}
		for _, w := range pending {
			s.proposed = append(s.proposed, w.batch...)
			if w.applied != nil {
				s.previews = append(s.previews, w.applied)
			}
		}
		return outcomeDone, nil
	}

	if err := s.apply(ctx, pending, false); err != nil {
		return outcomeDone, err
	}
	var changed []*fileWork
	for _, w := range pending {
		if w.applied != nil && w.applied.Changed() {
			changed = append(changed, w)
		}
	}
	if len(changed) == 0 {
		return outcomeStalled, nil
	}

	s.emit(Event{Stage: StageVerify, Status: StatusWorking})
	report, err := s.check(ctx)
	if err != nil {
		if rbErr := s.rollback(changed); rbErr != nil {
			return outcomeDone, errors.Join(err, rbErr)
		}
		return outcomeDone, err
	}
	after := s.countErrors(report.Diagnostics)
	if after >= s.count {
		trace.Note(ctx, trace.ScopePhase, "rollback", trace.Attrs{Errors: trace.Some(after)},
			fmt.Sprintf("%d files restored, errors were %d", len(changed), s.count))
		if err := s.rollback(changed); err != nil {
			return outcomeDone, err
		}
		for _, w := range changed {
			for _, p := range w.batch {
				if p.Support {
					continue
				}
				s.rejected[p.Key] = infer.ReasonVerificationRejected
				s.reasons[p.Diagnostic.Key()] = fix.Unresolved{Diagnostic: p.Diagnostic, Reason: infer.ReasonVerificationRejected, Detail: p.Title}
			}
		}
		s.emit(Event{Stage: StageVerify, Status: StatusError, Errors: after})
		return outcomeStalled, nil
	}

	s.commit(changed)
	s.accept(report)
	s.improved = true
	s.emit(Event{Stage: StageVerify, Status: StatusDone, Errors: s.count})
	return outcomeImproved, nil
}

// synthesize loads every in-scope file, builds the cross-file table and runs
// the synthesizer on files that have diagnostics.
func (s *Session) synthesize(ctx context.Context) ([]*fileWork, error) {
	idx := s.timer.Begin(fmt.Sprintf("synthesize#%d", s.iteration))
	span, ctx := trace.Start(ctx, trace.ScopePhase, "synthesize", trace.Attrs{})
	defer span.End("")
	s.emit(Event{Stage: StageSynthesize, Status: StatusWorking})

	work := make([]*fileWork, len(s.files))
	for i, path := range s.files {
		work[i] = &fileWork{path: path}
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(s.opts.Jobs, len(work)))
	for _, w := range work {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fs := source.NewFileSet()
			w.sf, w.err = symbols.Load(fs, w.path, symbols.ModuleName(s.root(), w.path))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.timer.End(idx, "cancelled")
		return nil, fmt.Errorf("%w: %w", ErrCancelled, err)
	}

	var loaded []*symbols.SourceFile
	byKey := make(map[string]*fileWork, len(work))
	for _, w := range work {
		byKey[pathKey(w.path)] = w
		if w.err != nil {
			s.excluded[w.path] = w.err
			continue
		}
		delete(s.excluded, w.path)
		loaded = append(loaded, w.sf)
	}
	if len(loaded) == 0 {
		s.timer.End(idx, "nothing readable")
		return nil, fmt.Errorf("%w: none of %d files could be parsed", symbols.ErrSourceUnreadable, len(work))
	}
	table, err := infer.BuildTable(ctx, loaded, s.opts.Jobs)
	if err != nil {
		s.timer.End(idx, "cancelled")
		return nil, fmt.Errorf("%w: %w", ErrCancelled, err)
	}

	s.reasons = make(map[string]fix.Unresolved)
	for _, d := range s.diags {
		w := byKey[pathKey(d.Path)]
		if w == nil {
			continue
		}
		if w.err != nil {
			s.reasons[d.Key()] = fix.Unresolved{Diagnostic: d, Reason: infer.ReasonExcludedFile, Detail: w.err.Error()}
			continue
		}
		w.diags = append(w.diags, d)
	}

	rejected := func(key string) (infer.Reason, bool) {
		r, ok := s.rejected[key]
		return r, ok
	}
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(min(s.opts.Jobs, len(work)))
	for _, w := range work {
		if w.err != nil || len(w.diags) == 0 {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fileSpan, fctx := trace.Start(gctx, trace.ScopeFile, "synthesize file", trace.Attrs{File: w.path})
			eng := infer.New(w.sf, table, infer.Options{MinConfidence: s.opts.MinConfidence, Strict: s.opts.Strict})
			w.props, w.unresolved = fix.Synthesize(fctx, eng, w.diags, fix.Options{Rejected: rejected})
			fileSpan.End(fmt.Sprintf("%d proposals, %d unresolved", len(w.props), len(w.unresolved)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.timer.End(idx, "cancelled")
		return nil, fmt.Errorf("%w: %w", ErrCancelled, err)
	}

	total := 0
	for _, w := range work {
		total += len(w.props)
		for _, u := range w.unresolved {
			s.reasons[u.Diagnostic.Key()] = u
		}
		if len(w.diags) > 0 {
			s.emit(Event{File: w.path, Stage: StageSynthesize, Status: StatusDone})
		}
	}
	s.timer.End(idx, fmt.Sprintf("%d proposals", total))
	return work, nil
}

// plan selects a conflict-free batch per file, consults the reviewer and adds
// the typing support edits.
func (s *Session) plan(ctx context.Context, work []*fileWork) error {
	for _, w := range work {
		if len(w.props) == 0 {
			continue
		}
		selected, deferred := fix.Select(w.props)
		for _, p := range deferred {
			s.reasons[p.Diagnostic.Key()] = fix.Unresolved{Diagnostic: p.Diagnostic, Reason: infer.ReasonDeferred, Detail: p.Title}
		}
		if s.opts.Mode == ModeReview {
			s.emit(Event{File: w.path, Stage: StageReview, Status: StatusWorking})
			kept := selected[:0]
			for _, p := range selected {
				ok, err := s.opts.Reviewer.Review(ctx, p)
				if err != nil {
					return err
				}
				if !ok {
					s.rejected[p.Key] = infer.ReasonReviewRejected
					s.reasons[p.Diagnostic.Key()] = fix.Unresolved{Diagnostic: p.Diagnostic, Reason: infer.ReasonReviewRejected, Detail: p.Title}
					continue
				}
				kept = append(kept, p)
			}
			selected = kept
		}
		if len(selected) == 0 {
			continue
		}
		batch, late := fix.WithSupport(w.sf, selected)
		for _, p := range late {
			s.reasons[p.Diagnostic.Key()] = fix.Unresolved{Diagnostic: p.Diagnostic, Reason: infer.ReasonDeferred, Detail: p.Title}
		}
		w.batch = batch
	}
	return nil
}

// apply writes each pending batch. Files whose batch is stale or would not
// parse are left untouched.
func (s *Session) apply(ctx context.Context, pending []*fileWork, dryRun bool) error {
	idx := s.timer.Begin(fmt.Sprintf("apply#%d", s.iteration))
	span, ctx := trace.Start(ctx, trace.ScopePhase, "apply", trace.Attrs{})
	defer span.End("")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(s.opts.Jobs, len(pending)))
	for _, w := range pending {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			w.applied, w.err = fix.ApplyFile(w.path, w.batch, fix.ApplyOptions{DryRun: dryRun})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.timer.End(idx, "cancelled")
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}

	edits := 0
	for _, w := range pending {
		if w.err == nil {
			edits += len(w.batch)
			s.emit(Event{File: w.path, Stage: StageApply, Status: StatusDone})
			continue
		}
		s.emit(Event{File: w.path, Stage: StageApply, Status: StatusError, Err: w.err})
		trace.Note(ctx, trace.ScopeFile, "apply failed", trace.Attrs{File: w.path}, w.err.Error())
		reason := infer.ReasonStale
		if !errors.Is(w.err, fix.ErrStaleEdit) {
			reason = infer.ReasonVerificationRejected
		}
		for _, p := range w.batch {
			if p.Support {
				continue
			}
			if reason == infer.ReasonVerificationRejected {
				s.rejected[p.Key] = reason
			}
			s.reasons[p.Diagnostic.Key()] = fix.Unresolved{Diagnostic: p.Diagnostic, Reason: reason, Detail: w.err.Error()}
		}
		w.applied = nil
	}
	s.timer.End(idx, fmt.Sprintf("%d edits", edits))
	return nil
}

// rollback restores the pre-batch bytes of every changed file.
func (s *Session) rollback(changed []*fileWork) error {
	var errs []error
	for _, w := range changed {
		if err := fix.WriteAtomic(w.path, w.applied.Original); err != nil {
			errs = append(errs, fmt.Errorf("rollback %s: %w", w.path, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Session) commit(changed []*fileWork) {
	for _, w := range changed {
		s.touched[w.path] = true
		for _, p := range w.batch {
			if p.Support {
				continue
			}
			s.applied = append(s.applied, AppliedEdit{
				Path:        w.path,
				Line:        p.Diagnostic.Line,
				Title:       p.Title,
				Replacement: p.Replacement,
				Class:       p.Class.String(),
				Code:        p.Diagnostic.RawCode,
				Confidence:  p.Confidence,
				Iteration:   s.iteration,
				Proposal:    p,
			})
		}
	}
	sort.SliceStable(s.applied, func(i, j int) bool {
		if s.applied[i].Iteration != s.applied[j].Iteration {
			return s.applied[i].Iteration < s.applied[j].Iteration
		}
		return s.applied[i].Path < s.applied[j].Path
	})
}

func (s *Session) root() string {
	if s.opts.Root != "" {
		return s.opts.Root
	}
	if len(s.files) > 0 {
		return filepath.Dir(s.files[0])
	}
	return "."
}
