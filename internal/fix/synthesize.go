package fix

import (
	"context"
	"fmt"
	"strings"

	"typeguard/internal/ast"
	"typeguard/internal/diag"
	"typeguard/internal/infer"
	"typeguard/internal/source"
	"typeguard/internal/symbols"
	"typeguard/internal/trace"
	"typeguard/internal/types"
)

// Options configure Synthesize.
type Options struct {
	// Rejected reports proposals excluded earlier in the session and why.
	Rejected func(key string) (infer.Reason, bool)
}

// Confidence of guard edits; they do not depend on inferred types.
const (
	exprGuardConfidence = 0.8
	stmtGuardConfidence = 0.85
)

type synthesizer struct {
	eng  *infer.Engine
	sf   *symbols.SourceFile
	tree *ast.Tree
	file *source.File
	opts Options
}

// Synthesize builds proposals for the diagnostics of one file. Diagnostics it
// cannot act on are returned as Unresolved with a reason.
func Synthesize(ctx context.Context, eng *infer.Engine, diags []diag.Diagnostic, opts Options) ([]Proposal, []Unresolved) {
	sf := eng.File()
	s := &synthesizer{
		eng:  eng,
		sf:   sf,
		tree: sf.Tree,
		file: sf.File,
		opts: opts,
	}

	var (
		out        []Proposal
		unresolved []Unresolved
		seen       = make(map[string]bool)
	)
	for _, d := range diags {
		var (
			props  []Proposal
			reason infer.Reason
			detail string
		)
		switch d.Class {
		case diag.ClassMissingParam, diag.ClassMissingReturn, diag.ClassMissingSignature:
			props, reason, detail = s.signature(d)
		case diag.ClassOptionalAccess:
			props, reason, detail = s.optionalAccess(d)
		case diag.ClassUntypedContainer:
			props, reason, detail = s.container(d)
		case diag.ClassUnresolvedGeneric:
			props, reason, detail = s.generic(d)
		default:
			reason, detail = infer.ReasonUnsupported, "no edit for "+d.Class.String()
		}

		kept := 0
		for _, p := range props {
			p.Diagnostic = d
			p.Rationale = d.Code
			p.Class = d.Class
			if s.opts.Rejected != nil {
				if why, rejected := s.opts.Rejected(p.Key); rejected {
					reason, detail = why, p.Title
					continue
				}
			}
			kept++
			if seen[p.Key] {
				continue
			}
			seen[p.Key] = true
			out = append(out, p)
		}
		if kept == 0 {
			if reason == infer.ReasonNone {
				reason = infer.ReasonNoEvidence
			}
			abstain(ctx, d, reason, detail)
			unresolved = append(unresolved, Unresolved{Diagnostic: d, Reason: reason, Detail: detail})
		}
	}
	return out, unresolved
}

func abstain(ctx context.Context, d diag.Diagnostic, reason infer.Reason, detail string) {
	if !trace.FromContext(ctx).Level().ShouldEmit(trace.ScopeDiag) {
		return
	}
	trace.Note(ctx, trace.ScopeDiag, "abstain", trace.Attrs{File: d.Path, Diag: d.Key()},
		fmt.Sprintf("%s: %s", reason, detail))
}

// firstReason keeps the first abstention reason seen for a diagnostic.
type firstReason struct {
	reason infer.Reason
	detail string
}

func (f *firstReason) note(r infer.Reason, detail string) {
	if f.reason == infer.ReasonNone {
		f.reason, f.detail = r, detail
	}
}

func (s *synthesizer) signature(d diag.Diagnostic) ([]Proposal, infer.Reason, string) {
	fid, ok := s.sf.FunctionOnLine(d.Line)
	if !ok {
		return nil, infer.ReasonUnlocated, fmt.Sprintf("no function on line %d", d.Line)
	}
	fn := s.tree.Func(fid)
	qual := s.sf.QualifiedName(fid)
	var (
		out []Proposal
		why firstReason
	)
	if d.Class == diag.ClassMissingParam || d.Class == diag.ClassMissingSignature {
		for _, pid := range fn.Params {
			p := s.tree.Param(pid)
			if p.Annotation.IsValid() || p.Kind == ast.ParamVarArgs || p.Kind == ast.ParamVarKwargs {
				continue
			}
			if infer.IsImplicitParam(s.tree, fn, pid) {
				continue
			}
			r := s.eng.Param(fid, pid)
			label := qual + "." + p.Name
			if !r.OK() {
				why.note(r.Reason, label+": "+r.Type.String())
				continue
			}
			text, ok := s.render(r.Type, fn.Span.Start)
			if !ok {
				why.note(infer.ReasonUnsupported, label+": "+r.Type.String())
				continue
			}
			prop := s.paramEdit(p, text)
			s.fill(&prop, r, fmt.Sprintf("%s|param|%s|%s", s.file.Path, label, text))
			prop.Title = fmt.Sprintf("annotate parameter %s: %s", p.Name, text)
			out = append(out, prop)
		}
	}
	if (d.Class == diag.ClassMissingReturn || d.Class == diag.ClassMissingSignature) && !fn.Returns.IsValid() {
		r := s.eng.Return(fid)
		switch {
		case !r.OK():
			why.note(r.Reason, qual+" return: "+r.Type.String())
		default:
			text, ok := s.render(r.Type, fn.Span.Start)
			if !ok {
				why.note(infer.ReasonUnsupported, qual+" return: "+r.Type.String())
				break
			}
			at := source.Span{File: s.file.ID, Start: fn.SigEnd, End: fn.SigEnd}
			window := source.Span{File: s.file.ID, Start: fn.SigEnd - 1, End: fn.BodyColon + 1}
			prop := newProposal(s.file, at, window, " -> "+text)
			s.fill(&prop, r, fmt.Sprintf("%s|return|%s|%s", s.file.Path, qual, text))
			prop.Title = fmt.Sprintf("annotate %s return: %s", fn.Name, text)
			out = append(out, prop)
		}
	}
	return out, why.reason, why.detail
}

// paramEdit inserts `: T` after the name, or rewrites `x=1` into `x: T = 1`.
func (s *synthesizer) paramEdit(p *ast.Param, text string) Proposal {
	name := p.NameSpan
	if p.Default.IsValid() {
		def := s.tree.Expr(p.Default).Span
		between := source.Span{File: s.file.ID, Start: name.End, End: def.Start}
		if strings.TrimSpace(s.file.Text(between)) == "=" {
			return newProposal(s.file, between, name, ": "+text+" = ")
		}
	}
	at := source.Span{File: s.file.ID, Start: name.End, End: name.End}
	return newProposal(s.file, at, name, ": "+text)
}

func (s *synthesizer) fill(p *Proposal, r infer.Result, key string) {
	p.Confidence = r.Confidence
	p.Broad = r.Broad
	p.Typing = r.Type.TypingImports()
	p.TypeVars = r.Type.TypeVars()
	p.Key = key
}

// render spells t for use at offset at. It fails when t names a class this
// file cannot see; classes defined later in the file (or enclosing at) are
// written as a string forward reference.
func (s *synthesizer) render(t types.Expr, at uint32) (string, bool) {
	if t.HasUnknown() {
		return "", false
	}
	forward := false
	for _, c := range t.Classes() {
		if c.Module == s.sf.Module {
			cid, ok := s.sf.Classes[c.Name]
			if !ok {
				return "", false
			}
			if cl := s.tree.Class(cid); cl.Span.Start >= at || cl.Span.Contains(at) {
				forward = true
			}
			continue
		}
		if s.sf.Imports[c.Name] != c.Module+"."+c.Name {
			return "", false
		}
	}
	if forward {
		return `"` + t.String() + `"`, true
	}
	return t.String(), true
}

// offset converts a diagnostic position into a byte offset, skipping
// indentation when the column is missing.
func (s *synthesizer) offset(d diag.Diagnostic) (uint32, bool) {
	if d.Column > 0 {
		return s.sf.Offset(d.Line, d.Column)
	}
	start, ok := s.file.LineStart(d.Line)
	if !ok {
		return 0, false
	}
	end := s.file.LineEnd(d.Line)
	for start < end && (s.file.Content[start] == ' ' || s.file.Content[start] == '\t') {
		start++
	}
	return start, true
}
