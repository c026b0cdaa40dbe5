package trace

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

var (
	seq     atomic.Uint64
	spanIDs atomic.Uint64

	// open spans by id, read by the heartbeat
	openSpans sync.Map
)

// Span is one timed operation. Spans that the level filters out are still
// created: they carry attrs for their children but emit nothing.
type Span struct {
	tracer  Tracer
	id      uint64 // 0 when filtered out
	parent  uint64 // nearest emitted ancestor
	scope   Scope
	name    string
	started time.Time
	attrs   Attrs
	end     Attrs
}

// Start opens a span under the current span of ctx and returns ctx with the
// new span current.
func Start(ctx context.Context, scope Scope, name string, attrs Attrs) (*Span, context.Context) {
	t := FromContext(ctx)
	parent := CurrentSpan(ctx)
	sp := &Span{
		tracer:  t,
		scope:   scope,
		name:    name,
		started: time.Now(),
		attrs:   attrs.under(parent.Attrs()),
		parent:  parent.anchorID(),
	}
	if t.Level().ShouldEmit(scope) {
		sp.id = spanIDs.Add(1)
		t.Emit(&Event{
			Time:     sp.started,
			Seq:      seq.Add(1),
			Kind:     KindBegin,
			Scope:    scope,
			SpanID:   sp.id,
			ParentID: sp.parent,
			Name:     name,
			Attrs:    sp.attrs,
		})
		openSpans.Store(sp.id, sp)
	}
	return sp, context.WithValue(ctx, spanKey{}, sp)
}

// Set records attrs for the end event, typically the outcome and counts.
func (s *Span) Set(a Attrs) *Span {
	if s != nil {
		s.end = s.end.merge(a)
	}
	return s
}

// End closes the span and returns how long it ran.
func (s *Span) End(detail string) time.Duration {
	if s == nil {
		return 0
	}
	dur := time.Since(s.started)
	if s.id == 0 {
		return dur
	}
	openSpans.Delete(s.id)
	s.tracer.Emit(&Event{
		Time:     time.Now(),
		Seq:      seq.Add(1),
		Kind:     KindEnd,
		Scope:    s.scope,
		SpanID:   s.id,
		ParentID: s.parent,
		Name:     s.name,
		Detail:   detail,
		Attrs:    s.attrs.merge(s.end),
	})
	return dur
}

// ID is 0 for spans the level filtered out.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

// Attrs returns the span's own and inherited attrs.
func (s *Span) Attrs() Attrs {
	if s == nil {
		return Attrs{}
	}
	return s.attrs
}

// anchorID is what children use as ParentID.
func (s *Span) anchorID() uint64 {
	switch {
	case s == nil:
		return 0
	case s.id != 0:
		return s.id
	}
	return s.parent
}

// Note records an instant event under the current span of ctx.
func Note(ctx context.Context, scope Scope, name string, attrs Attrs, detail string) {
	t := FromContext(ctx)
	if !t.Level().ShouldEmit(scope) {
		return
	}
	parent := CurrentSpan(ctx)
	t.Emit(&Event{
		Time:     time.Now(),
		Seq:      seq.Add(1),
		Kind:     KindNote,
		Scope:    scope,
		SpanID:   spanIDs.Add(1),
		ParentID: parent.anchorID(),
		Name:     name,
		Detail:   detail,
		Attrs:    attrs.under(parent.Attrs()),
	})
}
