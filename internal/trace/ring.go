package trace

import (
	"io"
	"sync"
)

// RingTracer keeps the last events of a run in memory.
type RingTracer struct {
	mu     sync.Mutex
	events []Event
	next   int // slot the next event goes to once the ring is full
	level  Level
}

func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = defaultRingSize
	}
	return &RingTracer{events: make([]Event, 0, capacity), level: level}
}

func (t *RingTracer) Emit(ev *Event) {
	if !t.level.ShouldEmit(ev.Scope) && ev.Kind != KindHeartbeat {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.events) < cap(t.events) {
		t.events = append(t.events, *ev)
		return
	}
	t.events[t.next] = *ev
	t.next = (t.next + 1) % len(t.events)
}

func (t *RingTracer) Level() Level { return t.level }

func (t *RingTracer) Close() error { return nil }

// Snapshot returns the kept events, oldest first.
func (t *RingTracer) Snapshot() []Event {
	return t.Select(Match{})
}

// Match picks events out of the ring; zero fields match anything. Iteration
// also matches events outside any iteration (session start, initial check).
type Match struct {
	Iteration int
	File      string
	Diag      string
}

func (m Match) matches(ev *Event) bool {
	a := ev.Attrs
	switch {
	case m.Iteration != 0 && a.Iteration != 0 && a.Iteration != m.Iteration:
		return false
	case m.File != "" && a.File != m.File:
		return false
	case m.Diag != "" && a.Diag != m.Diag:
		return false
	}
	return true
}

// Select returns the matching events, oldest first.
func (t *RingTracer) Select(m Match) []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Event, 0, len(t.events))
	for i := range t.events {
		ev := &t.events[(t.next+i)%len(t.events)]
		if m.matches(ev) {
			out = append(out, *ev)
		}
	}
	return out
}

// Dump writes the matching events to w.
func (t *RingTracer) Dump(w io.Writer, format Format, m Match) error {
	for _, ev := range t.Select(m) {
		if _, err := w.Write(FormatEvent(&ev, format)); err != nil {
			return err
		}
	}
	return nil
}
