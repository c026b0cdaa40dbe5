package trace

import (
	"bufio"
	"io"
	"sync"
)

// StreamTracer writes every event as it arrives.
type StreamTracer struct {
	mu     sync.Mutex
	w      *bufio.Writer
	closer io.Closer // set when New opened the file
	level  Level
	format Format
}

func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	if format == FormatAuto {
		format = FormatText
	}
	return &StreamTracer{w: bufio.NewWriter(w), level: level, format: format}
}

func (t *StreamTracer) Emit(ev *Event) {
	if !t.level.ShouldEmit(ev.Scope) && ev.Kind != KindHeartbeat {
		return
	}
	data := FormatEvent(ev, t.format)

	t.mu.Lock()
	defer t.mu.Unlock()
	// best effort: a closed pipe must not stop a fix run
	_, _ = t.w.Write(data) //nolint:errcheck
	// sessions are long and may hang in the checker; keep the file current
	if ev.Scope <= ScopePhase || ev.Kind == KindHeartbeat {
		_ = t.w.Flush() //nolint:errcheck
	}
}

func (t *StreamTracer) Level() Level { return t.level }

func (t *StreamTracer) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	err := t.w.Flush()
	if t.closer != nil {
		if cerr := t.closer.Close(); err == nil {
			err = cerr
		}
		t.closer = nil
	}
	return err
}
