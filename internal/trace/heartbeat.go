package trace

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// Heartbeat periodically reports which spans are still open, so a trace of a
// hung checker run ends with heartbeats naming it.
type Heartbeat struct {
	tracer   Tracer
	interval time.Duration
	stopCh   chan struct{}
	once     sync.Once
	done     chan struct{}
}

// StartHeartbeat emits a heartbeat every interval until Stop. It returns nil
// when tracing is off.
func StartHeartbeat(tracer Tracer, interval time.Duration) *Heartbeat {
	if !Enabled(tracer) || interval <= 0 {
		return nil
	}
	h := &Heartbeat{
		tracer:   tracer,
		interval: interval,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Heartbeat) run() {
	defer close(h.done)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var beat uint64
	for {
		select {
		case now := <-ticker.C:
			beat++
			detail, attrs := openSummary(now)
			h.tracer.Emit(&Event{
				Time:    now,
				Seq:     seq.Add(1),
				Kind:    KindHeartbeat,
				Scope:   ScopeSession,
				Name:    "heartbeat",
				Detail:  fmt.Sprintf("#%d %s", beat, detail),
				Attrs:   attrs,
				Runtime: runtimeStats(),
			})
		case <-h.stopCh:
			return
		}
	}
}

// openSummary lists open spans, oldest first ("iteration 12.3s, checker 12.0s"),
// and returns the attrs of the innermost one so a ring dump of that iteration
// keeps its heartbeats.
func openSummary(now time.Time) (string, Attrs) {
	var open []*Span
	openSpans.Range(func(_, v any) bool {
		if sp, ok := v.(*Span); ok {
			open = append(open, sp)
		}
		return true
	})
	if len(open) == 0 {
		return "idle", Attrs{}
	}
	sort.Slice(open, func(i, j int) bool { return open[i].started.Before(open[j].started) })
	parts := make([]string, 0, len(open))
	for _, sp := range open {
		parts = append(parts, fmt.Sprintf("%s %s", sp.name, now.Sub(sp.started).Round(100*time.Millisecond)))
	}
	inner := open[len(open)-1].attrs
	return strings.Join(parts, ", "), Attrs{Session: inner.Session, Iteration: inner.Iteration}
}

func runtimeStats() *RuntimeStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return &RuntimeStats{Goroutines: runtime.NumGoroutine(), HeapBytes: ms.HeapAlloc}
}

// Stop ends the heartbeat and waits for its goroutine. Safe on nil and twice.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() { close(h.stopCh) })
	<-h.done
}
