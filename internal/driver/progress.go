package driver

import "time"

// Stage is a step of one loop iteration.
type Stage string

const (
	StageCheck      Stage = "check"
	StageSynthesize Stage = "synthesize"
	StageReview     Stage = "review"
	StageApply      Stage = "apply"
	StageVerify     Stage = "verify"
)

// Status captures progress state within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports progress for a file, or for the whole session when File is empty.
type Event struct {
	File      string
	Stage     Stage
	Status    Status
	Iteration int
	Errors    int // error diagnostics after the stage, when known
	Err       error
	Elapsed   time.Duration
}

// ProgressSink consumes progress events. OnEvent is called from the
// coordinating goroutine only.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

func (s *Session) emit(ev Event) {
	if s.opts.Progress == nil {
		return
	}
	if ev.Iteration == 0 {
		ev.Iteration = s.iteration
	}
	s.opts.Progress.OnEvent(ev)
}
