package trace

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

// Format is the encoding of stream and dump output.
type Format uint8

const (
	FormatAuto   Format = iota // from the output path
	FormatText                 // one indented line per event
	FormatNDJSON               // one JSON object per line
)

// ParseFormat converts a --trace-format value.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "text":
		return FormatText, nil
	case "ndjson", "json":
		return FormatNDJSON, nil
	}
	return FormatAuto, fmt.Errorf("invalid trace format %q (expected auto|text|ndjson)", s)
}

// FormatFor resolves FormatAuto against an output path.
func FormatFor(format Format, path string) Format {
	if format != FormatAuto {
		return format
	}
	switch filepath.Ext(path) {
	case ".ndjson", ".jsonl", ".json":
		return FormatNDJSON
	}
	return FormatText
}

// FormatEvent encodes ev with a trailing newline.
func FormatEvent(ev *Event, format Format) []byte {
	if format == FormatNDJSON {
		return formatJSON(ev)
	}
	return formatText(ev)
}

type jsonEvent struct {
	Time       string `json:"time"`
	Seq        uint64 `json:"seq"`
	Kind       string `json:"kind"`
	Scope      string `json:"scope"`
	SpanID     uint64 `json:"span_id"`
	ParentID   uint64 `json:"parent_id,omitempty"`
	Name       string `json:"name"`
	Detail     string `json:"detail,omitempty"`
	Session    string `json:"session,omitempty"`
	Iteration  int    `json:"iteration,omitempty"`
	File       string `json:"file,omitempty"`
	Diag       string `json:"diag,omitempty"`
	Errors     *int   `json:"errors,omitempty"`
	Exit       *int   `json:"exit,omitempty"`
	Outcome    string `json:"outcome,omitempty"`
	Goroutines int    `json:"goroutines,omitempty"`
	HeapBytes  uint64 `json:"heap_bytes,omitempty"`
}

func countPtr(c Count) *int {
	if !c.OK {
		return nil
	}
	n := c.N
	return &n
}

func formatJSON(ev *Event) []byte {
	a := ev.Attrs
	j := jsonEvent{
		Time:      ev.Time.Format("2006-01-02T15:04:05.000000Z07:00"),
		Seq:       ev.Seq,
		Kind:      ev.Kind.String(),
		Scope:     ev.Scope.String(),
		SpanID:    ev.SpanID,
		ParentID:  ev.ParentID,
		Name:      ev.Name,
		Detail:    ev.Detail,
		Session:   a.Session,
		Iteration: a.Iteration,
		File:      a.File,
		Diag:      a.Diag,
		Errors:    countPtr(a.Errors),
		Exit:      countPtr(a.Exit),
		Outcome:   a.Outcome,
	}
	if ev.Runtime != nil {
		j.Goroutines, j.HeapBytes = ev.Runtime.Goroutines, ev.Runtime.HeapBytes
	}
	data, err := json.Marshal(j)
	if err != nil {
		return nil
	}
	return append(data, '\n')
}

var kindMarks = map[Kind]string{KindBegin: "→", KindEnd: "←", KindNote: "•", KindHeartbeat: "♡"}

// formatText: [15:04:05.000]   → synthesize (detail) iter=2 file=m.py
func formatText(ev *Event) []byte {
	var sb strings.Builder
	sb.WriteString("[" + ev.Time.Format("15:04:05.000") + "] ")
	if ev.ParentID > 0 && ev.Scope > ScopeSession {
		sb.WriteString(strings.Repeat("  ", int(ev.Scope)-1))
	}
	sb.WriteString(kindMarks[ev.Kind] + " " + ev.Name)
	if ev.Detail != "" {
		sb.WriteString(" (" + ev.Detail + ")")
	}
	for _, kv := range ev.Attrs.pairs() {
		sb.WriteString(" " + kv[0] + "=" + kv[1])
	}
	if rs := ev.Runtime; rs != nil {
		fmt.Fprintf(&sb, " goroutines=%d heap=%s", rs.Goroutines, humanize.Bytes(rs.HeapBytes))
	}
	sb.WriteByte('\n')
	return []byte(sb.String())
}
