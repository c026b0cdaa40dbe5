package diag

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrMalformedReport means too many report lines did not match the grammar.
var ErrMalformedReport = errors.New("malformed checker report")

// Defaults used when ReportOptions leaves a field zero.
const (
	DefaultMaxMalformedFraction = 0.5
	DefaultMinCountedLines      = 3
)

type ReportOptions struct {
	// MaxMalformedFraction is the tolerated share of non-matching lines among
	// all counted lines. Zero means DefaultMaxMalformedFraction.
	MaxMalformedFraction float64
	// MinCountedLines is how many counted lines a report needs before the
	// fraction is enforced; shorter reports only skip what they cannot parse.
	// Zero means DefaultMinCountedLines.
	MinCountedLines int
}

// Report is the result of parsing one checker run.
type Report struct {
	Diagnostics []Diagnostic
	Counted     int // lines that were neither blank nor summary
	Malformed   int
	Skipped     []string // the malformed lines, verbatim
}

// Errors returns the error-severity diagnostics.
func (r *Report) Errors() []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.IsError() {
			out = append(out, d)
		}
	}
	return out
}

// ErrorCount counts error-severity diagnostics.
func (r *Report) ErrorCount() int {
	n := 0
	for i := range r.Diagnostics {
		if r.Diagnostics[i].IsError() {
			n++
		}
	}
	return n
}

// path:line[:col]: severity: message[  [code]]
var lineRe = regexp.MustCompile(`^(.+?):(\d+):(?:(\d+):)?\s*(error|warning|note):\s?(.*?)(?:\s+\[([A-Za-z0-9_-]+)\])?\s*$`)

var summaryRe = regexp.MustCompile(`^(Success: no issues found|Found \d+ errors? in \d+ files?|\d+ errors? in \d+ files?)`)

// ParseReport splits a checker report into diagnostics in report order.
func ParseReport(raw []byte, opts ReportOptions) (*Report, error) {
	limit := opts.MaxMalformedFraction
	if limit <= 0 {
		limit = DefaultMaxMalformedFraction
	}
	floor := opts.MinCountedLines
	if floor <= 0 {
		floor = DefaultMinCountedLines
	}
	rep := &Report{}
	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" || summaryRe.MatchString(line) {
			continue
		}
		rep.Counted++
		d, ok := ParseLine(line)
		if !ok {
			rep.Malformed++
			rep.Skipped = append(rep.Skipped, line)
			continue
		}
		rep.Diagnostics = append(rep.Diagnostics, d)
	}
	if err := sc.Err(); err != nil {
		return rep, fmt.Errorf("read report: %w", err)
	}
	if rep.Counted >= floor && float64(rep.Malformed)/float64(rep.Counted) > limit {
		return rep, fmt.Errorf("%w: %d of %d lines unparsable", ErrMalformedReport, rep.Malformed, rep.Counted)
	}
	return rep, nil
}

// ParseLine parses a single report line.
func ParseLine(line string) (Diagnostic, bool) {
	m := lineRe.FindStringSubmatch(line)
	if m == nil {
		return Diagnostic{}, false
	}
	lineNo, err := strconv.ParseUint(m[2], 10, 32)
	if err != nil || lineNo == 0 {
		return Diagnostic{}, false
	}
	var col uint64
	if m[3] != "" {
		col, err = strconv.ParseUint(m[3], 10, 32)
		if err != nil {
			return Diagnostic{}, false
		}
	}
	sev, _ := ParseSeverity(m[4])
	code := ParseCode(m[6])
	d := Diagnostic{
		Path:     m[1],
		Line:     uint32(lineNo),
		Column:   uint32(col),
		Severity: sev,
		Code:     code,
		RawCode:  m[6],
		Message:  m[5],
	}
	d.Class = Classify(code, d.Message)
	return d, true
}
