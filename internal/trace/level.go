package trace

import (
	"fmt"
	"strings"
)

// Level is the finest Scope a tracer records.
type Level uint8

const (
	LevelOff     Level = iota
	LevelSession       // sessions, iterations, commands
	LevelPhase         // + check/synthesize/apply/verify
	LevelFile          // + per-file work
	LevelDiag          // + every abstention and rejection
)

var levelNames = [...]string{"off", "session", "phase", "file", "diag"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel accepts the names printed by String, in any case.
func ParseLevel(s string) (Level, error) {
	for i, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(i), nil // #nosec G115 -- bounded by levelNames
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level %q (expected %s)", s, strings.Join(levelNames[:], "|"))
}

// ShouldEmit reports whether events of scope pass this level.
func (l Level) ShouldEmit(scope Scope) bool {
	return l > LevelOff && uint8(scope) <= uint8(l)
}
