package infer

import (
	"typeguard/internal/source"
	"typeguard/internal/types"
)

// Source is where a piece of evidence came from.
type Source uint8

const (
	SourceLiteral Source = iota
	SourceCallArgument
	SourceReturnValue
	SourceComparison
	SourceUsage
	SourceReported
)

func (s Source) String() string {
	switch s {
	case SourceLiteral:
		return "literal"
	case SourceCallArgument:
		return "call-argument"
	case SourceReturnValue:
		return "return-value"
	case SourceComparison:
		return "comparison"
	case SourceUsage:
		return "usage"
	case SourceReported:
		return "reported"
	default:
		return "invalid"
	}
}

// Weight is the contribution of one observation to the confidence sum.
func (s Source) Weight() float64 {
	switch s {
	case SourceComparison, SourceUsage, SourceReported:
		return 0.5
	default:
		return 1
	}
}

// Evidence is one observation of a symbol's type.
type Evidence struct {
	Source Source
	Type   types.Expr
	Site   source.Span
}

// EvidenceSet keeps observations in first-seen order.
type EvidenceSet struct {
	items []Evidence
}

// Add records an observation. Observations that say nothing (Unknown) are dropped.
func (s *EvidenceSet) Add(src Source, t types.Expr, site source.Span) {
	if t.IsUnknown() {
		return
	}
	s.items = append(s.items, Evidence{Source: src, Type: t, Site: site})
}

func (s *EvidenceSet) Items() []Evidence {
	return s.items
}

func (s *EvidenceSet) Len() int {
	return len(s.items)
}
