package fix

import (
	"sort"

	"typeguard/internal/source"
)

// Select picks a non-overlapping subset of props, highest confidence first.
// Losers are returned as deferred; they can be proposed again once the
// winners are applied and the file is re-read.
func Select(props []Proposal) (selected, deferred []Proposal) {
	order := make([]Proposal, len(props))
	copy(order, props)
	sort.SliceStable(order, func(i, j int) bool {
		a, b := &order[i], &order[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.Span.Start != b.Span.Start {
			return a.Span.Start < b.Span.Start
		}
		if a.Span.End != b.Span.End {
			return a.Span.End < b.Span.End
		}
		return a.Key < b.Key
	})

	for _, p := range order {
		if conflictsAny(p, selected) {
			deferred = append(deferred, p)
			continue
		}
		selected = append(selected, p)
	}
	sortByStart(selected)
	return selected, deferred
}

func conflictsAny(p Proposal, with []Proposal) bool {
	for i := range with {
		if Conflict(p, with[i]) {
			return true
		}
	}
	return false
}

// Conflict reports whether two proposals cannot be applied together.
func Conflict(a, b Proposal) bool {
	if a.Path != b.Path {
		return false
	}
	if a.Span.Start == b.Span.Start && a.Span.End == b.Span.End {
		return true
	}
	return spansConflict(a.Span, b.Span)
}

// spansConflict works on half-open intervals. Two insertions never conflict;
// an insertion conflicts with a replacement only when it lands strictly inside
// or at its start.
func spansConflict(a, b source.Span) bool {
	aEmpty := a.Start == a.End
	bEmpty := b.Start == b.End
	switch {
	case aEmpty && bEmpty:
		return false
	case aEmpty:
		return b.Start <= a.Start && a.Start < b.End
	case bEmpty:
		return a.Start <= b.Start && b.Start < a.End
	default:
		return a.Start < b.End && b.Start < a.End
	}
}

func sortByStart(props []Proposal) {
	sort.SliceStable(props, func(i, j int) bool {
		if props[i].Span.Start != props[j].Span.Start {
			return props[i].Span.Start < props[j].Span.Start
		}
		return props[i].Span.End < props[j].Span.End
	})
}
