package journal

import (
	"sort"
	"time"
)

// ClassStat aggregates committed edits of one fix class.
type ClassStat struct {
	Class          string  `json:"class" yaml:"class"`
	Edits          int     `json:"edits" yaml:"edits"`
	Reverted       int     `json:"reverted" yaml:"reverted"`
	MeanConfidence float64 `json:"mean_confidence" yaml:"mean_confidence"`
}

// Stats summarizes the journal.
type Stats struct {
	Sessions int         `json:"sessions" yaml:"sessions"`
	Fixed    int         `json:"fixed" yaml:"fixed"` // error diagnostics removed across sessions
	Classes  []ClassStat `json:"classes" yaml:"classes"`
	Since    time.Time   `json:"since" yaml:"since"`
}

// History returns per-class statistics over every recorded session.
func (j *Journal) History() (*Stats, error) {
	recs, err := j.List()
	if err != nil {
		return nil, err
	}
	st := &Stats{Sessions: len(recs)}
	byClass := make(map[string]*ClassStat)
	for _, r := range recs {
		if st.Since.IsZero() || r.Started.Before(st.Since) {
			st.Since = r.Started
		}
		if r.Reverted.IsZero() && r.Initial > r.Final {
			st.Fixed += r.Initial - r.Final
		}
		for _, e := range r.Edits {
			cs := byClass[e.Class]
			if cs == nil {
				cs = &ClassStat{Class: e.Class}
				byClass[e.Class] = cs
			}
			cs.Edits++
			cs.MeanConfidence += e.Confidence
			if !r.Reverted.IsZero() {
				cs.Reverted++
			}
		}
	}
	for _, cs := range byClass {
		cs.MeanConfidence /= float64(cs.Edits)
		st.Classes = append(st.Classes, *cs)
	}
	sort.Slice(st.Classes, func(a, b int) bool {
		if st.Classes[a].Edits != st.Classes[b].Edits {
			return st.Classes[a].Edits > st.Classes[b].Edits
		}
		return st.Classes[a].Class < st.Classes[b].Class
	})
	return st, nil
}
