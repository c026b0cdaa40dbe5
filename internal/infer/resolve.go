package infer

import (
	"math"

	"typeguard/internal/types"
)

const (
	// DefaultMinConfidence is the threshold below which a type is not proposed.
	DefaultMinConfidence = 0.4
	broadPenalty         = 0.6
)

// ResolveOptions tune Resolve.
type ResolveOptions struct {
	MinConfidence float64
	Strict        bool
	// Generic allows a type parameter when call sites disagree on element types
	// of one container shape. Fresh names the i-th parameter.
	Generic bool
	Fresh   func(i int) string
}

// Result is the outcome for one symbol. Type is set even when Reason reports an
// abstention, for logging.
type Result struct {
	Type       types.Expr
	Confidence float64
	Broad      bool
	Generic    bool
	Branches   int
	Evidence   int
	Reason     Reason
}

// OK reports whether the result may be proposed.
func (r Result) OK() bool {
	return r.Reason == ReasonNone
}

// Confidence computes (1 - 0.5^(w+1)) / k.
func Confidence(weight float64, branches int) float64 {
	if branches < 1 {
		branches = 1
	}
	return (1 - math.Pow(0.5, weight+1)) / float64(branches)
}

// Resolve merges evidence into one type.
func Resolve(set *EvidenceSet, opts ResolveOptions) Result {
	minConf := opts.MinConfidence
	if minConf <= 0 {
		minConf = DefaultMinConfidence
	}
	var (
		weight       float64
		noneSeen     bool
		noneDefinite bool
		branches     []types.Expr
		callSites    int
		onlyCalls    = true
	)
	for _, ev := range set.Items() {
		weight += ev.Source.Weight()
		if ev.Source == SourceCallArgument {
			callSites++
		} else {
			onlyCalls = false
		}
		for _, part := range split(ev.Type) {
			if part.IsNone() {
				noneSeen = true
				if ev.Source != SourceComparison {
					noneDefinite = true
				}
				continue
			}
			branches = merge(branches, part)
		}
	}

	res := Result{Evidence: set.Len(), Type: types.Unknown()}
	if len(branches) == 0 {
		if noneDefinite {
			res.Type = types.None()
			res.Branches = 1
			res.Confidence = Confidence(weight, 1)
			return res
		}
		res.Reason = ReasonNoEvidence
		return res
	}

	k := len(branches)
	var t types.Expr
	if opts.Generic && onlyCalls && callSites >= 2 && k >= 2 {
		if g, ok := generalize(branches, opts.Fresh); ok {
			t, k = g, 1
			res.Generic = true
		}
	}
	if !res.Generic {
		t = types.Union(branches...)
	}
	if noneSeen {
		t = types.Optional(t)
	}

	broad, changed := t.Broaden()
	res.Type = broad
	res.Branches = k
	res.Broad = changed || broad.HasAny()
	res.Confidence = Confidence(weight, k)
	if res.Broad {
		res.Confidence *= broadPenalty
	}
	switch {
	case opts.Strict && res.Broad:
		res.Reason = ReasonStrictBroad
	case res.Confidence < minConf:
		res.Reason = ReasonLowConfidence
	}
	return res
}

// split breaks Optional and Union evidence into its members.
func split(t types.Expr) []types.Expr {
	switch t.Kind {
	case types.KindOptional:
		return append([]types.Expr{types.None()}, split(t.Args[0])...)
	case types.KindUnion:
		var out []types.Expr
		for _, m := range t.Args {
			out = append(out, split(m)...)
		}
		return out
	}
	return []types.Expr{t}
}

// merge joins part into the first compatible branch or appends it.
func merge(branches []types.Expr, part types.Expr) []types.Expr {
	for i, b := range branches {
		if j, ok := types.Join(b, part); ok {
			branches[i] = j
			return branches
		}
	}
	return append(branches, part)
}

// generalize turns same-shape containers that differ in element types into one
// container with a type variable at each differing position.
func generalize(branches []types.Expr, fresh func(int) string) (types.Expr, bool) {
	first := branches[0]
	if first.Kind != types.KindNamed || len(first.Args) == 0 {
		return types.Expr{}, false
	}
	if types.ContainerArity(first.Name) == 0 && first.Name != types.NameTuple {
		return types.Expr{}, false
	}
	for _, b := range branches[1:] {
		if b.Kind != types.KindNamed || b.Shape() != first.Shape() || len(b.Args) != len(first.Args) {
			return types.Expr{}, false
		}
	}
	out := first
	out.Args = make([]types.Expr, len(first.Args))
	n := 0
	for i := range first.Args {
		same := true
		for _, b := range branches[1:] {
			if !b.Args[i].Equal(first.Args[i]) {
				same = false
				break
			}
		}
		if same {
			out.Args[i] = first.Args[i]
			continue
		}
		name := "T"
		if fresh != nil {
			name = fresh(n)
		}
		out.Args[i] = types.TypeVar(name)
		n++
	}
	return out, true
}

// Elements joins element observations of one container display.
func Elements(ts []types.Expr) types.Expr {
	var branches []types.Expr
	none := false
	for _, t := range ts {
		for _, part := range split(t) {
			if part.IsNone() {
				none = true
				continue
			}
			branches = merge(branches, part)
		}
	}
	if len(branches) == 0 && none {
		return types.None()
	}
	out := types.Union(branches...)
	if none {
		return types.Optional(out)
	}
	return out
}
