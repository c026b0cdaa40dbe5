package diag

import (
	"sort"
)

// Bag collects diagnostics of one checker run.
type Bag struct {
	items []Diagnostic
}

func NewBag(items ...Diagnostic) *Bag {
	return &Bag{items: append([]Diagnostic(nil), items...)}
}

func (b *Bag) Add(d Diagnostic) {
	b.items = append(b.items, d)
}

// длина
func (b *Bag) Len() int {
	return len(b.items)
}

// Items возвращает read-only slice диагностик.
func (b *Bag) Items() []Diagnostic {
	return b.items
}

// ErrorCount returns the number of error-severity diagnostics.
func (b *Bag) ErrorCount() int {
	n := 0
	for i := range b.items {
		if b.items[i].IsError() {
			n++
		}
	}
	return n
}

// Sort orders diagnostics by path, line, column, severity (desc), code.
func (b *Bag) Sort() {
	sort.SliceStable(b.items, func(i, j int) bool {
		di, dj := b.items[i], b.items[j]
		if di.Path != dj.Path {
			return di.Path < dj.Path
		}
		if di.Line != dj.Line {
			return di.Line < dj.Line
		}
		if di.Column != dj.Column {
			return di.Column < dj.Column
		}
		if di.Severity != dj.Severity {
			return di.Severity > dj.Severity
		}
		return di.RawCode < dj.RawCode
	})
}

// простая дедупликация (по Key)
func (b *Bag) Dedup() {
	seen := make(map[string]bool, len(b.items))
	out := b.items[:0]
	for _, d := range b.items {
		key := d.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, d)
	}
	b.items = out
}

// Filter returns diagnostics matching keep.
func (b *Bag) Filter(keep func(Diagnostic) bool) []Diagnostic {
	var out []Diagnostic
	for _, d := range b.items {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}

// ByPath groups error diagnostics by file path.
func (b *Bag) ByPath() map[string][]Diagnostic {
	out := make(map[string][]Diagnostic)
	for _, d := range b.items {
		if d.IsError() {
			out[d.Path] = append(out[d.Path], d)
		}
	}
	return out
}

// CountByClass counts error diagnostics per fix class.
func (b *Bag) CountByClass() map[Class]int {
	out := make(map[Class]int)
	for _, d := range b.items {
		if d.IsError() {
			out[d.Class]++
		}
	}
	return out
}
