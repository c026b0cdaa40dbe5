package fix

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"typeguard/internal/parser"
	"typeguard/internal/source"
)

var (
	// ErrStaleEdit is returned when a proposal's window no longer matches the file.
	ErrStaleEdit = errors.New("stale edit")
	// ErrUnparsable is returned when the patched text no longer parses.
	ErrUnparsable = errors.New("edit produces unparsable source")
	// ErrOverlap is returned when a batch holds overlapping edits.
	ErrOverlap = errors.New("overlapping edits")
)

// ApplyOptions control ApplyFile.
type ApplyOptions struct {
	// DryRun computes the result without writing it.
	DryRun bool
}

// FileResult is the outcome of applying one file's batch.
type FileResult struct {
	Path     string
	Original []byte // on-disk bytes before the batch
	Updated  []byte // on-disk bytes after the batch
	Edits    int
}

// Changed reports whether the batch modified the file.
func (r *FileResult) Changed() bool {
	return string(r.Original) != string(r.Updated)
}

// ApplyFile applies props to the file at path. Either every edit is applied
// and the file is replaced atomically, or the file is left untouched.
func ApplyFile(path string, props []Proposal, opts ApplyOptions) (*FileResult, error) {
	// #nosec G304 -- path comes from the session's file set
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	content, flags := source.Normalize(raw)
	updated, err := Apply(content, props)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := checkParses(path, updated); err != nil {
		return nil, err
	}
	res := &FileResult{
		Path:     path,
		Original: raw,
		Updated:  source.Denormalize(updated, flags),
		Edits:    len(props),
	}
	if opts.DryRun || !res.Changed() {
		return res, nil
	}
	if err := WriteAtomic(path, res.Updated); err != nil {
		return nil, err
	}
	return res, nil
}

// Apply applies props to normalized content and returns the new text. Every
// proposal is verified against its window first.
func Apply(content []byte, props []Proposal) ([]byte, error) {
	for i := range props {
		if !props[i].Verify(content) {
			return nil, fmt.Errorf("%w: %s", ErrStaleEdit, props[i].Title)
		}
	}
	order := make([]Proposal, len(props))
	copy(order, props)
	sort.SliceStable(order, func(i, j int) bool {
		if order[i].Span.Start != order[j].Span.Start {
			return order[i].Span.Start > order[j].Span.Start
		}
		return order[i].Span.End > order[j].Span.End
	})
	for i := 1; i < len(order); i++ {
		if Conflict(order[i-1], order[i]) {
			return nil, fmt.Errorf("%w: %s and %s", ErrOverlap, order[i].Title, order[i-1].Title)
		}
	}

	out := append([]byte(nil), content...)
	for _, p := range order {
		tail := append([]byte(p.Replacement), out[p.Span.End:]...)
		out = append(out[:p.Span.Start], tail...)
	}
	return out, nil
}

func checkParses(path string, content []byte) error {
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual(path, content))
	if err := parser.ParseFile(file, parser.Options{}).Err(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUnparsable, path, err)
	}
	return nil
}

// WriteAtomic replaces path with data through a temp file in the same
// directory, keeping the original permissions.
func WriteAtomic(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".typeguard-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
