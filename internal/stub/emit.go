package stub

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"typeguard/internal/source"
	"typeguard/internal/symbols"
	"typeguard/internal/trace"
)

// Options configure Emit.
type Options struct {
	// Out mirrors the source tree under this directory; empty writes each stub
	// next to its source.
	Out string
	// Root is the tree Out mirrors and module names are computed from.
	Root string
	Jobs int
	// DryRun renders without writing.
	DryRun bool
}

// Result describes one emitted stub.
type Result struct {
	Source string
	Stub   string
	Text   string
	Err    error
}

// Emit renders a stub for every file. Per-file failures are reported in the
// results; the returned error is only set on cancellation.
func Emit(ctx context.Context, files []string, opts Options) ([]Result, error) {
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	root := opts.Root
	if root == "" && len(files) > 0 {
		root = filepath.Dir(files[0])
	}
	span, ctx := trace.Start(ctx, trace.ScopePhase, "stub", trace.Attrs{})
	defer span.End(fmt.Sprintf("%d files", len(files)))

	results := make([]Result, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := &results[i]
			res.Source = path
			res.Stub, res.Err = StubPath(path, root, opts.Out)
			if res.Err != nil {
				return nil
			}
			sf, err := symbols.Load(source.NewFileSet(), path, symbols.ModuleName(root, path))
			if err != nil {
				res.Err = err
				return nil
			}
			res.Text = Render(sf)
			if !opts.DryRun {
				res.Err = write(res.Stub, res.Text)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// StubPath maps a .py source to its .pyi path.
func StubPath(path, root, out string) (string, error) {
	stub := strings.TrimSuffix(path, ".py") + ".pyi"
	if out == "" {
		return stub, nil
	}
	rel, err := filepath.Rel(root, stub)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside %s", path, root)
	}
	return filepath.Join(out, rel), nil
}

func write(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(text), 0o644) // #nosec G306 -- stubs are public
}
