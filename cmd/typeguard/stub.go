package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"typeguard/internal/diagfmt"
	"typeguard/internal/driver"
	"typeguard/internal/stub"
)

var stubCmd = &cobra.Command{
	Use:   "stub [flags] [file.py|directory]...",
	Short: "Write .pyi stubs for Python sources",
	RunE:  runStub,
}

func init() {
	stubCmd.Flags().String("out", "", "mirror stubs under this directory (default: next to sources)")
	stubCmd.Flags().Bool("dry-run", false, "print stubs instead of writing them")
	stubCmd.Flags().Int("jobs", 0, "max parallel files (0=auto)")
}

type stubJSON struct {
	Source string `json:"source" yaml:"source"`
	Stub   string `json:"stub,omitempty" yaml:"stub,omitempty"`
	Text   string `json:"text,omitempty" yaml:"text,omitempty"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

func runStub(cmd *cobra.Command, args []string) error {
	out, err := readOutputOptions(cmd)
	if err != nil {
		return usageError(err)
	}
	cfg, err := loadConfig(cmd, configStart(args))
	if err != nil {
		return usageError(err)
	}
	root := projectRoot(cfg)
	out.pretty.BaseDir = root

	opts := stub.Options{Out: cfg.Stub.Out, Root: root, Jobs: cfg.Fix.Jobs}
	flags := cmd.Flags()
	if flags.Changed("out") {
		if opts.Out, err = flags.GetString("out"); err != nil {
			return err
		}
	}
	if opts.Out != "" && !filepath.IsAbs(opts.Out) {
		opts.Out = filepath.Join(root, opts.Out)
	}
	if opts.DryRun, err = flags.GetBool("dry-run"); err != nil {
		return err
	}
	if flags.Changed("jobs") {
		if opts.Jobs, err = flags.GetInt("jobs"); err != nil {
			return err
		}
	}

	targets := args
	if len(targets) == 0 {
		targets = []string{"."}
	}
	files, err := driver.Discover(targets)
	if err != nil {
		return usageError(err)
	}
	results, err := stub.Emit(cmd.Context(), files, opts)
	if err != nil {
		return &exitError{code: 2, err: err}
	}

	failed := 0
	payload := make([]stubJSON, 0, len(results))
	for _, r := range results {
		item := stubJSON{
			Source: diagfmt.FormatPath(r.Source, root, out.pretty.PathMode),
			Stub:   diagfmt.FormatPath(r.Stub, root, out.pretty.PathMode),
		}
		if opts.DryRun {
			item.Text = r.Text
		}
		if r.Err != nil {
			failed++
			item.Stub, item.Error = "", r.Err.Error()
		}
		payload = append(payload, item)
	}

	w := cmd.OutOrStdout()
	switch out.format {
	case diagfmt.FormatPretty:
		diagfmt.PrettyStubs(w, results, opts.DryRun, out.pretty)
	case diagfmt.FormatSARIF:
		return usageError(errSarifCheckOnly)
	default:
		if err := diagfmt.Encode(w, out.format, payload); err != nil {
			return err
		}
	}
	if failed > 0 {
		return &exitError{code: 1}
	}
	return nil
}
