package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"typeguard/internal/checker"
	"typeguard/internal/diag"
	"typeguard/internal/diagfmt"
	"typeguard/internal/driver"
	"typeguard/internal/trace"
	"typeguard/internal/version"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [file.py|directory]...",
	Short: "Run the checker and group its findings by fix class",
	Long:  "Run the configured checker once and report which diagnostics typeguard knows how to fix. Nothing is modified.",
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().Bool("all-files", false, "keep diagnostics for files outside the targets")
}

func runCheck(cmd *cobra.Command, args []string) error {
	out, err := readOutputOptions(cmd)
	if err != nil {
		return usageError(err)
	}
	cfg, err := loadConfig(cmd, configStart(args))
	if err != nil {
		return usageError(err)
	}
	out.pretty.BaseDir = projectRoot(cfg)

	targets := args
	if len(targets) == 0 {
		targets = []string{"."}
	}
	files, err := driver.Discover(targets)
	if err != nil {
		return usageError(err)
	}
	chk, err := checker.NewRunner(cfg.CheckerOptions())
	if err != nil {
		return usageError(err)
	}

	ctx := cmd.Context()
	span, ctx := trace.Start(ctx, trace.ScopeSession, "check", trace.Attrs{})
	raw, err := chk.Check(ctx, files)
	span.End("")
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	report, err := diag.ParseReport(raw, diag.ReportOptions{
		MaxMalformedFraction: cfg.Fix.MaxMalformedFraction,
		MinCountedLines:      cfg.Fix.MinReportLines,
	})
	if err != nil {
		return &exitError{code: 2, err: err}
	}

	allFiles, err := cmd.Flags().GetBool("all-files")
	if err != nil {
		return err
	}
	if !allFiles {
		report.Diagnostics = onlyFiles(report.Diagnostics, files)
	}

	w := cmd.OutOrStdout()
	rep := diagfmt.BuildCheckReport(report, out.pretty)
	switch out.format {
	case diagfmt.FormatPretty:
		diagfmt.PrettyCheck(w, rep, out.pretty)
	case diagfmt.FormatSARIF:
		meta := diagfmt.SarifRunMeta{ToolName: "typeguard", ToolVersion: version.Version, InvocationArgs: append([]string{"check"}, args...)}
		if err := diagfmt.Sarif(w, report, out.pretty, meta); err != nil {
			return err
		}
	default:
		if err := diagfmt.Encode(w, out.format, rep); err != nil {
			return err
		}
	}
	if rep.Errors > 0 {
		return &exitError{code: 1}
	}
	return nil
}

// onlyFiles drops diagnostics the checker reported for modules outside files.
func onlyFiles(diags []diag.Diagnostic, files []string) []diag.Diagnostic {
	want := make(map[string]bool, len(files))
	for _, f := range files {
		want[absKey(f)] = true
	}
	kept := diags[:0]
	for _, d := range diags {
		if want[absKey(d.Path)] {
			kept = append(kept, d)
		}
	}
	return kept
}

func absKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return filepath.ToSlash(filepath.Clean(path))
}
