package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"typeguard/internal/checker"
	"typeguard/internal/diagfmt"
	"typeguard/internal/driver"
	"typeguard/internal/journal"
	"typeguard/internal/ui"
)

var fixCmd = &cobra.Command{
	Use:   "fix [flags] [file.py|directory]...",
	Short: "Infer missing annotations and patch sources until the checker agrees",
	Long: `Run the checker, infer types for the reported problems, apply the edits and
re-check. Edits that do not reduce the error count are rolled back. Files are
backed up in the journal first; undo a session with "typeguard revert".`,
	RunE: runFix,
}

func init() {
	addFixFlags(fixCmd)
}

func addFixFlags(cmd *cobra.Command) {
	cmd.Flags().String("mode", "", "session mode (auto|review|dry-run|strict)")
	cmd.Flags().Bool("strict", false, "never fall back to Any or object")
	cmd.Flags().Int("jobs", 0, "max parallel files (0=auto)")
	cmd.Flags().Int("max-iterations", 0, "verification rounds before giving up")
	cmd.Flags().Float64("min-confidence", 0, "drop inferences below this confidence")
	cmd.Flags().Bool("no-journal", false, "do not record backups for revert")
}

func runFix(cmd *cobra.Command, args []string) error {
	out, err := readOutputOptions(cmd)
	if err != nil {
		return usageError(err)
	}
	cfg, err := loadConfig(cmd, configStart(args))
	if err != nil {
		return usageError(err)
	}
	opts, err := cfg.SessionOptions()
	if err != nil {
		return usageError(err)
	}
	if err := applyFixFlags(cmd, &opts); err != nil {
		return usageError(err)
	}
	root := projectRoot(cfg)
	opts.Root = root
	out.pretty.BaseDir = root

	targets := args
	if len(targets) == 0 {
		targets = []string{"."}
	}
	files, err := driver.Discover(targets)
	if err != nil {
		return usageError(err)
	}

	if opts.Mode == driver.ModeReview {
		if !ui.Interactive() {
			return usageError(errors.New("review mode needs an interactive terminal"))
		}
		opts.Reviewer = ui.NewPrompt()
	}

	chk, err := checker.NewRunner(cfg.CheckerOptions())
	if err != nil {
		// nothing ran yet: report the session as aborted at start
		res := &driver.Result{State: driver.StateAborted, Err: err}
		return reportSession(cmd, res, opts.Mode, "", out)
	}

	var (
		j   *journal.Journal
		rec *journal.Record
	)
	noJournal, err := cmd.Flags().GetBool("no-journal")
	if err != nil {
		return err
	}
	if opts.Mode != driver.ModeDryRun && !noJournal {
		j, err = journal.Open(cfg.JournalDir(root))
		if err != nil {
			return err
		}
		rec, err = j.Begin(opts.Mode.String(), files)
		if err != nil {
			return err
		}
		opts.ID = rec.ID
	}

	var res *driver.Result
	if shouldUseTUI(out.ui, out.format == diagfmt.FormatPretty, opts.Mode == driver.ModeReview) {
		res, err = runSessionWithUI(cmd.Context(), "typeguard fix", chk, files, opts)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "ui: %v\n", err)
		}
	} else {
		res = driver.NewSession(chk, files, opts).Run(cmd.Context())
	}

	sessionID := ""
	if rec != nil {
		if err := j.Finish(rec, res); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "journal: %v\n", err)
		} else if len(res.FilesTouched) > 0 {
			sessionID = rec.ID
		}
	}
	return reportSession(cmd, res, opts.Mode, sessionID, out)
}

func applyFixFlags(cmd *cobra.Command, opts *driver.Options) error {
	flags := cmd.Flags()
	if flags.Changed("mode") {
		modeStr, err := flags.GetString("mode")
		if err != nil {
			return err
		}
		if strings.EqualFold(modeStr, "strict") {
			opts.Mode = driver.ModeAuto
			opts.Strict = true
		} else {
			mode, err := driver.ParseMode(modeStr)
			if err != nil {
				return err
			}
			opts.Mode = mode
		}
	}
	if flags.Changed("strict") {
		strict, err := flags.GetBool("strict")
		if err != nil {
			return err
		}
		opts.Strict = opts.Strict || strict
	}
	if flags.Changed("jobs") {
		jobs, err := flags.GetInt("jobs")
		if err != nil {
			return err
		}
		opts.Jobs = jobs
	}
	if flags.Changed("max-iterations") {
		n, err := flags.GetInt("max-iterations")
		if err != nil {
			return err
		}
		if n < 1 {
			return fmt.Errorf("--max-iterations must be at least 1")
		}
		opts.MaxIterations = n
	}
	if flags.Changed("min-confidence") {
		c, err := flags.GetFloat64("min-confidence")
		if err != nil {
			return err
		}
		if c < 0 || c > 1 {
			return fmt.Errorf("--min-confidence must be within [0, 1]")
		}
		opts.MinConfidence = c
	}
	return nil
}

// reportSession prints res and turns its state into the exit status.
func reportSession(cmd *cobra.Command, res *driver.Result, mode driver.Mode, sessionID string, out outputOptions) error {
	rep := diagfmt.BuildSessionReport(res, mode, out.pretty)
	rep.Session = sessionID
	w := cmd.OutOrStdout()
	switch out.format {
	case diagfmt.FormatPretty:
		diagfmt.PrettySession(w, rep, out.pretty)
	case diagfmt.FormatSARIF:
		return usageError(errSarifCheckOnly)
	default:
		if err := diagfmt.Encode(w, out.format, rep); err != nil {
			return err
		}
	}

	switch {
	case res.State == driver.StateAborted:
		dumpFlightRecorder(cmd.ErrOrStderr(), res.Iterations)
		return &exitError{code: 2}
	case res.FinalCount > 0 && mode != driver.ModeDryRun:
		return &exitError{code: 1}
	}
	return nil
}
