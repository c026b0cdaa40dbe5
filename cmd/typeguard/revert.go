package main

import (
	"errors"

	"github.com/spf13/cobra"

	"typeguard/internal/diagfmt"
	"typeguard/internal/journal"
)

var revertCmd = &cobra.Command{
	Use:   "revert [session-id]",
	Short: "Restore the files a fix session changed",
	Long: `Restore the pre-session contents of every file a session touched. Without an
id the most recent session that changed files is reverted. Files edited since,
or touched by a later session, are skipped unless --force is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRevert,
}

func init() {
	revertCmd.Flags().Bool("force", false, "overwrite files changed after the session")
}

func openJournal(cmd *cobra.Command) (*journal.Journal, string, error) {
	cfg, err := loadConfig(cmd, ".")
	if err != nil {
		return nil, "", usageError(err)
	}
	root := projectRoot(cfg)
	j, err := journal.Open(cfg.JournalDir(root))
	if err != nil {
		return nil, "", err
	}
	return j, root, nil
}

func runRevert(cmd *cobra.Command, args []string) error {
	out, err := readOutputOptions(cmd)
	if err != nil {
		return usageError(err)
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}
	j, root, err := openJournal(cmd)
	if err != nil {
		return err
	}
	out.pretty.BaseDir = root

	id := ""
	if len(args) == 1 {
		id = args[0]
	}
	rec, err := j.Get(id)
	if err != nil {
		if errors.Is(err, journal.ErrNoSession) || errors.Is(err, journal.ErrAmbiguousID) {
			return usageError(err)
		}
		return err
	}
	res, err := j.Revert(rec, force)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch out.format {
	case diagfmt.FormatPretty:
		diagfmt.PrettyRevert(w, rec.ID, res, out.pretty)
	case diagfmt.FormatSARIF:
		return usageError(errSarifCheckOnly)
	default:
		payload := struct {
			Session  string            `json:"session" yaml:"session"`
			Restored []string          `json:"restored" yaml:"restored"`
			Skipped  map[string]string `json:"skipped,omitempty" yaml:"skipped,omitempty"`
		}{rec.ID, res.Restored, res.Skipped}
		if err := diagfmt.Encode(w, out.format, payload); err != nil {
			return err
		}
	}
	if len(res.Skipped) > 0 {
		return &exitError{code: 1}
	}
	return nil
}
