package main

import (
	"github.com/spf13/cobra"

	"typeguard/internal/diagfmt"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded fix sessions and per-class statistics",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 10, "sessions to list (0 = all)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	out, err := readOutputOptions(cmd)
	if err != nil {
		return usageError(err)
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	j, _, err := openJournal(cmd)
	if err != nil {
		return err
	}
	stats, err := j.History()
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch out.format {
	case diagfmt.FormatPretty:
		recs, err := j.List()
		if err != nil {
			return err
		}
		diagfmt.PrettyHistory(w, stats, recs, limit, out.pretty)
		return nil
	case diagfmt.FormatSARIF:
		return usageError(errSarifCheckOnly)
	default:
		return diagfmt.Encode(w, out.format, stats)
	}
}
