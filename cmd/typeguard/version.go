package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"typeguard/internal/diagfmt"
	"typeguard/internal/version"
)

type versionPayload struct {
	Tool      string `json:"tool" yaml:"tool"`
	Version   string `json:"version" yaml:"version"`
	GitCommit string `json:"git_commit,omitempty" yaml:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty" yaml:"build_date,omitempty"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show typeguard build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := readOutputOptions(cmd)
		if err != nil {
			return usageError(err)
		}
		w := cmd.OutOrStdout()
		switch out.format {
		case diagfmt.FormatPretty:
			color.NoColor = !out.pretty.Color
			fmt.Fprint(w, version.Info())
			return nil
		case diagfmt.FormatSARIF:
			return usageError(errSarifCheckOnly)
		default:
			return diagfmt.Encode(w, out.format, versionPayload{
				Tool:      "typeguard",
				Version:   version.Version,
				GitCommit: version.GitCommit,
				BuildDate: version.BuildDate,
			})
		}
	},
}
