package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"typeguard/internal/project"
)

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Write a default typeguard.toml",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
		path, err := project.WriteDefault(dir)
		if err != nil {
			if errors.Is(err, project.ErrConfigExists) {
				return usageError(err)
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", path)
		return nil
	},
}
