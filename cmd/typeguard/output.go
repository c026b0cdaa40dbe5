package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"typeguard/internal/diagfmt"
	"typeguard/internal/project"
)

type outputOptions struct {
	format diagfmt.Format
	pretty diagfmt.PrettyOpts
	ui     uiMode
}

func readOutputOptions(cmd *cobra.Command) (outputOptions, error) {
	flags := cmd.Root().PersistentFlags()
	formatStr, err := flags.GetString("format")
	if err != nil {
		return outputOptions{}, err
	}
	format, err := diagfmt.ParseFormat(formatStr)
	if err != nil {
		return outputOptions{}, err
	}
	colorStr, err := flags.GetString("color")
	if err != nil {
		return outputOptions{}, err
	}
	pathModeStr, err := flags.GetString("path-mode")
	if err != nil {
		return outputOptions{}, err
	}
	pathMode, err := diagfmt.ParsePathMode(pathModeStr)
	if err != nil {
		return outputOptions{}, err
	}
	uiStr, err := flags.GetString("ui")
	if err != nil {
		return outputOptions{}, err
	}
	ui, err := readUIMode(uiStr)
	if err != nil {
		return outputOptions{}, err
	}
	showTimings, err := flags.GetBool("timings")
	if err != nil {
		return outputOptions{}, err
	}

	var useColor bool
	switch strings.ToLower(colorStr) {
	case "on":
		useColor = true
	case "off":
		useColor = false
	case "auto", "":
		useColor = diagfmt.ColorEnabled(os.Stdout)
	default:
		return outputOptions{}, fmt.Errorf("invalid --color value %q (expected auto|on|off)", colorStr)
	}

	return outputOptions{
		format: format,
		ui:     ui,
		pretty: diagfmt.PrettyOpts{
			Color:       useColor,
			PathMode:    pathMode,
			ShowEdits:   true,
			ShowPreview: true,
			ShowTimings: showTimings,
		},
	}, nil
}

// loadConfig honours --config, otherwise searches upwards from start.
func loadConfig(cmd *cobra.Command, start string) (project.Config, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return project.Config{}, err
	}
	if path != "" {
		return project.LoadFile(path)
	}
	cfg, _, err := project.Load(start)
	return cfg, err
}

// configStart is where the typeguard.toml search begins for a target list.
func configStart(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

// projectRoot is the directory report paths and module names are relative to.
func projectRoot(cfg project.Config) string {
	if cfg.Root != "" {
		return cfg.Root
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

func usageError(err error) error {
	return &exitError{code: 2, err: err}
}

var errSarifCheckOnly = errors.New("sarif output is only available for check")
