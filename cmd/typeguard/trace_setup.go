package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"typeguard/internal/trace"
)

// flightRecorder is the in-memory trace tail of ring and both modes; an
// aborted session dumps it so the last checker runs can be inspected.
var flightRecorder *trace.RingTracer

func readTraceFlags(cmd *cobra.Command) (trace.Config, error) {
	flags := cmd.Root().PersistentFlags()
	var cfg trace.Config
	var err error
	if cfg.OutputPath, err = flags.GetString("trace"); err != nil {
		return cfg, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := flags.GetString("trace-level")
	if err != nil {
		return cfg, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	if cfg.Level, err = trace.ParseLevel(levelStr); err != nil {
		return cfg, fmt.Errorf("invalid trace level: %w", err)
	}
	formatStr, err := flags.GetString("trace-format")
	if err != nil {
		return cfg, fmt.Errorf("failed to get trace-format flag: %w", err)
	}
	if cfg.Format, err = trace.ParseFormat(formatStr); err != nil {
		return cfg, err
	}
	modeStr, err := flags.GetString("trace-mode")
	if err != nil {
		return cfg, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	if cfg.Mode, err = trace.ParseMode(modeStr); err != nil {
		return cfg, fmt.Errorf("invalid trace mode: %w", err)
	}
	if cfg.RingSize, err = flags.GetInt("trace-ring-size"); err != nil {
		return cfg, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	if cfg.Heartbeat, err = flags.GetDuration("trace-heartbeat"); err != nil {
		return cfg, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}
	// an output file without a level means "trace the phases"
	if cfg.Level == trace.LevelOff && cfg.OutputPath != "" {
		cfg.Level = trace.LevelPhase
	}
	return cfg, nil
}

// setupTracing attaches a tracer to the command context and returns its cleanup.
func setupTracing(cmd *cobra.Command) (func(), error) {
	cfg, err := readTraceFlags(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.Level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func() {}, nil
	}

	tracer, err := trace.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	if ring, ok := trace.Ring(tracer); ok {
		flightRecorder = ring
	}
	ctx := trace.WithTracer(cmd.Context(), tracer)
	cmd.SetContext(ctx)
	cmd.Root().SetContext(ctx)

	heartbeat := trace.StartHeartbeat(tracer, cfg.Heartbeat)
	return func() {
		heartbeat.Stop()
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}, nil
}

// dumpFlightRecorder writes the trace tail kept in memory for the iteration
// that stopped the session, if any.
func dumpFlightRecorder(w io.Writer, iteration int) {
	if flightRecorder == nil {
		return
	}
	fmt.Fprintln(w, "--- trace tail ---")
	if err := flightRecorder.Dump(w, trace.FormatText, trace.Match{Iteration: iteration}); err != nil {
		fmt.Fprintf(w, "trace: dump error: %v\n", err)
	}
}
