package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"typeguard/internal/checker"
	"typeguard/internal/driver"
	"typeguard/internal/ui"
)

// runSessionWithUI runs the session in the background and renders its events
// until the event channel closes.
func runSessionWithUI(ctx context.Context, title string, chk checker.Checker, files []string, opts driver.Options) (*driver.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan *driver.Result, 1)

	go func() {
		optsCopy := opts
		optsCopy.Progress = driver.ChannelSink{Ch: events}
		res := driver.NewSession(chk, files, optsCopy).Run(ctx)
		outcomeCh <- res
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	select {
	case res := <-outcomeCh:
		return res, uiErr
	default:
	}
	// the view quit before the session finished: Ctrl+C
	cancel()
	go func() {
		for range events {
		}
	}()
	return <-outcomeCh, uiErr
}
