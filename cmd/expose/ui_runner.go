package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"expose/internal/driver"
	"expose/internal/ui"
)

type checkOutcome struct {
	results []*driver.Result
	err     error
}

// runCheckWithUI drives CheckFiles behind a live progress view. The check
// runs in the background; the Bubble Tea program consumes its events until
// the channel closes.
func runCheckWithUI(ctx context.Context, title string, files []string, opts driver.Options) ([]*driver.Result, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan checkOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Events = events
		results, err := driver.CheckFiles(ctx, files, optsCopy)
		outcomeCh <- checkOutcome{results: results, err: err}
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
