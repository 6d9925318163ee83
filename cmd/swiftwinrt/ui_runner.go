package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"swiftwinrt/internal/buildpipeline"
	"swiftwinrt/internal/ui"
)

type generateOutcome struct {
	result buildpipeline.Result
	err    error
}

func runGenerateWithUI(ctx context.Context, title string, req *buildpipeline.Request) (buildpipeline.Result, error) {
	if req == nil {
		return buildpipeline.Result{}, fmt.Errorf("missing generate request")
	}
	events := make(chan buildpipeline.Event, 256)
	outcomeCh := make(chan generateOutcome, 1)

	go func() {
		reqCopy := *req
		reqCopy.Progress = buildpipeline.MultiSink{req.Progress, buildpipeline.ChannelSink{Ch: events}}
		res, err := buildpipeline.Generate(ctx, &reqCopy)
		outcomeCh <- generateOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
