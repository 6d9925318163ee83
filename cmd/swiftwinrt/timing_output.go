package main

import (
	"fmt"
	"io"
	"time"

	"swiftwinrt/internal/buildpipeline"
	"swiftwinrt/internal/observ"
)

func printStageTimings(out io.Writer, timings buildpipeline.Timings, timer *observ.Timer) error {
	if out == nil {
		return nil
	}
	stages := []struct {
		stage buildpipeline.Stage
		label string
	}{
		{buildpipeline.StageLoad, "loaded"},
		{buildpipeline.StageCompile, "compiled"},
		{buildpipeline.StageSwift, "swift"},
		{buildpipeline.StageC, "headers"},
		{buildpipeline.StageComponent, "component"},
	}
	for _, s := range stages {
		if !timings.Has(s.stage) {
			continue
		}
		if _, err := fmt.Fprintf(out, "%s %.1f ms\n", s.label, toMillis(timings.Duration(s.stage))); err != nil {
			return err
		}
	}
	if timer != nil {
		if _, err := io.WriteString(out, timer.Summary()); err != nil {
			return err
		}
	}
	return nil
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
