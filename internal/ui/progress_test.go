package ui

import (
	"errors"
	"strings"
	"testing"

	"swiftwinrt/internal/buildpipeline"
)

func TestProgressTracksModules(t *testing.T) {
	m := NewProgressModel("generate", nil).(*progressModel)
	events := []buildpipeline.Event{
		{Stage: buildpipeline.StageLoad, Status: buildpipeline.StatusWorking},
		{Module: "Test", Task: "Test.Shapes", Stage: buildpipeline.StageSwift, Status: buildpipeline.StatusQueued},
		{Module: "Test", Task: "Test.Shapes", Stage: buildpipeline.StageC, Status: buildpipeline.StatusQueued},
		{Module: "Test", Task: "Test.Shapes", Stage: buildpipeline.StageSwift, Status: buildpipeline.StatusWorking},
		{Module: "Test", Task: "Test.Shapes", Stage: buildpipeline.StageSwift, Status: buildpipeline.StatusDone},
		{Module: "WindowsFoundation", Stage: buildpipeline.StageSwift, Status: buildpipeline.StatusCached},
	}
	for _, ev := range events {
		m.applyEvent(ev)
	}
	if m.phase != "loading metadata" {
		t.Fatalf("phase = %q", m.phase)
	}
	if len(m.rows) != 2 {
		t.Fatalf("got %d modules, want 2", len(m.rows))
	}
	test := m.rows[m.byName["Test"]]
	if test.tasks != 2 || test.ended != 1 || test.state != rowGenerating {
		t.Fatalf("Test item = %+v", test)
	}
	if got := m.rows[m.byName["WindowsFoundation"]].state; got != rowCached {
		t.Fatalf("WindowsFoundation status = %q", got)
	}

	m.applyEvent(buildpipeline.Event{Module: "Test", Task: "Test.Shapes", Stage: buildpipeline.StageC, Status: buildpipeline.StatusError, Err: errors.New("disk full")})
	view := m.View()
	if !strings.Contains(view, "error") || !strings.Contains(view, "disk full") {
		t.Fatalf("view misses the failure:\n%s", view)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("Windows.Foundation.Collections", 10); got != "Windows..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("abcdef", 2); got != "ab" {
		t.Fatalf("truncate = %q", got)
	}
}

func TestRowFraction(t *testing.T) {
	if f := (moduleRow{state: rowCached}).fraction(); f != 1 {
		t.Fatalf("cached fraction = %v", f)
	}
	if f := (moduleRow{state: rowGenerating, tasks: 4, ended: 1}).fraction(); f != 0.25 {
		t.Fatalf("fraction = %v", f)
	}
}
