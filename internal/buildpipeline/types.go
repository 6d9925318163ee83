package buildpipeline

import "time"

// Stage names a step of generation.
type Stage string

const (
	// StageLoad reads the metadata containers.
	StageLoad Stage = "load"
	// StageCompile plans modules and collects generic instantiations.
	StageCompile Stage = "compile"
	// StageSwift emits the Swift projection of a module.
	StageSwift Stage = "swift"
	// StageC emits the C ABI headers of a module.
	StageC Stage = "c"
	// StageComponent emits the component registration and stubs.
	StageComponent Stage = "component"
)

// Status is the state of a task or, with an empty Task, of a module.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	// StatusCached marks a module that was up to date and skipped.
	StatusCached Status = "cached"
	StatusError  Status = "error"
)

// Event reports progress for one task of a module. Module is empty for
// pipeline-wide stages; Task is empty for module-wide events.
type Event struct {
	Module  string
	Task    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. Tasks run concurrently, so OnEvent
// must be safe for concurrent use.
type ProgressSink interface {
	OnEvent(Event)
}

// Timings maps a stage to its wall time. Module stages overlap, so swift
// and c are measured from the first task start to the last task end across
// all modules.
type Timings map[Stage]time.Duration

// Set records dur for stage.
func (t *Timings) Set(stage Stage, dur time.Duration) {
	if *t == nil {
		*t = make(Timings, 5)
	}
	(*t)[stage] = dur
}

func (t Timings) Has(stage Stage) bool {
	_, ok := t[stage]
	return ok
}

func (t Timings) Duration(stage Stage) time.Duration { return t[stage] }
