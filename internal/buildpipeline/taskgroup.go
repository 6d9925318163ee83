package buildpipeline

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// TaskGroup is a fork-join group of tasks. Go may be called from inside a
// running task; Wait returns once every task, including those added by
// other tasks, has finished, and makes their side effects visible.
//
// A failed task does not cancel its siblings: they run to completion and
// Wait reports the first error.
type TaskGroup struct {
	g   errgroup.Group
	ctx context.Context
	sem *semaphore.Weighted
}

// NewTaskGroup creates a group whose tasks share sem. Several groups may
// share one semaphore to bound the total parallelism; a nil sem is
// unbounded.
func NewTaskGroup(ctx context.Context, sem *semaphore.Weighted) *TaskGroup {
	return &TaskGroup{ctx: ctx, sem: sem}
}

// Go schedules fn. The goroutine starts at once and waits for a slot, so a
// task that adds more tasks never blocks on its own slot.
func (tg *TaskGroup) Go(fn func() error) {
	tg.g.Go(func() error {
		if tg.sem != nil {
			if err := tg.sem.Acquire(tg.ctx, 1); err != nil {
				return err
			}
			defer tg.sem.Release(1)
		}
		return fn()
	})
}

// Wait blocks until all tasks finish and returns the first error.
func (tg *TaskGroup) Wait() error { return tg.g.Wait() }
