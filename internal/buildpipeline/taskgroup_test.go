package buildpipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/semaphore"
)

func TestTaskGroupNestedTasksShareOneSlot(t *testing.T) {
	sem := semaphore.NewWeighted(1)
	tg := NewTaskGroup(context.Background(), sem)
	var ran atomic.Int32
	for range 3 {
		tg.Go(func() error {
			ran.Add(1)
			tg.Go(func() error {
				ran.Add(1)
				return nil
			})
			return nil
		})
	}
	done := make(chan error, 1)
	go func() { done <- tg.Wait() }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Wait: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("nested tasks deadlocked")
	}
	if got := ran.Load(); got != 6 {
		t.Fatalf("ran %d tasks, want 6", got)
	}
}

func TestTaskGroupSiblingsFinishAfterFailure(t *testing.T) {
	tg := NewTaskGroup(context.Background(), semaphore.NewWeighted(2))
	boom := errors.New("boom")
	var finished atomic.Int32
	tg.Go(func() error { return boom })
	for range 4 {
		tg.Go(func() error {
			time.Sleep(10 * time.Millisecond)
			finished.Add(1)
			return nil
		})
	}
	if err := tg.Wait(); !errors.Is(err, boom) {
		t.Fatalf("Wait = %v, want boom", err)
	}
	if got := finished.Load(); got != 4 {
		t.Fatalf("%d siblings finished, want 4", got)
	}
}

func TestTaskGroupBoundsParallelism(t *testing.T) {
	tg := NewTaskGroup(context.Background(), semaphore.NewWeighted(2))
	var cur, peak atomic.Int32
	for range 8 {
		tg.Go(func() error {
			n := cur.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			cur.Add(-1)
			return nil
		})
	}
	if err := tg.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if p := peak.Load(); p > 2 {
		t.Fatalf("peak parallelism %d exceeds 2", p)
	}
}
