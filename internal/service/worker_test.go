package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
)

func TestRunProcessesEveryIndex(t *testing.T) {
	var seen [10]atomic.Int32
	err := run(context.Background(), 3, len(seen), func(idx int) error {
		seen[idx].Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	for i := range seen {
		if seen[i].Load() != 1 {
			t.Fatalf("index %d processed %d times", i, seen[i].Load())
		}
	}
}

func TestRunBoundsConcurrency(t *testing.T) {
	var active, peak atomic.Int32
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- run(context.Background(), 2, 6, func(int) error {
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			<-release
			active.Add(-1)
			return nil
		})
	}()
	for i := 0; i < 6; i++ {
		release <- struct{}{}
	}
	if err := <-done; err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if peak.Load() > 2 {
		t.Fatalf("expected at most 2 concurrent workers, saw %d", peak.Load())
	}
}

func TestRunAggregatesTaskErrors(t *testing.T) {
	boom := errors.New("boom")
	err := run(context.Background(), 4, 5, func(idx int) error {
		if idx%2 == 0 {
			return fmt.Errorf("task %d: %w", idx, boom)
		}
		return nil
	})

	var taskErr *TaskError
	if !errors.As(err, &taskErr) {
		t.Fatalf("expected TaskError, got %v", err)
	}
	if len(taskErr.Errors) != 3 {
		t.Fatalf("expected 3 errors, got %d", len(taskErr.Errors))
	}
	if !errors.Is(err, boom) {
		t.Fatalf("TaskError should unwrap to the task errors")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var processed atomic.Int32
	err := run(ctx, 1, 100, func(idx int) error {
		processed.Add(1)
		if idx == 2 {
			cancel()
		}
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if processed.Load() >= 100 {
		t.Fatalf("dispatch should stop after cancellation")
	}
}

func TestRunEmpty(t *testing.T) {
	if err := run(context.Background(), 4, 0, func(int) error { return errors.New("unreachable") }); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestTaskErrorMessage(t *testing.T) {
	e := &TaskError{}
	if e.Error() != "no errors" {
		t.Fatalf("unexpected message %q", e.Error())
	}
	e.append(errors.New("a"))
	if e.Error() != "a" {
		t.Fatalf("unexpected message %q", e.Error())
	}
	e.append(nil)
	e.append(errors.New("b"))
	if e.Error() != "multiple errors: a; b;" {
		t.Fatalf("unexpected message %q", e.Error())
	}
}
