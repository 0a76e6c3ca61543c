package payment

import (
	"context"
	"sync"
)

// Status of a payment task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Task is one payment attempt: pending until it either succeeds or fails.
type Task struct {
	Method string
	Amount int

	mu     sync.Mutex
	status Status
	result Result
	err    error
	done   chan struct{}
	cancel context.CancelFunc
}

// Status returns the current state.
func (t *Task) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Cancel aborts a pending attempt. It is a no-op once the task finished.
func (t *Task) Cancel() {
	t.cancel()
}

// Wait blocks until the task finishes or ctx ends. When ctx ends first the
// task is cancelled and ctx's error is returned.
func (t *Task) Wait(ctx context.Context) (Result, error) {
	select {
	case <-t.done:
	case <-ctx.Done():
		t.Cancel()
		return Result{}, ctx.Err()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result, t.err
}

func (t *Task) finish(res Result, err error) {
	t.mu.Lock()
	if err != nil {
		t.status = StatusFailed
		t.err = err
	} else {
		t.status = StatusSucceeded
		t.result = res
	}
	t.mu.Unlock()
	close(t.done)
}
