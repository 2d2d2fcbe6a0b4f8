package taskpool

import (
	"context"
	"time"
)

// Work is a deferred computation executed by the pool. The context is
// cancelled when the task times out or the pool shuts down; work that
// can observe it should stop promptly.
type Work[T any] func(ctx context.Context) (T, error)

// Meta labels a work item for reporting. The pool never interprets the
// payload reference.
type Meta struct {
	Identifier string
	Payload    string
}

// Status is the terminal outcome of a task
type Status string

const (
	StatusSucceeded Status = "success"
	StatusFailed    Status = "task_error"
	StatusTimedOut  Status = "timeout_error"
)

// Result carries a task's terminal outcome
type Result[T any] struct {
	TaskID     uint64
	Identifier string
	Status     Status
	Value      T
	Err        error
	Trace      string
	Duration   time.Duration
}

// Handle resolves to a task's terminal outcome exactly once
type Handle[T any] struct {
	id     uint64
	meta   Meta
	done   chan struct{}
	result Result[T] // written once, before done is closed
}

// TaskID returns the pool-assigned task number
func (h *Handle[T]) TaskID() uint64 {
	return h.id
}

// Identifier returns the submitted metadata identifier
func (h *Handle[T]) Identifier() string {
	return h.meta.Identifier
}

// Done returns a channel closed when the task reaches a terminal outcome
func (h *Handle[T]) Done() <-chan struct{} {
	return h.done
}

// Result polls for the terminal outcome without blocking
func (h *Handle[T]) Result() (Result[T], bool) {
	select {
	case <-h.done:
		return h.result, true
	default:
		return Result[T]{}, false
	}
}

// Wait blocks until the task reaches a terminal outcome or ctx is done
func (h *Handle[T]) Wait(ctx context.Context) (Result[T], error) {
	select {
	case <-h.done:
		return h.result, nil
	case <-ctx.Done():
		return Result[T]{}, ctx.Err()
	}
}
