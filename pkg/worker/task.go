package worker

import (
	"context"
	"fmt"
)

// Task is a unit of work run by a pool
type Task interface {
	ID() string
	Execute(ctx context.Context) error
}

// TaskFunc adapts a function to Task
type TaskFunc struct {
	id string
	fn func(ctx context.Context) error
}

// NewTask creates a task named id running fn
func NewTask(id string, fn func(ctx context.Context) error) *TaskFunc {
	return &TaskFunc{id: id, fn: fn}
}

// ID returns the task id
func (t *TaskFunc) ID() string {
	return t.id
}

// Execute runs the task
func (t *TaskFunc) Execute(ctx context.Context) error {
	return t.fn(ctx)
}

// TaskError reports a task that failed or panicked
type TaskError struct {
	TaskID   string
	WorkerID int
	Err      error
	Stack    string // set when the task panicked
}

func (e *TaskError) Error() string {
	if e.Stack != "" {
		return fmt.Sprintf("task %s panicked on worker %d: %v", e.TaskID, e.WorkerID, e.Err)
	}
	return fmt.Sprintf("task %s failed on worker %d: %v", e.TaskID, e.WorkerID, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}
