package worker

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/jzx17/pagecheck/pkg/types"
)

// WorkerState represents the state of a Worker
type WorkerState int32

const (
	// WorkerStateIdle waits for a task
	WorkerStateIdle WorkerState = iota
	// WorkerStateWorking is running a task
	WorkerStateWorking
	// WorkerStateStopped has exited
	WorkerStateStopped
)

// String returns the string representation of the worker state
func (ws WorkerState) String() string {
	switch ws {
	case WorkerStateIdle:
		return "Idle"
	case WorkerStateWorking:
		return "Working"
	case WorkerStateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// Worker pulls tasks from a shared channel until it is closed
type Worker struct {
	id       int
	taskChan <-chan Task
	clock    types.Clock
	onDone   func(task Task, elapsed time.Duration, err error)

	state          int32
	totalProcessed int64
	totalFailed    int64
}

func newWorker(id int, taskChan <-chan Task, clock types.Clock, onDone func(Task, time.Duration, error)) *Worker {
	return &Worker{id: id, taskChan: taskChan, clock: clock, onDone: onDone}
}

// ID returns the worker id
func (w *Worker) ID() int {
	return w.id
}

// State returns the current worker state
func (w *Worker) State() WorkerState {
	return WorkerState(atomic.LoadInt32(&w.state))
}

// run processes tasks until the channel is closed. Tasks still queued after ctx
// is cancelled run with the cancelled context so they can bail out quickly.
func (w *Worker) run(ctx context.Context) {
	defer atomic.StoreInt32(&w.state, int32(WorkerStateStopped))
	for task := range w.taskChan {
		w.processTask(ctx, task)
	}
}

func (w *Worker) processTask(ctx context.Context, task Task) {
	atomic.StoreInt32(&w.state, int32(WorkerStateWorking))
	defer atomic.StoreInt32(&w.state, int32(WorkerStateIdle))

	start := w.clock.Now()
	err := w.executeTask(ctx, task)
	elapsed := w.clock.Since(start)

	if err != nil {
		atomic.AddInt64(&w.totalFailed, 1)
	} else {
		atomic.AddInt64(&w.totalProcessed, 1)
	}
	if w.onDone != nil {
		w.onDone(task, elapsed, err)
	}
}

// executeTask executes a task with panic recovery support
func (w *Worker) executeTask(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			var buf [4096]byte
			n := runtime.Stack(buf[:], false)

			cause, ok := r.(error)
			if !ok {
				cause = fmt.Errorf("panic: %v", r)
			}
			err = &TaskError{TaskID: task.ID(), WorkerID: w.id, Err: cause, Stack: string(buf[:n])}
		}
	}()

	if err := task.Execute(ctx); err != nil {
		return &TaskError{TaskID: task.ID(), WorkerID: w.id, Err: err}
	}
	return nil
}

// WorkerStats is a snapshot of one worker
type WorkerStats struct {
	ID             int
	State          WorkerState
	TotalProcessed int64
	TotalFailed    int64
}

// Stats returns a snapshot of the worker counters
func (w *Worker) Stats() WorkerStats {
	return WorkerStats{
		ID:             w.id,
		State:          w.State(),
		TotalProcessed: atomic.LoadInt64(&w.totalProcessed),
		TotalFailed:    atomic.LoadInt64(&w.totalFailed),
	}
}
