package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jzx17/pagecheck/pkg/types"
)

var (
	// ErrPoolNotStarted is returned when submitting before Start
	ErrPoolNotStarted = errors.New("worker pool is not started")

	// ErrPoolClosed is returned when using a closed pool
	ErrPoolClosed = errors.New("worker pool is closed")
)

const (
	poolStopped int32 = iota
	poolRunning
	poolClosed
)

// FixedPoolConfig defines configuration for a fixed worker pool
type FixedPoolConfig struct {
	// PoolSize is the number of workers
	PoolSize int

	// QueueSize is the task queue capacity
	QueueSize int

	// Clock for task timing (optional, defaults to real clock)
	Clock types.Clock

	// Logger receives task failures (optional, defaults to slog.Default())
	Logger *slog.Logger

	// OnDone is called after every task (optional)
	OnDone func(task Task, elapsed time.Duration, err error)
}

// DefaultFixedPoolConfig returns default configuration
func DefaultFixedPoolConfig() FixedPoolConfig {
	return FixedPoolConfig{
		PoolSize:  4,
		QueueSize: 64,
	}
}

// FixedPool runs tasks on a fixed number of workers
type FixedPool struct {
	config   FixedPoolConfig
	workers  []*Worker
	taskChan chan Task

	state     int32
	submitMu  sync.RWMutex
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewFixedPool creates a new fixed worker pool
func NewFixedPool(config FixedPoolConfig) (*FixedPool, error) {
	if config.PoolSize <= 0 {
		return nil, fmt.Errorf("pool size must be positive, got %d", config.PoolSize)
	}
	if config.QueueSize <= 0 {
		return nil, fmt.Errorf("queue size must be positive, got %d", config.QueueSize)
	}
	if config.Clock == nil {
		config.Clock = types.NewRealClock()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	p := &FixedPool{
		config:   config,
		taskChan: make(chan Task, config.QueueSize),
	}
	p.workers = make([]*Worker, config.PoolSize)
	for i := range p.workers {
		p.workers[i] = newWorker(i, p.taskChan, config.Clock, p.taskDone)
	}
	return p, nil
}

// Start starts the workers. Tasks receive ctx.
func (p *FixedPool) Start(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&p.state, poolStopped, poolRunning) {
		if atomic.LoadInt32(&p.state) == poolRunning {
			return fmt.Errorf("worker pool is already running")
		}
		return ErrPoolClosed
	}

	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.run(ctx)
		}(w)
	}
	return nil
}

// Submit queues task, blocking while the queue is full
func (p *FixedPool) Submit(ctx context.Context, task Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}

	p.submitMu.RLock()
	defer p.submitMu.RUnlock()

	switch atomic.LoadInt32(&p.state) {
	case poolStopped:
		return ErrPoolNotStarted
	case poolClosed:
		return ErrPoolClosed
	}

	select {
	case p.taskChan <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting tasks and waits until every queued task has run
func (p *FixedPool) Close() error {
	p.closeOnce.Do(func() {
		p.submitMu.Lock()
		atomic.StoreInt32(&p.state, poolClosed)
		close(p.taskChan)
		p.submitMu.Unlock()
	})
	p.wg.Wait()
	return nil
}

// Size returns the worker pool size
func (p *FixedPool) Size() int {
	return p.config.PoolSize
}

// PoolStats is a snapshot of the pool
type PoolStats struct {
	PoolSize       int
	ActiveWorkers  int
	QueueLength    int
	TotalProcessed int64
	TotalFailed    int64
}

// Stats returns pool statistics
func (p *FixedPool) Stats() PoolStats {
	stats := PoolStats{PoolSize: p.config.PoolSize, QueueLength: len(p.taskChan)}
	for _, w := range p.workers {
		ws := w.Stats()
		if ws.State == WorkerStateWorking {
			stats.ActiveWorkers++
		}
		stats.TotalProcessed += ws.TotalProcessed
		stats.TotalFailed += ws.TotalFailed
	}
	return stats
}

// GetWorkerStats returns statistics of all workers
func (p *FixedPool) GetWorkerStats() []WorkerStats {
	stats := make([]WorkerStats, len(p.workers))
	for i, w := range p.workers {
		stats[i] = w.Stats()
	}
	return stats
}

func (p *FixedPool) taskDone(task Task, elapsed time.Duration, err error) {
	if err != nil {
		p.config.Logger.Error("Task failed", "task", task.ID(), "elapsed", elapsed, "error", err)
	}
	if p.config.OnDone != nil {
		p.config.OnDone(task, elapsed, err)
	}
}
