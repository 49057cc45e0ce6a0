// Package worker runs independent tasks on a fixed number of goroutines.
//
// Basic usage:
//
//	pool, err := worker.NewFixedPool(worker.FixedPoolConfig{PoolSize: 4, QueueSize: 16})
//	if err != nil {
//		return err
//	}
//	if err := pool.Start(ctx); err != nil {
//		return err
//	}
//	for _, pair := range pairs {
//		pair := pair
//		pool.Submit(ctx, worker.NewTask(pair.Name, func(ctx context.Context) error {
//			return compare(ctx, pair)
//		}))
//	}
//	pool.Close() // waits for queued tasks to finish
//
// A panicking task is recovered and reported as a *TaskError.
package worker
