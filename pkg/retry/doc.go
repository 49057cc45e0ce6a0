// Package retry runs flaky browser interactions under an exponential backoff policy.
//
// A call is attempted up to Policy.MaxAttempts times. The wait before retry n is
// InitialDelay × 2^(n−1), clamped to Policy.MaxDelay when it is positive. Which
// errors are retried is decided by a FaultClassifier, normally built from the
// configured fault-kind names:
//
//	classifier, err := retry.NewFaultClassifier([]string{"Timeout", "StaleElement"})
//	if err != nil {
//		return err
//	}
//	executor := retry.NewRetryExecutor(retry.WithFaultClassifier(classifier))
//
// Interactions that only fail or succeed use Run:
//
//	err := executor.Run(ctx, retry.DefaultPolicy(), func(ctx context.Context) error {
//		return page.Click("#checkout")
//	})
//
// Value-returning interactions use Execute with an optional result condition.
// A value rejected by the condition is retried like a fault; when the attempts
// run out the outcome is tagged StatusExhausted and still carries the last value:
//
//	outcome, err := retry.Execute(executor, ctx, retry.DefaultPolicy(),
//		func(ctx context.Context) (int, error) { return cart.BadgeCount() },
//		func(n int) bool { return n == 2 })
//	if err != nil {
//		return err
//	}
//	count, err := outcome.Must() // strict callers
//
// A failure the classifier rejects is returned immediately. After the final
// attempt the last error is returned unchanged. Backoff waits honour ctx.
package retry
