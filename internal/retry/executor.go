package retry

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/vvka-141/ndlsync/pkg/ndlsync"
)

// Executor runs an operation, retrying it while the classifier reports the
// failure as transient and the strategy still allows attempts.
//
// Executor values are immutable after construction. WithOnRetry and WithClock
// return modified copies, so one base executor can be shared safely.
type Executor struct {
	classifier ndlsync.ErrorClassifier
	strategy   ndlsync.BackoffStrategy
	clock      clockwork.Clock
	onRetry    func(attempt int, err error, delay time.Duration)
}

// NewExecutor creates a retry executor that waits on the real clock.
// Panics if classifier or strategy is nil.
func NewExecutor(
	classifier ndlsync.ErrorClassifier,
	strategy ndlsync.BackoffStrategy,
) *Executor {
	if classifier == nil {
		panic("classifier cannot be nil")
	}
	if strategy == nil {
		panic("strategy cannot be nil")
	}
	return &Executor{
		classifier: classifier,
		strategy:   strategy,
		clock:      clockwork.NewRealClock(),
	}
}

// WithOnRetry returns a copy of the executor that calls callback before every wait.
// attempt is zero-indexed and delay is the wait about to start.
func (e *Executor) WithOnRetry(callback func(attempt int, err error, delay time.Duration)) *Executor {
	clone := *e
	clone.onRetry = callback
	return &clone
}

// WithClock returns a copy of the executor that waits on clock.
// Tests pass a clockwork.FakeClock to drive waits without sleeping.
func (e *Executor) WithClock(clock clockwork.Clock) *Executor {
	if clock == nil {
		panic("clock cannot be nil")
	}
	clone := *e
	clone.clock = clock
	return &clone
}

// Execute runs operation once and then retries transient failures.
// It returns nil on success, the first fatal error, the context error if the
// context ends during a wait, or the last transient error once attempts run out.
// An operation that is attempted n times waits exactly n-1 times.
func (e *Executor) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	maxAttempts := e.strategy.MaxAttempts()

	lastErr := operation(ctx)
	if lastErr == nil {
		return nil
	}
	if !e.classifier.IsTransient(lastErr) {
		return lastErr
	}

	// Negative maxAttempts retries until success or cancellation.
	for attempt := 0; maxAttempts < 0 || attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		delay := e.strategy.NextDelay(attempt)
		if e.onRetry != nil {
			e.onRetry(attempt, lastErr, delay)
		}

		if err := e.wait(ctx, delay); err != nil {
			return err
		}

		lastErr = operation(ctx)
		if lastErr == nil {
			return nil
		}
		if !e.classifier.IsTransient(lastErr) {
			return lastErr
		}
	}

	return lastErr
}

func (e *Executor) wait(ctx context.Context, delay time.Duration) error {
	timer := e.clock.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.Chan():
		return nil
	}
}
