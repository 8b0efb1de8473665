// Package retry provides bounded retry loops with pluggable error
// classification and backoff.
//
// Two loops in ndlsync use it. Connecting to PostgreSQL retries transient
// network and server errors with exponential backoff:
//
//	executor := retry.NewExecutor(
//	    retry.NewPostgreSQLErrorClassifier(),
//	    retry.NewExponentialBackoff(3, retry.WithInitialDelay(time.Second)),
//	)
//
// Waiting for a vendor export polls at a fixed interval and treats
// ndlsync.ErrExportNotReady as the only transient outcome:
//
//	executor := retry.NewExecutor(
//	    retry.NewSentinelClassifier(ndlsync.ErrExportNotReady),
//	    retry.NewPollBackoff(time.Minute, 120),
//	).WithClock(clock)
//
// Executor waits on a clockwork.Clock, so tests drive the loop with a fake
// clock instead of sleeping.
package retry
