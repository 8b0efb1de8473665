package retry

import "time"

// ConstantBackoff waits the same interval before every retry.
// It paces polling loops where the remote side decides when work is done.
type ConstantBackoff struct {
	interval    time.Duration
	maxAttempts int
}

// NewConstantBackoff returns a strategy that waits interval between attempts
// and allows maxAttempts retries (-1 = unlimited).
func NewConstantBackoff(interval time.Duration, maxAttempts int) *ConstantBackoff {
	return &ConstantBackoff{interval: interval, maxAttempts: maxAttempts}
}

// NewPollBackoff converts a total poll budget into a strategy: polls requests
// mean polls-1 waits. A negative budget polls forever.
func NewPollBackoff(interval time.Duration, polls int) *ConstantBackoff {
	if polls < 0 {
		return NewConstantBackoff(interval, -1)
	}
	retries := polls - 1
	if retries < 0 {
		retries = 0
	}
	return NewConstantBackoff(interval, retries)
}

// NextDelay returns the fixed interval regardless of attempt.
func (b *ConstantBackoff) NextDelay(int) time.Duration {
	return b.interval
}

// MaxAttempts returns the maximum number of retry attempts.
func (b *ConstantBackoff) MaxAttempts() int {
	return b.maxAttempts
}
