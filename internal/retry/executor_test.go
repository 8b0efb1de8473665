package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/ndlsync/pkg/ndlsync"
)

// mockOperation fails with transientErr until the failUntil-th invocation,
// which returns fatalErr when set and success otherwise.
type mockOperation struct {
	invocations  int
	failUntil    int
	transientErr error
	fatalErr     error
}

func (m *mockOperation) execute(context.Context) error {
	m.invocations++
	if m.invocations < m.failUntil {
		if m.transientErr != nil {
			return m.transientErr
		}
		return &pgconn.PgError{Code: "08006", Message: "connection failure"}
	}
	if m.invocations == m.failUntil && m.fatalErr != nil {
		return m.fatalErr
	}
	return nil
}

func fastBackoff(retries int) *ExponentialBackoff {
	return NewExponentialBackoff(retries, WithInitialDelay(time.Millisecond), WithJitter(0))
}

func TestExecutor_SuccessOnFirstAttempt(t *testing.T) {
	executor := NewExecutor(NewPostgreSQLErrorClassifier(), fastBackoff(3))
	op := &mockOperation{failUntil: 1}

	require.NoError(t, executor.Execute(context.Background(), op.execute))
	assert.Equal(t, 1, op.invocations)
}

func TestExecutor_SuccessAfterRetries(t *testing.T) {
	executor := NewExecutor(NewPostgreSQLErrorClassifier(), fastBackoff(5))
	op := &mockOperation{failUntil: 4}

	require.NoError(t, executor.Execute(context.Background(), op.execute))
	assert.Equal(t, 4, op.invocations)
}

func TestExecutor_FatalErrorNoRetry(t *testing.T) {
	executor := NewExecutor(NewPostgreSQLErrorClassifier(), fastBackoff(5))
	op := &mockOperation{failUntil: 2, transientErr: &pgconn.PgError{Code: "42601", Message: "syntax error"}}

	err := executor.Execute(context.Background(), op.execute)

	var pgErr *pgconn.PgError
	require.True(t, errors.As(err, &pgErr))
	assert.Equal(t, "42601", pgErr.Code)
	assert.Equal(t, 1, op.invocations)
}

func TestExecutor_TransientThenFatal(t *testing.T) {
	executor := NewExecutor(NewPostgreSQLErrorClassifier(), fastBackoff(5))
	fatal := errors.New("permission denied")
	op := &mockOperation{failUntil: 3, fatalErr: fatal}

	err := executor.Execute(context.Background(), op.execute)

	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 3, op.invocations)
}

func TestExecutor_ExhaustedRetries(t *testing.T) {
	executor := NewExecutor(NewPostgreSQLErrorClassifier(), fastBackoff(3))
	op := &mockOperation{failUntil: 999}

	err := executor.Execute(context.Background(), op.execute)

	require.Error(t, err)
	assert.Equal(t, 4, op.invocations, "one attempt plus three retries")
}

func TestExecutor_NoRetriesStrategy(t *testing.T) {
	executor := NewExecutor(NewPostgreSQLErrorClassifier(), fastBackoff(0))
	op := &mockOperation{failUntil: 999}

	require.Error(t, executor.Execute(context.Background(), op.execute))
	assert.Equal(t, 1, op.invocations)
}

func TestExecutor_OnRetryCallback(t *testing.T) {
	base := NewExecutor(NewPostgreSQLErrorClassifier(), fastBackoff(5))
	var attempts []int
	executor := base.WithOnRetry(func(attempt int, err error, delay time.Duration) {
		attempts = append(attempts, attempt)
		assert.Error(t, err)
	})
	op := &mockOperation{failUntil: 3}

	require.NoError(t, executor.Execute(context.Background(), op.execute))
	assert.Equal(t, []int{0, 1}, attempts)
	assert.Nil(t, base.onRetry, "WithOnRetry must not modify the receiver")
}

// TestExecutor_PollingWaitsBetweenAttempts drives a constant-interval poll loop
// on a fake clock: n polls that end in success produce n-1 waits.
func TestExecutor_PollingWaitsBetweenAttempts(t *testing.T) {
	const polls = 4
	clock := clockwork.NewFakeClock()
	waits := 0
	executor := NewExecutor(NewSentinelClassifier(ndlsync.ErrExportNotReady), NewPollBackoff(time.Minute, 10)).
		WithClock(clock).
		WithOnRetry(func(int, error, time.Duration) { waits++ })

	invocations := 0
	done := make(chan error, 1)
	go func() {
		done <- executor.Execute(context.Background(), func(context.Context) error {
			invocations++
			if invocations < polls {
				return fmt.Errorf("SF1: %w", ndlsync.ErrExportNotReady)
			}
			return nil
		})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := 0; i < polls-1; i++ {
		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		clock.Advance(time.Minute)
	}

	require.NoError(t, <-done)
	assert.Equal(t, polls, invocations)
	assert.Equal(t, polls-1, waits)
}

func TestExecutor_ContextCancelledDuringWait(t *testing.T) {
	clock := clockwork.NewFakeClock()
	executor := NewExecutor(NewSentinelClassifier(ndlsync.ErrExportNotReady), NewPollBackoff(time.Hour, -1)).
		WithClock(clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- executor.Execute(ctx, func(context.Context) error { return ndlsync.ErrExportNotReady })
	}()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestNewExecutor_PanicsOnNilDependencies(t *testing.T) {
	assert.Panics(t, func() { NewExecutor(nil, fastBackoff(1)) })
	assert.Panics(t, func() { NewExecutor(NewPostgreSQLErrorClassifier(), nil) })
	assert.Panics(t, func() { NewExecutor(NewPostgreSQLErrorClassifier(), fastBackoff(1)).WithClock(nil) })
}
