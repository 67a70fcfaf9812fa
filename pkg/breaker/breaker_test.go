package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JyX33/agentic-technical-watch-sub000/pkg/a2a/retry"
)

// retryableErr builds a classified-transient error (retry.IsRetryable
// reports true) so tests driving the breaker toward Open can rely on it
// actually counting as a failure under Call's classification.
func retryableErr(msg string) error {
	return &retry.HTTPStatusError{StatusCode: 503, Message: msg}
}

func testConfig() Config {
	return Config{
		FailureThreshold:      3,
		SuccessThreshold:      2,
		RecoveryTimeout:       20 * time.Millisecond,
		CallTimeout:           50 * time.Millisecond,
		HalfOpenMaxConcurrent: 1,
	}
}

func TestCall_ClosedStatePassesThroughSuccessAndFailure(t *testing.T) {
	b := New("test", testConfig())

	err := b.Call(context.Background(), func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, Closed, b.State())

	sentinel := errors.New("boom")
	err = b.Call(context.Background(), func(context.Context) error { return sentinel })
	require.ErrorIs(t, err, sentinel)
	assert.Equal(t, Closed, b.State())
}

func TestCall_TripsOpenAfterFailureThreshold(t *testing.T) {
	b := New("test", testConfig())
	sentinel := retryableErr("boom")

	for i := 0; i < 3; i++ {
		_ = b.Call(context.Background(), func(context.Context) error { return sentinel })
	}
	assert.Equal(t, Open, b.State())

	err := b.Call(context.Background(), func(context.Context) error { return nil })
	require.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCall_HalfOpenClosesAfterSuccessThreshold(t *testing.T) {
	cfg := testConfig()
	b := New("test", cfg)
	sentinel := retryableErr("boom")

	for i := 0; i < cfg.FailureThreshold; i++ {
		_ = b.Call(context.Background(), func(context.Context) error { return sentinel })
	}
	require.Equal(t, Open, b.State())

	time.Sleep(cfg.RecoveryTimeout + 5*time.Millisecond)

	for i := 0; i < cfg.SuccessThreshold; i++ {
		err := b.Call(context.Background(), func(context.Context) error { return nil })
		require.NoError(t, err)
	}
	assert.Equal(t, Closed, b.State())
}

func TestCall_HalfOpenFailureReopens(t *testing.T) {
	cfg := testConfig()
	b := New("test", cfg)
	sentinel := retryableErr("boom")

	for i := 0; i < cfg.FailureThreshold; i++ {
		_ = b.Call(context.Background(), func(context.Context) error { return sentinel })
	}
	time.Sleep(cfg.RecoveryTimeout + 5*time.Millisecond)

	err := b.Call(context.Background(), func(context.Context) error { return sentinel })
	require.ErrorIs(t, err, sentinel)
	assert.Equal(t, Open, b.State())
}

func TestCall_HalfOpenBusyRejectsExtraProbes(t *testing.T) {
	cfg := testConfig()
	cfg.HalfOpenMaxConcurrent = 1
	b := New("test", cfg)
	sentinel := retryableErr("boom")

	for i := 0; i < cfg.FailureThreshold; i++ {
		_ = b.Call(context.Background(), func(context.Context) error { return sentinel })
	}
	time.Sleep(cfg.RecoveryTimeout + 5*time.Millisecond)

	started := make(chan struct{})
	release := make(chan struct{})
	errCh := make(chan error, 1)
	go func() {
		errCh <- b.Call(context.Background(), func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	err := b.Call(context.Background(), func(context.Context) error { return nil })
	require.ErrorIs(t, err, ErrHalfOpenBusy)

	close(release)
	require.NoError(t, <-errCh)
}

func TestCall_TimeoutCountsAsFailure(t *testing.T) {
	cfg := testConfig()
	cfg.CallTimeout = 5 * time.Millisecond
	b := New("test", cfg)

	err := b.Call(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	health := b.Health()
	assert.Equal(t, int64(1), health.Timeouts)
	assert.Equal(t, int64(1), health.Failures)
}

func TestCall_NonRetryableErrorDoesNotCountAsFailure(t *testing.T) {
	b := New("test", testConfig())
	fatal := errors.New("invalid request")

	for i := 0; i < 10; i++ {
		err := b.Call(context.Background(), func(context.Context) error { return fatal })
		require.ErrorIs(t, err, fatal)
	}

	assert.Equal(t, Closed, b.State())
	health := b.Health()
	assert.Zero(t, health.Failures)
}

// TestOpenRejectsCallsBeforeRecoveryTimeoutProperty verifies §8's breaker
// invariant: for any breaker in Open state, every call issued before
// recovery_timeout elapses is rejected with ErrCircuitOpen and never
// invokes the wrapped dependency.
func TestOpenRejectsCallsBeforeRecoveryTimeoutProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("open breaker rejects every call without invoking fn", prop.ForAll(
		func(extraCalls int) bool {
			cfg := Config{
				FailureThreshold:      1,
				SuccessThreshold:      1,
				RecoveryTimeout:       time.Hour,
				CallTimeout:           time.Second,
				HalfOpenMaxConcurrent: 1,
			}
			b := New("prop", cfg)
			_ = b.Call(context.Background(), func(context.Context) error { return retryableErr("trip") })
			if b.State() != Open {
				return false
			}

			invoked := false
			for i := 0; i < extraCalls; i++ {
				err := b.Call(context.Background(), func(context.Context) error {
					invoked = true
					return nil
				})
				if !errors.Is(err, ErrCircuitOpen) {
					return false
				}
			}
			return !invoked
		},
		gen.IntRange(0, 20),
	))

	properties.TestingRun(t)
}

func TestReset_ClearsStateAndCounters(t *testing.T) {
	b := New("test", testConfig())
	sentinel := retryableErr("boom")
	for i := 0; i < 3; i++ {
		_ = b.Call(context.Background(), func(context.Context) error { return sentinel })
	}
	require.Equal(t, Open, b.State())

	b.Reset()
	assert.Equal(t, Closed, b.State())
	health := b.Health()
	assert.Zero(t, health.Calls)
	assert.Zero(t, health.Failures)
}
