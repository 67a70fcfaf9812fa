package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"http 429", &HTTPStatusError{StatusCode: 429}, true},
		{"http 503", &HTTPStatusError{StatusCode: 503}, true},
		{"http 500", &HTTPStatusError{StatusCode: 500}, true},
		{"http 404", &HTTPStatusError{StatusCode: 404}, false},
		{"http 400", &HTTPStatusError{StatusCode: 400}, false},
		{"plain error", errors.New("boom"), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, IsRetryable(c.err))
		})
	}
}

func TestDo_SucceedsWithoutRetryOnFirstAttempt(t *testing.T) {
	cfg := DefaultConfig()
	calls := 0
	err := Do(context.Background(), cfg, func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesTransientFailureThenSucceeds(t *testing.T) {
	cfg := Config{MaxAttempts: 3, BaseDelay: time.Millisecond, BackoffMultiplier: 1, Jitter: 0}
	calls := 0
	err := Do(context.Background(), cfg, func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return &HTTPStatusError{StatusCode: 503}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDo_StopsImmediatelyOnNonRetryableError(t *testing.T) {
	cfg := Config{MaxAttempts: 3, BaseDelay: time.Millisecond}
	calls := 0
	sentinel := &HTTPStatusError{StatusCode: 400}
	err := Do(context.Background(), cfg, func(ctx context.Context) error {
		calls++
		return sentinel
	})
	assert.Equal(t, sentinel, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ReturnsExhaustedErrorAfterMaxAttempts(t *testing.T) {
	cfg := Config{MaxAttempts: 3, BaseDelay: time.Millisecond, BackoffMultiplier: 1, Jitter: 0}
	calls := 0
	err := Do(context.Background(), cfg, func(ctx context.Context) error {
		calls++
		return &HTTPStatusError{StatusCode: 503}
	})

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.Equal(t, 3, calls)
}

func TestDo_ContextCancellationDuringBackoffStopsRetries(t *testing.T) {
	cfg := Config{MaxAttempts: 5, BaseDelay: 50 * time.Millisecond, BackoffMultiplier: 1, Jitter: 0}
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()
	err := Do(ctx, cfg, func(ctx context.Context) error {
		calls++
		return &HTTPStatusError{StatusCode: 503}
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, calls, 5)
}
