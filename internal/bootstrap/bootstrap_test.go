package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JyX33/agentic-technical-watch-sub000/pkg/a2a/retry"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/breaker"
)

func TestWrapBreaker_PassesThroughResultOnSuccess(t *testing.T) {
	br := breaker.New("test", breaker.Config{FailureThreshold: 3, SuccessThreshold: 1, RecoveryTimeout: time.Second, CallTimeout: time.Second, HalfOpenMaxConcurrent: 1})
	handler := func(ctx context.Context, params json.RawMessage) (any, error) {
		return map[string]any{"ok": true}, nil
	}

	wrapped := WrapBreaker(br, handler)
	out, err := wrapped(context.Background(), json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ok": true}, out)
}

func TestWrapBreaker_PropagatesHandlerError(t *testing.T) {
	br := breaker.New("test", breaker.Config{FailureThreshold: 3, SuccessThreshold: 1, RecoveryTimeout: time.Second, CallTimeout: time.Second, HalfOpenMaxConcurrent: 1})
	sentinel := errors.New("upstream failed")
	handler := func(ctx context.Context, params json.RawMessage) (any, error) {
		return nil, sentinel
	}

	wrapped := WrapBreaker(br, handler)
	_, err := wrapped(context.Background(), json.RawMessage(`{}`))
	assert.ErrorIs(t, err, sentinel)
}

func TestWrapBreaker_RejectsCallsWhileCircuitOpen(t *testing.T) {
	cfg := breaker.Config{FailureThreshold: 1, SuccessThreshold: 1, RecoveryTimeout: time.Hour, CallTimeout: time.Second, HalfOpenMaxConcurrent: 1}
	br := breaker.New("test", cfg)
	sentinel := &retry.HTTPStatusError{StatusCode: 503, Message: "boom"}
	handler := func(ctx context.Context, params json.RawMessage) (any, error) {
		return nil, sentinel
	}
	wrapped := WrapBreaker(br, handler)

	_, err := wrapped(context.Background(), json.RawMessage(`{}`))
	require.ErrorIs(t, err, sentinel)

	_, err = wrapped(context.Background(), json.RawMessage(`{}`))
	assert.ErrorIs(t, err, breaker.ErrCircuitOpen)
}

func TestWrapBreaker_PassesParamsThroughUnchanged(t *testing.T) {
	br := breaker.New("test", breaker.Config{FailureThreshold: 3, SuccessThreshold: 1, RecoveryTimeout: time.Second, CallTimeout: time.Second, HalfOpenMaxConcurrent: 1})
	var seen json.RawMessage
	handler := func(ctx context.Context, params json.RawMessage) (any, error) {
		seen = params
		return nil, nil
	}

	wrapped := WrapBreaker(br, handler)
	input := json.RawMessage(`{"topic":"golang"}`)
	_, err := wrapped(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, string(input), string(seen))
}
