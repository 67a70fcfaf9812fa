package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJSONRPCCode(t *testing.T) {
	cases := map[Kind]int{
		InvalidRequest: -32600,
		SkillUnknown:   -32601,
		InvalidParams:  -32602,
		TaskNotFound:   -32001,
		TaskTerminal:   -32003,
		Unsupported:    -32004,
		Unauthorized:   -32603,
		Transient:      -32603,
		Exhausted:      -32603,
		CircuitOpen:    -32603,
		Fatal:          -32603,
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.JSONRPCCode(), "kind %s", kind)
	}
}

func TestError_MessageIncludesCauseWhenWrapped(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(Transient, cause, "dial peer")
	assert.Contains(t, err.Error(), "transient")
	assert.Contains(t, err.Error(), "dial peer")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestError_MessageOmitsCauseWhenNotWrapped(t *testing.T) {
	err := New(InvalidParams, "missing topic")
	assert.Equal(t, "invalid_params: missing topic", err.Error())
}

func TestError_UnwrapReturnsCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(Fatal, cause, "failed")
	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, cause))
}

func TestKindOf_ExtractsKindFromDirectError(t *testing.T) {
	err := New(SkillUnknown, "no such skill")
	assert.Equal(t, SkillUnknown, KindOf(err))
}

func TestKindOf_ExtractsKindThroughWrapping(t *testing.T) {
	inner := New(CircuitOpen, "breaker open")
	outer := fmt.Errorf("calling peer: %w", inner)
	assert.Equal(t, CircuitOpen, KindOf(outer))
}

func TestKindOf_DefaultsToFatalForUnrelatedErrors(t *testing.T) {
	assert.Equal(t, Fatal, KindOf(errors.New("plain error")))
}

func TestKindOf_NilErrorIsFatal(t *testing.T) {
	assert.Equal(t, Fatal, KindOf(nil))
}
