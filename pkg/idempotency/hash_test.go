package idempotency

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParametersHash_StableUnderKeyReorderingAndWhitespace(t *testing.T) {
	a := json.RawMessage(`{"topic":"go","limit":50,"nested":{"b":1,"a":2}}`)
	b := json.RawMessage(`  {  "nested": {"a":2,   "b": 1},  "limit" :50, "topic":"go"}  `)

	ha, err := ParametersHash(a)
	require.NoError(t, err)
	hb, err := ParametersHash(b)
	require.NoError(t, err)

	assert.Equal(t, ha, hb)
}

func TestParametersHash_DifferentValuesHashDifferently(t *testing.T) {
	a := json.RawMessage(`{"topic":"go"}`)
	b := json.RawMessage(`{"topic":"rust"}`)

	ha, err := ParametersHash(a)
	require.NoError(t, err)
	hb, err := ParametersHash(b)
	require.NoError(t, err)

	assert.NotEqual(t, ha, hb)
}

func TestParametersHash_EmptyParamsIsStable(t *testing.T) {
	h1, err := ParametersHash(nil)
	require.NoError(t, err)
	h2, err := ParametersHash(json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestParametersHash_ArraysPreserveOrder(t *testing.T) {
	a := json.RawMessage(`{"items":[1,2,3]}`)
	b := json.RawMessage(`{"items":[3,2,1]}`)

	ha, err := ParametersHash(a)
	require.NoError(t, err)
	hb, err := ParametersHash(b)
	require.NoError(t, err)

	assert.NotEqual(t, ha, hb)
}

func TestParametersHash_InvalidJSONErrors(t *testing.T) {
	_, err := ParametersHash(json.RawMessage(`{not json`))
	require.Error(t, err)
}

func TestContentHash_NormalizesWhitespaceAndCase(t *testing.T) {
	a := ContentHash("Hello   World\n\tFoo")
	b := ContentHash("hello world foo")
	assert.Equal(t, a, b)
}

func TestContentHash_DifferentTextHashesDifferently(t *testing.T) {
	assert.NotEqual(t, ContentHash("foo"), ContentHash("bar"))
}

func TestNormalize_CollapsesWhitespaceAndLowercases(t *testing.T) {
	assert.Equal(t, "go concurrency patterns", Normalize("  Go   Concurrency\tPatterns  "))
}
