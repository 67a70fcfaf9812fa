package a2a

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileSchema_ValidatesMatchingParams(t *testing.T) {
	raw := json.RawMessage(`{
		"type": "object",
		"properties": {"topic": {"type": "string"}, "limit": {"type": "integer", "minimum": 1}},
		"required": ["topic"]
	}`)
	schema, err := CompileSchema("fetch_posts", raw)
	require.NoError(t, err)

	err = schema.Validate(json.RawMessage(`{"topic":"golang","limit":10}`))
	assert.NoError(t, err)
}

func TestCompileSchema_RejectsMissingRequiredField(t *testing.T) {
	raw := json.RawMessage(`{
		"type": "object",
		"properties": {"topic": {"type": "string"}},
		"required": ["topic"]
	}`)
	schema, err := CompileSchema("fetch_posts", raw)
	require.NoError(t, err)

	err = schema.Validate(json.RawMessage(`{"limit":10}`))
	assert.Error(t, err)
}

func TestCompileSchema_RejectsWrongType(t *testing.T) {
	raw := json.RawMessage(`{"type": "object", "properties": {"limit": {"type": "integer"}}}`)
	schema, err := CompileSchema("fetch_posts", raw)
	require.NoError(t, err)

	err = schema.Validate(json.RawMessage(`{"limit":"not a number"}`))
	assert.Error(t, err)
}

func TestCompileSchema_InvalidSchemaDocumentErrors(t *testing.T) {
	_, err := CompileSchema("broken", json.RawMessage(`{not json`))
	assert.Error(t, err)
}

func TestNewTaskID_ProducesUniqueNonEmptyIDs(t *testing.T) {
	a := newTaskID()
	b := newTaskID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
