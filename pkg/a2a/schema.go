package a2a

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// jsonSchema validates a skill's inbound parameters against its declared
// JSON Schema, grounded on the teacher's use of
// santhosh-tekuri/jsonschema/v6 for payload validation.
type jsonSchema struct {
	compiled *jsonschema.Schema
}

// CompileSchema parses a raw JSON Schema document for use as a SkillDef's
// parameter validator.
func CompileSchema(name string, raw json.RawMessage) (*jsonSchema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema %s: %w", name, err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, doc); err != nil {
		return nil, fmt.Errorf("add schema resource %s: %w", name, err)
	}
	compiled, err := c.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return &jsonSchema{compiled: compiled}, nil
}

// Validate checks params against the compiled schema.
func (s *jsonSchema) Validate(params json.RawMessage) error {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(params))
	if err != nil {
		return fmt.Errorf("unmarshal params: %w", err)
	}
	return s.compiled.Validate(inst)
}

func newTaskID() string { return uuid.NewString() }
