package validation

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/rendis/remoteflow/pkg/schema"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

const (
	graphSchemaURL = "https://remoteflow.dev/schemas/workflow-graph.json"
	stateSchemaURL = "https://remoteflow.dev/schemas/persisted-state.json"
)

// graphSchemaJSON describes API-format workflow source: an object of nodes, each
// carrying at least a class_type. Extra node fields are tolerated.
const graphSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://remoteflow.dev/schemas/workflow-graph.json",
  "type": "object",
  "additionalProperties": { "$ref": "#/$defs/node" },
  "$defs": {
    "node": {
      "type": "object",
      "required": ["class_type"],
      "properties": {
        "class_type": { "type": "string" },
        "inputs": { "type": "object" },
        "_meta": { "type": "object" }
      }
    }
  }
}`

// stateSchemaJSON describes the saved_state snapshot. Every top-level key is optional
// so snapshots from older schemas still validate and restore what they carry.
const stateSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://remoteflow.dev/schemas/persisted-state.json",
  "type": "object",
  "properties": {
    "workflow_nodes": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["id", "type", "category"],
        "properties": {
          "id": { "type": "string", "minLength": 1 },
          "type": { "type": "string" },
          "category": { "enum": ["image", "text", "audio", "video"] }
        }
      }
    },
    "output_types": {
      "type": "object",
      "properties": {
        "image": { "type": "boolean" },
        "text": { "type": "boolean" },
        "audio": { "type": "boolean" },
        "video": { "type": "boolean" }
      }
    },
    "enabled_nodes": {
      "type": ["object", "null"],
      "additionalProperties": { "type": "boolean" }
    },
    "timestamp": { "type": "integer" }
  }
}`

// JSONSchemaValidator implements Validator using JSON Schema Draft 2020-12.
// Compiled schemas are immutable, so it is safe for concurrent use.
type JSONSchemaValidator struct {
	graphSchema *jsonschema.Schema
	stateSchema *jsonschema.Schema
}

// NewJSONSchemaValidator compiles the graph and state schemas.
func NewJSONSchemaValidator() (*JSONSchemaValidator, error) {
	c := jsonschema.NewCompiler()
	c.AssertFormat()

	for url, src := range map[string]string{
		graphSchemaURL: graphSchemaJSON,
		stateSchemaURL: stateSchemaJSON,
	} {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(src))
		if err != nil {
			return nil, fmt.Errorf("unmarshal schema %s: %w", url, err)
		}
		if err := c.AddResource(url, doc); err != nil {
			return nil, fmt.Errorf("add schema resource %s: %w", url, err)
		}
	}

	graph, err := c.Compile(graphSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile graph schema: %w", err)
	}
	state, err := c.Compile(stateSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile state schema: %w", err)
	}

	return &JSONSchemaValidator{graphSchema: graph, stateSchema: state}, nil
}

var (
	sharedOnce sync.Once
	shared     *JSONSchemaValidator
	sharedErr  error
)

// Shared returns a process-wide validator, compiling the schemas on first use.
func Shared() (*JSONSchemaValidator, error) {
	sharedOnce.Do(func() {
		shared, sharedErr = NewJSONSchemaValidator()
	})
	return shared, sharedErr
}

// ValidateGraphJSON checks workflow source text against the graph schema.
func (v *JSONSchemaValidator) ValidateGraphJSON(data []byte) error {
	return validateDocument(v.graphSchema, data, "workflow")
}

// ValidateStateJSON checks a saved_state string against the state schema.
func (v *JSONSchemaValidator) ValidateStateJSON(data []byte) error {
	return validateDocument(v.stateSchema, data, "saved state")
}

func validateDocument(s *jsonschema.Schema, data []byte, what string) error {
	if len(strings.TrimSpace(string(data))) == 0 {
		return schema.NewErrorf(schema.ErrCodeParse, "%s is empty", what)
	}
	if !json.Valid(data) {
		return schema.NewErrorf(schema.ErrCodeParse, "%s is not valid JSON", what)
	}

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(string(data)))
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeParse, "%s is not valid JSON", what).WithCause(err)
	}

	if err := s.Validate(doc); err != nil {
		return toSchemaError(err)
	}
	return nil
}

// toSchemaError converts a jsonschema.ValidationError into a schema.Error
// listing every leaf violation with its instance location.
func toSchemaError(err error) *schema.Error {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return schema.NewError(schema.ErrCodeValidation, err.Error())
	}

	violations := collectViolations(verr)
	if len(violations) == 0 {
		return schema.NewError(schema.ErrCodeValidation, verr.Error())
	}

	if len(violations) == 1 {
		return schema.NewError(schema.ErrCodeValidation, violations[0]).
			WithDetails(map[string]any{"violations": violations})
	}

	msg := fmt.Sprintf("validation failed with %d errors", len(violations))
	return schema.NewError(schema.ErrCodeValidation, msg).
		WithDetails(map[string]any{"violations": violations})
}

// collectViolations walks a ValidationError tree and collects leaf error messages.
func collectViolations(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		loc := "/"
		if len(verr.InstanceLocation) > 0 {
			loc = "/" + strings.Join(verr.InstanceLocation, "/")
		}
		return []string{fmt.Sprintf("%s: %s", loc, verr.Error())}
	}

	var violations []string
	for _, cause := range verr.Causes {
		violations = append(violations, collectViolations(cause)...)
	}
	return violations
}

var _ Validator = (*JSONSchemaValidator)(nil)
