package workflow

import (
	"encoding/json"

	"github.com/rendis/remoteflow/internal/validation"
	"github.com/rendis/remoteflow/pkg/schema"
)

// Decode parses workflow source text into a graph. The text must be a JSON object
// mapping node IDs to records with a string class_type; anything else is rejected.
func Decode(data []byte) (schema.WorkflowGraph, error) {
	v, err := validation.Shared()
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeValidation, "workflow schema unavailable").WithCause(err)
	}
	if err := v.ValidateGraphJSON(data); err != nil {
		return nil, err
	}

	var graph schema.WorkflowGraph
	if err := json.Unmarshal(data, &graph); err != nil {
		return nil, schema.NewError(schema.ErrCodeParse, "decode workflow").WithCause(err)
	}
	if graph == nil {
		graph = schema.WorkflowGraph{}
	}
	return graph, nil
}

// Check runs the semantic graph checks with the loader table as lookup.
func Check(graph schema.WorkflowGraph) *schema.ValidationResult {
	return validation.NewGraphChecker(validation.ClassLookupFunc(IsInput)).Check(graph)
}
