package validation

import "github.com/rendis/remoteflow/pkg/schema"

// Validator checks workflow source text and persisted state before they are adopted.
// Uses JSON Schema Draft 2020-12 for the structural checks.
type Validator interface {
	ValidateGraphJSON(data []byte) error
	ValidateStateJSON(data []byte) error
}

// ClassLookup reports whether a class_type is a known input loader.
// Satisfied by the workflow classification tables.
type ClassLookup interface {
	IsInput(classType string) bool
}

// ClassLookupFunc adapts a plain function to ClassLookup.
type ClassLookupFunc func(classType string) bool

func (f ClassLookupFunc) IsInput(classType string) bool { return f(classType) }

var _ ClassLookup = ClassLookupFunc(nil)

// GraphChecker runs semantic checks over an already-decoded graph.
type GraphChecker interface {
	Check(graph schema.WorkflowGraph) *schema.ValidationResult
}
