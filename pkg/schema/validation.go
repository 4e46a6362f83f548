package schema

import (
	"fmt"
	"strings"
)

// IssueSeverity separates graph problems that block port synthesis from those
// that are only reported.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// ValidationIssue is one finding about a workflow graph. Path is a JSON pointer
// into the workflow source, e.g. "/7/class_type".
type ValidationIssue struct {
	Path     string        `json:"path"`
	Message  string        `json:"message"`
	Severity IssueSeverity `json:"severity"`
}

func (i ValidationIssue) String() string {
	return i.Path + ": " + i.Message
}

// ValidationResult holds the findings of the graph checks.
type ValidationResult struct {
	Errors   []ValidationIssue `json:"errors,omitempty"`
	Warnings []ValidationIssue `json:"warnings,omitempty"`
}

// Valid reports whether the graph can be used; warnings do not count.
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

func (r *ValidationResult) AddError(path, message string) {
	r.Errors = append(r.Errors, ValidationIssue{Path: path, Message: message, Severity: SeverityError})
}

func (r *ValidationResult) AddWarning(path, message string) {
	r.Warnings = append(r.Warnings, ValidationIssue{Path: path, Message: message, Severity: SeverityWarning})
}

// Err returns nil for a usable graph, otherwise a VALIDATION_ERROR naming every
// blocking issue.
func (r *ValidationResult) Err() error {
	if r.Valid() {
		return nil
	}
	msgs := make([]string, len(r.Errors))
	for i, issue := range r.Errors {
		msgs[i] = issue.String()
	}
	return NewErrorf(ErrCodeValidation, "workflow unusable: %s", strings.Join(msgs, "; ")).
		WithDetails(map[string]any{
			"errors":   r.Errors,
			"warnings": len(r.Warnings),
		})
}

// Summary is a one-line count of the findings, for logs.
func (r *ValidationResult) Summary() string {
	return fmt.Sprintf("%d errors, %d warnings", len(r.Errors), len(r.Warnings))
}
