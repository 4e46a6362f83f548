package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationResult_EmptyIsValid(t *testing.T) {
	r := &ValidationResult{}
	assert.True(t, r.Valid())
	assert.NoError(t, r.Err())
	assert.Equal(t, "0 errors, 0 warnings", r.Summary())
}

func TestValidationResult_Issues(t *testing.T) {
	r := &ValidationResult{}
	r.AddWarning("/a", "node id is not numeric")
	assert.True(t, r.Valid(), "warnings alone keep the graph usable")

	r.AddError("/", "workflow has no nodes")
	assert.False(t, r.Valid())
	require.Len(t, r.Errors, 1)
	assert.Equal(t, SeverityError, r.Errors[0].Severity)
	assert.Equal(t, SeverityWarning, r.Warnings[0].Severity)
	assert.Equal(t, "/a: node id is not numeric", r.Warnings[0].String())
	assert.Equal(t, "1 errors, 1 warnings", r.Summary())
}

func TestValidationResult_Err(t *testing.T) {
	r := &ValidationResult{}
	r.AddError("/", "workflow has no nodes")
	r.AddError("/7/class_type", "class_type is required")
	r.AddWarning("/x", "odd")

	err := r.Err()
	require.Error(t, err)
	assert.True(t, HasCode(err, ErrCodeValidation))
	assert.Contains(t, err.Error(), "/: workflow has no nodes; /7/class_type: class_type is required")

	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 1, se.Details["warnings"])
}
