// Package expressions evaluates selection rules over classified workflow nodes.
package expressions

import (
	"context"

	"github.com/rendis/remoteflow/pkg/schema"
)

// Engine evaluates expressions against a data map.
// Three implementations: CEL (default rules), Expr (logic), GoJQ (graph queries).
type Engine interface {
	Name() string
	Evaluate(ctx context.Context, expression string, data map[string]any) (any, error)
}

// DefaultEngine is the engine used when none is named.
const DefaultEngine = "cel"

// ForName returns a new engine by name: "cel" (or ""), "expr" or "jq".
func ForName(name string) (Engine, error) {
	switch name {
	case "", "cel":
		return NewCELEngine()
	case "expr":
		return NewExprEngine(), nil
	case "jq":
		return NewGoJQEngine(), nil
	}
	return nil, schema.NewErrorf(schema.ErrCodeValidation, "unknown expression engine %q", name).
		WithDetails(map[string]any{"engines": []string{"cel", "expr", "jq"}})
}

func compileError(engine, expression string, err error) *schema.Error {
	return schema.NewErrorf(schema.ErrCodeValidation,
		"%s compile error in %q: %s", engine, expression, err.Error()).
		WithCause(err).
		WithDetails(map[string]any{"expression": expression})
}

func evalError(engine, expression string, err error) *schema.Error {
	return schema.NewErrorf(schema.ErrCodeExpression,
		"%s evaluation failed for %q: %s", engine, expression, err.Error()).
		WithCause(err).
		WithDetails(map[string]any{"expression": expression})
}
