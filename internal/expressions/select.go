package expressions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rendis/remoteflow/pkg/schema"
)

// NodeData returns the variables a selection rule sees for one classified node.
// index is the node's 0-based position in nodes.
func NodeData(n schema.ClassifiedNode, index int, flags schema.OutputFlags) map[string]any {
	return map[string]any{
		"node": map[string]any{
			"id":       n.ID,
			"type":     n.Type,
			"category": string(n.Category),
			"index":    int64(index),
		},
		"outputs": map[string]any{
			"image": flags.Image,
			"text":  flags.Text,
			"audio": flags.Audio,
			"video": flags.Video,
		},
	}
}

// Select evaluates a boolean rule for each node and returns the resulting
// enabled set, with an entry for every node. A non-boolean result fails the
// whole selection.
func Select(ctx context.Context, engine Engine, expression string, nodes []schema.ClassifiedNode, flags schema.OutputFlags) (schema.EnabledSet, error) {
	set := make(schema.EnabledSet, len(nodes))
	for i, n := range nodes {
		out, err := engine.Evaluate(ctx, expression, NodeData(n, i, flags))
		if err != nil {
			var se *schema.Error
			if errors.As(err, &se) {
				return nil, se.WithNode(n.ID)
			}
			return nil, err
		}
		b, ok := out.(bool)
		if !ok {
			return nil, schema.NewErrorf(schema.ErrCodeExpression,
				"rule %q returned %T, want bool", expression, out).
				WithNode(n.ID).
				WithDetails(map[string]any{"expression": expression, "result": fmt.Sprint(out)})
		}
		set[n.ID] = b
	}
	return set, nil
}

// Query runs a jq expression over the raw workflow graph and returns every output.
func Query(ctx context.Context, engine *GoJQEngine, expression string, graph schema.WorkflowGraph) ([]any, error) {
	data, err := json.Marshal(graph)
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeParse, "encode workflow graph").WithCause(err)
	}
	var input any
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, schema.NewError(schema.ErrCodeParse, "decode workflow graph").WithCause(err)
	}
	return engine.EvaluateAll(ctx, expression, input)
}
