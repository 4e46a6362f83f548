package schema

// WorkflowGraph is an API-format workflow: node ID (a decimal string) to node record.
// It is read-only input; nothing in remoteflow mutates a graph it was handed.
type WorkflowGraph map[string]GraphNode

// GraphNode is one processing node of a remote workflow.
type GraphNode struct {
	ClassType string         `json:"class_type"`
	Inputs    map[string]any `json:"inputs,omitempty"`
	Meta      map[string]any `json:"_meta,omitempty"`
}

// Title returns the node's display title from _meta, or "" if absent.
func (n GraphNode) Title() string {
	if n.Meta == nil {
		return ""
	}
	t, _ := n.Meta["title"].(string)
	return t
}
