package validation

import (
	"fmt"
	"strconv"

	"github.com/rendis/remoteflow/pkg/schema"
)

// semanticChecker flags graphs that decode cleanly but will not produce useful ports.
type semanticChecker struct {
	lookup ClassLookup
}

// NewGraphChecker returns a GraphChecker. lookup may be nil to skip the
// "no classifiable input" warning.
func NewGraphChecker(lookup ClassLookup) GraphChecker {
	return &semanticChecker{lookup: lookup}
}

// Check reports an error for an empty graph, and warnings for non-numeric node ids
// (a UI export rather than an API export), nodes without class_type, and graphs
// with nothing a host port could feed.
func (c *semanticChecker) Check(graph schema.WorkflowGraph) *schema.ValidationResult {
	result := &schema.ValidationResult{}
	if len(graph) == 0 {
		result.AddError("/", "workflow has no nodes")
		return result
	}

	inputs := 0
	for _, id := range schema.SortedIDs(graph) {
		node := graph[id]
		path := "/" + id
		if _, err := strconv.Atoi(id); err != nil {
			result.AddWarning(path, fmt.Sprintf("node id %q is not numeric; API-format export expected", id))
		}
		if node.ClassType == "" {
			result.AddWarning(path+"/class_type", "node has no class_type")
			continue
		}
		if c.lookup != nil && c.lookup.IsInput(node.ClassType) {
			inputs++
		}
	}

	if c.lookup != nil && inputs == 0 {
		result.AddWarning("/", "workflow has no loader node that can be exposed as a port")
	}
	return result
}
