// Package workflow classifies the nodes of an API-format remote workflow.
package workflow

import (
	"github.com/rendis/remoteflow/pkg/schema"
)

// Parse classifies every node of graph against the static loader and sink tables.
// The classified list is sorted by numeric node ID. Parse is pure: an unknown or
// empty graph yields an empty list and all-false flags.
func Parse(graph schema.WorkflowGraph) ([]schema.ClassifiedNode, schema.OutputFlags) {
	var flags schema.OutputFlags
	nodes := make([]schema.ClassifiedNode, 0)

	for _, id := range schema.SortedIDs(graph) {
		ct := graph[id].ClassType
		if ct == "" {
			continue
		}
		if c, ok := inputTypes[ct]; ok {
			nodes = append(nodes, schema.ClassifiedNode{ID: id, Type: ct, Category: c})
		}
		if c, ok := outputTypes[ct]; ok {
			flags.Set(c)
		}
	}

	return nodes, flags
}

// IsAPIFormat reports whether every node ID is a decimal integer, which is how
// the remote server's API export keys its nodes. An empty graph is not API format.
func IsAPIFormat(graph schema.WorkflowGraph) bool {
	if len(graph) == 0 {
		return false
	}
	for id := range graph {
		if id == "" {
			return false
		}
		for _, r := range id {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}
