// Package state snapshots a host node's workflow model into its saved_state field
// and restores it on document load.
package state

import "github.com/rendis/remoteflow/pkg/schema"

// Model is the in-memory state owned by one host node instance.
type Model struct {
	Nodes    []schema.ClassifiedNode
	Outputs  schema.OutputFlags
	Enabled  schema.EnabledSet
	Workflow schema.WorkflowGraph
}

// NewModel returns the defaults a fresh node starts with.
func NewModel() Model {
	return Model{
		Nodes:   []schema.ClassifiedNode{},
		Enabled: schema.EnabledSet{},
	}
}

// Clone returns a copy that shares nothing mutable with m except the read-only graph.
func (m Model) Clone() Model {
	nodes := make([]schema.ClassifiedNode, len(m.Nodes))
	copy(nodes, m.Nodes)
	return Model{
		Nodes:    nodes,
		Outputs:  m.Outputs,
		Enabled:  m.Enabled.Clone(),
		Workflow: m.Workflow,
	}
}
