// Package diagram draws the port map of a host node: which workflow loaders feed
// which synthesized input ports.
package diagram

import "github.com/rendis/remoteflow/pkg/schema"

// NodeKind classifies a diagram node.
type NodeKind string

const (
	NodeKindSource NodeKind = "source" // a classified workflow loader
	NodeKindPort   NodeKind = "port"   // a synthesized host input
	NodeKindHost   NodeKind = "host"
)

// HostID is the diagram ID of the host node.
const HostID = "__host__"

// DiagramModel is the intermediate representation used by all renderers.
type DiagramModel struct {
	Title  string
	Nodes  []*Node
	Edges  []Edge
	Levels [][]string
}

// Node is a single box in the diagram.
type Node struct {
	ID       string
	Label    string
	Kind     NodeKind
	Category schema.Category
	// Enabled is false for loaders that feed no port.
	Enabled bool
}

// Edge connects two diagram nodes.
type Edge struct {
	From  string
	To    string
	Label string
}
