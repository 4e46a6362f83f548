package diagram

import (
	"fmt"

	"github.com/rendis/remoteflow/pkg/schema"
)

// Build lays out classified loaders, the ports they feed and the host node in
// three levels. Loaders without a port stay in the diagram, disabled.
func Build(title string, nodes []schema.ClassifiedNode, specs []schema.PortSpec) *DiagramModel {
	fed := make(map[string]schema.PortSpec, len(specs))
	for _, p := range specs {
		fed[p.NodeID] = p
	}

	sorted := make([]schema.ClassifiedNode, len(nodes))
	copy(sorted, nodes)
	schema.SortNodes(sorted)

	m := &DiagramModel{Title: title}
	sources := make([]string, 0, len(sorted))
	for _, n := range sorted {
		_, enabled := fed[n.ID]
		id := sourceID(n.ID)
		m.Nodes = append(m.Nodes, &Node{
			ID:       id,
			Label:    fmt.Sprintf("node %s\n%s", n.ID, n.Type),
			Kind:     NodeKindSource,
			Category: n.Category,
			Enabled:  enabled,
		})
		sources = append(sources, id)
	}

	portIDs := make([]string, 0, len(specs))
	for _, p := range specs {
		id := portID(p.Name)
		m.Nodes = append(m.Nodes, &Node{
			ID:       id,
			Label:    fmt.Sprintf("%s\n%s", p.Name, p.WireType),
			Kind:     NodeKindPort,
			Category: p.Category,
			Enabled:  true,
		})
		portIDs = append(portIDs, id)
		m.Edges = append(m.Edges,
			Edge{From: sourceID(p.NodeID), To: id, Label: string(p.WireType)},
			Edge{From: id, To: HostID},
		)
	}

	hostLabel := title
	if hostLabel == "" {
		hostLabel = "remote workflow"
	}
	m.Nodes = append(m.Nodes, &Node{ID: HostID, Label: hostLabel, Kind: NodeKindHost, Enabled: len(specs) > 0})

	m.Levels = [][]string{sources, portIDs, {HostID}}
	return m
}

func sourceID(nodeID string) string { return "n_" + nodeID }

func portID(name string) string { return "p_" + name }

// findNode looks up a node by ID in the model's node list.
func findNode(nodes []*Node, id string) *Node {
	for _, n := range nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}
