package diagram

import (
	"fmt"
	"strings"
)

// RenderMermaid renders a DiagramModel as a left-to-right Mermaid flowchart.
func RenderMermaid(model *DiagramModel) string {
	var b strings.Builder

	b.WriteString("graph LR\n")
	if model.Title != "" {
		b.WriteString(fmt.Sprintf("    %%%% %s\n", model.Title))
	}

	for _, node := range model.Nodes {
		b.WriteString(fmt.Sprintf("    %s\n", mermaidNodeDef(node)))
	}

	for _, edge := range model.Edges {
		label := ""
		if edge.Label != "" {
			label = fmt.Sprintf("|%s|", edge.Label)
		}
		b.WriteString(fmt.Sprintf("    %s -->%s %s\n",
			mermaidSafeID(edge.From), label, mermaidSafeID(edge.To)))
	}

	b.WriteString("\n")
	b.WriteString("    classDef image fill:#1a5276,stroke:#0e3a52,color:#fff\n")
	b.WriteString("    classDef text fill:#2d6a2d,stroke:#1a4a1a,color:#fff\n")
	b.WriteString("    classDef audio fill:#b7791a,stroke:#8a5c14,color:#fff\n")
	b.WriteString("    classDef video fill:#6c3483,stroke:#4a235a,color:#fff\n")
	b.WriteString("    classDef disabled fill:#4a4a4a,stroke:#333,color:#aaa,stroke-dasharray:5 5\n")

	for _, node := range model.Nodes {
		if cls := mermaidClass(node); cls != "" {
			b.WriteString(fmt.Sprintf("    class %s %s\n", mermaidSafeID(node.ID), cls))
		}
	}

	return b.String()
}

// mermaidNodeDef returns a Mermaid node definition shaped by kind.
func mermaidNodeDef(node *Node) string {
	id := mermaidSafeID(node.ID)
	label := mermaidEscapeLabel(strings.ReplaceAll(node.Label, "\n", "<br/>"))

	switch node.Kind {
	case NodeKindPort:
		return fmt.Sprintf(`%s(["%s"])`, id, label)
	case NodeKindHost:
		return fmt.Sprintf(`%s[["%s"]]`, id, label)
	default:
		return fmt.Sprintf(`%s["%s"]`, id, label)
	}
}

func mermaidClass(node *Node) string {
	if node.Kind == NodeKindHost {
		return ""
	}
	if !node.Enabled {
		return "disabled"
	}
	if node.Category.Valid() {
		return string(node.Category)
	}
	return ""
}

// mermaidSafeID converts a node ID to a Mermaid-safe identifier.
func mermaidSafeID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", " ", "_", ":", "_")
	return r.Replace(id)
}

// mermaidEscapeLabel escapes double quotes, which would end a quoted label.
func mermaidEscapeLabel(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}
