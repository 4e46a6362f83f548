// Package ports derives the host node's dynamic input ports from a classified
// workflow and the user's enabled-set.
package ports

import (
	"fmt"

	"github.com/rendis/remoteflow/pkg/schema"
)

// WireFor returns the host wire type for a category. Video has no wire type of its
// own and travels on the image pipe.
func WireFor(c schema.Category) schema.WireType {
	switch c {
	case schema.CategoryText:
		return schema.WireString
	case schema.CategoryAudio:
		return schema.WireAudio
	default:
		return schema.WireImage
	}
}

// PortName returns the name of the k-th (1-based) port of category c.
func PortName(c schema.Category, k int) string {
	return fmt.Sprintf("%s_%d", c, k)
}

// Label names the port together with the node that feeds it.
func Label(name string, n schema.ClassifiedNode) string {
	return fmt.Sprintf("%s → node %s (%s)", name, n.ID, n.Type)
}

// Synthesize returns the ordered port list for the enabled nodes of classified.
// ok is false when no enabled node has a known category: callers must then leave
// the host's existing ports alone.
//
// Ports are grouped image, text, audio, video; within a category they are numbered
// from 1 in ascending node ID order, regardless of the order of classified.
func Synthesize(classified []schema.ClassifiedNode, enabled schema.EnabledSet) (specs []schema.PortSpec, ok bool) {
	selected := make([]schema.ClassifiedNode, 0, len(classified))
	for _, n := range classified {
		if enabled[n.ID] && n.Category.Valid() {
			selected = append(selected, n)
		}
	}
	if len(selected) == 0 {
		return nil, false
	}
	schema.SortNodes(selected)

	specs = make([]schema.PortSpec, 0, len(selected))
	for _, c := range schema.Categories() {
		k := 0
		for _, n := range selected {
			if n.Category != c {
				continue
			}
			k++
			name := PortName(c, k)
			specs = append(specs, schema.PortSpec{
				Name:     name,
				WireType: WireFor(c),
				Label:    Label(name, n),
				NodeID:   n.ID,
				Category: c,
			})
		}
	}
	return specs, true
}

// Selection returns the id → category view of a synthesized port list.
func Selection(specs []schema.PortSpec) schema.SelectedView {
	view := make(schema.SelectedView, len(specs))
	for _, p := range specs {
		view[p.NodeID] = p.Category
	}
	return view
}

// Bindings maps each port name back to the node it feeds, numbering the
// selection the same way Synthesize does.
func Bindings(view schema.SelectedView) map[string]string {
	counters := make(map[schema.Category]int, 4)
	out := make(map[string]string, len(view))
	for _, id := range schema.SortedIDs(view) {
		c := view[id]
		if !c.Valid() {
			continue
		}
		counters[c]++
		out[PortName(c, counters[c])] = id
	}
	return out
}

// Counts returns the number of ports per category.
func Counts(specs []schema.PortSpec) map[schema.Category]int {
	counts := make(map[schema.Category]int, 4)
	for _, c := range schema.Categories() {
		counts[c] = 0
	}
	for _, p := range specs {
		counts[p.Category]++
	}
	return counts
}
