package workflow

import (
	"fmt"
	"strings"

	"github.com/rendis/remoteflow/pkg/schema"
)

// Summary is the "found N input nodes, detected outputs" report shown after a
// workflow is loaded.
type Summary struct {
	Inputs  map[schema.Category]int `json:"inputs"`
	Total   int                     `json:"total"`
	Outputs []schema.Category       `json:"outputs"`
}

// Summarize counts classified nodes per category and lists detected outputs.
func Summarize(nodes []schema.ClassifiedNode, flags schema.OutputFlags) Summary {
	s := Summary{
		Inputs:  make(map[schema.Category]int, 4),
		Total:   len(nodes),
		Outputs: flags.Detected(),
	}
	for _, c := range schema.Categories() {
		s.Inputs[c] = 0
	}
	for _, n := range nodes {
		s.Inputs[n.Category]++
	}
	return s
}

func (s Summary) String() string {
	outs := make([]string, 0, len(s.Outputs))
	for _, c := range s.Outputs {
		outs = append(outs, string(c))
	}
	detected := strings.Join(outs, ", ")
	if detected == "" {
		detected = "none"
	}
	return fmt.Sprintf("found %d input nodes (image×%d text×%d audio×%d video×%d) | detected outputs: %s",
		s.Total,
		s.Inputs[schema.CategoryImage], s.Inputs[schema.CategoryText],
		s.Inputs[schema.CategoryAudio], s.Inputs[schema.CategoryVideo],
		detected)
}

// Titles maps each classified node with a _meta title to that title.
func Titles(graph schema.WorkflowGraph, nodes []schema.ClassifiedNode) map[string]string {
	titles := make(map[string]string)
	for _, n := range nodes {
		if t := graph[n.ID].Title(); t != "" {
			titles[n.ID] = t
		}
	}
	return titles
}
