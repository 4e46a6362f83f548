package workflow

import (
	"testing"

	"github.com/rendis/remoteflow/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const portraitWorkflow = `{
	"12": {"class_type": "CR Prompt Text", "inputs": {"prompt": "a cat"}},
	"3":  {"class_type": "LoadImage", "inputs": {"image": "in.png"}},
	"7":  {"class_type": "KSampler", "inputs": {"seed": 1}},
	"20": {"class_type": "LoadAudio", "inputs": {"audio": "voice.wav"}},
	"9":  {"class_type": "SaveImage", "inputs": {"images": ["8", 0]}},
	"15": {"class_type": "LoadVideo"},
	"4":  {"class_type": "easy showAnything"}
}`

func decodeFixture(t *testing.T, src string) schema.WorkflowGraph {
	t.Helper()
	g, err := Decode([]byte(src))
	require.NoError(t, err)
	return g
}

func TestParse_Classification(t *testing.T) {
	nodes, flags := Parse(decodeFixture(t, portraitWorkflow))

	assert.Equal(t, []schema.ClassifiedNode{
		{ID: "3", Type: "LoadImage", Category: schema.CategoryImage},
		{ID: "4", Type: "easy showAnything", Category: schema.CategoryText},
		{ID: "12", Type: "CR Prompt Text", Category: schema.CategoryText},
		{ID: "15", Type: "LoadVideo", Category: schema.CategoryVideo},
		{ID: "20", Type: "LoadAudio", Category: schema.CategoryAudio},
	}, nodes)

	// easy showAnything is both a loader and a sink.
	assert.Equal(t, schema.OutputFlags{Image: true, Text: true}, flags)
}

func TestParse_SortedByNumericID(t *testing.T) {
	g := schema.WorkflowGraph{
		"100": {ClassType: "Text"},
		"9":   {ClassType: "Text"},
		"10":  {ClassType: "Text"},
		"1":   {ClassType: "Text"},
	}
	nodes, _ := Parse(g)

	var ids []string
	for _, n := range nodes {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"1", "9", "10", "100"}, ids)
}

func TestParse_NonNumericIDsDoNotPanic(t *testing.T) {
	g := schema.WorkflowGraph{
		"b":  {ClassType: "LoadImage"},
		"2":  {ClassType: "LoadImage"},
		"a":  {ClassType: "LoadImage"},
		"10": {ClassType: "LoadImage"},
	}
	var nodes []schema.ClassifiedNode
	require.NotPanics(t, func() { nodes, _ = Parse(g) })
	require.Len(t, nodes, 4)
	assert.Equal(t, "2", nodes[0].ID)
	assert.Equal(t, "10", nodes[1].ID)
}

func TestParse_OnlySaveImage(t *testing.T) {
	g := schema.WorkflowGraph{
		"1": {ClassType: "LoadImage"},
		"2": {ClassType: "Text"},
		"3": {ClassType: "SaveImage"},
	}
	_, flags := Parse(g)
	assert.Equal(t, schema.OutputFlags{Image: true}, flags)
}

func TestParse_UnknownGraph(t *testing.T) {
	g := schema.WorkflowGraph{
		"1": {ClassType: "KSampler"},
		"2": {ClassType: "loadimage"},
		"3": {ClassType: ""},
	}
	nodes, flags := Parse(g)
	assert.NotNil(t, nodes)
	assert.Empty(t, nodes)
	assert.Equal(t, schema.OutputFlags{}, flags)

	nodes, flags = Parse(nil)
	assert.Empty(t, nodes)
	assert.Equal(t, schema.OutputFlags{}, flags)
}

func TestParse_OutputTableCoverage(t *testing.T) {
	tests := []struct {
		classType string
		want      schema.OutputFlags
	}{
		{"SaveImage", schema.OutputFlags{Image: true}},
		{"PreviewImage", schema.OutputFlags{Image: true}},
		{"VHS_VideoCombine", schema.OutputFlags{Video: true}},
		{"easy showAnything", schema.OutputFlags{Text: true}},
		{"SaveAudio", schema.OutputFlags{Audio: true}},
	}
	for _, tt := range tests {
		t.Run(tt.classType, func(t *testing.T) {
			_, flags := Parse(schema.WorkflowGraph{"1": {ClassType: tt.classType}})
			assert.Equal(t, tt.want, flags)
		})
	}
}

func TestParse_Deterministic(t *testing.T) {
	g := decodeFixture(t, portraitWorkflow)
	n1, f1 := Parse(g)
	n2, f2 := Parse(g)
	assert.Equal(t, n1, n2)
	assert.Equal(t, f1, f2)
}

func TestParse_DoesNotMutateGraph(t *testing.T) {
	g := decodeFixture(t, portraitWorkflow)
	before := len(g)
	_, _ = Parse(g)
	assert.Len(t, g, before)
	assert.Equal(t, "LoadImage", g["3"].ClassType)
	assert.Equal(t, "in.png", g["3"].Inputs["image"])
}

func TestTables(t *testing.T) {
	c, ok := InputCategory("LoadAudio")
	assert.True(t, ok)
	assert.Equal(t, schema.CategoryAudio, c)

	_, ok = InputCategory("SaveAudio")
	assert.False(t, ok)

	c, ok = OutputCategory("VHS_VideoCombine")
	assert.True(t, ok)
	assert.Equal(t, schema.CategoryVideo, c)

	assert.True(t, IsInput("Text"))
	assert.False(t, IsInput("text"))

	assert.Equal(t, []string{"CR Prompt Text", "LoadAudio", "LoadImage", "LoadVideo", "Text", "easy showAnything"}, InputTypes())
	assert.Len(t, OutputTypes(), 5)
}

func TestIsAPIFormat(t *testing.T) {
	assert.True(t, IsAPIFormat(schema.WorkflowGraph{"1": {}, "23": {}}))
	assert.False(t, IsAPIFormat(schema.WorkflowGraph{"1": {}, "nodes": {}}))
	assert.False(t, IsAPIFormat(schema.WorkflowGraph{"-1": {}}))
	assert.False(t, IsAPIFormat(schema.WorkflowGraph{}))
}

func TestDecode_Rejects(t *testing.T) {
	_, err := Decode([]byte(`{"1": {"class_type": "LoadImage"`))
	require.Error(t, err)
	assert.True(t, schema.HasCode(err, schema.ErrCodeParse))

	_, err = Decode([]byte(`{"nodes": [], "links": []}`))
	require.Error(t, err)
	assert.True(t, schema.HasCode(err, schema.ErrCodeValidation))
}

func TestCheck_UsesLoaderTable(t *testing.T) {
	r := Check(schema.WorkflowGraph{"1": {ClassType: "SaveImage"}})
	assert.True(t, r.Valid())
	require.Len(t, r.Warnings, 1)

	r = Check(schema.WorkflowGraph{"1": {ClassType: "LoadImage"}})
	assert.Empty(t, r.Warnings)
}

func TestSummarize(t *testing.T) {
	nodes, flags := Parse(decodeFixture(t, portraitWorkflow))
	s := Summarize(nodes, flags)

	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 1, s.Inputs[schema.CategoryImage])
	assert.Equal(t, 2, s.Inputs[schema.CategoryText])
	assert.Equal(t, []schema.Category{schema.CategoryImage, schema.CategoryText}, s.Outputs)
	assert.Equal(t,
		"found 5 input nodes (image×1 text×2 audio×1 video×1) | detected outputs: image, text",
		s.String())

	empty := Summarize(nil, schema.OutputFlags{})
	assert.Contains(t, empty.String(), "detected outputs: none")
}

func TestTitles(t *testing.T) {
	graph := schema.WorkflowGraph{
		"3":  {ClassType: "LoadImage", Meta: map[string]any{"title": "Portrait"}},
		"7":  {ClassType: "LoadImage"},
		"20": {ClassType: "KSampler", Meta: map[string]any{"title": "Sampler"}},
	}
	nodes, _ := Parse(graph)

	assert.Equal(t, map[string]string{"3": "Portrait"}, Titles(graph, nodes))
	assert.Empty(t, Titles(graph, nil))
}
