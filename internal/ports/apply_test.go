package ports

import (
	"fmt"
	"testing"

	"github.com/rendis/remoteflow/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePort struct {
	name  string
	wire  schema.WireType
	label string
}

// recordingHost is a Host that logs every mutation.
type recordingHost struct {
	ports   []fakePort
	ops     []string
	resizes int
}

func (h *recordingHost) InputCount() int { return len(h.ports) }

func (h *recordingHost) RemoveInput(i int) {
	h.ops = append(h.ops, fmt.Sprintf("remove %s", h.ports[i].name))
	h.ports = append(h.ports[:i], h.ports[i+1:]...)
}

func (h *recordingHost) AddInput(name string, wire schema.WireType) {
	h.ops = append(h.ops, fmt.Sprintf("add %s", name))
	h.ports = append(h.ports, fakePort{name: name, wire: wire})
}

func (h *recordingHost) SetInputLabel(i int, label string) { h.ports[i].label = label }

func (h *recordingHost) Resize() { h.resizes++ }

func TestApply_ReplacesPorts(t *testing.T) {
	h := &recordingHost{ports: []fakePort{{name: "image_1"}, {name: "text_1"}}}
	specs := []schema.PortSpec{
		{Name: "audio_1", WireType: schema.WireAudio, Label: "audio_1 → node 5 (LoadAudio)"},
	}

	Apply(h, specs)

	assert.Equal(t, []string{"remove image_1", "remove text_1", "add audio_1"}, h.ops)
	require.Len(t, h.ports, 1)
	assert.Equal(t, fakePort{name: "audio_1", wire: schema.WireAudio, label: "audio_1 → node 5 (LoadAudio)"}, h.ports[0])
	assert.Equal(t, 1, h.resizes)
}

func TestRebuild_NoOpLeavesHostUntouched(t *testing.T) {
	h := &recordingHost{ports: []fakePort{{name: "image_1", wire: schema.WireImage}}}
	classified := []schema.ClassifiedNode{{ID: "1", Type: "LoadImage", Category: schema.CategoryImage}}

	view, ok := Rebuild(h, classified, schema.EnabledSet{})
	assert.False(t, ok)
	assert.Nil(t, view)
	assert.Empty(t, h.ops)
	assert.Zero(t, h.resizes)
	assert.Len(t, h.ports, 1)
}

func TestRebuild_UnknownCategoryLeavesHostUntouched(t *testing.T) {
	h := &recordingHost{ports: []fakePort{{name: "image_1", wire: schema.WireImage}}}
	classified := []schema.ClassifiedNode{{ID: "1", Type: "LoadMesh", Category: "mesh"}}

	view, ok := Rebuild(h, classified, schema.EnabledSet{"1": true})
	assert.False(t, ok)
	assert.Nil(t, view)
	assert.Empty(t, h.ops)
	assert.Len(t, h.ports, 1)
}

func TestRebuild_IdempotentPorts(t *testing.T) {
	h := &recordingHost{}
	classified := []schema.ClassifiedNode{
		{ID: "1", Type: "Text", Category: schema.CategoryText},
		{ID: "2", Type: "LoadImage", Category: schema.CategoryImage},
	}
	enabled := schema.EnabledSet{"1": true, "2": true}

	view1, ok := Rebuild(h, classified, enabled)
	require.True(t, ok)
	first := append([]fakePort(nil), h.ports...)

	h.ops = nil
	view2, ok := Rebuild(h, classified, enabled)
	require.True(t, ok)

	assert.Equal(t, first, h.ports)
	assert.Equal(t, view1, view2)
	assert.Equal(t, []string{"remove image_1", "remove text_1", "add image_1", "add text_1"}, h.ops)
}
