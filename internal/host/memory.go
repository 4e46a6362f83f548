package host

import (
	"sync"

	"github.com/rendis/remoteflow/pkg/schema"
)

// Port is one input slot on a MemoryNode.
type Port struct {
	Name  string          `json:"name"`
	Wire  schema.WireType `json:"wire"`
	Label string          `json:"label,omitempty"`
}

// Size is a node's rendered dimensions.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

const (
	nodeWidth    = 320
	headerHeight = 30
	slotHeight   = 20
	fieldHeight  = 24
)

// MemoryNode is an in-process Node. It backs the CLI, the tool server and tests.
type MemoryNode struct {
	mu     sync.Mutex
	fields map[string]string
	inputs []Port
	size   Size
	dirty  int
}

// NewMemoryNode returns a node carrying every persisted field, empty.
func NewMemoryNode() *MemoryNode {
	n := &MemoryNode{fields: make(map[string]string, len(fieldDefaults))}
	for _, f := range fieldDefaults {
		n.fields[f.name] = ""
	}
	return n
}

// NewMemoryNodeWithFields returns a node carrying exactly the given fields.
func NewMemoryNodeWithFields(fields map[string]string) *MemoryNode {
	n := &MemoryNode{fields: make(map[string]string, len(fields))}
	for k, v := range fields {
		n.fields[k] = v
	}
	return n
}

func (n *MemoryNode) Field(name string) (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	v, ok := n.fields[name]
	return v, ok
}

func (n *MemoryNode) SetField(name, value string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.fields[name] = value
}

// Fields returns a copy of all field values.
func (n *MemoryNode) Fields() map[string]string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make(map[string]string, len(n.fields))
	for k, v := range n.fields {
		out[k] = v
	}
	return out
}

func (n *MemoryNode) InputCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.inputs)
}

func (n *MemoryNode) RemoveInput(index int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if index < 0 || index >= len(n.inputs) {
		return
	}
	n.inputs = append(n.inputs[:index], n.inputs[index+1:]...)
}

func (n *MemoryNode) AddInput(name string, wire schema.WireType) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.inputs = append(n.inputs, Port{Name: name, Wire: wire})
}

func (n *MemoryNode) SetInputLabel(index int, label string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if index < 0 || index >= len(n.inputs) {
		return
	}
	n.inputs[index].Label = label
}

// Resize sets the node to its computed size.
func (n *MemoryNode) Resize() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.size = n.computeSize()
}

func (n *MemoryNode) computeSize() Size {
	return Size{
		Width:  nodeWidth,
		Height: headerHeight + len(n.inputs)*slotHeight + len(n.fields)*fieldHeight,
	}
}

func (n *MemoryNode) SetDirty() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dirty++
}

// Inputs returns a copy of the current input ports.
func (n *MemoryNode) Inputs() []Port {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Port, len(n.inputs))
	copy(out, n.inputs)
	return out
}

// Size returns the size set by the last Resize.
func (n *MemoryNode) Size() Size {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.size
}

// DirtyCount returns how many times the canvas was marked dirty.
func (n *MemoryNode) DirtyCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.dirty
}
