// Package host binds the workflow engine to a node on the host canvas through
// explicit lifecycle hooks.
package host

import "github.com/rendis/remoteflow/internal/ports"

// Persisted field names on the host node.
const (
	FieldWorkflowFile  = "workflow_file"
	FieldSelectedNodes = "selected_nodes"
	FieldSavedState    = "saved_state"
	FieldRemoteIP      = "remote_ip"
	FieldRemotePort    = "remote_port"
)

// Default values written into empty fields on attach.
const (
	DefaultRemoteIP   = "192.168.1.100"
	DefaultRemotePort = 8188
)

// fieldDefaults lists every field a node must carry, with its default.
var fieldDefaults = []struct {
	name  string
	value string
}{
	{FieldWorkflowFile, ""},
	{FieldSelectedNodes, "{}"},
	{FieldSavedState, "{}"},
	{FieldRemoteIP, DefaultRemoteIP},
	{FieldRemotePort, "8188"},
}

// Node is the host node API the engine consumes.
type Node interface {
	ports.Host

	// Field returns a persisted field's value; ok is false if the node has no such field.
	Field(name string) (value string, ok bool)
	SetField(name, value string)
	// SetDirty asks the host to redraw the canvas.
	SetDirty()
}
