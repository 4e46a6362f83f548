package ports

import "github.com/rendis/remoteflow/pkg/schema"

// Host is the slice of the host node API the synthesizer drives.
type Host interface {
	InputCount() int
	RemoveInput(index int)
	AddInput(name string, wire schema.WireType)
	SetInputLabel(index int, label string)
	Resize()
}

// Apply replaces every dynamic port on host with specs, in order.
func Apply(host Host, specs []schema.PortSpec) {
	for host.InputCount() > 0 {
		host.RemoveInput(0)
	}
	for _, p := range specs {
		host.AddInput(p.Name, p.WireType)
		host.SetInputLabel(host.InputCount()-1, p.Label)
	}
	host.Resize()
}

// Rebuild synthesizes ports for the enabled nodes and applies them to host.
// It returns false, leaving host untouched, when nothing is enabled.
func Rebuild(host Host, classified []schema.ClassifiedNode, enabled schema.EnabledSet) (schema.SelectedView, bool) {
	specs, ok := Synthesize(classified, enabled)
	if !ok {
		return nil, false
	}
	Apply(host, specs)
	return Selection(specs), true
}
