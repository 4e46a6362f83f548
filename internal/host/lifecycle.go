package host

import "errors"

// Lifecycle holds the hook slots a host fires for one node instance. Handlers run
// in registration order on the host's UI thread.
type Lifecycle struct {
	create    []func() error
	configure []func()
	serialize []func()
}

// OnCreate registers a handler for node creation.
func (l *Lifecycle) OnCreate(fn func() error) { l.create = append(l.create, fn) }

// OnConfigure registers a handler run after the host loads the node's fields.
func (l *Lifecycle) OnConfigure(fn func()) { l.configure = append(l.configure, fn) }

// OnSerialize registers a handler run before the host captures the node's fields.
func (l *Lifecycle) OnSerialize(fn func()) { l.serialize = append(l.serialize, fn) }

// Create fires the creation hooks. Every handler runs; their errors are joined.
func (l *Lifecycle) Create() error {
	var errs []error
	for _, fn := range l.create {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Configure fires the post-load hooks.
func (l *Lifecycle) Configure() {
	for _, fn := range l.configure {
		fn()
	}
}

// Serialize fires the pre-serialize hooks.
func (l *Lifecycle) Serialize() {
	for _, fn := range l.serialize {
		fn()
	}
}
