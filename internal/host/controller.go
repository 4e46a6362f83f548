package host

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strconv"

	"github.com/rendis/remoteflow/internal/ports"
	"github.com/rendis/remoteflow/internal/state"
	"github.com/rendis/remoteflow/internal/workflow"
	"github.com/rendis/remoteflow/pkg/schema"
)

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock sets the clock used to stamp saved state.
func WithClock(now state.Clock) Option {
	return func(c *Controller) { c.now = now }
}

// CommitReport summarizes a committed selection.
type CommitReport struct {
	Enabled  int                     `json:"enabled"`
	Ports    []schema.PortSpec       `json:"ports"`
	Counts   map[schema.Category]int `json:"counts"`
	Selected schema.SelectedView     `json:"selected"`
	Outputs  []schema.Category       `json:"outputs"`
}

// Controller owns the workflow model of one host node instance.
type Controller struct {
	node   Node
	model  state.Model
	ports  []schema.PortSpec
	saver  *state.Saver
	now    state.Clock
	logger *slog.Logger
}

// Attach binds a controller to node and registers its lifecycle handlers on lc.
// It declines, leaving node untouched, when any persisted field is missing.
func Attach(node Node, lc *Lifecycle, opts ...Option) (*Controller, error) {
	for _, f := range fieldDefaults {
		if _, ok := node.Field(f.name); !ok {
			return nil, schema.NewErrorf(schema.ErrCodeMissingField, "node has no %q field", f.name).
				WithDetails(map[string]any{"field": f.name})
		}
	}

	c := &Controller{
		node:   node,
		model:  state.NewModel(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.saver = state.NewSaver(c.now, c.logger)

	for _, f := range fieldDefaults {
		v, _ := node.Field(f.name)
		if v == "" || (f.name == FieldRemotePort && v == "0") {
			node.SetField(f.name, f.value)
		}
	}

	if lc != nil {
		lc.OnConfigure(func() { c.Configure() })
		lc.OnSerialize(c.Serialize)
	}
	return c, nil
}

// Configure restores the model from the node's persisted fields and rebuilds the
// ports when a node list was restored. It reports whether ports were rebuilt.
func (c *Controller) Configure() bool {
	wf, _ := c.node.Field(FieldWorkflowFile)
	saved, _ := c.node.Field(FieldSavedState)

	m, restored := state.Restore(wf, saved)
	c.model = m
	if !restored {
		c.logger.Debug("no saved state restored")
		return false
	}
	c.logger.Info("state restored",
		slog.Int("nodes", len(m.Nodes)),
		slog.Int("enabled", m.Enabled.Count(m.Nodes)))
	return c.rebuild()
}

// Serialize writes the current model into saved_state. A failed snapshot keeps
// the previous value.
func (c *Controller) Serialize() {
	prev, _ := c.node.Field(FieldSavedState)
	c.node.SetField(FieldSavedState, c.saver.Snapshot(c.model, prev))
}

// LoadWorkflow reads a workflow file, reclassifies its nodes and resets the
// enabled set. The model is unchanged on any failure.
func (c *Controller) LoadWorkflow(ctx context.Context, r io.Reader) (workflow.Summary, error) {
	data, err := io.ReadAll(&ctxReader{ctx: ctx, r: r})
	if err != nil {
		if ctx.Err() != nil {
			return workflow.Summary{}, ctx.Err()
		}
		return workflow.Summary{}, schema.NewError(schema.ErrCodeParse, "read workflow file").WithCause(err)
	}

	graph, err := workflow.Decode(data)
	if err != nil {
		c.logger.WarnContext(ctx, "workflow file rejected", slog.String("error", err.Error()))
		return workflow.Summary{}, err
	}
	if !workflow.IsAPIFormat(graph) {
		c.logger.WarnContext(ctx, "workflow does not look like API format")
	}
	if check := workflow.Check(graph); len(check.Errors)+len(check.Warnings) > 0 {
		c.logger.DebugContext(ctx, "workflow checks", slog.String("result", check.Summary()))
	}

	nodes, flags := workflow.Parse(graph)
	c.model = state.Model{
		Nodes:    nodes,
		Outputs:  flags,
		Enabled:  schema.EnabledSet{},
		Workflow: graph,
	}
	c.node.SetField(FieldWorkflowFile, string(data))

	summary := workflow.Summarize(nodes, flags)
	c.logger.InfoContext(ctx, summary.String())
	return summary, nil
}

// Draft returns an editable copy of the enabled set. Dropping it cancels the edit.
func (c *Controller) Draft() schema.EnabledSet {
	return c.model.Enabled.Clone()
}

// Commit adopts enabled as the selection, saves it and rebuilds the ports.
func (c *Controller) Commit(enabled schema.EnabledSet) (CommitReport, error) {
	if enabled.Count(c.model.Nodes) == 0 {
		return CommitReport{}, schema.NewError(schema.ErrCodeEmptySelection, "select at least one input node")
	}

	c.model.Enabled = enabled.Clone()
	c.Serialize()
	c.rebuild()
	c.node.SetDirty()

	report := CommitReport{
		Enabled:  enabled.Count(c.model.Nodes),
		Ports:    c.Ports(),
		Counts:   ports.Counts(c.ports),
		Selected: ports.Selection(c.ports),
		Outputs:  c.model.Outputs.Detected(),
	}
	c.logger.Info("selection committed",
		slog.Int("enabled", report.Enabled),
		slog.Int("ports", len(report.Ports)))
	return report, nil
}

// Model returns a copy of the current model.
func (c *Controller) Model() state.Model {
	return c.model.Clone()
}

// Ports returns the ports applied by the last rebuild.
func (c *Controller) Ports() []schema.PortSpec {
	out := make([]schema.PortSpec, len(c.ports))
	copy(out, c.ports)
	return out
}

// Endpoint returns the remote address stored on the node.
func (c *Controller) Endpoint() (Endpoint, error) {
	h, _ := c.node.Field(FieldRemoteIP)
	p, _ := c.node.Field(FieldRemotePort)
	return parseEndpoint(h, p)
}

// SetEndpoint validates e and stores it on the node.
func (c *Controller) SetEndpoint(e Endpoint) error {
	if err := e.Validate(); err != nil {
		return err
	}
	c.node.SetField(FieldRemoteIP, e.Host)
	c.node.SetField(FieldRemotePort, strconv.Itoa(e.Port))
	c.logger.Info("remote endpoint updated", slog.String("endpoint", e.Masked()))
	return nil
}

func (c *Controller) rebuild() bool {
	specs, ok := ports.Synthesize(c.model.Nodes, c.model.Enabled)
	if !ok {
		return false
	}
	ports.Apply(c.node, specs)
	c.ports = specs

	view, err := json.Marshal(ports.Selection(specs))
	if err != nil {
		c.logger.Warn("selected nodes not written", slog.String("error", err.Error()))
		return true
	}
	c.node.SetField(FieldSelectedNodes, string(view))
	return true
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *ctxReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}
