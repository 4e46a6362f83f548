package state

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/rendis/remoteflow/internal/validation"
	"github.com/rendis/remoteflow/internal/workflow"
	"github.com/rendis/remoteflow/pkg/schema"
)

// Save serializes m into a PersistedState stamped with now. ok is false when
// serialization fails; the caller keeps whatever string it persisted before.
func Save(m Model, now time.Time) (string, bool) {
	st := schema.PersistedState{
		WorkflowNodes: m.Nodes,
		OutputTypes:   m.Outputs,
		EnabledNodes:  m.Enabled,
		Timestamp:     now.UnixMilli(),
	}
	if st.WorkflowNodes == nil {
		st.WorkflowNodes = []schema.ClassifiedNode{}
	}
	if st.EnabledNodes == nil {
		st.EnabledNodes = schema.EnabledSet{}
	}

	data, err := json.Marshal(st)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// persistedFields mirrors PersistedState with pointer fields so Restore can tell
// an absent key from a zero value.
type persistedFields struct {
	WorkflowNodes *[]schema.ClassifiedNode `json:"workflow_nodes"`
	OutputTypes   *schema.OutputFlags      `json:"output_types"`
	EnabledNodes  *schema.EnabledSet       `json:"enabled_nodes"`
}

// Restore rebuilds a model from the host's workflow_file and saved_state fields.
//
// A workflow text that fails to decode is ignored and leaves Workflow nil. Each
// persisted field is adopted on its own when present. restored is true iff the
// adopted node list is non-empty. A saved_state that fails to decode or violates
// the state schema yields the default model and false.
func Restore(workflowText, stateText string) (m Model, restored bool) {
	m = NewModel()

	if workflowText != "" {
		if g, err := workflow.Decode([]byte(workflowText)); err == nil {
			m.Workflow = g
		}
	}

	if stateText == "" || stateText == schema.EmptyState {
		return m, false
	}

	v, err := validation.Shared()
	if err != nil {
		return NewModel(), false
	}
	if err := v.ValidateStateJSON([]byte(stateText)); err != nil {
		return NewModel(), false
	}

	var f persistedFields
	if err := json.Unmarshal([]byte(stateText), &f); err != nil {
		return NewModel(), false
	}

	if f.WorkflowNodes != nil && *f.WorkflowNodes != nil {
		m.Nodes = *f.WorkflowNodes
		schema.SortNodes(m.Nodes)
	}
	if f.OutputTypes != nil {
		m.Outputs = *f.OutputTypes
	}
	if f.EnabledNodes != nil && *f.EnabledNodes != nil {
		m.Enabled = *f.EnabledNodes
	}

	return m, len(m.Nodes) > 0
}

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

// Saver is the best-effort persistence step run before the host serializes a node.
type Saver struct {
	now    Clock
	logger *slog.Logger
}

// NewSaver creates a Saver. A nil clock uses time.Now; a nil logger discards.
func NewSaver(now Clock, logger *slog.Logger) *Saver {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Saver{now: now, logger: logger}
}

// Snapshot returns the serialized model, or previous when serialization fails.
func (s *Saver) Snapshot(m Model, previous string) string {
	out, ok := Save(m, s.now())
	if !ok {
		s.logger.Warn("saved state not updated; keeping previous snapshot",
			slog.Int("nodes", len(m.Nodes)))
		return previous
	}
	return out
}
