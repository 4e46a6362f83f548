// Package documents edits host documents kept in the store: it replays each
// document through a host controller and writes the result back.
package documents

import (
	"context"
	"log/slog"
	"strings"

	"github.com/rendis/remoteflow/internal/expressions"
	"github.com/rendis/remoteflow/internal/host"
	"github.com/rendis/remoteflow/internal/logging"
	"github.com/rendis/remoteflow/internal/state"
	"github.com/rendis/remoteflow/internal/store"
	"github.com/rendis/remoteflow/internal/workflow"
	"github.com/rendis/remoteflow/pkg/schema"
)

// Service creates, inspects and commits documents.
type Service struct {
	store   store.Store
	history *store.History
	now     state.Clock
	logger  *slog.Logger
}

// NewService creates a Service. A nil clock uses time.Now; a nil logger discards.
func NewService(s store.Store, now state.Clock, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		store:   s,
		history: store.NewHistory(s, now),
		now:     now,
		logger:  logger,
	}
}

// CreateRequest describes a new document.
type CreateRequest struct {
	Name     string
	Workflow string
	Endpoint *host.Endpoint
}

// View is what a document looks like once its fields are replayed.
type View struct {
	Document *store.Document         `json:"document"`
	Summary  workflow.Summary        `json:"summary"`
	Nodes    []schema.ClassifiedNode `json:"nodes"`
	Enabled  schema.EnabledSet       `json:"enabled"`
	Ports    []schema.PortSpec       `json:"ports"`
	Endpoint string                  `json:"endpoint"`
}

// CommitRequest selects the nodes to expose. Rule, when set, is evaluated with
// Engine and replaces Enabled. Workflow, when set, is loaded first.
type CommitRequest struct {
	Workflow string
	Enabled  schema.EnabledSet
	Rule     string
	Engine   string
}

// CommitResult reports a committed selection and the snapshot it produced.
type CommitResult struct {
	Report   host.CommitReport `json:"report"`
	Snapshot *store.Snapshot   `json:"snapshot,omitempty"`
}

// session is one document opened on an in-memory node.
type session struct {
	doc  *store.Document
	node *host.MemoryNode
	ctrl *host.Controller
}

// Create stores a new document. A supplied workflow is parsed and snapshotted.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*store.Document, error) {
	node := host.NewMemoryNode()
	ctrl, err := host.Attach(node, nil, s.controllerOptions(ctx)...)
	if err != nil {
		return nil, err
	}
	if req.Endpoint != nil {
		if err := ctrl.SetEndpoint(*req.Endpoint); err != nil {
			return nil, err
		}
	}
	if req.Workflow != "" {
		if _, err := ctrl.LoadWorkflow(ctx, strings.NewReader(req.Workflow)); err != nil {
			return nil, err
		}
		ctrl.Serialize()
	}

	doc := &store.Document{Name: req.Name, Fields: node.Fields()}
	if err := s.store.CreateDocument(ctx, doc); err != nil {
		return nil, err
	}
	ctx = logging.WithDocumentID(ctx, doc.ID)
	logging.LogWith(ctx, s.logger).Info("document created", slog.String("name", doc.Name))

	if _, err := s.history.Record(ctx, doc.ID, doc.Fields[host.FieldSavedState]); err != nil {
		return nil, err
	}
	return doc, nil
}

// Show replays a document and returns its current model and ports.
func (s *Service) Show(ctx context.Context, id string) (*View, error) {
	ss, err := s.open(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ss), nil
}

// Commit applies a selection to a document, persists its fields and records a
// snapshot.
func (s *Service) Commit(ctx context.Context, id string, req CommitRequest) (*CommitResult, error) {
	ctx = logging.WithDocumentID(ctx, id)
	ss, err := s.open(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Workflow != "" {
		if _, err := ss.ctrl.LoadWorkflow(ctx, strings.NewReader(req.Workflow)); err != nil {
			return nil, err
		}
	}

	enabled := req.Enabled
	if req.Rule != "" {
		engine, err := expressions.ForName(req.Engine)
		if err != nil {
			return nil, err
		}
		m := ss.ctrl.Model()
		enabled, err = expressions.Select(ctx, engine, req.Rule, m.Nodes, m.Outputs)
		if err != nil {
			return nil, err
		}
	}
	if enabled == nil {
		enabled = ss.ctrl.Draft()
	}

	report, err := ss.ctrl.Commit(enabled)
	if err != nil {
		return nil, err
	}

	fields := ss.node.Fields()
	if err := s.store.UpdateFields(ctx, id, fields); err != nil {
		return nil, err
	}
	snap, err := s.history.Record(ctx, id, fields[host.FieldSavedState])
	if err != nil {
		return nil, err
	}
	for _, p := range report.Ports {
		s.logger.DebugContext(logging.WithIDs(ctx, id, p.NodeID), "port bound",
			slog.String("port", p.Name), slog.String("wire", string(p.WireType)))
	}
	return &CommitResult{Report: report, Snapshot: snap}, nil
}

// List returns stored documents, most recently updated first.
func (s *Service) List(ctx context.Context, filter store.DocumentFilter) ([]*store.Document, error) {
	return s.store.ListDocuments(ctx, filter)
}

// Delete removes a document and its snapshots.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteDocument(ctx, id); err != nil {
		return err
	}
	logging.LogWith(logging.WithDocumentID(ctx, id), s.logger).Info("document deleted")
	return nil
}

// Snapshot returns one snapshot of a document: the newest when sequence <= 0.
func (s *Service) Snapshot(ctx context.Context, id string, sequence int64) (*store.Snapshot, error) {
	if _, err := s.store.GetDocument(ctx, id); err != nil {
		return nil, err
	}
	if sequence <= 0 {
		return s.history.Latest(ctx, id)
	}
	return s.history.At(ctx, id, sequence)
}

// History lists a document's snapshots, newest first.
func (s *Service) History(ctx context.Context, id string, limit int) ([]*store.Snapshot, error) {
	if _, err := s.store.GetDocument(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListSnapshots(ctx, id, limit)
}

func (s *Service) open(ctx context.Context, id string) (*session, error) {
	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	ctx = logging.WithDocumentID(ctx, id)

	node := host.NewMemoryNodeWithFields(doc.Fields)
	lc := &host.Lifecycle{}
	ctrl, err := host.Attach(node, lc, s.controllerOptions(ctx)...)
	if err != nil {
		return nil, err
	}
	lc.Configure()
	return &session{doc: doc, node: node, ctrl: ctrl}, nil
}

func (s *Service) view(ss *session) *View {
	m := ss.ctrl.Model()
	v := &View{
		Document: ss.doc,
		Summary:  workflow.Summarize(m.Nodes, m.Outputs),
		Nodes:    m.Nodes,
		Enabled:  m.Enabled,
		Ports:    ss.ctrl.Ports(),
	}
	if e, err := ss.ctrl.Endpoint(); err == nil {
		v.Endpoint = e.Masked()
	}
	return v
}

func (s *Service) controllerOptions(ctx context.Context) []host.Option {
	opts := []host.Option{host.WithLogger(logging.LogWith(ctx, s.logger))}
	if s.now != nil {
		opts = append(opts, host.WithClock(s.now))
	}
	return opts
}
