package documents

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/remoteflow/internal/host"
	"github.com/rendis/remoteflow/internal/logging"
	"github.com/rendis/remoteflow/internal/store"
	"github.com/rendis/remoteflow/pkg/schema"
)

const sampleWorkflow = `{
  "3":  {"class_type": "LoadImage", "inputs": {"image": "a.png"}},
  "7":  {"class_type": "LoadImage", "inputs": {"image": "b.png"}},
  "12": {"class_type": "CR Prompt Text", "inputs": {"prompt": "hi"}},
  "21": {"class_type": "SaveImage", "inputs": {}}
}`

var fixedNow = time.Date(2024, 4, 5, 10, 30, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *store.LibSQLStore) {
	t.Helper()
	s, err := store.NewLibSQLStore("file:" + filepath.Join(t.TempDir(), "docs.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return NewService(s, func() time.Time { return fixedNow }, nil), s
}

func TestCreate_WithWorkflow(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	doc, err := svc.Create(ctx, CreateRequest{
		Name:     "portrait",
		Workflow: sampleWorkflow,
		Endpoint: &host.Endpoint{Host: "10.1.2.3", Port: 9000},
	})
	require.NoError(t, err)

	assert.Equal(t, sampleWorkflow, doc.Fields[host.FieldWorkflowFile])
	assert.Equal(t, "10.1.2.3", doc.Fields[host.FieldRemoteIP])
	assert.Equal(t, "9000", doc.Fields[host.FieldRemotePort])

	snaps, err := st.ListSnapshots(ctx, doc.ID, 0)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, 3, snaps[0].NodeCount)
	assert.Zero(t, snaps[0].EnabledCount)
}

func TestCreate_Empty(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	doc, err := svc.Create(ctx, CreateRequest{Name: "blank"})
	require.NoError(t, err)
	assert.Equal(t, schema.EmptyState, doc.Fields[host.FieldSavedState])
	assert.Equal(t, host.DefaultRemoteIP, doc.Fields[host.FieldRemoteIP])

	snaps, err := st.ListSnapshots(ctx, doc.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, snaps)
}

func TestCreate_BadInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateRequest{Name: "x", Workflow: `[1,2]`})
	assert.Error(t, err)

	_, err = svc.Create(ctx, CreateRequest{Name: "x", Endpoint: &host.Endpoint{Host: "10.0.0.1", Port: 0}})
	assert.True(t, schema.HasCode(err, schema.ErrCodeValidation))
}

func TestShow(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	doc, err := svc.Create(ctx, CreateRequest{Name: "p", Workflow: sampleWorkflow})
	require.NoError(t, err)

	v, err := svc.Show(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, v.Summary.Total)
	assert.Len(t, v.Nodes, 3)
	assert.Empty(t, v.Ports)
	assert.Equal(t, "192.***.***.100:****", v.Endpoint)

	_, err = svc.Show(ctx, "missing")
	assert.True(t, schema.HasCode(err, schema.ErrCodeNotFound))
}

func TestCommit_Explicit(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	doc, err := svc.Create(ctx, CreateRequest{Name: "p", Workflow: sampleWorkflow})
	require.NoError(t, err)

	res, err := svc.Commit(ctx, doc.ID, CommitRequest{Enabled: schema.EnabledSet{"7": true, "12": true}})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Report.Enabled)
	require.NotNil(t, res.Snapshot)
	assert.Equal(t, int64(2), res.Snapshot.Sequence)
	assert.Equal(t, 2, res.Snapshot.EnabledCount)

	stored, err := st.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"7":"image","12":"text"}`, stored.Fields[host.FieldSelectedNodes])

	v, err := svc.Show(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, v.Ports, 2)
	assert.Equal(t, "image_1", v.Ports[0].Name)
	assert.Equal(t, "7", v.Ports[0].NodeID)
}

func TestCommit_Rule(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	doc, err := svc.Create(ctx, CreateRequest{Name: "p", Workflow: sampleWorkflow})
	require.NoError(t, err)

	res, err := svc.Commit(ctx, doc.ID, CommitRequest{Rule: `node.category == "image"`})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Report.Counts[schema.CategoryImage])
	assert.Zero(t, res.Report.Counts[schema.CategoryText])

	_, err = svc.Commit(ctx, doc.ID, CommitRequest{Rule: `.node.id == "12"`, Engine: "jq"})
	require.NoError(t, err)
	v, err := svc.Show(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, v.Ports, 1)
	assert.Equal(t, "text_1", v.Ports[0].Name)
}

func TestCommit_EmptySelectionLeavesDocument(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	doc, err := svc.Create(ctx, CreateRequest{Name: "p", Workflow: sampleWorkflow})
	require.NoError(t, err)

	_, err = svc.Commit(ctx, doc.ID, CommitRequest{})
	assert.True(t, schema.HasCode(err, schema.ErrCodeEmptySelection))

	stored, err := st.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.Fields, stored.Fields)

	history, err := svc.History(ctx, doc.ID, 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestCommit_NewWorkflow(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	doc, err := svc.Create(ctx, CreateRequest{Name: "p"})
	require.NoError(t, err)

	res, err := svc.Commit(ctx, doc.ID, CommitRequest{
		Workflow: `{"5": {"class_type": "LoadAudio"}}`,
		Enabled:  schema.EnabledSet{"5": true},
	})
	require.NoError(t, err)
	require.Len(t, res.Report.Ports, 1)
	assert.Equal(t, schema.WireAudio, res.Report.Ports[0].WireType)
}

func TestHistory_Missing(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.History(context.Background(), "missing", 5)
	assert.True(t, schema.HasCode(err, schema.ErrCodeNotFound))
}

func TestListAndDelete(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, CreateRequest{Name: "a", Workflow: sampleWorkflow})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateRequest{Name: "b"})
	require.NoError(t, err)

	docs, err := svc.List(ctx, store.DocumentFilter{})
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	docs, err = svc.List(ctx, store.DocumentFilter{Name: "a"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, a.ID, docs[0].ID)

	require.NoError(t, svc.Delete(ctx, a.ID))
	_, err = svc.Show(ctx, a.ID)
	assert.True(t, schema.HasCode(err, schema.ErrCodeNotFound))
	snaps, err := st.ListSnapshots(ctx, a.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, snaps)

	assert.True(t, schema.HasCode(svc.Delete(ctx, a.ID), schema.ErrCodeNotFound))
}

func TestSnapshot(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	doc, err := svc.Create(ctx, CreateRequest{Name: "p", Workflow: sampleWorkflow})
	require.NoError(t, err)
	_, err = svc.Commit(ctx, doc.ID, CommitRequest{Enabled: schema.EnabledSet{"3": true}})
	require.NoError(t, err)

	latest, err := svc.Snapshot(ctx, doc.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), latest.Sequence)
	assert.Equal(t, 1, latest.EnabledCount)

	first, err := svc.Snapshot(ctx, doc.ID, 1)
	require.NoError(t, err)
	assert.Zero(t, first.EnabledCount)

	_, err = svc.Snapshot(ctx, doc.ID, 9)
	assert.True(t, schema.HasCode(err, schema.ErrCodeNotFound))
	_, err = svc.Snapshot(ctx, "missing", 0)
	assert.True(t, schema.HasCode(err, schema.ErrCodeNotFound))
}

func TestCommit_LogsNodeCorrelation(t *testing.T) {
	_, st := newTestService(t)
	var buf bytes.Buffer
	svc := NewService(st, func() time.Time { return fixedNow }, logging.New(&buf, "debug", true))
	ctx := context.Background()

	doc, err := svc.Create(ctx, CreateRequest{Name: "p", Workflow: sampleWorkflow})
	require.NoError(t, err)
	_, err = svc.Commit(ctx, doc.ID, CommitRequest{Enabled: schema.EnabledSet{"12": true}})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"msg":"port bound"`)
	assert.Contains(t, out, `"node_id":"12"`)
	assert.Contains(t, out, `"document_id":"`+doc.ID+`"`)
}
