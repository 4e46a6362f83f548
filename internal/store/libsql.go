package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/tursodatabase/go-libsql"

	"github.com/rendis/remoteflow/pkg/schema"
)

// LibSQLStore implements the Store interface using libSQL (embedded SQLite fork).
type LibSQLStore struct {
	db *sql.DB
}

// NewLibSQLStore opens a libSQL database at the given path and returns a Store.
// The path should be a file URI, e.g. "file:/path/to/db.db".
func NewLibSQLStore(dbPath string) (*LibSQLStore, error) {
	db, err := sql.Open("libsql", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open libsql: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Some PRAGMAs return rows so we use QueryRow.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}
	for _, p := range pragmas {
		var result string
		_ = db.QueryRow(p).Scan(&result)
	}

	return &LibSQLStore{db: db}, nil
}

// DB returns the underlying *sql.DB.
func (s *LibSQLStore) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *LibSQLStore) Close() error { return s.db.Close() }

// Migrate runs all pending database migrations.
func (s *LibSQLStore) Migrate(ctx context.Context) error {
	return runMigrations(ctx, s.db)
}

// --- Documents ---

// CreateDocument inserts doc, assigning an ID and timestamps when unset.
func (s *LibSQLStore) CreateDocument(ctx context.Context, doc *Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.Fields == nil {
		doc.Fields = map[string]string{}
	}
	fields, err := json.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	doc.CreatedAt = timeOrNow(doc.CreatedAt)
	doc.UpdatedAt = timeOrNow(doc.UpdatedAt)

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (id, name, fields, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		doc.ID, doc.Name, string(fields), doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return storeError("create document", err)
	}
	return nil
}

func (s *LibSQLStore) GetDocument(ctx context.Context, id string) (*Document, error) {
	d := &Document{}
	var fields string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, fields, created_at, updated_at FROM documents WHERE id = ?`, id,
	).Scan(&d.ID, &d.Name, &fields, &d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, storeNotFound("document", id)
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(fields), &d.Fields); err != nil {
		return nil, fmt.Errorf("unmarshal fields: %w", err)
	}
	return d, nil
}

// UpdateFields replaces the stored fields of a document.
func (s *LibSQLStore) UpdateFields(ctx context.Context, id string, fields map[string]string) error {
	if fields == nil {
		fields = map[string]string{}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET fields = ?, updated_at = ? WHERE id = ?`,
		string(data), time.Now().UTC(), id,
	)
	if err != nil {
		return storeError("update document", err)
	}
	return checkRowsAffected(res, "document", id)
}

func (s *LibSQLStore) ListDocuments(ctx context.Context, filter DocumentFilter) ([]*Document, error) {
	query := `SELECT id, name, fields, created_at, updated_at FROM documents`
	var where []string
	var args []any

	if filter.Name != "" {
		where = append(where, "name = ?")
		args = append(args, filter.Name)
	}
	if filter.Since != nil {
		where = append(where, "updated_at >= ?")
		args = append(args, filter.Since.UTC())
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY updated_at DESC, id"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		d := &Document{}
		var fields string
		if err := rows.Scan(&d.ID, &d.Name, &fields, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(fields), &d.Fields); err != nil {
			return nil, fmt.Errorf("unmarshal fields of %s: %w", d.ID, err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// DeleteDocument removes a document together with its snapshots.
func (s *LibSQLStore) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return storeError("delete document", err)
	}
	return checkRowsAffected(res, "document", id)
}

// --- Snapshots ---

// AppendSnapshot stores snap with the next per-document sequence number.
func (s *LibSQLStore) AppendSnapshot(ctx context.Context, snap *Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE id = ?`, snap.DocumentID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check document: %w", err)
	}
	if exists == 0 {
		return storeNotFound("document", snap.DocumentID)
	}

	var seq int64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sequence), 0) + 1 FROM snapshots WHERE document_id = ?`, snap.DocumentID,
	).Scan(&seq)
	if err != nil {
		return fmt.Errorf("get next sequence: %w", err)
	}
	snap.Sequence = seq
	snap.CreatedAt = timeOrNow(snap.CreatedAt)

	res, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (document_id, sequence, state, node_count, enabled_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		snap.DocumentID, seq, snap.State, snap.NodeCount, snap.EnabledCount, snap.CreatedAt,
	)
	if err != nil {
		return storeError("insert snapshot", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		snap.ID = id
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// ListSnapshots returns a document's snapshots, newest first. limit <= 0 means all.
func (s *LibSQLStore) ListSnapshots(ctx context.Context, documentID string, limit int) ([]*Snapshot, error) {
	query := `SELECT id, document_id, sequence, state, node_count, enabled_count, created_at
		FROM snapshots WHERE document_id = ? ORDER BY sequence DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []*Snapshot
	for rows.Next() {
		sn := &Snapshot{}
		if err := rows.Scan(&sn.ID, &sn.DocumentID, &sn.Sequence, &sn.State, &sn.NodeCount, &sn.EnabledCount, &sn.CreatedAt); err != nil {
			return nil, err
		}
		snaps = append(snaps, sn)
	}
	return snaps, rows.Err()
}

// PruneSnapshots deletes snapshots created before the cutoff, always sparing the
// newest keep snapshots of each document. It returns the number deleted.
func (s *LibSQLStore) PruneSnapshots(ctx context.Context, before time.Time, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM snapshots
		 WHERE created_at < ?
		   AND id NOT IN (
		     SELECT id FROM (
		       SELECT id, ROW_NUMBER() OVER (PARTITION BY document_id ORDER BY sequence DESC) AS rn
		       FROM snapshots
		     ) WHERE rn <= ?
		   )`,
		before.UTC(), keep,
	)
	if err != nil {
		return 0, storeError("prune snapshots", err)
	}
	return res.RowsAffected()
}

// --- Helpers ---

func storeNotFound(resource, id string) *schema.Error {
	return schema.NewErrorf(schema.ErrCodeNotFound, "%s %q not found", resource, id)
}

func storeError(op string, err error) *schema.Error {
	return schema.NewErrorf(schema.ErrCodeStore, "%s: %s", op, err.Error()).WithCause(err)
}

func checkRowsAffected(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storeNotFound(resource, id)
	}
	return nil
}

func timeOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

var _ Store = (*LibSQLStore)(nil)
