// Package store persists host documents and their saved-state history in libSQL.
package store

import (
	"context"
	"time"
)

// Store defines the persistence layer contract.
// All implementations must be safe for concurrent use.
type Store interface {
	// Documents
	CreateDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, id string) (*Document, error)
	UpdateFields(ctx context.Context, id string, fields map[string]string) error
	ListDocuments(ctx context.Context, filter DocumentFilter) ([]*Document, error)
	DeleteDocument(ctx context.Context, id string) error

	// Snapshots (append-only)
	AppendSnapshot(ctx context.Context, snap *Snapshot) error
	ListSnapshots(ctx context.Context, documentID string, limit int) ([]*Snapshot, error)
	PruneSnapshots(ctx context.Context, before time.Time, keep int) (int64, error)

	// Maintenance
	Migrate(ctx context.Context) error

	// Lifecycle
	Close() error
}
