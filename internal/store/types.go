package store

import "time"

// Document is a host node persisted outside a live editor: its named fields.
type Document struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Fields    map[string]string `json:"fields"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Snapshot is one saved_state written for a document. Sequence increases by one
// per document; pruning may leave gaps at the old end.
type Snapshot struct {
	ID           int64     `json:"id"`
	DocumentID   string    `json:"document_id"`
	Sequence     int64     `json:"sequence"`
	State        string    `json:"state"`
	NodeCount    int       `json:"node_count"`
	EnabledCount int       `json:"enabled_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// DocumentFilter specifies criteria for listing documents.
type DocumentFilter struct {
	Name   string     `json:"name,omitempty"`
	Since  *time.Time `json:"since,omitempty"`
	Limit  int        `json:"limit,omitempty"`
	Offset int        `json:"offset,omitempty"`
}
