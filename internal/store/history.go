package store

import (
	"context"
	"fmt"
	"time"

	"github.com/rendis/remoteflow/internal/state"
	"github.com/rendis/remoteflow/pkg/schema"
)

// History records the saved_state strings a document goes through.
type History struct {
	store Store
	now   state.Clock
}

// NewHistory wraps a Store. A nil clock uses time.Now.
func NewHistory(s Store, now state.Clock) *History {
	if now == nil {
		now = time.Now
	}
	return &History{store: s, now: now}
}

// Record appends stateText as the document's next snapshot. Empty and sentinel
// states are skipped and return nil.
func (h *History) Record(ctx context.Context, documentID, stateText string) (*Snapshot, error) {
	if stateText == "" || stateText == schema.EmptyState {
		return nil, nil
	}

	m, _ := state.Restore("", stateText)
	snap := &Snapshot{
		DocumentID:   documentID,
		State:        stateText,
		NodeCount:    len(m.Nodes),
		EnabledCount: m.Enabled.Count(m.Nodes),
		CreatedAt:    h.now(),
	}
	if err := h.store.AppendSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("record snapshot: %w", err)
	}
	return snap, nil
}

// Latest returns the newest snapshot of a document.
func (h *History) Latest(ctx context.Context, documentID string) (*Snapshot, error) {
	snaps, err := h.store.ListSnapshots(ctx, documentID, 1)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, schema.NewErrorf(schema.ErrCodeNotFound, "document %q has no snapshots", documentID)
	}
	return snaps[0], nil
}

// At returns the snapshot with the given sequence number.
func (h *History) At(ctx context.Context, documentID string, sequence int64) (*Snapshot, error) {
	snaps, err := h.store.ListSnapshots(ctx, documentID, 0)
	if err != nil {
		return nil, err
	}
	for _, s := range snaps {
		if s.Sequence == sequence {
			return s, nil
		}
	}
	return nil, schema.NewErrorf(schema.ErrCodeNotFound, "document %q has no snapshot %d", documentID, sequence)
}
