package driven

import (
	"context"

	"github.com/berrydev-ai/berry-rag/internal/core/domain"
)

// SnapshotWriter publishes a state summary for external consumers.
// Publishing is best-effort; a failed publish never fails the
// operation that triggered it.
type SnapshotWriter interface {
	// WriteSnapshot replaces the previously published snapshot.
	WriteSnapshot(ctx context.Context, snapshot *domain.Snapshot) error
}
