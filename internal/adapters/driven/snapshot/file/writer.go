// Package file publishes the query interface snapshot as a JSON file
// in the storage directory, where external processes can read the
// system state without opening the store.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/berrydev-ai/berry-rag/internal/core/domain"
	"github.com/berrydev-ai/berry-rag/internal/core/ports/driven"
)

// SnapshotFile is the published file name.
const SnapshotFile = "query_interface.json"

// Ensure Writer implements the interface.
var _ driven.SnapshotWriter = (*Writer)(nil)

// Writer publishes snapshots to <dir>/query_interface.json.
type Writer struct {
	dir string
}

// NewWriter creates a snapshot writer rooted at dir.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating snapshot directory: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// WriteSnapshot replaces the published snapshot. The write goes
// through a temp file and rename so readers never observe a partial
// document.
func (w *Writer) WriteSnapshot(_ context.Context, snapshot *domain.Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(w.dir, SnapshotFile+".tmp*")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing snapshot: %w", err)
	}

	if err := os.Rename(tmpName, filepath.Join(w.dir, SnapshotFile)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("publishing snapshot: %w", err)
	}
	return nil
}

// Path returns the published snapshot location.
func (w *Writer) Path() string {
	return filepath.Join(w.dir, SnapshotFile)
}
