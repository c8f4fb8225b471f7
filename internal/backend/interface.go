package backend

import (
	"context"

	"holdings/internal/core"
	"holdings/internal/source"
)

// Backend is the holdings source the services read from and write to.
type Backend interface {
	source.Source
}

// SnapshotStore persists point-in-time balance sheet totals.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, s core.Snapshot) (core.Snapshot, error)
	ListSnapshots(ctx context.Context, limit int) ([]core.Snapshot, error)
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function.
// Snapshots is nil when no SQLite path is configured.
type BackendResult struct {
	Backend   Backend
	Snapshots SnapshotStore
	Cleanup   CleanupFunc
}

// Close runs Cleanup when set.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}
