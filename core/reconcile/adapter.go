package reconcile

import (
	"context"

	"asset-pipeline/core/asset"
)

// Adapter provides resource state to the engine and applies its decisions.
type Adapter interface {
	// Name returns the adapter name used in errors.
	Name() string

	// LoadEntries returns every resource that is uploaded or carries a RemoteURL.
	LoadEntries(ctx context.Context) ([]Entry, error)

	// Reset clears UploadStatus, UploadedHash, RemoteURL and LastUploadedAt.
	Reset(ctx context.Context, ref asset.Ref) error
}

// BatchResetter is implemented by adapters that can reset many resources at once.
type BatchResetter interface {
	ResetBatch(ctx context.Context, refs []asset.Ref) error
}

// History retains records of uploads whose remote object disappeared.
type History interface {
	// MarkRemoved flags records whose normalized remote path is in paths and
	// returns how many changed.
	MarkRemoved(ctx context.Context, paths map[string]struct{}) (int, error)
}

// Spec bundles the collaborators of a reconciliation run.
type Spec struct {
	// Adapter supplies and mutates resource state.
	Adapter Adapter

	// History is optional.
	History History
}
