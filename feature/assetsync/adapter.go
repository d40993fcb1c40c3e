package assetsync

import (
	"context"

	"asset-pipeline/core/asset"
	"asset-pipeline/core/reconcile"
	"asset-pipeline/feature/catalog"
)

// CatalogAdapter exposes catalog resources to the reconcile engine.
type CatalogAdapter struct {
	catalog *catalog.Catalog
}

// NewCatalogAdapter creates an adapter over c.
func NewCatalogAdapter(c *catalog.Catalog) *CatalogAdapter {
	return &CatalogAdapter{catalog: c}
}

// Name implements reconcile.Adapter.
func (a *CatalogAdapter) Name() string { return "catalog" }

// LoadEntries returns every resource that is uploaded or still carries a remote URL.
func (a *CatalogAdapter) LoadEntries(ctx context.Context) ([]reconcile.Entry, error) {
	snap, err := a.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	var entries []reconcile.Entry
	snap.Each(func(ref asset.Ref, r catalog.Resource) {
		if r.UploadStatus != asset.StatusUploaded && r.RemoteURL == "" {
			return
		}
		entries = append(entries, reconcile.Entry{
			Ref:       ref,
			Name:      r.Name,
			RemoteURL: r.RemoteURL,
			Status:    r.UploadStatus,
		})
	})
	return entries, nil
}

// Reset implements reconcile.Adapter.
func (a *CatalogAdapter) Reset(ctx context.Context, ref asset.Ref) error {
	return a.catalog.Reset(ctx, ref)
}

// ResetBatch resets all refs in a single catalog transaction.
func (a *CatalogAdapter) ResetBatch(ctx context.Context, refs []asset.Ref) error {
	return a.catalog.Reset(ctx, refs...)
}

var (
	_ reconcile.Adapter       = (*CatalogAdapter)(nil)
	_ reconcile.BatchResetter = (*CatalogAdapter)(nil)
)
