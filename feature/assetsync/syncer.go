package assetsync

import (
	"context"
	"fmt"

	"asset-pipeline/core/reconcile"
	"asset-pipeline/core/utils"

	"go.uber.org/zap"
)

// Lister enumerates remote objects under a prefix.
type Lister interface {
	ListRemote(ctx context.Context, prefix string) (reconcile.ServerListing, error)
}

// Syncer runs the reconcile entry points for one project.
type Syncer struct {
	spec   *reconcile.Spec
	lister Lister
	cache  *reconcile.ListingCache
	prefix string
	logger *zap.Logger
}

// NewSyncer creates a syncer. Listings are cached for cfg.ListingCacheTTL.
func NewSyncer(adapter reconcile.Adapter, history reconcile.History, lister Lister, project string, cfg Config, logger *zap.Logger) *Syncer {
	return &Syncer{
		spec:   &reconcile.Spec{Adapter: adapter, History: history},
		lister: lister,
		cache:  reconcile.NewListingCache(cfg.ListingCacheTTL),
		prefix: projectPrefix(project),
		logger: logger,
	}
}

// Refresh reconciles the catalog against the current bucket listing.
// An incomplete listing mutates nothing and returns reconcile.ErrIncompleteListing.
func (s *Syncer) Refresh(ctx context.Context) (reconcile.Report, error) {
	listing, err := s.cache.Get(ctx, s.prefix, s.lister.ListRemote)
	if err != nil {
		s.logger.Warn("Remote listing failed, skipping reconciliation", zap.String("prefix", s.prefix), zap.Error(err))
		return reconcile.Report{}, fmt.Errorf("%w: %w", reconcile.ErrIncompleteListing, err)
	}

	report, err := reconcile.OnServerListingRefreshed(ctx, s.spec, listing)
	if err != nil {
		s.logger.Error("Listing reconciliation failed", zap.Error(err))
		return report, err
	}
	s.logger.Info("Listing reconciled",
		zap.Int("objects", len(listing.Paths)),
		zap.Int("verified", report.Verified),
		zap.Int("reset", report.Reset),
		zap.Int("removed", report.Removed))
	return report, nil
}

// Deleted reconciles after the given remote paths were deleted.
func (s *Syncer) Deleted(ctx context.Context, paths []string) (reconcile.Report, error) {
	s.cache.Invalidate(s.prefix)
	report, err := reconcile.OnExplicitDeletion(ctx, s.spec, paths)
	if err != nil {
		s.logger.Error("Deletion reconciliation failed", zap.Strings("paths", paths), zap.Error(err))
		return report, err
	}
	s.logger.Info("Deletion reconciled", zap.Int("paths", len(paths)), zap.Int("reset", report.Reset), zap.Int("removed", report.Removed))
	return report, nil
}

// Invalidate drops the cached listing after the bucket changed.
func (s *Syncer) Invalidate() {
	s.cache.Invalidate(s.prefix)
}

func projectPrefix(project string) string {
	if p := utils.JoinKey(project); p != "" {
		return p + "/"
	}
	return ""
}
