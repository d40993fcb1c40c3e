package assetsync

import (
	"context"
	"errors"
	"io/fs"
	"time"

	"asset-pipeline/core/apperror"
	"asset-pipeline/core/asset"
	"asset-pipeline/core/ledger"
	"asset-pipeline/core/mapping"
	"asset-pipeline/core/reconcile"
	"asset-pipeline/feature/catalog"
	"asset-pipeline/feature/upload"

	"go.uber.org/zap"
)

// Correlation counts what Correlate changed.
type Correlation struct {
	// Promoted counts resources marked uploaded.
	Promoted int `json:"promoted"`
	// Errored counts resources whose upload failed.
	Errored int `json:"errored"`
	// Attributed counts secondary files, such as model LODs, recorded in the
	// ledger without touching the resource's upload state.
	Attributed int `json:"attributed"`
	// Unmatched counts results with no resource in the mapping.
	Unmatched int `json:"unmatched"`
	// Cancelled counts files that were never started.
	Cancelled int `json:"cancelled"`
	// Skipped is true when the mapping could not be used.
	Skipped bool `json:"skipped"`
}

// Correlator promotes resources after their files reach the bucket.
type Correlator struct {
	catalog *catalog.Catalog
	ledger  *ledger.Ledger
	logger  *zap.Logger
	now     func() time.Time
}

// NewCorrelator creates a correlator.
func NewCorrelator(c *catalog.Catalog, l *ledger.Ledger, logger *zap.Logger) *Correlator {
	return &Correlator{catalog: c, ledger: l, logger: logger, now: time.Now}
}

// Correlate matches results against serverRoot/mapping.json. A missing or
// malformed mapping skips correlation; it never fails the upload.
func (c *Correlator) Correlate(ctx context.Context, serverRoot string, results []upload.FileResult) (Correlation, error) {
	var out Correlation

	doc, err := mapping.Load(mapping.Path(serverRoot))
	if err != nil {
		out.Skipped = true
		switch {
		case apperror.Is(err, apperror.KindParse):
			c.logger.Error("Mapping unreadable, skipping correlation", zap.String("server_root", serverRoot), zap.Error(err))
		case errors.Is(err, fs.ErrNotExist):
			c.logger.Warn("No mapping document, skipping correlation", zap.String("server_root", serverRoot))
		default:
			c.logger.Error("Mapping load failed, skipping correlation", zap.String("server_root", serverRoot), zap.Error(err))
		}
		return out, nil
	}
	idx := reconcile.BuildReverseIndex(doc)

	at := c.now().UTC()
	for _, res := range results {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		entry, ok := idx.Lookup(res.RemotePath)
		if !ok {
			out.Unmatched++
			continue
		}
		ref := entry.Ref

		switch {
		case res.WasCancelled():
			out.Cancelled++
			continue
		case !res.Success:
			if err := c.catalog.MarkError(ctx, ref); err != nil {
				return out, err
			}
			out.Errored++
			continue
		case !entry.Primary:
			// RemoteURL and UploadedHash always describe the primary artifact.
			if err := c.attribute(res.RemotePath, ref); err != nil {
				c.logger.Warn("Ledger attribution failed", zap.String("remote", res.RemotePath), zap.Error(err))
			}
			out.Attributed++
			continue
		}

		if err := c.catalog.MarkUploaded(ctx, ref, res.ContentHash, res.CdnURL, at); err != nil {
			if apperror.Is(err, apperror.KindNotFound) {
				c.logger.Warn("Mapped resource missing from catalog", zap.String("ref", ref.String()), zap.String("remote", res.RemotePath))
				out.Unmatched++
				continue
			}
			return out, err
		}
		if err := c.attribute(res.RemotePath, ref); err != nil {
			c.logger.Warn("Ledger attribution failed", zap.String("remote", res.RemotePath), zap.Error(err))
		}
		out.Promoted++
	}

	c.logger.Info("Upload correlation finished",
		zap.Int("promoted", out.Promoted),
		zap.Int("errored", out.Errored),
		zap.Int("attributed", out.Attributed),
		zap.Int("unmatched", out.Unmatched),
		zap.Int("cancelled", out.Cancelled))
	return out, nil
}

// attribute attaches ref to the ledger record of remotePath.
func (c *Correlator) attribute(remotePath string, ref asset.Ref) error {
	rec, err := c.ledger.Query(remotePath)
	if err != nil || rec == nil {
		return err
	}
	if cur, ok := rec.Ref(); ok && cur == ref {
		return nil
	}
	return c.ledger.SaveUpload(rec.WithResource(ref))
}
