package upload

import (
	"context"
	"sync"

	"asset-pipeline/core/reconcile"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

func (s *Service) metadataConcurrency() int64 {
	if s.storage.MetadataConcurrency <= 0 {
		return 8
	}
	return int64(s.storage.MetadataConcurrency)
}

// ResolveMetadata stats keys concurrently, at most storage.metadata_concurrency
// requests at a time. Missing objects are absent from the result. The error is
// non-nil only when ctx ended; the partial result is still returned.
func (s *Service) ResolveMetadata(ctx context.Context, keys []string) (map[string]ObjectMetadata, error) {
	sem := semaphore.NewWeighted(s.metadataConcurrency())
	out := make(map[string]ObjectMetadata, len(keys))

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, key := range keys {
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return out, err
		}
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			defer sem.Release(1)
			if obj, ok := s.statRemote(ctx, key); ok {
				mu.Lock()
				out[key] = obj
				mu.Unlock()
			}
		}(key)
	}
	wg.Wait()
	return out, ctx.Err()
}

// resolve prefetches metadata for a batch.
func (s *Service) resolve(ctx context.Context, keys []string) map[string]ObjectMetadata {
	objs, err := s.ResolveMetadata(ctx, keys)
	if err != nil {
		s.logger.Debug("Metadata resolution interrupted", zap.Int("resolved", len(objs)), zap.Error(err))
	}
	return objs
}

// ListRemote enumerates every object under prefix. The listing is Complete only
// when the enumeration drained without error.
func (s *Service) ListRemote(ctx context.Context, prefix string) (reconcile.ServerListing, error) {
	if err := s.requireAuth(); err != nil {
		return reconcile.ServerListing{}, err
	}

	listing := reconcile.ServerListing{Paths: []string{}}
	for obj := range s.client.ListObjects(ctx, s.storage.Bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			s.logger.Warn("Listing interrupted", zap.String("prefix", prefix), zap.Error(obj.Err))
			return listing, obj.Err
		}
		listing.Paths = append(listing.Paths, obj.Key)
	}
	if err := ctx.Err(); err != nil {
		return listing, err
	}
	listing.Complete = true
	return listing, nil
}
