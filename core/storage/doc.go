// Package storage provides an abstraction layer for the remote object bucket.
//
// It wraps the MinIO Go client so any S3-compatible provider (MinIO, Backblaze B2,
// AWS S3) can hold the published pipeline artifacts.
//
// # Client Interface
//
// The Client interface abstracts the underlying provider, making it easy to mock
// storage interactions in unit tests (see core/storage/mocks).
//
// # Operations
//
//   - BucketExists: verifies credentials and bucket access (authorization).
//   - PutObject: uploads content with user metadata (content hash).
//   - StatObject: reads an object's metadata for hash-based deduplication.
//   - ListObjects: enumerates objects under a project prefix.
//   - RemoveObject: deletes a single object.
//
// # Usage
//
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//	client, err := storage.NewClient(cfg)
//	exists, err := client.BucketExists(ctx, cfg.Bucket)
package storage
