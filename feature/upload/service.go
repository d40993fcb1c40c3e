package upload

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"asset-pipeline/core/apperror"
	"asset-pipeline/core/ledger"
	"asset-pipeline/core/mapping"
	"asset-pipeline/core/storage"
	"asset-pipeline/core/utils"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// hashMetadataKey is the user metadata entry holding the content hash.
	hashMetadataKey = "sha256"
	// errCancelled marks files that were never started.
	errCancelled = "cancelled"
)

// contentTypes covers pipeline formats missing from the system mime table.
var contentTypes = map[string]string{
	".glb":  "model/gltf-binary",
	".gltf": "model/gltf+json",
	".ktx2": "image/ktx2",
	".json": "application/json",
	".bin":  "application/octet-stream",
}

// Service uploads files to the configured bucket.
type Service struct {
	client  storage.Client
	storage storage.Config
	cfg     Config
	ledger  Ledger
	logger  *zap.Logger

	authorized atomic.Bool
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewService creates an upload service.
func NewService(client storage.Client, storageCfg storage.Config, cfg Config, l Ledger, logger *zap.Logger) *Service {
	return &Service{
		client:  client,
		storage: storageCfg,
		cfg:     cfg,
		ledger:  l,
		logger:  logger,
		now:     time.Now,
		sleep:   sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Bucket returns the target bucket name.
func (s *Service) Bucket() string {
	return s.storage.Bucket
}

// Authorize validates credentials and performs the first round trip.
// Missing credentials fail before any network call.
func (s *Service) Authorize(ctx context.Context) error {
	if err := s.storage.Validate(); err != nil {
		return err
	}
	exists, err := s.client.BucketExists(ctx, s.storage.Bucket)
	if err != nil {
		s.authorized.Store(false)
		return apperror.Wrap(apperror.KindAuth, "authorize", err)
	}
	if !exists {
		s.authorized.Store(false)
		return apperror.Wrap(apperror.KindAuth, "authorize", fmt.Errorf("bucket %q not accessible", s.storage.Bucket))
	}
	s.authorized.Store(true)
	s.logger.Debug("Storage authorized", zap.String("bucket", s.storage.Bucket))
	return nil
}

func (s *Service) requireAuth() error {
	if !s.authorized.Load() {
		return apperror.New(apperror.KindAuth, "upload: not authorized")
	}
	return nil
}

// RemoteKey builds "{project}/{path relative to serverRoot}".
func RemoteKey(serverRoot, project, localPath string) (string, error) {
	rel, err := filepath.Rel(serverRoot, localPath)
	if err != nil {
		return "", fmt.Errorf("relative path of %s: %w", localPath, err)
	}
	rel = utils.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%s is outside server root %s", localPath, serverRoot)
	}
	return utils.JoinKey(project, rel), nil
}

// BuildPairs maps produced files to object keys. Files missing on disk, directories
// and files outside the server root are logged and excluded.
func (s *Service) BuildPairs(files []string, serverRoot, project string) []Pair {
	pairs := make([]Pair, 0, len(files))
	seen := make(map[string]struct{}, len(files))
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			s.logger.Warn("Skipping missing file", zap.String("path", f), zap.Error(err))
			continue
		}
		if info.IsDir() {
			continue
		}
		key, err := RemoteKey(serverRoot, project, f)
		if err != nil {
			s.logger.Warn("Skipping file outside server root", zap.String("path", f), zap.Error(err))
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		pairs = append(pairs, Pair{LocalPath: f, RemotePath: key})
	}
	return pairs
}

// UploadFiles uploads exactly the given files. It is the post-export path.
func (s *Service) UploadFiles(ctx context.Context, files []string, serverRoot, project string, progress ProgressFunc) (*BatchResult, error) {
	return s.UploadBatch(ctx, s.BuildPairs(files, serverRoot, project), progress)
}

// UploadMapping uploads serverRoot/mapping.json as "{project}/mapping.json".
func (s *Service) UploadMapping(ctx context.Context, serverRoot, project string) (FileResult, error) {
	return s.UploadFile(ctx, mapping.Path(serverRoot), utils.JoinKey(project, mapping.FileName), "application/json")
}

// UploadDirectory sweeps root and uploads files whose base name matches pattern.
// It is meant for full re-syncs, never for uploading an export's output.
func (s *Service) UploadDirectory(ctx context.Context, root, projectPrefix, pattern string, recursive bool, progress ProgressFunc) (*BatchResult, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	if pattern == "" {
		pattern = "*"
	}
	if _, err := filepath.Match(pattern, "x"); err != nil {
		return nil, apperror.Configuration("bad file pattern %q: %v", pattern, err)
	}

	var pairs []Pair
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if path != root && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if ok, _ := filepath.Match(pattern, d.Name()); !ok {
			return nil
		}
		key, err := RemoteKey(root, projectPrefix, path)
		if err != nil {
			return err
		}
		pairs = append(pairs, Pair{LocalPath: path, RemotePath: key})
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("sweep %s: %w", root, err)
	}

	s.logger.Info("Directory sweep", zap.String("root", root), zap.String("pattern", pattern), zap.Int("files", len(pairs)))
	return s.UploadBatch(ctx, pairs, progress)
}

// UploadBatch uploads pairs with bounded concurrency. A failing file never aborts
// the batch; files not started before ctx ends are counted as cancelled.
func (s *Service) UploadBatch(ctx context.Context, pairs []Pair, progress ProgressFunc) (*BatchResult, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}

	start := s.now()
	result := &BatchResult{Results: make([]FileResult, len(pairs))}
	total := len(pairs)

	keys := make([]string, len(pairs))
	for i, p := range pairs {
		keys[i] = p.RemotePath
	}
	remote := s.resolve(ctx, keys)

	var (
		mu        sync.Mutex
		completed int
	)
	g := new(errgroup.Group)
	g.SetLimit(s.cfg.concurrency())

	for i, pair := range pairs {
		i, pair := i, pair
		if ctx.Err() != nil {
			result.Results[i] = FileResult{LocalPath: pair.LocalPath, RemotePath: pair.RemotePath, Error: errCancelled}
			mu.Lock()
			result.Cancelled++
			mu.Unlock()
			continue
		}
		g.Go(func() error {
			var res FileResult
			if ctx.Err() != nil {
				res = FileResult{LocalPath: pair.LocalPath, RemotePath: pair.RemotePath, Error: errCancelled}
			} else {
				obj, known := remote[pair.RemotePath]
				res = s.transfer(ctx, pair, "", obj, known)
			}

			mu.Lock()
			defer mu.Unlock()
			result.Results[i] = res
			switch {
			case res.Error == errCancelled:
				result.Cancelled++
				return nil
			case res.Skipped:
				result.SkippedCount++
			case res.Success:
				result.SuccessCount++
			default:
				result.FailedCount++
			}
			completed++
			if progress != nil {
				progress(Progress{
					PercentComplete:  float64(completed) / float64(total) * 100,
					CurrentFile:      pair.RemotePath,
					CurrentFileIndex: completed,
					TotalFiles:       total,
				})
			}
			return nil
		})
	}
	_ = g.Wait()

	result.Duration = s.now().Sub(start)
	s.logger.Info("Upload batch finished",
		zap.Int("uploaded", result.SuccessCount),
		zap.Int("skipped", result.SkippedCount),
		zap.Int("failed", result.FailedCount),
		zap.Int("cancelled", result.Cancelled),
		zap.Duration("duration", result.Duration))
	return result, nil
}

// UploadFile uploads one file. An empty contentType is detected from the extension.
// The returned error is non-nil only when the service is not authorized; per-file
// failures are reported in the result.
func (s *Service) UploadFile(ctx context.Context, localPath, remotePath, contentType string) (FileResult, error) {
	if err := s.requireAuth(); err != nil {
		return FileResult{}, err
	}
	obj, known := s.statRemote(ctx, remotePath)
	return s.transfer(ctx, Pair{LocalPath: localPath, RemotePath: remotePath}, contentType, obj, known), nil
}

// transfer hashes, dedups and uploads one file.
func (s *Service) transfer(ctx context.Context, pair Pair, contentType string, remote ObjectMetadata, remoteKnown bool) FileResult {
	res := FileResult{LocalPath: pair.LocalPath, RemotePath: pair.RemotePath}
	log := s.logger.With(zap.String("path", pair.LocalPath), zap.String("remote", pair.RemotePath))

	hash, size, err := hashFile(pair.LocalPath)
	if err != nil {
		res.Error = err.Error()
		log.Error("Cannot read file", zap.Error(err))
		return res
	}
	res.ContentHash = hash
	res.ContentLength = size
	res.CdnURL = s.storage.PublicURL(pair.RemotePath)

	if remoteKnown && remote.Hash != "" && strings.EqualFold(remote.Hash, hash) {
		res.Success = true
		res.Skipped = true
		if err := s.recordVerified(pair, hash, size, res.CdnURL, remote); err != nil {
			log.Warn("Ledger verification update failed", zap.Error(err))
		}
		log.Debug("Unchanged, skipped")
		return res
	}

	if contentType == "" {
		contentType = detectContentType(pair.LocalPath)
	}

	var info minio.UploadInfo
	attempts := s.cfg.attempts()
	for attempt := 1; attempt <= attempts; attempt++ {
		res.Attempts = attempt
		info, err = s.put(ctx, pair, hash, size, contentType)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			break
		}
		err = apperror.Wrap(apperror.KindTransientIO, "put "+pair.RemotePath, err)
		log.Warn("Transfer attempt failed", zap.Int("attempt", attempt), zap.Int("max_attempts", attempts), zap.Error(err))
		if attempt < attempts {
			if sleepErr := s.sleep(ctx, s.cfg.RetryDelay); sleepErr != nil {
				break
			}
		}
	}
	if err != nil {
		err = apperror.Wrap(apperror.KindItemFailure, "upload "+pair.RemotePath, err)
		res.Error = err.Error()
		log.Error("Upload failed", zap.Error(err))
		return res
	}

	res.FileID = info.VersionID
	if res.FileID == "" {
		res.FileID = info.ETag
	}

	now := s.now().UTC()
	rec := ledger.Record{
		LocalPath:     pair.LocalPath,
		RemotePath:    pair.RemotePath,
		ContentHash:   hash,
		ContentLength: size,
		UploadedAt:    now,
		VerifiedAt:    now,
		CdnURL:        res.CdnURL,
		Status:        ledger.StatusUploaded,
		FileID:        res.FileID,
		ProjectName:   projectOf(pair.RemotePath),
	}
	if prev, _ := s.ledger.Query(pair.RemotePath); prev != nil {
		if ref, ok := prev.Ref(); ok {
			rec = rec.WithResource(ref)
		}
	}
	if err := s.ledger.SaveUpload(rec); err != nil {
		res.Error = err.Error()
		log.Error("Ledger write failed after transfer", zap.Error(err))
		return res
	}

	res.Success = true
	log.Debug("Uploaded", zap.Int64("bytes", size), zap.Int("attempts", res.Attempts))
	return res
}

// recordVerified refreshes VerifiedAt for an unchanged file. Hash and
// UploadedAt of an existing record are kept.
func (s *Service) recordVerified(pair Pair, hash string, size int64, cdnURL string, remote ObjectMetadata) error {
	now := s.now().UTC()
	prev, err := s.ledger.Query(pair.RemotePath)
	if err != nil {
		return err
	}
	if prev != nil && prev.ContentHash == hash {
		rec := *prev
		rec.VerifiedAt = now
		rec.Status = ledger.StatusUploaded
		return s.ledger.SaveUpload(rec)
	}

	uploadedAt := remote.LastModified.UTC()
	if uploadedAt.IsZero() {
		uploadedAt = now
	}
	rec := ledger.Record{
		LocalPath:     pair.LocalPath,
		RemotePath:    pair.RemotePath,
		ContentHash:   hash,
		ContentLength: size,
		UploadedAt:    uploadedAt,
		VerifiedAt:    now,
		CdnURL:        cdnURL,
		Status:        ledger.StatusUploaded,
		ProjectName:   projectOf(pair.RemotePath),
	}
	if prev != nil {
		rec.FileID = prev.FileID
		if ref, ok := prev.Ref(); ok {
			rec = rec.WithResource(ref)
		}
	}
	return s.ledger.SaveUpload(rec)
}

func (s *Service) put(ctx context.Context, pair Pair, hash string, size int64, contentType string) (minio.UploadInfo, error) {
	f, err := os.Open(pair.LocalPath)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	defer f.Close()

	return s.client.PutObject(ctx, s.storage.Bucket, pair.RemotePath, f, size, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{hashMetadataKey: hash},
	})
}

// statRemote fetches dedup metadata. Any failure means "unknown" and the file is uploaded.
func (s *Service) statRemote(ctx context.Context, key string) (ObjectMetadata, bool) {
	info, err := s.client.StatObject(ctx, s.storage.Bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if !storage.IsNotFound(err) {
			s.logger.Debug("Stat failed, uploading without dedup", zap.String("remote", key), zap.Error(err))
		}
		return ObjectMetadata{}, false
	}
	return ObjectMetadata{
		Key:          key,
		Hash:         storage.MetadataValue(info, hashMetadataKey),
		Size:         info.Size,
		LastModified: info.LastModified,
	}, true
}

// DeleteFile removes an object. It reports whether the delete was accepted.
func (s *Service) DeleteFile(ctx context.Context, remotePath string) (bool, error) {
	if err := s.requireAuth(); err != nil {
		return false, err
	}
	if err := s.client.RemoveObject(ctx, s.storage.Bucket, remotePath, minio.RemoveObjectOptions{}); err != nil {
		s.logger.Error("Delete failed", zap.String("remote", remotePath), zap.Error(err))
		return false, nil
	}
	s.logger.Info("Deleted remote file", zap.String("remote", remotePath))
	return true, nil
}

func hashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

func detectContentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func projectOf(remotePath string) string {
	if i := strings.Index(remotePath, "/"); i > 0 {
		return remotePath[:i]
	}
	return ""
}
