package upload

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"asset-pipeline/core/apperror"
	"asset-pipeline/core/ledger"
	"asset-pipeline/core/storage"
	"asset-pipeline/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var notFound = minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}

func testStorage() storage.Config {
	return storage.Config{
		KeyID:          "key",
		ApplicationKey: "secret",
		Bucket:         "assets",
		BucketID:       "b-1",
		CDNBaseURL:     "https://cdn.example.com",
	}
}

type fixture struct {
	svc     *Service
	client  *mocks.Client
	ledger  *ledger.Ledger
	root    string
	delays  []time.Duration
	current time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	l, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	f := &fixture{
		client:  new(mocks.Client),
		ledger:  l,
		root:    filepath.Join(t.TempDir(), "proj", "server"),
		current: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(f.client, testStorage(), Config{Concurrency: 2, MaxAttempts: 5, RetryDelay: 2 * time.Second}, l, zap.NewNop())
	var mu sync.Mutex
	f.svc.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return f.current
	}
	f.svc.sleep = func(ctx context.Context, d time.Duration) error {
		mu.Lock()
		f.delays = append(f.delays, d)
		mu.Unlock()
		return ctx.Err()
	}
	f.svc.authorized.Store(true)
	return f
}

func (f *fixture) write(t *testing.T, rel, content string) string {
	t.Helper()
	p := filepath.Join(f.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func sum(content string) string {
	h := sha256.Sum256([]byte(content))
	return hex.EncodeToString(h[:])
}

func TestAuthorize(t *testing.T) {
	t.Run("Missing credentials fail before network", func(t *testing.T) {
		client := new(mocks.Client)
		svc := NewService(client, storage.Config{Bucket: "assets"}, Config{}, nil, zap.NewNop())
		err := svc.Authorize(context.Background())
		assert.True(t, apperror.Is(err, apperror.KindConfiguration))
		client.AssertNotCalled(t, "BucketExists", mock.Anything, mock.Anything)
	})

	t.Run("Bucket check error", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "assets").Return(false, errors.New("403 forbidden"))
		svc := NewService(client, testStorage(), Config{}, nil, zap.NewNop())
		assert.True(t, apperror.Is(svc.Authorize(context.Background()), apperror.KindAuth))
	})

	t.Run("Bucket missing", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "assets").Return(false, nil)
		svc := NewService(client, testStorage(), Config{}, nil, zap.NewNop())
		assert.True(t, apperror.Is(svc.Authorize(context.Background()), apperror.KindAuth))
	})

	t.Run("Success", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "assets").Return(true, nil)
		svc := NewService(client, testStorage(), Config{}, nil, zap.NewNop())
		assert.NoError(t, svc.Authorize(context.Background()))
		assert.True(t, svc.authorized.Load())
	})
}

func TestUploadBatch_RequiresAuthorization(t *testing.T) {
	client := new(mocks.Client)
	svc := NewService(client, testStorage(), Config{}, nil, zap.NewNop())

	_, err := svc.UploadBatch(context.Background(), []Pair{{LocalPath: "a", RemotePath: "p/a"}}, nil)
	assert.True(t, apperror.Is(err, apperror.KindAuth))
	client.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpload_IdempotentSkip(t *testing.T) {
	f := newFixture(t)
	local := f.write(t, "assets/content/tex_07.ktx2", "texture-bytes")
	key := "proj/assets/content/tex_07.ktx2"
	hash := sum("texture-bytes")

	f.client.On("StatObject", mock.Anything, "assets", key, mock.Anything).Return(minio.ObjectInfo{}, notFound).Once()
	f.client.On("PutObject", mock.Anything, "assets", key, mock.Anything, int64(13), mock.MatchedBy(func(o minio.PutObjectOptions) bool {
		return o.UserMetadata["sha256"] == hash && o.ContentType == "image/ktx2"
	})).Return(minio.UploadInfo{ETag: "etag-1"}, nil).Once()

	first, err := f.svc.UploadBatch(context.Background(), []Pair{{LocalPath: local, RemotePath: key}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, first.SuccessCount)
	assert.Equal(t, 0, first.SkippedCount)
	assert.Equal(t, "etag-1", first.Results[0].FileID)
	assert.Equal(t, "https://cdn.example.com/"+key, first.Results[0].CdnURL)

	rec, err := f.ledger.Query(key)
	require.NoError(t, err)
	require.NotNil(t, rec)
	uploadedAt := rec.UploadedAt
	assert.Equal(t, hash, rec.ContentHash)
	assert.Equal(t, "proj", rec.ProjectName)

	f.current = f.current.Add(time.Hour)
	f.client.On("StatObject", mock.Anything, "assets", key, mock.Anything).
		Return(minio.ObjectInfo{Key: key, UserMetadata: minio.StringMap{"Sha256": hash}}, nil)

	second, err := f.svc.UploadBatch(context.Background(), []Pair{{LocalPath: local, RemotePath: key}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, second.SkippedCount)
	assert.Equal(t, 0, second.SuccessCount)
	assert.True(t, second.Results[0].Success)
	f.client.AssertNumberOfCalls(t, "PutObject", 1)

	rec, err = f.ledger.Query(key)
	require.NoError(t, err)
	assert.Equal(t, hash, rec.ContentHash)
	assert.True(t, uploadedAt.Equal(rec.UploadedAt))
	assert.True(t, rec.VerifiedAt.After(uploadedAt))
}

func TestUpload_ChangedContentUploads(t *testing.T) {
	f := newFixture(t)
	local := f.write(t, "assets/content/a.glb", "new")
	key := "proj/assets/content/a.glb"

	f.client.On("StatObject", mock.Anything, "assets", key, mock.Anything).
		Return(minio.ObjectInfo{Key: key, UserMetadata: minio.StringMap{"X-Amz-Meta-Sha256": sum("old")}}, nil)
	f.client.On("PutObject", mock.Anything, "assets", key, mock.Anything, int64(3), mock.Anything).
		Return(minio.UploadInfo{VersionID: "v2", ETag: "e"}, nil)

	res, err := f.svc.UploadFile(context.Background(), local, key, "")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.False(t, res.Skipped)
	assert.Equal(t, "v2", res.FileID)
}

func TestUpload_RetryThenSuccess(t *testing.T) {
	f := newFixture(t)
	local := f.write(t, "assets/content/a.ktx2", "abc")
	key := "proj/assets/content/a.ktx2"

	f.client.On("StatObject", mock.Anything, "assets", key, mock.Anything).Return(minio.ObjectInfo{}, notFound)
	f.client.On("PutObject", mock.Anything, "assets", key, mock.Anything, int64(3), mock.Anything).
		Return(minio.UploadInfo{}, errors.New("connection reset")).Twice()
	f.client.On("PutObject", mock.Anything, "assets", key, mock.Anything, int64(3), mock.Anything).
		Return(minio.UploadInfo{ETag: "e"}, nil).Once()

	res, err := f.svc.UploadBatch(context.Background(), []Pair{{LocalPath: local, RemotePath: key}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.SuccessCount)
	assert.Equal(t, 3, res.Results[0].Attempts)
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, f.delays)
}

func TestUpload_RetryExhausted(t *testing.T) {
	f := newFixture(t)
	bad := f.write(t, "assets/content/bad.ktx2", "bad")
	good := f.write(t, "assets/content/good.ktx2", "good")

	f.client.On("StatObject", mock.Anything, "assets", mock.Anything, mock.Anything).Return(minio.ObjectInfo{}, notFound)
	f.client.On("PutObject", mock.Anything, "assets", "proj/assets/content/bad.ktx2", mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, errors.New("timeout"))
	f.client.On("PutObject", mock.Anything, "assets", "proj/assets/content/good.ktx2", mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{ETag: "e"}, nil)

	res, err := f.svc.UploadBatch(context.Background(), []Pair{
		{LocalPath: bad, RemotePath: "proj/assets/content/bad.ktx2"},
		{LocalPath: good, RemotePath: "proj/assets/content/good.ktx2"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.FailedCount)
	assert.Equal(t, 1, res.SuccessCount)
	assert.Equal(t, 5, res.Results[0].Attempts)
	assert.Contains(t, res.Results[0].Error, "item_failure")
	assert.Contains(t, res.Results[0].Error, "transient_io")
	assert.Len(t, f.delays, 4)

	rec, err := f.ledger.Query("proj/assets/content/bad.ktx2")
	require.NoError(t, err)
	assert.Nil(t, rec, "ledger must not be written for a failed transfer")
}

func TestUploadFiles_MissingFilesExcluded(t *testing.T) {
	f := newFixture(t)
	present := f.write(t, "assets/content/a.ktx2", "a")
	missing := filepath.Join(f.root, "assets", "content", "gone.ktx2")
	outside := filepath.Join(t.TempDir(), "elsewhere.ktx2")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0644))

	f.client.On("StatObject", mock.Anything, "assets", "proj/assets/content/a.ktx2", mock.Anything).Return(minio.ObjectInfo{}, notFound)
	f.client.On("PutObject", mock.Anything, "assets", "proj/assets/content/a.ktx2", mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{ETag: "e"}, nil)

	res, err := f.svc.UploadFiles(context.Background(), []string{present, missing, outside, present, filepath.Dir(present)}, f.root, "proj", nil)
	require.NoError(t, err)
	assert.Len(t, res.Results, 1)
	assert.Equal(t, 1, res.SuccessCount)
}

func TestUploadBatch_Progress(t *testing.T) {
	f := newFixture(t)
	var pairs []Pair
	for _, name := range []string{"a", "b", "c", "d"} {
		p := f.write(t, "assets/content/"+name+".ktx2", name)
		pairs = append(pairs, Pair{LocalPath: p, RemotePath: "proj/assets/content/" + name + ".ktx2"})
	}
	f.client.On("StatObject", mock.Anything, "assets", mock.Anything, mock.Anything).Return(minio.ObjectInfo{}, notFound)
	f.client.On("PutObject", mock.Anything, "assets", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(minio.UploadInfo{ETag: "e"}, nil)

	var progress []Progress
	res, err := f.svc.UploadBatch(context.Background(), pairs, Scale(func(p Progress) { progress = append(progress, p) }, 0, 90))
	require.NoError(t, err)
	assert.Equal(t, 4, res.SuccessCount)

	require.Len(t, progress, 4)
	for i, p := range progress {
		assert.Equal(t, i+1, p.CurrentFileIndex)
		assert.Equal(t, 4, p.TotalFiles)
	}
	assert.InDelta(t, 90.0, progress[3].PercentComplete, 0.001)
}

func TestUploadBatch_Cancelled(t *testing.T) {
	f := newFixture(t)
	p := f.write(t, "assets/content/a.ktx2", "a")
	f.client.On("StatObject", mock.Anything, "assets", mock.Anything, mock.Anything).Return(minio.ObjectInfo{}, notFound).Maybe()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := f.svc.UploadBatch(ctx, []Pair{{LocalPath: p, RemotePath: "proj/assets/content/a.ktx2"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Cancelled)
	assert.Equal(t, 0, res.SuccessCount+res.FailedCount+res.SkippedCount)
	require.Len(t, res.Results, 1)
	assert.True(t, res.Results[0].WasCancelled())
	f.client.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadMapping(t *testing.T) {
	f := newFixture(t)
	f.write(t, "mapping.json", `{"Models":{},"Materials":{},"Textures":{}}`)
	f.client.On("StatObject", mock.Anything, "assets", "proj/mapping.json", mock.Anything).Return(minio.ObjectInfo{}, notFound)
	f.client.On("PutObject", mock.Anything, "assets", "proj/mapping.json", mock.Anything, mock.Anything, mock.MatchedBy(func(o minio.PutObjectOptions) bool {
		return o.ContentType == "application/json"
	})).Return(minio.UploadInfo{ETag: "e"}, nil)

	res, err := f.svc.UploadMapping(context.Background(), f.root, "proj")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "proj/mapping.json", res.RemotePath)
}

func TestUploadDirectory(t *testing.T) {
	f := newFixture(t)
	f.write(t, "top.ktx2", "1")
	f.write(t, "top.txt", "2")
	f.write(t, "assets/content/deep.ktx2", "3")
	f.client.On("StatObject", mock.Anything, "assets", mock.Anything, mock.Anything).Return(minio.ObjectInfo{}, notFound)
	f.client.On("PutObject", mock.Anything, "assets", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(minio.UploadInfo{ETag: "e"}, nil)

	t.Run("Flat", func(t *testing.T) {
		res, err := f.svc.UploadDirectory(context.Background(), f.root, "proj", "*.ktx2", false, nil)
		require.NoError(t, err)
		require.Len(t, res.Results, 1)
		assert.Equal(t, "proj/top.ktx2", res.Results[0].RemotePath)
	})

	t.Run("Recursive", func(t *testing.T) {
		res, err := f.svc.UploadDirectory(context.Background(), f.root, "proj", "*.ktx2", true, nil)
		require.NoError(t, err)
		keys := []string{}
		for _, r := range res.Results {
			keys = append(keys, r.RemotePath)
		}
		assert.ElementsMatch(t, []string{"proj/top.ktx2", "proj/assets/content/deep.ktx2"}, keys)
	})

	t.Run("Bad pattern", func(t *testing.T) {
		_, err := f.svc.UploadDirectory(context.Background(), f.root, "proj", "[", true, nil)
		assert.True(t, apperror.Is(err, apperror.KindConfiguration))
	})
}

func TestDeleteFile(t *testing.T) {
	f := newFixture(t)
	f.client.On("RemoveObject", mock.Anything, "assets", "proj/a", mock.Anything).Return(nil)
	f.client.On("RemoveObject", mock.Anything, "assets", "proj/b", mock.Anything).Return(errors.New("denied"))

	ok, err := f.svc.DeleteFile(context.Background(), "proj/a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.DeleteFile(context.Background(), "proj/b")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListRemote(t *testing.T) {
	f := newFixture(t)

	t.Run("Complete", func(t *testing.T) {
		f.client.On("ListObjects", mock.Anything, "assets", minio.ListObjectsOptions{Prefix: "proj/", Recursive: true}).
			Return(mocks.ObjectChannel(minio.ObjectInfo{Key: "proj/a"}, minio.ObjectInfo{Key: "proj/b"})).Once()
		listing, err := f.svc.ListRemote(context.Background(), "proj/")
		require.NoError(t, err)
		assert.True(t, listing.Complete)
		assert.Equal(t, []string{"proj/a", "proj/b"}, listing.Paths)
	})

	t.Run("Interrupted", func(t *testing.T) {
		f.client.On("ListObjects", mock.Anything, "assets", minio.ListObjectsOptions{Prefix: "proj/", Recursive: true}).
			Return(mocks.ObjectChannel(minio.ObjectInfo{Key: "proj/a"}, minio.ObjectInfo{Err: errors.New("503")})).Once()
		listing, err := f.svc.ListRemote(context.Background(), "proj/")
		assert.Error(t, err)
		assert.False(t, listing.Complete)
	})
}

func TestResolveMetadata_Bounded(t *testing.T) {
	f := newFixture(t)
	f.svc.storage.MetadataConcurrency = 2

	var active, peak int32
	f.client.On("StatObject", mock.Anything, "assets", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			n := atomic.AddInt32(&active, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&active, -1)
		}).
		Return(minio.ObjectInfo{UserMetadata: minio.StringMap{"Sha256": "h"}}, nil)

	keys := []string{"a", "b", "c", "d", "e", "f"}
	objs, err := f.svc.ResolveMetadata(context.Background(), keys)
	require.NoError(t, err)
	assert.Len(t, objs, 6)
	assert.Equal(t, "h", objs["c"].Hash)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestRemoteKeyHelpers(t *testing.T) {
	root := filepath.Join("out", "proj", "server")

	key, err := RemoteKey(root, "proj", filepath.Join(root, "assets", "content", "a.glb"))
	require.NoError(t, err)
	assert.Equal(t, "proj/assets/content/a.glb", key)

	_, err = RemoteKey(root, "proj", filepath.Join("out", "other", "a.glb"))
	assert.Error(t, err)
}

func TestDetectContentType(t *testing.T) {
	assert.Equal(t, "model/gltf-binary", detectContentType("a.GLB"))
	assert.Equal(t, "image/ktx2", detectContentType("a.ktx2"))
	assert.Equal(t, "image/png", detectContentType("a.png"))
	assert.Equal(t, "application/octet-stream", detectContentType("a.unknownext"))
}
