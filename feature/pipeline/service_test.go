package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"asset-pipeline/core/apperror"
	"asset-pipeline/core/asset"
	"asset-pipeline/core/database"
	"asset-pipeline/core/ledger"
	"asset-pipeline/core/storage"
	"asset-pipeline/core/storage/mocks"
	"asset-pipeline/feature/assetsync"
	"asset-pipeline/feature/catalog"
	"asset-pipeline/feature/export"
	"asset-pipeline/feature/pipeline"
	"asset-pipeline/feature/upload"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const cdn = "https://cdn.example.com"

func ptr(v int64) *int64 { return &v }

type harness struct {
	svc     *pipeline.Service
	catalog *catalog.Catalog
	ledger  *ledger.Ledger
	client  *mocks.Client
	opts    export.Options
	gate    chan struct{}
	started chan struct{}
}

// textureConverter writes one .ktx2 per texture request.
func (h *harness) convert(ctx context.Context, req export.Request) (*export.Result, error) {
	if h.gate != nil {
		h.started <- struct{}{}
		<-h.gate
	}
	p := filepath.Join(req.OutputDir, req.Name+".ktx2")
	if err := os.WriteFile(p, []byte("ktx2:"+req.Name), 0644); err != nil {
		return nil, err
	}
	return &export.Result{Success: true, Files: []string{p}}, nil
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	cat := catalog.New(db, zap.NewNop())
	t.Cleanup(cat.Close)
	require.NoError(t, cat.Migrate())

	l, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	h := &harness{
		catalog: cat,
		ledger:  l,
		client:  new(mocks.Client),
		opts:    export.Options{OutputRoot: t.TempDir(), ProjectName: "proj", ConvertTextures: true, TextureQuality: 80},
	}

	storageCfg := storage.Config{KeyID: "k", ApplicationKey: "s", Bucket: "assets", BucketID: "b", CDNBaseURL: cdn}
	uploads := upload.NewService(h.client, storageCfg, upload.Config{Concurrency: 2, MaxAttempts: 1}, l, zap.NewNop())
	syncer := assetsync.NewSyncer(
		assetsync.NewCatalogAdapter(cat),
		assetsync.NewLedgerHistory(l, "proj"),
		uploads, "proj", assetsync.Config{}, zap.NewNop(),
	)

	h.svc = pipeline.NewService(pipeline.Deps{
		Catalog:    cat,
		Exporter:   export.NewOrchestrator(export.ConverterFunc(h.convert), zap.NewNop()),
		Uploads:    uploads,
		Syncer:     syncer,
		Correlator: assetsync.NewCorrelator(cat, l, zap.NewNop()),
		Defaults:   h.opts,
		Logger:     zap.NewNop(),
	})
	return h
}

func (h *harness) bucketOK() {
	h.client.On("BucketExists", mock.Anything, "assets").Return(true, nil)
	h.client.On("StatObject", mock.Anything, "assets", mock.Anything, mock.Anything).
		Return(minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404})
	h.client.On("PutObject", mock.Anything, "assets", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{ETag: "etag"}, nil)
}

func (h *harness) putKeys() []string {
	var keys []string
	for _, c := range h.client.Calls {
		if c.Method == "PutObject" {
			keys = append(keys, c.Arguments.Get(2).(string))
		}
	}
	return keys
}

func (h *harness) snapshot(t *testing.T) *catalog.Snapshot {
	t.Helper()
	snap, err := h.catalog.Snapshot(context.Background())
	require.NoError(t, err)
	return snap
}

func TestExportSelected_AutoUploadUploadsOnlyProducedFiles(t *testing.T) {
	h := newHarness(t)
	h.bucketOK()
	ctx := context.Background()
	require.NoError(t, h.catalog.Save(ctx,
		&catalog.Texture{Resource: catalog.Resource{ID: 7, Name: "tex_07", ExportToServer: true}},
		&catalog.Texture{Resource: catalog.Resource{ID: 8, Name: "tex_08"}},
	))

	// A leftover from an earlier run must not be uploaded.
	content := h.opts.ContentDir()
	require.NoError(t, os.MkdirAll(content, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(content, "stale.ktx2"), []byte("old"), 0644))

	var mu sync.Mutex
	var updates []pipeline.Progress
	result, err := h.svc.ExportSelected(ctx, pipeline.ExportRequest{AutoUpload: true}, func(p pipeline.Progress) {
		mu.Lock()
		updates = append(updates, p)
		mu.Unlock()
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Export.SuccessCount)
	require.NotNil(t, result.Upload)
	assert.Equal(t, 1, result.Upload.Batch.SuccessCount)
	require.NotNil(t, result.Upload.Mapping)
	assert.Equal(t, "proj/mapping.json", result.Upload.Mapping.RemotePath)
	assert.Equal(t, 1, result.Upload.Correlation.Promoted)

	assert.ElementsMatch(t, []string{"proj/assets/content/tex_07.ktx2", "proj/mapping.json"}, h.putKeys())

	tex, ok := h.snapshot(t).Texture(7)
	require.True(t, ok)
	assert.Equal(t, asset.StatusUploaded, tex.UploadStatus)
	assert.Equal(t, cdn+"/proj/assets/content/tex_07.ktx2", tex.RemoteURL)

	rec, err := h.ledger.Query("proj/assets/content/tex_07.ktx2")
	require.NoError(t, err)
	ref, ok := rec.Ref()
	require.True(t, ok)
	assert.Equal(t, asset.Ref{Kind: asset.KindTexture, ID: 7}, ref)

	require.NotEmpty(t, updates)
	last := updates[len(updates)-1]
	assert.Equal(t, pipeline.PhaseMapping, last.Phase)
	assert.Equal(t, 100.0, last.Percent)
	for _, u := range updates {
		if u.Phase == pipeline.PhaseUpload {
			assert.LessOrEqual(t, u.Percent, 90.0)
		}
	}
}

func TestExportSelected_WithoutUpload(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.catalog.Save(ctx, &catalog.Texture{Resource: catalog.Resource{ID: 7, Name: "tex_07", ExportToServer: true}}))

	result, err := h.svc.ExportSelected(ctx, pipeline.ExportRequest{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Export.SuccessCount)
	assert.Nil(t, result.Upload)
	h.client.AssertNotCalled(t, "BucketExists", mock.Anything, mock.Anything)
}

func TestExportSelected_InvalidOptions(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.ExportSelected(context.Background(), pipeline.ExportRequest{Options: &export.Options{}}, nil)
	assert.True(t, apperror.Is(err, apperror.KindConfiguration))
}

func TestExportSelected_Busy(t *testing.T) {
	h := newHarness(t)
	h.gate = make(chan struct{})
	h.started = make(chan struct{}, 1)
	ctx := context.Background()
	require.NoError(t, h.catalog.Save(ctx, &catalog.Texture{Resource: catalog.Resource{ID: 7, Name: "tex_07", ExportToServer: true}}))

	done := make(chan error, 1)
	go func() {
		_, err := h.svc.ExportSelected(ctx, pipeline.ExportRequest{}, nil)
		done <- err
	}()

	select {
	case <-h.started:
	case <-time.After(5 * time.Second):
		t.Fatal("export did not start")
	}

	_, err := h.svc.UploadExportedFiles(ctx, []string{"x"}, nil)
	assert.ErrorIs(t, err, pipeline.ErrBusy)

	close(h.gate)
	assert.NoError(t, <-done)
}

func TestUploadExportedFiles_AuthFailureAttemptsNothing(t *testing.T) {
	h := newHarness(t)
	h.client.On("BucketExists", mock.Anything, "assets").Return(false, errors.New("401 bad credentials"))

	_, err := h.svc.UploadExportedFiles(context.Background(), []string{"a.ktx2"}, nil)
	assert.True(t, apperror.Is(err, apperror.KindAuth))
	assert.Empty(t, h.putKeys())
}

func TestMarkRelatedAndClearMarks(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.catalog.Save(ctx,
		&catalog.Folder{ID: 1, Path: "props/chair"},
		&catalog.Model{Resource: catalog.Resource{ID: 1, Name: "chair", ParentFolderID: ptr(1)}},
		&catalog.Material{Resource: catalog.Resource{ID: 10, Name: "chair_mat", ParentFolderID: ptr(1)}, DiffuseMapID: ptr(100)},
		&catalog.Material{Resource: catalog.Resource{ID: 11, Name: "table_mat", ParentFolderID: ptr(2)}},
		&catalog.Texture{Resource: catalog.Resource{ID: 100, Name: "chair_diffuse"}},
	))

	marked, err := h.svc.MarkRelated(ctx, []asset.Ref{{Kind: asset.KindModel, ID: 1}})
	require.NoError(t, err)
	assert.Equal(t, []asset.Ref{
		{Kind: asset.KindModel, ID: 1},
		{Kind: asset.KindMaterial, ID: 10},
		{Kind: asset.KindTexture, ID: 100},
	}, marked.Marked)

	selected := h.snapshot(t).Selected()
	assert.Len(t, selected.Models, 1)
	assert.Len(t, selected.Materials, 1)
	assert.Len(t, selected.Textures, 1)

	cleared, err := h.svc.ClearMarks(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), cleared)
	selected = h.snapshot(t).Selected()
	assert.Empty(t, selected.Models)
	assert.Empty(t, selected.Materials)
	assert.Empty(t, selected.Textures)
}

func TestUploadFullDirectory(t *testing.T) {
	h := newHarness(t)
	h.bucketOK()
	content := h.opts.ContentDir()
	require.NoError(t, os.MkdirAll(content, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(content, "a.ktx2"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(content, "notes.txt"), []byte("n"), 0644))

	report, err := h.svc.UploadFullDirectory(context.Background(), pipeline.DirectoryRequest{Root: "assets", Pattern: "*.ktx2", Recursive: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Batch.SuccessCount)
	assert.Equal(t, []string{"proj/assets/content/a.ktx2"}, h.putKeys())
	assert.True(t, report.Correlation.Skipped, "no mapping document exists yet")

	t.Run("Root escaping the server root", func(t *testing.T) {
		_, err := h.svc.UploadFullDirectory(context.Background(), pipeline.DirectoryRequest{Root: "../other"}, nil)
		assert.True(t, apperror.Is(err, apperror.KindConfiguration))
	})

	t.Run("Missing root", func(t *testing.T) {
		_, err := h.svc.UploadFullDirectory(context.Background(), pipeline.DirectoryRequest{Root: "nope"}, nil)
		assert.True(t, apperror.Is(err, apperror.KindConfiguration))
	})
}

func TestDeleteRemoteFile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	key := "proj/assets/content/tex_07.ktx2"
	require.NoError(t, h.catalog.Save(ctx, &catalog.Texture{Resource: catalog.Resource{ID: 7, Name: "tex_07"}}))
	require.NoError(t, h.catalog.MarkUploaded(ctx, asset.Ref{Kind: asset.KindTexture, ID: 7}, "h", cdn+"/"+key, time.Now()))

	h.client.On("BucketExists", mock.Anything, "assets").Return(true, nil)
	h.client.On("RemoveObject", mock.Anything, "assets", key, mock.Anything).Return(nil)

	result, err := h.svc.DeleteRemoteFile(ctx, key)
	require.NoError(t, err)
	assert.True(t, result.Deleted)
	assert.Equal(t, 1, result.Report.Reset)

	tex, _ := h.snapshot(t).Texture(7)
	assert.NotEqual(t, asset.StatusUploaded, tex.UploadStatus)
	assert.Empty(t, tex.RemoteURL)

	_, err = h.svc.DeleteRemoteFile(ctx, "  ")
	assert.True(t, apperror.Is(err, apperror.KindConfiguration))
}

func TestRefreshRemoteListing_EmptyBucketResetsUploaded(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for _, id := range []int64{1, 2} {
		require.NoError(t, h.catalog.Save(ctx, &catalog.Texture{Resource: catalog.Resource{ID: id, Name: "t"}}))
		require.NoError(t, h.catalog.MarkUploaded(ctx, asset.Ref{Kind: asset.KindTexture, ID: id}, "h", cdn+"/proj/assets/content/t.ktx2", time.Now()))
	}

	h.client.On("BucketExists", mock.Anything, "assets").Return(true, nil)
	h.client.On("ListObjects", mock.Anything, "assets", minio.ListObjectsOptions{Prefix: "proj/", Recursive: true}).
		Return(mocks.ObjectChannel())

	report, err := h.svc.RefreshRemoteListing(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Reset)
	for _, tex := range h.snapshot(t).Textures {
		assert.NotEqual(t, asset.StatusUploaded, tex.UploadStatus)
	}
}

func mocksChannelWithError() <-chan minio.ObjectInfo {
	return mocks.ObjectChannel(minio.ObjectInfo{Key: "proj/a"}, minio.ObjectInfo{Err: errors.New("connection reset")})
}
