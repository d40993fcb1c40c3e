package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"asset-pipeline/core/apperror"
	"asset-pipeline/core/asset"
	"asset-pipeline/core/mapping"
	"asset-pipeline/core/reconcile"
	"asset-pipeline/core/utils"
	"asset-pipeline/feature/assetsync"
	"asset-pipeline/feature/catalog"
	"asset-pipeline/feature/export"
	"asset-pipeline/feature/relations"
	"asset-pipeline/feature/upload"

	"go.uber.org/zap"
)

// uploadShare is the share of upload progress given to content files.
// The mapping document fills the rest.
const uploadShare = 90

// Deps are the collaborators of a Service.
type Deps struct {
	Catalog    *catalog.Catalog
	Exporter   *export.Orchestrator
	Uploads    *upload.Service
	Syncer     *assetsync.Syncer
	Correlator *assetsync.Correlator
	// Defaults seeds every export and locates the server root.
	Defaults export.Options
	Logger   *zap.Logger
}

// Service runs pipeline commands. Exports and uploads are exclusive.
type Service struct {
	catalog    *catalog.Catalog
	exporter   *export.Orchestrator
	uploads    *upload.Service
	syncer     *assetsync.Syncer
	correlator *assetsync.Correlator
	defaults   export.Options
	logger     *zap.Logger

	busy sync.Mutex
}

// NewService creates a pipeline service.
func NewService(d Deps) *Service {
	return &Service{
		catalog:    d.Catalog,
		exporter:   d.Exporter,
		uploads:    d.Uploads,
		syncer:     d.Syncer,
		correlator: d.Correlator,
		defaults:   d.Defaults,
		logger:     d.Logger,
	}
}

// Defaults returns the configured export options.
func (s *Service) Defaults() export.Options {
	return s.defaults
}

// ExportSelected exports every resource flagged for export. With AutoUpload the
// files just produced, and only those, are uploaded afterwards.
func (s *Service) ExportSelected(ctx context.Context, req ExportRequest, progress ProgressFunc) (*ExportResult, error) {
	opts := s.defaults
	if req.Options != nil {
		opts = *req.Options
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if !s.busy.TryLock() {
		return nil, ErrBusy
	}
	defer s.busy.Unlock()

	snap, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	summary, err := s.exporter.Run(ctx, snap, opts, func(p export.Progress) {
		emit(progress, Progress{Phase: PhaseExport, Percent: p.Percent, Current: p.Current, Total: p.Total, Item: p.Item})
	})
	if err != nil {
		return nil, err
	}
	result := &ExportResult{Export: summary}

	if !req.AutoUpload {
		return result, nil
	}
	if summary.Cancelled || ctx.Err() != nil {
		s.logger.Info("Export cancelled, skipping upload", zap.String("run_id", summary.RunID))
		return result, nil
	}
	if len(summary.Files) == 0 {
		s.logger.Info("Export produced no files, skipping upload", zap.String("run_id", summary.RunID))
		return result, nil
	}

	report, err := s.uploadExported(ctx, opts, summary.Files, progress)
	result.Upload = report
	return result, err
}

// MarkRelated flags the selection and every related resource for export.
func (s *Service) MarkRelated(ctx context.Context, selection []asset.Ref) (*MarkResult, error) {
	snap, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	refs := relations.Expand(snap, selection)
	if err := s.catalog.SetExport(ctx, refs, true); err != nil {
		return nil, err
	}
	s.logger.Info("Marked related resources", zap.Int("selected", len(selection)), zap.Int("marked", len(refs)))
	return &MarkResult{Marked: refs}, nil
}

// ClearMarks clears every export flag.
func (s *Service) ClearMarks(ctx context.Context) (int64, error) {
	return s.catalog.ClearMarks(ctx)
}

// UploadExportedFiles uploads exactly files, then mapping.json, then correlates
// the results with catalog resources.
func (s *Service) UploadExportedFiles(ctx context.Context, files []string, progress ProgressFunc) (*UploadReport, error) {
	if err := s.defaults.Validate(); err != nil {
		return nil, err
	}
	if !s.busy.TryLock() {
		return nil, ErrBusy
	}
	defer s.busy.Unlock()
	return s.uploadExported(ctx, s.defaults, files, progress)
}

func (s *Service) uploadExported(ctx context.Context, opts export.Options, files []string, progress ProgressFunc) (*UploadReport, error) {
	if err := s.uploads.Authorize(ctx); err != nil {
		return nil, err
	}
	serverRoot := opts.ServerRoot()

	batch, err := s.uploads.UploadFiles(ctx, files, serverRoot, opts.ProjectName, upload.Scale(uploadSink(progress), 0, uploadShare))
	if err != nil {
		return nil, err
	}
	defer s.syncer.Invalidate()

	report := &UploadReport{Batch: batch}
	results := batch.Results

	if ctx.Err() == nil {
		if _, statErr := os.Stat(mapping.Path(serverRoot)); statErr == nil {
			res, err := s.uploads.UploadMapping(ctx, serverRoot, opts.ProjectName)
			if err != nil {
				return report, err
			}
			report.Mapping = &res
			results = append(results, res)
		} else {
			s.logger.Warn("No mapping document to upload", zap.String("server_root", serverRoot), zap.Error(statErr))
		}
		emit(progress, Progress{Phase: PhaseMapping, Percent: 100, Item: mapping.FileName})
	}

	corr, err := s.correlator.Correlate(ctx, serverRoot, results)
	report.Correlation = corr
	if err != nil {
		return report, err
	}
	return report, nil
}

// UploadFullDirectory sweeps a directory under the server root. It is meant for
// full re-syncs; exports upload their own files.
func (s *Service) UploadFullDirectory(ctx context.Context, req DirectoryRequest, progress ProgressFunc) (*UploadReport, error) {
	opts := s.defaults
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	serverRoot := opts.ServerRoot()
	root, prefix, err := sweepRoot(serverRoot, opts.ProjectName, req.Root)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			return nil, apperror.Configuration("sweep root %s is not a directory", root)
		}
		return nil, err
	}

	if !s.busy.TryLock() {
		return nil, ErrBusy
	}
	defer s.busy.Unlock()

	if err := s.uploads.Authorize(ctx); err != nil {
		return nil, err
	}
	batch, err := s.uploads.UploadDirectory(ctx, root, prefix, req.Pattern, req.Recursive, uploadSink(progress))
	if err != nil {
		return nil, err
	}
	s.syncer.Invalidate()

	report := &UploadReport{Batch: batch}
	corr, err := s.correlator.Correlate(ctx, serverRoot, batch.Results)
	report.Correlation = corr
	return report, err
}

// sweepRoot resolves a sweep directory relative to the server root and the
// key prefix that keeps object keys relative to the server root.
func sweepRoot(serverRoot, project, rel string) (string, string, error) {
	rel = strings.TrimSpace(rel)
	if rel == "" || rel == "." {
		return serverRoot, project, nil
	}
	if filepath.IsAbs(rel) {
		return "", "", apperror.Configuration("sweep root %q must be relative to the server root", rel)
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", "", apperror.Configuration("sweep root %q escapes the server root", rel)
	}
	return filepath.Join(serverRoot, clean), utils.JoinKey(project, clean), nil
}

// DeleteRemoteFile deletes one object and resets the resources that pointed at it.
func (s *Service) DeleteRemoteFile(ctx context.Context, remotePath string) (*DeleteResult, error) {
	remotePath = strings.TrimSpace(remotePath)
	if remotePath == "" {
		return nil, apperror.Configuration("remote path is required")
	}
	if err := s.uploads.Authorize(ctx); err != nil {
		return nil, err
	}

	result := &DeleteResult{RemotePath: remotePath}
	ok, err := s.uploads.DeleteFile(ctx, remotePath)
	if err != nil {
		return nil, err
	}
	if !ok {
		return result, nil
	}
	result.Deleted = true

	report, err := s.syncer.Deleted(ctx, []string{remotePath})
	result.Report = report
	return result, err
}

// RefreshRemoteListing reconciles the catalog against the bucket.
func (s *Service) RefreshRemoteListing(ctx context.Context) (reconcile.Report, error) {
	if err := s.uploads.Authorize(ctx); err != nil {
		return reconcile.Report{}, err
	}
	return s.syncer.Refresh(ctx)
}

// Refresh lets the service drive the reconciliation scheduler.
func (s *Service) Refresh(ctx context.Context) (reconcile.Report, error) {
	return s.RefreshRemoteListing(ctx)
}

func uploadSink(progress ProgressFunc) upload.ProgressFunc {
	if progress == nil {
		return nil
	}
	return func(p upload.Progress) {
		progress(Progress{
			Phase:   PhaseUpload,
			Percent: p.PercentComplete,
			Current: p.CurrentFileIndex,
			Total:   p.TotalFiles,
			Item:    p.CurrentFile,
		})
	}
}

func emit(progress ProgressFunc, p Progress) {
	if progress != nil {
		progress(p)
	}
}
