package pipeline

import (
	"errors"

	"asset-pipeline/core/asset"
	"asset-pipeline/core/reconcile"
	"asset-pipeline/feature/assetsync"
	"asset-pipeline/feature/export"
	"asset-pipeline/feature/upload"
)

// ErrBusy is returned when an export or upload is already running.
var ErrBusy = errors.New("pipeline: another export or upload is running")

// Phase names the stage a progress update belongs to.
type Phase string

const (
	PhaseExport  Phase = "export"
	PhaseUpload  Phase = "upload"
	PhaseMapping Phase = "mapping"
)

// Progress is one update from a running command.
type Progress struct {
	Phase   Phase   `json:"phase"`
	Percent float64 `json:"percent"`
	Current int     `json:"current"`
	Total   int     `json:"total"`
	Item    string  `json:"item"`
}

// ProgressFunc receives progress updates. It may be nil.
type ProgressFunc func(Progress)

// ExportRequest starts an export.
type ExportRequest struct {
	// Options replaces the configured defaults when set.
	Options *export.Options `json:"options,omitempty"`
	// AutoUpload uploads the produced files after the export.
	AutoUpload bool `json:"auto_upload"`
}

// ExportResult is the outcome of ExportSelected.
type ExportResult struct {
	Export *export.Summary `json:"export"`
	Upload *UploadReport   `json:"upload,omitempty"`
}

// UploadReport is the outcome of an upload command.
type UploadReport struct {
	Batch       *upload.BatchResult   `json:"batch"`
	Mapping     *upload.FileResult    `json:"mapping,omitempty"`
	Correlation assetsync.Correlation `json:"correlation"`
}

// DirectoryRequest describes a directory sweep.
type DirectoryRequest struct {
	// Root is relative to the project's server root. Empty means the server root.
	Root      string `json:"root"`
	Pattern   string `json:"pattern"`
	Recursive bool   `json:"recursive"`
}

// MarkRequest selects resources.
type MarkRequest struct {
	Refs []asset.Ref `json:"refs"`
}

// MarkResult lists the resources flagged.
type MarkResult struct {
	Marked []asset.Ref `json:"marked"`
}

// DeleteResult is the outcome of DeleteRemoteFile.
type DeleteResult struct {
	RemotePath string           `json:"remote_path"`
	Deleted    bool             `json:"deleted"`
	Report     reconcile.Report `json:"report"`
}
