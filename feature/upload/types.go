package upload

import (
	"time"

	"asset-pipeline/core/ledger"
)

// Pair is one local file and its object key.
type Pair struct {
	LocalPath  string `json:"local_path"`
	RemotePath string `json:"remote_path"`
}

// FileResult is the terminal outcome of one file.
type FileResult struct {
	LocalPath     string `json:"local_path"`
	RemotePath    string `json:"remote_path"`
	Success       bool   `json:"success"`
	Skipped       bool   `json:"skipped"`
	ContentHash   string `json:"content_hash,omitempty"`
	ContentLength int64  `json:"content_length"`
	CdnURL        string `json:"cdn_url,omitempty"`
	FileID        string `json:"file_id,omitempty"`
	Attempts      int    `json:"attempts"`
	Error         string `json:"error,omitempty"`
}

// WasCancelled reports whether the file was never started because the context ended.
func (r FileResult) WasCancelled() bool {
	return r.Error == errCancelled
}

// BatchResult summarizes a batch. Skipped files count as SkippedCount only.
type BatchResult struct {
	SuccessCount int `json:"success_count"`
	SkippedCount int `json:"skipped_count"`
	FailedCount  int `json:"failed_count"`
	// Cancelled counts files never started because the context ended.
	Cancelled int           `json:"cancelled"`
	Duration  time.Duration `json:"duration"`
	Results   []FileResult  `json:"results"`
}

// Progress is reported after each completed file.
type Progress struct {
	PercentComplete  float64 `json:"percent_complete"`
	CurrentFile      string  `json:"current_file"`
	CurrentFileIndex int     `json:"current_file_index"`
	TotalFiles       int     `json:"total_files"`
}

// ProgressFunc receives progress updates. It may be nil.
type ProgressFunc func(Progress)

// Scale returns a sink that maps 0-100 onto [from, to] before calling next.
func Scale(next ProgressFunc, from, to float64) ProgressFunc {
	if next == nil {
		return nil
	}
	return func(p Progress) {
		p.PercentComplete = from + p.PercentComplete*(to-from)/100
		next(p)
	}
}

// Ledger is the record store the service writes to.
type Ledger interface {
	SaveUpload(rec ledger.Record) error
	Query(remotePath string) (*ledger.Record, error)
}

// ObjectMetadata is the remote state of one object.
type ObjectMetadata struct {
	Key          string
	Hash         string
	Size         int64
	LastModified time.Time
}
