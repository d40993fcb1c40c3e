package ledger

import (
	"time"

	"asset-pipeline/core/asset"
)

// Status is the state of an upload record.
type Status string

const (
	// StatusUploaded means the bytes were transferred (or already present remotely).
	StatusUploaded Status = "uploaded"
	// StatusRemoved means the remote object was deleted after the upload.
	StatusRemoved Status = "removed"
)

// Record is one ledger entry.
type Record struct {
	// LocalPath is the file the bytes were read from.
	LocalPath string `json:"local_path"`
	// RemotePath is the object key, "{project}/{relative path}". It is the ledger key.
	RemotePath string `json:"remote_path"`
	// ContentHash is the hex SHA-256 of the uploaded bytes.
	ContentHash string `json:"content_hash"`
	// ContentLength is the size in bytes.
	ContentLength int64 `json:"content_length"`
	// UploadedAt is when the bytes were last transferred.
	UploadedAt time.Time `json:"uploaded_at"`
	// VerifiedAt is when the remote copy was last confirmed identical.
	VerifiedAt time.Time `json:"verified_at,omitempty"`
	// CdnURL is the public URL of the object.
	CdnURL string `json:"cdn_url"`
	Status Status `json:"status"`
	// FileID is the provider's opaque identifier for the object version.
	FileID      string `json:"file_id"`
	ProjectName string `json:"project_name"`

	ResourceID   *int64      `json:"resource_id,omitempty"`
	ResourceType *asset.Kind `json:"resource_type,omitempty"`
}

// Ref returns the resource the record belongs to, if known.
func (r Record) Ref() (asset.Ref, bool) {
	if r.ResourceID == nil || r.ResourceType == nil {
		return asset.Ref{}, false
	}
	return asset.Ref{Kind: *r.ResourceType, ID: *r.ResourceID}, true
}

// WithResource attaches a resource reference to the record.
func (r Record) WithResource(ref asset.Ref) Record {
	id := ref.ID
	kind := ref.Kind
	r.ResourceID = &id
	r.ResourceType = &kind
	return r
}
