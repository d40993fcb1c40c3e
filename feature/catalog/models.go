package catalog

import (
	"time"

	"asset-pipeline/core/asset"
)

// UploadState is the live upload status shared by every resource type.
type UploadState struct {
	UploadStatus   asset.UploadStatus `gorm:"size:16;index" json:"upload_status,omitempty"`
	UploadedHash   string             `gorm:"size:64" json:"uploaded_hash,omitempty"`
	RemoteURL      string             `gorm:"size:1024" json:"remote_url,omitempty"`
	LastUploadedAt *time.Time         `json:"last_uploaded_at,omitempty"`
}

// Resource holds the fields common to models, materials and textures.
type Resource struct {
	ID             int64          `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name           string         `gorm:"size:255;index" json:"name"`
	ParentFolderID *int64         `gorm:"index" json:"parent_folder_id,omitempty"`
	ExportToServer bool           `gorm:"index" json:"export_to_server"`
	SourcePath     string         `gorm:"size:1024" json:"source_path"`
	Settings       map[string]any `gorm:"serializer:json;type:text" json:"settings,omitempty"`
	UploadState
}

// Model is a 3D model resource.
type Model struct {
	Resource
}

// Ref returns the model's reference.
func (m Model) Ref() asset.Ref { return asset.Ref{Kind: asset.KindModel, ID: m.ID} }

// Material references up to eight texture maps.
type Material struct {
	Resource
	DiffuseMapID   *int64 `json:"diffuse_map_id,omitempty"`
	NormalMapID    *int64 `json:"normal_map_id,omitempty"`
	SpecularMapID  *int64 `json:"specular_map_id,omitempty"`
	GlossMapID     *int64 `json:"gloss_map_id,omitempty"`
	MetalnessMapID *int64 `json:"metalness_map_id,omitempty"`
	AOMapID        *int64 `gorm:"column:ao_map_id" json:"ao_map_id,omitempty"`
	EmissiveMapID  *int64 `json:"emissive_map_id,omitempty"`
	OpacityMapID   *int64 `json:"opacity_map_id,omitempty"`
}

// Ref returns the material's reference.
func (m Material) Ref() asset.Ref { return asset.Ref{Kind: asset.KindMaterial, ID: m.ID} }

// TextureMaps returns the non-empty map references keyed by slot name.
func (m Material) TextureMaps() map[string]int64 {
	slots := map[string]*int64{
		"diffuse":   m.DiffuseMapID,
		"normal":    m.NormalMapID,
		"specular":  m.SpecularMapID,
		"gloss":     m.GlossMapID,
		"metalness": m.MetalnessMapID,
		"ao":        m.AOMapID,
		"emissive":  m.EmissiveMapID,
		"opacity":   m.OpacityMapID,
	}
	out := make(map[string]int64, len(slots))
	for slot, id := range slots {
		if id != nil {
			out[slot] = *id
		}
	}
	return out
}

// Texture is a bitmap resource.
type Texture struct {
	Resource
}

// Ref returns the texture's reference.
func (t Texture) Ref() asset.Ref { return asset.Ref{Kind: asset.KindTexture, ID: t.ID} }

// Folder maps a folder ID to its path.
type Folder struct {
	ID   int64  `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Path string `gorm:"size:1024" json:"path"`
}

// tableFor returns the GORM model for a resource kind.
func tableFor(kind asset.Kind) (any, bool) {
	switch kind {
	case asset.KindModel:
		return &Model{}, true
	case asset.KindMaterial:
		return &Material{}, true
	case asset.KindTexture:
		return &Texture{}, true
	default:
		return nil, false
	}
}

// resetColumns clears the upload state in one update.
func resetColumns() map[string]any {
	return map[string]any{
		"upload_status":    asset.StatusNone,
		"uploaded_hash":    "",
		"remote_url":       "",
		"last_uploaded_at": nil,
	}
}
