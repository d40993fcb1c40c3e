package export

import (
	"context"

	"asset-pipeline/core/asset"
)

// TextureSpec describes a texture handed to a converter.
type TextureSpec struct {
	ID         int64          `json:"id"`
	Name       string         `json:"name"`
	SourcePath string         `json:"source_path"`
	Settings   map[string]any `json:"settings,omitempty"`
}

// MaterialSpec describes a material and its texture maps.
type MaterialSpec struct {
	ID         int64            `json:"id"`
	Name       string           `json:"name"`
	SourcePath string           `json:"source_path"`
	Master     string           `json:"master"`
	Maps       map[string]int64 `json:"maps,omitempty"`
	Settings   map[string]any   `json:"settings,omitempty"`
}

// Request is one converter invocation.
type Request struct {
	Kind       asset.Kind     `json:"kind"`
	ID         int64          `json:"id"`
	Name       string         `json:"name"`
	SourcePath string         `json:"source_path"`
	OutputDir  string         `json:"output_dir"`
	Settings   map[string]any `json:"settings,omitempty"`
	// JSONOnly asks for the material JSON without re-converting textures.
	JSONOnly  bool           `json:"json_only,omitempty"`
	Materials []MaterialSpec `json:"materials,omitempty"`
	Textures  []TextureSpec  `json:"textures,omitempty"`
	Options   toolOptions    `json:"options"`
}

// Result is what a converter reports.
type Result struct {
	Success bool     `json:"success"`
	Error   string   `json:"error,omitempty"`
	Files   []string `json:"files"`
	// ModelPath is the converted model for model requests.
	ModelPath string   `json:"model_path,omitempty"`
	Lods      []string `json:"lods,omitempty"`
	// Materials and Textures map resource IDs to the file produced for them.
	Materials map[string]string `json:"materials,omitempty"`
	Textures  map[string]string `json:"textures,omitempty"`
}

// Converter turns one resource into publishable files.
type Converter interface {
	Convert(ctx context.Context, req Request) (*Result, error)
}

// ConverterFunc adapts a function to Converter.
type ConverterFunc func(ctx context.Context, req Request) (*Result, error)

// Convert calls f.
func (f ConverterFunc) Convert(ctx context.Context, req Request) (*Result, error) {
	return f(ctx, req)
}
