package export

import (
	"path/filepath"
	"strings"

	"asset-pipeline/core/apperror"
	"asset-pipeline/core/mapping"
)

// Options controls one export run.
type Options struct {
	ConvertModel          bool   `json:"convert_model"`
	ConvertTextures       bool   `json:"convert_textures"`
	GenerateORMTextures   bool   `json:"generate_orm_textures"`
	UsePackedTextures     bool   `json:"use_packed_textures"`
	GenerateLODs          bool   `json:"generate_lods"`
	TextureQuality        int    `json:"texture_quality"`
	SpecularAntialiasing  bool   `json:"specular_antialiasing"`
	UseSavedSettings      bool   `json:"use_saved_settings"`
	MaterialsOnly         bool   `json:"materials_only"`
	MasterMaterialsConfig string `json:"master_materials_config,omitempty"`
	DefaultMasterMaterial string `json:"default_master_material,omitempty"`
	ProjectID             string `json:"project_id"`
	ProjectName           string `json:"project_name"`
	OutputRoot            string `json:"output_root"`
}

// Validate fails fast on settings that make the run impossible.
func (o Options) Validate() error {
	var missing []string
	if strings.TrimSpace(o.OutputRoot) == "" {
		missing = append(missing, "output_root")
	}
	if strings.TrimSpace(o.ProjectName) == "" {
		missing = append(missing, "project_name")
	}
	if len(missing) > 0 {
		return apperror.Configuration("export options incomplete, missing: %s", strings.Join(missing, ", "))
	}
	if strings.ContainsAny(o.ProjectName, `/\`) {
		return apperror.Configuration("project name %q must not contain path separators", o.ProjectName)
	}
	if o.TextureQuality < 0 || o.TextureQuality > 100 {
		return apperror.Configuration("texture quality %d out of range 0-100", o.TextureQuality)
	}
	return nil
}

// ServerRoot is {output_root}/{project}/server.
func (o Options) ServerRoot() string {
	return ServerRoot(o.OutputRoot, o.ProjectName)
}

// ContentDir is where converted artifacts are written.
func (o Options) ContentDir() string {
	return filepath.Join(o.ServerRoot(), "assets", "content")
}

// MappingPath is the mapping.json location for the project.
func (o Options) MappingPath() string {
	return mapping.Path(o.ServerRoot())
}

// ServerRoot returns the server root for a project under outputRoot.
func ServerRoot(outputRoot, project string) string {
	return filepath.Join(outputRoot, project, "server")
}

// toolOptions is the subset of Options passed to converters.
type toolOptions struct {
	ConvertModel         bool `json:"convert_model"`
	ConvertTextures      bool `json:"convert_textures"`
	GenerateORMTextures  bool `json:"generate_orm_textures"`
	UsePackedTextures    bool `json:"use_packed_textures"`
	GenerateLODs         bool `json:"generate_lods"`
	TextureQuality       int  `json:"texture_quality"`
	SpecularAntialiasing bool `json:"specular_antialiasing"`
}

func (o Options) tool() toolOptions {
	return toolOptions{
		ConvertModel:         o.ConvertModel,
		ConvertTextures:      o.ConvertTextures,
		GenerateORMTextures:  o.GenerateORMTextures,
		UsePackedTextures:    o.UsePackedTextures,
		GenerateLODs:         o.GenerateLODs,
		TextureQuality:       o.TextureQuality,
		SpecularAntialiasing: o.SpecularAntialiasing,
	}
}
