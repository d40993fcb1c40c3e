package export

import "time"

// Config holds export defaults and converter tool locations.
type Config struct {
	// OutputRoot is the directory projects are exported under.
	OutputRoot string `mapstructure:"output_root" default:"output"`
	// ProjectID is the target project identifier.
	ProjectID string `mapstructure:"project_id" default:""`
	// ProjectName is the target project name, also the remote key prefix.
	ProjectName string `mapstructure:"project_name" default:""`
	// ModelTool is the model and material converter executable.
	ModelTool string `mapstructure:"model_tool" default:"model-converter"`
	// TextureTool is the texture converter executable.
	TextureTool string `mapstructure:"texture_tool" default:"texture-converter"`
	// ToolTimeout bounds a single converter invocation.
	ToolTimeout time.Duration `mapstructure:"tool_timeout" default:"10m"`
	// MasterMaterialsConfig is an optional YAML file assigning master materials.
	MasterMaterialsConfig string `mapstructure:"master_materials_config" default:""`
	// DefaultMasterMaterial applies when no rule matches.
	DefaultMasterMaterial string `mapstructure:"default_master_material" default:"standard"`

	ConvertModel         bool `mapstructure:"convert_model" default:"true"`
	ConvertTextures      bool `mapstructure:"convert_textures" default:"true"`
	GenerateORMTextures  bool `mapstructure:"generate_orm_textures" default:"false"`
	UsePackedTextures    bool `mapstructure:"use_packed_textures" default:"false"`
	GenerateLODs         bool `mapstructure:"generate_lods" default:"true"`
	TextureQuality       int  `mapstructure:"texture_quality" default:"80"`
	SpecularAntialiasing bool `mapstructure:"specular_antialiasing" default:"false"`
	UseSavedSettings     bool `mapstructure:"use_saved_settings" default:"true"`
}

// Options returns run options seeded from the configured defaults.
func (c Config) Options() Options {
	return Options{
		ConvertModel:          c.ConvertModel,
		ConvertTextures:       c.ConvertTextures,
		GenerateORMTextures:   c.GenerateORMTextures,
		UsePackedTextures:     c.UsePackedTextures,
		GenerateLODs:          c.GenerateLODs,
		TextureQuality:        c.TextureQuality,
		SpecularAntialiasing:  c.SpecularAntialiasing,
		UseSavedSettings:      c.UseSavedSettings,
		MasterMaterialsConfig: c.MasterMaterialsConfig,
		DefaultMasterMaterial: c.DefaultMasterMaterial,
		ProjectID:             c.ProjectID,
		ProjectName:           c.ProjectName,
		OutputRoot:            c.OutputRoot,
	}
}
