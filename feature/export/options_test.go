package export

import (
	"path/filepath"
	"testing"

	"asset-pipeline/core/apperror"

	"github.com/stretchr/testify/assert"
)

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"Valid", Options{OutputRoot: "out", ProjectName: "proj", TextureQuality: 80}, false},
		{"Missing output root", Options{ProjectName: "proj"}, true},
		{"Missing project", Options{OutputRoot: "out"}, true},
		{"Separator in project", Options{OutputRoot: "out", ProjectName: "a/b"}, true},
		{"Quality out of range", Options{OutputRoot: "out", ProjectName: "p", TextureQuality: 101}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr {
				assert.True(t, apperror.Is(err, apperror.KindConfiguration))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestOptions_Paths(t *testing.T) {
	opts := Options{OutputRoot: "out", ProjectName: "proj"}
	assert.Equal(t, filepath.Join("out", "proj", "server"), opts.ServerRoot())
	assert.Equal(t, filepath.Join("out", "proj", "server", "assets", "content"), opts.ContentDir())
	assert.Equal(t, filepath.Join("out", "proj", "server", "mapping.json"), opts.MappingPath())
}

func TestConfig_Options(t *testing.T) {
	cfg := Config{OutputRoot: "out", ProjectName: "proj", TextureQuality: 70, GenerateLODs: true, DefaultMasterMaterial: "standard"}
	opts := cfg.Options()
	assert.Equal(t, "out", opts.OutputRoot)
	assert.Equal(t, 70, opts.TextureQuality)
	assert.True(t, opts.GenerateLODs)
	assert.False(t, opts.MaterialsOnly)
	assert.Equal(t, "standard", opts.DefaultMasterMaterial)
}
