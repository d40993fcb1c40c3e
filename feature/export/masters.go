package export

import (
	"fmt"
	"os"
	"path"
	"strings"

	"asset-pipeline/core/apperror"

	"gopkg.in/yaml.v3"
)

// Master is one master material and the material names it applies to.
type Master struct {
	Name string `yaml:"name"`
	// Match holds glob patterns tested against the lower-cased material name.
	Match []string `yaml:"match"`
}

// MasterMaterials assigns master materials to materials by name.
//
//	default: standard
//	masters:
//	  - name: glass
//	    match: ["*_glass*", "window*"]
type MasterMaterials struct {
	Default string   `yaml:"default"`
	Masters []Master `yaml:"masters"`
}

// LoadMasterMaterials reads a master materials file. An empty path yields no rules.
func LoadMasterMaterials(file string) (*MasterMaterials, error) {
	if file == "" {
		return &MasterMaterials{}, nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindConfiguration, "read master materials", err)
	}

	var mm MasterMaterials
	if err := yaml.Unmarshal(data, &mm); err != nil {
		return nil, apperror.Wrap(apperror.KindParse, "decode master materials "+file, err)
	}
	for _, m := range mm.Masters {
		if m.Name == "" {
			return nil, apperror.Configuration("master material without name in %s", file)
		}
		for _, pattern := range m.Match {
			if _, err := path.Match(strings.ToLower(pattern), "x"); err != nil {
				return nil, apperror.Configuration("master %s: bad pattern %q: %v", m.Name, pattern, err)
			}
		}
	}
	return &mm, nil
}

// Resolve returns the master for a material: the first matching rule, else the
// file default, else fallback.
func (mm *MasterMaterials) Resolve(materialName, fallback string) string {
	if mm != nil {
		name := strings.ToLower(materialName)
		for _, m := range mm.Masters {
			for _, pattern := range m.Match {
				if ok, _ := path.Match(strings.ToLower(pattern), name); ok {
					return m.Name
				}
			}
		}
		if mm.Default != "" {
			return mm.Default
		}
	}
	return fallback
}

// String summarizes the rule set for logs.
func (mm *MasterMaterials) String() string {
	if mm == nil {
		return "none"
	}
	return fmt.Sprintf("%d masters, default %q", len(mm.Masters), mm.Default)
}
