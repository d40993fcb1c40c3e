package mapping

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"asset-pipeline/core/apperror"
	"asset-pipeline/core/utils"
)

// FileName is the mapping document's name inside the server root.
const FileName = "mapping.json"

// Lod is one level-of-detail file of a model.
type Lod struct {
	File string `json:"File"`
}

// ModelEntry holds a model's primary file and its LODs.
type ModelEntry struct {
	Path string `json:"Path"`
	Lods []Lod  `json:"Lods"`
}

// Document is the mapping.json content.
type Document struct {
	Models    map[string]ModelEntry `json:"Models"`
	Materials map[string]string     `json:"Materials"`
	Textures  map[string]string     `json:"Textures"`
}

// New returns an empty document with initialized key spaces.
func New() *Document {
	return &Document{
		Models:    make(map[string]ModelEntry),
		Materials: make(map[string]string),
		Textures:  make(map[string]string),
	}
}

// SetModel records a model's primary path and LOD files.
func (d *Document) SetModel(id int64, path string, lods []string) {
	entry := ModelEntry{Path: utils.ToSlash(path), Lods: make([]Lod, 0, len(lods))}
	for _, l := range lods {
		entry.Lods = append(entry.Lods, Lod{File: utils.ToSlash(l)})
	}
	d.Models[utils.FormatID(id)] = entry
}

// SetMaterial records a material's generated file.
func (d *Document) SetMaterial(id int64, path string) {
	d.Materials[utils.FormatID(id)] = utils.ToSlash(path)
}

// SetTexture records a texture's converted file.
func (d *Document) SetTexture(id int64, path string) {
	d.Textures[utils.FormatID(id)] = utils.ToSlash(path)
}

// Len returns the number of entries across all key spaces.
func (d *Document) Len() int {
	return len(d.Models) + len(d.Materials) + len(d.Textures)
}

// Path returns the location of mapping.json for a server root.
func Path(serverRoot string) string {
	return filepath.Join(serverRoot, FileName)
}

// Load reads a mapping document. Malformed content yields a parse error.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping %s: %w", path, err)
	}

	doc := New()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, apperror.Wrap(apperror.KindParse, "decode mapping "+path, err)
	}
	// Absent key spaces decode as nil maps.
	if doc.Models == nil {
		doc.Models = make(map[string]ModelEntry)
	}
	if doc.Materials == nil {
		doc.Materials = make(map[string]string)
	}
	if doc.Textures == nil {
		doc.Textures = make(map[string]string)
	}
	for key := range doc.Models {
		if _, err := utils.ParseID(key); err != nil {
			return nil, apperror.Wrap(apperror.KindParse, "decode mapping "+path, err)
		}
	}
	for key := range doc.Materials {
		if _, err := utils.ParseID(key); err != nil {
			return nil, apperror.Wrap(apperror.KindParse, "decode mapping "+path, err)
		}
	}
	for key := range doc.Textures {
		if _, err := utils.ParseID(key); err != nil {
			return nil, apperror.Wrap(apperror.KindParse, "decode mapping "+path, err)
		}
	}
	return doc, nil
}

// Save writes the document to path, replacing any previous file.
// The write goes through a temporary file so readers never observe a partial document.
func (d *Document) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create mapping dir: %w", err)
	}

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("encode mapping: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write mapping: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace mapping: %w", err)
	}
	return nil
}
