package catalog

import "asset-pipeline/core/asset"

// Snapshot is a read-only copy of the catalog at one point in time.
type Snapshot struct {
	Models    []Model
	Materials []Material
	Textures  []Texture
	// Folders maps folder IDs to paths.
	Folders map[int64]string
}

// Model returns the model with the given ID.
func (s *Snapshot) Model(id int64) (Model, bool) {
	for _, m := range s.Models {
		if m.ID == id {
			return m, true
		}
	}
	return Model{}, false
}

// Material returns the material with the given ID.
func (s *Snapshot) Material(id int64) (Material, bool) {
	for _, m := range s.Materials {
		if m.ID == id {
			return m, true
		}
	}
	return Material{}, false
}

// Texture returns the texture with the given ID.
func (s *Snapshot) Texture(id int64) (Texture, bool) {
	for _, t := range s.Textures {
		if t.ID == id {
			return t, true
		}
	}
	return Texture{}, false
}

// Each calls fn for every resource in export order.
func (s *Snapshot) Each(fn func(ref asset.Ref, r Resource)) {
	for _, m := range s.Models {
		fn(m.Ref(), m.Resource)
	}
	for _, m := range s.Materials {
		fn(m.Ref(), m.Resource)
	}
	for _, t := range s.Textures {
		fn(t.Ref(), t.Resource)
	}
}

// Selected returns a snapshot holding only resources flagged ExportToServer.
func (s *Snapshot) Selected() *Snapshot {
	out := &Snapshot{Folders: s.Folders}
	for _, m := range s.Models {
		if m.ExportToServer {
			out.Models = append(out.Models, m)
		}
	}
	for _, m := range s.Materials {
		if m.ExportToServer {
			out.Materials = append(out.Materials, m)
		}
	}
	for _, t := range s.Textures {
		if t.ExportToServer {
			out.Textures = append(out.Textures, t)
		}
	}
	return out
}
