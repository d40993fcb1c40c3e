package relations

import (
	"sort"

	"asset-pipeline/core/asset"
	"asset-pipeline/feature/catalog"
)

// FolderPaths maps folder IDs to paths.
type FolderPaths map[int64]string

func (f FolderPaths) path(id *int64) string {
	if id == nil {
		return ""
	}
	return f[*id]
}

// Related reports whether model and material belong together.
// Tiers are evaluated in order and the first match wins.
func Related(model, material catalog.Resource, folders FolderPaths) bool {
	if SameParent(model.ParentFolderID, material.ParentFolderID) {
		return true
	}
	if FolderContains(folders.path(model.ParentFolderID), folders.path(material.ParentFolderID)) {
		return true
	}
	return NamePrefix(model.Name, material.Name)
}

// ResolveFromModels returns the materials related to any of models and the textures
// those materials reference.
func ResolveFromModels(models []catalog.Model, materials []catalog.Material, textures []catalog.Texture, folders FolderPaths) ([]catalog.Material, []catalog.Texture) {
	matched := make(map[int64]catalog.Material)
	for _, model := range models {
		for _, material := range materials {
			if _, done := matched[material.ID]; done {
				continue
			}
			if Related(model.Resource, material.Resource, folders) {
				matched[material.ID] = material
			}
		}
	}

	outMaterials := make([]catalog.Material, 0, len(matched))
	for _, m := range matched {
		outMaterials = append(outMaterials, m)
	}
	sort.Slice(outMaterials, func(i, j int) bool { return outMaterials[i].ID < outMaterials[j].ID })

	return outMaterials, TexturesOf(outMaterials, textures)
}

// ResolveFromMaterials returns the models related to any of materials.
func ResolveFromMaterials(materials []catalog.Material, models []catalog.Model, folders FolderPaths) []catalog.Model {
	var out []catalog.Model
	for _, model := range models {
		for _, material := range materials {
			if Related(model.Resource, material.Resource, folders) {
				out = append(out, model)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// TexturesOf returns the existing textures referenced by any map of materials.
func TexturesOf(materials []catalog.Material, textures []catalog.Texture) []catalog.Texture {
	byID := make(map[int64]catalog.Texture, len(textures))
	for _, t := range textures {
		byID[t.ID] = t
	}

	seen := make(map[int64]struct{})
	var out []catalog.Texture
	for _, m := range materials {
		for _, id := range m.TextureMaps() {
			if _, dup := seen[id]; dup {
				continue
			}
			t, ok := byID[id]
			if !ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Expand returns the selection plus everything related to it: materials and
// textures of selected models, textures of selected materials, and models of
// selected materials.
func Expand(snap *catalog.Snapshot, selection []asset.Ref) []asset.Ref {
	set := make(map[asset.Ref]struct{})
	var models []catalog.Model
	var materials []catalog.Material

	for _, ref := range selection {
		switch ref.Kind {
		case asset.KindModel:
			if m, ok := snap.Model(ref.ID); ok {
				models = append(models, m)
				set[ref] = struct{}{}
			}
		case asset.KindMaterial:
			if m, ok := snap.Material(ref.ID); ok {
				materials = append(materials, m)
				set[ref] = struct{}{}
			}
		case asset.KindTexture:
			if _, ok := snap.Texture(ref.ID); ok {
				set[ref] = struct{}{}
			}
		}
	}

	folders := FolderPaths(snap.Folders)
	relMaterials, relTextures := ResolveFromModels(models, snap.Materials, snap.Textures, folders)
	for _, m := range relMaterials {
		set[m.Ref()] = struct{}{}
	}
	for _, t := range relTextures {
		set[t.Ref()] = struct{}{}
	}
	for _, t := range TexturesOf(materials, snap.Textures) {
		set[t.Ref()] = struct{}{}
	}
	for _, m := range ResolveFromMaterials(materials, snap.Models, folders) {
		set[m.Ref()] = struct{}{}
	}

	out := make([]asset.Ref, 0, len(set))
	for ref := range set {
		out = append(out, ref)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return kindOrder(out[i].Kind) < kindOrder(out[j].Kind)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func kindOrder(k asset.Kind) int {
	for i, kind := range asset.Kinds {
		if kind == k {
			return i
		}
	}
	return len(asset.Kinds)
}
