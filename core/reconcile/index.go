package reconcile

import (
	"asset-pipeline/core/asset"
	"asset-pipeline/core/mapping"
	"asset-pipeline/core/utils"
)

// IndexEntry is the resource behind one exported path. Primary is set for the
// path a resource's RemoteURL points at: a model's Path, a material's or a
// texture's single file. Model LODs are secondary.
type IndexEntry struct {
	Ref     asset.Ref
	Primary bool
}

// ReverseIndex maps normalized relative paths back to the resource that produced them.
type ReverseIndex map[string]IndexEntry

// BuildReverseIndex indexes every path in a mapping document, including model LODs.
// Keys that are not integers are skipped; Load already rejects them.
func BuildReverseIndex(doc *mapping.Document) ReverseIndex {
	idx := make(ReverseIndex, doc.Len())
	for key, entry := range doc.Models {
		id, err := utils.ParseID(key)
		if err != nil {
			continue
		}
		ref := asset.Ref{Kind: asset.KindModel, ID: id}
		idx.add(entry.Path, ref, true)
		for _, lod := range entry.Lods {
			idx.add(lod.File, ref, false)
		}
	}
	for key, path := range doc.Materials {
		if id, err := utils.ParseID(key); err == nil {
			idx.add(path, asset.Ref{Kind: asset.KindMaterial, ID: id}, true)
		}
	}
	for key, path := range doc.Textures {
		if id, err := utils.ParseID(key); err == nil {
			idx.add(path, asset.Ref{Kind: asset.KindTexture, ID: id}, true)
		}
	}
	return idx
}

// add never lets a secondary path replace a primary one.
func (idx ReverseIndex) add(path string, ref asset.Ref, primary bool) {
	n := NormalizePath(path)
	if n == "" {
		return
	}
	if cur, ok := idx[n]; ok && cur.Primary && !primary {
		return
	}
	idx[n] = IndexEntry{Ref: ref, Primary: primary}
}

// Lookup resolves a remote key or URL to its resource.
func (idx ReverseIndex) Lookup(remotePath string) (IndexEntry, bool) {
	entry, ok := idx[NormalizePath(remotePath)]
	return entry, ok
}
