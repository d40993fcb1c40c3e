// Package mapping reads and writes the mapping document (mapping.json).
//
// The document correlates resource IDs to the relative paths of the files the
// export produced for them. It is written once per export run, overwriting the
// previous one, and is read afterwards to map uploaded files back to resources.
//
// # Format
//
//	{
//	  "Models":    {"12": {"Path": "assets/content/chair.glb", "Lods": [{"File": "assets/content/chair_lod1.glb"}]}},
//	  "Materials": {"3": "assets/content/chair_mat.json"},
//	  "Textures":  {"7": "assets/content/tex_07.ktx2"}
//	}
//
// IDs are string-encoded integers; paths are relative to the server root.
package mapping
