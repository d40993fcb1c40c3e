// Package relations resolves the implicit dependency graph between catalog resources.
//
// A model and a material are related when any of three predicates holds:
//
//  1. SameParent: both have the same ParentFolderID.
//  2. FolderContains: the model's folder path is a case-insensitive prefix of the
//     material's folder path.
//  3. NamePrefix: after stripping _mat, _material or _mtl, either base name is a
//     prefix of the other.
//
// The same predicate drives both directions, so a model resolved from a material
// always resolves that material back. Every texture map of a matched material that
// exists in the catalog joins the result. Results are sets ordered by ID.
package relations
