// Package export drives the external converters over the selected catalog resources
// and writes the mapping document for the run.
//
// # Processing order
//
//  1. Selected models, each with the materials and textures related to it.
//  2. Selected materials not covered by an exported model. In materials-only mode
//     these produce JSON only.
//  3. Selected textures not referenced by any exported material.
//
// Every item runs in its own failure boundary: a converter error, a reported
// failure or a panic counts the item as failed and the run moves on. Progress is
// reported after each item as current/total*100.
//
// The summary's Files list holds exactly the files this run produced. It is the
// input of the upload step; the output tree is never swept.
package export
