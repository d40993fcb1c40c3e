// Package catalog owns the asset catalog: models, materials, textures and the
// folders they live in.
//
// Reads return immutable snapshots. Every mutation goes through Do, which hands
// the change to a single writer goroutine so that upload completion, reconciliation
// and UI marks never race on the same row.
//
// # Upload state
//
// UploadStatus, UploadedHash, RemoteURL and LastUploadedAt move together: marking a
// resource uploaded requires a hash and a URL, and resetting clears all four.
package catalog
