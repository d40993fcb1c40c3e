// Package asset defines the vocabulary shared by every pipeline stage.
//
// A resource is one of three kinds (Model, Material, Texture) and is identified
// across the catalog, the mapping document and the upload ledger by a Ref,
// the pair of its kind and integer ID.
//
// # Upload Status
//
// A resource's upload status is either absent, Uploaded or Error. Uploaded
// always travels together with a remote URL and an uploaded content hash.
package asset
