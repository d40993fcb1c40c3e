// Package upload publishes exported files to the bucket.
//
// Files are content addressed: the SHA-256 of the local bytes is stored as object
// metadata, and a file whose remote copy carries the same hash is skipped. The
// ledger is written only after a transfer completed; a skip only refreshes the
// record's verification time.
//
// Remote keys are "{project}/{path relative to the server root}", where the server
// root is the export directory two levels above the content folder. The mapping
// document is uploaded in its own call as "{project}/mapping.json".
//
// Authorize must succeed before any transfer.
package upload
