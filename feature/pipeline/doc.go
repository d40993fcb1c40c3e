// Package pipeline exposes the asset pipeline commands.
//
// The Service composes the catalog, the export orchestrator, the upload
// service and the reconciliation syncer into the seven operations the UI and
// automation call:
//
//   - ExportSelected: export every flagged resource, optionally uploading the result.
//   - MarkRelated: flag a selection and everything related to it for export.
//   - ClearMarks: clear every export flag.
//   - UploadExportedFiles: upload exactly the given files, then mapping.json.
//   - UploadFullDirectory: sweep a directory under the server root.
//   - DeleteRemoteFile: delete one object and reconcile.
//   - RefreshRemoteListing: reconcile against the bucket listing.
//
// The Handler mounts the same operations under /pipeline.
package pipeline
