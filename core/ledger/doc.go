// Package ledger is the durable store of upload records.
//
// Records are keyed by remote path and persisted in a bbolt file, so the ledger
// survives process restarts. Saving a record for a remote path that already exists
// replaces the previous metadata; the ledger never duplicates entries.
//
// # History
//
// Records are never deleted. When reconciliation observes that a remote object
// has gone away, the record is marked StatusRemoved and kept as an audit trail.
//
// # Usage
//
//	l, err := ledger.Open("data/ledger.db")
//	defer l.Close()
//	err = l.SaveUpload(ledger.Record{RemotePath: "proj/assets/content/a.glb", ...})
//	rec, err := l.Query("proj/assets/content/a.glb")
package ledger
