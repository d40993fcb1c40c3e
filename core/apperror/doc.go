// Package apperror defines the pipeline's error taxonomy.
//
// Each error carries a Kind that tells the caller how to react:
//   - configuration: missing credentials or output path, fail before any network call
//   - auth: authorization failed, abort the whole upload operation
//   - transient_io: a single network or disk hiccup, retried with bounded attempts
//   - item_failure: one resource failed, counted and isolated, the batch continues
//   - parse: the mapping document is malformed, correlation is skipped for that run
//   - persistence: the ledger could not be written
//
// # Usage
//
//	if apperror.Is(err, apperror.KindAuth) {
//	    return err
//	}
package apperror
