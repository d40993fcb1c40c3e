// Package assetsync keeps catalog upload state aligned with the bucket.
//
// It adapts the catalog to the reconcile engine, records removed objects in the
// ledger, correlates upload results back to resources through the mapping
// document, and runs periodic listing refreshes.
package assetsync
