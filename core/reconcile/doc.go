// Package reconcile aligns local upload status with observed remote storage state.
//
// Resources that were uploaded carry a RemoteURL. The engine reduces every URL to a
// bucket-relative path and compares it against either an explicit set of deleted
// paths or a fresh listing of the bucket. Resources whose object is gone are reset;
// nothing is ever promoted to uploaded here, promotion only follows a transfer.
//
// # Architecture
//
// 1. Adapter: supplies a snapshot of resource upload state and applies resets.
// Adapters may implement BatchResetter to reset many resources in one write.
//
// 2. Engine: PlanDeletion and PlanListing build a Plan from a snapshot without
// side effects. ApplyPlan executes it. OnExplicitDeletion and
// OnServerListingRefreshed combine both steps.
//
// 3. History: optional sink that retains ledger records for removed objects.
//
// 4. ListingCache: TTL cache with stampede protection for remote listings.
//
// # Usage Example
//
//	spec := &reconcile.Spec{Adapter: adapter, History: history}
//
//	listing, err := cache.Get(ctx, project, loadListing)
//	report, err := reconcile.OnServerListingRefreshed(ctx, spec, listing)
//
// A listing that was not fully drained is rejected with ErrIncompleteListing and
// causes no mutation.
package reconcile
