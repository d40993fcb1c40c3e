package reconcile

import (
	"context"
	"fmt"

	"asset-pipeline/core/asset"
)

// ApplyPlan executes the resets in a plan and returns how many were applied.
// A batch-capable adapter receives all refs in one call.
func ApplyPlan(ctx context.Context, spec *Spec, plan *Plan) (Report, error) {
	var report Report
	if plan == nil || len(plan.Actions) == 0 {
		return report, nil
	}

	refs := make([]asset.Ref, 0, len(plan.Actions))
	seen := make(map[asset.Ref]struct{}, len(plan.Actions))
	for _, action := range plan.Actions {
		if action.Type != ActionReset {
			continue
		}
		if _, dup := seen[action.Ref]; dup {
			continue
		}
		seen[action.Ref] = struct{}{}
		refs = append(refs, action.Ref)
	}

	if batch, ok := spec.Adapter.(BatchResetter); ok {
		if err := batch.ResetBatch(ctx, refs); err != nil {
			return report, fmt.Errorf("failed to batch reset %d resources: %w", len(refs), err)
		}
		report.Reset = len(refs)
		return report, nil
	}

	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := spec.Adapter.Reset(ctx, ref); err != nil {
			return report, fmt.Errorf("failed to reset %s: %w", ref, err)
		}
		report.Reset++
	}
	return report, nil
}
