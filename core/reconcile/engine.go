package reconcile

import (
	"context"
	"fmt"
	"sort"

	"asset-pipeline/core/asset"
)

// PlanDeletion plans resets for every entry whose remote path is in deleted.
// Entries are matched regardless of status so that error states are cleared too.
func PlanDeletion(ctx context.Context, spec *Spec, deleted []string) (*Plan, error) {
	plan := &Plan{}
	targets := NormalizeSet(deleted)
	if len(targets) == 0 {
		return plan, nil
	}

	entries, err := spec.Adapter.LoadEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s entries: %w", spec.Adapter.Name(), err)
	}

	for _, e := range entries {
		if e.RemoteURL == "" {
			continue
		}
		path := NormalizePath(e.RemoteURL)
		plan.Summary.Checked++
		if _, gone := targets[path]; !gone {
			continue
		}
		plan.Summary.NotFound++
		plan.Results = append(plan.Results, Result{Ref: e.Ref, Name: e.Name, Path: path})
		plan.Actions = append(plan.Actions, Action{Type: ActionReset, Ref: e.Ref, Path: path, Reason: "deleted"})
	}

	sortPlan(plan)
	return plan, nil
}

// PlanListing plans resets for uploaded entries missing from the listing.
// A complete and empty listing resets every uploaded entry. An incomplete listing
// returns ErrIncompleteListing. Non-uploaded entries are never touched.
func PlanListing(ctx context.Context, spec *Spec, listing ServerListing) (*Plan, error) {
	if !listing.Complete {
		return nil, ErrIncompleteListing
	}

	entries, err := spec.Adapter.LoadEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s entries: %w", spec.Adapter.Name(), err)
	}

	present := NormalizeSet(listing.Paths)
	wiped := len(present) == 0

	plan := &Plan{}
	for _, e := range entries {
		if e.Status != asset.StatusUploaded {
			continue
		}
		path := NormalizePath(e.RemoteURL)
		plan.Summary.Checked++

		if !wiped {
			if _, ok := present[path]; ok && path != "" {
				plan.Summary.Verified++
				plan.Results = append(plan.Results, Result{Ref: e.Ref, Name: e.Name, Path: path, Verified: true})
				continue
			}
		}

		reason := "not found on server"
		if wiped {
			reason = "server empty"
		}
		plan.Summary.NotFound++
		plan.Results = append(plan.Results, Result{Ref: e.Ref, Name: e.Name, Path: path})
		plan.Actions = append(plan.Actions, Action{Type: ActionReset, Ref: e.Ref, Path: path, Reason: reason})
	}

	sortPlan(plan)
	return plan, nil
}

// OnExplicitDeletion resets resources whose remote object was deleted.
func OnExplicitDeletion(ctx context.Context, spec *Spec, deleted []string) (Report, error) {
	plan, err := PlanDeletion(ctx, spec, deleted)
	if err != nil {
		return Report{}, err
	}
	report, err := ApplyPlan(ctx, spec, plan)
	if err != nil {
		return report, err
	}

	// Records may exist for deleted objects that no resource points at anymore.
	if spec.History != nil {
		removed, err := spec.History.MarkRemoved(ctx, NormalizeSet(deleted))
		if err != nil {
			return report, fmt.Errorf("mark removed: %w", err)
		}
		report.Removed = removed
	}
	return report, nil
}

// OnServerListingRefreshed verifies uploaded resources against a bucket listing.
func OnServerListingRefreshed(ctx context.Context, spec *Spec, listing ServerListing) (Report, error) {
	plan, err := PlanListing(ctx, spec, listing)
	if err != nil {
		return Report{}, err
	}
	report, err := ApplyPlan(ctx, spec, plan)
	if err != nil {
		return report, err
	}
	report.Verified = plan.Summary.Verified

	if spec.History != nil && len(plan.Actions) > 0 {
		removed, err := spec.History.MarkRemoved(ctx, plan.removedPaths())
		if err != nil {
			return report, fmt.Errorf("mark removed: %w", err)
		}
		report.Removed = removed
	}
	return report, nil
}

func sortPlan(plan *Plan) {
	sort.Slice(plan.Results, func(i, j int) bool {
		return plan.Results[i].Ref.String() < plan.Results[j].Ref.String()
	})
	sort.Slice(plan.Actions, func(i, j int) bool {
		return plan.Actions[i].Ref.String() < plan.Actions[j].Ref.String()
	})
}
