package assetsync

import (
	"context"

	"asset-pipeline/core/ledger"
	"asset-pipeline/core/reconcile"
)

// LedgerHistory marks ledger records of vanished objects as removed.
// Records are retained so the upload history stays auditable.
type LedgerHistory struct {
	ledger  *ledger.Ledger
	project string
}

// NewLedgerHistory creates a history sink scoped to project.
func NewLedgerHistory(l *ledger.Ledger, project string) *LedgerHistory {
	return &LedgerHistory{ledger: l, project: project}
}

// MarkRemoved implements reconcile.History.
func (h *LedgerHistory) MarkRemoved(ctx context.Context, paths map[string]struct{}) (int, error) {
	if len(paths) == 0 {
		return 0, nil
	}
	records, err := h.ledger.ListByProject(h.project)
	if err != nil {
		return 0, err
	}

	var keys []string
	for _, rec := range records {
		if _, ok := paths[reconcile.NormalizePath(rec.RemotePath)]; ok {
			keys = append(keys, rec.RemotePath)
		}
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	return h.ledger.MarkRemoved(keys)
}

var _ reconcile.History = (*LedgerHistory)(nil)
