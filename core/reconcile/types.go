package reconcile

import (
	"errors"

	"asset-pipeline/core/asset"
)

// ErrIncompleteListing is returned when a listing was not fully enumerated.
// A partial listing cannot tell a missing object from one that was never reached.
var ErrIncompleteListing = errors.New("reconcile: server listing incomplete")

// Entry is a snapshot of one resource's upload state.
type Entry struct {
	// Ref identifies the resource.
	Ref asset.Ref `json:"ref"`

	// Name is the display name used in logs and results.
	Name string `json:"name"`

	// RemoteURL is the public URL or key recorded at upload time.
	RemoteURL string `json:"remote_url"`

	// Status is the current upload status.
	Status asset.UploadStatus `json:"status"`
}

// ServerListing is the set of object keys observed in the bucket.
type ServerListing struct {
	// Paths holds the listed object keys in any form NormalizePath accepts.
	Paths []string

	// Complete is true only when the enumeration finished without error.
	Complete bool
}

// ActionType represents the type of mutation action.
type ActionType string

const (
	// ActionReset clears a resource's upload state.
	ActionReset ActionType = "reset"
)

// Action represents a planned mutation.
type Action struct {
	Type   ActionType `json:"type"`
	Ref    asset.Ref  `json:"ref"`
	Path   string     `json:"path"`
	Reason string     `json:"reason"`
}

// Result is the outcome of comparing one entry against remote state.
type Result struct {
	Ref      asset.Ref `json:"ref"`
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Verified bool      `json:"verified"`
}

// Plan contains comparison results and the resets they require.
type Plan struct {
	Results []Result    `json:"results"`
	Actions []Action    `json:"actions"`
	Summary PlanSummary `json:"summary"`
}

// PlanSummary provides aggregate counts for a plan.
type PlanSummary struct {
	// Checked counts entries compared against remote state.
	Checked int `json:"checked"`

	// Verified counts uploaded entries whose object is still present.
	Verified int `json:"verified"`

	// NotFound counts entries whose object is gone.
	NotFound int `json:"not_found"`
}

// Report is what an entry point did.
type Report struct {
	// Reset counts resources whose upload state was cleared.
	Reset int `json:"reset"`

	// Verified counts resources confirmed present remotely.
	Verified int `json:"verified"`

	// Removed counts ledger records marked removed.
	Removed int `json:"removed"`
}

// removedPaths returns the normalized paths the plan resets.
func (p *Plan) removedPaths() map[string]struct{} {
	set := make(map[string]struct{}, len(p.Actions))
	for _, a := range p.Actions {
		if a.Path != "" {
			set[a.Path] = struct{}{}
		}
	}
	return set
}
