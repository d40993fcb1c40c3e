package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"asset-pipeline/core/asset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockAdapter keeps entries in memory and applies resets to them.
type mockAdapter struct {
	mu      sync.Mutex
	entries []Entry
	loadErr error
	resets  []asset.Ref
}

func (m *mockAdapter) Name() string { return "mock" }

func (m *mockAdapter) LoadEntries(ctx context.Context) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

func (m *mockAdapter) Reset(ctx context.Context, ref asset.Ref) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets = append(m.resets, ref)
	for i := range m.entries {
		if m.entries[i].Ref == ref {
			m.entries[i].Status = asset.StatusNone
			m.entries[i].RemoteURL = ""
		}
	}
	return nil
}

func (m *mockAdapter) status(ref asset.Ref) asset.UploadStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.Ref == ref {
			return e.Status
		}
	}
	return asset.StatusNone
}

// mockHistory records the paths it was asked to mark.
type mockHistory struct {
	marked map[string]struct{}
}

func (h *mockHistory) MarkRemoved(ctx context.Context, paths map[string]struct{}) (int, error) {
	if h.marked == nil {
		h.marked = make(map[string]struct{})
	}
	for p := range paths {
		h.marked[p] = struct{}{}
	}
	return len(paths), nil
}

func uploaded(kind asset.Kind, id int64, url string) Entry {
	return Entry{
		Ref:       asset.Ref{Kind: kind, ID: id},
		Name:      fmt.Sprintf("%s_%d", kind, id),
		RemoteURL: url,
		Status:    asset.StatusUploaded,
	}
}

func TestOnExplicitDeletion(t *testing.T) {
	adapter := &mockAdapter{entries: []Entry{
		uploaded(asset.KindTexture, 7, "https://cdn.example.com/proj/assets/content/tex_07.ktx2"),
		uploaded(asset.KindModel, 1, "https://cdn.example.com/proj/assets/content/chair.glb"),
		{Ref: asset.Ref{Kind: asset.KindMaterial, ID: 3}, RemoteURL: "https://cdn.example.com/proj/assets/content/chair_mat.json", Status: asset.StatusError},
	}}
	history := &mockHistory{}
	spec := &Spec{Adapter: adapter, History: history}

	report, err := OnExplicitDeletion(context.Background(), spec, []string{
		"proj/Assets/Content/TEX_07.ktx2",
		"proj/assets/content/chair_mat.json",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Reset)
	assert.Equal(t, 2, report.Removed)
	assert.Equal(t, asset.StatusNone, adapter.status(asset.Ref{Kind: asset.KindTexture, ID: 7}))
	assert.Equal(t, asset.StatusUploaded, adapter.status(asset.Ref{Kind: asset.KindModel, ID: 1}))
	assert.Contains(t, history.marked, "assets/content/tex_07.ktx2")
}

func TestOnExplicitDeletion_Idempotent(t *testing.T) {
	adapter := &mockAdapter{entries: []Entry{
		uploaded(asset.KindTexture, 7, "proj/assets/content/tex_07.ktx2"),
	}}
	spec := &Spec{Adapter: adapter}
	deleted := []string{"proj/assets/content/tex_07.ktx2"}

	first, err := OnExplicitDeletion(context.Background(), spec, deleted)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Reset)

	second, err := OnExplicitDeletion(context.Background(), spec, deleted)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Reset)
}

func TestOnExplicitDeletion_EmptySet(t *testing.T) {
	adapter := &mockAdapter{loadErr: errors.New("must not load")}
	report, err := OnExplicitDeletion(context.Background(), &Spec{Adapter: adapter}, nil)
	require.NoError(t, err)
	assert.Equal(t, Report{}, report)
}

func TestOnServerListingRefreshed_EmptyResetsAll(t *testing.T) {
	adapter := &mockAdapter{}
	for i := int64(1); i <= 50; i++ {
		adapter.entries = append(adapter.entries, uploaded(asset.KindTexture, i, fmt.Sprintf("proj/assets/content/t%d.ktx2", i)))
	}
	adapter.entries = append(adapter.entries, Entry{Ref: asset.Ref{Kind: asset.KindModel, ID: 99}, Status: asset.StatusError, RemoteURL: "proj/assets/x.glb"})

	report, err := OnServerListingRefreshed(context.Background(), &Spec{Adapter: adapter}, ServerListing{Complete: true})
	require.NoError(t, err)
	assert.Equal(t, 50, report.Reset)
	assert.Equal(t, 0, report.Verified)
	assert.Equal(t, asset.StatusError, adapter.status(asset.Ref{Kind: asset.KindModel, ID: 99}))
}

func TestOnServerListingRefreshed_Incomplete(t *testing.T) {
	adapter := &mockAdapter{entries: []Entry{uploaded(asset.KindTexture, 1, "proj/assets/a.ktx2")}}

	_, err := OnServerListingRefreshed(context.Background(), &Spec{Adapter: adapter}, ServerListing{})
	assert.ErrorIs(t, err, ErrIncompleteListing)

	_, err = OnServerListingRefreshed(context.Background(), &Spec{Adapter: adapter}, ServerListing{Paths: []string{"proj/assets/b.ktx2"}})
	assert.ErrorIs(t, err, ErrIncompleteListing)

	assert.Empty(t, adapter.resets)
}

func TestOnServerListingRefreshed_VerifiesAndResets(t *testing.T) {
	adapter := &mockAdapter{entries: []Entry{
		uploaded(asset.KindTexture, 1, "https://cdn/proj/assets/content/a.ktx2"),
		uploaded(asset.KindTexture, 2, "https://cdn/proj/assets/content/b.ktx2"),
		uploaded(asset.KindModel, 3, ""),
	}}
	history := &mockHistory{}
	listing := ServerListing{Paths: []string{"proj/assets/content/A.ktx2", "proj/mapping.json"}, Complete: true}

	report, err := OnServerListingRefreshed(context.Background(), &Spec{Adapter: adapter, History: history}, listing)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Verified)
	assert.Equal(t, 2, report.Reset)
	assert.Equal(t, asset.StatusUploaded, adapter.status(asset.Ref{Kind: asset.KindTexture, ID: 1}))
	assert.Equal(t, asset.StatusNone, adapter.status(asset.Ref{Kind: asset.KindTexture, ID: 2}))
	assert.Contains(t, history.marked, "assets/content/b.ktx2")
}

func TestOnServerListingRefreshed_NeverPromotes(t *testing.T) {
	adapter := &mockAdapter{entries: []Entry{
		{Ref: asset.Ref{Kind: asset.KindTexture, ID: 1}, RemoteURL: "proj/assets/a.ktx2", Status: asset.StatusNone},
		{Ref: asset.Ref{Kind: asset.KindTexture, ID: 2}, RemoteURL: "proj/assets/b.ktx2", Status: asset.StatusError},
		uploaded(asset.KindTexture, 3, "proj/assets/c.ktx2"),
	}}
	listings := []ServerListing{
		{Paths: []string{"proj/assets/a.ktx2", "proj/assets/b.ktx2", "proj/assets/c.ktx2"}, Complete: true},
		{Paths: []string{"proj/assets/a.ktx2"}, Complete: true},
		{Complete: true},
	}

	for _, listing := range listings {
		before := map[asset.Ref]asset.UploadStatus{}
		for _, e := range adapter.entries {
			before[e.Ref] = e.Status
		}
		_, err := OnServerListingRefreshed(context.Background(), &Spec{Adapter: adapter}, listing)
		require.NoError(t, err)
		for _, e := range adapter.entries {
			if before[e.Ref] != asset.StatusUploaded {
				assert.NotEqual(t, asset.StatusUploaded, e.Status, e.Ref.String())
			}
		}
	}
}

func TestPlanListing_LoadError(t *testing.T) {
	adapter := &mockAdapter{loadErr: errors.New("db down")}
	_, err := PlanListing(context.Background(), &Spec{Adapter: adapter}, ServerListing{Complete: true})
	assert.ErrorContains(t, err, "db down")
}
