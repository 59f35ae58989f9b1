package fetcher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/curation-cli/internal/model"
	"github.com/sells-group/curation-cli/internal/store"
)

type memStore struct {
	mu       sync.Mutex
	items    map[string]model.Item
	analyses map[string][]model.SourceAnalysis
}

func newMemStore() *memStore {
	return &memStore{
		items:    map[string]model.Item{},
		analyses: map[string][]model.SourceAnalysis{},
	}
}

func (m *memStore) PutItem(ctx context.Context, item model.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.ID] = item
	return nil
}

func (m *memStore) PutAnalyses(ctx context.Context, analyses []model.SourceAnalysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range analyses {
		m.analyses[a.ItemID] = append(m.analyses[a.ItemID], a)
	}
	return nil
}

func (m *memStore) ListItems(ctx context.Context, f store.ItemFilter) (*store.ItemBatch, error) {
	return &store.ItemBatch{}, nil
}

func (m *memStore) GetItem(ctx context.Context, itemID string) (*store.ItemWithSources, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[itemID]
	if !ok {
		return nil, store.ErrItemNotFound
	}
	return &store.ItemWithSources{Item: it, Sources: m.analyses[itemID]}, nil
}

func (m *memStore) GetEntry(ctx context.Context, itemID string) (*model.GoldenEntry, error) {
	return nil, store.ErrEntryNotFound
}

func (m *memStore) SaveEntry(ctx context.Context, entry *model.GoldenEntry) (int, error) {
	return 0, nil
}

func (m *memStore) ExportEntries(ctx context.Context) ([]model.GoldenEntry, error) {
	return nil, nil
}

func (m *memStore) Migrate(ctx context.Context) error { return nil }
func (m *memStore) Close() error                      { return nil }

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func analysisFile(producer, headline string) map[string]any {
	return map[string]any{
		"producer": producer,
		"content":  map[string]any{"headline": headline},
	}
}

func TestImporterLocalDrop(t *testing.T) {
	dir := t.TempDir()
	writeJSON(t, filepath.Join(dir, "item-1.a.json"), analysisFile("vision-a", "A sunset"))
	writeJSON(t, filepath.Join(dir, "item-1.b.json"), analysisFile("vision-b", "The sunset"))
	writeJSON(t, filepath.Join(dir, "item-2.a.json"), analysisFile("vision-a", "A boat"))
	writeJSON(t, filepath.Join(dir, "manifest.json"), Manifest{
		Items: []ManifestItem{
			{
				ItemID:           "item-1",
				AssetRef:         "media/one.jpg",
				OriginalFilename: "one.jpg",
				Analyses: []AnalysisRef{
					{Producer: "vision-a", Ref: "item-1.a.json"},
					{Producer: "vision-b", Ref: "item-1.b.json"},
				},
			},
			{
				ItemID:   "item-2",
				AssetRef: "media/two.jpg",
				Analyses: []AnalysisRef{
					{Producer: "vision-a", Ref: "item-2.a.json"},
				},
			},
		},
	})

	st := newMemStore()
	im := NewImporter(st, ImportOptions{MaxConcurrentItems: 2})

	n, err := im.Run(context.Background(), filepath.Join(dir, "manifest.json"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Len(t, st.items, 2)
	require.Len(t, st.analyses["item-1"], 2)
	assert.Equal(t, "A sunset", st.analyses["item-1"][0].Content.Headline)
	assert.Len(t, st.analyses["item-2"], 1)
}

func TestImporterHTTPDrop(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/drop/manifest.json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Manifest{
			Items: []ManifestItem{{
				ItemID:   "item-1",
				AssetRef: "media/one.jpg",
				Analyses: []AnalysisRef{{Producer: "vision-a", Ref: "item-1.json"}},
			}},
		})
	})
	mux.HandleFunc("/drop/item-1.json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(analysisFile("vision-a", "A harbor"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	st := newMemStore()
	im := NewImporter(st, ImportOptions{})

	n, err := im.Run(context.Background(), srv.URL+"/drop/manifest.json")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, st.analyses["item-1"], 1)
	assert.Equal(t, "A harbor", st.analyses["item-1"][0].Content.Headline)
}

func TestImporterMissingItemID(t *testing.T) {
	dir := t.TempDir()
	writeJSON(t, filepath.Join(dir, "manifest.json"), Manifest{
		Items: []ManifestItem{{AssetRef: "media/one.jpg"}},
	})

	im := NewImporter(newMemStore(), ImportOptions{})
	_, err := im.Run(context.Background(), filepath.Join(dir, "manifest.json"))
	assert.Error(t, err)
}

func TestImporterItemWithoutAnalysesIsSkipped(t *testing.T) {
	dir := t.TempDir()
	writeJSON(t, filepath.Join(dir, "manifest.json"), Manifest{
		Items: []ManifestItem{{ItemID: "item-1", AssetRef: "media/one.jpg"}},
	})

	st := newMemStore()
	im := NewImporter(st, ImportOptions{})
	n, err := im.Run(context.Background(), filepath.Join(dir, "manifest.json"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, st.items, 1)
	assert.Empty(t, st.analyses)
}
