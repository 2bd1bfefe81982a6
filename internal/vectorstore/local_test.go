package vectorstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*LocalStore, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "store.db")
	s := NewLocalStore(dbPath, nil)
	require.NoError(t, s.Initialize(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s, dbPath
}

func TestLocalStore_AddSearchDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	docs := []EmbeddingDocument{
		{ID: "1", Text: "func parseConfig(path string) (*Config, error)", Metadata: DocumentMetadata{FilePath: "config.go"}},
		{ID: "2", Text: "func renderTemplate(w io.Writer, name string)", Metadata: DocumentMetadata{FilePath: "render.go"}},
		{ID: "3", Text: "SELECT id, name FROM users WHERE active = 1"},
	}
	require.NoError(t, s.AddDocuments(ctx, docs))

	stats, err := s.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalDocuments)

	results, err := s.Search(ctx, "parse config file", SearchOptions{Limit: 2})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "1", results[0].ID)
	assert.Equal(t, "config.go", results[0].Metadata.FilePath)
	assert.GreaterOrEqual(t, results[0].Score, 0.0)
	assert.LessOrEqual(t, results[0].Score, 1.0)

	require.NoError(t, s.DeleteDocuments(ctx, []string{"1", "missing"}))
	stats, err = s.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalDocuments)

	results, err = s.Search(ctx, "parse config file", SearchOptions{Limit: 5})
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, "1", r.ID)
	}
}

func TestLocalStore_UpsertReplacesDocument(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	require.NoError(t, s.AddDocuments(ctx, []EmbeddingDocument{{ID: "1", Text: "alpha"}}))
	require.NoError(t, s.AddDocuments(ctx, []EmbeddingDocument{{ID: "1", Text: "beta"}}))

	stats, err := s.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalDocuments)

	results, err := s.Search(ctx, "beta", SearchOptions{Limit: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "beta", results[0].Text)
}

func TestLocalStore_ScoreThreshold(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	require.NoError(t, s.AddDocuments(ctx, []EmbeddingDocument{
		{ID: "1", Text: "func parseConfig(path string) (*Config, error)"},
		{ID: "2", Text: "binary tree rotation with red black balancing"},
	}))

	unfiltered, err := s.Search(ctx, "parse config file", SearchOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, unfiltered, 2)
	require.Greater(t, unfiltered[0].Score, unfiltered[1].Score)

	// A floor between the two scores keeps only the close hit.
	floor := (unfiltered[0].Score + unfiltered[1].Score) / 2
	filtered, err := s.Search(ctx, "parse config file", SearchOptions{Limit: 10, ScoreThreshold: floor})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "1", filtered[0].ID)
}

func TestLocalStore_SearchAfterManyDeletes(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	docs := make([]EmbeddingDocument, 6)
	ids := make([]string, 0, 5)
	for i := range docs {
		id := string(rune('a' + i))
		docs[i] = EmbeddingDocument{ID: id, Text: "document number " + id}
		if id != "f" {
			ids = append(ids, id)
		}
	}
	require.NoError(t, s.AddDocuments(ctx, docs))
	require.NoError(t, s.DeleteDocuments(ctx, ids))

	// Lazily deleted nodes outnumber the survivor; the over-fetch must
	// still surface it.
	results, err := s.Search(ctx, "document number f", SearchOptions{Limit: 3})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "f", results[0].ID)
}

func TestLocalStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	s, dbPath := newTestStore(t)

	require.NoError(t, s.AddDocuments(ctx, []EmbeddingDocument{
		{ID: "a", Text: "handleRequest writes the response", Metadata: DocumentMetadata{Language: "go", StartLine: 4, EndLine: 9}},
	}))
	require.NoError(t, s.Close())

	reopened := NewLocalStore(dbPath, nil)
	require.NoError(t, reopened.Initialize(ctx))
	defer reopened.Close()

	stats, err := reopened.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalDocuments)

	results, err := reopened.Search(ctx, "handle request response", SearchOptions{Limit: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "go", results[0].Metadata.Language)
	assert.Equal(t, 4, results[0].Metadata.StartLine)
}

func TestLocalStore_EmptySearch(t *testing.T) {
	s, _ := newTestStore(t)

	results, err := s.Search(context.Background(), "anything", SearchOptions{Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestLocalStore_UseBeforeInitialize(t *testing.T) {
	s := NewLocalStore(filepath.Join(t.TempDir(), "store.db"), nil)

	err := s.AddDocuments(context.Background(), []EmbeddingDocument{{ID: "1", Text: "x"}})
	assert.Error(t, err)
}

func TestStaticEmbedder_Deterministic(t *testing.T) {
	e := NewStaticEmbedder(0)
	ctx := context.Background()

	a, err := e.EmbedBatch(ctx, []string{"parseConfig loads YAML"})
	require.NoError(t, err)
	b, err := e.EmbedBatch(ctx, []string{"parseConfig loads YAML"})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a[0], DefaultDimensions)
}

func TestStaticEmbedder_SimilarTextCloser(t *testing.T) {
	e := NewStaticEmbedder(0)
	ctx := context.Background()

	vecs, err := e.EmbedBatch(ctx, []string{
		"func parseConfig(path string) error",
		"parseConfig reads the configuration file",
		"binary tree rotation with red black balancing",
	})
	require.NoError(t, err)

	dot := func(a, b []float32) float64 {
		var sum float64
		for i := range a {
			sum += float64(a[i]) * float64(b[i])
		}
		return sum
	}

	assert.Greater(t, dot(vecs[0], vecs[1]), dot(vecs[0], vecs[2]))
}

func TestStaticEmbedder_EmptyText(t *testing.T) {
	e := NewStaticEmbedder(8)

	vecs, err := e.EmbedBatch(context.Background(), []string{"   "})
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 8), vecs[0])
}

func TestSplitCamelCase(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"parseConfig", []string{"parse", "Config"}},
		{"HTTPServer", []string{"HTTP", "Server"}},
		{"simple", []string{"simple"}},
		{"", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, splitCamelCase(tt.in), tt.in)
	}
}
