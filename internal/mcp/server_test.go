package mcp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/repovec/internal/config"
	"github.com/Aman-CERP/repovec/internal/indexer"
	"github.com/Aman-CERP/repovec/internal/scanner"
	"github.com/Aman-CERP/repovec/internal/vectorstore"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "greet.go"),
		[]byte("package greet\n\nfunc Greet(name string) string { return \"hi \" + name }\n"), 0o644))

	store := vectorstore.NewLocalStore(filepath.Join(root, ".repovec", "store.db"), nil)
	idx := indexer.New(root, config.DefaultConfig(), scanner.NewFileScanner(1), store)
	require.NoError(t, idx.Initialize(context.Background()))
	t.Cleanup(func() { idx.Close() })

	s, err := NewServer(idx)
	require.NoError(t, err)
	return s, root
}

func TestNewServer_RequiresIndexer(t *testing.T) {
	_, err := NewServer(nil)
	assert.Error(t, err)
}

func TestIndexThenSearchAndStats(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	_, run, err := s.indexRepositoryHandler(ctx, nil, IndexRepositoryInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, run.FilesIndexed)
	assert.NotEmpty(t, run.RunID)
	assert.Empty(t, run.Errors)

	_, results, err := s.searchCodeHandler(ctx, nil, SearchCodeInput{Query: "greet name"})
	require.NoError(t, err)
	require.NotEmpty(t, results.Results)
	assert.Equal(t, "greet.go", results.Results[0].FilePath)
	assert.Equal(t, "go", results.Results[0].Language)
	assert.Equal(t, 1, results.Results[0].StartLine)

	_, stats, err := s.indexStatsHandler(ctx, nil, IndexStatsInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalFiles)
	assert.Equal(t, 1, stats.ByLanguage["go"].Files)
	assert.NotEmpty(t, stats.LastIndexed)
}

func TestSearchCode_RequiresQuery(t *testing.T) {
	s, _ := newTestServer(t)

	_, _, err := s.searchCodeHandler(context.Background(), nil, SearchCodeInput{})
	assert.Error(t, err)
}

func TestUpdateIndex_PicksUpDeletion(t *testing.T) {
	s, root := newTestServer(t)
	ctx := context.Background()

	_, _, err := s.indexRepositoryHandler(ctx, nil, IndexRepositoryInput{})
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "greet.go")))

	_, run, err := s.updateIndexHandler(ctx, nil, UpdateIndexInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, run.FilesDeleted)

	_, stats, err := s.indexStatsHandler(ctx, nil, IndexStatsInput{})
	require.NoError(t, err)
	assert.Zero(t, stats.TotalFiles)
}

func TestServe_UnknownTransport(t *testing.T) {
	s, _ := newTestServer(t)
	assert.Error(t, s.Serve(context.Background(), "tcp"))
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "short", snippet("short"))

	long := make([]byte, maxSnippetLen+10)
	for i := range long {
		long[i] = 'x'
	}
	got := snippet(string(long))
	assert.Len(t, got, maxSnippetLen+3)
}
