package detector

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/repovec/internal/scanner"
)

func scanDir(t *testing.T, root string) *scanner.ScanResult {
	t.Helper()
	result, err := scanner.NewFileScanner(1).Scan(context.Background(), &scanner.ScanOptions{RootDir: root})
	require.NoError(t, err)
	return result
}

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func hashes(changes []FileChange) map[string]string {
	out := make(map[string]string, len(changes))
	for _, c := range changes {
		out[c.Path] = c.Hash
	}
	return out
}

func TestDetectChanges_FreshRepository(t *testing.T) {
	root := t.TempDir()
	write(t, root, "a.ts", "export const a = 1\n")
	write(t, root, "b.ts", "export const b = 2\n")

	changes := DetectChanges(nil, scanDir(t, root), Options{RootDir: root})

	assert.Empty(t, changes.Changed)
	assert.Empty(t, changes.Deleted)
	require.Len(t, changes.Added, 2)
	assert.Equal(t, "a.ts", changes.Added[0].Path)
	assert.Equal(t, "b.ts", changes.Added[1].Path)
	assert.Equal(t, 3, (&Changes{Added: changes.Added, Deleted: []string{"x"}}).Total())
}

func TestDetectChanges_Partition(t *testing.T) {
	root := t.TempDir()
	write(t, root, "same.go", "package same\n")
	write(t, root, "edited.go", "package edited // v1\n")
	write(t, root, "new.go", "package new\n")

	first := DetectChanges(nil, scanDir(t, root), Options{RootDir: root})
	prior := hashes(first.Added)
	delete(prior, "new.go")
	prior["gone.go"] = "deadbeef"

	write(t, root, "edited.go", "package edited // v2\n")

	changes := DetectChanges(prior, scanDir(t, root), Options{RootDir: root})

	require.Len(t, changes.Changed, 1)
	assert.Equal(t, "edited.go", changes.Changed[0].Path)
	require.Len(t, changes.Added, 1)
	assert.Equal(t, "new.go", changes.Added[0].Path)
	assert.Equal(t, []string{"gone.go"}, changes.Deleted)
}

func TestDetectChanges_UnchangedFileNotReported(t *testing.T) {
	root := t.TempDir()
	write(t, root, "a.go", "package a\n")

	first := DetectChanges(nil, scanDir(t, root), Options{RootDir: root})
	prior := hashes(first.Added)

	// Touch the mtime without changing content.
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(root, "a.go"), future, future))

	changes := DetectChanges(prior, scanDir(t, root), Options{RootDir: root})
	assert.Zero(t, changes.Total())
}

func TestDetectChanges_Force(t *testing.T) {
	root := t.TempDir()
	write(t, root, "a.go", "package a\n")

	prior := hashes(DetectChanges(nil, scanDir(t, root), Options{RootDir: root}).Added)

	changes := DetectChanges(prior, scanDir(t, root), Options{RootDir: root, Force: true})
	require.Len(t, changes.Changed, 1)
	assert.Equal(t, "a.go", changes.Changed[0].Path)
}

func TestDetectChanges_SinceSkipsOldFiles(t *testing.T) {
	root := t.TempDir()
	write(t, root, "old.go", "package old\n")
	write(t, root, "hot.go", "package hot\n")

	prior := hashes(DetectChanges(nil, scanDir(t, root), Options{RootDir: root}).Added)

	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(root, "old.go"), past, past))

	// Edit both; old.go keeps its back-dated mtime.
	write(t, root, "hot.go", "package hot // edited\n")
	write(t, root, "old.go", "package old // edited\n")
	require.NoError(t, os.Chtimes(filepath.Join(root, "old.go"), past, past))

	changes := DetectChanges(prior, scanDir(t, root), Options{
		RootDir: root,
		Since:   time.Now().Add(-time.Hour),
	})

	require.Len(t, changes.Changed, 1)
	assert.Equal(t, "hot.go", changes.Changed[0].Path)

	// Deletions are still detected under a since cutoff.
	require.NoError(t, os.Remove(filepath.Join(root, "old.go")))
	changes = DetectChanges(prior, scanDir(t, root), Options{
		RootDir: root,
		Since:   time.Now().Add(-time.Hour),
	})
	assert.Contains(t, changes.Deleted, "old.go")
}

func TestFileHash_ContentSensitive(t *testing.T) {
	docA := []*scanner.Document{{Content: "alpha"}}
	docB := []*scanner.Document{{Content: "beta"}}

	assert.Equal(t, FileHash(docA), FileHash([]*scanner.Document{{Content: "alpha"}}))
	assert.NotEqual(t, FileHash(docA), FileHash(docB))
}
