package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, 32, cfg.Index.BatchSize)
	assert.Equal(t, 0, cfg.Index.Concurrency)
	assert.Equal(t, int64(10*1024*1024), cfg.Index.MaxFileSize)
	assert.Equal(t, "static-fnv", cfg.Embeddings.Model)
	assert.Equal(t, 256, cfg.Embeddings.Dimensions)
	assert.Equal(t, 10, cfg.Search.MaxResults)
	assert.Contains(t, cfg.Paths.Exclude, "**/node_modules/**")
	assert.Contains(t, cfg.Paths.Exclude, "**/.repovec/**")
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Index.BatchSize, cfg.Index.BatchSize)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `version: 1
index:
  batch_size: 64
  concurrency: 2
packages:
  - name: core
    path: src/core
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Index.BatchSize)
	assert.Equal(t, 2, cfg.Index.Concurrency)
	require.Len(t, cfg.Packages, 1)
	assert.Equal(t, "core", cfg.Packages[0].Name)
	assert.Equal(t, "src/core", cfg.Packages[0].Path)
}

func TestLoad_UserExcludesExtendDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `paths:
  exclude:
    - "**/generated/**"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Contains(t, cfg.Paths.Exclude, "**/generated/**")
	assert.Contains(t, cfg.Paths.Exclude, "**/node_modules/**")
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("index: ["), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestLoad_EnvOverridesConcurrency(t *testing.T) {
	t.Setenv(EnvConcurrency, "3")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Index.Concurrency)
	assert.Equal(t, 3, cfg.EffectiveConcurrency())
}

func TestEffectiveConcurrency_Bounds(t *testing.T) {
	cfg := DefaultConfig()

	cfg.Index.Concurrency = 0
	got := cfg.EffectiveConcurrency()
	assert.GreaterOrEqual(t, got, 1)
	assert.LessOrEqual(t, got, 8)

	cfg.Index.Concurrency = 100
	assert.Equal(t, 8, cfg.EffectiveConcurrency())
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Index.BatchSize = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Embeddings.Dimensions = -1
	assert.Error(t, cfg.Validate())
}

func TestWatchConfig_DebounceWindow(t *testing.T) {
	assert.Equal(t, 200*time.Millisecond, WatchConfig{Debounce: "200ms"}.DebounceWindow())
	assert.Equal(t, 500*time.Millisecond, WatchConfig{Debounce: "bogus"}.DebounceWindow())
	assert.Equal(t, 500*time.Millisecond, WatchConfig{}.DebounceWindow())
}

func TestStatePath(t *testing.T) {
	assert.Equal(t, filepath.Join("/repo", ".repovec", "state.json"), StatePath("/repo"))
}
