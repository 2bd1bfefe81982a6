// Package config provides repovec configuration loading.
//
// Configuration comes from .repovec.yaml in the project root, with
// defaults applied explicitly field-by-field and a small set of
// environment overrides on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the per-project configuration file name.
const ConfigFileName = ".repovec.yaml"

// DataDirName is the hidden project-local data directory.
const DataDirName = ".repovec"

// Environment override variable names.
const (
	EnvConcurrency = "REPOVEC_INDEX_CONCURRENCY"
	EnvLogLevel    = "REPOVEC_LOG_LEVEL"
)

// Config is the complete repovec configuration.
type Config struct {
	Version    int              `yaml:"version"`
	Paths      PathsConfig      `yaml:"paths"`
	Index      IndexConfig      `yaml:"index"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	Search     SearchConfig     `yaml:"search"`
	Watch      WatchConfig      `yaml:"watch"`
	Packages   []PackageConfig  `yaml:"packages"`
	Server     ServerConfig     `yaml:"server"`
}

// PathsConfig configures which paths to exclude from scanning.
type PathsConfig struct {
	Exclude []string `yaml:"exclude"`
}

// IndexConfig configures indexing behavior.
type IndexConfig struct {
	// BatchSize is the number of documents per embedding batch.
	BatchSize int `yaml:"batch_size"`
	// Concurrency is the number of batches processed in parallel
	// within one concurrency group (0 = derive from CPU count).
	Concurrency int `yaml:"concurrency"`
	// MaxFileSize is the maximum file size to index in bytes.
	MaxFileSize int64 `yaml:"max_file_size"`
	// Languages restricts indexing to the given languages (empty = all).
	Languages []string `yaml:"languages"`
}

// EmbeddingsConfig configures the embedding backend.
type EmbeddingsConfig struct {
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// SearchConfig configures search defaults.
type SearchConfig struct {
	MaxResults     int     `yaml:"max_results"`
	ScoreThreshold float64 `yaml:"score_threshold"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	// Debounce is the window for coalescing filesystem events,
	// as a duration string (e.g. "500ms").
	Debounce string `yaml:"debounce"`
}

// DebounceWindow parses the configured debounce, falling back to 500ms.
func (w WatchConfig) DebounceWindow() time.Duration {
	d, err := time.ParseDuration(w.Debounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// PackageConfig registers a package/workspace root for stats attribution.
type PackageConfig struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// ServerConfig configures the MCP server and logging.
type ServerConfig struct {
	Transport string `yaml:"transport"`
	LogLevel  string `yaml:"log_level"`
}

// defaultExcludePatterns are always merged into Paths.Exclude.
var defaultExcludePatterns = []string{
	"**/node_modules/**",
	"**/.git/**",
	"**/vendor/**",
	"**/__pycache__/**",
	"**/dist/**",
	"**/build/**",
	"**/.repovec/**",
	"**/*.min.js",
	"**/package-lock.json",
	"**/go.sum",
}

// DefaultConfig returns a Config with every field set to its documented
// default. Defaults are applied explicitly here, never by merge semantics.
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			Exclude: append([]string(nil), defaultExcludePatterns...),
		},
		Index: IndexConfig{
			BatchSize:   32,
			Concurrency: 0, // auto
			MaxFileSize: 10 * 1024 * 1024,
			Languages:   nil,
		},
		Embeddings: EmbeddingsConfig{
			Model:      "static-fnv",
			Dimensions: 256,
		},
		Search: SearchConfig{
			MaxResults:     10,
			ScoreThreshold: 0,
		},
		Watch: WatchConfig{
			Debounce: "500ms",
		},
		Packages: nil,
		Server: ServerConfig{
			Transport: "stdio",
			LogLevel:  "info",
		},
	}
}

// Load reads .repovec.yaml from dir, if present, on top of defaults and
// applies environment overrides. A missing config file is not an error.
func Load(dir string) (*Config, error) {
	cfg := DefaultConfig()

	path := filepath.Join(dir, ConfigFileName)
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		// User exclude patterns extend the defaults, never replace them.
		cfg.Paths.Exclude = mergePatterns(defaultExcludePatterns, cfg.Paths.Exclude)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DataDir returns the project-local data directory under root.
func DataDir(root string) string {
	return filepath.Join(root, DataDirName)
}

// StatePath returns the default indexer state file path under root.
func StatePath(root string) string {
	return filepath.Join(DataDir(root), "state.json")
}

// applyEnvOverrides applies environment variables on top of file values.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvConcurrency); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Index.Concurrency = n
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Server.LogLevel = v
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Index.BatchSize <= 0 {
		return fmt.Errorf("index.batch_size must be positive, got %d", c.Index.BatchSize)
	}
	if c.Index.Concurrency < 0 {
		return fmt.Errorf("index.concurrency must not be negative, got %d", c.Index.Concurrency)
	}
	if c.Embeddings.Dimensions <= 0 {
		return fmt.Errorf("embeddings.dimensions must be positive, got %d", c.Embeddings.Dimensions)
	}
	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("search.max_results must be positive, got %d", c.Search.MaxResults)
	}
	return nil
}

// WriteYAML writes the configuration to the given path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// EffectiveConcurrency resolves the configured concurrency to a usable
// value: configured > 0 wins, otherwise CPU count, clamped to [1, 8].
func (c *Config) EffectiveConcurrency() int {
	n := c.Index.Concurrency
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if n < 1 {
		n = 1
	}
	if n > 8 {
		n = 8
	}
	return n
}

// mergePatterns combines two pattern lists, dropping duplicates and
// preserving order.
func mergePatterns(base, extra []string) []string {
	seen := make(map[string]bool, len(base)+len(extra))
	merged := make([]string, 0, len(base)+len(extra))
	for _, p := range base {
		if !seen[p] {
			seen[p] = true
			merged = append(merged, p)
		}
	}
	for _, p := range extra {
		if !seen[p] {
			seen[p] = true
			merged = append(merged, p)
		}
	}
	return merged
}
