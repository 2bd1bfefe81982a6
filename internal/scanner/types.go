// Package scanner defines the document model produced from a source
// repository and the Scanner contract consumed by the indexer.
//
// The built-in FileScanner emits one document per readable source file;
// richer scanners (AST-based extractors) satisfy the same interface.
package scanner

import (
	"context"
	"path/filepath"
	"strings"
)

// ComponentType labels the kind of code unit a document represents.
type ComponentType string

const (
	ComponentTypeFunction  ComponentType = "function"
	ComponentTypeMethod    ComponentType = "method"
	ComponentTypeClass     ComponentType = "class"
	ComponentTypeInterface ComponentType = "interface"
	ComponentTypeType      ComponentType = "type"
	ComponentTypeVariable  ComponentType = "variable"
	ComponentTypeConstant  ComponentType = "constant"
	ComponentTypeFile      ComponentType = "file"
)

// DocumentMetadata is the closed metadata record for a code-unit document.
type DocumentMetadata struct {
	// FilePath is the path of the source file, relative to the repo root.
	FilePath string
	// Name is the code unit's name.
	Name string
	// StartLine and EndLine bound the unit within the file (1-based).
	StartLine int
	EndLine   int
	// Exported indicates whether the unit is part of the file's public surface.
	Exported bool
	// Signature is the declaration signature, if known.
	Signature string
	// Docstring is the unit's documentation comment, if any.
	Docstring string
}

// Document is a single indexable code unit extracted from a source file.
type Document struct {
	ID       string
	Type     ComponentType
	Language string
	Content  string
	Metadata DocumentMetadata
}

// Lines returns the number of source lines the document spans.
func (d *Document) Lines() int {
	if d.Metadata.EndLine < d.Metadata.StartLine {
		return 0
	}
	return d.Metadata.EndLine - d.Metadata.StartLine + 1
}

// ScanOptions configures a scan.
type ScanOptions struct {
	// RootDir is the repository root to scan.
	RootDir string

	// Include restricts the scan to the given root-relative paths
	// (empty = whole tree). Used by incremental re-indexing.
	Include []string

	// Exclude are glob patterns to skip.
	Exclude []string

	// Languages restricts results to the given languages (empty = all).
	Languages []string

	// MaxFileSize is the maximum file size in bytes (0 = 10MB).
	MaxFileSize int64
}

// ScanStats describes a completed scan.
type ScanStats struct {
	FilesScanned int
}

// ScanResult is the output of one scan.
type ScanResult struct {
	Documents []*Document
	Stats     ScanStats
}

// Scanner turns repository files into structured code-unit documents.
type Scanner interface {
	Scan(ctx context.Context, opts *ScanOptions) (*ScanResult, error)
}

// languageMap maps file extensions (and exact names) to languages.
var languageMap = map[string]string{
	".go":      "go",
	".js":      "javascript",
	".jsx":     "javascript",
	".mjs":     "javascript",
	".ts":      "typescript",
	".tsx":     "typescript",
	".py":      "python",
	".pyi":     "python",
	".rb":      "ruby",
	".rs":      "rust",
	".java":    "java",
	".kt":      "kotlin",
	".c":       "c",
	".h":       "c",
	".cpp":     "cpp",
	".hpp":     "cpp",
	".cc":      "cpp",
	".cs":      "csharp",
	".swift":   "swift",
	".php":     "php",
	".scala":   "scala",
	".ex":      "elixir",
	".exs":     "elixir",
	".hs":      "haskell",
	".lua":     "lua",
	".sql":     "sql",
	".sh":      "shell",
	".bash":    "shell",
	".zsh":     "shell",
	".md":      "markdown",
	".mdx":     "markdown",
	".yaml":    "yaml",
	".yml":     "yaml",
	".toml":    "toml",
	".json":    "json",
	".proto":   "protobuf",
	".graphql": "graphql",
	".vue":     "vue",
	".svelte":  "svelte",
	".html":    "html",
	".css":     "css",

	"Dockerfile": "dockerfile",
	"Makefile":   "makefile",
}

// DetectLanguage detects the programming language from a file path.
// Returns empty string for unknown files.
func DetectLanguage(path string) string {
	base := filepath.Base(path)
	if lang, ok := languageMap[base]; ok {
		return lang
	}
	if lang, ok := languageMap[strings.ToLower(filepath.Ext(base))]; ok {
		return lang
	}
	return ""
}
