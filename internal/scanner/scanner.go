package scanner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultMaxFileSize is the default maximum file size (10MB).
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// FileScanner is the built-in Scanner. It emits one whole-file document
// per readable source file with a recognized language; it never parses
// source code.
type FileScanner struct {
	workers int
}

// NewFileScanner creates a FileScanner with the given worker count
// (0 = a sensible default).
func NewFileScanner(workers int) *FileScanner {
	if workers <= 0 {
		workers = 4
	}
	return &FileScanner{workers: workers}
}

// Scan discovers files under opts.RootDir (or the restricted Include
// list) and produces documents. Unreadable individual files are skipped;
// only failure to read the repository itself is an error.
func (s *FileScanner) Scan(ctx context.Context, opts *ScanOptions) (*ScanResult, error) {
	if opts == nil || opts.RootDir == "" {
		return nil, fmt.Errorf("scan root is required")
	}

	maxSize := opts.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	paths, err := s.discover(opts)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		docs    []*Document
		scanned int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, relPath := range paths {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			doc, ok := s.readDocument(opts.RootDir, relPath, maxSize)

			mu.Lock()
			defer mu.Unlock()
			scanned++
			if ok {
				docs = append(docs, doc)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	docs = filterLanguages(docs, opts.Languages)

	// Deterministic output order regardless of worker scheduling.
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].Metadata.FilePath < docs[j].Metadata.FilePath
	})

	return &ScanResult{
		Documents: docs,
		Stats:     ScanStats{FilesScanned: scanned},
	}, nil
}

// discover lists root-relative candidate file paths for the scan.
func (s *FileScanner) discover(opts *ScanOptions) ([]string, error) {
	if len(opts.Include) > 0 {
		// Restricted scan: only the named paths, missing ones skipped.
		var paths []string
		for _, rel := range opts.Include {
			if matchesAny(rel, opts.Exclude) {
				continue
			}
			if _, err := os.Stat(filepath.Join(opts.RootDir, rel)); err != nil {
				continue
			}
			paths = append(paths, rel)
		}
		return paths, nil
	}

	var paths []string
	err := filepath.WalkDir(opts.RootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == opts.RootDir {
				return err
			}
			slog.Debug("scan_skip_unreadable", slog.String("path", path))
			return nil
		}

		rel, relErr := filepath.Rel(opts.RootDir, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") || matchesAny(rel+"/", opts.Exclude) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if matchesAny(rel, opts.Exclude) {
			return nil
		}
		if DetectLanguage(rel) == "" {
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", opts.RootDir, err)
	}
	return paths, nil
}

// readDocument builds the whole-file document for relPath. Returns
// ok=false when the file should be skipped (unreadable, oversized,
// binary, or filtered by language).
func (s *FileScanner) readDocument(root, relPath string, maxSize int64) (*Document, bool) {
	language := DetectLanguage(relPath)
	if language == "" {
		return nil, false
	}

	absPath := filepath.Join(root, relPath)
	info, err := os.Lstat(absPath)
	if err != nil || info.Mode()&os.ModeSymlink != 0 {
		return nil, false
	}
	if info.Size() > maxSize {
		slog.Warn("scan_skip_oversized",
			slog.String("path", relPath),
			slog.Int64("size", info.Size()),
			slog.Int64("max", maxSize))
		return nil, false
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		slog.Debug("scan_skip_unreadable", slog.String("path", relPath))
		return nil, false
	}
	if isBinaryContent(content) {
		return nil, false
	}

	lines := strings.Count(string(content), "\n") + 1
	name := strings.TrimSuffix(filepath.Base(relPath), filepath.Ext(relPath))

	return &Document{
		ID:       DocumentID(relPath, content),
		Type:     ComponentTypeFile,
		Language: language,
		Content:  string(content),
		Metadata: DocumentMetadata{
			FilePath:  relPath,
			Name:      name,
			StartLine: 1,
			EndLine:   lines,
		},
	}, true
}

// filterLanguages applies the Languages restriction, if any.
func filterLanguages(docs []*Document, languages []string) []*Document {
	if len(languages) == 0 {
		return docs
	}
	allowed := make(map[string]bool, len(languages))
	for _, l := range languages {
		allowed[strings.ToLower(l)] = true
	}
	filtered := docs[:0]
	for _, d := range docs {
		if allowed[strings.ToLower(d.Language)] {
			filtered = append(filtered, d)
		}
	}
	return filtered
}

// DocumentID derives a stable, content-addressable document ID.
func DocumentID(relPath string, content []byte) string {
	h := sha256.New()
	h.Write([]byte(relPath))
	h.Write([]byte{0})
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// matchesAny reports whether a root-relative path matches any pattern.
// Patterns use glob syntax with "**" matching across path separators.
func matchesAny(rel string, patterns []string) bool {
	for _, p := range patterns {
		if matchPattern(rel, p) {
			return true
		}
	}
	return false
}

// matchPattern handles the common "**/name/**" and "**/*.ext" shapes
// plus plain path.Match globs on the full relative path.
func matchPattern(rel, pattern string) bool {
	// "**/dir/**" means any path containing the dir segment.
	if strings.HasPrefix(pattern, "**/") && strings.HasSuffix(pattern, "/**") {
		segment := strings.TrimSuffix(strings.TrimPrefix(pattern, "**/"), "/**")
		for _, part := range strings.Split(strings.Trim(rel, "/"), "/") {
			if part == segment {
				return true
			}
		}
		return false
	}

	// "dir/**" matches the whole subtree under dir.
	if prefix, ok := strings.CutSuffix(pattern, "/**"); ok && !strings.Contains(prefix, "*") {
		rel = strings.Trim(rel, "/")
		return rel == prefix || strings.HasPrefix(rel, prefix+"/")
	}

	// "**/glob" matches the basename anywhere in the tree.
	if rest, ok := strings.CutPrefix(pattern, "**/"); ok && !strings.Contains(rest, "/") {
		if matched, _ := filepath.Match(rest, filepath.Base(strings.TrimSuffix(rel, "/"))); matched {
			return true
		}
		return false
	}

	matched, _ := filepath.Match(pattern, strings.TrimSuffix(rel, "/"))
	return matched
}

// isBinaryContent checks the first 512 bytes for NUL bytes.
func isBinaryContent(content []byte) bool {
	checkLen := min(len(content), 512)
	for i := range checkLen {
		if content[i] == 0 {
			return true
		}
	}
	return false
}
