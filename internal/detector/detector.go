// Package detector classifies repository files against a previously
// persisted index as changed, added or deleted.
package detector

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Aman-CERP/repovec/internal/scanner"
)

// Options configures a detection pass.
type Options struct {
	// RootDir is the repository root the scan ran against.
	RootDir string

	// Since, when non-zero, skips hashing files whose modification time
	// is not after it. Such files are assumed unchanged; deletions are
	// still detected for every tracked file.
	Since time.Time

	// Force treats every tracked file that is still present as changed,
	// bypassing the content hash comparison entirely.
	Force bool
}

// FileChange is one present file selected for (re-)indexing.
type FileChange struct {
	Path      string
	Hash      string
	ModTime   time.Time
	Size      int64
	Language  string
	Documents []*scanner.Document
}

// Changes partitions the repository relative to the prior index.
// Every file appears in at most one of the three sets.
type Changes struct {
	Changed []FileChange
	Added   []FileChange
	Deleted []string
}

// Total returns the number of files needing any action.
func (c *Changes) Total() int {
	return len(c.Changed) + len(c.Added) + len(c.Deleted)
}

// FileHash derives the content hash for a file from its documents.
func FileHash(docs []*scanner.Document) string {
	h := sha256.New()
	for _, d := range docs {
		h.Write([]byte(d.Content))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// DetectChanges compares a scan result against the prior content hashes
// (path -> hash). Files that cannot be stat'd are reported deleted so a
// transient filesystem failure degrades to re-indexing later instead of
// serving stale documents.
func DetectChanges(prior map[string]string, result *scanner.ScanResult, opts Options) *Changes {
	byFile := groupByFile(result)
	changes := &Changes{}
	present := make(map[string]bool, len(byFile))

	paths := make([]string, 0, len(byFile))
	for path := range byFile {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		docs := byFile[path]
		info, err := os.Stat(filepath.Join(opts.RootDir, path))
		if err != nil {
			if _, tracked := prior[path]; tracked {
				slog.Warn("detect_stat_failed",
					slog.String("path", path),
					slog.String("error", err.Error()))
				changes.Deleted = append(changes.Deleted, path)
			}
			continue
		}
		present[path] = true

		fc := FileChange{
			Path:      path,
			Hash:      FileHash(docs),
			ModTime:   info.ModTime(),
			Size:      info.Size(),
			Language:  docs[0].Language,
			Documents: docs,
		}

		priorHash, tracked := prior[path]
		switch {
		case !tracked:
			changes.Added = append(changes.Added, fc)
		case opts.Force:
			changes.Changed = append(changes.Changed, fc)
		case !opts.Since.IsZero() && !fc.ModTime.After(opts.Since):
			// Untouched since the cutoff; assumed unchanged.
		case fc.Hash != priorHash:
			changes.Changed = append(changes.Changed, fc)
		}
	}

	deleted := make([]string, 0)
	for path := range prior {
		if !present[path] {
			deleted = append(deleted, path)
		}
	}
	sort.Strings(deleted)
	// Stat failures above already landed in Deleted; keep it deduplicated.
	seen := make(map[string]bool, len(changes.Deleted))
	for _, p := range changes.Deleted {
		seen[p] = true
	}
	for _, p := range deleted {
		if !seen[p] {
			changes.Deleted = append(changes.Deleted, p)
		}
	}
	sort.Strings(changes.Deleted)

	return changes
}

// groupByFile buckets scan documents by source file, preserving the
// scanner's document order within each file.
func groupByFile(result *scanner.ScanResult) map[string][]*scanner.Document {
	byFile := make(map[string][]*scanner.Document)
	if result == nil {
		return byFile
	}
	for _, d := range result.Documents {
		byFile[d.Metadata.FilePath] = append(byFile[d.Metadata.FilePath], d)
	}
	return byFile
}
