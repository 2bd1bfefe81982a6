package indexer

import (
	"time"

	"github.com/Aman-CERP/repovec/internal/batch"
	"github.com/Aman-CERP/repovec/internal/stats"
)

// Options tunes a single Index or Update run. The zero value takes
// every default from the configuration.
type Options struct {
	// Force re-indexes every tracked file regardless of content hash.
	Force bool

	// Since skips hashing files not modified after the cutoff.
	// Update fills this from the last index time when unset.
	Since time.Time

	// ExcludePatterns are merged with the configured exclude globs.
	ExcludePatterns []string

	// Languages restricts the run to the given languages (empty = all).
	Languages []string

	// BatchSize overrides the configured embedding batch size.
	BatchSize int

	// Concurrency overrides the configured group width.
	Concurrency int

	// OnProgress receives a snapshot after each settled batch group.
	OnProgress func(batch.Progress)
}

// RunStats summarizes one indexing run.
type RunStats struct {
	// RunID uniquely identifies the run in logs.
	RunID string `json:"runId"`

	RepositoryPath string `json:"repositoryPath"`

	FilesScanned       int `json:"filesScanned"`
	DocumentsExtracted int `json:"documentsExtracted"`
	FilesIndexed       int `json:"filesIndexed"`
	FilesDeleted       int `json:"filesDeleted"`
	FilesUnchanged     int `json:"filesUnchanged"`
	DocumentsIndexed   int `json:"documentsIndexed"`
	DocumentsDeleted   int `json:"documentsDeleted"`
	VectorsStored      int `json:"vectorsStored"`

	StartTime time.Time     `json:"startTime"`
	EndTime   time.Time     `json:"endTime"`
	Duration  time.Duration `json:"duration"`

	// Errors holds the non-fatal failures accumulated during the run.
	// A run with errors still persisted everything that succeeded.
	Errors []error `json:"-"`
}

// DetailedStats is the full statistics view served from persisted
// state. It never triggers a scan.
type DetailedStats struct {
	TotalFiles         int            `json:"totalFiles"`
	TotalDocuments     int            `json:"totalDocuments"`
	LastIndexTime      time.Time      `json:"lastIndexTime"`
	EmbeddingModel     string         `json:"embeddingModel"`
	EmbeddingDimension int            `json:"embeddingDimension"`
	Breakdown          stats.Detailed `json:"breakdown"`
}
