// Package indexer orchestrates scanning, change detection, embedding
// and state persistence for one repository.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Aman-CERP/repovec/internal/batch"
	"github.com/Aman-CERP/repovec/internal/config"
	"github.com/Aman-CERP/repovec/internal/detector"
	errs "github.com/Aman-CERP/repovec/internal/errors"
	"github.com/Aman-CERP/repovec/internal/scanner"
	"github.com/Aman-CERP/repovec/internal/stats"
	"github.com/Aman-CERP/repovec/internal/vectorstore"
)

// RepositoryIndexer keeps a repository and a vector store consistent.
// One instance serves one repository; runs are serialized internally.
type RepositoryIndexer struct {
	mu sync.RWMutex

	rootDir   string
	statePath string
	cfg       *config.Config
	scanner   scanner.Scanner
	store     vectorstore.VectorStore
	logger    *slog.Logger

	state *State
	// stale marks prior state produced under a different embedding
	// configuration; it forces a full re-index on the next run.
	stale bool
}

// New creates a RepositoryIndexer. scanner and store must be non-nil;
// cfg nil selects the defaults.
func New(rootDir string, cfg *config.Config, sc scanner.Scanner, store vectorstore.VectorStore) *RepositoryIndexer {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &RepositoryIndexer{
		rootDir:   rootDir,
		statePath: config.StatePath(rootDir),
		cfg:       cfg,
		scanner:   sc,
		store:     store,
		logger:    slog.Default(),
	}
}

// Initialize opens the store and loads prior state. State that cannot
// be read is treated as absent; state written under a different
// embedding configuration is kept but marked stale.
func (x *RepositoryIndexer) Initialize(ctx context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if err := x.store.Initialize(ctx); err != nil {
		return err
	}

	state, err := LoadState(x.statePath)
	if err != nil {
		x.logger.Warn("state_load_failed",
			slog.String("path", x.statePath),
			slog.String("error", err.Error()))
		state = nil
	}
	if state != nil && !state.Matches(x.cfg.Embeddings.Model, x.cfg.Embeddings.Dimensions) {
		x.logger.Warn("state_embedding_mismatch",
			slog.String("stateModel", state.EmbeddingModel),
			slog.String("configModel", x.cfg.Embeddings.Model),
			slog.Int("stateDims", state.EmbeddingDimension),
			slog.Int("configDims", x.cfg.Embeddings.Dimensions))
		x.stale = true
	}
	x.state = state
	return nil
}

// Index scans the whole repository and brings the store up to date.
// With prior state it behaves incrementally unless opts.Force is set.
func (x *RepositoryIndexer) Index(ctx context.Context, opts Options) (*RunStats, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.run(ctx, opts)
}

// Update is the incremental entry point. Without usable prior state it
// degrades to a full Index; otherwise the last index time bounds the
// files that need hashing.
func (x *RepositoryIndexer) Update(ctx context.Context, opts Options) (*RunStats, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.state != nil && !x.stale && opts.Since.IsZero() && !opts.Force {
		opts.Since = x.state.LastIndexTime
	}
	return x.run(ctx, opts)
}

// embedItem carries one embedding document together with its source
// file so batch failures can be attributed back to files.
type embedItem struct {
	doc  vectorstore.EmbeddingDocument
	path string
}

func (x *RepositoryIndexer) run(ctx context.Context, opts Options) (*RunStats, error) {
	start := time.Now()
	runStats := &RunStats{
		RunID:          uuid.NewString(),
		RepositoryPath: x.rootDir,
		StartTime:      start,
	}
	log := x.logger.With(slog.String("run", runStats.RunID))

	languages := x.cfg.Index.Languages
	if len(opts.Languages) > 0 {
		languages = opts.Languages
	}
	scanResult, err := x.scanner.Scan(ctx, &scanner.ScanOptions{
		RootDir:     x.rootDir,
		Exclude:     append(append([]string{}, x.cfg.Paths.Exclude...), opts.ExcludePatterns...),
		Languages:   languages,
		MaxFileSize: x.cfg.Index.MaxFileSize,
	})
	if err != nil {
		return nil, errs.ScannerError("repository scan failed", err)
	}
	runStats.FilesScanned = scanResult.Stats.FilesScanned
	runStats.DocumentsExtracted = len(scanResult.Documents)

	prior := map[string]string{}
	freshStart := x.state == nil || x.stale
	if !freshStart {
		prior = x.state.Hashes()
	}

	changes := detector.DetectChanges(prior, scanResult, detector.Options{
		RootDir: x.rootDir,
		Since:   opts.Since,
		Force:   opts.Force,
	})
	log.Info("changes_detected",
		slog.Int("changed", len(changes.Changed)),
		slog.Int("added", len(changes.Added)),
		slog.Int("deleted", len(changes.Deleted)))

	if freshStart {
		x.state = NewState(x.rootDir, x.cfg.Embeddings.Model, x.cfg.Embeddings.Dimensions)
		x.stale = false
	}

	// Deletions first so replaced documents never coexist with their
	// successors in the store.
	var deletedRecords, changedRecords []stats.RemovedFile
	for _, path := range changes.Deleted {
		fm, tracked := x.state.Files[path]
		if !tracked {
			continue
		}
		if err := x.store.DeleteDocuments(ctx, fm.DocumentIDs); err != nil {
			// Keep the file tracked so the deletion is retried next run.
			runStats.Errors = append(runStats.Errors, err)
			continue
		}
		delete(x.state.Files, path)
		deletedRecords = append(deletedRecords, removedRecord(fm))
		runStats.FilesDeleted++
		runStats.DocumentsDeleted += len(fm.DocumentIDs)
	}

	toIndex := make([]detector.FileChange, 0, len(changes.Changed)+len(changes.Added))
	for _, fc := range changes.Changed {
		fm, tracked := x.state.Files[fc.Path]
		if tracked {
			if err := x.store.DeleteDocuments(ctx, fm.DocumentIDs); err != nil {
				runStats.Errors = append(runStats.Errors, err)
				continue
			}
			delete(x.state.Files, fc.Path)
			changedRecords = append(changedRecords, removedRecord(fm))
		}
		toIndex = append(toIndex, fc)
	}
	toIndex = append(toIndex, changes.Added...)

	// Embed and store.
	var items []embedItem
	for _, fc := range toIndex {
		for _, doc := range fc.Documents {
			items = append(items, embedItem{doc: embeddingDocument(doc), path: fc.Path})
		}
	}

	// Incremental results are scoped to the touched files, not the
	// whole repository.
	if !freshStart {
		runStats.FilesScanned = len(toIndex)
		runStats.DocumentsExtracted = len(items)
	}

	var (
		failedMu    sync.Mutex
		failedFiles = make(map[string]bool)
	)
	controller := batch.New[embedItem](x.batchSize(opts), x.concurrency(opts), opts.OnProgress)
	controller.Phase = "embed"
	failures := controller.Run(ctx, items, func(ctx context.Context, index int, items []embedItem) error {
		docs := make([]vectorstore.EmbeddingDocument, len(items))
		for i, it := range items {
			docs[i] = it.doc
		}
		if err := x.store.AddDocuments(ctx, docs); err != nil {
			failedMu.Lock()
			for _, it := range items {
				failedFiles[it.path] = true
			}
			failedMu.Unlock()
			return err
		}
		return nil
	})
	runStats.Errors = append(runStats.Errors, failures...)

	// Record state and aggregate statistics for fully stored files only.
	// Files touched by a failed batch stay untracked and are retried on
	// the next run.
	agg := stats.NewAggregator()
	for _, pkg := range x.cfg.Packages {
		agg.RegisterPackage(pkg.Name, pkg.Path)
	}
	for _, fc := range toIndex {
		if failedFiles[fc.Path] {
			continue
		}
		docIDs := make([]string, len(fc.Documents))
		types := make(map[string]int, 1)
		lines := 0
		for i, doc := range fc.Documents {
			agg.AddDocument(doc)
			docIDs[i] = doc.ID
			types[string(doc.Type)]++
			lines += doc.Lines()
		}
		x.state.Files[fc.Path] = FileMetadata{
			Path:        fc.Path,
			ContentHash: fc.Hash,
			ModTime:     fc.ModTime,
			IndexedAt:   time.Now(),
			DocumentIDs: docIDs,
			Size:        fc.Size,
			Language:    fc.Language,
			Lines:       lines,
			Package:     agg.PackageFor(fc.Path),
			Types:       types,
		}
		runStats.FilesIndexed++
		runStats.DocumentsIndexed += len(docIDs)
		runStats.VectorsStored += len(docIDs)
	}

	if freshStart {
		x.state.Stats = agg.Detailed()
	} else {
		x.state.Stats = stats.MergeStats(x.state.Stats, deletedRecords, changedRecords, agg.Detailed())
	}

	runStats.FilesUnchanged = countFiles(scanResult) - len(toIndex)
	if runStats.FilesUnchanged < 0 {
		runStats.FilesUnchanged = 0
	}

	// Persist even when the run only removed files.
	x.state.LastIndexTime = start
	if err := SaveState(x.statePath, x.state); err != nil {
		saveErr := errs.StorageError("failed to persist index state", err)
		log.Error("state_save_failed", slog.String("error", err.Error()))
		runStats.Errors = append(runStats.Errors, saveErr)
	}

	runStats.EndTime = time.Now()
	runStats.Duration = runStats.EndTime.Sub(start)
	log.Info("index_run_complete",
		slog.Int("filesIndexed", runStats.FilesIndexed),
		slog.Int("filesDeleted", runStats.FilesDeleted),
		slog.Int("documentsIndexed", runStats.DocumentsIndexed),
		slog.Int("errors", len(runStats.Errors)),
		slog.String("duration", runStats.Duration.String()))
	return runStats, nil
}

// Search is a pass-through to the vector store. Limit 0 takes the
// configured default; the configured score threshold travels with the
// call and is applied by the store.
func (x *RepositoryIndexer) Search(ctx context.Context, query string, limit int) ([]vectorstore.SearchResult, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if limit <= 0 {
		limit = x.cfg.Search.MaxResults
	}
	return x.store.Search(ctx, query, vectorstore.SearchOptions{
		Limit:          limit,
		ScoreThreshold: x.cfg.Search.ScoreThreshold,
	})
}

// Stats serves the statistics view from persisted state. It never
// scans the repository.
func (x *RepositoryIndexer) Stats() DetailedStats {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.state == nil {
		return DetailedStats{}
	}
	return DetailedStats{
		TotalFiles:         len(x.state.Files),
		TotalDocuments:     x.state.DocumentCount(),
		LastIndexTime:      x.state.LastIndexTime,
		EmbeddingModel:     x.state.EmbeddingModel,
		EmbeddingDimension: x.state.EmbeddingDimension,
		Breakdown:          stats.CopyDetailed(x.state.Stats),
	}
}

// Close releases the underlying store.
func (x *RepositoryIndexer) Close() error {
	return x.store.Close()
}

func (x *RepositoryIndexer) batchSize(opts Options) int {
	if opts.BatchSize > 0 {
		return opts.BatchSize
	}
	return x.cfg.Index.BatchSize
}

func (x *RepositoryIndexer) concurrency(opts Options) int {
	if opts.Concurrency > 0 {
		if opts.Concurrency > 8 {
			return 8
		}
		return opts.Concurrency
	}
	return x.cfg.EffectiveConcurrency()
}

func removedRecord(fm FileMetadata) stats.RemovedFile {
	return stats.RemovedFile{
		Path:       fm.Path,
		Language:   fm.Language,
		Package:    fm.Package,
		Components: len(fm.DocumentIDs),
		Lines:      fm.Lines,
		Types:      fm.Types,
	}
}

// embeddingDocument projects a scanned document into the store's
// submission format.
func embeddingDocument(doc *scanner.Document) vectorstore.EmbeddingDocument {
	text := doc.Content
	if doc.Metadata.Docstring != "" {
		text = doc.Metadata.Docstring + "\n" + text
	}
	return vectorstore.EmbeddingDocument{
		ID:   doc.ID,
		Text: text,
		Metadata: vectorstore.DocumentMetadata{
			FilePath:  doc.Metadata.FilePath,
			Name:      doc.Metadata.Name,
			Type:      string(doc.Type),
			Language:  doc.Language,
			StartLine: doc.Metadata.StartLine,
			EndLine:   doc.Metadata.EndLine,
			Exported:  doc.Metadata.Exported,
			Signature: doc.Metadata.Signature,
			Docstring: doc.Metadata.Docstring,
		},
	}
}

func countFiles(result *scanner.ScanResult) int {
	seen := make(map[string]bool)
	for _, d := range result.Documents {
		seen[d.Metadata.FilePath] = true
	}
	return len(seen)
}

// String implements fmt.Stringer for log-friendly run summaries.
func (r *RunStats) String() string {
	return fmt.Sprintf("indexed %d files (%d documents), deleted %d files, %d errors in %s",
		r.FilesIndexed, r.DocumentsIndexed, r.FilesDeleted, len(r.Errors), r.Duration.Round(time.Millisecond))
}
