package vectorstore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/coder/hnsw"
	_ "modernc.org/sqlite"

	errs "github.com/Aman-CERP/repovec/internal/errors"
)

const storeSchema = `
CREATE TABLE IF NOT EXISTS documents (
	id       TEXT PRIMARY KEY,
	text     TEXT NOT NULL,
	metadata TEXT NOT NULL DEFAULT '{}',
	vector   BLOB NOT NULL
);
`

// LocalStore is a VectorStore backed by an in-memory HNSW graph for
// search and a SQLite file for durability. The graph is rebuilt from
// SQLite on Initialize.
type LocalStore struct {
	mu       sync.RWMutex
	dbPath   string
	embedder Embedder

	db    *sql.DB
	graph *hnsw.Graph[uint64]

	// String IDs mapped to graph keys. Deletion is lazy: the node stays
	// in the graph but loses its mapping and is filtered from results.
	idMap   map[string]uint64
	keyMap  map[uint64]string
	nextKey uint64

	docs   map[string]EmbeddingDocument
	closed bool
}

// NewLocalStore creates a LocalStore persisting to dbPath. The embedder
// decides the vector dimensions; nil selects the static embedder.
func NewLocalStore(dbPath string, embedder Embedder) *LocalStore {
	if embedder == nil {
		embedder = NewStaticEmbedder(0)
	}
	return &LocalStore{
		dbPath:   dbPath,
		embedder: embedder,
		idMap:    make(map[string]uint64),
		keyMap:   make(map[uint64]string),
		docs:     make(map[string]EmbeddingDocument),
	}
}

// Initialize opens the database and loads persisted vectors into the
// graph. Calling it again on an open store is a no-op.
func (s *LocalStore) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errs.StorageError("store is closed", nil)
	}
	if s.db != nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.dbPath), 0o755); err != nil {
		return errs.StorageError("failed to create store directory", err)
	}

	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return errs.StorageError("failed to open store database", err)
	}
	if _, err := db.ExecContext(ctx, storeSchema); err != nil {
		db.Close()
		return errs.StorageError("failed to apply store schema", err)
	}

	s.db = db
	s.graph = newGraph()

	if err := s.loadLocked(ctx); err != nil {
		db.Close()
		s.db = nil
		return err
	}

	slog.Debug("vectorstore_ready",
		slog.String("path", s.dbPath),
		slog.Int("documents", len(s.idMap)),
		slog.String("model", s.embedder.ModelName()))
	return nil
}

func newGraph() *hnsw.Graph[uint64] {
	g := hnsw.NewGraph[uint64]()
	g.Distance = hnsw.CosineDistance
	g.M = 16
	g.EfSearch = 20
	g.Ml = 0.25
	return g
}

// loadLocked rebuilds the in-memory graph and document cache from the
// database. Rows with a vector of the wrong width are skipped; they
// belong to a previous embedding configuration.
func (s *LocalStore) loadLocked(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id, text, metadata, vector FROM documents`)
	if err != nil {
		return errs.StorageError("failed to load documents", err)
	}
	defer rows.Close()

	dims := s.embedder.Dimensions()
	for rows.Next() {
		var (
			id, text, metaJSON string
			blob               []byte
		)
		if err := rows.Scan(&id, &text, &metaJSON, &blob); err != nil {
			return errs.StorageError("failed to scan document row", err)
		}

		vec := decodeVector(blob)
		if len(vec) != dims {
			slog.Warn("vectorstore_skip_stale_vector",
				slog.String("id", id),
				slog.Int("got", len(vec)),
				slog.Int("want", dims))
			continue
		}

		var meta DocumentMetadata
		if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
			meta = DocumentMetadata{}
		}

		key := s.nextKey
		s.nextKey++
		s.graph.Add(hnsw.MakeNode(key, vec))
		s.idMap[id] = key
		s.keyMap[key] = id
		s.docs[id] = EmbeddingDocument{ID: id, Text: text, Metadata: meta}
	}
	return rows.Err()
}

// AddDocuments embeds and upserts the documents. An existing ID is
// replaced atomically with respect to search.
func (s *LocalStore) AddDocuments(ctx context.Context, docs []EmbeddingDocument) error {
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return errs.EmbedderError("failed to embed documents", err)
	}
	if len(vectors) != len(docs) {
		return errs.EmbedderError(
			fmt.Sprintf("embedder returned %d vectors for %d documents", len(vectors), len(docs)), nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpenLocked(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.StorageError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO documents (id, text, metadata, vector) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET text = excluded.text, metadata = excluded.metadata, vector = excluded.vector`)
	if err != nil {
		return errs.StorageError("failed to prepare upsert", err)
	}
	defer stmt.Close()

	for i, doc := range docs {
		metaJSON, err := json.Marshal(doc.Metadata)
		if err != nil {
			metaJSON = []byte("{}")
		}
		if _, err := stmt.ExecContext(ctx, doc.ID, doc.Text, string(metaJSON), encodeVector(vectors[i])); err != nil {
			return errs.StorageError(fmt.Sprintf("failed to persist document %s", doc.ID), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errs.StorageError("failed to commit documents", err)
	}

	for i, doc := range docs {
		if oldKey, exists := s.idMap[doc.ID]; exists {
			delete(s.keyMap, oldKey)
		}
		key := s.nextKey
		s.nextKey++
		s.graph.Add(hnsw.MakeNode(key, vectors[i]))
		s.idMap[doc.ID] = key
		s.keyMap[key] = doc.ID
		s.docs[doc.ID] = doc
	}
	return nil
}

// DeleteDocuments removes the IDs. Unknown IDs are ignored.
func (s *LocalStore) DeleteDocuments(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpenLocked(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.StorageError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id); err != nil {
			return errs.StorageError(fmt.Sprintf("failed to delete document %s", id), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errs.StorageError("failed to commit deletions", err)
	}

	for _, id := range ids {
		if key, exists := s.idMap[id]; exists {
			delete(s.keyMap, key)
			delete(s.idMap, id)
		}
		delete(s.docs, id)
	}
	return nil
}

// Search embeds the query and returns up to opts.Limit hits ranked by
// cosine similarity. Hits scoring below opts.ScoreThreshold are dropped.
func (s *LocalStore) Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	vectors, err := s.embedder.EmbedBatch(ctx, []string{query})
	if err != nil {
		return nil, errs.EmbedderError("failed to embed query", err)
	}
	qvec := vectors[0]

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ensureOpenLocked(); err != nil {
		return nil, err
	}
	if s.graph.Len() == 0 {
		return []SearchResult{}, nil
	}

	// Over-fetch to compensate for lazily deleted nodes still present
	// in the graph.
	nodes := s.graph.Search(qvec, limit+s.keyMapOrphans())

	results := make([]SearchResult, 0, limit)
	for _, node := range nodes {
		id, live := s.keyMap[node.Key]
		if !live {
			continue
		}
		doc := s.docs[id]
		distance := s.graph.Distance(qvec, node.Value)
		score := clampScore(1 - float64(distance))
		if opts.ScoreThreshold > 0 && score < opts.ScoreThreshold {
			continue
		}
		results = append(results, SearchResult{
			ID:       id,
			Score:    score,
			Text:     doc.Text,
			Metadata: doc.Metadata,
		})
		if len(results) == limit {
			break
		}
	}
	return results, nil
}

// keyMapOrphans returns the number of graph nodes that were lazily
// deleted and no longer resolve to a document.
func (s *LocalStore) keyMapOrphans() int {
	orphans := s.graph.Len() - len(s.keyMap)
	if orphans < 0 {
		return 0
	}
	return orphans
}

// GetStats reports the live document count.
func (s *LocalStore) GetStats(ctx context.Context) (StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ensureOpenLocked(); err != nil {
		return StoreStats{}, err
	}
	return StoreStats{TotalDocuments: len(s.idMap)}, nil
}

// Close releases the database handle. The store cannot be reused.
func (s *LocalStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *LocalStore) ensureOpenLocked() error {
	if s.closed {
		return errs.StorageError("store is closed", nil)
	}
	if s.db == nil {
		return errs.StorageError("store is not initialized", nil)
	}
	return nil
}

func clampScore(score float64) float64 {
	return math.Max(0, math.Min(1, score))
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
