// Package vectorstore provides the embedding store contract used by the
// indexer, plus a local implementation backed by an in-memory HNSW graph
// with SQLite persistence.
package vectorstore

import "context"

// DocumentMetadata is the closed metadata record carried with an
// embedded document and returned on search hits.
type DocumentMetadata struct {
	FilePath  string `json:"filePath,omitempty"`
	Name      string `json:"name,omitempty"`
	Type      string `json:"type,omitempty"`
	Language  string `json:"language,omitempty"`
	StartLine int    `json:"startLine,omitempty"`
	EndLine   int    `json:"endLine,omitempty"`
	Exported  bool   `json:"exported,omitempty"`
	Signature string `json:"signature,omitempty"`
	Docstring string `json:"docstring,omitempty"`
}

// EmbeddingDocument is one unit of text submitted for embedding and
// retrieval. Metadata travels with the document and comes back in
// search results.
type EmbeddingDocument struct {
	ID       string           `json:"id"`
	Text     string           `json:"text"`
	Metadata DocumentMetadata `json:"metadata"`
}

// SearchResult is one ranked hit. Score is a similarity in [0, 1],
// higher is better.
type SearchResult struct {
	ID       string           `json:"id"`
	Score    float64          `json:"score"`
	Text     string           `json:"text,omitempty"`
	Metadata DocumentMetadata `json:"metadata"`
}

// SearchOptions bounds one search call.
type SearchOptions struct {
	// Limit caps the number of hits (0 = implementation default).
	Limit int
	// ScoreThreshold drops hits scoring below it (0 = no floor).
	ScoreThreshold float64
}

// StoreStats summarizes store contents.
type StoreStats struct {
	TotalDocuments int `json:"totalDocuments"`
}

// VectorStore is the persistence and retrieval backend the indexer
// drives. Implementations must tolerate AddDocuments replacing an
// existing ID and DeleteDocuments receiving unknown IDs.
type VectorStore interface {
	Initialize(ctx context.Context) error
	AddDocuments(ctx context.Context, docs []EmbeddingDocument) error
	DeleteDocuments(ctx context.Context, ids []string) error
	Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error)
	GetStats(ctx context.Context) (StoreStats, error)
	Close() error
}

// Embedder turns text into fixed-dimension vectors.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	ModelName() string
}
