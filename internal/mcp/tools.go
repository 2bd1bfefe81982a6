package mcp

// SearchCodeInput defines the input schema for the search_code tool.
type SearchCodeInput struct {
	Query string `json:"query" jsonschema:"the code search query to execute"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
}

// SearchCodeOutput defines the output schema for the search_code tool.
type SearchCodeOutput struct {
	Results []SearchResultOutput `json:"results" jsonschema:"list of ranked search results"`
}

// SearchResultOutput is one ranked hit.
type SearchResultOutput struct {
	FilePath  string  `json:"file_path" jsonschema:"file path relative to the repository root"`
	Name      string  `json:"name,omitempty" jsonschema:"name of the matched code unit"`
	Type      string  `json:"type,omitempty" jsonschema:"kind of code unit: function, class, type, file"`
	Language  string  `json:"language,omitempty" jsonschema:"programming language of the file"`
	StartLine int     `json:"start_line,omitempty" jsonschema:"first line of the matched unit"`
	EndLine   int     `json:"end_line,omitempty" jsonschema:"last line of the matched unit"`
	Score     float64 `json:"score" jsonschema:"relevance score between 0 and 1"`
	Content   string  `json:"content,omitempty" jsonschema:"matched content snippet"`
}

// IndexRepositoryInput defines the input schema for the index_repository tool.
type IndexRepositoryInput struct {
	Force bool `json:"force,omitempty" jsonschema:"re-index every file regardless of change detection"`
}

// UpdateIndexInput defines the input schema for the update_index tool
// (no parameters).
type UpdateIndexInput struct{}

// IndexRunOutput defines the output schema for index_repository and
// update_index.
type IndexRunOutput struct {
	RunID            string   `json:"run_id" jsonschema:"unique identifier of the indexing run"`
	FilesIndexed     int      `json:"files_indexed"`
	FilesDeleted     int      `json:"files_deleted"`
	FilesUnchanged   int      `json:"files_unchanged"`
	DocumentsIndexed int      `json:"documents_indexed"`
	DocumentsDeleted int      `json:"documents_deleted"`
	DurationMS       int64    `json:"duration_ms"`
	Errors           []string `json:"errors,omitempty" jsonschema:"non-fatal errors accumulated during the run"`
}

// IndexStatsInput defines the input schema for the index_stats tool
// (no parameters).
type IndexStatsInput struct{}

// IndexStatsOutput defines the output schema for the index_stats tool.
type IndexStatsOutput struct {
	TotalFiles     int                      `json:"total_files"`
	TotalDocuments int                      `json:"total_documents"`
	LastIndexed    string                   `json:"last_indexed,omitempty" jsonschema:"RFC3339 timestamp of the last indexing run"`
	EmbeddingModel string                   `json:"embedding_model,omitempty"`
	ByLanguage     map[string]LanguageStats `json:"by_language,omitempty"`
	ByType         map[string]int           `json:"by_type,omitempty"`
}

// LanguageStats is the per-language breakdown in index_stats output.
type LanguageStats struct {
	Files      int `json:"files"`
	Components int `json:"components"`
	Lines      int `json:"lines"`
}
