// Package mcp exposes the repository index to AI clients over the
// Model Context Protocol.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/repovec/internal/indexer"
	"github.com/Aman-CERP/repovec/pkg/version"
)

// Server bridges MCP clients with a RepositoryIndexer.
type Server struct {
	mcp    *mcp.Server
	idx    *indexer.RepositoryIndexer
	logger *slog.Logger
}

// NewServer creates the MCP server and registers its tools.
func NewServer(idx *indexer.RepositoryIndexer) (*Server, error) {
	if idx == nil {
		return nil, errors.New("indexer is required")
	}

	s := &Server{
		idx:    idx,
		logger: slog.Default(),
	}
	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "repovec",
			Version: version.Version,
		},
		nil,
	)
	s.registerTools()
	return s, nil
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search_code",
		Description: "Semantic code search over the indexed repository. Finds functions, types and files by meaning rather than exact text.",
	}, s.searchCodeHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "index_repository",
		Description: "Index the repository from scratch or incrementally. Safe to call repeatedly; unchanged files are skipped unless force is set.",
	}, s.indexRepositoryHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "update_index",
		Description: "Fast incremental update: removes deleted files and re-indexes files changed since the last run.",
	}, s.updateIndexHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "index_stats",
		Description: "Report index statistics: file and document totals plus per-language and per-type breakdowns. Served from persisted state, never triggers a scan.",
	}, s.indexStatsHandler)

	s.logger.Debug("mcp_tools_registered", slog.Int("count", 4))
}

func (s *Server) searchCodeHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchCodeInput) (
	*mcp.CallToolResult,
	SearchCodeOutput,
	error,
) {
	if input.Query == "" {
		return nil, SearchCodeOutput{}, errors.New("query parameter is required")
	}

	results, err := s.idx.Search(ctx, input.Query, input.Limit)
	if err != nil {
		return nil, SearchCodeOutput{}, fmt.Errorf("search failed: %w", err)
	}

	out := SearchCodeOutput{Results: make([]SearchResultOutput, 0, len(results))}
	for _, r := range results {
		out.Results = append(out.Results, SearchResultOutput{
			FilePath:  r.Metadata.FilePath,
			Name:      r.Metadata.Name,
			Type:      r.Metadata.Type,
			Language:  r.Metadata.Language,
			StartLine: r.Metadata.StartLine,
			EndLine:   r.Metadata.EndLine,
			Score:     r.Score,
			Content:   snippet(r.Text),
		})
	}
	return nil, out, nil
}

func (s *Server) indexRepositoryHandler(ctx context.Context, _ *mcp.CallToolRequest, input IndexRepositoryInput) (
	*mcp.CallToolResult,
	IndexRunOutput,
	error,
) {
	run, err := s.idx.Index(ctx, indexer.Options{Force: input.Force})
	if err != nil {
		return nil, IndexRunOutput{}, fmt.Errorf("indexing failed: %w", err)
	}
	return nil, runOutput(run), nil
}

func (s *Server) updateIndexHandler(ctx context.Context, _ *mcp.CallToolRequest, _ UpdateIndexInput) (
	*mcp.CallToolResult,
	IndexRunOutput,
	error,
) {
	run, err := s.idx.Update(ctx, indexer.Options{})
	if err != nil {
		return nil, IndexRunOutput{}, fmt.Errorf("update failed: %w", err)
	}
	return nil, runOutput(run), nil
}

func (s *Server) indexStatsHandler(_ context.Context, _ *mcp.CallToolRequest, _ IndexStatsInput) (
	*mcp.CallToolResult,
	IndexStatsOutput,
	error,
) {
	ds := s.idx.Stats()

	out := IndexStatsOutput{
		TotalFiles:     ds.TotalFiles,
		TotalDocuments: ds.TotalDocuments,
		EmbeddingModel: ds.EmbeddingModel,
		ByType:         ds.Breakdown.ByComponentType,
	}
	if !ds.LastIndexTime.IsZero() {
		out.LastIndexed = ds.LastIndexTime.Format(time.RFC3339)
	}
	if len(ds.Breakdown.ByLanguage) > 0 {
		out.ByLanguage = make(map[string]LanguageStats, len(ds.Breakdown.ByLanguage))
		for lang, ls := range ds.Breakdown.ByLanguage {
			out.ByLanguage[lang] = LanguageStats{
				Files:      ls.Files,
				Components: ls.Components,
				Lines:      ls.Lines,
			}
		}
	}
	return nil, out, nil
}

// Serve runs the server until the context is canceled. Only the stdio
// transport is supported.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("mcp_server_starting", slog.String("transport", transport))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("mcp_server_stopped", slog.String("error", err.Error()))
			return err
		}
		s.logger.Info("mcp_server_stopped")
		return nil
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

func runOutput(run *indexer.RunStats) IndexRunOutput {
	out := IndexRunOutput{
		RunID:            run.RunID,
		FilesIndexed:     run.FilesIndexed,
		FilesDeleted:     run.FilesDeleted,
		FilesUnchanged:   run.FilesUnchanged,
		DocumentsIndexed: run.DocumentsIndexed,
		DocumentsDeleted: run.DocumentsDeleted,
		DurationMS:       run.Duration.Milliseconds(),
	}
	for _, err := range run.Errors {
		out.Errors = append(out.Errors, err.Error())
	}
	return out
}

const maxSnippetLen = 500

func snippet(text string) string {
	if len(text) <= maxSnippetLen {
		return text
	}
	return text[:maxSnippetLen] + "..."
}
