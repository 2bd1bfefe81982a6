package indexer

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio"

	"github.com/Aman-CERP/repovec/internal/stats"
)

// StateVersion is the on-disk state schema version.
const StateVersion = 1

// FileMetadata is the persisted record of one indexed file.
type FileMetadata struct {
	Path        string    `json:"path"`
	ContentHash string    `json:"contentHash"`
	ModTime     time.Time `json:"modTime"`
	IndexedAt   time.Time `json:"indexedAt"`
	DocumentIDs []string  `json:"documentIds"`
	Size        int64     `json:"size"`
	Language    string    `json:"language"`
	Lines       int       `json:"lines"`

	// Package and Types record the file's attribution in the persisted
	// aggregate so an incremental update can subtract it exactly.
	Package string         `json:"package,omitempty"`
	Types   map[string]int `json:"types,omitempty"`
}

// State is the persisted index state for one repository.
type State struct {
	Version            int                     `json:"version"`
	EmbeddingModel     string                  `json:"embeddingModel"`
	EmbeddingDimension int                     `json:"embeddingDimension"`
	RepositoryPath     string                  `json:"repositoryPath"`
	LastIndexTime      time.Time               `json:"lastIndexTime"`
	Files              map[string]FileMetadata `json:"files"`
	Stats              stats.Detailed          `json:"stats"`
}

// NewState creates an empty state for the given repository and
// embedding configuration.
func NewState(repoPath, model string, dimensions int) *State {
	return &State{
		Version:            StateVersion,
		EmbeddingModel:     model,
		EmbeddingDimension: dimensions,
		RepositoryPath:     repoPath,
		Files:              make(map[string]FileMetadata),
	}
}

// Hashes returns the path -> content hash view used by change detection.
func (s *State) Hashes() map[string]string {
	out := make(map[string]string, len(s.Files))
	for path, fm := range s.Files {
		out[path] = fm.ContentHash
	}
	return out
}

// DocumentCount returns the total number of indexed documents.
func (s *State) DocumentCount() int {
	total := 0
	for _, fm := range s.Files {
		total += len(fm.DocumentIDs)
	}
	return total
}

// Matches reports whether the state was produced with the given
// embedding configuration.
func (s *State) Matches(model string, dimensions int) bool {
	return s.EmbeddingModel == model && s.EmbeddingDimension == dimensions
}

// LoadState reads persisted state from path. A missing or corrupt file
// yields (nil, nil): both mean "no prior state" and trigger a full
// index rather than failing the run. A newer schema version is loaded
// anyway with a warning.
func LoadState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		slog.Warn("state_corrupt_ignored",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return nil, nil
	}
	if state.Version != StateVersion {
		slog.Warn("state_version_mismatch",
			slog.Int("got", state.Version),
			slog.Int("want", StateVersion))
	}
	if state.Files == nil {
		state.Files = make(map[string]FileMetadata)
	}
	return &state, nil
}

// SaveState writes the state atomically. Readers never observe a
// partially written file.
func SaveState(path string, state *State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return renameio.WriteFile(path, data, 0o644)
}
