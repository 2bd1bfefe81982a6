package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexError_Error(t *testing.T) {
	err := NewFile(KindFilesystem, "src/main.go", "read failed", nil)
	assert.Equal(t, "[filesystem] src/main.go: read failed", err.Error())

	err = ScannerError("repository unreadable", nil)
	assert.Equal(t, "[scanner] repository unreadable", err.Error())
}

func TestIndexError_Unwrap(t *testing.T) {
	cause := errors.New("permission denied")
	err := FilesystemError("a.go", "stat failed", cause)

	require.ErrorIs(t, err, cause)
	assert.Equal(t, cause, err.Unwrap())
}

func TestIndexError_IsMatchesByKind(t *testing.T) {
	err := EmbedderError("batch 3 failed", nil)

	assert.True(t, errors.Is(err, &IndexError{Kind: KindEmbedder}))
	assert.False(t, errors.Is(err, &IndexError{Kind: KindStorage}))
}

func TestIndexError_IsMatchesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("run failed: %w", StorageError("add documents", nil))

	assert.True(t, errors.Is(err, &IndexError{Kind: KindStorage}))
	assert.Equal(t, KindStorage, GetKind(err))
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		fatal bool
	}{
		{"scanner is fatal", ScannerError("scan failed", nil), true},
		{"embedder is recoverable", EmbedderError("batch failed", nil), false},
		{"storage is recoverable", StorageError("delete failed", nil), false},
		{"filesystem is recoverable", FilesystemError("a.go", "gone", nil), false},
		{"plain error is not fatal", errors.New("boom"), false},
		{"nil is not fatal", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.fatal, IsFatal(tt.err))
		})
	}
}

func TestNew_SetsTimestamp(t *testing.T) {
	err := New(KindEmbedder, "failed", nil)
	assert.False(t, err.Timestamp.IsZero())
}

func TestGetKind_PlainError(t *testing.T) {
	assert.Equal(t, Kind(""), GetKind(errors.New("boom")))
}
