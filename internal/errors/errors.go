// Package errors provides the classified error model for repovec.
//
// Every failure inside an indexing run is recorded as an *IndexError with
// one of four kinds. The kind decides the propagation policy: scanner
// errors abort the run, everything else is accumulated and the run
// completes with partial success.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies where an indexing failure originated.
type Kind string

const (
	// KindScanner indicates the repository could not be read or scanned.
	// Scanner errors are fatal to the run.
	KindScanner Kind = "scanner"
	// KindEmbedder indicates an embedding batch failed.
	KindEmbedder Kind = "embedder"
	// KindStorage indicates the vector store rejected an operation.
	KindStorage Kind = "storage"
	// KindFilesystem indicates a tracked file could not be stat'd or read.
	KindFilesystem Kind = "filesystem"
)

// IndexError is a classified failure recorded during an indexing run.
// It is accumulated into the run result and surfaced to the caller;
// only scanner errors abort the run.
type IndexError struct {
	// Kind is the failure classification.
	Kind Kind

	// File is the file the failure relates to, if any.
	File string

	// Message is the human-readable description.
	Message string

	// Cause is the underlying error, if any.
	Cause error

	// Timestamp is when the failure was recorded.
	Timestamp time.Time
}

// Error implements the error interface.
func (e *IndexError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Kind, e.File, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *IndexError) Unwrap() error {
	return e.Cause
}

// Is matches IndexErrors by kind, enabling errors.Is checks against
// sentinel values like &IndexError{Kind: KindScanner}.
func (e *IndexError) Is(target error) bool {
	var t *IndexError
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// New creates an IndexError with the given kind and message.
func New(kind Kind, message string, cause error) *IndexError {
	return &IndexError{
		Kind:      kind,
		Message:   message,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

// NewFile creates an IndexError tied to a specific file.
func NewFile(kind Kind, file, message string, cause error) *IndexError {
	err := New(kind, message, cause)
	err.File = file
	return err
}

// ScannerError creates a fatal scanner-kind error.
func ScannerError(message string, cause error) *IndexError {
	return New(KindScanner, message, cause)
}

// EmbedderError creates an embedder-kind error for a failed batch.
func EmbedderError(message string, cause error) *IndexError {
	return New(KindEmbedder, message, cause)
}

// StorageError creates a storage-kind error.
func StorageError(message string, cause error) *IndexError {
	return New(KindStorage, message, cause)
}

// FilesystemError creates a filesystem-kind error for a file.
func FilesystemError(file, message string, cause error) *IndexError {
	return NewFile(KindFilesystem, file, message, cause)
}

// IsFatal reports whether the error must abort the run.
// Only scanner-kind errors are fatal.
func IsFatal(err error) bool {
	var ie *IndexError
	if errors.As(err, &ie) {
		return ie.Kind == KindScanner
	}
	return false
}

// GetKind extracts the kind from an IndexError chain.
// Returns empty Kind if no IndexError is present.
func GetKind(err error) Kind {
	var ie *IndexError
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return ""
}
