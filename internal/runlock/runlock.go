// Package runlock serializes indexing runs across processes. Two
// concurrent runs against the same repository would race on the state
// file and the vector store.
package runlock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/Aman-CERP/repovec/internal/config"
)

// RunLock is a cross-process file lock on a repository's data
// directory. Works on Unix, macOS and Windows.
type RunLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// New creates a lock for the repository rooted at root.
func New(root string) *RunLock {
	path := filepath.Join(config.DataDir(root), "run.lock")
	return &RunLock{
		path:  path,
		flock: flock.New(path),
	}
}

// TryLock attempts to acquire the lock without blocking. Returns false
// when another process holds it.
func (l *RunLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	l.locked = acquired
	return acquired, nil
}

// Unlock releases the lock. Safe to call on an unlocked RunLock.
func (l *RunLock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// Path returns the lock file path.
func (l *RunLock) Path() string {
	return l.path
}
