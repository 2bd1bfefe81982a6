package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForEvent(t *testing.T, w *Watcher, path string) FileEvent {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case batch, ok := <-w.Events():
			require.True(t, ok, "event channel closed")
			for _, ev := range batch {
				if ev.Path == path {
					return ev
				}
			}
		case <-deadline:
			t.Fatalf("timed out waiting for event on %s", path)
		}
	}
}

func TestWatcher_SeesCreateAndDelete(t *testing.T) {
	root := t.TempDir()
	w, err := New(Options{DebounceWindow: 50 * time.Millisecond})
	require.NoError(t, err)
	defer w.Stop()

	require.NoError(t, w.Start(context.Background(), root))

	path := filepath.Join(root, "a.go")
	require.NoError(t, os.WriteFile(path, []byte("package a\n"), 0o644))
	ev := waitForEvent(t, w, "a.go")
	assert.Equal(t, OpCreate, ev.Operation)

	require.NoError(t, os.Remove(path))
	ev = waitForEvent(t, w, "a.go")
	assert.Equal(t, OpDelete, ev.Operation)
}

func TestWatcher_IgnoresDotAndVendorDirs(t *testing.T) {
	w, err := New(Options{})
	require.NoError(t, err)
	defer w.Stop()

	assert.True(t, w.ignored(".git/config"))
	assert.True(t, w.ignored("node_modules/pkg/index.js"))
	assert.True(t, w.ignored(".repovec/state.json"))
	assert.False(t, w.ignored("src/main.go"))
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w, err := New(Options{})
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background(), t.TempDir()))
	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}
