// Package watcher provides debounced filesystem watching for live
// index updates.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Operation classifies a file event.
type Operation int

const (
	OpCreate Operation = iota
	OpModify
	OpDelete
)

func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// FileEvent is one coalesced filesystem event, with Path relative to
// the watch root.
type FileEvent struct {
	Path      string
	Operation Operation
	Timestamp time.Time
}

// Options configures a Watcher.
type Options struct {
	// DebounceWindow coalesces rapid events per path (0 = 500ms).
	DebounceWindow time.Duration

	// IgnoreDirs are directory names never descended into.
	IgnoreDirs []string

	// EventBufferSize sizes the batch channel (0 = 64).
	EventBufferSize int
}

func (o Options) withDefaults() Options {
	if o.DebounceWindow <= 0 {
		o.DebounceWindow = 500 * time.Millisecond
	}
	if o.EventBufferSize <= 0 {
		o.EventBufferSize = 64
	}
	if o.IgnoreDirs == nil {
		o.IgnoreDirs = []string{"node_modules", "vendor", "dist", "build", "__pycache__"}
	}
	return o
}

// Watcher emits debounced batches of file events for a directory tree.
// New subdirectories are added to the watch as they appear.
type Watcher struct {
	opts      Options
	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	errors    chan error
	rootPath  string

	mu      sync.Mutex
	stopped bool
	done    chan struct{}
}

// New creates a Watcher.
func New(opts Options) (*Watcher, error) {
	opts = opts.withDefaults()
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		opts:      opts,
		fsWatcher: fsw,
		debouncer: NewDebouncer(opts.DebounceWindow, opts.EventBufferSize),
		errors:    make(chan error, 10),
		done:      make(chan struct{}),
	}, nil
}

// Start begins watching root recursively and returns immediately.
func (w *Watcher) Start(ctx context.Context, root string) error {
	w.rootPath = root
	if err := w.addRecursive(root); err != nil {
		return err
	}

	go w.loop(ctx)
	return nil
}

// Events returns the channel of debounced event batches. It is closed
// when the watcher stops.
func (w *Watcher) Events() <-chan []FileEvent {
	return w.debouncer.Output()
}

// Errors returns non-fatal watcher errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Stop shuts the watcher down. Safe to call more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.done)
	err := w.fsWatcher.Close()
	w.debouncer.Stop()
	return err
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
				slog.Warn("watch_error_dropped", slog.String("error", err.Error()))
			}
		case ev, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handle(ev)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	rel, err := filepath.Rel(w.rootPath, ev.Name)
	if err != nil || w.ignored(rel) {
		return
	}
	rel = filepath.ToSlash(rel)

	// Watch newly created directories so nested files are seen.
	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(ev.Name); err != nil {
				slog.Debug("watch_add_failed", slog.String("path", rel))
			}
			return
		}
	}

	var op Operation
	switch {
	case ev.Op.Has(fsnotify.Create):
		op = OpCreate
	case ev.Op.Has(fsnotify.Write):
		op = OpModify
	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		op = OpDelete
	default:
		return
	}

	w.debouncer.Add(FileEvent{Path: rel, Operation: op, Timestamp: time.Now()})
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		rel, _ := filepath.Rel(w.rootPath, path)
		if rel != "." && w.ignored(rel) {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(path); err != nil {
			slog.Debug("watch_add_failed", slog.String("path", path))
		}
		return nil
	})
}

func (w *Watcher) ignored(rel string) bool {
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if part == "." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
		for _, dir := range w.opts.IgnoreDirs {
			if part == dir {
				return true
			}
		}
	}
	return false
}
