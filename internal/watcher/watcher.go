package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"codescope/internal/gitignore"
	"codescope/internal/parser"
)

// Watcher watches a directory tree with fsnotify and emits ordered
// FileEvents for indexable paths.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	registry  *parser.Registry
	ignore    *gitignore.Matcher
	events    chan FileEvent
	errors    chan error
	stopCh    chan struct{}
	loopDone  chan struct{}
	rootPath  string
	opts      Options

	mu      sync.Mutex
	started bool
	stopped bool

	droppedEvents atomic.Uint64
}

// New creates a watcher with the given options.
func New(opts Options) (*Watcher, error) {
	opts = opts.WithDefaults()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	return &Watcher{
		fsWatcher: fsw,
		registry:  parser.DefaultRegistry(),
		ignore:    gitignore.NewWithPatterns(opts.IgnorePatterns...),
		events:    make(chan FileEvent, opts.EventBufferSize),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
		loopDone:  make(chan struct{}),
		opts:      opts,
	}, nil
}

// Start begins watching the given directory recursively and blocks
// until Stop is called or the context is cancelled. Callers run it in
// its own goroutine.
func (w *Watcher) Start(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve absolute path: %w", err)
	}

	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return fmt.Errorf("watcher already started")
	}
	w.started = true
	w.rootPath = absPath
	w.mu.Unlock()

	defer func() {
		_ = w.fsWatcher.Close()
		close(w.events)
		close(w.errors)
		close(w.loopDone)
	}()

	if err := w.addRecursive(absPath); err != nil {
		return fmt.Errorf("add directories to watcher: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.emitError(err)
		}
	}
}

// Stop stops the watcher and waits for the event loop to exit. Safe
// to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		started := w.started
		w.mu.Unlock()
		if started {
			<-w.loopDone
		}
		return nil
	}
	w.stopped = true
	started := w.started
	w.mu.Unlock()

	close(w.stopCh)
	if started {
		<-w.loopDone
	} else {
		_ = w.fsWatcher.Close()
	}
	return nil
}

// Events returns the channel of file events. The channel is closed
// when the watcher stops.
func (w *Watcher) Events() <-chan FileEvent {
	return w.events
}

// Errors returns the channel of non-fatal watcher errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// DroppedEvents returns the number of events dropped due to buffer
// overflow.
func (w *Watcher) DroppedEvents() uint64 {
	return w.droppedEvents.Load()
}

// RootPath returns the root path being watched.
func (w *Watcher) RootPath() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rootPath
}

// handle converts and filters one fsnotify event.
func (w *Watcher) handle(event fsnotify.Event) {
	relPath, err := filepath.Rel(w.rootPath, event.Name)
	if err != nil || relPath == "." {
		return
	}
	relPath = filepath.ToSlash(relPath)

	var op Operation
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&fsnotify.Remove != 0:
		op = OpDelete
	case event.Op&fsnotify.Rename != 0:
		op = OpRename
	default:
		// Chmod churn is irrelevant to the index.
		return
	}

	isDir := false
	if op == OpCreate || op == OpModify {
		info, statErr := os.Stat(event.Name)
		if statErr != nil {
			// Vanished before we looked; the remove event follows.
			return
		}
		isDir = info.IsDir()
	}

	if w.shouldIgnore(relPath, isDir) {
		return
	}

	if isDir {
		if op == OpModify {
			return
		}
		// Watch new directories so files created inside them are seen.
		_ = w.addRecursive(event.Name)
	} else if op == OpCreate || op == OpModify {
		if _, ok := w.registry.GetByExtension(filepath.Ext(relPath)); !ok {
			return
		}
	}
	// Deletes and renames pass through without an extension check: the
	// stat above cannot run, so the path may be a directory whose
	// indexed contents need purging.

	w.emit(FileEvent{
		Path:      relPath,
		Operation: op,
		IsDir:     isDir,
		Timestamp: time.Now(),
	})
}

// addRecursive adds a directory and everything under it to the
// fsnotify watch list.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip entries we cannot access
		}
		if !d.IsDir() {
			return nil
		}

		relPath, relErr := filepath.Rel(w.rootPath, path)
		if relErr != nil {
			return nil
		}
		if relPath == "." {
			return w.fsWatcher.Add(path)
		}
		relPath = filepath.ToSlash(relPath)

		if w.shouldIgnore(relPath, true) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

// shouldIgnore reports whether a path is outside the watch scope. It
// checks directory components against the built-in skip set, then the
// configured ignore patterns.
func (w *Watcher) shouldIgnore(relPath string, isDir bool) bool {
	if relPath == "" || relPath == "." {
		return true
	}

	parts := strings.Split(relPath, "/")
	dirs := len(parts)
	if !isDir {
		dirs--
	}
	for i := 0; i < dirs; i++ {
		if strings.HasPrefix(parts[i], ".") {
			return true
		}
		if _, ok := skipDirNames[parts[i]]; ok {
			return true
		}
	}

	return w.ignore.Match(relPath, isDir)
}

// emit sends an event without blocking the fsnotify loop.
func (w *Watcher) emit(ev FileEvent) {
	select {
	case w.events <- ev:
	default:
		count := w.droppedEvents.Add(1)
		slog.Warn("event buffer full, dropping event",
			slog.String("path", ev.Path),
			slog.String("operation", ev.Operation.String()),
			slog.Uint64("total_dropped", count),
		)
	}
}

// emitError sends an error without blocking.
func (w *Watcher) emitError(err error) {
	select {
	case w.errors <- err:
	default:
	}
}
