package index

import (
	"context"
	"os"
	"path"
	"path/filepath"

	"codescope/internal/errors"
	"codescope/internal/scanner"
	"codescope/internal/store"
	"codescope/internal/watcher"
)

// startWatcher launches the file watcher for root and the loop that
// feeds its events into the index. Caller holds ix.mu. The snapshot
// store handle rides with the loop so a project switch cannot yank it
// mid-event: teardown stops the watcher and joins the loop before the
// store is closed.
func (ix *Indexer) startWatcher(root string, st *store.Store) error {
	w, err := watcher.New(watcher.Options{
		EventBufferSize: ix.cfg.Watch.QueueSize,
		IgnorePatterns:  ix.cfg.Paths.Exclude,
	})
	if err != nil {
		return errors.New(errors.ErrCodeWatchFailed, "failed to create file watcher", err)
	}

	done := make(chan struct{})
	go func() {
		if err := w.Start(context.Background(), root); err != nil {
			ix.log.Warn("file watcher stopped", "error", err)
		}
	}()
	go ix.eventLoop(w, st, done)

	ix.watch = w
	ix.watchDone = done
	ix.log.Info("watch_started", "path", root)
	return nil
}

// eventLoop drains the watcher until both of its channels close.
func (ix *Indexer) eventLoop(w *watcher.Watcher, st *store.Store, done chan struct{}) {
	defer close(done)

	events, errs := w.Events(), w.Errors()
	for events != nil || errs != nil {
		select {
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			ix.applyEvent(st, ev)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			ix.log.Warn("file watcher error", "error", err)
		}
	}
}

// applyEvent folds one filesystem event into the index and persists
// the result. Every failure is absorbed: a watcher that dies on a bad
// event is worse than one stale file.
func (ix *Indexer) applyEvent(st *store.Store, ev watcher.FileEvent) {
	ctx := context.Background()
	changed := false

	switch ev.Operation {
	case watcher.OpCreate, watcher.OpModify:
		if ev.IsDir {
			// Only creation matters for directories: files moved
			// in with one never produce events of their own.
			if ev.Operation == watcher.OpCreate {
				changed = ix.indexSubtree(ctx, ev.Path) > 0
			}
		} else {
			changed = ix.reindexFile(ctx, ev.Path)
		}
	case watcher.OpDelete, watcher.OpRename:
		// The path may have been a directory; purge everything
		// under it along with its own record and symbols.
		changed = ix.index.RemovePath(ev.Path) > 0
	}

	if changed {
		ix.persist(ctx, st)
	}
}

// reindexFile parses one file from disk and swaps it into the index.
func (ix *Indexer) reindexFile(ctx context.Context, relPath string) bool {
	root := ix.index.Root()
	absPath := filepath.Join(root, filepath.FromSlash(relPath))

	info, err := os.Stat(absPath)
	if err != nil {
		// Gone again already; the delete event is on its way.
		return false
	}
	if max := ix.maxFileSize(); info.Size() > max {
		ix.log.Warn("skipping oversized file", "file", relPath, "size", info.Size(), "max", max)
		return false
	}

	analysis, ok := ix.parseForIndex(ctx, relPath, absPath)
	if !ok {
		return false
	}
	ix.index.ApplyFile(analysis)
	ix.log.Debug("file re-indexed", "file", relPath, "symbols", len(analysis.Symbols))
	return true
}

// indexSubtree walks a newly created directory and indexes every
// supported file inside it. Returns the number of files added.
func (ix *Indexer) indexSubtree(ctx context.Context, relDir string) int {
	root := ix.index.Root()
	absDir := filepath.Join(root, filepath.FromSlash(relDir))

	results, err := ix.scanner.Scan(ctx, &scanner.ScanOptions{
		RootDir:          absDir,
		ExcludePatterns:  ix.cfg.Paths.Exclude,
		RespectGitignore: true,
		MaxFileSize:      ix.maxFileSize(),
	})
	if err != nil {
		ix.log.Warn("failed to scan new directory", "dir", relDir, "error", err)
		return 0
	}

	added := 0
	for res := range results {
		if res.Error != nil {
			ix.log.Warn("scan error in new directory", "dir", relDir, "error", res.Error)
			continue
		}
		if ix.reindexFile(ctx, path.Join(relDir, res.File.Path)) {
			added++
		}
	}
	if added > 0 {
		ix.log.Debug("new directory indexed", "dir", relDir, "files", added)
	}
	return added
}
