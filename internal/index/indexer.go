package index

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"codescope/internal/config"
	"codescope/internal/errors"
	"codescope/internal/parser"
	"codescope/internal/scanner"
	"codescope/internal/search"
	"codescope/internal/store"
	"codescope/internal/watcher"
)

// ProgressFunc receives live rebuild progress: the number of files
// parsed so far and the path just finished. Called from parse workers,
// so implementations must be safe for concurrent use.
type ProgressFunc func(parsed int, file string)

// Indexer owns the indexing pipeline for one project at a time:
// scanner, parse workers, file watcher, snapshot store, and the
// in-memory Index every query reads from.
type Indexer struct {
	cfg      *config.Config
	log      *slog.Logger
	parser   *parser.Parser
	scanner  *scanner.Scanner
	searcher *search.Searcher
	index    *Index
	cacheDir string
	progress ProgressFunc

	mu        sync.Mutex // guards the lifecycle fields below
	store     *store.Store
	lock      *store.ProjectLock
	watch     *watcher.Watcher
	watchDone chan struct{}
	closed    bool
}

// New creates an indexer and its cache directory. No project is bound
// yet; SetProjectPath or LoadCached does that.
func New(cfg *config.Config, log *slog.Logger) (*Indexer, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if log == nil {
		log = slog.Default()
	}

	cacheDir := cfg.Cache.Dir
	if cacheDir == "" {
		cacheDir = config.DefaultCacheDir()
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, errors.InternalError(fmt.Sprintf("failed to create cache directory %s", cacheDir), err)
	}

	sc, err := scanner.New()
	if err != nil {
		return nil, errors.InternalError("failed to create scanner", err)
	}

	return &Indexer{
		cfg:      cfg,
		log:      log,
		parser:   parser.New(log),
		scanner:  sc,
		searcher: search.NewSearcherWithTool(cfg.Search.Tool, log),
		index:    NewIndex(),
		cacheDir: cacheDir,
	}, nil
}

// CacheDir returns the directory snapshots and project locks live in.
func (ix *Indexer) CacheDir() string {
	return ix.cacheDir
}

// SetProgressFunc installs a rebuild progress callback. Set it before
// the first SetProjectPath; it is not synchronized against a running
// build.
func (ix *Indexer) SetProgressFunc(fn ProgressFunc) {
	ix.progress = fn
}

// ProjectRoot returns the absolute root of the bound project, or the
// empty string before set_project_path.
func (ix *Indexer) ProjectRoot() string {
	return ix.index.Root()
}

// SetProjectPath binds the indexer to a project root and builds the
// index. A previously bound project is torn down first: its watcher
// stopped, its snapshot saved, its store closed, its lock released.
func (ix *Indexer) SetProjectPath(ctx context.Context, path string) (*BuildResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.New(errors.ErrCodeInvalidPath, fmt.Sprintf("path does not exist: %s", path), err)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidPath, fmt.Sprintf("path is not a directory: %s", path), nil)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.InvalidPath(path, err)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.closed {
		return nil, errors.InternalError("indexer is shut down", nil)
	}

	ix.teardown(ctx)

	lock, st, err := ix.acquireProject(abs)
	if err != nil {
		return nil, err
	}

	ix.log.Info("index_build_started", "path", abs)
	start := time.Now()
	count, err := ix.rebuild(ctx, abs)
	if err != nil {
		if st != nil {
			_ = st.Close()
		}
		_ = lock.Unlock()
		return nil, errors.New(errors.ErrCodeIndexFailed, fmt.Sprintf("failed to index %s", abs), err)
	}
	elapsed := time.Since(start)

	ix.store = st
	ix.lock = lock

	if ix.cfg.Watch.Enabled {
		if err := ix.startWatcher(abs, st); err != nil {
			ix.log.Warn("file watcher unavailable, index goes stale without refresh_index", "error", err)
		}
	}

	ix.persist(ctx, st)

	ix.log.Info("index_build_complete",
		"path", abs,
		"files", count,
		"symbols", ix.index.SymbolCount(),
		"duration_ms", elapsed.Milliseconds())

	return &BuildResult{
		FileCount:     count,
		BuildTimeMS:   elapsed.Milliseconds(),
		CacheLocation: ix.cacheDir,
	}, nil
}

// RefreshIndex rebuilds the index for the current project. The
// watcher keeps running; a refresh catches up after missed events,
// it does not switch projects.
func (ix *Indexer) RefreshIndex(ctx context.Context) (*BuildResult, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.closed {
		return nil, errors.InternalError("indexer is shut down", nil)
	}

	root := ix.index.Root()
	if root == "" {
		return nil, errors.NoProjectSet()
	}

	start := time.Now()
	count, err := ix.rebuild(ctx, root)
	if err != nil {
		return nil, errors.New(errors.ErrCodeIndexFailed, fmt.Sprintf("failed to refresh index for %s", root), err)
	}
	elapsed := time.Since(start)
	ix.persist(ctx, ix.store)

	ix.log.Info("index_refresh_complete",
		"path", root,
		"files", count,
		"duration_ms", elapsed.Milliseconds())

	return &BuildResult{FileCount: count, BuildTimeMS: elapsed.Milliseconds()}, nil
}

// LoadCached binds a project and restores its snapshot without
// walking the tree. A missing, corrupt, or mismatched snapshot is not
// an error: the index starts empty and waits for an explicit build.
// Returns the number of files restored.
func (ix *Indexer) LoadCached(ctx context.Context, path string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidPath, fmt.Sprintf("path does not exist: %s", path), err)
	}
	if !info.IsDir() {
		return 0, errors.New(errors.ErrCodeInvalidPath, fmt.Sprintf("path is not a directory: %s", path), nil)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return 0, errors.InvalidPath(path, err)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.closed {
		return 0, errors.InternalError("indexer is shut down", nil)
	}

	ix.teardown(ctx)

	lock, st, err := ix.acquireProject(abs)
	if err != nil {
		return 0, err
	}

	ix.index.Reset(abs, nil, nil)
	restored := 0
	if st != nil {
		snap, err := st.Load(ctx)
		switch {
		case err == store.ErrNoSnapshot:
			ix.log.Info("no cached snapshot, index starts empty", "path", abs)
		case err != nil:
			ix.log.Warn("failed to load cached snapshot, index starts empty", "error", err)
		case snap.Root != abs:
			ix.log.Warn("cached snapshot is for a different root, ignoring",
				"snapshot_root", snap.Root, "path", abs)
		default:
			ix.index.Restore(snap)
			restored = len(snap.Files)
		}
	}

	ix.store = st
	ix.lock = lock

	if ix.cfg.Watch.Enabled {
		if err := ix.startWatcher(abs, st); err != nil {
			ix.log.Warn("file watcher unavailable, index goes stale without refresh_index", "error", err)
		}
	}

	ix.log.Info("index_cache_restored", "path", abs, "files", restored)
	return restored, nil
}

// Shutdown stops the watcher, saves a final snapshot, and releases
// the store and project lock. Safe to call more than once.
func (ix *Indexer) Shutdown(ctx context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.closed {
		return nil
	}
	ix.closed = true
	ix.teardown(ctx)
	return nil
}

// acquireProject takes the per-project lock and opens the snapshot
// store. The store is nil when caching is disabled. Caller holds
// ix.mu.
func (ix *Indexer) acquireProject(abs string) (*store.ProjectLock, *store.Store, error) {
	lock := store.NewProjectLock(ix.cacheDir, abs)
	acquired, err := lock.TryLock()
	if err != nil {
		return nil, nil, errors.InternalError(fmt.Sprintf("failed to acquire project lock for %s", abs), err)
	}
	if !acquired {
		return nil, nil, errors.New(errors.ErrCodeProjectLocked,
			fmt.Sprintf("project is locked by another process: %s", abs), nil).
			WithSuggestion("Stop the other codescope process or retry once it finishes.")
	}

	if !ix.cfg.Cache.Enabled {
		return lock, nil, nil
	}
	st, err := store.Open(store.SnapshotPath(ix.cacheDir, abs), ix.log)
	if err != nil {
		_ = lock.Unlock()
		return nil, nil, errors.InternalError("failed to open snapshot store", err)
	}
	return lock, st, nil
}

// rebuild scans and parses the whole tree, then swaps the result into
// the index. The index write lock is held for the duration, so
// queries wait for the new state and watcher events apply after it.
func (ix *Indexer) rebuild(ctx context.Context, root string) (int, error) {
	return ix.index.ReplaceAll(root, func() (map[string]*parser.FileRecord, map[string]*parser.Symbol, error) {
		// Cancelling the scan unblocks its walker if a worker
		// bails out early.
		scanCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		results, err := ix.scanner.Scan(scanCtx, &scanner.ScanOptions{
			RootDir:          root,
			ExcludePatterns:  ix.cfg.Paths.Exclude,
			RespectGitignore: true,
			MaxFileSize:      ix.maxFileSize(),
		})
		if err != nil {
			return nil, nil, err
		}

		var (
			mu        sync.Mutex
			files     = make(map[string]*parser.FileRecord)
			symbols   = make(map[string]*parser.Symbol)
			capWarned bool
		)
		maxFiles := ix.cfg.Index.MaxFiles

		g, gctx := errgroup.WithContext(scanCtx)
		for i := 0; i < ix.workers(); i++ {
			g.Go(func() error {
				for res := range results {
					if res.Error != nil {
						return res.Error
					}
					analysis, ok := ix.parseForIndex(gctx, res.File.Path, res.File.AbsPath)
					if !ok {
						if gctx.Err() != nil {
							return gctx.Err()
						}
						continue
					}
					mu.Lock()
					if maxFiles > 0 && len(files) >= maxFiles {
						if !capWarned {
							capWarned = true
							ix.log.Warn("file limit reached, truncating index", "max_files", maxFiles)
						}
						mu.Unlock()
						continue
					}
					files[analysis.Record.Path] = &analysis.Record
					for _, sym := range analysis.Symbols {
						symbols[sym.ID] = sym
					}
					parsed := len(files)
					mu.Unlock()
					if ix.progress != nil {
						ix.progress(parsed, analysis.Record.Path)
					}
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, nil, err
		}
		return files, symbols, nil
	})
}

// parseForIndex reads and parses one file, absorbing per-file
// failures. ok is false when the file should be skipped.
func (ix *Indexer) parseForIndex(ctx context.Context, relPath, absPath string) (*parser.FileAnalysis, bool) {
	src, err := os.ReadFile(absPath)
	if err != nil {
		ix.log.Warn("skipping unreadable file", "file", relPath, "error", err)
		return nil, false
	}
	analysis, err := ix.parser.ParseFile(ctx, relPath, src)
	if err != nil {
		if ctx.Err() == nil {
			ix.log.Warn("skipping file that failed to parse", "file", relPath, "error", err)
		}
		return nil, false
	}
	return analysis, true
}

// teardown unbinds the current project. Caller holds ix.mu. The
// watcher is stopped and joined before the final save, so the
// snapshot reflects every applied event.
func (ix *Indexer) teardown(ctx context.Context) {
	if ix.watch != nil {
		if err := ix.watch.Stop(); err != nil {
			ix.log.Warn("failed to stop file watcher", "error", err)
		}
		<-ix.watchDone
		ix.watch = nil
		ix.watchDone = nil
	}
	if ix.store != nil {
		ix.persist(ctx, ix.store)
		if err := ix.store.Close(); err != nil {
			ix.log.Warn("failed to close snapshot store", "error", err)
		}
		ix.store = nil
	}
	if ix.lock != nil {
		if err := ix.lock.Unlock(); err != nil {
			ix.log.Warn("failed to release project lock", "error", err)
		}
		ix.lock = nil
	}
	ix.scanner.InvalidateGitignoreCache()
}

// persist saves a snapshot best-effort. Save failures degrade cold
// starts, not correctness, so they are logged and swallowed.
func (ix *Indexer) persist(ctx context.Context, st *store.Store) {
	if st == nil {
		return
	}
	if err := st.Save(ctx, ix.index.Snapshot()); err != nil {
		ix.log.Warn("failed to save index snapshot", "error", err)
	}
}

func (ix *Indexer) workers() int {
	if n := ix.cfg.Index.Workers; n > 0 {
		return n
	}
	return runtime.NumCPU()
}

func (ix *Indexer) maxFileSize() int64 {
	if kb := ix.cfg.Index.MaxFileSizeKB; kb > 0 {
		return int64(kb) * 1024
	}
	return scanner.DefaultMaxFileSize
}
