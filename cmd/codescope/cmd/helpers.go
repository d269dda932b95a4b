package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"codescope/internal/config"
	"codescope/internal/index"
	"codescope/internal/store"
)

// openSnapshot restores the cached snapshot for the project containing
// dir into an in-memory index. Query commands use this instead of a
// full Indexer: no project lock is taken, no watcher starts, and a
// concurrently running server stays undisturbed.
func openSnapshot(ctx context.Context, dir string) (*index.Index, *store.Snapshot, string, error) {
	root, err := config.FindProjectRoot(dir)
	if err != nil {
		return nil, nil, "", err
	}

	cfg, err := config.Load(root)
	if err != nil {
		cfg = config.NewConfig()
	}

	snapPath := store.SnapshotPath(cfg.Cache.Dir, root)
	if !fileExists(snapPath) {
		return nil, nil, "", fmt.Errorf("no index found in %s\nRun 'codescope index' to create one", root)
	}

	// Opening a missing path would create an empty database, hence the
	// existence check above.
	st, err := store.Open(snapPath, quietLogger())
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer func() { _ = st.Close() }()

	snap, err := st.Load(ctx)
	if err == store.ErrNoSnapshot {
		return nil, nil, "", fmt.Errorf("no index found in %s\nRun 'codescope index' to create one", root)
	}
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to load snapshot: %w", err)
	}

	ix := index.NewIndex()
	ix.Restore(snap)
	return ix, snap, root, nil
}

// quietLogger discards log output. Query commands print results, not
// logs, and should not depend on a writable log directory.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
