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

// startWatcher starts a watcher over dir and waits for it to be ready.
func startWatcher(t *testing.T, dir string, opts Options) *Watcher {
	t.Helper()
	w, err := New(opts)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() {
		_ = w.Start(ctx, dir)
	}()
	t.Cleanup(func() { _ = w.Stop() })

	// Wait for the recursive watch setup
	time.Sleep(200 * time.Millisecond)
	return w
}

// nextEvent waits for one event or fails the test.
func nextEvent(t *testing.T, w *Watcher, timeout time.Duration) FileEvent {
	t.Helper()
	select {
	case ev, ok := <-w.Events():
		require.True(t, ok, "event channel closed")
		return ev
	case err := <-w.Errors():
		t.Fatalf("unexpected watcher error: %v", err)
	case <-time.After(timeout):
		t.Fatal("timeout waiting for event")
	}
	return FileEvent{}
}

func TestWatcher_DetectsFileCreation(t *testing.T) {
	// Given a watched directory
	tempDir := t.TempDir()
	w := startWatcher(t, tempDir, DefaultOptions())

	// When a supported file is created
	file := filepath.Join(tempDir, "Main.java")
	require.NoError(t, os.WriteFile(file, []byte("class Main {}"), 0o644))

	// Then a CREATE event arrives with a relative slash path
	ev := nextEvent(t, w, 2*time.Second)
	assert.Equal(t, OpCreate, ev.Operation)
	assert.Equal(t, "Main.java", ev.Path)
	assert.False(t, ev.IsDir)
	assert.False(t, ev.Timestamp.IsZero())
}

func TestWatcher_DetectsFileModification(t *testing.T) {
	// Given an existing file under watch
	tempDir := t.TempDir()
	file := filepath.Join(tempDir, "app.ts")
	require.NoError(t, os.WriteFile(file, []byte("export const a = 1;"), 0o644))

	w := startWatcher(t, tempDir, DefaultOptions())

	// When the file is rewritten
	require.NoError(t, os.WriteFile(file, []byte("export const a = 2;"), 0o644))

	// Then a MODIFY event arrives first
	ev := nextEvent(t, w, 2*time.Second)
	assert.Equal(t, OpModify, ev.Operation)
	assert.Equal(t, "app.ts", ev.Path)
}

func TestWatcher_DetectsFileDeletion(t *testing.T) {
	tempDir := t.TempDir()
	file := filepath.Join(tempDir, "util.js")
	require.NoError(t, os.WriteFile(file, []byte("function u() {}"), 0o644))

	w := startWatcher(t, tempDir, DefaultOptions())

	require.NoError(t, os.Remove(file))

	ev := nextEvent(t, w, 2*time.Second)
	assert.Equal(t, OpDelete, ev.Operation)
	assert.Equal(t, "util.js", ev.Path)
}

func TestWatcher_RenameEmitsOldPathThenCreate(t *testing.T) {
	tempDir := t.TempDir()
	oldPath := filepath.Join(tempDir, "Old.java")
	require.NoError(t, os.WriteFile(oldPath, []byte("class Old {}"), 0o644))

	w := startWatcher(t, tempDir, DefaultOptions())

	// When the file is renamed in place
	require.NoError(t, os.Rename(oldPath, filepath.Join(tempDir, "New.java")))

	// Then the old path is reported as renamed away
	first := nextEvent(t, w, 2*time.Second)
	assert.Equal(t, OpRename, first.Operation)
	assert.Equal(t, "Old.java", first.Path)

	// And the new path arrives as a create
	second := nextEvent(t, w, 2*time.Second)
	assert.Equal(t, OpCreate, second.Operation)
	assert.Equal(t, "New.java", second.Path)
}

func TestWatcher_NoCoalescingOfRapidEvents(t *testing.T) {
	// Given a watched directory
	tempDir := t.TempDir()
	w := startWatcher(t, tempDir, DefaultOptions())

	// When a file is created and immediately rewritten
	file := filepath.Join(tempDir, "quick.ts")
	require.NoError(t, os.WriteFile(file, []byte("export {};"), 0o644))
	require.NoError(t, os.WriteFile(file, []byte("export const q = 1;"), 0o644))

	// Then both changes arrive separately and in order
	first := nextEvent(t, w, 2*time.Second)
	assert.Equal(t, OpCreate, first.Operation)
	assert.Equal(t, "quick.ts", first.Path)

	sawModify := false
	deadline := time.After(2 * time.Second)
	for !sawModify {
		select {
		case ev := <-w.Events():
			if ev.Operation == OpModify && ev.Path == "quick.ts" {
				sawModify = true
			}
		case <-deadline:
			t.Fatal("timeout waiting for modify event")
		}
	}
}

func TestWatcher_FiltersUnsupportedExtensions(t *testing.T) {
	tempDir := t.TempDir()
	w := startWatcher(t, tempDir, DefaultOptions())

	// When an unsupported file is created before a supported one
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "notes.txt"), []byte("notes"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "Real.java"), []byte("class Real {}"), 0o644))

	// Then only the supported file surfaces
	ev := nextEvent(t, w, 2*time.Second)
	assert.Equal(t, "Real.java", ev.Path)
	assert.Equal(t, OpCreate, ev.Operation)
}

func TestWatcher_IgnoresBuiltInDirectories(t *testing.T) {
	tempDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(tempDir, "node_modules", "pkg"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(tempDir, ".hidden"), 0o755))

	w := startWatcher(t, tempDir, DefaultOptions())

	// When files change inside ignored directories
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "node_modules", "pkg", "i.js"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, ".hidden", "h.java"), []byte("class H {}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "Visible.java"), []byte("class Visible {}"), 0o644))

	// Then only the visible file surfaces
	ev := nextEvent(t, w, 2*time.Second)
	assert.Equal(t, "Visible.java", ev.Path)
}

func TestWatcher_IgnorePatternsOption(t *testing.T) {
	tempDir := t.TempDir()
	w := startWatcher(t, tempDir, Options{IgnorePatterns: []string{"*.gen.ts"}})

	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "api.gen.ts"), []byte("export {};"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "api.ts"), []byte("export {};"), 0o644))

	ev := nextEvent(t, w, 2*time.Second)
	assert.Equal(t, "api.ts", ev.Path)
}

func TestWatcher_NewDirectoriesAreWatched(t *testing.T) {
	tempDir := t.TempDir()
	w := startWatcher(t, tempDir, DefaultOptions())

	// When a directory appears
	subDir := filepath.Join(tempDir, "src")
	require.NoError(t, os.Mkdir(subDir, 0o755))

	// Then its create event arrives, after which the directory is
	// under watch
	ev := nextEvent(t, w, 2*time.Second)
	assert.Equal(t, OpCreate, ev.Operation)
	assert.Equal(t, "src", ev.Path)
	assert.True(t, ev.IsDir)

	// And files created inside it are seen
	require.NoError(t, os.WriteFile(filepath.Join(subDir, "B.java"), []byte("class B {}"), 0o644))
	ev = nextEvent(t, w, 2*time.Second)
	assert.Equal(t, OpCreate, ev.Operation)
	assert.Equal(t, "src/B.java", ev.Path)
}

func TestWatcher_DirectoryRemovalEmitsDeletes(t *testing.T) {
	tempDir := t.TempDir()
	subDir := filepath.Join(tempDir, "pkg")
	require.NoError(t, os.Mkdir(subDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(subDir, "C.java"), []byte("class C {}"), 0o644))

	w := startWatcher(t, tempDir, DefaultOptions())

	require.NoError(t, os.RemoveAll(subDir))

	// Then at least one delete covering the removed tree arrives
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-w.Events():
			if ev.Operation == OpDelete && (ev.Path == "pkg" || ev.Path == "pkg/C.java") {
				return
			}
		case <-deadline:
			t.Fatal("timeout waiting for delete event")
		}
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	tempDir := t.TempDir()
	w, err := New(DefaultOptions())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = w.Start(ctx, tempDir)
	}()
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())

	// The event channel closes once the loop exits
	for range w.Events() {
	}
	assert.Zero(t, w.DroppedEvents())
}

func TestWatcher_StartTwiceFails(t *testing.T) {
	tempDir := t.TempDir()
	w := startWatcher(t, tempDir, DefaultOptions())

	err := w.Start(context.Background(), tempDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already started")
}

func TestOperation_String(t *testing.T) {
	tests := []struct {
		op   Operation
		want string
	}{
		{OpCreate, "CREATE"},
		{OpModify, "MODIFY"},
		{OpDelete, "DELETE"},
		{OpRename, "RENAME"},
		{Operation(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.op.String())
	}
}

func TestOptions_WithDefaults(t *testing.T) {
	opts := Options{}.WithDefaults()
	assert.Equal(t, 1000, opts.EventBufferSize)

	custom := Options{EventBufferSize: 16, IgnorePatterns: []string{"*.min.js"}}.WithDefaults()
	assert.Equal(t, 16, custom.EventBufferSize)
	assert.Equal(t, []string{"*.min.js"}, custom.IgnorePatterns)
}
