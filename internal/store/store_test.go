package store

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codescope/internal/parser"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleSnapshot() *Snapshot {
	return &Snapshot{
		Root:    "/home/dev/shop",
		BuiltAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Files: map[string]*parser.FileRecord{
			"src/Order.java": {
				Path:      "src/Order.java",
				Language:  "java",
				LineCount: 42,
				Functions: []string{"Order.confirm", "Order.ship"},
				Classes:   []string{"Order"},
				Imports:   []string{"java.util.List"},
				Package:   "com.example.shop",
			},
			"src/app.ts": {
				Path:      "src/app.ts",
				Language:  "typescript",
				LineCount: 10,
				Functions: []string{"boot"},
				Classes:   []string{},
				Imports:   []string{`import { Order } from "./order";`},
				Exports:   []string{},
			},
		},
		Symbols: map[string]*parser.Symbol{
			"src/Order.java::Order": {
				ID:       "src/Order.java::Order",
				Name:     "Order",
				Kind:     parser.KindClass,
				File:     "src/Order.java",
				Line:     3,
				CalledBy: []string{},
			},
			"src/Order.java::Order.ship": {
				ID:        "src/Order.java::Order.ship",
				Name:      "Order.ship",
				Kind:      parser.KindMethod,
				File:      "src/Order.java",
				Line:      9,
				Signature: "public void ship() {",
				CalledBy:  []string{"src/Order.java::Order.confirm"},
			},
			"src/app.ts::boot": {
				ID:       "src/app.ts::boot",
				Name:     "boot",
				Kind:     parser.KindFunction,
				File:     "src/app.ts",
				Line:     2,
				CalledBy: []string{},
			},
		},
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	// Given a snapshot saved to a fresh database
	path := filepath.Join(t.TempDir(), "abc123.db")
	s, err := Open(path, discardLogger())
	require.NoError(t, err)
	defer s.Close()

	snap := sampleSnapshot()
	require.NoError(t, s.Save(context.Background(), snap))

	// When loading it back
	got, err := s.Load(context.Background())
	require.NoError(t, err)

	// Then everything round-trips
	assert.Equal(t, snap.Root, got.Root)
	assert.True(t, snap.BuiltAt.Equal(got.BuiltAt))
	assert.Equal(t, snap.Files, got.Files)
	assert.Equal(t, snap.Symbols, got.Symbols)

	// And the language-specific optional fields survive exactly
	require.Contains(t, got.Files, "src/Order.java")
	assert.Nil(t, got.Files["src/Order.java"].Exports)
	assert.Equal(t, "com.example.shop", got.Files["src/Order.java"].Package)
	require.Contains(t, got.Files, "src/app.ts")
	assert.NotNil(t, got.Files["src/app.ts"].Exports)
	assert.Empty(t, got.Files["src/app.ts"].Exports)
	assert.Empty(t, got.Files["src/app.ts"].Package)
}

func TestStore_LoadBeforeSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	s, err := Open(path, discardLogger())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Load(context.Background())
	require.ErrorIs(t, err, ErrNoSnapshot)
}

func TestStore_SaveReplacesPreviousSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replace.db")
	s, err := Open(path, discardLogger())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Save(context.Background(), sampleSnapshot()))

	// When a smaller snapshot is saved over it
	second := &Snapshot{
		Root: "/home/dev/shop",
		Files: map[string]*parser.FileRecord{
			"src/app.ts": {
				Path:      "src/app.ts",
				Language:  "typescript",
				LineCount: 1,
				Functions: []string{},
				Classes:   []string{},
				Imports:   []string{},
				Exports:   []string{},
			},
		},
		Symbols: map[string]*parser.Symbol{},
	}
	require.NoError(t, s.Save(context.Background(), second))

	// Then only the new state remains
	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, got.Files, 1)
	assert.NotContains(t, got.Files, "src/Order.java")
	assert.Empty(t, got.Symbols)
	assert.False(t, got.BuiltAt.IsZero())
}

func TestStore_ReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")

	s, err := Open(path, discardLogger())
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), sampleSnapshot()))
	require.NoError(t, s.Close())

	// When reopening the same database file
	s2, err := Open(path, discardLogger())
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, got.Files, 2)
	assert.Len(t, got.Symbols, 3)
}

func TestStore_CorruptDatabaseCleared(t *testing.T) {
	// Given a garbage file where the database should be
	path := filepath.Join(t.TempDir(), "corrupt.db")
	require.NoError(t, os.WriteFile(path, []byte("this is not a sqlite file"), 0o644))

	// When opening
	s, err := Open(path, discardLogger())
	require.NoError(t, err)
	defer s.Close()

	// Then the store starts empty and is usable
	_, err = s.Load(context.Background())
	require.ErrorIs(t, err, ErrNoSnapshot)
	require.NoError(t, s.Save(context.Background(), sampleSnapshot()))
}

func TestStore_CloseIsIdempotent(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "close.db"), discardLogger())
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	err = s.Save(context.Background(), sampleSnapshot())
	require.Error(t, err)
}

func TestProjectID(t *testing.T) {
	id := ProjectID("/home/dev/shop")

	assert.Len(t, id, 16)
	assert.Regexp(t, "^[0-9a-f]{16}$", id)
	// Deterministic and path-sensitive
	assert.Equal(t, id, ProjectID("/home/dev/shop"))
	assert.NotEqual(t, id, ProjectID("/home/dev/other"))
}

func TestSnapshotPath(t *testing.T) {
	path := SnapshotPath("/cache", "/home/dev/shop")

	assert.Equal(t, filepath.Dir(path), "/cache")
	assert.Equal(t, ProjectID("/home/dev/shop")+".db", filepath.Base(path))

	lock := LockPath("/cache", "/home/dev/shop")
	assert.Equal(t, ProjectID("/home/dev/shop")+".lock", filepath.Base(lock))
}
