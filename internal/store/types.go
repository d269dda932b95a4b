// Package store persists index snapshots to per-project SQLite
// databases under the cache directory, so a server restart can restore
// an index without re-walking the project tree.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"time"

	"codescope/internal/parser"
)

// Snapshot is one complete index state for a project.
type Snapshot struct {
	// Root is the absolute project root the snapshot was built from.
	Root string

	// BuiltAt records when the snapshot was saved.
	BuiltAt time.Time

	// Files maps relative path to its analysis record.
	Files map[string]*parser.FileRecord

	// Symbols maps SymbolID to symbol.
	Symbols map[string]*parser.Symbol
}

// ProjectID derives the snapshot identity for a project root: the
// first 16 hex characters of SHA-256 of the absolute path.
func ProjectID(absRoot string) string {
	sum := sha256.Sum256([]byte(absRoot))
	return hex.EncodeToString(sum[:])[:16]
}

// SnapshotPath returns the database path for a project root under the
// cache directory.
func SnapshotPath(cacheDir, absRoot string) string {
	return filepath.Join(cacheDir, ProjectID(absRoot)+".db")
}

// LockPath returns the lock file path for a project root under the
// cache directory.
func LockPath(cacheDir, absRoot string) string {
	return filepath.Join(cacheDir, ProjectID(absRoot)+".lock")
}
