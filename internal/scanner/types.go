// Package scanner discovers indexable source files in a project tree.
// Files qualify by parser-supported extension; directories are pruned
// by a built-in skip set, configured exclude patterns, and optionally
// .gitignore rules.
package scanner

import "time"

// FileInfo describes one discovered file.
type FileInfo struct {
	Path     string // relative to the project root, slash-separated
	AbsPath  string
	Size     int64
	ModTime  time.Time
	Language string
}

// ScanOptions configures a scan.
type ScanOptions struct {
	// RootDir is the project root to walk.
	RootDir string

	// ExcludePatterns are gitignore-style patterns applied on top of
	// the built-in directory skips.
	ExcludePatterns []string

	// RespectGitignore enables .gitignore handling, nested files
	// included.
	RespectGitignore bool

	// MaxFileSize caps file size in bytes (0 = DefaultMaxFileSize).
	MaxFileSize int64

	// FollowSymlinks includes symlinked files (default: skip).
	FollowSymlinks bool
}

// ScanResult is one item streamed from the scanner channel.
type ScanResult struct {
	File  *FileInfo
	Error error
}

// DefaultMaxFileSize is the fallback file size cap (10MB).
const DefaultMaxFileSize = 10 * 1024 * 1024

// skipDirNames are directory names never descended into.
// Dot-directories are skipped by prefix.
var skipDirNames = map[string]bool{
	"node_modules": true,
	"target":       true,
	"build":        true,
	"dist":         true,
}
