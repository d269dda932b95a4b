// Package watcher delivers file system events for a project tree.
//
// Events are forwarded one at a time in arrival order, without
// coalescing. A rapid create+modify pair therefore reaches the
// consumer as two events, and the index applies both. Directories are
// added to the watch recursively as they appear.
package watcher

import "time"

// Operation is the kind of file system change.
type Operation int

const (
	// OpCreate indicates a new file or directory was created.
	OpCreate Operation = iota
	// OpModify indicates an existing file was modified.
	OpModify
	// OpDelete indicates a file or directory was deleted.
	OpDelete
	// OpRename indicates a file or directory was renamed away from
	// its path. The new path arrives as a separate OpCreate.
	OpRename
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	case OpRename:
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}

// FileEvent is one file system event.
type FileEvent struct {
	// Path is relative to the watched root, slash-separated.
	Path string

	// Operation is the type of change.
	Operation Operation

	// IsDir is true for directory events. Delete and rename events
	// report false because the path no longer exists to check.
	IsDir bool

	// Timestamp is when the event was observed.
	Timestamp time.Time
}

// Options configures the watcher.
type Options struct {
	// EventBufferSize is the event channel capacity. Events are
	// dropped, counted, and logged when the consumer falls behind.
	// Default: 1000
	EventBufferSize int

	// IgnorePatterns are gitignore-style patterns filtered out in
	// addition to the built-in directory skips.
	IgnorePatterns []string
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		EventBufferSize: 1000,
	}
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	if o.EventBufferSize == 0 {
		o.EventBufferSize = DefaultOptions().EventBufferSize
	}
	return o
}

// skipDirNames are directory names never watched; dot-directories are
// skipped by prefix. Mirrors the scanner's skip set.
var skipDirNames = map[string]struct{}{
	"node_modules": {},
	"target":       {},
	"build":        {},
	"dist":         {},
}
