package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ProjectLock guards a project's snapshot database against concurrent
// writers from other processes. Works on Unix, Linux, macOS, Windows.
type ProjectLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewProjectLock creates a lock for the given project root under the
// cache directory.
func NewProjectLock(cacheDir, absRoot string) *ProjectLock {
	path := LockPath(cacheDir, absRoot)
	return &ProjectLock{
		path:  path,
		flock: flock.New(path),
	}
}

// TryLock attempts to acquire the lock without blocking. Returns true
// if acquired, false if another process holds it.
func (l *ProjectLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, fmt.Errorf("create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("acquire project lock: %w", err)
	}
	if acquired {
		l.locked = true
	}
	return acquired, nil
}

// Unlock releases the lock. Safe to call multiple times or when the
// lock was never acquired.
func (l *ProjectLock) Unlock() error {
	if !l.locked {
		return nil
	}
	if err := l.flock.Unlock(); err != nil {
		l.locked = false
		return fmt.Errorf("release project lock: %w", err)
	}
	l.locked = false
	return nil
}

// Path returns the lock file path.
func (l *ProjectLock) Path() string {
	return l.path
}

// IsLocked reports whether this process holds the lock.
func (l *ProjectLock) IsLocked() bool {
	return l.locked
}
