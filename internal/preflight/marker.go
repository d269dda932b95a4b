package preflight

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// MarkerFile records that preflight checks passed for a cache directory.
// Its content is the pass time in RFC3339.
const MarkerFile = ".preflight-passed"

func markerPath(cacheDir string) string {
	return filepath.Join(cacheDir, MarkerFile)
}

// NeedsCheck reports whether preflight should run, which is whenever no
// marker file exists yet.
func NeedsCheck(cacheDir string) bool {
	_, err := os.Stat(markerPath(cacheDir))
	return errors.Is(err, fs.ErrNotExist)
}

// MarkPassed writes the marker file, creating the cache directory if
// needed.
func MarkPassed(cacheDir string) error {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return fmt.Errorf("create marker directory: %w", err)
	}
	stamp := time.Now().UTC().Format(time.RFC3339)
	return os.WriteFile(markerPath(cacheDir), []byte(stamp), 0o644)
}

// ClearMarker removes the marker so the next run re-checks. Removing an
// absent marker is not an error.
func ClearMarker(cacheDir string) error {
	err := os.Remove(markerPath(cacheDir))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove marker file: %w", err)
	}
	return nil
}

// MarkerAge returns the time since the checks last passed, or zero when
// no readable marker exists.
func MarkerAge(cacheDir string) time.Duration {
	content, err := os.ReadFile(markerPath(cacheDir))
	if err != nil {
		return 0
	}
	passed, err := time.Parse(time.RFC3339, string(content))
	if err != nil {
		return 0
	}
	return time.Since(passed)
}
