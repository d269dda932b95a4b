package logging

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultLogPath returns the server log path, ~/.codescope/logs/server.log.
func DefaultLogPath() string {
	return filepath.Join(defaultLogDir(), "server.log")
}

// defaultLogDir resolves ~/.codescope/logs, falling back to the temp
// directory when no home directory is available.
func defaultLogDir() string {
	base, err := os.UserHomeDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, ".codescope", "logs")
}

// FindLogFile locates the log file to view. An explicit path wins when it
// exists; otherwise the default server log is used. Returns an error when
// neither is present.
func FindLogFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("log file not found: %s", explicit)
		}
		return explicit, nil
	}

	path := DefaultLogPath()
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("no log file found. Server may not have run yet.\nExpected at: %s", path)
	}
	return path, nil
}
