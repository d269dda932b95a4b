// Package version exposes the build metadata stamped into codescope
// binaries.
package version

import (
	"fmt"
	"runtime"
)

// Stamped at build time through ldflags, for example:
//
//	-X codescope/pkg/version.Version=$(VERSION)
//
// An unstamped binary reports a dev build.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// BuildInfo is structured version information for JSON output.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetInfo collects the stamped values and runtime platform details.
func GetInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// String returns the one-line version banner.
func String() string {
	return fmt.Sprintf("codescope %s (commit: %s, built: %s, go: %s)",
		Version, Commit, Date, runtime.Version())
}

// Short returns the bare version.
func Short() string { return Version }
