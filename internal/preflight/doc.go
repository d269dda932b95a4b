// Package preflight validates the host system before indexing starts.
//
// The package checks:
//   - Disk space in the cache directory (minimum 100MB)
//   - Write permissions in the cache directory
//   - File descriptor limits (the watcher holds one per directory)
//   - External search tool availability (ugrep, rg, ag, grep)
//
// Use the Checker type to run all validations:
//
//	checker := preflight.New()
//	results := checker.RunAll(ctx, cacheDir)
//	if checker.HasCriticalFailures(results) {
//	    // Handle failures
//	}
package preflight
