package preflight

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
)

// CheckStatus grades the outcome of a single preflight check.
type CheckStatus int

const (
	StatusPass CheckStatus = iota
	StatusWarn
	StatusFail
)

func (s CheckStatus) String() string {
	if s < StatusPass || s > StatusFail {
		return "UNKNOWN"
	}
	return [...]string{"PASS", "WARN", "FAIL"}[s]
}

// CheckResult holds the outcome of a single preflight check.
type CheckResult struct {
	Name     string      `json:"name"`
	Status   CheckStatus `json:"status"`
	Message  string      `json:"message"`
	Details  string      `json:"details,omitempty"`
	Required bool        `json:"required"`
}

// IsCritical reports whether a required check failed.
func (r CheckResult) IsCritical() bool {
	return r.Required && r.Status == StatusFail
}

// Checker runs the preflight validations.
type Checker struct {
	verbose bool
	output  io.Writer
}

// Option configures a Checker.
type Option func(*Checker)

// WithVerbose enables per-check detail lines in the printed report.
func WithVerbose(verbose bool) Option { return func(c *Checker) { c.verbose = verbose } }

// WithOutput redirects the printed report.
func WithOutput(w io.Writer) Option { return func(c *Checker) { c.output = w } }

// New creates a Checker printing to stdout unless overridden.
func New(opts ...Option) *Checker {
	c := &Checker{output: os.Stdout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunAll runs every preflight check against the cache directory. Order
// matters: the write permission check creates the cache directory that
// the disk space check then stats.
func (c *Checker) RunAll(_ context.Context, cacheDir string) []CheckResult {
	checks := []func() CheckResult{
		func() CheckResult { return c.CheckWritePermissions(cacheDir) },
		func() CheckResult { return c.CheckDiskSpace(cacheDir) },
		c.CheckFileDescriptors,
		// Non-critical: search_code degrades to a slower tool, the
		// rest of the server works without any.
		c.CheckSearchTools,
	}

	results := make([]CheckResult, 0, len(checks))
	for _, check := range checks {
		results = append(results, check())
	}
	return results
}

// HasCriticalFailures reports whether any required check failed.
func (c *Checker) HasCriticalFailures(results []CheckResult) bool {
	return slices.ContainsFunc(results, CheckResult.IsCritical)
}

// SummaryStatus condenses results into "failed", "ready_with_warnings"
// or "ready".
func (c *Checker) SummaryStatus(results []CheckResult) string {
	warnings := 0
	for _, r := range results {
		if r.IsCritical() {
			return "failed"
		}
		if r.Status == StatusWarn || r.Status == StatusFail {
			warnings++
		}
	}
	if warnings > 0 {
		return "ready_with_warnings"
	}
	return "ready"
}

// PrintResults writes a human-readable report to the configured output.
func (c *Checker) PrintResults(results []CheckResult) {
	_, _ = fmt.Fprintln(c.output, "Codescope System Check")
	_, _ = fmt.Fprintln(c.output, "======================")
	_, _ = fmt.Fprintln(c.output)

	for _, r := range results {
		_, _ = fmt.Fprintf(c.output, "[%s] %s: %s\n", r.Status, r.Name, r.Message)
		if c.verbose && r.Details != "" {
			_, _ = fmt.Fprintf(c.output, "      %s\n", r.Details)
		}
	}

	_, _ = fmt.Fprintln(c.output)
	_, _ = fmt.Fprintf(c.output, "Status: %s\n", strings.ToUpper(c.SummaryStatus(results)))

	errors, warnings := splitIssues(results)
	c.printIssueBlock("error", errors)
	c.printIssueBlock("warning", warnings)
}

func (c *Checker) printIssueBlock(kind string, issues []string) {
	if len(issues) == 0 {
		return
	}
	_, _ = fmt.Fprintln(c.output)
	_, _ = fmt.Fprintf(c.output, "%d %s(s):\n", len(issues), kind)
	for _, issue := range issues {
		_, _ = fmt.Fprintf(c.output, "  - %s\n", issue)
	}
}

// splitIssues separates the blocking failures from the advisory warnings.
func splitIssues(results []CheckResult) (errors, warnings []string) {
	for _, r := range results {
		switch {
		case r.IsCritical():
			errors = append(errors, r.Name+": "+r.Message)
		case r.Status == StatusWarn:
			warnings = append(warnings, r.Name+": "+r.Message)
		}
	}
	return errors, warnings
}

// CheckWritePermissions verifies the cache directory accepts writes,
// creating it first if it does not exist yet.
func (c *Checker) CheckWritePermissions(path string) CheckResult {
	result := CheckResult{Name: "write_permissions", Required: true}

	if err := os.MkdirAll(path, 0o755); err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("cannot create cache directory: %v", err)
		return result
	}

	probe, err := os.CreateTemp(path, ".preflight-probe-*")
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("permission denied: %v", err)
		return result
	}
	_ = probe.Close()
	_ = os.Remove(probe.Name())

	result.Status = StatusPass
	result.Message = "OK"
	return result
}
