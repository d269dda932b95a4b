package preflight

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckStatus_String(t *testing.T) {
	assert.Equal(t, "PASS", StatusPass.String())
	assert.Equal(t, "WARN", StatusWarn.String())
	assert.Equal(t, "FAIL", StatusFail.String())
	assert.Equal(t, "UNKNOWN", CheckStatus(42).String())
}

func TestCheckResult_IsCritical(t *testing.T) {
	// Only a failed required check is critical.
	assert.True(t, CheckResult{Status: StatusFail, Required: true}.IsCritical())
	assert.False(t, CheckResult{Status: StatusFail, Required: false}.IsCritical())
	assert.False(t, CheckResult{Status: StatusWarn, Required: true}.IsCritical())
	assert.False(t, CheckResult{Status: StatusPass, Required: true}.IsCritical())
}

func TestChecker_Options(t *testing.T) {
	// Given: no options
	plain := New()

	// Then: quiet checker printing to stdout
	require.NotNil(t, plain)
	assert.False(t, plain.verbose)

	// Given: verbose output into a buffer
	buf := &bytes.Buffer{}
	tuned := New(WithVerbose(true), WithOutput(buf))

	// Then: both options took effect
	assert.True(t, tuned.verbose)
	assert.Equal(t, buf, tuned.output)
}

func TestChecker_HasCriticalFailures(t *testing.T) {
	checker := New()

	pass := CheckResult{Status: StatusPass, Required: true}
	warn := CheckResult{Status: StatusWarn}
	optionalFail := CheckResult{Status: StatusFail, Required: false}
	requiredFail := CheckResult{Status: StatusFail, Required: true}

	assert.False(t, checker.HasCriticalFailures(nil))
	assert.False(t, checker.HasCriticalFailures([]CheckResult{pass, warn}))
	assert.False(t, checker.HasCriticalFailures([]CheckResult{pass, optionalFail}))
	assert.True(t, checker.HasCriticalFailures([]CheckResult{pass, requiredFail}))
}

func TestChecker_SummaryStatus(t *testing.T) {
	checker := New()

	tests := []struct {
		name    string
		results []CheckResult
		want    string
	}{
		{
			name:    "everything green",
			results: []CheckResult{{Status: StatusPass}, {Status: StatusPass}},
			want:    "ready",
		},
		{
			name:    "a warning degrades the summary",
			results: []CheckResult{{Status: StatusPass}, {Status: StatusWarn}},
			want:    "ready_with_warnings",
		},
		{
			name:    "an optional failure counts as a warning",
			results: []CheckResult{{Status: StatusPass}, {Status: StatusFail, Required: false}},
			want:    "ready_with_warnings",
		},
		{
			name:    "a required failure fails the whole run",
			results: []CheckResult{{Status: StatusWarn}, {Status: StatusFail, Required: true}},
			want:    "failed",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, checker.SummaryStatus(tc.results))
		})
	}
}

func TestChecker_CheckWritePermissions_Writable(t *testing.T) {
	// Given: a writable cache directory
	checker := New()

	// When: probing it
	result := checker.CheckWritePermissions(t.TempDir())

	// Then: the check passes
	assert.Equal(t, StatusPass, result.Status)
	assert.Equal(t, "write_permissions", result.Name)
	assert.True(t, result.Required)
}

func TestChecker_CheckWritePermissions_CreatesMissingDir(t *testing.T) {
	// Given: a cache directory that does not exist yet
	cacheDir := filepath.Join(t.TempDir(), "cache")

	// When: probing it
	result := New().CheckWritePermissions(cacheDir)

	// Then: the directory is created and the check passes
	assert.Equal(t, StatusPass, result.Status)
	assert.DirExists(t, cacheDir)
}

func TestChecker_CheckWritePermissions_ReadOnly(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("root ignores directory permissions")
	}

	// Given: a read-only directory
	readOnly := filepath.Join(t.TempDir(), "readonly")
	require.NoError(t, os.Mkdir(readOnly, 0o555))
	defer func() { _ = os.Chmod(readOnly, 0o755) }()

	// When: probing it
	result := New().CheckWritePermissions(readOnly)

	// Then: the check fails with a permission message
	assert.Equal(t, StatusFail, result.Status)
	assert.Contains(t, result.Message, "permission denied")
}

func TestChecker_CheckDiskSpace_MissingDirUsesAncestor(t *testing.T) {
	// Given: a cache path several levels below anything that exists
	missing := filepath.Join(t.TempDir(), "not", "created", "yet")

	// When: checking disk space
	result := New().CheckDiskSpace(missing)

	// Then: the nearest existing ancestor is measured instead
	assert.Equal(t, "disk_space", result.Name)
	assert.Contains(t, result.Message, "free")
}

func TestChecker_CheckSearchTools_NotRequired(t *testing.T) {
	// When: probing search tools
	result := New().CheckSearchTools()

	// Then: the check is never critical, whatever is installed
	assert.Equal(t, "search_tools", result.Name)
	assert.False(t, result.Required)
}

func TestChecker_RunAll_CoversEveryCheck(t *testing.T) {
	// When: running the full preflight against a fresh cache directory
	results := New().RunAll(context.Background(), t.TempDir())

	// Then: each check reported exactly once
	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.Name
	}
	assert.ElementsMatch(t,
		[]string{"write_permissions", "disk_space", "file_descriptors", "search_tools"},
		names)
}

func TestChecker_PrintResults(t *testing.T) {
	// Given: one result of each grade
	results := []CheckResult{
		{Name: "disk_space", Status: StatusPass, Message: "50 GB free"},
		{Name: "search_tools", Status: StatusWarn, Message: "only grep available"},
		{Name: "file_descriptors", Status: StatusFail, Message: "256 (minimum: 1024)", Required: true},
	}

	buf := &bytes.Buffer{}
	New(WithOutput(buf)).PrintResults(results)

	// Then: the report carries each grade, the summary and the issue lists
	out := buf.String()
	assert.Contains(t, out, "[PASS] disk_space")
	assert.Contains(t, out, "[WARN] search_tools")
	assert.Contains(t, out, "[FAIL] file_descriptors")
	assert.Contains(t, out, "Status: FAILED")
	assert.Contains(t, out, "1 error(s):")
	assert.Contains(t, out, "1 warning(s):")
}

func TestChecker_PrintResults_VerboseDetails(t *testing.T) {
	// Given: a result with details and a verbose checker
	results := []CheckResult{
		{Name: "file_descriptors", Status: StatusFail, Message: "256", Details: "Run 'ulimit -n 10240'", Required: true},
	}

	buf := &bytes.Buffer{}
	New(WithVerbose(true), WithOutput(buf)).PrintResults(results)

	// Then: the detail line is included
	assert.Contains(t, buf.String(), "ulimit -n 10240")
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{512, "512 bytes"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
		{2 * 1024 * 1024 * 1024 * 1024, "2.0 TB"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, formatBytes(tc.in), "input %d", tc.in)
	}
}
