package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points user config and env overrides away from the real
// environment so Load is deterministic in tests.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, key := range []string{
		"CODESCOPE_SEARCH_TOOL", "CODESCOPE_MAX_RESULTS", "CODESCOPE_INDEX_WORKERS",
		"CODESCOPE_WATCH_ENABLED", "CODESCOPE_CACHE_ENABLED", "CODESCOPE_CACHE_DIR",
		"CODESCOPE_LOG_LEVEL", "CODESCOPE_TRANSPORT",
	} {
		t.Setenv(key, "")
	}
}

// writeFile drops a config file into dir.
func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

// mustLoad loads dir's configuration, failing the test on error.
func mustLoad(t *testing.T, dir string) *Config {
	t.Helper()
	cfg, err := Load(dir)
	require.NoError(t, err)
	return cfg
}

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, runtime.NumCPU(), cfg.Index.Workers)
	assert.Equal(t, 1024, cfg.Index.MaxFileSizeKB)
	assert.Equal(t, 100000, cfg.Index.MaxFiles)
	assert.Equal(t, "auto", cfg.Search.Tool)
	assert.Equal(t, 1000, cfg.Search.MaxResults)
	assert.Equal(t, 30, cfg.Search.TimeoutSeconds)
	assert.True(t, cfg.Watch.Enabled)
	assert.Equal(t, 1024, cfg.Watch.QueueSize)
	assert.Equal(t, "stdio", cfg.Server.Transport)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.True(t, cfg.Cache.Enabled)
	assert.Contains(t, cfg.Cache.Dir, ".codescope")

	for _, p := range []string{"**/node_modules/**", "**/.git/**", "**/target/**"} {
		assert.Contains(t, cfg.Paths.Exclude, p)
	}

	assert.NoError(t, cfg.Validate(), "defaults must validate")
}

func TestLoad_NoConfigFile_UsesDefaults(t *testing.T) {
	isolate(t)

	cfg := mustLoad(t, t.TempDir())

	assert.Equal(t, "auto", cfg.Search.Tool)
	assert.True(t, cfg.Watch.Enabled)
}

func TestLoad_ProjectConfig_OverridesDefaults(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, dir, ".codescope.yaml", `
version: 1
search:
  tool: rg
  max_results: 50
index:
  workers: 2
`)

	cfg := mustLoad(t, dir)

	assert.Equal(t, "rg", cfg.Search.Tool)
	assert.Equal(t, 50, cfg.Search.MaxResults)
	assert.Equal(t, 2, cfg.Index.Workers)

	// Unset fields keep their defaults.
	assert.Equal(t, 30, cfg.Search.TimeoutSeconds)
	assert.Equal(t, "stdio", cfg.Server.Transport)
}

func TestLoad_YmlFallback(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, dir, ".codescope.yml", "search:\n  tool: grep\n")

	cfg := mustLoad(t, dir)

	assert.Equal(t, "grep", cfg.Search.Tool)
}

func TestLoad_YamlTakesPrecedenceOverYml(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, dir, ".codescope.yaml", "search:\n  tool: rg\n")
	writeFile(t, dir, ".codescope.yml", "search:\n  tool: grep\n")

	cfg := mustLoad(t, dir)

	assert.Equal(t, "rg", cfg.Search.Tool)
}

func TestLoad_UserConfig_LowerPrecedenceThanProject(t *testing.T) {
	isolate(t)
	userDir := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "codescope")
	require.NoError(t, os.MkdirAll(userDir, 0o755))
	writeFile(t, userDir, "config.yaml", "search:\n  tool: ag\n  max_results: 10\n")

	dir := t.TempDir()
	writeFile(t, dir, ".codescope.yaml", "search:\n  tool: rg\n")

	cfg := mustLoad(t, dir)

	// Project config wins for tool, user config survives for max_results.
	assert.Equal(t, "rg", cfg.Search.Tool)
	assert.Equal(t, 10, cfg.Search.MaxResults)
}

func TestLoad_BadUserConfig_ReturnsError(t *testing.T) {
	isolate(t)
	userDir := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "codescope")
	require.NoError(t, os.MkdirAll(userDir, 0o755))
	writeFile(t, userDir, "config.yaml", "search: [broken\n")

	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user config")
}

func TestLoad_EnvOverrides_HighestPrecedence(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, dir, ".codescope.yaml", "search:\n  tool: rg\n")

	t.Setenv("CODESCOPE_SEARCH_TOOL", "grep")
	t.Setenv("CODESCOPE_MAX_RESULTS", "7")
	t.Setenv("CODESCOPE_WATCH_ENABLED", "false")
	t.Setenv("CODESCOPE_LOG_LEVEL", "warn")
	t.Setenv("CODESCOPE_CACHE_DIR", filepath.Join(dir, "snapcache"))

	cfg := mustLoad(t, dir)

	assert.Equal(t, "grep", cfg.Search.Tool)
	assert.Equal(t, 7, cfg.Search.MaxResults)
	assert.False(t, cfg.Watch.Enabled)
	assert.Equal(t, "warn", cfg.Server.LogLevel)
	assert.Equal(t, filepath.Join(dir, "snapcache"), cfg.Cache.Dir)
}

func TestLoad_ExcludePatterns_AppendToDefaults(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, dir, ".codescope.yaml", "paths:\n  exclude:\n    - \"**/generated/**\"\n")

	cfg := mustLoad(t, dir)

	assert.Contains(t, cfg.Paths.Exclude, "**/generated/**")
	assert.Contains(t, cfg.Paths.Exclude, "**/node_modules/**")
}

func TestLoad_InvalidYAML_ReturnsError(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, dir, ".codescope.yaml", "search: [not a map\n")

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		errPart string
	}{
		{"unknown search tool", func(c *Config) { c.Search.Tool = "ack" }, "search.tool"},
		{"non-stdio transport", func(c *Config) { c.Server.Transport = "sse" }, "transport"},
		{"bad log level", func(c *Config) { c.Server.LogLevel = "verbose" }, "log_level"},
		{"negative max results", func(c *Config) { c.Search.MaxResults = -1 }, "max_results"},
		{"negative workers", func(c *Config) { c.Index.Workers = -2 }, "workers"},
		{"negative queue size", func(c *Config) { c.Watch.QueueSize = -5 }, "queue_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errPart)
		})
	}
}

func TestValidate_AcceptsAllSearchTools(t *testing.T) {
	for _, tool := range []string{"", "auto", "ugrep", "rg", "ag", "grep"} {
		cfg := NewConfig()
		cfg.Search.Tool = tool
		assert.NoError(t, cfg.Validate(), "tool %q should validate", tool)
	}
}

func TestFindProjectRoot_FindsGitDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))
	sub := filepath.Join(dir, "src", "main")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	root, err := FindProjectRoot(sub)
	require.NoError(t, err)
	assert.Equal(t, dir, root)
}

func TestFindProjectRoot_FindsConfigFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".codescope.yaml", "version: 1\n")
	sub := filepath.Join(dir, "lib")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	root, err := FindProjectRoot(sub)
	require.NoError(t, err)
	assert.Equal(t, dir, root)
}

func TestFindProjectRoot_FallsBackToStartDir(t *testing.T) {
	dir := t.TempDir()

	root, err := FindProjectRoot(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, root)
}

func TestDetectProjectType(t *testing.T) {
	tests := []struct {
		name   string
		marker string
		want   ProjectType
	}{
		{"maven project", "pom.xml", ProjectTypeJava},
		{"gradle project", "build.gradle", ProjectTypeJava},
		{"kotlin gradle project", "build.gradle.kts", ProjectTypeJava},
		{"typescript project", "tsconfig.json", ProjectTypeTypeScript},
		{"node project", "package.json", ProjectTypeNode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, tt.marker, "{}")

			assert.Equal(t, tt.want, DetectProjectType(dir))
		})
	}
}

func TestDetectProjectType_Unknown(t *testing.T) {
	pt := DetectProjectType(t.TempDir())

	assert.Equal(t, ProjectTypeUnknown, pt)
	assert.False(t, pt.IsKnown())
}

func TestDetectProjectType_JavaBeatsNode(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pom.xml", "<project/>")
	writeFile(t, dir, "package.json", "{}")

	assert.Equal(t, ProjectTypeJava, DetectProjectType(dir))
}

func TestGetUserConfigPath_HonorsXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	assert.Equal(t, filepath.Join(dir, "codescope", "config.yaml"), GetUserConfigPath())
}

func TestDefaultCacheDir_NotEmpty(t *testing.T) {
	dir := DefaultCacheDir()

	assert.NotEmpty(t, dir)
	assert.Contains(t, dir, "cache")
}
