// Package config loads codescope configuration, layering project and
// user YAML files and CODESCOPE_* environment overrides on top of the
// built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ProjectType classifies a project by its build files.
type ProjectType string

const (
	ProjectTypeJava       ProjectType = "java"
	ProjectTypeTypeScript ProjectType = "typescript"
	ProjectTypeNode       ProjectType = "node"
	ProjectTypeUnknown    ProjectType = "unknown"
)

func (p ProjectType) String() string { return string(p) }

// IsKnown reports whether detection found a recognized build file.
func (p ProjectType) IsKnown() bool { return p != ProjectTypeUnknown }

// Config is the full codescope configuration tree.
type Config struct {
	Version int          `yaml:"version" json:"version"`
	Paths   PathsConfig  `yaml:"paths" json:"paths"`
	Index   IndexConfig  `yaml:"index" json:"index"`
	Search  SearchConfig `yaml:"search" json:"search"`
	Watch   WatchConfig  `yaml:"watch" json:"watch"`
	Server  ServerConfig `yaml:"server" json:"server"`
	Cache   CacheConfig  `yaml:"cache" json:"cache"`
}

// PathsConfig narrows the files the indexer visits.
type PathsConfig struct {
	Include []string `yaml:"include" json:"include"`
	Exclude []string `yaml:"exclude" json:"exclude"`
}

// IndexConfig configures the indexing pipeline.
type IndexConfig struct {
	// Workers is the number of parallel parse workers (default: NumCPU).
	Workers int `yaml:"workers" json:"workers"`
	// MaxFileSizeKB skips source files larger than this (default: 1024).
	MaxFileSizeKB int `yaml:"max_file_size_kb" json:"max_file_size_kb"`
	// MaxFiles caps the number of files indexed per project (default: 100000).
	MaxFiles int `yaml:"max_files" json:"max_files"`
}

// SearchConfig configures text search subprocess behavior.
type SearchConfig struct {
	// Tool forces a specific search tool: ugrep, rg, ag, or grep.
	// Empty or "auto" probes in preference order.
	Tool string `yaml:"tool" json:"tool"`
	// MaxResults caps results returned per search (default: 1000).
	MaxResults int `yaml:"max_results" json:"max_results"`
	// TimeoutSeconds bounds a single search subprocess run (default: 30).
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`
}

// WatchConfig configures the filesystem watcher.
type WatchConfig struct {
	// Enabled starts the watcher after set_project_path (default: true).
	Enabled bool `yaml:"enabled" json:"enabled"`
	// QueueSize is the pending event channel capacity (default: 1024).
	QueueSize int `yaml:"queue_size" json:"queue_size"`
}

// ServerConfig holds MCP server transport and logging settings.
type ServerConfig struct {
	Transport string `yaml:"transport" json:"transport"`
	LogLevel  string `yaml:"log_level" json:"log_level"`
}

// CacheConfig configures snapshot persistence.
type CacheConfig struct {
	// Enabled persists the index to a snapshot database (default: true).
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Dir overrides the snapshot directory (default: ~/.codescope/cache).
	Dir string `yaml:"dir" json:"dir"`
}

// defaultExcludePatterns are always excluded on top of the walker's
// built-in directory skips.
var defaultExcludePatterns = []string{
	"**/node_modules/**",
	"**/.git/**",
	"**/target/**",
	"**/build/**",
	"**/dist/**",
	"**/*.min.js",
	"**/package-lock.json",
	"**/yarn.lock",
}

// NewConfig creates a Config with the built-in defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			Include: []string{},
			Exclude: defaultExcludePatterns,
		},
		Index: IndexConfig{
			Workers:       runtime.NumCPU(),
			MaxFileSizeKB: 1024,
			MaxFiles:      100000,
		},
		Search: SearchConfig{
			Tool:           "auto",
			MaxResults:     1000,
			TimeoutSeconds: 30,
		},
		Watch: WatchConfig{
			Enabled:   true,
			QueueSize: 1024,
		},
		Server: ServerConfig{
			Transport: "stdio",
			// Debug by default to aid troubleshooting.
			LogLevel: "debug",
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     DefaultCacheDir(),
		},
	}
}

// Load assembles the configuration for the project rooted at dir, in
// order of increasing precedence:
//
//	defaults < user config < project config < CODESCOPE_* environment
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if user, err := loadUserConfig(); err != nil {
		return nil, err
	} else if user != nil {
		cfg.mergeWith(user)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultCacheDir returns the snapshot directory, ~/.codescope/cache,
// or a temp-rooted equivalent when no home directory is available.
func DefaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".codescope", "cache")
}

// GetUserConfigPath returns the global config location following XDG:
// $XDG_CONFIG_HOME/codescope/config.yaml, with ~/.config as the base
// when XDG_CONFIG_HOME is unset.
func GetUserConfigPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = os.TempDir()
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "codescope", "config.yaml")
}

// UserConfigExists reports whether a global config file is present.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// loadUserConfig reads the global config when one exists. A missing
// file is not an error.
func loadUserConfig() (*Config, error) {
	path := GetUserConfigPath()
	if !fileExists(path) {
		return nil, nil
	}

	cfg := NewConfig()
	if err := cfg.loadYAML(path); err != nil {
		return nil, fmt.Errorf("user config: %w", err)
	}
	return cfg, nil
}

// loadFromFile merges the project config, preferring .codescope.yaml
// over .codescope.yml. Neither existing is fine.
func (c *Config) loadFromFile(dir string) error {
	for _, name := range []string{".codescope.yaml", ".codescope.yml"} {
		if path := filepath.Join(dir, name); fileExists(path) {
			return c.loadYAML(path)
		}
	}
	return nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith folds the set fields of o into c, section by section.
func (c *Config) mergeWith(o *Config) {
	if o.Version != 0 {
		c.Version = o.Version
	}
	c.Paths.merge(o.Paths)
	c.Index.merge(o.Index)
	c.Search.merge(o.Search)
	c.Watch.merge(o.Watch)
	c.Server.merge(o.Server)
	c.Cache.merge(o.Cache)
}

func (p *PathsConfig) merge(o PathsConfig) {
	if len(o.Include) > 0 {
		p.Include = o.Include
	}
	// Extra excludes stack on top of the defaults instead of replacing
	// them.
	p.Exclude = append(p.Exclude, o.Exclude...)
}

func (i *IndexConfig) merge(o IndexConfig) {
	if o.Workers != 0 {
		i.Workers = o.Workers
	}
	if o.MaxFileSizeKB != 0 {
		i.MaxFileSizeKB = o.MaxFileSizeKB
	}
	if o.MaxFiles != 0 {
		i.MaxFiles = o.MaxFiles
	}
}

func (s *SearchConfig) merge(o SearchConfig) {
	if o.Tool != "" {
		s.Tool = o.Tool
	}
	if o.MaxResults != 0 {
		s.MaxResults = o.MaxResults
	}
	if o.TimeoutSeconds != 0 {
		s.TimeoutSeconds = o.TimeoutSeconds
	}
}

func (w *WatchConfig) merge(o WatchConfig) {
	// A bare enabled:false is indistinguishable from an absent section,
	// so Enabled only merges when the section is visibly present.
	// CODESCOPE_WATCH_ENABLED can always force it off.
	if o.QueueSize != 0 || o.Enabled {
		w.Enabled = o.Enabled
	}
	if o.QueueSize != 0 {
		w.QueueSize = o.QueueSize
	}
}

func (s *ServerConfig) merge(o ServerConfig) {
	if o.Transport != "" {
		s.Transport = o.Transport
	}
	if o.LogLevel != "" {
		s.LogLevel = o.LogLevel
	}
}

func (cc *CacheConfig) merge(o CacheConfig) {
	if o.Dir != "" || o.Enabled {
		cc.Enabled = o.Enabled
	}
	if o.Dir != "" {
		cc.Dir = o.Dir
	}
}

// applyEnvOverrides applies CODESCOPE_* variables, the highest
// precedence layer.
func (c *Config) applyEnvOverrides() {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	pos := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				*dst = n
			}
		}
	}
	flag := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			*dst = parseBool(v)
		}
	}

	str("CODESCOPE_SEARCH_TOOL", &c.Search.Tool)
	pos("CODESCOPE_MAX_RESULTS", &c.Search.MaxResults)
	pos("CODESCOPE_INDEX_WORKERS", &c.Index.Workers)
	flag("CODESCOPE_WATCH_ENABLED", &c.Watch.Enabled)
	flag("CODESCOPE_CACHE_ENABLED", &c.Cache.Enabled)
	str("CODESCOPE_CACHE_DIR", &c.Cache.Dir)
	str("CODESCOPE_LOG_LEVEL", &c.Server.LogLevel)
	str("CODESCOPE_TRANSPORT", &c.Server.Transport)
}

// parseBool accepts the usual truthy spellings.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true
	}
	return false
}

// Validate rejects configurations the rest of the system cannot run
// with.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Search.Tool) {
	case "", "auto", "ugrep", "rg", "ag", "grep":
	default:
		return fmt.Errorf("search.tool must be 'auto', 'ugrep', 'rg', 'ag', or 'grep', got %s", c.Search.Tool)
	}

	counters := []struct {
		name  string
		value int
	}{
		{"search.max_results", c.Search.MaxResults},
		{"search.timeout_seconds", c.Search.TimeoutSeconds},
		{"index.workers", c.Index.Workers},
		{"index.max_file_size_kb", c.Index.MaxFileSizeKB},
		{"index.max_files", c.Index.MaxFiles},
		{"watch.queue_size", c.Watch.QueueSize},
	}
	for _, f := range counters {
		if f.value < 0 {
			return fmt.Errorf("%s must be non-negative, got %d", f.name, f.value)
		}
	}

	// stdio is the only wire transport there is.
	if strings.ToLower(c.Server.Transport) != "stdio" {
		return fmt.Errorf("server.transport must be 'stdio', got %s", c.Server.Transport)
	}

	switch strings.ToLower(c.Server.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}

	return nil
}

// Build files take precedence over the looser Node markers, so a Maven
// project carrying a package.json for tooling still counts as Java.
var projectMarkers = []struct {
	typ   ProjectType
	files []string
}{
	{ProjectTypeJava, []string{"pom.xml", "build.gradle", "build.gradle.kts"}},
	{ProjectTypeTypeScript, []string{"tsconfig.json"}},
	{ProjectTypeNode, []string{"package.json"}},
}

// DetectProjectType inspects dir for well-known build files.
func DetectProjectType(dir string) ProjectType {
	for _, m := range projectMarkers {
		for _, f := range m.files {
			if fileExists(filepath.Join(dir, f)) {
				return m.typ
			}
		}
	}
	return ProjectTypeUnknown
}

// FindProjectRoot walks up from startDir until it sees a .git
// directory or a codescope config file. Without either marker the
// start directory itself is the root.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", startDir, err)
	}

	for dir := absDir; ; {
		if dirExists(filepath.Join(dir, ".git")) ||
			fileExists(filepath.Join(dir, ".codescope.yaml")) ||
			fileExists(filepath.Join(dir, ".codescope.yml")) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return absDir, nil
		}
		dir = parent
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
