// Package ui renders index build progress, as a live TUI on interactive
// terminals and as plain lines everywhere else.
package ui

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
)

// Stage represents an index build stage.
type Stage int

const (
	StageScanning Stage = iota
	StageParsing
	StageSaving
	StageComplete
)

var stageMeta = [...]struct{ name, icon string }{
	StageScanning: {"Scanning", "SCAN"},
	StageParsing:  {"Parsing", "PARSE"},
	StageSaving:   {"Saving", "SAVE"},
	StageComplete: {"Complete", "DONE"},
}

// String returns the stage's display name.
func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageMeta) {
		return "Unknown"
	}
	return stageMeta[s].name
}

// Icon returns the short stage tag for plain text output.
func (s Stage) Icon() string {
	if s < 0 || int(s) >= len(stageMeta) {
		return "???"
	}
	return stageMeta[s].icon
}

// ProgressEvent represents a progress update. Total is zero while the
// walk is still discovering files, so renderers must cope with an
// unknown denominator.
type ProgressEvent struct {
	Stage       Stage
	Current     int
	Total       int
	CurrentFile string
	Message     string
}

// ErrorEvent represents a per-file problem during indexing.
type ErrorEvent struct {
	File   string
	Err    error
	IsWarn bool
}

// CompletionStats contains final build statistics.
type CompletionStats struct {
	Files    int
	Symbols  int
	Duration time.Duration
	Errors   int
	Warnings int
}

// Renderer is the progress display the index command drives. The TUI
// and plain implementations are interchangeable behind it.
type Renderer interface {
	Start(ctx context.Context) error
	UpdateProgress(event ProgressEvent)
	AddError(event ErrorEvent)
	Complete(stats CompletionStats)
	Stop() error
}

// Config carries renderer construction options.
type Config struct {
	Output     io.Writer
	ForcePlain bool
	NoColor    bool
	ProjectDir string // shown in the TUI header
}

// ConfigOption adjusts a Config.
type ConfigOption func(*Config)

// WithForcePlain selects line-oriented output regardless of terminal.
func WithForcePlain(force bool) ConfigOption { return func(c *Config) { c.ForcePlain = force } }

// WithNoColor strips color from the display.
func WithNoColor(noColor bool) ConfigOption { return func(c *Config) { c.NoColor = noColor } }

// WithProjectDir sets the project directory shown in the TUI header.
func WithProjectDir(dir string) ConfigOption { return func(c *Config) { c.ProjectDir = dir } }

// NewConfig creates a Config writing to output.
func NewConfig(output io.Writer, opts ...ConfigOption) Config {
	cfg := Config{Output: output}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// NewRenderer picks the renderer for the environment: the TUI for an
// interactive terminal, plain text for CI, pipes, --no-tui, or when
// the TUI fails to initialize.
func NewRenderer(cfg Config) Renderer {
	if cfg.ForcePlain || !IsTTY(cfg.Output) || DetectCI() {
		return NewPlainRenderer(cfg)
	}
	if tui, err := NewTUIRenderer(cfg); err == nil {
		return tui
	}
	return NewPlainRenderer(cfg)
}

// IsTTY reports whether w is an interactive terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// DetectNoColor checks if the NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, set := os.LookupEnv("NO_COLOR")
	return set
}

// DetectCI checks if running under a CI system.
func DetectCI() bool {
	for _, name := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"} {
		if _, set := os.LookupEnv(name); set {
			return true
		}
	}
	return false
}
