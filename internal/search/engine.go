package search

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"codescope/internal/errors"
)

// probeTimeout bounds each --version probe at construction.
const probeTimeout = 2 * time.Second

// Searcher runs pattern searches through the best available external
// tool, selected once at construction.
type Searcher struct {
	active    tool
	available []string
	log       *slog.Logger
}

// NewSearcher probes for the candidate tools in preference order and
// activates the first one found. When nothing probes successfully it
// still falls back to grep rather than failing construction.
func NewSearcher(log *slog.Logger) *Searcher {
	if log == nil {
		log = slog.Default()
	}

	s := &Searcher{
		available: []string{},
		log:       log,
	}
	for _, t := range toolOrder {
		if probeTool(t.name()) {
			s.available = append(s.available, t.name())
			if s.active == nil {
				s.active = t
			}
		}
	}
	if s.active == nil {
		s.active = grepTool{}
	}

	log.Debug("search tool selected",
		slog.String("tool", s.active.name()),
		slog.Any("available", s.available))
	return s
}

// NewSearcherWithTool pins the searcher to the named tool when it
// probes successfully. An empty name, "auto", an unknown name, or a
// failed probe falls back to the usual preference order.
func NewSearcherWithTool(name string, log *slog.Logger) *Searcher {
	s := NewSearcher(log)
	if name == "" || name == "auto" {
		return s
	}
	for _, t := range toolOrder {
		if t.name() != name {
			continue
		}
		if probeTool(name) {
			s.active = t
		} else {
			s.log.Warn("configured search tool unavailable, keeping probed tool",
				slog.String("configured", name),
				slog.String("active", s.active.name()))
		}
		return s
	}
	s.log.Warn("unknown search tool configured, keeping probed tool",
		slog.String("configured", name),
		slog.String("active", s.active.name()))
	return s
}

// probeTool checks that a tool exists and answers --version.
func probeTool(name string) bool {
	if _, err := exec.LookPath(name); err != nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	return exec.CommandContext(ctx, name, "--version").Run() == nil
}

// PreferredTool returns the name of the active tool.
func (s *Searcher) PreferredTool() string {
	return s.active.name()
}

// AvailableTools returns the names of all tools that probed
// successfully, in preference order.
func (s *Searcher) AvailableTools() []string {
	out := make([]string, len(s.available))
	copy(out, s.available)
	return out
}

// Search runs one query under basePath and returns normalized
// matches. A tool exit code of 1 means no matches and yields an empty
// result set; any other non-zero exit becomes a SearchFailed error
// carrying the tool's stderr.
func (s *Searcher) Search(ctx context.Context, basePath string, q *Query) ([]Result, error) {
	args := s.active.buildArgs(q, basePath)

	cmd := exec.CommandContext(ctx, s.active.name(), args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
			return []Result{}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.SearchFailed("search cancelled", ctxErr)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = "search command failed"
		}
		s.log.Warn("search command failed",
			slog.String("tool", s.active.name()),
			slog.String("error", err.Error()))
		return nil, errors.SearchFailed(msg, err)
	}

	return parseOutput(stdout.String()), nil
}

// parseOutput splits tool output lines on the first two colons into
// (file, line, content). Lines that do not fit the shape, such as
// context lines and group separators, are dropped.
func parseOutput(output string) []Result {
	results := []Result{}
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		parts := strings.SplitN(line, ":", 3)
		if len(parts) < 3 {
			continue
		}
		lineNumber, err := strconv.Atoi(parts[1])
		if err != nil {
			continue
		}
		results = append(results, Result{
			File:          parts[0],
			LineNumber:    lineNumber,
			LineContent:   parts[2],
			ContextBefore: []string{},
			ContextAfter:  []string{},
		})
	}
	return results
}
