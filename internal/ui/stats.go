package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"
)

// IndexInfo contains index health information for one project.
type IndexInfo struct {
	ProjectName  string    `json:"project_name"`
	ProjectRoot  string    `json:"project_root"`
	TotalFiles   int       `json:"total_files"`
	TotalLines   int       `json:"total_lines"`
	TotalSymbols int       `json:"total_symbols"`
	LastIndexed  time.Time `json:"last_indexed"`

	// Breakdown by language and symbol kind.
	Languages   map[string]int `json:"languages"`
	SymbolKinds map[string]int `json:"symbol_kinds"`

	// Snapshot on disk.
	SnapshotPath string `json:"snapshot_path,omitempty"`
	SnapshotSize int64  `json:"snapshot_size,omitempty"`

	// External search tooling.
	PreferredTool  string   `json:"preferred_tool,omitempty"`
	AvailableTools []string `json:"available_tools,omitempty"`
}

// StatsRenderer displays index statistics.
type StatsRenderer struct {
	out    io.Writer
	styles Styles
}

// NewStatsRenderer creates a stats renderer.
func NewStatsRenderer(out io.Writer, noColor bool) *StatsRenderer {
	return &StatsRenderer{
		out:    out,
		styles: GetStyles(noColor),
	}
}

// Render displays index info to terminal.
func (r *StatsRenderer) Render(info IndexInfo) error {
	_, _ = fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render("Index: "+info.ProjectName))

	_, _ = fmt.Fprintf(r.out, "  Root:         %s\n", info.ProjectRoot)
	_, _ = fmt.Fprintf(r.out, "  Files:        %d\n", info.TotalFiles)
	_, _ = fmt.Fprintf(r.out, "  Lines:        %d\n", info.TotalLines)
	_, _ = fmt.Fprintf(r.out, "  Symbols:      %d\n", info.TotalSymbols)
	if !info.LastIndexed.IsZero() {
		_, _ = fmt.Fprintf(r.out, "  Last indexed: %s\n", formatTime(info.LastIndexed))
	}
	_, _ = fmt.Fprintln(r.out)

	if len(info.Languages) > 0 {
		_, _ = fmt.Fprintln(r.out, "  Languages:")
		for _, lc := range sortedCounts(info.Languages) {
			_, _ = fmt.Fprintf(r.out, "    %-12s %d\n", lc.name, lc.count)
		}
		_, _ = fmt.Fprintln(r.out)
	}

	if len(info.SymbolKinds) > 0 {
		_, _ = fmt.Fprintln(r.out, "  Symbols by kind:")
		for _, kc := range sortedCounts(info.SymbolKinds) {
			_, _ = fmt.Fprintf(r.out, "    %-12s %d\n", kc.name, kc.count)
		}
		_, _ = fmt.Fprintln(r.out)
	}

	if info.SnapshotPath != "" {
		_, _ = fmt.Fprintln(r.out, "  Snapshot:")
		_, _ = fmt.Fprintf(r.out, "    Path: %s\n", info.SnapshotPath)
		_, _ = fmt.Fprintf(r.out, "    Size: %s\n", FormatBytes(info.SnapshotSize))
		_, _ = fmt.Fprintln(r.out)
	}

	if info.PreferredTool != "" {
		_, _ = fmt.Fprintln(r.out, "  Search tools:")
		_, _ = fmt.Fprintf(r.out, "    Preferred: %s\n", r.styles.Success.Render(info.PreferredTool))
		if len(info.AvailableTools) > 0 {
			_, _ = fmt.Fprintf(r.out, "    Available: %v\n", info.AvailableTools)
		}
	}

	return nil
}

// RenderJSON outputs index info as JSON.
func (r *StatsRenderer) RenderJSON(info IndexInfo) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

type namedCount struct {
	name  string
	count int
}

// sortedCounts orders a breakdown map by count descending, name
// ascending, for stable display.
func sortedCounts(m map[string]int) []namedCount {
	out := make([]namedCount, 0, len(m))
	for name, count := range m {
		out = append(out, namedCount{name, count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].name < out[j].name
	})
	return out
}

// formatTime formats a time for display.
func formatTime(t time.Time) string {
	now := time.Now()
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02 15:04")
	}
}

// FormatBytes formats bytes to human-readable format.
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
