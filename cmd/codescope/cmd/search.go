package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"codescope/internal/config"
	"codescope/internal/logging"
	"codescope/internal/search"
	"codescope/internal/ui"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	ignoreCase  bool
	regex       bool
	fuzzy       bool
	context     int
	filePattern string
	maxResults  int
	jsonOutput  bool
	inFile      string
	tool        string
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <pattern>",
		Short: "Search project sources for a pattern",
		Long: `Search project sources for a text pattern.

Shells out to the fastest installed search tool (ugrep, ripgrep, ag,
or grep) and prints file:line matches. Works without an index; the
project root is auto-detected from the current directory.

Use --in-file to scan a single file in-process instead.`,
		Example: `  codescope search "TODO"
  codescope search "class \w+Controller" --regex
  codescope search "handleRequest" --file-pattern "*.ts" --context 2
  codescope search "import" --in-file src/main/App.java
  codescope search "config" --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, pattern, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.ignoreCase, "ignore-case", "i", false, "Case-insensitive matching")
	cmd.Flags().BoolVar(&opts.regex, "regex", false, "Treat pattern as a regular expression")
	cmd.Flags().BoolVar(&opts.fuzzy, "fuzzy", false, "Approximate matching (ugrep only)")
	cmd.Flags().IntVarP(&opts.context, "context", "C", 0, "Lines of context around each match")
	cmd.Flags().StringVarP(&opts.filePattern, "file-pattern", "g", "", "Restrict to files matching a glob (e.g. \"*.java\")")
	cmd.Flags().IntVarP(&opts.maxResults, "max-results", "n", 0, "Maximum results (default: config limit)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&opts.inFile, "in-file", "", "Search a single file instead of the project")
	cmd.Flags().StringVar(&opts.tool, "tool", "", "Force a search tool: ugrep, rg, ag, or grep")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, pattern string, opts searchOptions) error {
	// File-only logging so slog does not interleave with results.
	logCfg := logging.DefaultConfig()
	logCfg.WriteToStderr = false
	if logger, cleanup, err := logging.Setup(logCfg); err == nil {
		slog.SetDefault(logger)
		defer cleanup()
	}

	slog.Info("search_cli_started",
		slog.String("pattern", pattern),
		slog.Bool("in_file", opts.inFile != ""))

	if opts.inFile != "" {
		return runSearchInFile(cmd, pattern, opts)
	}

	out := ui.NewWriter(cmd.OutOrStdout())

	// Find project root
	root, err := config.FindProjectRoot(".")
	if err != nil {
		root, _ = os.Getwd()
	}

	cfg, err := config.Load(root)
	if err != nil {
		cfg = config.NewConfig()
	}

	tool := opts.tool
	if tool == "" {
		tool = cfg.Search.Tool
	}
	searcher := search.NewSearcherWithTool(tool, slog.Default())
	if len(searcher.AvailableTools()) == 0 {
		return fmt.Errorf("no search tool available (install ugrep, ripgrep, ag, or grep)")
	}

	q := &search.Query{
		Pattern:       pattern,
		CaseSensitive: !opts.ignoreCase,
		ContextLines:  opts.context,
		FilePattern:   opts.filePattern,
		Fuzzy:         opts.fuzzy,
		Regex:         opts.regex,
	}

	results, err := searcher.Search(ctx, root, q)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	max := opts.maxResults
	if max <= 0 {
		max = cfg.Search.MaxResults
	}
	if max > 0 && len(results) > max {
		results = results[:max]
	}

	slog.Info("search_cli_complete",
		slog.String("tool", searcher.PreferredTool()),
		slog.Int("results", len(results)))

	if opts.jsonOutput {
		return printSearchJSON(cmd, results, searcher.PreferredTool())
	}
	return printSearchText(out, pattern, results, searcher.PreferredTool())
}

// runSearchInFile scans one file in-process, no external tool.
func runSearchInFile(cmd *cobra.Command, pattern string, opts searchOptions) error {
	out := ui.NewWriter(cmd.OutOrStdout())

	src, err := os.ReadFile(opts.inFile)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", opts.inFile, err)
	}

	matches, err := search.SearchInFile(src, pattern, !opts.ignoreCase, opts.regex)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(matches)
	}

	if len(matches) == 0 {
		out.Status("", fmt.Sprintf("No matches for %q in %s", pattern, opts.inFile))
		return nil
	}

	out.Statusf("🔍", "Found %d matches for %q in %s:", len(matches), pattern, opts.inFile)
	out.Newline()
	for _, m := range matches {
		out.Statusf("", "%6d: %s", m.LineNumber, strings.TrimRight(m.LineContent, "\n"))
	}
	return nil
}

// printSearchText outputs results in human-readable format.
func printSearchText(out *ui.Writer, pattern string, results []search.Result, tool string) error {
	if len(results) == 0 {
		out.Status("", fmt.Sprintf("No results found for %q", pattern))
		return nil
	}

	out.Statusf("🔍", "Found %d results for %q (%s):", len(results), pattern, tool)
	out.Newline()

	for _, r := range results {
		out.Statusf("", "%s:%d", r.File, r.LineNumber)
		out.Status("", "   "+strings.TrimSpace(r.LineContent))
	}
	return nil
}

// printSearchJSON outputs results in JSON format.
func printSearchJSON(cmd *cobra.Command, results []search.Result, tool string) error {
	payload := struct {
		Results      []search.Result `json:"results"`
		TotalMatches int             `json:"total_matches"`
		ToolUsed     string          `json:"tool_used"`
	}{
		Results:      results,
		TotalMatches: len(results),
		ToolUsed:     tool,
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
