package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"codescope/internal/config"
	"codescope/internal/search"
	"codescope/internal/store"
	"codescope/internal/ui"
)

func newStatsCmd() *cobra.Command {
	var jsonOutput bool
	var noColor bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics for the current project",
		Long: `Show index statistics for the current project: file, line, and
symbol totals, per-language and per-kind breakdowns, snapshot
location and size, and which external search tools are installed.`,
		Example: `  codescope stats
  codescope stats --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStats(cmd, jsonOutput, noColor)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	return cmd
}

func runStats(cmd *cobra.Command, jsonOutput, noColor bool) error {
	ix, snap, root, err := openSnapshot(cmd.Context(), ".")
	if err != nil {
		return err
	}

	files, lines, languages, kinds := ix.Stats()
	symbols := 0
	for _, n := range kinds {
		symbols += n
	}

	info := ui.IndexInfo{
		ProjectName:  filepath.Base(root),
		ProjectRoot:  root,
		TotalFiles:   files,
		TotalLines:   lines,
		TotalSymbols: symbols,
		LastIndexed:  snap.BuiltAt,
		Languages:    languages,
		SymbolKinds:  kinds,
	}

	cfg, err := config.Load(root)
	if err != nil {
		cfg = config.NewConfig()
	}
	snapPath := store.SnapshotPath(cfg.Cache.Dir, root)
	if st, err := os.Stat(snapPath); err == nil {
		info.SnapshotPath = snapPath
		info.SnapshotSize = st.Size()
	}

	searcher := search.NewSearcher(quietLogger())
	info.PreferredTool = searcher.PreferredTool()
	info.AvailableTools = searcher.AvailableTools()

	renderer := ui.NewStatsRenderer(cmd.OutOrStdout(), noColor || ui.DetectNoColor())
	if jsonOutput {
		return renderer.RenderJSON(info)
	}
	return renderer.Render(info)
}
