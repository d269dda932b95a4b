package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"codescope/internal/config"
	"codescope/internal/index"
	"codescope/internal/logging"
	"codescope/internal/ui"
)

func newIndexCmd() *cobra.Command {
	var noTUI bool

	cmd := &cobra.Command{
		Use:   "index [path]",
		Short: "Build the code index for a project",
		Long: `Build the code index for a project directory.

This walks the tree, parses every Java, TypeScript, and JavaScript
source into symbols, and saves a snapshot to the cache so later runs
start warm.

The MCP server rebuilds automatically on set_project_path; this
command exists for warming the cache ahead of time and for scripting.`,
		Example: `  # Index the current project
  codescope index

  # Index a specific directory, plain output
  codescope index /path/to/project --no-tui`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			return runIndex(ctx, cmd, path, noTUI)
		},
	}

	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "Disable TUI mode, use plain text output")

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, path string, noTUI bool) error {
	// File-only logging keeps slog output out of the progress display.
	logCfg := logging.DefaultConfig()
	logCfg.WriteToStderr = false
	if logger, cleanup, err := logging.Setup(logCfg); err == nil {
		slog.SetDefault(logger)
		defer cleanup()
	}
	// Continue even if logging setup fails - not critical for CLI

	// Validate path exists first (needed for renderer header)
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("failed to access path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", absPath)
	}

	// Find project root (may differ from path if path is a subdirectory)
	root, err := config.FindProjectRoot(absPath)
	if err != nil {
		root = absPath
	}

	// Create renderer (auto-detects TTY/CI, respects --no-tui flag)
	uiCfg := ui.NewConfig(cmd.OutOrStdout(), ui.WithForcePlain(noTUI), ui.WithProjectDir(root))
	renderer := ui.NewRenderer(uiCfg)
	if err := renderer.Start(ctx); err != nil {
		slog.Warn("failed to start progress renderer", slog.String("error", err.Error()))
	}
	defer func() { _ = renderer.Stop() }()

	cfg, err := config.Load(root)
	if err != nil {
		cfg = config.NewConfig()
	}
	// One-shot build: the process exits right after the snapshot is
	// saved, so starting the watcher would be pointless churn.
	cfg.Watch.Enabled = false

	indexer, err := index.New(cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create indexer: %w", err)
	}
	defer func() { _ = indexer.Shutdown(context.Background()) }()

	renderer.UpdateProgress(ui.ProgressEvent{
		Stage:   ui.StageScanning,
		Message: "Scanning " + root,
	})

	indexer.SetProgressFunc(func(parsed int, file string) {
		renderer.UpdateProgress(ui.ProgressEvent{
			Stage:       ui.StageParsing,
			Current:     parsed,
			CurrentFile: file,
		})
	})

	start := time.Now()
	result, err := indexer.SetProjectPath(ctx, root)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	renderer.UpdateProgress(ui.ProgressEvent{
		Stage:   ui.StageSaving,
		Message: "Saving snapshot",
	})

	stats := indexer.GetStatistics()
	symbols := 0
	for _, n := range stats.Symbols {
		symbols += n
	}

	renderer.Complete(ui.CompletionStats{
		Files:    result.FileCount,
		Symbols:  symbols,
		Duration: time.Since(start),
	})

	slog.Info("index_cli_complete",
		slog.String("root", root),
		slog.Int("files", result.FileCount),
		slog.Int("symbols", symbols),
		slog.Int64("build_time_ms", result.BuildTimeMS))

	return nil
}

// buildIndexQuiet builds and saves the index with no renderer at all,
// for the smart default path where stdout already belongs to MCP.
func buildIndexQuiet(ctx context.Context, root string, cfg *config.Config) error {
	quiet := *cfg
	quiet.Watch.Enabled = false

	indexer, err := index.New(&quiet, slog.Default())
	if err != nil {
		return err
	}
	defer func() { _ = indexer.Shutdown(context.Background()) }()

	_, err = indexer.SetProjectPath(ctx, root)
	return err
}
