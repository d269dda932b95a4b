// Package cmd provides the CLI commands for codescope.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"codescope/internal/config"
	"codescope/internal/logging"
	"codescope/internal/preflight"
	"codescope/internal/profiling"
	"codescope/internal/store"
	"codescope/pkg/version"
)

// Profiling flags
var (
	profileCPU   string
	profileMem   string
	profileTrace string
	profSession  *profiling.Session
)

// Debug logging flag
var (
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the codescope CLI.
func NewRootCmd() *cobra.Command {
	var reindex bool
	var skipCheck bool

	cmd := &cobra.Command{
		Use:   "codescope",
		Short: "Code structure MCP server for Java and TypeScript projects",
		Long: `Codescope parses Java, TypeScript, and JavaScript sources into a
symbol index and serves it to AI coding assistants over MCP.

It answers structural questions - which files exist, what a file
declares, who calls a function - without shipping source code to
any remote service.

Just run 'codescope' in your project directory to get started.`,
		Version: version.Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			// If help was explicitly requested, show it
			if len(args) > 0 {
				return cmd.Help()
			}
			return runSmartDefault(cmd.Context(), reindex, skipCheck)
		},
	}

	cmd.SetVersionTemplate("codescope version {{.Version}}\n")

	// Root flags
	cmd.Flags().BoolVar(&reindex, "reindex", false, "Force reindex even if a snapshot exists")
	cmd.Flags().BoolVar(&skipCheck, "skip-check", false, "Skip pre-flight system checks")

	// Profiling flags
	cmd.PersistentFlags().StringVar(&profileCPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileMem, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profileTrace, "profile-trace", "", "Write execution trace to file")

	// Debug logging flag
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.codescope/logs/")

	// Setup profiling and logging hooks
	cmd.PersistentPreRunE = startProfilingAndLogging
	cmd.PersistentPostRunE = stopProfilingAndLogging

	// Add subcommands
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newFilesCmd())
	cmd.AddCommand(newAnalyseCmd())
	cmd.AddCommand(newStructureCmd())
	cmd.AddCommand(newCallsCmd())
	cmd.AddCommand(newUsagesCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startProfilingAndLogging starts profiling and debug logging if flags are set.
func startProfilingAndLogging(_ *cobra.Command, _ []string) error {
	// Start debug logging if enabled
	if debugMode {
		logger, cleanup, err := logging.Setup(logging.DebugConfig())
		if err != nil {
			return fmt.Errorf("failed to setup debug logging: %w", err)
		}
		loggingCleanup = cleanup
		slog.SetDefault(logger)
		slog.Info("Debug logging enabled",
			slog.String("log_file", logging.DefaultLogPath()),
			slog.String("version", version.Version))
	}

	session := profiling.NewSession(profileCPU, profileMem, profileTrace)
	if session.Active() {
		if err := session.Start(); err != nil {
			return err
		}
		profSession = session
	}

	return nil
}

// stopProfilingAndLogging stops profiling and logging; the heap
// profile, if requested, is written on the way out.
func stopProfilingAndLogging(_ *cobra.Command, _ []string) error {
	var err error
	if profSession != nil {
		err = profSession.Stop()
		profSession = nil
	}

	// Stop debug logging
	if loggingCleanup != nil {
		slog.Info("Debug logging stopped")
		loggingCleanup()
		loggingCleanup = nil
	}

	return err
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// runSmartDefault implements the "It Just Works" flow: check the
// system, build the index if the project has none, then serve MCP on
// stdio. The MCP protocol requires stdout to carry JSON-RPC messages
// exclusively, so nothing here prints; all status goes to the log
// file. Use 'codescope doctor' or 'codescope stats' for diagnostics.
func runSmartDefault(ctx context.Context, reindex, skipCheck bool) error {
	// Find project root
	root, err := config.FindProjectRoot(".")
	if err != nil {
		root, _ = os.Getwd()
	}

	cfg, err := config.Load(root)
	if err != nil {
		cfg = config.NewConfig()
	}
	cacheDir := cfg.Cache.Dir

	// Run preflight checks silently (results logged to file)
	if !skipCheck && preflight.NeedsCheck(cacheDir) {
		checker := preflight.New(
			preflight.WithOutput(io.Discard), // Suppress output for MCP mode
		)
		results := checker.RunAll(ctx, cacheDir)

		if checker.HasCriticalFailures(results) {
			// Log to file instead of stdout
			slog.Error("System check failed - run 'codescope doctor' for diagnostics")
			return fmt.Errorf("system check failed")
		}

		// Mark as passed for future runs
		if err := preflight.MarkPassed(cacheDir); err != nil {
			slog.Debug("Failed to mark preflight as passed", slog.String("error", err.Error()))
		}
	}

	// Check if a snapshot exists for this project
	snapshotPath := store.SnapshotPath(cacheDir, root)
	needsIndex := reindex || !fileExists(snapshotPath)

	if needsIndex {
		slog.Info("Snapshot not found, building index", slog.String("root", root))

		// Build silently; serve restores the snapshot afterwards
		if err := buildIndexQuiet(ctx, root, cfg); err != nil {
			slog.Error("Indexing failed", slog.String("error", err.Error()))
			return fmt.Errorf("indexing failed: %w", err)
		}
		slog.Info("Index complete")
	} else {
		slog.Debug("Snapshot found", slog.String("path", snapshotPath))
	}

	// Start MCP server directly - NO stdout output before this point
	return runServe(ctx, "stdio", root)
}

// fileExists checks if a file exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
