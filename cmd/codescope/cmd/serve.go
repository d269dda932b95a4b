package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"codescope/internal/config"
	"codescope/internal/index"
	"codescope/internal/logging"
	"codescope/internal/mcp"
)

func newServeCmd() *cobra.Command {
	var (
		transport string
		project   string
		debug     bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the MCP server for AI assistant integration.

The server speaks JSON-RPC over stdio and exposes the code index as
MCP tools: find_files, search_code, analyse_file, and friends.

If a cached snapshot exists for the current project it is restored
on startup, so tools answer immediately. Otherwise the server starts
unbound and waits for the client to call set_project_path.

Stdout carries the MCP protocol exclusively; logs go to
~/.codescope/logs/server.log (view with 'codescope-logs').`,
		Example: `  # Start for the current project
  codescope serve

  # Start for a specific project
  codescope serve --project /path/to/project`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if debug {
				debugMode = true
			}

			root := project
			if root == "" {
				// Best effort: serve unbound when no project is found,
				// set_project_path binds one later.
				if found, err := config.FindProjectRoot("."); err == nil {
					root = found
				}
			}

			return runServe(ctx, transport, root)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport protocol (stdio)")
	cmd.Flags().StringVar(&project, "project", "", "Project root to serve (default: auto-detect)")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")

	return cmd
}

// runServe starts the MCP server. projectRoot may be empty, in which
// case the server starts without a bound project. Nothing may write to
// stdout here: the MCP client owns it from the first byte.
func runServe(ctx context.Context, transport, projectRoot string) error {
	cfg := loadServeConfig(projectRoot)

	level := cfg.Server.LogLevel
	if debugMode {
		level = "debug"
	}
	cleanup, err := logging.SetupMCPMode(level)
	if err != nil {
		// Degrade to no logging rather than refuse to serve.
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	} else {
		defer cleanup()
	}
	logger := slog.Default()

	if transport == "stdio" {
		if err := verifyStdinForMCP(); err != nil {
			return err
		}
	}

	indexer, err := index.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create indexer: %w", err)
	}

	server, err := mcp.NewServer(indexer, cfg, logger)
	if err != nil {
		_ = indexer.Shutdown(context.Background())
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer func() { _ = server.Close() }()

	// Warm start: restore the cached snapshot before the handshake so
	// the first tool call sees a populated index. A missing snapshot
	// just means an empty index, not a failure.
	if projectRoot != "" {
		restored, err := indexer.LoadCached(ctx, projectRoot)
		if err != nil {
			logger.Warn("cache_restore_failed",
				slog.String("root", projectRoot),
				slog.String("error", err.Error()))
		} else {
			logger.Info("serve_warm_start",
				slog.String("root", projectRoot),
				slog.Int("files", restored))
		}
	}

	// A canceled context is the normal signal-driven stop, not a failure.
	if err := server.Serve(ctx, transport); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// loadServeConfig loads configuration for the serve path. projectRoot
// may be empty; the defaults work without one.
func loadServeConfig(projectRoot string) *config.Config {
	dir := projectRoot
	if dir == "" {
		dir, _ = os.Getwd()
	}
	cfg, err := config.Load(dir)
	if err != nil {
		cfg = config.NewConfig()
	}
	return cfg
}

// verifyStdinForMCP checks that stdin looks like an MCP client pipe.
// Running 'codescope serve' interactively in a terminal hangs waiting
// for JSON-RPC that never comes, so fail fast with a hint instead.
func verifyStdinForMCP() error {
	fd := os.Stdin.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return fmt.Errorf("stdin is a terminal, not a pipe\n\n" +
			"The MCP server expects a client (Claude Code, Cursor) on stdin.\n" +
			"To test by hand, pipe JSON-RPC in:\n" +
			"  echo '{\"jsonrpc\":\"2.0\",...}' | codescope serve")
	}
	return nil
}
