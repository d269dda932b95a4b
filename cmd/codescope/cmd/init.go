package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"codescope/configs"
	"codescope/internal/config"
	"codescope/internal/ui"
)

// MCPServerConfig is one server entry in .mcp.json.
type MCPServerConfig struct {
	Type    string            `json:"type,omitempty"`
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Cwd     string            `json:"cwd,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// MCPConfig is the root .mcp.json structure.
type MCPConfig struct {
	MCPServers map[string]MCPServerConfig `json:"mcpServers"`
}

func newInitCmd() *cobra.Command {
	var (
		force      bool
		configOnly bool
		noTUI      bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Set up codescope for a project",
		Long: `Set up codescope for the current project.

This command:
1. Generates a .codescope.yaml configuration template
2. Registers the MCP server in .mcp.json for stdio clients
3. Builds the index so the server starts warm (unless --config-only)

After running, restart your MCP client to activate the server.`,
		Example: `  # Initialize the current project
  codescope init

  # Overwrite existing configuration
  codescope init --force

  # Write config files only, skip the index build
  codescope init --config-only`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runInit(ctx, cmd, force, configOnly, noTUI)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")
	cmd.Flags().BoolVar(&configOnly, "config-only", false, "Write config files only, skip indexing")
	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "Disable TUI mode, use plain text output")

	return cmd
}

func runInit(ctx context.Context, cmd *cobra.Command, force, configOnly, noTUI bool) error {
	out := ui.NewWriter(cmd.OutOrStdout())

	root, err := config.FindProjectRoot(".")
	if err != nil {
		root, _ = os.Getwd()
	}

	out.Statusf("🔧", "Initializing codescope in %s", root)
	if pt := config.DetectProjectType(root); pt.IsKnown() {
		out.Statusf("ℹ️ ", "Detected %s project", pt)
	}

	if err := writeProjectConfig(out, root, force); err != nil {
		return err
	}
	if err := writeMCPConfig(out, root, force); err != nil {
		return err
	}

	if configOnly {
		out.Newline()
		out.Success("Configuration complete (indexing skipped)")
		return nil
	}

	out.Newline()
	if err := runIndex(ctx, cmd, root, noTUI); err != nil {
		return err
	}

	out.Newline()
	out.Success("Project initialized. Restart your MCP client to pick up the server.")
	return nil
}

// writeProjectConfig drops the embedded template as .codescope.yaml.
// An existing file is preserved unless --force; user customizations
// are not worth losing over a re-init.
func writeProjectConfig(out *ui.Writer, projectRoot string, force bool) error {
	yamlPath := filepath.Join(projectRoot, ".codescope.yaml")
	ymlPath := filepath.Join(projectRoot, ".codescope.yml")

	if !force {
		if fileExists(yamlPath) {
			out.Status("ℹ️ ", "Existing .codescope.yaml preserved")
			return nil
		}
		if fileExists(ymlPath) {
			out.Status("ℹ️ ", "Existing .codescope.yml found, skipping template")
			return nil
		}
	}

	if err := os.WriteFile(yamlPath, []byte(configs.ProjectConfigTemplate), 0o644); err != nil {
		return fmt.Errorf("failed to write .codescope.yaml: %w", err)
	}

	out.Statusf("📝", "Created .codescope.yaml (optional project configuration)")
	return nil
}

// writeMCPConfig creates or updates .mcp.json with the codescope
// server entry. Other servers in an existing file are left alone.
func writeMCPConfig(out *ui.Writer, projectRoot string, force bool) error {
	mcpPath := filepath.Join(projectRoot, ".mcp.json")

	var cfg MCPConfig
	if data, err := os.ReadFile(mcpPath); err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("failed to parse existing .mcp.json: %w", err)
		}
		if _, exists := cfg.MCPServers["codescope"]; exists && !force {
			out.Status("ℹ️ ", "codescope already configured in .mcp.json")
			return nil
		}
	}
	if cfg.MCPServers == nil {
		cfg.MCPServers = make(map[string]MCPServerConfig)
	}

	binPath, err := findCodescopeBinary()
	if err != nil {
		return fmt.Errorf("failed to find codescope binary: %w", err)
	}

	cfg.MCPServers["codescope"] = MCPServerConfig{
		Type:    "stdio",
		Command: binPath,
		Args:    []string{"serve"},
		Cwd:     projectRoot,
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal .mcp.json: %w", err)
	}
	if err := os.WriteFile(mcpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write .mcp.json: %w", err)
	}

	out.Statusf("📝", "Created %s", mcpPath)
	return nil
}

// findCodescopeBinary locates the running binary for the .mcp.json
// command field, resolving symlinks so the entry survives upgrades
// that repoint them.
func findCodescopeBinary() (string, error) {
	execPath, err := os.Executable()
	if err == nil {
		if realPath, err := filepath.EvalSymlinks(execPath); err == nil {
			return realPath, nil
		}
		return execPath, nil
	}

	path, err := exec.LookPath("codescope")
	if err != nil {
		return "", fmt.Errorf("codescope not found in PATH: %w", err)
	}
	return path, nil
}
