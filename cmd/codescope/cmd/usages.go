package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"codescope/internal/parser"
	"codescope/internal/ui"
)

func newUsagesCmd() *cobra.Command {
	var jsonOutput bool
	var kind string

	cmd := &cobra.Command{
		Use:   "usages <name>",
		Short: "Find symbols by name",
		Long: `Find indexed symbols whose name contains the query,
case-insensitively. Filter by kind to narrow the matches.`,
		Example: `  codescope usages OrderService
  codescope usages submit --kind method
  codescope usages Button --kind class --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUsages(cmd, args[0], kind, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Filter by kind: class, interface, method, function")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runUsages(cmd *cobra.Command, name, kind string, jsonOutput bool) error {
	ix, _, _, err := openSnapshot(cmd.Context(), ".")
	if err != nil {
		return err
	}

	matches := ix.FindSymbols(name, kind)

	if jsonOutput {
		payload := struct {
			SymbolName   string           `json:"symbol_name"`
			Matches      []*parser.Symbol `json:"matches"`
			TotalMatches int              `json:"total_matches"`
		}{name, matches, len(matches)}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	}

	out := ui.NewWriter(cmd.OutOrStdout())
	if len(matches) == 0 {
		out.Statusf("", "No symbols match %q", name)
		return nil
	}

	out.Statusf("", "Found %d symbols matching %q:", len(matches), name)
	for _, m := range matches {
		line := fmt.Sprintf("  %-9s %s:%d  %s", m.Kind, m.File, m.Line, m.Name)
		if m.Signature != "" {
			line += "  " + m.Signature
		}
		out.Status("", line)
	}
	return nil
}
