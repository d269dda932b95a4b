package cmd

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"codescope/internal/parser"
	"codescope/internal/ui"
)

func newAnalyseCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "analyse <file>",
		Aliases: []string{"analyze"},
		Short:   "Show the symbols and imports of an indexed file",
		Long: `Show what one indexed file declares: its language, line count,
classes, functions, imports, and per-symbol detail with call sites.

The path is relative to the project root, as printed by
'codescope files'.`,
		Example: `  codescope analyse src/main/java/shop/OrderService.java
  codescope analyse src/ui/Button.tsx --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyse(cmd, args[0], jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runAnalyse(cmd *cobra.Command, path string, jsonOutput bool) error {
	ix, _, _, err := openSnapshot(cmd.Context(), ".")
	if err != nil {
		return err
	}

	rel := strings.TrimPrefix(path, "./")
	rec, symbols, ok := ix.Analyse(rel)
	if !ok {
		return fmt.Errorf("file not in index: %s\nRun 'codescope files' to list indexed paths", rel)
	}

	if jsonOutput {
		payload := struct {
			FilePath string                    `json:"file_path"`
			Record   *parser.FileRecord        `json:"record"`
			Symbols  map[string]*parser.Symbol `json:"symbols"`
		}{rel, rec, symbols}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	}

	out := ui.NewWriter(cmd.OutOrStdout())
	out.Statusf("", "%s  (%s, %d lines)", rel, rec.Language, rec.LineCount)
	if rec.Package != "" {
		out.Statusf("", "package %s", rec.Package)
	}
	out.Newline()

	if len(rec.Imports) > 0 {
		out.Statusf("", "Imports (%d):", len(rec.Imports))
		for _, imp := range rec.Imports {
			out.Status("", "  "+imp)
		}
		out.Newline()
	}

	if len(symbols) > 0 {
		out.Statusf("", "Symbols (%d):", len(symbols))
		for _, sym := range sortSymbolsByLine(symbols) {
			line := fmt.Sprintf("  %-9s %s:%d  %s", sym.Kind, rel, sym.Line, sym.Name)
			if len(sym.CalledBy) > 0 {
				line += fmt.Sprintf("  (called by %d)", len(sym.CalledBy))
			}
			out.Status("", line)
		}
	} else {
		out.Status("", "No symbols declared")
	}

	return nil
}

// sortSymbolsByLine flattens a symbol map into declaration order.
func sortSymbolsByLine(symbols map[string]*parser.Symbol) []*parser.Symbol {
	sorted := make([]*parser.Symbol, 0, len(symbols))
	for _, sym := range symbols {
		sorted = append(sorted, sym)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Line != sorted[j].Line {
			return sorted[i].Line < sorted[j].Line
		}
		return sorted[i].Name < sorted[j].Name
	})
	return sorted
}
