package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"codescope/internal/index"
)

func newFilesCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "files [pattern]",
		Short: "List indexed files matching a wildcard pattern",
		Long: `List indexed files matching a wildcard pattern.

Patterns match the relative path or the basename, so "*.java" finds
nested files and "**/*.ts" behaves like you would expect from a
shell. Without a pattern, every indexed file is listed.

Reads the cached snapshot; run 'codescope index' first.`,
		Example: `  codescope files
  codescope files "*.ts"
  codescope files "src/**/*Service.java" --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := "*"
			if len(args) > 0 {
				pattern = args[0]
			}
			return runFiles(cmd, pattern, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runFiles(cmd *cobra.Command, pattern string, jsonOutput bool) error {
	ix, _, _, err := openSnapshot(cmd.Context(), ".")
	if err != nil {
		return err
	}

	files := ix.FindFiles(pattern)

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(index.FindFilesResult{Files: files, Total: len(files)})
	}

	w := cmd.OutOrStdout()
	if len(files) == 0 {
		_, _ = fmt.Fprintf(w, "No indexed files match %q\n", pattern)
		return nil
	}
	for _, f := range files {
		_, _ = fmt.Fprintln(w, f)
	}
	return nil
}
