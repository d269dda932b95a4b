package cmd

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newStructureCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "structure",
		Short: "Show the indexed directory tree",
		Long: `Show the directory tree of indexed files, like 'tree' restricted
to sources the index knows about.`,
		Example: `  codescope structure
  codescope structure --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStructure(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runStructure(cmd *cobra.Command, jsonOutput bool) error {
	ix, _, root, err := openSnapshot(cmd.Context(), ".")
	if err != nil {
		return err
	}

	tree, total := ix.Structure()

	if jsonOutput {
		payload := struct {
			Tree       map[string]any `json:"structure"`
			TotalFiles int            `json:"total_files"`
		}{tree, total}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	}

	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "%s  (%d files)\n", root, total)
	printTree(cmd, tree, "")
	return nil
}

// printTree renders the nested structure map with box-drawing
// connectors, directories before files, both alphabetical.
func printTree(cmd *cobra.Command, node map[string]any, prefix string) {
	names := make([]string, 0, len(node))
	for name := range node {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		_, iDir := node[names[i]].(map[string]any)
		_, jDir := node[names[j]].(map[string]any)
		if iDir != jDir {
			return iDir
		}
		return names[i] < names[j]
	})

	w := cmd.OutOrStdout()
	for i, name := range names {
		connector := "├── "
		childPrefix := prefix + "│   "
		if i == len(names)-1 {
			connector = "└── "
			childPrefix = prefix + "    "
		}

		if child, ok := node[name].(map[string]any); ok {
			_, _ = fmt.Fprintf(w, "%s%s%s/\n", prefix, connector, name)
			printTree(cmd, child, childPrefix)
		} else {
			_, _ = fmt.Fprintf(w, "%s%s%s\n", prefix, connector, name)
		}
	}
}
