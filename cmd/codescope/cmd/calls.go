package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"codescope/internal/parser"
	"codescope/internal/ui"
)

func newCallsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "calls <function>",
		Short: "List functions that call a function",
		Long: `List the indexed functions and methods that call the named
function. Call edges are tracked within each file, so cross-file
callers do not appear.

A bare name resolves against exact symbol names first, then method
names like "OrderService.submit", then substring matches.`,
		Example: `  codescope calls submitOrder
  codescope calls OrderService.submit --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalls(cmd, args[0], jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runCalls(cmd *cobra.Command, name string, jsonOutput bool) error {
	ix, _, _, err := openSnapshot(cmd.Context(), ".")
	if err != nil {
		return err
	}

	targetID, callers, found := ix.FunctionsCalling(name)

	if jsonOutput {
		payload := struct {
			FunctionName   string           `json:"function_name"`
			TargetSymbolID string           `json:"target_symbol_id,omitempty"`
			Callers        []*parser.Symbol `json:"callers"`
			TotalCallers   int              `json:"total_callers"`
			Message        string           `json:"message,omitempty"`
		}{FunctionName: name, TargetSymbolID: targetID, Callers: callers, TotalCallers: len(callers)}
		if !found {
			payload.Callers = []*parser.Symbol{}
			payload.Message = "Function not found in index"
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	}

	out := ui.NewWriter(cmd.OutOrStdout())
	if !found {
		out.Statusf("", "No symbol matches %q", name)
		return nil
	}

	out.Statusf("", "Callers of %s:", targetID)
	if len(callers) == 0 {
		out.Status("", "  (none recorded)")
		return nil
	}
	for _, c := range callers {
		out.Statusf("", "  %-9s %s:%d  %s", c.Kind, c.File, c.Line, c.Name)
	}
	return nil
}
