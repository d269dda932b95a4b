package preflight

import (
	"fmt"
	"strings"

	"codescope/internal/search"
)

// CheckSearchTools probes for the external search tools search_code
// shells out to. Not required: without any tool the rest of the server
// still works, and plain grep ships with every supported platform
// anyway.
func (c *Checker) CheckSearchTools() CheckResult {
	result := CheckResult{
		Name:     "search_tools",
		Required: false,
	}

	s := search.NewSearcher(nil)
	available := s.AvailableTools()

	if len(available) == 0 {
		result.Status = StatusFail
		result.Message = "no search tool found (ugrep, rg, ag, grep)"
		result.Details = "Install ripgrep for the best search performance: https://github.com/BurntSushi/ripgrep"
		return result
	}

	preferred := s.PreferredTool()
	if preferred == "grep" {
		result.Status = StatusWarn
		result.Message = "only grep available"
		result.Details = "Install ugrep or ripgrep for faster project-wide search"
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("%s (available: %s)", preferred, strings.Join(available, ", "))
	return result
}
