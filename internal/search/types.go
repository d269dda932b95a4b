// Package search drives external text-search tools and normalizes
// their output into one result schema. The best available tool is
// chosen once at construction; every call builds a tool-specific
// argument list from the same Query.
package search

// Query is one search request against a directory tree.
type Query struct {
	// Pattern is the text or regular expression to search for.
	Pattern string

	// CaseSensitive controls case folding. Defaults to sensitive.
	CaseSensitive bool

	// ContextLines requests N lines of context before and after each
	// match. Context lines do not fit the file:line:content shape and
	// are dropped by the output parser; the flags exist for callers
	// that consume raw tool output.
	ContextLines int

	// FilePattern restricts the search to files matching a glob.
	FilePattern string

	// Fuzzy enables approximate matching. Only ugrep supports it;
	// other tools silently ignore the flag.
	Fuzzy bool

	// Regex treats Pattern as a regular expression. When false the
	// pattern is passed as a fixed string.
	Regex bool

	// MaxLineLength asks the tool to limit line output length, where
	// supported.
	MaxLineLength int
}

// Result is one normalized search match.
type Result struct {
	File          string   `json:"file"`
	LineNumber    int      `json:"line_number"`
	LineContent   string   `json:"line_content"`
	ContextBefore []string `json:"context_before,omitempty"`
	ContextAfter  []string `json:"context_after,omitempty"`
}

// FileMatch is one match from an in-process single-file search.
type FileMatch struct {
	LineNumber  int    `json:"line_number"`
	LineContent string `json:"line_content"`
	MatchStart  int    `json:"match_start"`
}
