// Package index maintains the in-memory symbol index for a project
// and answers every query against it.
//
// The Indexer orchestrates the full pipeline: the scanner walks the
// project, a worker pool parses each source file, and the resulting
// file records and symbols are swapped into the Index under its write
// lock. A file watcher keeps the index current afterwards, one event
// at a time, and every mutation is persisted to the snapshot store so
// a later process can restore the index without re-walking the tree.
package index

import (
	"codescope/internal/parser"
	"codescope/internal/search"
)

// BuildResult reports the outcome of a full index build.
type BuildResult struct {
	FileCount     int    `json:"file_count"`
	BuildTimeMS   int64  `json:"build_time_ms"`
	CacheLocation string `json:"cache_location,omitempty"`
}

// FindFilesResult lists indexed files matching a glob pattern.
type FindFilesResult struct {
	Files []string `json:"files"`
	Total int      `json:"total"`
}

// SearchResponse carries project-wide text search results.
type SearchResponse struct {
	Results      []search.Result `json:"results"`
	TotalMatches int             `json:"total_matches"`
	ToolUsed     string          `json:"tool_used"`
}

// AnalysisResult is the full analysis of a single indexed file:
// its record plus every symbol declared in it, keyed by symbol ID.
type AnalysisResult struct {
	FilePath string                    `json:"file_path"`
	Record   *parser.FileRecord        `json:"record"`
	Symbols  map[string]*parser.Symbol `json:"symbols"`
}

// StructureResult is the project tree. Directories are nested
// objects, files are the literal string "file".
type StructureResult struct {
	Tree       map[string]any `json:"tree"`
	TotalFiles int            `json:"total_files"`
}

// Statistics summarizes the indexed project.
type Statistics struct {
	TotalFiles     int            `json:"total_files"`
	TotalLines     int            `json:"total_lines"`
	Languages      map[string]int `json:"languages"`
	Symbols        map[string]int `json:"symbols"`
	AvailableTools []string       `json:"available_tools"`
	PreferredTool  string         `json:"preferred_tool"`
}

// UsageResult lists the symbols whose name matches a query.
type UsageResult struct {
	SymbolName   string           `json:"symbol_name"`
	Matches      []*parser.Symbol `json:"matches"`
	TotalMatches int              `json:"total_matches"`
}

// CallersResult lists the symbols that call a target function.
// Message is set instead of TargetSymbolID when the target could not
// be resolved.
type CallersResult struct {
	FunctionName   string           `json:"function_name"`
	TargetSymbolID string           `json:"target_symbol_id,omitempty"`
	Callers        []*parser.Symbol `json:"callers"`
	TotalCallers   int              `json:"total_callers"`
	Message        string           `json:"message,omitempty"`
}

// ImportsResult reports the dependency section of one file. Exports
// is present only for TypeScript and JavaScript files, Package only
// for Java files.
type ImportsResult struct {
	FilePath     string   `json:"file_path"`
	Imports      []string `json:"imports"`
	Exports      []string `json:"exports,omitempty"`
	Package      string   `json:"package,omitempty"`
	TotalImports int      `json:"total_imports"`
}

// FileSearchResult carries in-file search matches.
type FileSearchResult struct {
	FilePath     string             `json:"file_path"`
	Pattern      string             `json:"pattern"`
	Matches      []search.FileMatch `json:"matches"`
	TotalMatches int                `json:"total_matches"`
}
