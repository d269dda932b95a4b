package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"codescope/internal/errors"
	"codescope/internal/parser"
	"codescope/internal/search"
)

// FindFiles matches indexed paths against a wildcard pattern. Before
// a project is set it simply finds nothing.
func (ix *Indexer) FindFiles(pattern string) *FindFilesResult {
	files := ix.index.FindFiles(pattern)
	return &FindFilesResult{Files: files, Total: len(files)}
}

// SearchCode runs a project-wide text search through the external
// search tool, bounded by the configured timeout and result cap.
func (ix *Indexer) SearchCode(ctx context.Context, q *search.Query) (*SearchResponse, error) {
	root := ix.index.Root()
	if root == "" {
		return nil, errors.NoProjectSet()
	}

	if timeout := ix.cfg.Search.TimeoutSeconds; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
		defer cancel()
	}

	results, err := ix.searcher.Search(ctx, root, q)
	if err != nil {
		return nil, err
	}
	if max := ix.cfg.Search.MaxResults; max > 0 && len(results) > max {
		results = results[:max]
	}
	return &SearchResponse{
		Results:      results,
		TotalMatches: len(results),
		ToolUsed:     ix.searcher.PreferredTool(),
	}, nil
}

// AnalyseFile returns one file's record and symbols. Absolute paths
// under the project root are accepted and normalized.
func (ix *Indexer) AnalyseFile(path string) (*AnalysisResult, error) {
	root := ix.index.Root()
	if root == "" {
		return nil, errors.NoProjectSet()
	}
	rel := relativePath(root, path)
	rec, symbols, ok := ix.index.Analyse(rel)
	if !ok {
		return nil, errors.NotIndexed(rel)
	}
	return &AnalysisResult{FilePath: rel, Record: rec, Symbols: symbols}, nil
}

// ProjectStructure returns the indexed tree.
func (ix *Indexer) ProjectStructure() (*StructureResult, error) {
	if ix.index.Root() == "" {
		return nil, errors.NoProjectSet()
	}
	tree, total := ix.index.Structure()
	return &StructureResult{Tree: tree, TotalFiles: total}, nil
}

// GetStatistics summarizes the index. It never errors: before a
// project is set the totals are zero, and the search tool report is
// useful either way.
func (ix *Indexer) GetStatistics() *Statistics {
	files, lines, languages, kinds := ix.index.Stats()
	return &Statistics{
		TotalFiles:     files,
		TotalLines:     lines,
		Languages:      languages,
		Symbols:        kinds,
		AvailableTools: ix.searcher.AvailableTools(),
		PreferredTool:  ix.searcher.PreferredTool(),
	}
}

// FindSymbolUsage lists symbols whose name matches the query,
// optionally filtered by kind.
func (ix *Indexer) FindSymbolUsage(name, kind string) *UsageResult {
	matches := ix.index.FindSymbols(name, kind)
	return &UsageResult{SymbolName: name, Matches: matches, TotalMatches: len(matches)}
}

// FindFunctionsCalling resolves a function name and lists its
// callers. An unresolvable name is an empty success with a message,
// not an error.
func (ix *Indexer) FindFunctionsCalling(name string) *CallersResult {
	targetID, callers, found := ix.index.FunctionsCalling(name)
	if !found {
		return &CallersResult{
			FunctionName: name,
			Callers:      []*parser.Symbol{},
			Message:      "Function not found in index",
		}
	}
	return &CallersResult{
		FunctionName:   name,
		TargetSymbolID: targetID,
		Callers:        callers,
		TotalCallers:   len(callers),
	}
}

// GetFileImports returns a file's import section, with exports for
// script files and the package for Java files.
func (ix *Indexer) GetFileImports(path string) (*ImportsResult, error) {
	root := ix.index.Root()
	if root == "" {
		return nil, errors.NoProjectSet()
	}
	rel := relativePath(root, path)
	rec, ok := ix.index.Record(rel)
	if !ok {
		return nil, errors.NotIndexed(rel)
	}
	return &ImportsResult{
		FilePath:     rel,
		Imports:      rec.Imports,
		Exports:      rec.Exports,
		Package:      rec.Package,
		TotalImports: len(rec.Imports),
	}, nil
}

// SearchInFile scans one file on disk for a pattern. Relative paths
// resolve against the project root; absolute paths work without one.
func (ix *Indexer) SearchInFile(path, pattern string, caseSensitive, regex bool) (*FileSearchResult, error) {
	full := path
	if !filepath.IsAbs(full) {
		root := ix.index.Root()
		if root == "" {
			return nil, errors.NoProjectSet()
		}
		full = filepath.Join(root, filepath.FromSlash(path))
	}

	src, err := os.ReadFile(full)
	if err != nil {
		return nil, errors.New(errors.ErrCodeInvalidPath, fmt.Sprintf("file not found: %s", path), err)
	}
	matches, err := search.SearchInFile(src, pattern, caseSensitive, regex)
	if err != nil {
		return nil, err
	}
	return &FileSearchResult{
		FilePath:     path,
		Pattern:      pattern,
		Matches:      matches,
		TotalMatches: len(matches),
	}, nil
}

// relativePath normalizes a possibly absolute path to the
// slash-separated form the index keys on. Paths outside the root pass
// through unchanged and simply fail the lookup.
func relativePath(root, p string) string {
	if filepath.IsAbs(p) {
		if rel, err := filepath.Rel(root, p); err == nil && rel != ".." && !strings.HasPrefix(rel, "../") {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(p)
}
