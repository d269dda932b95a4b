package index

import (
	"strings"

	"codescope/internal/parser"
)

// FindFiles returns the sorted indexed paths matching a wildcard
// pattern against the full relative path or the basename. A pattern
// that does not compile matches nothing.
func (ix *Index) FindFiles(pattern string) []string {
	matcher, err := newGlobMatcher(pattern)
	if err != nil {
		return []string{}
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	matched := []string{}
	for _, p := range ix.sortedFilePaths() {
		if matcher.Matches(p) {
			matched = append(matched, p)
		}
	}
	return matched
}

// FindSymbols returns every symbol whose name contains the query,
// case-insensitively, optionally filtered by kind. Results come back
// in symbol-ID order.
func (ix *Index) FindSymbols(query, kind string) []*parser.Symbol {
	needle := strings.ToLower(query)

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	matches := []*parser.Symbol{}
	for _, id := range ix.sortedSymbolIDs() {
		_, name := parser.SplitSymbolID(id)
		if !strings.Contains(strings.ToLower(name), needle) {
			continue
		}
		sym := ix.symbols[id]
		if kind != "" && string(sym.Kind) != kind {
			continue
		}
		matches = append(matches, sym)
	}
	return matches
}

// FunctionsCalling resolves name to a single target symbol and
// returns its recorded callers. Caller IDs that no longer resolve,
// because their file was since re-parsed or deleted, are skipped.
// found is false when no symbol matches the name at all.
func (ix *Index) FunctionsCalling(name string) (targetID string, callers []*parser.Symbol, found bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	targetID, found = ix.resolveSymbol(name)
	if !found {
		return "", nil, false
	}

	callers = []*parser.Symbol{}
	for _, callerID := range ix.symbols[targetID].CalledBy {
		if sym, ok := ix.symbols[callerID]; ok {
			callers = append(callers, sym)
		}
	}
	return targetID, callers, true
}

// resolveSymbol picks the target for a bare name. Exact name matches
// win, then method names with a matching ".name" suffix, then any
// name containing the query. Each tier scans in sorted-ID order so
// the choice is stable across runs. Caller holds a lock.
func (ix *Index) resolveSymbol(name string) (string, bool) {
	ids := ix.sortedSymbolIDs()
	for _, id := range ids {
		if _, n := parser.SplitSymbolID(id); n == name {
			return id, true
		}
	}
	for _, id := range ids {
		if _, n := parser.SplitSymbolID(id); strings.HasSuffix(n, "."+name) {
			return id, true
		}
	}
	for _, id := range ids {
		if _, n := parser.SplitSymbolID(id); strings.Contains(n, name) {
			return id, true
		}
	}
	return "", false
}

// Analyse returns one file's record and its symbols keyed by ID.
func (ix *Index) Analyse(relPath string) (*parser.FileRecord, map[string]*parser.Symbol, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	rec, ok := ix.files[relPath]
	if !ok {
		return nil, nil, false
	}
	symbols := make(map[string]*parser.Symbol)
	for id, sym := range ix.symbols {
		if sym.File == relPath {
			symbols[id] = sym
		}
	}
	return rec, symbols, true
}

// Structure builds the nested directory tree from the indexed paths.
// Directories become nested maps, files the string "file".
func (ix *Index) Structure() (map[string]any, int) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	tree := make(map[string]any)
	paths := ix.sortedFilePaths()
	for _, p := range paths {
		parts := strings.Split(p, "/")
		node := tree
		for _, dir := range parts[:len(parts)-1] {
			child, ok := node[dir].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[dir] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = "file"
	}
	return tree, len(paths)
}

// Stats totals the index: file and line counts, files per language,
// and symbols per kind.
func (ix *Index) Stats() (files, lines int, languages, kinds map[string]int) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	languages = make(map[string]int)
	kinds = make(map[string]int)
	for _, rec := range ix.files {
		lines += rec.LineCount
		languages[rec.Language]++
	}
	for _, sym := range ix.symbols {
		kinds[string(sym.Kind)]++
	}
	return len(ix.files), lines, languages, kinds
}
