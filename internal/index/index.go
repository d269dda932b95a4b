package index

import (
	"sort"
	"strings"
	"sync"

	"codescope/internal/parser"
	"codescope/internal/store"
)

// Index is the in-memory state for one project: every file record and
// every symbol, guarded by a single RWMutex. Queries take the read
// lock; rebuilds and watcher updates take the write lock, so a query
// never observes a half-applied change.
//
// Records and symbols are replaced wholesale, never mutated in place,
// which keeps pointers handed out to callers stable.
type Index struct {
	mu      sync.RWMutex
	root    string
	files   map[string]*parser.FileRecord
	symbols map[string]*parser.Symbol
}

// NewIndex returns an empty index with no project root.
func NewIndex() *Index {
	return &Index{
		files:   make(map[string]*parser.FileRecord),
		symbols: make(map[string]*parser.Symbol),
	}
}

// Reset replaces the entire index contents.
func (ix *Index) Reset(root string, files map[string]*parser.FileRecord, symbols map[string]*parser.Symbol) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.reset(root, files, symbols)
}

func (ix *Index) reset(root string, files map[string]*parser.FileRecord, symbols map[string]*parser.Symbol) {
	if files == nil {
		files = make(map[string]*parser.FileRecord)
	}
	if symbols == nil {
		symbols = make(map[string]*parser.Symbol)
	}
	ix.root = root
	ix.files = files
	ix.symbols = symbols
}

// ReplaceAll rebuilds the index from scratch. The write lock is held
// across the whole build, so queries and watcher updates wait until
// the new state is in place. On error the previous contents survive.
func (ix *Index) ReplaceAll(root string, build func() (map[string]*parser.FileRecord, map[string]*parser.Symbol, error)) (int, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	files, symbols, err := build()
	if err != nil {
		return 0, err
	}
	ix.reset(root, files, symbols)
	return len(ix.files), nil
}

// ApplyFile replaces one file's record and symbols with a fresh parse.
// Symbols from the previous version of the file are purged first, so
// declarations deleted from the source disappear from the index.
func (ix *Index) ApplyFile(a *parser.FileAnalysis) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.purgeFile(a.Record.Path)
	ix.files[a.Record.Path] = &a.Record
	for _, sym := range a.Symbols {
		ix.symbols[sym.ID] = sym
	}
}

// RemovePath removes a deleted file, or a whole deleted directory
// and everything under it. Watcher delete events do not say whether
// the path was a file or a directory, so both interpretations are
// purged. Returns the number of files removed.
func (ix *Index) RemovePath(relPath string) int {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	doomed := make(map[string]bool)
	if _, ok := ix.files[relPath]; ok {
		doomed[relPath] = true
	}
	prefix := relPath + "/"
	for p := range ix.files {
		if strings.HasPrefix(p, prefix) {
			doomed[p] = true
		}
	}
	if len(doomed) == 0 {
		return 0
	}
	for p := range doomed {
		delete(ix.files, p)
	}
	for id, sym := range ix.symbols {
		if doomed[sym.File] {
			delete(ix.symbols, id)
		}
	}
	return len(doomed)
}

// purgeFile drops one file's record and symbols. Caller holds the
// write lock.
func (ix *Index) purgeFile(relPath string) {
	if _, ok := ix.files[relPath]; !ok {
		return
	}
	delete(ix.files, relPath)
	for id, sym := range ix.symbols {
		if sym.File == relPath {
			delete(ix.symbols, id)
		}
	}
}

// Root returns the absolute project root, or "" before any build.
func (ix *Index) Root() string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.root
}

// FileCount returns the number of indexed files.
func (ix *Index) FileCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.files)
}

// SymbolCount returns the number of indexed symbols.
func (ix *Index) SymbolCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.symbols)
}

// Record returns the file record for a relative path.
func (ix *Index) Record(relPath string) (*parser.FileRecord, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	rec, ok := ix.files[relPath]
	return rec, ok
}

// FilePaths returns every indexed path, sorted.
func (ix *Index) FilePaths() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.sortedFilePaths()
}

func (ix *Index) sortedFilePaths() []string {
	paths := make([]string, 0, len(ix.files))
	for p := range ix.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (ix *Index) sortedSymbolIDs() []string {
	ids := make([]string, 0, len(ix.symbols))
	for id := range ix.symbols {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Snapshot copies the current state for persistence. The maps are
// copied, the records they point at are shared; that is safe because
// records are never mutated after insertion.
func (ix *Index) Snapshot() *store.Snapshot {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	files := make(map[string]*parser.FileRecord, len(ix.files))
	for p, rec := range ix.files {
		files[p] = rec
	}
	symbols := make(map[string]*parser.Symbol, len(ix.symbols))
	for id, sym := range ix.symbols {
		symbols[id] = sym
	}
	return &store.Snapshot{
		Root:    ix.root,
		Files:   files,
		Symbols: symbols,
	}
}

// Restore adopts a loaded snapshot wholesale.
func (ix *Index) Restore(snap *store.Snapshot) {
	ix.Reset(snap.Root, snap.Files, snap.Symbols)
}
