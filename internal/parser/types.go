// Package parser extracts symbols and file metadata from Java,
// TypeScript, and JavaScript sources using tree-sitter grammars.
//
// Extraction is a single traversal: declarations register symbols as
// they are seen, call sites are queued and resolved once the whole file
// has been walked, so declaration order within a file does not matter.
// Cross-file calls are never resolved. Symbol IDs take the form
// "rel/path.java::Name", with methods qualified by their enclosing type
// ("Order.confirm").
package parser

import "strings"

// SymbolKind classifies a symbol.
type SymbolKind string

const (
	KindClass     SymbolKind = "class"
	KindInterface SymbolKind = "interface"
	KindMethod    SymbolKind = "method"
	KindFunction  SymbolKind = "function"
)

// Symbol is one declaration found in a source file.
type Symbol struct {
	ID        string     `json:"symbol_id"`
	Name      string     `json:"symbol_name"`
	Kind      SymbolKind `json:"kind"`
	File      string     `json:"file"`
	Line      int        `json:"line"`
	Signature string     `json:"signature,omitempty"`

	// CalledBy holds the symbol IDs of same-file functions and methods
	// that call this symbol, in first-seen order without duplicates.
	CalledBy []string `json:"called_by"`
}

// addCaller records a caller, ignoring repeats.
func (s *Symbol) addCaller(id string) {
	for _, existing := range s.CalledBy {
		if existing == id {
			return
		}
	}
	s.CalledBy = append(s.CalledBy, id)
}

// FileRecord is the per-file metadata kept in the index.
// Exports is only populated for TypeScript and JavaScript files,
// Package only for Java files.
type FileRecord struct {
	Path      string   `json:"path"`
	Language  string   `json:"language"`
	LineCount int      `json:"line_count"`
	Functions []string `json:"function_names"`
	Classes   []string `json:"class_names"`
	Imports   []string `json:"imports"`
	Exports   []string `json:"exports,omitempty"`
	Package   string   `json:"package,omitempty"`
}

// FileAnalysis is the result of parsing one source file.
type FileAnalysis struct {
	Record  FileRecord
	Symbols []*Symbol // declaration order
}

// MakeSymbolID builds the canonical symbol identifier, "file::name".
func MakeSymbolID(file, name string) string {
	return file + "::" + name
}

// SplitSymbolID splits an ID into its file and symbol name halves.
// The name is everything after the final separator.
func SplitSymbolID(id string) (file, name string) {
	if i := strings.LastIndex(id, "::"); i >= 0 {
		return id[:i], id[i+2:]
	}
	return "", id
}
