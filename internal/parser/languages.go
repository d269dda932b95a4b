package parser

import (
	"sort"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Language binds a set of file extensions to a tree-sitter grammar and
// the extraction strategy that understands its node types.
type Language struct {
	Name       string
	Extensions []string
	Grammar    *sitter.Language
	strategy   strategy
}

// Registry maps file extensions to language configurations.
type Registry struct {
	mu    sync.RWMutex
	byExt map[string]*Language
}

// NewRegistry creates a registry with the default language set.
func NewRegistry() *Registry {
	r := &Registry{byExt: make(map[string]*Language)}

	r.Register(&Language{
		Name:       "java",
		Extensions: []string{".java"},
		Grammar:    java.GetLanguage(),
		strategy:   javaStrategy{},
	})
	r.Register(&Language{
		Name:       "typescript",
		Extensions: []string{".ts"},
		Grammar:    typescript.GetLanguage(),
		strategy:   scriptStrategy{},
	})
	// TSX needs its own grammar but shares the TypeScript node types.
	r.Register(&Language{
		Name:       "typescript",
		Extensions: []string{".tsx"},
		Grammar:    tsx.GetLanguage(),
		strategy:   scriptStrategy{},
	})
	r.Register(&Language{
		Name:       "javascript",
		Extensions: []string{".js", ".jsx"},
		Grammar:    javascript.GetLanguage(),
		strategy:   scriptStrategy{},
	})

	return r
}

// Register adds a language to the registry.
func (r *Registry) Register(lang *Language) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ext := range lang.Extensions {
		r.byExt[ext] = lang
	}
}

// GetByExtension returns the language configuration for a file extension.
func (r *Registry) GetByExtension(ext string) (*Language, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	lang, ok := r.byExt[ext]
	return lang, ok
}

// SupportedExtensions returns all registered extensions, sorted.
func (r *Registry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// defaultRegistry is the global language registry.
var defaultRegistry = NewRegistry()

// DefaultRegistry returns the global language registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}
