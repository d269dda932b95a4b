package parser

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"

	sitter "github.com/smacker/go-tree-sitter"

	"codescope/internal/errors"
)

// Parser extracts symbols and file metadata from source files.
//
// Tree-sitter parser objects are not safe for concurrent use, so a
// fresh one is created per ParseFile call. The Parser itself can be
// shared across goroutines.
type Parser struct {
	registry *Registry
	log      *slog.Logger
}

// New creates a parser over the default language registry.
func New(log *slog.Logger) *Parser {
	if log == nil {
		log = slog.Default()
	}
	return &Parser{
		registry: DefaultRegistry(),
		log:      log,
	}
}

// Supported reports whether path has an extension this parser understands.
func (p *Parser) Supported(path string) bool {
	_, ok := p.registry.GetByExtension(filepath.Ext(path))
	return ok
}

// LanguageFor returns the language name used for path.
func (p *Parser) LanguageFor(path string) (string, bool) {
	lang, ok := p.registry.GetByExtension(filepath.Ext(path))
	if !ok {
		return "", false
	}
	return lang.Name, true
}

// SupportedExtensions returns the extensions the parser accepts.
func (p *Parser) SupportedExtensions() []string {
	return p.registry.SupportedExtensions()
}

// ParseFile parses src and returns the symbols and metadata for one
// file. relPath is the path relative to the project root and becomes
// part of every symbol ID. Sources with syntax errors yield partial
// results rather than an error: whatever declarations tree-sitter
// recovered are extracted.
func (p *Parser) ParseFile(ctx context.Context, relPath string, src []byte) (*FileAnalysis, error) {
	lang, ok := p.registry.GetByExtension(filepath.Ext(relPath))
	if !ok {
		return nil, errors.UnsupportedLanguage(filepath.Ext(relPath))
	}

	analysis := &FileAnalysis{
		Record: FileRecord{
			Path:      relPath,
			Language:  lang.Name,
			LineCount: countLines(src),
			Functions: []string{},
			Classes:   []string{},
			Imports:   []string{},
		},
	}

	sp := sitter.NewParser()
	defer sp.Close()
	sp.SetLanguage(lang.Grammar)

	tree, err := sp.ParseCtx(ctx, nil, src)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p.log.Warn("parse failed, keeping file record without symbols",
			"file", relPath, "error", err)
		return analysis, nil
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		p.log.Debug("syntax errors in source, extracting what parsed",
			"file", relPath, "language", lang.Name)
	}

	e := newExtraction(relPath, src, analysis)
	lang.strategy.extract(root, e)
	e.resolve()

	return analysis, nil
}

// countLines matches what an editor would show: zero for empty input,
// and a trailing newline does not start another line.
func countLines(src []byte) int {
	if len(src) == 0 {
		return 0
	}
	n := bytes.Count(src, []byte{'\n'})
	if src[len(src)-1] != '\n' {
		n++
	}
	return n
}
