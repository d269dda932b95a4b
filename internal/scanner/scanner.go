package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"codescope/internal/gitignore"
	"codescope/internal/parser"
)

// gitignoreCacheSize caps the matcher cache for long-running scans.
const gitignoreCacheSize = 1000

// Scanner streams indexable files out of a project directory.
type Scanner struct {
	registry *parser.Registry

	// ignoreCache holds one gitignore matcher per directory, keyed by
	// absolute path. Callers reset it when switching project roots.
	ignoreCache *lru.Cache[string, *gitignore.Matcher]
	cacheMu     sync.Mutex
}

// New creates a Scanner over the default parser registry.
func New() (*Scanner, error) {
	cache, err := lru.New[string, *gitignore.Matcher](gitignoreCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create gitignore cache: %w", err)
	}
	return &Scanner{
		registry:    parser.DefaultRegistry(),
		ignoreCache: cache,
	}, nil
}

// InvalidateGitignoreCache drops all cached matchers. Call it when
// .gitignore files change or the project root moves.
func (s *Scanner) InvalidateGitignoreCache() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.ignoreCache.Purge()
}

// resolveRoot absolutizes the scan root, defaulting to the working
// directory, and verifies it is a directory.
func resolveRoot(root string) (string, error) {
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("root is not a directory: %s", abs)
	}
	return abs, nil
}

// Scan walks the project tree and streams discovered files. The
// channel closes when the walk finishes; a walk-level failure is
// delivered as the final ScanResult.
func (s *Scanner) Scan(ctx context.Context, opts *ScanOptions) (<-chan ScanResult, error) {
	if opts == nil {
		opts = &ScanOptions{}
	}
	absRoot, err := resolveRoot(opts.RootDir)
	if err != nil {
		return nil, err
	}

	limit := opts.MaxFileSize
	if limit <= 0 {
		limit = DefaultMaxFileSize
	}
	excludes := gitignore.NewWithPatterns(opts.ExcludePatterns...)

	results := make(chan ScanResult, 64)
	go func() {
		defer close(results)
		s.walk(ctx, absRoot, opts, excludes, limit, results)
	}()
	return results, nil
}

func (s *Scanner) walk(ctx context.Context, absRoot string, opts *ScanOptions, excludes *gitignore.Matcher, limit int64, results chan<- ScanResult) {
	err := filepath.WalkDir(absRoot, func(fullPath string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			// Unreadable entries are skipped, not fatal.
			return nil
		}

		relPath, relErr := filepath.Rel(absRoot, fullPath)
		if relErr != nil || relPath == "." {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if skipDir(d.Name()) || excludes.Match(relPath, true) ||
				(opts.RespectGitignore && s.isGitignored(relPath, absRoot, true)) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 && !opts.FollowSymlinks {
			return nil
		}
		lang, ok := s.registry.GetByExtension(filepath.Ext(relPath))
		if !ok {
			return nil
		}
		if excludes.Match(relPath, false) ||
			(opts.RespectGitignore && s.isGitignored(relPath, absRoot, false)) {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil || info.Size() > limit {
			return nil
		}

		file := &FileInfo{
			Path:     relPath,
			AbsPath:  fullPath,
			Size:     info.Size(),
			ModTime:  info.ModTime(),
			Language: lang.Name,
		}
		select {
		case results <- ScanResult{File: file}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	if err != nil && err != context.Canceled {
		select {
		case results <- ScanResult{Error: err}:
		case <-ctx.Done():
		}
	}
}

// isGitignored checks relPath against the root .gitignore and every
// nested .gitignore along its directory chain.
func (s *Scanner) isGitignored(relPath, absRoot string, isDir bool) bool {
	if s.matcherFor(absRoot, absRoot).Match(relPath, isDir) {
		return true
	}
	dir := path.Dir(relPath)
	if dir == "." {
		return false
	}
	parts := strings.Split(dir, "/")
	for i := range parts {
		sub := strings.Join(parts[:i+1], "/")
		abs := filepath.Join(absRoot, filepath.FromSlash(sub))
		if s.matcherFor(abs, absRoot).Match(relPath, isDir) {
			return true
		}
	}
	return false
}

// matcherFor returns the cached matcher for one directory, loading its
// .gitignore on first use. Directories without one get an empty
// matcher so the stat result is cached too.
func (s *Scanner) matcherFor(dirPath, absRoot string) *gitignore.Matcher {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	if m, ok := s.ignoreCache.Get(dirPath); ok {
		return m
	}

	m := gitignore.New()
	ignorePath := filepath.Join(dirPath, ".gitignore")
	if _, err := os.Stat(ignorePath); err == nil {
		base := ""
		if rel, relErr := filepath.Rel(absRoot, dirPath); relErr == nil && rel != "." {
			base = filepath.ToSlash(rel)
		}
		// Unreadable files leave the matcher empty.
		_ = m.AddFromFile(ignorePath, base)
	}
	s.ignoreCache.Add(dirPath, m)
	return m
}

// skipDir prunes dot-directories and the built-in ignore set.
func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || skipDirNames[name]
}
