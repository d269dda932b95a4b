// Package gitignore matches paths against gitignore-style patterns:
// wildcards (*, ?, **), rooted patterns (/build), directory-only
// patterns (build/), and negation (!keep.log). Matchers are safe for
// concurrent use.
package gitignore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// Matcher holds compiled patterns and answers ignore queries.
type Matcher struct {
	rules []rule
	mu    sync.RWMutex
}

// rule is one compiled pattern line.
type rule struct {
	source  string // pattern as written, minus escapes
	regex   *regexp.Regexp
	negate  bool   // !pattern resurrects matches
	dirOnly bool   // pattern/ matches directories and their contents
	rooted  bool   // pattern applies from the scope root only
	scope   string // directory the pattern applies under, "" for global
}

// New creates an empty Matcher.
func New() *Matcher {
	return &Matcher{}
}

// NewWithPatterns creates a Matcher preloaded with patterns.
func NewWithPatterns(patterns ...string) *Matcher {
	m := New()
	for _, p := range patterns {
		m.AddPattern(p)
	}
	return m
}

// AddPattern adds one gitignore pattern.
func (m *Matcher) AddPattern(pattern string) {
	m.AddPatternWithBase(pattern, "")
}

// AddPatternWithBase adds a pattern that only applies under base,
// which is how patterns from nested .gitignore files keep their scope.
func (m *Matcher) AddPatternWithBase(pattern, base string) {
	r, ok := compile(pattern, base)
	if !ok {
		return
	}
	m.mu.Lock()
	m.rules = append(m.rules, r)
	m.mu.Unlock()
}

// AddFromFile reads patterns from a gitignore file, scoped to base.
func (m *Matcher) AddFromFile(path, base string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open gitignore: %w", err)
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		m.AddPatternWithBase(sc.Text(), base)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read gitignore: %w", err)
	}
	return nil
}

// Match reports whether path should be ignored. Rules apply in file
// order, so a later negation can resurrect an ignored path.
func (m *Matcher) Match(path string, isDir bool) bool {
	path = filepath.ToSlash(path)

	m.mu.RLock()
	defer m.mu.RUnlock()

	ignored := false
	for _, r := range m.rules {
		if r.matches(path, isDir) {
			ignored = !r.negate
		}
	}
	return ignored
}

// compile parses one pattern line. Reports false for blanks and comments.
func compile(line, scope string) (rule, bool) {
	// "\ " before trimming marks a deliberate trailing space.
	keepTrailingSpace := strings.HasSuffix(line, `\ `)

	line = strings.TrimSpace(line)
	if line == "" || (strings.HasPrefix(line, "#") && !strings.HasPrefix(line, `\#`)) {
		return rule{}, false
	}

	r := rule{source: line, scope: scope}

	switch {
	case strings.HasPrefix(line, `\#`), strings.HasPrefix(line, `\!`):
		line = line[1:]
		r.source = line
	case strings.HasPrefix(line, "!"):
		r.negate = true
		line = line[1:]
	}

	if keepTrailingSpace && strings.HasSuffix(line, `\`) {
		line = strings.TrimSuffix(line, `\`) + " "
	}

	if strings.HasSuffix(line, "/") {
		r.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		r.rooted = true
		line = line[1:]
	}
	// An internal slash roots the pattern: "doc/frotz" means
	// "/doc/frotz", never "**/doc/frotz".
	if strings.Contains(line, "/") && !strings.HasPrefix(line, "**/") && !strings.HasPrefix(line, "*") {
		r.rooted = true
	}

	r.regex = regexp.MustCompile("^" + translate(line) + "$")
	return r, true
}

// matches checks one rule. Directory-only patterns also claim the
// files inside the directory: for "temp/", the path "temp/file.ts"
// matches.
func (r rule) matches(path string, isDir bool) bool {
	path, ok := r.descope(path)
	if !ok {
		return false
	}

	if r.rooted {
		return r.matchRooted(path, isDir)
	}

	parts := strings.Split(path, "/")
	if r.dirOnly {
		for i, part := range parts {
			if r.regex.MatchString(part) {
				return i < len(parts)-1 || isDir
			}
		}
		return false
	}

	if r.regex.MatchString(parts[len(parts)-1]) || r.regex.MatchString(path) {
		return true
	}
	for _, part := range parts {
		if r.regex.MatchString(part) {
			return true
		}
	}
	return false
}

// descope strips the rule's scope prefix, reporting false for paths
// outside it.
func (r rule) descope(path string) (string, bool) {
	if r.scope == "" {
		return path, true
	}
	if path == r.scope {
		return filepath.Base(path), true
	}
	if rest, ok := strings.CutPrefix(path, r.scope+"/"); ok {
		return rest, true
	}
	return "", false
}

// matchRooted handles patterns fixed to the scope root. A rooted
// directory pattern also claims everything beneath the directory it
// names.
func (r rule) matchRooted(path string, isDir bool) bool {
	if r.regex.MatchString(path) {
		return !r.dirOnly || isDir
	}
	if !r.dirOnly {
		return false
	}
	// Try every ancestor prefix: "build/cache/x" checks "build", then
	// "build/cache".
	for i := 0; i < len(path); i++ {
		if path[i] == '/' && r.regex.MatchString(path[:i]) {
			return true
		}
	}
	return false
}

// translate converts a gitignore pattern to regular expression syntax.
func translate(pattern string) string {
	var b strings.Builder

	for i := 0; i < len(pattern); {
		switch c := pattern[i]; c {
		case '*':
			switch {
			case strings.HasPrefix(pattern[i:], "**/"):
				// "**/" crosses any number of directories.
				b.WriteString("(?:.*/)?")
				i += 3
			case strings.HasPrefix(pattern[i:], "**") && (i == 0 || pattern[i-1] == '/'):
				// Trailing or slash-bounded "**" matches anything.
				b.WriteString(".*")
				i += 2
			default:
				// A single "*" stops at directory boundaries.
				b.WriteString("[^/]*")
				i++
			}

		case '?':
			b.WriteString("[^/]")
			i++

		case '[':
			// Character classes pass through unless unterminated.
			if j := strings.IndexByte(pattern[i+1:], ']'); j >= 0 {
				b.WriteString(pattern[i : i+j+2])
				i += j + 2
			} else {
				b.WriteString(`\[`)
				i++
			}

		case '\\':
			if i+1 < len(pattern) {
				b.WriteString(regexp.QuoteMeta(string(pattern[i+1])))
				i += 2
			} else {
				b.WriteString(`\\`)
				i++
			}

		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
			i++
		}
	}

	return b.String()
}
