package index

import (
	"path"
	"regexp"
	"strings"
)

// globMatcher matches relative file paths against a shell wildcard
// pattern. Wildcards are not separator-aware: * matches any run of
// characters including "/", ? matches one character, and [seq] or
// [!seq] match character classes. A pattern matches when it covers
// the whole relative path or the basename, so "*.java" finds nested
// files. Patterns starting with "**/" are additionally tried against
// every path suffix, so "**/*.ts" also finds top-level files.
type globMatcher struct {
	re     *regexp.Regexp
	suffix *regexp.Regexp
}

func newGlobMatcher(pattern string) (*globMatcher, error) {
	re, err := regexp.Compile(translatePattern(pattern))
	if err != nil {
		return nil, err
	}
	m := &globMatcher{re: re}
	if rest, ok := strings.CutPrefix(pattern, "**/"); ok {
		sub, err := regexp.Compile(translatePattern(rest))
		if err != nil {
			return nil, err
		}
		m.suffix = sub
	}
	return m, nil
}

// Matches reports whether the slash-separated relative path matches.
func (m *globMatcher) Matches(relPath string) bool {
	if m.re.MatchString(relPath) || m.re.MatchString(path.Base(relPath)) {
		return true
	}
	if m.suffix == nil {
		return false
	}
	rest := relPath
	for {
		if m.suffix.MatchString(rest) {
			return true
		}
		i := strings.Index(rest, "/")
		if i < 0 {
			return false
		}
		rest = rest[i+1:]
	}
}

// translatePattern converts a wildcard pattern into an anchored
// regular expression. A "[" without a closing "]" is literal.
func translatePattern(pattern string) string {
	var b strings.Builder
	b.WriteString(`^(?s:`)
	for i := 0; i < len(pattern); i++ {
		switch c := pattern[i]; c {
		case '*':
			b.WriteString(`.*`)
		case '?':
			b.WriteString(`.`)
		case '[':
			j := i + 1
			if j < len(pattern) && pattern[j] == '!' {
				j++
			}
			if j < len(pattern) && pattern[j] == ']' {
				j++
			}
			for j < len(pattern) && pattern[j] != ']' {
				j++
			}
			if j >= len(pattern) {
				b.WriteString(`\[`)
				continue
			}
			stuff := strings.ReplaceAll(pattern[i+1:j], `\`, `\\`)
			i = j
			if strings.HasPrefix(stuff, "!") {
				stuff = "^" + stuff[1:]
			} else if strings.HasPrefix(stuff, "^") {
				stuff = `\` + stuff
			}
			b.WriteString("[" + stuff + "]")
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteString(`)$`)
	return b.String()
}
