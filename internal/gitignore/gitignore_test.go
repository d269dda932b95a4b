package gitignore

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// matchCase exercises one pattern against one path.
type matchCase struct {
	name    string
	pattern string
	path    string
	isDir   bool
	want    bool
}

func runMatchCases(t *testing.T, cases []matchCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := NewWithPatterns(tc.pattern)
			assert.Equal(t, tc.want, m.Match(tc.path, tc.isDir),
				"pattern %q against %q", tc.pattern, tc.path)
		})
	}
}

func TestMatcher_PlainNames(t *testing.T) {
	runMatchCases(t, []matchCase{
		{name: "exact filename", pattern: "foo.txt", path: "foo.txt", want: true},
		{name: "different filename", pattern: "foo.txt", path: "bar.txt", want: false},
		{name: "filename in subdir", pattern: "foo.txt", path: "src/foo.txt", want: true},
		{name: "filename deep nested", pattern: "foo.txt", path: "a/b/c/foo.txt", want: true},
	})
}

func TestMatcher_Wildcards(t *testing.T) {
	runMatchCases(t, []matchCase{
		{name: "star by extension", pattern: "*.log", path: "error.log", want: true},
		{name: "star nested", pattern: "*.log", path: "logs/error.log", want: true},
		{name: "star wrong extension", pattern: "*.log", path: "error.txt", want: false},
		{name: "star as prefix", pattern: "test*", path: "testfile.ts", want: true},
		{name: "star prefix miss", pattern: "test*", path: "production.ts", want: false},
		{name: "question mark", pattern: "file?.txt", path: "file1.txt", want: true},
		{name: "question mark one char only", pattern: "file?.txt", path: "file12.txt", want: false},
		{name: "star stops at slash", pattern: "src/*.js", path: "src/lib/app.js", want: false},
		{name: "character class", pattern: "file[0-9].txt", path: "file5.txt", want: true},
		{name: "character class miss", pattern: "file[0-9].txt", path: "fileX.txt", want: false},
	})
}

func TestMatcher_DoubleStar(t *testing.T) {
	runMatchCases(t, []matchCase{
		{name: "crosses directories", pattern: "**/node_modules/**", path: "a/node_modules/x/y.js", want: true},
		{name: "matches at root too", pattern: "**/node_modules/**", path: "node_modules/pkg/i.js", want: true},
		{name: "trailing swallows subtree", pattern: "dist/**", path: "dist/bundle/app.js", want: true},
		{name: "trailing stays in subtree", pattern: "dist/**", path: "src/app.js", want: false},
		{name: "with extension", pattern: "**/*.min.js", path: "assets/vendor/lib.min.js", want: true},
		{name: "in the middle", pattern: "a/**/z.txt", path: "a/b/c/z.txt", want: true},
	})
}

func TestMatcher_Negation(t *testing.T) {
	// Given: an ignore followed by a negation
	m := NewWithPatterns("*.log", "!important.log")

	// Then: the negation resurrects its path
	assert.True(t, m.Match("error.log", false))
	assert.False(t, m.Match("important.log", false))

	// Given: the same rules in reverse order
	m = NewWithPatterns("!important.log", "*.log")

	// Then: the later ignore wins
	assert.True(t, m.Match("important.log", false))
}

func TestMatcher_DirectoryOnly(t *testing.T) {
	m := NewWithPatterns("build/")

	assert.True(t, m.Match("build", true), "matches the directory itself")
	assert.False(t, m.Match("build", false), "does not match a plain file named build")
	assert.True(t, m.Match("build/output.js", false), "matches files inside")
	assert.True(t, m.Match("sub/build/output.js", false), "matches nested dirs")
}

func TestMatcher_RootedPatterns(t *testing.T) {
	// Given: a pattern with a leading slash
	m := NewWithPatterns("/target")

	// Then: it only matches at the root
	assert.True(t, m.Match("target", false))
	assert.False(t, m.Match("sub/target", false))

	// Given: a pattern with an internal slash
	m = NewWithPatterns("doc/frotz")

	// Then: it is rooted as well
	assert.True(t, m.Match("doc/frotz", false))
	assert.False(t, m.Match("x/doc/frotz", false))
}

func TestMatcher_ScopedToBase(t *testing.T) {
	// Given: a pattern from a nested .gitignore under src/
	m := New()
	m.AddPatternWithBase("*.gen.ts", "src")

	// Then: only paths under src are considered
	assert.True(t, m.Match("src/api.gen.ts", false))
	assert.True(t, m.Match("src/deep/api.gen.ts", false))
	assert.False(t, m.Match("api.gen.ts", false))
	assert.False(t, m.Match("other/api.gen.ts", false))
}

func TestMatcher_SkipsCommentsAndBlanks(t *testing.T) {
	// Given: comment and blank lines
	m := NewWithPatterns("# just a comment", "", "   ")

	// Then: no rules were added
	assert.False(t, m.Match("# just a comment", false))
	assert.False(t, m.Match("anything", false))
}

func TestMatcher_EscapedSpecials(t *testing.T) {
	// Given: escaped leading hash and bang
	m := NewWithPatterns(`\#literal`, `\!bang`)

	// Then: they match literally instead of acting as comment/negation
	assert.True(t, m.Match("#literal", false))
	assert.True(t, m.Match("!bang", false))
}

func TestMatcher_EscapedTrailingSpace(t *testing.T) {
	// Given: a pattern ending in a backslash-escaped space
	m := NewWithPatterns(`data\ `)

	// Then: the trailing space is part of the name
	assert.True(t, m.Match("data ", false))
	assert.False(t, m.Match("data", false))
}

func TestMatcher_AddFromFile(t *testing.T) {
	// Given: a .gitignore on disk
	path := filepath.Join(t.TempDir(), ".gitignore")
	content := "node_modules/\n*.log\n# comment\n\n!keep.log\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	// When: loading it
	m := New()
	require.NoError(t, m.AddFromFile(path, ""))

	// Then: its rules apply in order
	assert.True(t, m.Match("node_modules/pkg/index.js", false))
	assert.True(t, m.Match("debug.log", false))
	assert.False(t, m.Match("keep.log", false))
	assert.False(t, m.Match("src/main.ts", false))
}

func TestMatcher_AddFromFileMissing(t *testing.T) {
	m := New()
	err := m.AddFromFile(filepath.Join(t.TempDir(), "nope"), "")
	assert.Error(t, err)
}

func TestNewWithPatterns_Defaults(t *testing.T) {
	// Given: the usual build-artifact excludes
	m := NewWithPatterns("node_modules", "target", "build", "dist", ".git")

	// Then: artifact paths are ignored and sources are not
	assert.True(t, m.Match("node_modules/x.js", false))
	assert.True(t, m.Match("deep/target/classes/A.class", false))
	assert.True(t, m.Match(".git/HEAD", false))
	assert.False(t, m.Match("src/Main.java", false))
}

func TestMatcher_ConcurrentUse(t *testing.T) {
	// Given: readers matching while a writer adds rules
	m := NewWithPatterns("*.tmp")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = m.Match("a/b/c.tmp", false)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 20; j++ {
			m.AddPattern("*.bak")
		}
	}()
	wg.Wait()

	// Then: both the old and the new rules hold
	assert.True(t, m.Match("x.tmp", false))
	assert.True(t, m.Match("x.bak", false))
}
